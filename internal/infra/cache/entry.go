package cache

import (
	"encoding/json"
	"time"
)

// Entry is one cached value. The same record is held in memory and mirrored
// as JSON into the persistent tier.
type Entry struct {
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	HitCount  int             `json:"hit_count"`
	LastHitAt time.Time       `json:"last_hit_at"`
}

// Expired reports whether the entry is no longer logically present at now.
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

func (e *Entry) touch(now time.Time) {
	e.HitCount++
	e.LastHitAt = now
}

func (e *Entry) clone() *Entry {
	c := *e
	c.Data = append(json.RawMessage(nil), e.Data...)
	return &c
}

func decodeEntry(raw []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	if e.Key == "" || len(e.Data) == 0 {
		return nil, errMalformedEntry
	}
	return &e, nil
}
