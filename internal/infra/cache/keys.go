package cache

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// Cache categories. The category is the part of a key before the first colon
// and selects the default TTL.
const (
	CategoryExtract     = "extract"
	CategoryGaps        = "gaps"
	CategoryNode        = "node"
	CategoryExplanation = "explain"
)

// DefaultTTLs are the per-category lifetimes used when Set is called without a TTL.
var DefaultTTLs = map[string]time.Duration{
	CategoryExtract:     7 * 24 * time.Hour,
	CategoryGaps:        time.Hour,
	CategoryNode:        time.Hour,
	CategoryExplanation: time.Hour,
}

// DefaultTTL applies to categories missing from DefaultTTLs.
const DefaultTTL = 24 * time.Hour

// partSeparator keeps ("ab","c") and ("a","bc") distinct after joining.
const partSeparator = "\x1f"

// Key builds a deterministic cache key: category + ":" + hex(xxhash64(normalized parts)).
// Inputs that differ only in case, punctuation or whitespace map to the same key.
func Key(category string, parts ...string) string {
	normalized := make([]string, len(parts))
	for i, p := range parts {
		normalized[i] = Normalize(p)
	}
	sum := xxhash.Sum64String(strings.Join(normalized, partSeparator))
	return fmt.Sprintf("%s:%016x", category, sum)
}

// Normalize lower-cases s, drops punctuation and symbols, and collapses whitespace.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// CategoryOf returns the category portion of key, or the whole key when it has no colon.
func CategoryOf(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

// TTLFor returns the default lifetime for category.
func TTLFor(category string) time.Duration {
	if ttl, ok := DefaultTTLs[category]; ok {
		return ttl
	}
	return DefaultTTL
}
