package entity

import "sort"

// Skill level and confidence domains.
const (
	MinSkillLevel = 1
	MaxSkillLevel = 5

	MinConfidence = 0.0
	MaxConfidence = 1.0

	// MaxEvidenceLength is the maximum evidence length in runes.
	MaxEvidenceLength = 200
)

// AllowSet is a caller-supplied closed set of valid skill identifiers mapped to
// their display names. Identifiers produced by the model are accepted only if
// they are members of this set.
type AllowSet map[string]string

// Contains reports whether id is a member of the set.
func (a AllowSet) Contains(id string) bool {
	_, ok := a[id]
	return ok
}

// Name returns the display name for id.
func (a AllowSet) Name(id string) (string, bool) {
	name, ok := a[id]
	return name, ok
}

// IDs returns the identifiers in sorted order.
func (a AllowSet) IDs() []string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ValidatedSkill is a skill extracted from free text that has passed validation.
// SkillID and MatchedName are nil when the model's identifier was not in the allow-set.
type ValidatedSkill struct {
	SkillID     *string `json:"skill_id" validate:"omitempty,min=1"`
	MatchedName *string `json:"matched_name" validate:"omitempty,max=200"`
	Name        string  `json:"name" validate:"max=200"`
	RawName     string  `json:"raw_name" validate:"max=200"`
	Level       int     `json:"level" validate:"gte=1,lte=5"`
	Confidence  float64 `json:"confidence" validate:"gte=0,lte=1"`
	Evidence    string  `json:"evidence" validate:"max=200"`
}

// ExtractionResult is the output of the extract-skills operation.
type ExtractionResult struct {
	Skills []ValidatedSkill `json:"skills" validate:"dive"`
}

// GapExplanation explains a single skill gap in plain language.
type GapExplanation struct {
	GapID          string   `json:"gap_id" validate:"required"`
	Summary        string   `json:"summary" validate:"max=2000"`
	WhyItMatters   string   `json:"why_it_matters" validate:"max=2000"`
	NextSteps      []string `json:"next_steps" validate:"max=5,dive,max=800"`
	EstimatedWeeks int      `json:"estimated_weeks" validate:"gte=1,lte=52"`
}

// GapExplanationResult is the output of the explain-gaps operation.
type GapExplanationResult struct {
	Overview     string           `json:"overview" validate:"max=2000"`
	Explanations []GapExplanation `json:"explanations" validate:"dive"`
}

// NodeExplanation explains a single skill node of the catalog.
type NodeExplanation struct {
	SkillID         string   `json:"skill_id" validate:"required"`
	Summary         string   `json:"summary" validate:"max=2000"`
	KeyConcepts     []string `json:"key_concepts" validate:"max=8,dive,max=200"`
	LearningPath    []string `json:"learning_path" validate:"max=8,dive,max=800"`
	RelatedSkillIDs []string `json:"related_skill_ids" validate:"max=8"`
}

// Correction records one adjustment made while coercing untrusted model output
// into its typed contract.
type Correction struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	From   any    `json:"from,omitempty"`
	To     any    `json:"to,omitempty"`
}
