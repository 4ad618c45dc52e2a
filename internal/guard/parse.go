package guard

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"skillgap-ai/internal/domain/entity"
)

// Output limits enforced on model results.
const (
	MaxSkills         = 50
	MaxExplanations   = 20
	MaxTextRunes      = 2000
	MaxNameRunes      = 200
	MaxNextSteps      = 5
	MaxStepRunes      = 800
	MaxListItems      = 8
	DefaultWeeks      = 4
	DefaultLevel      = 1
	DefaultConfidence = 0.5
)

var validate = validator.New()

func extractionSchema(allow entity.AllowSet) Schema {
	return Schema{
		{Name: "matched_id", Kind: KindID, Allow: allow.Contains},
		{Name: "matched_name", Kind: KindString, MaxLen: MaxNameRunes},
		{Name: "raw_name", Kind: KindString, MaxLen: MaxNameRunes},
		{Name: "inferred_level", Kind: KindInt, Min: entity.MinSkillLevel, Max: entity.MaxSkillLevel, Default: DefaultLevel},
		{Name: "confidence", Kind: KindFloat, Min: entity.MinConfidence, Max: entity.MaxConfidence, Default: DefaultConfidence},
		{Name: "evidence", Kind: KindString, MaxLen: entity.MaxEvidenceLength},
	}
}

func gapSchema(allowGapIDs entity.AllowSet) Schema {
	return Schema{
		{Name: "gap_id", Kind: KindID, Allow: allowGapIDs.Contains},
		{Name: "summary", Kind: KindString, MaxLen: MaxTextRunes},
		{Name: "why_it_matters", Kind: KindString, MaxLen: MaxTextRunes},
		{Name: "next_steps", Kind: KindStringList, MaxLen: MaxNextSteps, ItemMaxLen: MaxStepRunes},
		{Name: "estimated_weeks", Kind: KindInt, Min: 1, Max: 52, Default: DefaultWeeks},
	}
}

func nodeSchema(related entity.AllowSet) Schema {
	return Schema{
		{Name: "summary", Kind: KindString, MaxLen: MaxTextRunes},
		{Name: "key_concepts", Kind: KindStringList, MaxLen: MaxListItems, ItemMaxLen: MaxNameRunes},
		{Name: "learning_path", Kind: KindStringList, MaxLen: MaxListItems, ItemMaxLen: MaxStepRunes},
		{Name: "related_skill_ids", Kind: KindStringList, MaxLen: MaxListItems, Allow: related.Contains},
	}
}

// ParseExtraction turns raw extract-skills output into validated skills.
// matched_id values outside allow are nulled along with matched_name; the
// canonical allow-set name replaces whatever name the model produced.
func ParseExtraction(raw string, allow entity.AllowSet) (entity.ExtractionResult, []entity.Correction, error) {
	root, err := parseRoot(raw)
	if err != nil {
		return entity.ExtractionResult{}, nil, err
	}

	items, ok := listAt(root, "skills")
	if !ok {
		return entity.ExtractionResult{}, nil, parseError("missing skills array", raw)
	}

	schema := extractionSchema(allow)
	result := entity.ExtractionResult{Skills: []entity.ValidatedSkill{}}
	var corr []entity.Correction
	seen := make(map[string]bool)

	for i, item := range items {
		path := fmt.Sprintf("skills[%d]", i)
		if !item.IsObject() {
			corr = append(corr, entity.Correction{Path: path, Reason: "dropped non-object"})
			continue
		}
		vals, c := schema.Apply(item, path)
		corr = append(corr, c...)

		skill := entity.ValidatedSkill{
			SkillID:    vals.ID("matched_id"),
			RawName:    vals.String("raw_name"),
			Level:      vals.Int("inferred_level"),
			Confidence: vals.Float("confidence"),
			Evidence:   vals.String("evidence"),
		}
		if skill.SkillID != nil {
			name, _ := allow.Name(*skill.SkillID)
			skill.MatchedName = &name
			skill.Name = name
		} else {
			skill.Name = skill.RawName
		}

		switch {
		case skill.Name == "":
			corr = append(corr, entity.Correction{Path: path, Reason: "dropped unnamed skill"})
			continue
		case skill.SkillID != nil && seen[*skill.SkillID]:
			corr = append(corr, entity.Correction{Path: path, Reason: "dropped duplicate", From: *skill.SkillID})
			continue
		case len(result.Skills) == MaxSkills:
			corr = append(corr, entity.Correction{Path: path, Reason: "dropped over limit", To: MaxSkills})
			continue
		}
		if skill.SkillID != nil {
			seen[*skill.SkillID] = true
		}
		result.Skills = append(result.Skills, skill)
	}

	if err := validate.Struct(result); err != nil {
		return entity.ExtractionResult{}, corr, contractError(err)
	}
	return result, corr, nil
}

// ParseGapExplanation turns raw explain-gaps output into explanations.
// Explanations whose gap_id is not in allowGapIDs are dropped.
func ParseGapExplanation(raw string, allowGapIDs entity.AllowSet) (entity.GapExplanationResult, []entity.Correction, error) {
	root, err := parseRoot(raw)
	if err != nil {
		return entity.GapExplanationResult{}, nil, err
	}

	items, ok := listAt(root, "explanations")
	if !ok {
		return entity.GapExplanationResult{}, nil, parseError("missing explanations array", raw)
	}

	top, corr := Schema{{Name: "overview", Kind: KindString, MaxLen: MaxTextRunes}}.Apply(root, "")
	result := entity.GapExplanationResult{
		Overview:     top.String("overview"),
		Explanations: []entity.GapExplanation{},
	}

	schema := gapSchema(allowGapIDs)
	seen := make(map[string]bool)
	for i, item := range items {
		path := fmt.Sprintf("explanations[%d]", i)
		if !item.IsObject() {
			corr = append(corr, entity.Correction{Path: path, Reason: "dropped non-object"})
			continue
		}
		vals, c := schema.Apply(item, path)
		corr = append(corr, c...)

		id := vals.ID("gap_id")
		switch {
		case id == nil:
			corr = append(corr, entity.Correction{Path: path, Reason: "dropped unknown gap"})
			continue
		case seen[*id]:
			corr = append(corr, entity.Correction{Path: path, Reason: "dropped duplicate", From: *id})
			continue
		case len(result.Explanations) == MaxExplanations:
			corr = append(corr, entity.Correction{Path: path, Reason: "dropped over limit", To: MaxExplanations})
			continue
		}
		seen[*id] = true

		result.Explanations = append(result.Explanations, entity.GapExplanation{
			GapID:          *id,
			Summary:        vals.String("summary"),
			WhyItMatters:   vals.String("why_it_matters"),
			NextSteps:      vals.Strings("next_steps"),
			EstimatedWeeks: vals.Int("estimated_weeks"),
		})
	}

	if err := validate.Struct(result); err != nil {
		return entity.GapExplanationResult{}, corr, contractError(err)
	}
	return result, corr, nil
}

// ParseNodeExplanation turns raw explain-node output into a NodeExplanation for
// skillID. Related skill IDs are kept only when present in related.
func ParseNodeExplanation(raw, skillID string, related entity.AllowSet) (entity.NodeExplanation, []entity.Correction, error) {
	root, err := parseRoot(raw)
	if err != nil {
		return entity.NodeExplanation{}, nil, err
	}
	if node := root.Get("node"); node.IsObject() {
		root = node
	}

	vals, corr := nodeSchema(related).Apply(root, "node")
	result := entity.NodeExplanation{
		SkillID:         skillID,
		Summary:         vals.String("summary"),
		KeyConcepts:     vals.Strings("key_concepts"),
		LearningPath:    vals.Strings("learning_path"),
		RelatedSkillIDs: vals.Strings("related_skill_ids"),
	}
	if result.Summary == "" {
		return entity.NodeExplanation{}, corr, parseError("node explanation has no summary", raw)
	}

	if err := validate.Struct(result); err != nil {
		return entity.NodeExplanation{}, corr, contractError(err)
	}
	return result, corr, nil
}

func parseRoot(raw string) (gjson.Result, error) {
	js, err := ExtractJSON(raw)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.Parse(js), nil
}

// listAt returns the array under key.
func listAt(root gjson.Result, key string) ([]gjson.Result, bool) {
	v := root.Get(key)
	if !v.IsArray() {
		return nil, false
	}
	return v.Array(), true
}

func contractError(err error) *entity.ServiceError {
	return entity.WrapServiceError(entity.CodeParse, "model output violates result contract", err)
}
