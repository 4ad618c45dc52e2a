package skills

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/guard"
	"skillgap-ai/internal/utils/text"
)

// Values assigned to skills found by keyword matching.
const (
	FallbackLevel      = 2
	FallbackConfidence = 0.5
	snippetRadius      = 40
)

// fallbackExtraction finds allow-set names and ids in s at word boundaries.
// Results are ordered by first occurrence.
func fallbackExtraction(s string, allow entity.AllowSet) entity.ExtractionResult {
	lower := strings.ToLower(s)
	src := s
	if len(lower) != len(s) {
		src = lower
	}

	type hit struct {
		id  string
		pos int
		end int
	}
	var hits []hit
	for _, id := range allow.IDs() {
		name, _ := allow.Name(id)
		best := -1
		bestEnd := 0
		for _, needle := range []string{strings.ToLower(name), strings.ToLower(id)} {
			if pos := indexWord(lower, needle); pos >= 0 && (best < 0 || pos < best) {
				best, bestEnd = pos, pos+len(needle)
			}
		}
		if best >= 0 {
			hits = append(hits, hit{id: id, pos: best, end: bestEnd})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	result := entity.ExtractionResult{Skills: make([]entity.ValidatedSkill, 0, len(hits))}
	for _, h := range hits {
		id := h.id
		name, _ := allow.Name(id)
		result.Skills = append(result.Skills, entity.ValidatedSkill{
			SkillID:     &id,
			MatchedName: &name,
			Name:        name,
			RawName:     src[h.pos:h.end],
			Level:       FallbackLevel,
			Confidence:  FallbackConfidence,
			Evidence:    snippet(src, h.pos, h.end),
		})
	}
	return result
}

// indexWord returns the first index of needle in s that is not part of a
// longer word, or -1.
func indexWord(s, needle string) int {
	if needle == "" {
		return -1
	}
	for offset := 0; offset < len(s); {
		i := strings.Index(s[offset:], needle)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(needle)
		if boundaryBefore(s, start, needle) && boundaryAfter(s, end, needle) {
			return start
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		offset = start + size
	}
	return -1
}

func boundaryBefore(s string, start int, needle string) bool {
	first, _ := utf8.DecodeRuneInString(needle)
	if !isWordRune(first) || start == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:start])
	return !isWordRune(prev)
}

func boundaryAfter(s string, end int, needle string) bool {
	last, _ := utf8.DecodeLastRuneInString(needle)
	if !isWordRune(last) || end >= len(s) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(s[end:])
	return !isWordRune(next)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// snippet returns the text around [start,end) bounded to the evidence length.
func snippet(s string, start, end int) string {
	from := start
	for n := 0; n < snippetRadius && from > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(s[:from])
		from -= size
	}
	to := end
	for n := 0; n < snippetRadius && to < len(s); n++ {
		_, size := utf8.DecodeRuneInString(s[to:])
		to += size
	}
	out, _ := text.TruncateWithEllipsis(strings.TrimSpace(s[from:to]), entity.MaxEvidenceLength)
	return out
}

// fallbackGapExplanation builds templated explanations from the analysis alone.
func fallbackGapExplanation(analysis entity.GapAnalysis, targetRole string) entity.GapExplanationResult {
	role := targetRole
	if role == "" {
		role = analysis.RoleName
	}
	if role == "" {
		role = "the target role"
	}

	result := entity.GapExplanationResult{Explanations: []entity.GapExplanation{}}
	if len(analysis.Gaps) == 0 {
		result.Overview = fmt.Sprintf("You meet every requirement for %s. Keep your skills current and deepen your strongest areas.", role)
		return result
	}

	result.Overview = fmt.Sprintf("You are %d%% ready for %s with %d skill gap(s) to close. Start with the largest gaps: %s.",
		analysis.Readiness, role, len(analysis.Gaps), topGapNames(analysis.Gaps, 3))

	for i, g := range analysis.Gaps {
		if i == guard.MaxExplanations {
			break
		}
		name := displayOr(g.Name, g.SkillID)
		result.Explanations = append(result.Explanations, entity.GapExplanation{
			GapID:          g.SkillID,
			Summary:        fmt.Sprintf("You are at level %d in %s; %s expects level %d.", g.CurrentLevel, name, role, g.RequiredLevel),
			WhyItMatters:   whyItMatters(name, g.Category, role),
			NextSteps:      nextSteps(name, g),
			EstimatedWeeks: estimatedWeeks(g.Delta),
		})
	}
	return result
}

func topGapNames(gaps []entity.Gap, n int) string {
	names := make([]string, 0, n)
	for i, g := range gaps {
		if i == n {
			break
		}
		names = append(names, displayOr(g.Name, g.SkillID))
	}
	return strings.Join(names, ", ")
}

func whyItMatters(name, category, role string) string {
	switch category {
	case "language":
		return fmt.Sprintf("%s is a core language for %s and shows up in most day-to-day work.", name, role)
	case "data":
		return fmt.Sprintf("%s work depends on handling data correctly and efficiently with %s.", role, name)
	case "infrastructure", "operations":
		return fmt.Sprintf("%s keeps software running reliably; %s is expected to own it in production.", name, role)
	default:
		return fmt.Sprintf("%s is one of the skills %s relies on regularly.", name, role)
	}
}

func nextSteps(name string, g entity.Gap) []string {
	steps := []string{}
	if g.CurrentLevel <= 1 {
		steps = append(steps, fmt.Sprintf("Work through an introductory course or tutorial on %s.", name))
	}
	steps = append(steps,
		fmt.Sprintf("Build a small project that uses %s end to end.", name),
		fmt.Sprintf("Review production-quality %s code and note the patterns it uses.", name))
	if g.RequiredLevel >= 4 {
		steps = append(steps, fmt.Sprintf("Take ownership of a %s task at work or in open source and get it reviewed.", name))
	}
	return steps
}

// estimatedWeeks budgets three weeks per missing level.
func estimatedWeeks(delta int) int {
	return min(max(delta*3, 1), 52)
}

// fallbackNodeExplanation builds a templated explanation from catalog data.
func fallbackNodeExplanation(skill entity.SkillInfo, userLevel int, related entity.AllowSet) entity.NodeExplanation {
	name := displayOr(skill.Name, skill.ID)
	summary := fmt.Sprintf("%s is a skill in the %s area.", name, displayOr(skill.Category, "general"))
	if userLevel > 0 {
		summary += fmt.Sprintf(" You are currently at level %d of 5.", userLevel)
	}

	path := []string{}
	for level := max(userLevel, 0) + 1; level <= entity.MaxSkillLevel; level++ {
		path = append(path, levelStep(name, level))
	}

	ids := related.IDs()
	if len(ids) > guard.MaxListItems {
		ids = ids[:guard.MaxListItems]
	}

	return entity.NodeExplanation{
		SkillID:         skill.ID,
		Summary:         summary,
		KeyConcepts:     []string{},
		LearningPath:    path,
		RelatedSkillIDs: ids,
	}
}

func levelStep(name string, level int) string {
	switch level {
	case 1:
		return fmt.Sprintf("Learn the fundamentals of %s.", name)
	case 2:
		return fmt.Sprintf("Complete guided exercises using %s.", name)
	case 3:
		return fmt.Sprintf("Use %s independently on a real project.", name)
	case 4:
		return fmt.Sprintf("Handle advanced %s problems and review others' work.", name)
	default:
		return fmt.Sprintf("Mentor others and make design decisions involving %s.", name)
	}
}

func displayOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
