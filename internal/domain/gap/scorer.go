// Package gap computes deterministic skill-gap analyses against a role benchmark.
package gap

import (
	"errors"
	"math"
	"sort"

	"skillgap-ai/internal/domain/entity"
)

// ErrNoRequirements is returned when a benchmark has no required skills.
var ErrNoRequirements = errors.New("benchmark has no required skills")

// SkillLookup resolves catalog details for a skill id.
type SkillLookup func(id string) (entity.SkillInfo, bool)

// Scorer is a pure gap scorer. It holds no state beyond the lookup.
type Scorer struct {
	lookup SkillLookup
}

// NewScorer creates a scorer. A nil lookup leaves names and categories empty.
func NewScorer(lookup SkillLookup) *Scorer {
	if lookup == nil {
		lookup = func(string) (entity.SkillInfo, bool) { return entity.SkillInfo{}, false }
	}
	return &Scorer{lookup: lookup}
}

// Score compares skills against bench.
//
// A requirement the user meets or exceeds is a strength, anything below is a
// gap. Readiness is the weighted share of required levels the user covers,
// rounded to a whole percentage. Gaps are ordered largest first.
func (s *Scorer) Score(skills []entity.UserSkill, bench entity.Benchmark) (entity.GapAnalysis, error) {
	if len(bench.Requirements) == 0 {
		return entity.GapAnalysis{}, ErrNoRequirements
	}

	held := make(map[string]int, len(skills))
	for _, sk := range skills {
		level := clampLevel(sk.Level)
		if level > held[sk.SkillID] {
			held[sk.SkillID] = level
		}
	}

	analysis := entity.GapAnalysis{
		RoleID:    bench.RoleID,
		RoleName:  bench.RoleName,
		Gaps:      []entity.Gap{},
		Strengths: []entity.Strength{},
	}
	weights := make(map[string]float64, len(bench.Requirements))

	var covered, total float64
	for _, req := range bench.Requirements {
		required := max(clampLevel(req.Level), entity.MinSkillLevel)
		weight := req.Weight
		if weight <= 0 {
			weight = 1
		}
		weights[req.SkillID] = weight
		current := held[req.SkillID]
		info, _ := s.lookup(req.SkillID)

		total += weight
		covered += weight * float64(min(current, required)) / float64(required)

		if current >= required {
			analysis.Strengths = append(analysis.Strengths, entity.Strength{
				SkillID:       req.SkillID,
				Name:          info.Name,
				CurrentLevel:  current,
				RequiredLevel: required,
			})
			continue
		}
		delta := required - current
		analysis.Gaps = append(analysis.Gaps, entity.Gap{
			SkillID:       req.SkillID,
			Name:          info.Name,
			Category:      info.Category,
			CurrentLevel:  current,
			RequiredLevel: required,
			Delta:         delta,
			Severity:      SeverityFor(delta),
		})
	}

	sort.SliceStable(analysis.Gaps, func(i, j int) bool {
		a, b := analysis.Gaps[i], analysis.Gaps[j]
		if a.Delta != b.Delta {
			return a.Delta > b.Delta
		}
		if weights[a.SkillID] != weights[b.SkillID] {
			return weights[a.SkillID] > weights[b.SkillID]
		}
		return a.SkillID < b.SkillID
	})
	sort.SliceStable(analysis.Strengths, func(i, j int) bool {
		return analysis.Strengths[i].SkillID < analysis.Strengths[j].SkillID
	})

	analysis.Readiness = int(math.Round(100 * covered / total))
	return analysis, nil
}

// SeverityFor grades a level delta.
func SeverityFor(delta int) entity.Severity {
	switch {
	case delta >= 3:
		return entity.SeverityHigh
	case delta == 2:
		return entity.SeverityMedium
	default:
		return entity.SeverityLow
	}
}

// clampLevel maps a user level into [0,5]; 0 means not held.
func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > entity.MaxSkillLevel {
		return entity.MaxSkillLevel
	}
	return level
}
