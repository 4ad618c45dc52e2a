package gap

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"skillgap-ai/internal/domain/entity"
)

var testSkills = map[string]entity.SkillInfo{
	"go":     {ID: "go", Name: "Go", Category: "language"},
	"sql":    {ID: "sql", Name: "SQL", Category: "data"},
	"docker": {ID: "docker", Name: "Docker", Category: "infrastructure"},
}

func lookup(id string) (entity.SkillInfo, bool) {
	info, ok := testSkills[id]
	return info, ok
}

func backend() entity.Benchmark {
	return entity.Benchmark{
		RoleID:   "backend",
		RoleName: "Backend Engineer",
		Requirements: []entity.Requirement{
			{SkillID: "go", Level: 4, Weight: 2},
			{SkillID: "sql", Level: 3, Weight: 1},
			{SkillID: "docker", Level: 2, Weight: 1},
		},
	}
}

func TestScorer_Score(t *testing.T) {
	s := NewScorer(lookup)

	got, err := s.Score([]entity.UserSkill{
		{SkillID: "go", Level: 1},
		{SkillID: "docker", Level: 3},
		{SkillID: "rust", Level: 5},
	}, backend())
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	want := entity.GapAnalysis{
		RoleID:   "backend",
		RoleName: "Backend Engineer",
		Gaps: []entity.Gap{
			{SkillID: "go", Name: "Go", Category: "language", CurrentLevel: 1, RequiredLevel: 4, Delta: 3, Severity: entity.SeverityHigh},
			{SkillID: "sql", Name: "SQL", Category: "data", CurrentLevel: 0, RequiredLevel: 3, Delta: 3, Severity: entity.SeverityHigh},
		},
		Strengths: []entity.Strength{
			{SkillID: "docker", Name: "Docker", CurrentLevel: 3, RequiredLevel: 2},
		},
		// (2*1/4 + 0 + 1) / 4 = 0.375
		Readiness: 38,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Score() mismatch (-want +got):\n%s", diff)
	}
}

func TestScorer_Readiness(t *testing.T) {
	s := NewScorer(nil)

	tests := []struct {
		name   string
		skills []entity.UserSkill
		want   int
	}{
		{"nothing held", nil, 0},
		{"everything met", []entity.UserSkill{{SkillID: "go", Level: 5}, {SkillID: "sql", Level: 3}, {SkillID: "docker", Level: 2}}, 100},
		{"exceeding does not overshoot", []entity.UserSkill{{SkillID: "go", Level: 9}}, 50},
		{"duplicate keeps highest", []entity.UserSkill{{SkillID: "go", Level: 1}, {SkillID: "go", Level: 4}}, 50},
		{"negative level ignored", []entity.UserSkill{{SkillID: "go", Level: -3}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Score(tt.skills, backend())
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if got.Readiness != tt.want {
				t.Errorf("Readiness = %d, want %d", got.Readiness, tt.want)
			}
			if got.Readiness < 0 || got.Readiness > 100 {
				t.Errorf("Readiness %d out of range", got.Readiness)
			}
		})
	}
}

func TestScorer_DefaultWeightAndLevel(t *testing.T) {
	s := NewScorer(nil)
	bench := entity.Benchmark{RoleID: "r", Requirements: []entity.Requirement{
		{SkillID: "a", Level: 0, Weight: 0},
		{SkillID: "b", Level: 2, Weight: -1},
	}}

	got, err := s.Score([]entity.UserSkill{{SkillID: "a", Level: 1}}, bench)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if got.Readiness != 50 {
		t.Errorf("Readiness = %d, want 50", got.Readiness)
	}
	if len(got.Gaps) != 1 || got.Gaps[0].SkillID != "b" || got.Gaps[0].Severity != entity.SeverityMedium {
		t.Errorf("unexpected gaps: %+v", got.Gaps)
	}
}

func TestScorer_NoRequirements(t *testing.T) {
	_, err := NewScorer(nil).Score(nil, entity.Benchmark{RoleID: "empty"})
	if !errors.Is(err, ErrNoRequirements) {
		t.Errorf("error = %v, want ErrNoRequirements", err)
	}
}

func TestSeverityFor(t *testing.T) {
	tests := map[int]entity.Severity{
		1: entity.SeverityLow,
		2: entity.SeverityMedium,
		3: entity.SeverityHigh,
		5: entity.SeverityHigh,
	}
	for delta, want := range tests {
		if got := SeverityFor(delta); got != want {
			t.Errorf("SeverityFor(%d) = %s, want %s", delta, got, want)
		}
	}
}
