package entity

// UserSkill is a skill the user holds at a given level.
type UserSkill struct {
	SkillID string `json:"skill_id"`
	Level   int    `json:"level"`
}

// Requirement is one skill a role requires at a minimum level.
type Requirement struct {
	SkillID string  `json:"skill_id"`
	Level   int     `json:"level"`
	Weight  float64 `json:"weight"`
}

// Benchmark is the deterministic requirement profile of a role.
type Benchmark struct {
	RoleID       string        `json:"role_id"`
	RoleName     string        `json:"role_name"`
	Requirements []Requirement `json:"requirements"`
}

// Severity grades how far a user is from a requirement.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Gap is a requirement the user does not meet.
type Gap struct {
	SkillID       string   `json:"skill_id"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	CurrentLevel  int      `json:"current_level"`
	RequiredLevel int      `json:"required_level"`
	Delta         int      `json:"delta"`
	Severity      Severity `json:"severity"`
}

// Strength is a requirement the user meets or exceeds.
type Strength struct {
	SkillID       string `json:"skill_id"`
	Name          string `json:"name"`
	CurrentLevel  int    `json:"current_level"`
	RequiredLevel int    `json:"required_level"`
}

// GapAnalysis is the output of the analyze-gaps operation.
// Readiness is a percentage in [0,100].
type GapAnalysis struct {
	RoleID    string     `json:"role_id"`
	RoleName  string     `json:"role_name"`
	Gaps      []Gap      `json:"gaps"`
	Strengths []Strength `json:"strengths"`
	Readiness int        `json:"readiness"`
}

// SkillInfo is the catalog description of a skill.
type SkillInfo struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
}
