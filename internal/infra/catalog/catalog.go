// Package catalog loads the skill and role catalog from YAML.
//
// The catalog is the closed vocabulary model output is validated against:
// AllowSet feeds the extraction validator and Benchmark feeds the gap scorer.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"skillgap-ai/internal/domain/entity"
)

//go:embed default.yaml
var defaultCatalogYAML []byte

// ErrRoleNotFound is returned by Benchmark for an unknown role.
var ErrRoleNotFound = errors.New("role not found")

type document struct {
	Skills []entity.SkillInfo `yaml:"skills"`
	Roles  []roleDocument     `yaml:"roles"`
}

type roleDocument struct {
	ID           string                `yaml:"id"`
	Name         string                `yaml:"name"`
	Requirements []requirementDocument `yaml:"requirements"`
}

type requirementDocument struct {
	SkillID string  `yaml:"skill_id"`
	Level   int     `yaml:"level"`
	Weight  float64 `yaml:"weight"`
}

// Catalog is an immutable, validated skill catalog. Safe for concurrent use.
type Catalog struct {
	skills map[string]entity.SkillInfo
	roles  map[string]entity.Benchmark
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// Load reads a catalog file. An empty path returns the embedded default.
// The path is expected to come from trusted configuration.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	// #nosec G304 -- path comes from configuration, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		skills: make(map[string]entity.SkillInfo, len(doc.Skills)),
		roles:  make(map[string]entity.Benchmark, len(doc.Roles)),
	}
	for i, s := range doc.Skills {
		if s.ID == "" || s.Name == "" {
			return nil, fmt.Errorf("skills[%d]: id and name are required", i)
		}
		if _, dup := c.skills[s.ID]; dup {
			return nil, fmt.Errorf("skills[%d]: duplicate id %q", i, s.ID)
		}
		c.skills[s.ID] = s
	}

	for i, r := range doc.Roles {
		if r.ID == "" {
			return nil, fmt.Errorf("roles[%d]: id is required", i)
		}
		if _, dup := c.roles[r.ID]; dup {
			return nil, fmt.Errorf("roles[%d]: duplicate id %q", i, r.ID)
		}
		bench := entity.Benchmark{RoleID: r.ID, RoleName: r.Name, Requirements: make([]entity.Requirement, 0, len(r.Requirements))}
		for j, req := range r.Requirements {
			if _, ok := c.skills[req.SkillID]; !ok {
				return nil, fmt.Errorf("roles[%d].requirements[%d]: unknown skill %q", i, j, req.SkillID)
			}
			if req.Level < entity.MinSkillLevel || req.Level > entity.MaxSkillLevel {
				return nil, fmt.Errorf("roles[%d].requirements[%d]: level %d out of range", i, j, req.Level)
			}
			if req.Weight < 0 {
				return nil, fmt.Errorf("roles[%d].requirements[%d]: negative weight", i, j)
			}
			bench.Requirements = append(bench.Requirements, entity.Requirement(req))
		}
		c.roles[r.ID] = bench
	}
	return c, nil
}

// AllowSet returns every skill id mapped to its display name.
func (c *Catalog) AllowSet() entity.AllowSet {
	allow := make(entity.AllowSet, len(c.skills))
	for id, s := range c.skills {
		allow[id] = s.Name
	}
	return allow
}

// Skill looks up a skill by id.
func (c *Catalog) Skill(id string) (entity.SkillInfo, bool) {
	s, ok := c.skills[id]
	return s, ok
}

// Related returns the other skills in id's category.
func (c *Catalog) Related(id string) entity.AllowSet {
	related := entity.AllowSet{}
	s, ok := c.skills[id]
	if !ok {
		return related
	}
	for other, info := range c.skills {
		if other != id && info.Category == s.Category {
			related[other] = info.Name
		}
	}
	return related
}

// Benchmark returns a copy of the requirement profile for roleID.
func (c *Catalog) Benchmark(roleID string) (entity.Benchmark, error) {
	b, ok := c.roles[roleID]
	if !ok {
		return entity.Benchmark{}, fmt.Errorf("%w: %s", ErrRoleNotFound, roleID)
	}
	b.Requirements = append([]entity.Requirement(nil), b.Requirements...)
	return b, nil
}

// Roles returns the role ids in sorted order.
func (c *Catalog) Roles() []string {
	ids := make([]string, 0, len(c.roles))
	for id := range c.roles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
