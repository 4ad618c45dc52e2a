package skills

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/domain/gap"
	"skillgap-ai/internal/guard"
	"skillgap-ai/internal/infra/cache"
	"skillgap-ai/internal/observability/logging"
)

// ExtractRequest asks for the skills mentioned in free text.
// An empty AllowSet uses the full catalog.
type ExtractRequest struct {
	Text     string          `json:"text"`
	AllowSet entity.AllowSet `json:"allow_set,omitempty"`
}

// ExplainGapsRequest asks for plain-language explanations of an analysis.
type ExplainGapsRequest struct {
	Analysis    entity.GapAnalysis `json:"analysis"`
	TargetRole  string             `json:"target_role"`
	UserContext string             `json:"user_context,omitempty"`
}

// ExplainNodeRequest asks for an explanation of one catalog skill.
type ExplainNodeRequest struct {
	SkillID    string `json:"skill_id"`
	UserLevel  int    `json:"user_level"`
	TargetRole string `json:"target_role,omitempty"`
}

// AnalyzeRequest asks for a deterministic gap analysis against a role.
type AnalyzeRequest struct {
	Skills []entity.UserSkill `json:"skills"`
	RoleID string             `json:"role_id"`
}

// ExtractSkills identifies catalog skills in req.Text.
// The text is sanitized before it is hashed, prompted or matched.
func (s *Service) ExtractSkills(ctx context.Context, req ExtractRequest) entity.ResultEnvelope[entity.ExtractionResult] {
	allow := req.AllowSet
	if len(allow) == 0 {
		allow = s.catalog.AllowSet()
	}
	clean := guard.Sanitize(req.Text)

	g := generation[entity.ExtractionResult]{
		operation: OpExtractSkills,
		key:       cache.Key(cache.CategoryExtract, clean, strings.Join(allow.IDs(), " ")),
		messages:  extractMessages(clean, allow),
		parse: func(raw string) (entity.ExtractionResult, []entity.Correction, error) {
			return guard.ParseExtraction(raw, allow)
		},
		fallback: func() entity.ExtractionResult { return fallbackExtraction(clean, allow) },
	}
	if clean == "" {
		g.invalid = entity.NewServiceError(entity.CodeValidation, "text is empty")
	}
	return run(ctx, s, g)
}

// ExplainGaps explains each gap of req.Analysis. Only gap ids present in the
// analysis are accepted from the model.
func (s *Service) ExplainGaps(ctx context.Context, req ExplainGapsRequest) entity.ResultEnvelope[entity.GapExplanationResult] {
	analysis := req.Analysis
	allowGaps := make(entity.AllowSet, len(analysis.Gaps))
	userContext := guard.Sanitize(req.UserContext)
	parts := []string{req.TargetRole, analysis.RoleID, userContext}
	for _, gp := range analysis.Gaps {
		allowGaps[gp.SkillID] = gp.Name
		parts = append(parts, fmt.Sprintf("%s %d %d", gp.SkillID, gp.CurrentLevel, gp.RequiredLevel))
	}

	g := generation[entity.GapExplanationResult]{
		operation: OpExplainGaps,
		key:       cache.Key(cache.CategoryGaps, parts...),
		messages:  gapsMessages(analysis, req.TargetRole, userContext),
		parse: func(raw string) (entity.GapExplanationResult, []entity.Correction, error) {
			return guard.ParseGapExplanation(raw, allowGaps)
		},
		fallback: func() entity.GapExplanationResult { return fallbackGapExplanation(analysis, req.TargetRole) },
		local:    len(analysis.Gaps) == 0,
	}
	return run(ctx, s, g)
}

// ExplainNode explains one catalog skill for a user at req.UserLevel.
// Related skill ids are restricted to the skill's catalog neighbours.
func (s *Service) ExplainNode(ctx context.Context, req ExplainNodeRequest) entity.ResultEnvelope[entity.NodeExplanation] {
	level := min(max(req.UserLevel, 0), entity.MaxSkillLevel)
	skill, known := s.catalog.Skill(req.SkillID)
	if !known {
		skill = entity.SkillInfo{ID: req.SkillID, Name: req.SkillID}
	}
	related := s.catalog.Related(req.SkillID)

	g := generation[entity.NodeExplanation]{
		operation: OpExplainNode,
		key:       cache.Key(cache.CategoryNode, req.SkillID, strconv.Itoa(level), req.TargetRole),
		messages:  nodeMessages(skill, level, req.TargetRole, related),
		parse: func(raw string) (entity.NodeExplanation, []entity.Correction, error) {
			return guard.ParseNodeExplanation(raw, req.SkillID, related)
		},
		fallback: func() entity.NodeExplanation { return fallbackNodeExplanation(skill, level, related) },
	}
	if !known {
		g.invalid = entity.NewServiceError(entity.CodeValidation, "unknown skill").WithDetail("skill_id", req.SkillID)
	}
	return run(ctx, s, g)
}

// AnalyzeGaps scores req.Skills against the role benchmark. It never calls
// the model. The envelope is unsuccessful only when the role has no
// required skills.
func (s *Service) AnalyzeGaps(ctx context.Context, req AnalyzeRequest) entity.ResultEnvelope[entity.GapAnalysis] {
	start := s.now()
	env := newEnvelope[entity.GapAnalysis](ctx, start)

	bench, err := s.catalog.Benchmark(req.RoleID)
	if err != nil {
		bench = entity.Benchmark{RoleID: req.RoleID}
	}
	analysis, err := s.scorer.Score(req.Skills, bench)
	if err != nil {
		msg := "gap analysis failed"
		if errors.Is(err, gap.ErrNoRequirements) {
			msg = "role has no required skills"
		}
		env.Success = false
		env.Error = entity.WrapServiceError(entity.CodeValidation, msg, err).WithDetail("role_id", req.RoleID)
		logging.FromContext(ctx).Warn("gap analysis failed",
			slog.String("role_id", req.RoleID),
			slog.Any("error", err))
		return finish(s, &env, OpAnalyzeGaps, sourceScorer, start)
	}

	env.Data = analysis
	return finish(s, &env, OpAnalyzeGaps, sourceScorer, start)
}

// InvalidateExtractions drops every cached extraction.
func (s *Service) InvalidateExtractions(ctx context.Context) (int, error) {
	return s.InvalidateCategory(ctx, cache.CategoryExtract)
}

// InvalidateExplanations drops every cached gap and node explanation.
func (s *Service) InvalidateExplanations(ctx context.Context) (int, error) {
	total := 0
	var errs []error
	for _, category := range []string{cache.CategoryGaps, cache.CategoryNode, cache.CategoryExplanation} {
		n, err := s.InvalidateCategory(ctx, category)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// InvalidateCategory drops every cached entry of one key category.
func (s *Service) InvalidateCategory(ctx context.Context, category string) (int, error) {
	if category == "" {
		return 0, entity.NewServiceError(entity.CodeValidation, "category is required")
	}
	n, err := s.cache.ClearByPrefix(ctx, category+":")
	logging.FromContext(ctx).Info("cache invalidated",
		slog.String("category", category),
		slog.Int("removed", n))
	return n, err
}
