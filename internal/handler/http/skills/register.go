// Package skills exposes the skill orchestrator over HTTP.
package skills

import (
	"context"
	"net/http"

	"skillgap-ai/internal/domain/entity"
	skillsUC "skillgap-ai/internal/usecase/skills"
)

// Service is the orchestrator surface served by this package.
type Service interface {
	ExtractSkills(ctx context.Context, req skillsUC.ExtractRequest) entity.ResultEnvelope[entity.ExtractionResult]
	AnalyzeGaps(ctx context.Context, req skillsUC.AnalyzeRequest) entity.ResultEnvelope[entity.GapAnalysis]
	ExplainGaps(ctx context.Context, req skillsUC.ExplainGapsRequest) entity.ResultEnvelope[entity.GapExplanationResult]
	ExplainNode(ctx context.Context, req skillsUC.ExplainNodeRequest) entity.ResultEnvelope[entity.NodeExplanation]
}

// Register registers the skill endpoints with the given mux.
func Register(mux *http.ServeMux, svc Service) {
	mux.Handle("POST /v1/skills/extract", ExtractHandler{svc})
	mux.Handle("POST /v1/skills/analyze", AnalyzeHandler{svc})
	mux.Handle("POST /v1/skills/explain-gaps", ExplainGapsHandler{svc})
	mux.Handle("POST /v1/skills/explain-node", ExplainNodeHandler{svc})
}
