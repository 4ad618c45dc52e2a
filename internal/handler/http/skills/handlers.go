package skills

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"skillgap-ai/internal/domain/entity"
	"skillgap-ai/internal/handler/http/respond"
	skillsUC "skillgap-ai/internal/usecase/skills"
)

// ExtractHandler serves POST /v1/skills/extract.
type ExtractHandler struct{ Svc Service }

func (h ExtractHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serve(w, r, h.Svc.ExtractSkills, nil)
}

// AnalyzeHandler serves POST /v1/skills/analyze.
type AnalyzeHandler struct{ Svc Service }

func (h AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serve(w, r, h.Svc.AnalyzeGaps, func(req skillsUC.AnalyzeRequest) string {
		if strings.TrimSpace(req.RoleID) == "" {
			return "role_id is required"
		}
		return ""
	})
}

// ExplainGapsHandler serves POST /v1/skills/explain-gaps.
type ExplainGapsHandler struct{ Svc Service }

func (h ExplainGapsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serve(w, r, h.Svc.ExplainGaps, nil)
}

// ExplainNodeHandler serves POST /v1/skills/explain-node.
type ExplainNodeHandler struct{ Svc Service }

func (h ExplainNodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serve(w, r, h.Svc.ExplainNode, func(req skillsUC.ExplainNodeRequest) string {
		if strings.TrimSpace(req.SkillID) == "" {
			return "skill_id is required"
		}
		return ""
	})
}

// serve decodes the request body, runs op and writes its envelope.
// Successful envelopes, including fallbacks, are written with 200; an
// unsuccessful envelope takes the status of its error code.
func serve[Req, T any](
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, Req) entity.ResultEnvelope[T],
	check func(Req) string,
) {
	var req Req
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, respond.DecodeError(err))
		return
	}
	if check != nil {
		if msg := check(req); msg != "" {
			respond.BadRequest(w, r, msg)
			return
		}
	}

	env := op(r.Context(), req)
	code := http.StatusOK
	if !env.Success && env.Error != nil {
		code = respond.StatusFor(env.Error.Code)
	}
	respond.JSON(w, code, env)
}
