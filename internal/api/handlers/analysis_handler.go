package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/legalmind/internal/api/middlewares"
	qe "github.com/markdave123-py/legalmind/internal/core/query_engine"
	"github.com/markdave123-py/legalmind/internal/services"
)

type AnalysisHandler struct {
	analysis *services.AnalysisService
}

func NewAnalysisHandler(analysis *services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis}
}

type AnalysisRequest struct {
	Instruction string `json:"instruction"`
	LawCategory string `json:"law_category"`
	Strategy    string `json:"strategy"`
}

func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.analysis.Analyze(r.Context(), middleware.CallerID(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "task"),
		services.AnalysisOptions{
			Instruction: req.Instruction,
			LawCategory: req.LawCategory,
			Strategy:    qe.Strategy(req.Strategy),
		})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Tasks lists the available analyses.
func (h *AnalysisHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"tasks": qe.AnalysisTasks()})
}
