package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/legalmind/internal/services"
)

type LawHandler struct {
	corpora *services.CorpusService
}

func NewLawHandler(corpora *services.CorpusService) *LawHandler {
	return &LawHandler{corpora: corpora}
}

func (h *LawHandler) List(w http.ResponseWriter, r *http.Request) {
	laws, err := h.corpora.ListLaws(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, laws)
}

func (h *LawHandler) Get(w http.ResponseWriter, r *http.Request) {
	law, err := h.corpora.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, law)
}
