package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/legalmind/internal/api/middlewares"
	"github.com/markdave123-py/legalmind/internal/core"
	"github.com/markdave123-py/legalmind/internal/services"
)

type CorpusHandler struct {
	corpora        *services.CorpusService
	maxUploadBytes int64
}

func NewCorpusHandler(corpora *services.CorpusService, maxUploadMB int) *CorpusHandler {
	return &CorpusHandler{corpora: corpora, maxUploadBytes: int64(maxUploadMB) << 20}
}

// Upload accepts a multipart "file" plus optional "title" and "language"
// fields and schedules ingestion.
func (h *CorpusHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, core.Wrap(core.ErrValidation, "invalid multipart form", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, core.Wrap(core.ErrValidation, "file is required", err))
		return
	}
	defer file.Close()

	if err := h.corpora.ValidateUpload(header.Filename, header.Size); err != nil {
		writeError(w, r, err)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, core.Wrap(core.ErrValidation, "read upload", err))
		return
	}

	corpus, err := h.corpora.Upload(r.Context(), services.UploadInput{
		OwnerID:     middleware.CallerID(r.Context()),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Title:       r.FormValue("title"),
		Language:    r.FormValue("language"),
		Data:        data,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, corpus)
}

func (h *CorpusHandler) List(w http.ResponseWriter, r *http.Request) {
	corpora, err := h.corpora.List(r.Context(), middleware.CallerID(r.Context()), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, corpora)
}

func (h *CorpusHandler) Get(w http.ResponseWriter, r *http.Request) {
	corpus, err := h.corpora.Get(r.Context(), middleware.CallerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, corpus)
}

func (h *CorpusHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.corpora.Delete(r.Context(), middleware.CallerID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Ingest schedules (re)ingestion; ?force=true rebuilds a ready corpus.
func (h *CorpusHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	corpus, err := h.corpora.Ingest(r.Context(), middleware.CallerID(r.Context()), chi.URLParam(r, "id"), force)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, corpus)
}
