package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	transcript "github.com/iKozay/TrackMyDegree-sub000"
)

type handler struct {
	engine    transcript.Engine
	maxUpload int64
}

func newHandler(e transcript.Engine, maxUpload int64) *handler {
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	return &handler{engine: e, maxUpload: maxUpload}
}

// newRouter wires routes and middleware.
// Middleware chain: recovery -> cors -> auth -> request id -> logging -> routes
func newRouter(h *handler, apiKey, corsOrigins string) http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(corsMiddleware(corsOrigins))
	r.Use(authMiddleware(apiKey))
	r.Use(requestIDMiddleware)
	r.Use(logMiddleware)

	r.Get("/health", h.handleHealth)
	r.Route("/transcripts", func(r chi.Router) {
		r.Post("/", h.handleParse)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Get("/{id}/xlsx", h.handleExport)
		r.Get("/{id}/terms", h.handleTerms)
		r.Get("/{id}/courses", h.handleCourses)
		r.Delete("/{id}", h.handleDelete)
	})
	return r
}

// POST /transcripts
// Accepts a multipart upload in field "file", or JSON with a server-side path.
func (h *handler) handleParse(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	force := r.URL.Query().Get("force") == "true"
	var opts []transcript.ParseOption
	if force {
		opts = append(opts, transcript.WithForceReparse())
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				writeError(w, http.StatusRequestEntityTooLarge, "document too large")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid multipart request")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "multipart request must include a 'file' field")
			return
		}
		defer file.Close()

		// Sanitise filename to prevent path traversal.
		safeName := filepath.Base(header.Filename)
		res, err := h.engine.ParseReader(ctx, safeName, file, opts...)
		if err != nil {
			h.fail(w, r, "parse", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	var req struct {
		Path  string `json:"path"`
		Force bool   `json:"force,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: expected multipart file or JSON with 'path'")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	// Validate that path is a real file (prevents directory traversal probing).
	absPath, err := filepath.Abs(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(absPath)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusBadRequest, "path must be an existing file")
		return
	}
	if req.Force && !force {
		opts = append(opts, transcript.WithForceReparse())
	}

	res, err := h.engine.Parse(ctx, absPath, opts...)
	if err != nil {
		h.fail(w, r, "parse", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /transcripts
func (h *handler) handleList(w http.ResponseWriter, r *http.Request) {
	docs, err := h.engine.List(r.Context())
	if err != nil {
		h.fail(w, r, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// GET /transcripts/{id}
// The analysis is included only with ?analysis=true.
func (h *handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}
	res, err := h.engine.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get", err)
		return
	}
	if r.URL.Query().Get("analysis") != "true" {
		res.Analysis = nil
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /transcripts/{id}/xlsx
func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}

	// Buffer so a failed export can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.engine.ExportXLSX(r.Context(), id, &buf); err != nil {
		h.fail(w, r, "export", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=\"transcript-"+strconv.FormatInt(id, 10)+".xlsx\"")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// GET /transcripts/{id}/terms
func (h *handler) handleTerms(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}
	terms, err := h.engine.Terms(r.Context(), id)
	if err != nil {
		h.fail(w, r, "terms", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"terms": terms})
}

// GET /transcripts/{id}/courses?kind=semester|exempted|transfer
func (h *handler) handleCourses(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}
	courses, err := h.engine.Courses(r.Context(), id, r.URL.Query().Get("kind"))
	if err != nil {
		h.fail(w, r, "courses", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"courses": courses})
}

// DELETE /transcripts/{id}
func (h *handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}
	if err := h.engine.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if stats, err := h.engine.Stats(r.Context()); err == nil {
		resp["stats"] = stats
	}
	writeJSON(w, http.StatusOK, resp)
}

func documentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return 0, false
	}
	return id, true
}

// fail maps engine errors to HTTP statuses.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, transcript.ErrTranscriptNotFound):
		writeError(w, http.StatusNotFound, "transcript not found")
	case errors.Is(err, transcript.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported document format")
	case errors.Is(err, transcript.ErrDocumentUnreadable):
		writeError(w, http.StatusUnprocessableEntity, "document could not be read")
	case errors.Is(err, transcript.ErrInvalidCourseKind):
		writeError(w, http.StatusBadRequest, "kind must be one of "+strings.Join(transcript.CourseKinds, ", "))
	case errors.Is(err, transcript.ErrStoreDisabled):
		writeError(w, http.StatusNotImplemented, "storage is disabled")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, op+" timed out")
	default:
		writeError(w, http.StatusInternalServerError, op+" failed")
		slog.Error(op+" error", "error", err, "request_id", requestID(r.Context()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
