package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tmcoach/board/internal/document"
	"github.com/tmcoach/board/internal/project"
	"github.com/tmcoach/board/internal/storage"
	"github.com/tmcoach/board/pkg/core"
)

// MaxDocumentBytes bounds uploaded documents
const MaxDocumentBytes = 16 << 20

// statusFor maps service errors onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidName), errors.Is(err, project.ErrInvalidOrientation):
		return http.StatusBadRequest
	case errors.Is(err, project.ErrExists):
		return http.StatusConflict
	case errors.Is(err, document.ErrInvalidDocument):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, status int, doc core.BoardDocument) {
	data, err := s.projects.Codec().Serialize(doc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	infos, err := s.projects.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

type createRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	doc, err := s.projects.Create(r.Context(), req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeDocument(w, r, http.StatusCreated, doc)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	data, err := s.projects.Export(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxDocumentBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	doc, err := s.projects.Import(r.Context(), mux.Vars(r)["name"], body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeDocument(w, r, http.StatusOK, doc)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.Delete(r.Context(), mux.Vars(r)["name"]); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	to := core.Orientation(r.URL.Query().Get("to"))
	doc, err := s.projects.Rotate(r.Context(), mux.Vars(r)["name"], to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeDocument(w, r, http.StatusOK, doc)
}

// handleFrame interpolates the board at ?t=<milliseconds> of playback
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	var ms int64
	if raw := r.URL.Query().Get("t"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "t must be a non-negative number of milliseconds")
			return
		}
		ms = v
	}
	frame, err := s.projects.FrameAt(r.Context(), mux.Vars(r)["name"], time.Duration(ms)*time.Millisecond)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}
