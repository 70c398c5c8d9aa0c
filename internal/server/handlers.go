package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/models"
)

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// SearchResponse is the response of POST /api/v1/search.
type SearchResponse struct {
	Results   []models.SearchResult `json:"results"`
	Total     int                   `json:"total"`
	QueryTime int64                 `json:"query_time_ms"`
	Query     string                `json:"query"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query cannot be empty")
		return
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.Int("k", req.K))
	start := time.Now()
	results, err := s.engine.Search(r.Context(), req.Query, req.K)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	s.respondJSON(w, http.StatusOK, &SearchResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
		Query:     req.Query,
	})
}

// handleAddDocuments accepts a single document object or a JSON array of
// documents. Documents posted without an ID get a generated UUID.
func (s *Server) handleAddDocuments(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	docs, err := decodeDocuments(body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(docs) == 0 {
		s.respondError(w, http.StatusBadRequest, "no documents provided")
		return
	}
	ids := make([]string, len(docs))
	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = uuid.NewString()
		}
		ids[i] = docs[i].ID
	}
	s.logger.Debug("add documents request", zap.Int("count", len(docs)))
	if err := s.engine.Add(r.Context(), docs); err != nil {
		s.logger.Error("add failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"ids": ids, "status": "indexed"})
}

// decodeDocuments parses either a JSON array or a single document object.
func decodeDocuments(body []byte) ([]models.Document, error) {
	var docs []models.Document
	if err := json.Unmarshal(body, &docs); err == nil {
		return docs, nil
	}
	var doc models.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return []models.Document{doc}, nil
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, ok := s.engine.Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	removed, err := s.engine.Delete(r.Context(), id)
	if err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Clear(r.Context()); err != nil {
		s.logger.Error("clear failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	entries := s.engine.Export()
	if entries == nil {
		entries = []models.ExportedDocument{}
	}
	s.respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var entries []models.ExportedDocument
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.engine.Import(r.Context(), entries); err != nil {
		s.logger.Error("import failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "imported", "documents": len(entries)})
}

// StatusResponse is the response of GET /api/v1/status.
type StatusResponse struct {
	Documents int      `json:"documents"`
	Routing   string   `json:"routing"`
	Powers    []string `json:"powers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	powers := s.engine.Powers()
	if powers == nil {
		powers = []string{}
	}
	s.respondJSON(w, http.StatusOK, &StatusResponse{
		Documents: s.engine.Size(),
		Routing:   s.engine.Routing(),
		Powers:    powers,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encoding failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
