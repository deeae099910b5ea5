package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/weftlab/weft/internal/models"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := s.store.CountItems(ctx)
	if err != nil {
		s.logger.Error("status: count items failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := &models.Status{
		Items:   int(items),
		Version: s.version,
	}
	if run, err := s.store.LatestRun(ctx); err == nil {
		status.LatestRun = run
	}
	if s.catalog != nil {
		status.CatalogEnabled = true
		if n, err := s.catalog.Count(); err == nil {
			status.CatalogSize = n
		}
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleGetEmbedding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	emb, err := s.store.GetEmbedding(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "item not found")
		return
	}
	s.respondJSON(w, http.StatusOK, emb)
}

func (s *Server) handleSimilarByID(w http.ResponseWriter, r *http.Request) {
	query := models.SimilarQuery{
		ItemID: chi.URLParam(r, "id"),
		Limit:  parseLimit(r.URL.Query().Get("limit")),
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.runSimilar(w, r, &query)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	var query models.SimilarQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.runSimilar(w, r, &query)
}

func (s *Server) runSimilar(w http.ResponseWriter, r *http.Request, query *models.SimilarQuery) {
	idx := s.index()
	if idx == nil {
		s.respondError(w, http.StatusServiceUnavailable, "no embeddings built yet")
		return
	}
	s.logger.Debug("similar request",
		zap.String("item_id", query.ItemID), zap.Int("limit", query.Limit))

	start := time.Now()
	var (
		hits []*models.Neighbor
		err  error
	)
	if query.ItemID != "" {
		hits, err = idx.SearchByID(query.ItemID, query.Limit)
	} else {
		hits, err = idx.Search(query.Vector, query.Limit)
	}
	if err != nil {
		if query.ItemID != "" {
			s.respondError(w, http.StatusNotFound, err.Error())
		} else {
			s.respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	if s.catalog != nil {
		for _, h := range hits {
			h.Title = s.catalog.Title(r.Context(), h.ItemID)
		}
	}
	s.respondJSON(w, http.StatusOK, &models.SimilarResponse{
		Query:     query.ItemID,
		Neighbors: hits,
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleCatalogSearch(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.respondError(w, http.StatusNotFound, "catalog not enabled")
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 10
	}
	hits, err := s.catalog.Search(r.Context(), q, limit)
	if err != nil {
		s.logger.Error("catalog search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"hits": hits})
}

func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
