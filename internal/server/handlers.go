package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/davedean/lidmeta/internal/interfaces"
)

// handleSearchArtists implements GET /search/artists?q=<string>&limit=<1..100>
// per spec.md §6.
func (s *Server) handleSearchArtists(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeError(w, http.StatusServiceUnavailable, "search index unavailable")
		return
	}

	q := r.URL.Query().Get("q")
	limit := parseLimit(r.URL.Query().Get("limit"), 20, 100)

	results, err := s.search.Search(r.Context(), clientKey(r), q, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", requestIDFrom(r.Context())).Str("query", q).Msg("search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// handleAPISearch implements GET /api/v1/search?type=<all|artist>&query=<string>,
// identical to /search/artists but with limit fixed at 100 and a type filter.
func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeError(w, http.StatusServiceUnavailable, "search index unavailable")
		return
	}

	searchType := r.URL.Query().Get("type")
	if searchType == "" {
		searchType = "all"
	}
	if searchType != "all" && searchType != "artist" {
		writeError(w, http.StatusBadRequest, "unsupported search type: "+searchType)
		return
	}

	query := r.URL.Query().Get("query")
	results, err := s.search.Search(r.Context(), clientKey(r), query, 100)
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", requestIDFrom(r.Context())).Str("query", query).Msg("search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeJSON(w, http.StatusOK, interfaces.Stats{
			SearchIndexes: map[string]int64{},
			Metrics:       map[string]int64{},
			Config:        map[string]interface{}{},
		})
		return
	}
	stats, err := s.search.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		writeJSON(w, http.StatusOK, interfaces.Health{Status: "degraded", Service: "lidmeta-search"})
		return
	}
	writeJSON(w, http.StatusOK, s.search.Health(r.Context()))
}

// clientKey identifies a request's coalescing key: client address + path,
// per spec.md §4.7.
func clientKey(r *http.Request) string {
	return r.RemoteAddr + "|" + r.URL.Path
}

func parseLimit(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
