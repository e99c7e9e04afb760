package apiserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fbuehrmann/netxms/pkg/objects"
	"github.com/fbuehrmann/netxms/pkg/transport"
)

// registerRoutes wires all API v1 routes into the server mux.
func (s *Server) registerRoutes() {
	// Health probes
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /readyz", s.handleReadyz)

	s.mux.HandleFunc("GET /metrics", s.src.Metrics().PrometheusHandler())

	// Objects
	s.mux.HandleFunc("GET /api/v1/objects/{id}", s.handleGetObject)
	s.mux.HandleFunc("GET /api/v1/objects/{id}/descendants", s.handleDescendants)
}

// handleHealthz is a liveness probe.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz reports ready only while the server channel is open.
func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	st := s.src.State()
	if st != transport.StateConnected {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "state": st.String()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "state": st.String()})
}

func (s *Server) handleGetObject(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r)
	if !ok {
		return
	}
	o, found := s.src.Store().FindByID(id)
	if !found {
		writeError(w, http.StatusNotFound, "object "+strconv.FormatUint(id, 10)+" not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// handleDescendants lists all objects below id, optionally filtered by
// ?class= (name or number).
func (s *Server) handleDescendants(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r)
	if !ok {
		return
	}
	class := objects.ClassAny
	if q := r.URL.Query().Get("class"); q != "" {
		c, err := objects.ParseClass(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		class = c
	}
	store := s.src.Store()
	if _, found := store.FindByID(id); !found {
		writeError(w, http.StatusNotFound, "object "+strconv.FormatUint(id, 10)+" not found")
		return
	}
	writeJSON(w, http.StatusOK, store.CollectDescendants(id, class))
}

func objectID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid object id "+strconv.Quote(r.PathValue("id")))
		return 0, false
	}
	return id, true
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
