// Package pool serves the live resource pool over HTTP.
package pool

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/solarsim/core/resource"
	"github.com/kilianp07/solarsim/pkg/export"
)

// Status is the body of GET /api/pool: current values plus the display
// range and hazard level of every resource.
type Status struct {
	Readout   string                     `json:"readout"`
	Values    map[string]float64         `json:"values"`
	Bounds    map[string]resource.Bounds `json:"bounds"`
	Levels    map[string]string          `json:"levels"`
	Exhausted bool                       `json:"exhausted"`
}

// NewStatusHandler returns an HTTP handler exposing the pool via GET /api/pool.
func NewStatusHandler(p *resource.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		st := Status{
			Readout:   export.Readout(p),
			Values:    p.Snapshot(),
			Bounds:    make(map[string]resource.Bounds, len(resource.Keys)),
			Levels:    make(map[string]string, len(resource.Keys)),
			Exhausted: p.Battery().Value() < 0,
		}
		for _, k := range resource.Keys {
			st.Bounds[k.String()] = p.Get(k).MinMax()
			st.Levels[k.String()] = p.Get(k).Level().String()
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(st); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// NewHistoryHandler returns an HTTP handler exposing the retained history
// via GET /api/pool/history, as JSON or as CSV with ?format=csv.
func NewHistoryHandler(p *resource.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		switch r.URL.Query().Get("format") {
		case "", "json":
			w.Header().Set("Content-Type", "application/json")
			if err := export.WriteJSON(w, p); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		case "csv":
			w.Header().Set("Content-Type", "text/csv")
			if err := export.WriteCSV(w, p); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		default:
			http.Error(w, "unsupported format", http.StatusBadRequest)
		}
	})
}
