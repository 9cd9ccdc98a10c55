// Package health serves the liveness and readiness probes of the ordering
// engine's ops listener.
//
//   - /healthz answers 200 whenever the process can serve HTTP.
//   - /readyz answers 200 only while every registered [Checker] passes,
//     so a deployment with a missing menu or an unreachable order store
//     stays out of rotation.
//
// Responses are JSON: a top-level "status" ("ok" or "fail") plus a "checks"
// map with one entry per checker.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// checkTimeout bounds each readiness check.
const checkTimeout = 5 * time.Second

// Checker is one named readiness probe. Check returns nil while the
// dependency is usable and must respect ctx cancellation.
type Checker struct {
	// Name keys the check in the JSON response ("catalog", "order_sink").
	Name string

	Check func(ctx context.Context) error
}

// response is the JSON body for both probes.
type response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves the two probe endpoints. The checker list is fixed at
// construction; the handler itself is stateless and safe for concurrent use.
type Handler struct {
	checkers []Checker
}

// New returns a Handler evaluating the given checkers, in order, on each
// /readyz request.
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// Healthz always answers 200: a process that got this far can serve HTTP.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{Status: "ok"})
}

// Readyz runs every checker under [checkTimeout] and answers 503 as soon as
// one reports a failure. All checks still run, so the response names every
// broken dependency rather than just the first.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.checkers))
	status := http.StatusOK
	res := response{Status: "ok", Checks: checks}

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			res.Status = "fail"
			status = http.StatusServiceUnavailable
		} else {
			checks[c.Name] = "ok"
		}
	}

	writeJSON(w, status, res)
}

// Register mounts both probes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
