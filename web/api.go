// Package web serves the simulator over HTTP.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/panyam/queuesim/components"
	"github.com/panyam/queuesim/console"
	"github.com/panyam/queuesim/core"
	"github.com/panyam/queuesim/runtime"
	"github.com/panyam/queuesim/viz"
)

// SimulateRequest is the body of POST /api/simulate. A zero seed asks the
// server to pick one; the chosen seed is echoed in the response.
type SimulateRequest struct {
	runtime.Config
	runtime.RunParams
	Seed       uint64 `json:"seed"`
	Trajectory bool   `json:"trajectory"`
}

// RunSummary is one entry of GET /api/runs.
type RunSummary struct {
	RunID            string             `json:"run_id"`
	Config           runtime.Config     `json:"config"`
	StopReason       runtime.StopReason `json:"stop_reason"`
	PacketsLost      int                `json:"packets_lost"`
	PacketsDelivered int                `json:"packets_delivered"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// SimAPI provides the REST endpoints.
type SimAPI struct {
	store          *RunStore
	plotter        *viz.SVGPlotter
	maxArrivalsCap int
}

// NewSimAPI creates the handlers. maxArrivalsCap bounds the work a single
// request may ask for; zero means unbounded.
func NewSimAPI(store *RunStore, maxArrivalsCap int) *SimAPI {
	return &SimAPI{
		store:          store,
		plotter:        viz.NewSVGPlotter(viz.DefaultPlotConfig()),
		maxArrivalsCap: maxArrivalsCap,
	}
}

// RegisterRoutes registers all simulator routes
func (a *SimAPI) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/healthz", a.Health).Methods("GET")
	router.HandleFunc("/api/theory", a.Theory).Methods("GET")
	router.HandleFunc("/api/simulate", a.Simulate).Methods("POST")
	router.HandleFunc("/api/runs", a.ListRuns).Methods("GET")
	router.HandleFunc("/api/runs/{id}", a.GetRun).Methods("GET")
	router.HandleFunc("/api/runs/{id}/trajectory.svg", a.TrajectorySVG).Methods("GET")
	router.HandleFunc("/api/runs/{id}/distribution.svg", a.DistributionSVG).Methods("GET")
}

func (a *SimAPI) Handler() http.Handler {
	router := mux.NewRouter()
	a.RegisterRoutes(router)
	return router
}

func (a *SimAPI) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "runs": a.store.Len()})
}

// Theory answers GET /api/theory?lambda=5&mu=6&k=10
func (a *SimAPI) Theory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lambda, err1 := strconv.ParseFloat(q.Get("lambda"), 64)
	mu, err2 := strconv.ParseFloat(q.Get("mu"), 64)
	k, err3 := strconv.Atoi(q.Get("k"))
	if err := errors.Join(err1, err2, err3); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("lambda, mu and k are required numbers: %w", err))
		return
	}
	m, err := components.NewMM1K(lambda, mu, k)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *SimAPI) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if a.maxArrivalsCap > 0 && req.MaxArrivals > a.maxArrivalsCap {
		writeError(w, http.StatusBadRequest, core.InvalidConfig("max_arrivals %d exceeds server limit %d", req.MaxArrivals, a.maxArrivalsCap))
		return
	}

	var opts []runtime.Option
	if req.Seed != 0 {
		opts = append(opts, runtime.WithSeed(req.Seed))
	}
	if !req.Trajectory {
		opts = append(opts, runtime.WithoutTrajectory())
	}
	sim, err := runtime.New(req.Config, opts...)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	res, err := sim.Run(req.RunParams)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	a.store.Add(res)
	slog.Info("simulation finished", "run", res.RunID, "stop", res.StopReason, "events", res.EventsProcessed)
	writeJSON(w, http.StatusOK, console.NewResultView(res))
}

func (a *SimAPI) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs := a.store.List()
	out := make([]RunSummary, 0, len(runs))
	for _, res := range runs {
		out = append(out, RunSummary{
			RunID:            res.RunID,
			Config:           res.Config,
			StopReason:       res.StopReason,
			PacketsLost:      res.Metrics.PacketsLost,
			PacketsDelivered: res.Metrics.PacketsDelivered,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *SimAPI) lookup(w http.ResponseWriter, r *http.Request) (*runtime.Result, bool) {
	id := mux.Vars(r)["id"]
	res, ok := a.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("run %q not found", id))
	}
	return res, ok
}

func (a *SimAPI) GetRun(w http.ResponseWriter, r *http.Request) {
	if res, ok := a.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, console.NewResultView(res))
	}
}

func (a *SimAPI) TrajectorySVG(w http.ResponseWriter, r *http.Request) {
	res, ok := a.lookup(w, r)
	if !ok {
		return
	}
	svg, err := viz.RenderTrajectory(a.plotter, res)
	if err != nil {
		// runs submitted without trajectory recording
		writeError(w, http.StatusConflict, err)
		return
	}
	writeSVG(w, svg)
}

func (a *SimAPI) DistributionSVG(w http.ResponseWriter, r *http.Request) {
	res, ok := a.lookup(w, r)
	if !ok {
		return
	}
	svg, err := viz.RenderDistribution(a.plotter, res)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeSVG(w, svg)
}

func statusFor(err error) int {
	if errors.Is(err, core.ErrInvalidConfiguration) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeSVG(w http.ResponseWriter, svg string) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(svg)); err != nil {
		slog.Error("writing svg", "error", err)
	}
}
