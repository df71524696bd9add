package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/aggregator"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/pipeline"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/queue"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/scheduler"
)

// Handler bundles the operator API endpoints.
type Handler struct {
	pipeline   *pipeline.Pipeline
	aggregator *aggregator.Aggregator
	queue      *queue.Queue
	scheduler  *scheduler.Scheduler
	logger     *slog.Logger
	version    string
	startTime  time.Time
}

// NewHandler wires the operator API against the running components.
func NewHandler(
	p *pipeline.Pipeline,
	agg *aggregator.Aggregator,
	q *queue.Queue,
	sched *scheduler.Scheduler,
	version string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		pipeline:   p,
		aggregator: agg,
		queue:      q,
		scheduler:  sched,
		logger:     logger,
		version:    version,
		startTime:  time.Now(),
	}
}

// Register mounts every endpoint on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.HealthHandler)
	mux.HandleFunc("/api/info", h.InfoHandler)
	mux.HandleFunc("/api/articles", h.ArticlesHandler)
	mux.HandleFunc("/api/trending", h.TrendingHandler)
	mux.HandleFunc("/api/pipeline/run", h.RunPipelineHandler)
	mux.HandleFunc("/api/queue/stats", h.QueueStatsHandler)
	mux.HandleFunc("/api/queue/tasks", h.SubmitTaskHandler)
	mux.HandleFunc("/api/queue/tasks/", h.TaskHandler)
	mux.HandleFunc("/api/queue/lanes/", h.LaneHandler)
	mux.HandleFunc("/api/scheduler", h.SchedulerStatusHandler)
	mux.HandleFunc("/api/scheduler/trigger", h.TriggerJobHandler)
	mux.HandleFunc("/api/sources/reputation", h.ReputationHandler)
	mux.HandleFunc("/api/cache/cleanup", h.CacheCleanupHandler)
}

// HealthHandler handles GET /healthz
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// InfoHandler handles GET /api/info
func (h *Handler) InfoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(h.startTime)
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"service":        "digitaltide",
		"version":        h.version,
		"uptime_seconds": int64(uptime.Seconds()),
		"uptime":         fmt.Sprintf("%02d:%02d:%02d", int64(uptime.Hours()), int64(uptime.Minutes())%60, int64(uptime.Seconds())%60),
	})
}

// ArticlesHandler handles GET /api/articles, serving the last pipeline run.
func (h *Handler) ArticlesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, _, report, ok := h.pipeline.LastRun()
	if !ok {
		http.Error(w, "No pipeline run has completed yet", http.StatusNotFound)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"run_id":   report.RunID,
		"articles": result.Articles,
		"metadata": result.Metadata,
	})
}

// TrendingHandler handles GET /api/trending, serving the last analysis.
func (h *Handler) TrendingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	_, trends, report, ok := h.pipeline.LastRun()
	if !ok {
		http.Error(w, "No pipeline run has completed yet", http.StatusNotFound)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"run_id":   report.RunID,
		"trending": trends.Trending,
		"clusters": trends.Clusters,
		"metadata": trends.Metadata,
	})
}

// RunPipelineHandler handles POST /api/pipeline/run
func (h *Handler) RunPipelineHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req aggregator.Request
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	report, err := h.pipeline.Run(r.Context(), req)
	if err != nil {
		h.logger.Error("manual pipeline run failed", "error", err)
		http.Error(w, "Pipeline run failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, report)
}

// ReputationHandler handles GET and DELETE /api/sources/reputation
func (h *Handler) ReputationHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, h.logger, http.StatusOK, h.aggregator.Reputation().All())
	case http.MethodDelete:
		domain := r.URL.Query().Get("domain")
		h.aggregator.Reputation().Reset(domain)
		writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "reset"})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// CacheCleanupHandler handles POST /api/cache/cleanup
func (h *Handler) CacheCleanupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	removed := h.aggregator.CleanupCache()
	writeJSON(w, h.logger, http.StatusOK, map[string]int{"removed": removed})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
