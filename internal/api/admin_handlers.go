package api

import (
	"net/http"
	"time"
)

// SchedulerStatusHandler handles GET /api/scheduler
func (h *Handler) SchedulerStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, h.scheduler.Status())
}

// TriggerJobHandler handles POST /api/scheduler/trigger?job=name
func (h *Handler) TriggerJobHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("job")
	if name == "" {
		http.Error(w, "Job name required", http.StatusBadRequest)
		return
	}

	if err := h.scheduler.Trigger(r.Context(), name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]string{"job": name, "status": "triggered"})
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
