package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/queue"
)

// QueueStatsHandler handles GET /api/queue/stats
func (h *Handler) QueueStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.queue.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to read queue stats", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, stats)
}

type submitTaskRequest struct {
	Sender   string             `json:"sender"`
	Receiver string             `json:"receiver"`
	Type     models.MessageType `json:"type"`
	Priority models.Priority    `json:"priority"`
	Payload  json.RawMessage    `json:"payload,omitempty"`
	Timeout  int                `json:"timeout_seconds,omitempty"`
}

// SubmitTaskHandler handles POST /api/queue/tasks
func (h *Handler) SubmitTaskHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req submitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	task := models.NewTask(req.Sender, req.Receiver, req.Type, req.Priority, req.Payload)
	if req.Timeout > 0 {
		task.Timeout = secondsToDuration(req.Timeout)
	}

	if err := h.queue.Submit(r.Context(), task); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, h.logger, http.StatusAccepted, map[string]string{"task_id": task.ID})
}

// TaskHandler handles /api/queue/tasks/{id} and its subactions:
//
//	GET    /api/queue/tasks/{id}        task status
//	POST   /api/queue/tasks/{id}/retry  re-enqueue a failed task
//	DELETE /api/queue/tasks/{id}        remove the task record
func (h *Handler) TaskHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/queue/tasks/")
	taskID, action, _ := strings.Cut(rest, "/")
	if taskID == "" {
		http.Error(w, "Task ID required", http.StatusBadRequest)
		return
	}

	switch {
	case r.Method == http.MethodGet && action == "":
		task, err := h.queue.Status(r.Context(), taskID)
		if err != nil {
			h.taskError(w, taskID, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, task)

	case r.Method == http.MethodPost && action == "retry":
		if err := h.queue.Retry(r.Context(), taskID); err != nil {
			h.taskError(w, taskID, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "requeued"})

	case r.Method == http.MethodDelete && action == "":
		if err := h.queue.Remove(r.Context(), taskID); err != nil {
			h.taskError(w, taskID, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "removed"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// LaneHandler handles POST /api/queue/lanes/{lane}/pause and /resume.
func (h *Handler) LaneHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/queue/lanes/")
	laneName, action, _ := strings.Cut(rest, "/")
	lane := models.Priority(laneName)

	var err error
	switch action {
	case "pause":
		err = h.queue.Pause(lane)
	case "resume":
		err = h.queue.Resume(lane)
	default:
		http.Error(w, "Unknown lane action", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]string{"lane": laneName, "action": action})
}

func (h *Handler) taskError(w http.ResponseWriter, taskID string, err error) {
	if errors.Is(err, queue.ErrTaskNotFound) {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	h.logger.Error("task operation failed", "task_id", taskID, "error", err)
	http.Error(w, err.Error(), http.StatusBadRequest)
}
