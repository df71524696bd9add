package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType categorizes a queued inter-agent message.
type MessageType string

const (
	MessageTypeTask      MessageType = "task"
	MessageTypeResponse  MessageType = "response"
	MessageTypeAlert     MessageType = "alert"
	MessageTypeHeartbeat MessageType = "heartbeat"
	MessageTypeError     MessageType = "error"
)

// Priority selects the queue lane a task runs in.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Priorities lists all lanes in descending urgency order.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether the priority names a known lane.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// TaskStatus tracks a task through its lifecycle.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusTimeout    TaskStatus = "timeout"
)

// Terminal reports whether the status ends the task lifecycle.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusTimeout
}

// Task is the unit carried by the queue. Delivery is at-least-once with
// bounded retries; handlers must tolerate re-execution.
type Task struct {
	ID          string          `json:"id"`
	Sender      string          `json:"sender"`
	Receiver    string          `json:"receiver"`
	Type        MessageType     `json:"type"`
	Priority    Priority        `json:"priority"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Status      TaskStatus      `json:"status"`
	Timeout     time.Duration   `json:"timeout"`
	Retries     int             `json:"retries"`
	LastError   string          `json:"last_error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// NewTask constructs a pending task with a fresh ID.
func NewTask(sender, receiver string, msgType MessageType, priority Priority, payload json.RawMessage) *Task {
	return &Task{
		ID:        uuid.NewString(),
		Sender:    sender,
		Receiver:  receiver,
		Type:      msgType,
		Priority:  priority,
		Payload:   payload,
		Status:    TaskStatusPending,
		Timeout:   30 * time.Second,
		CreatedAt: time.Now(),
	}
}

// Validate rejects malformed tasks synchronously at enqueue time.
func (t *Task) Validate() error {
	if t.Sender == "" {
		return fmt.Errorf("task validation: sender is required")
	}
	if t.Receiver == "" {
		return fmt.Errorf("task validation: receiver is required")
	}
	switch t.Type {
	case MessageTypeTask, MessageTypeResponse, MessageTypeAlert, MessageTypeHeartbeat, MessageTypeError:
	default:
		return fmt.Errorf("task validation: unknown message type %q", t.Type)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("task validation: unknown priority %q", t.Priority)
	}
	if t.Timeout <= 0 {
		return fmt.Errorf("task validation: timeout must be positive, got %v", t.Timeout)
	}
	return nil
}

// MarkProcessing transitions the task to processing.
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.StartedAt = &now
}

// MarkCompleted transitions the task to its successful terminal state.
func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
}

// MarkFailed records a failure. Whether the task is retried is decided by
// the lane policy, not here.
func (t *Task) MarkFailed(err error, timedOut bool) {
	now := time.Now()
	if timedOut {
		t.Status = TaskStatusTimeout
	} else {
		t.Status = TaskStatusFailed
	}
	if err != nil {
		t.LastError = err.Error()
	}
	t.CompletedAt = &now
}

// ScheduleRetry counts the failed attempt and keeps its outcome visible,
// leaving the task in the failed or timeout state while its backoff
// elapses. The next dispatch moves it back to processing.
func (t *Task) ScheduleRetry(err error, timedOut bool) {
	if timedOut {
		t.Status = TaskStatusTimeout
	} else {
		t.Status = TaskStatusFailed
	}
	if err != nil {
		t.LastError = err.Error()
	}
	t.Retries++
	t.StartedAt = nil
	t.CompletedAt = nil
}
