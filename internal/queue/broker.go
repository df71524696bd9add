package queue

import (
	"context"
	"errors"
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// ErrEmpty is returned by Dequeue when no task became available within the
// wait window.
var ErrEmpty = errors.New("queue: no task available")

// ErrTaskNotFound is returned when a task ID has no stored record.
var ErrTaskNotFound = errors.New("queue: task not found")

// Broker is the storage backend for the task queue. Lane order, retry
// policy, and handler dispatch all live above this interface; the broker
// only moves IDs and persists task records.
type Broker interface {
	// Enqueue pushes a task ID onto a lane. The task record must already
	// be saved.
	Enqueue(ctx context.Context, lane models.Priority, taskID string) error

	// Dequeue pops the oldest task ID from a lane, blocking up to wait.
	// Returns ErrEmpty when nothing arrived in time.
	Dequeue(ctx context.Context, lane models.Priority, wait time.Duration) (string, error)

	// Schedule parks a task ID for re-delivery to its lane at the given
	// time. MoveDue promotes parked IDs whose time has come.
	Schedule(ctx context.Context, lane models.Priority, taskID string, at time.Time) error
	MoveDue(ctx context.Context, now time.Time) (int, error)

	// SaveTask persists the task record, overwriting any previous state.
	SaveTask(ctx context.Context, task *models.Task) error
	LoadTask(ctx context.Context, taskID string) (*models.Task, error)
	DeleteTask(ctx context.Context, taskID string) error

	// Tasks returns every stored task record.
	Tasks(ctx context.Context) ([]*models.Task, error)

	// Depth reports the number of task IDs waiting in a lane.
	Depth(ctx context.Context, lane models.Priority) (int64, error)

	Close() error
}
