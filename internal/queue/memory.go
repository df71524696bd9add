package queue

import (
	"context"
	"sync"
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// MemoryBroker is an in-process Broker with the same delivery semantics as
// the Redis broker. Used in tests and when running without Redis.
type MemoryBroker struct {
	mu      sync.Mutex
	lanes   map[models.Priority][]string
	delayed []delayedEntry
	tasks   map[string]*models.Task
	wake    chan struct{}
	closed  bool
}

type delayedEntry struct {
	lane   models.Priority
	taskID string
	due    time.Time
}

// NewMemoryBroker creates an empty in-memory broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		lanes: make(map[models.Priority][]string),
		tasks: make(map[string]*models.Task),
		wake:  make(chan struct{}, 1),
	}
}

func (b *MemoryBroker) Enqueue(_ context.Context, lane models.Priority, taskID string) error {
	b.mu.Lock()
	b.lanes[lane] = append(b.lanes[lane], taskID)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
	return nil
}

func (b *MemoryBroker) Dequeue(ctx context.Context, lane models.Priority, wait time.Duration) (string, error) {
	deadline := time.After(wait)
	for {
		b.mu.Lock()
		if ids := b.lanes[lane]; len(ids) > 0 {
			taskID := ids[0]
			b.lanes[lane] = ids[1:]
			b.mu.Unlock()
			return taskID, nil
		}
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline:
			return "", ErrEmpty
		case <-b.wake:
		}
	}
}

func (b *MemoryBroker) Schedule(_ context.Context, lane models.Priority, taskID string, at time.Time) error {
	b.mu.Lock()
	b.delayed = append(b.delayed, delayedEntry{lane: lane, taskID: taskID, due: at})
	b.mu.Unlock()
	return nil
}

func (b *MemoryBroker) MoveDue(ctx context.Context, now time.Time) (int, error) {
	b.mu.Lock()
	var due []delayedEntry
	remaining := b.delayed[:0]
	for _, entry := range b.delayed {
		if !entry.due.After(now) {
			due = append(due, entry)
		} else {
			remaining = append(remaining, entry)
		}
	}
	b.delayed = remaining
	b.mu.Unlock()

	for _, entry := range due {
		if err := b.Enqueue(ctx, entry.lane, entry.taskID); err != nil {
			return 0, err
		}
	}
	return len(due), nil
}

func (b *MemoryBroker) SaveTask(_ context.Context, task *models.Task) error {
	copied := *task
	b.mu.Lock()
	b.tasks[task.ID] = &copied
	b.mu.Unlock()
	return nil
}

func (b *MemoryBroker) LoadTask(_ context.Context, taskID string) (*models.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	task, ok := b.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (b *MemoryBroker) DeleteTask(_ context.Context, taskID string) error {
	b.mu.Lock()
	delete(b.tasks, taskID)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBroker) Tasks(_ context.Context) ([]*models.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tasks := make([]*models.Task, 0, len(b.tasks))
	for _, task := range b.tasks {
		copied := *task
		tasks = append(tasks, &copied)
	}
	return tasks, nil
}

func (b *MemoryBroker) Depth(_ context.Context, lane models.Priority) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.lanes[lane])), nil
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}
