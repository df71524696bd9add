package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// Handler processes one task. A handler returning nil completes the task;
// any error (including the context deadline firing) counts as a failed
// attempt against the lane's retry ceiling.
type Handler func(ctx context.Context, task *models.Task) error

// Observer receives queue lifecycle events. All methods may be called
// concurrently from worker goroutines.
type Observer interface {
	TaskEnqueued(task *models.Task)
	TaskStarted(task *models.Task)
	TaskCompleted(task *models.Task, duration time.Duration)
	TaskRetried(task *models.Task, delay time.Duration)
	TaskFailed(task *models.Task)
}

type nopObserver struct{}

func (nopObserver) TaskEnqueued(*models.Task)                 {}
func (nopObserver) TaskStarted(*models.Task)                  {}
func (nopObserver) TaskCompleted(*models.Task, time.Duration) {}
func (nopObserver) TaskRetried(*models.Task, time.Duration)   {}
func (nopObserver) TaskFailed(*models.Task)                   {}

// lanePolicy fixes the retry behavior per priority lane.
type lanePolicy struct {
	maxRetries  int
	backoffBase time.Duration
}

var lanePolicies = map[models.Priority]lanePolicy{
	models.PriorityCritical: {maxRetries: 3, backoffBase: 2 * time.Second},
	models.PriorityHigh:     {maxRetries: 3, backoffBase: 2 * time.Second},
	models.PriorityMedium:   {maxRetries: 3, backoffBase: 2 * time.Second},
	models.PriorityLow:      {maxRetries: 2, backoffBase: 3 * time.Second},
}

// Queue dispatches tasks to registered handlers, one worker per priority
// lane, with per-lane retry ceilings and exponential retry backoff.
type Queue struct {
	broker   Broker
	pollWait time.Duration
	logger   *slog.Logger
	observer Observer

	mu       sync.RWMutex
	handlers map[models.MessageType]Handler
	paused   map[models.Priority]*atomic.Bool

	enqueued  atomic.Int64
	completed atomic.Int64
	retried   atomic.Int64
	failed    atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
	done     sync.WaitGroup
}

// Option configures a Queue.
type Option func(*Queue)

// WithObserver attaches a lifecycle observer.
func WithObserver(observer Observer) Option {
	return func(q *Queue) { q.observer = observer }
}

// New creates a queue on top of a broker. Start must be called before tasks
// are processed; Submit works immediately.
func New(broker Broker, pollWait time.Duration, logger *slog.Logger, opts ...Option) *Queue {
	q := &Queue{
		broker:   broker,
		pollWait: pollWait,
		logger:   logger,
		observer: nopObserver{},
		handlers: make(map[models.MessageType]Handler),
		paused:   make(map[models.Priority]*atomic.Bool),
		stop:     make(chan struct{}),
	}
	for _, lane := range models.Priorities {
		q.paused[lane] = &atomic.Bool{}
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Register binds a handler to a message type. Submitting a task whose type
// has no handler fails at dispatch time, not enqueue time.
func (q *Queue) Register(msgType models.MessageType, handler Handler) {
	q.mu.Lock()
	q.handlers[msgType] = handler
	q.mu.Unlock()
}

func (q *Queue) handler(msgType models.MessageType) (Handler, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	handler, ok := q.handlers[msgType]
	return handler, ok
}

// Submit validates and enqueues a task. Validation failures are returned
// synchronously and nothing is stored.
func (q *Queue) Submit(ctx context.Context, task *models.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	task.Status = models.TaskStatusPending
	if err := q.broker.SaveTask(ctx, task); err != nil {
		return err
	}
	if err := q.broker.Enqueue(ctx, task.Priority, task.ID); err != nil {
		return err
	}

	q.enqueued.Add(1)
	q.observer.TaskEnqueued(task)
	q.logger.Debug("task enqueued", "task_id", task.ID, "priority", task.Priority, "type", task.Type)
	return nil
}

// Start launches one worker per lane plus the delayed-retry mover. Workers
// run until Stop is called or the context is canceled.
func (q *Queue) Start(ctx context.Context) {
	for _, lane := range models.Priorities {
		q.done.Add(1)
		go q.worker(ctx, lane)
	}

	q.done.Add(1)
	go q.mover(ctx)

	q.logger.Info("queue started", "lanes", len(models.Priorities))
}

// Stop signals all workers to exit and waits for in-flight tasks to finish.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() { close(q.stop) })
	q.done.Wait()
	q.logger.Info("queue stopped")
}

func (q *Queue) worker(ctx context.Context, lane models.Priority) {
	defer q.done.Done()

	for {
		select {
		case <-q.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if q.paused[lane].Load() {
			select {
			case <-q.stop:
				return
			case <-ctx.Done():
				return
			case <-time.After(q.pollWait):
			}
			continue
		}

		taskID, err := q.broker.Dequeue(ctx, lane, q.pollWait)
		if err == ErrEmpty {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.logger.Error("dequeue failed", "lane", lane, "error", err)
			continue
		}

		q.dispatch(ctx, lane, taskID)
	}
}

// mover promotes delayed retries whose backoff has elapsed.
func (q *Queue) mover(ctx context.Context) {
	defer q.done.Done()

	ticker := time.NewTicker(q.pollWait)
	defer ticker.Stop()

	for {
		select {
		case <-q.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := q.broker.MoveDue(ctx, time.Now()); err != nil && ctx.Err() == nil {
				q.logger.Error("delayed task promotion failed", "error", err)
			}
		}
	}
}

func (q *Queue) dispatch(ctx context.Context, lane models.Priority, taskID string) {
	task, err := q.broker.LoadTask(ctx, taskID)
	if err != nil {
		q.logger.Error("task record missing at dispatch", "task_id", taskID, "lane", lane, "error", err)
		return
	}

	handler, ok := q.handler(task.Type)
	if !ok {
		task.MarkFailed(fmt.Errorf("no handler registered for type %q", task.Type), false)
		q.saveTask(ctx, task)
		q.failed.Add(1)
		q.observer.TaskFailed(task)
		return
	}

	task.MarkProcessing()
	q.saveTask(ctx, task)
	q.observer.TaskStarted(task)

	taskCtx, cancel := context.WithTimeout(ctx, task.Timeout)
	err = runHandler(taskCtx, handler, task)
	cancel()

	if err == nil {
		task.MarkCompleted()
		q.saveTask(ctx, task)
		q.completed.Add(1)
		q.observer.TaskCompleted(task, time.Since(*task.StartedAt))
		q.logger.Debug("task completed", "task_id", task.ID, "lane", lane)
		return
	}

	timedOut := taskCtx.Err() == context.DeadlineExceeded
	policy := lanePolicies[lane]

	if task.Retries >= policy.maxRetries {
		task.MarkFailed(err, timedOut)
		q.saveTask(ctx, task)
		q.failed.Add(1)
		q.observer.TaskFailed(task)
		q.logger.Warn("task exhausted retries",
			"task_id", task.ID,
			"lane", lane,
			"attempts", task.Retries+1,
			"error", err,
		)
		return
	}

	task.ScheduleRetry(err, timedOut)
	q.saveTask(ctx, task)

	delay := policy.backoffBase << (task.Retries - 1)
	if scheduleErr := q.broker.Schedule(ctx, lane, task.ID, time.Now().Add(delay)); scheduleErr != nil {
		q.logger.Error("retry scheduling failed", "task_id", task.ID, "error", scheduleErr)
		return
	}

	q.retried.Add(1)
	q.observer.TaskRetried(task, delay)
	q.logger.Debug("task retry scheduled",
		"task_id", task.ID,
		"lane", lane,
		"attempt", task.Retries,
		"delay", delay,
	)
}

// runHandler shields the worker from handler panics.
func runHandler(ctx context.Context, handler Handler, task *models.Task) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("handler panic: %v", r)
			}
		}()
		done <- handler(ctx, task)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) saveTask(ctx context.Context, task *models.Task) {
	if err := q.broker.SaveTask(ctx, task); err != nil {
		q.logger.Error("task state save failed", "task_id", task.ID, "error", err)
	}
}

// Pause stops a lane's worker from pulling new tasks. In-flight tasks finish.
func (q *Queue) Pause(lane models.Priority) error {
	if !lane.Valid() {
		return fmt.Errorf("queue: unknown lane %q", lane)
	}
	q.paused[lane].Store(true)
	q.logger.Info("lane paused", "lane", lane)
	return nil
}

// Resume restarts a paused lane.
func (q *Queue) Resume(lane models.Priority) error {
	if !lane.Valid() {
		return fmt.Errorf("queue: unknown lane %q", lane)
	}
	q.paused[lane].Store(false)
	q.logger.Info("lane resumed", "lane", lane)
	return nil
}

// Status returns the stored record for a task.
func (q *Queue) Status(ctx context.Context, taskID string) (*models.Task, error) {
	return q.broker.LoadTask(ctx, taskID)
}

// Retry re-enqueues a terminal failed or timed-out task with its retry
// count reset.
func (q *Queue) Retry(ctx context.Context, taskID string) error {
	task, err := q.broker.LoadTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Status != models.TaskStatusFailed && task.Status != models.TaskStatusTimeout {
		return fmt.Errorf("queue: task %s is %s, only failed tasks can be retried", taskID, task.Status)
	}

	task.Status = models.TaskStatusPending
	task.Retries = 0
	task.LastError = ""
	task.StartedAt = nil
	task.CompletedAt = nil

	if err := q.broker.SaveTask(ctx, task); err != nil {
		return err
	}
	return q.broker.Enqueue(ctx, task.Priority, task.ID)
}

// Remove deletes a task record. Pending IDs still in a lane are dropped at
// dispatch when the record is found missing.
func (q *Queue) Remove(ctx context.Context, taskID string) error {
	if _, err := q.broker.LoadTask(ctx, taskID); err != nil {
		return err
	}
	return q.broker.DeleteTask(ctx, taskID)
}

// CleanUp deletes terminal task records older than the retention window and
// returns how many were removed.
func (q *Queue) CleanUp(ctx context.Context, retention time.Duration) (int, error) {
	tasks, err := q.broker.Tasks(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-retention)
	removed := 0
	for _, task := range tasks {
		if !task.Status.Terminal() {
			continue
		}
		if task.CompletedAt == nil || task.CompletedAt.After(cutoff) {
			continue
		}
		if err := q.broker.DeleteTask(ctx, task.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// LaneStats describes one lane's live state.
type LaneStats struct {
	Depth  int64 `json:"depth"`
	Paused bool  `json:"paused"`
}

// Stats is a point-in-time snapshot of the queue.
type Stats struct {
	Lanes     map[models.Priority]LaneStats `json:"lanes"`
	Enqueued  int64                         `json:"enqueued"`
	Completed int64                         `json:"completed"`
	Retried   int64                         `json:"retried"`
	Failed    int64                         `json:"failed"`
}

// Stats reports per-lane depth and cumulative counters.
func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{
		Lanes:     make(map[models.Priority]LaneStats, len(models.Priorities)),
		Enqueued:  q.enqueued.Load(),
		Completed: q.completed.Load(),
		Retried:   q.retried.Load(),
		Failed:    q.failed.Load(),
	}

	for _, lane := range models.Priorities {
		depth, err := q.broker.Depth(ctx, lane)
		if err != nil {
			return Stats{}, err
		}
		stats.Lanes[lane] = LaneStats{Depth: depth, Paused: q.paused[lane].Load()}
	}
	return stats, nil
}
