package metrics

import (
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// QueueObserver adapts the collector to the queue's lifecycle events.
type QueueObserver struct {
	collector *Collector
}

// NewQueueObserver wraps a collector.
func NewQueueObserver(collector *Collector) *QueueObserver {
	return &QueueObserver{collector: collector}
}

func (o *QueueObserver) TaskEnqueued(task *models.Task) {
	o.collector.ObserveTask(string(task.Priority), "enqueued")
}

func (o *QueueObserver) TaskStarted(task *models.Task) {
	o.collector.ObserveTask(string(task.Priority), "started")
}

func (o *QueueObserver) TaskCompleted(task *models.Task, duration time.Duration) {
	o.collector.ObserveTask(string(task.Priority), "completed")
	o.collector.ObserveTaskDuration(string(task.Priority), duration)
}

func (o *QueueObserver) TaskRetried(task *models.Task, _ time.Duration) {
	o.collector.ObserveTask(string(task.Priority), "retried")
}

func (o *QueueObserver) TaskFailed(task *models.Task) {
	o.collector.ObserveTask(string(task.Priority), "failed")
}
