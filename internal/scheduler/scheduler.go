package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// JobFunc is the body of a recurring job. Errors are logged and the job
// stays scheduled; one bad run never unschedules a job.
type JobFunc func(ctx context.Context) error

// Job is a named recurring job with its own interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      JobFunc

	// RunOnStart fires the job once immediately when the scheduler starts
	// instead of waiting a full interval.
	RunOnStart bool
}

// JobStatus is a point-in-time view of one job.
type JobStatus struct {
	Name      string        `json:"name"`
	Interval  time.Duration `json:"interval"`
	LastRun   time.Time     `json:"last_run"`
	LastError string        `json:"last_error,omitempty"`
	NextRun   time.Time     `json:"next_run"`
	Runs      int64         `json:"runs"`
	Failures  int64         `json:"failures"`
}

type jobState struct {
	mu        sync.Mutex
	lastRun   time.Time
	lastError string
	nextRun   time.Time
	runs      int64
	failures  int64
	running   bool
}

// Scheduler runs registered jobs on their intervals, each on its own ticker
// goroutine. Jobs can also be triggered by name out of cycle.
type Scheduler struct {
	logger *slog.Logger

	mu     sync.RWMutex
	jobs   map[string]*Job
	states map[string]*jobState
	order  []string

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     sync.WaitGroup
}

// New creates an empty scheduler.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		jobs:   make(map[string]*Job),
		states: make(map[string]*jobState),
		stop:   make(chan struct{}),
	}
}

// Add registers a job. Jobs must be added before Start.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" {
		return fmt.Errorf("scheduler: job name is required")
	}
	if job.Interval <= 0 {
		return fmt.Errorf("scheduler: job %q needs a positive interval", job.Name)
	}
	if job.Run == nil {
		return fmt.Errorf("scheduler: job %q has no run function", job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler: cannot add job %q after start", job.Name)
	}
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("scheduler: job %q already registered", job.Name)
	}

	s.jobs[job.Name] = &job
	s.states[job.Name] = &jobState{}
	s.order = append(s.order, job.Name)
	return nil
}

// Start launches one loop per registered job.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.started = true
	jobs := make([]*Job, 0, len(s.order))
	for _, name := range s.order {
		jobs = append(jobs, s.jobs[name])
	}
	s.mu.Unlock()

	for _, job := range jobs {
		s.done.Add(1)
		go s.loop(ctx, job)
	}

	s.logger.Info("scheduler started", "jobs", len(jobs))
}

// Stop signals all job loops to exit and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.done.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, job *Job) {
	defer s.done.Done()

	state := s.state(job.Name)
	state.mu.Lock()
	state.nextRun = time.Now().Add(job.Interval)
	state.mu.Unlock()

	if job.RunOnStart {
		s.execute(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, job)
		}
	}
}

// Trigger runs a job by name immediately, outside its normal cycle. The
// run happens on the caller's goroutine.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("scheduler: unknown job %q", name)
	}

	state := s.state(name)
	state.mu.Lock()
	if state.running {
		state.mu.Unlock()
		return fmt.Errorf("scheduler: job %q is already running", name)
	}
	state.mu.Unlock()

	s.execute(ctx, job)
	return nil
}

func (s *Scheduler) execute(ctx context.Context, job *Job) {
	state := s.state(job.Name)

	state.mu.Lock()
	if state.running {
		state.mu.Unlock()
		s.logger.Warn("skipping overlapping job run", "job", job.Name)
		return
	}
	state.running = true
	state.mu.Unlock()

	start := time.Now()
	err := job.Run(ctx)
	duration := time.Since(start)

	state.mu.Lock()
	state.running = false
	state.lastRun = start
	state.nextRun = time.Now().Add(job.Interval)
	state.runs++
	if err != nil {
		state.failures++
		state.lastError = err.Error()
	} else {
		state.lastError = ""
	}
	state.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed", "job", job.Name, "duration", duration, "error", err)
		return
	}
	s.logger.Info("scheduled job complete", "job", job.Name, "duration", duration)
}

func (s *Scheduler) state(name string) *jobState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[name]
}

// Status reports every job in registration order.
func (s *Scheduler) Status() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]JobStatus, 0, len(s.order))
	for _, name := range s.order {
		job := s.jobs[name]
		state := s.states[name]

		state.mu.Lock()
		statuses = append(statuses, JobStatus{
			Name:      name,
			Interval:  job.Interval,
			LastRun:   state.lastRun,
			LastError: state.lastError,
			NextRun:   state.nextRun,
			Runs:      state.runs,
			Failures:  state.failures,
		})
		state.mu.Unlock()
	}
	return statuses
}
