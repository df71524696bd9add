package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "digitaltide"

// Collector owns the Prometheus registry and every metric family the
// service exports: inbound HTTP, source fetches, deduplication, queue
// activity, and pipeline runs.
type Collector struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec

	articlesAggregated prometheus.Counter
	duplicatesRemoved  prometheus.Counter

	queueDepth     *prometheus.GaugeVec
	tasksTotal     *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec
	pipelineRuns   prometheus.Counter
	pipelineTiming prometheus.Histogram
}

// NewCollector constructs and registers all metric families on a private
// registry.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for inbound HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),

		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests.",
		}, []string{"method", "path", "status"}),

		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sources",
			Name:      "fetch_total",
			Help:      "Source fetch attempts by outcome.",
		}, []string{"source", "outcome"}),

		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sources",
			Name:      "fetch_duration_seconds",
			Help:      "Latency distribution for source fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),

		articlesAggregated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregator",
			Name:      "articles_total",
			Help:      "Articles returned by aggregation after filtering.",
		}),

		duplicatesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregator",
			Name:      "duplicates_removed_total",
			Help:      "Articles removed by deduplication.",
		}),

		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Tasks waiting per priority lane.",
		}, []string{"lane"}),

		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "tasks_total",
			Help:      "Queue task outcomes by lane.",
		}, []string{"lane", "outcome"}),

		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "task_duration_seconds",
			Help:      "Handler execution time per lane.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"lane"}),

		pipelineRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Completed pipeline runs.",
		}),

		pipelineTiming: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "End-to-end pipeline run duration.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}

	collectors := []prometheus.Collector{
		c.requestDuration,
		c.requestTotal,
		c.fetchTotal,
		c.fetchDuration,
		c.articlesAggregated,
		c.duplicatesRemoved,
		c.queueDepth,
		c.tasksTotal,
		c.taskDuration,
		c.pipelineRuns,
		c.pipelineTiming,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Handler returns an HTTP handler exposing the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// ObserveFetch records one source fetch attempt.
func (c *Collector) ObserveFetch(source string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.fetchTotal.WithLabelValues(source, outcome).Inc()
	c.fetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// ObserveAggregation records the outcome of one aggregation cycle.
func (c *Collector) ObserveAggregation(returned, duplicatesRemoved int) {
	c.articlesAggregated.Add(float64(returned))
	c.duplicatesRemoved.Add(float64(duplicatesRemoved))
}

// SetQueueDepth updates the waiting-task gauge for a lane.
func (c *Collector) SetQueueDepth(lane string, depth int64) {
	c.queueDepth.WithLabelValues(lane).Set(float64(depth))
}

// ObserveTask records one task outcome.
func (c *Collector) ObserveTask(lane, outcome string) {
	c.tasksTotal.WithLabelValues(lane, outcome).Inc()
}

// ObserveTaskDuration records handler execution time.
func (c *Collector) ObserveTaskDuration(lane string, duration time.Duration) {
	c.taskDuration.WithLabelValues(lane).Observe(duration.Seconds())
}

// ObservePipelineRun records one completed pipeline run.
func (c *Collector) ObservePipelineRun(duration time.Duration) {
	c.pipelineRuns.Inc()
	c.pipelineTiming.Observe(duration.Seconds())
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
