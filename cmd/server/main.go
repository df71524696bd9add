package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"log/slog"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/aggregator"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/api"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/config"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/credibility"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/dedup"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/logging"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/metrics"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/pipeline"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/queue"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/scheduler"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/server"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/sources"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/storage"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/trending"
)

const version = "0.1.0"

const historyWindow = 30 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting DigitalTide", "version", version)

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	// Source credibility: static tier lists plus rolling performance history.
	tiers, err := credibility.LoadTierLists(cfg.Sources.TiersPath)
	if err != nil {
		logger.Warn("tier list file unavailable, using built-in defaults", "path", cfg.Sources.TiersPath, "error", err)
		tiers = credibility.DefaultTierLists()
	}
	history := credibility.NewHistoryStore(historyWindow)
	scorer := credibility.NewScorer(tiers, history, 10*time.Minute, logger)

	dedupConfig := dedup.DefaultConfig()
	dedupConfig.DuplicateThreshold = cfg.Aggregator.DuplicateThreshold
	dedupConfig.SimilarThreshold = cfg.Aggregator.SimilarThreshold
	detector, err := dedup.New(dedupConfig, logger)
	if err != nil {
		logger.Error("failed to init dedup", "error", err)
		os.Exit(1)
	}

	registry, err := sources.LoadRegistry(cfg.Sources.RegistryPath, logger)
	if err != nil {
		logger.Error("failed to load source registry", "error", err)
		os.Exit(1)
	}

	reputation := aggregator.NewReputationStore()
	agg := aggregator.New(registry, reputation, scorer, detector, cfg.Aggregator, logger,
		aggregator.WithFetchObserver(collector))

	analyzer := trending.New(trending.DefaultConfig(), logger)

	// Persistence is optional: without DATABASE_URL the pipeline runs
	// in-memory only.
	var sink pipeline.ResultSink
	var pgSink *storage.PostgresSink
	if cfg.Storage.DatabaseURL != "" {
		pgSink, err = storage.NewPostgresSink(context.Background(), cfg.Storage.DatabaseURL, logger)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pgSink.Close()
		sink = pgSink
		logger.Info("postgres result sink enabled")
	} else {
		logger.Info("DATABASE_URL not set, persistence disabled")
	}

	pipe := pipeline.New(agg, scorer, analyzer, sink, logger)

	broker := connectBroker(cfg.Redis, cfg.Queue.KeyPrefix, logger)
	defer broker.Close()

	taskQueue := queue.New(broker, cfg.Queue.PollWait, logger,
		queue.WithObserver(metrics.NewQueueObserver(collector)))

	// Task handler: a queued task's payload is an aggregation request and
	// runs one full pipeline cycle.
	taskQueue.Register(models.MessageTypeTask, func(ctx context.Context, task *models.Task) error {
		var req aggregator.Request
		if len(task.Payload) > 0 {
			if err := json.Unmarshal(task.Payload, &req); err != nil {
				return err
			}
		}
		report, err := pipe.Run(ctx, req)
		if err != nil {
			return err
		}
		collector.ObservePipelineRun(report.Duration)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	taskQueue.Start(ctx)

	sched := scheduler.New(logger)

	mustAdd(sched, logger, scheduler.Job{
		Name:       "fetch-and-store",
		Interval:   cfg.Scheduler.FetchInterval,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			report, err := pipe.Run(ctx, aggregator.Request{SkipCache: true})
			if err != nil {
				return err
			}
			collector.ObservePipelineRun(report.Duration)
			collector.ObserveAggregation(report.ArticleCount, report.DuplicateCount)
			return nil
		},
	})

	mustAdd(sched, logger, scheduler.Job{
		Name:     "cleanup",
		Interval: cfg.Scheduler.CleanupInterval,
		Run: func(ctx context.Context) error {
			expired := agg.CleanupCache()
			dropped := history.Cleanup()
			removedTasks, err := taskQueue.CleanUp(ctx, cfg.Scheduler.CleanupInterval)
			if err != nil {
				return err
			}
			if pgSink != nil {
				if _, err := pgSink.PruneTrends(ctx, 7*24*time.Hour); err != nil {
					return err
				}
			}
			logger.Info("cleanup complete",
				"cache_entries", expired,
				"history_domains", dropped,
				"tasks", removedTasks,
			)
			return nil
		},
	})

	mustAdd(sched, logger, scheduler.Job{
		Name:     "quota-reset",
		Interval: cfg.Scheduler.QuotaInterval,
		Run: func(ctx context.Context) error {
			reset := registry.ResetQuotas()
			logger.Info("source quotas reset", "clients", reset)
			return nil
		},
	})

	sched.Start(ctx)

	// Publish queue depth to the metrics gauge.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats, err := taskQueue.Stats(ctx)
				if err != nil {
					continue
				}
				for lane, laneStats := range stats.Lanes {
					collector.SetQueueDepth(string(lane), laneStats.Depth)
				}
			}
		}
	}()

	mux := http.NewServeMux()
	handler := api.NewHandler(pipe, agg, taskQueue, sched, version, logger)
	handler.Register(mux)
	mux.Handle("/metrics", collector.Handler())

	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("DigitalTide started", "port", cfg.Server.Port)

	waitForSignal(logger)

	logger.Info("shutting down")
	cancel()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	sched.Stop()
	taskQueue.Stop()
	logger.Info("shutdown complete")
}

// connectBroker dials Redis and falls back to the in-memory broker when it
// is unreachable, so the service still runs in degraded single-process mode.
func connectBroker(cfg config.RedisConfig, keyPrefix string, logger *slog.Logger) queue.Broker {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		logger.Warn("invalid REDIS_URL, using in-memory queue", "error", err)
		return queue.NewMemoryBroker()
	}
	opts.PoolSize = cfg.PoolSize
	opts.DialTimeout = cfg.DialTimeout

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, using in-memory queue", "error", err)
		client.Close()
		return queue.NewMemoryBroker()
	}

	logger.Info("redis connected", "addr", opts.Addr)
	return queue.NewRedisBroker(client, keyPrefix)
}

func mustAdd(sched *scheduler.Scheduler, logger *slog.Logger, job scheduler.Job) {
	if err := sched.Add(job); err != nil {
		logger.Error("failed to register job", "job", job.Name, "error", err)
		os.Exit(1)
	}
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
