package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/aggregator"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// Aggregating fetches and merges articles across sources.
type Aggregating interface {
	Aggregate(ctx context.Context, req aggregator.Request) (models.AggregationResult, error)
}

// CredibilityRecorder accumulates per-domain article outcomes.
type CredibilityRecorder interface {
	RecordArticle(domain string, quality float64, success bool)
}

// TrendAnalyzing derives trending topics from an article batch.
type TrendAnalyzing interface {
	Analyze(articles []models.Article) models.TrendingResult
}

// ResultSink persists the output of a pipeline run. Implementations must be
// idempotent across retried runs.
type ResultSink interface {
	SaveArticles(ctx context.Context, articles []models.Article) (int, error)
	SaveTrends(ctx context.Context, result models.TrendingResult) error
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	RunID           string        `json:"run_id"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
	ArticleCount    int           `json:"article_count"`
	DuplicateCount  int           `json:"duplicate_count"`
	StoredCount     int           `json:"stored_count"`
	TrendingTopics  int           `json:"trending_topics"`
	AggregationTime time.Duration `json:"aggregation_time"`
	AnalysisTime    time.Duration `json:"analysis_time"`
	StorageTime     time.Duration `json:"storage_time"`
	CacheHit        bool          `json:"cache_hit"`
}

// Pipeline chains aggregation, credibility feedback, trend analysis, and
// persistence into one run.
type Pipeline struct {
	aggregator  Aggregating
	credibility CredibilityRecorder
	trending    TrendAnalyzing
	sink        ResultSink // nil disables persistence
	logger      *slog.Logger

	mu         sync.RWMutex
	lastResult models.AggregationResult
	lastTrends models.TrendingResult
	lastReport RunReport
	hasLastRun bool
}

// New creates a pipeline. sink may be nil when persistence is disabled.
func New(
	agg Aggregating,
	credibility CredibilityRecorder,
	trending TrendAnalyzing,
	sink ResultSink,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		aggregator:  agg,
		credibility: credibility,
		trending:    trending,
		sink:        sink,
		logger:      logger,
	}
}

// Run executes one full cycle for the given request.
func (p *Pipeline) Run(ctx context.Context, req aggregator.Request) (RunReport, error) {
	runID := uuid.NewString()
	start := time.Now()
	logger := p.logger.With("run_id", runID)

	logger.Info("pipeline run starting", "strategy", req.Strategy, "category", req.Category)

	result, err := p.aggregator.Aggregate(ctx, req)
	if err != nil {
		return RunReport{}, fmt.Errorf("pipeline run %s: %w", runID, err)
	}

	// Feed outcomes back into credibility history. Every aggregated
	// article counts as a successful delivery from its source.
	for i := range result.Articles {
		article := &result.Articles[i]
		p.credibility.RecordArticle(article.Domain(), article.Quality/100, true)
	}

	analysisStart := time.Now()
	trends := p.trending.Analyze(result.Articles)
	analysisTime := time.Since(analysisStart)

	stored := 0
	var storageTime time.Duration
	if p.sink != nil {
		storageStart := time.Now()
		stored, err = p.sink.SaveArticles(ctx, result.Articles)
		if err != nil {
			return RunReport{}, fmt.Errorf("pipeline run %s: store articles: %w", runID, err)
		}
		if err := p.sink.SaveTrends(ctx, trends); err != nil {
			return RunReport{}, fmt.Errorf("pipeline run %s: store trends: %w", runID, err)
		}
		storageTime = time.Since(storageStart)
	}

	report := RunReport{
		RunID:           runID,
		StartedAt:       start,
		Duration:        time.Since(start),
		ArticleCount:    len(result.Articles),
		DuplicateCount:  result.Metadata.DeduplicatedCount,
		StoredCount:     stored,
		TrendingTopics:  len(trends.Trending),
		AggregationTime: result.Metadata.AggregationTime,
		AnalysisTime:    analysisTime,
		StorageTime:     storageTime,
		CacheHit:        result.Metadata.CacheHit,
	}

	p.mu.Lock()
	p.lastResult = result
	p.lastTrends = trends
	p.lastReport = report
	p.hasLastRun = true
	p.mu.Unlock()

	logger.Info("pipeline run complete",
		"articles", report.ArticleCount,
		"stored", report.StoredCount,
		"topics", report.TrendingTopics,
		"duration", report.Duration,
	)

	return report, nil
}

// LastRun returns the most recent run's outputs, or false when no run has
// completed yet.
func (p *Pipeline) LastRun() (models.AggregationResult, models.TrendingResult, RunReport, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastResult, p.lastTrends, p.lastReport, p.hasLastRun
}
