package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/config"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/dedup"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/sources"
)

// Strategy selects how sources are weighted against each other.
type Strategy string

const (
	StrategyBalanced Strategy = "balanced"
	StrategyQuality  Strategy = "quality"
	StrategySpeed    Strategy = "speed"
	StrategyCost     Strategy = "cost"
)

// SortBy selects the final ordering of aggregated articles.
type SortBy string

const (
	SortByPublished SortBy = "published"
	SortByQuality   SortBy = "quality"
	SortByRelevance SortBy = "relevance"
)

// Request describes one aggregation cycle.
type Request struct {
	Query          string
	Category       string
	Country        string
	Language       string
	Limit          int
	Strategy       Strategy
	SortBy         SortBy
	MinCredibility float64 // overrides the configured floor when > 0
	SkipCache      bool
}

// CredibilityProvider supplies per-domain trust scores.
type CredibilityProvider interface {
	Score(domain string) models.CredibilityScore
}

// FetchObserver receives the outcome of every source fetch. Methods may be
// called concurrently from fan-out goroutines.
type FetchObserver interface {
	ObserveFetch(source string, duration time.Duration, err error)
}

type nopFetchObserver struct{}

func (nopFetchObserver) ObserveFetch(string, time.Duration, error) {}

// Aggregator fans requests out to eligible sources, merges and deduplicates
// the results, and maintains per-source reputation.
type Aggregator struct {
	registry    *sources.Registry
	reputation  *ReputationStore
	credibility CredibilityProvider
	detector    *dedup.Detector
	cache       *resultCache
	cfg         config.AggregatorConfig
	logger      *slog.Logger
	observer    FetchObserver
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithFetchObserver attaches a per-fetch outcome observer.
func WithFetchObserver(observer FetchObserver) Option {
	return func(a *Aggregator) { a.observer = observer }
}

// New creates an aggregator.
func New(
	registry *sources.Registry,
	reputation *ReputationStore,
	credibility CredibilityProvider,
	detector *dedup.Detector,
	cfg config.AggregatorConfig,
	logger *slog.Logger,
	opts ...Option,
) *Aggregator {
	a := &Aggregator{
		registry:    registry,
		reputation:  reputation,
		credibility: credibility,
		detector:    detector,
		cache:       newResultCache(cfg.CacheTTL),
		cfg:         cfg,
		logger:      logger,
		observer:    nopFetchObserver{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// fetchOutcome carries one source's result across the fan-out boundary.
type fetchOutcome struct {
	domain   string
	articles []models.Article
	latency  time.Duration
	err      error
}

// Aggregate runs one full cycle: select, fan out, merge, dedup, filter,
// sort, truncate. A single source failing contributes an error entry, never
// an aborted run.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (models.AggregationResult, error) {
	start := time.Now()

	if req.Limit <= 0 {
		req.Limit = a.cfg.DefaultLimit
	}
	if req.Strategy == "" {
		req.Strategy = StrategyBalanced
	}
	if req.SortBy == "" {
		req.SortBy = SortByPublished
	}

	eligible, skipped := a.selectSources(req)
	if len(eligible) == 0 {
		return models.AggregationResult{}, fmt.Errorf("aggregate: no eligible sources for request")
	}

	domains := make([]string, len(eligible))
	for i, source := range eligible {
		domains[i] = source.Domain
	}

	key := cacheKey(req, domains)
	if !req.SkipCache {
		if cached, ok := a.cache.get(key); ok {
			cached.Metadata.CacheHit = true
			return cached, nil
		}
	}

	outcomes := a.fanOut(ctx, eligible, req)

	statuses := make([]models.SourceStatus, 0, len(outcomes)+len(skipped))
	for _, domain := range skipped {
		statuses = append(statuses, models.SourceStatus{Domain: domain, Skipped: true})
	}

	var merged []models.Article
	totalFetched := 0
	for _, outcome := range outcomes {
		status := models.SourceStatus{
			Domain:  outcome.domain,
			Count:   len(outcome.articles),
			OK:      outcome.err == nil,
			Latency: outcome.latency,
		}
		if outcome.err != nil {
			status.Error = outcome.err.Error()
		}
		statuses = append(statuses, status)

		totalFetched += len(outcome.articles)
		merged = append(merged, outcome.articles...)
	}

	// Attach credibility and quality before deduplication so best-article
	// selection can favor trustworthy sources.
	for i := range merged {
		domain := merged[i].Domain()
		merged[i].Credibility = a.credibility.Score(domain).Score
		merged[i].Quality = dedup.ScoreQuality(&merged[i])
	}

	deduped := a.detector.Dedupe(merged)

	floor := a.cfg.MinCredibility
	if req.MinCredibility > 0 {
		floor = req.MinCredibility
	}

	filtered := deduped.Unique
	filteredOut := 0
	if floor > 0 {
		kept := filtered[:0]
		for _, article := range filtered {
			if article.Credibility >= floor {
				kept = append(kept, article)
			} else {
				filteredOut++
			}
		}
		filtered = kept
	}

	sortArticles(filtered, req)

	if len(filtered) > req.Limit {
		filtered = filtered[:req.Limit]
	}

	result := models.AggregationResult{
		Articles: filtered,
		Metadata: models.AggregationMetadata{
			TotalFetched:      totalFetched,
			PerSourceStatus:   statuses,
			DeduplicatedCount: totalFetched - len(deduped.Unique),
			FilteredCount:     filteredOut,
			AggregationTime:   time.Since(start),
		},
	}

	a.cache.put(key, result)

	a.logger.Info("aggregation complete",
		"sources", len(eligible),
		"skipped", len(skipped),
		"fetched", totalFetched,
		"deduplicated", result.Metadata.DeduplicatedCount,
		"returned", len(filtered),
		"duration", result.Metadata.AggregationTime,
	)

	return result, nil
}

// selectSources filters the registry to enabled, capability-matching sources
// whose circuit breaker is closed, ranked by effective priority.
func (a *Aggregator) selectSources(req Request) ([]models.Source, []string) {
	var eligible []models.Source
	var skipped []string

	for _, source := range a.registry.Sources() {
		if !source.Enabled {
			continue
		}
		if !source.SupportsCategory(req.Category) ||
			!source.SupportsCountry(req.Country) ||
			!source.SupportsLanguage(req.Language) {
			continue
		}
		if _, ok := a.registry.Client(source.Domain); !ok {
			continue
		}

		// Circuit breaker: a run of consecutive failures excludes the
		// source until one success resets the counter.
		rep := a.reputation.Snapshot(source.Domain)
		if rep.ConsecutiveFailures >= a.cfg.FailureThreshold {
			skipped = append(skipped, source.Domain)
			continue
		}

		eligible = append(eligible, source)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return a.effectivePriority(eligible[i], req.Strategy) > a.effectivePriority(eligible[j], req.Strategy)
	})

	return eligible, skipped
}

// effectivePriority blends static priority, credibility, and live reputation
// according to the strategy.
func (a *Aggregator) effectivePriority(source models.Source, strategy Strategy) float64 {
	static := float64(source.Priority) / 10
	cred := a.credibility.Score(source.Domain).Score

	rep := a.reputation.Snapshot(source.Domain)
	reliability := rep.SuccessRate()
	speed := 1.0
	if rep.AvgResponseTime > 0 {
		speed = 1 / (1 + rep.AvgResponseTime.Seconds())
	}
	cost := 1 / (1 + source.CostPerReq)

	switch strategy {
	case StrategyQuality:
		return 0.20*static + 0.50*cred + 0.20*reliability + 0.10*speed
	case StrategySpeed:
		return 0.20*static + 0.15*cred + 0.25*reliability + 0.40*speed
	case StrategyCost:
		return 0.20*static + 0.20*cred + 0.20*reliability + 0.40*cost
	default: // balanced
		return 0.30*static + 0.30*cred + 0.25*reliability + 0.15*speed
	}
}

// fanOut fetches from every source in parallel, each under its own timeout,
// and records the reputation outcome as each fetch completes.
func (a *Aggregator) fanOut(ctx context.Context, eligible []models.Source, req Request) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(eligible))

	var wg sync.WaitGroup
	for i, source := range eligible {
		client, _ := a.registry.Client(source.Domain)

		wg.Add(1)
		go func(i int, source models.Source, client sources.Client) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.FetchTimeout)
			defer cancel()

			start := time.Now()
			articles, err := client.Fetch(fetchCtx, sources.FetchOptions{
				Query:    req.Query,
				Category: req.Category,
				Country:  req.Country,
				Language: req.Language,
				Limit:    req.Limit,
			})
			latency := time.Since(start)
			a.observer.ObserveFetch(source.Domain, latency, err)

			if err != nil {
				a.reputation.RecordFailure(source.Domain)
				a.logger.Warn("source fetch failed",
					"source", source.Domain,
					"latency", latency,
					"error", err,
				)
				outcomes[i] = fetchOutcome{domain: source.Domain, latency: latency, err: err}
				return
			}

			a.reputation.RecordSuccess(source.Domain, latency, averageQuality(articles))
			outcomes[i] = fetchOutcome{domain: source.Domain, articles: articles, latency: latency}
		}(i, source, client)
	}
	wg.Wait()

	return outcomes
}

func averageQuality(articles []models.Article) float64 {
	if len(articles) == 0 {
		return 0
	}
	total := 0.0
	for i := range articles {
		total += dedup.ScoreQuality(&articles[i]) / 100
	}
	return total / float64(len(articles))
}

func sortArticles(articles []models.Article, req Request) {
	switch req.SortBy {
	case SortByQuality:
		sort.SliceStable(articles, func(i, j int) bool {
			return articles[i].Quality > articles[j].Quality
		})
	case SortByRelevance:
		sort.SliceStable(articles, func(i, j int) bool {
			return relevance(&articles[i], req.Query) > relevance(&articles[j], req.Query)
		})
	default:
		sort.SliceStable(articles, func(i, j int) bool {
			return articles[i].PublishedAt.After(articles[j].PublishedAt)
		})
	}
}

// relevance is a cheap query-match score: title hits weigh more than body
// hits, with quality as a tiebreaker.
func relevance(article *models.Article, query string) float64 {
	if query == "" {
		return article.Quality
	}

	score := article.Quality / 100
	keywords := tokenizeQuery(query)
	for _, keyword := range keywords {
		if containsFold(article.Title, keyword) {
			score += 2
		}
		if containsFold(article.Body(), keyword) {
			score += 1
		}
	}
	return score
}

func tokenizeQuery(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	keywords := fields[:0]
	for _, field := range fields {
		if len(field) >= 2 {
			keywords = append(keywords, field)
		}
	}
	return keywords
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

// Reputation exposes the reputation store for the operator surface.
func (a *Aggregator) Reputation() *ReputationStore {
	return a.reputation
}

// CleanupCache drops expired aggregation cache entries.
func (a *Aggregator) CleanupCache() int {
	return a.cache.cleanup()
}

// ClearCache removes every cached aggregation result.
func (a *Aggregator) ClearCache() {
	a.cache.clear()
}
