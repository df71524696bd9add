package aggregator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/config"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/dedup"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
	"github.com/Jberryfresh/DigitalTide-sub003/internal/sources"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClient struct {
	domain   string
	articles []models.Article
	err      error
	calls    int
}

func (c *fakeClient) Name() string            { return c.domain }
func (c *fakeClient) Type() models.SourceType { return models.SourceTypeRSS }

func (c *fakeClient) Fetch(_ context.Context, _ sources.FetchOptions) ([]models.Article, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.articles, nil
}

func (c *fakeClient) HealthCheck(context.Context) error { return nil }

type fixedCredibility struct {
	scores map[string]float64
}

func (f fixedCredibility) Score(domain string) models.CredibilityScore {
	score, ok := f.scores[domain]
	if !ok {
		score = 0.5
	}
	return models.CredibilityScore{Domain: domain, Score: score}
}

func articlesFor(domain string, count int) []models.Article {
	articles := make([]models.Article, count)
	for i := range articles {
		title := fmt.Sprintf("%s exclusive story %d", domain, i)
		url := fmt.Sprintf("https://%s/story-%d", domain, i)
		articles[i] = models.Article{
			Title:       title,
			URL:         url,
			PublishedAt: time.Now().Add(-time.Duration(i) * time.Minute),
			Fingerprint: models.ComputeFingerprint(title, url),
		}
	}
	return articles
}

func testConfig() config.AggregatorConfig {
	return config.AggregatorConfig{
		FetchTimeout:       2 * time.Second,
		DefaultLimit:       50,
		FailureThreshold:   3,
		CacheTTL:           time.Minute,
		DuplicateThreshold: 0.85,
		SimilarThreshold:   0.70,
	}
}

func newTestAggregator(t *testing.T, clients map[string]*fakeClient, cfg config.AggregatorConfig) *Aggregator {
	t.Helper()

	var sourceList []models.Source
	clientMap := make(map[string]sources.Client, len(clients))
	for domain, client := range clients {
		sourceList = append(sourceList, models.Source{
			Domain:   domain,
			Name:     domain,
			Type:     models.SourceTypeRSS,
			Priority: 5,
			Enabled:  true,
			FeedURL:  "https://" + domain + "/feed",
		})
		clientMap[domain] = client
	}

	detector, err := dedup.New(dedup.DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("dedup.New: %v", err)
	}

	return New(
		sources.NewRegistry(sourceList, clientMap),
		NewReputationStore(),
		fixedCredibility{scores: map[string]float64{}},
		detector,
		cfg,
		testLogger(),
	)
}

func TestAggregateMergesAcrossSources(t *testing.T) {
	clients := map[string]*fakeClient{
		"alpha.com": {domain: "alpha.com", articles: articlesFor("alpha.com", 3)},
		"beta.com":  {domain: "beta.com", articles: articlesFor("beta.com", 2)},
	}
	agg := newTestAggregator(t, clients, testConfig())

	result, err := agg.Aggregate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if len(result.Articles) != 5 {
		t.Errorf("articles = %d, want 5", len(result.Articles))
	}
	if result.Metadata.TotalFetched != 5 {
		t.Errorf("total fetched = %d, want 5", result.Metadata.TotalFetched)
	}
	if len(result.Metadata.PerSourceStatus) != 2 {
		t.Errorf("source statuses = %d, want 2", len(result.Metadata.PerSourceStatus))
	}
}

func TestAggregateOneSourceFailing(t *testing.T) {
	clients := map[string]*fakeClient{
		"alpha.com": {domain: "alpha.com", articles: articlesFor("alpha.com", 3)},
		"beta.com":  {domain: "beta.com", err: errors.New("connection refused")},
	}
	agg := newTestAggregator(t, clients, testConfig())

	result, err := agg.Aggregate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Aggregate should not fail when one source errors: %v", err)
	}

	if len(result.Articles) != 3 {
		t.Errorf("articles = %d, want 3 from the healthy source", len(result.Articles))
	}

	var failedStatus *models.SourceStatus
	for i := range result.Metadata.PerSourceStatus {
		if result.Metadata.PerSourceStatus[i].Domain == "beta.com" {
			failedStatus = &result.Metadata.PerSourceStatus[i]
		}
	}
	if failedStatus == nil {
		t.Fatal("failed source missing from per-source status")
	}
	if failedStatus.OK || failedStatus.Error == "" {
		t.Errorf("failed source status = %+v, want OK=false with error text", failedStatus)
	}
}

func TestCircuitBreakerSkipsFailingSource(t *testing.T) {
	cfg := testConfig()
	clients := map[string]*fakeClient{
		"alpha.com": {domain: "alpha.com", articles: articlesFor("alpha.com", 2)},
		"flaky.com": {domain: "flaky.com", err: errors.New("boom")},
	}
	agg := newTestAggregator(t, clients, cfg)

	// Trip the breaker with consecutive failures.
	for i := 0; i < cfg.FailureThreshold; i++ {
		if _, err := agg.Aggregate(context.Background(), Request{SkipCache: true}); err != nil {
			t.Fatalf("Aggregate: %v", err)
		}
	}

	callsBefore := clients["flaky.com"].calls
	result, err := agg.Aggregate(context.Background(), Request{SkipCache: true})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if clients["flaky.com"].calls != callsBefore {
		t.Error("tripped source should not be fetched")
	}

	skipped := false
	for _, status := range result.Metadata.PerSourceStatus {
		if status.Domain == "flaky.com" && status.Skipped {
			skipped = true
		}
	}
	if !skipped {
		t.Error("tripped source should be reported as skipped")
	}
}

func TestCircuitBreakerResetsOnSuccess(t *testing.T) {
	cfg := testConfig()
	clients := map[string]*fakeClient{
		"flaky.com": {domain: "flaky.com", err: errors.New("boom")},
	}
	agg := newTestAggregator(t, clients, cfg)

	// Two failures, then recovery: breaker must not trip afterward.
	for i := 0; i < cfg.FailureThreshold-1; i++ {
		agg.Aggregate(context.Background(), Request{SkipCache: true})
	}
	clients["flaky.com"].err = nil
	clients["flaky.com"].articles = articlesFor("flaky.com", 1)

	for i := 0; i < 2; i++ {
		result, err := agg.Aggregate(context.Background(), Request{SkipCache: true})
		if err != nil {
			t.Fatalf("Aggregate after recovery: %v", err)
		}
		if len(result.Articles) != 1 {
			t.Errorf("recovered source returned %d articles, want 1", len(result.Articles))
		}
	}

	rep := agg.Reputation().Snapshot("flaky.com")
	if rep.ConsecutiveFailures != 0 {
		t.Errorf("consecutive failures = %d, want 0 after success", rep.ConsecutiveFailures)
	}
}

func TestAggregateMinCredibilityFilter(t *testing.T) {
	clients := map[string]*fakeClient{
		"trusted.com": {domain: "trusted.com", articles: articlesFor("trusted.com", 2)},
		"shady.com":   {domain: "shady.com", articles: articlesFor("shady.com", 2)},
	}

	cfg := testConfig()
	agg := newTestAggregator(t, clients, cfg)
	agg.credibility = fixedCredibility{scores: map[string]float64{
		"trusted.com": 0.9,
		"shady.com":   0.2,
	}}

	result, err := agg.Aggregate(context.Background(), Request{MinCredibility: 0.5})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if len(result.Articles) != 2 {
		t.Fatalf("articles = %d, want 2 above the floor", len(result.Articles))
	}
	for _, article := range result.Articles {
		if article.Credibility < 0.5 {
			t.Errorf("article %s credibility %v below floor", article.URL, article.Credibility)
		}
	}
	if result.Metadata.FilteredCount != 2 {
		t.Errorf("filtered count = %d, want 2", result.Metadata.FilteredCount)
	}
}

func TestAggregateLimitAndSort(t *testing.T) {
	clients := map[string]*fakeClient{
		"alpha.com": {domain: "alpha.com", articles: articlesFor("alpha.com", 10)},
	}
	agg := newTestAggregator(t, clients, testConfig())

	result, err := agg.Aggregate(context.Background(), Request{Limit: 4, SortBy: SortByPublished})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if len(result.Articles) != 4 {
		t.Fatalf("articles = %d, want limit 4", len(result.Articles))
	}
	for i := 1; i < len(result.Articles); i++ {
		if result.Articles[i].PublishedAt.After(result.Articles[i-1].PublishedAt) {
			t.Error("articles not sorted newest first")
		}
	}
}

func TestAggregateCacheHit(t *testing.T) {
	clients := map[string]*fakeClient{
		"alpha.com": {domain: "alpha.com", articles: articlesFor("alpha.com", 2)},
	}
	agg := newTestAggregator(t, clients, testConfig())

	first, err := agg.Aggregate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if first.Metadata.CacheHit {
		t.Error("first call should not be a cache hit")
	}

	second, err := agg.Aggregate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !second.Metadata.CacheHit {
		t.Error("second identical call should be served from cache")
	}
	if clients["alpha.com"].calls != 1 {
		t.Errorf("source fetched %d times, want 1", clients["alpha.com"].calls)
	}
}

func TestEffectivePriorityStrategies(t *testing.T) {
	clients := map[string]*fakeClient{
		"fast.com": {domain: "fast.com"},
		"good.com": {domain: "good.com"},
	}
	agg := newTestAggregator(t, clients, testConfig())
	agg.credibility = fixedCredibility{scores: map[string]float64{
		"fast.com": 0.3,
		"good.com": 0.95,
	}}

	// Give fast.com a much better response time record.
	agg.reputation.RecordSuccess("fast.com", 50*time.Millisecond, 0.5)
	agg.reputation.RecordSuccess("good.com", 5*time.Second, 0.5)

	fast, _ := agg.registry.Lookup("fast.com")
	good, _ := agg.registry.Lookup("good.com")

	if agg.effectivePriority(good, StrategyQuality) <= agg.effectivePriority(fast, StrategyQuality) {
		t.Error("quality strategy should prefer the credible source")
	}
	if agg.effectivePriority(fast, StrategySpeed) <= agg.effectivePriority(good, StrategySpeed) {
		t.Error("speed strategy should prefer the fast source")
	}
}

func TestAggregateNoEligibleSources(t *testing.T) {
	agg := newTestAggregator(t, map[string]*fakeClient{}, testConfig())

	if _, err := agg.Aggregate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error with no eligible sources")
	}
}

type fetchRecord struct {
	source string
	failed bool
}

type recordingFetchObserver struct {
	mu      sync.Mutex
	records []fetchRecord
}

func (o *recordingFetchObserver) ObserveFetch(source string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, fetchRecord{source: source, failed: err != nil})
}

func TestAggregateReportsFetchOutcomes(t *testing.T) {
	clients := map[string]*fakeClient{
		"alpha.com": {domain: "alpha.com", articles: articlesFor("alpha.com", 2)},
		"beta.com":  {domain: "beta.com", err: errors.New("feed unreachable")},
	}

	var sourceList []models.Source
	clientMap := make(map[string]sources.Client, len(clients))
	for domain, client := range clients {
		sourceList = append(sourceList, models.Source{
			Domain:   domain,
			Name:     domain,
			Type:     models.SourceTypeRSS,
			Priority: 5,
			Enabled:  true,
			FeedURL:  "https://" + domain + "/feed",
		})
		clientMap[domain] = client
	}

	detector, err := dedup.New(dedup.DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("dedup.New: %v", err)
	}

	observer := &recordingFetchObserver{}
	agg := New(
		sources.NewRegistry(sourceList, clientMap),
		NewReputationStore(),
		fixedCredibility{scores: map[string]float64{}},
		detector,
		testConfig(),
		testLogger(),
		WithFetchObserver(observer),
	)

	if _, err := agg.Aggregate(context.Background(), Request{}); err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	observer.mu.Lock()
	defer observer.mu.Unlock()
	if len(observer.records) != 2 {
		t.Fatalf("observed fetches = %d, want 2", len(observer.records))
	}
	outcomes := make(map[string]bool, len(observer.records))
	for _, record := range observer.records {
		outcomes[record.source] = record.failed
	}
	if failed, ok := outcomes["alpha.com"]; !ok || failed {
		t.Errorf("alpha.com outcome = failed=%t ok=%t, want a recorded success", failed, ok)
	}
	if failed, ok := outcomes["beta.com"]; !ok || !failed {
		t.Errorf("beta.com outcome = failed=%t ok=%t, want a recorded failure", failed, ok)
	}
}
