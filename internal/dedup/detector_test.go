package dedup

import (
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	detector, err := New(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return detector
}

func makeArticle(title, rawURL string) models.Article {
	return models.Article{
		Title:       title,
		URL:         rawURL,
		PublishedAt: time.Now(),
		Fingerprint: models.ComputeFingerprint(title, rawURL),
	}
}

func TestDedupeExactURLVariants(t *testing.T) {
	detector := newTestDetector(t)

	a := makeArticle("Fed Raises Rates", "https://www.example.com/fed-rates?utm_source=feed")
	b := makeArticle("Fed raises rates", "http://example.com/fed-rates/")
	c := makeArticle("Storm Hits Coast", "https://example.com/storm")

	result := detector.Dedupe([]models.Article{a, b, c})

	if len(result.Unique) != 2 {
		t.Fatalf("unique = %d, want 2", len(result.Unique))
	}
	if result.Exact != 1 {
		t.Errorf("exact = %d, want 1", result.Exact)
	}
	if len(result.Groups) != 1 {
		t.Errorf("groups = %d, want 1", len(result.Groups))
	}
	for _, group := range result.Groups {
		if len(group.Duplicates) != 1 {
			t.Errorf("group duplicates = %d, want 1", len(group.Duplicates))
		}
		if group.Similarity[0] != 1.0 {
			t.Errorf("exact duplicate similarity = %v, want 1.0", group.Similarity[0])
		}
	}
}

func TestDedupeFuzzyNearDuplicates(t *testing.T) {
	detector := newTestDetector(t)

	content := "The Federal Reserve raised its benchmark interest rate by a quarter " +
		"percentage point on Wednesday, citing persistent inflation pressures and a " +
		"resilient labor market. Officials signaled further increases may follow."

	now := time.Now()
	a := models.Article{
		Title:       "Fed Raises Interest Rates by a Quarter Point",
		Content:     content,
		URL:         "https://news-one.com/economy/fed-raises-rates",
		ImageURL:    "https://cdn.news-one.com/fed.jpg",
		Author:      "Jane Smith",
		Source:      models.SourceRef{Name: "News One"},
		PublishedAt: now,
	}
	a.Fingerprint = models.ComputeFingerprint(a.Title, a.URL)

	b := a
	b.Title = "Fed Raises Interest Rates by Quarter Point"
	b.URL = "https://news-one.com/economy/fed-raises-rates-quarter-point"
	b.PublishedAt = now.Add(-20 * time.Minute)
	b.Fingerprint = models.ComputeFingerprint(b.Title, b.URL)

	unrelated := models.Article{
		Title:       "Champions League Final Set for Saturday",
		Content:     "Two European football giants will meet in the final after dramatic semifinal victories this week.",
		URL:         "https://news-one.com/sports/champions-league-final",
		PublishedAt: now,
	}
	unrelated.Fingerprint = models.ComputeFingerprint(unrelated.Title, unrelated.URL)

	result := detector.Dedupe([]models.Article{a, b, unrelated})

	if len(result.Unique) != 2 {
		t.Fatalf("unique = %d, want 2 (near-duplicates merged, unrelated kept)", len(result.Unique))
	}
	if result.Fuzzy != 1 {
		t.Errorf("fuzzy = %d, want 1", result.Fuzzy)
	}
}

func TestDedupeCrossDomainSyndicatedStory(t *testing.T) {
	detector := newTestDetector(t)

	wireCopy := "The Federal Reserve raised its benchmark interest rate by a quarter " +
		"percentage point on Wednesday, citing persistent inflation pressures and a " +
		"resilient labor market. Officials signaled further increases may follow if " +
		"price growth does not cool in the coming months."

	now := time.Now()
	a := models.Article{
		Title:       "Fed Raises Rates by 0.25%",
		Content:     wireCopy,
		URL:         "https://news-one.com/economy/fed-raises-rates",
		Source:      models.SourceRef{Name: "News One"},
		Credibility: 0.9,
		PublishedAt: now,
	}
	a.Fingerprint = models.ComputeFingerprint(a.Title, a.URL)

	b := models.Article{
		Title:       "Federal Reserve Hikes Interest Rates Quarter Point",
		Content:     wireCopy,
		URL:         "https://daily-chronicle.org/business/fed-hikes-quarter-point",
		Source:      models.SourceRef{Name: "Daily Chronicle"},
		Credibility: 0.5,
		PublishedAt: now.Add(-2 * time.Hour),
	}
	b.Fingerprint = models.ComputeFingerprint(b.Title, b.URL)

	// Rewritten headline, different outlet, but the same wire body must
	// still group as a near-duplicate.
	if score := detector.Similarity(&a, &b); score < 0.85 {
		t.Fatalf("cross-domain similarity = %v, want >= 0.85", score)
	}

	result := detector.Dedupe([]models.Article{a, b})
	if len(result.Unique) != 1 {
		t.Fatalf("unique = %d, want 1", len(result.Unique))
	}
	if result.Unique[0].Credibility != 0.9 {
		t.Errorf("retained article credibility = %v, want the higher-credibility source kept",
			result.Unique[0].Credibility)
	}
}

func TestDedupeQualityElection(t *testing.T) {
	detector := newTestDetector(t)

	thin := makeArticle("Fed Raises Rates", "https://example.com/fed-rates?utm_source=a")

	rich := thin
	rich.URL = "https://example.com/fed-rates"
	rich.Content = "The Federal Reserve raised its benchmark interest rate on Wednesday. " +
		"The decision follows months of elevated inflation readings and marks the " +
		"third consecutive increase this year, pushing borrowing costs to their " +
		"highest level in over a decade. Markets reacted with modest gains."
	rich.Author = "Jane Smith"
	rich.ImageURL = "https://cdn.example.com/fed.jpg"
	rich.Fingerprint = models.ComputeFingerprint(rich.Title, rich.URL)

	result := detector.Dedupe([]models.Article{thin, rich})

	if len(result.Unique) != 1 {
		t.Fatalf("unique = %d, want 1", len(result.Unique))
	}
	if result.Unique[0].Author != "Jane Smith" {
		t.Error("higher-quality duplicate should be elected as the representative")
	}
}

func TestDedupeIdempotent(t *testing.T) {
	detector := newTestDetector(t)

	articles := []models.Article{
		makeArticle("Fed Raises Rates", "https://example.com/fed-rates"),
		makeArticle("Fed Raises Rates", "https://www.example.com/fed-rates/"),
		makeArticle("Storm Hits Coast", "https://example.com/storm"),
		makeArticle("Markets Rally on Earnings", "https://example.com/markets-rally"),
	}

	first := detector.Dedupe(articles)
	second := detector.Dedupe(first.Unique)

	if len(second.Unique) != len(first.Unique) {
		t.Errorf("second pass unique = %d, want %d (dedupe must be idempotent)",
			len(second.Unique), len(first.Unique))
	}
	if second.Exact != 0 || second.Fuzzy != 0 {
		t.Errorf("second pass found duplicates: exact=%d fuzzy=%d", second.Exact, second.Fuzzy)
	}
}

func TestDedupeEmptyInput(t *testing.T) {
	detector := newTestDetector(t)

	result := detector.Dedupe(nil)
	if len(result.Unique) != 0 || len(result.Groups) != 0 {
		t.Errorf("empty input produced output: %+v", result)
	}
}

func TestSimilarityBounds(t *testing.T) {
	detector := newTestDetector(t)

	a := makeArticle("Fed Raises Rates", "https://example.com/fed-rates")
	b := makeArticle("Completely Different Story About Weather", "https://other.org/weather-today")

	score := detector.Similarity(&a, &b)
	if score < 0 || score > 1 {
		t.Errorf("similarity = %v, want in [0,1]", score)
	}

	self := detector.Similarity(&a, &a)
	if self < 0.99 {
		t.Errorf("self similarity = %v, want ~1", self)
	}
}
