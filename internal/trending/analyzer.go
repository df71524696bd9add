package trending

import (
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// Config tunes the trending analysis.
type Config struct {
	ShortWindow  time.Duration // velocity window
	MediumWindow time.Duration // acceleration + recency baseline

	VelocityWeight    float64
	VolumeWeight      float64
	RecencyWeight     float64
	CredibilityWeight float64

	MinMentions      int
	MinVelocity      float64
	MaxTopics        int
	VolumeSaturation float64 // mention count at which volume approaches 1

	MinKeywordLen int
	MaxKeywordLen int

	ClusterThreshold float64
	MaxClusterSize   int

	HistoryCap    int           // velocity points kept per keyword
	HistoryExpiry time.Duration // keyword unseen this long is forgotten
}

// DefaultConfig returns the standard analysis parameters.
func DefaultConfig() Config {
	return Config{
		ShortWindow:       1 * time.Hour,
		MediumWindow:      6 * time.Hour,
		VelocityWeight:    0.4,
		VolumeWeight:      0.3,
		RecencyWeight:     0.2,
		CredibilityWeight: 0.1,
		MinMentions:       3,
		MinVelocity:       0.05,
		MaxTopics:         20,
		VolumeSaturation:  30,
		MinKeywordLen:     2, // admits short acronyms like "ai" and "eu"
		MaxKeywordLen:     24,
		ClusterThreshold:  0.60,
		MaxClusterSize:    5,
		HistoryCap:        24,
		HistoryExpiry:     24 * time.Hour,
	}
}

// Analyzer surfaces and classifies trending topics from article batches.
type Analyzer struct {
	config  Config
	history *historyStore
	logger  *slog.Logger
	tokens  *regexp.Regexp
}

// New creates an analyzer.
func New(config Config, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		config:  config,
		history: newHistoryStore(config.HistoryCap, config.HistoryExpiry),
		logger:  logger,
		tokens:  regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9'-]*`),
	}
}

// Analyze recomputes trending topics from the batch. Topics are derived
// fresh each cycle; only the per-keyword velocity history persists between
// calls.
func (a *Analyzer) Analyze(articles []models.Article) models.TrendingResult {
	start := time.Now()
	now := start

	mentions := a.collectMentions(articles, now)

	scored := make([]models.TrendTopic, 0, len(mentions))
	topics := make([]models.TrendTopic, 0, len(mentions))
	for keyword, mentionList := range mentions {
		topic := a.scoreTopic(keyword, mentionList, now)
		scored = append(scored, topic)
		if len(topic.Mentions) < a.config.MinMentions {
			continue
		}
		if topic.Velocity < a.config.MinVelocity {
			continue
		}
		topics = append(topics, topic)
	}

	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].TrendScore > topics[j].TrendScore
	})
	if len(topics) > a.config.MaxTopics {
		topics = topics[:a.config.MaxTopics]
	}

	// Classify against the prior cycle before this cycle is recorded.
	for i := range topics {
		prior, hasPrior := a.history.previous(topics[i].Keyword)
		topics[i].Stage, topics[i].StageConfidence = classifyStage(topics[i].Velocity, prior, hasPrior)
	}

	// Every scored keyword gets a history point, including those cut by
	// the floors or the topic cap, so a keyword hovering around the cutoff
	// does not restart as emerging each time it re-enters.
	for i := range scored {
		a.history.observe(scored[i].Keyword, scored[i].Velocity, now)
	}

	clusters := a.clusterTopics(topics)

	pruned := a.history.prune(now)
	if pruned > 0 {
		a.logger.Debug("pruned stale keyword history", "removed", pruned)
	}

	result := models.TrendingResult{
		Trending: topics,
		Clusters: clusters,
		Metadata: models.TrendingMetadata{
			ArticlesAnalyzed: len(articles),
			KeywordsSeen:     len(mentions),
			TopicsReturned:   len(topics),
			AnalyzedAt:       now,
			Duration:         time.Since(start),
		},
	}

	a.logger.Info("trending analysis complete",
		"articles", len(articles),
		"keywords", len(mentions),
		"topics", len(topics),
		"clusters", len(clusters),
	)

	return result
}

// collectMentions extracts keywords per article and accumulates mention
// lists with timestamps and source credibility.
func (a *Analyzer) collectMentions(articles []models.Article, now time.Time) map[string][]models.Mention {
	mentions := make(map[string][]models.Mention)

	for _, article := range articles {
		keywords := a.ExtractKeywords(article.Title + " " + article.Description)

		timestamp := article.PublishedAt
		if timestamp.IsZero() || timestamp.After(now) {
			timestamp = now
		}

		for _, keyword := range keywords {
			mentions[keyword] = append(mentions[keyword], models.Mention{
				Timestamp:   timestamp,
				Credibility: article.Credibility,
				ArticleURL:  article.URL,
			})
		}
	}

	return mentions
}

// ExtractKeywords returns the deduplicated candidate keywords in the text:
// stop-word-filtered tokens within the configured length band.
func (a *Analyzer) ExtractKeywords(text string) []string {
	raw := a.tokens.FindAllString(text, -1)

	seen := make(map[string]bool, len(raw))
	keywords := make([]string, 0, len(raw))

	for _, token := range raw {
		keyword := strings.ToLower(strings.Trim(token, "'-"))
		if len(keyword) < a.config.MinKeywordLen || len(keyword) > a.config.MaxKeywordLen {
			continue
		}
		if stopWords[keyword] || seen[keyword] {
			continue
		}
		seen[keyword] = true
		keywords = append(keywords, keyword)
	}

	return keywords
}

func (a *Analyzer) scoreTopic(keyword string, mentions []models.Mention, now time.Time) models.TrendTopic {
	shortCutoff := now.Add(-a.config.ShortWindow)
	mediumCutoff := now.Add(-a.config.MediumWindow)

	shortCount := 0
	mediumCount := 0
	credibilitySum := 0.0
	ageSum := time.Duration(0)

	for _, mention := range mentions {
		if mention.Timestamp.After(shortCutoff) {
			shortCount++
		}
		if mention.Timestamp.After(mediumCutoff) {
			mediumCount++
		}
		credibilitySum += mention.Credibility
		ageSum += now.Sub(mention.Timestamp)
	}

	velocity := a.velocity(shortCount, mediumCount)

	volume := float64(len(mentions)) / (float64(len(mentions)) + a.config.VolumeSaturation)

	avgAge := ageSum / time.Duration(len(mentions))
	recency := 1 - math.Min(1, float64(avgAge)/float64(a.config.MediumWindow))

	credibility := credibilitySum / float64(len(mentions))

	score := a.config.VelocityWeight*velocity +
		a.config.VolumeWeight*volume +
		a.config.RecencyWeight*recency +
		a.config.CredibilityWeight*credibility

	return models.TrendTopic{
		Keyword:     keyword,
		Mentions:    mentions,
		Velocity:    velocity,
		Volume:      volume,
		Recency:     recency,
		Credibility: credibility,
		TrendScore:  score,
	}
}

// velocity is the short-window mention rate boosted by acceleration (the
// short-window rate compared against the medium-window average rate),
// normalized into [0,1].
func (a *Analyzer) velocity(shortCount, mediumCount int) float64 {
	shortHours := a.config.ShortWindow.Hours()
	mediumHours := a.config.MediumWindow.Hours()

	shortRate := float64(shortCount) / shortHours
	mediumRate := float64(mediumCount) / mediumHours

	boost := 1.0
	if mediumRate > 0 {
		acceleration := shortRate / mediumRate
		boost = 1 + math.Min(1, acceleration/4)
	}

	raw := shortRate * boost
	return raw / (raw + 5) // saturates toward 1 around ~20 mentions/hour
}
