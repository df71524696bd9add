package credibility

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// Tier base scores. Unknown domains start from a neutral base.
const (
	tier1Base   = 0.95
	tier2Base   = 0.80
	tier3Base   = 0.60
	unknownBase = 0.50
)

// Factor weights for the final blend.
const (
	weightTier      = 0.40
	weightHistory   = 0.25
	weightQuality   = 0.20
	weightRecency   = 0.10
	weightCommunity = 0.05

	// Historical performance only applies once enough data has accumulated.
	minHistoryArticles = 5

	// communityTrustDefault is a placeholder until community signals exist.
	communityTrustDefault = 0.5

	recencyWindow = 7 * 24 * time.Hour
)

// Scorer derives credibility scores for source domains.
type Scorer struct {
	tiers   TierLists
	history *HistoryStore
	logger  *slog.Logger

	cacheMu  sync.RWMutex
	cache    map[string]cachedScore
	cacheTTL time.Duration
}

type cachedScore struct {
	score    models.CredibilityScore
	cachedAt time.Time
}

// NewScorer creates a scorer over the given tier lists and history store.
func NewScorer(tiers TierLists, history *HistoryStore, cacheTTL time.Duration, logger *slog.Logger) *Scorer {
	return &Scorer{
		tiers:    tiers,
		history:  history,
		logger:   logger,
		cache:    make(map[string]cachedScore),
		cacheTTL: cacheTTL,
	}
}

// RecordArticle feeds a processed article's outcome into the domain history
// and invalidates the cached score.
func (s *Scorer) RecordArticle(domain string, quality float64, success bool) {
	s.history.Record(domain, models.ArticleOutcome{
		Quality:   clamp01(quality),
		Success:   success,
		Timestamp: time.Now(),
	})

	s.cacheMu.Lock()
	delete(s.cache, canonicalDomain(domain))
	s.cacheMu.Unlock()
}

// Score derives the credibility assessment for a domain. The result is
// always in [0,1], including for empty or unknown domains.
func (s *Scorer) Score(domain string) models.CredibilityScore {
	key := canonicalDomain(domain)

	s.cacheMu.RLock()
	cached, ok := s.cache[key]
	s.cacheMu.RUnlock()
	if ok && time.Since(cached.cachedAt) < s.cacheTTL {
		return cached.score
	}

	score := s.compute(key)

	s.cacheMu.Lock()
	s.cache[key] = cachedScore{score: score, cachedAt: time.Now()}
	s.cacheMu.Unlock()

	return score
}

func (s *Scorer) compute(domain string) models.CredibilityScore {
	if s.tiers.contains(s.tiers.Blocked, domain) {
		return models.CredibilityScore{
			Domain:     domain,
			Score:      0,
			Tier:       models.TierBlocked,
			Confidence: 1,
			Factors:    map[string]float64{"blocked": 0},
			ComputedAt: time.Now(),
		}
	}

	tier, base := s.classify(domain)

	record, hasHistory := s.history.Snapshot(domain)

	historyScore := base
	if hasHistory && len(record.Outcomes) >= minHistoryArticles {
		historyScore = historicalPerformance(record)
	}

	qualityScore := base
	if hasHistory && len(record.Outcomes) > 0 {
		qualityScore = record.AvgQuality
	}

	recencyScore := recencyFactor(record, base)

	final := weightTier*base +
		weightHistory*historyScore +
		weightQuality*qualityScore +
		weightRecency*recencyScore +
		weightCommunity*communityTrustDefault

	final = clamp01(final)
	if math.IsNaN(final) {
		final = unknownBase
	}

	return models.CredibilityScore{
		Domain:     domain,
		Score:      final,
		Tier:       tier,
		Confidence: s.confidence(tier, record),
		Factors: map[string]float64{
			"tier_base":       base,
			"history":         historyScore,
			"content_quality": qualityScore,
			"recency":         recencyScore,
			"community_trust": communityTrustDefault,
		},
		ComputedAt: time.Now(),
	}
}

func (s *Scorer) classify(domain string) (models.Tier, float64) {
	switch {
	case domain == "":
		return models.TierUnknown, unknownBase
	case s.tiers.contains(s.tiers.Tier1, domain):
		return models.TierOne, tier1Base
	case s.tiers.contains(s.tiers.Tier2, domain):
		return models.TierTwo, tier2Base
	case s.tiers.contains(s.tiers.Tier3, domain):
		return models.TierThree, tier3Base
	default:
		return models.TierUnknown, unknownBase
	}
}

// historicalPerformance blends success rate, average quality, fact-check
// score, and inverse error rate over the performance window.
func historicalPerformance(record models.CredibilityRecord) float64 {
	total := len(record.Outcomes)
	successes := 0
	factSum := 0.0
	factCount := 0

	for _, outcome := range record.Outcomes {
		if outcome.Success {
			successes++
		}
		if outcome.FactCheck > 0 {
			factSum += outcome.FactCheck
			factCount++
		}
	}

	successRate := float64(successes) / float64(total)
	errorRate := 1 - successRate

	factScore := 0.5 // neutral without fact-check data
	if factCount > 0 {
		factScore = factSum / float64(factCount)
	}

	return clamp01(0.35*successRate + 0.30*record.AvgQuality + 0.20*factScore + 0.15*(1-errorRate))
}

// recencyFactor emphasizes performance over the last seven days.
func recencyFactor(record models.CredibilityRecord, base float64) float64 {
	cutoff := time.Now().Add(-recencyWindow)

	total := 0.0
	count := 0
	for _, outcome := range record.Outcomes {
		if outcome.Timestamp.After(cutoff) {
			total += outcome.Quality
			count++
		}
	}

	if count == 0 {
		return base
	}
	return clamp01(total / float64(count))
}

// confidence reflects how much data backs the score: known tiers are trusted
// outright, unknown domains earn confidence as history accumulates.
func (s *Scorer) confidence(tier models.Tier, record models.CredibilityRecord) float64 {
	switch tier {
	case models.TierBlocked:
		return 1
	case models.TierOne:
		return 0.95
	case models.TierTwo:
		return 0.90
	case models.TierThree:
		return 0.80
	}

	// Unknown: scale from 0.3 toward 0.75 with data volume.
	n := float64(len(record.Outcomes))
	return 0.3 + 0.45*math.Min(1, n/30)
}

// ResetHistory drops all accumulated outcome history, used by the operator
// reputation-reset control.
func (s *Scorer) ResetHistory() {
	s.history.Reset()

	s.cacheMu.Lock()
	s.cache = make(map[string]cachedScore)
	s.cacheMu.Unlock()

	s.logger.Info("credibility history reset")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
