package models

import (
	"time"
)

// Tier classifies a source domain's baseline trust level.
type Tier string

const (
	TierOne     Tier = "tier1"
	TierTwo     Tier = "tier2"
	TierThree   Tier = "tier3"
	TierUnknown Tier = "unknown"
	TierBlocked Tier = "blocked"
)

// ArticleOutcome records the result of processing one article from a domain.
type ArticleOutcome struct {
	Quality   float64   `json:"quality"`
	Success   bool      `json:"success"`
	FactCheck float64   `json:"fact_check,omitempty"` // 0-1, 0 when unknown
	Timestamp time.Time `json:"timestamp"`
}

// CredibilityRecord is the rolling per-domain history backing a credibility
// score. Outcomes older than the performance window are pruned.
type CredibilityRecord struct {
	Domain     string           `json:"domain"`
	Outcomes   []ArticleOutcome `json:"outcomes"`
	AvgQuality float64          `json:"avg_quality"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Prune drops outcomes older than the window and recomputes the average.
func (r *CredibilityRecord) Prune(window time.Duration) {
	cutoff := time.Now().Add(-window)
	kept := r.Outcomes[:0]
	for _, outcome := range r.Outcomes {
		if outcome.Timestamp.After(cutoff) {
			kept = append(kept, outcome)
		}
	}
	r.Outcomes = kept
	r.recomputeAverage()
}

func (r *CredibilityRecord) recomputeAverage() {
	if len(r.Outcomes) == 0 {
		r.AvgQuality = 0
		return
	}
	total := 0.0
	for _, outcome := range r.Outcomes {
		total += outcome.Quality
	}
	r.AvgQuality = total / float64(len(r.Outcomes))
}

// CredibilityScore is the derived trust assessment for a source domain.
type CredibilityScore struct {
	Domain     string             `json:"domain"`
	Score      float64            `json:"score"` // always in [0,1]
	Tier       Tier               `json:"tier"`
	Confidence float64            `json:"confidence"`
	Factors    map[string]float64 `json:"factors"`
	ComputedAt time.Time          `json:"computed_at"`
}
