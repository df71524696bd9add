package models

import (
	"time"
)

// SourceStatus is the per-source diagnostic entry attached to an
// aggregation result. A failed source contributes zero articles and an
// error message, never an aborted run.
type SourceStatus struct {
	Domain  string        `json:"domain"`
	Count   int           `json:"count"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
	Skipped bool          `json:"skipped,omitempty"` // excluded by circuit breaker
}

// AggregationMetadata summarizes one aggregation cycle.
type AggregationMetadata struct {
	TotalFetched      int            `json:"total_fetched"`
	PerSourceStatus   []SourceStatus `json:"per_source_status"`
	DeduplicatedCount int            `json:"deduplicated_count"`
	FilteredCount     int            `json:"filtered_count"`
	AggregationTime   time.Duration  `json:"aggregation_time_ms"`
	CacheHit          bool           `json:"cache_hit,omitempty"`
}

// AggregationResult is handed to the storage/publishing layer.
type AggregationResult struct {
	Articles []Article           `json:"articles"`
	Metadata AggregationMetadata `json:"metadata"`
}
