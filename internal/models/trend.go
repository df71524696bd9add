package models

import (
	"time"
)

// LifecycleStage classifies a trending topic's momentum trajectory.
type LifecycleStage string

const (
	StageEmerging  LifecycleStage = "emerging"
	StageRising    LifecycleStage = "rising"
	StagePeak      LifecycleStage = "peak"
	StageDeclining LifecycleStage = "declining"
	StageFading    LifecycleStage = "fading"
)

// Mention is one observation of a keyword in an article.
type Mention struct {
	Timestamp   time.Time `json:"timestamp"`
	Credibility float64   `json:"credibility"`
	ArticleURL  string    `json:"article_url,omitempty"`
}

// TrendTopic is a trending keyword with its computed scores. Topics are
// recomputed each analysis cycle, never patched incrementally.
type TrendTopic struct {
	Keyword         string         `json:"keyword"`
	Mentions        []Mention      `json:"mentions"`
	Velocity        float64        `json:"velocity"`
	Volume          float64        `json:"volume"`
	Recency         float64        `json:"recency"`
	Credibility     float64        `json:"credibility"`
	TrendScore      float64        `json:"trend_score"`
	Stage           LifecycleStage `json:"stage"`
	StageConfidence float64        `json:"stage_confidence"`
	ClusterID       int            `json:"cluster_id,omitempty"` // 0 = unclustered
}

// Cluster groups related trending topics.
type Cluster struct {
	ID       int      `json:"id"`
	Keywords []string `json:"keywords"`
	Score    float64  `json:"score"` // highest member trend score
}

// TrendingResult is the output of one trending analysis cycle.
type TrendingResult struct {
	Trending []TrendTopic     `json:"trending"`
	Clusters []Cluster        `json:"clusters,omitempty"`
	Metadata TrendingMetadata `json:"metadata"`
}

// TrendingMetadata describes an analysis cycle.
type TrendingMetadata struct {
	ArticlesAnalyzed int           `json:"articles_analyzed"`
	KeywordsSeen     int           `json:"keywords_seen"`
	TopicsReturned   int           `json:"topics_returned"`
	AnalyzedAt       time.Time     `json:"analyzed_at"`
	Duration         time.Duration `json:"duration"`
}
