package trending

import (
	"testing"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

func TestKeywordSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "election", "election", 1, 1},
		{"case insensitive", "Election", "election", 1, 1},
		{"containment", "vote", "voters", 0.6, 0.7},
		{"close edit distance", "analyse", "analyze", 0.8, 0.95},
		{"unrelated", "election", "weather", 0, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeywordSimilarity(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("KeywordSimilarity(%q, %q) = %v, want in [%v, %v]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestClusterTopicsGroupsRelatedKeywords(t *testing.T) {
	analyzer := New(DefaultConfig(), testLogger())

	topics := []models.TrendTopic{
		{Keyword: "election", TrendScore: 0.9},
		{Keyword: "elections", TrendScore: 0.7},
		{Keyword: "weather", TrendScore: 0.5},
	}

	clusters := analyzer.clusterTopics(topics)

	if len(clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(clusters))
	}
	if len(clusters[0].Keywords) != 2 {
		t.Errorf("cluster members = %d, want 2", len(clusters[0].Keywords))
	}
	if clusters[0].Score != 0.9 {
		t.Errorf("cluster score = %v, want max member score 0.9", clusters[0].Score)
	}
	if topics[0].ClusterID != clusters[0].ID || topics[1].ClusterID != clusters[0].ID {
		t.Error("clustered topics should carry the cluster ID")
	}
	if topics[2].ClusterID != 0 {
		t.Error("unrelated topic should stay unclustered")
	}
}

func TestClusterTopicsNoPairs(t *testing.T) {
	analyzer := New(DefaultConfig(), testLogger())

	topics := []models.TrendTopic{
		{Keyword: "election", TrendScore: 0.9},
		{Keyword: "weather", TrendScore: 0.5},
	}

	if clusters := analyzer.clusterTopics(topics); len(clusters) != 0 {
		t.Errorf("clusters = %d, want 0 for unrelated keywords", len(clusters))
	}
}
