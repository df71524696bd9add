package dedup

import (
	"strings"
	"testing"
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

func TestScoreQualityOrdering(t *testing.T) {
	now := time.Now()

	rich := models.Article{
		Title:       "Federal Reserve Raises Benchmark Interest Rate Again",
		Content:     strings.Repeat("Detailed reporting on the decision. ", 40),
		URL:         "https://example.com/economy/fed-raises-rates",
		ImageURL:    "https://cdn.example.com/fed.jpg",
		Author:      "Jane Smith",
		Category:    "business",
		Credibility: 0.95,
		PublishedAt: now.Add(-30 * time.Minute),
	}

	thin := models.Article{
		Title:       "Fed news",
		URL:         "https://example.com/p?id=9&utm_source=x",
		Credibility: 0.5,
		PublishedAt: now.Add(-5 * 24 * time.Hour),
	}

	richScore := ScoreQuality(&rich)
	thinScore := ScoreQuality(&thin)

	if richScore <= thinScore {
		t.Errorf("rich article score %v should exceed thin article score %v", richScore, thinScore)
	}
	if richScore > 100 {
		t.Errorf("score %v exceeds 100-point scale", richScore)
	}
	if thinScore < 0 {
		t.Errorf("score %v below zero", thinScore)
	}
}

func TestScoreQualityComponentBands(t *testing.T) {
	base := models.Article{
		Title:       "A Headline of Reasonable Middle Length Here",
		URL:         "https://example.com/story",
		PublishedAt: time.Now(),
	}

	withImage := base
	withImage.ImageURL = "https://cdn.example.com/img.jpg"
	if ScoreQuality(&withImage)-ScoreQuality(&base) != 10 {
		t.Error("image should add exactly 10 points")
	}

	withAuthor := base
	withAuthor.Author = "Jane Smith"
	if ScoreQuality(&withAuthor)-ScoreQuality(&base) != 5 {
		t.Error("author should add exactly 5 points")
	}

	withTags := base
	withTags.Tags = []string{"economy"}
	if ScoreQuality(&withTags)-ScoreQuality(&base) != 5 {
		t.Error("tags should add exactly 5 points")
	}
}

func TestURLCleanliness(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want float64
	}{
		{"clean url", "https://example.com/economy/fed-rates", 10},
		{"query string", "https://example.com/story?id=4", 7},
		{"tracking params", "https://example.com/story?utm_source=feed", 4},
		{"long encoded url", "https://example.com/" + strings.Repeat("x", 160) + "?utm_a=1&q=%20%20%20", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := urlCleanliness(tt.url); got != tt.want {
				t.Errorf("urlCleanliness(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
