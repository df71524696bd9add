package dedup

import (
	"strings"
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// ScoreQuality rates an article on a 100-point scale. The score selects the
// best article within a duplicate group and feeds reputation tracking.
//
// Breakdown: source credibility 25, content length 20, title length band 10,
// image 10, author 5, recency 15, URL cleanliness 10, category/tags 5.
func ScoreQuality(article *models.Article) float64 {
	score := 0.0

	score += 25 * clamp01(article.Credibility)

	body := article.Body()
	switch {
	case len(body) >= 1000:
		score += 20
	case len(body) >= 400:
		score += 15
	case len(body) >= 100:
		score += 8
	case len(body) > 0:
		score += 3
	}

	titleLen := len(article.Title)
	if titleLen >= 30 && titleLen <= 110 {
		score += 10
	} else if titleLen >= 15 {
		score += 5
	}

	if article.ImageURL != "" {
		score += 10
	}
	if article.Author != "" {
		score += 5
	}

	age := time.Since(article.PublishedAt)
	switch {
	case age < time.Hour:
		score += 15
	case age < 6*time.Hour:
		score += 12
	case age < 24*time.Hour:
		score += 8
	case age < 72*time.Hour:
		score += 4
	}

	score += urlCleanliness(article.URL)

	if article.Category != "" || len(article.Tags) > 0 {
		score += 5
	}

	return score
}

// urlCleanliness rewards short, readable article URLs without tracking junk.
func urlCleanliness(rawURL string) float64 {
	score := 10.0

	if strings.Contains(rawURL, "?") {
		score -= 3
	}
	if strings.Contains(rawURL, "utm_") || strings.Contains(rawURL, "fbclid") {
		score -= 3
	}
	if len(rawURL) > 160 {
		score -= 2
	}
	if strings.Count(rawURL, "%") > 2 {
		score -= 2
	}

	if score < 0 {
		return 0
	}
	return score
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
