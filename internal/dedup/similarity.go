package dedup

import (
	"math"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

// TitleSimilarity blends token overlap with an edit-distance ratio, with a
// bonus when one normalized title contains the other.
func TitleSimilarity(a, b string) float64 {
	normA := normalizeTitle(a)
	normB := normalizeTitle(b)
	if normA == "" || normB == "" {
		return 0
	}
	if normA == normB {
		return 1
	}

	overlap := tokenOverlap(normA, normB)
	edit := editRatio(normA, normB)
	score := 0.6*overlap + 0.4*edit

	if strings.Contains(normA, normB) || strings.Contains(normB, normA) {
		score += 0.1
	}

	return math.Min(1, score)
}

func normalizeTitle(title string) string {
	tokens := wordPattern.FindAllString(strings.ToLower(title), -1)
	return strings.Join(tokens, " ")
}

func tokenOverlap(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for token := range setA {
		if setB[token] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range strings.Fields(s) {
		set[token] = true
	}
	return set
}

func editRatio(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// URLSimilarity compares two article URLs: same normalized URL is identical,
// same domain scores by path segment overlap, different domains score 0.
func URLSimilarity(a, b string) float64 {
	if models.NormalizeURL(a) == models.NormalizeURL(b) {
		return 1
	}

	parsedA, errA := url.Parse(a)
	parsedB, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return 0
	}
	if hostOf(parsedA) != hostOf(parsedB) {
		return 0
	}

	segsA := pathSegments(parsedA.Path)
	segsB := pathSegments(parsedB.Path)
	if len(segsA) == 0 || len(segsB) == 0 {
		return 0.3 // same domain, nothing else to compare
	}

	matches := 0
	limit := len(segsA)
	if len(segsB) < limit {
		limit = len(segsB)
	}
	for i := 0; i < limit; i++ {
		if segsA[i] == segsB[i] {
			matches++
		}
	}

	longest := len(segsA)
	if len(segsB) > longest {
		longest = len(segsB)
	}
	return 0.3 + 0.7*float64(matches)/float64(longest)
}

func hostOf(u *url.URL) string {
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}

func pathSegments(p string) []string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	segments := parts[:0]
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// ImageSimilarity compares image URLs by filename.
func ImageSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if path.Base(stripQuery(a)) == path.Base(stripQuery(b)) {
		return 0.9
	}
	return 0
}

func stripQuery(rawURL string) string {
	if idx := strings.Index(rawURL, "?"); idx != -1 {
		return rawURL[:idx]
	}
	return rawURL
}

// metadataWindow is the span over which publish-date proximity decays to zero.
const metadataWindow = 24 * time.Hour

// MetadataSimilarity compares source, author, and publish-date proximity.
// Date proximity decays linearly over a 24-hour window.
func MetadataSimilarity(a, b *models.Article) float64 {
	score := 0.0
	applied := 0.0

	if a.Source.Name != "" && b.Source.Name != "" {
		applied += 0.4
		if strings.EqualFold(a.Source.Name, b.Source.Name) {
			score += 0.4
		}
	}

	if a.Author != "" && b.Author != "" {
		applied += 0.3
		if strings.EqualFold(a.Author, b.Author) {
			score += 0.3
		}
	}

	if !a.PublishedAt.IsZero() && !b.PublishedAt.IsZero() {
		applied += 0.3
		gap := a.PublishedAt.Sub(b.PublishedAt)
		if gap < 0 {
			gap = -gap
		}
		if gap < metadataWindow {
			score += 0.3 * (1 - float64(gap)/float64(metadataWindow))
		}
	}

	if applied == 0 {
		return 0
	}
	return score / applied
}
