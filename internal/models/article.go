package models

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// Article is the normalized shape every source client produces. Articles are
// value objects: pipeline stages derive new values instead of mutating a
// shared copy.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Author      string    `json:"author,omitempty"`
	Source      SourceRef `json:"source"`
	Category    string    `json:"category,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	Quality     float64   `json:"quality,omitempty"` // computed, not stored input
	RetrievedAt time.Time `json:"retrieved_at"`
	Credibility float64   `json:"credibility,omitempty"`
}

// SourceRef identifies the origin of an article.
type SourceRef struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// ComputeFingerprint derives the stable content fingerprint from the
// normalized title and URL.
func ComputeFingerprint(title, rawURL string) string {
	data := strings.ToLower(strings.TrimSpace(title)) + "|" + NormalizeURL(rawURL)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// NormalizeURL canonicalizes a URL for comparison: lowercase host, no scheme
// distinction, no tracking parameters, no trailing slash.
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return strings.ToLower(strings.TrimSpace(rawURL))
	}

	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}

	path := strings.TrimSuffix(parsed.Path, "/")

	// Keep only non-tracking query parameters.
	query := parsed.Query()
	for key := range query {
		if strings.HasPrefix(key, "utm_") || key == "ref" || key == "fbclid" || key == "gclid" {
			query.Del(key)
		}
	}

	normalized := host + path
	if encoded := query.Encode(); encoded != "" {
		normalized += "?" + encoded
	}
	return normalized
}

// Domain returns the normalized host of the article URL.
func (a *Article) Domain() string {
	parsed, err := url.Parse(a.URL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}

// Body returns the best available text for similarity comparison, falling
// back to the description when full content is missing.
func (a *Article) Body() string {
	if strings.TrimSpace(a.Content) != "" {
		return a.Content
	}
	return a.Description
}

// IsRecent reports whether the article was published within the window.
func (a *Article) IsRecent(window time.Duration) bool {
	return time.Since(a.PublishedAt) <= window
}
