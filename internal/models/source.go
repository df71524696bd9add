package models

import (
	"time"
)

// Source is a registry entry describing one external news provider.
type Source struct {
	Domain     string     `json:"domain" yaml:"domain"`
	Name       string     `json:"name" yaml:"name"`
	Type       SourceType `json:"type" yaml:"type"`
	Priority   int        `json:"priority" yaml:"priority"` // static, 1-10
	Tier       Tier       `json:"tier" yaml:"tier"`
	CostPerReq float64    `json:"cost_per_request" yaml:"cost_per_request"`
	QuotaLimit int        `json:"quota_limit" yaml:"quota_limit"` // requests per day, 0 = unlimited
	Categories []string   `json:"categories,omitempty" yaml:"categories,omitempty"`
	Countries  []string   `json:"countries,omitempty" yaml:"countries,omitempty"`
	Languages  []string   `json:"languages,omitempty" yaml:"languages,omitempty"`
	Enabled    bool       `json:"enabled" yaml:"enabled"`
	Endpoint   string     `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	FeedURL    string     `json:"feed_url,omitempty" yaml:"feed_url,omitempty"`
	APIKeyEnv  string     `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
}

// SourceType distinguishes the adapter used to reach a provider.
type SourceType string

const (
	SourceTypeAPI SourceType = "api"
	SourceTypeRSS SourceType = "rss"
)

// Reputation is the live performance record for one source. It is owned by
// the aggregation layer and updated after every fetch attempt.
type Reputation struct {
	SuccessCount        int           `json:"success_count"`
	FailureCount        int           `json:"failure_count"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	AvgResponseTime     time.Duration `json:"avg_response_time"`
	AvgArticleQuality   float64       `json:"avg_article_quality"`
	LastSuccessAt       time.Time     `json:"last_success_at,omitempty"`
	LastFailureAt       time.Time     `json:"last_failure_at,omitempty"`
}

// SuccessRate returns the fraction of fetch attempts that succeeded.
func (r *Reputation) SuccessRate() float64 {
	total := r.SuccessCount + r.FailureCount
	if total == 0 {
		return 1.0 // no data yet, assume healthy
	}
	return float64(r.SuccessCount) / float64(total)
}

// SupportsCategory reports whether the source declares the category.
// An empty declaration means all categories are supported.
func (s *Source) SupportsCategory(category string) bool {
	return matchesCapability(s.Categories, category)
}

// SupportsCountry reports whether the source declares the country.
func (s *Source) SupportsCountry(country string) bool {
	return matchesCapability(s.Countries, country)
}

// SupportsLanguage reports whether the source declares the language.
func (s *Source) SupportsLanguage(language string) bool {
	return matchesCapability(s.Languages, language)
}

func matchesCapability(declared []string, want string) bool {
	if want == "" || len(declared) == 0 {
		return true
	}
	for _, have := range declared {
		if have == want {
			return true
		}
	}
	return false
}
