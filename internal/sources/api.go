package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// APIClient fetches articles from a JSON news API (NewsAPI-compatible
// response shape).
type APIClient struct {
	source models.Source
	apiKey string
	http   *http.Client
	quota  *QuotaState
	logger *slog.Logger
}

// NewAPIClient creates a client for the given registry entry. The API key is
// resolved from the environment variable the entry names.
func NewAPIClient(source models.Source, logger *slog.Logger) *APIClient {
	apiKey := ""
	if source.APIKeyEnv != "" {
		apiKey = os.Getenv(source.APIKeyEnv)
	}

	return &APIClient{
		source: source,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 30 * time.Second},
		quota:  NewQuotaState(source.QuotaLimit, 24*time.Hour),
		logger: logger,
	}
}

// Name returns the source domain.
func (c *APIClient) Name() string {
	return c.source.Domain
}

// Type returns the adapter kind.
func (c *APIClient) Type() models.SourceType {
	return models.SourceTypeAPI
}

// apiResponse mirrors the provider's wire format.
type apiResponse struct {
	Status       string       `json:"status"`
	Code         string       `json:"code,omitempty"`
	Message      string       `json:"message,omitempty"`
	TotalResults int          `json:"totalResults"`
	Articles     []apiArticle `json:"articles"`
}

type apiArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}

// Fetch queries the provider and normalizes the response.
func (c *APIClient) Fetch(ctx context.Context, opts FetchOptions) ([]models.Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("api %s: missing API key (env %s)", c.source.Domain, c.source.APIKeyEnv)
	}
	if !c.quota.Consume() {
		return nil, fmt.Errorf("api %s: quota exceeded", c.source.Domain)
	}

	reqURL, err := c.buildURL(opts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("api %s: build request: %w", c.source.Domain, err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api %s: request: %w", c.source.Domain, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("api %s: read response: %w", c.source.Domain, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("api %s: invalid API key (status %d)", c.source.Domain, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("api %s: provider rate limit (status %d)", c.source.Domain, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("api %s: provider error (status %d)", c.source.Domain, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("api %s: unexpected status %d", c.source.Domain, resp.StatusCode)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("api %s: decode response: %w", c.source.Domain, err)
	}
	if parsed.Status != "" && parsed.Status != "ok" {
		return nil, fmt.Errorf("api %s: provider status %s: %s", c.source.Domain, parsed.Code, parsed.Message)
	}

	articles := make([]models.Article, 0, len(parsed.Articles))
	for _, raw := range parsed.Articles {
		article, ok := c.normalize(raw, opts.Category)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}

	c.logger.Debug("api fetch complete",
		"source", c.source.Domain,
		"raw_count", len(parsed.Articles),
		"articles", len(articles),
	)

	return articles, nil
}

// ResetQuota clears the client's request budget.
func (c *APIClient) ResetQuota() {
	c.quota.Reset()
}

// HealthCheck probes the endpoint without an API key so no quota is spent;
// any response from the host counts as reachable.
func (c *APIClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.source.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("api %s: build health request: %w", c.source.Domain, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api %s: health check: %w", c.source.Domain, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("api %s: health check status %d", c.source.Domain, resp.StatusCode)
	}
	return nil
}

func (c *APIClient) buildURL(opts FetchOptions) (string, error) {
	base, err := url.Parse(c.source.Endpoint)
	if err != nil {
		return "", fmt.Errorf("api %s: invalid endpoint: %w", c.source.Domain, err)
	}

	query := base.Query()
	if opts.Query != "" {
		query.Set("q", opts.Query)
	}
	if opts.Category != "" {
		query.Set("category", opts.Category)
	}
	if opts.Country != "" {
		query.Set("country", opts.Country)
	}
	if opts.Language != "" {
		query.Set("language", opts.Language)
	}
	if opts.Limit > 0 {
		query.Set("pageSize", strconv.Itoa(opts.Limit))
	}

	base.RawQuery = query.Encode()
	return base.String(), nil
}

func (c *APIClient) normalize(raw apiArticle, category string) (models.Article, bool) {
	title := strings.TrimSpace(raw.Title)
	link := strings.TrimSpace(raw.URL)
	if title == "" || link == "" || title == "[Removed]" {
		return models.Article{}, false
	}

	published := time.Now()
	if raw.PublishedAt != "" {
		if t, err := time.Parse(time.RFC3339, raw.PublishedAt); err == nil {
			published = t
		}
	}

	sourceName := raw.Source.Name
	if sourceName == "" {
		sourceName = c.source.Name
	}

	return models.Article{
		Title:       title,
		Description: strings.TrimSpace(raw.Description),
		Content:     strings.TrimSpace(raw.Content),
		URL:         link,
		ImageURL:    strings.TrimSpace(raw.URLToImage),
		PublishedAt: published,
		Author:      strings.TrimSpace(raw.Author),
		Source:      models.SourceRef{Name: sourceName, URL: c.source.Endpoint},
		Category:    category,
		Fingerprint: models.ComputeFingerprint(title, link),
		RetrievedAt: time.Now(),
	}, true
}
