package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// RSSClient fetches articles from one RSS/Atom feed.
type RSSClient struct {
	source models.Source
	parser *gofeed.Parser
	http   *http.Client
	quota  *QuotaState
	logger *slog.Logger
}

// NewRSSClient creates a client for the given registry entry.
func NewRSSClient(source models.Source, logger *slog.Logger) *RSSClient {
	parser := gofeed.NewParser()
	parser.UserAgent = "DigitalTide/1.0"

	return &RSSClient{
		source: source,
		parser: parser,
		http:   &http.Client{Timeout: 30 * time.Second},
		quota:  NewQuotaState(source.QuotaLimit, 24*time.Hour),
		logger: logger,
	}
}

// Name returns the source domain.
func (c *RSSClient) Name() string {
	return c.source.Domain
}

// Type returns the adapter kind.
func (c *RSSClient) Type() models.SourceType {
	return models.SourceTypeRSS
}

// Fetch downloads and parses the feed, normalizing items into Articles.
func (c *RSSClient) Fetch(ctx context.Context, opts FetchOptions) ([]models.Article, error) {
	if !c.quota.Consume() {
		return nil, fmt.Errorf("rss %s: quota exceeded", c.source.Domain)
	}

	feed, err := c.parser.ParseURLWithContext(c.source.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("rss %s: parse feed: %w", c.source.Domain, err)
	}

	articles := make([]models.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		article, ok := c.normalizeItem(item)
		if !ok {
			continue
		}
		if !matchesQuery(article, opts.Query) {
			continue
		}
		if opts.Category != "" && article.Category != "" && article.Category != opts.Category {
			continue
		}
		articles = append(articles, article)
		if opts.Limit > 0 && len(articles) >= opts.Limit {
			break
		}
	}

	c.logger.Debug("rss fetch complete",
		"source", c.source.Domain,
		"raw_items", len(feed.Items),
		"articles", len(articles),
	)

	return articles, nil
}

// ResetQuota clears the client's request budget.
func (c *RSSClient) ResetQuota() {
	c.quota.Reset()
}

// HealthCheck issues a HEAD request against the feed URL so no feed content
// (and no quota) is consumed.
func (c *RSSClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.source.FeedURL, nil)
	if err != nil {
		return fmt.Errorf("rss %s: build health request: %w", c.source.Domain, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rss %s: health check: %w", c.source.Domain, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("rss %s: health check status %d", c.source.Domain, resp.StatusCode)
	}
	return nil
}

func (c *RSSClient) normalizeItem(item *gofeed.Item) (models.Article, bool) {
	link := strings.TrimSpace(item.Link)
	if link == "" && item.GUID != "" && strings.HasPrefix(item.GUID, "http") {
		link = strings.TrimSpace(item.GUID)
	}
	if link == "" || (!strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://")) {
		c.logger.Debug("skipping item without usable link", "source", c.source.Domain, "title", item.Title)
		return models.Article{}, false
	}

	title := StripHTML(item.Title)
	if title == "" {
		return models.Article{}, false
	}

	published := time.Now()
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	author := ""
	if item.Author != nil {
		author = item.Author.Name
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		author = item.Authors[0].Name
	}

	imageURL := ""
	if item.Image != nil {
		imageURL = item.Image.URL
	}

	category := ""
	if len(item.Categories) > 0 {
		category = strings.ToLower(item.Categories[0])
	}

	article := models.Article{
		Title:       title,
		Description: StripHTML(item.Description),
		Content:     StripHTML(item.Content),
		URL:         link,
		ImageURL:    imageURL,
		PublishedAt: published,
		Author:      author,
		Source:      models.SourceRef{Name: c.source.Name, URL: c.source.FeedURL},
		Category:    category,
		Tags:        lowered(item.Categories),
		Fingerprint: models.ComputeFingerprint(title, link),
		RetrievedAt: time.Now(),
	}
	return article, true
}

func matchesQuery(article models.Article, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(article.Title), q) ||
		strings.Contains(strings.ToLower(article.Description), q) ||
		strings.Contains(strings.ToLower(article.Content), q)
}

func lowered(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// StripHTML removes markup and collapses whitespace in feed text.
func StripHTML(text string) string {
	text = tagPattern.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
