package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

const articlesSchema = `
CREATE TABLE IF NOT EXISTS articles (
	fingerprint   TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	content       TEXT NOT NULL DEFAULT '',
	url           TEXT NOT NULL,
	image_url     TEXT NOT NULL DEFAULT '',
	author        TEXT NOT NULL DEFAULT '',
	source_domain TEXT NOT NULL,
	source_name   TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT '',
	tags          JSONB NOT NULL DEFAULT '[]',
	quality       DOUBLE PRECISION NOT NULL DEFAULT 0,
	credibility   DOUBLE PRECISION NOT NULL DEFAULT 0,
	published_at  TIMESTAMPTZ,
	retrieved_at  TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles (published_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_source_domain ON articles (source_domain);
`

const trendsSchema = `
CREATE TABLE IF NOT EXISTS trend_snapshots (
	id          BIGSERIAL PRIMARY KEY,
	keyword     TEXT NOT NULL,
	trend_score DOUBLE PRECISION NOT NULL,
	velocity    DOUBLE PRECISION NOT NULL,
	volume      DOUBLE PRECISION NOT NULL,
	stage       TEXT NOT NULL,
	mentions    INTEGER NOT NULL,
	cluster_id  INTEGER NOT NULL DEFAULT 0,
	analyzed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trend_snapshots_keyword ON trend_snapshots (keyword, analyzed_at DESC);
`

const upsertArticle = `
INSERT INTO articles (
	fingerprint, title, description, content, url, image_url, author,
	source_domain, source_name, category, tags, quality, credibility,
	published_at, retrieved_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (fingerprint) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	content = EXCLUDED.content,
	image_url = EXCLUDED.image_url,
	quality = EXCLUDED.quality,
	credibility = EXCLUDED.credibility,
	retrieved_at = EXCLUDED.retrieved_at,
	updated_at = NOW()
`

const insertTrend = `
INSERT INTO trend_snapshots (
	keyword, trend_score, velocity, volume, stage, mentions, cluster_id, analyzed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// PostgresSink persists pipeline output to Postgres. Articles are upserted
// by fingerprint so re-running a cycle never duplicates rows; trend
// snapshots are append-only history.
type PostgresSink struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresSink opens the database, verifies connectivity, and ensures
// the schema exists.
func NewPostgresSink(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresSink, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	for _, schema := range []string{articlesSchema, trendsSchema} {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	return &PostgresSink{db: db, logger: logger}, nil
}

// SaveArticles upserts the batch in one transaction and returns the number
// of rows written.
func (s *PostgresSink) SaveArticles(ctx context.Context, articles []models.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin article batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertArticle)
	if err != nil {
		return 0, fmt.Errorf("prepare article upsert: %w", err)
	}
	defer stmt.Close()

	stored := 0
	for i := range articles {
		article := &articles[i]

		fingerprint := article.Fingerprint
		if fingerprint == "" {
			fingerprint = models.ComputeFingerprint(article.Title, article.URL)
		}

		tags, err := json.Marshal(article.Tags)
		if err != nil {
			return stored, fmt.Errorf("marshal tags for %s: %w", article.URL, err)
		}

		var publishedAt any
		if !article.PublishedAt.IsZero() {
			publishedAt = article.PublishedAt
		}

		if _, err := stmt.ExecContext(ctx,
			fingerprint,
			article.Title,
			article.Description,
			article.Content,
			article.URL,
			article.ImageURL,
			article.Author,
			article.Domain(),
			article.Source.Name,
			article.Category,
			tags,
			article.Quality,
			article.Credibility,
			publishedAt,
			article.RetrievedAt,
		); err != nil {
			return stored, fmt.Errorf("upsert article %s: %w", article.URL, err)
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit article batch: %w", err)
	}

	s.logger.Debug("articles persisted", "count", stored)
	return stored, nil
}

// SaveTrends appends one snapshot row per trending topic.
func (s *PostgresSink) SaveTrends(ctx context.Context, result models.TrendingResult) error {
	if len(result.Trending) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin trend batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertTrend)
	if err != nil {
		return fmt.Errorf("prepare trend insert: %w", err)
	}
	defer stmt.Close()

	for _, topic := range result.Trending {
		if _, err := stmt.ExecContext(ctx,
			topic.Keyword,
			topic.TrendScore,
			topic.Velocity,
			topic.Volume,
			string(topic.Stage),
			len(topic.Mentions),
			topic.ClusterID,
			result.Metadata.AnalyzedAt,
		); err != nil {
			return fmt.Errorf("insert trend %s: %w", topic.Keyword, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit trend batch: %w", err)
	}

	s.logger.Debug("trend snapshots persisted", "count", len(result.Trending))
	return nil
}

// PruneTrends deletes snapshot rows older than the retention window.
func (s *PostgresSink) PruneTrends(ctx context.Context, retention time.Duration) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM trend_snapshots WHERE analyzed_at < $1`,
		time.Now().Add(-retention),
	)
	if err != nil {
		return 0, fmt.Errorf("prune trend snapshots: %w", err)
	}
	return result.RowsAffected()
}

// Close releases the database pool.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}
