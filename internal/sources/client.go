package sources

import (
	"context"
	"sync"
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// Client is the adapter every external provider must implement. Adapters
// normalize raw provider output into the common Article shape.
type Client interface {
	// Name returns the unique identifier for this client (the source domain).
	Name() string

	// Type returns the adapter kind (API or RSS).
	Type() models.SourceType

	// Fetch retrieves articles matching the options. Each returned article
	// carries a computed fingerprint.
	Fetch(ctx context.Context, opts FetchOptions) ([]models.Article, error)

	// HealthCheck verifies the client can reach its provider. It must not
	// consume production quota.
	HealthCheck(ctx context.Context) error
}

// FetchOptions narrows what a fetch should return.
type FetchOptions struct {
	Query    string
	Category string
	Country  string
	Language string
	Limit    int
}

// QuotaState tracks request budget consumption for a client.
type QuotaState struct {
	mu        sync.Mutex
	limit     int
	used      int
	resetAt   time.Time
	resetSpan time.Duration
}

// NewQuotaState creates a quota tracker. A zero limit means unlimited.
func NewQuotaState(limit int, resetSpan time.Duration) *QuotaState {
	return &QuotaState{
		limit:     limit,
		resetAt:   time.Now().Add(resetSpan),
		resetSpan: resetSpan,
	}
}

// Consume records one request. It returns false when the quota is exhausted.
func (q *QuotaState) Consume() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if time.Now().After(q.resetAt) {
		q.used = 0
		q.resetAt = time.Now().Add(q.resetSpan)
	}

	if q.limit > 0 && q.used >= q.limit {
		return false
	}
	q.used++
	return true
}

// Remaining returns how many requests are left in the current window.
// A negative value means unlimited.
func (q *QuotaState) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.limit <= 0 {
		return -1
	}
	if time.Now().After(q.resetAt) {
		return q.limit
	}
	return q.limit - q.used
}

// Reset clears consumption, used by the monthly quota-reset job.
func (q *QuotaState) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.used = 0
	q.resetAt = time.Now().Add(q.resetSpan)
}
