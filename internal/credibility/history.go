package credibility

import (
	"sync"
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// HistoryStore owns the per-domain rolling outcome history. Each domain has
// its own lock so concurrent updates for different domains never contend.
type HistoryStore struct {
	mu      sync.RWMutex
	domains map[string]*domainHistory
	window  time.Duration
}

type domainHistory struct {
	mu     sync.Mutex
	record models.CredibilityRecord
}

// NewHistoryStore creates a store with the given performance window.
func NewHistoryStore(window time.Duration) *HistoryStore {
	return &HistoryStore{
		domains: make(map[string]*domainHistory),
		window:  window,
	}
}

// Record appends an outcome for a domain, pruning entries that fell out of
// the performance window. This is the only write path into scorer state.
func (s *HistoryStore) Record(domain string, outcome models.ArticleOutcome) {
	domain = canonicalDomain(domain)
	if domain == "" {
		return
	}

	entry := s.entry(domain)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.record.Outcomes = append(entry.record.Outcomes, outcome)
	entry.record.UpdatedAt = time.Now()
	entry.record.Prune(s.window)
}

// Snapshot returns a copy of the domain's record.
func (s *HistoryStore) Snapshot(domain string) (models.CredibilityRecord, bool) {
	domain = canonicalDomain(domain)

	s.mu.RLock()
	entry, ok := s.domains[domain]
	s.mu.RUnlock()
	if !ok {
		return models.CredibilityRecord{}, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.record.Prune(s.window)
	snapshot := entry.record
	snapshot.Outcomes = append([]models.ArticleOutcome(nil), entry.record.Outcomes...)
	return snapshot, true
}

// Cleanup prunes all domains and drops those with no outcomes left.
func (s *HistoryStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for domain, entry := range s.domains {
		entry.mu.Lock()
		entry.record.Prune(s.window)
		empty := len(entry.record.Outcomes) == 0
		entry.mu.Unlock()

		if empty {
			delete(s.domains, domain)
			removed++
		}
	}
	return removed
}

// Reset drops every domain's history.
func (s *HistoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domains = make(map[string]*domainHistory)
}

func (s *HistoryStore) entry(domain string) *domainHistory {
	s.mu.RLock()
	entry, ok := s.domains[domain]
	s.mu.RUnlock()
	if ok {
		return entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok = s.domains[domain]; ok {
		return entry
	}
	entry = &domainHistory{record: models.CredibilityRecord{Domain: domain}}
	s.domains[domain] = entry
	return entry
}
