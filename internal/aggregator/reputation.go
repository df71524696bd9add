package aggregator

import (
	"sync"
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// ReputationStore owns the live per-source reputation records. Each source
// has its own lock so overlapping runs updating the same source serialize
// while different sources never contend.
type ReputationStore struct {
	mu      sync.RWMutex
	sources map[string]*sourceReputation
}

type sourceReputation struct {
	mu  sync.Mutex
	rep models.Reputation
}

// NewReputationStore creates an empty store.
func NewReputationStore() *ReputationStore {
	return &ReputationStore{sources: make(map[string]*sourceReputation)}
}

// RecordSuccess updates a source's reputation after a successful fetch.
// A single success resets the consecutive-failure counter.
func (s *ReputationStore) RecordSuccess(domain string, latency time.Duration, avgQuality float64) {
	entry := s.entry(domain)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	rep := &entry.rep
	rep.SuccessCount++
	rep.ConsecutiveFailures = 0
	rep.LastSuccessAt = time.Now()

	if rep.AvgResponseTime == 0 {
		rep.AvgResponseTime = latency
	} else {
		rep.AvgResponseTime = (rep.AvgResponseTime + latency) / 2
	}

	if avgQuality > 0 {
		if rep.AvgArticleQuality == 0 {
			rep.AvgArticleQuality = avgQuality
		} else {
			rep.AvgArticleQuality = 0.7*rep.AvgArticleQuality + 0.3*avgQuality
		}
	}
}

// RecordFailure updates a source's reputation after a failed fetch.
func (s *ReputationStore) RecordFailure(domain string) {
	entry := s.entry(domain)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.rep.FailureCount++
	entry.rep.ConsecutiveFailures++
	entry.rep.LastFailureAt = time.Now()
}

// Snapshot returns a copy of the source's reputation.
func (s *ReputationStore) Snapshot(domain string) models.Reputation {
	entry := s.entry(domain)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.rep
}

// All returns a copy of every reputation record.
func (s *ReputationStore) All() map[string]models.Reputation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.Reputation, len(s.sources))
	for domain, entry := range s.sources {
		entry.mu.Lock()
		out[domain] = entry.rep
		entry.mu.Unlock()
	}
	return out
}

// Reset clears one source's reputation, or every source when domain is "".
func (s *ReputationStore) Reset(domain string) {
	if domain == "" {
		s.mu.Lock()
		s.sources = make(map[string]*sourceReputation)
		s.mu.Unlock()
		return
	}

	entry := s.entry(domain)
	entry.mu.Lock()
	entry.rep = models.Reputation{}
	entry.mu.Unlock()
}

func (s *ReputationStore) entry(domain string) *sourceReputation {
	s.mu.RLock()
	entry, ok := s.sources[domain]
	s.mu.RUnlock()
	if ok {
		return entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok = s.sources[domain]; ok {
		return entry
	}
	entry = &sourceReputation{}
	s.sources[domain] = entry
	return entry
}
