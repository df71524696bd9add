package trending

import (
	"sync"
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// velocityPoint is one recorded observation of a keyword's velocity.
type velocityPoint struct {
	Velocity   float64
	ObservedAt time.Time
}

// historyStore retains recent velocity observations per keyword so lifecycle
// stages can compare current against prior momentum. Each keyword has its
// own lock; the outer map lock is held only to locate entries.
type historyStore struct {
	mu       sync.RWMutex
	keywords map[string]*keywordHistory
	cap      int
	expiry   time.Duration
}

type keywordHistory struct {
	mu     sync.Mutex
	points []velocityPoint
}

func newHistoryStore(cap int, expiry time.Duration) *historyStore {
	return &historyStore{
		keywords: make(map[string]*keywordHistory),
		cap:      cap,
		expiry:   expiry,
	}
}

// observe appends a velocity point, trimming to the cap.
func (s *historyStore) observe(keyword string, velocity float64, at time.Time) {
	entry := s.entry(keyword)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.points = append(entry.points, velocityPoint{Velocity: velocity, ObservedAt: at})
	if len(entry.points) > s.cap {
		entry.points = entry.points[len(entry.points)-s.cap:]
	}
}

// previous returns the most recent velocity recorded before the current
// observation, if any.
func (s *historyStore) previous(keyword string) (float64, bool) {
	s.mu.RLock()
	entry, ok := s.keywords[keyword]
	s.mu.RUnlock()
	if !ok {
		return 0, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if len(entry.points) == 0 {
		return 0, false
	}
	return entry.points[len(entry.points)-1].Velocity, true
}

// prune drops keywords not observed within the expiry window.
func (s *historyStore) prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for keyword, entry := range s.keywords {
		entry.mu.Lock()
		stale := len(entry.points) == 0 ||
			now.Sub(entry.points[len(entry.points)-1].ObservedAt) > s.expiry
		entry.mu.Unlock()

		if stale {
			delete(s.keywords, keyword)
			removed++
		}
	}
	return removed
}

func (s *historyStore) entry(keyword string) *keywordHistory {
	s.mu.RLock()
	entry, ok := s.keywords[keyword]
	s.mu.RUnlock()
	if ok {
		return entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok = s.keywords[keyword]; ok {
		return entry
	}
	entry = &keywordHistory{}
	s.keywords[keyword] = entry
	return entry
}

// classifyStage buckets the percent change between prior and current
// velocity. Without a prior observation the topic defaults to emerging with
// low confidence.
func classifyStage(current float64, prior float64, hasPrior bool) (models.LifecycleStage, float64) {
	if !hasPrior {
		return models.StageEmerging, 0.3
	}

	var change float64
	switch {
	case prior > 0:
		change = (current - prior) / prior
	case current > 0:
		change = 1 // from zero to something is full growth
	default:
		change = 0
	}

	switch {
	case change > 0.50:
		return models.StageEmerging, 0.9
	case change > 0.10:
		return models.StageRising, 0.8
	case change >= -0.10:
		return models.StagePeak, 0.7
	case change >= -0.50:
		return models.StageDeclining, 0.8
	default:
		return models.StageFading, 0.9
	}
}
