package trending

import (
	"testing"
	"time"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

func TestClassifyStage(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		prior    float64
		hasPrior bool
		want     models.LifecycleStage
	}{
		{"no prior observation", 0.5, 0, false, models.StageEmerging},
		{"sharp growth", 0.8, 0.4, true, models.StageEmerging},
		{"moderate growth", 0.55, 0.48, true, models.StageRising},
		{"steady high", 0.5, 0.5, true, models.StagePeak},
		{"slight dip within band", 0.46, 0.5, true, models.StagePeak},
		{"moderate decline", 0.3, 0.5, true, models.StageDeclining},
		{"sharp decline", 0.1, 0.5, true, models.StageFading},
		{"from zero to active", 0.2, 0, true, models.StageEmerging},
		{"flat at zero", 0, 0, true, models.StagePeak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage, confidence := classifyStage(tt.current, tt.prior, tt.hasPrior)
			if stage != tt.want {
				t.Errorf("classifyStage(%v, %v, %v) = %s, want %s",
					tt.current, tt.prior, tt.hasPrior, stage, tt.want)
			}
			if confidence <= 0 || confidence > 1 {
				t.Errorf("confidence = %v, want in (0,1]", confidence)
			}
		})
	}
}

func TestClassifyStageNoPriorLowConfidence(t *testing.T) {
	_, confidence := classifyStage(0.5, 0, false)
	if confidence != 0.3 {
		t.Errorf("no-prior confidence = %v, want 0.3", confidence)
	}
}

func TestHistoryStoreObserveAndPrevious(t *testing.T) {
	store := newHistoryStore(3, time.Hour)
	now := time.Now()

	if _, ok := store.previous("ai"); ok {
		t.Fatal("previous on empty store should report no data")
	}

	store.observe("ai", 0.2, now)
	store.observe("ai", 0.4, now.Add(time.Minute))

	velocity, ok := store.previous("ai")
	if !ok || velocity != 0.4 {
		t.Errorf("previous = %v, %v, want 0.4, true", velocity, ok)
	}

	// Capacity trims from the front.
	store.observe("ai", 0.6, now.Add(2*time.Minute))
	store.observe("ai", 0.8, now.Add(3*time.Minute))

	entry := store.entry("ai")
	if len(entry.points) != 3 {
		t.Errorf("history length = %d, want cap 3", len(entry.points))
	}
	if entry.points[0].Velocity != 0.4 {
		t.Errorf("oldest retained velocity = %v, want 0.4", entry.points[0].Velocity)
	}
}

func TestHistoryStorePruneExpired(t *testing.T) {
	store := newHistoryStore(10, time.Hour)
	now := time.Now()

	store.observe("stale", 0.5, now.Add(-2*time.Hour))
	store.observe("fresh", 0.5, now.Add(-time.Minute))

	removed := store.prune(now)
	if removed != 1 {
		t.Errorf("prune removed %d, want 1", removed)
	}
	if _, ok := store.previous("stale"); ok {
		t.Error("stale keyword should be forgotten")
	}
	if _, ok := store.previous("fresh"); !ok {
		t.Error("fresh keyword should survive pruning")
	}
}
