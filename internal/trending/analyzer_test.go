package trending

import (
	"fmt"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractKeywords(t *testing.T) {
	analyzer := New(DefaultConfig(), testLogger())

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "stop words removed",
			text: "The latest report says AI regulation is coming",
			want: []string{"ai", "regulation", "coming"},
		},
		{
			name: "duplicates collapse",
			text: "Bitcoin surges as bitcoin traders rally",
			want: []string{"bitcoin", "surges", "traders", "rally"},
		},
		{
			name: "length band enforced",
			text: "x supercalifragilisticexpialidocious market",
			want: []string{"market"},
		},
		{
			name: "short acronyms admitted",
			text: "AI startups raise record funding as AI adoption grows",
			want: []string{"ai", "startups", "raise", "record", "funding", "adoption", "grows"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzer.ExtractKeywords(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractKeywords(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("keyword[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func batchOf(keyword string, count int, age time.Duration) []models.Article {
	articles := make([]models.Article, count)
	for i := range articles {
		articles[i] = models.Article{
			Title:       fmt.Sprintf("%s update number %d", keyword, i),
			URL:         fmt.Sprintf("https://example.com/%s-%d", keyword, i),
			PublishedAt: time.Now().Add(-age),
			Credibility: 0.8,
		}
	}
	return articles
}

func TestAnalyzeSurfacesBurstingKeyword(t *testing.T) {
	analyzer := New(DefaultConfig(), testLogger())

	articles := append(
		batchOf("blockchain", 10, 10*time.Minute),
		batchOf("gardening", 2, 10*time.Minute)...,
	)

	result := analyzer.Analyze(articles)

	found := false
	for _, topic := range result.Trending {
		if topic.Keyword == "blockchain" {
			found = true
			if topic.Stage != models.StageEmerging {
				t.Errorf("first-seen topic stage = %s, want emerging", topic.Stage)
			}
			if topic.Velocity <= 0 {
				t.Errorf("bursting keyword velocity = %v, want > 0", topic.Velocity)
			}
		}
		if topic.Keyword == "gardening" {
			t.Error("keyword below the mention floor should not trend")
		}
	}
	if !found {
		t.Fatal("bursting keyword should appear in trending topics")
	}
	if result.Metadata.ArticlesAnalyzed != len(articles) {
		t.Errorf("articles analyzed = %d, want %d", result.Metadata.ArticlesAnalyzed, len(articles))
	}
}

func TestAnalyzeIgnoresOldMentions(t *testing.T) {
	analyzer := New(DefaultConfig(), testLogger())

	// Mentions far outside the velocity windows have no short-window rate.
	result := analyzer.Analyze(batchOf("archive", 10, 48*time.Hour))

	for _, topic := range result.Trending {
		if topic.Keyword == "archive" {
			t.Errorf("stale keyword trended with velocity %v", topic.Velocity)
		}
	}
}

func TestAnalyzeStageProgression(t *testing.T) {
	analyzer := New(DefaultConfig(), testLogger())

	first := analyzer.Analyze(batchOf("earthquake", 6, 5*time.Minute))
	stageOf := func(result models.TrendingResult, keyword string) (models.LifecycleStage, bool) {
		for _, topic := range result.Trending {
			if topic.Keyword == keyword {
				return topic.Stage, true
			}
		}
		return "", false
	}

	stage, ok := stageOf(first, "earthquake")
	if !ok {
		t.Fatal("keyword should trend in first cycle")
	}
	if stage != models.StageEmerging {
		t.Errorf("first cycle stage = %s, want emerging", stage)
	}

	// Second cycle with a much larger burst compares against the recorded
	// prior velocity.
	second := analyzer.Analyze(batchOf("earthquake", 30, 5*time.Minute))
	stage, ok = stageOf(second, "earthquake")
	if !ok {
		t.Fatal("keyword should trend in second cycle")
	}
	if stage != models.StageEmerging && stage != models.StageRising {
		t.Errorf("accelerating topic stage = %s, want emerging or rising", stage)
	}
}

func TestAnalyzeShortAcronymBurst(t *testing.T) {
	analyzer := New(DefaultConfig(), testLogger())

	// Ten mentions in the last hour against two in the prior hour: a burst
	// that must surface and must not read as declining or fading.
	articles := append(
		batchOf("ai", 10, 10*time.Minute),
		batchOf("ai", 2, 90*time.Minute)...,
	)

	result := analyzer.Analyze(articles)

	for _, topic := range result.Trending {
		if topic.Keyword != "ai" {
			continue
		}
		if topic.Stage != models.StageEmerging && topic.Stage != models.StageRising {
			t.Errorf("bursting acronym stage = %s, want emerging or rising", topic.Stage)
		}
		return
	}
	t.Fatal("two-letter keyword should trend on a mention burst")
}

func TestAnalyzeKeepsHistoryForCappedTopics(t *testing.T) {
	config := DefaultConfig()
	config.MaxTopics = 1
	config.MinMentions = 1
	config.MinVelocity = 0
	analyzer := New(config, testLogger())

	// Titles carry the keyword plus a one-off token so no filler keyword
	// competes with the ones under test.
	mk := func(keyword string, count int) []models.Article {
		articles := make([]models.Article, count)
		for i := range articles {
			title := fmt.Sprintf("%s %swire%d", keyword, keyword, i)
			articles[i] = models.Article{
				Title:       title,
				URL:         fmt.Sprintf("https://example.com/%s-%d", keyword, i),
				PublishedAt: time.Now().Add(-5 * time.Minute),
				Credibility: 0.8,
			}
		}
		return articles
	}

	// First cycle: "bravo" is scored but cut by the topic cap.
	first := analyzer.Analyze(append(mk("alpha", 12), mk("bravo", 6)...))
	for _, topic := range first.Trending {
		if topic.Keyword == "bravo" {
			t.Fatal("lower-scored keyword should be cut by the cap")
		}
	}

	// Second cycle at the same mention rate: the capped keyword's recorded
	// velocity must carry over, so it classifies as steady rather than
	// restarting as emerging.
	second := analyzer.Analyze(mk("bravo", 6))
	for _, topic := range second.Trending {
		if topic.Keyword != "bravo" {
			continue
		}
		if topic.Stage != models.StagePeak {
			t.Errorf("re-entering keyword stage = %s, want peak from carried-over velocity", topic.Stage)
		}
		return
	}
	t.Fatal("keyword should trend once the cap no longer cuts it")
}

func TestAnalyzeCapsTopics(t *testing.T) {
	config := DefaultConfig()
	config.MaxTopics = 3
	config.MinMentions = 1
	config.MinVelocity = 0
	analyzer := New(config, testLogger())

	var articles []models.Article
	for _, keyword := range []string{"alpha", "bravo", "charlie", "delta", "echo"} {
		articles = append(articles, batchOf(keyword, 4, 5*time.Minute)...)
	}

	result := analyzer.Analyze(articles)
	if len(result.Trending) > 3 {
		t.Errorf("topics = %d, want at most 3", len(result.Trending))
	}
}

func TestAnalyzeEmptyBatch(t *testing.T) {
	analyzer := New(DefaultConfig(), testLogger())

	result := analyzer.Analyze(nil)
	if len(result.Trending) != 0 {
		t.Errorf("empty batch produced %d topics", len(result.Trending))
	}
}
