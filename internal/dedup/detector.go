package dedup

import (
	"fmt"
	"log/slog"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// Config holds the detector's thresholds and signal weights.
type Config struct {
	DuplicateThreshold float64 // weighted similarity at or above this merges articles
	SimilarThreshold   float64 // lower bound for related-but-distinct grouping
	TitleWeight        float64
	ContentWeight      float64
	URLWeight          float64
	ImageWeight        float64
	MetadataWeight     float64
	ContentOverride    float64 // content cosine at or above this is decisive on its own
	VectorCacheSize    int
}

// DefaultConfig returns the standard thresholds and weights.
func DefaultConfig() Config {
	return Config{
		DuplicateThreshold: 0.85,
		SimilarThreshold:   0.70,
		TitleWeight:        0.35,
		ContentWeight:      0.30,
		URLWeight:          0.15,
		ImageWeight:        0.05,
		MetadataWeight:     0.15,
		ContentOverride:    0.90,
		VectorCacheSize:    2048,
	}
}

// Group records articles collapsed into one representative.
type Group struct {
	Best       models.Article   `json:"best"`
	Duplicates []models.Article `json:"duplicates"`
	Similarity []float64        `json:"similarity"` // per duplicate, parallel to Duplicates
}

// Result is the outcome of one deduplication pass.
type Result struct {
	Unique  []models.Article `json:"unique"`
	Groups  map[string]Group `json:"groups"` // keyed by the best article's fingerprint
	Exact   int              `json:"exact_duplicates"`
	Fuzzy   int              `json:"fuzzy_duplicates"`
	Similar int              `json:"similar_pairs"` // related stories left unmerged
}

// Detector collapses exact and near-duplicate articles.
type Detector struct {
	config     Config
	vectorizer *Vectorizer
	logger     *slog.Logger
}

// New creates a detector.
func New(config Config, logger *slog.Logger) (*Detector, error) {
	if config.DuplicateThreshold <= 0 || config.DuplicateThreshold > 1 {
		return nil, fmt.Errorf("dedup: duplicate threshold must be in (0,1], got %v", config.DuplicateThreshold)
	}

	vectorizer, err := NewVectorizer(config.VectorCacheSize)
	if err != nil {
		return nil, fmt.Errorf("dedup: vector cache: %w", err)
	}

	return &Detector{
		config:     config,
		vectorizer: vectorizer,
		logger:     logger,
	}, nil
}

// Dedupe returns the unique articles plus a duplicate-group map. The input
// slice is not modified.
func (d *Detector) Dedupe(articles []models.Article) Result {
	result := Result{Groups: make(map[string]Group)}
	if len(articles) == 0 {
		return result
	}

	// Exact pass: normalized URL and fingerprint sets, O(n).
	remaining, exactGroups := d.exactPass(articles)
	result.Exact = len(articles) - len(remaining)

	// Fuzzy pass: pairwise over the survivors. Cached vectors keep repeat
	// comparisons cheap; at typical batch sizes the O(n^2) loop is fine.
	unique, fuzzyGroups, similar := d.fuzzyPass(remaining)
	result.Fuzzy = len(remaining) - len(unique)
	result.Similar = similar

	mergeGroups(exactGroups, fuzzyGroups)

	// Re-select the best article per group now that exact and fuzzy members
	// are combined, and key groups by the winner's fingerprint.
	for _, group := range exactGroups {
		finalized := finalizeGroup(group)
		result.Groups[finalized.Best.Fingerprint] = finalized
	}

	// Replace survivors that lost their group's best-article election.
	for i, article := range unique {
		if group, ok := result.Groups[article.Fingerprint]; ok {
			unique[i] = group.Best
			continue
		}
		for _, group := range result.Groups {
			if containsFingerprint(group.Duplicates, article.Fingerprint) {
				unique[i] = group.Best
				break
			}
		}
	}

	result.Unique = dedupeByFingerprint(unique)

	d.logger.Debug("deduplication complete",
		"input", len(articles),
		"unique", len(result.Unique),
		"exact", result.Exact,
		"fuzzy", result.Fuzzy,
		"similar_pairs", result.Similar,
	)

	return result
}

// exactPass removes articles sharing a normalized URL or fingerprint.
func (d *Detector) exactPass(articles []models.Article) ([]models.Article, map[string]*Group) {
	groups := make(map[string]*Group)
	byURL := make(map[string]string)         // normalized URL -> first fingerprint
	byFingerprint := make(map[string]string) // fingerprint -> group key

	remaining := make([]models.Article, 0, len(articles))

	for _, article := range articles {
		normURL := models.NormalizeURL(article.URL)

		key, seen := byURL[normURL]
		if !seen {
			key, seen = byFingerprint[article.Fingerprint]
		}

		if seen {
			group := groups[key]
			group.Duplicates = append(group.Duplicates, article)
			group.Similarity = append(group.Similarity, 1.0)
			continue
		}

		byURL[normURL] = article.Fingerprint
		byFingerprint[article.Fingerprint] = article.Fingerprint
		groups[article.Fingerprint] = &Group{Best: article}
		remaining = append(remaining, article)
	}

	// Drop singleton groups; they only matter once a duplicate is attached.
	for key, group := range groups {
		if len(group.Duplicates) == 0 {
			delete(groups, key)
		}
	}

	return remaining, groups
}

// fuzzyPass groups near-duplicates among articles that survived the exact
// pass, using the weighted multi-signal similarity.
func (d *Detector) fuzzyPass(articles []models.Article) ([]models.Article, map[string]*Group, int) {
	groups := make(map[string]*Group)
	absorbed := make([]bool, len(articles))
	similarPairs := 0

	for i := 0; i < len(articles); i++ {
		if absorbed[i] {
			continue
		}
		for j := i + 1; j < len(articles); j++ {
			if absorbed[j] {
				continue
			}

			score := d.Similarity(&articles[i], &articles[j])
			if score >= d.config.DuplicateThreshold {
				key := articles[i].Fingerprint
				group, ok := groups[key]
				if !ok {
					group = &Group{Best: articles[i]}
					groups[key] = group
				}
				group.Duplicates = append(group.Duplicates, articles[j])
				group.Similarity = append(group.Similarity, score)
				absorbed[j] = true
			} else if score >= d.config.SimilarThreshold {
				similarPairs++
			}
		}
	}

	unique := make([]models.Article, 0, len(articles))
	for i, article := range articles {
		if !absorbed[i] {
			unique = append(unique, article)
		}
	}

	return unique, groups, similarPairs
}

// Similarity computes the weighted multi-signal similarity between two
// articles. Signals that cannot be evaluated are omitted and the remaining
// weights renormalized.
func (d *Detector) Similarity(a, b *models.Article) float64 {
	total := 0.0
	applied := 0.0

	if a.Title != "" && b.Title != "" {
		total += d.config.TitleWeight * TitleSimilarity(a.Title, b.Title)
		applied += d.config.TitleWeight
	}

	contentSim := -1.0
	bodyA, bodyB := a.Body(), b.Body()
	if bodyA != "" && bodyB != "" {
		vecA := d.vectorizer.Vectorize(bodyA)
		vecB := d.vectorizer.Vectorize(bodyB)
		contentSim = CosineSimilarity(vecA, vecB)
		total += d.config.ContentWeight * contentSim
		applied += d.config.ContentWeight
	}

	if a.URL != "" && b.URL != "" {
		total += d.config.URLWeight * URLSimilarity(a.URL, b.URL)
		applied += d.config.URLWeight
	}

	if a.ImageURL != "" && b.ImageURL != "" {
		total += d.config.ImageWeight * ImageSimilarity(a.ImageURL, b.ImageURL)
		applied += d.config.ImageWeight
	}

	metaScore := MetadataSimilarity(a, b)
	if metaScore > 0 || (!a.PublishedAt.IsZero() && !b.PublishedAt.IsZero()) {
		total += d.config.MetadataWeight * metaScore
		applied += d.config.MetadataWeight
	}

	if applied == 0 {
		return 0
	}
	score := total / applied

	// Syndicated wire copy keeps its body across outlets while the title,
	// URL, and metadata all diverge. A near-verbatim body outvotes the
	// blended score.
	if d.config.ContentOverride > 0 && contentSim >= d.config.ContentOverride && contentSim > score {
		return contentSim
	}
	return score
}

// finalizeGroup elects the highest-quality member as the representative.
// Ties keep the existing best, preserving first-seen order.
func finalizeGroup(group *Group) Group {
	best := group.Best
	bestScore := ScoreQuality(&best)
	duplicates := group.Duplicates
	similarities := group.Similarity

	for i, candidate := range group.Duplicates {
		if score := ScoreQuality(&candidate); score > bestScore {
			// Demote the previous best into the duplicate list.
			duplicates = append([]models.Article{}, group.Duplicates...)
			duplicates[i] = best
			best = candidate
			bestScore = score
		}
	}

	return Group{Best: best, Duplicates: duplicates, Similarity: similarities}
}

// mergeGroups folds fuzzy groups into the exact group map.
func mergeGroups(dst map[string]*Group, src map[string]*Group) {
	for key, group := range src {
		if existing, ok := dst[key]; ok {
			existing.Duplicates = append(existing.Duplicates, group.Duplicates...)
			existing.Similarity = append(existing.Similarity, group.Similarity...)
			continue
		}
		dst[key] = group
	}
}

func containsFingerprint(articles []models.Article, fingerprint string) bool {
	for _, article := range articles {
		if article.Fingerprint == fingerprint {
			return true
		}
	}
	return false
}

func dedupeByFingerprint(articles []models.Article) []models.Article {
	seen := make(map[string]bool, len(articles))
	out := make([]models.Article, 0, len(articles))
	for _, article := range articles {
		if seen[article.Fingerprint] {
			continue
		}
		seen[article.Fingerprint] = true
		out = append(out, article)
	}
	return out
}
