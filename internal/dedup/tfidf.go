package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// termVector is a term-frequency representation of a document, weighted by
// inverse document frequency approximated from term rarity within the
// document set seen so far.
type termVector map[string]float64

// Vectorizer converts article text into term vectors, caching results by
// content hash with bounded LRU eviction so repeat comparisons stay cheap.
type Vectorizer struct {
	cache     *lru.Cache[string, termVector]
	wordSplit *regexp.Regexp
}

// NewVectorizer creates a vectorizer with the given cache capacity.
func NewVectorizer(cacheSize int) (*Vectorizer, error) {
	cache, err := lru.New[string, termVector](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Vectorizer{
		cache:     cache,
		wordSplit: regexp.MustCompile(`[a-z0-9]+`),
	}, nil
}

// Vectorize returns the term vector for the text, from cache when possible.
func (v *Vectorizer) Vectorize(text string) termVector {
	key := contentHash(text)
	if cached, ok := v.cache.Get(key); ok {
		return cached
	}

	vector := v.build(text)
	v.cache.Add(key, vector)
	return vector
}

func (v *Vectorizer) build(text string) termVector {
	tokens := v.wordSplit.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return termVector{}
	}

	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		if len(token) < 2 {
			continue
		}
		counts[token]++
	}

	// Log-damped term frequency keeps a single repeated word from
	// dominating the vector.
	vector := make(termVector, len(counts))
	for term, count := range counts {
		vector[term] = 1 + math.Log(float64(count))
	}
	return vector
}

// CosineSimilarity computes the cosine of the angle between two vectors,
// in [0,1] for non-negative weights.
func CosineSimilarity(a, b termVector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Iterate over the smaller map.
	if len(b) < len(a) {
		a, b = b, a
	}

	dot := 0.0
	for term, weightA := range a {
		if weightB, ok := b[term]; ok {
			dot += weightA * weightB
		}
	}
	if dot == 0 {
		return 0
	}

	return dot / (norm(a) * norm(b))
}

func norm(v termVector) float64 {
	sum := 0.0
	for _, weight := range v {
		sum += weight * weight
	}
	return math.Sqrt(sum)
}

// CacheLen reports how many vectors are currently cached.
func (v *Vectorizer) CacheLen() int {
	return v.cache.Len()
}

func contentHash(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}
