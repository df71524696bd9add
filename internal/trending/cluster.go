package trending

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// clusterTopics greedily groups surviving topics by pairwise keyword
// similarity. A topic joins the first cluster whose seed it resembles;
// clusters are capped so one broad keyword cannot swallow the whole list.
func (a *Analyzer) clusterTopics(topics []models.TrendTopic) []models.Cluster {
	if len(topics) < 2 {
		return nil
	}

	var clusters []models.Cluster
	assigned := make([]int, len(topics)) // 0 = unassigned

	for i := range topics {
		if assigned[i] != 0 {
			continue
		}

		members := []int{i}
		for j := i + 1; j < len(topics); j++ {
			if assigned[j] != 0 || len(members) >= a.config.MaxClusterSize {
				continue
			}
			if KeywordSimilarity(topics[i].Keyword, topics[j].Keyword) >= a.config.ClusterThreshold {
				members = append(members, j)
			}
		}

		if len(members) < 2 {
			continue
		}

		id := len(clusters) + 1
		cluster := models.Cluster{ID: id}
		for _, idx := range members {
			assigned[idx] = id
			topics[idx].ClusterID = id
			cluster.Keywords = append(cluster.Keywords, topics[idx].Keyword)
			if topics[idx].TrendScore > cluster.Score {
				cluster.Score = topics[idx].TrendScore
			}
		}
		clusters = append(clusters, cluster)
	}

	return clusters
}

// KeywordSimilarity compares two keywords by containment ratio or, failing
// that, an edit-distance ratio.
func KeywordSimilarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	if len(shorter) >= 3 && strings.Contains(longer, shorter) {
		return float64(len(shorter)) / float64(len(longer))
	}

	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(len(longer))
}
