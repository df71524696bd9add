package credibility

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TierLists holds the domain classification data. Tier membership is
// configuration, not code: operators edit the YAML file to promote or block
// a domain.
type TierLists struct {
	Blocked []string `yaml:"blocked"`
	Tier1   []string `yaml:"tier1"`
	Tier2   []string `yaml:"tier2"`
	Tier3   []string `yaml:"tier3"`
}

// LoadTierLists reads the tier configuration file.
func LoadTierLists(path string) (TierLists, error) {
	f, err := os.Open(path)
	if err != nil {
		return TierLists{}, fmt.Errorf("open tier lists: %w", err)
	}
	defer f.Close()

	var lists TierLists
	if err := yaml.NewDecoder(f).Decode(&lists); err != nil {
		return TierLists{}, fmt.Errorf("parse tier lists: %w", err)
	}
	return lists, nil
}

// DefaultTierLists returns a usable baseline when no file is configured.
func DefaultTierLists() TierLists {
	return TierLists{
		Tier1: []string{
			"reuters.com", "apnews.com", "bbc.com", "bbc.co.uk",
			"nytimes.com", "wsj.com", "washingtonpost.com", "ft.com",
			"economist.com", "bloomberg.com",
		},
		Tier2: []string{
			"theguardian.com", "cnn.com", "nbcnews.com", "abcnews.go.com",
			"cbsnews.com", "npr.org", "politico.com", "axios.com",
			"aljazeera.com", "time.com",
		},
		Tier3: []string{
			"businessinsider.com", "huffpost.com", "vice.com",
			"buzzfeednews.com", "dailymail.co.uk", "nypost.com",
		},
	}
}

func (t TierLists) contains(list []string, domain string) bool {
	domain = canonicalDomain(domain)
	for _, entry := range list {
		entry = canonicalDomain(entry)
		if domain == entry || strings.HasSuffix(domain, "."+entry) {
			return true
		}
	}
	return false
}

func canonicalDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimPrefix(domain, "www.")
	if idx := strings.IndexAny(domain, "/:"); idx != -1 {
		domain = domain[:idx]
	}
	return domain
}
