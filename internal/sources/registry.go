package sources

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Jberryfresh/DigitalTide-sub003/internal/models"
)

// Registry holds the configured sources and their clients.
type Registry struct {
	sources []models.Source
	clients map[string]Client
}

type registryFile struct {
	Sources []models.Source `yaml:"sources"`
}

// LoadRegistry reads the YAML source registry and builds one client per
// enabled entry.
func LoadRegistry(path string, logger *slog.Logger) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source registry: %w", err)
	}
	defer f.Close()

	var file registryFile
	if err := yaml.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("parse source registry: %w", err)
	}

	registry := &Registry{clients: make(map[string]Client)}
	for _, source := range file.Sources {
		if err := validateSource(source); err != nil {
			return nil, fmt.Errorf("source %q: %w", source.Domain, err)
		}

		registry.sources = append(registry.sources, source)

		switch source.Type {
		case models.SourceTypeRSS:
			registry.clients[source.Domain] = NewRSSClient(source, logger)
		case models.SourceTypeAPI:
			registry.clients[source.Domain] = NewAPIClient(source, logger)
		}
	}

	logger.Info("source registry loaded", "path", path, "sources", len(registry.sources))
	return registry, nil
}

// NewRegistry builds a registry from explicit sources and clients, used by
// tests and custom wiring.
func NewRegistry(sources []models.Source, clients map[string]Client) *Registry {
	return &Registry{sources: sources, clients: clients}
}

func validateSource(source models.Source) error {
	if source.Domain == "" {
		return fmt.Errorf("domain is required")
	}
	switch source.Type {
	case models.SourceTypeRSS:
		if source.FeedURL == "" {
			return fmt.Errorf("feed_url is required for rss sources")
		}
	case models.SourceTypeAPI:
		if source.Endpoint == "" {
			return fmt.Errorf("endpoint is required for api sources")
		}
	default:
		return fmt.Errorf("unknown source type %q", source.Type)
	}
	return nil
}

// Sources returns all registry entries.
func (r *Registry) Sources() []models.Source {
	out := make([]models.Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Client returns the adapter for a domain.
func (r *Registry) Client(domain string) (Client, bool) {
	client, ok := r.clients[domain]
	return client, ok
}

// QuotaResetter is implemented by clients that track a request budget.
type QuotaResetter interface {
	ResetQuota()
}

// ResetQuotas clears consumption on every quota-tracking client and returns
// how many were reset.
func (r *Registry) ResetQuotas() int {
	reset := 0
	for _, client := range r.clients {
		if resetter, ok := client.(QuotaResetter); ok {
			resetter.ResetQuota()
			reset++
		}
	}
	return reset
}

// Lookup returns the registry entry for a domain.
func (r *Registry) Lookup(domain string) (models.Source, bool) {
	for _, source := range r.sources {
		if source.Domain == domain {
			return source, true
		}
	}
	return models.Source{}, false
}
