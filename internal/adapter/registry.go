// Package adapter resolves site configurations to scraping implementations.
// The config "type" field selects a variant through a dispatch table rather
// than any inheritance-style hierarchy.
package adapter

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/adapter/api"
	"github.com/jobsift/jobsift/internal/adapter/paginated"
	"github.com/jobsift/jobsift/internal/adapter/rendered"
	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/jobs"
)

// Factory builds an adapter for one configured site.
type Factory func(site jobs.SiteConfig, cfg config.ScraperConfig, logger *zap.Logger) (jobs.Adapter, error)

// Registry maps site type names to adapter factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for a type name.
func (r *Registry) Register(typeName string, factory Factory) {
	r.factories[typeName] = factory
}

// Resolve builds an adapter for the site, or reports that its type is
// unknown so the caller can skip the site without failing the run.
func (r *Registry) Resolve(site jobs.SiteConfig, cfg config.ScraperConfig, logger *zap.Logger) (jobs.Adapter, error) {
	factory, ok := r.factories[site.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, site.Type)
	}
	return factory(site, cfg, logger)
}

// Types lists the registered type names, sorted for stable logging.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ErrUnknownType marks a site whose configured type has no registered
// adapter variant.
var ErrUnknownType = fmt.Errorf("unknown site type")

// Default returns a Registry wired with the supported board families.
func Default() *Registry {
	r := NewRegistry()
	r.Register("consider", func(site jobs.SiteConfig, cfg config.ScraperConfig, logger *zap.Logger) (jobs.Adapter, error) {
		return api.New(site, api.DialectConsider, apiOptions(cfg), logger)
	})
	r.Register("greenhouse", func(site jobs.SiteConfig, cfg config.ScraperConfig, logger *zap.Logger) (jobs.Adapter, error) {
		return api.New(site, api.DialectGreenhouse, apiOptions(cfg), logger)
	})
	r.Register("getro", func(site jobs.SiteConfig, cfg config.ScraperConfig, logger *zap.Logger) (jobs.Adapter, error) {
		return rendered.New(site, rendered.Options{
			UserAgent:         cfg.UserAgent,
			PageLoadTimeout:   cfg.PageLoadTimeout(),
			MaxLoadMoreClicks: cfg.MaxLoadMoreClicks,
			MaxScrollSteps:    cfg.MaxScrollSteps,
		}, logger)
	})
	r.Register("ventureloop", func(site jobs.SiteConfig, cfg config.ScraperConfig, logger *zap.Logger) (jobs.Adapter, error) {
		return paginated.New(site, paginated.Options{
			UserAgent:      cfg.UserAgent,
			RequestTimeout: cfg.RequestTimeout(),
			MaxPages:       cfg.MaxPages,
			SiteQPS:        cfg.SiteQPS,
		}, logger)
	})
	return r
}

func apiOptions(cfg config.ScraperConfig) api.Options {
	return api.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.RequestTimeout(),
	}
}
