// Package orchestrator drives the ingestion batch: one sequential pass over
// the configured sites, each isolated so a broken board never aborts the run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/adapter"
	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/filter"
	"github.com/jobsift/jobsift/internal/jobs"
	"github.com/jobsift/jobsift/internal/metrics"
)

// ErrNoSites indicates the run was started with an empty site list, an
// unrecoverable configuration error surfaced before any scraping begins.
var ErrNoSites = errors.New("no sites configured")

// Orchestrator owns one run of the scrape-filter-store pipeline.
type Orchestrator struct {
	registry   *adapter.Registry
	scraperCfg config.ScraperConfig
	filter     *filter.Engine
	fuzzyMode  bool
	store      jobs.Store
	clock      jobs.Clock
	logger     *zap.Logger
}

// New constructs an Orchestrator. The filter policy is handed to the filter
// engine only; adapters never see it.
func New(
	registry *adapter.Registry,
	scraperCfg config.ScraperConfig,
	policy jobs.FilterPolicy,
	store jobs.Store,
	clock jobs.Clock,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		registry:   registry,
		scraperCfg: scraperCfg,
		filter:     filter.New(policy),
		fuzzyMode:  policy.FuzzyThreshold > 0,
		store:      store,
		clock:      clock,
		logger:     logger,
	}
}

// Run processes every site in order and returns the aggregate summary.
// Failures are contained per site; only an empty site list is an error.
func (o *Orchestrator) Run(ctx context.Context, sites []jobs.SiteConfig) (jobs.RunSummary, error) {
	if len(sites) == 0 {
		return jobs.RunSummary{}, ErrNoSites
	}

	summary := jobs.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: o.clock.Now(),
		Sites:     make([]jobs.SiteResult, 0, len(sites)),
	}
	o.logger.Info("Starting ingestion run",
		zap.String("run_id", summary.RunID), zap.Int("sites", len(sites)))

	for _, site := range sites {
		started := o.clock.Now()
		result := o.processSite(ctx, site)
		metrics.ObserveSite(site.ID, string(result.Outcome), o.clock.Now().Sub(started))
		metrics.AddSiteCounts(site.ID, result.Scraped, result.Kept, result.Saved)

		if result.Outcome == jobs.OutcomeFailed {
			summary.FailedSites++
		}
		summary.TotalSaved += result.Saved
		summary.Sites = append(summary.Sites, result)
	}

	summary.FinishedAt = o.clock.Now()
	total, err := o.store.CountJobs(ctx)
	if err != nil {
		o.logger.Warn("Failed to count stored jobs", zap.Error(err))
	} else {
		summary.TotalInDB = total
		metrics.SetJobsInStore(total)
	}

	o.logger.Info("Ingestion run finished",
		zap.String("run_id", summary.RunID),
		zap.Int("failed_sites", summary.FailedSites),
		zap.Int("total_saved", summary.TotalSaved),
		zap.Int64("total_in_db", summary.TotalInDB))
	return summary, nil
}

// processSite runs one site end to end. A panicking adapter is recovered
// and recorded as a failure for that site alone.
func (o *Orchestrator) processSite(ctx context.Context, site jobs.SiteConfig) (result jobs.SiteResult) {
	result = jobs.SiteResult{SiteID: site.ID, SiteName: site.Name}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Adapter panicked",
				zap.String("site", site.ID), zap.Any("panic", r))
			result.Outcome = jobs.OutcomeFailed
			result.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	scraper, err := o.registry.Resolve(site, o.scraperCfg, o.logger)
	if err != nil {
		if errors.Is(err, adapter.ErrUnknownType) {
			o.logger.Warn("No adapter for site type, skipping",
				zap.String("site", site.ID), zap.String("type", site.Type))
			result.Outcome = jobs.OutcomeSkipped
			return result
		}
		o.logger.Error("Failed to build adapter",
			zap.String("site", site.ID), zap.Error(err))
		result.Outcome = jobs.OutcomeFailed
		result.Error = err.Error()
		return result
	}

	scraped, err := scraper.Scrape(ctx)
	if err != nil {
		o.logger.Error("Scrape failed",
			zap.String("site", site.ID), zap.Error(err))
		result.Outcome = jobs.OutcomeFailed
		result.Error = err.Error()
		return result
	}
	result.Scraped = len(scraped)
	if len(scraped) == 0 {
		o.logger.Info("No jobs found", zap.String("site", site.ID))
		result.Outcome = jobs.OutcomeEmpty
		return result
	}

	for _, job := range scraped {
		keep, score := o.filter.ShouldKeep(job)
		if !keep {
			continue
		}
		result.Kept++
		if o.fuzzyMode {
			s := score
			job.FuzzyScore = &s
		}
		if err := o.store.Upsert(ctx, job); err != nil {
			o.logger.Error("Failed to save job",
				zap.String("site", site.ID),
				zap.String("job_id", job.JobID),
				zap.Error(err))
			metrics.IncStoreError()
			continue
		}
		result.Saved++
	}

	o.logger.Info("Site processed",
		zap.String("site", site.ID),
		zap.Int("scraped", result.Scraped),
		zap.Int("kept", result.Kept),
		zap.Int("saved", result.Saved))
	result.Outcome = jobs.OutcomeSaved
	return result
}
