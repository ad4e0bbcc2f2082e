package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/adapter"
	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/jobs"
	"github.com/jobsift/jobsift/internal/store/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fakeAdapter struct {
	jobs  []jobs.Job
	err   error
	panic bool
}

func (a fakeAdapter) Scrape(_ context.Context) ([]jobs.Job, error) {
	if a.panic {
		panic("boom")
	}
	return a.jobs, a.err
}

func registryWith(adapters map[string]fakeAdapter) *adapter.Registry {
	registry := adapter.NewRegistry()
	for typeName, fake := range adapters {
		fake := fake
		registry.Register(typeName, func(_ jobs.SiteConfig, _ config.ScraperConfig, _ *zap.Logger) (jobs.Adapter, error) {
			return fake, nil
		})
	}
	return registry
}

func posting(siteID, jobID, title string) jobs.Job {
	return jobs.Job{SiteID: siteID, JobID: jobID, Title: title, SourceURL: "https://example.com"}
}

func TestRunSurvivesSingleSiteFailure(t *testing.T) {
	t.Parallel()

	clock := fixedClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.New(clock)
	registry := registryWith(map[string]fakeAdapter{
		"alpha": {jobs: []jobs.Job{posting("a", "1", "product manager")}},
		"beta":  {err: errors.New("connection reset")},
		"gamma": {jobs: []jobs.Job{posting("c", "2", "senior product manager")}},
	})
	policy := jobs.FilterPolicy{PositiveTerms: []string{"product"}}
	o := New(registry, config.ScraperConfig{}, policy, store, clock, zap.NewNop())

	summary, err := o.Run(context.Background(), []jobs.SiteConfig{
		{ID: "a", Name: "Alpha", Type: "alpha", URL: "https://a.example.com"},
		{ID: "b", Name: "Beta", Type: "beta", URL: "https://b.example.com"},
		{ID: "c", Name: "Gamma", Type: "gamma", URL: "https://c.example.com"},
	})
	require.NoError(t, err)

	require.Len(t, summary.Sites, 3)
	assert.Equal(t, 1, summary.FailedSites)
	assert.Equal(t, jobs.OutcomeSaved, summary.Sites[0].Outcome)
	assert.Equal(t, jobs.OutcomeFailed, summary.Sites[1].Outcome)
	assert.Equal(t, "connection reset", summary.Sites[1].Error)
	assert.Equal(t, jobs.OutcomeSaved, summary.Sites[2].Outcome)
	assert.Equal(t, 2, summary.TotalSaved)
	assert.Equal(t, int64(2), summary.TotalInDB)
	assert.NotEmpty(t, summary.RunID)
}

func TestRunRecoversPanickingAdapter(t *testing.T) {
	t.Parallel()

	clock := fixedClock{now: time.Now().UTC()}
	store := memory.New(clock)
	registry := registryWith(map[string]fakeAdapter{
		"bad":  {panic: true},
		"good": {jobs: []jobs.Job{posting("g", "1", "product manager")}},
	})
	o := New(registry, config.ScraperConfig{}, jobs.FilterPolicy{PositiveTerms: []string{"product"}}, store, clock, zap.NewNop())

	summary, err := o.Run(context.Background(), []jobs.SiteConfig{
		{ID: "bad", Type: "bad", URL: "https://bad.example.com"},
		{ID: "g", Type: "good", URL: "https://g.example.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FailedSites)
	assert.Equal(t, jobs.OutcomeFailed, summary.Sites[0].Outcome)
	assert.Contains(t, summary.Sites[0].Error, "panic")
	assert.Equal(t, jobs.OutcomeSaved, summary.Sites[1].Outcome)
}

func TestRunSkipsUnknownSiteType(t *testing.T) {
	t.Parallel()

	clock := fixedClock{now: time.Now().UTC()}
	store := memory.New(clock)
	registry := registryWith(map[string]fakeAdapter{
		"known": {jobs: []jobs.Job{posting("k", "1", "product manager")}},
	})
	o := New(registry, config.ScraperConfig{}, jobs.FilterPolicy{PositiveTerms: []string{"product"}}, store, clock, zap.NewNop())

	summary, err := o.Run(context.Background(), []jobs.SiteConfig{
		{ID: "x", Type: "lever", URL: "https://x.example.com"},
		{ID: "k", Type: "known", URL: "https://k.example.com"},
	})
	require.NoError(t, err)

	// A missing adapter is a configuration gap, not a site failure.
	assert.Equal(t, 0, summary.FailedSites)
	assert.Equal(t, jobs.OutcomeSkipped, summary.Sites[0].Outcome)
	assert.Equal(t, jobs.OutcomeSaved, summary.Sites[1].Outcome)
	assert.Equal(t, 1, summary.TotalSaved)
}

func TestRunDistinguishesEmptyFromFailed(t *testing.T) {
	t.Parallel()

	clock := fixedClock{now: time.Now().UTC()}
	store := memory.New(clock)
	registry := registryWith(map[string]fakeAdapter{
		"empty": {jobs: []jobs.Job{}},
	})
	o := New(registry, config.ScraperConfig{}, jobs.FilterPolicy{PositiveTerms: []string{"product"}}, store, clock, zap.NewNop())

	summary, err := o.Run(context.Background(), []jobs.SiteConfig{
		{ID: "e", Type: "empty", URL: "https://e.example.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.FailedSites)
	assert.Equal(t, jobs.OutcomeEmpty, summary.Sites[0].Outcome)
	assert.Equal(t, 0, summary.Sites[0].Scraped)
}

func TestRunFiltersBeforeSaving(t *testing.T) {
	t.Parallel()

	clock := fixedClock{now: time.Now().UTC()}
	store := memory.New(clock)
	registry := registryWith(map[string]fakeAdapter{
		"board": {jobs: []jobs.Job{
			posting("b", "1", "product manager"),
			posting("b", "2", "account executive"),
			posting("b", "3", "senior product manager"),
		}},
	})
	o := New(registry, config.ScraperConfig{}, jobs.FilterPolicy{PositiveTerms: []string{"product"}}, store, clock, zap.NewNop())

	summary, err := o.Run(context.Background(), []jobs.SiteConfig{
		{ID: "b", Type: "board", URL: "https://b.example.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Sites[0].Scraped)
	assert.Equal(t, 2, summary.Sites[0].Kept)
	assert.Equal(t, 2, summary.Sites[0].Saved)
	assert.Equal(t, int64(2), summary.TotalInDB)
}

func TestRunAttachesFuzzyScore(t *testing.T) {
	t.Parallel()

	clock := fixedClock{now: time.Now().UTC()}
	store := memory.New(clock)
	registry := registryWith(map[string]fakeAdapter{
		"board": {jobs: []jobs.Job{posting("b", "1", "product manager")}},
	})
	policy := jobs.FilterPolicy{PositiveTerms: []string{"product manager"}, FuzzyThreshold: 0.9}
	o := New(registry, config.ScraperConfig{}, policy, store, clock, zap.NewNop())

	_, err := o.Run(context.Background(), []jobs.SiteConfig{
		{ID: "b", Type: "board", URL: "https://b.example.com"},
	})
	require.NoError(t, err)

	saved, err := store.ListJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	require.NotNil(t, saved[0].FuzzyScore)
	assert.InDelta(t, 1.0, *saved[0].FuzzyScore, 1e-9)
}

func TestRunWithNoSites(t *testing.T) {
	t.Parallel()

	clock := fixedClock{now: time.Now().UTC()}
	o := New(adapter.NewRegistry(), config.ScraperConfig{}, jobs.FilterPolicy{}, memory.New(clock), clock, zap.NewNop())

	_, err := o.Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSites))
}
