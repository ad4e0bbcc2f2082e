package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/clock/system"
	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/jobs"
	"github.com/jobsift/jobsift/internal/store/memory"
)

func TestBuildStoreProviders(t *testing.T) {
	t.Parallel()

	clk := system.Clock{}

	store, err := buildStore(context.Background(), config.Config{
		DB: config.DBConfig{Provider: "memory"},
	}, clk)
	require.NoError(t, err)
	require.NotNil(t, store)

	_, err = buildStore(context.Background(), config.Config{
		DB: config.DBConfig{Provider: "postgres"},
	}, clk)
	require.Error(t, err)

	_, err = buildStore(context.Background(), config.Config{
		DB: config.DBConfig{Provider: "sqlite"},
	}, clk)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

// mockApp swaps the application factory for the duration of one test.
func mockApp(t *testing.T, cfg config.Config) {
	t.Helper()
	orig := newApp
	t.Cleanup(func() { newApp = orig })
	clk := system.Clock{}
	newApp = func(_ context.Context) (*App, error) {
		return &App{Cfg: cfg, Logger: zap.NewNop(), Store: memory.New(clk), Clock: clk}, nil
	}
}

func TestScrapeCommandSkipsUnsupportedSites(t *testing.T) {
	mockApp(t, config.Config{
		Sites: []jobs.SiteConfig{
			{ID: "x", Name: "X", Type: "unsupported", URL: "https://x.example.com"},
		},
	})

	root := newRootCmd()
	root.SetArgs([]string{"scrape"})
	require.NoError(t, root.Execute())
}

func TestScrapeCommandFailsWithoutSites(t *testing.T) {
	mockApp(t, config.Config{})

	root := newRootCmd()
	root.SetArgs([]string{"scrape"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sites configured")
}
