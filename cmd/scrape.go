package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobsift/jobsift/internal/adapter"
	"github.com/jobsift/jobsift/internal/orchestrator"
)

func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Runs one ingestion pass over the configured job boards",
		Long: `Scrapes every site listed in the configuration, filters the postings
against the relevance policy, and upserts the survivors into the store.
A failing site is logged and skipped; the run continues.`,

		RunE: runScrapeCommand,
	}
}

func runScrapeCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	o := orchestrator.New(
		adapter.Default(),
		appInstance.Cfg.Scraper,
		appInstance.Cfg.Filter,
		appInstance.Store,
		appInstance.Clock,
		appInstance.Logger,
	)
	summary, err := o.Run(cmd.Context(), appInstance.Cfg.Sites)
	if err != nil {
		return fmt.Errorf("run ingestion: %w", err)
	}

	appInstance.Logger.Info("Scrape command finished",
		zap.String("run_id", summary.RunID),
		zap.Int("sites", len(summary.Sites)),
		zap.Int("failed_sites", summary.FailedSites),
		zap.Int("total_saved", summary.TotalSaved),
		zap.Int64("total_in_db", summary.TotalInDB))
	return nil
}
