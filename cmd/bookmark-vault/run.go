// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bookmark-vault/internal/browser"
	"github.com/pdiddy/bookmark-vault/internal/extract"
	"github.com/pdiddy/bookmark-vault/internal/ledger"
	"github.com/pdiddy/bookmark-vault/internal/orchestrate"
	"github.com/pdiddy/bookmark-vault/internal/removal"
	"github.com/pdiddy/bookmark-vault/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape bookmarks, save them as notes, and optionally remove them",
	Long: `Run opens the bookmarks page in Chrome, extracts the visible posts (or every
post with --all), and sends them to a running "bookmark-vault serve". With
--unbookmark, each post whose note was written is then removed from the
bookmarks; posts that failed are left in place.

Chrome is reached through --browser-url when set. Otherwise a browser is
launched with --user-data-dir so a logged-in profile can be reused.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("all", false, "scroll through every bookmark instead of the visible ones")
	runCmd.Flags().Bool("unbookmark", false, "remove bookmarks whose notes were saved")
	runCmd.Flags().String("endpoint", "http://127.0.0.1:8787", "submission endpoint base URL")
	runCmd.Flags().String("browser-url", "", "DevTools URL of a running Chrome")
	runCmd.Flags().String("user-data-dir", "", "Chrome profile directory for a launched browser")
	runCmd.Flags().Bool("headless", false, "launch Chrome headless")

	bindFlag("run.endpoint", runCmd.Flags().Lookup("endpoint"))
	bindFlag("run.browser_url", runCmd.Flags().Lookup("browser-url"))
	bindFlag("run.user_data_dir", runCmd.Flags().Lookup("user-data-dir"))

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")
	unbookmark, _ := cmd.Flags().GetBool("unbookmark")
	headless, _ := cmd.Flags().GetBool("headless")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	submitter := orchestrate.NewHTTPSubmitter(cfg.Run.Endpoint)
	if err := submitter.Health(ctx); err != nil {
		return fmt.Errorf("endpoint not reachable, is \"bookmark-vault serve\" running? %w", err)
	}

	book, err := ledger.Open(cfg.Run.StateDir, logger)
	if err != nil {
		return err
	}
	defer book.Close()

	session, err := browser.Open(ctx, browser.OptionsFromConfig(cfg.Run, headless), logger)
	if err != nil {
		return err
	}
	defer session.Close()

	tracker := orchestrate.NewTracker()
	tracker.Subscribe(book)
	tracker.Subscribe(orchestrate.ObserverFunc(logProgress))

	scraper := orchestrate.PageScraper{Extractor: extract.New(logger), Viewport: session}
	orch := orchestrate.New(tracker, scraper, submitter, removal.New(session, logger), logger)

	report, runErr := orch.Run(ctx, orchestrate.RunOptions{ScrapeAll: all, Unbookmark: unbookmark})
	if report.State.RunID != "" {
		if err := book.RecordItems(ctx, report.State.RunID, report.Items, report.Removals); err != nil {
			logger.Error().Err(err).Msg("recording run items")
		}
	}
	printSummary(report.State)
	return runErr
}

// logProgress reports every state change at debug level.
func logProgress(s types.ProcessState) {
	logger.Debug().
		Str("phase", string(s.Phase)).
		Int("total", s.Total).
		Int("processed", s.Processed).
		Int("removed", s.RemovalSucceeded).
		Msg("progress")
}

func printSummary(s types.ProcessState) {
	fmt.Fprintf(os.Stdout, "run %s: %s\n", s.RunID, s.Phase)
	fmt.Fprintf(os.Stdout, "  posts: %d  saved: %d  failed: %d\n", s.Total, s.Succeeded, s.Failed)
	if s.RemovalSucceeded+s.RemovalFailed > 0 {
		fmt.Fprintf(os.Stdout, "  removed: %d  not removed: %d\n", s.RemovalSucceeded, s.RemovalFailed)
	}
	if s.Error != "" {
		fmt.Fprintf(os.Stdout, "  error: %s\n", s.Error)
	}
}
