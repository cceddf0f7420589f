
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bookmark-vault/internal/analyze"
	"github.com/pdiddy/bookmark-vault/internal/expand"
	"github.com/pdiddy/bookmark-vault/internal/notes"
	"github.com/pdiddy/bookmark-vault/internal/server"
	"github.com/pdiddy/bookmark-vault/internal/submit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the submission endpoint that writes notes",
	Long: `Serve listens for batches of scraped posts on POST /api/bookmarks. Each post
is checked against notes already in the vault, categorized by the configured
model provider, and written as a markdown note. GET /health reports liveness.

The provider key is read from .secrets/<provider>-api-key or the provider's
environment variable (ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8787", "listen address")
	serveCmd.Flags().String("provider", "claude", "model provider: claude, openai, gemini")
	serveCmd.Flags().String("model", "", "model override (provider default when empty)")
	serveCmd.Flags().Duration("ai-timeout", 0, "per-call generation timeout (default from config, 60s)")
	serveCmd.Flags().Bool("media", true, "render the Media section in notes")
	serveCmd.Flags().Bool("expand-links", false, "fetch and embed the article behind link posts")

	bindFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	bindFlag("ai.provider", serveCmd.Flags().Lookup("provider"))
	bindFlag("ai.model", serveCmd.Flags().Lookup("model"))
	bindFlag("features.media", serveCmd.Flags().Lookup("media"))
	bindFlag("features.expand_links", serveCmd.Flags().Lookup("expand-links"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if d, _ := cmd.Flags().GetDuration("ai-timeout"); d > 0 {
		cfg.AI.Timeout = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen, err := analyze.NewGenerator(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("configuring model provider: %w", err)
	}
	analyzer := analyze.New(gen, cfg.AI, logger)
	writer := notes.NewWriter(cfg.Vault, cfg.Features.Media, logger)

	var expander submit.Expander
	if cfg.Features.ExpandLinks {
		expander = expand.New(cfg.HTTP, logger)
	}

	proc := submit.NewProcessor(analyzer, writer, expander, logger)
	logger.Info().
		Str("provider", string(cfg.AI.Provider)).
		Str("notes", writer.Dir()).
		Bool("media", cfg.Features.Media).
		Bool("expand_links", cfg.Features.ExpandLinks).
		Msg("endpoint configured")

	return server.New(cfg.Server, proc, logger, version).ListenAndServe(ctx)
}
