// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bookmark-vault CLI.
//
// serve runs the submission endpoint that turns posts into notes; run drives
// the browser, sends the scraped batch to the endpoint, and optionally
// removes the saved bookmarks; history prints the run ledger.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/bookmark-vault/internal/secrets"
	"github.com/pdiddy/bookmark-vault/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Process-wide state built in PersistentPreRunE.
var (
	logger        zerolog.Logger
	loadedSecrets *secrets.Store
)

var rootCmd = &cobra.Command{
	Use:   "bookmark-vault",
	Short: "Turn saved social media bookmarks into categorized markdown notes",
	Long: `bookmark-vault scrapes your bookmarks, asks a language model to categorize
each post, and writes one markdown note per post into a notes vault. Once a
note is safely on disk the original bookmark can be removed.

Start the endpoint with "bookmark-vault serve", then process bookmarks with
"bookmark-vault run".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		logger = newLogger(debug)

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./bookmark-vault.yaml or ~/.config/bookmark-vault/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("vault", ".", "vault root directory")
	rootCmd.PersistentFlags().String("folder", "Bookmarks", "notes folder inside the vault")
	rootCmd.PersistentFlags().String("state-dir", ".bookmark-vault", "directory for the run ledger")

	bindFlag("vault.root", rootCmd.PersistentFlags().Lookup("vault"))
	bindFlag("vault.folder", rootCmd.PersistentFlags().Lookup("folder"))
	bindFlag("run.state_dir", rootCmd.PersistentFlags().Lookup("state-dir"))

	setDefaults()
}

// setDefaults registers every config key so environment overrides apply
// even without a config file.
func setDefaults() {
	viper.SetDefault("vault.root", ".")
	viper.SetDefault("vault.folder", "Bookmarks")
	viper.SetDefault("server.addr", "127.0.0.1:8787")
	viper.SetDefault("server.allowed_origins", []string{"chrome-extension://*", "https://x.com"})
	viper.SetDefault("server.max_batch", 500)
	viper.SetDefault("ai.provider", string(types.ProviderClaude))
	viper.SetDefault("ai.model", "")
	viper.SetDefault("ai.timeout", 60*time.Second)
	viper.SetDefault("ai.max_retries", 2)
	viper.SetDefault("ai.requests_per_minute", 0)
	viper.SetDefault("features.media", true)
	viper.SetDefault("features.expand_links", false)
	viper.SetDefault("run.endpoint", "http://127.0.0.1:8787")
	viper.SetDefault("run.browser_url", "")
	viper.SetDefault("run.user_data_dir", "")
	viper.SetDefault("run.bookmarks_url", "https://x.com/i/bookmarks")
	viper.SetDefault("run.state_dir", ".bookmark-vault")
	viper.SetDefault("http.timeout", 30*time.Second)
	viper.SetDefault("http.user_agent", "bookmark-vault/"+version)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bookmark-vault")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bookmark-vault"))
		}
	}

	viper.SetEnvPrefix("BOOKMARK_VAULT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes viper state into a Config and fills in the provider
// credential from the secrets store.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	if cfg.AI.APIKey == "" && loadedSecrets != nil {
		cfg.AI.APIKey = loadedSecrets.APIKey(cfg.AI.Provider)
	}
	return cfg, nil
}

// bindFlag binds a config key to a flag so an explicit flag overrides the
// config file and environment.
func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag for %s: %v", key, err))
	}
}

// newLogger writes human-readable output to a terminal and JSON otherwise.
func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	var l zerolog.Logger
	if isTerminal(os.Stderr) {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		l = zerolog.New(os.Stderr)
	}
	return l.Level(level).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
