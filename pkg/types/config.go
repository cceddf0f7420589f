// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "bookmark-vault/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// VaultConfig locates the notes folder.
type VaultConfig struct {
	// Root is the vault root directory.
	Root string `json:"root" yaml:"root" mapstructure:"root"`

	// Folder is the destination subfolder under Root (default "Bookmarks").
	Folder string `json:"folder" yaml:"folder" mapstructure:"folder"`
}

// Provider selects the text-generation backend.
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// AIConfig holds settings for the analyzer's generation capability.
type AIConfig struct {
	// Provider is one of claude, openai, gemini.
	Provider Provider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model overrides the provider's default model.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Timeout bounds a single generation call (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries is the number of additional attempts after a transport
	// failure. Unset means 2; 0 disables retries.
	MaxRetries *int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RequestsPerMinute caps the call rate; 0 means unlimited.
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// FeatureFlags toggles optional enrichment.
type FeatureFlags struct {
	// Media renders the Media section of notes.
	Media bool `json:"media" yaml:"media" mapstructure:"media"`

	// ExpandLinks fetches the first external link of link posts and stores
	// its readable content in the note.
	ExpandLinks bool `json:"expand_links" yaml:"expand_links" mapstructure:"expand_links"`
}

// ServerConfig holds settings for the submission endpoint.
type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`

	// MaxBatch caps the number of items accepted in one submission (default 500).
	MaxBatch int `json:"max_batch" yaml:"max_batch" mapstructure:"max_batch"`
}

// RunConfig holds settings for the orchestrator side.
type RunConfig struct {
	// Endpoint is the base URL of the submission endpoint.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// BrowserURL connects to an already running Chrome (DevTools URL).
	BrowserURL string `json:"browser_url" yaml:"browser_url" mapstructure:"browser_url"`

	// UserDataDir is the Chrome profile used when launching a browser.
	UserDataDir string `json:"user_data_dir" yaml:"user_data_dir" mapstructure:"user_data_dir"`

	// BookmarksURL is the page that lists the bookmarks.
	BookmarksURL string `json:"bookmarks_url" yaml:"bookmarks_url" mapstructure:"bookmarks_url"`

	// StateDir holds the run ledger database.
	StateDir string `json:"state_dir" yaml:"state_dir" mapstructure:"state_dir"`
}

// Config groups every section read from bookmark-vault.yaml.
type Config struct {
	Vault    VaultConfig  `json:"vault" yaml:"vault" mapstructure:"vault"`
	AI       AIConfig     `json:"ai" yaml:"ai" mapstructure:"ai"`
	Features FeatureFlags `json:"features" yaml:"features" mapstructure:"features"`
	Server   ServerConfig `json:"server" yaml:"server" mapstructure:"server"`
	Run      RunConfig    `json:"run" yaml:"run" mapstructure:"run"`
	HTTP     HTTPConfig   `json:"http" yaml:"http" mapstructure:"http"`
}
