// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

// NewGenerator builds the Generator named by cfg.Provider. An empty provider
// selects Claude.
func NewGenerator(ctx context.Context, cfg types.AIConfig) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", cfg.Provider)
	}
	switch cfg.Provider {
	case types.ProviderClaude, "":
		return &ClaudeGenerator{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
			Client: &http.Client{Timeout: cfg.Timeout},
		}, nil
	case types.ProviderOpenAI:
		return NewOpenAIGenerator(cfg.APIKey, cfg.Model), nil
	case types.ProviderGemini:
		return NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
