// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads provider credentials from a directory of plain-text
// files, falling back to environment variables. Each file holds one secret:
// the filename is the key name and the trimmed contents are the value.
//
// Recognized files: anthropic-api-key, openai-api-key, gemini-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/bookmark-vault/pkg/types"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

type source struct {
	file string
	env  string
}

var providerKeys = map[types.Provider]source{
	types.ProviderClaude: {file: "anthropic-api-key", env: "ANTHROPIC_API_KEY"},
	types.ProviderOpenAI: {file: "openai-api-key", env: "OPENAI_API_KEY"},
	types.ProviderGemini: {file: "gemini-api-key", env: "GEMINI_API_KEY"},
}

// Store holds the secrets read from disk.
type Store struct {
	values map[string]string
	getenv func(string) string
}

// Load reads every file in dir. A missing directory is not an error and
// yields an empty store. Unreadable files are logged and skipped.
func Load(dir string, log zerolog.Logger) (*Store, error) {
	s := &Store{values: map[string]string{}, getenv: os.Getenv}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Str("secret", name).Err(err).Msg("could not read secret")
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s.values[name] = value
		}
	}

	if len(s.values) > 0 {
		log.Debug().Strs("keys", s.Names()).Msg("loaded secrets")
	}
	return s, nil
}

// Names returns the loaded secret names, sorted.
func (s *Store) Names() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the named secret file's value.
func (s *Store) Get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// APIKey returns the credential for provider: the secrets file first, then
// the provider's environment variable. It returns "" when neither is set.
func (s *Store) APIKey(provider types.Provider) string {
	if provider == "" {
		provider = types.ProviderClaude
	}
	src, ok := providerKeys[provider]
	if !ok {
		return ""
	}
	if v, ok := s.values[src.file]; ok {
		return v
	}
	return strings.TrimSpace(s.getenv(src.env))
}
