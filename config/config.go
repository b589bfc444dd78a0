// Package config loads tool configuration with koanf.
// Priority: environment variables > config file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/menghanl/changelog-gen/changelog"
)

const envPrefix = "CHANGELOG_"

// Config is the tool configuration.
type Config struct {
	// Token is the github access token. Optional; unauthenticated requests
	// work under lower rate limits. Also read from GITHUB_TOKEN.
	Token string `koanf:"token"`

	// Mapping configures the label to section mapping.
	Mapping changelog.Mapping `koanf:"mapping"`
}

// Load loads configuration from an optional YAML file at path (empty path
// skips the file layer) and CHANGELOG_* environment variables. GITHUB_TOKEN
// is honored as a fallback token source, matching the original env contract.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// A present-but-empty variable must not clobber file config, so empty
	// values are dropped from the env layer.
	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return envTransform(key), value
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment config: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Token == "" {
		cfg.Token = os.Getenv("GITHUB_TOKEN")
	}

	def := changelog.DefaultMapping()
	if len(cfg.Mapping.Categories) == 0 {
		cfg.Mapping.Categories = def.Categories
	}
	if len(cfg.Mapping.Labels) == 0 {
		cfg.Mapping.Labels = def.Labels
	}
	if cfg.Mapping.Default == "" {
		cfg.Mapping.Default = def.Default
	}
	return cfg, nil
}

// envTransform converts environment variable names to config keys.
// Example: CHANGELOG_TOKEN -> token.
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, envPrefix))
}
