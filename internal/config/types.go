// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mthds/mthds/pkg/resolver"
	"github.com/mthds/mthds/pkg/vcs"
)

const (
	// LogLevelDebug shows resolver and fetch traces.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn shows warnings and errors only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError shows errors only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level the CLI logger emits.
	LogLevel string

	// InvalidConfigError collects every field that failed validation.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// GitConfig configures remote tag listing and cloning.
	GitConfig struct {
		// Timeout bounds each tag listing or clone.
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
		// AuthTokenEnv lists the environment variables checked for an HTTPS token.
		AuthTokenEnv []string `json:"auth_token_env" mapstructure:"auth_token_env"`
	}

	// ResolverConfig configures dependency resolution.
	ResolverConfig struct {
		// Concurrency bounds parallel tag listings and fetches.
		Concurrency int `json:"concurrency" mapstructure:"concurrency"`
	}

	// Config holds the application configuration.
	Config struct {
		// CacheDir is where fetched packages are checked out.
		CacheDir string         `json:"cache_dir" mapstructure:"cache_dir"`
		Git      GitConfig      `json:"git" mapstructure:"git"`
		Resolver ResolverConfig `json:"resolver" mapstructure:"resolver"`
		LogLevel LogLevel       `json:"log_level" mapstructure:"log_level"`
	}
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// Validate returns an error wrapping ErrInvalidLogLevel for unknown levels.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return fmt.Errorf("%w: %q (valid: debug, info, warn, error)", ErrInvalidLogLevel, string(l))
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig followed by the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultCacheDir returns ~/.mthds/packages.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".mthds", "packages")
	}
	return filepath.Join(home, ".mthds", "packages")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CacheDir: DefaultCacheDir(),
		Git: GitConfig{
			Timeout:      vcs.DefaultTimeout,
			AuthTokenEnv: slices.Clone(vcs.DefaultTokenEnv),
		},
		Resolver: ResolverConfig{
			Concurrency: resolver.DefaultConcurrency,
		},
		LogLevel: LogLevelInfo,
	}
}

// Validate checks constraints the schema cannot see, such as values that
// arrived through environment overrides.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.CacheDir) == "" {
		errs = append(errs, errors.New("cache_dir: must not be empty"))
	}
	if c.Git.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("git.timeout: must be positive, got %s", c.Git.Timeout))
	}
	if c.Resolver.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("resolver.concurrency: must be at least 1, got %d", c.Resolver.Concurrency))
	}
	if err := c.LogLevel.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// GitFetcherOptions maps the git section onto fetcher options.
func (c *Config) GitFetcherOptions() []vcs.FetcherOption {
	opts := []vcs.FetcherOption{vcs.WithTimeout(c.Git.Timeout)}
	if len(c.Git.AuthTokenEnv) > 0 {
		opts = append(opts, vcs.WithTokenEnv(c.Git.AuthTokenEnv...))
	}
	return opts
}
