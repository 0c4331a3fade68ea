// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/mthds/mthds/internal/config"
	"github.com/mthds/mthds/internal/discovery"
	"github.com/mthds/mthds/pkg/resolver"
	"github.com/mthds/mthds/pkg/vcs"
)

type (
	// App wires CLI services and shared dependencies. Every Cobra handler
	// receives an App and delegates through it.
	App struct {
		Config  ConfigProvider
		Sources SourceFactory
		stdout  io.Writer
		stderr  io.Writer

		// issueStyle is the glamour style used for issue help.
		issueStyle string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     ConfigProvider
		Sources    SourceFactory
		Stdout     io.Writer
		Stderr     io.Writer
		IssueStyle string
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// PackageSource lists and fetches packages; it serves both dependency
	// resolution and remote method discovery.
	PackageSource interface {
		resolver.Source
		discovery.Fetcher
	}

	// SourceFactory builds the package source for a loaded configuration.
	SourceFactory func(cfg *config.Config) PackageSource
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Sources == nil {
		deps.Sources = gitSource
	}
	if deps.IssueStyle == "" {
		deps.IssueStyle = "dark"
	}

	return &App{
		Config:     deps.Config,
		Sources:    deps.Sources,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		issueStyle: deps.IssueStyle,
	}
}

// gitSource is the production SourceFactory: a Git fetcher writing into the
// configured package cache.
func gitSource(cfg *config.Config) PackageSource {
	return vcs.NewGitSource(cfg.CacheDir, vcs.NewGitFetcher(cfg.GitFetcherOptions()...))
}
