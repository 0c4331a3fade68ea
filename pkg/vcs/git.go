// SPDX-License-Identifier: MPL-2.0

package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/go-git/go-git/v5/storage/memory"
)

// DefaultTimeout bounds a single tag listing or clone.
const DefaultTimeout = 60 * time.Second

// DefaultTokenEnv lists the environment variables checked, in order, for an
// HTTPS access token.
var DefaultTokenEnv = []string{"GITHUB_TOKEN", "GITLAB_TOKEN", "GIT_TOKEN"}

// tokenUsers maps a token variable to the username its host expects.
var tokenUsers = map[string]string{
	"GITHUB_TOKEN": "x-access-token",
	"GITLAB_TOKEN": "gitlab-ci-token",
}

type (
	// GitFetcher lists tags of and clones Git repositories.
	GitFetcher struct {
		// Timeout bounds each remote operation. Zero means DefaultTimeout.
		Timeout time.Duration
		// TokenEnv overrides DefaultTokenEnv.
		TokenEnv []string

		// getenv and homeDir are replaceable in tests.
		getenv  func(string) string
		homeDir func() (string, error)
	}

	// FetcherOption configures a GitFetcher.
	FetcherOption func(*GitFetcher)
)

// WithTimeout sets the per-operation timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *GitFetcher) { f.Timeout = d }
}

// WithTokenEnv sets the environment variables searched for an access token.
func WithTokenEnv(names ...string) FetcherOption {
	return func(f *GitFetcher) { f.TokenEnv = names }
}

// NewGitFetcher creates a new Git fetcher.
func NewGitFetcher(opts ...FetcherOption) *GitFetcher {
	f := &GitFetcher{
		Timeout:  DefaultTimeout,
		TokenEnv: DefaultTokenEnv,
		getenv:   os.Getenv,
		homeDir:  os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ListTags returns the names of all tags of the repository at url, in the
// order the remote advertises them.
func (f *GitFetcher) ListTags(ctx context.Context, url string) ([]string, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{
		Auth:          f.authFor(url),
		PeelingOption: git.IgnorePeeled,
	})
	if err != nil {
		// An empty repository has no refs and therefore no tags.
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return nil, nil
		}
		return nil, f.wrap(ctx, "ls-remote", url, err)
	}
	return tagNames(refs), nil
}

// CloneAtTag makes a shallow clone of url at tag into dest and returns the
// checked-out commit. The clone lands in a sibling temp directory first, so
// dest either holds a complete checkout or does not exist.
func (f *GitFetcher) CloneAtTag(ctx context.Context, url, tag, dest string) (string, error) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create parent directory: %w", err)
	}

	var lastErr error
	for _, name := range tagCandidates(tag) {
		tmp, err := os.MkdirTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".clone-*")
		if err != nil {
			return "", fmt.Errorf("failed to create clone directory: %w", err)
		}

		repo, err := git.PlainCloneContext(ctx, tmp, false, &git.CloneOptions{
			URL:           url,
			Auth:          f.authFor(url),
			ReferenceName: plumbing.NewTagReferenceName(name),
			SingleBranch:  true,
			Depth:         1,
			Tags:          git.NoTags,
		})
		if err != nil {
			_ = os.RemoveAll(tmp)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		head, err := repo.Head()
		if err != nil {
			_ = os.RemoveAll(tmp)
			return "", f.wrap(ctx, "clone", url, fmt.Errorf("failed to get HEAD: %w", err))
		}
		if err := os.Rename(tmp, dest); err != nil {
			_ = os.RemoveAll(tmp)
			return "", fmt.Errorf("failed to move clone into place: %w", err)
		}
		return head.Hash().String(), nil
	}

	return "", f.wrap(ctx, "clone", url, fmt.Errorf("tag %s: %w", tag, lastErr))
}

func (f *GitFetcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (f *GitFetcher) wrap(ctx context.Context, op, url string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	return &VCSError{Op: op, URL: url, Err: err, Retryable: false}
}

// authFor picks credentials matching the URL's transport: SSH keys for SSH
// URLs, an access token from the environment for HTTPS.
func (f *GitFetcher) authFor(url string) transport.AuthMethod {
	if strings.HasPrefix(url, "git@") || strings.HasPrefix(url, "ssh://") {
		return f.sshAuth()
	}
	if strings.HasPrefix(url, "https://") {
		return f.tokenAuth()
	}
	return nil
}

func (f *GitFetcher) sshAuth() transport.AuthMethod {
	if f.homeDir == nil {
		return nil
	}
	home, err := f.homeDir()
	if err != nil {
		return nil
	}
	for _, key := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		keyPath := filepath.Join(home, ".ssh", key)
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if auth, err := ssh.NewPublicKeysFromFile("git", keyPath, ""); err == nil {
			return auth
		}
	}
	return nil
}

func (f *GitFetcher) tokenAuth() transport.AuthMethod {
	getenv := f.getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, name := range f.TokenEnv {
		token := getenv(name)
		if token == "" {
			continue
		}
		user, ok := tokenUsers[name]
		if !ok {
			user = "git"
		}
		return &http.BasicAuth{Username: user, Password: token}
	}
	return nil
}

func tagNames(refs []*plumbing.Reference) []string {
	var names []string
	for _, ref := range refs {
		if !ref.Name().IsTag() {
			continue
		}
		name := ref.Name().Short()
		if strings.HasSuffix(name, "^{}") {
			continue
		}
		names = append(names, name)
	}
	return names
}

// tagCandidates returns tag and its counterpart with or without a "v" prefix.
func tagCandidates(tag string) []string {
	if noV, found := strings.CutPrefix(tag, "v"); found {
		return []string{tag, noV}
	}
	return []string{tag, "v" + tag}
}
