// Package source keeps a local clone of the git repository holding the
// documentation sources.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/docsite/internal/config"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Result describes the checkout a Sync produced.
type Result struct {
	Dir     string // Clone directory
	Commit  string // HEAD commit hash
	Cloned  bool   // A fresh clone was made
	Updated bool   // HEAD moved
}

// Sync clones repo into repo.CacheDir, or fetches and hard-resets an
// existing clone to the remote branch head.
func Sync(ctx context.Context, repo config.RepositoryConfig) (Result, error) {
	dir := repo.CacheDir
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		r, err := git.PlainOpen(dir)
		if err == nil && originURL(r) == repo.URL {
			return update(ctx, r, dir, repo)
		}
		slog.Info("Discarding clone with different origin", logfields.Path(dir), logfields.Repository(repo.URL))
	}
	return clone(ctx, dir, repo)
}

func clone(ctx context.Context, dir string, repo config.RepositoryConfig) (Result, error) {
	if err := os.RemoveAll(dir); err != nil {
		return Result{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "remove stale clone").
			WithContext("path", dir).Build()
	}

	opts := &git.CloneOptions{
		URL:   repo.URL,
		Depth: repo.Depth,
		Auth:  authFor(repo),
	}
	if repo.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(repo.Branch)
		opts.SingleBranch = true
	}

	slog.Debug("Cloning repository", logfields.Repository(repo.URL), logfields.Branch(repo.Branch), logfields.Path(dir))
	r, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return Result{}, classify(err, "clone repository", repo)
	}

	commit, err := headCommit(r)
	if err != nil {
		return Result{}, err
	}
	slog.Info("Repository cloned", logfields.Repository(repo.URL), logfields.Commit(short(commit)), logfields.Path(dir))
	return Result{Dir: dir, Commit: commit, Cloned: true, Updated: true}, nil
}

func update(ctx context.Context, r *git.Repository, dir string, repo config.RepositoryConfig) (Result, error) {
	before, err := headCommit(r)
	if err != nil {
		return Result{}, err
	}

	branch := repo.Branch
	if branch == "" {
		head, err := r.Head()
		if err != nil {
			return Result{}, ferrors.WrapError(err, ferrors.CategoryGit, "resolve HEAD").Build()
		}
		if !head.Name().IsBranch() {
			return Result{}, ferrors.GitError("clone HEAD is detached and no branch is configured").
				WithContext("path", dir).Build()
		}
		branch = head.Name().Short()
	}

	remoteRef := plumbing.NewRemoteReferenceName("origin", branch)
	fetch := &git.FetchOptions{
		RemoteName: "origin",
		RefSpecs:   []ggitcfg.RefSpec{ggitcfg.RefSpec(fmt.Sprintf("+refs/heads/%s:%s", branch, remoteRef))},
		Depth:      repo.Depth,
		Auth:       authFor(repo),
		Force:      true,
	}
	if err := r.FetchContext(ctx, fetch); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return Result{}, classify(err, "fetch repository", repo)
	}

	ref, err := r.Reference(remoteRef, true)
	if err != nil {
		return Result{}, ferrors.WrapError(err, ferrors.CategoryGit, "resolve remote branch").
			WithContext("branch", branch).Build()
	}

	wt, err := r.Worktree()
	if err != nil {
		return Result{}, ferrors.WrapError(err, ferrors.CategoryGit, "open worktree").Build()
	}
	if err := wt.Reset(&git.ResetOptions{Commit: ref.Hash(), Mode: git.HardReset}); err != nil {
		return Result{}, ferrors.WrapError(err, ferrors.CategoryGit, "reset worktree").
			WithContext("commit", ref.Hash().String()).Build()
	}

	after := ref.Hash().String()
	if after == before {
		slog.Info("Repository already up to date", logfields.Repository(repo.URL), logfields.Commit(short(after)))
	} else {
		slog.Info("Repository updated", logfields.Repository(repo.URL), logfields.Branch(branch), logfields.Commit(short(after)))
	}
	return Result{Dir: dir, Commit: after, Updated: after != before}, nil
}

func authFor(repo config.RepositoryConfig) transport.AuthMethod {
	if repo.Token == "" {
		return nil
	}
	// Forges accept any non-empty user name with a token password.
	return &http.BasicAuth{Username: "token", Password: repo.Token}
}

func originURL(r *git.Repository) string {
	remote, err := r.Remote("origin")
	if err != nil || len(remote.Config().URLs) == 0 {
		return ""
	}
	return remote.Config().URLs[0]
}

func headCommit(r *git.Repository) (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryGit, "resolve HEAD").Build()
	}
	return head.Hash().String(), nil
}

func classify(err error, op string, repo config.RepositoryConfig) error {
	b := ferrors.WrapError(err, ferrors.CategoryGit, op).
		WithContext("url", repo.URL).
		WithContext("branch", repo.Branch)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		b = ferrors.CanceledError(op).WithCause(err).WithContext("url", repo.URL)
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrRepositoryNotFound):
		b = b.WithSeverity(ferrors.SeverityFatal)
	default:
		b = b.Retryable()
	}
	return b.Build()
}

func short(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
