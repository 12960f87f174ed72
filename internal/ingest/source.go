package ingest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"semcore/internal/block"
	semerrors "semcore/internal/errors"
)

// RepoSource names the repository to ingest: either a local filesystem path
// or a VCS URL plus an optional ref. Exactly one of Path or URL must be
// set.
type RepoSource struct {
	Path string
	URL  string
	Ref  string
}

func (r RepoSource) validate() error {
	if r.Path == "" && r.URL == "" {
		return semerrors.Wrapf(semerrors.KindInput, "ingest.RepoSource", "", "one of Path or URL is required")
	}
	if r.Path != "" && r.URL != "" {
		return semerrors.Wrapf(semerrors.KindInput, "ingest.RepoSource", "", "Path and URL are mutually exclusive")
	}
	return nil
}

// VCSClient is an external collaborator, consumed rather than implemented
// here: clone(url, ref, dest) with exit-code semantics. GitCLIClient is
// the one concrete implementation the coordinator ships with, shelling
// out to the git binary.
type VCSClient interface {
	Clone(ctx context.Context, url, ref, dest string) error
}

// GitCLIClient clones via the system git binary.
type GitCLIClient struct{}

func (GitCLIClient) Clone(ctx context.Context, url, ref, dest string) error {
	args := []string{"clone", "--depth", "1"}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	args = append(args, url, dest)

	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return semerrors.New(semerrors.KindExternal, "ingest.GitCLIClient.Clone", url, fmt.Errorf("%s: %w", out, err))
	}
	return nil
}

// workingTree is the materialized state of one RepoSource: a directory on
// disk plus the repo-level commit hash recorded on the Migration.
type workingTree struct {
	dir        string
	commitHash string
	repoName   string
	cleanup    func()
}

func (c *Coordinator) materialize(ctx context.Context, src RepoSource) (*workingTree, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}

	if src.Path != "" {
		hash, err := repoCommitHash(src.Path)
		if err != nil {
			return nil, err
		}
		return &workingTree{dir: src.Path, commitHash: hash, repoName: filepath.Base(filepath.Clean(src.Path)), cleanup: func() {}}, nil
	}

	dest, err := os.MkdirTemp("", "semcore-ingest-*")
	if err != nil {
		return nil, semerrors.New(semerrors.KindExternal, "ingest.materialize", src.URL, err)
	}
	cleanup := func() { os.RemoveAll(dest) }

	if err := c.vcs.Clone(ctx, src.URL, src.Ref, dest); err != nil {
		cleanup()
		return nil, err
	}
	hash, err := repoCommitHash(dest)
	if err != nil {
		cleanup()
		return nil, err
	}
	return &workingTree{dir: dest, commitHash: hash, repoName: repoNameFromURL(src.URL), cleanup: cleanup}, nil
}

// repoCommitHash prefers the working tree's actual git HEAD; a plain
// directory (no .git, or git unavailable) falls back to a content hash of
// its sorted relative file paths, so a Migration still carries a stable,
// reproducible commit_hash instead of an empty one.
func repoCommitHash(dir string) (string, error) {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		cmd := exec.Command("git", "-C", dir, "rev-parse", "HEAD")
		if out, err := cmd.Output(); err == nil {
			return trimNewline(string(out)), nil
		}
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if isExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return "", semerrors.New(semerrors.KindInput, "ingest.repoCommitHash", dir, err)
	}
	sort.Strings(paths)
	return block.H(paths...), nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func repoNameFromURL(url string) string {
	base := filepath.Base(url)
	for _, suffix := range []string{".git"} {
		if len(base) > len(suffix) && base[len(base)-len(suffix):] == suffix {
			return base[:len(base)-len(suffix)]
		}
	}
	return base
}
