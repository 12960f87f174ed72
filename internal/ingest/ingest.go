// Package ingest implements the Ingest Coordinator (C6): it materializes a
// repository, fans parsing and extraction out across a bounded worker pool,
// commits each container transactionally to the Semantic Store (C3), then
// resolves cross-container relationship targets before marking the
// Migration complete.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"semcore/internal/block"
	"semcore/internal/config"
	semerrors "semcore/internal/errors"
	"semcore/internal/lang"
	"semcore/internal/logging"
	"semcore/internal/model"
	"semcore/internal/store"
)

// Options configures one ingest run.
type Options struct {
	IncludeTests  bool
	MaxFileBytes  int64
	MaxTotalBytes int64
	ParseTimeout  time.Duration
	WorkerThreads int
	// Languages restricts ingestion to the named languages; nil/empty means
	// "auto" - every language the registry recognizes.
	Languages map[string]bool
}

// OptionsFromConfig builds Options from the engine's loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		IncludeTests:  cfg.Ingest.IncludeTests,
		MaxFileBytes:  cfg.Ingest.MaxFileBytes,
		MaxTotalBytes: cfg.Ingest.MaxTotalBytes,
		ParseTimeout:  cfg.ParseTimeout(),
		WorkerThreads: cfg.Ingest.WorkerThreads,
	}
}

// Coordinator runs ingest pipelines against one store/registry pair.
type Coordinator struct {
	store    *store.Store
	registry *lang.Registry
	opts     Options
	vcs      VCSClient
}

// New constructs a Coordinator. vcs may be nil, in which case GitCLIClient
// is used.
func New(st *store.Store, registry *lang.Registry, opts Options, vcs VCSClient) *Coordinator {
	if vcs == nil {
		vcs = GitCLIClient{}
	}
	if opts.WorkerThreads <= 0 {
		opts.WorkerThreads = 1
	}
	return &Coordinator{store: st, registry: registry, opts: opts, vcs: vcs}
}

// stagedContainer is one file's fully extracted, not-yet-committed result.
type stagedContainer struct {
	container *model.Container
	blocks    []*model.Block
	rels      []model.BlockRelationship
	versions  []*model.BlockVersion
}

// Ingest runs the full C6 pipeline and returns the created migration id.
func (c *Coordinator) Ingest(ctx context.Context, src RepoSource) (string, error) {
	timer := logging.StartTimer(logging.CategoryIngest, "ingest")
	defer timer.Stop()

	tree, err := c.materialize(ctx, src)
	if err != nil {
		return "", err
	}
	defer tree.cleanup()

	migration := &model.Migration{
		ID:         uuid.NewString(),
		RepoName:   tree.repoName,
		RepoURL:    src.URL,
		CommitHash: tree.commitHash,
		Status:     model.MigrationInProgress,
		CreatedAt:  time.Now().UTC(),
	}
	if err := c.store.CreateMigration(migration); err != nil {
		return "", err
	}
	logging.Audit(logging.EventMigrationStatus, migration.ID, string(model.MigrationInProgress), 0)

	files, skipCounts, totalBytes, err := c.enumerate(tree.dir)
	if err != nil {
		_ = c.store.UpdateMigrationStatus(migration.ID, model.MigrationFailed, model.MigrationStats{Errors: []string{err.Error()}})
		return migration.ID, err
	}
	if totalBytes > c.opts.MaxTotalBytes {
		stats := model.MigrationStats{
			Bytes:           totalBytes,
			SkippedByReason: skipCounts,
			Errors:          []string{"total ingest size exceeds MAX_TOTAL_BYTES budget"},
		}
		_ = c.store.UpdateMigrationStatus(migration.ID, model.MigrationFailed, stats)
		return migration.ID, semerrors.Wrapf(semerrors.KindInput, "ingest.Ingest", migration.ID,
			"total bytes %d exceeds budget %d", totalBytes, c.opts.MaxTotalBytes)
	}

	start := time.Now()
	staged, skippedDuring, diagnostics, cancelled := c.stageAll(ctx, tree.dir, files)
	for reason, n := range skippedDuring {
		skipCounts[reason] += n
	}

	committed, commitErrs := c.commitAll(migration.ID, staged)

	resolvedCount, resolveErr := c.resolveUnresolved(migration.ID)
	if resolveErr != nil {
		diagnostics = append(diagnostics, resolveErr.Error())
	}
	logging.Get(logging.CategoryIngest).Debug("resolved %d cross-container relationships", resolvedCount)

	blocksCount, relsCount := 0, 0
	for _, sc := range committed {
		blocksCount += len(sc.blocks)
		relsCount += len(sc.rels)
	}

	stats := model.MigrationStats{
		Files:           len(committed),
		Blocks:          blocksCount,
		Relationships:   relsCount,
		Bytes:           totalBytes,
		Duration:        time.Since(start),
		SkippedByReason: skipCounts,
		Errors:          append(append([]string{}, diagnostics...), commitErrs...),
	}

	status := model.MigrationCompleted
	if cancelled {
		status = model.MigrationFailed
		stats.Errors = append(stats.Errors, "cancelled")
	}
	if err := c.store.UpdateMigrationStatus(migration.ID, status, stats); err != nil {
		return migration.ID, err
	}
	logging.Audit(logging.EventMigrationStatus, migration.ID, string(status), stats.Files)

	if cancelled {
		return migration.ID, semerrors.New(semerrors.KindCancelled, "ingest.Ingest", migration.ID, ctx.Err())
	}
	return migration.ID, nil
}

type discoveredFile struct {
	absPath string
	relPath string
	size    int64
}

// enumerate walks dir for files the registry recognizes, applying the
// include-tests and per-file size filters; it returns the surviving files,
// a running count of files skipped by reason, and the total bytes those
// surviving files carry (the figure MAX_TOTAL_BYTES bounds).
func (c *Coordinator) enumerate(dir string) ([]discoveredFile, map[string]int, int64, error) {
	skipped := map[string]int{}
	var files []discoveredFile
	var total int64

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

		ext := filepath.Ext(path)
		if _, ok := c.registry.ForExtension(ext); !ok {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if !c.opts.IncludeTests && isTestPath(rel) {
			skipped["input/excluded_test"]++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			skipped["input/unreadable"]++
			return nil
		}
		if c.opts.MaxFileBytes > 0 && info.Size() > c.opts.MaxFileBytes {
			skipped["input/too_large"]++
			return nil
		}

		files = append(files, discoveredFile{absPath: path, relPath: rel, size: info.Size()})
		total += info.Size()
		return nil
	})
	if err != nil {
		return nil, nil, 0, semerrors.New(semerrors.KindInput, "ingest.enumerate", dir, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].relPath < files[j].relPath })
	return files, skipped, total, nil
}

func isExcludedDir(name string) bool {
	if name == ".git" || name == ".semcore" {
		return true
	}
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// isTestPath flags a file as test code by the same naming-convention
// vocabulary C2's resolveTests uses for test-of-block edges: Go's _test.go,
// pytest's test_*.py, and a test/tests directory segment.
func isTestPath(relPath string) bool {
	base := filepath.Base(relPath)
	if strings.HasSuffix(base, "_test.go") || strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py") {
		return true
	}
	for _, seg := range strings.Split(filepath.ToSlash(filepath.Dir(relPath)), "/") {
		if seg == "test" || seg == "tests" || seg == "__tests__" {
			return true
		}
	}
	return false
}

// stageAll extracts every file concurrently, bounded by opts.WorkerThreads,
// and returns the staged containers plus diagnostics. cancelled is true
// only when the caller's ctx itself was cancelled; per-file Input/Parse
// failures are recovered locally and never set it.
func (c *Coordinator) stageAll(ctx context.Context, rootDir string, files []discoveredFile) ([]*stagedContainer, map[string]int, []string, bool) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.WorkerThreads)

	var mu sync.Mutex
	var staged []*stagedContainer
	skipped := map[string]int{}
	var diagnostics []string

	for _, f := range files {
		f := f
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			sc, reason, diag, err := c.stageOne(gctx, f)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				skipped[reason]++
				diagnostics = append(diagnostics, diag)
				mu.Unlock()
				return nil
			}
			mu.Lock()
			staged = append(staged, sc)
			mu.Unlock()
			return nil
		})
	}

	cancelled := g.Wait() != nil
	sort.Slice(staged, func(i, j int) bool { return staged[i].container.OriginalPath < staged[j].container.OriginalPath })
	return staged, skipped, diagnostics, cancelled
}

func (c *Coordinator) stageOne(ctx context.Context, f discoveredFile) (*stagedContainer, string, string, error) {
	content, err := os.ReadFile(f.absPath)
	if err != nil {
		return nil, "input/unreadable", err.Error(), err
	}

	provider, ok := c.registry.ForExtension(filepath.Ext(f.absPath))
	if !ok {
		return nil, "input/unrecognized_extension", "no provider for " + f.relPath, semerrors.Wrapf(semerrors.KindInput, "ingest.stageOne", f.relPath, "unrecognized extension")
	}
	if len(c.opts.Languages) > 0 && !c.opts.Languages[provider.Language()] {
		return nil, "input/language_excluded", f.relPath + " excluded by language filter", semerrors.Wrapf(semerrors.KindInput, "ingest.stageOne", f.relPath, "language excluded")
	}

	parseCtx := ctx
	var cancel context.CancelFunc
	if c.opts.ParseTimeout > 0 {
		parseCtx, cancel = context.WithTimeout(ctx, c.opts.ParseTimeout)
		defer cancel()
	}

	containerID := uuid.NewString()
	result, err := block.Extract(parseCtx, provider, containerID, f.relPath, content, uuid.NewString)
	if err != nil {
		if ctx.Err() == nil && parseCtx.Err() != nil {
			return nil, "parse/partial", "parse timeout: " + f.relPath, err
		}
		return nil, "parse/failed", err.Error(), err
	}

	now := time.Now().UTC()
	container := &model.Container{
		ID:            containerID,
		Name:          filepath.Base(f.relPath),
		ContainerType: model.ContainerFile,
		Language:      provider.Language(),
		OriginalPath:  f.relPath,
		OriginalHash:  block.H(string(content)),
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if len(result.Diagnostics) > 0 {
		container.ParsingMetadata = map[string]interface{}{"diagnostic_count": len(result.Diagnostics)}
	}

	versions := make([]*model.BlockVersion, 0, len(result.Blocks))
	for _, b := range result.Blocks {
		versions = append(versions, &model.BlockVersion{
			ID:            uuid.NewString(),
			BlockID:       b.ID,
			VersionNumber: 1,
			SemanticHash:  block.SemanticHash(b),
			SyntaxHash:    block.SyntaxHash(b),
			CreatedAt:     now,
		})
	}

	return &stagedContainer{container: container, blocks: result.Blocks, rels: result.Relationships, versions: versions}, "", "", nil
}

// commitAll writes every staged container transactionally; a Semantic or
// Storage failure aborts only that container, recorded as a diagnostic
// rather than failing the migration.
func (c *Coordinator) commitAll(migrationID string, staged []*stagedContainer) ([]*stagedContainer, []string) {
	var committed []*stagedContainer
	var errs []string
	for _, sc := range staged {
		sc.container.MigrationID = migrationID
		if err := c.store.CommitContainer(sc.container, sc.blocks, sc.rels, sc.versions); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		logging.Audit(logging.EventContainerIngested, sc.container.ID, migrationID, sc.container.Language, sc.container.OriginalPath)
		committed = append(committed, sc)
	}
	return committed, errs
}
