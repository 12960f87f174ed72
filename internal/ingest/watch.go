package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"semcore/internal/block"
	"semcore/internal/logging"
	"semcore/internal/model"
)

// MigrationEvent reports one incremental re-commit triggered by Watch.
type MigrationEvent struct {
	MigrationID string
	Path        string
	Err         error
}

// Watch monitors rootDir for file writes, debouncing rapid saves into a
// single recommit per file. A file with no committed container yet is
// staged and committed as a new container; a write to a file that already
// has one is logged and skipped, so existing blocks, relationships and
// versions are not updated. It is an enrichment of C6, not part of
// the one-shot Ingest pipeline: a caller opts in explicitly and is
// responsible for having ingested migrationID first.
func (c *Coordinator) Watch(ctx context.Context, migrationID, rootDir string, debounce time.Duration) (<-chan MigrationEvent, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := addRecursive(w, rootDir); err != nil {
		w.Close()
		return nil, err
	}

	events := make(chan MigrationEvent, 16)

	go func() {
		defer close(events)
		defer w.Close()

		var mu sync.Mutex
		pending := make(map[string]time.Time)
		ticker := time.NewTicker(debounce / 2)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if _, recognized := c.registry.ForExtension(filepath.Ext(ev.Name)); !recognized {
					continue
				}
				mu.Lock()
				pending[ev.Name] = time.Now()
				mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logging.Get(logging.CategoryIngest).Warn("watch: %v", err)
			case <-ticker.C:
				mu.Lock()
				due := make([]string, 0, len(pending))
				now := time.Now()
				for path, t := range pending {
					if now.Sub(t) >= debounce {
						due = append(due, path)
						delete(pending, path)
					}
				}
				mu.Unlock()
				for _, path := range due {
					rel, err := filepath.Rel(rootDir, path)
					if err != nil {
						rel = path
					}
					err = c.recommitFile(migrationID, rootDir, rel)
					events <- MigrationEvent{MigrationID: migrationID, Path: rel, Err: err}
				}
			}
		}
	}()

	return events, nil
}

func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if isExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}

// recommitFile stages and commits one newly-created file as a brand-new
// container, the same C2->C3 path Ingest uses per file. A write to a file
// that already has a committed container is logged and skipped rather than
// applied: updating an existing container's blocks in place means diffing
// every old block against the new extraction and routing each match
// through CommitBlockChange (C4) - real per-block revision history, not a
// container replace - which is future work tracked in DESIGN.md rather
// than approximated here with a silent overwrite.
func (c *Coordinator) recommitFile(migrationID, rootDir, relPath string) error {
	if existing, err := c.store.FindContainerByPath(migrationID, relPath); err == nil && existing != nil {
		logging.Get(logging.CategoryIngest).Warn("watch: %s already ingested as container %s; in-place updates are not yet supported", relPath, existing.ID)
		return nil
	}

	content, err := os.ReadFile(filepath.Join(rootDir, relPath))
	if err != nil {
		return err
	}
	provider, ok := c.registry.ForExtension(filepath.Ext(relPath))
	if !ok {
		return nil
	}

	containerID := uuid.NewString()
	result, err := block.Extract(context.Background(), provider, containerID, relPath, content, uuid.NewString)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	container := &model.Container{
		ID:            containerID,
		Name:          filepath.Base(relPath),
		ContainerType: model.ContainerFile,
		Language:      provider.Language(),
		OriginalPath:  relPath,
		OriginalHash:  block.H(string(content)),
		Version:       1,
		MigrationID:   migrationID,
		CreatedAt:     now,
		UpdatedAt:     now,
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

	if err := c.store.CommitContainer(container, result.Blocks, result.Relationships, versions); err != nil {
		return err
	}
	logging.Audit(logging.EventContainerIngested, containerID, migrationID, provider.Language(), relPath)
	return nil
}
