package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"semcore/internal/lang"
	"semcore/internal/model"
	"semcore/internal/store"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newTestCoordinator(t *testing.T, opts Options) (*Coordinator, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	if opts.WorkerThreads == 0 {
		opts.WorkerThreads = 2
	}
	if opts.MaxFileBytes == 0 {
		opts.MaxFileBytes = 1 << 20
	}
	if opts.MaxTotalBytes == 0 {
		opts.MaxTotalBytes = 10 << 20
	}
	return New(st, lang.NewRegistry(), opts, nil), st
}

func TestIngestLocalPathProducesCompletedMigration(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n\nfunc add(a int, b int) int {\n\treturn a + b\n}\n")
	writeFile(t, dir, "util.py", "def greet(name):\n    return 'hi ' + name\n")

	c, st := newTestCoordinator(t, Options{IncludeTests: true})

	migrationID, err := c.Ingest(context.Background(), RepoSource{Path: dir})
	require.NoError(t, err)

	m, err := st.GetMigration(migrationID)
	require.NoError(t, err)
	require.Equal(t, model.MigrationCompleted, m.Status)
	require.Equal(t, 2, m.Stats.Files)
	require.Greater(t, m.Stats.Blocks, 0)

	containers, err := st.ListContainers(migrationID)
	require.NoError(t, err)
	require.Len(t, containers, 2)
}

func TestIngestSkipsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "small.go", "package main\n\nfunc f() {}\n")
	big := make([]byte, 200)
	for i := range big {
		big[i] = 'a'
	}
	writeFile(t, dir, "big.go", "package main\n\nfunc g() {\n// "+string(big)+"\n}\n")

	c, st := newTestCoordinator(t, Options{IncludeTests: true, MaxFileBytes: 40})

	migrationID, err := c.Ingest(context.Background(), RepoSource{Path: dir})
	require.NoError(t, err)

	m, err := st.GetMigration(migrationID)
	require.NoError(t, err)
	require.Equal(t, model.MigrationCompleted, m.Status)
	require.Equal(t, 1, m.Stats.Files)
	require.Equal(t, 1, m.Stats.SkippedByReason["input/too_large"])
}

func TestIngestExcludesTestsByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n\nfunc f() {}\n")
	writeFile(t, dir, "main_test.go", "package main\n\nfunc TestF(t *T) {}\n")

	c, st := newTestCoordinator(t, Options{IncludeTests: false})

	migrationID, err := c.Ingest(context.Background(), RepoSource{Path: dir})
	require.NoError(t, err)

	m, err := st.GetMigration(migrationID)
	require.NoError(t, err)
	require.Equal(t, 1, m.Stats.Files)
	require.Equal(t, 1, m.Stats.SkippedByReason["input/excluded_test"])
}

func TestIngestFailsCleanlyOverTotalByteBudget(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package main\n\nfunc a() {}\n")
	writeFile(t, dir, "b.go", "package main\n\nfunc b() {}\n")

	c, st := newTestCoordinator(t, Options{IncludeTests: true, MaxTotalBytes: 10})

	migrationID, err := c.Ingest(context.Background(), RepoSource{Path: dir})
	require.Error(t, err)

	m, err := st.GetMigration(migrationID)
	require.NoError(t, err)
	require.Equal(t, model.MigrationFailed, m.Status)
	require.Equal(t, 0, m.Stats.Files)
}

func TestIngestResolvesCrossContainerCall(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package main\n\nfunc helper() int {\n\treturn 1\n}\n")
	writeFile(t, dir, "b.go", "package main\n\nfunc caller() int {\n\treturn helper()\n}\n")

	c, st := newTestCoordinator(t, Options{IncludeTests: true})

	migrationID, err := c.Ingest(context.Background(), RepoSource{Path: dir})
	require.NoError(t, err)

	blocks, err := st.ListBlocksByMigration(migrationID)
	require.NoError(t, err)

	var callerID string
	for _, b := range blocks {
		if b.SemanticName != nil && *b.SemanticName == "caller" {
			callerID = b.ID
		}
	}
	require.NotEmpty(t, callerID)

	outbound, err := st.OutboundEdges(callerID)
	require.NoError(t, err)
	require.Len(t, outbound, 1)
	require.Equal(t, model.RelCalls, outbound[0].RelationshipType)
	require.False(t, outbound[0].Unresolved)
}

func TestRepoSourceValidateRejectsBothOrNeither(t *testing.T) {
	require.Error(t, RepoSource{}.validate())
	require.Error(t, RepoSource{Path: "x", URL: "y"}.validate())
	require.NoError(t, RepoSource{Path: "x"}.validate())
}

func TestIsTestPathConventions(t *testing.T) {
	require.True(t, isTestPath("pkg/thing_test.go"))
	require.True(t, isTestPath("pkg/test_thing.py"))
	require.True(t, isTestPath("tests/thing.go"))
	require.False(t, isTestPath("pkg/thing.go"))
}
