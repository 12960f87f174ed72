package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitializeDisabledIsNoop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Options{Enabled: false}))

	l := Get(CategoryStore)
	l.Info("should not panic or write anything")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestInitializeWritesPerCategoryFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Options{Enabled: true, Level: "debug"}))

	Get(CategoryIngest).Info("ingest started")
	Get(CategoryQuery).Debug("running query")

	matches, err := filepath.Glob(filepath.Join(dir, ".semcore", "logs", "*_ingest.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestCategoryFilterDisablesSpecificCategory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Options{
		Enabled:    true,
		Level:      "debug",
		Categories: map[Category]bool{CategoryStore: false},
	}))

	Get(CategoryStore).Info("should not be written")
	Get(CategoryBlock).Info("should be written")

	storeMatches, _ := filepath.Glob(filepath.Join(dir, ".semcore", "logs", "*_store.log"))
	require.Empty(t, storeMatches)

	blockMatches, _ := filepath.Glob(filepath.Join(dir, ".semcore", "logs", "*_block.log"))
	require.Len(t, blockMatches, 1)
}

func TestAuditRejectsWrongArity(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Options{Enabled: true, Level: "debug"}))

	Audit(EventMigrationStatus, "only-one-arg")

	_, err := os.Stat(AuditLogPath())
	require.True(t, os.IsNotExist(err), "audit file should not be created for a rejected event")
}

func TestAuditRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, Options{Enabled: true, Level: "debug"}))

	Audit(EventMigrationStatus, "mig-1", "completed", float64(12))

	var seen []AuditEvent
	require.NoError(t, ReadAuditLog(AuditLogPath(), func(ev AuditEvent) error {
		seen = append(seen, ev)
		return nil
	}))
	require.Len(t, seen, 1)
	require.Equal(t, EventMigrationStatus, seen[0].Type)
}
