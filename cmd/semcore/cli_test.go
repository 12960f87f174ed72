package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"semcore/internal/config"
	"semcore/internal/store"
)

func setupTestStore(t *testing.T) {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	st = s
	cfg = config.DefaultConfig()
}

func TestIngestCmdProducesQueryableMigration(t *testing.T) {
	setupTestStore(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc f() {}\n"), 0o644))

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	ingestIncludeTests = true
	ingestURL = ""
	ingestRef = ""
	ingestLanguages = nil

	require.NoError(t, ingestCmd.RunE(cmd, []string{dir}))

	migrations, err := st.ListMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 1)

	queryMigrationID = migrations[0].ID
	searchLanguage, searchBlockType = "", ""
	searchLimit = 20
	require.NoError(t, searchCmd.RunE(cmd, []string{"f"}))
}

func TestOpenEngineRequiresMigrationFlag(t *testing.T) {
	setupTestStore(t)
	queryMigrationID = ""
	_, err := openEngine()
	require.Error(t, err)
}
