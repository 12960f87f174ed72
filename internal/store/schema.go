package store

import (
	"crypto/sha256"
	"encoding/hex"

	semerrors "semcore/internal/errors"
	"semcore/internal/logging"
)

// schemaMigration is one forward-only, checksummed schema change. Order is
// significant: migrations apply in slice order, each exactly once, each in
// its own transaction, recorded in applied_migrations.
type schemaMigration struct {
	Name string
	SQL  string
}

// schemaMigrations is the ordered, append-only list of schema changes.
// Never edit an entry once released: add a new one, even to fix a typo.
var schemaMigrations = []schemaMigration{
	{
		Name: "0001_core_tables",
		SQL: `
CREATE TABLE IF NOT EXISTS migrations (
	id TEXT PRIMARY KEY,
	repo_name TEXT NOT NULL,
	repo_url TEXT NOT NULL DEFAULT '',
	commit_hash TEXT NOT NULL DEFAULT '',
	source_language TEXT NOT NULL DEFAULT '',
	target_language TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	stats_json TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS containers (
	id TEXT PRIMARY KEY,
	migration_id TEXT NOT NULL REFERENCES migrations(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	container_type TEXT NOT NULL,
	language TEXT NOT NULL,
	original_path TEXT NOT NULL,
	original_hash TEXT NOT NULL,
	version INTEGER NOT NULL DEFAULT 1,
	parsing_metadata_json TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(migration_id, name, original_path)
);
CREATE INDEX IF NOT EXISTS idx_containers_migration ON containers(migration_id);
CREATE INDEX IF NOT EXISTS idx_containers_language ON containers(language);

CREATE TABLE IF NOT EXISTS blocks (
	id TEXT PRIMARY KEY,
	container_id TEXT NOT NULL REFERENCES containers(id) ON DELETE CASCADE,
	block_type TEXT NOT NULL,
	semantic_name TEXT,
	raw_text TEXT NOT NULL DEFAULT '',
	normalized_structure_json TEXT NOT NULL DEFAULT '[]',
	token_sequence_json TEXT NOT NULL DEFAULT '[]',
	position INTEGER NOT NULL,
	indent_level INTEGER NOT NULL DEFAULT 0,
	parent_block_id TEXT REFERENCES blocks(id) ON DELETE CASCADE,
	position_in_parent INTEGER NOT NULL DEFAULT 0,
	depth_level INTEGER NOT NULL DEFAULT 0,
	hierarchical_index INTEGER NOT NULL DEFAULT 0,
	parameters_json TEXT NOT NULL DEFAULT '[]',
	return_type TEXT NOT NULL DEFAULT '',
	modifiers_json TEXT NOT NULL DEFAULT '[]',
	decorators_json TEXT NOT NULL DEFAULT '[]',
	language_features_json TEXT NOT NULL DEFAULT '{}',
	cyclomatic_complexity INTEGER NOT NULL DEFAULT 0,
	cognitive_complexity INTEGER NOT NULL DEFAULT 0,
	lines_of_code INTEGER NOT NULL DEFAULT 0,
	scope_info_json TEXT NOT NULL DEFAULT '{}',
	semantic_signature TEXT NOT NULL DEFAULT '',
	attached_comments_json TEXT NOT NULL DEFAULT '[]',
	source_language TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_blocks_container ON blocks(container_id);
CREATE INDEX IF NOT EXISTS idx_blocks_parent ON blocks(parent_block_id);
CREATE INDEX IF NOT EXISTS idx_blocks_semantic_name ON blocks(semantic_name);
CREATE INDEX IF NOT EXISTS idx_blocks_source_language ON blocks(source_language);

CREATE TABLE IF NOT EXISTS block_relationships (
	source_block_id TEXT NOT NULL REFERENCES blocks(id) ON DELETE CASCADE,
	target_block_id TEXT NOT NULL,
	relationship_type TEXT NOT NULL,
	strength REAL NOT NULL DEFAULT 0,
	bidirectional INTEGER NOT NULL DEFAULT 0,
	metadata_json TEXT NOT NULL DEFAULT '{}',
	unresolved INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (source_block_id, target_block_id, relationship_type)
);
CREATE INDEX IF NOT EXISTS idx_rel_source ON block_relationships(source_block_id);
CREATE INDEX IF NOT EXISTS idx_rel_target ON block_relationships(target_block_id);
CREATE INDEX IF NOT EXISTS idx_rel_type ON block_relationships(relationship_type);
CREATE INDEX IF NOT EXISTS idx_rel_unresolved ON block_relationships(unresolved);

CREATE TABLE IF NOT EXISTS block_versions (
	id TEXT PRIMARY KEY,
	block_id TEXT NOT NULL REFERENCES blocks(id) ON DELETE CASCADE,
	version_number INTEGER NOT NULL,
	semantic_hash TEXT NOT NULL,
	syntax_hash TEXT NOT NULL,
	parent_version_id TEXT REFERENCES block_versions(id),
	breaking_change INTEGER NOT NULL DEFAULT 0,
	change_types_json TEXT NOT NULL DEFAULT '[]',
	change_description TEXT NOT NULL DEFAULT '',
	llm_json TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(block_id, version_number)
);
CREATE INDEX IF NOT EXISTS idx_versions_block ON block_versions(block_id);
CREATE INDEX IF NOT EXISTS idx_versions_semantic_hash ON block_versions(semantic_hash);

CREATE TABLE IF NOT EXISTS semantic_branches (
	name TEXT NOT NULL,
	migration_id TEXT NOT NULL REFERENCES migrations(id) ON DELETE CASCADE,
	head_commit_hash TEXT NOT NULL,
	base_commit_hash TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (migration_id, name)
);

CREATE TABLE IF NOT EXISTS semantic_commits (
	hash TEXT PRIMARY KEY,
	parent_hash TEXT NOT NULL DEFAULT '',
	migration_id TEXT NOT NULL REFERENCES migrations(id) ON DELETE CASCADE,
	author TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_commits_migration ON semantic_commits(migration_id);
CREATE INDEX IF NOT EXISTS idx_commits_parent ON semantic_commits(parent_hash);

CREATE TABLE IF NOT EXISTS semantic_changes (
	id TEXT PRIMARY KEY,
	commit_hash TEXT NOT NULL REFERENCES semantic_commits(hash) ON DELETE CASCADE,
	block_id TEXT NOT NULL REFERENCES blocks(id) ON DELETE CASCADE,
	before_version_id TEXT,
	after_version_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_changes_commit ON semantic_changes(commit_hash);
CREATE INDEX IF NOT EXISTS idx_changes_block ON semantic_changes(block_id);
`,
	},
	{
		Name: "0002_search_index",
		SQL: `
CREATE TABLE IF NOT EXISTS block_search (
	block_id TEXT PRIMARY KEY REFERENCES blocks(id) ON DELETE CASCADE,
	semantic_name TEXT NOT NULL DEFAULT '',
	raw_text TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_block_search_name ON block_search(semantic_name);
`,
	},
	{
		// fts5 is an optional SQLite extension: a CREATE VIRTUAL TABLE
		// ... USING fts5(...) statement fails outright on a build without
		// it, so it cannot live in this checksummed, unconditionally
		// applied migration list. Store.Open probes for fts5 support
		// (detectFTS5) and creates block_fts itself when available;
		// search falls back to the block_search LIKE index otherwise.
		// This entry is a no-op kept for schema version-number parity
		// across deployments that do and do not build fts5 in.
		Name: "0003_fts5_reserved",
		SQL:  `SELECT 1;`,
	},
}

// migrate applies every schema migration not yet recorded in
// applied_migrations, atomically, in order, exactly once.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS applied_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	checksum TEXT NOT NULL,
	applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`); err != nil {
		return semerrors.New(semerrors.KindStorage, "store.migrate", "applied_migrations", err)
	}

	applied := map[string]string{}
	rows, err := s.db.Query("SELECT name, checksum FROM applied_migrations")
	if err != nil {
		return semerrors.New(semerrors.KindStorage, "store.migrate", "applied_migrations", err)
	}
	for rows.Next() {
		var name, checksum string
		if err := rows.Scan(&name, &checksum); err != nil {
			rows.Close()
			return semerrors.New(semerrors.KindStorage, "store.migrate", "applied_migrations", err)
		}
		applied[name] = checksum
	}
	rows.Close()

	for i, m := range schemaMigrations {
		sum := checksum(m.SQL)
		if prior, ok := applied[m.Name]; ok {
			if prior != sum {
				return semerrors.Wrapf(semerrors.KindSemantic, "store.migrate", m.Name,
					"migration %q checksum changed since it was applied (was %s, now %s)", m.Name, prior, sum)
			}
			continue
		}

		logging.Store("applying schema migration %s", m.Name)
		if err := s.applyMigration(i+1, m, sum); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyMigration(version int, m schemaMigration, sum string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return semerrors.New(semerrors.KindStorage, "store.applyMigration", m.Name, err)
	}
	if _, err := tx.Exec(m.SQL); err != nil {
		tx.Rollback()
		return semerrors.New(semerrors.KindStorage, "store.applyMigration", m.Name, err)
	}
	if _, err := tx.Exec(
		"INSERT INTO applied_migrations (version, name, checksum) VALUES (?, ?, ?)",
		version, m.Name, sum,
	); err != nil {
		tx.Rollback()
		return semerrors.New(semerrors.KindStorage, "store.applyMigration", m.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return semerrors.New(semerrors.KindStorage, "store.applyMigration", m.Name, err)
	}
	return nil
}

func checksum(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// AppliedMigrations returns the schema migrations table contents, for
// diagnostics.
func (s *Store) AppliedMigrations() ([]AppliedMigration, error) {
	rows, err := s.db.Query("SELECT version, name, checksum, applied_at FROM applied_migrations ORDER BY version")
	if err != nil {
		return nil, semerrors.New(semerrors.KindStorage, "store.AppliedMigrations", "", err)
	}
	defer rows.Close()

	var out []AppliedMigration
	for rows.Next() {
		var am AppliedMigration
		if err := rows.Scan(&am.Version, &am.Name, &am.Checksum, &am.AppliedAt); err != nil {
			return nil, semerrors.New(semerrors.KindStorage, "store.AppliedMigrations", "", err)
		}
		out = append(out, am)
	}
	return out, nil
}

// AppliedMigration is one row of the applied-migrations table.
type AppliedMigration struct {
	Version   int
	Name      string
	Checksum  string
	AppliedAt string
}
