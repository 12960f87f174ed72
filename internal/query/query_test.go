package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"semcore/internal/model"
	"semcore/internal/store"
)

func strp(s string) *string { return &s }

func seedMigration(t *testing.T, st *store.Store) string {
	t.Helper()
	migration := &model.Migration{
		ID: "m1", RepoName: "demo", Status: model.MigrationInProgress,
		CreatedAt: time.Unix(0, 0), UpdatedAt: time.Unix(0, 0),
	}
	require.NoError(t, st.CreateMigration(migration))

	container := &model.Container{
		ID: "c1", Name: "util.py", ContainerType: model.ContainerFile,
		Language: "python", OriginalPath: "util.py", MigrationID: "m1",
		CreatedAt: time.Unix(0, 0), UpdatedAt: time.Unix(0, 0),
	}

	caller := &model.Block{
		ID: "b-caller", ContainerID: "c1", BlockType: model.BlockFunction,
		SemanticName: strp("caller"), SourceLanguage: "python",
		ComplexityMetrics: model.ComplexityMetrics{Cyclomatic: 1, LinesOfCode: 3},
	}
	callee := &model.Block{
		ID: "b-callee", ContainerID: "c1", BlockType: model.BlockFunction,
		SemanticName: strp("callee"), SourceLanguage: "python",
		ComplexityMetrics: model.ComplexityMetrics{Cyclomatic: 15, LinesOfCode: 80},
		Parameters:        []model.Parameter{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}, {Name: "f"}},
	}
	tester := &model.Block{
		ID: "b-test", ContainerID: "c1", BlockType: model.BlockFunction,
		SemanticName: strp("test_caller"), SourceLanguage: "python",
	}

	rels := []model.BlockRelationship{
		{SourceBlockID: "b-caller", TargetBlockID: "b-callee", RelationshipType: model.RelCalls},
		{SourceBlockID: "b-test", TargetBlockID: "b-caller", RelationshipType: model.RelTests},
	}

	require.NoError(t, st.CommitContainer(container, []*model.Block{caller, callee, tester}, rels, nil))
	return "m1"
}

func TestFindPatternComplexityThresholds(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	migrationID := seedMigration(t, st)
	eng, err := New(st, migrationID)
	require.NoError(t, err)

	complex, err := eng.FindPattern(context.Background(), "complex_function")
	require.NoError(t, err)
	require.Equal(t, []string{"b-callee"}, complex)

	long, err := eng.FindPattern(context.Background(), "long_method")
	require.NoError(t, err)
	require.Equal(t, []string{"b-callee"}, long)

	many, err := eng.FindPattern(context.Background(), "many_parameters")
	require.NoError(t, err)
	require.Equal(t, []string{"b-callee"}, many)
}

func TestFindPatternUntestedFunction(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	migrationID := seedMigration(t, st)
	eng, err := New(st, migrationID)
	require.NoError(t, err)

	untested, err := eng.FindPattern(context.Background(), "untested_function")
	require.NoError(t, err)
	require.Equal(t, []string{"b-callee", "b-test"}, untested)
}

func TestFindPatternDuplicateName(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	migrationID := seedMigration(t, st)
	eng, err := New(st, migrationID)
	require.NoError(t, err)

	dup, err := eng.FindPattern(context.Background(), "duplicate_name")
	require.NoError(t, err)
	require.Empty(t, dup)
}

func TestDependencyGraphFollowsCalls(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	migrationID := seedMigration(t, st)
	eng, err := New(st, migrationID)
	require.NoError(t, err)

	nodes, cycle, err := eng.DependencyGraph("b-caller", 2)
	require.NoError(t, err)
	require.Nil(t, cycle)
	require.Len(t, nodes, 1)
	require.Equal(t, "b-callee", nodes[0].BlockID)
	require.Equal(t, 1, nodes[0].Depth)
}

func TestDependencyGraphDetectsCycleAcrossTwoHops(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	migration := &model.Migration{
		ID: "m2", RepoName: "demo", Status: model.MigrationInProgress,
		CreatedAt: time.Unix(0, 0), UpdatedAt: time.Unix(0, 0),
	}
	require.NoError(t, st.CreateMigration(migration))

	container := &model.Container{
		ID: "c2", Name: "cyclic.py", ContainerType: model.ContainerFile,
		Language: "python", OriginalPath: "cyclic.py", MigrationID: "m2",
		CreatedAt: time.Unix(0, 0), UpdatedAt: time.Unix(0, 0),
	}
	a := &model.Block{ID: "b-a", ContainerID: "c2", BlockType: model.BlockModule, SemanticName: strp("a")}
	b := &model.Block{ID: "b-b", ContainerID: "c2", BlockType: model.BlockModule, SemanticName: strp("b")}

	rels := []model.BlockRelationship{
		{SourceBlockID: "b-a", TargetBlockID: "b-b", RelationshipType: model.RelImports},
		{SourceBlockID: "b-b", TargetBlockID: "b-a", RelationshipType: model.RelImports},
	}
	require.NoError(t, st.CommitContainer(container, []*model.Block{a, b}, rels, nil))

	eng, err := New(st, "m2")
	require.NoError(t, err)

	nodes, cycle, err := eng.DependencyGraph("b-a", 4)
	require.NoError(t, err)
	require.Equal(t, []string{"b-a", "b-b", "b-a"}, cycle, "A imports B and B imports A back must report the cycle path")
	require.Len(t, nodes, 1)
	require.Equal(t, "b-b", nodes[0].BlockID)
}

func TestCouplingCountsEdgesExcludingContains(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	migrationID := seedMigration(t, st)
	eng, err := New(st, migrationID)
	require.NoError(t, err)

	m, err := eng.Coupling("b-caller")
	require.NoError(t, err)
	require.Equal(t, 1, m.Efferent) // calls callee
	require.Equal(t, 1, m.Afferent) // tested by b-test
	require.InDelta(t, 0.5, m.Instability, 0.0001)
}

func TestSearchRanksExactNameMatchFirst(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	migrationID := seedMigration(t, st)
	eng, err := New(st, migrationID)
	require.NoError(t, err)

	hits, truncated, err := eng.Search(SearchRequest{Term: "caller"})
	require.NoError(t, err)
	require.False(t, truncated)
	require.NotEmpty(t, hits)
	require.Equal(t, "caller", *hits[0].Block.SemanticName)
}
