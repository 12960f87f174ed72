package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"semcore/internal/block"
	semerrors "semcore/internal/errors"
	"semcore/internal/model"
	"semcore/internal/store"
)

func strp(s string) *string { return &s }

func TestClassifyDetectsRenameAndSignatureChange(t *testing.T) {
	before := &model.Block{SemanticName: strp("add"), Parameters: []model.Parameter{{Name: "a", Type: "int"}}}
	after := &model.Block{SemanticName: strp("sum"), Parameters: []model.Parameter{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}}}

	types := Classify(before, after, false)
	require.Contains(t, types, model.ChangeRenamed)
	require.Contains(t, types, model.ChangeSignatureChanged)
	require.NotContains(t, types, model.ChangeBodyChanged)
}

func TestClassifyDetectsBodyChangeOnly(t *testing.T) {
	before := &model.Block{SemanticName: strp("add"), AbstractSyntax: model.AbstractSyntax{NormalizedStructure: []string{"return_statement"}}}
	after := &model.Block{SemanticName: strp("add"), AbstractSyntax: model.AbstractSyntax{NormalizedStructure: []string{"return_statement", "if_statement"}}}

	types := Classify(before, after, false)
	require.Equal(t, []model.ChangeType{model.ChangeBodyChanged}, types)
}

func TestCommitHashDeterministicRegardlessOfChangeOrder(t *testing.T) {
	h1 := CommitHash("p", "alice", "msg", []string{"c2", "c1"})
	h2 := CommitHash("p", "alice", "msg", []string{"c1", "c2"})
	require.Equal(t, h1, h2)

	h3 := CommitHash("p", "alice", "different", []string{"c1", "c2"})
	require.NotEqual(t, h1, h3)
}

func TestCanFastForwardRootCommit(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ok, err := CanFastForward(st, "", "anything")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCanFastForwardAncestorChain(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.CreateMigration(&model.Migration{ID: "m1", RepoName: "demo", Status: model.MigrationInProgress}))

	root := &model.SemanticCommit{Hash: "h1", CreatedAt: time.Now().UTC()}
	require.NoError(t, st.CreateCommit("m1", root))
	child := &model.SemanticCommit{Hash: "h2", ParentHash: "h1", CreatedAt: time.Now().UTC()}
	require.NoError(t, st.CreateCommit("m1", child))

	ok, err := CanFastForward(st, "h1", "h2")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = CanFastForward(st, "h2", "h1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCreateCommitStartsRootWhenBranchAbsent(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.CreateMigration(&model.Migration{ID: "m1", RepoName: "demo", Status: model.MigrationInProgress}))

	c, err := CreateCommit(st, "m1", "main", "alice", "first commit", nil)
	require.NoError(t, err)
	require.Empty(t, c.ParentHash)
}

func TestCreateCommitPropagatesStorageFailureInsteadOfForkingHistory(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)

	require.NoError(t, st.CreateMigration(&model.Migration{ID: "m1", RepoName: "demo", Status: model.MigrationInProgress}))
	require.NoError(t, st.Close()) // forces GetBranch's query to fail with a Storage-kind error, not sql.ErrNoRows

	_, err = CreateCommit(st, "m1", "main", "alice", "first commit", nil)
	require.Error(t, err)
	require.True(t, semerrors.Is(err, semerrors.KindStorage), "a genuine storage failure must propagate, not be reinterpreted as an absent branch")
}

func TestMergeBlockOutcomes(t *testing.T) {
	require.Equal(t, MergeUnchanged, MergeBlock(MergeBlockState{AncestorSemanticHash: "a", OurSemanticHash: "a", TheirSemanticHash: "a"}).Outcome)
	require.Equal(t, MergeTookOurs, MergeBlock(MergeBlockState{AncestorSemanticHash: "a", OurSemanticHash: "b", TheirSemanticHash: "a"}).Outcome)
	require.Equal(t, MergeTookTheirs, MergeBlock(MergeBlockState{AncestorSemanticHash: "a", OurSemanticHash: "a", TheirSemanticHash: "b"}).Outcome)
	require.Equal(t, MergeIdenticalEdit, MergeBlock(MergeBlockState{AncestorSemanticHash: "a", OurSemanticHash: "b", TheirSemanticHash: "b"}).Outcome)
	require.Equal(t, MergeConflict, MergeBlock(MergeBlockState{AncestorSemanticHash: "a", OurSemanticHash: "b", TheirSemanticHash: "c"}).Outcome)
}

func seedBlockWithVersion(t *testing.T, st *store.Store) *model.Block {
	t.Helper()
	require.NoError(t, st.CreateMigration(&model.Migration{ID: "m1", RepoName: "demo", Status: model.MigrationInProgress}))

	container := &model.Container{ID: "c1", Name: "util.py", ContainerType: model.ContainerFile, Language: "python", OriginalPath: "util.py", MigrationID: "m1"}
	b := &model.Block{
		ID: "b1", ContainerID: "c1", BlockType: model.BlockFunction, SemanticName: strp("add"),
		SourceLanguage: "python",
		AbstractSyntax: model.AbstractSyntax{RawText: "def add(a, b):\n    return a+b\n", NormalizedStructure: []string{"return_statement"}},
		Parameters:     []model.Parameter{{Name: "a", Type: ""}, {Name: "b", Type: ""}},
	}
	v1 := &model.BlockVersion{ID: "v1", BlockID: "b1", VersionNumber: 1, SemanticHash: block.SemanticHash(b), SyntaxHash: block.SyntaxHash(b), CreatedAt: time.Now().UTC()}

	require.NoError(t, st.CommitContainer(container, []*model.Block{b}, nil, []*model.BlockVersion{v1}))
	return b
}

func TestCommitBlockChangeRecordsNewVersion(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	seedBlockWithVersion(t, st)

	after, err := st.GetBlock("b1")
	require.NoError(t, err)
	after.SemanticName = strp("sum")

	v, err := CommitBlockChange(st, after, "renamed add to sum", false)
	require.NoError(t, err)
	require.Equal(t, 2, v.VersionNumber)
	require.Contains(t, v.ChangeTypes, model.ChangeRenamed)

	reloaded, err := st.GetBlock("b1")
	require.NoError(t, err)
	require.Equal(t, "sum", *reloaded.SemanticName)
}

func TestCommitBlockChangeNoOpWhenNothingChanged(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	seedBlockWithVersion(t, st)

	current, err := st.GetBlock("b1")
	require.NoError(t, err)
	latest, err := st.LatestVersion("b1")
	require.NoError(t, err)
	require.Equal(t, 1, latest.VersionNumber)

	v, err := CommitBlockChange(st, current, "no actual change", false)
	require.NoError(t, err)
	require.Equal(t, latest.VersionNumber, v.VersionNumber)
}
