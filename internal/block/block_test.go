package block

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"semcore/internal/lang"
	"semcore/internal/model"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "b" + strconv.Itoa(n)
	}
}

func TestExtractPythonSingleFunction(t *testing.T) {
	r := lang.NewRegistry()
	p, ok := r.ForLanguage("python")
	require.True(t, ok)

	src := []byte("def add(a, b):\n    return a + b\n")
	res, err := Extract(context.Background(), p, "c1", "util.py", src, sequentialIDs())
	require.NoError(t, err)
	require.Len(t, res.Blocks, 2)

	module := res.Blocks[0]
	require.Equal(t, model.BlockModule, module.BlockType)

	fn := res.Blocks[1]
	require.Equal(t, model.BlockFunction, fn.BlockType)
	require.Equal(t, "add", *fn.SemanticName)
	require.Len(t, fn.Parameters, 2)
	require.Equal(t, 0, fn.PositionInParent)
	require.Equal(t, 1, fn.ComplexityMetrics.Cyclomatic)
	require.Equal(t, 2, fn.ComplexityMetrics.LinesOfCode)

	require.Len(t, res.Relationships, 1)
	require.Equal(t, model.RelContains, res.Relationships[0].RelationshipType)
	require.Equal(t, module.ID, res.Relationships[0].SourceBlockID)
	require.Equal(t, fn.ID, res.Relationships[0].TargetBlockID)
}

func TestSemanticHashStableAcrossWhitespaceRename(t *testing.T) {
	r := lang.NewRegistry()
	p, _ := r.ForLanguage("python")

	original := []byte("def add(a, b):\n    return a + b\n")
	renamed := []byte("def sum(a, b): return a + b\n")

	resOriginal, err := Extract(context.Background(), p, "c1", "util.py", original, sequentialIDs())
	require.NoError(t, err)
	resRenamed, err := Extract(context.Background(), p, "c1", "util.py", renamed, sequentialIDs())
	require.NoError(t, err)

	require.Equal(t, SemanticHash(resOriginal.Blocks[1]), SemanticHash(resRenamed.Blocks[1]))
	require.NotEqual(t, SyntaxHash(resOriginal.Blocks[1]), SyntaxHash(resRenamed.Blocks[1]))
}

func TestPolyglotSemanticHashDiffers(t *testing.T) {
	r := lang.NewRegistry()
	py, _ := r.ForLanguage("python")
	rs, _ := r.ForLanguage("rust")

	pyRes, err := Extract(context.Background(), py, "c1", "add.py", []byte("def add(a, b):\n    return a+b\n"), sequentialIDs())
	require.NoError(t, err)
	rsRes, err := Extract(context.Background(), rs, "c2", "add.rs", []byte("fn add(a: i32, b: i32) -> i32 { a + b }\n"), sequentialIDs())
	require.NoError(t, err)

	pyFn, rsFn := pyRes.Blocks[1], rsRes.Blocks[1]
	require.Equal(t, model.BlockFunction, pyFn.BlockType)
	require.Equal(t, model.BlockFunction, rsFn.BlockType)
	require.Len(t, pyFn.Parameters, 2)
	require.Len(t, rsFn.Parameters, 2)
	require.NotEqual(t, SemanticHash(pyFn), SemanticHash(rsFn))
}

func TestExtractEmptyFileYieldsOnlyModuleBlock(t *testing.T) {
	r := lang.NewRegistry()
	p, _ := r.ForLanguage("go")

	res, err := Extract(context.Background(), p, "c1", "empty.go", []byte(""), sequentialIDs())
	require.NoError(t, err)
	require.Len(t, res.Blocks, 1)
	require.Equal(t, model.BlockModule, res.Blocks[0].BlockType)
	require.Empty(t, res.Relationships)
}

func TestExtractMalformedFileRecoversSubtrees(t *testing.T) {
	r := lang.NewRegistry()
	p, _ := r.ForLanguage("go")

	src := []byte("package util\n\nfunc Add(a int, b int) int {\n\treturn a +\n}\n\nfunc Sub(a, b int) int {\n\treturn a - b\n}\n")
	res, err := Extract(context.Background(), p, "c1", "util.go", src, sequentialIDs())
	require.NoError(t, err)
	require.NotEmpty(t, res.Diagnostics)

	var names []string
	for _, b := range res.Blocks {
		if b.SemanticName != nil {
			names = append(names, *b.SemanticName)
		}
	}
	require.Contains(t, names, "Sub")
}

func TestResolveCallsWithinContainer(t *testing.T) {
	r := lang.NewRegistry()
	p, _ := r.ForLanguage("python")

	src := []byte("def hash_pwd(x):\n    return hash(x)\n\ndef test_hash_pwd():\n    hash_pwd(\"x\")\n")
	res, err := Extract(context.Background(), p, "c1", "impl.py", src, sequentialIDs())
	require.NoError(t, err)

	var sawCall, sawTest bool
	for _, rel := range res.Relationships {
		if rel.RelationshipType == model.RelCalls && !rel.Unresolved {
			sawCall = true
		}
		if rel.RelationshipType == model.RelTests {
			sawTest = true
		}
	}
	require.True(t, sawCall, "expected a resolved calls edge from test_hash_pwd to hash_pwd")
	require.True(t, sawTest, "expected a tests edge from test_hash_pwd to hash_pwd")
}

func TestResolveTestsFollowsCallTargetsNotName(t *testing.T) {
	r := lang.NewRegistry()
	p, _ := r.ForLanguage("go")

	src := []byte(`package m

func Add(a, b int) int { return a + b }

func TestAdditionWithNegativeNumbers(t *T) {
	Add(-1, -2)
}
`)
	res, err := Extract(context.Background(), p, "c1", "impl.go", src, sequentialIDs())
	require.NoError(t, err)

	var target string
	for _, b := range res.Blocks {
		if b.SemanticName != nil && *b.SemanticName == "Add" {
			target = b.ID
		}
	}
	require.NotEmpty(t, target)

	var sawTest bool
	for _, rel := range res.Relationships {
		if rel.RelationshipType == model.RelTests && rel.TargetBlockID == target {
			sawTest = true
		}
	}
	require.True(t, sawTest, "expected a tests edge to Add even though the test name does not reduce to it")
}
