package lang

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryCoversClosedLanguageSet(t *testing.T) {
	r := NewRegistry()
	want := []string{"c", "cpp", "css", "go", "html", "java", "javascript", "python", "rust", "typescript"}
	require.ElementsMatch(t, want, r.Languages())
}

func TestForExtensionIsDeterministic(t *testing.T) {
	r := NewRegistry()
	p, ok := r.ForExtension(".go")
	require.True(t, ok)
	require.Equal(t, "go", p.Language())

	_, ok = r.ForExtension(".unknown")
	require.False(t, ok)
}

func TestGoProviderIdentifiesFunctionAndParams(t *testing.T) {
	r := NewRegistry()
	p, ok := r.ForLanguage("go")
	require.True(t, ok)

	src := []byte("package util\n\nfunc Add(a int, b int) int {\n\treturn a + b\n}\n")
	cst, tree, diags, err := p.Parse(context.Background(), "util.go", src)
	require.NoError(t, err)
	defer cst.Close(tree)
	require.Empty(t, diags)

	decls := p.IdentifyDeclarations(cst, cst.Root)
	require.Len(t, decls, 1)
	require.Equal(t, "Function", decls[0].Kind)
	require.Equal(t, "Add", decls[0].Name)
	require.True(t, decls[0].IsExported)
	require.Len(t, decls[0].Parameters, 2)
}

func TestGoProviderCountsDecisionNodes(t *testing.T) {
	r := NewRegistry()
	p, _ := r.ForLanguage("go")

	src := []byte("package util\n\nfunc Classify(n int) string {\n\tif n > 0 {\n\t\tif n > 10 {\n\t\t\treturn \"big\"\n\t\t}\n\t\treturn \"small\"\n\t}\n\treturn \"non-positive\"\n}\n")
	cst, tree, _, err := p.Parse(context.Background(), "util.go", src)
	require.NoError(t, err)
	defer cst.Close(tree)

	decls := p.IdentifyDeclarations(cst, cst.Root)
	require.Len(t, decls, 1)
	cyclomatic, cognitive := p.CountDecisionNodes(decls[0].Node)
	require.Equal(t, 2, cyclomatic)
	require.Greater(t, cognitive, cyclomatic)
}

func TestPythonProviderResolvesCallTargets(t *testing.T) {
	r := NewRegistry()
	p, _ := r.ForLanguage("python")

	src := []byte("def hash_pwd(x):\n    return obj.hash(x)\n")
	cst, tree, _, err := p.Parse(context.Background(), "impl.py", src)
	require.NoError(t, err)
	defer cst.Close(tree)

	decls := p.IdentifyDeclarations(cst, cst.Root)
	require.Len(t, decls, 1)
	calls := p.ResolveCallTargets(cst, decls[0].Node)
	require.Len(t, calls, 1)
	require.Equal(t, "hash", calls[0].Name)
}

func TestRustProviderDetectsPubVisibility(t *testing.T) {
	r := NewRegistry()
	p, _ := r.ForLanguage("rust")

	src := []byte("pub fn add(a: i32, b: i32) -> i32 {\n    a + b\n}\n\nfn helper() {}\n")
	cst, tree, _, err := p.Parse(context.Background(), "lib.rs", src)
	require.NoError(t, err)
	defer cst.Close(tree)

	decls := p.IdentifyDeclarations(cst, cst.Root)
	require.Len(t, decls, 2)
	require.True(t, decls[0].IsExported)
	require.False(t, decls[1].IsExported)
}
