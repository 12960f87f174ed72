// Package version implements semantic diff classification, commit/branch
// management and the breaking-change rule of the Version Control layer
// (C4), on top of the Semantic Store (C3).
package version

import (
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"

	"semcore/internal/model"
)

// Classify compares before and after states of the same block and
// returns every ChangeType that applies. A single edit can carry more
// than one classification (e.g. a rename that also changes the
// signature). depsChanged is supplied by the caller since it depends on
// the store's relationship rows, not the Block value alone.
func Classify(before, after *model.Block, depsChanged bool) []model.ChangeType {
	var types []model.ChangeType

	if nameOf(before) != nameOf(after) {
		types = append(types, model.ChangeRenamed)
	}
	if signatureOf(before) != signatureOf(after) {
		types = append(types, model.ChangeSignatureChanged)
	}
	if !cmp.Equal(before.AbstractSyntax.NormalizedStructure, after.AbstractSyntax.NormalizedStructure) {
		types = append(types, model.ChangeBodyChanged)
	}
	if modifiersOf(before) != modifiersOf(after) {
		types = append(types, model.ChangeModifierChanged)
	}
	if depsChanged {
		types = append(types, model.ChangeDependencyChanged)
	}
	return types
}

// Identical reports whether two block states hash to the same
// semantic_hash, the first and cheapest diff check.
func Identical(beforeSemanticHash, afterSemanticHash string) bool {
	return beforeSemanticHash == afterSemanticHash
}

func nameOf(b *model.Block) string {
	if b.SemanticName == nil {
		return ""
	}
	return *b.SemanticName
}

func signatureOf(b *model.Block) string {
	types := make([]string, len(b.Parameters))
	for i, p := range b.Parameters {
		types[i] = p.Type
	}
	return strings.Join(types, ",") + "|" + b.ReturnType
}

func modifiersOf(b *model.Block) string {
	mods := append([]string(nil), b.Modifiers...)
	sort.Strings(mods)
	return strings.Join(mods, ",")
}
