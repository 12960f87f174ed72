package block

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"semcore/internal/model"
)

// H is the fixed cryptographic content hash every fingerprint uses, so
// identical inputs produce identical digests across platforms.
func H(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// SemanticHash computes semantic_hash(block): a digest of the
// block type, normalized structure, parameter kinds, return type kind and
// sorted modifiers — everything that reflects meaning rather than text, so
// whitespace/comment-only edits never change it.
func SemanticHash(b *model.Block) string {
	paramKinds := make([]string, len(b.Parameters))
	for i, p := range b.Parameters {
		paramKinds[i] = p.Type
	}
	modifiers := append([]string(nil), b.Modifiers...)
	sort.Strings(modifiers)

	return H(
		string(b.BlockType),
		strings.Join(b.AbstractSyntax.NormalizedStructure, ","),
		strings.Join(paramKinds, ","),
		b.ReturnType,
		strings.Join(modifiers, ","),
	)
}

// SyntaxHash computes syntax_hash(block): a digest of the raw source text.
func SyntaxHash(b *model.Block) string {
	return H(b.AbstractSyntax.RawText)
}
