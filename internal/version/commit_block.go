package version

import (
	"time"

	"github.com/google/uuid"

	"semcore/internal/block"
	"semcore/internal/model"
	"semcore/internal/store"
)

// CommitBlockChange records a new BlockVersion for a block that has
// already been rewritten in memory (after.AbstractSyntax etc. hold the
// new state) relative to its previous committed state, then applies the
// new state to the blocks table. It is the single call path by which a
// block's structure changes after its initial ingest commit — edits
// never mutate structure directly.
//
// depsChanged must be computed by the caller by diffing the block's
// outbound relationship set before and after, since that is a store
// concern this package does not own.
func CommitBlockChange(st *store.Store, after *model.Block, description string, depsChanged bool) (*model.BlockVersion, error) {
	before, err := st.GetBlock(after.ID)
	if err != nil {
		return nil, err
	}

	latest, err := st.LatestVersion(after.ID)
	if err != nil {
		return nil, err
	}

	newSemanticHash := block.SemanticHash(after)
	newSyntaxHash := block.SyntaxHash(after)

	changeTypes := Classify(before, after, depsChanged)
	if len(changeTypes) == 0 && latest.SyntaxHash == newSyntaxHash {
		return latest, nil
	}

	breaking, err := IsBreaking(st, after.ID, changeTypes)
	if err != nil {
		return nil, err
	}

	parentID := latest.ID
	v := &model.BlockVersion{
		ID:                uuid.NewString(),
		BlockID:           after.ID,
		VersionNumber:     latest.VersionNumber + 1,
		SemanticHash:      newSemanticHash,
		SyntaxHash:        newSyntaxHash,
		ParentVersionID:   &parentID,
		BreakingChange:    breaking,
		ChangeTypes:       changeTypes,
		ChangeDescription: description,
		CreatedAt:         time.Now().UTC(),
	}

	if err := st.CreateBlockVersion(v); err != nil {
		return nil, err
	}
	if err := st.UpdateBlockAbstractSyntax(after); err != nil {
		return nil, err
	}
	return v, nil
}
