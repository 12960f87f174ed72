package query

import (
	semerrors "semcore/internal/errors"
	"semcore/internal/model"
)

// DiffResult is the classified difference between two recorded block
// versions.
type DiffResult struct {
	Identical      bool
	ChangeTypes    []model.ChangeType
	BreakingChange bool
}

// SemanticDiff returns the classified diff between two versions of the
// same block. Each BlockVersion already carries the ChangeTypes and
// BreakingChange flag computed when it was recorded (internal/version's
// Classify/IsBreaking, at commit time); when versionBID is the direct
// child of versionAID this is exactly that recorded diff. When it isn't
// - the caller asked about two versions separated by others - the result
// is the union of every intermediate version's ChangeTypes along the
// parent chain, and BreakingChange is true if any of them were: a
// reasonable reading of "the diff between A and B" when B descends from
// A through several intermediate edits, since no diff operation is
// defined directly across non-adjacent versions.
func (e *Engine) SemanticDiff(versionAID, versionBID string) (DiffResult, error) {
	a, err := e.store.GetVersion(versionAID)
	if err != nil {
		return DiffResult{}, err
	}
	b, err := e.store.GetVersion(versionBID)
	if err != nil {
		return DiffResult{}, err
	}
	if a.BlockID != b.BlockID {
		return DiffResult{}, semerrors.Wrapf(semerrors.KindInput, "query.SemanticDiff", versionAID,
			"versions %s and %s belong to different blocks", versionAID, versionBID)
	}
	if a.SemanticHash == b.SemanticHash && a.SyntaxHash == b.SyntaxHash {
		return DiffResult{Identical: true}, nil
	}

	chain, err := e.versionChainBetween(a, b)
	if err != nil {
		return DiffResult{}, err
	}

	seen := map[model.ChangeType]bool{}
	var types []model.ChangeType
	breaking := false
	for _, v := range chain {
		for _, t := range v.ChangeTypes {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
		breaking = breaking || v.BreakingChange
	}
	return DiffResult{ChangeTypes: types, BreakingChange: breaking}, nil
}

// versionChainBetween walks from the later version back to the earlier
// one via ParentVersionID, returning every version strictly after a up to
// and including b, in the order each was recorded (oldest edit first).
func (e *Engine) versionChainBetween(a, b *model.BlockVersion) ([]*model.BlockVersion, error) {
	older, newer := a, b
	if older.VersionNumber > newer.VersionNumber {
		older, newer = newer, older
	}

	var chain []*model.BlockVersion
	current := newer
	for current.ID != older.ID {
		chain = append([]*model.BlockVersion{current}, chain...)
		if current.ParentVersionID == nil {
			break
		}
		next, err := e.store.GetVersion(*current.ParentVersionID)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return chain, nil
}
