package version

import (
	"semcore/internal/model"
	"semcore/internal/query"
)

// IsBreakingViaEngine is the query-engine-backed twin of IsBreaking, for
// callers that already hold a live *query.Engine over the block's
// migration; nothing in this module calls it, and CommitBlockChange uses
// IsBreaking. It evaluates the same rule — a rename or signature change
// with at least one inbound calls/implements/inherits edge is breaking —
// against the engine's fact store instead of issuing a fresh store query.
func IsBreakingViaEngine(eng *query.Engine, blockID string, changeTypes []model.ChangeType) (bool, error) {
	if !hasSignatureLevelChange(changeTypes) {
		return false, nil
	}
	return eng.HasInboundBreakingEdge(blockID)
}
