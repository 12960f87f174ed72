package version

// MergeOutcome classifies how one block resolved during a three-way
// design-level merge.
type MergeOutcome string

const (
	MergeTookOurs      MergeOutcome = "took_ours"       // only ours changed relative to ancestor
	MergeTookTheirs    MergeOutcome = "took_theirs"     // only theirs changed relative to ancestor
	MergeIdenticalEdit MergeOutcome = "identical_edit"  // both changed, semantic_hash equal
	MergeConflict      MergeOutcome = "conflict"        // both changed, semantic_hash differs
	MergeUnchanged     MergeOutcome = "unchanged"        // neither side changed
)

// MergeBlockState is one block's version across the three points a merge
// compares: the common ancestor and each branch tip.
type MergeBlockState struct {
	BlockID              string
	AncestorSemanticHash string
	OurSemanticHash      string
	OurVersionID         string
	TheirSemanticHash    string
	TheirVersionID       string
}

// MergeResult is the decision for one block plus, for a conflict, the two
// version ids a human or LLM resolver must reconcile.
type MergeResult struct {
	BlockID      string
	Outcome      MergeOutcome
	WinnerVersionID string // set for took_ours/took_theirs/identical_edit
	OursVersionID   string // set for conflict
	TheirsVersionID string // set for conflict
}

// MergeBlock applies the per-block three-way merge rule to one block's
// ancestor/ours/theirs states. Resolving a MergeConflict into a new
// version citing both parents is the caller's responsibility — an
// external human or LLM reviewer, not this package.
func MergeBlock(s MergeBlockState) MergeResult {
	oursChanged := s.OurSemanticHash != s.AncestorSemanticHash
	theirsChanged := s.TheirSemanticHash != s.AncestorSemanticHash

	switch {
	case !oursChanged && !theirsChanged:
		return MergeResult{BlockID: s.BlockID, Outcome: MergeUnchanged, WinnerVersionID: s.OurVersionID}
	case oursChanged && !theirsChanged:
		return MergeResult{BlockID: s.BlockID, Outcome: MergeTookOurs, WinnerVersionID: s.OurVersionID}
	case !oursChanged && theirsChanged:
		return MergeResult{BlockID: s.BlockID, Outcome: MergeTookTheirs, WinnerVersionID: s.TheirVersionID}
	case s.OurSemanticHash == s.TheirSemanticHash:
		return MergeResult{BlockID: s.BlockID, Outcome: MergeIdenticalEdit, WinnerVersionID: s.OurVersionID}
	default:
		return MergeResult{BlockID: s.BlockID, Outcome: MergeConflict, OursVersionID: s.OurVersionID, TheirsVersionID: s.TheirVersionID}
	}
}
