package version

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"semcore/internal/block"
	semerrors "semcore/internal/errors"
	"semcore/internal/model"
	"semcore/internal/store"
)

// CommitHash computes commit_hash = H(parent_commit_hash ‖ author ‖
// message ‖ sorted(change_ids)).
func CommitHash(parentHash, author, message string, changeIDs []string) string {
	sorted := append([]string(nil), changeIDs...)
	sort.Strings(sorted)
	return block.H(append([]string{parentHash, author, message}, sorted...)...)
}

// CreateCommit groups changes into an immutable SemanticCommit and
// persists it, then fast-forwards (or creates) the named branch to the
// new head.
func CreateCommit(st *store.Store, migrationID, branch, author, message string, changes []model.SemanticChange) (*model.SemanticCommit, error) {
	ids := make([]string, len(changes))
	for i, c := range changes {
		ids[i] = c.ID
	}

	var parentHash string
	existing, err := st.GetBranch(migrationID, branch)
	switch {
	case err == nil:
		parentHash = existing.HeadCommitHash
	case semerrors.Is(err, semerrors.KindSemantic):
		// branch does not exist yet: this commit starts a new root.
	default:
		return nil, err
	}

	c := &model.SemanticCommit{
		Hash:       CommitHash(parentHash, author, message, ids),
		ParentHash: parentHash,
		Author:     author,
		Message:    message,
		Changes:    changes,
		CreatedAt:  time.Now().UTC(),
	}
	if err := st.CreateCommit(migrationID, c); err != nil {
		return nil, err
	}

	b := &model.SemanticBranch{
		Name:           branch,
		MigrationID:    migrationID,
		HeadCommitHash: c.Hash,
		CreatedAt:      time.Now().UTC(),
	}
	if existing != nil {
		b.BaseCommitHash = existing.BaseCommitHash
	} else {
		b.BaseCommitHash = c.Hash
	}
	if err := st.UpsertBranch(b); err != nil {
		return nil, err
	}
	return c, nil
}

// NewChangeID mints a random change identifier, used when the caller
// assembles a SemanticChange before a commit exists to own it.
func NewChangeID() string { return uuid.NewString() }

// CanFastForward reports whether newHead's ancestor chain contains
// currentHead, the condition required before moving a branch pointer
// without a merge commit.
func CanFastForward(st *store.Store, currentHead, newHead string) (bool, error) {
	if currentHead == "" {
		return true, nil
	}
	ancestors, err := st.CommitAncestors(newHead)
	if err != nil {
		return false, err
	}
	for _, h := range ancestors {
		if h == currentHead {
			return true, nil
		}
	}
	return false, nil
}
