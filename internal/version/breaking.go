package version

import (
	"semcore/internal/model"
	"semcore/internal/store"
)

// IsBreaking applies the breaking-change rule: a version is breaking iff
// its change set includes renamed or signature_changed, and the block
// has at least one inbound calls/implements/inherits relationship (an
// afferent edge that would observe the change).
func IsBreaking(st *store.Store, blockID string, changeTypes []model.ChangeType) (bool, error) {
	if !hasSignatureLevelChange(changeTypes) {
		return false, nil
	}
	inbound, err := st.InboundEdges(blockID)
	if err != nil {
		return false, err
	}
	for _, edge := range inbound {
		switch edge.RelationshipType {
		case model.RelCalls, model.RelImplements, model.RelInherits:
			return true, nil
		}
	}
	return false, nil
}

func hasSignatureLevelChange(types []model.ChangeType) bool {
	for _, t := range types {
		if t == model.ChangeRenamed || t == model.ChangeSignatureChanged {
			return true
		}
	}
	return false
}
