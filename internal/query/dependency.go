package query

import (
	"sort"

	semerrors "semcore/internal/errors"
	"semcore/internal/model"
)

// DependencyNode is one hop's distance from the root in a dependency graph
// traversal.
type DependencyNode struct {
	BlockID string
	Depth   int
	Via     model.RelationshipType
}

// DependencyGraph expands calls|depends_on|imports edges outward from
// rootID up to maxDepth hops (0 means unlimited within a hard safety cap),
// breadth-first so Depth is the shortest-path distance. A block reachable
// by more than one path is reported once, at its shallowest depth.
// Returns the nodes in (depth, block id) order for determinism, plus the
// cycle rootID sits on, if any, as the ordered list of block ids that form
// it (e.g. [A, B, A]) — nil when the walk from rootID is acyclic.
func (e *Engine) DependencyGraph(rootID string, maxDepth int) ([]DependencyNode, []string, error) {
	const hardCap = 64
	if maxDepth <= 0 || maxDepth > hardCap {
		maxDepth = hardCap
	}
	types := []model.RelationshipType{model.RelCalls, model.RelDependsOn, model.RelImports}

	seen := map[string]int{rootID: 0}
	frontier := []string{rootID}
	var nodes []DependencyNode

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			edges, err := e.store.EdgesByType(id, types)
			if err != nil {
				return nil, nil, semerrors.New(semerrors.KindStorage, "query.DependencyGraph", rootID, err)
			}
			for _, edge := range edges {
				if _, ok := seen[edge.TargetBlockID]; ok {
					continue
				}
				seen[edge.TargetBlockID] = depth
				next = append(next, edge.TargetBlockID)
				nodes = append(nodes, DependencyNode{BlockID: edge.TargetBlockID, Depth: depth, Via: edge.RelationshipType})
			}
		}
		frontier = next
	}

	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Depth != nodes[j].Depth {
			return nodes[i].Depth < nodes[j].Depth
		}
		return nodes[i].BlockID < nodes[j].BlockID
	})

	cycle, err := e.findCyclePath(rootID, types)
	if err != nil {
		return nil, nil, semerrors.New(semerrors.KindStorage, "query.DependencyGraph", rootID, err)
	}
	return nodes, cycle, nil
}

// findCyclePath runs a DFS from rootID tracking the current recursion
// stack as an ordered path. The first back-edge to rootID, which sits at
// the bottom of that stack, closes a cycle through it: the whole path,
// with rootID repeated at the end, is the reported cycle (e.g. [A, B, A]).
// Back-edges to other nodes close cycles that do not pass through rootID
// and are not reported. Search stops at the first cycle found; rootID may
// sit on others, but one witness is enough to make the cycle observable.
func (e *Engine) findCyclePath(rootID string, types []model.RelationshipType) ([]string, error) {
	const (
		unseen = iota
		inProgress
		done
	)
	state := map[string]int{}
	var path []string
	var cycle []string

	var visit func(id string) error
	visit = func(id string) error {
		if cycle != nil || state[id] == done {
			return nil
		}
		if state[id] == inProgress {
			if id == rootID {
				cycle = append(append([]string{}, path...), id)
			}
			return nil
		}
		state[id] = inProgress
		path = append(path, id)
		edges, err := e.store.EdgesByType(id, types)
		if err != nil {
			return err
		}
		for _, edge := range edges {
			if err := visit(edge.TargetBlockID); err != nil {
				return err
			}
			if cycle != nil {
				return nil
			}
		}
		path = path[:len(path)-1]
		state[id] = done
		return nil
	}

	if err := visit(rootID); err != nil {
		return nil, err
	}
	return cycle, nil
}
