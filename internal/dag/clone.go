package dag

import (
	"sort"

	"mapsir/internal/irerr"
)

// CloneSubgraph copies every node reachable from roots (through prev,
// next, back, or forw) into into, returning the original->clone NodeID
// mapping.
//
// Cloning proceeds in two passes. The first walks the closure in
// prev-edge topological order — well-defined because prev/next alone form
// a DAG — calling each node's Clone so its positional operands are
// already mapped. Feedback twins and a while-mode Merge's forw-carried
// right operand are the two places a node's peer can appear later in
// that order (the loop-carry cycle only exists through
// back/forw), so those links are resolved in a second pass once every
// node in the closure has a clone.
func (src *Dag) CloneSubgraph(roots []NodeID, into *Dag) (map[NodeID]NodeID, error) {
	for _, r := range roots {
		if _, ok := src.Node(r); !ok {
			return nil, irerr.InvalidConstructionf("CloneSubgraph: root %d does not belong to the source Dag", r)
		}
	}

	visited := make(map[NodeID]bool)
	stack := append([]NodeID(nil), roots...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		n := src.MustNode(id)
		stack = append(stack, n.Prev()...)
		stack = append(stack, n.Next()...)
		stack = append(stack, n.Back()...)
		stack = append(stack, n.Forw()...)
	}

	order := make([]NodeID, 0, len(visited))
	const (
		unvisited uint8 = iota
		inProgress
		done
	)
	state := make(map[NodeID]uint8, len(visited))
	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		switch state[id] {
		case done:
			return nil
		case inProgress:
			return irerr.InvalidConstructionf("CloneSubgraph: prev-edge cycle detected at node %d", id)
		}
		state[id] = inProgress
		n := src.MustNode(id)
		for _, p := range n.Prev() {
			if visited[p] {
				if err := visit(p); err != nil {
					return err
				}
			}
		}
		state[id] = done
		order = append(order, id)
		return nil
	}
	ids := make([]NodeID, 0, len(visited))
	for id := range visited {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if err := visit(id); err != nil {
			return nil, err
		}
	}

	mapping := make(map[NodeID]NodeID, len(order))
	for _, id := range order {
		n := src.MustNode(id)
		clone := n.Clone(mapping, src, into)
		mapping[id] = clone.ID()
	}

	for _, id := range order {
		switch n := src.MustNode(id).(type) {
		case *FeedbackNode:
			clonedID, ok := mapping[id]
			if !ok {
				continue
			}
			twinID, ok := mapping[n.Twin]
			if !ok {
				continue
			}
			cf := into.MustNode(clonedID).(*FeedbackNode)
			cf.Twin = twinID
			if n.In {
				into.addForwBack(clonedID, twinID)
			} else {
				into.addForwBack(twinID, clonedID)
			}
		case *MergeNode:
			if n.Mode != MergeWhileMode {
				continue
			}
			rightOrig := n.forw.slice()
			if len(rightOrig) == 0 {
				continue
			}
			rightClone, ok := mapping[rightOrig[0]]
			if !ok {
				continue
			}
			into.addForwBack(mapping[id], rightClone)
		}
	}

	return mapping, nil
}
