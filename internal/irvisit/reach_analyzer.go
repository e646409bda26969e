package irvisit

import (
	"mapsir/internal/dag"
	"mapsir/internal/irtype"
)

// haloer is implemented by every focal-family node kind that reads beyond
// its own interior (FocalFunc, FocalPercent, FocalFlow, Neighbor).
type haloer interface {
	Halo() irtype.BlockSize
}

// boundary reports whether a node forces a materialization boundary: the
// fusion partitioner stops composing reach past one, since the value is
// flattened to a real buffer before any consumer runs.
func boundary(n dag.Node) bool {
	switch n.Kind() {
	case dag.KindBarrier, dag.KindWrite, dag.KindCheckpoint:
		return true
	default:
		return false
	}
}

// ReachAnalyzer composes each node's own stencil footprint with its
// downstream consumers' footprints, the way a fusion pass sizes the
// window of upstream data a fused kernel chain must keep live. It never
// mutates the Dag; results land in the side-tables InReach/OutReach keyed
// by NodeID.
type ReachAnalyzer struct {
	dag.BaseVisitor

	// InReach[id] is n's own stencil into its primary operand.
	InReach map[dag.NodeID]irtype.BlockSize
	// OutReach[id] is the total halo a value produced by n must still
	// satisfy across every downstream consumer up to the next
	// materialization boundary.
	OutReach map[dag.NodeID]irtype.BlockSize

	d *dag.Dag
}

func NewReachAnalyzer(d *dag.Dag) *ReachAnalyzer {
	return &ReachAnalyzer{
		InReach:  make(map[dag.NodeID]irtype.BlockSize),
		OutReach: make(map[dag.NodeID]irtype.BlockSize),
		d:        d,
	}
}

// Analyze visits every node id in ids and fills InReach/OutReach for each.
// Callers pass ids in any order; OutReach recursion resolves and memoizes
// consumers on demand regardless of visit order.
func (r *ReachAnalyzer) Analyze(ids []dag.NodeID) error {
	for _, id := range ids {
		n, ok := r.d.Node(id)
		if !ok {
			continue
		}
		if err := n.Accept(r, r.d); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReachAnalyzer) ownHalo(n dag.Node) irtype.BlockSize {
	if h, ok := n.(haloer); ok {
		return h.Halo()
	}
	return irtype.BlockSize{}
}

func maxBlockSize(a, b irtype.BlockSize) irtype.BlockSize {
	var out irtype.BlockSize
	for i := range out {
		v := a[i]
		if b[i] > v {
			v = b[i]
		}
		out[i] = v
	}
	return out
}

func addBlockSize(a, b irtype.BlockSize) irtype.BlockSize {
	var out irtype.BlockSize
	for i := range out {
		out[i] = a[i] + b[i]
	}
	return out
}

// outReach computes (and memoizes) how far downstream a node's value is
// still read, recursing through consumers until a materialization
// boundary or a dead end. A diamond (two consumers reading different
// amounts) takes the wider of the two, since the producer must satisfy
// whichever consumer reads further.
func (r *ReachAnalyzer) outReach(n dag.Node) irtype.BlockSize {
	if v, ok := r.OutReach[n.ID()]; ok {
		return v
	}
	var acc irtype.BlockSize
	for _, cid := range n.Next() {
		c, ok := r.d.Node(cid)
		if !ok {
			continue
		}
		if boundary(c) {
			continue
		}
		contrib := r.ownHalo(c)
		contrib = addBlockSize(contrib, r.outReach(c))
		acc = maxBlockSize(acc, contrib)
	}
	r.OutReach[n.ID()] = acc
	return acc
}

func (r *ReachAnalyzer) visit(n dag.Node) error {
	r.InReach[n.ID()] = r.ownHalo(n)
	r.outReach(n)
	return nil
}

func (r *ReachAnalyzer) VisitConstant(n *dag.ConstantNode) error           { return r.visit(n) }
func (r *ReachAnalyzer) VisitRead(n *dag.ReadNode) error                   { return r.visit(n) }
func (r *ReachAnalyzer) VisitRand(n *dag.RandNode) error                   { return r.visit(n) }
func (r *ReachAnalyzer) VisitIndex(n *dag.IndexNode) error                 { return r.visit(n) }
func (r *ReachAnalyzer) VisitEmpty(n *dag.EmptyNode) error                 { return r.visit(n) }
func (r *ReachAnalyzer) VisitUnaryLocal(n *dag.UnaryLocalNode) error       { return r.visit(n) }
func (r *ReachAnalyzer) VisitBinaryLocal(n *dag.BinaryLocalNode) error     { return r.visit(n) }
func (r *ReachAnalyzer) VisitTernaryLocal(n *dag.TernaryLocalNode) error   { return r.visit(n) }
func (r *ReachAnalyzer) VisitCast(n *dag.CastNode) error                   { return r.visit(n) }
func (r *ReachAnalyzer) VisitFocalFunc(n *dag.FocalFuncNode) error         { return r.visit(n) }
func (r *ReachAnalyzer) VisitFocalPercent(n *dag.FocalPercentNode) error   { return r.visit(n) }
func (r *ReachAnalyzer) VisitFocalFlow(n *dag.FocalFlowNode) error         { return r.visit(n) }
func (r *ReachAnalyzer) VisitNeighbor(n *dag.NeighborNode) error           { return r.visit(n) }
func (r *ReachAnalyzer) VisitZonalReduc(n *dag.ZonalReducNode) error       { return r.visit(n) }
func (r *ReachAnalyzer) VisitRadialScan(n *dag.RadialScanNode) error       { return r.visit(n) }
func (r *ReachAnalyzer) VisitSpreadScan(n *dag.SpreadScanNode) error       { return r.visit(n) }
func (r *ReachAnalyzer) VisitBarrier(n *dag.BarrierNode) error             { return r.visit(n) }
func (r *ReachAnalyzer) VisitWrite(n *dag.WriteNode) error                 { return r.visit(n) }
func (r *ReachAnalyzer) VisitCheckpoint(n *dag.CheckpointNode) error       { return r.visit(n) }
func (r *ReachAnalyzer) VisitLoopCond(n *dag.LoopCondNode) error           { return r.visit(n) }
func (r *ReachAnalyzer) VisitLoopHead(n *dag.LoopHeadNode) error           { return r.visit(n) }
func (r *ReachAnalyzer) VisitLoopTail(n *dag.LoopTailNode) error           { return r.visit(n) }
func (r *ReachAnalyzer) VisitFeedback(n *dag.FeedbackNode) error           { return r.visit(n) }
func (r *ReachAnalyzer) VisitMerge(n *dag.MergeNode) error                 { return r.visit(n) }
func (r *ReachAnalyzer) VisitSwitch(n *dag.SwitchNode) error               { return r.visit(n) }
func (r *ReachAnalyzer) VisitAccess(n *dag.AccessNode) error               { return r.visit(n) }
func (r *ReachAnalyzer) VisitTemporal(n *dag.TemporalNode) error           { return r.visit(n) }
func (r *ReachAnalyzer) VisitIdentity(n *dag.IdentityNode) error           { return r.visit(n) }
func (r *ReachAnalyzer) VisitSummary(n *dag.SummaryNode) error             { return r.visit(n) }
func (r *ReachAnalyzer) VisitStats(n *dag.StatsNode) error                 { return r.visit(n) }
