// Package irvisit holds reference Visitor consumers: callers that drive a
// dag.Dag traversal themselves and use Node.Accept to dispatch into typed
// handlers, the way internal/compiler drives parser.Expr.Accept. Neither
// consumer here reaches into dag's unexported fields — both go through the
// public Node/Visitor surface only.
package irvisit

import (
	"mapsir/internal/dag"
	"mapsir/internal/irtype"
)

// PatternClassifier assigns every visited node's irtype.Pattern into a
// caller-supplied cluster map, keyed by NodeID. It stands in for a fusion
// partitioner: grouping nodes by Pattern is the first cut a real
// partitioner takes before refining clusters with adjacency and cost
// heuristics.
type PatternClassifier struct {
	dag.BaseVisitor
	Clusters map[dag.NodeID]int

	next  int
	byPat map[irtype.Pattern]int
}

func NewPatternClassifier() *PatternClassifier {
	return &PatternClassifier{
		Clusters: make(map[dag.NodeID]int),
		byPat:    make(map[irtype.Pattern]int),
	}
}

// Classify visits every node id in ids (in caller order) and assigns it a
// cluster number, reusing a prior cluster whenever two nodes share the
// same Pattern.
func (c *PatternClassifier) Classify(d *dag.Dag, ids []dag.NodeID) error {
	for _, id := range ids {
		n, ok := d.Node(id)
		if !ok {
			continue
		}
		if err := n.Accept(c, d); err != nil {
			return err
		}
	}
	return nil
}

// assign is shared by every Visit<Kind> method: a node's cluster is driven
// purely by its Pattern classification, not its concrete Kind, so two
// different kinds sharing a Pattern (e.g. FocalFunc and FocalFlow, both
// irtype.Focal) land in the same cluster.
func (c *PatternClassifier) assign(n dag.Node) error {
	pat := n.Pattern()
	id, ok := c.byPat[pat]
	if !ok {
		id = c.next
		c.next++
		c.byPat[pat] = id
	}
	c.Clusters[n.ID()] = id
	return nil
}

func (c *PatternClassifier) VisitConstant(n *dag.ConstantNode) error           { return c.assign(n) }
func (c *PatternClassifier) VisitRead(n *dag.ReadNode) error                   { return c.assign(n) }
func (c *PatternClassifier) VisitRand(n *dag.RandNode) error                   { return c.assign(n) }
func (c *PatternClassifier) VisitIndex(n *dag.IndexNode) error                 { return c.assign(n) }
func (c *PatternClassifier) VisitEmpty(n *dag.EmptyNode) error                 { return c.assign(n) }
func (c *PatternClassifier) VisitUnaryLocal(n *dag.UnaryLocalNode) error       { return c.assign(n) }
func (c *PatternClassifier) VisitBinaryLocal(n *dag.BinaryLocalNode) error     { return c.assign(n) }
func (c *PatternClassifier) VisitTernaryLocal(n *dag.TernaryLocalNode) error   { return c.assign(n) }
func (c *PatternClassifier) VisitCast(n *dag.CastNode) error                   { return c.assign(n) }
func (c *PatternClassifier) VisitFocalFunc(n *dag.FocalFuncNode) error        { return c.assign(n) }
func (c *PatternClassifier) VisitFocalPercent(n *dag.FocalPercentNode) error  { return c.assign(n) }
func (c *PatternClassifier) VisitFocalFlow(n *dag.FocalFlowNode) error        { return c.assign(n) }
func (c *PatternClassifier) VisitNeighbor(n *dag.NeighborNode) error          { return c.assign(n) }
func (c *PatternClassifier) VisitZonalReduc(n *dag.ZonalReducNode) error      { return c.assign(n) }
func (c *PatternClassifier) VisitRadialScan(n *dag.RadialScanNode) error      { return c.assign(n) }
func (c *PatternClassifier) VisitSpreadScan(n *dag.SpreadScanNode) error      { return c.assign(n) }
func (c *PatternClassifier) VisitBarrier(n *dag.BarrierNode) error            { return c.assign(n) }
func (c *PatternClassifier) VisitWrite(n *dag.WriteNode) error                { return c.assign(n) }
func (c *PatternClassifier) VisitCheckpoint(n *dag.CheckpointNode) error      { return c.assign(n) }
func (c *PatternClassifier) VisitLoopCond(n *dag.LoopCondNode) error          { return c.assign(n) }
func (c *PatternClassifier) VisitLoopHead(n *dag.LoopHeadNode) error          { return c.assign(n) }
func (c *PatternClassifier) VisitLoopTail(n *dag.LoopTailNode) error          { return c.assign(n) }
func (c *PatternClassifier) VisitFeedback(n *dag.FeedbackNode) error          { return c.assign(n) }
func (c *PatternClassifier) VisitMerge(n *dag.MergeNode) error                { return c.assign(n) }
func (c *PatternClassifier) VisitSwitch(n *dag.SwitchNode) error              { return c.assign(n) }
func (c *PatternClassifier) VisitAccess(n *dag.AccessNode) error              { return c.assign(n) }
func (c *PatternClassifier) VisitTemporal(n *dag.TemporalNode) error          { return c.assign(n) }
func (c *PatternClassifier) VisitIdentity(n *dag.IdentityNode) error          { return c.assign(n) }
func (c *PatternClassifier) VisitSummary(n *dag.SummaryNode) error            { return c.assign(n) }
func (c *PatternClassifier) VisitStats(n *dag.StatsNode) error                { return c.assign(n) }
