package dag

import (
	"fmt"

	"mapsir/internal/irerr"
	"mapsir/internal/irtype"
)

// TemporalNode is an anonymous, sourceless intermediate value slot used by
// multi-stage operators (SpreadScan's spread/buffer/stable accumulators)
// that need storage with no dataflow predecessor of their own. Temporal
// nodes are never hash-consed against each other by value — each call
// allocates a fresh one, since two Temporals with identical MetaData are
// still logically distinct storage slots.
type TemporalNode struct {
	NodeCommon
}

func (d *Dag) Temporal(meta irtype.MetaData) Node {
	node := &TemporalNode{NodeCommon: NodeCommon{kind: KindTemporal, meta: meta}}
	d.allocate(node)
	return node
}

func (n *TemporalNode) Pattern() irtype.Pattern { return irtype.Free }
func (n *TemporalNode) Signature(d *Dag) string {
	return fmt.Sprintf("%c%d%s%s", n.Kind().classSignature(), n.id, n.Meta().NumDim(), n.Meta().DataType())
}
func (n *TemporalNode) Accept(v Visitor, d *Dag) error { return v.VisitTemporal(n) }
func (n *TemporalNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	clone := &TemporalNode{NodeCommon: NodeCommon{kind: KindTemporal, meta: n.meta}}
	into.allocate(clone)
	return clone
}

// IdentityNode forwards its operand's value unchanged, used to give a
// shared subexpression a distinct logical name (e.g. loop-carried SSA
// renaming) without altering its MetaData.
type IdentityNode struct {
	NodeCommon
}

type identityKey struct {
	prev NodeID
}

func (d *Dag) Identity(prev Node) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	key := identityKey{prev: prev.ID()}
	n := d.lookupOrInsert(KindIdentity, key, func() Node {
		node := &IdentityNode{NodeCommon: NodeCommon{kind: KindIdentity, meta: prev.Meta(), prev: []NodeID{prev.ID()}}}
		id := d.allocate(node)
		d.addNext(prev.ID(), id)
		return node
	})
	return n, nil
}

func (n *IdentityNode) Pattern() irtype.Pattern { return irtype.Free }
func (n *IdentityNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	return fmt.Sprintf("%c%s%s", n.Kind().classSignature(), prev.Meta().NumDim(), prev.Meta().DataType())
}
func (n *IdentityNode) Accept(v Visitor, d *Dag) error { return v.VisitIdentity(n) }
func (n *IdentityNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &IdentityNode{NodeCommon: NodeCommon{kind: KindIdentity, meta: n.meta, prev: []NodeID{p}}}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}

// SummaryNode reduces its operand to a D0 scalar summary value (e.g. a
// min/max/mean digest computed for diagnostics rather than for the
// map-algebra result itself — unlike ZonalReduc, a Summary never
// participates in the fusion pattern classification beyond Free).
type SummaryNode struct {
	NodeCommon
	Reduction irtype.ReductionType
}

type summaryKey struct {
	prev   NodeID
	reduce irtype.ReductionType
}

func (d *Dag) Summary(prev Node, reduction irtype.ReductionType) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	key := summaryKey{prev: prev.ID(), reduce: reduction}
	n := d.lookupOrInsert(KindSummary, key, func() Node {
		meta := irtype.NewMetaData(irtype.DataSize{}, prev.Meta().DataType(), prev.Meta().MemOrder(), irtype.BlockSize{})
		node := &SummaryNode{NodeCommon: NodeCommon{kind: KindSummary, meta: meta, prev: []NodeID{prev.ID()}}, Reduction: reduction}
		id := d.allocate(node)
		d.addNext(prev.ID(), id)
		return node
	})
	return n, nil
}

func (n *SummaryNode) Pattern() irtype.Pattern { return irtype.Free }
func (n *SummaryNode) Signature(d *Dag) string {
	return fmt.Sprintf("%c%s%s", n.Kind().classSignature(), n.Reduction, n.Meta().DataType())
}
func (n *SummaryNode) Accept(v Visitor, d *Dag) error { return v.VisitSummary(n) }
func (n *SummaryNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &SummaryNode{NodeCommon: NodeCommon{kind: KindSummary, meta: n.meta, prev: []NodeID{p}}, Reduction: n.Reduction}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}

// StatsNode attaches a side-channel statistics tap to its operand: it
// passes the value through unchanged while marking the point in the graph
// where an evaluator should sample running statistics.
type StatsNode struct {
	NodeCommon
	Label string
}

type statsKey struct {
	prev  NodeID
	label string
}

func (d *Dag) Stats(prev Node, label string) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	if label == "" {
		return nil, irerr.InvalidConstructionf("Stats requires a non-empty label")
	}
	key := statsKey{prev: prev.ID(), label: label}
	n := d.lookupOrInsert(KindStats, key, func() Node {
		node := &StatsNode{NodeCommon: NodeCommon{kind: KindStats, meta: prev.Meta(), prev: []NodeID{prev.ID()}}, Label: label}
		id := d.allocate(node)
		d.addNext(prev.ID(), id)
		return node
	})
	return n, nil
}

func (n *StatsNode) Pattern() irtype.Pattern { return irtype.Free }
func (n *StatsNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	return fmt.Sprintf("%c%s%s%s", n.Kind().classSignature(), n.Label, prev.Meta().NumDim(), prev.Meta().DataType())
}
func (n *StatsNode) Accept(v Visitor, d *Dag) error { return v.VisitStats(n) }
func (n *StatsNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &StatsNode{NodeCommon: NodeCommon{kind: KindStats, meta: n.meta, prev: []NodeID{p}}, Label: n.Label}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}
