package dag

import (
	"fmt"

	"mapsir/internal/irtype"
)

// BarrierNode forces a materialization boundary between two fused regions:
// its operand must be fully evaluated to memory before any consumer reads
// it, so a fusion pass treats a Barrier as a hard partition edge it cannot
// cross. Metadata copies the operand's verbatim.
type BarrierNode struct {
	NodeCommon
}

type barrierKey struct {
	prev NodeID
}

func (d *Dag) Barrier(prev Node) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	key := barrierKey{prev: prev.ID()}
	n := d.lookupOrInsert(KindBarrier, key, func() Node {
		node := &BarrierNode{NodeCommon: NodeCommon{kind: KindBarrier, meta: prev.Meta(), prev: []NodeID{prev.ID()}}}
		id := d.allocate(node)
		d.addNext(prev.ID(), id)
		return node
	})
	return n, nil
}

func (n *BarrierNode) Pattern() irtype.Pattern { return irtype.Free }
func (n *BarrierNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	return fmt.Sprintf("%c%s%s", n.Kind().classSignature(), prev.Meta().NumDim(), prev.Meta().DataType())
}
func (n *BarrierNode) Accept(v Visitor, d *Dag) error { return v.VisitBarrier(n) }
func (n *BarrierNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &BarrierNode{NodeCommon: NodeCommon{kind: KindBarrier, meta: n.meta, prev: []NodeID{p}}}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}
