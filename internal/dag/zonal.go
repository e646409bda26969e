package dag

import (
	"fmt"

	"mapsir/internal/irerr"
	"mapsir/internal/irtype"
)

// ZonalReducNode collapses an operand to a D0 scalar via a reduction.
type ZonalReducNode struct {
	NodeCommon
	Reduction irtype.ReductionType
	Neutral   irtype.VariantType
}

type zonalReducKey struct {
	prev   NodeID
	reduce irtype.ReductionType
}

func (d *Dag) ZonalReduc(prev Node, reduction irtype.ReductionType) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	if prev.Meta().NumDim() == irtype.D0 {
		return nil, irerr.InvalidConstructionf("ZonalReduc requires a non-scalar operand")
	}
	key := zonalReducKey{prev: prev.ID(), reduce: reduction}
	n := d.lookupOrInsert(KindZonalReduc, key, func() Node {
		meta := irtype.NewMetaData(irtype.DataSize{}, prev.Meta().DataType(), prev.Meta().MemOrder(), irtype.BlockSize{})
		node := &ZonalReducNode{
			NodeCommon: NodeCommon{kind: KindZonalReduc, meta: meta, prev: []NodeID{prev.ID()}},
			Reduction:  reduction,
			Neutral:    reduction.Neutral(prev.Meta().DataType()),
		}
		id := d.allocate(node)
		d.addNext(prev.ID(), id)
		return node
	})
	return n, nil
}

func (n *ZonalReducNode) Pattern() irtype.Pattern { return irtype.Zonal }
func (n *ZonalReducNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	return fmt.Sprintf("%c%s%s%s", n.Kind().classSignature(), prev.Meta().NumDim(), prev.Meta().DataType(), n.Reduction)
}
func (n *ZonalReducNode) Accept(v Visitor, d *Dag) error { return v.VisitZonalReduc(n) }
func (n *ZonalReducNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &ZonalReducNode{NodeCommon: NodeCommon{kind: KindZonalReduc, meta: n.meta, prev: []NodeID{p}}, Reduction: n.Reduction, Neutral: n.Neutral}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}
