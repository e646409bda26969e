package dag

import (
	"fmt"

	"mapsir/internal/irerr"
	"mapsir/internal/irtype"
)

// RadialScanNode computes a single-pass radial distance/accumulation field
// from a direction raster. Unlike SpreadScan it needs no iteration state:
// metadata copies the operand's verbatim.
type RadialScanNode struct {
	NodeCommon
	Reduction irtype.ReductionType
}

type radialScanKey struct {
	prev, dir NodeID
	reduce    irtype.ReductionType
}

func (d *Dag) RadialScan(prev, dir Node, reduction irtype.ReductionType) (Node, error) {
	if err := d.checkForeign(prev, dir); err != nil {
		return nil, err
	}
	if prev.Meta().NumDim() == irtype.D0 {
		return nil, irerr.InvalidConstructionf("RadialScan requires a non-scalar operand")
	}
	if !prev.Meta().DataSize().Eq(dir.Meta().DataSize()) {
		return nil, irerr.MetaDataMismatchf("RadialScan: prev and dir must share DataSize, got %s and %s", prev.Meta().DataSize(), dir.Meta().DataSize())
	}
	if dir.Meta().DataType() != irtype.U8 {
		return nil, irerr.InvalidConstructionf("RadialScan: dir must be U8-typed (2D direction code), got %s", dir.Meta().DataType())
	}
	key := radialScanKey{prev: prev.ID(), dir: dir.ID(), reduce: reduction}
	n := d.lookupOrInsert(KindRadialScan, key, func() Node {
		node := &RadialScanNode{
			NodeCommon: NodeCommon{kind: KindRadialScan, meta: prev.Meta(), prev: []NodeID{prev.ID(), dir.ID()}},
			Reduction:  reduction,
		}
		id := d.allocate(node)
		d.addNext(prev.ID(), id)
		d.addNext(dir.ID(), id)
		return node
	})
	return n, nil
}

func (n *RadialScanNode) Pattern() irtype.Pattern { return irtype.Radial }
func (n *RadialScanNode) Signature(d *Dag) string {
	prev, dir := d.MustNode(n.prev[0]), d.MustNode(n.prev[1])
	return fmt.Sprintf("%c%s%s%s%s%s", n.Kind().classSignature(),
		prev.Meta().NumDim(), prev.Meta().DataType(), dir.Meta().NumDim(), dir.Meta().DataType(), n.Reduction)
}
func (n *RadialScanNode) Accept(v Visitor, d *Dag) error { return v.VisitRadialScan(n) }
func (n *RadialScanNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	prev, dir := mapping[n.prev[0]], mapping[n.prev[1]]
	clone := &RadialScanNode{NodeCommon: NodeCommon{kind: KindRadialScan, meta: n.meta, prev: []NodeID{prev, dir}}, Reduction: n.Reduction}
	id := into.allocate(clone)
	into.addNext(prev, id)
	into.addNext(dir, id)
	return clone
}

// SpreadScanNode iteratively propagates a front across prev following dir,
// accumulating under reduction until stable. It carries five operand
// slots: prev, dir, and three Temporal accumulators (spread, buffer,
// stable) that hold iteration state between passes. All five slots are
// populated and every one of them is registered with the owning Dag and
// back-edged via addNext, so SpreadScan is a true arity-5 node and its
// accumulators are reachable for freezing/cloning.
type SpreadScanNode struct {
	NodeCommon
	Reduction irtype.ReductionType
}

type spreadScanKey struct {
	prev, dir NodeID
	reduce    irtype.ReductionType
}

func (d *Dag) SpreadScan(prev, dir Node, reduction irtype.ReductionType) (Node, error) {
	if err := d.checkForeign(prev, dir); err != nil {
		return nil, err
	}
	if prev.Meta().NumDim() == irtype.D0 {
		return nil, irerr.InvalidConstructionf("SpreadScan requires a non-scalar operand")
	}
	if !prev.Meta().DataSize().Eq(dir.Meta().DataSize()) {
		return nil, irerr.MetaDataMismatchf("SpreadScan: prev and dir must share DataSize, got %s and %s", prev.Meta().DataSize(), dir.Meta().DataSize())
	}
	if dir.Meta().DataType() != irtype.U8 {
		return nil, irerr.InvalidConstructionf("SpreadScan: dir must be U8-typed (2D direction code), got %s", dir.Meta().DataType())
	}
	key := spreadScanKey{prev: prev.ID(), dir: dir.ID(), reduce: reduction}
	n := d.lookupOrInsert(KindSpreadScan, key, func() Node {
		meta := irtype.NewMetaData(prev.Meta().DataSize(), prev.Meta().DataType(), prev.Meta().MemOrder(), prev.Meta().BlockSize())

		spread := d.Temporal(prev.Meta())
		buffer := d.Temporal(prev.Meta())
		stableMeta := irtype.NewMetaData(prev.Meta().DataSize(), irtype.U16, prev.Meta().MemOrder(), prev.Meta().BlockSize())
		stable := d.Temporal(stableMeta)

		node := &SpreadScanNode{
			NodeCommon: NodeCommon{
				kind: KindSpreadScan,
				meta: meta,
				prev: []NodeID{prev.ID(), dir.ID(), spread.ID(), buffer.ID(), stable.ID()},
			},
			Reduction: reduction,
		}
		id := d.allocate(node)
		d.addNext(prev.ID(), id)
		d.addNext(dir.ID(), id)
		d.addNext(spread.ID(), id)
		d.addNext(buffer.ID(), id)
		d.addNext(stable.ID(), id)
		return node
	})
	return n, nil
}

func (n *SpreadScanNode) Pattern() irtype.Pattern { return irtype.Radial }

// Spread, Buffer and Stable expose the three Temporal accumulator slots by
// name so consumers don't need to remember prev_list positions.
func (n *SpreadScanNode) Spread() NodeID { return n.prev[2] }
func (n *SpreadScanNode) Buffer() NodeID { return n.prev[3] }
func (n *SpreadScanNode) Stable() NodeID { return n.prev[4] }

func (n *SpreadScanNode) Signature(d *Dag) string {
	prev, dir := d.MustNode(n.prev[0]), d.MustNode(n.prev[1])
	return fmt.Sprintf("%c%s%s%s%s%s", n.Kind().classSignature(),
		prev.Meta().NumDim(), prev.Meta().DataType(), dir.Meta().NumDim(), dir.Meta().DataType(), n.Reduction)
}
func (n *SpreadScanNode) Accept(v Visitor, d *Dag) error { return v.VisitSpreadScan(n) }
func (n *SpreadScanNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	ids := make([]NodeID, 5)
	for i, id := range n.prev {
		ids[i] = mapping[id]
	}
	clone := &SpreadScanNode{NodeCommon: NodeCommon{kind: KindSpreadScan, meta: n.meta, prev: ids}, Reduction: n.Reduction}
	cid := into.allocate(clone)
	for _, id := range ids {
		into.addNext(id, cid)
	}
	return clone
}
