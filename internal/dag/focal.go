package dag

import (
	"fmt"

	"mapsir/internal/irerr"
	"mapsir/internal/irtype"
)

// FocalFuncNode applies a reduction over a stencil mask around each cell.
// Metadata copies the operand's verbatim.
type FocalFuncNode struct {
	NodeCommon
	Mask      irtype.Mask
	Reduction irtype.ReductionType
}

type focalFuncKey struct {
	prev   NodeID
	mask   uint64
	reduce irtype.ReductionType
}

func (d *Dag) FocalFunc(prev Node, mask irtype.Mask, reduction irtype.ReductionType) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	if prev.Meta().NumDim() == irtype.D0 {
		return nil, irerr.InvalidConstructionf("FocalFunc requires a non-scalar operand")
	}
	if prev.Meta().NumDim() != mask.NumDim() {
		return nil, irerr.InvalidConstructionf("FocalFunc mask rank %s does not match operand rank %s", mask.NumDim(), prev.Meta().NumDim())
	}
	key := focalFuncKey{prev: prev.ID(), mask: mask.Hash(), reduce: reduction}
	n := d.lookupOrInsert(KindFocalFunc, key, func() Node {
		node := &FocalFuncNode{
			NodeCommon: NodeCommon{kind: KindFocalFunc, meta: prev.Meta(), prev: []NodeID{prev.ID()}},
			Mask:       mask, Reduction: reduction,
		}
		id := d.allocate(node)
		d.addNext(prev.ID(), id)
		return node
	})
	return n, nil
}

func (n *FocalFuncNode) Pattern() irtype.Pattern { return irtype.Focal }
func (n *FocalFuncNode) Halo() irtype.BlockSize  { return n.Mask.Halve() }
func (n *FocalFuncNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	return fmt.Sprintf("%c%s%s%s%s", n.Kind().classSignature(), prev.Meta().NumDim(), prev.Meta().DataType(), n.Mask.Signature(), n.Reduction)
}
func (n *FocalFuncNode) Accept(v Visitor, d *Dag) error { return v.VisitFocalFunc(n) }
func (n *FocalFuncNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &FocalFuncNode{NodeCommon: NodeCommon{kind: KindFocalFunc, meta: n.meta, prev: []NodeID{p}}, Mask: n.Mask, Reduction: n.Reduction}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}

// FocalPercentNode is a morphological percent-rank operator over a mask.
type FocalPercentNode struct {
	NodeCommon
	Mask irtype.Mask
	Type irtype.PercentType
}

type focalPercentKey struct {
	prev NodeID
	mask uint64
	typ  irtype.PercentType
}

func (d *Dag) FocalPercent(prev Node, mask irtype.Mask, typ irtype.PercentType) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	if prev.Meta().NumDim() == irtype.D0 {
		return nil, irerr.InvalidConstructionf("FocalPercent requires a non-scalar operand")
	}
	if typ == irtype.NonePercent {
		return nil, irerr.InvalidConstructionf("FocalPercent requires a PercentType other than NonePercent")
	}
	if prev.Meta().NumDim() != mask.NumDim() {
		return nil, irerr.InvalidConstructionf("FocalPercent mask rank %s does not match operand rank %s", mask.NumDim(), prev.Meta().NumDim())
	}
	key := focalPercentKey{prev: prev.ID(), mask: mask.Hash(), typ: typ}
	n := d.lookupOrInsert(KindFocalPercent, key, func() Node {
		node := &FocalPercentNode{
			NodeCommon: NodeCommon{kind: KindFocalPercent, meta: prev.Meta(), prev: []NodeID{prev.ID()}},
			Mask:       mask, Type: typ,
		}
		id := d.allocate(node)
		d.addNext(prev.ID(), id)
		return node
	})
	return n, nil
}

func (n *FocalPercentNode) Pattern() irtype.Pattern { return irtype.Focal }

// Halo returns floor(mask extent / 2).
func (n *FocalPercentNode) Halo() irtype.BlockSize { return n.Mask.Halve() }

func (n *FocalPercentNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	return fmt.Sprintf("%c%s%s%s%s", n.Kind().classSignature(), prev.Meta().NumDim(), prev.Meta().DataType(), n.Mask.Signature(), n.Type)
}
func (n *FocalPercentNode) Accept(v Visitor, d *Dag) error { return v.VisitFocalPercent(n) }
func (n *FocalPercentNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &FocalPercentNode{NodeCommon: NodeCommon{kind: KindFocalPercent, meta: n.meta, prev: []NodeID{p}}, Mask: n.Mask, Type: n.Type}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}

// FocalFlowNode computes a flow direction field over a fixed 3x3 stencil
// (a 1-cell halo), always
// U8-typed regardless of its operand's DataType.
type FocalFlowNode struct {
	NodeCommon
}

type focalFlowKey struct {
	prev NodeID
}

func (d *Dag) FocalFlow(prev Node) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	if prev.Meta().NumDim() == irtype.D0 {
		return nil, irerr.InvalidConstructionf("FocalFlow requires a non-scalar operand")
	}
	key := focalFlowKey{prev: prev.ID()}
	n := d.lookupOrInsert(KindFocalFlow, key, func() Node {
		meta := irtype.NewMetaData(prev.Meta().DataSize(), irtype.U8, prev.Meta().MemOrder(), prev.Meta().BlockSize())
		node := &FocalFlowNode{NodeCommon: NodeCommon{kind: KindFocalFlow, meta: meta, prev: []NodeID{prev.ID()}}}
		id := d.allocate(node)
		d.addNext(prev.ID(), id)
		return node
	})
	return n, nil
}

func (n *FocalFlowNode) Pattern() irtype.Pattern  { return irtype.Focal }
func (n *FocalFlowNode) Halo() irtype.BlockSize   { return irtype.BlockSizeOf(1, 1) }
func (n *FocalFlowNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	return fmt.Sprintf("%c%s%s", n.Kind().classSignature(), prev.Meta().NumDim(), prev.Meta().DataType())
}
func (n *FocalFlowNode) Accept(v Visitor, d *Dag) error { return v.VisitFocalFlow(n) }
func (n *FocalFlowNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &FocalFlowNode{NodeCommon: NodeCommon{kind: KindFocalFlow, meta: n.meta, prev: []NodeID{p}}}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}

// NeighborNode fetches a single offset neighbor's value (a 1-cell special
// case of the focal family, e.g. used to desugar FocalFlow's direction
// probes). Halo equals the offset's absolute coordinate.
type NeighborNode struct {
	NodeCommon
	Offset irtype.Coord
}

type neighborKey struct {
	prev   NodeID
	offset irtype.Coord
}

func (d *Dag) Neighbor(prev Node, offset irtype.Coord) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	if prev.Meta().NumDim() == irtype.D0 {
		return nil, irerr.InvalidConstructionf("Neighbor requires a non-scalar operand")
	}
	key := neighborKey{prev: prev.ID(), offset: offset}
	n := d.lookupOrInsert(KindNeighbor, key, func() Node {
		node := &NeighborNode{NodeCommon: NodeCommon{kind: KindNeighbor, meta: prev.Meta(), prev: []NodeID{prev.ID()}}, Offset: offset}
		id := d.allocate(node)
		d.addNext(prev.ID(), id)
		return node
	})
	return n, nil
}

// Halo returns the offset's per-axis absolute value: a single-neighbor
// fetch reaches exactly that far beyond a block's interior.
func (n *NeighborNode) Halo() irtype.BlockSize {
	var b irtype.BlockSize
	for i := 0; i < n.Offset.NumDim().Rank(); i++ {
		v := n.Offset[i]
		if v < 0 {
			v = -v
		}
		b[i] = v
	}
	return b
}

func (n *NeighborNode) Pattern() irtype.Pattern { return irtype.Focal }
func (n *NeighborNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	return fmt.Sprintf("%c%s%s%s", n.Kind().classSignature(), prev.Meta().NumDim(), prev.Meta().DataType(), n.Offset)
}
func (n *NeighborNode) Accept(v Visitor, d *Dag) error { return v.VisitNeighbor(n) }
func (n *NeighborNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &NeighborNode{NodeCommon: NodeCommon{kind: KindNeighbor, meta: n.meta, prev: []NodeID{p}}, Offset: n.Offset}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}
