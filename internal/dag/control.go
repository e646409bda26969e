package dag

import (
	"fmt"

	"mapsir/internal/irerr"
	"mapsir/internal/irtype"
)

// LoopCondNode wraps the scalar boolean expression a Loop tests before
// each iteration. Boolean values use the U8 convention the rest of the
// catalog already uses for direction/flow codes.
type LoopCondNode struct {
	NodeCommon
}

func (d *Dag) LoopCond(prev Node) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	if prev.Meta().NumDim() != irtype.D0 {
		return nil, irerr.InvalidConstructionf("LoopCond requires a scalar (D0) operand, got %s", prev.Meta().NumDim())
	}
	meta := irtype.NewMetaData(irtype.DataSize{}, irtype.U8, prev.Meta().MemOrder(), prev.Meta().BlockSize())
	node := &LoopCondNode{NodeCommon: NodeCommon{kind: KindLoopCond, meta: meta, prev: []NodeID{prev.ID()}}}
	id := d.allocate(node)
	d.addNext(prev.ID(), id)
	return node, nil
}

func (n *LoopCondNode) Pattern() irtype.Pattern { return irtype.Free }
func (n *LoopCondNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	return fmt.Sprintf("%c%s%s", n.Kind().classSignature(), prev.Meta().NumDim(), prev.Meta().DataType())
}
func (n *LoopCondNode) Accept(v Visitor, d *Dag) error { return v.VisitLoopCond(n) }
func (n *LoopCondNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &LoopCondNode{NodeCommon: NodeCommon{kind: KindLoopCond, meta: n.meta, prev: []NodeID{p}}}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}

// LoopHeadNode seeds one loop-carried variable with its pre-loop initial
// value. Its MetaData is the initial value's, since every iteration's
// Feedback twin must agree with it.
type LoopHeadNode struct {
	NodeCommon
}

func (d *Dag) LoopHead(init Node) (Node, error) {
	if err := d.checkForeign(init); err != nil {
		return nil, err
	}
	node := &LoopHeadNode{NodeCommon: NodeCommon{kind: KindLoopHead, meta: init.Meta(), prev: []NodeID{init.ID()}}}
	id := d.allocate(node)
	d.addNext(init.ID(), id)
	return node, nil
}

func (n *LoopHeadNode) Pattern() irtype.Pattern { return irtype.Free }
func (n *LoopHeadNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	return fmt.Sprintf("%c%s%s", n.Kind().classSignature(), prev.Meta().NumDim(), prev.Meta().DataType())
}
func (n *LoopHeadNode) Accept(v Visitor, d *Dag) error { return v.VisitLoopHead(n) }
func (n *LoopHeadNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &LoopHeadNode{NodeCommon: NodeCommon{kind: KindLoopHead, meta: n.meta, prev: []NodeID{p}}}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}

// LoopTailNode exposes one externally visible loop output after the loop
// terminates. MetaData copies its operand's (the loop's last FeedOut)
// verbatim.
type LoopTailNode struct {
	NodeCommon
}

func (d *Dag) LoopTail(prev Node) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	node := &LoopTailNode{NodeCommon: NodeCommon{kind: KindLoopTail, meta: prev.Meta(), prev: []NodeID{prev.ID()}}}
	id := d.allocate(node)
	d.addNext(prev.ID(), id)
	return node, nil
}

func (n *LoopTailNode) Pattern() irtype.Pattern { return irtype.Free }
func (n *LoopTailNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	return fmt.Sprintf("%c%s%s", n.Kind().classSignature(), prev.Meta().NumDim(), prev.Meta().DataType())
}
func (n *LoopTailNode) Accept(v Visitor, d *Dag) error { return v.VisitLoopTail(n) }
func (n *LoopTailNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &LoopTailNode{NodeCommon: NodeCommon{kind: KindLoopTail, meta: n.meta, prev: []NodeID{p}}}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}

// MergeMode distinguishes Merge's two construction shapes.
type MergeMode uint8

const (
	MergeWhileMode MergeMode = iota
	MergeIfElseMode
)

// MergeNode multiplexes between two candidate values. In MergeWhileMode
// one operand arrives positionally (prev[0]) and the other through a
// feedback back-edge (forw[0]); in MergeIfElseMode both arrive
// positionally (prev[0], prev[1]).
type MergeNode struct {
	NodeCommon
	Mode MergeMode
}

// MergeWhile builds a while-loop Merge: left is the loop-entry value
// (wired as a positional prev), right is the value fed back from the
// previous iteration's body (wired as a forw back-edge).
func (d *Dag) MergeWhile(left, right Node) (Node, error) {
	if err := d.checkForeign(left, right); err != nil {
		return nil, err
	}
	if !left.Meta().EqualModuloStreamDir(right.Meta()) {
		return nil, irerr.MetaDataMismatchf("MergeWhile: left/right metadata disagree: %v vs %v", left.Meta(), right.Meta())
	}
	sd := irtype.InOut
	if left.Meta().StreamDir() == irtype.In && right.Meta().StreamDir() == irtype.In {
		sd = irtype.In
	}
	meta := left.Meta().WithStreamDir(sd)
	node := &MergeNode{NodeCommon: NodeCommon{kind: KindMerge, meta: meta, prev: []NodeID{left.ID()}}, Mode: MergeWhileMode}
	id := d.allocate(node)
	d.addNext(left.ID(), id)
	d.addForwBack(id, right.ID()) // merge.forw ∋ right, right.back ∋ merge
	return node, nil
}

// MergeIfElse builds an if-else Merge: both branch values arrive
// positionally and must already agree modulo StreamDir. It is implemented
// as a plain two-way multiplexer.
func (d *Dag) MergeIfElse(left, right Node) (Node, error) {
	if err := d.checkForeign(left, right); err != nil {
		return nil, err
	}
	if !left.Meta().EqualModuloStreamDir(right.Meta()) {
		return nil, irerr.MetaDataMismatchf("MergeIfElse: left/right metadata disagree: %v vs %v", left.Meta(), right.Meta())
	}
	node := &MergeNode{NodeCommon: NodeCommon{kind: KindMerge, meta: left.Meta(), prev: []NodeID{left.ID(), right.ID()}}, Mode: MergeIfElseMode}
	id := d.allocate(node)
	d.addNext(left.ID(), id)
	d.addNext(right.ID(), id)
	return node, nil
}

// Left returns the Merge's first operand, always a positional prev in
// both modes.
func (n *MergeNode) Left(d *Dag) Node { return d.MustNode(n.prev[0]) }

// Right returns the Merge's second operand: prev[1] in if-else mode,
// forw[0] in while mode.
func (n *MergeNode) Right(d *Dag) Node {
	if n.Mode == MergeIfElseMode {
		return d.MustNode(n.prev[1])
	}
	return d.MustNode(n.forw.slice()[0])
}

// ComputeScalar resolves a D0 Merge given a fold environment that knows at
// most one of {left, right}'s value; exactly one of knownLeft/knownRight
// must be present.
func (n *MergeNode) ComputeScalar(knownLeft, knownRight *irtype.VariantType) (irtype.VariantType, error) {
	if (knownLeft == nil) == (knownRight == nil) {
		return irtype.VariantType{}, irerr.InvalidConstructionf("Merge.ComputeScalar requires exactly one of left/right to be known")
	}
	if knownLeft != nil {
		return *knownLeft, nil
	}
	return *knownRight, nil
}

// ComputeFixed is ComputeScalar's coordinate-wise analogue, selecting
// between two caller-supplied coordinate evaluators.
func (n *MergeNode) ComputeFixed(coord irtype.Coord, left, right func(irtype.Coord) (irtype.VariantType, bool)) (irtype.VariantType, error) {
	if v, ok := left(coord); ok {
		return v, nil
	}
	if v, ok := right(coord); ok {
		return v, nil
	}
	return irtype.VariantType{}, irerr.InvalidConstructionf("Merge.ComputeFixed: neither branch produced a value at %s", coord)
}

func (n *MergeNode) Pattern() irtype.Pattern { return irtype.MergePattern }
func (n *MergeNode) Signature(d *Dag) string {
	l := n.Left(d)
	r := n.Right(d)
	return fmt.Sprintf("%c%d%s%s%s%s", n.Kind().classSignature(), n.Mode, l.Meta().NumDim(), l.Meta().DataType(), r.Meta().NumDim(), r.Meta().DataType())
}
func (n *MergeNode) Accept(v Visitor, d *Dag) error { return v.VisitMerge(n) }
func (n *MergeNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	switch n.Mode {
	case MergeIfElseMode:
		l, r := mapping[n.prev[0]], mapping[n.prev[1]]
		clone := &MergeNode{NodeCommon: NodeCommon{kind: KindMerge, meta: n.meta, prev: []NodeID{l, r}}, Mode: n.Mode}
		id := into.allocate(clone)
		into.addNext(l, id)
		into.addNext(r, id)
		return clone
	default:
		// The while-mode "right" operand reaches this Merge through a
		// forw back-edge that may originate from a node later in
		// topological (prev-edge) order than this Merge itself (the
		// classic loop-carry cycle) — CloneSubgraph's second pass wires
		// it once every node in the closure has been cloned.
		l := mapping[n.prev[0]]
		clone := &MergeNode{NodeCommon: NodeCommon{kind: KindMerge, meta: n.meta, prev: []NodeID{l}}, Mode: n.Mode}
		id := into.allocate(clone)
		into.addNext(l, id)
		return clone
	}
}

// SwitchNode is an N-way positional multiplexer driven by a caller-managed
// selector (e.g. compiled branch index); every branch is a positional prev
// and must agree modulo StreamDir.
type SwitchNode struct {
	NodeCommon
}

func (d *Dag) Switch(branches ...Node) (Node, error) {
	if len(branches) < 2 {
		return nil, irerr.InvalidConstructionf("Switch requires at least 2 branches, got %d", len(branches))
	}
	if err := d.checkForeign(branches...); err != nil {
		return nil, err
	}
	first := branches[0].Meta()
	ids := make([]NodeID, len(branches))
	for i, b := range branches {
		if !b.Meta().EqualModuloStreamDir(first) {
			return nil, irerr.MetaDataMismatchf("Switch: branch %d metadata disagrees with branch 0", i)
		}
		ids[i] = b.ID()
	}
	node := &SwitchNode{NodeCommon: NodeCommon{kind: KindSwitch, meta: first, prev: ids}}
	id := d.allocate(node)
	for _, bid := range ids {
		d.addNext(bid, id)
	}
	return node, nil
}

func (n *SwitchNode) Pattern() irtype.Pattern { return irtype.MergePattern }
func (n *SwitchNode) Signature(d *Dag) string {
	s := string(n.Kind().classSignature())
	for _, p := range n.prev {
		b := d.MustNode(p)
		s += fmt.Sprintf("%s%s", b.Meta().NumDim(), b.Meta().DataType())
	}
	return s
}
func (n *SwitchNode) Accept(v Visitor, d *Dag) error { return v.VisitSwitch(n) }
func (n *SwitchNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	ids := make([]NodeID, len(n.prev))
	for i, p := range n.prev {
		ids[i] = mapping[p]
	}
	clone := &SwitchNode{NodeCommon: NodeCommon{kind: KindSwitch, meta: n.meta, prev: ids}}
	id := into.allocate(clone)
	for _, bid := range ids {
		into.addNext(bid, id)
	}
	return clone
}

// AccessNode indexes a single scalar element out of a larger operand at a
// caller-fixed coordinate, e.g. to read back a loop's final scalar result.
type AccessNode struct {
	NodeCommon
	At irtype.Coord
}

type accessKey struct {
	prev NodeID
	at   irtype.Coord
}

func (d *Dag) Access(prev Node, at irtype.Coord) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	if prev.Meta().NumDim() == irtype.D0 {
		return nil, irerr.InvalidConstructionf("Access requires a non-scalar operand")
	}
	key := accessKey{prev: prev.ID(), at: at}
	n := d.lookupOrInsert(KindAccess, key, func() Node {
		meta := irtype.NewMetaData(irtype.DataSize{}, prev.Meta().DataType(), prev.Meta().MemOrder(), irtype.BlockSize{})
		node := &AccessNode{NodeCommon: NodeCommon{kind: KindAccess, meta: meta, prev: []NodeID{prev.ID()}}, At: at}
		id := d.allocate(node)
		d.addNext(prev.ID(), id)
		return node
	})
	return n, nil
}

func (n *AccessNode) Pattern() irtype.Pattern { return irtype.Free }
func (n *AccessNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	return fmt.Sprintf("%c%s%s%s", n.Kind().classSignature(), prev.Meta().NumDim(), prev.Meta().DataType(), n.At)
}
func (n *AccessNode) Accept(v Visitor, d *Dag) error { return v.VisitAccess(n) }
func (n *AccessNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &AccessNode{NodeCommon: NodeCommon{kind: KindAccess, meta: n.meta, prev: []NodeID{p}}, At: n.At}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}
