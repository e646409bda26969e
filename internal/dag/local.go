package dag

import (
	"fmt"

	"mapsir/internal/irtype"
)

// UnaryLocalNode is a per-cell unary scalar-promotion operator ("-", "abs",
// "not", ...); metadata is inherited from its single operand verbatim.
type UnaryLocalNode struct {
	NodeCommon
	Op string
}

type unaryLocalKey struct {
	prev NodeID
	op   string
}

func (d *Dag) UnaryLocal(op string, prev Node) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	key := unaryLocalKey{prev: prev.ID(), op: op}
	n := d.lookupOrInsert(KindUnaryLocal, key, func() Node {
		node := &UnaryLocalNode{NodeCommon: NodeCommon{kind: KindUnaryLocal, meta: prev.Meta(), prev: []NodeID{prev.ID()}}, Op: op}
		id := d.allocate(node)
		d.addNext(prev.ID(), id)
		return node
	})
	return n, nil
}

func (n *UnaryLocalNode) Pattern() irtype.Pattern { return irtype.Local }
func (n *UnaryLocalNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	return fmt.Sprintf("%c%s%s%s%s", n.Kind().classSignature(), n.Op, prev.Meta().NumDim(), prev.Meta().DataType(), n.Meta().DataType())
}
func (n *UnaryLocalNode) Accept(v Visitor, d *Dag) error { return v.VisitUnaryLocal(n) }
func (n *UnaryLocalNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &UnaryLocalNode{NodeCommon: NodeCommon{kind: KindUnaryLocal, meta: n.meta, prev: []NodeID{p}}, Op: n.Op}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}

// BinaryLocalNode combines two operands cell-wise, broadcasting a D0
// operand against the other's shape.
type BinaryLocalNode struct {
	NodeCommon
	Op string
}

type binaryLocalKey struct {
	lhs, rhs NodeID
	op       string
}

func (d *Dag) BinaryLocal(op string, lhs, rhs Node) (Node, error) {
	if err := d.checkForeign(lhs, rhs); err != nil {
		return nil, err
	}
	key := binaryLocalKey{lhs: lhs.ID(), rhs: rhs.ID(), op: op}
	n := d.lookupOrInsert(KindBinaryLocal, key, func() Node {
		meta := binaryBroadcastMeta(lhs.Meta(), rhs.Meta())
		node := &BinaryLocalNode{NodeCommon: NodeCommon{kind: KindBinaryLocal, meta: meta, prev: []NodeID{lhs.ID(), rhs.ID()}}, Op: op}
		id := d.allocate(node)
		d.addNext(lhs.ID(), id)
		d.addNext(rhs.ID(), id)
		return node
	})
	return n, nil
}

// binaryBroadcastMeta implements the local-binary broadcast rule: if
// either operand is D0, the result takes the other's DataSize; otherwise
// they must already agree. DataType promotes, MemOrder/BlockSize come
// from the LHS.
func binaryBroadcastMeta(l, r irtype.MetaData) irtype.MetaData {
	ds := l.DataSize()
	if l.DataSize().IsD0() {
		ds = r.DataSize()
	} else if r.DataSize().IsD0() {
		ds = l.DataSize()
	}
	dt := irtype.Promote(l.DataType(), r.DataType())
	return irtype.NewMetaData(ds, dt, l.MemOrder(), l.BlockSize())
}

func (n *BinaryLocalNode) Pattern() irtype.Pattern { return irtype.Local }
func (n *BinaryLocalNode) Signature(d *Dag) string {
	l, r := d.MustNode(n.prev[0]), d.MustNode(n.prev[1])
	return fmt.Sprintf("%c%s%s%s%s%s", n.Kind().classSignature(), n.Op,
		l.Meta().NumDim(), l.Meta().DataType(), r.Meta().NumDim(), r.Meta().DataType())
}
func (n *BinaryLocalNode) Accept(v Visitor, d *Dag) error { return v.VisitBinaryLocal(n) }
func (n *BinaryLocalNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	l, r := mapping[n.prev[0]], mapping[n.prev[1]]
	clone := &BinaryLocalNode{NodeCommon: NodeCommon{kind: KindBinaryLocal, meta: n.meta, prev: []NodeID{l, r}}, Op: n.Op}
	id := into.allocate(clone)
	into.addNext(l, id)
	into.addNext(r, id)
	return clone
}

// TernaryLocalNode is a per-cell ternary operator (e.g. "select(cond,a,b)").
// Metadata follows the first non-D0 operand, generalizing the binary rule
// to three inputs; DataType promotes across all three.
type TernaryLocalNode struct {
	NodeCommon
	Op string
}

type ternaryLocalKey struct {
	a, b, c NodeID
	op      string
}

func (d *Dag) TernaryLocal(op string, a, b, c Node) (Node, error) {
	if err := d.checkForeign(a, b, c); err != nil {
		return nil, err
	}
	key := ternaryLocalKey{a: a.ID(), b: b.ID(), c: c.ID(), op: op}
	n := d.lookupOrInsert(KindTernaryLocal, key, func() Node {
		ds := a.Meta().DataSize()
		for _, m := range []irtype.MetaData{a.Meta(), b.Meta(), c.Meta()} {
			if !ds.IsD0() {
				break
			}
			ds = m.DataSize()
		}
		dt := irtype.Promote(irtype.Promote(a.Meta().DataType(), b.Meta().DataType()), c.Meta().DataType())
		meta := irtype.NewMetaData(ds, dt, a.Meta().MemOrder(), a.Meta().BlockSize())
		node := &TernaryLocalNode{NodeCommon: NodeCommon{kind: KindTernaryLocal, meta: meta, prev: []NodeID{a.ID(), b.ID(), c.ID()}}, Op: op}
		id := d.allocate(node)
		d.addNext(a.ID(), id)
		d.addNext(b.ID(), id)
		d.addNext(c.ID(), id)
		return node
	})
	return n, nil
}

func (n *TernaryLocalNode) Pattern() irtype.Pattern { return irtype.Local }
func (n *TernaryLocalNode) Signature(d *Dag) string {
	return fmt.Sprintf("%c%s%s", n.Kind().classSignature(), n.Op, n.Meta().DataType())
}
func (n *TernaryLocalNode) Accept(v Visitor, d *Dag) error { return v.VisitTernaryLocal(n) }
func (n *TernaryLocalNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	a, b, c := mapping[n.prev[0]], mapping[n.prev[1]], mapping[n.prev[2]]
	clone := &TernaryLocalNode{NodeCommon: NodeCommon{kind: KindTernaryLocal, meta: n.meta, prev: []NodeID{a, b, c}}, Op: n.Op}
	id := into.allocate(clone)
	into.addNext(a, id)
	into.addNext(b, id)
	into.addNext(c, id)
	return clone
}

// CastNode reinterprets an operand's DataType, keeping its shape/order/block.
type CastNode struct {
	NodeCommon
}

type castKey struct {
	prev NodeID
	to   irtype.DataType
}

func (d *Dag) Cast(prev Node, to irtype.DataType) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	key := castKey{prev: prev.ID(), to: to}
	n := d.lookupOrInsert(KindCast, key, func() Node {
		meta := prev.Meta().WithDataType(to)
		node := &CastNode{NodeCommon: NodeCommon{kind: KindCast, meta: meta, prev: []NodeID{prev.ID()}}}
		id := d.allocate(node)
		d.addNext(prev.ID(), id)
		return node
	})
	return n, nil
}

func (n *CastNode) Pattern() irtype.Pattern { return irtype.Local }
func (n *CastNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	return fmt.Sprintf("%c%s%s%s", n.Kind().classSignature(), prev.Meta().NumDim(), prev.Meta().DataType(), n.Meta().DataType())
}
func (n *CastNode) Accept(v Visitor, d *Dag) error { return v.VisitCast(n) }
func (n *CastNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &CastNode{NodeCommon: NodeCommon{kind: KindCast, meta: n.meta, prev: []NodeID{p}}}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}
