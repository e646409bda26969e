package dag

import (
	"fmt"

	"mapsir/internal/irerr"
	"mapsir/internal/irtype"
	"mapsir/internal/rasterfile"
)

// ConstantNode holds a single caller-supplied scalar or uniform value.
type ConstantNode struct {
	NodeCommon
	Value irtype.VariantType
}

type constantKey struct {
	ds  irtype.DataSize
	dt  irtype.DataType
	mo  irtype.MemOrder
	bs  irtype.BlockSize
	val irtype.VariantType
}

// Constant installs (or returns the canonical) Constant node for the given
// value and metadata — every field is caller-supplied.
func (d *Dag) Constant(val irtype.VariantType, ds irtype.DataSize, dt irtype.DataType, mo irtype.MemOrder, bs irtype.BlockSize) (Node, error) {
	key := constantKey{ds: ds, dt: dt, mo: mo, bs: bs, val: val}
	n := d.lookupOrInsert(KindConstant, key, func() Node {
		meta := irtype.NewMetaData(ds, dt, mo, bs)
		node := &ConstantNode{NodeCommon: NodeCommon{kind: KindConstant, meta: meta}, Value: val}
		d.allocate(node)
		return node
	})
	return n, nil
}

func (n *ConstantNode) Pattern() irtype.Pattern { return irtype.Free }

func (n *ConstantNode) Signature(d *Dag) string {
	return fmt.Sprintf("%c%s%s%s", n.Kind().classSignature(), n.Meta().NumDim(), n.Meta().DataType(), n.Value)
}

func (n *ConstantNode) Accept(v Visitor, d *Dag) error { return v.VisitConstant(n) }

func (n *ConstantNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	clone := &ConstantNode{NodeCommon: NodeCommon{kind: KindConstant, meta: n.meta}, Value: n.Value}
	into.allocate(clone)
	return clone
}

// ReadNode reads an externally materialized raster into the DAG.
type ReadNode struct {
	NodeCommon
}

type readKey struct {
	path string
}

// Read opens path (inferring format from its suffix) and installs a Read
// node exposing its declared MetaData.
func (d *Dag) Read(path string, meta irtype.MetaData) (Node, error) {
	key := readKey{path: path}
	var factoryErr error
	n := d.lookupOrInsert(KindRead, key, func() Node {
		f, err := rasterfile.Factory(path)
		if err != nil {
			factoryErr = err
			return nil
		}
		if err := f.SetMetaData(meta, rasterfile.DirIn); err != nil {
			factoryErr = irerr.NewFileIoError(path, err)
			return nil
		}
		if err := f.Open(path, rasterfile.DirIn); err != nil {
			factoryErr = err
			return nil
		}
		node := &ReadNode{NodeCommon: NodeCommon{kind: KindRead, meta: meta.WithStreamDir(irtype.In)}}
		node.file = newRasterFileRef(f)
		d.allocate(node)
		return node
	})
	if factoryErr != nil {
		return nil, factoryErr
	}
	return n, nil
}

func (n *ReadNode) Pattern() irtype.Pattern { return irtype.Free }
func (n *ReadNode) Signature(d *Dag) string {
	path := ""
	if n.file != nil {
		path = n.file.File.Path()
	}
	return fmt.Sprintf("%c%s%s%s", n.Kind().classSignature(), n.Meta().NumDim(), n.Meta().DataType(), path)
}
func (n *ReadNode) Accept(v Visitor, d *Dag) error { return v.VisitRead(n) }
func (n *ReadNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	clone := &ReadNode{NodeCommon: NodeCommon{kind: KindRead, meta: n.meta}}
	clone.file = ShareFile(n.file)
	into.allocate(clone)
	return clone
}

// RandNode produces pseudo-random values from a seed and a named
// distribution.
type RandNode struct {
	NodeCommon
	Seed int64
	Dist string
}

type randKey struct {
	ds   irtype.DataSize
	dt   irtype.DataType
	seed int64
	dist string
}

func (d *Dag) Rand(seed int64, dist string, ds irtype.DataSize, dt irtype.DataType, mo irtype.MemOrder, bs irtype.BlockSize) (Node, error) {
	key := randKey{ds: ds, dt: dt, seed: seed, dist: dist}
	n := d.lookupOrInsert(KindRand, key, func() Node {
		meta := irtype.NewMetaData(ds, dt, mo, bs)
		node := &RandNode{NodeCommon: NodeCommon{kind: KindRand, meta: meta}, Seed: seed, Dist: dist}
		d.allocate(node)
		return node
	})
	return n, nil
}

func (n *RandNode) Pattern() irtype.Pattern { return irtype.Free }
func (n *RandNode) Signature(d *Dag) string {
	return fmt.Sprintf("%c%s%s%d%s", n.Kind().classSignature(), n.Meta().NumDim(), n.Meta().DataType(), n.Seed, n.Dist)
}
func (n *RandNode) Accept(v Visitor, d *Dag) error { return v.VisitRand(n) }
func (n *RandNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	clone := &RandNode{NodeCommon: NodeCommon{kind: KindRand, meta: n.meta}, Seed: n.Seed, Dist: n.Dist}
	into.allocate(clone)
	return clone
}

// IndexNode yields the coordinate value along one axis, e.g. for building
// coordinate-dependent expressions.
type IndexNode struct {
	NodeCommon
	Axis int
}

type indexKey struct {
	ds   irtype.DataSize
	axis int
}

func (d *Dag) Index(axis int, ds irtype.DataSize, mo irtype.MemOrder, bs irtype.BlockSize) (Node, error) {
	if axis < 0 || axis >= ds.NumDim().Rank() {
		return nil, irerr.InvalidConstructionf("Index axis %d out of range for %s", axis, ds.NumDim())
	}
	key := indexKey{ds: ds, axis: axis}
	n := d.lookupOrInsert(KindIndex, key, func() Node {
		meta := irtype.NewMetaData(ds, irtype.S32, mo, bs)
		node := &IndexNode{NodeCommon: NodeCommon{kind: KindIndex, meta: meta}, Axis: axis}
		d.allocate(node)
		return node
	})
	return n, nil
}

func (n *IndexNode) Pattern() irtype.Pattern { return irtype.Local }
func (n *IndexNode) Signature(d *Dag) string {
	return fmt.Sprintf("%c%s%d", n.Kind().classSignature(), n.Meta().NumDim(), n.Axis)
}
func (n *IndexNode) Accept(v Visitor, d *Dag) error { return v.VisitIndex(n) }
func (n *IndexNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	clone := &IndexNode{NodeCommon: NodeCommon{kind: KindIndex, meta: n.meta}, Axis: n.Axis}
	into.allocate(clone)
	return clone
}

// EmptyNode is an uninitialized placeholder value of a given shape/type,
// used as a Temporal-like source before a loop assigns it real content.
type EmptyNode struct {
	NodeCommon
}

type emptyKey struct {
	ds irtype.DataSize
	dt irtype.DataType
}

func (d *Dag) Empty(ds irtype.DataSize, dt irtype.DataType) (Node, error) {
	key := emptyKey{ds: ds, dt: dt}
	n := d.lookupOrInsert(KindEmpty, key, func() Node {
		meta := irtype.NewMetaData(ds, dt, d.cfg.DefaultMemOrder, d.cfg.DefaultBlockSize)
		node := &EmptyNode{NodeCommon: NodeCommon{kind: KindEmpty, meta: meta}}
		d.allocate(node)
		return node
	})
	return n, nil
}

func (n *EmptyNode) Pattern() irtype.Pattern { return irtype.Free }
func (n *EmptyNode) Signature(d *Dag) string {
	return fmt.Sprintf("%c%s%s", n.Kind().classSignature(), n.Meta().NumDim(), n.Meta().DataType())
}
func (n *EmptyNode) Accept(v Visitor, d *Dag) error { return v.VisitEmpty(n) }
func (n *EmptyNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	clone := &EmptyNode{NodeCommon: NodeCommon{kind: KindEmpty, meta: n.meta}}
	into.allocate(clone)
	return clone
}
