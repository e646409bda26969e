package dag

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"mapsir/internal/diag"
	"mapsir/internal/irerr"
	"mapsir/internal/irtype"
	"mapsir/internal/rasterfile"
)

// WriteNode materializes its operand to an externally owned raster file.
// It is a terminal node: nothing ever reads Write's own output through
// the DAG.
type WriteNode struct {
	NodeCommon
}

type writeKey struct {
	prev NodeID
	path string
}

func (d *Dag) Write(prev Node, path string) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	key := writeKey{prev: prev.ID(), path: path}
	var factoryErr error
	n := d.lookupOrInsert(KindWrite, key, func() Node {
		f, err := rasterfile.Factory(path)
		if err != nil {
			factoryErr = err
			return nil
		}
		if err := f.SetMetaData(prev.Meta(), rasterfile.DirOut); err != nil {
			factoryErr = irerr.NewFileIoError(path, err)
			return nil
		}
		if err := f.Open(path, rasterfile.DirOut); err != nil {
			factoryErr = err
			return nil
		}
		node := &WriteNode{NodeCommon: NodeCommon{kind: KindWrite, meta: prev.Meta().WithStreamDir(irtype.Out), prev: []NodeID{prev.ID()}}}
		node.file = newRasterFileRef(f)
		id := d.allocate(node)
		d.addNext(prev.ID(), id)
		return node
	})
	if factoryErr != nil {
		return nil, factoryErr
	}
	return n, nil
}

func (n *WriteNode) Pattern() irtype.Pattern { return irtype.Free }
func (n *WriteNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	path := ""
	if n.file != nil {
		path = n.file.File.Path()
	}
	return fmt.Sprintf("%c%s%s%s", n.Kind().classSignature(), prev.Meta().NumDim(), prev.Meta().DataType(), path)
}
func (n *WriteNode) Accept(v Visitor, d *Dag) error { return v.VisitWrite(n) }
func (n *WriteNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &WriteNode{NodeCommon: NodeCommon{kind: KindWrite, meta: n.meta, prev: []NodeID{p}}}
	clone.file = ShareFile(n.file)
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}

// CheckpointNode materializes its operand to a transient, uniquely-named
// temp file so a long fusion chain can be split across a cheap re-read
// boundary. The temp file's name is a random UUID under cfg.CheckpointDir,
// since two Checkpoints of otherwise identical operands must never alias
// the same backing file.
type CheckpointNode struct {
	NodeCommon
}

func (d *Dag) Checkpoint(prev Node) (Node, error) {
	if err := d.checkForeign(prev); err != nil {
		return nil, err
	}
	dir := d.cfg.CheckpointDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("mapsir-checkpoint-%s.raw", uuid.NewString()))
	f, err := rasterfile.Factory(path)
	if err != nil {
		return nil, err
	}
	if err := f.SetMetaData(prev.Meta(), rasterfile.DirOut); err != nil {
		return nil, irerr.NewFileIoError(path, err)
	}
	if err := f.Open(path, rasterfile.DirOut); err != nil {
		return nil, err
	}
	node := &CheckpointNode{NodeCommon: NodeCommon{kind: KindCheckpoint, meta: prev.Meta(), prev: []NodeID{prev.ID()}}}
	node.file = newRasterFileRef(f)
	id := d.allocate(node)
	d.addNext(prev.ID(), id)
	d.trace.Record(diag.Event{Kind: diag.FactoryMiss, Node: KindCheckpoint.String(), ID: uint64(id), Detail: path})
	return node, nil
}

func (n *CheckpointNode) Pattern() irtype.Pattern { return irtype.Free }
func (n *CheckpointNode) Signature(d *Dag) string {
	prev := d.MustNode(n.prev[0])
	path := ""
	if n.file != nil {
		path = n.file.File.Path()
	}
	return fmt.Sprintf("%c%s%s%s", n.Kind().classSignature(), prev.Meta().NumDim(), prev.Meta().DataType(), path)
}
func (n *CheckpointNode) Accept(v Visitor, d *Dag) error { return v.VisitCheckpoint(n) }

// Clone shares the original Checkpoint's backing file rather than
// allocating a second temp file, since a clone represents the same
// materialized data under a new NodeID (e.g. when a loop body is
// duplicated by CloneSubgraph).
func (n *CheckpointNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &CheckpointNode{NodeCommon: NodeCommon{kind: KindCheckpoint, meta: n.meta, prev: []NodeID{p}}}
	clone.file = ShareFile(n.file)
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}
