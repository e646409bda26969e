package dag

import (
	"os"
	"path/filepath"
	"testing"

	"mapsir/internal/buildcfg"
	"mapsir/internal/diag"
	"mapsir/internal/irtype"
)

func newTestDag() *Dag {
	return NewDag(buildcfg.Default(), diag.NewTrace())
}

func mustConstant(t *testing.T, d *Dag, val float64, ds irtype.DataSize, dt irtype.DataType) Node {
	t.Helper()
	var v irtype.VariantType
	switch {
	case dt.Float():
		v = irtype.VariantF(dt, val)
	case dt.Signed():
		v = irtype.VariantS(dt, int64(val))
	default:
		v = irtype.VariantU(dt, uint64(val))
	}
	n, err := d.Constant(v, ds, dt, irtype.RowMajorPos, irtype.BlockSize{})
	if err != nil {
		t.Fatalf("Constant: %v", err)
	}
	return n
}

// mustRead creates an empty backing file under the test's TempDir (Read
// opens its path read-only, so the file must already exist) and installs a
// Read node over it.
func mustRead(t *testing.T, d *Dag, name string, meta irtype.MetaData) Node {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	f.Close()

	n, err := d.Read(path, meta)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return n
}

// Two factory calls with an identical key must hash-cons to the same node.
func TestHashConsIdentity(t *testing.T) {
	d := newTestDag()
	a := mustConstant(t, d, 3.14, irtype.DataSize{}, irtype.F32)
	b := mustConstant(t, d, 3.14, irtype.DataSize{}, irtype.F32)
	if a.ID() != b.ID() {
		t.Fatalf("expected identical Constant calls to hash-cons to the same node, got %d and %d", a.ID(), b.ID())
	}
	if d.NodeCount() != 1 {
		t.Fatalf("NodeCount() = %d, want 1", d.NodeCount())
	}
}

// ZonalReduc must register its prev/next edge symmetrically and collapse
// its input to a scalar of the same element type.
func TestZonalReducEdgeSymmetryAndMetadata(t *testing.T) {
	d := newTestDag()
	meta := irtype.NewMetaData(irtype.DataSizeOf(8, 8), irtype.F32, irtype.RowMajorPos, irtype.BlockSizeOf(8, 8))
	r := mustRead(t, d, "in.raw", meta)

	z, err := d.ZonalReduc(r, irtype.Sum)
	if err != nil {
		t.Fatalf("ZonalReduc: %v", err)
	}

	found := false
	for _, id := range r.Next() {
		if id == z.ID() {
			found = true
		}
	}
	if !found {
		t.Errorf("expected z in next(r)")
	}
	if z.Prev()[0] != r.ID() {
		t.Errorf("prev(z)[0] = %d, want %d", z.Prev()[0], r.ID())
	}
	if z.Meta().NumDim() != irtype.D0 {
		t.Errorf("z.NumDim() = %s, want D0", z.Meta().NumDim())
	}
	if z.Meta().DataType() != r.Meta().DataType() {
		t.Errorf("z.DataType() = %s, want %s", z.Meta().DataType(), r.Meta().DataType())
	}
}

// FocalFlow always produces U8 regardless of its operand's element type,
// and carries a fixed 1-cell halo.
func TestFocalFlowMetadata(t *testing.T) {
	d := newTestDag()
	meta := irtype.NewMetaData(irtype.DataSizeOf(16, 16), irtype.F32, irtype.RowMajorPos, irtype.BlockSizeOf(16, 16))
	r := mustRead(t, d, "in.raw", meta)

	ff, err := d.FocalFlow(r)
	if err != nil {
		t.Fatalf("FocalFlow: %v", err)
	}
	flow := ff.(*FocalFlowNode)
	if flow.Meta().DataType() != irtype.U8 {
		t.Errorf("FocalFlow DataType = %s, want U8", flow.Meta().DataType())
	}
	if flow.Halo() != irtype.BlockSizeOf(1, 1) {
		t.Errorf("FocalFlow Halo = %v, want {1,1}", flow.Halo())
	}
	if flow.Meta().NumDim() != r.Meta().NumDim() {
		t.Errorf("FocalFlow NumDim = %s, want %s", flow.Meta().NumDim(), r.Meta().NumDim())
	}
}

// buildCountingLoop builds a minimal while-loop with one carried scalar
// variable, for use by tests covering the loop's Merge wiring and by tests
// that clone the resulting loop region.
func buildCountingLoop(t *testing.T, d *Dag) (loop *Loop, init, head, merge, feedIn, feedOut Node) {
	t.Helper()
	var err error
	init = mustConstant(t, d, 0, irtype.DataSize{}, irtype.S32)

	head, err = d.LoopHead(init)
	if err != nil {
		t.Fatalf("LoopHead: %v", err)
	}

	one := mustConstant(t, d, 1, irtype.DataSize{}, irtype.S32)

	cond, err := d.LoopCond(mustConstant(t, d, 1, irtype.DataSize{}, irtype.U8))
	if err != nil {
		t.Fatalf("LoopCond: %v", err)
	}
	loop = d.NewLoop(cond.ID())

	feedIn, err = loop.FeedIn(d, head)
	if err != nil {
		t.Fatalf("FeedIn: %v", err)
	}

	merge, err = d.MergeWhile(init, feedIn)
	if err != nil {
		t.Fatalf("MergeWhile: %v", err)
	}

	bodyTail, err := d.BinaryLocal("+", merge, one)
	if err != nil {
		t.Fatalf("BinaryLocal: %v", err)
	}

	feedOut, err = loop.FeedOut(d, feedIn, bodyTail)
	if err != nil {
		t.Fatalf("FeedOut: %v", err)
	}

	return loop, init, head, merge, feedIn, feedOut
}

func TestMergeWhile(t *testing.T) {
	d := newTestDag()
	_, init, _, merge, feedIn, feedOut := buildCountingLoop(t, d)

	m := merge.(*MergeNode)
	sz := len(m.Prev()) + m.forw.len()
	if sz != 2 {
		t.Fatalf("Merge prev.size()+forw.size() = %d, want 2", sz)
	}
	if m.Left(d).Signature(d) != init.Signature(d) {
		t.Errorf("Merge.Left().Signature() = %s, want %s", m.Left(d).Signature(d), init.Signature(d))
	}
	right := m.Right(d)
	fi, ok := right.(*FeedbackNode)
	if !ok || !fi.FeedIn() || fi.Twin != feedOut.ID() {
		t.Errorf("Merge.Right() should be a FeedIn whose twin is the loop's FeedOut, got %T", right)
	}
	if right.ID() != feedIn.ID() {
		t.Errorf("Merge.Right() = %d, want the loop's FeedIn %d", right.ID(), feedIn.ID())
	}
}

func TestCloneSubgraphPreservesStructureAndSignatures(t *testing.T) {
	d := newTestDag()
	_, _, _, merge, feedIn, feedOut := buildCountingLoop(t, d)

	into := d // NodeIDs are arena-relative, so "fresh id" is only comparable within one Dag
	mapping, err := d.CloneSubgraph([]NodeID{merge.ID(), feedOut.ID()}, into)
	if err != nil {
		t.Fatalf("CloneSubgraph: %v", err)
	}

	for orig, cloned := range mapping {
		if orig == cloned {
			t.Errorf("clone of %d reused the original id", orig)
		}
	}

	clonedMergeID, ok := mapping[merge.ID()]
	if !ok {
		t.Fatalf("merge not present in clone mapping")
	}
	clonedMerge := into.MustNode(clonedMergeID)
	if clonedMerge.Signature(into) != merge.Signature(d) {
		t.Errorf("cloned Merge signature = %s, want %s", clonedMerge.Signature(into), merge.Signature(d))
	}

	clonedFeedInID := mapping[feedIn.ID()]
	clonedFeedOutID := mapping[feedOut.ID()]
	cfi := into.MustNode(clonedFeedInID).(*FeedbackNode)
	cfo := into.MustNode(clonedFeedOutID).(*FeedbackNode)
	if cfi.Twin != cfo.ID() || cfo.Twin != cfi.ID() {
		t.Errorf("cloned feedback twins not mutually consistent: feedIn.Twin=%d feedOut.id=%d, feedOut.Twin=%d feedIn.id=%d",
			cfi.Twin, cfo.ID(), cfo.Twin, cfi.ID())
	}

	for id := range mapping {
		n := d.MustNode(id)
		for _, p := range n.Prev() {
			if _, inSet := mapping[p]; !inSet {
				t.Errorf("original node %d has prev %d outside the cloned set", id, p)
			}
		}
	}
}

// A rejected construction must leave the arena untouched.
func TestFocalFlowRejectsScalarOperand(t *testing.T) {
	d := newTestDag()
	scalar := mustConstant(t, d, 1, irtype.DataSize{}, irtype.F32)
	before := d.NodeCount()

	if _, err := d.FocalFlow(scalar); err == nil {
		t.Fatalf("expected FocalFlow on a D0 operand to fail")
	}
	if d.NodeCount() != before {
		t.Errorf("NodeCount() changed after a rejected construction: %d -> %d", before, d.NodeCount())
	}
}

func TestCheckForeignRejectsCrossDagOperand(t *testing.T) {
	d1 := newTestDag()
	d2 := newTestDag()
	foreign := mustConstant(t, d1, 1, irtype.DataSize{}, irtype.F32)

	if _, err := d2.UnaryLocal("-", foreign); err == nil {
		t.Fatalf("expected a foreign-DAG operand to be rejected")
	}
}

func TestSpreadScanPopulatesAllFivePrevSlots(t *testing.T) {
	d := newTestDag()
	meta := irtype.NewMetaData(irtype.DataSizeOf(4, 4), irtype.F32, irtype.RowMajorPos, irtype.BlockSizeOf(4, 4))
	prev := mustRead(t, d, "water.raw", meta)
	dirMeta := irtype.NewMetaData(irtype.DataSizeOf(4, 4), irtype.U8, irtype.RowMajorPos, irtype.BlockSizeOf(4, 4))
	dir := mustRead(t, d, "dir.raw", dirMeta)

	n, err := d.SpreadScan(prev, dir, irtype.Max)
	if err != nil {
		t.Fatalf("SpreadScan: %v", err)
	}
	ss := n.(*SpreadScanNode)
	if len(ss.Prev()) != 5 {
		t.Fatalf("SpreadScan prev_list length = %d, want 5", len(ss.Prev()))
	}
	for i, slot := range ss.Prev() {
		if _, ok := d.Node(slot); !ok {
			t.Errorf("SpreadScan prev_list[%d] = %d does not resolve to a node", i, slot)
		}
	}
	spread := d.MustNode(ss.Spread())
	found := false
	for _, id := range spread.Next() {
		if id == ss.ID() {
			found = true
		}
	}
	if !found {
		t.Errorf("expected SpreadScan in next(spread temporal)")
	}
}
