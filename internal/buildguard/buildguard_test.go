package buildguard

import (
	"context"
	"sync/atomic"
	"testing"

	"mapsir/internal/buildcfg"
	"mapsir/internal/dag"
	"mapsir/internal/diag"
	"mapsir/internal/irtype"
)

type countingVisitor struct {
	dag.BaseVisitor
	count int32
}

func (c *countingVisitor) VisitConstant(*dag.ConstantNode) error {
	atomic.AddInt32(&c.count, 1)
	return nil
}

func TestRunVisitorsRequiresFrozenDag(t *testing.T) {
	d := dag.NewDag(buildcfg.Default(), diag.NewTrace())
	v := &countingVisitor{}
	if err := RunVisitors(context.Background(), d, []dag.Visitor{v}, nil); err == nil {
		t.Fatalf("expected RunVisitors on an unfrozen Dag to fail")
	}
}

func TestRunVisitorsFansOutToEveryVisitor(t *testing.T) {
	g := New(dag.NewDag(buildcfg.Default(), diag.NewTrace()))

	var root dag.NodeID
	if err := g.Build(func(d *dag.Dag) error {
		n, err := d.Constant(irtype.VariantF(irtype.F32, 1.5), irtype.DataSize{}, irtype.F32, irtype.RowMajorPos, irtype.BlockSize{})
		if err != nil {
			return err
		}
		root = n.ID()
		d.Freeze()
		return nil
	}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	var d *dag.Dag
	g.Build(func(inner *dag.Dag) error { d = inner; return nil })

	v1, v2 := &countingVisitor{}, &countingVisitor{}
	if err := RunVisitors(context.Background(), d, []dag.Visitor{v1, v2}, []dag.NodeID{root}); err != nil {
		t.Fatalf("RunVisitors: %v", err)
	}
	if v1.count != 1 || v2.count != 1 {
		t.Errorf("expected both visitors to see the root node once, got v1=%d v2=%d", v1.count, v2.count)
	}
}
