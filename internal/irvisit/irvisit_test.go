package irvisit

import (
	"os"
	"path/filepath"
	"testing"

	"mapsir/internal/buildcfg"
	"mapsir/internal/dag"
	"mapsir/internal/diag"
	"mapsir/internal/irtype"
)

func newTestDag() *dag.Dag {
	return dag.NewDag(buildcfg.Default(), diag.NewTrace())
}

func mustRead(t *testing.T, d *dag.Dag, name string, meta irtype.MetaData) dag.Node {
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

func TestPatternClassifierGroupsBySamePattern(t *testing.T) {
	d := newTestDag()
	meta := irtype.NewMetaData(irtype.DataSizeOf(8, 8), irtype.F32, irtype.RowMajorPos, irtype.BlockSizeOf(8, 8))
	r := mustRead(t, d, "in.raw", meta)

	flow, err := d.FocalFlow(r)
	if err != nil {
		t.Fatalf("FocalFlow: %v", err)
	}
	mask := irtype.NewMask(irtype.DataShape(irtype.DataSizeOf(3, 3)), make([]uint8, 9))
	focal, err := d.FocalFunc(r, mask, irtype.Sum)
	if err != nil {
		t.Fatalf("FocalFunc: %v", err)
	}
	zonal, err := d.ZonalReduc(r, irtype.Sum)
	if err != nil {
		t.Fatalf("ZonalReduc: %v", err)
	}

	c := NewPatternClassifier()
	if err := c.Classify(d, []dag.NodeID{r.ID(), flow.ID(), focal.ID(), zonal.ID()}); err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if c.Clusters[flow.ID()] != c.Clusters[focal.ID()] {
		t.Errorf("FocalFlow and FocalFunc both classify as irtype.Focal, want the same cluster: %d vs %d",
			c.Clusters[flow.ID()], c.Clusters[focal.ID()])
	}
	if c.Clusters[zonal.ID()] == c.Clusters[focal.ID()] {
		t.Errorf("ZonalReduc (irtype.Zonal) should not share a cluster with FocalFunc (irtype.Focal)")
	}
}

func TestReachAnalyzerComposesChainedFocalHalos(t *testing.T) {
	d := newTestDag()
	meta := irtype.NewMetaData(irtype.DataSizeOf(16, 16), irtype.F32, irtype.RowMajorPos, irtype.BlockSizeOf(16, 16))
	r := mustRead(t, d, "in.raw", meta)

	mask3 := irtype.NewMask(irtype.DataShape(irtype.DataSizeOf(3, 3)), make([]uint8, 9))
	a, err := d.FocalFunc(r, mask3, irtype.Sum)
	if err != nil {
		t.Fatalf("FocalFunc a: %v", err)
	}
	mask5 := irtype.NewMask(irtype.DataShape(irtype.DataSizeOf(5, 5)), make([]uint8, 25))
	b, err := d.FocalFunc(a, mask5, irtype.Sum)
	if err != nil {
		t.Fatalf("FocalFunc b: %v", err)
	}

	ra := NewReachAnalyzer(d)
	if err := ra.Analyze([]dag.NodeID{r.ID(), a.ID(), b.ID()}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	wantBHalo := b.(*dag.FocalFuncNode).Halo()
	if ra.InReach[b.ID()] != wantBHalo {
		t.Errorf("InReach[b] = %v, want b's own halo %v", ra.InReach[b.ID()], wantBHalo)
	}

	aHalo := a.(*dag.FocalFuncNode).Halo()
	wantAOutReach := addBlockSize(wantBHalo, irtype.BlockSize{})
	if ra.OutReach[a.ID()] != wantAOutReach {
		t.Errorf("OutReach[a] = %v, want %v (b's own halo, b has no further consumers)", ra.OutReach[a.ID()], wantAOutReach)
	}

	wantROutReach := addBlockSize(aHalo, wantAOutReach)
	if ra.OutReach[r.ID()] != wantROutReach {
		t.Errorf("OutReach[r] = %v, want %v (a's halo composed with a's own downstream reach)", ra.OutReach[r.ID()], wantROutReach)
	}
}

func TestReachAnalyzerStopsAtMaterializationBoundary(t *testing.T) {
	d := newTestDag()
	meta := irtype.NewMetaData(irtype.DataSizeOf(8, 8), irtype.F32, irtype.RowMajorPos, irtype.BlockSizeOf(8, 8))
	r := mustRead(t, d, "in.raw", meta)

	barrier, err := d.Barrier(r)
	if err != nil {
		t.Fatalf("Barrier: %v", err)
	}
	mask3 := irtype.NewMask(irtype.DataShape(irtype.DataSizeOf(3, 3)), make([]uint8, 9))
	if _, err := d.FocalFunc(barrier, mask3, irtype.Sum); err != nil {
		t.Fatalf("FocalFunc: %v", err)
	}

	ra := NewReachAnalyzer(d)
	if err := ra.Analyze([]dag.NodeID{r.ID(), barrier.ID()}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if ra.OutReach[r.ID()] != (irtype.BlockSize{}) {
		t.Errorf("OutReach[r] = %v, want zero: the Barrier materializes before the focal consumer reads it", ra.OutReach[r.ID()])
	}
}
