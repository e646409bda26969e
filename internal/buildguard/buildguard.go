// Package buildguard wraps a *dag.Dag with a single-writer/many-reader
// protocol: one goroutine constructs, and once the Dag is frozen any
// number of Visitors may traverse it concurrently.
package buildguard

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"mapsir/internal/dag"
	"mapsir/internal/irerr"
)

// Guard serializes construction against a *dag.Dag: a single factory call
// may be in flight at a time, enforced by an ordinary mutex rather than
// anything Dag-aware, since the Dag itself has no internal locking.
type Guard struct {
	mu sync.Mutex
	d  *dag.Dag
}

func New(d *dag.Dag) *Guard { return &Guard{d: d} }

// Build runs fn with exclusive access to the wrapped Dag. fn must not
// retain d past its return nor call Build/RunVisitors reentrantly, since
// the lock is not reentrant.
func (g *Guard) Build(fn func(d *dag.Dag) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.d)
}

// RunVisitors fans visitors out over the Dag concurrently, one goroutine
// per visitor, each independently walking from roots. It requires the Dag
// to be frozen first and joins on the first error via errgroup, pooling
// workers over the shared read-only Dag the way a worker pool fans work
// out over a shared read-only structure.
func RunVisitors(ctx context.Context, d *dag.Dag, visitors []dag.Visitor, roots []dag.NodeID) error {
	if !d.Frozen() {
		return irerr.InvalidConstructionf("RunVisitors requires a frozen Dag")
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, v := range visitors {
		v := v
		g.Go(func() error {
			for _, id := range roots {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				n, ok := d.Node(id)
				if !ok {
					continue
				}
				if err := n.Accept(v, d); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
