package dag

import (
	"mapsir/internal/buildcfg"
	"mapsir/internal/diag"
	"mapsir/internal/irerr"
)

// Dag is the single-threaded-construction arena that owns every Node,
// the per-kind hash-cons tables, and the frozen/shared-read gate.
type Dag struct {
	cfg   buildcfg.Config
	trace *diag.Trace

	nodes  []Node
	frozen bool

	// consTable[kind] maps a kind-specific comparable key built over
	// operand identity to the canonical NodeID for that key — the key uses
	// operand identity, not operand signatures.
	consTable map[Kind]map[any]NodeID

	// dropped tombstones ids a Loop.Drop determined were exclusively
	// loop-owned; the arena never compacts, so this is the only trace of
	// removal.
	dropped map[NodeID]bool
}

// NewDag constructs an empty, writable Dag.
func NewDag(cfg buildcfg.Config, trace *diag.Trace) *Dag {
	return &Dag{
		cfg:       cfg,
		trace:     trace,
		consTable: make(map[Kind]map[any]NodeID),
	}
}

func (d *Dag) Config() buildcfg.Config { return d.cfg }
func (d *Dag) Trace() *diag.Trace      { return d.trace }

// Frozen reports whether Freeze has been called.
func (d *Dag) Frozen() bool { return d.frozen }

// Freeze marks the Dag as ready for read-only sharing; buildguard.RunVisitors
// refuses a Dag that is not frozen. Factories do not check the flag: a
// factory call made after Freeze still installs its node.
func (d *Dag) Freeze() {
	if d.frozen {
		return
	}
	d.frozen = true
	d.trace.Record(diag.Event{Kind: diag.Freeze})
}

// NodeCount returns the number of distinct nodes currently in the arena.
func (d *Dag) NodeCount() int { return len(d.nodes) }

// Dropped reports whether id was tombstoned by a Loop.Drop.
func (d *Dag) Dropped(id NodeID) bool { return d.dropped[id] }

// markDropped tombstones id and records a diag.LoopDrop event.
func (d *Dag) markDropped(id NodeID) {
	if d.dropped == nil {
		d.dropped = make(map[NodeID]bool)
	}
	d.dropped[id] = true
	d.trace.Record(diag.Event{Kind: diag.LoopDrop, ID: uint64(id)})
}

// Node looks up a node by id; ok is false for an out-of-range id.
func (d *Dag) Node(id NodeID) (Node, bool) {
	if int(id) >= len(d.nodes) {
		return nil, false
	}
	return d.nodes[id], true
}

// MustNode panics only on a programmer error (an id that was never
// allocated by this Dag); every public entry point validates ids with
// Node before reaching here.
func (d *Dag) MustNode(id NodeID) Node {
	n, ok := d.Node(id)
	if !ok {
		panic("dag: invalid NodeID")
	}
	return n
}

// checkForeign verifies every operand was allocated by this Dag; a
// broken-operand (foreign DAG) reference is a fatal construction error.
func (d *Dag) checkForeign(operands ...Node) error {
	for _, op := range operands {
		if op == nil {
			return irerr.InvalidConstructionf("nil operand")
		}
		n, ok := d.Node(op.ID())
		if !ok || n != op {
			return irerr.InvalidConstructionf("operand %v does not belong to this Dag", op.ID())
		}
	}
	return nil
}

// allocate installs a brand new node, assigning it the next NodeID. It does
// not register any edges; callers register operand->consumer edges
// themselves via addNext once the node is allocated, since the concrete
// node constructors need the final id to set up kind-specific references.
func (d *Dag) allocate(n Node) NodeID {
	id := NodeID(len(d.nodes))
	ch, ok := n.(commonHolder)
	if !ok {
		panic("dag: node does not embed NodeCommon")
	}
	cp := ch.commonPtr()
	cp.id = id
	d.nodes = append(d.nodes, n)
	return id
}

// addNext registers consumer as a forward-dataflow consumer of operand,
// i.e. installs the reverse edge: b ∈ next(a) ⇔ a ∈ prev(b).
func (d *Dag) addNext(operand, consumer NodeID) {
	op := d.MustNode(operand).(commonHolder).commonPtr()
	op.next.add(consumer)
}

// updatePrev replaces old with replacement in node's positional prev slot
// at index i, pairing old.next.remove(node) with replacement.next.add(node)
// — every caller that rewires an edge must keep that pairing.
func (d *Dag) updatePrev(node NodeID, i int, replacement NodeID) {
	nc := d.MustNode(node).(commonHolder).commonPtr()
	old := nc.prev[i]
	nc.prev[i] = replacement
	d.MustNode(old).(commonHolder).commonPtr().next.remove(node)
	d.addNext(replacement, node)
}

// addForwBack installs a feedback control-edge pair: a.forw ∋ b ⇔ b.back ∋ a.
func (d *Dag) addForwBack(feedIn, feedOut NodeID) {
	d.MustNode(feedIn).(commonHolder).commonPtr().forw.add(feedOut)
	d.MustNode(feedOut).(commonHolder).commonPtr().back.add(feedIn)
}

// lookupOrInsert is the per-kind hash-cons entry point: a hit returns the
// canonical node without touching the arena; a miss calls build, installs
// the result, and records the (kind,key) pair.
func (d *Dag) lookupOrInsert(kind Kind, key any, build func() Node) Node {
	if d.cfg.HashConsEnabled {
		table := d.consTable[kind]
		if table != nil {
			if id, ok := table[key]; ok {
				d.trace.Record(diag.Event{Kind: diag.FactoryHit, Node: kind.String(), ID: uint64(id)})
				return d.nodes[id]
			}
		}
	}
	n := build()
	if n == nil {
		return nil
	}
	id := n.ID()
	if d.cfg.HashConsEnabled {
		table := d.consTable[kind]
		if table == nil {
			table = make(map[any]NodeID)
			d.consTable[kind] = table
		}
		table[key] = id
	}
	d.trace.Record(diag.Event{Kind: diag.FactoryMiss, Node: kind.String(), ID: uint64(id)})
	return n
}
