package dag

import (
	"fmt"

	"mapsir/internal/irerr"
	"mapsir/internal/irtype"
)

// FeedbackNode is one half of a feed-in/feed-out twin pair wiring a
// loop-carried variable's value from one iteration to the next.
//
// Because this Dag is an append-only arena where NodeID is the slice
// index, two live nodes can never share an id. FeedIn/FeedOut therefore
// adopt only `meta` from their source node, each getting its own fresh
// NodeID — the loop-carried-variable naming intent is preserved through
// Meta() equality and the Twin link instead.
type FeedbackNode struct {
	NodeCommon
	Owner *Loop
	In    bool // true: FeedIn, false: FeedOut
	Twin  NodeID
}

func (n *FeedbackNode) FeedIn() bool  { return n.In }
func (n *FeedbackNode) FeedOut() bool { return !n.In }

func (n *FeedbackNode) Pattern() irtype.Pattern { return irtype.Free }
func (n *FeedbackNode) Signature(d *Dag) string {
	return fmt.Sprintf("%c%s%s", n.Kind().classSignature(), n.Meta().NumDim(), n.Meta().DataType())
}
func (n *FeedbackNode) Accept(v Visitor, d *Dag) error { return v.VisitFeedback(n) }

// Clone rebuilds a Feedback node against the cloned peer graph. Twin
// pointers cannot always be resolved here — a FeedOut's twin FeedIn may
// not have been cloned yet in topological (prev-edge) order — so
// CloneSubgraph fixes up every Feedback node's Twin and forw/back edges
// in a second pass once the whole set has been cloned.
func (n *FeedbackNode) Clone(mapping map[NodeID]NodeID, src, into *Dag) Node {
	p := mapping[n.prev[0]]
	clone := &FeedbackNode{NodeCommon: NodeCommon{kind: KindFeedback, meta: n.meta, prev: []NodeID{p}}, Owner: n.Owner, In: n.In}
	id := into.allocate(clone)
	into.addNext(p, id)
	return clone
}

// FeedbackPair tracks one loop-carried variable's matched FeedIn/FeedOut
// ids once both halves have been constructed.
type FeedbackPair struct {
	FeedIn  NodeID
	FeedOut NodeID
}

// Loop is a view over arena nodes plus ownership bookkeeping: it is
// never itself a Node, since it groups nodes rather than producing a
// value.
type Loop struct {
	Cond      NodeID
	Body      []NodeID
	Feedbacks []FeedbackPair
	Heads     []NodeID
	Tails     []NodeID
}

// NewLoop starts a Loop region around an already-constructed LoopCond node.
func (d *Dag) NewLoop(cond NodeID) *Loop {
	return &Loop{Cond: cond}
}

func (l *Loop) memberOf(id NodeID) bool {
	if id == l.Cond {
		return true
	}
	for _, b := range l.Body {
		if b == id {
			return true
		}
	}
	return false
}

// FeedIn re-parents every in-loop consumer of head onto a new FeedIn node:
// every next of head that belongs to loop.body ∪ {loop.condition} is
// redirected to point at FeedIn instead, head is left with a single
// outgoing edge to FeedIn, and FeedIn.prev[0] = head.
func (l *Loop) FeedIn(d *Dag, head Node) (Node, error) {
	if err := d.checkForeign(head); err != nil {
		return nil, err
	}
	if head.Kind() != KindLoopHead {
		return nil, irerr.InvalidConstructionf("FeedIn requires a LoopHead operand, got %s", head.Kind())
	}

	node := &FeedbackNode{NodeCommon: NodeCommon{kind: KindFeedback, meta: head.Meta(), prev: []NodeID{head.ID()}}, Owner: l, In: true}
	feedID := d.allocate(node)

	for _, consumerID := range head.Next() {
		if !l.memberOf(consumerID) {
			continue
		}
		consumer := d.MustNode(consumerID)
		for i, p := range consumer.Prev() {
			if p == head.ID() {
				d.updatePrev(consumerID, i, feedID)
			}
		}
	}
	d.addNext(head.ID(), feedID)

	l.Feedbacks = append(l.Feedbacks, FeedbackPair{FeedIn: feedID})
	l.Heads = append(l.Heads, head.ID())
	return node, nil
}

// FeedOut closes a loop-carried variable's cycle: FeedOut.prev[0] =
// bodyTail, the twin relation is installed bidirectionally, and the
// cross-iteration forw/back edges are added.
func (l *Loop) FeedOut(d *Dag, feedIn, bodyTail Node) (Node, error) {
	if err := d.checkForeign(feedIn, bodyTail); err != nil {
		return nil, err
	}
	fi, ok := feedIn.(*FeedbackNode)
	if !ok || !fi.In {
		return nil, irerr.InvalidConstructionf("FeedOut requires a FeedIn Feedback operand")
	}

	node := &FeedbackNode{NodeCommon: NodeCommon{kind: KindFeedback, meta: bodyTail.Meta(), prev: []NodeID{bodyTail.ID()}}, Owner: l, In: false}
	feedOutID := d.allocate(node)
	d.addNext(bodyTail.ID(), feedOutID)

	node.Twin = fi.ID()
	fi.Twin = feedOutID
	d.addForwBack(fi.ID(), feedOutID)

	for i := range l.Feedbacks {
		if l.Feedbacks[i].FeedIn == fi.ID() {
			l.Feedbacks[i].FeedOut = feedOutID
		}
	}
	l.Body = append(l.Body, bodyTail.ID())
	return node, nil
}

// Drop marks every node exclusively owned by the loop — one whose every
// consumer is itself inside the loop's member set — as no longer live.
// The arena never compacts (NodeID stability is an invariant other
// nodes' prev slots depend on), so Drop tombstones ids in the Dag's
// dropped set instead of removing them from the node slice.
func (l *Loop) Drop(d *Dag) {
	members := make(map[NodeID]bool)
	members[l.Cond] = true
	for _, b := range l.Body {
		members[b] = true
	}
	for _, h := range l.Heads {
		members[h] = true
	}
	for _, t := range l.Tails {
		members[t] = true
	}
	for _, fb := range l.Feedbacks {
		members[fb.FeedIn] = true
		members[fb.FeedOut] = true
	}

	for id := range members {
		n, ok := d.Node(id)
		if !ok {
			continue
		}
		exclusive := true
		for _, c := range n.Next() {
			if !members[c] {
				exclusive = false
				break
			}
		}
		if exclusive {
			d.markDropped(id)
		}
	}
}
