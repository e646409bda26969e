// Package dag is the IR core: the operator-node DAG, its typed metadata,
// structural hashing/deduplication, loop regions with feedback, and the
// visitor dispatch protocol.
package dag

import "mapsir/internal/irtype"

// NodeID is a stable, arena-relative handle. IDs are monotonically
// allocated by the owning Dag and are also used as the tie-break in
// deterministic orderings.
type NodeID uint64

// Kind discriminates the ~30 concrete node variants in the operator
// catalog.
type Kind uint8

const (
	KindConstant Kind = iota
	KindRead
	KindRand
	KindIndex
	KindEmpty
	KindUnaryLocal
	KindBinaryLocal
	KindTernaryLocal
	KindCast
	KindFocalFunc
	KindFocalPercent
	KindFocalFlow
	KindNeighbor
	KindZonalReduc
	KindRadialScan
	KindSpreadScan
	KindBarrier
	KindWrite
	KindCheckpoint
	KindLoopCond
	KindLoopHead
	KindLoopTail
	KindFeedback
	KindMerge
	KindSwitch
	KindAccess
	KindTemporal
	KindIdentity
	KindSummary
	KindStats
)

var kindNames = [...]string{
	"Constant", "Read", "Rand", "Index", "Empty",
	"UnaryLocal", "BinaryLocal", "TernaryLocal", "Cast",
	"FocalFunc", "FocalPercent", "FocalFlow", "Neighbor",
	"ZonalReduc", "RadialScan", "SpreadScan", "Barrier",
	"Write", "Checkpoint",
	"LoopCond", "LoopHead", "LoopTail", "Feedback", "Merge", "Switch", "Access",
	"Temporal", "Identity", "Summary", "Stats",
}

// classTag is the single-rune kind discriminator prefixed onto every
// Signature() string.
var classTag = [...]byte{
	'C', 'R', 'r', 'I', 'E',
	'u', 'b', 't', 'c',
	'F', 'P', 'f', 'n',
	'Z', 'v', 'S', 'B',
	'W', 'K',
	'l', 'h', 'T', 'e', 'M', 'w', 'A',
	'x', 'i', 's', 'y',
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

func (k Kind) classSignature() byte {
	if int(k) < len(classTag) {
		return classTag[k]
	}
	return '?'
}

// orderedSet is an insertion-ordered set of NodeIDs backed by a slice plus
// a membership index, giving O(1) Contains/Add and deterministic iteration
// over next/back/forw.
type orderedSet struct {
	order []NodeID
	index map[NodeID]int
}

func (s *orderedSet) add(id NodeID) bool {
	if s.index == nil {
		s.index = make(map[NodeID]int)
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = len(s.order)
	s.order = append(s.order, id)
	return true
}

func (s *orderedSet) remove(id NodeID) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.order = append(s.order[:i], s.order[i+1:]...)
	delete(s.index, id)
	for id2, idx := range s.index {
		if idx > i {
			s.index[id2] = idx - 1
		}
	}
	return true
}

func (s *orderedSet) contains(id NodeID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *orderedSet) slice() []NodeID {
	return append([]NodeID(nil), s.order...)
}

func (s *orderedSet) len() int { return len(s.order) }

// NodeCommon is the shared-by-value base every concrete kind embeds:
// identity, edges and metadata live here; kind-specific fields live in
// the surrounding struct.
type NodeCommon struct {
	id   NodeID
	kind Kind
	meta irtype.MetaData

	prev []NodeID // positional, index 0 is the primary input
	next orderedSet
	back orderedSet
	forw orderedSet

	file *RasterFileRef

	inReach  irtype.Mask
	outReach irtype.Mask
}

func (n *NodeCommon) ID() NodeID             { return n.id }
func (n *NodeCommon) Kind() Kind             { return n.kind }
func (n *NodeCommon) Meta() irtype.MetaData  { return n.meta }
func (n *NodeCommon) Prev() []NodeID         { return append([]NodeID(nil), n.prev...) }
func (n *NodeCommon) Next() []NodeID         { return n.next.slice() }
func (n *NodeCommon) Back() []NodeID         { return n.back.slice() }
func (n *NodeCommon) Forw() []NodeID         { return n.forw.slice() }
func (n *NodeCommon) File() *RasterFileRef   { return n.file }
func (n *NodeCommon) InReach() irtype.Mask   { return n.inReach }
func (n *NodeCommon) OutReach() irtype.Mask  { return n.outReach }

// commonPtr is promoted automatically to every concrete node type that
// embeds NodeCommon by value, giving the Dag internals mutable access to
// edges without each kind needing its own boilerplate accessor.
func (n *NodeCommon) commonPtr() *NodeCommon { return n }

type commonHolder interface {
	commonPtr() *NodeCommon
}

// Node is the common IR vertex interface every concrete kind satisfies.
// Node equality is identity (NodeID); structural equality is the hash-cons
// table's concern, not the Node's.
type Node interface {
	ID() NodeID
	Kind() Kind
	Meta() irtype.MetaData
	Prev() []NodeID
	Next() []NodeID
	Back() []NodeID
	Forw() []NodeID
	File() *RasterFileRef
	InReach() irtype.Mask
	OutReach() irtype.Mask
	Pattern() irtype.Pattern
	Signature(d *Dag) string
	Accept(v Visitor, d *Dag) error
	Clone(mapping map[NodeID]NodeID, src, into *Dag) Node
}
