// Package trie implements the node shapes, promotion/splitting rules,
// path-stack-driven ordered traversal, and descent logic of the compact
// ordered map engine. Every node shape dispatches on a single key byte at
// a time except span, which runs a verbatim byte chain to skip over long
// unbranched stretches of a key cheaply.
//
// Leaf values are not tagged into a child slot the way the C original does
// it; instead every node shape carries its own optional leaf cell in its
// header (see header.leaf below). A key completes exactly at the node
// reached after consuming all of its bytes, and that node's header.leaf is
// the value cell — regardless of whether the same node also continues
// branching for longer keys that share the completed key as a prefix. This
// is the same trick TomTonic/multimap's art package uses (every Node[T]
// carries a `value *Set3[T]` in its header, not just leaves); it sidesteps
// packing a tag bit into a live pointer, which Go's garbage collector does
// not tolerate.
package trie

import "math/bits"

// SpanBytes is the maximum number of verbatim key bytes a single span node
// stores.
const SpanBytes = 28

// presence16 is a 16-bit occupancy bitmap for a radixNode's table: bit i
// set means table[i] is non-absent. It replaces a linear scan over 16
// slots with a handful of bit-twiddling instructions when ordered
// traversal needs the lowest/highest occupied index, or the nearest
// occupied index above/below a given one, narrowed from a 256-bit
// occupancy bitmap down to 16 bits since a radix table here discriminates
// one nibble, not one full byte.
type presence16 uint16

func (p *presence16) set(i int)   { *p |= 1 << uint(i) }
func (p *presence16) clear(i int) { *p &^= 1 << uint(i) }
func (p presence16) get(i int) bool { return p&(1<<uint(i)) != 0 }

// lowest returns the smallest set bit index, or (0, false) if p is zero.
func (p presence16) lowest() (int, bool) {
	if p == 0 {
		return 0, false
	}
	return bits.TrailingZeros16(uint16(p)), true
}

// highest returns the largest set bit index, or (0, false) if p is zero.
func (p presence16) highest() (int, bool) {
	if p == 0 {
		return 0, false
	}
	return 15 - bits.LeadingZeros16(uint16(p)), true
}

// lowestAfter returns the smallest set bit index strictly greater than i,
// or (0, false) if none.
func (p presence16) lowestAfter(i int) (int, bool) {
	if i >= 15 {
		return 0, false
	}
	masked := p &^ ((presence16(1) << uint(i+1)) - 1)
	return masked.lowest()
}

// highestBefore returns the largest set bit index strictly less than i, or
// (0, false) if none.
func (p presence16) highestBefore(i int) (int, bool) {
	if i <= 0 {
		return 0, false
	}
	masked := p & ((presence16(1) << uint(i)) - 1)
	return masked.highest()
}

// Shape identifies one of the eight node layouts this engine uses. Numeric
// values match the C original's 3-bit tag ordering.
type Shape uint8

const (
	ShapeRadix Shape = 0
	ShapeLin1  Shape = 1
	ShapeLin2  Shape = 2
	ShapeLin4  Shape = 3
	ShapeLin8  Shape = 4
	ShapeLin16 Shape = 5
	ShapeLin32 Shape = 6
	ShapeSpan  Shape = 7

	numShapes = 8
)

func (s Shape) String() string {
	names := [numShapes]string{"radix", "lin1", "lin2", "lin4", "lin8", "lin16", "lin32", "span"}
	if int(s) >= numShapes {
		return "invalid"
	}
	return names[s]
}

// ByteSize is the accounted size, in bytes, of one block of the given
// shape — used only to charge the arena's segment budget; node storage
// itself is an ordinary Go allocation (see alloc.go).
var ByteSize = [numShapes]int{
	ShapeRadix: 136, // header(8) + 16 slots * 8
	ShapeLin1:  24,  // header(8) + 1*(keyByte+child8), rounded
	ShapeLin2:  40,
	ShapeLin4:  72,
	ShapeLin8:  136,
	ShapeLin16: 264,
	ShapeLin32: 520,
	ShapeSpan:  48, // header(8) + 28 bytes + trailing slot(8), padded
}

// nextLinearShape returns the next larger linear shape, or ShapeRadix once
// lin32 is full (the promotion ladder).
func nextLinearShape(s Shape) Shape {
	switch s {
	case ShapeLin1:
		return ShapeLin2
	case ShapeLin2:
		return ShapeLin4
	case ShapeLin4:
		return ShapeLin8
	case ShapeLin8:
		return ShapeLin16
	case ShapeLin16:
		return ShapeLin32
	default:
		return ShapeRadix
	}
}

// slotTag distinguishes an absent slot from a slot holding a reference to
// one of the eight node shapes.
type slotTag uint8

const (
	tagAbsent slotTag = iota
	tagNodeBase
)

// slot is the tagged child reference. It is not a single machine word:
// the tag and the reference are two fields. Representing them so (instead of
// packing 3 bits into a live pointer's low bits) keeps every slot a value
// the Go runtime can safely scan: a pointer value with its low bits
// overwritten is no longer a valid pointer, and the collector is free to
// misbehave around it, so the tag lives beside the pointer instead of
// inside it.
type slot struct {
	tag slotTag
	ref any // one of *radixNode, *lin1Node, ..., *spanNode; nil iff absent
}

func (s slot) isAbsent() bool { return s.tag == tagAbsent }

func (s slot) shape() Shape { return Shape(s.tag - tagNodeBase) }

func nodeSlot(sh Shape, ref any) slot {
	return slot{tag: tagNodeBase + slotTag(sh), ref: ref}
}

// header is embedded as the first field of every node shape. count is the
// number of populated child slots; leaf, when non-nil, is the value cell
// for the key that completes exactly at this node.
type header struct {
	count uint8
	leaf  *uint64
}

// headerOf exposes the shared header of any node shape through a single
// small interface, so generic code (leaf lookup/creation, population
// counts) doesn't need a type switch on every call site. Shape-specific
// behaviour (finding a child by byte, promoting, splitting) still
// switches on slot.shape() directly.
type headerOf interface {
	getHeader() *header
}

func (n *radixNode) getHeader() *header { return &n.header }
func (n *lin1Node) getHeader() *header  { return &n.header }
func (n *lin2Node) getHeader() *header  { return &n.header }
func (n *lin4Node) getHeader() *header  { return &n.header }
func (n *lin8Node) getHeader() *header  { return &n.header }
func (n *lin16Node) getHeader() *header { return &n.header }
func (n *lin32Node) getHeader() *header { return &n.header }
func (n *spanNode) getHeader() *header  { return &n.header }

// header returns the shared header of whatever node a non-absent slot
// references.
func (s slot) header() *header {
	return s.ref.(headerOf).getHeader()
}

// ---- node shapes ----------------------------------------------------

// radixNode is a 16-slot table. Two of them, chained outer-then-inner and
// indexed by a byte's high and low nibble respectively, together
// discriminate one full key byte — a two-level radix pair. The same
// struct serves both the outer and inner role; which role a given
// radixNode plays is purely a matter of who holds the slot pointing at it.
type radixNode struct {
	header
	table    [16]slot
	occupied presence16
	nextFree *radixNode
}

func (n *radixNode) reset() {
	n.header = header{}
	n.table = [16]slot{}
	n.occupied = 0
}

// lin1Node .. lin32Node hold a sorted-by-byte-value list of (key byte,
// child) pairs, promoted to the next size up as they fill and split into a
// radixNode once lin32 overflows. Field names are repeated across the six
// sizes rather than factored into a shared generic, favoring monomorphic
// field access on the hot descent path over generic indirection.
type lin1Node struct {
	header
	keys     [1]byte
	child    [1]slot
	nextFree *lin1Node
}

func (n *lin1Node) reset() { n.header = header{}; n.keys = [1]byte{}; n.child = [1]slot{} }

type lin2Node struct {
	header
	keys     [2]byte
	child    [2]slot
	nextFree *lin2Node
}

func (n *lin2Node) reset() { n.header = header{}; n.keys = [2]byte{}; n.child = [2]slot{} }

type lin4Node struct {
	header
	keys     [4]byte
	child    [4]slot
	nextFree *lin4Node
}

func (n *lin4Node) reset() { n.header = header{}; n.keys = [4]byte{}; n.child = [4]slot{} }

type lin8Node struct {
	header
	keys     [8]byte
	child    [8]slot
	nextFree *lin8Node
}

func (n *lin8Node) reset() { n.header = header{}; n.keys = [8]byte{}; n.child = [8]slot{} }

type lin16Node struct {
	header
	keys     [16]byte
	child    [16]slot
	nextFree *lin16Node
}

func (n *lin16Node) reset() { n.header = header{}; n.keys = [16]byte{}; n.child = [16]slot{} }

type lin32Node struct {
	header
	keys     [32]byte
	child    [32]slot
	nextFree *lin32Node
}

func (n *lin32Node) reset() { n.header = header{}; n.keys = [32]byte{}; n.child = [32]slot{} }

// spanNode stores up to SpanBytes verbatim tail bytes of a key plus one
// trailing child continuing the trie for longer keys that share this run
// as a prefix. header.leaf marks completion exactly at the end of its
// stored run; the trailing slot is always either absent or a further
// node, never a leaf cell directly.
type spanNode struct {
	header
	length   byte
	bytes    [SpanBytes]byte
	trail    slot
	nextFree *spanNode
}

func (n *spanNode) reset() {
	n.header = header{}
	n.length = 0
	n.bytes = [SpanBytes]byte{}
	n.trail = slot{}
}
