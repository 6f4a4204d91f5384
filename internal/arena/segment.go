// Package arena provides the segment allocator that backs every node
// shape in package trie. A Segment is a fixed-size block obtained from the
// host; blocks are carved from it by bumping a cursor downward until it no
// longer fits, at which point a new Segment is linked in front.
//
// The allocator never returns memory to the host: a freed node goes onto a
// per-shape free list kept by package trie's node pool, not to the OS.
// Segments exist purely to bound and account for how much memory a Map has
// claimed; they are released in one shot when the owning Map is closed.
package arena

// SegmentSize is the size, in bytes, of a single segment obtained from the
// host allocator.
const SegmentSize = 64 * 1024

// CacheLine is the default alignment granularity used when carving blocks
// from a segment. Tunable via NewAllocator's cacheLine argument for hosts
// that prefer a wider line (e.g. 64 bytes).
const CacheLine = 8

// Segment is one 64 KiB block carved from the host. Allocation within a
// segment bumps downward from cap toward 0, matching the C original's
// cache-aligned descending cursor.
type Segment struct {
	cap    int
	cursor int
	next   *Segment
}

func newSegment(size int) *Segment {
	return &Segment{cap: size, cursor: size}
}

// remaining reports how many bytes are still free in this segment.
func (s *Segment) remaining() int {
	return s.cursor
}

// carve bumps the cursor down by size bytes and reports success. The caller
// is responsible for the actual node storage; the segment only accounts for
// the byte budget so that chaining behaves correctly even though node
// objects are ordinary (GC-tracked) Go allocations — see Allocator's doc
// comment for why.
func (s *Segment) carve(size int) bool {
	if size > s.cursor {
		return false
	}
	s.cursor -= size
	return true
}
