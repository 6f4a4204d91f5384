package arena

import "errors"

// ErrOutOfMemory is returned when the host refuses to hand over a new
// segment. Callers treat this exactly like a hard "out of memory": the
// in-flight operation must return not-found/null without having partially
// installed a node.
var ErrOutOfMemory = errors.New("arena: out of memory")

// NewSegment is the host collaborator
// alloc_segment/free_segment: a single function that hands back one fresh
// Segment, or an error if the host refuses. Tests substitute a
// capacity-limited version of this to exercise chaining and OOM.
type NewSegment func() (*Segment, error)

// Allocator charges byte-sized reservations against a chain of Segments,
// obtaining a new one from the host whenever the current segment's budget
// is exhausted. It does not hand back raw memory: node shapes in package
// trie remain ordinary (GC-tracked) Go allocations recycled through their
// own per-shape free lists, because storing a live pointer as anything but
// a pointer-typed field (e.g. as a raw offset into a byte slice) makes it
// invisible to the Go garbage collector, which can then reclaim or
// relocate the object out from under the arena. The Allocator's job is
// exactly component A/B's externally observable behaviour — a bounded
// per-segment byte budget that triggers host-segment chaining on
// exhaustion — without that unsoundness.
type Allocator struct {
	segments     *Segment
	newSegment   NewSegment
	cacheLine    int
	segmentCount int
	log          Logger
}

// Logger receives debug events from the allocator (segment growth). The
// zero value of noopLogger is used when none is supplied.
type Logger interface {
	Debugf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}

// NewAllocator creates an Allocator that pulls segments from newSegment on
// demand. cacheLine of 0 selects a default of 8.
func NewAllocator(newSegment NewSegment, cacheLine int) *Allocator {
	if cacheLine <= 0 {
		cacheLine = CacheLine
	}
	return &Allocator{newSegment: newSegment, cacheLine: cacheLine, log: noopLogger{}}
}

// SetLogger installs a non-nil Logger for debug instrumentation. Passing
// nil restores the no-op logger.
func (a *Allocator) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	a.log = l
}

// HostNewSegment is the default host collaborator: a plain 64 KiB segment,
// matching a single alloc_segment/free_segment pair.
func HostNewSegment() (*Segment, error) {
	return newSegment(SegmentSize), nil
}

// Reserve charges size bytes (rounded up to the allocator's cache line)
// against the current segment, linking in a new segment from the host
// when the current one doesn't have room.
func (a *Allocator) Reserve(size int) error {
	aligned := align(size, a.cacheLine)
	if a.segments != nil && a.segments.carve(aligned) {
		return nil
	}
	seg, err := a.newSegment()
	if err != nil {
		return ErrOutOfMemory
	}
	if !seg.carve(aligned) {
		// Request larger than one host segment (never the case for node
		// shapes, whose sizes are all far below SegmentSize): dedicate the
		// fresh segment to it entirely.
		seg.cursor = 0
	}
	seg.next = a.segments
	a.segments = seg
	a.segmentCount++
	a.log.Debugf("arena: linked segment #%d (%d bytes)", a.segmentCount, SegmentSize)
	return nil
}

func align(size, line int) int {
	if line <= 1 {
		return size
	}
	rem := size % line
	if rem == 0 {
		return size
	}
	return size + (line - rem)
}

// SegmentCount reports how many segments are currently chained, for tests
// and cmd/judywalk diagnostics.
func (a *Allocator) SegmentCount() int { return a.segmentCount }
