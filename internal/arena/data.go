package arena

// DataArena bump-allocates real byte buffers for caller payload: storage
// handed out here is never individually freed, only
// released in bulk when the owning Map is closed (and the arena becomes
// unreachable to the GC). It works in SegmentSize blocks like the
// node-accounting Allocator, but keeps no chain: a block that cannot fit a
// request is replaced by a fresh one, and earlier blocks stay alive only
// through the slices already handed out. Unlike Allocator, which only
// tracks a byte budget against ordinary Go node allocations, it backs its
// blocks with real storage, since callers read and write through the
// returned slice directly.
type DataArena struct {
	cur []byte
	pos int
}

// Alloc returns a fresh, zeroed slice of n bytes, carved from the current
// block or a freshly obtained one if it doesn't fit. The returned slice's
// backing array is never reused for another Alloc call.
func (d *DataArena) Alloc(n int) []byte {
	if n <= 0 {
		return nil
	}
	if d.cur == nil || d.pos+n > len(d.cur) {
		size := SegmentSize
		if n > size {
			size = n
		}
		d.cur = make([]byte, size)
		d.pos = 0
	}
	b := d.cur[d.pos : d.pos+n : d.pos+n]
	d.pos += n
	return b
}
