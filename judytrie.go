// Package judytrie provides a compact, ordered associative map keyed by
// either byte strings or fixed-width unsigned/signed integer tuples,
// mapping each key to a single machine-word value cell the caller owns.
// It is a space-efficient trie in the Judy family: point lookups, ordered
// traversal, and key reconstruction are all logarithmic in key length, and
// memory use tracks population density through node promotion, splitting,
// and demotion (packages internal/trie and internal/arena).
//
// A *Map is not safe for concurrent use. Clone takes a traversal-only
// view with its own cursor; it shares the original's nodes without any
// synchronization, so mutating the original while the clone is read from
// another goroutine is a data race.
package judytrie

import (
	"errors"
	"fmt"

	"github.com/judytrie/judytrie/internal/arena"
	"github.com/judytrie/judytrie/internal/trie"
)

// Sentinel errors returned at the Map façade. The engine itself
// (package internal/trie) has almost no failure modes beyond allocation
// failure and key-length violations; these wrap that narrow vocabulary
// for callers of this package.
var (
	// ErrOutOfMemory is returned by Cell when the host allocator refuses
	// to hand over a new segment. Open and Data never return it: neither
	// draws on the segment allocator.
	ErrOutOfMemory = errors.New("judytrie: out of memory")
	// ErrKeyTooLong is returned when a key exceeds the map's configured
	// maximum length.
	ErrKeyTooLong = errors.New("judytrie: key exceeds configured maximum")
	// ErrClonedMap is returned by Cell or Data on a Map produced by
	// Clone: mutating a clone is resolved here by surfacing the misuse
	// explicitly rather than silently failing to allocate; see
	// DESIGN.md.
	ErrClonedMap = errors.New("judytrie: mutating operation on a cloned map")
	// ErrInvalidOptions is returned by Open or Data when the supplied
	// configuration cannot be satisfied.
	ErrInvalidOptions = errors.New("judytrie: invalid options")
)

// Logger receives component-scoped debug events: segment growth, node
// promotion/splitting/demotion, and delete-time node release. It is
// opt-in instrumentation, never on the hot path beyond one interface
// call; the default is a no-op.
type Logger interface {
	Debugf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}

// Options configures a Map at Open time.
type Options struct {
	// MaxKeyBytes bounds string-mode key length. Zero disables the length
	// check and sizes the path stack and key buffers for
	// trie.DefaultMaxKeyBytes. Ignored (and forced) when IntDepth > 0.
	MaxKeyBytes int
	// IntDepth, when non-zero, selects integer mode: every key is a
	// tuple of IntDepth machine words, and MaxKeyBytes is forced to
	// IntDepth * 8.
	IntDepth int
	// CacheLine is the node allocator's alignment granularity. Zero
	// selects a default of 8; 64 is the usual alternative for
	// hosts that prefer wider lines.
	CacheLine int
	// Logger receives debug instrumentation. Nil selects a no-op.
	Logger Logger
}

// Map is one ordered trie map: ownership of the segment-backed node
// allocator, the trie engine, and a side bump-allocator for caller
// payload (Data). The zero Map is not usable; construct one with Open.
type Map struct {
	t      *trie.Trie
	alloc  *arena.Allocator
	data   *arena.DataArena
	opts   Options
	closed bool
}

// Open creates an empty Map per opts. depth==0 in opts (IntDepth) selects
// string mode; IntDepth>0 selects integer mode with MaxKeyBytes forced to
// IntDepth*8 machine-word bytes.
func Open(opts Options) (*Map, error) {
	if opts.IntDepth < 0 || opts.MaxKeyBytes < 0 {
		return nil, ErrInvalidOptions
	}
	maxKeyBytes := opts.MaxKeyBytes
	if opts.IntDepth > 0 {
		maxKeyBytes = opts.IntDepth * 8
	}
	log := opts.Logger
	if log == nil {
		log = noopLogger{}
	}

	a := arena.NewAllocator(arena.HostNewSegment, opts.CacheLine)
	a.SetLogger(log)
	t := trie.New(a, maxKeyBytes)
	t.SetLogger(log)

	return &Map{
		t:     t,
		alloc: a,
		data:  &arena.DataArena{},
		opts: Options{
			MaxKeyBytes: maxKeyBytes,
			IntDepth:    opts.IntDepth,
			CacheLine:   opts.CacheLine,
			Logger:      log,
		},
	}, nil
}

// Close releases the Map's segments. Since node storage here is ordinary
// (GC-tracked) Go memory rather than raw host pages (see
// internal/arena's Allocator doc comment), Close's job is to drop every
// internal reference so the garbage collector can reclaim the whole tree
// once the caller drops m too; there is no separate host call to make.
func (m *Map) Close() error {
	m.t = nil
	m.alloc = nil
	m.data = nil
	m.closed = true
	return nil
}

// Clone returns a traversal-only snapshot of m: it shares m's current
// node tree but owns an independent cursor, and any mutating call on it
// (Cell, Data) returns ErrClonedMap rather than racing m's own mutations.
func (m *Map) Clone() *Map {
	return &Map{
		t:    m.t.Clone(),
		opts: m.opts,
	}
}

// maxKeyLen reports the key-buffer length sufficient for any key this Map
// can hold.
func (m *Map) maxKeyLen() int {
	if m.opts.MaxKeyBytes > 0 {
		return m.opts.MaxKeyBytes
	}
	return trie.DefaultMaxKeyBytes
}

// Cell finds or creates the leaf cell for key, returning a pointer the
// caller may read or write through. A freshly created cell reads zero;
// the caller must write a non-zero value before any traversal considers
// key "present" — only the caller knows what "present" means for its
// domain. Cell is idempotent: two consecutive calls for the same key
// return the same address without altering its stored value.
func (m *Map) Cell(key []byte) (*uint64, error) {
	cell, err := m.t.Cell(key)
	if err == nil {
		return cell, nil
	}
	switch {
	case errors.Is(err, trie.ErrClonedTrie):
		return nil, ErrClonedMap
	case errors.Is(err, trie.ErrKeyTooLong):
		return nil, ErrKeyTooLong
	case errors.Is(err, arena.ErrOutOfMemory):
		return nil, ErrOutOfMemory
	default:
		return nil, fmt.Errorf("judytrie: cell: %w", err)
	}
}

// Slot performs an exact lookup, returning the leaf cell for key and
// whether it was present. A present-but-zero cell (one Cell created but
// the caller never wrote to) is reported as found: only the
// caller knows whether a zero value means "absent" for its domain.
func (m *Map) Slot(key []byte) (*uint64, bool) {
	leaf := m.t.Lookup(key)
	return leaf, leaf != nil
}

// StartAt positions the cursor at the smallest key greater than or equal
// to key, returning its leaf cell.
func (m *Map) StartAt(key []byte) (*uint64, bool) { return m.t.StartAt(key) }

// End positions the cursor at the largest key in the map, to begin a
// descending traversal with Prev. Use StartAt with an empty key for the
// ascending equivalent.
func (m *Map) End() (*uint64, bool) { return m.t.Last() }

// Next advances the cursor to the next key in order.
func (m *Map) Next() (*uint64, bool) { return m.t.Next() }

// Prev moves the cursor to the previous key in order.
func (m *Map) Prev() (*uint64, bool) { return m.t.Prev() }

// Key reconstructs the cursor's current key into buf, returning the
// number of bytes written. buf must be at least as long as MaxKeyBytes
// (or IntDepth*8 in integer mode).
func (m *Map) Key(buf []byte) (int, error) {
	return len(m.t.Key(buf)), nil
}

// Del deletes the key under the cursor (as left by the most recent Slot,
// Cell, StartAt, End, Next, or Prev call) and repositions the cursor to
// the previous key, returning its cell. It reports false if no key is
// currently under the cursor, or if m is a clone (mutating a clone is
// never observable by design — see Clone). It also reports false, with a
// nil cell and no cursor position, when the deleted key had no
// predecessor; the key is still deleted in that case.
func (m *Map) Del() (*uint64, bool) {
	if m.t.Cloned() || !m.t.Positioned() {
		return nil, false
	}
	buf := make([]byte, m.maxKeyLen())
	curKey := append([]byte(nil), m.t.Key(buf)...)

	var prevKey []byte
	if _, ok := m.t.Prev(); ok {
		prevBuf := make([]byte, m.maxKeyLen())
		prevKey = append([]byte(nil), m.t.Key(prevBuf)...)
	}

	if !m.t.Delete(curKey) {
		return nil, false
	}
	if prevKey == nil {
		return nil, false
	}
	cell := m.t.Lookup(prevKey)
	return cell, cell != nil
}

// ShapeCounts reports how many live nodes of each internal shape the map
// currently holds, keyed by shape name ("radix", "lin1" .. "lin32",
// "span"). It is diagnostic instrumentation, not part of the ordered-map
// contract, and walks the whole tree on every call.
func (m *Map) ShapeCounts() map[string]int {
	st := m.t.Stats()
	counts := make(map[string]int, len(st.Shapes))
	for sh, n := range st.Shapes {
		counts[trie.Shape(sh).String()] = n
	}
	return counts
}

// Data bump-allocates n bytes within the map's own segments for caller
// payload (e.g. an out-of-band value the single-word cell merely points
// at). The returned buffer is never individually freed; it is released,
// along with everything else the Map owns, at Close.
func (m *Map) Data(n int) ([]byte, error) {
	if m.t.Cloned() {
		return nil, ErrClonedMap
	}
	if n <= 0 {
		return nil, ErrInvalidOptions
	}
	return m.data.Alloc(n), nil
}
