package trie

import (
	"errors"

	"github.com/judytrie/judytrie/internal/arena"
)

// ErrClonedTrie is returned by any mutating operation on a Trie produced
// by Clone. A clone shares its original's node tree read-only; surfacing
// the misuse as an explicit error beats silently dropping the allocator
// and letting writes fail somewhere deeper.
var ErrClonedTrie = errors.New("trie: mutating operation on a cloned trie")

// Logger receives component-scoped debug events: segment growth (from the
// arena, via its own Logger), node promotion/splitting, and delete-time
// node release. The zero value of noopLogger is used when none is
// supplied; instrumentation never sits on the hot path beyond one
// interface call.
type Logger interface {
	Debugf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}

// Trie is one ordered byte-string map: a root slot, the node pool backing
// every shape, and the path stack shared by descent, traversal, and
// deletion. It is not safe for concurrent use, and the root package adds
// no synchronization around it.
type Trie struct {
	root        slot
	pool        *pool
	stack       *stack
	cur         slot // node the cursor is currently positioned on, if any
	maxKeyBytes int
	stackDepth  int
	log         Logger
}

// DefaultMaxKeyBytes bounds the path stack's depth when a Trie is opened
// without an explicit maximum key length.
const DefaultMaxKeyBytes = 4096

// New creates an empty Trie. maxKeyBytes of 0 disables the length check;
// it still bounds the path stack's fixed depth, so a real maximum should
// normally be supplied.
func New(a *arena.Allocator, maxKeyBytes int) *Trie {
	depth := maxKeyBytes
	if depth <= 0 {
		depth = DefaultMaxKeyBytes
	}
	return &Trie{
		pool:        newPool(a),
		stack:       newStack(depth),
		maxKeyBytes: maxKeyBytes,
		stackDepth:  depth,
		log:         noopLogger{},
	}
}

// SetLogger installs a non-nil Logger for debug instrumentation. Passing
// nil restores the no-op logger.
func (t *Trie) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	t.log = l
}

// Clone returns a traversal-only snapshot of t: it shares t's current node
// tree (same root) but owns an independent path stack and cursor, and
// carries no pool, so any attempted mutation (Cell, Delete) fails with
// ErrClonedTrie instead of racing t's own mutations or corrupting shared
// nodes.
func (t *Trie) Clone() *Trie {
	return &Trie{
		root:        t.root,
		pool:        nil,
		stack:       newStack(t.stackDepth),
		maxKeyBytes: t.maxKeyBytes,
		stackDepth:  t.stackDepth,
		log:         noopLogger{},
	}
}

// Cloned reports whether t was produced by Clone.
func (t *Trie) Cloned() bool { return t.pool == nil }

// Key reconstructs the key currently positioned by the path stack (set by
// the most recent Lookup, Cell, First, Last, Next, Prev, or StartAt call
// that left the cursor on a present key) into buf, returning the slice
// written. buf must be at least MaxKeyBytes long.
func (t *Trie) Key(buf []byte) []byte {
	if t.cur.isAbsent() {
		return buf[:0]
	}
	n := t.stack.reconstruct(buf)
	return buf[:n]
}

// MaxKeyBytes reports the configured maximum key length, or 0 if
// unbounded.
func (t *Trie) MaxKeyBytes() int { return t.maxKeyBytes }

// Positioned reports whether the cursor currently sits on a present key,
// as left by the most recent Lookup, Cell, First, Last, Next, Prev, or
// StartAt call.
func (t *Trie) Positioned() bool { return !t.cur.isAbsent() }
