package judytrie

import (
	"bytes"
	"errors"
	"math/rand"
	"sort"
	"testing"
)

func openStringMap(t *testing.T, maxKeyBytes int) *Map {
	t.Helper()
	m, err := Open(Options{MaxKeyBytes: maxKeyBytes})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return m
}

func insert(t *testing.T, m *Map, key []byte, v uint64) {
	t.Helper()
	c, err := m.Cell(key)
	if err != nil {
		t.Fatalf("Cell(%q): %v", key, err)
	}
	*c = v
}

func walkForward(t *testing.T, m *Map, bufLen int) []string {
	t.Helper()
	var out []string
	buf := make([]byte, bufLen)
	cell, ok := m.StartAt(nil)
	for ok {
		n, err := m.Key(buf)
		if err != nil {
			t.Fatalf("Key: %v", err)
		}
		out = append(out, string(buf[:n]))
		_ = cell
		cell, ok = m.Next()
	}
	return out
}

func TestOrderedWalkOverThreeKeys(t *testing.T) {
	m := openStringMap(t, 32)
	defer m.Close()

	insert(t, m, StringKey("apple"), 1)
	insert(t, m, StringKey("apricot"), 2)
	insert(t, m, StringKey("banana"), 3)

	got := walkForward(t, m, 32)
	want := []string{"apple", "apricot", "banana"}
	if len(got) != len(want) {
		t.Fatalf("walk = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("walk[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if _, ok := m.Next(); ok {
		t.Fatalf("Next past the last key should report none")
	}
}

func TestThirtyThreeDistinctLeadingBytesReachRadix(t *testing.T) {
	m := openStringMap(t, 32)
	defer m.Close()

	var keys []string
	for i := 0; i < 33; i++ {
		keys = append(keys, string([]byte{byte('!' + i)}))
	}
	for i, k := range keys {
		insert(t, m, []byte(k), uint64(i+1))
	}

	counts := m.ShapeCounts()
	if counts["radix"] == 0 {
		t.Fatalf("expected a radix split after 33 distinct leading bytes, got %v", counts)
	}
	if counts["lin32"] != 0 {
		t.Fatalf("the overflowing lin32 should be gone after the split, got %v", counts)
	}

	want := append([]string(nil), keys...)
	sort.Strings(want)
	got := walkForward(t, m, 32)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("walk[%d] = %q, want %q (byte-lex order must survive the split)", i, got[i], want[i])
		}
	}
}

func TestLongSharedPrefixSpansAndSplit(t *testing.T) {
	m := openStringMap(t, 64)
	defer m.Close()

	k1 := []byte("hello_world_this_is_a_long_key_xxx")
	k2 := []byte("hello_world_this_is_a_long_key_yyy")

	insert(t, m, k1, 1)
	if counts := m.ShapeCounts(); counts["span"] != 2 {
		t.Fatalf("a %d-byte key should sit in two chained spans, got %v", len(k1), counts)
	}

	insert(t, m, k2, 2)
	if c, ok := m.Slot(k1); !ok || *c != 1 {
		t.Fatalf("first long key lost after divergence split")
	}
	if c, ok := m.Slot(k2); !ok || *c != 2 {
		t.Fatalf("second long key missing after divergence split")
	}

	got := walkForward(t, m, 64)
	if len(got) != 2 || got[0] != string(k1) || got[1] != string(k2) {
		t.Fatalf("walk = %q", got)
	}
}

func TestDelRepositionsToPreviousKey(t *testing.T) {
	m := openStringMap(t, 32)
	defer m.Close()

	insert(t, m, StringKey("apple"), 1)
	insert(t, m, StringKey("apricot"), 2)
	insert(t, m, StringKey("banana"), 3)

	if _, ok := m.Slot(StringKey("apricot")); !ok {
		t.Fatalf("Slot(apricot) missed")
	}
	cell, ok := m.Del()
	if !ok {
		t.Fatalf("Del should reposition onto the previous key")
	}
	if *cell != 1 {
		t.Fatalf("Del returned cell with value %d, want apple's 1", *cell)
	}
	if _, ok := m.Slot(StringKey("apricot")); ok {
		t.Fatalf("deleted key still present")
	}

	// The cursor now sits on "apple"; the walk must continue at "banana".
	if _, ok := m.Slot(StringKey("apple")); !ok {
		t.Fatalf("Slot(apple) missed after delete")
	}
	next, ok := m.Next()
	if !ok || *next != 3 {
		t.Fatalf("Next after repositioning = %v, want banana's 3", next)
	}
}

func TestDelOnSmallestKeyReportsNoPrevious(t *testing.T) {
	m := openStringMap(t, 32)
	defer m.Close()

	insert(t, m, StringKey("only"), 1)
	if _, ok := m.Slot(StringKey("only")); !ok {
		t.Fatalf("Slot missed")
	}
	if cell, ok := m.Del(); ok || cell != nil {
		t.Fatalf("deleting the smallest key has no previous cell to return")
	}
	if _, ok := m.Slot(StringKey("only")); ok {
		t.Fatalf("key should be gone regardless")
	}
	if _, ok := m.Del(); ok {
		t.Fatalf("Del with no cursor position should report none")
	}
}

func TestIntegerModeOrderAndStartAt(t *testing.T) {
	m, err := Open(Options{IntDepth: 2})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	insert(t, m, Uint64Key(1, 1), 11)
	insert(t, m, Uint64Key(1, 2), 12)
	insert(t, m, Uint64Key(2, 0), 20)

	buf := make([]byte, 16)
	var got [][]uint64
	_, ok := m.StartAt(nil)
	for ok {
		n, _ := m.Key(buf)
		got = append(got, Uint64sFromKey(buf[:n]))
		_, ok = m.Next()
	}
	want := [][]uint64{{1, 1}, {1, 2}, {2, 0}}
	if len(got) != len(want) {
		t.Fatalf("walk = %v, want %v", got, want)
	}
	for i := range want {
		if got[i][0] != want[i][0] || got[i][1] != want[i][1] {
			t.Fatalf("walk[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	cell, ok := m.StartAt(Uint64Key(1, 5))
	if !ok || *cell != 20 {
		t.Fatalf("StartAt((1,5)) should land on (2,0)")
	}
}

func TestIntegerModeRandomChurn(t *testing.T) {
	m, err := Open(Options{IntDepth: 2})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer m.Close()

	// Small word ranges force deep shared prefixes, so deletes exercise
	// node collapse through spans, linear nodes, and radix pairs alike.
	rng := rand.New(rand.NewSource(7))
	ref := map[string]uint64{}
	for len(ref) < 2000 {
		key := Uint64Key(uint64(rng.Intn(64)), uint64(rng.Intn(4096)))
		v := uint64(len(ref) + 1)
		if _, dup := ref[string(key)]; dup {
			continue
		}
		insert(t, m, key, v)
		ref[string(key)] = v
	}

	checkWalk := func() {
		t.Helper()
		want := make([]string, 0, len(ref))
		for k := range ref {
			want = append(want, k)
		}
		sort.Strings(want)

		buf := make([]byte, 16)
		i := 0
		_, ok := m.StartAt(nil)
		for ok {
			n, _ := m.Key(buf)
			if i >= len(want) || !bytes.Equal(buf[:n], []byte(want[i])) {
				t.Fatalf("walk diverged from reference at position %d", i)
			}
			i++
			_, ok = m.Next()
		}
		if i != len(want) {
			t.Fatalf("walk enumerated %d keys, reference has %d", i, len(want))
		}
	}
	checkWalk()

	doomed := make([]string, 0, len(ref))
	for k := range ref {
		doomed = append(doomed, k)
	}
	sort.Strings(doomed)
	rng.Shuffle(len(doomed), func(i, j int) { doomed[i], doomed[j] = doomed[j], doomed[i] })

	for i, k := range doomed {
		if _, ok := m.Slot([]byte(k)); !ok {
			t.Fatalf("Slot(%x) missed before delete", k)
		}
		m.Del()
		delete(ref, k)
		if _, ok := m.Slot([]byte(k)); ok {
			t.Fatalf("key %x survived its delete", k)
		}
		if i%250 == 0 {
			checkWalk()
		}
	}
	checkWalk()
	if counts := m.ShapeCounts(); counts["radix"]+counts["span"]+counts["lin1"]+counts["lin2"]+counts["lin4"]+counts["lin8"]+counts["lin16"]+counts["lin32"] != 0 {
		t.Fatalf("emptied map still holds live nodes: %v", counts)
	}
}

func TestCellIdempotentAtFacade(t *testing.T) {
	m := openStringMap(t, 32)
	defer m.Close()

	c1, err := m.Cell(StringKey("k"))
	if err != nil {
		t.Fatalf("Cell: %v", err)
	}
	*c1 = 5
	c2, err := m.Cell(StringKey("k"))
	if err != nil {
		t.Fatalf("Cell: %v", err)
	}
	if c1 != c2 || *c2 != 5 {
		t.Fatalf("Cell must be idempotent: %p/%p value %d", c1, c2, *c2)
	}
}

func TestEndThenPrevWalksDescending(t *testing.T) {
	m := openStringMap(t, 32)
	defer m.Close()

	for i, k := range []string{"a", "b", "c"} {
		insert(t, m, StringKey(k), uint64(i+1))
	}
	var got []uint64
	cell, ok := m.End()
	for ok {
		got = append(got, *cell)
		cell, ok = m.Prev()
	}
	if len(got) != 3 || got[0] != 3 || got[1] != 2 || got[2] != 1 {
		t.Fatalf("descending walk = %v", got)
	}
}

func TestCloneIsReadOnlySnapshot(t *testing.T) {
	m := openStringMap(t, 32)
	defer m.Close()
	insert(t, m, StringKey("seen"), 1)

	cl := m.Clone()
	if c, ok := cl.Slot(StringKey("seen")); !ok || *c != 1 {
		t.Fatalf("clone should read the original's keys")
	}
	if _, err := cl.Cell(StringKey("new")); !errors.Is(err, ErrClonedMap) {
		t.Fatalf("Cell on clone = %v, want ErrClonedMap", err)
	}
	if _, err := cl.Data(8); !errors.Is(err, ErrClonedMap) {
		t.Fatalf("Data on clone = %v, want ErrClonedMap", err)
	}
	if _, ok := cl.Del(); ok {
		t.Fatalf("Del on clone must be refused")
	}
	if _, ok := m.Slot(StringKey("seen")); !ok {
		t.Fatalf("refused clone mutation must not affect the original")
	}

	// Clone cursors are independent of the original's.
	if _, ok := cl.StartAt(nil); !ok {
		t.Fatalf("clone traversal failed")
	}
	if _, ok := m.Slot(StringKey("absent")); ok {
		t.Fatalf("Slot on original found a missing key")
	}
	buf := make([]byte, 32)
	if n, _ := cl.Key(buf); string(buf[:n]) != "seen" {
		t.Fatalf("the original's failed lookup must not move the clone's cursor")
	}
}

func TestOpenRejectsInvalidOptions(t *testing.T) {
	if _, err := Open(Options{MaxKeyBytes: -1}); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("negative MaxKeyBytes: %v", err)
	}
	if _, err := Open(Options{IntDepth: -2}); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("negative IntDepth: %v", err)
	}
}

func TestKeyLengthBoundary(t *testing.T) {
	m := openStringMap(t, 4)
	defer m.Close()

	if _, err := m.Cell([]byte("1234")); err != nil {
		t.Fatalf("key at exactly the declared maximum: %v", err)
	}
	if _, err := m.Cell([]byte("12345")); !errors.Is(err, ErrKeyTooLong) {
		t.Fatalf("key over the declared maximum = %v, want ErrKeyTooLong", err)
	}
}

func TestEmptyKeyUnderRoot(t *testing.T) {
	m := openStringMap(t, 8)
	defer m.Close()

	insert(t, m, nil, 7)
	if c, ok := m.Slot(nil); !ok || *c != 7 {
		t.Fatalf("empty key lookup failed")
	}
	insert(t, m, StringKey("a"), 8)
	got := walkForward(t, m, 8)
	if len(got) != 2 || got[0] != "" || got[1] != "a" {
		t.Fatalf("empty key must sort first: %q", got)
	}
}

func TestKeyWithoutPositionWritesNothing(t *testing.T) {
	m := openStringMap(t, 8)
	defer m.Close()

	buf := make([]byte, 8)
	if n, _ := m.Key(buf); n != 0 {
		t.Fatalf("Key with no cursor position wrote %d bytes", n)
	}
	if _, ok := m.Slot(StringKey("missing")); ok {
		t.Fatalf("Slot on empty map found something")
	}
	if n, _ := m.Key(buf); n != 0 {
		t.Fatalf("a failed lookup must clear the cursor, Key wrote %d bytes", n)
	}
}

func TestDataAllocations(t *testing.T) {
	m := openStringMap(t, 8)
	defer m.Close()

	b1, err := m.Data(16)
	if err != nil || len(b1) != 16 {
		t.Fatalf("Data(16) = %v, %v", b1, err)
	}
	for _, x := range b1 {
		if x != 0 {
			t.Fatalf("Data must hand out zeroed bytes")
		}
	}
	b2, err := m.Data(16)
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	copy(b1, "0123456789abcdef")
	for _, x := range b2 {
		if x != 0 {
			t.Fatalf("Data buffers must not alias each other")
		}
	}
	if _, err := m.Data(0); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("Data(0) = %v, want ErrInvalidOptions", err)
	}
}

func TestValueCellOwnedByCaller(t *testing.T) {
	m := openStringMap(t, 16)
	defer m.Close()

	// A cell can carry any caller word, e.g. an index into Data storage.
	payload, err := m.Data(5)
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	copy(payload, "hello")
	c, err := m.Cell(StringKey("greeting"))
	if err != nil {
		t.Fatalf("Cell: %v", err)
	}
	*c = 0xDEADBEEF
	if got, ok := m.Slot(StringKey("greeting")); !ok || *got != 0xDEADBEEF {
		t.Fatalf("caller value did not round-trip")
	}
}
