package judytrie

import (
	"bytes"
	"testing"
)

func TestStringKeyNormalization(t *testing.T) {
	// 'ä' can be U+00E4 or 'a' + U+0308; both must produce the same key.
	precomposed := "\u00E4"
	decomposed := "a\u0308"
	if !bytes.Equal(StringKey(precomposed), StringKey(decomposed)) {
		t.Fatalf("normalization mismatch: %v vs %v", StringKey(precomposed), StringKey(decomposed))
	}
}

func TestStringKeyAllowsEmbeddedZeroBytes(t *testing.T) {
	k := StringKey("ab\x00x")
	if len(k) != 4 || k[2] != 0 {
		t.Fatalf("embedded NUL should be ordinary key content, got %v", k)
	}
}

func TestUint64KeyWidthAndLayout(t *testing.T) {
	k := Uint64Key(0x0102030405060708, 0x1122334455667788)
	if len(k) != 16 {
		t.Fatalf("two words should encode to 16 bytes, got %d", len(k))
	}
	if k[0] != 0x01 || k[7] != 0x08 || k[8] != 0x11 {
		t.Fatalf("words must be big-endian: %v", k)
	}
}

func TestUint64KeyOrderMatchesNumericOrder(t *testing.T) {
	tuples := [][]uint64{
		{0, 0},
		{0, 1},
		{0, 1<<64 - 1},
		{1, 0},
		{1, 1},
		{255, 256},
		{256, 0},
		{1<<64 - 1, 1<<64 - 1},
	}
	for i := 1; i < len(tuples); i++ {
		a := Uint64Key(tuples[i-1]...)
		b := Uint64Key(tuples[i]...)
		if bytes.Compare(a, b) >= 0 {
			t.Fatalf("key order broke numeric order between %v and %v", tuples[i-1], tuples[i])
		}
	}
}

func TestInt64KeyOrderCrossesSignBoundary(t *testing.T) {
	values := []int64{-1 << 63, -1000, -1, 0, 1, 1000, 1<<63 - 1}
	for i := 1; i < len(values); i++ {
		a := Int64Key(values[i-1])
		b := Int64Key(values[i])
		if bytes.Compare(a, b) >= 0 {
			t.Fatalf("key order broke numeric order between %d and %d", values[i-1], values[i])
		}
	}
}

func TestIntegerKeyRoundTrips(t *testing.T) {
	u := []uint64{0, 42, 1<<64 - 1}
	got := Uint64sFromKey(Uint64Key(u...))
	if len(got) != len(u) {
		t.Fatalf("round trip length %d, want %d", len(got), len(u))
	}
	for i := range u {
		if got[i] != u[i] {
			t.Fatalf("uint64 word %d round-tripped to %d, want %d", i, got[i], u[i])
		}
	}

	s := []int64{-1 << 63, -7, 0, 7, 1<<63 - 1}
	gotS := Int64sFromKey(Int64Key(s...))
	for i := range s {
		if gotS[i] != s[i] {
			t.Fatalf("int64 word %d round-tripped to %d, want %d", i, gotS[i], s[i])
		}
	}
}
