package judytrie

import (
	"encoding/binary"

	"golang.org/x/text/unicode/norm"
)

// StringKey returns the byte-string key for s, after normalizing it to
// Unicode NFC, so that two byte-distinct but canonically-equivalent strings
// collide on the same key, as a caller comparing strings would expect.
// No NUL terminator needs to be appended: this engine distinguishes "ab"
// from "ab\x00x" by the exact byte length consumed to reach a leaf (see
// internal/trie/node.go's doc comment), so an embedded 0x00 byte is
// ordinary key content here, not a sentinel.
func StringKey(s string) []byte {
	return []byte(norm.NFC.String(s))
}

// intKeyOffset shifts the signed 64-bit range so that lexicographic
// (big-endian byte) order of the encoded key matches numeric order,
// including across the negative/non-negative boundary.
const intKeyOffset = uint64(1) << 63

// Uint64Key encodes a tuple of machine words as a single big-endian byte
// key, one word at a time. Byte-lexicographic order of the result matches
// numeric order of the tuple read left to right. Pass IntDepth words to
// match an Options{IntDepth: n} Map; Open forces MaxKeyBytes to IntDepth*8
// for exactly this reason.
func Uint64Key(words ...uint64) []byte {
	key := make([]byte, 8*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint64(key[i*8:], w)
	}
	return key
}

// Int64Key is Uint64Key's signed counterpart: each word is shifted by
// 1<<63 before encoding, generalized to a tuple, so that negative words
// still sort before non-negative ones under plain byte comparison.
func Int64Key(words ...int64) []byte {
	key := make([]byte, 8*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint64(key[i*8:], uint64(w)+intKeyOffset)
	}
	return key
}

// Uint64sFromKey decodes a key built by Uint64Key back into its word
// tuple. len(key) must be a multiple of 8.
func Uint64sFromKey(key []byte) []uint64 {
	words := make([]uint64, len(key)/8)
	for i := range words {
		words[i] = binary.BigEndian.Uint64(key[i*8:])
	}
	return words
}

// Int64sFromKey decodes a key built by Int64Key back into its word tuple,
// reversing intKeyOffset.
func Int64sFromKey(key []byte) []int64 {
	words := make([]int64, len(key)/8)
	for i := range words {
		words[i] = int64(binary.BigEndian.Uint64(key[i*8:]) - intKeyOffset)
	}
	return words
}
