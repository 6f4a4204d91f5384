package trie

// stepByte resolves one key byte against a non-span node, pushing the
// frame(s) that resolution visited onto st. Radix pushes two frames (outer
// nibble, then inner nibble) for the single byte b; every other shape
// pushes exactly one.
func stepByte(s slot, b byte, st *stack) (slot, bool) {
	switch s.shape() {
	case ShapeRadix:
		outer := s.ref.(*radixNode)
		hi, lo := b>>4, b&0x0F
		st.push(frame{shape: ShapeRadix, node: outer, idx: int(hi)})
		innerSlot := outer.table[hi]
		if innerSlot.isAbsent() {
			return slot{}, false
		}
		inner := innerSlot.ref.(*radixNode)
		st.push(frame{shape: ShapeRadix, node: inner, idx: int(lo), hasKey: true, key: b})
		return inner.table[lo], !inner.table[lo].isAbsent()
	case ShapeLin1:
		n := s.ref.(*lin1Node)
		idx, found := linFind(n.keys[:n.count], b)
		if !found {
			return slot{}, false
		}
		st.push(frame{shape: ShapeLin1, node: n, idx: idx, hasKey: true, key: b})
		return n.child[idx], true
	case ShapeLin2:
		n := s.ref.(*lin2Node)
		idx, found := linFind(n.keys[:n.count], b)
		if !found {
			return slot{}, false
		}
		st.push(frame{shape: ShapeLin2, node: n, idx: idx, hasKey: true, key: b})
		return n.child[idx], true
	case ShapeLin4:
		n := s.ref.(*lin4Node)
		idx, found := linFind(n.keys[:n.count], b)
		if !found {
			return slot{}, false
		}
		st.push(frame{shape: ShapeLin4, node: n, idx: idx, hasKey: true, key: b})
		return n.child[idx], true
	case ShapeLin8:
		n := s.ref.(*lin8Node)
		idx, found := linFind(n.keys[:n.count], b)
		if !found {
			return slot{}, false
		}
		st.push(frame{shape: ShapeLin8, node: n, idx: idx, hasKey: true, key: b})
		return n.child[idx], true
	case ShapeLin16:
		n := s.ref.(*lin16Node)
		idx, found := linFind(n.keys[:n.count], b)
		if !found {
			return slot{}, false
		}
		st.push(frame{shape: ShapeLin16, node: n, idx: idx, hasKey: true, key: b})
		return n.child[idx], true
	case ShapeLin32:
		n := s.ref.(*lin32Node)
		idx, found := linFind(n.keys[:n.count], b)
		if !found {
			return slot{}, false
		}
		st.push(frame{shape: ShapeLin32, node: n, idx: idx, hasKey: true, key: b})
		return n.child[idx], true
	}
	panic("trie: stepByte called on a span slot")
}

// linFind returns the position of b within a sorted-ascending key slice, or
// the index it would need to be inserted at to keep the slice sorted.
func linFind(keys []byte, b byte) (idx int, found bool) {
	for i, k := range keys {
		if k == b {
			return i, true
		}
		if k > b {
			return i, false
		}
	}
	return len(keys), false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// descend walks key from the root, pushing frames for every node visited,
// and reports the leaf cell at the node exactly matching key (nil, false
// if no such node exists). It never mutates trie structure. The cursor is
// set on success and cleared on any miss.
func (t *Trie) descend(key []byte) (*uint64, bool) {
	t.stack.reset()
	cur := t.root
	i := 0
	for i < len(key) {
		if cur.isAbsent() {
			t.cur = slot{}
			return nil, false
		}
		if cur.shape() == ShapeSpan {
			sp := cur.ref.(*spanNode)
			n := int(sp.length)
			remaining := len(key) - i
			if remaining < n || !bytesEqual(sp.bytes[:n], key[i:i+n]) {
				t.cur = slot{}
				return nil, false
			}
			t.stack.push(frame{shape: ShapeSpan, node: sp, idx: -1, span: append([]byte(nil), sp.bytes[:n]...)})
			i += n
			if i == len(key) {
				if sp.header.leaf == nil {
					t.cur = slot{}
					return nil, false
				}
				t.cur = cur
				return sp.header.leaf, true
			}
			cur = sp.trail
			continue
		}
		next, ok := stepByte(cur, key[i], t.stack)
		if !ok {
			t.cur = slot{}
			return nil, false
		}
		cur = next
		i++
	}
	if cur.isAbsent() {
		t.cur = slot{}
		return nil, false
	}
	if cur.shape() == ShapeSpan {
		// A span's leaf completes only at the end of its stored run; a key
		// exhausted at the transition into a non-empty span is absent. A
		// zero-length span completes right here, and its (empty) frame
		// still goes on the stack so upward traversal sees the node.
		sp := cur.ref.(*spanNode)
		if sp.length > 0 || sp.header.leaf == nil {
			t.cur = slot{}
			return nil, false
		}
		t.stack.push(frame{shape: ShapeSpan, node: sp, idx: -1})
		t.cur = cur
		return sp.header.leaf, true
	}
	h := cur.header()
	if h.leaf == nil {
		t.cur = slot{}
		return nil, false
	}
	t.cur = cur
	return h.leaf, true
}

// Lookup reports the leaf cell for key, or nil if key is not present. It
// positions the cursor on key when found, so a caller may continue with
// Next/Prev from there.
func (t *Trie) Lookup(key []byte) *uint64 {
	leaf, _ := t.descend(key)
	return leaf
}
