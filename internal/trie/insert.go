package trie

import "errors"

// ErrKeyTooLong is returned when a key exceeds the map's configured maximum
// length in bytes.
var ErrKeyTooLong = errors.New("trie: key exceeds maximum length")

// Cell finds or creates the leaf cell for key, returning a pointer the
// caller may read or write through. It never returns a nil pointer without
// also returning a non-nil error.
func (t *Trie) Cell(key []byte) (*uint64, error) {
	if t.pool == nil {
		return nil, ErrClonedTrie
	}
	if t.maxKeyBytes > 0 && len(key) > t.maxKeyBytes {
		return nil, ErrKeyTooLong
	}
	t.stack.reset()
	curRef := &t.root
	i := 0
	for {
		if curRef.isAbsent() {
			suffix, leaf, err := t.buildSuffix(key[i:])
			if err != nil {
				return nil, err
			}
			*curRef = suffix
			return t.finishCell(key, leaf)
		}
		cur := *curRef
		if cur.shape() == ShapeSpan {
			sp := cur.ref.(*spanNode)
			n := int(sp.length)
			avail := len(key) - i
			common := 0
			for common < n && common < avail && sp.bytes[common] == key[i+common] {
				common++
			}
			switch {
			case common == n && common == avail:
				if sp.header.leaf == nil {
					sp.header.leaf = new(uint64)
				}
				return t.finishCell(key, sp.header.leaf)
			case common == n:
				i += n
				curRef = &sp.trail
				continue
			case common == avail:
				leaf, err := t.splitSpanKeyShorter(sp, common)
				if err != nil {
					return nil, err
				}
				return t.finishCell(key, leaf)
			default:
				leaf, err := t.splitSpanDiverge(curRef, sp, common, key[i+common:])
				if err != nil {
					return nil, err
				}
				return t.finishCell(key, leaf)
			}
		}
		if i == len(key) {
			h := cur.header()
			if h.leaf == nil {
				h.leaf = new(uint64)
			}
			return t.finishCell(key, h.leaf)
		}
		ref, err := t.childRefFor(curRef, key[i])
		if err != nil {
			return nil, err
		}
		curRef = ref
		i++
	}
}

// finishCell repositions the path stack and cursor onto key (now present)
// and returns its leaf cell. Re-running a read-only descend after a
// mutation is simpler than threading correct frames through every split
// case above, and it is never more than one extra walk of key's length.
func (t *Trie) finishCell(key []byte, leaf *uint64) (*uint64, error) {
	t.descend(key)
	return leaf, nil
}

// buildSuffix constructs a fresh chain of span nodes encoding suffix,
// chunked to SpanBytes, with a newly allocated leaf cell at the end. It
// returns the slot for the chain's head and the leaf cell.
func (t *Trie) buildSuffix(suffix []byte) (slot, *uint64, error) {
	n := len(suffix)
	chunk := n
	if chunk > SpanBytes {
		chunk = SpanBytes
	}
	sp, err := t.pool.newSpan()
	if err != nil {
		return slot{}, nil, err
	}
	sp.length = byte(chunk)
	copy(sp.bytes[:chunk], suffix[:chunk])
	if chunk == n {
		sp.header.leaf = new(uint64)
		return nodeSlot(ShapeSpan, sp), sp.header.leaf, nil
	}
	rest, leaf, err := t.buildSuffix(suffix[chunk:])
	if err != nil {
		t.pool.freeSpanNode(sp)
		return slot{}, nil, err
	}
	sp.trail = rest
	return nodeSlot(ShapeSpan, sp), leaf, nil
}

// splitSpanKeyShorter handles inserting a key that ends exactly common
// bytes into sp's verbatim run (common < sp.length): sp is truncated to
// the common prefix and gains a fresh leaf, with the remainder of its old
// run and its old trail relocated to a new tail span.
func (t *Trie) splitSpanKeyShorter(sp *spanNode, common int) (*uint64, error) {
	tail, err := t.pool.newSpan()
	if err != nil {
		return nil, err
	}
	tail.length = sp.length - byte(common)
	copy(tail.bytes[:tail.length], sp.bytes[common:sp.length])
	tail.header.leaf = sp.header.leaf
	tail.trail = sp.trail

	sp.length = byte(common)
	sp.header.leaf = new(uint64)
	sp.trail = nodeSlot(ShapeSpan, tail)
	return sp.header.leaf, nil
}

// splitSpanDiverge handles a key whose bytes disagree with sp's verbatim
// run at offset common, with both sides having at least one more byte.
// The shared prefix (if any) keeps sp; a two-way lin2 branch is created at
// the divergence point holding the old run's remainder and the new
// suffix's remainder.
func (t *Trie) splitSpanDiverge(curRef *slot, sp *spanNode, common int, newSuffix []byte) (*uint64, error) {
	oldByte := sp.bytes[common]
	newByte := newSuffix[0]

	tail, err := t.pool.newSpan()
	if err != nil {
		return nil, err
	}
	tail.length = sp.length - byte(common) - 1
	copy(tail.bytes[:tail.length], sp.bytes[common+1:sp.length])
	tail.header.leaf = sp.header.leaf
	tail.trail = sp.trail
	oldChild := nodeSlot(ShapeSpan, tail)

	newChild, newLeaf, err := t.buildSuffix(newSuffix[1:])
	if err != nil {
		t.pool.freeSpanNode(tail)
		return nil, err
	}

	branch, err := t.pool.newLin2()
	if err != nil {
		t.pool.freeSpanNode(tail)
		return nil, err
	}
	if oldByte < newByte {
		branch.keys[0], branch.child[0] = oldByte, oldChild
		branch.keys[1], branch.child[1] = newByte, newChild
	} else {
		branch.keys[0], branch.child[0] = newByte, newChild
		branch.keys[1], branch.child[1] = oldByte, oldChild
	}
	branch.count = 2

	if common == 0 {
		t.pool.freeSpanNode(sp)
		*curRef = nodeSlot(ShapeLin2, branch)
	} else {
		sp.length = byte(common)
		sp.header.leaf = nil
		sp.trail = nodeSlot(ShapeLin2, branch)
	}
	return newLeaf, nil
}

// childRefFor resolves byte b against the node at *curRef (which must not
// be a span), promoting it to a larger shape first if it is already full,
// and returns the address of the child slot for b. The returned slot may
// be absent; the caller is responsible for populating it.
func (t *Trie) childRefFor(curRef *slot, b byte) (*slot, error) {
	cur := *curRef
	switch cur.shape() {
	case ShapeRadix:
		return t.radixChildRef(cur.ref.(*radixNode), b)
	case ShapeLin1:
		return t.lin1ChildRef(curRef, cur.ref.(*lin1Node), b)
	case ShapeLin2:
		return t.lin2ChildRef(curRef, cur.ref.(*lin2Node), b)
	case ShapeLin4:
		return t.lin4ChildRef(curRef, cur.ref.(*lin4Node), b)
	case ShapeLin8:
		return t.lin8ChildRef(curRef, cur.ref.(*lin8Node), b)
	case ShapeLin16:
		return t.lin16ChildRef(curRef, cur.ref.(*lin16Node), b)
	case ShapeLin32:
		return t.lin32ChildRef(curRef, cur.ref.(*lin32Node), b)
	}
	panic("trie: childRefFor called on a span slot")
}

func (t *Trie) radixChildRef(rn *radixNode, b byte) (*slot, error) {
	hi, lo := b>>4, b&0x0F
	outerSlot := &rn.table[hi]
	if outerSlot.isAbsent() {
		inner, err := t.pool.newRadix()
		if err != nil {
			return nil, err
		}
		*outerSlot = nodeSlot(ShapeRadix, inner)
		rn.count++
		rn.occupied.set(int(hi))
	}
	inner := outerSlot.ref.(*radixNode)
	if inner.table[lo].isAbsent() {
		inner.count++
		inner.occupied.set(int(lo))
	}
	t.stack.push(frame{shape: ShapeRadix, node: rn, idx: int(hi)})
	t.stack.push(frame{shape: ShapeRadix, node: inner, idx: int(lo), hasKey: true, key: b})
	return &inner.table[lo], nil
}

func (t *Trie) lin1ChildRef(curRef *slot, n *lin1Node, b byte) (*slot, error) {
	idx, exists := linFind(n.keys[:n.count], b)
	if exists {
		t.stack.push(frame{shape: ShapeLin1, node: n, idx: idx, hasKey: true, key: b})
		return &n.child[idx], nil
	}
	if int(n.count) < len(n.keys) {
		copy(n.keys[idx+1:n.count+1], n.keys[idx:n.count])
		copy(n.child[idx+1:n.count+1], n.child[idx:n.count])
		n.keys[idx] = b
		n.child[idx] = slot{}
		n.count++
		t.stack.push(frame{shape: ShapeLin1, node: n, idx: idx, hasKey: true, key: b})
		return &n.child[idx], nil
	}
	n2, err := t.pool.newLin2()
	if err != nil {
		return nil, err
	}
	n2.header = n.header
	copy(n2.keys[:n.count], n.keys[:n.count])
	copy(n2.child[:n.count], n.child[:n.count])
	t.pool.freeLin1Node(n)
	*curRef = nodeSlot(ShapeLin2, n2)
	t.log.Debugf("trie: promote lin1->lin2")
	return t.childRefFor(curRef, b)
}

func (t *Trie) lin2ChildRef(curRef *slot, n *lin2Node, b byte) (*slot, error) {
	idx, exists := linFind(n.keys[:n.count], b)
	if exists {
		t.stack.push(frame{shape: ShapeLin2, node: n, idx: idx, hasKey: true, key: b})
		return &n.child[idx], nil
	}
	if int(n.count) < len(n.keys) {
		copy(n.keys[idx+1:n.count+1], n.keys[idx:n.count])
		copy(n.child[idx+1:n.count+1], n.child[idx:n.count])
		n.keys[idx] = b
		n.child[idx] = slot{}
		n.count++
		t.stack.push(frame{shape: ShapeLin2, node: n, idx: idx, hasKey: true, key: b})
		return &n.child[idx], nil
	}
	n2, err := t.pool.newLin4()
	if err != nil {
		return nil, err
	}
	n2.header = n.header
	copy(n2.keys[:n.count], n.keys[:n.count])
	copy(n2.child[:n.count], n.child[:n.count])
	t.pool.freeLin2Node(n)
	*curRef = nodeSlot(ShapeLin4, n2)
	t.log.Debugf("trie: promote lin2->lin4")
	return t.childRefFor(curRef, b)
}

func (t *Trie) lin4ChildRef(curRef *slot, n *lin4Node, b byte) (*slot, error) {
	idx, exists := linFind(n.keys[:n.count], b)
	if exists {
		t.stack.push(frame{shape: ShapeLin4, node: n, idx: idx, hasKey: true, key: b})
		return &n.child[idx], nil
	}
	if int(n.count) < len(n.keys) {
		copy(n.keys[idx+1:n.count+1], n.keys[idx:n.count])
		copy(n.child[idx+1:n.count+1], n.child[idx:n.count])
		n.keys[idx] = b
		n.child[idx] = slot{}
		n.count++
		t.stack.push(frame{shape: ShapeLin4, node: n, idx: idx, hasKey: true, key: b})
		return &n.child[idx], nil
	}
	n2, err := t.pool.newLin8()
	if err != nil {
		return nil, err
	}
	n2.header = n.header
	copy(n2.keys[:n.count], n.keys[:n.count])
	copy(n2.child[:n.count], n.child[:n.count])
	t.pool.freeLin4Node(n)
	*curRef = nodeSlot(ShapeLin8, n2)
	t.log.Debugf("trie: promote lin4->lin8")
	return t.childRefFor(curRef, b)
}

func (t *Trie) lin8ChildRef(curRef *slot, n *lin8Node, b byte) (*slot, error) {
	idx, exists := linFind(n.keys[:n.count], b)
	if exists {
		t.stack.push(frame{shape: ShapeLin8, node: n, idx: idx, hasKey: true, key: b})
		return &n.child[idx], nil
	}
	if int(n.count) < len(n.keys) {
		copy(n.keys[idx+1:n.count+1], n.keys[idx:n.count])
		copy(n.child[idx+1:n.count+1], n.child[idx:n.count])
		n.keys[idx] = b
		n.child[idx] = slot{}
		n.count++
		t.stack.push(frame{shape: ShapeLin8, node: n, idx: idx, hasKey: true, key: b})
		return &n.child[idx], nil
	}
	n2, err := t.pool.newLin16()
	if err != nil {
		return nil, err
	}
	n2.header = n.header
	copy(n2.keys[:n.count], n.keys[:n.count])
	copy(n2.child[:n.count], n.child[:n.count])
	t.pool.freeLin8Node(n)
	*curRef = nodeSlot(ShapeLin16, n2)
	t.log.Debugf("trie: promote lin8->lin16")
	return t.childRefFor(curRef, b)
}

func (t *Trie) lin16ChildRef(curRef *slot, n *lin16Node, b byte) (*slot, error) {
	idx, exists := linFind(n.keys[:n.count], b)
	if exists {
		t.stack.push(frame{shape: ShapeLin16, node: n, idx: idx, hasKey: true, key: b})
		return &n.child[idx], nil
	}
	if int(n.count) < len(n.keys) {
		copy(n.keys[idx+1:n.count+1], n.keys[idx:n.count])
		copy(n.child[idx+1:n.count+1], n.child[idx:n.count])
		n.keys[idx] = b
		n.child[idx] = slot{}
		n.count++
		t.stack.push(frame{shape: ShapeLin16, node: n, idx: idx, hasKey: true, key: b})
		return &n.child[idx], nil
	}
	n2, err := t.pool.newLin32()
	if err != nil {
		return nil, err
	}
	n2.header = n.header
	copy(n2.keys[:n.count], n.keys[:n.count])
	copy(n2.child[:n.count], n.child[:n.count])
	t.pool.freeLin16Node(n)
	*curRef = nodeSlot(ShapeLin32, n2)
	t.log.Debugf("trie: promote lin16->lin32")
	return t.childRefFor(curRef, b)
}

func (t *Trie) lin32ChildRef(curRef *slot, n *lin32Node, b byte) (*slot, error) {
	idx, exists := linFind(n.keys[:n.count], b)
	if exists {
		t.stack.push(frame{shape: ShapeLin32, node: n, idx: idx, hasKey: true, key: b})
		return &n.child[idx], nil
	}
	if int(n.count) < len(n.keys) {
		copy(n.keys[idx+1:n.count+1], n.keys[idx:n.count])
		copy(n.child[idx+1:n.count+1], n.child[idx:n.count])
		n.keys[idx] = b
		n.child[idx] = slot{}
		n.count++
		t.stack.push(frame{shape: ShapeLin32, node: n, idx: idx, hasKey: true, key: b})
		return &n.child[idx], nil
	}
	outer, err := t.pool.newRadix()
	if err != nil {
		return nil, err
	}
	outer.header = n.header
	for i := 0; i < int(n.count); i++ {
		kb := n.keys[i]
		hi, lo := kb>>4, kb&0x0F
		outerSlot := &outer.table[hi]
		if outerSlot.isAbsent() {
			inner, err := t.pool.newRadix()
			if err != nil {
				return nil, err
			}
			*outerSlot = nodeSlot(ShapeRadix, inner)
			outer.occupied.set(int(hi))
		}
		inner := outerSlot.ref.(*radixNode)
		inner.table[lo] = n.child[i]
		inner.count++
		inner.occupied.set(int(lo))
	}
	var cnt uint8
	for _, s := range outer.table {
		if !s.isAbsent() {
			cnt++
		}
	}
	outer.count = cnt
	t.pool.freeLin32Node(n)
	*curRef = nodeSlot(ShapeRadix, outer)
	t.log.Debugf("trie: split lin32->radix")
	return t.childRefFor(curRef, b)
}
