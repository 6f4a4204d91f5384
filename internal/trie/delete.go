package trie

// Delete removes key from the map, releasing every node that becomes
// childless and leafless as a result back to its shape's free list. It
// reports whether key was present. The cursor is cleared by a successful
// delete, which is the conservative reading when "delete under the
// cursor" is otherwise unspecified.
func (t *Trie) Delete(key []byte) bool {
	if t.pool == nil {
		return false
	}
	_, ok := t.descend(key)
	if !ok {
		return false
	}
	node := t.cur
	node.header().leaf = nil
	t.collapse(node, t.stack.len())
	t.cur = slot{}
	return true
}

// collapse removes node from its ancestry if it is now empty, walking up
// through stack frames [0, fi) and repeating for each newly-emptied
// ancestor in turn.
func (t *Trie) collapse(node slot, fi int) {
	empty := isEmpty(node)
	for {
		if fi == 0 {
			if empty {
				t.log.Debugf("trie: release root %s", node.shape())
				t.pool.freeSlot(node)
				t.root = slot{}
			}
			return
		}
		if !empty {
			return
		}
		f := t.stack.at(fi - 1)
		switch f.shape {
		case ShapeSpan:
			sp := f.node.(*spanNode)
			t.log.Debugf("trie: release span trail")
			t.pool.freeSlot(sp.trail)
			sp.trail = slot{}
			node = nodeSlot(ShapeSpan, sp)
		case ShapeRadix:
			rn := f.node.(*radixNode)
			t.log.Debugf("trie: release radix entry")
			t.pool.freeSlot(rn.table[f.idx])
			rn.table[f.idx] = slot{}
			rn.occupied.clear(f.idx)
			rn.count--
			node = nodeSlot(ShapeRadix, rn)
		default:
			keys, child, count := linSlices(f.node, f.shape)
			t.pool.freeSlot(child[f.idx])
			copy(keys[f.idx:int(count)-1], keys[f.idx+1:count])
			copy(child[f.idx:int(count)-1], child[f.idx+1:count])
			keys[count-1] = 0
			child[count-1] = slot{}
			setCount(f.node, f.shape, count-1)
			node = nodeSlot(f.shape, f.node)
			if count-1 > 0 {
				node = t.demoteLinear(fi-1, node)
			}
		}
		empty = isEmpty(node)
		fi--
	}
}

// smallestLinFor returns the smallest linear shape whose capacity holds
// count entries.
func smallestLinFor(count uint8) Shape {
	switch {
	case count <= 1:
		return ShapeLin1
	case count <= 2:
		return ShapeLin2
	case count <= 4:
		return ShapeLin4
	case count <= 8:
		return ShapeLin8
	case count <= 16:
		return ShapeLin16
	default:
		return ShapeLin32
	}
}

// demoteLinear replaces the linear node at stack frame fi with the
// smallest shape its remaining population fits, the downward mirror of
// insert-time promotion, so a node's memory keeps tracking its population
// after deletes. On allocation failure the larger node is simply kept.
func (t *Trie) demoteLinear(fi int, s slot) slot {
	keys, child, count := linSlices(s.ref, s.shape())
	target := smallestLinFor(count)
	if target >= s.shape() {
		return s
	}
	ns, err := t.pool.newLinear(target)
	if err != nil {
		return s
	}
	nkeys, nchild, _ := linSlices(ns.ref, target)
	copy(nkeys, keys[:count])
	copy(nchild, child[:count])
	*ns.header() = *s.header()
	t.pool.freeSlot(s)
	*t.parentSlotRef(fi) = ns
	t.log.Debugf("trie: demote %s->%s", s.shape(), target)
	return ns
}

// parentSlotRef returns the address of the slot referencing the node
// recorded at stack frame fi: the root slot for the topmost frame,
// otherwise the selected child slot of the frame above it.
func (t *Trie) parentSlotRef(fi int) *slot {
	if fi == 0 {
		return &t.root
	}
	p := t.stack.at(fi - 1)
	switch p.shape {
	case ShapeSpan:
		return &p.node.(*spanNode).trail
	case ShapeRadix:
		return &p.node.(*radixNode).table[p.idx]
	default:
		_, child, _ := linSlices(p.node, p.shape)
		return &child[p.idx]
	}
}

// isEmpty reports whether a node carries no leaf and no children, making
// it safe to unlink from its parent.
func isEmpty(s slot) bool {
	if s.isAbsent() {
		return true
	}
	if s.shape() == ShapeSpan {
		sp := s.ref.(*spanNode)
		return sp.trail.isAbsent() && sp.header.leaf == nil
	}
	if s.header().leaf != nil {
		return false
	}
	if s.shape() == ShapeRadix {
		return s.ref.(*radixNode).count == 0
	}
	_, _, count := linSlices(s.ref, s.shape())
	return count == 0
}

func setCount(node any, shape Shape, c uint8) {
	switch shape {
	case ShapeLin1:
		node.(*lin1Node).count = c
	case ShapeLin2:
		node.(*lin2Node).count = c
	case ShapeLin4:
		node.(*lin4Node).count = c
	case ShapeLin8:
		node.(*lin8Node).count = c
	case ShapeLin16:
		node.(*lin16Node).count = c
	case ShapeLin32:
		node.(*lin32Node).count = c
	}
}
