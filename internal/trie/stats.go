package trie

// Stats summarizes the node population of a Trie: how many blocks of each
// shape are currently live, and how many keys are present (one leaf per
// completed key, regardless of which shape's header carries it).
type Stats struct {
	Shapes [numShapes]int
	Leaves int
}

// Stats walks the whole tree and reports its current shape population.
// It is instrumentation, not part of any hot path: callers that need this
// on every insert should instead track counts incrementally.
func (t *Trie) Stats() Stats {
	var s Stats
	if !t.root.isAbsent() {
		walkStats(t.root, &s)
	}
	return s
}

func walkStats(sl slot, s *Stats) {
	sh := sl.shape()
	s.Shapes[sh]++
	if sl.header().leaf != nil {
		s.Leaves++
	}

	switch sh {
	case ShapeRadix:
		n := sl.ref.(*radixNode)
		for _, child := range n.table {
			if !child.isAbsent() {
				walkStats(child, s)
			}
		}
	case ShapeSpan:
		n := sl.ref.(*spanNode)
		if !n.trail.isAbsent() {
			walkStats(n.trail, s)
		}
	default:
		_, child, count := linSlices(sl.ref, sh)
		for i := uint8(0); i < count; i++ {
			if !child[i].isAbsent() {
				walkStats(child[i], s)
			}
		}
	}
}
