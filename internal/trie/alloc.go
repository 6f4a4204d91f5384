package trie

import "github.com/judytrie/judytrie/internal/arena"

// pool owns the per-shape free lists plus the arena that charges their
// segment budget. Allocation first tries the matching free list (set by a
// prior Delete/Release); only when that's empty does it reserve fresh
// budget from the arena and make a new Go allocation. This mirrors
// sirgallo-mari's NodePool.Get/Put reset-and-recycle convention, adapted
// from a sync.Pool of two node kinds to eight shape-specific free lists.
type pool struct {
	arena *arena.Allocator

	freeRadix *radixNode
	freeLin1  *lin1Node
	freeLin2  *lin2Node
	freeLin4  *lin4Node
	freeLin8  *lin8Node
	freeLin16 *lin16Node
	freeLin32 *lin32Node
	freeSpan  *spanNode
}

func newPool(a *arena.Allocator) *pool {
	return &pool{arena: a}
}

func (p *pool) newRadix() (*radixNode, error) {
	if n := p.freeRadix; n != nil {
		p.freeRadix = n.nextFree
		n.reset()
		return n, nil
	}
	if err := p.arena.Reserve(ByteSize[ShapeRadix]); err != nil {
		return nil, err
	}
	return &radixNode{}, nil
}

func (p *pool) freeRadixNode(n *radixNode) {
	n.nextFree = p.freeRadix
	p.freeRadix = n
}

func (p *pool) newLin1() (*lin1Node, error) {
	if n := p.freeLin1; n != nil {
		p.freeLin1 = n.nextFree
		n.reset()
		return n, nil
	}
	if err := p.arena.Reserve(ByteSize[ShapeLin1]); err != nil {
		return nil, err
	}
	return &lin1Node{}, nil
}

func (p *pool) freeLin1Node(n *lin1Node) {
	n.nextFree = p.freeLin1
	p.freeLin1 = n
}

func (p *pool) newLin2() (*lin2Node, error) {
	if n := p.freeLin2; n != nil {
		p.freeLin2 = n.nextFree
		n.reset()
		return n, nil
	}
	if err := p.arena.Reserve(ByteSize[ShapeLin2]); err != nil {
		return nil, err
	}
	return &lin2Node{}, nil
}

func (p *pool) freeLin2Node(n *lin2Node) {
	n.nextFree = p.freeLin2
	p.freeLin2 = n
}

func (p *pool) newLin4() (*lin4Node, error) {
	if n := p.freeLin4; n != nil {
		p.freeLin4 = n.nextFree
		n.reset()
		return n, nil
	}
	if err := p.arena.Reserve(ByteSize[ShapeLin4]); err != nil {
		return nil, err
	}
	return &lin4Node{}, nil
}

func (p *pool) freeLin4Node(n *lin4Node) {
	n.nextFree = p.freeLin4
	p.freeLin4 = n
}

func (p *pool) newLin8() (*lin8Node, error) {
	if n := p.freeLin8; n != nil {
		p.freeLin8 = n.nextFree
		n.reset()
		return n, nil
	}
	if err := p.arena.Reserve(ByteSize[ShapeLin8]); err != nil {
		return nil, err
	}
	return &lin8Node{}, nil
}

func (p *pool) freeLin8Node(n *lin8Node) {
	n.nextFree = p.freeLin8
	p.freeLin8 = n
}

func (p *pool) newLin16() (*lin16Node, error) {
	if n := p.freeLin16; n != nil {
		p.freeLin16 = n.nextFree
		n.reset()
		return n, nil
	}
	if err := p.arena.Reserve(ByteSize[ShapeLin16]); err != nil {
		return nil, err
	}
	return &lin16Node{}, nil
}

func (p *pool) freeLin16Node(n *lin16Node) {
	n.nextFree = p.freeLin16
	p.freeLin16 = n
}

func (p *pool) newLin32() (*lin32Node, error) {
	if n := p.freeLin32; n != nil {
		p.freeLin32 = n.nextFree
		n.reset()
		return n, nil
	}
	if err := p.arena.Reserve(ByteSize[ShapeLin32]); err != nil {
		return nil, err
	}
	return &lin32Node{}, nil
}

func (p *pool) freeLin32Node(n *lin32Node) {
	n.nextFree = p.freeLin32
	p.freeLin32 = n
}

func (p *pool) newSpan() (*spanNode, error) {
	if n := p.freeSpan; n != nil {
		p.freeSpan = n.nextFree
		n.reset()
		return n, nil
	}
	if err := p.arena.Reserve(ByteSize[ShapeSpan]); err != nil {
		return nil, err
	}
	return &spanNode{}, nil
}

func (p *pool) freeSpanNode(n *spanNode) {
	n.nextFree = p.freeSpan
	p.freeSpan = n
}

// newLinear allocates a linear node of the given shape and wraps it in a
// tagged slot, for callers (demotion) that pick the shape at run time.
func (p *pool) newLinear(sh Shape) (slot, error) {
	switch sh {
	case ShapeLin1:
		n, err := p.newLin1()
		if err != nil {
			return slot{}, err
		}
		return nodeSlot(ShapeLin1, n), nil
	case ShapeLin2:
		n, err := p.newLin2()
		if err != nil {
			return slot{}, err
		}
		return nodeSlot(ShapeLin2, n), nil
	case ShapeLin4:
		n, err := p.newLin4()
		if err != nil {
			return slot{}, err
		}
		return nodeSlot(ShapeLin4, n), nil
	case ShapeLin8:
		n, err := p.newLin8()
		if err != nil {
			return slot{}, err
		}
		return nodeSlot(ShapeLin8, n), nil
	case ShapeLin16:
		n, err := p.newLin16()
		if err != nil {
			return slot{}, err
		}
		return nodeSlot(ShapeLin16, n), nil
	default:
		n, err := p.newLin32()
		if err != nil {
			return slot{}, err
		}
		return nodeSlot(ShapeLin32, n), nil
	}
}

// freeSlot releases whatever node a slot references back to its shape's
// free list. No-op on an absent slot.
func (p *pool) freeSlot(s slot) {
	if s.isAbsent() {
		return
	}
	switch s.shape() {
	case ShapeRadix:
		p.freeRadixNode(s.ref.(*radixNode))
	case ShapeLin1:
		p.freeLin1Node(s.ref.(*lin1Node))
	case ShapeLin2:
		p.freeLin2Node(s.ref.(*lin2Node))
	case ShapeLin4:
		p.freeLin4Node(s.ref.(*lin4Node))
	case ShapeLin8:
		p.freeLin8Node(s.ref.(*lin8Node))
	case ShapeLin16:
		p.freeLin16Node(s.ref.(*lin16Node))
	case ShapeLin32:
		p.freeLin32Node(s.ref.(*lin32Node))
	case ShapeSpan:
		p.freeSpanNode(s.ref.(*spanNode))
	}
}
