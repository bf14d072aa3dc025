package nodepool

import "github.com/holmberd/go-nodepool/internal/freelist"

// SerialPool is the single-threaded counterpart of Pool: the same bounded
// free-list cache over the underlying heap, but with an unsynchronized stack
// and no atomics. It is valid only while the caller guarantees no concurrent
// access.
type SerialPool struct {
	size  int
	heap  Heap
	stack *freelist.Stack
}

// newSerialPool assumes size and config were validated by the policy.
func newSerialPool(size int, config Config, heap Heap) *SerialPool {
	return &SerialPool{
		size:  size,
		heap:  heap,
		stack: freelist.NewStack(size, config.Limit),
	}
}

// Alloc returns a block of the pool's size class, reusing the most recently
// freed block when one is cached.
func (p *SerialPool) Alloc() ([]byte, error) {
	if block, ok := p.stack.Pop(); ok {
		return block, nil
	}
	return p.heap.Alloc(p.size)
}

// Free returns a block to the pool, releasing it to the underlying heap when
// the cache is at its limit.
func (p *SerialPool) Free(block []byte) {
	if !p.stack.Push(block) {
		p.heap.Free(p.size, block)
	}
}

// Size returns the size class served by the pool.
func (p *SerialPool) Size() int {
	return p.size
}

// Cached returns the number of blocks on the free list.
func (p *SerialPool) Cached() int {
	return p.stack.Len()
}
