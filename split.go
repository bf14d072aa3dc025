package nodepool

// blockPool is the sized allocation surface shared by the pool variants.
type blockPool interface {
	Alloc() ([]byte, error)
	Free(block []byte)
}

// sizeRouter implements Heap by dispatching requests of exactly one size
// class to its specialized pool and any other size to the fallback heap.
// Several leaf types can share one declared policy without a smaller or
// larger leaf silently drawing from another leaf's free list, which would
// break the list's fixed-size assumption.
type sizeRouter struct {
	size     int
	pool     blockPool
	fallback Heap
}

func (r *sizeRouter) Alloc(size int) ([]byte, error) {
	if size == r.size {
		return r.pool.Alloc()
	}
	return r.fallback.Alloc(size)
}

func (r *sizeRouter) Free(size int, block []byte) {
	if size == r.size {
		r.pool.Free(block)
		return
	}
	r.fallback.Free(size, block)
}
