package nodepool

import (
	"sync/atomic"

	"github.com/holmberd/go-nodepool/internal/freelist"
)

// Stats is a snapshot of a pool's allocation counters.
type Stats struct {
	Hits     int64 // allocations served from the free list
	Misses   int64 // allocations that fell through to the underlying heap
	Returns  int64 // frees retained on the free list
	Releases int64 // frees released to the underlying heap (cache at limit)
}

// Pool is the process-wide cache tier for one size class: a bounded
// lock-free stack of freed blocks over the underlying heap. It is safe for
// concurrent use by any number of goroutines; per-goroutine Local handles
// created by Local add an unsynchronized tier on top.
type Pool struct {
	size       int
	localLimit int
	heap       Heap
	stack      *freelist.SharedStack

	hits     atomic.Int64
	misses   atomic.Int64
	returns  atomic.Int64
	releases atomic.Int64
}

// newPool assumes size and config were validated by the policy.
func newPool(size int, config Config, heap Heap) *Pool {
	return &Pool{
		size:       size,
		localLimit: config.localLimit(),
		heap:       heap,
		stack:      freelist.NewSharedStack(size, config.Limit),
	}
}

// Alloc returns a block of the pool's size class, reusing the most recently
// freed block when one is cached. Reused blocks carry stale bytes; callers
// that need zeroed memory must clear them.
func (p *Pool) Alloc() ([]byte, error) {
	if block, ok := p.stack.Pop(); ok {
		p.hits.Add(1)
		return block, nil
	}
	p.misses.Add(1)
	return p.heap.Alloc(p.size)
}

// Free returns a block to the pool. When the cache is at its limit the block
// is released to the underlying heap instead, keeping the memory retained by
// the pool bounded.
func (p *Pool) Free(block []byte) {
	if p.stack.Push(block) {
		p.returns.Add(1)
		return
	}
	p.releases.Add(1)
	p.heap.Free(p.size, block)
}

// Local creates an unsynchronized cache tier on top of the pool for use by
// exactly one goroutine. The caller must Close the handle when the goroutine
// is done allocating, which drains any cached blocks back into the pool.
func (p *Pool) Local() *Local {
	return &Local{
		pool:  p,
		stack: freelist.NewStack(p.size, p.localLimit),
	}
}

// Size returns the size class served by the pool.
func (p *Pool) Size() int {
	return p.size
}

// Cached returns a snapshot of the number of blocks on the shared free list.
func (p *Pool) Cached() int {
	return p.stack.Len()
}

// Stats returns a snapshot of the pool's allocation counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Hits:     p.hits.Load(),
		Misses:   p.misses.Load(),
		Returns:  p.returns.Load(),
		Releases: p.releases.Load(),
	}
}
