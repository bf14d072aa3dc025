package nodepool

import (
	"fmt"
	"sync"

	"github.com/holmberd/go-nodepool/internal/freelist"
)

// A Policy composes the allocation pipeline for a requested size class.
// Resolution happens once per distinct size at configuration time; the
// returned pipeline is fixed for the life of the policy and allocation calls
// flow through it with no further dispatch cost.
type Policy interface {
	For(size int) (Heap, error)
}

// validateSizeClass rejects size classes too small to hold an embedded
// free-list link. This is a configuration error, caught when the pipeline is
// composed, never deferred to a runtime fault.
func validateSizeClass(size int) error {
	if size < freelist.MinBlockSize {
		return fmt.Errorf("nodepool: size class %d cannot hold a free-list link (minimum %d)", size, freelist.MinBlockSize)
	}
	return nil
}

// HeapPolicy resolves every size unconditionally to the underlying heap.
// No caching, no size checks.
type HeapPolicy struct {
	Heap Heap
}

func (p HeapPolicy) For(size int) (Heap, error) {
	return p.Heap, nil
}

// FreeListPolicy is the concurrency-safe free-list policy. For a size class
// S it composes: size validator, size-class router for S, bounded lock-free
// shared cache over the validated heap, with other sizes falling back to the
// validated heap directly. Per-goroutine cache tiers hang off the resolved
// pool via Pool.Local.
//
// This is the recommended policy when several data-structure kinds of
// similar branching factor allocate concurrently: nodes of the same size all
// draw from the same warmed caches, which improves cache locality across
// otherwise unrelated allocations.
type FreeListPolicy struct {
	base   Heap
	config Config

	mu        sync.Mutex
	pools     map[int]*Pool
	pipelines map[int]Heap
}

// NewFreeListPolicy creates the policy over the given underlying heap.
func NewFreeListPolicy(heap Heap, config Config) (*FreeListPolicy, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &FreeListPolicy{
		base:      newCheckedHeap(heap, config.Debug),
		config:    config,
		pools:     make(map[int]*Pool),
		pipelines: make(map[int]Heap),
	}, nil
}

// For returns the composed pipeline for the size class, building it on first
// request and reusing it afterwards.
func (p *FreeListPolicy) For(size int) (Heap, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pipeline, ok := p.pipelines[size]; ok {
		return pipeline, nil
	}
	pool, err := p.poolForLocked(size)
	if err != nil {
		return nil, err
	}
	pipeline := &sizeRouter{size: size, pool: pool, fallback: p.base}
	p.pipelines[size] = pipeline
	return pipeline, nil
}

// PoolFor returns the shared cache tier for the size class, for callers that
// want to attach per-goroutine Local handles to it.
func (p *FreeListPolicy) PoolFor(size int) (*Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.poolForLocked(size)
}

func (p *FreeListPolicy) poolForLocked(size int) (*Pool, error) {
	if pool, ok := p.pools[size]; ok {
		return pool, nil
	}
	if err := validateSizeClass(size); err != nil {
		return nil, err
	}
	pool := newPool(size, p.config, p.base)
	p.pools[size] = pool
	return pool, nil
}

// SerialFreeListPolicy is the single-threaded free-list policy: the same
// composition as FreeListPolicy with the per-goroutine tier removed and the
// cache operating without synchronization. Cheaper, but valid only while the
// caller guarantees no concurrent access to any resolved pipeline.
type SerialFreeListPolicy struct {
	base      Heap
	config    Config
	pools     map[int]*SerialPool
	pipelines map[int]Heap
}

// NewSerialFreeListPolicy creates the policy over the given underlying heap.
func NewSerialFreeListPolicy(heap Heap, config Config) (*SerialFreeListPolicy, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SerialFreeListPolicy{
		base:      newCheckedHeap(heap, config.Debug),
		config:    config,
		pools:     make(map[int]*SerialPool),
		pipelines: make(map[int]Heap),
	}, nil
}

// For returns the composed pipeline for the size class, building it on first
// request and reusing it afterwards.
func (p *SerialFreeListPolicy) For(size int) (Heap, error) {
	if pipeline, ok := p.pipelines[size]; ok {
		return pipeline, nil
	}
	pool, err := p.PoolFor(size)
	if err != nil {
		return nil, err
	}
	pipeline := &sizeRouter{size: size, pool: pool, fallback: p.base}
	p.pipelines[size] = pipeline
	return pipeline, nil
}

// PoolFor returns the cache tier for the size class.
func (p *SerialFreeListPolicy) PoolFor(size int) (*SerialPool, error) {
	if pool, ok := p.pools[size]; ok {
		return pool, nil
	}
	if err := validateSizeClass(size); err != nil {
		return nil, err
	}
	pool := newSerialPool(size, p.config, p.base)
	p.pools[size] = pool
	return pool, nil
}
