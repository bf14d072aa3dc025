// Package nodepool implements a configurable size-classed node allocator
// for workloads that repeatedly allocate and free many objects of a few
// fixed sizes, the typical churn of persistent tree-based data structures
// under structural sharing.
//
// A consuming type is attached to an allocation policy via Typed; at
// configuration time the policy composes a pipeline for the type's byte
// size out of a size-class router, an optional per-goroutine cache, a
// bounded lock-free shared cache, and a debug-mode size validator, all over
// an underlying heap. At run time allocate and release calls flow through
// the pipeline exactly as composed.
//
// The allocator is not a general malloc replacement: a pipeline for size
// class S always hands out S-byte blocks, and a block must be released with
// the same size it was allocated with.
package nodepool

// defaultHeap backs the convenience constructors. Spans it maps are only
// returned to the OS at process exit.
var defaultHeap = NewMmapHeap()

// New creates the recommended concurrency-safe free-list policy over the
// default mmap-backed heap.
func New() (*FreeListPolicy, error) {
	return NewFreeListPolicy(defaultHeap, DefaultConfig())
}

// Custom creates the concurrency-safe free-list policy with a custom
// underlying heap and config.
func Custom(heap Heap, config Config) (*FreeListPolicy, error) {
	return NewFreeListPolicy(heap, config)
}
