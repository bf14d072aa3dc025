package nodepool

import (
	"fmt"
	"unsafe"
)

// Typed grants a type allocate and release operations backed by the policy
// pipeline for the type's byte size. The pipeline is resolved once when the
// Typed is built; every Typed of the same size built from the same policy
// shares one pipeline, and with it one router and cache pair, for the life
// of the process.
//
// T must not contain Go pointers: blocks may live outside the Go heap and
// are tracked through raw addresses while cached, so pointers stored in them
// are invisible to the garbage collector.
type Typed[T any] struct {
	size     int
	pipeline Heap
	pool     *Pool // non-nil when the policy provides per-goroutine caches
}

// NewTyped resolves the policy pipeline for T's size.
func NewTyped[T any](policy Policy) (*Typed[T], error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return nil, fmt.Errorf("nodepool: cannot attach zero-sized type %T", zero)
	}
	pipeline, err := policy.For(size)
	if err != nil {
		return nil, err
	}
	t := &Typed[T]{size: size, pipeline: pipeline}
	if fp, ok := policy.(*FreeListPolicy); ok {
		// For succeeded, so the pool for this size already exists.
		t.pool, _ = fp.PoolFor(size)
	}
	return t, nil
}

// New allocates a zeroed T from the pipeline.
func (t *Typed[T]) New() (*T, error) {
	block, err := t.pipeline.Alloc(t.size)
	if err != nil {
		return nil, err
	}
	// Reused blocks carry stale bytes, including the old free-list link.
	clear(block)
	return (*T)(unsafe.Pointer(&block[0])), nil
}

// Release returns a T obtained from New to the pipeline. Releasing the same
// object twice, or an object not obtained from New, is a contract violation.
func (t *Typed[T]) Release(obj *T) {
	if obj == nil {
		return
	}
	t.pipeline.Free(t.size, unsafe.Slice((*byte)(unsafe.Pointer(obj)), t.size))
}

// Size returns T's size class in bytes.
func (t *Typed[T]) Size() int {
	return t.size
}

// Local returns a typed view over a per-goroutine cache tier. It fails when
// the policy has no shared pool to drain into (pass-through and
// single-threaded policies).
func (t *Typed[T]) Local() (*TypedLocal[T], error) {
	if t.pool == nil {
		return nil, fmt.Errorf("nodepool: policy provides no per-goroutine caches for size class %d", t.size)
	}
	return &TypedLocal[T]{size: t.size, local: t.pool.Local()}, nil
}

// TypedLocal is the typed counterpart of Local: allocate and release for one
// goroutine, draining into the shared pool on Close.
type TypedLocal[T any] struct {
	size  int
	local *Local
}

// New allocates a zeroed T, preferring the goroutine-local free list.
func (l *TypedLocal[T]) New() (*T, error) {
	block, err := l.local.Alloc()
	if err != nil {
		return nil, err
	}
	clear(block)
	return (*T)(unsafe.Pointer(&block[0])), nil
}

// Release returns a T to the goroutine-local free list.
func (l *TypedLocal[T]) Release(obj *T) {
	if obj == nil {
		return
	}
	l.local.Free(unsafe.Slice((*byte)(unsafe.Pointer(obj)), l.size))
}

// Close drains the local free list into the shared pool. It must be the
// owning goroutine's last operation on the handle.
func (l *TypedLocal[T]) Close() {
	l.local.Close()
}
