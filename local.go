package nodepool

import (
	"sync"

	"github.com/holmberd/go-nodepool/internal/freelist"
)

// Local is a per-goroutine cache tier over a Pool. Push and pop on the local
// free list need no synchronization, so the hot path costs a pointer swap.
// On a miss Alloc falls through to the shared pool; when the local list is
// full Free spills to the shared pool, which amortizes overflow across
// goroutines instead of growing one cache unbounded.
//
// A Local is owned by exactly one goroutine. Close must be the owner's last
// operation on the handle: it drains every cached block back into the shared
// pool (subject to the pool's own limit) so blocks cached by a finished
// goroutine stay recoverable by the rest of the process.
type Local struct {
	pool      *Pool
	stack     *freelist.Stack
	closed    bool
	drainOnce sync.Once
}

// Alloc returns a block of the pool's size class, preferring the local free
// list over the shared pool.
func (l *Local) Alloc() ([]byte, error) {
	if l.closed {
		panic("nodepool: Alloc on closed Local")
	}
	if block, ok := l.stack.Pop(); ok {
		return block, nil
	}
	return l.pool.Alloc()
}

// Free returns a block to the local free list, spilling to the shared pool
// when the local list is at its limit.
func (l *Local) Free(block []byte) {
	if l.closed {
		panic("nodepool: Free on closed Local")
	}
	if !l.stack.Push(block) {
		l.pool.Free(block)
	}
}

// Cached returns the number of blocks on the local free list.
func (l *Local) Cached() int {
	return l.stack.Len()
}

// Close drains the local free list into the shared pool. It is idempotent;
// the drain runs exactly once. After Close the handle must not be used.
func (l *Local) Close() {
	l.drainOnce.Do(func() {
		l.closed = true
		for {
			block, ok := l.stack.Pop()
			if !ok {
				return
			}
			l.pool.Free(block)
		}
	})
}
