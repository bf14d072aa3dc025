package freelist

import (
	"fmt"
	"sync/atomic"
)

// The head of a SharedStack packs a block address and a version tag into a
// single 64-bit word so both can be swung by one compare-and-swap:
//
//	bits 16..63  block address (48 bits)
//	bits  0..15  version tag
//
// The tag is bumped on every successful swing, so a compare-and-swap taken
// against a stale head fails even if the same block address has been popped,
// reused and pushed back in between (the ABA hazard). 48 bits cover
// user-space addresses on the 64-bit platforms this package targets.
const (
	tagBits = 16
	tagMask = 1<<tagBits - 1
)

func pack(addr uintptr, tag uint64) uint64 {
	if addr>>48 != 0 {
		panic(fmt.Sprintf("freelist: block address %#x does not fit a tagged head", addr))
	}
	return uint64(addr)<<tagBits | tag&tagMask
}

func headAddr(head uint64) uintptr {
	return uintptr(head >> tagBits)
}

// SharedStack is a bounded lock-free LIFO of free blocks of one size class,
// safe for concurrent use by any number of goroutines. Push and pop never
// block or take a lock; contention costs only bounded compare-and-swap
// retries.
type SharedStack struct {
	size  int
	limit int
	head  atomic.Uint64
	count atomic.Int64
}

// NewSharedStack creates an empty stack for blocks of exactly size bytes,
// retaining at most limit free blocks.
func NewSharedStack(size, limit int) *SharedStack {
	if size < MinBlockSize {
		panic(fmt.Sprintf("freelist: size class %d below minimum %d", size, MinBlockSize))
	}
	if limit < 1 {
		panic(fmt.Sprintf("freelist: invalid stack limit %d", limit))
	}
	return &SharedStack{size: size, limit: limit}
}

// Pop removes and returns the most recently pushed block.
// The ok result reports whether the stack was non-empty.
func (s *SharedStack) Pop() (block []byte, ok bool) {
	for {
		old := s.head.Load()
		addr := headAddr(old)
		if addr == 0 {
			return nil, false
		}
		next := nextOf(addr)
		if s.head.CompareAndSwap(old, pack(next, old+1)) {
			s.count.Add(-1)
			return blockAt(addr, s.size), true
		}
	}
}

// Push places block on the stack. It reports false without caching the block
// when the stack is at its limit; the caller is expected to release such
// blocks to the underlying heap. The limit is a hard cap: the slot is
// reserved on the counter before the block becomes visible.
func (s *SharedStack) Push(block []byte) bool {
	if len(block) != s.size {
		panic(fmt.Sprintf("freelist: pushed block of %d bytes onto %d-byte stack", len(block), s.size))
	}
	if s.count.Add(1) > int64(s.limit) {
		s.count.Add(-1)
		return false
	}
	addr := blockAddr(block)
	for {
		old := s.head.Load()
		setNext(block, headAddr(old))
		if s.head.CompareAndSwap(old, pack(addr, old+1)) {
			return true
		}
	}
}

// Len returns the number of blocks currently cached.
// Under concurrent use the value is a snapshot, not a guarantee.
func (s *SharedStack) Len() int {
	return int(s.count.Load())
}

// Size returns the size class served by the stack.
func (s *SharedStack) Size() int {
	return s.size
}

// Limit returns the maximum number of free blocks retained.
func (s *SharedStack) Limit() int {
	return s.limit
}
