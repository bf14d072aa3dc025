package freelist

import "fmt"

// Stack is the unsynchronized counterpart of SharedStack: the same bounded
// LIFO of free blocks, but owned by exactly one goroutine, so push and pop
// are a plain check-and-swap of a local head with no atomics and no retry
// loops. It backs both the thread-local cache tier and the single-threaded
// pool variant.
type Stack struct {
	size  int
	limit int
	head  uintptr
	count int
}

// NewStack creates an empty unsynchronized stack for blocks of exactly size
// bytes, retaining at most limit free blocks.
func NewStack(size, limit int) *Stack {
	if size < MinBlockSize {
		panic(fmt.Sprintf("freelist: size class %d below minimum %d", size, MinBlockSize))
	}
	if limit < 1 {
		panic(fmt.Sprintf("freelist: invalid stack limit %d", limit))
	}
	return &Stack{size: size, limit: limit}
}

// Pop removes and returns the most recently pushed block.
// The ok result reports whether the stack was non-empty.
func (s *Stack) Pop() (block []byte, ok bool) {
	if s.head == 0 {
		return nil, false
	}
	addr := s.head
	s.head = nextOf(addr)
	s.count--
	return blockAt(addr, s.size), true
}

// Push places block on the stack, reporting false without caching it when
// the stack is at its limit.
func (s *Stack) Push(block []byte) bool {
	if len(block) != s.size {
		panic(fmt.Sprintf("freelist: pushed block of %d bytes onto %d-byte stack", len(block), s.size))
	}
	if s.count >= s.limit {
		return false
	}
	setNext(block, s.head)
	s.head = blockAddr(block)
	s.count++
	return true
}

// Len returns the number of blocks currently cached.
func (s *Stack) Len() int {
	return s.count
}

// Size returns the size class served by the stack.
func (s *Stack) Size() int {
	return s.size
}

// Limit returns the maximum number of free blocks retained.
func (s *Stack) Limit() int {
	return s.limit
}
