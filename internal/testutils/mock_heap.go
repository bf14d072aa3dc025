package testutils

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// MockHeap is an instrumented in-memory heap for tests. It counts allocate
// and free calls, keeps a ledger of outstanding blocks, and records contract
// violations (unknown frees, size disagreements) instead of panicking so
// tests can assert on them.
//
// Blocks live on the Go heap; the ledger retains a reference to every block
// it has ever handed out, including freed ones, so raw free-list links into
// them can never dangle.
type MockHeap struct {
	allocCalls atomic.Int64
	freeCalls  atomic.Int64

	mu          sync.Mutex
	limit       int64 // allocations allowed before simulated OOM; <0 means unlimited
	outstanding map[uintptr][]byte
	retained    [][]byte
	badFrees    []string

	// Fail is returned for allocations beyond the configured limit.
	Fail error
}

func NewMockHeap() *MockHeap {
	return &MockHeap{
		limit:       -1,
		outstanding: make(map[uintptr][]byte),
		Fail:        fmt.Errorf("mock heap: out of memory"),
	}
}

// FailAfter makes the heap fail every allocation after the next n.
func (h *MockHeap) FailAfter(n int64) {
	h.mu.Lock()
	h.limit = h.allocCalls.Load() + n
	h.mu.Unlock()
}

func (h *MockHeap) Alloc(size int) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.limit >= 0 && h.allocCalls.Load() >= h.limit {
		return nil, h.Fail
	}
	h.allocCalls.Add(1)
	block := make([]byte, size)
	h.outstanding[uintptr(unsafe.Pointer(&block[0]))] = block
	return block, nil
}

func (h *MockHeap) Free(size int, block []byte) {
	h.freeCalls.Add(1)
	addr := uintptr(unsafe.Pointer(&block[0]))

	h.mu.Lock()
	defer h.mu.Unlock()
	owned, ok := h.outstanding[addr]
	if !ok {
		h.badFrees = append(h.badFrees, fmt.Sprintf("free of unknown block %#x", addr))
		return
	}
	if len(owned) != size {
		h.badFrees = append(h.badFrees, fmt.Sprintf("block %#x freed with size %d, allocated %d", addr, size, len(owned)))
	}
	delete(h.outstanding, addr)
	h.retained = append(h.retained, owned)
}

func (h *MockHeap) AllocCalls() int64 {
	return h.allocCalls.Load()
}

func (h *MockHeap) FreeCalls() int64 {
	return h.freeCalls.Load()
}

// InUse returns the number of blocks allocated and not yet freed back.
func (h *MockHeap) InUse() int64 {
	return h.AllocCalls() - h.FreeCalls()
}

// BadFrees returns descriptions of every contract violation observed.
func (h *MockHeap) BadFrees() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.badFrees...)
}

func (h *MockHeap) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.allocCalls.Store(0)
	h.freeCalls.Store(0)
	h.limit = -1
	h.outstanding = make(map[uintptr][]byte)
	h.retained = nil
	h.badFrees = nil
}
