package nodepool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrOutOfMemory is returned when the underlying heap cannot satisfy an
// allocation after every cache tier has been exhausted.
var ErrOutOfMemory = errors.New("nodepool: out of memory")

const (
	KiB = 1024
	MiB = KiB * KiB

	// spanSize is how much memory MmapHeap requests from the OS at a time.
	// Large enough to amortize the mmap cost across many node-sized blocks,
	// small enough to avoid significant waste for rarely used size classes.
	spanSize = 64 * KiB
)

// Heap is the raw allocation capability the pools draw from: allocate and
// free opaque blocks by byte size. The size validator and the size-class
// router implement Heap as well, so layers compose uniformly.
//
// Memory returned by Alloc must stay valid and unmoved until the matching
// Free. Implementations backed by Go-managed memory must retain their own
// references to outstanding blocks, since cached blocks are tracked through
// raw addresses the garbage collector cannot see.
type Heap interface {
	Alloc(size int) ([]byte, error)
	Free(size int, block []byte)
}

// blockStride rounds a size class up to link-word alignment so that every
// block handed out can hold an embedded free-list link.
func blockStride(size int) int {
	const a = int(unsafe.Alignof(uintptr(0)))
	return (size + a - 1) &^ (a - 1)
}

// MmapHeap is the default underlying heap. It uses unix.Mmap to allocate
// spans of virtual memory that are not part of the Go heap, which keeps the
// pools' blocks out of reach of GOGC, and carves each span into fixed-size
// blocks kept on per-size free lists. Blocks are always aligned to the link
// word.
//
// Spans are returned to the operating system only by Close; freed blocks go
// back on the heap's own free lists instead, so a block address observed by
// a concurrent free-list pop can never point into unmapped memory.
type MmapHeap struct {
	mu     sync.Mutex
	free   map[int][]uintptr // free block addresses keyed by stride
	spans  [][]byte
	closed bool
}

// NewMmapHeap creates a new, empty mmap-backed heap.
func NewMmapHeap() *MmapHeap {
	return &MmapHeap{free: make(map[int][]uintptr)}
}

// Alloc returns a block of at least size bytes, reusing a previously freed
// block of the same class when one is available. It fails with
// ErrOutOfMemory when the operating system refuses to map more memory.
func (h *MmapHeap) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		panic(fmt.Sprintf("nodepool: invalid allocation size %d", size))
	}
	stride := blockStride(size)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		panic("nodepool: Alloc on closed MmapHeap")
	}
	if len(h.free[stride]) == 0 {
		if err := h.carve(stride); err != nil {
			return nil, err
		}
	}
	list := h.free[stride]
	n := len(list) - 1
	addr := list[n]
	h.free[stride] = list[:n]
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

// Free returns a block to the heap's free list for its size class.
// The block must have been obtained from Alloc with the same size.
func (h *MmapHeap) Free(size int, block []byte) {
	if block == nil {
		return
	}
	stride := blockStride(size)
	addr := uintptr(unsafe.Pointer(&block[0]))

	h.mu.Lock()
	defer h.mu.Unlock()
	h.free[stride] = append(h.free[stride], addr)
}

// Close unmaps every span held by the heap. All blocks allocated from the
// heap become invalid; the caller must guarantee none are still in use.
func (h *MmapHeap) Close() {
	h.mu.Lock()
	spans := h.spans
	h.spans = nil
	h.free = make(map[int][]uintptr)
	h.closed = true
	h.mu.Unlock()

	for _, span := range spans {
		if err := unix.Munmap(span); err != nil {
			slog.Error("failed to unmap span", "error", err)
		}
	}
}

// carve maps a new span and slices it into free blocks of the given stride.
// It assumes the caller holds the mutex.
func (h *MmapHeap) carve(stride int) error {
	total := spanSize
	if stride > total {
		total = stride
	}

	data, err := unix.Mmap(-1, 0, total,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return fmt.Errorf("%w: cannot map %d bytes for size class %d: %v", ErrOutOfMemory, total, stride, err)
	}
	h.spans = append(h.spans, data)

	for off := 0; off+stride <= total; off += stride {
		h.free[stride] = append(h.free[stride], uintptr(unsafe.Pointer(&data[off])))
	}
	return nil
}

// numFree returns the number of free blocks held for a size class.
// It is primarily intended as a helper method in tests.
func (h *MmapHeap) numFree(size int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.free[blockStride(size)])
}
