package nodepool

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

const canarySize = 8

// checkedHeap wraps a Heap and verifies that every free declares the same
// size as the matching allocation. It over-allocates each block by one
// canary word, records the requested size in a side table keyed by block
// address, and seals the block with an xxhash-derived canary. A mismatched
// size, an unknown block, or a clobbered canary is a contract violation and
// aborts the process.
//
// This is a development-time safety net: newCheckedHeap returns the wrapped
// heap itself when debug is off, so the non-debug configuration carries no
// check and no cost.
type checkedHeap struct {
	heap  Heap
	mu    sync.Mutex
	sizes map[uintptr]int
}

// newCheckedHeap wraps heap with allocation size verification when debug is
// set, and is a pass-through otherwise.
func newCheckedHeap(heap Heap, debug bool) Heap {
	if !debug {
		return heap
	}
	return &checkedHeap{heap: heap, sizes: make(map[uintptr]int)}
}

func canaryOf(addr uintptr, size int) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(addr))
	binary.LittleEndian.PutUint64(buf[8:], uint64(size))
	return xxhash.Sum64(buf[:])
}

func (c *checkedHeap) Alloc(size int) ([]byte, error) {
	raw, err := c.heap.Alloc(size + canarySize)
	if err != nil {
		return nil, err
	}
	addr := uintptr(unsafe.Pointer(&raw[0]))
	binary.LittleEndian.PutUint64(raw[size:size+canarySize], canaryOf(addr, size))

	c.mu.Lock()
	c.sizes[addr] = size
	c.mu.Unlock()

	// Cap the block at size so the canary word stays out of reach.
	return raw[:size:size], nil
}

func (c *checkedHeap) Free(size int, block []byte) {
	if block == nil {
		return
	}
	addr := uintptr(unsafe.Pointer(&block[0]))

	c.mu.Lock()
	recorded, ok := c.sizes[addr]
	delete(c.sizes, addr)
	c.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("nodepool: free of unknown block %#x (double free or foreign pointer)", addr))
	}
	if recorded != size {
		panic(fmt.Sprintf("nodepool: size mismatch on free of block %#x: declared %d, allocated %d", addr, size, recorded))
	}

	raw := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size+canarySize)
	if binary.LittleEndian.Uint64(raw[size:]) != canaryOf(addr, size) {
		panic(fmt.Sprintf("nodepool: canary clobbered on block %#x (write past end of %d-byte block)", addr, size))
	}
	c.heap.Free(size+canarySize, raw)
}
