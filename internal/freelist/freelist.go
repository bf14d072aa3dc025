// Package freelist implements the free-list stacks backing the node pools.
//
// A free block's own storage holds the list link: while a block sits on a
// stack its first machine word is reinterpreted as the address of the next
// free block, so keeping a block on a list needs no side allocation. The
// link is only ever written or read while the stack owns the block; once a
// block is popped and handed out, its bytes are the caller's.
//
// Blocks must come from memory that stays valid and unmoved while the stack
// holds it. The mmap-backed heap satisfies this by construction; Go-heap
// backed test fakes must pin their blocks.
package freelist

import "unsafe"

// LinkSize is the number of bytes at the start of a free block used to hold
// the next link while the block is list-resident.
const LinkSize = int(unsafe.Sizeof(uintptr(0)))

// MinBlockSize is the smallest size class a free-list stack can serve.
// Anything smaller cannot hold the embedded link.
const MinBlockSize = LinkSize

func blockAddr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

// setNext writes the next-link into the first word of a free block.
func setNext(b []byte, next uintptr) {
	*(*uintptr)(unsafe.Pointer(&b[0])) = next
}

// nextOf reads the embedded link of the free block at addr.
func nextOf(addr uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(addr))
}

// blockAt reconstructs the block slice of the given size class from a link
// address.
func blockAt(addr uintptr, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}
