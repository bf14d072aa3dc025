package nodepool

import (
	"testing"
	"unsafe"
)

func TestMmapHeap(t *testing.T) {
	t.Run("carves a span into blocks of the size class", func(t *testing.T) {
		heap := NewMmapHeap()
		defer heap.Close()

		block, err := heap.Alloc(64)
		if err != nil {
			t.Fatal(err)
		}
		if len(block) != 64 {
			t.Fatalf("expected 64-byte block, got %d", len(block))
		}
		if numFree := heap.numFree(64); numFree != spanSize/64-1 {
			t.Errorf("expected %d carved blocks left on the free list, got %d", spanSize/64-1, numFree)
		}
	})

	t.Run("reuses freed blocks most recent first", func(t *testing.T) {
		heap := NewMmapHeap()
		defer heap.Close()

		a, _ := heap.Alloc(64)
		b, _ := heap.Alloc(64)
		heap.Free(64, a)
		heap.Free(64, b)

		got, err := heap.Alloc(64)
		if err != nil {
			t.Fatal(err)
		}
		if &got[0] != &b[0] {
			t.Errorf("expected reuse of most recently freed block %p, got %p", &b[0], &got[0])
		}
	})

	t.Run("aligns odd size classes to the link word", func(t *testing.T) {
		heap := NewMmapHeap()
		defer heap.Close()

		const align = unsafe.Alignof(uintptr(0))
		for _, size := range []int{1, 20, 33, 100} {
			block, err := heap.Alloc(size)
			if err != nil {
				t.Fatal(err)
			}
			if len(block) != size {
				t.Errorf("expected %d-byte block, got %d", size, len(block))
			}
			if addr := uintptr(unsafe.Pointer(&block[0])); addr%align != 0 {
				t.Errorf("expected block for size %d aligned to %d, got %#x", size, align, addr)
			}
		}
	})

	t.Run("serves size classes larger than a span", func(t *testing.T) {
		heap := NewMmapHeap()
		defer heap.Close()

		const size = 2 * spanSize
		block, err := heap.Alloc(size)
		if err != nil {
			t.Fatal(err)
		}
		if len(block) != size {
			t.Fatalf("expected %d-byte block, got %d", size, len(block))
		}
		if numFree := heap.numFree(size); numFree != 0 {
			t.Errorf("expected single-block span fully handed out, got %d free", numFree)
		}
	})

	t.Run("distinct size classes do not share free lists", func(t *testing.T) {
		heap := NewMmapHeap()
		defer heap.Close()

		a, _ := heap.Alloc(64)
		heap.Free(64, a)
		before := heap.numFree(64)
		if _, err := heap.Alloc(128); err != nil {
			t.Fatal(err)
		}
		if got := heap.numFree(64); got != before {
			t.Errorf("expected 64-byte free list untouched at %d, got %d", before, got)
		}
	})

	t.Run("alloc on closed heap panics", func(t *testing.T) {
		heap := NewMmapHeap()
		heap.Close()
		defer func() {
			if recover() == nil {
				t.Fatal("expected Alloc on closed heap to panic")
			}
		}()
		heap.Alloc(64)
	})

	t.Run("invalid allocation size panics", func(t *testing.T) {
		heap := NewMmapHeap()
		defer heap.Close()
		defer func() {
			if recover() == nil {
				t.Fatal("expected Alloc of zero bytes to panic")
			}
		}()
		heap.Alloc(0)
	})
}
