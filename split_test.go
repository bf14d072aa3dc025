package nodepool

import (
	"testing"

	"github.com/holmberd/go-nodepool/internal/testutils"
)

func TestSizeRouter(t *testing.T) {
	const size = 64

	newRouter := func(heap Heap) (*sizeRouter, *Pool) {
		pool := newPool(size, Config{Limit: 8}, heap)
		return &sizeRouter{size: size, pool: pool, fallback: heap}, pool
	}

	t.Run("requests of the configured size use the pool", func(t *testing.T) {
		heap := testutils.NewMockHeap()
		router, pool := newRouter(heap)

		block, err := router.Alloc(size)
		if err != nil {
			t.Fatal(err)
		}
		router.Free(size, block)

		if got := pool.Cached(); got != 1 {
			t.Fatalf("expected block cached by the pool, got %d cached", got)
		}
		if calls := heap.FreeCalls(); calls != 0 {
			t.Errorf("expected no fallback frees, got %d", calls)
		}
	})

	t.Run("other sizes bypass the pool entirely", func(t *testing.T) {
		heap := testutils.NewMockHeap()
		router, pool := newRouter(heap)

		for _, other := range []int{size - 8, size + 8, 1} {
			block, err := router.Alloc(other)
			if err != nil {
				t.Fatal(err)
			}
			if len(block) != other {
				t.Fatalf("expected %d-byte block from fallback, got %d", other, len(block))
			}
			router.Free(other, block)
		}

		if got := pool.Cached(); got != 0 {
			t.Errorf("expected pool untouched by foreign sizes, got %d cached", got)
		}
		if calls := heap.FreeCalls(); calls != 3 {
			t.Errorf("expected 3 fallback frees, got %d", calls)
		}
		if msgs := heap.BadFrees(); len(msgs) != 0 {
			t.Errorf("expected no heap contract violations, got %v", msgs)
		}
	})
}
