package pyboot

import "testing"

func TestBufferPoolGetReturnsCorrectSize(t *testing.T) {
	bp := NewBufferPool(1024, 2)
	buf := bp.Get()
	if len(buf) != 1024 {
		t.Fatalf("len(buf) = %d, want 1024", len(buf))
	}
}

func TestBufferPoolReusesPutBuffers(t *testing.T) {
	bp := NewBufferPool(512, 1)
	first := bp.Get()
	bp.Put(first)
	second := bp.Get()
	if &first[0] != &second[0] {
		t.Errorf("expected Put buffer to be reused by the next Get")
	}
}

func TestBufferPoolRejectsWrongSizeOnPut(t *testing.T) {
	bp := NewBufferPool(256, 1)
	original := bp.Get()
	bp.Put(original) // refill the pool

	wrongSize := make([]byte, 128)
	bp.Put(wrongSize) // must be silently dropped, not enqueued

	next := bp.Get()
	if len(next) != 256 {
		t.Fatalf("len(next) = %d, want 256", len(next))
	}
	if &next[0] != &original[0] {
		t.Errorf("expected the correctly-sized buffer to still be the one reused")
	}
}

func TestBufferPoolGetAllocatesWhenPoolEmpty(t *testing.T) {
	bp := NewBufferPool(64, 0)
	buf := bp.Get()
	if len(buf) != 64 {
		t.Fatalf("len(buf) = %d, want 64", len(buf))
	}
}
