package diskarray

import (
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/zaddach/kuzu/pkg/bufmgr"
	"github.com/zaddach/kuzu/pkg/storage/page"
)

func uint64Codec() Codec[uint64] {
	return Codec[uint64]{
		Size: 8,
		Encode: func(v uint64) []byte {
			b := make([]byte, 8)
			binary.BigEndian.PutUint64(b, v)
			return b
		},
		Decode: func(b []byte) uint64 { return binary.BigEndian.Uint64(b) },
	}
}

func openArray(t *testing.T) *DiskArray[uint64] {
	t.Helper()
	fh, err := page.Open(filepath.Join(t.TempDir(), "data.kz"), page.CategoryData)
	if err != nil {
		t.Fatalf("page.Open failed: %v", err)
	}
	t.Cleanup(func() { fh.Close() })
	bm := bufmgr.New(64)
	a, err := Create(fh, bm, uint64Codec())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return a
}

func TestPushBackAndGet(t *testing.T) {
	a := openArray(t)
	for i := uint64(0); i < 10; i++ {
		idx, err := a.PushBack(i * 10)
		if err != nil {
			t.Fatalf("PushBack failed: %v", err)
		}
		if idx != i {
			t.Errorf("expected idx %d, got %d", i, idx)
		}
	}
	if err := a.CheckpointInMemoryIfNecessary(); err != nil {
		t.Fatalf("checkpoint failed: %v", err)
	}

	for i := uint64(0); i < 10; i++ {
		v, err := a.Get(i, ReadOnly)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if v != i*10 {
			t.Errorf("Get(%d) = %d, want %d", i, v, i*10)
		}
	}
	if n := a.GetNumElements(ReadOnly); n != 10 {
		t.Errorf("expected 10 elements, got %d", n)
	}
}

func TestPushBackSpansMultipleArrayPages(t *testing.T) {
	a := openArray(t)
	// Force several array pages so more than one PIP slot is filled,
	// without needing enough pages to roll over into a second PIP (that
	// would require hundreds of thousands of pushes given
	// NumPageIdxsPerPIP's size).
	const n = 4000
	for i := uint64(0); i < n; i++ {
		if _, err := a.PushBack(i); err != nil {
			t.Fatalf("PushBack(%d) failed: %v", i, err)
		}
	}
	if err := a.PrepareCommit(); err != nil {
		t.Fatalf("PrepareCommit failed: %v", err)
	}
	if err := a.CheckpointInMemoryIfNecessary(); err != nil {
		t.Fatalf("checkpoint failed: %v", err)
	}
	for _, i := range []uint64{0, 1, 511, 512, 3999} {
		v, err := a.Get(i, ReadOnly)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if v != i {
			t.Errorf("Get(%d) = %d, want %d", i, v, i)
		}
	}
}

func TestUpdate(t *testing.T) {
	a := openArray(t)
	if _, err := a.PushBack(1); err != nil {
		t.Fatalf("PushBack failed: %v", err)
	}
	if err := a.Update(0, 99); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := a.CheckpointInMemoryIfNecessary(); err != nil {
		t.Fatalf("checkpoint failed: %v", err)
	}
	v, err := a.Get(0, ReadOnly)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != 99 {
		t.Errorf("expected 99, got %d", v)
	}
}

func TestRollbackDiscardsWriteTrxChanges(t *testing.T) {
	a := openArray(t)
	if _, err := a.PushBack(1); err != nil {
		t.Fatalf("PushBack failed: %v", err)
	}
	if err := a.CheckpointInMemoryIfNecessary(); err != nil {
		t.Fatalf("checkpoint failed: %v", err)
	}

	if _, err := a.PushBack(2); err != nil {
		t.Fatalf("PushBack failed: %v", err)
	}
	if err := a.RollbackInMemoryIfNecessary(); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	if n := a.GetNumElements(ReadOnly); n != 1 {
		t.Errorf("expected 1 element visible to readers after rollback, got %d", n)
	}
	if n := a.GetNumElements(Write); n != 1 {
		t.Errorf("expected write-trx header reset to 1 element after rollback, got %d", n)
	}
}

func TestGetOutOfRange(t *testing.T) {
	a := openArray(t)
	if _, err := a.Get(0, ReadOnly); err == nil {
		t.Error("expected error reading empty array")
	}
}
