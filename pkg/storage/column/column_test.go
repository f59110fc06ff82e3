package column

import (
	"path/filepath"
	"testing"

	"github.com/zaddach/kuzu/pkg/bufmgr"
	"github.com/zaddach/kuzu/pkg/diskarray"
	"github.com/zaddach/kuzu/pkg/storage/page"
)

func openColumn(t *testing.T) *Column[int64] {
	t.Helper()
	fh, err := page.Open(filepath.Join(t.TempDir(), "col.kz"), page.CategoryData)
	if err != nil {
		t.Fatalf("page.Open failed: %v", err)
	}
	t.Cleanup(func() { fh.Close() })
	bm := bufmgr.New(64)
	c, err := Create(fh, bm, Int64Codec())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return c
}

func TestAppendAndGet(t *testing.T) {
	c := openColumn(t)
	for i := int64(0); i < 20; i++ {
		if _, err := c.Append(i * 2); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := c.DiskArray().CheckpointInMemoryIfNecessary(); err != nil {
		t.Fatalf("checkpoint failed: %v", err)
	}
	for i := uint64(0); i < 20; i++ {
		v, err := c.Get(i, diskarray.ReadOnly)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if v != int64(i)*2 {
			t.Errorf("Get(%d) = %d, want %d", i, v, int64(i)*2)
		}
	}
}

func TestReadBySequentialCopy(t *testing.T) {
	c := openColumn(t)
	for i := int64(0); i < 50; i++ {
		if _, err := c.Append(i); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := c.DiskArray().CheckpointInMemoryIfNecessary(); err != nil {
		t.Fatalf("checkpoint failed: %v", err)
	}

	out := make([]int64, 10)
	err := ReadBySequentialCopy(c, 5, 10, diskarray.ReadOnly, func(pos int, v int64) {
		out[pos] = v
	})
	if err != nil {
		t.Fatalf("ReadBySequentialCopy failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		if out[i] != int64(5+i) {
			t.Errorf("out[%d] = %d, want %d", i, out[i], 5+i)
		}
	}
}

func TestDoubleCodecRoundTrips(t *testing.T) {
	fh, err := page.Open(filepath.Join(t.TempDir(), "col.kz"), page.CategoryData)
	if err != nil {
		t.Fatalf("page.Open failed: %v", err)
	}
	t.Cleanup(func() { fh.Close() })
	bm := bufmgr.New(64)
	c, err := Create(fh, bm, DoubleCodec())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	vals := []float64{0, 3.5, -2.25, 1e10}
	for _, v := range vals {
		if _, err := c.Append(v); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	c.DiskArray().CheckpointInMemoryIfNecessary()
	for i, want := range vals {
		got, err := c.Get(uint64(i), diskarray.ReadOnly)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if got != want {
			t.Errorf("Get(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestBoolCodecRoundTrips(t *testing.T) {
	fh, err := page.Open(filepath.Join(t.TempDir(), "col.kz"), page.CategoryData)
	if err != nil {
		t.Fatalf("page.Open failed: %v", err)
	}
	t.Cleanup(func() { fh.Close() })
	bm := bufmgr.New(64)
	c, err := Create(fh, bm, BoolCodec())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	c.Append(true)
	c.Append(false)
	c.DiskArray().CheckpointInMemoryIfNecessary()
	got0, _ := c.Get(0, diskarray.ReadOnly)
	got1, _ := c.Get(1, diskarray.ReadOnly)
	if !got0 || got1 {
		t.Errorf("unexpected bool round trip: got0=%v got1=%v", got0, got1)
	}
}

func openStringColumn(t *testing.T) *StringColumn {
	t.Helper()
	fh, err := page.Open(filepath.Join(t.TempDir(), "strcol.kz"), page.CategoryData)
	if err != nil {
		t.Fatalf("page.Open failed: %v", err)
	}
	t.Cleanup(func() { fh.Close() })
	bm := bufmgr.New(64)
	sc, err := CreateStringColumn(fh, bm)
	if err != nil {
		t.Fatalf("CreateStringColumn failed: %v", err)
	}
	return sc
}

func TestStringColumnInlineRoundTrips(t *testing.T) {
	sc := openStringColumn(t)
	if _, err := sc.Append("short"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	sc.DiskArray().CheckpointInMemoryIfNecessary()
	got, err := sc.Get(0, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "short" {
		t.Errorf("Get = %q, want %q", got, "short")
	}
}

func TestStringColumnOverflowRoundTrips(t *testing.T) {
	sc := openStringColumn(t)
	long := "this string is long enough to spill into the overflow file instead of the inline slot"
	if _, err := sc.Append(long); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	sc.DiskArray().CheckpointInMemoryIfNecessary()
	got, err := sc.Get(0, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != long {
		t.Errorf("Get = %q, want %q", got, long)
	}
}

func TestStringColumnSetOverwrites(t *testing.T) {
	sc := openStringColumn(t)
	sc.Append("first")
	sc.DiskArray().CheckpointInMemoryIfNecessary()
	if err := sc.Set(0, "second, now overflowing because this value is much longer than the inline slot width"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	sc.DiskArray().CheckpointInMemoryIfNecessary()
	got, err := sc.Get(0, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "second, now overflowing because this value is much longer than the inline slot width" {
		t.Errorf("Get after Set = %q", got)
	}
}
