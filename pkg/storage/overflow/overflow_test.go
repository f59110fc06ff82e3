package overflow

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/zaddach/kuzu/pkg/bufmgr"
	"github.com/zaddach/kuzu/pkg/storage/page"
)

func openFile(t *testing.T) *File {
	t.Helper()
	fh, err := page.Open(filepath.Join(t.TempDir(), "overflow.kz"), page.CategoryData)
	if err != nil {
		t.Fatalf("page.Open failed: %v", err)
	}
	t.Cleanup(func() { fh.Close() })
	bm := bufmgr.New(16)
	f, err := Create(fh, bm)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return f
}

func TestAppendAndReadShortValue(t *testing.T) {
	f := openFile(t)
	p, err := f.Append([]byte("hello world"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	got, err := f.Read(p)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", got)
	}
}

func TestAppendSpanningPages(t *testing.T) {
	f := openFile(t)
	big := bytes.Repeat([]byte("x"), page.Size*3+100)
	p, err := f.Append(big)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	got, err := f.Read(p)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, big) {
		t.Error("read value does not match appended value spanning multiple pages")
	}
}

func TestMultipleValuesDoNotOverlap(t *testing.T) {
	f := openFile(t)
	p1, err := f.Append([]byte("first"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	p2, err := f.Append([]byte("second"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	v1, err := f.Read(p1)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	v2, err := f.Read(p2)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(v1) != "first" || string(v2) != "second" {
		t.Errorf("expected first/second, got %q/%q", v1, v2)
	}
}
