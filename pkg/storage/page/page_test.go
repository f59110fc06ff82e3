package page

import (
	"path/filepath"
	"testing"
)

func TestOpenEmptyFile(t *testing.T) {
	fh, err := Open(filepath.Join(t.TempDir(), "data.kz"), CategoryData)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer fh.Close()

	if fh.NumPages() != 0 {
		t.Errorf("expected 0 pages, got %d", fh.NumPages())
	}
	if fh.Category() != CategoryData {
		t.Errorf("expected CategoryData")
	}
}

func TestAllocateAndReadWrite(t *testing.T) {
	fh, err := Open(filepath.Join(t.TempDir(), "data.kz"), CategoryData)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer fh.Close()

	idx, err := fh.AllocateNewPage()
	if err != nil {
		t.Fatalf("AllocateNewPage failed: %v", err)
	}
	if idx != 0 {
		t.Errorf("expected first page idx 0, got %d", idx)
	}
	if fh.NumPages() != 1 {
		t.Errorf("expected 1 page after allocate, got %d", fh.NumPages())
	}

	var data Data
	data[0] = 0xAB
	if err := fh.WritePage(idx, data); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}

	got, err := fh.ReadPage(idx)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if got[0] != 0xAB {
		t.Errorf("expected byte 0xAB, got %#x", got[0])
	}
}

func TestReadPageOutOfBounds(t *testing.T) {
	fh, err := Open(filepath.Join(t.TempDir(), "data.kz"), CategoryData)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer fh.Close()

	if _, err := fh.ReadPage(0); err == nil {
		t.Error("expected error reading out-of-bounds page")
	}
}

func TestTruncate(t *testing.T) {
	fh, err := Open(filepath.Join(t.TempDir(), "data.kz"), CategoryData)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer fh.Close()

	for i := 0; i < 5; i++ {
		if _, err := fh.AllocateNewPage(); err != nil {
			t.Fatalf("AllocateNewPage failed: %v", err)
		}
	}
	if err := fh.Truncate(2); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}
	if fh.NumPages() != 2 {
		t.Errorf("expected 2 pages after truncate, got %d", fh.NumPages())
	}
}

func TestReopenPreservesPageCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.kz")
	fh, err := Open(path, CategoryData)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := fh.AllocateNewPage(); err != nil {
			t.Fatalf("AllocateNewPage failed: %v", err)
		}
	}
	fh.Close()

	fh2, err := Open(path, CategoryData)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer fh2.Close()
	if fh2.NumPages() != 3 {
		t.Errorf("expected 3 pages on reopen, got %d", fh2.NumPages())
	}
}
