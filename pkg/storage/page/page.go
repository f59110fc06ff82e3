// Package page defines the fixed-size page and the file handle abstraction
// that every on-disk structure (disk arrays, columns, lists, the WAL) is
// built from.
package page

import (
	"fmt"
	"os"
	"sync"

	"github.com/zaddach/kuzu/dberrors"
)

// Size is the fixed page size used throughout the engine: the unit of I/O,
// caching, and WAL logging.
const Size = 4096

// Idx addresses a page within a FileHandle. NullIdx marks the absence of a
// page, e.g. the tail of a PIP chain.
type Idx uint32

// NullIdx is the sentinel "no such page" index.
const NullIdx Idx = 0xFFFFFFFF

// Data is the raw fixed-size contents of one page.
type Data = [Size]byte

// Category distinguishes the two file kinds spec.md §3 names.
type Category int

const (
	CategoryData Category = iota
	CategoryWAL
)

// FileHandle is a named file together with the set of pages it currently
// has allocated. It provides read-page / write-page / allocate-new-page /
// truncate, and nothing else — caching and pinning live one layer up, in
// the buffer manager.
type FileHandle struct {
	mu       sync.RWMutex
	path     string
	file     *os.File
	category Category
	numPages uint32
}

// Open opens (creating if necessary) the file at path as a FileHandle whose
// existing size determines its initial page count.
func Open(path string, category Category) (*FileHandle, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, dberrors.Wrap(err, "IO_ERROR", "Open", "FileHandle")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, dberrors.Wrap(err, "IO_ERROR", "Open", "FileHandle")
	}
	return &FileHandle{
		path:     path,
		file:     f,
		category: category,
		numPages: uint32(info.Size() / Size),
	}, nil
}

func (fh *FileHandle) Path() string       { return fh.path }
func (fh *FileHandle) Category() Category { return fh.category }

func (fh *FileHandle) NumPages() uint32 {
	fh.mu.RLock()
	defer fh.mu.RUnlock()
	return fh.numPages
}

// ReadPage reads the contents of page idx directly from disk, bypassing the
// buffer manager. Callers going through the buffer manager only call this
// to service a cache miss.
func (fh *FileHandle) ReadPage(idx Idx) (Data, error) {
	var buf Data
	fh.mu.RLock()
	defer fh.mu.RUnlock()

	if uint32(idx) >= fh.numPages {
		return buf, dberrors.Corruption(fmt.Sprintf("read page %d beyond file size %d", idx, fh.numPages))
	}
	n, err := fh.file.ReadAt(buf[:], int64(idx)*Size)
	if err != nil && n != Size {
		return buf, dberrors.Wrap(err, "IO_ERROR", "ReadPage", "FileHandle")
	}
	return buf, nil
}

// WritePage writes data to page idx.
func (fh *FileHandle) WritePage(idx Idx, data Data) error {
	fh.mu.RLock()
	defer fh.mu.RUnlock()

	if uint32(idx) >= fh.numPages {
		return dberrors.Corruption(fmt.Sprintf("write page %d beyond file size %d", idx, fh.numPages))
	}
	if _, err := fh.file.WriteAt(data[:], int64(idx)*Size); err != nil {
		return dberrors.Wrap(err, "IO_ERROR", "WritePage", "FileHandle")
	}
	return nil
}

// AllocateNewPage grows the file by one page and returns its index. The new
// page's contents are zeroed; callers typically route it through the
// buffer manager's InsertNewPage to initialize and pin it in one step.
func (fh *FileHandle) AllocateNewPage() (Idx, error) {
	fh.mu.Lock()
	defer fh.mu.Unlock()

	idx := Idx(fh.numPages)
	var zero Data
	if _, err := fh.file.WriteAt(zero[:], int64(idx)*Size); err != nil {
		return NullIdx, dberrors.Wrap(err, "IO_ERROR", "AllocateNewPage", "FileHandle")
	}
	fh.numPages++
	return idx, nil
}

// Truncate shrinks the file to numPages pages. Used by WAL tail truncation
// on rollback.
func (fh *FileHandle) Truncate(numPages uint32) error {
	fh.mu.Lock()
	defer fh.mu.Unlock()

	if err := fh.file.Truncate(int64(numPages) * Size); err != nil {
		return dberrors.Wrap(err, "IO_ERROR", "Truncate", "FileHandle")
	}
	fh.numPages = numPages
	return nil
}

// Sync forces the file's contents to stable storage.
func (fh *FileHandle) Sync() error {
	fh.mu.RLock()
	defer fh.mu.RUnlock()
	if err := fh.file.Sync(); err != nil {
		return dberrors.Wrap(err, "IO_ERROR", "Sync", "FileHandle")
	}
	return nil
}

// Close closes the underlying OS file.
func (fh *FileHandle) Close() error {
	fh.mu.Lock()
	defer fh.mu.Unlock()
	return fh.file.Close()
}
