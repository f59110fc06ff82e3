// Package overflow implements the append-only page file that holds
// variable-length values (strings, lists) too big to live inline in a
// fixed-width column or list slot: a slot there stores only a (pageIdx,
// offset, length) pointer into one of these files.
package overflow

import (
	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/pkg/bufmgr"
	"github.com/zaddach/kuzu/pkg/storage/page"
)

// Pointer locates a variable-length value within an overflow file.
type Pointer struct {
	PageIdx page.Idx
	Offset  int
	Length  int
}

// File is a bump-allocated sequence of pages: Append always writes at the
// current tail, never reusing space freed by anything (overflow values
// are immutable once written, matching the original's append-only
// property/list overflow pages).
type File struct {
	fh        *page.FileHandle
	bm        *bufmgr.Manager
	tailPage  page.Idx
	tailBytes int
}

// Create opens a fresh overflow file in fh.
func Create(fh *page.FileHandle, bm *bufmgr.Manager) (*File, error) {
	bm.Register(fh)
	idx, _, err := bm.InsertNewPage(fh.Path())
	if err != nil {
		return nil, err
	}
	if err := bm.Unpin(fh.Path(), idx, true); err != nil {
		return nil, err
	}
	return &File{fh: fh, bm: bm, tailPage: idx, tailBytes: 0}, nil
}

// Append writes val, splitting across as many pages as necessary, and
// returns a Pointer to its start. A value may not exceed page.Size bytes
// within a single page's remaining room before it spills to a fresh page;
// values longer than page.Size span multiple whole pages plus a final
// partial one.
func (f *File) Append(val []byte) (Pointer, error) {
	if f.tailBytes == page.Size {
		idx, _, err := f.bm.InsertNewPage(f.fh.Path())
		if err != nil {
			return Pointer{}, err
		}
		if err := f.bm.Unpin(f.fh.Path(), idx, true); err != nil {
			return Pointer{}, err
		}
		f.tailPage = idx
		f.tailBytes = 0
	}

	start := Pointer{PageIdx: f.tailPage, Offset: f.tailBytes, Length: len(val)}
	remaining := val
	for len(remaining) > 0 {
		data, err := f.bm.Pin(f.fh.Path(), f.tailPage)
		if err != nil {
			return Pointer{}, err
		}
		room := page.Size - f.tailBytes
		n := len(remaining)
		if n > room {
			n = room
		}
		copy(data[f.tailBytes:f.tailBytes+n], remaining[:n])
		if err := f.bm.Unpin(f.fh.Path(), f.tailPage, true); err != nil {
			return Pointer{}, err
		}
		f.tailBytes += n
		remaining = remaining[n:]

		if len(remaining) > 0 {
			idx, _, err := f.bm.InsertNewPage(f.fh.Path())
			if err != nil {
				return Pointer{}, err
			}
			if err := f.bm.Unpin(f.fh.Path(), idx, true); err != nil {
				return Pointer{}, err
			}
			f.tailPage = idx
			f.tailBytes = 0
		}
	}
	return start, nil
}

// Load reopens an existing overflow file, resuming appends at the given
// tail position instead of allocating a fresh page the way Create does.
// tailPage/tailBytes come from a prior TailPageIdx/TailBytes pair captured
// at commit time, since the file itself has no on-disk header recording
// them.
func Load(fh *page.FileHandle, bm *bufmgr.Manager, tailPage page.Idx, tailBytes int) *File {
	bm.Register(fh)
	return &File{fh: fh, bm: bm, tailPage: tailPage, tailBytes: tailBytes}
}

// TailPageIdx returns the file's current tail page, for a caller
// persisting enough state to Load this file again later.
func (f *File) TailPageIdx() page.Idx { return f.tailPage }

// TailBytes returns how many bytes of the tail page are used.
func (f *File) TailBytes() int { return f.tailBytes }

// Read reassembles the value named by p.
func (f *File) Read(p Pointer) ([]byte, error) {
	if p.Length == 0 {
		return nil, nil
	}
	out := make([]byte, p.Length)
	pageIdx := p.PageIdx
	offset := p.Offset
	written := 0
	for written < p.Length {
		data, err := f.bm.Pin(f.fh.Path(), pageIdx)
		if err != nil {
			return nil, err
		}
		room := page.Size - offset
		n := p.Length - written
		if n > room {
			n = room
		}
		copy(out[written:written+n], data[offset:offset+n])
		if err := f.bm.Unpin(f.fh.Path(), pageIdx, false); err != nil {
			return nil, err
		}
		written += n
		offset = 0
		pageIdx++
		if written < p.Length && uint32(pageIdx) >= f.fh.NumPages() {
			return nil, dberrors.Corruption("overflow pointer runs past end of file")
		}
	}
	return out, nil
}
