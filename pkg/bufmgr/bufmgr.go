// Package bufmgr implements the buffer manager: a fixed-capacity pool of
// frames shared by every paged file, with pin-counted clock eviction over
// the unpinned frames.
package bufmgr

import (
	"sync"

	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/internal/dblog"
	"github.com/zaddach/kuzu/pkg/storage/page"
)

// key identifies a page uniquely across every open file.
type key struct {
	file string
	idx  page.Idx
}

// frame holds one cached page plus its pin/dirty bookkeeping.
type frame struct {
	key     key
	data    page.Data
	pinCnt  int
	dirty   bool
	visited bool // clock "referenced" bit
}

// Manager is a bounded pool of frames backing any number of open
// page.FileHandle instances, identified by path.
type Manager struct {
	mu       sync.Mutex
	capacity int
	files    map[string]*page.FileHandle
	frames   []*frame
	index    map[key]int // key -> index into frames
	clockPos int
}

// New creates a Manager holding at most capacity pages in memory at once.
func New(capacity int) *Manager {
	return &Manager{
		capacity: capacity,
		files:    make(map[string]*page.FileHandle),
		frames:   make([]*frame, 0, capacity),
		index:    make(map[key]int),
	}
}

// Register makes fh's pages available for Pin/Get under its Path().
func (m *Manager) Register(fh *page.FileHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[fh.Path()] = fh
}

// Pin loads page idx of the file at path into a frame (if not already
// resident), increments its pin count, and returns a pointer to its bytes.
// The caller must call Unpin exactly once per successful Pin.
func (m *Manager) Pin(path string, idx page.Idx) (*page.Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{file: path, idx: idx}
	if i, ok := m.index[k]; ok {
		f := m.frames[i]
		f.pinCnt++
		f.visited = true
		return &f.data, nil
	}

	fh, ok := m.files[path]
	if !ok {
		return nil, dberrors.Internal("Pin: file not registered: " + path)
	}

	data, err := fh.ReadPage(idx)
	if err != nil {
		return nil, err
	}

	i, err := m.allocFrame()
	if err != nil {
		return nil, err
	}
	f := &frame{key: k, data: data, pinCnt: 1, visited: true}
	m.frames[i] = f
	m.index[k] = i
	return &f.data, nil
}

// Get re-obtains a pointer to page idx's bytes without pinning it further:
// it succeeds only if the page is already resident, and never faults a
// page in from disk the way Pin does. Meant for a caller that still holds
// an earlier pin (or otherwise knows the page was resident a moment ago)
// and wants to peek at its current bytes without an extra pin/unpin pair.
func (m *Manager) Get(path string, idx page.Idx) (*page.Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{file: path, idx: idx}
	i, ok := m.index[k]
	if !ok {
		return nil, dberrors.Internal("Get: page not resident: " + path)
	}
	f := m.frames[i]
	f.visited = true
	return &f.data, nil
}

// InsertNewPage allocates a new page in the file at path, pins it, and
// returns its index along with a pointer to its (zeroed) bytes.
func (m *Manager) InsertNewPage(path string) (page.Idx, *page.Data, error) {
	m.mu.Lock()
	fh, ok := m.files[path]
	m.mu.Unlock()
	if !ok {
		return page.NullIdx, nil, dberrors.Internal("InsertNewPage: file not registered: " + path)
	}

	idx, err := fh.AllocateNewPage()
	if err != nil {
		return page.NullIdx, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{file: path, idx: idx}
	i, err := m.allocFrame()
	if err != nil {
		return page.NullIdx, nil, err
	}
	f := &frame{key: k, pinCnt: 1, visited: true, dirty: true}
	m.frames[i] = f
	m.index[k] = i
	return idx, &f.data, nil
}

// Unpin decrements the pin count of page idx of the file at path. markDirty
// is OR'd into the frame's dirty bit so a read-only Unpin never clears it.
func (m *Manager) Unpin(path string, idx page.Idx, markDirty bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{file: path, idx: idx}
	i, ok := m.index[k]
	if !ok {
		return dberrors.Internal("Unpin: page not resident")
	}
	f := m.frames[i]
	if f.pinCnt == 0 {
		return dberrors.Internal("Unpin: pin count already zero")
	}
	f.pinCnt--
	f.dirty = f.dirty || markDirty
	return nil
}

// Flush writes a frame's data back to its file if dirty, and clears the
// dirty bit. No-op if the page is not resident.
func (m *Manager) Flush(path string, idx page.Idx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushLocked(path, idx)
}

func (m *Manager) flushLocked(path string, idx page.Idx) error {
	k := key{file: path, idx: idx}
	i, ok := m.index[k]
	if !ok {
		return nil
	}
	f := m.frames[i]
	if !f.dirty {
		return nil
	}
	fh, ok := m.files[path]
	if !ok {
		return dberrors.Internal("flush: file not registered: " + path)
	}
	if err := fh.WritePage(idx, f.data); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

// FlushAll writes every dirty frame to disk. Used at checkpoint and on
// graceful shutdown.
func (m *Manager) FlushAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.frames {
		if f == nil || !f.dirty {
			continue
		}
		if err := m.flushLocked(f.key.file, f.key.idx); err != nil {
			return err
		}
	}
	return nil
}

// allocFrame returns the index of a free slot, evicting an unpinned frame
// via clock sweep if the pool is at capacity. Caller holds m.mu.
func (m *Manager) allocFrame() (int, error) {
	if len(m.frames) < m.capacity {
		m.frames = append(m.frames, nil)
		return len(m.frames) - 1, nil
	}

	n := len(m.frames)
	for sweeps := 0; sweeps < 2*n; sweeps++ {
		i := m.clockPos
		m.clockPos = (m.clockPos + 1) % n
		f := m.frames[i]
		if f == nil {
			return i, nil
		}
		if f.pinCnt > 0 {
			continue
		}
		if f.visited {
			f.visited = false
			continue
		}
		if f.dirty {
			if err := m.flushLocked(f.key.file, f.key.idx); err != nil {
				return 0, err
			}
		}
		delete(m.index, f.key)
		m.frames[i] = nil
		dblog.Debug("bufmgr evicted frame", "file", f.key.file, "page", f.key.idx)
		return i, nil
	}
	return 0, dberrors.BufferFull("all frames pinned")
}
