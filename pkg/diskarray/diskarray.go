// Package diskarray implements a growable on-disk array backed by a chain
// of Page-Index Pages (PIPs): a stable header page names the first PIP,
// each PIP lists the physical pages holding array elements and points to
// the next PIP, and array pages hold the elements themselves. This is the
// primitive every fixed-width column and every catalog/statistics table
// is built from.
package diskarray

import (
	"encoding/binary"
	"sync"

	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/pkg/bufmgr"
	"github.com/zaddach/kuzu/pkg/storage/page"
	"github.com/zaddach/kuzu/pkg/wal"
)

// NumPageIdxsPerPIP is how many page indices one PIP holds alongside its
// next-PIP pointer.
const NumPageIdxsPerPIP = (page.Size - 4) / 4

// TrxType selects which header view an operation reads through: the
// checkpointed one visible to readers, or the in-flight one only the
// active write transaction sees.
type TrxType int

const (
	ReadOnly TrxType = iota
	Write
)

// Header is the on-disk layout of a disk array's header page.
type Header struct {
	AlignedElementSizeLog2 uint64
	NumElementsPerPageLog2 uint64
	ElementPageOffsetMask  uint64
	FirstPIPPageIdx        uint32
	NumElements            uint64
	NumAPs                 uint64
}

func encodeHeader(h Header) page.Data {
	var d page.Data
	off := 0
	binary.BigEndian.PutUint64(d[off:], h.AlignedElementSizeLog2)
	off += 8
	binary.BigEndian.PutUint64(d[off:], h.NumElementsPerPageLog2)
	off += 8
	binary.BigEndian.PutUint64(d[off:], h.ElementPageOffsetMask)
	off += 8
	binary.BigEndian.PutUint32(d[off:], h.FirstPIPPageIdx)
	off += 4
	binary.BigEndian.PutUint64(d[off:], h.NumElements)
	off += 8
	binary.BigEndian.PutUint64(d[off:], h.NumAPs)
	return d
}

func decodeHeader(d page.Data) Header {
	var h Header
	off := 0
	h.AlignedElementSizeLog2 = binary.BigEndian.Uint64(d[off:])
	off += 8
	h.NumElementsPerPageLog2 = binary.BigEndian.Uint64(d[off:])
	off += 8
	h.ElementPageOffsetMask = binary.BigEndian.Uint64(d[off:])
	off += 8
	h.FirstPIPPageIdx = binary.BigEndian.Uint32(d[off:])
	off += 4
	h.NumElements = binary.BigEndian.Uint64(d[off:])
	off += 8
	h.NumAPs = binary.BigEndian.Uint64(d[off:])
	return h
}

// pip is the decoded form of one Page-Index Page.
type pip struct {
	nextPIPPageIdx page.Idx
	pageIdxs       [NumPageIdxsPerPIP]page.Idx
}

func encodePIP(p pip) page.Data {
	var d page.Data
	binary.BigEndian.PutUint32(d[0:], uint32(p.nextPIPPageIdx))
	off := 4
	for _, idx := range p.pageIdxs {
		binary.BigEndian.PutUint32(d[off:], uint32(idx))
		off += 4
	}
	return d
}

func decodePIP(d page.Data) pip {
	var p pip
	p.nextPIPPageIdx = page.Idx(binary.BigEndian.Uint32(d[0:]))
	off := 4
	for i := range p.pageIdxs {
		p.pageIdxs[i] = page.Idx(binary.BigEndian.Uint32(d[off:]))
		off += 4
	}
	return p
}

// log2 computes floor(log2(n)) for powers of two only, as used when
// deriving numElementsPerPageLog2 from an element size.
func log2(n uint64) uint64 {
	var l uint64
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}

func nextPowerOfTwo(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

func newHeader(elementSize uint64) Header {
	aligned := nextPowerOfTwo(elementSize)
	alignedLog2 := log2(aligned)
	numPerPage := uint64(page.Size) >> alignedLog2
	numPerPageLog2 := log2(numPerPage)
	return Header{
		AlignedElementSizeLog2: alignedLog2,
		NumElementsPerPageLog2: numPerPageLog2,
		ElementPageOffsetMask:  numPerPage - 1,
		FirstPIPPageIdx:        uint32(page.NullIdx),
		NumElements:            0,
		NumAPs:                 0,
	}
}

// Codec teaches a DiskArray how to marshal elements of type T to and from
// a fixed-size byte slice. Size must match what the array was created
// with.
type Codec[T any] struct {
	Size   int
	Encode func(T) []byte
	Decode func([]byte) T
}

// DiskArray is a transactional growable array of T, persisted as a PIP
// chain in a single backing file.
//
// Reads against the checkpointed state (ReadOnly) never take the write
// lock; the single active write transaction mutates headerForWriteTrx and
// a staged set of PIP edits, which are only made visible to readers at
// CheckpointInMemoryIfNecessary, or discarded at
// RollbackInMemoryIfNecessary.
type DiskArray[T any] struct {
	mu            sync.RWMutex
	fh            *page.FileHandle
	bm            *bufmgr.Manager
	headerPageIdx page.Idx
	codec         Codec[T]

	header             Header
	headerForWriteTrx  Header
	hasWriteTrxUpdates bool

	// stagedPIPs maps a PIP's logical index to its modified contents,
	// staged until checkpoint or rollback. pips not present here are
	// unmodified from what's on disk.
	stagedPIPs map[uint64]pip
	// insertedPIPPageIdxs records physical page indices of PIPs appended
	// during the active write transaction, in logical order.
	insertedPIPPageIdxs []page.Idx

	// log and fileID, if set via SetWAL, receive one PAGE_UPDATE record
	// per physical page this write transaction touches, appended (but not
	// forced) during PrepareCommit so redo images exist before the
	// transaction's commit record is forced.
	log    *wal.WAL
	fileID uint32
	// dirtyAPPageIdxs collects array-page indices written by Update,
	// PushBack, or addAPIfNecessary during the active write transaction.
	dirtyAPPageIdxs map[page.Idx]struct{}
}

// SetWAL attaches the write-ahead log this array's PrepareCommit logs
// page images to. fileID identifies which data file the pages belong to,
// for a deployment with more than one; callers with a single data file
// per Connection pass a constant.
func (a *DiskArray[T]) SetWAL(log *wal.WAL, fileID uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log = log
	a.fileID = fileID
}

func (a *DiskArray[T]) markAPDirty(idx page.Idx) {
	if a.dirtyAPPageIdxs == nil {
		a.dirtyAPPageIdxs = make(map[page.Idx]struct{})
	}
	a.dirtyAPPageIdxs[idx] = struct{}{}
}

// logPage appends a PAGE_UPDATE record carrying idx's current bytes. It
// tries bm.Get first since the page was almost always just written and is
// still resident; Pin only pays to fault it back in if eviction beat
// PrepareCommit to it.
func (a *DiskArray[T]) logPage(idx page.Idx) error {
	if a.log == nil {
		return nil
	}
	data, err := a.bm.Get(a.fh.Path(), idx)
	if err != nil {
		data, err = a.bm.Pin(a.fh.Path(), idx)
		if err != nil {
			return err
		}
		defer a.bm.Unpin(a.fh.Path(), idx, false)
	}
	body := append([]byte(nil), data[:]...)
	a.log.Append(wal.Record{
		Kind:    wal.KindPageUpdate,
		FileID:  a.fileID,
		PageIdx: uint32(idx),
		Body:    body,
	})
	return nil
}

// Create allocates a fresh header page in fh for an empty disk array of
// elements described by codec, and registers fh with bm.
func Create[T any](fh *page.FileHandle, bm *bufmgr.Manager, codec Codec[T]) (*DiskArray[T], error) {
	bm.Register(fh)
	h := newHeader(uint64(codec.Size))
	idx, data, err := bm.InsertNewPage(fh.Path())
	if err != nil {
		return nil, err
	}
	*data = encodeHeader(h)
	if err := bm.Unpin(fh.Path(), idx, true); err != nil {
		return nil, err
	}
	return &DiskArray[T]{
		fh:                fh,
		bm:                bm,
		headerPageIdx:     idx,
		codec:             codec,
		header:            h,
		headerForWriteTrx: h,
		stagedPIPs:        make(map[uint64]pip),
	}, nil
}

// Load opens an existing disk array whose header lives at headerPageIdx.
func Load[T any](fh *page.FileHandle, bm *bufmgr.Manager, headerPageIdx page.Idx, codec Codec[T]) (*DiskArray[T], error) {
	bm.Register(fh)
	data, err := bm.Pin(fh.Path(), headerPageIdx)
	if err != nil {
		return nil, err
	}
	h := decodeHeader(*data)
	if err := bm.Unpin(fh.Path(), headerPageIdx, false); err != nil {
		return nil, err
	}
	return &DiskArray[T]{
		fh:                fh,
		bm:                bm,
		headerPageIdx:     headerPageIdx,
		codec:             codec,
		header:            h,
		headerForWriteTrx: h,
		stagedPIPs:        make(map[uint64]pip),
	}, nil
}

// HeaderPageIdx returns the stable page this array's header lives at, so
// a catalog can remember where to Load it again.
func (a *DiskArray[T]) HeaderPageIdx() page.Idx { return a.headerPageIdx }

func (a *DiskArray[T]) activeHeader(trx TrxType) Header {
	if trx == Write {
		return a.headerForWriteTrx
	}
	return a.header
}

// GetNumElements returns the array's logical length as seen by trx.
func (a *DiskArray[T]) GetNumElements(trx TrxType) uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.activeHeader(trx).NumElements
}

func apIdxAndOffset(h Header, idx uint64) (apIdx uint64, byteOffset int) {
	apIdx = idx >> h.NumElementsPerPageLog2
	elemInPage := idx & h.ElementPageOffsetMask
	byteOffset = int(elemInPage) << h.AlignedElementSizeLog2
	return
}

// pipLogicalIdx returns which PIP (0-based) holds the AP entry for apIdx,
// and the slot within that PIP.
func pipLogicalIdx(apIdx uint64) (pipIdx uint64, slot uint64) {
	return apIdx / NumPageIdxsPerPIP, apIdx % NumPageIdxsPerPIP
}

// loadPIP returns the pip at logical index pipIdx, consulting staged edits
// first, then walking the on-disk PIP chain starting at the given head.
func (a *DiskArray[T]) loadPIP(pipIdx uint64, firstPIPPageIdx page.Idx) (pip, error) {
	if p, ok := a.stagedPIPs[pipIdx]; ok {
		return p, nil
	}
	pageIdx := firstPIPPageIdx
	for i := uint64(0); i < pipIdx; i++ {
		if pageIdx == page.NullIdx {
			return pip{}, dberrors.Corruption("PIP chain shorter than expected")
		}
		data, err := a.bm.Pin(a.fh.Path(), pageIdx)
		if err != nil {
			return pip{}, err
		}
		next := decodePIP(*data).nextPIPPageIdx
		if err := a.bm.Unpin(a.fh.Path(), pageIdx, false); err != nil {
			return pip{}, err
		}
		pageIdx = next
	}
	if pageIdx == page.NullIdx {
		return pip{}, dberrors.Corruption("PIP chain shorter than expected")
	}
	data, err := a.bm.Pin(a.fh.Path(), pageIdx)
	if err != nil {
		return pip{}, err
	}
	p := decodePIP(*data)
	if err := a.bm.Unpin(a.fh.Path(), pageIdx, false); err != nil {
		return pip{}, err
	}
	return p, nil
}

// apPageIdx resolves the physical page index storing array page apIdx, for
// the header view given by trx.
func (a *DiskArray[T]) apPageIdx(apIdx uint64, trx TrxType) (page.Idx, error) {
	h := a.activeHeader(trx)
	pipIdx, slot := pipLogicalIdx(apIdx)
	p, err := a.loadPIP(pipIdx, page.Idx(h.FirstPIPPageIdx))
	if err != nil {
		return page.NullIdx, err
	}
	return p.pageIdxs[slot], nil
}

// Get reads element idx as seen by trx.
func (a *DiskArray[T]) Get(idx uint64, trx TrxType) (T, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var zero T
	h := a.activeHeader(trx)
	if idx >= h.NumElements {
		return zero, dberrors.ErrOutOfRange
	}
	apIdx, byteOffset := apIdxAndOffset(h, idx)
	apPageIdx, err := a.apPageIdx(apIdx, trx)
	if err != nil {
		return zero, err
	}
	data, err := a.bm.Pin(a.fh.Path(), apPageIdx)
	if err != nil {
		return zero, err
	}
	defer a.bm.Unpin(a.fh.Path(), apPageIdx, false)
	return a.codec.Decode(data[byteOffset : byteOffset+a.codec.Size]), nil
}

// Update overwrites element idx in place. Write-transaction only.
func (a *DiskArray[T]) Update(idx uint64, val T) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := a.headerForWriteTrx
	if idx >= h.NumElements {
		return dberrors.ErrOutOfRange
	}
	apIdx, byteOffset := apIdxAndOffset(h, idx)
	apPageIdx, err := a.apPageIdx(apIdx, Write)
	if err != nil {
		return err
	}
	data, err := a.bm.Pin(a.fh.Path(), apPageIdx)
	if err != nil {
		return err
	}
	copy(data[byteOffset:byteOffset+a.codec.Size], a.codec.Encode(val))
	a.hasWriteTrxUpdates = true
	a.markAPDirty(apPageIdx)
	return a.bm.Unpin(a.fh.Path(), apPageIdx, true)
}

// pipExists reports whether pipIdx already has a page (on disk or staged)
// under the write-transaction header, without allocating anything.
func (a *DiskArray[T]) pipExists(pipIdx uint64) bool {
	if _, ok := a.stagedPIPs[pipIdx]; ok {
		return true
	}
	_, err := a.loadPIP(pipIdx, page.Idx(a.headerForWriteTrx.FirstPIPPageIdx))
	return err == nil
}

// addAPIfNecessary ensures array page apIdx exists, allocating a fresh
// page and PIP entries (and PIPs) as needed. Caller holds a.mu.
func (a *DiskArray[T]) addAPIfNecessary(apIdx uint64) error {
	if apIdx < a.headerForWriteTrx.NumAPs {
		return nil
	}
	pipIdx, slot := pipLogicalIdx(apIdx)

	apPageIdx, _, err := a.bm.InsertNewPage(a.fh.Path())
	if err != nil {
		return err
	}
	a.markAPDirty(apPageIdx)
	if err := a.bm.Unpin(a.fh.Path(), apPageIdx, true); err != nil {
		return err
	}

	isFirstPIP := pipIdx == 0 && a.headerForWriteTrx.FirstPIPPageIdx == uint32(page.NullIdx)
	needsNewPIP := isFirstPIP || (slot == 0 && a.pipExists(pipIdx) == false)

	var p pip
	if isFirstPIP {
		p = pip{nextPIPPageIdx: page.NullIdx}
	} else {
		var err error
		p, err = a.loadPIP(pipIdx, page.Idx(a.headerForWriteTrx.FirstPIPPageIdx))
		if err != nil {
			if needsNewPIP {
				p = pip{nextPIPPageIdx: page.NullIdx}
			} else {
				return err
			}
		}
	}
	p.pageIdxs[slot] = apPageIdx
	a.stagedPIPs[pipIdx] = p

	if isFirstPIP {
		pipPageIdx, pipData, err := a.bm.InsertNewPage(a.fh.Path())
		if err != nil {
			return err
		}
		*pipData = encodePIP(p)
		if err := a.bm.Unpin(a.fh.Path(), pipPageIdx, true); err != nil {
			return err
		}
		a.headerForWriteTrx.FirstPIPPageIdx = uint32(pipPageIdx)
		a.insertedPIPPageIdxs = append(a.insertedPIPPageIdxs, pipPageIdx)
	} else if needsNewPIP {
		// New PIP needed beyond the first: allocate it and link the
		// previous tail PIP to it. This path only fires once per PIP,
		// when its first slot is populated.
		pipPageIdx, pipData, err := a.bm.InsertNewPage(a.fh.Path())
		if err != nil {
			return err
		}
		*pipData = encodePIP(p)
		if err := a.bm.Unpin(a.fh.Path(), pipPageIdx, true); err != nil {
			return err
		}
		prev, err := a.loadPIP(pipIdx-1, page.Idx(a.headerForWriteTrx.FirstPIPPageIdx))
		if err != nil {
			return err
		}
		prev.nextPIPPageIdx = pipPageIdx
		a.stagedPIPs[pipIdx-1] = prev
		a.insertedPIPPageIdxs = append(a.insertedPIPPageIdxs, pipPageIdx)
	}

	a.headerForWriteTrx.NumAPs = apIdx + 1
	a.hasWriteTrxUpdates = true
	return nil
}

// PushBack appends val and returns its index. Write-transaction only.
func (a *DiskArray[T]) PushBack(val T) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx := a.headerForWriteTrx.NumElements
	apIdx, byteOffset := apIdxAndOffset(a.headerForWriteTrx, idx)
	if err := a.addAPIfNecessary(apIdx); err != nil {
		return 0, err
	}
	apPageIdx, err := a.apPageIdx(apIdx, Write)
	if err != nil {
		return 0, err
	}
	data, err := a.bm.Pin(a.fh.Path(), apPageIdx)
	if err != nil {
		return 0, err
	}
	copy(data[byteOffset:byteOffset+a.codec.Size], a.codec.Encode(val))
	a.markAPDirty(apPageIdx)
	if err := a.bm.Unpin(a.fh.Path(), apPageIdx, true); err != nil {
		return 0, err
	}

	a.headerForWriteTrx.NumElements++
	a.hasWriteTrxUpdates = true
	return idx, nil
}

// Resize grows the array to newNumElements, filling new slots with
// defaultVal. Shrinking is not supported. Write-transaction only.
func (a *DiskArray[T]) Resize(newNumElements uint64, defaultVal T) error {
	a.mu.RLock()
	cur := a.headerForWriteTrx.NumElements
	a.mu.RUnlock()
	if newNumElements < cur {
		return dberrors.Internal("DiskArray.Resize: shrinking is not supported")
	}
	for i := cur; i < newNumElements; i++ {
		if _, err := a.PushBack(defaultVal); err != nil {
			return err
		}
	}
	return nil
}

// PrepareCommit flushes the staged PIP edits and the write-transaction
// header to disk, ahead of the commit record being forced. It does not
// yet make them visible to readers: that happens at
// CheckpointInMemoryIfNecessary.
func (a *DiskArray[T]) PrepareCommit() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.hasWriteTrxUpdates {
		return nil
	}
	for pipIdx, p := range a.stagedPIPs {
		pageIdx, err := a.pipPageIdxForWrite(pipIdx)
		if err != nil {
			return err
		}
		data, err := a.bm.Pin(a.fh.Path(), pageIdx)
		if err != nil {
			return err
		}
		*data = encodePIP(p)
		if err := a.bm.Unpin(a.fh.Path(), pageIdx, true); err != nil {
			return err
		}
		if err := a.logPage(pageIdx); err != nil {
			return err
		}
	}
	headerData, err := a.bm.Pin(a.fh.Path(), a.headerPageIdx)
	if err != nil {
		return err
	}
	*headerData = encodeHeader(a.headerForWriteTrx)
	if err := a.bm.Unpin(a.fh.Path(), a.headerPageIdx, true); err != nil {
		return err
	}
	if err := a.logPage(a.headerPageIdx); err != nil {
		return err
	}
	for idx := range a.dirtyAPPageIdxs {
		if err := a.logPage(idx); err != nil {
			return err
		}
	}
	return nil
}

// pipPageIdxForWrite resolves pipIdx to a physical page index under the
// write-transaction header, including PIPs it inserted itself.
func (a *DiskArray[T]) pipPageIdxForWrite(pipIdx uint64) (page.Idx, error) {
	pageIdx := page.Idx(a.headerForWriteTrx.FirstPIPPageIdx)
	for i := uint64(0); i < pipIdx; i++ {
		if p, ok := a.stagedPIPs[i]; ok {
			pageIdx = p.nextPIPPageIdx
			continue
		}
		data, err := a.bm.Pin(a.fh.Path(), pageIdx)
		if err != nil {
			return page.NullIdx, err
		}
		pageIdx = decodePIP(*data).nextPIPPageIdx
		if err := a.bm.Unpin(a.fh.Path(), pageIdx, false); err != nil {
			return page.NullIdx, err
		}
	}
	return pageIdx, nil
}

// CheckpointInMemoryIfNecessary makes the write transaction's changes
// visible to future readers by replacing the checkpointed header with the
// write-transaction one, and clearing staged state.
func (a *DiskArray[T]) CheckpointInMemoryIfNecessary() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.hasWriteTrxUpdates {
		return nil
	}
	a.header = a.headerForWriteTrx
	a.stagedPIPs = make(map[uint64]pip)
	a.insertedPIPPageIdxs = nil
	a.dirtyAPPageIdxs = nil
	a.hasWriteTrxUpdates = false
	return nil
}

// RollbackInMemoryIfNecessary discards the write transaction's staged
// changes, restoring the write-transaction header to match the
// checkpointed one.
func (a *DiskArray[T]) RollbackInMemoryIfNecessary() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.hasWriteTrxUpdates {
		return nil
	}
	a.headerForWriteTrx = a.header
	a.stagedPIPs = make(map[uint64]pip)
	a.insertedPIPPageIdxs = nil
	a.dirtyAPPageIdxs = nil
	a.hasWriteTrxUpdates = false
	return nil
}
