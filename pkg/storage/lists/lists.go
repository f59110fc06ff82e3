// Package lists implements the engine's CSR-like list storage: the
// per-node-offset adjacency lists and unstructured property lists that
// back one-to-many relationships. Each node offset's list is either
// packed into a shared, chunked CSR region (a "small" list) or spilled
// into an append-only overflow area (a "large" list); a per-offset
// header records which.
package lists

import (
	"encoding/binary"

	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/pkg/bufmgr"
	"github.com/zaddach/kuzu/pkg/diskarray"
	"github.com/zaddach/kuzu/pkg/storage/overflow"
	"github.com/zaddach/kuzu/pkg/storage/page"
)

// ChunkSizeLog2 and ChunkSize partition node offsets into fixed-size
// chunks for CSR packing, matching the original's LISTS_CHUNK_SIZE_LOG_2.
const (
	ChunkSizeLog2 = 9
	ChunkSize     = 1 << ChunkSizeLog2
)

// largeListThreshold is the element count above which a list is spilled
// to the overflow area instead of packed into its chunk's CSR region.
const largeListThreshold = 256

// Header records one node offset's list: whether it's large, how many
// elements it holds, and where those elements start.
type Header struct {
	IsLarge bool
	Length  uint32
	// For a small list: PageIdx is the page of its chunk's CSR region and
	// Offset the byte offset within that page. For a large list: Offset
	// and PageIdx locate it in the overflow area via overflow.Pointer.
	Offset  uint32
	PageIdx page.Idx
}

func headerCodec() diskarray.Codec[Header] {
	return diskarray.Codec[Header]{
		Size: 1 + 4 + 4 + 4,
		Encode: func(h Header) []byte {
			b := make([]byte, 13)
			if h.IsLarge {
				b[0] = 1
			}
			binary.BigEndian.PutUint32(b[1:], h.Length)
			binary.BigEndian.PutUint32(b[5:], h.Offset)
			binary.BigEndian.PutUint32(b[9:], uint32(h.PageIdx))
			return b
		},
		Decode: func(b []byte) Header {
			return Header{
				IsLarge: b[0] == 1,
				Length:  binary.BigEndian.Uint32(b[1:]),
				Offset:  binary.BigEndian.Uint32(b[5:]),
				PageIdx: page.Idx(binary.BigEndian.Uint32(b[9:])),
			}
		},
	}
}

// chunkDescriptor describes one chunk's CSR region bump pointer.
type chunkDescriptor struct {
	TailPageIdx page.Idx
	TailBytes   uint32
}

func chunkDescriptorCodec() diskarray.Codec[chunkDescriptor] {
	return diskarray.Codec[chunkDescriptor]{
		Size: 8,
		Encode: func(c chunkDescriptor) []byte {
			b := make([]byte, 8)
			binary.BigEndian.PutUint32(b[0:], uint32(c.TailPageIdx))
			binary.BigEndian.PutUint32(b[4:], c.TailBytes)
			return b
		},
		Decode: func(b []byte) chunkDescriptor {
			return chunkDescriptor{
				TailPageIdx: page.Idx(binary.BigEndian.Uint32(b[0:])),
				TailBytes:   binary.BigEndian.Uint32(b[4:]),
			}
		},
	}
}

// Lists is a CSR-chunked, append-only list store for elements of type T.
// Grounded on original_source's Lists/AdjLists/StringPropertyLists/
// ListPropertyLists family (see Factory below); this type plays the role
// all four share, parameterized over element codec rather than subclassed
// per type.
type Lists[T any] struct {
	fh       *page.FileHandle
	bm       *bufmgr.Manager
	codec    diskarray.Codec[T]
	headers  *diskarray.DiskArray[Header]
	chunks   *diskarray.DiskArray[chunkDescriptor]
	overflow *overflow.File
}

// Create allocates fresh headers/chunks disk arrays and an overflow area,
// all within fh.
func Create[T any](fh *page.FileHandle, bm *bufmgr.Manager, codec diskarray.Codec[T]) (*Lists[T], error) {
	headers, err := diskarray.Create(fh, bm, headerCodec())
	if err != nil {
		return nil, err
	}
	chunks, err := diskarray.Create(fh, bm, chunkDescriptorCodec())
	if err != nil {
		return nil, err
	}
	of, err := overflow.Create(fh, bm)
	if err != nil {
		return nil, err
	}
	return &Lists[T]{fh: fh, bm: bm, codec: codec, headers: headers, chunks: chunks, overflow: of}, nil
}

// Headers exposes the header disk array, e.g. to register as a
// txn.Resource.
func (l *Lists[T]) Headers() *diskarray.DiskArray[Header] { return l.headers }

// Chunks exposes the chunk-descriptor disk array, e.g. to register as a
// txn.Resource.
func (l *Lists[T]) Chunks() *diskarray.DiskArray[chunkDescriptor] { return l.chunks }

func elementSize[T any](codec diskarray.Codec[T]) int { return codec.Size }

// appendToChunk bump-allocates room for n elements in nodeOffset's chunk's
// CSR region and writes vals there, returning the header to store for
// nodeOffset.
func (l *Lists[T]) appendToChunk(nodeOffset uint64, vals []T) (Header, error) {
	chunkIdx := nodeOffset >> ChunkSizeLog2
	elemSize := elementSize(l.codec)
	need := uint32(len(vals) * elemSize)

	var desc chunkDescriptor
	numChunks := l.chunks.GetNumElements(diskarray.Write)
	if chunkIdx < numChunks {
		var err error
		desc, err = l.chunks.Get(chunkIdx, diskarray.Write)
		if err != nil {
			return Header{}, err
		}
	} else {
		if chunkIdx != numChunks {
			return Header{}, dberrors.Internal("lists: chunks must be appended to in order")
		}
		idx, _, err := l.bm.InsertNewPage(l.fh.Path())
		if err != nil {
			return Header{}, err
		}
		if err := l.bm.Unpin(l.fh.Path(), idx, true); err != nil {
			return Header{}, err
		}
		desc = chunkDescriptor{TailPageIdx: idx, TailBytes: 0}
		if _, err := l.chunks.PushBack(desc); err != nil {
			return Header{}, err
		}
	}

	if uint32(desc.TailBytes)+need > page.Size {
		idx, _, err := l.bm.InsertNewPage(l.fh.Path())
		if err != nil {
			return Header{}, err
		}
		if err := l.bm.Unpin(l.fh.Path(), idx, true); err != nil {
			return Header{}, err
		}
		desc = chunkDescriptor{TailPageIdx: idx, TailBytes: 0}
	}

	h := Header{IsLarge: false, Length: uint32(len(vals)), Offset: desc.TailBytes, PageIdx: desc.TailPageIdx}

	data, err := l.bm.Pin(l.fh.Path(), desc.TailPageIdx)
	if err != nil {
		return Header{}, err
	}
	off := int(desc.TailBytes)
	for _, v := range vals {
		copy(data[off:off+elemSize], l.codec.Encode(v))
		off += elemSize
	}
	if err := l.bm.Unpin(l.fh.Path(), desc.TailPageIdx, true); err != nil {
		return Header{}, err
	}

	desc.TailBytes += need
	if err := l.chunks.Update(chunkIdx, desc); err != nil {
		return Header{}, err
	}
	return h, nil
}

// Append writes nodeOffset's full list, choosing the small (CSR-packed)
// or large (overflow) representation by size, and records its header.
// Write-transaction only. nodeOffset's header must be the next one to be
// written (headers grow append-only alongside node offsets during bulk
// load, matching how AdjLists/property lists are always built in offset
// order).
func (l *Lists[T]) Append(nodeOffset uint64, vals []T) error {
	numHeaders := l.headers.GetNumElements(diskarray.Write)
	if nodeOffset != numHeaders {
		return dberrors.Internal("lists: headers must be appended to in node-offset order")
	}

	var h Header
	if len(vals) > largeListThreshold {
		buf := make([]byte, 0, len(vals)*elementSize(l.codec))
		for _, v := range vals {
			buf = append(buf, l.codec.Encode(v)...)
		}
		p, err := l.overflow.Append(buf)
		if err != nil {
			return err
		}
		h = Header{IsLarge: true, Length: uint32(len(vals)), Offset: uint32(p.Offset), PageIdx: p.PageIdx}
	} else {
		var err error
		h, err = l.appendToChunk(nodeOffset, vals)
		if err != nil {
			return err
		}
	}
	_, err := l.headers.PushBack(h)
	return err
}

// Get reads back nodeOffset's full list.
func (l *Lists[T]) Get(nodeOffset uint64, trx diskarray.TrxType) ([]T, error) {
	h, err := l.headers.Get(nodeOffset, trx)
	if err != nil {
		return nil, err
	}
	if h.Length == 0 {
		return nil, nil
	}
	elemSize := elementSize(l.codec)

	if h.IsLarge {
		raw, err := l.overflow.Read(overflow.Pointer{PageIdx: h.PageIdx, Offset: int(h.Offset), Length: int(h.Length) * elemSize})
		if err != nil {
			return nil, err
		}
		return decodeAll(l.codec, raw, int(h.Length)), nil
	}

	data, err := l.bm.Pin(l.fh.Path(), h.PageIdx)
	if err != nil {
		return nil, err
	}
	defer l.bm.Unpin(l.fh.Path(), h.PageIdx, false)
	raw := make([]byte, int(h.Length)*elemSize)
	copy(raw, data[h.Offset:int(h.Offset)+len(raw)])
	return decodeAll(l.codec, raw, int(h.Length)), nil
}

// NumElementsInList mirrors the original's getNumElementsInList without
// materializing the list.
func (l *Lists[T]) NumElementsInList(nodeOffset uint64, trx diskarray.TrxType) (uint64, error) {
	h, err := l.headers.Get(nodeOffset, trx)
	if err != nil {
		return 0, err
	}
	return uint64(h.Length), nil
}

func decodeAll[T any](codec diskarray.Codec[T], raw []byte, n int) []T {
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = codec.Decode(raw[i*codec.Size : (i+1)*codec.Size])
	}
	return out
}
