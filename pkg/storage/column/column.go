// Package column implements dense, fixed-width per-node-offset property
// columns: one physical column per declared property, addressed directly
// by node offset with no gaps, backed by pkg/diskarray.
package column

import (
	"math"

	"github.com/zaddach/kuzu/pkg/bufmgr"
	"github.com/zaddach/kuzu/pkg/diskarray"
	"github.com/zaddach/kuzu/pkg/storage/overflow"
	"github.com/zaddach/kuzu/pkg/storage/page"
	"github.com/zaddach/kuzu/pkg/vector"
)

// Column is a fixed-width property column over node offsets 0..N-1. It
// wraps a DiskArray[T] and adds a sequential-range read
// (ReadBySequentialCopy) for column scans; that read still does one
// diskarray.Get per row.
type Column[T any] struct {
	da *diskarray.DiskArray[T]
}

// Create allocates a new, empty column in fh.
func Create[T any](fh *page.FileHandle, bm *bufmgr.Manager, codec diskarray.Codec[T]) (*Column[T], error) {
	da, err := diskarray.Create(fh, bm, codec)
	if err != nil {
		return nil, err
	}
	return &Column[T]{da: da}, nil
}

// Load opens an existing column whose DiskArray header lives at
// headerPageIdx.
func Load[T any](fh *page.FileHandle, bm *bufmgr.Manager, headerPageIdx page.Idx, codec diskarray.Codec[T]) (*Column[T], error) {
	da, err := diskarray.Load(fh, bm, headerPageIdx, codec)
	if err != nil {
		return nil, err
	}
	return &Column[T]{da: da}, nil
}

// DiskArray exposes the underlying array, e.g. for registering with the
// transaction manager as a Resource.
func (c *Column[T]) DiskArray() *diskarray.DiskArray[T] { return c.da }

// NumRows returns the column's length as seen by trx.
func (c *Column[T]) NumRows(trx diskarray.TrxType) uint64 { return c.da.GetNumElements(trx) }

// Get reads the value at a single node offset.
func (c *Column[T]) Get(offset uint64, trx diskarray.TrxType) (T, error) {
	return c.da.Get(offset, trx)
}

// Set overwrites the value at offset. Write-transaction only.
func (c *Column[T]) Set(offset uint64, val T) error { return c.da.Update(offset, val) }

// Append adds a new row, growing the column by one. Write-transaction only.
func (c *Column[T]) Append(val T) (uint64, error) { return c.da.PushBack(val) }

// ReadBySequentialCopy reads the count node offsets starting at startOffset
// and passes each value to writeToVector with its position 0..count-1, one
// diskarray.Get per row.
//
// This is named for the teacher's two read strategies (sequential-range
// copy vs. per-position scan) even though, unlike the original's
// zero-copy "setting frame" path, Go's memory-safety rules mean every
// path here copies: there is no way to alias a Vector's backing array
// onto a pinned buffer-pool frame without unsafe, which the ambient
// stack's stdlib-only error/log packages set a precedent against reaching
// for without justification elsewhere in the engine.
func ReadBySequentialCopy[T any](c *Column[T], startOffset uint64, count int, trx diskarray.TrxType, writeToVector func(pos int, v T)) error {
	for i := 0; i < count; i++ {
		v, err := c.da.Get(startOffset+uint64(i), trx)
		if err != nil {
			return err
		}
		writeToVector(i, v)
	}
	return nil
}

// ReadBySettingFrame reads a single node offset's value directly, for the
// random-access (non-sequential ID list) scan path.
func ReadBySettingFrame[T any](c *Column[T], offset uint64, trx diskarray.TrxType, writeToVector func(v T)) error {
	v, err := c.da.Get(offset, trx)
	if err != nil {
		return err
	}
	writeToVector(v)
	return nil
}

// Int64Codec is the Codec for INT64 property columns.
func Int64Codec() diskarray.Codec[int64] {
	return diskarray.Codec[int64]{
		Size: 8,
		Encode: func(v int64) []byte {
			b := make([]byte, 8)
			for i := 0; i < 8; i++ {
				b[i] = byte(v >> (8 * i))
			}
			return b
		},
		Decode: func(b []byte) int64 {
			var v int64
			for i := 0; i < 8; i++ {
				v |= int64(b[i]) << (8 * i)
			}
			return v
		},
	}
}

// DoubleCodec is the Codec for DOUBLE property columns.
func DoubleCodec() diskarray.Codec[float64] {
	return diskarray.Codec[float64]{
		Size: 8,
		Encode: func(v float64) []byte {
			bits := math.Float64bits(v)
			b := make([]byte, 8)
			for i := 0; i < 8; i++ {
				b[i] = byte(bits >> (8 * i))
			}
			return b
		},
		Decode: func(b []byte) float64 {
			var bits uint64
			for i := 0; i < 8; i++ {
				bits |= uint64(b[i]) << (8 * i)
			}
			return math.Float64frombits(bits)
		},
	}
}

// BoolCodec is the Codec for BOOL property columns.
func BoolCodec() diskarray.Codec[bool] {
	return diskarray.Codec[bool]{
		Size: 1,
		Encode: func(v bool) []byte {
			if v {
				return []byte{1}
			}
			return []byte{0}
		},
		Decode: func(b []byte) bool { return b[0] != 0 },
	}
}

// stringSlotInlineLen bounds how many bytes of a STRING property value are
// stored inline in the fixed-width slot before spilling to the overflow
// file, mirroring the original's short-string inline-prefix scheme.
const stringSlotInlineLen = 23

// stringSlot is the fixed-width on-disk representation of one STRING
// property value: short values are stored inline; longer ones spill to an
// overflow.File and the slot holds only a pointer.
type stringSlot struct {
	isOverflow bool
	inlineLen  uint8
	inline     [stringSlotInlineLen]byte
	ptr        overflow.Pointer
}

func stringSlotCodec() diskarray.Codec[stringSlot] {
	const size = 1 + 1 + stringSlotInlineLen + 4 + 4 + 4
	return diskarray.Codec[stringSlot]{
		Size: size,
		Encode: func(s stringSlot) []byte {
			b := make([]byte, size)
			if s.isOverflow {
				b[0] = 1
			}
			b[1] = s.inlineLen
			copy(b[2:2+stringSlotInlineLen], s.inline[:])
			off := 2 + stringSlotInlineLen
			putU32(b[off:], uint32(s.ptr.PageIdx))
			putU32(b[off+4:], uint32(s.ptr.Offset))
			putU32(b[off+8:], uint32(s.ptr.Length))
			return b
		},
		Decode: func(b []byte) stringSlot {
			var s stringSlot
			s.isOverflow = b[0] != 0
			s.inlineLen = b[1]
			copy(s.inline[:], b[2:2+stringSlotInlineLen])
			off := 2 + stringSlotInlineLen
			s.ptr.PageIdx = page.Idx(getU32(b[off:]))
			s.ptr.Offset = int(getU32(b[off+4:]))
			s.ptr.Length = int(getU32(b[off+8:]))
			return s
		},
	}
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// StringColumn is a fixed-width property column for STRING values: short
// values are encoded inline, long ones spill into an overflow.File via a
// stringSlot pointer, playing the inline-prefix-or-overflow-pointer role
// spec.md's column design calls for.
type StringColumn struct {
	col *Column[stringSlot]
	of  *overflow.File
}

// CreateStringColumn allocates a new, empty STRING column plus its
// backing overflow file in fh.
func CreateStringColumn(fh *page.FileHandle, bm *bufmgr.Manager) (*StringColumn, error) {
	col, err := Create(fh, bm, stringSlotCodec())
	if err != nil {
		return nil, err
	}
	of, err := overflow.Create(fh, bm)
	if err != nil {
		return nil, err
	}
	return &StringColumn{col: col, of: of}, nil
}

// LoadStringColumn reopens an existing STRING column and its overflow file.
func LoadStringColumn(fh *page.FileHandle, bm *bufmgr.Manager, headerPageIdx page.Idx, overflowTailPage page.Idx, overflowTailBytes int) (*StringColumn, error) {
	col, err := Load(fh, bm, headerPageIdx, stringSlotCodec())
	if err != nil {
		return nil, err
	}
	of := overflow.Load(fh, bm, overflowTailPage, overflowTailBytes)
	return &StringColumn{col: col, of: of}, nil
}

// DiskArray exposes the underlying slot array, e.g. for registering with
// the transaction manager as a Resource.
func (s *StringColumn) DiskArray() *diskarray.DiskArray[stringSlot] { return s.col.DiskArray() }

// HeaderPageIdx returns the slot array's header page, for persisting this
// column's physical location.
func (s *StringColumn) HeaderPageIdx() page.Idx { return s.col.DiskArray().HeaderPageIdx() }

// OverflowTailPage and OverflowTailBytes return the backing overflow
// file's current append position, for persisting alongside HeaderPageIdx.
func (s *StringColumn) OverflowTailPage() page.Idx { return s.of.TailPageIdx() }
func (s *StringColumn) OverflowTailBytes() int     { return s.of.TailBytes() }

// NumRows returns the column's length as seen by trx.
func (s *StringColumn) NumRows(trx diskarray.TrxType) uint64 { return s.col.NumRows(trx) }

func (s *StringColumn) encode(val string) (stringSlot, error) {
	if len(val) <= stringSlotInlineLen {
		var slot stringSlot
		slot.inlineLen = uint8(len(val))
		copy(slot.inline[:], val)
		return slot, nil
	}
	ptr, err := s.of.Append([]byte(val))
	if err != nil {
		return stringSlot{}, err
	}
	return stringSlot{isOverflow: true, ptr: ptr}, nil
}

func (s *StringColumn) decode(slot stringSlot) (string, error) {
	if !slot.isOverflow {
		return string(slot.inline[:slot.inlineLen]), nil
	}
	raw, err := s.of.Read(slot.ptr)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Get reads the string at offset.
func (s *StringColumn) Get(offset uint64, trx diskarray.TrxType) (string, error) {
	slot, err := s.col.Get(offset, trx)
	if err != nil {
		return "", err
	}
	return s.decode(slot)
}

// Append adds val as a new row, growing the column by one. Write-transaction
// only.
func (s *StringColumn) Append(val string) (uint64, error) {
	slot, err := s.encode(val)
	if err != nil {
		return 0, err
	}
	return s.col.Append(slot)
}

// Set overwrites the value at offset. Write-transaction only.
func (s *StringColumn) Set(offset uint64, val string) error {
	slot, err := s.encode(val)
	if err != nil {
		return err
	}
	return s.col.Set(offset, slot)
}

// NodeIDCodec is the Codec for compressed adjacency-style node ID columns
// (tableID, offset) — the fixed-width compression scheme this repository
// adopts in place of the original's per-column variable bit-width
// NodeIDCompressionScheme (see DESIGN.md).
func NodeIDCodec() diskarray.Codec[vector.NodeID] {
	return diskarray.Codec[vector.NodeID]{
		Size: 9,
		Encode: func(v vector.NodeID) []byte {
			b := make([]byte, 9)
			b[0] = v.TableID
			for i := 0; i < 8; i++ {
				b[1+i] = byte(v.Offset >> (8 * i))
			}
			return b
		},
		Decode: func(b []byte) vector.NodeID {
			var off uint64
			for i := 0; i < 8; i++ {
				off |= uint64(b[1+i]) << (8 * i)
			}
			return vector.NodeID{TableID: b[0], Offset: off}
		},
	}
}

// RelIDCodec is the Codec for relationship-ID-valued columns and lists
// (used by a relationship table's forward/backward adjacency lists to
// store neighboring edge offsets), same fixed-width layout as NodeIDCodec.
func RelIDCodec() diskarray.Codec[vector.RelID] {
	return diskarray.Codec[vector.RelID]{
		Size: 9,
		Encode: func(v vector.RelID) []byte {
			b := make([]byte, 9)
			b[0] = v.TableID
			for i := 0; i < 8; i++ {
				b[1+i] = byte(v.Offset >> (8 * i))
			}
			return b
		},
		Decode: func(b []byte) vector.RelID {
			var off uint64
			for i := 0; i < 8; i++ {
				off |= uint64(b[1+i]) << (8 * i)
			}
			return vector.RelID{TableID: b[0], Offset: off}
		},
	}
}
