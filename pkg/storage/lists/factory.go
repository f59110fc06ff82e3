package lists

import (
	"encoding/binary"

	"github.com/zaddach/kuzu/pkg/bufmgr"
	"github.com/zaddach/kuzu/pkg/diskarray"
	"github.com/zaddach/kuzu/pkg/storage/column"
	"github.com/zaddach/kuzu/pkg/storage/page"
	"github.com/zaddach/kuzu/pkg/vector"
)

// FixedLists holds INT64 properties per node offset, the plain-Lists case
// of the original's factory.
type FixedLists = Lists[int64]

// StringLists holds STRING properties, one overflow-backed value per
// list slot (every slot holds exactly one string per node offset; the
// "list" here is the per-property-name collection of per-offset values,
// matching the original's StringPropertyLists).
type StringLists = Lists[string]

// AdjLists holds NODE_ID adjacency lists: one list of neighbor node IDs
// per node offset.
type AdjLists = Lists[vector.NodeID]

func stringCodec() diskarray.Codec[string] {
	return diskarray.Codec[string]{
		Size: 256, // fixed slot width; long strings still work via the
		// large-list overflow path in Lists.Append, which encodes through
		// this same codec but writes into the overflow arena instead of a
		// fixed-width chunk slot.
		Encode: func(s string) []byte {
			b := make([]byte, 256)
			n := len(s)
			if n > 252 {
				n = 252
			}
			binary.BigEndian.PutUint32(b[0:], uint32(len(s)))
			copy(b[4:4+n], s[:n])
			return b
		},
		Decode: func(b []byte) string {
			n := binary.BigEndian.Uint32(b[0:])
			if n > 252 {
				n = 252
			}
			return string(b[4 : 4+n])
		},
	}
}

// Factory mirrors the original's ListsFactory: build the right Lists
// specialization for a property's declared type.
type Factory struct {
	fh *page.FileHandle
	bm *bufmgr.Manager
}

// NewFactory builds Lists instances backed by fh/bm.
func NewFactory(fh *page.FileHandle, bm *bufmgr.Manager) *Factory {
	return &Factory{fh: fh, bm: bm}
}

// NewFixedLists creates a FixedLists for INT64-typed properties.
func (f *Factory) NewFixedLists() (*FixedLists, error) {
	return Create(f.fh, f.bm, column.Int64Codec())
}

// NewStringLists creates a StringLists for STRING-typed properties.
func (f *Factory) NewStringLists() (*StringLists, error) {
	return Create(f.fh, f.bm, stringCodec())
}

// NewAdjLists creates an AdjLists for a relationship table's adjacency.
func (f *Factory) NewAdjLists() (*AdjLists, error) {
	return Create(f.fh, f.bm, column.NodeIDCodec())
}
