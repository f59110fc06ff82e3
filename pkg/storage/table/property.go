// Package table glues a catalog schema to physical storage: one
// PropertyColumn per declared property, plus (for relationship tables)
// Src/Dst endpoint columns, giving the optimizer and pipeline
// something concrete to scan and append to. Grounded on the teacher's
// pkg/database wiring a TableMetadata's columns to open heap files, redone
// here over pkg/storage/column instead of heap pages.
package table

import (
	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/pkg/bufmgr"
	"github.com/zaddach/kuzu/pkg/diskarray"
	"github.com/zaddach/kuzu/pkg/storage/column"
	"github.com/zaddach/kuzu/pkg/storage/page"
	"github.com/zaddach/kuzu/pkg/vector"
)

// PropertyColumn is a single property's physical storage, type-erased
// behind vector.Value so NodeTable/RelTable can hold a heterogeneous
// slice of them.
type PropertyColumn interface {
	Get(offset uint64, trx diskarray.TrxType) (vector.Value, error)
	Append(v vector.Value) (uint64, error)
	NumRows(trx diskarray.TrxType) uint64
	// Resources exposes the backing diskarray(s) for txn.Manager
	// registration; callers register every element.
	Resources() []txnResource
	// Layout captures this column's physical location, for persisting
	// alongside a table's catalog entry so a reopened database can
	// reconstruct the column without rewriting it.
	Layout() PropertyColumnLayout
}

// PropertyColumnLayout is a property column's on-disk location. Only
// OverflowTailPage/OverflowTailBytes are meaningful for a STRING column;
// every other type needs just HeaderPageIdx.
type PropertyColumnLayout struct {
	HeaderPageIdx     page.Idx
	OverflowTailPage  page.Idx
	OverflowTailBytes int
}

// txnResource is the subset of txn.Resource a property column's backing
// storage implements; declared locally to avoid an import cycle with
// pkg/txn (txn.Resource is structurally identical).
type txnResource interface {
	PrepareCommit() error
	CheckpointInMemoryIfNecessary() error
	RollbackInMemoryIfNecessary() error
}

// loadPropertyColumn reopens an existing property column of type tag at
// the physical location layout records.
func loadPropertyColumn(fh *page.FileHandle, bm *bufmgr.Manager, tag vector.TypeTag, layout PropertyColumnLayout) (PropertyColumn, error) {
	switch tag {
	case vector.TypeInt64:
		c, err := column.Load(fh, bm, layout.HeaderPageIdx, column.Int64Codec())
		if err != nil {
			return nil, err
		}
		return &int64PropertyColumn{c}, nil
	case vector.TypeDouble:
		c, err := column.Load(fh, bm, layout.HeaderPageIdx, column.DoubleCodec())
		if err != nil {
			return nil, err
		}
		return &doublePropertyColumn{c}, nil
	case vector.TypeBool:
		c, err := column.Load(fh, bm, layout.HeaderPageIdx, column.BoolCodec())
		if err != nil {
			return nil, err
		}
		return &boolPropertyColumn{c}, nil
	case vector.TypeString:
		c, err := column.LoadStringColumn(fh, bm, layout.HeaderPageIdx, layout.OverflowTailPage, layout.OverflowTailBytes)
		if err != nil {
			return nil, err
		}
		return &stringPropertyColumn{c}, nil
	default:
		return nil, dberrors.Internal("table: unsupported property type")
	}
}

func newPropertyColumn(fh *page.FileHandle, bm *bufmgr.Manager, tag vector.TypeTag) (PropertyColumn, error) {
	switch tag {
	case vector.TypeInt64:
		c, err := column.Create(fh, bm, column.Int64Codec())
		if err != nil {
			return nil, err
		}
		return &int64PropertyColumn{c}, nil
	case vector.TypeDouble:
		c, err := column.Create(fh, bm, column.DoubleCodec())
		if err != nil {
			return nil, err
		}
		return &doublePropertyColumn{c}, nil
	case vector.TypeBool:
		c, err := column.Create(fh, bm, column.BoolCodec())
		if err != nil {
			return nil, err
		}
		return &boolPropertyColumn{c}, nil
	case vector.TypeString:
		c, err := column.CreateStringColumn(fh, bm)
		if err != nil {
			return nil, err
		}
		return &stringPropertyColumn{c}, nil
	default:
		return nil, dberrors.Internal("table: unsupported property type")
	}
}

type int64PropertyColumn struct{ col *column.Column[int64] }

func (c *int64PropertyColumn) Get(offset uint64, trx diskarray.TrxType) (vector.Value, error) {
	v, err := c.col.Get(offset, trx)
	if err != nil {
		return vector.Value{}, err
	}
	return vector.Value{Tag: vector.TypeInt64, Int64: v}, nil
}
func (c *int64PropertyColumn) Append(v vector.Value) (uint64, error) { return c.col.Append(v.Int64) }
func (c *int64PropertyColumn) NumRows(trx diskarray.TrxType) uint64  { return c.col.NumRows(trx) }
func (c *int64PropertyColumn) Resources() []txnResource              { return []txnResource{c.col.DiskArray()} }
func (c *int64PropertyColumn) Layout() PropertyColumnLayout {
	return PropertyColumnLayout{HeaderPageIdx: c.col.DiskArray().HeaderPageIdx()}
}

type doublePropertyColumn struct{ col *column.Column[float64] }

func (c *doublePropertyColumn) Get(offset uint64, trx diskarray.TrxType) (vector.Value, error) {
	v, err := c.col.Get(offset, trx)
	if err != nil {
		return vector.Value{}, err
	}
	return vector.Value{Tag: vector.TypeDouble, Double: v}, nil
}
func (c *doublePropertyColumn) Append(v vector.Value) (uint64, error) { return c.col.Append(v.Double) }
func (c *doublePropertyColumn) NumRows(trx diskarray.TrxType) uint64  { return c.col.NumRows(trx) }
func (c *doublePropertyColumn) Resources() []txnResource              { return []txnResource{c.col.DiskArray()} }
func (c *doublePropertyColumn) Layout() PropertyColumnLayout {
	return PropertyColumnLayout{HeaderPageIdx: c.col.DiskArray().HeaderPageIdx()}
}

type boolPropertyColumn struct{ col *column.Column[bool] }

func (c *boolPropertyColumn) Get(offset uint64, trx diskarray.TrxType) (vector.Value, error) {
	v, err := c.col.Get(offset, trx)
	if err != nil {
		return vector.Value{}, err
	}
	return vector.Value{Tag: vector.TypeBool, Bool: v}, nil
}
func (c *boolPropertyColumn) Append(v vector.Value) (uint64, error) { return c.col.Append(v.Bool) }
func (c *boolPropertyColumn) NumRows(trx diskarray.TrxType) uint64  { return c.col.NumRows(trx) }
func (c *boolPropertyColumn) Resources() []txnResource              { return []txnResource{c.col.DiskArray()} }
func (c *boolPropertyColumn) Layout() PropertyColumnLayout {
	return PropertyColumnLayout{HeaderPageIdx: c.col.DiskArray().HeaderPageIdx()}
}

type stringPropertyColumn struct{ col *column.StringColumn }

func (c *stringPropertyColumn) Get(offset uint64, trx diskarray.TrxType) (vector.Value, error) {
	v, err := c.col.Get(offset, trx)
	if err != nil {
		return vector.Value{}, err
	}
	return vector.Value{Tag: vector.TypeString, Str: v}, nil
}
func (c *stringPropertyColumn) Append(v vector.Value) (uint64, error) { return c.col.Append(v.Str) }
func (c *stringPropertyColumn) NumRows(trx diskarray.TrxType) uint64  { return c.col.NumRows(trx) }
func (c *stringPropertyColumn) Resources() []txnResource              { return []txnResource{c.col.DiskArray()} }
func (c *stringPropertyColumn) Layout() PropertyColumnLayout {
	return PropertyColumnLayout{
		HeaderPageIdx:     c.col.HeaderPageIdx(),
		OverflowTailPage:  c.col.OverflowTailPage(),
		OverflowTailBytes: c.col.OverflowTailBytes(),
	}
}
