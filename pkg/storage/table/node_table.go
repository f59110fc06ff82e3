package table

import (
	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/pkg/bufmgr"
	"github.com/zaddach/kuzu/pkg/catalog"
	"github.com/zaddach/kuzu/pkg/diskarray"
	"github.com/zaddach/kuzu/pkg/storage/column"
	"github.com/zaddach/kuzu/pkg/storage/page"
	"github.com/zaddach/kuzu/pkg/vector"
)

// NodeTable is a catalog.NodeTableSchema's physical storage: one
// PropertyColumn per declared property, all appended to in lockstep so a
// node offset indexes every column consistently. A dedicated rowMarker
// column tracks NumRows even for a table with zero declared properties.
type NodeTable struct {
	Schema     *catalog.NodeTableSchema
	Properties []PropertyColumn
	rowMarker  *column.Column[bool]
}

// NewNodeTable allocates fresh physical storage for schema in fh.
func NewNodeTable(fh *page.FileHandle, bm *bufmgr.Manager, schema *catalog.NodeTableSchema) (*NodeTable, error) {
	marker, err := column.Create(fh, bm, column.BoolCodec())
	if err != nil {
		return nil, err
	}
	props := make([]PropertyColumn, len(schema.Properties))
	for i, p := range schema.Properties {
		col, err := newPropertyColumn(fh, bm, p.Type)
		if err != nil {
			return nil, err
		}
		props[i] = col
	}
	return &NodeTable{Schema: schema, Properties: props, rowMarker: marker}, nil
}

// NodeTableLayout is a NodeTable's physical location, persisted in the
// catalog alongside its schema so LoadNodeTable can reopen the same
// columns after a restart instead of allocating fresh ones.
type NodeTableLayout struct {
	RowMarkerHeader page.Idx
	Properties      []PropertyColumnLayout
}

// Layout captures t's current physical location.
func (t *NodeTable) Layout() NodeTableLayout {
	props := make([]PropertyColumnLayout, len(t.Properties))
	for i, col := range t.Properties {
		props[i] = col.Layout()
	}
	return NodeTableLayout{RowMarkerHeader: t.rowMarker.DiskArray().HeaderPageIdx(), Properties: props}
}

// LoadNodeTable reopens an existing table's physical storage at the
// locations layout records.
func LoadNodeTable(fh *page.FileHandle, bm *bufmgr.Manager, schema *catalog.NodeTableSchema, layout NodeTableLayout) (*NodeTable, error) {
	marker, err := column.Load(fh, bm, layout.RowMarkerHeader, column.BoolCodec())
	if err != nil {
		return nil, err
	}
	if len(layout.Properties) != len(schema.Properties) {
		return nil, dberrors.Internal("table: node table layout does not match schema")
	}
	props := make([]PropertyColumn, len(schema.Properties))
	for i, p := range schema.Properties {
		col, err := loadPropertyColumn(fh, bm, p.Type, layout.Properties[i])
		if err != nil {
			return nil, err
		}
		props[i] = col
	}
	return &NodeTable{Schema: schema, Properties: props, rowMarker: marker}, nil
}

// NumRows returns the table's row count as seen by trx.
func (t *NodeTable) NumRows(trx diskarray.TrxType) uint64 { return t.rowMarker.NumRows(trx) }

// AppendRow appends one row of values (in schema property order),
// returning the new row's NodeID. Write-transaction only.
func (t *NodeTable) AppendRow(values []vector.Value) (vector.NodeID, error) {
	if len(values) != len(t.Properties) {
		return vector.NodeID{}, dberrors.Internal("table: row has wrong number of values for node table")
	}
	offset, err := t.rowMarker.Append(true)
	if err != nil {
		return vector.NodeID{}, err
	}
	for i, col := range t.Properties {
		if got, err := col.Append(values[i]); err != nil {
			return vector.NodeID{}, err
		} else if got != offset {
			return vector.NodeID{}, dberrors.Internal("table: property columns diverged from row marker offset")
		}
	}
	return vector.NodeID{TableID: uint8(t.Schema.ID), Offset: offset}, nil
}

// GetRow reads every property of the row at offset, in schema order.
func (t *NodeTable) GetRow(offset uint64, trx diskarray.TrxType) ([]vector.Value, error) {
	row := make([]vector.Value, len(t.Properties))
	for i, col := range t.Properties {
		v, err := col.Get(offset, trx)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

// Resources returns every txn.Resource-compatible backing store this
// table owns, for registration with the transaction manager.
func (t *NodeTable) Resources() []txnResource {
	resources := []txnResource{t.rowMarker.DiskArray()}
	for _, col := range t.Properties {
		resources = append(resources, col.Resources()...)
	}
	return resources
}
