package table

import (
	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/pkg/bufmgr"
	"github.com/zaddach/kuzu/pkg/catalog"
	"github.com/zaddach/kuzu/pkg/diskarray"
	"github.com/zaddach/kuzu/pkg/recursivejoin"
	"github.com/zaddach/kuzu/pkg/storage/column"
	"github.com/zaddach/kuzu/pkg/storage/page"
	"github.com/zaddach/kuzu/pkg/vector"
)

// RelTable is a catalog.RelTableSchema's physical storage: a flat edge
// table (one row per relationship, holding its endpoints and properties),
// addressed by edge offset. Traversal goes through a RelTableAdjacencyLister
// scanning this table rather than a pre-built pkg/storage/lists CSR index,
// because pkg/storage/lists.Lists.Append requires a node's whole adjacency
// list up front in node-offset order (the original's bulk-COPY model) and
// can't absorb one edge at a time the way this engine's single-writer
// incremental inserts need to — see DESIGN.md.
type RelTable struct {
	Schema     *catalog.RelTableSchema
	Src        *column.Column[vector.NodeID]
	Dst        *column.Column[vector.NodeID]
	Properties []PropertyColumn
}

// NewRelTable allocates fresh physical storage for schema in fh.
func NewRelTable(fh *page.FileHandle, bm *bufmgr.Manager, schema *catalog.RelTableSchema) (*RelTable, error) {
	src, err := column.Create(fh, bm, column.NodeIDCodec())
	if err != nil {
		return nil, err
	}
	dst, err := column.Create(fh, bm, column.NodeIDCodec())
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
	return &RelTable{Schema: schema, Src: src, Dst: dst, Properties: props}, nil
}

// RelTableLayout is a RelTable's physical location, persisted alongside
// its schema so LoadRelTable can reopen the same columns after a restart.
type RelTableLayout struct {
	SrcHeader  page.Idx
	DstHeader  page.Idx
	Properties []PropertyColumnLayout
}

// Layout captures t's current physical location.
func (t *RelTable) Layout() RelTableLayout {
	props := make([]PropertyColumnLayout, len(t.Properties))
	for i, col := range t.Properties {
		props[i] = col.Layout()
	}
	return RelTableLayout{
		SrcHeader:  t.Src.DiskArray().HeaderPageIdx(),
		DstHeader:  t.Dst.DiskArray().HeaderPageIdx(),
		Properties: props,
	}
}

// LoadRelTable reopens an existing relationship table's physical storage
// at the locations layout records.
func LoadRelTable(fh *page.FileHandle, bm *bufmgr.Manager, schema *catalog.RelTableSchema, layout RelTableLayout) (*RelTable, error) {
	src, err := column.Load(fh, bm, layout.SrcHeader, column.NodeIDCodec())
	if err != nil {
		return nil, err
	}
	dst, err := column.Load(fh, bm, layout.DstHeader, column.NodeIDCodec())
	if err != nil {
		return nil, err
	}
	if len(layout.Properties) != len(schema.Properties) {
		return nil, dberrors.Internal("table: rel table layout does not match schema")
	}
	props := make([]PropertyColumn, len(schema.Properties))
	for i, p := range schema.Properties {
		col, err := loadPropertyColumn(fh, bm, p.Type, layout.Properties[i])
		if err != nil {
			return nil, err
		}
		props[i] = col
	}
	return &RelTable{Schema: schema, Src: src, Dst: dst, Properties: props}, nil
}

// NumRows returns the table's edge count as seen by trx.
func (t *RelTable) NumRows(trx diskarray.TrxType) uint64 { return t.Src.NumRows(trx) }

// AppendEdge appends one edge (src -> dst, plus properties in schema
// order), returning its RelID. Write-transaction only.
func (t *RelTable) AppendEdge(src, dst vector.NodeID, values []vector.Value) (vector.RelID, error) {
	if len(values) != len(t.Properties) {
		return vector.RelID{}, dberrors.Internal("table: edge has wrong number of property values")
	}
	offset, err := t.Src.Append(src)
	if err != nil {
		return vector.RelID{}, err
	}
	if got, err := t.Dst.Append(dst); err != nil {
		return vector.RelID{}, err
	} else if got != offset {
		return vector.RelID{}, dberrors.Internal("table: src/dst columns diverged")
	}
	for i, col := range t.Properties {
		if got, err := col.Append(values[i]); err != nil {
			return vector.RelID{}, err
		} else if got != offset {
			return vector.RelID{}, dberrors.Internal("table: edge property columns diverged from offset")
		}
	}
	return vector.RelID{TableID: uint8(t.Schema.ID), Offset: offset}, nil
}

// GetEdge reads one edge's endpoints and properties.
func (t *RelTable) GetEdge(offset uint64, trx diskarray.TrxType) (src, dst vector.NodeID, props []vector.Value, err error) {
	src, err = t.Src.Get(offset, trx)
	if err != nil {
		return
	}
	dst, err = t.Dst.Get(offset, trx)
	if err != nil {
		return
	}
	props = make([]vector.Value, len(t.Properties))
	for i, col := range t.Properties {
		props[i], err = col.Get(offset, trx)
		if err != nil {
			return
		}
	}
	return
}

// Resources returns every txn.Resource-compatible backing store this
// table owns.
func (t *RelTable) Resources() []txnResource {
	resources := []txnResource{t.Src.DiskArray(), t.Dst.DiskArray()}
	for _, col := range t.Properties {
		resources = append(resources, col.Resources()...)
	}
	return resources
}

// AdjacencyDirection selects which endpoint column a RelTableAdjacencyLister
// matches against spec.md §9's FWD/BWD distinction (see pkg/statistics).
type AdjacencyDirection int

const (
	Forward AdjacencyDirection = iota
	Backward
)

// RelTableAdjacencyLister implements recursivejoin.AdjacencyLister over a
// RelTable by a linear scan of its edge rows, matching edges whose bound
// endpoint (Src for Forward, Dst for Backward) equals the query node.
type RelTableAdjacencyLister struct {
	Rel       *RelTable
	Direction AdjacencyDirection
}

var _ recursivejoin.AdjacencyLister = (*RelTableAdjacencyLister)(nil)

// Neighbors returns every edge bound to src in the configured direction.
func (l *RelTableAdjacencyLister) Neighbors(src vector.NodeID, trx diskarray.TrxType) ([]recursivejoin.Edge, error) {
	n := l.Rel.NumRows(trx)
	var edges []recursivejoin.Edge
	for offset := uint64(0); offset < n; offset++ {
		s, d, err := l.endpoints(offset, trx)
		if err != nil {
			return nil, err
		}
		bound, other := s, d
		if l.Direction == Backward {
			bound, other = d, s
		}
		if bound == src {
			edges = append(edges, recursivejoin.Edge{
				Dst: other,
				Rel: vector.RelID{TableID: uint8(l.Rel.Schema.ID), Offset: offset},
			})
		}
	}
	return edges, nil
}

func (l *RelTableAdjacencyLister) endpoints(offset uint64, trx diskarray.TrxType) (vector.NodeID, vector.NodeID, error) {
	s, err := l.Rel.Src.Get(offset, trx)
	if err != nil {
		return vector.NodeID{}, vector.NodeID{}, err
	}
	d, err := l.Rel.Dst.Get(offset, trx)
	if err != nil {
		return vector.NodeID{}, vector.NodeID{}, err
	}
	return s, d, nil
}
