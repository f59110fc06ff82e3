package optimizer

import (
	"context"
	"encoding/json"

	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/pkg/catalog"
	"github.com/zaddach/kuzu/pkg/diskarray"
	"github.com/zaddach/kuzu/pkg/frontend"
	"github.com/zaddach/kuzu/pkg/hashtable"
	"github.com/zaddach/kuzu/pkg/pipeline"
	"github.com/zaddach/kuzu/pkg/recursivejoin"
	"github.com/zaddach/kuzu/pkg/statistics"
	"github.com/zaddach/kuzu/pkg/storage/table"
	"github.com/zaddach/kuzu/pkg/vector"
)

// TableRegistry owns the physical table.NodeTable/table.RelTable storage
// backing a catalog.Catalog's schemas, letting Executor create and scan
// them without depending on how the caller wires page.FileHandle/bufmgr.
type TableRegistry interface {
	CreateNodeTable(schema *catalog.NodeTableSchema) (*table.NodeTable, error)
	CreateRelTable(schema *catalog.RelTableSchema) (*table.RelTable, error)
	NodeTable(id uint32) (*table.NodeTable, error)
	RelTable(id uint32) (*table.RelTable, error)
}

// Row is one projected result row, in ReturnItems order.
type Row []vector.Value

// Result is what running a Plan produces. Rows is nil for a CREATE plan.
type Result struct {
	Rows []Row
}

// Executor runs a Plan against live catalog/statistics/table state,
// driving the scan and hop stages through pkg/pipeline so filtering stays
// vectorized rather than row-at-a-time, mirroring the teacher's
// pkg/execution/query operators rebuilt over columnar Chunks.
type Executor struct {
	Catalog *catalog.Catalog
	Stats   *statistics.Statistics
	Tables  TableRegistry
}

// NewExecutor creates an Executor over the given registries.
func NewExecutor(cat *catalog.Catalog, stats *statistics.Statistics, tables TableRegistry) *Executor {
	return &Executor{Catalog: cat, Stats: stats, Tables: tables}
}

// Execute runs plan. trx selects which transaction's view MATCH reads
// scan; CREATE plans always write through the current write transaction's
// staged view regardless of trx.
func (e *Executor) Execute(ctx context.Context, plan Plan, trx diskarray.TrxType) (*Result, error) {
	switch p := plan.(type) {
	case *CreateNodeTablePlan:
		return nil, e.execCreateNodeTable(p)
	case *CreateRelTablePlan:
		return nil, e.execCreateRelTable(p)
	case *MatchPlan:
		return e.execMatch(ctx, p, trx)
	default:
		return nil, dberrors.Internal("optimizer: unknown plan type")
	}
}

func (e *Executor) execCreateNodeTable(p *CreateNodeTablePlan) error {
	sch, err := e.Catalog.CreateNodeTable(p.Bound.Name, p.Bound.Properties)
	if err != nil {
		return err
	}
	nt, err := e.Tables.CreateNodeTable(sch)
	if err != nil {
		return err
	}
	blob, err := json.Marshal(nt.Layout())
	if err != nil {
		return err
	}
	e.Catalog.SetLayout(sch.ID, blob)
	e.Stats.RegisterNodeTable(sch.ID)
	return nil
}

func (e *Executor) execCreateRelTable(p *CreateRelTablePlan) error {
	sch, err := e.Catalog.CreateRelTable(p.Bound.Name, p.Bound.SrcTable.ID, p.Bound.DstTable.ID, p.Bound.Properties)
	if err != nil {
		return err
	}
	rt, err := e.Tables.CreateRelTable(sch)
	if err != nil {
		return err
	}
	blob, err := json.Marshal(rt.Layout())
	if err != nil {
		return err
	}
	e.Catalog.SetLayout(sch.ID, blob)
	e.Stats.RegisterRelTable(sch.ID)
	return nil
}

// execMatch scans the source table (filtered through a pipeline.Driver
// pass), optionally expands each surviving row across one relationship
// hop (a second filtered pass over the joined rows), then projects the
// bound return items.
func (e *Executor) execMatch(ctx context.Context, p *MatchPlan, trx diskarray.TrxType) (*Result, error) {
	srcTable, err := e.Tables.NodeTable(p.Scan.NodeTableID)
	if err != nil {
		return nil, err
	}

	scanChunks, err := buildNodeScanChunks(srcTable, trx)
	if err != nil {
		return nil, err
	}
	scanChunks, err = runFilteredPipeline(ctx, scanChunks, p.Scan.Filters, 1)
	if err != nil {
		return nil, err
	}

	if p.Hop == nil {
		return e.finishMatch(ctx, scanChunks, p, p.SrcVar, "", 0, len(srcTable.Properties)+1)
	}

	dstTable, err := e.Tables.NodeTable(p.Hop.DstTableID)
	if err != nil {
		return nil, err
	}
	relTable, err := e.Tables.RelTable(p.Hop.RelTableID)
	if err != nil {
		return nil, err
	}
	lister := &table.RelTableAdjacencyLister{Rel: relTable, Direction: toTableDirection(p.Hop.Direction)}

	srcCols := 1 + len(srcTable.Properties)
	var joinedChunks []*pipeline.Chunk
	if p.Hop.MinHops == 1 && p.Hop.MaxHops == 1 {
		joinedChunks, err = expandHop(scanChunks, lister, dstTable, trx, srcCols)
	} else {
		joinedChunks, err = expandVariableHop(scanChunks, lister, dstTable, trx, srcCols, p.Hop.MinHops, p.Hop.MaxHops)
	}
	if err != nil {
		return nil, err
	}
	dstBase := srcCols
	joinedChunks, err = runFilteredPipeline(ctx, joinedChunks, p.Hop.Filters, dstBase+1)
	if err != nil {
		return nil, err
	}

	return e.finishMatch(ctx, joinedChunks, p, p.SrcVar, p.HopVar, 0, dstBase)
}

// finishMatch routes a MATCH's final, filtered chunks through either
// plain projection or aggregate reduction, depending on whether its
// return items carry an aggregate call.
func (e *Executor) finishMatch(ctx context.Context, chunks []*pipeline.Chunk, p *MatchPlan, srcVar, hopVar string, srcBase, dstBase int) (*Result, error) {
	if len(p.ReturnItems) > 0 && p.ReturnItems[0].Agg != nil {
		return runAggregates(ctx, chunks, p.ReturnItems, srcVar, hopVar, srcBase, dstBase)
	}
	return projectRows(chunks, p.ReturnItems, srcVar, hopVar, srcBase, dstBase)
}

// expandVariableHop replaces each source chunk with one row per (source
// row, distinct destination node) pair reachable within
// [lowerBound, upperBound] hops, joined against dstTable's properties the
// same way expandHop does for a single fixed hop — so the rest of the
// pipeline (filters, projection, aggregation) doesn't need to know which
// kind of hop produced its input.
func expandVariableHop(srcChunks []*pipeline.Chunk, lister recursivejoin.AdjacencyLister, dstTable *table.NodeTable, trx diskarray.TrxType, srcCols, lowerBound, upperBound int) ([]*pipeline.Chunk, error) {
	engine := recursivejoin.NewEngine(lister)
	var out []*pipeline.Chunk
	for _, chunk := range srcChunks {
		var rows [][]vector.Value
		for i := 0; i < chunk.State.Count; i++ {
			srcRow := make([]vector.Value, srcCols)
			for c := 0; c < srcCols; c++ {
				srcRow[c] = chunk.Row(c, i)
			}
			srcNode := srcRow[0].Node
			frontiers, err := engine.BuildFrontiers(srcNode, lowerBound, upperBound, trx)
			if err != nil {
				return nil, err
			}
			scanner := recursivejoin.NewDstNodeScanner(frontiers, lowerBound)
			for {
				ok, err := scanner.HasNext()
				if err != nil {
					return nil, err
				}
				if !ok {
					break
				}
				dstNode, err := scanner.Next()
				if err != nil {
					return nil, err
				}
				dstRow, err := dstTable.GetRow(dstNode.Offset, trx)
				if err != nil {
					return nil, err
				}
				joined := append(append([]vector.Value(nil), srcRow...), vector.Value{Tag: vector.TypeNodeID, Node: dstNode})
				joined = append(joined, dstRow...)
				rows = append(rows, joined)
			}
		}
		for start := 0; start < len(rows); start += vector.MaxVectorSize {
			end := start + vector.MaxVectorSize
			if end > len(rows) {
				end = len(rows)
			}
			out = append(out, rowsToChunk(rows[start:end]))
		}
	}
	return out, nil
}

// runAggregates reduces chunks to a single ungrouped aggregate row per
// return item (this grammar has no GROUP BY, so every return item in an
// aggregate RETURN clause shares the same implicit single group).
func runAggregates(ctx context.Context, chunks []*pipeline.Chunk, items []frontend.BoundReturnItem, srcVar, hopVar string, srcBase, dstBase int) (*Result, error) {
	funcs := make([]hashtable.AggFunc, len(items))
	cols := make([]int, len(items))
	for i, item := range items {
		if item.Agg == nil {
			return nil, dberrors.Internal("optimizer: cannot mix aggregate and non-aggregate return items")
		}
		col, err := aggregateColumnIndex(item.Agg, srcVar, hopVar, srcBase, dstBase)
		if err != nil {
			return nil, err
		}
		cols[i] = col
		switch item.Agg.Func {
		case "COUNT":
			if item.Agg.Distinct {
				funcs[i] = hashtable.NewCountDistinctFunc(func() uint64 { return 0 })
			} else {
				funcs[i] = hashtable.CountFunc{}
			}
		default:
			return nil, dberrors.Internal("optimizer: unknown aggregate function " + item.Agg.Func)
		}
	}

	driver := &pipeline.Driver{
		Source:  pipeline.NewChunkSliceSource(chunks),
		NewSink: pipeline.NewAggregateSink(nil, cols, funcs),
	}
	sink, err := driver.Run(ctx)
	if err != nil {
		return nil, err
	}
	outChunks, err := sink.Finalize()
	if err != nil {
		return nil, err
	}
	if len(outChunks) == 0 {
		row := make(Row, len(funcs))
		for i, f := range funcs {
			row[i] = f.Finalize(f.Zero())
		}
		return &Result{Rows: []Row{row}}, nil
	}
	var rows []Row
	for _, c := range outChunks {
		for i := 0; i < c.State.Count; i++ {
			row := make(Row, len(funcs))
			for j := range funcs {
				row[j] = c.Row(j, i)
			}
			rows = append(rows, row)
		}
	}
	return &Result{Rows: rows}, nil
}

// aggregateColumnIndex resolves an aggregate call's operand to a column
// index in the same row layout projectRows reads from: column 0 of
// whichever variable's base is in play always holds that variable's
// NodeID, so COUNT(*) (and a bare COUNT(var) with no property) can use
// it directly as a never-null placeholder.
func aggregateColumnIndex(agg *frontend.BoundAggregate, srcVar, hopVar string, srcBase, dstBase int) (int, error) {
	if agg.Star {
		return srcBase, nil
	}
	base := srcBase
	if agg.TableVar == hopVar {
		base = dstBase
	} else if agg.TableVar != srcVar {
		return 0, dberrors.Internal("optimizer: aggregate references unknown variable " + agg.TableVar)
	}
	if agg.PropertyIdx < 0 {
		return base, nil
	}
	return base + 1 + agg.PropertyIdx, nil
}

func toTableDirection(d Direction) table.AdjacencyDirection {
	if d == Backward {
		return table.Backward
	}
	return table.Forward
}

// buildNodeScanChunks reads every row of nt (NodeID in column 0, then one
// column per property in schema order) into MaxVectorSize-row batches.
func buildNodeScanChunks(nt *table.NodeTable, trx diskarray.TrxType) ([]*pipeline.Chunk, error) {
	total := nt.NumRows(trx)
	var chunks []*pipeline.Chunk
	for start := uint64(0); start < total; start += vector.MaxVectorSize {
		count := int(total - start)
		if count > vector.MaxVectorSize {
			count = vector.MaxVectorSize
		}
		vecs := make([]*vector.Vector, 1+len(nt.Properties))
		vecs[0] = vector.New(vector.TypeNodeID)
		for i, col := range nt.Properties {
			vecs[i+1] = vector.New(propertyVectorTag(col))
		}
		for i := 0; i < count; i++ {
			offset := start + uint64(i)
			vecs[0].SetNodeID(i, vector.NodeID{TableID: uint8(nt.Schema.ID), Offset: offset})
			row, err := nt.GetRow(offset, trx)
			if err != nil {
				return nil, err
			}
			for j, v := range row {
				setVectorValue(vecs[j+1], i, v)
			}
		}
		chunks = append(chunks, pipeline.NewChunk(vecs, count))
	}
	return chunks, nil
}

// expandHop replaces each source chunk with a new chunk whose columns are
// the source columns followed by the destination NodeID and its
// properties, one output row per matching edge.
func expandHop(srcChunks []*pipeline.Chunk, lister *table.RelTableAdjacencyLister, dstTable *table.NodeTable, trx diskarray.TrxType, srcCols int) ([]*pipeline.Chunk, error) {
	var out []*pipeline.Chunk
	for _, chunk := range srcChunks {
		var rows [][]vector.Value
		for i := 0; i < chunk.State.Count; i++ {
			srcRow := make([]vector.Value, srcCols)
			for c := 0; c < srcCols; c++ {
				srcRow[c] = chunk.Row(c, i)
			}
			srcNode := srcRow[0].Node
			edges, err := lister.Neighbors(srcNode, trx)
			if err != nil {
				return nil, err
			}
			for _, edge := range edges {
				dstRow, err := dstTable.GetRow(edge.Dst.Offset, trx)
				if err != nil {
					return nil, err
				}
				joined := append(append([]vector.Value(nil), srcRow...), vector.Value{Tag: vector.TypeNodeID, Node: edge.Dst})
				joined = append(joined, dstRow...)
				rows = append(rows, joined)
			}
		}
		for start := 0; start < len(rows); start += vector.MaxVectorSize {
			end := start + vector.MaxVectorSize
			if end > len(rows) {
				end = len(rows)
			}
			out = append(out, rowsToChunk(rows[start:end]))
		}
	}
	return out, nil
}

// rowsToChunk builds a Chunk from a non-empty batch of equal-arity rows.
func rowsToChunk(rows [][]vector.Value) *pipeline.Chunk {
	numCols := len(rows[0])
	vecs := make([]*vector.Vector, numCols)
	for c := 0; c < numCols; c++ {
		vecs[c] = vector.New(rows[0][c].Tag)
	}
	for i, row := range rows {
		for c, v := range row {
			setVectorValue(vecs[c], i, v)
		}
	}
	return pipeline.NewChunk(vecs, len(rows))
}

// runFilteredPipeline applies one FilterOperator per BoundFilter (columns
// offset by colBase, since column 0 is always the row's NodeID) through a
// pipeline.Driver, returning the surviving chunks.
func runFilteredPipeline(ctx context.Context, chunks []*pipeline.Chunk, filters []frontend.BoundFilter, colBase int) ([]*pipeline.Chunk, error) {
	if len(filters) == 0 {
		return chunks, nil
	}
	ops := make([]pipeline.Operator, len(filters))
	for i, f := range filters {
		want := f.Value
		ops[i] = &pipeline.FilterOperator{
			ColumnIdx: colBase + f.PropertyIdx,
			Predicate: func(v vector.Value) bool { return valuesEqual(v, want) },
		}
	}
	driver := &pipeline.Driver{
		Source:    pipeline.NewChunkSliceSource(chunks),
		Operators: ops,
		NewSink:   func() pipeline.Sink { return pipeline.NewCollectSink() },
	}
	sink, err := driver.Run(ctx)
	if err != nil {
		return nil, err
	}
	return sink.Finalize()
}

// projectRows narrows every chunk down to the bound return items and
// flattens them into Result rows. srcBase/dstBase are each variable's
// NodeID column index within a chunk; a PropertyIdx of -1 returns the
// variable's own NodeID.
func projectRows(chunks []*pipeline.Chunk, items []frontend.BoundReturnItem, srcVar, hopVar string, srcBase, dstBase int) (*Result, error) {
	var rows []Row
	for _, chunk := range chunks {
		for i := 0; i < chunk.State.Count; i++ {
			row := make(Row, len(items))
			for j, item := range items {
				base := srcBase
				if item.TableVar == hopVar {
					base = dstBase
				} else if item.TableVar != srcVar {
					return nil, dberrors.Internal("optimizer: return item references unknown variable " + item.TableVar)
				}
				colIdx := base
				if item.PropertyIdx >= 0 {
					colIdx = base + 1 + item.PropertyIdx
				}
				row[j] = chunk.Row(colIdx, i)
			}
			rows = append(rows, row)
		}
	}
	return &Result{Rows: rows}, nil
}

func propertyVectorTag(col table.PropertyColumn) vector.TypeTag {
	// Called only when the table has at least one row (see
	// buildNodeScanChunks), so offset 0 always resolves.
	v, err := col.Get(0, diskarray.ReadOnly)
	if err != nil {
		return vector.TypeInt64
	}
	return v.Tag
}

func setVectorValue(v *vector.Vector, pos int, val vector.Value) {
	if val.Null {
		v.SetNull(pos, true)
		return
	}
	switch v.Tag {
	case vector.TypeBool:
		v.SetBool(pos, val.Bool)
	case vector.TypeInt64:
		v.SetInt64(pos, val.Int64)
	case vector.TypeDouble:
		v.SetDouble(pos, val.Double)
	case vector.TypeString:
		v.SetString(pos, val.Str)
	case vector.TypeNodeID:
		v.SetNodeID(pos, val.Node)
	case vector.TypeRelID:
		v.SetRelID(pos, val.Rel)
	}
}

func valuesEqual(a, b vector.Value) bool {
	if a.Null || b.Null {
		return false
	}
	switch a.Tag {
	case vector.TypeBool:
		return a.Bool == b.Bool
	case vector.TypeInt64:
		return a.Int64 == b.Int64
	case vector.TypeDouble:
		return a.Double == b.Double
	case vector.TypeString:
		return a.Str == b.Str
	case vector.TypeNodeID:
		return a.Node == b.Node
	case vector.TypeRelID:
		return a.Rel == b.Rel
	default:
		return false
	}
}
