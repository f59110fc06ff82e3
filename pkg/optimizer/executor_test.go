package optimizer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/zaddach/kuzu/pkg/bufmgr"
	"github.com/zaddach/kuzu/pkg/catalog"
	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/pkg/diskarray"
	"github.com/zaddach/kuzu/pkg/frontend"
	"github.com/zaddach/kuzu/pkg/statistics"
	"github.com/zaddach/kuzu/pkg/storage/page"
	"github.com/zaddach/kuzu/pkg/storage/table"
	"github.com/zaddach/kuzu/pkg/vector"
)

// fakeRegistry is the test double for TableRegistry: every table lives in
// the same file handle, exactly like a real single-file database would.
type fakeRegistry struct {
	fh        *page.FileHandle
	bm        *bufmgr.Manager
	nodeTbls  map[uint32]*table.NodeTable
	relTbls   map[uint32]*table.RelTable
}

func newFakeRegistry(t *testing.T) *fakeRegistry {
	t.Helper()
	fh, err := page.Open(filepath.Join(t.TempDir(), "data.kz"), page.CategoryData)
	if err != nil {
		t.Fatalf("page.Open failed: %v", err)
	}
	t.Cleanup(func() { fh.Close() })
	return &fakeRegistry{
		fh: fh, bm: bufmgr.New(128),
		nodeTbls: make(map[uint32]*table.NodeTable),
		relTbls:  make(map[uint32]*table.RelTable),
	}
}

func (r *fakeRegistry) CreateNodeTable(schema *catalog.NodeTableSchema) (*table.NodeTable, error) {
	nt, err := table.NewNodeTable(r.fh, r.bm, schema)
	if err != nil {
		return nil, err
	}
	r.nodeTbls[schema.ID] = nt
	return nt, nil
}

func (r *fakeRegistry) CreateRelTable(schema *catalog.RelTableSchema) (*table.RelTable, error) {
	rt, err := table.NewRelTable(r.fh, r.bm, schema)
	if err != nil {
		return nil, err
	}
	r.relTbls[schema.ID] = rt
	return rt, nil
}

func (r *fakeRegistry) NodeTable(id uint32) (*table.NodeTable, error) {
	nt, ok := r.nodeTbls[id]
	if !ok {
		return nil, dberrors.Internal("optimizer test: unknown node table")
	}
	return nt, nil
}

func (r *fakeRegistry) RelTable(id uint32) (*table.RelTable, error) {
	rt, ok := r.relTbls[id]
	if !ok {
		return nil, dberrors.Internal("optimizer test: unknown rel table")
	}
	return rt, nil
}

func (r *fakeRegistry) checkpointAll() {
	for _, nt := range r.nodeTbls {
		for _, res := range nt.Resources() {
			res.CheckpointInMemoryIfNecessary()
		}
	}
	for _, rt := range r.relTbls {
		for _, res := range rt.Resources() {
			res.CheckpointInMemoryIfNecessary()
		}
	}
}

func setupExecutor(t *testing.T) (*Executor, *fakeRegistry) {
	t.Helper()
	cat := catalog.New()
	stats := statistics.New()
	reg := newFakeRegistry(t)
	exec := NewExecutor(cat, stats, reg)

	if err := exec.execCreateNodeTable(&CreateNodeTablePlan{Bound: &frontend.BoundCreateNodeTable{
		Name: "Person",
		Properties: []catalog.PropertySchema{
			{Name: "name", Type: vector.TypeString},
			{Name: "age", Type: vector.TypeInt64},
		},
	}}); err != nil {
		t.Fatalf("execCreateNodeTable failed: %v", err)
	}
	cat.CheckpointInMemoryIfNecessary()
	stats.CheckpointInMemoryIfNecessary()

	personSchema, _ := cat.GetNodeTable("Person")
	if err := exec.execCreateRelTable(&CreateRelTablePlan{Bound: &frontend.BoundCreateRelTable{
		Name:     "Knows",
		SrcTable: personSchema,
		DstTable: personSchema,
	}}); err != nil {
		t.Fatalf("execCreateRelTable failed: %v", err)
	}
	cat.CheckpointInMemoryIfNecessary()
	stats.CheckpointInMemoryIfNecessary()

	people, _ := reg.NodeTable(personSchema.ID)
	alice, _ := people.AppendRow([]vector.Value{{Tag: vector.TypeString, Str: "Alice"}, {Tag: vector.TypeInt64, Int64: 30}})
	bob, _ := people.AppendRow([]vector.Value{{Tag: vector.TypeString, Str: "Bob"}, {Tag: vector.TypeInt64, Int64: 40}})
	carol, _ := people.AppendRow([]vector.Value{{Tag: vector.TypeString, Str: "Carol"}, {Tag: vector.TypeInt64, Int64: 50}})

	knowsSchema, _ := cat.GetRelTable("Knows")
	knows, _ := reg.RelTable(knowsSchema.ID)
	knows.AppendEdge(alice, bob, nil)
	knows.AppendEdge(alice, carol, nil)

	reg.checkpointAll()
	return exec, reg
}

func TestExecuteMatchWithoutHopReturnsAllRows(t *testing.T) {
	exec, _ := setupExecutor(t)
	plan := &MatchPlan{
		Scan:        ScanPlan{NodeTableID: 1},
		SrcVar:      "p",
		ReturnItems: []frontend.BoundReturnItem{{TableVar: "p", PropertyIdx: 0}},
	}
	res, err := exec.Execute(context.Background(), plan, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(res.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(res.Rows))
	}
}

func TestExecuteMatchAppliesScanFilter(t *testing.T) {
	exec, _ := setupExecutor(t)
	plan := &MatchPlan{
		Scan: ScanPlan{
			NodeTableID: 1,
			Filters:     []frontend.BoundFilter{{TableVar: "p", PropertyIdx: 1, Value: vector.Value{Tag: vector.TypeInt64, Int64: 30}}},
		},
		SrcVar:      "p",
		ReturnItems: []frontend.BoundReturnItem{{TableVar: "p", PropertyIdx: 0}},
	}
	res, err := exec.Execute(context.Background(), plan, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0][0].Str != "Alice" {
		t.Fatalf("expected only Alice, got %+v", res.Rows)
	}
}

func TestExecuteMatchWithHopJoinsAndProjectsBothSides(t *testing.T) {
	exec, _ := setupExecutor(t)
	plan := &MatchPlan{
		Scan:   ScanPlan{NodeTableID: 1, Filters: []frontend.BoundFilter{{TableVar: "p", PropertyIdx: 0, Value: vector.Value{Tag: vector.TypeString, Str: "Alice"}}}},
		Hop:    &HopPlan{RelTableID: 2, Direction: Forward, DstTableID: 1, MinHops: 1, MaxHops: 1},
		SrcVar: "p",
		HopVar: "f",
		ReturnItems: []frontend.BoundReturnItem{
			{TableVar: "p", PropertyIdx: 0},
			{TableVar: "f", PropertyIdx: 0},
		},
	}
	res, err := exec.Execute(context.Background(), plan, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 joined rows (alice-bob, alice-carol), got %d", len(res.Rows))
	}
	for _, row := range res.Rows {
		if row[0].Str != "Alice" {
			t.Errorf("expected every row's source to be Alice, got %+v", row)
		}
	}
}

func TestExecuteMatchHopFilterNarrowsJoin(t *testing.T) {
	exec, _ := setupExecutor(t)
	plan := &MatchPlan{
		Scan: ScanPlan{NodeTableID: 1},
		Hop: &HopPlan{
			RelTableID: 2, Direction: Forward, DstTableID: 1, MinHops: 1, MaxHops: 1,
			Filters: []frontend.BoundFilter{{TableVar: "f", PropertyIdx: 0, Value: vector.Value{Tag: vector.TypeString, Str: "Bob"}}},
		},
		SrcVar: "p",
		HopVar: "f",
		ReturnItems: []frontend.BoundReturnItem{
			{TableVar: "p", PropertyIdx: 0},
			{TableVar: "f", PropertyIdx: 0},
		},
	}
	res, err := exec.Execute(context.Background(), plan, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0][1].Str != "Bob" {
		t.Fatalf("expected exactly one alice-bob row, got %+v", res.Rows)
	}
}
