package table

import (
	"path/filepath"
	"testing"

	"github.com/zaddach/kuzu/pkg/bufmgr"
	"github.com/zaddach/kuzu/pkg/catalog"
	"github.com/zaddach/kuzu/pkg/diskarray"
	"github.com/zaddach/kuzu/pkg/storage/page"
	"github.com/zaddach/kuzu/pkg/vector"
)

func openFileHandle(t *testing.T) (*page.FileHandle, *bufmgr.Manager) {
	t.Helper()
	fh, err := page.Open(filepath.Join(t.TempDir(), "data.kz"), page.CategoryData)
	if err != nil {
		t.Fatalf("page.Open failed: %v", err)
	}
	t.Cleanup(func() { fh.Close() })
	return fh, bufmgr.New(128)
}

func checkpointAll(resources []txnResource) {
	for _, r := range resources {
		r.CheckpointInMemoryIfNecessary()
	}
}

func TestNodeTableAppendAndGetRow(t *testing.T) {
	fh, bm := openFileHandle(t)
	schema := &catalog.NodeTableSchema{ID: 1, Name: "Person", Properties: []catalog.PropertySchema{
		{Name: "name", Type: vector.TypeString},
		{Name: "age", Type: vector.TypeInt64},
	}}
	nt, err := NewNodeTable(fh, bm, schema)
	if err != nil {
		t.Fatalf("NewNodeTable failed: %v", err)
	}

	id, err := nt.AppendRow([]vector.Value{
		{Tag: vector.TypeString, Str: "Alice"},
		{Tag: vector.TypeInt64, Int64: 30},
	})
	if err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}
	checkpointAll(nt.Resources())

	if id.Offset != 0 || id.TableID != 1 {
		t.Errorf("unexpected NodeID: %+v", id)
	}
	row, err := nt.GetRow(id.Offset, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("GetRow failed: %v", err)
	}
	if row[0].Str != "Alice" || row[1].Int64 != 30 {
		t.Errorf("unexpected row: %+v", row)
	}
	if nt.NumRows(diskarray.ReadOnly) != 1 {
		t.Errorf("expected 1 row, got %d", nt.NumRows(diskarray.ReadOnly))
	}
}

func TestNodeTableAppendRowWrongArityFails(t *testing.T) {
	fh, bm := openFileHandle(t)
	schema := &catalog.NodeTableSchema{ID: 1, Name: "Person", Properties: []catalog.PropertySchema{
		{Name: "age", Type: vector.TypeInt64},
	}}
	nt, _ := NewNodeTable(fh, bm, schema)
	if _, err := nt.AppendRow(nil); err == nil {
		t.Error("expected an error for a row with the wrong arity")
	}
}

func TestRelTableAppendAndGetEdge(t *testing.T) {
	fh, bm := openFileHandle(t)
	personSchema := &catalog.NodeTableSchema{ID: 1, Name: "Person"}
	people, _ := NewNodeTable(fh, bm, personSchema)
	alice, _ := people.AppendRow(nil)
	bob, _ := people.AppendRow(nil)
	checkpointAll(people.Resources())

	relSchema := &catalog.RelTableSchema{ID: 2, Name: "Knows", SrcNodeTable: 1, DstNodeTable: 1, Properties: []catalog.PropertySchema{
		{Name: "since", Type: vector.TypeInt64},
	}}
	knows, err := NewRelTable(fh, bm, relSchema)
	if err != nil {
		t.Fatalf("NewRelTable failed: %v", err)
	}
	relID, err := knows.AppendEdge(alice, bob, []vector.Value{{Tag: vector.TypeInt64, Int64: 2020}})
	if err != nil {
		t.Fatalf("AppendEdge failed: %v", err)
	}
	checkpointAll(knows.Resources())

	src, dst, props, err := knows.GetEdge(relID.Offset, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("GetEdge failed: %v", err)
	}
	if src != alice || dst != bob {
		t.Errorf("unexpected endpoints: src=%+v dst=%+v", src, dst)
	}
	if props[0].Int64 != 2020 {
		t.Errorf("unexpected edge property: %+v", props[0])
	}
}

func TestRelTableAdjacencyListerForwardAndBackward(t *testing.T) {
	fh, bm := openFileHandle(t)
	personSchema := &catalog.NodeTableSchema{ID: 1, Name: "Person"}
	people, _ := NewNodeTable(fh, bm, personSchema)
	alice, _ := people.AppendRow(nil)
	bob, _ := people.AppendRow(nil)
	carol, _ := people.AppendRow(nil)
	checkpointAll(people.Resources())

	relSchema := &catalog.RelTableSchema{ID: 2, Name: "Knows", SrcNodeTable: 1, DstNodeTable: 1}
	knows, _ := NewRelTable(fh, bm, relSchema)
	knows.AppendEdge(alice, bob, nil)
	knows.AppendEdge(alice, carol, nil)
	knows.AppendEdge(bob, carol, nil)
	checkpointAll(knows.Resources())

	fwd := &RelTableAdjacencyLister{Rel: knows, Direction: Forward}
	edges, err := fwd.Neighbors(alice, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("Neighbors failed: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("expected 2 forward edges from alice, got %d", len(edges))
	}

	bwd := &RelTableAdjacencyLister{Rel: knows, Direction: Backward}
	edges, err = bwd.Neighbors(carol, diskarray.ReadOnly)
	if err != nil {
		t.Fatalf("Neighbors failed: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("expected 2 backward edges into carol, got %d", len(edges))
	}
	if edges[0].Dst != alice && edges[1].Dst != alice {
		t.Errorf("expected alice among carol's backward neighbors, got %+v", edges)
	}
}
