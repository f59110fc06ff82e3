package optimizer

import (
	"testing"

	"github.com/zaddach/kuzu/pkg/catalog"
	"github.com/zaddach/kuzu/pkg/frontend"
	"github.com/zaddach/kuzu/pkg/statistics"
	"github.com/zaddach/kuzu/pkg/vector"
)

func TestPlanCreateNodeTablePassesThroughUnchanged(t *testing.T) {
	p := NewGreedyPlanner(statistics.New())
	bound := &frontend.BoundCreateNodeTable{Name: "Person", Properties: []catalog.PropertySchema{{Name: "age", Type: vector.TypeInt64}}}
	plan, err := p.Plan(bound)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	cp, ok := plan.(*CreateNodeTablePlan)
	if !ok || cp.Bound != bound {
		t.Fatalf("expected a CreateNodeTablePlan wrapping the bound statement, got %#v", plan)
	}
}

func TestPlanMatchSplitsFiltersByVariable(t *testing.T) {
	stats := statistics.New()
	stats.RegisterNodeTable(1)
	stats.RegisterRelTable(2)
	stats.IncrementNodeCount(1, 10)
	stats.IncrementRelCount(2, statistics.Forward, 1, 25)
	stats.CheckpointInMemoryIfNecessary()

	person := &catalog.NodeTableSchema{ID: 1, Name: "Person"}
	city := &catalog.NodeTableSchema{ID: 3, Name: "City"}
	knows := &catalog.RelTableSchema{ID: 2, Name: "LivesIn", SrcNodeTable: 1, DstNodeTable: 3}

	bound := &frontend.BoundMatch{
		SrcTable: person,
		SrcVar:   "p",
		Hop:      &frontend.BoundHop{RelTable: knows, DstTable: city},
		HopVar:   "c",
		Filters: []frontend.BoundFilter{
			{TableVar: "p", PropertyIdx: 0, Value: vector.Value{Tag: vector.TypeInt64, Int64: 30}},
			{TableVar: "c", PropertyIdx: 1, Value: vector.Value{Tag: vector.TypeString, Str: "Rome"}},
		},
		ReturnItems: []frontend.BoundReturnItem{{TableVar: "p", PropertyIdx: -1}},
	}

	p := NewGreedyPlanner(stats)
	plan, err := p.Plan(bound)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	mp := plan.(*MatchPlan)

	if len(mp.Scan.Filters) != 1 || mp.Scan.Filters[0].TableVar != "p" {
		t.Errorf("expected the p.age filter on the scan, got %+v", mp.Scan.Filters)
	}
	if mp.Hop == nil || len(mp.Hop.Filters) != 1 || mp.Hop.Filters[0].TableVar != "c" {
		t.Errorf("expected the c.name filter on the hop, got %+v", mp.Hop)
	}
	if want := 2.5; mp.Hop.EstFanout != want {
		t.Errorf("expected estimated fanout %v, got %v", want, mp.Hop.EstFanout)
	}
}

func TestPlanMatchWithoutHopLeavesHopNil(t *testing.T) {
	person := &catalog.NodeTableSchema{ID: 1, Name: "Person"}
	bound := &frontend.BoundMatch{SrcTable: person, SrcVar: "p"}
	p := NewGreedyPlanner(statistics.New())
	plan, err := p.Plan(bound)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if plan.(*MatchPlan).Hop != nil {
		t.Error("expected a nil Hop for a single-node pattern")
	}
}
