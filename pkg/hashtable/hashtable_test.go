package hashtable

import (
	"testing"

	"github.com/zaddach/kuzu/pkg/vector"
)

func int64Key(v int64) GroupKey {
	return GroupKey{{Tag: vector.TypeInt64, Int64: v}}
}

func int64Val(v int64) vector.Value {
	return vector.Value{Tag: vector.TypeInt64, Int64: v}
}

func TestUpdateGroupsByKey(t *testing.T) {
	table := New([]AggFunc{CountFunc{}})
	table.Update(int64Key(1), []vector.Value{int64Val(0)})
	table.Update(int64Key(1), []vector.Value{int64Val(0)})
	table.Update(int64Key(2), []vector.Value{int64Val(0)})

	if table.NumGroups() != 2 {
		t.Fatalf("expected 2 groups, got %d", table.NumGroups())
	}

	results := table.Finalize()
	counts := map[int64]int64{}
	for _, r := range results {
		counts[r.Key[0].Int64] = r.Values[0].Int64
	}
	if counts[1] != 2 || counts[2] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestSumAndAvg(t *testing.T) {
	table := New([]AggFunc{SumFunc{}, AvgFunc{}})
	rows := []int64{10, 20, 30}
	for _, v := range rows {
		table.Update(int64Key(1), []vector.Value{int64Val(v), int64Val(v)})
	}
	results := table.Finalize()
	if len(results) != 1 {
		t.Fatalf("expected 1 group, got %d", len(results))
	}
	sum := results[0].Values[0].Double
	avg := results[0].Values[1].Double
	if sum != 60 {
		t.Errorf("expected sum 60, got %v", sum)
	}
	if avg != 20 {
		t.Errorf("expected avg 20, got %v", avg)
	}
}

func TestMinMaxIgnoresNulls(t *testing.T) {
	table := New([]AggFunc{MinFunc{}, MaxFunc{}})
	table.Update(int64Key(1), []vector.Value{int64Val(5), int64Val(5)})
	table.Update(int64Key(1), []vector.Value{{Tag: vector.TypeInt64, Null: true}, {Tag: vector.TypeInt64, Null: true}})
	table.Update(int64Key(1), []vector.Value{int64Val(1), int64Val(9)})

	results := table.Finalize()
	min := results[0].Values[0].Double
	max := results[0].Values[1].Double
	if min != 1 {
		t.Errorf("expected min 1, got %v", min)
	}
	if max != 9 {
		t.Errorf("expected max 9, got %v", max)
	}
}

func TestMinFinalizeOnNoRowsIsNull(t *testing.T) {
	f := MinFunc{}
	v := f.Finalize(f.Zero())
	if !v.Null {
		t.Error("expected MIN over no rows to finalize to null")
	}
}

func TestMergeCombinesPartitions(t *testing.T) {
	a := New([]AggFunc{SumFunc{}})
	a.Update(int64Key(1), []vector.Value{int64Val(10)})
	a.Update(int64Key(2), []vector.Value{int64Val(1)})

	b := New([]AggFunc{SumFunc{}})
	b.Update(int64Key(1), []vector.Value{int64Val(5)})
	b.Update(int64Key(3), []vector.Value{int64Val(7)})

	a.Merge(b)
	if a.NumGroups() != 3 {
		t.Fatalf("expected 3 groups after merge, got %d", a.NumGroups())
	}
	sums := map[int64]float64{}
	for _, r := range a.Finalize() {
		sums[r.Key[0].Int64] = r.Values[0].Double
	}
	if sums[1] != 15 || sums[2] != 1 || sums[3] != 7 {
		t.Errorf("unexpected merged sums: %v", sums)
	}
}

func TestResizeAcrossManyGroups(t *testing.T) {
	table := New([]AggFunc{CountFunc{}})
	const n = 500
	for i := 0; i < n; i++ {
		table.Update(int64Key(int64(i)), []vector.Value{int64Val(0)})
	}
	if table.NumGroups() != n {
		t.Fatalf("expected %d groups, got %d", n, table.NumGroups())
	}
	for i := 0; i < n; i++ {
		idx := table.findOrCreate(int64Key(int64(i)))
		if table.entries[idx].key[0].Int64 != int64(i) {
			t.Fatalf("lookup for key %d returned wrong entry", i)
		}
	}
}

func TestCountDistinct(t *testing.T) {
	var currentGroupHash uint64
	f := NewCountDistinctFunc(func() uint64 { return currentGroupHash })
	table := New([]AggFunc{f})

	rows := []struct {
		group int64
		val   int64
	}{
		{1, 100}, {1, 100}, {1, 200}, {2, 100},
	}
	for _, r := range rows {
		currentGroupHash = Hash(int64Key(r.group))
		table.Update(int64Key(r.group), []vector.Value{int64Val(r.val)})
	}

	results := table.Finalize()
	counts := map[int64]int64{}
	for _, r := range results {
		counts[r.Key[0].Int64] = r.Values[0].Int64
	}
	if counts[1] != 2 {
		t.Errorf("expected group 1 distinct count 2, got %d", counts[1])
	}
	if counts[2] != 1 {
		t.Errorf("expected group 2 distinct count 1, got %d", counts[2])
	}
}
