package vector

import "testing"

func TestInt64VectorSetGet(t *testing.T) {
	v := New(TypeInt64)
	v.SetInt64(0, 42)
	v.SetNull(1, true)

	got := v.Get(0)
	if got.Null || got.Int64 != 42 {
		t.Errorf("expected 42, got %+v", got)
	}
	if !v.Get(1).Null {
		t.Error("expected position 1 to be null")
	}
}

func TestStringVectorOverflow(t *testing.T) {
	v := New(TypeString)
	v.SetString(0, "alice")
	v.SetString(1, "bob")

	if got := v.Get(0).Str; got != "alice" {
		t.Errorf("expected alice, got %q", got)
	}
	if got := v.Get(1).Str; got != "bob" {
		t.Errorf("expected bob, got %q", got)
	}
}

func TestFlatSelectionVisitsEveryPosition(t *testing.T) {
	sel := NewFlatSelection(5)
	for i := 0; i < 5; i++ {
		if sel.At(i) != i {
			t.Errorf("flat selection At(%d) = %d, want %d", i, sel.At(i), i)
		}
	}
}

func TestFilteredSelectionVisitsNamedPositions(t *testing.T) {
	sel := NewFilteredSelection([]int{3, 1, 4})
	want := []int{3, 1, 4}
	for i, w := range want {
		if sel.At(i) != w {
			t.Errorf("filtered selection At(%d) = %d, want %d", i, sel.At(i), w)
		}
	}
}
