package kernels

import (
	"testing"

	"github.com/zaddach/kuzu/pkg/vector"
)

func TestAddInt64Kernel(t *testing.T) {
	a := vector.New(vector.TypeInt64)
	b := vector.New(vector.TypeInt64)
	out := vector.New(vector.TypeInt64)
	a.SetInt64(0, 2)
	b.SetInt64(0, 3)
	a.SetInt64(1, 10)
	b.SetInt64(1, 20)

	sel := vector.NewFlatSelection(2)
	if err := Apply(Global(), "+", out, []*vector.Vector{a, b}, sel, 2); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := out.Get(0).Int64; got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
	if got := out.Get(1).Int64; got != 30 {
		t.Errorf("expected 30, got %d", got)
	}
}

func TestNullPropagation(t *testing.T) {
	a := vector.New(vector.TypeInt64)
	b := vector.New(vector.TypeInt64)
	out := vector.New(vector.TypeInt64)
	a.SetInt64(0, 2)
	b.SetNull(0, true)

	sel := vector.NewFlatSelection(1)
	if err := Apply(Global(), "+", out, []*vector.Vector{a, b}, sel, 1); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !out.IsNull(0) {
		t.Error("expected null propagation when one argument is null")
	}
}

func TestLookupMissingKernel(t *testing.T) {
	if _, err := Global().Lookup("nonexistent-op", []vector.TypeTag{vector.TypeBool}); err == nil {
		t.Error("expected error looking up an unregistered kernel")
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	r := &Registry{table: make(map[Key]Kernel)}
	noop := func(*vector.Vector, []*vector.Vector, *vector.SelectionVector, int) {}
	r.Register("dup", []vector.TypeTag{vector.TypeInt64}, noop)
	r.Register("dup", []vector.TypeTag{vector.TypeInt64}, noop)
}
