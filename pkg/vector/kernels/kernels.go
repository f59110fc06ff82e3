// Package kernels holds the engine's scalar/aggregate operation
// implementations, dispatched by name and argument type tuple rather than
// by a type switch per call site — the same function-pointer-registry
// shape the teacher uses for its aggregate calculators, generalized to
// vectorized scalar operations.
package kernels

import (
	"fmt"
	"sync"

	"github.com/zaddach/kuzu/dberrors"
	"github.com/zaddach/kuzu/pkg/vector"
)

// Kernel computes out[pos] from args[*][pos] for every pos named by sel,
// for the DataChunkState's current Count.
type Kernel func(out *vector.Vector, args []*vector.Vector, sel *vector.SelectionVector, count int)

// Key identifies a kernel by operation name and the TypeTags of its
// arguments, in order.
type Key struct {
	Op      string
	ArgTags [4]vector.TypeTag // fixed arity cap; unused slots left zero (TypeBool) and ignored via ArgN
	ArgN    int
}

func keyOf(op string, tags ...vector.TypeTag) Key {
	var k Key
	k.Op = op
	k.ArgN = len(tags)
	for i, t := range tags {
		if i >= len(k.ArgTags) {
			break
		}
		k.ArgTags[i] = t
	}
	return k
}

// Registry maps (op, arg types) to a Kernel implementation.
type Registry struct {
	mu    sync.RWMutex
	table map[Key]Kernel
}

// global is the process-wide registry populated by init() in this package
// and any domain-specific kernel packages that import it.
var global = &Registry{table: make(map[Key]Kernel)}

// Global returns the process-wide kernel registry.
func Global() *Registry { return global }

// Register installs fn for the given operation name and argument type
// tuple. Panics on a duplicate registration, since that always indicates
// two init() functions fighting over the same kernel — a programming
// error, not a runtime condition.
func (r *Registry) Register(op string, argTags []vector.TypeTag, fn Kernel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := keyOf(op, argTags...)
	if _, exists := r.table[k]; exists {
		panic(fmt.Sprintf("kernels: duplicate registration for %s%v", op, argTags))
	}
	r.table[k] = fn
}

// Lookup finds the kernel for op over the given argument types.
func (r *Registry) Lookup(op string, argTags []vector.TypeTag) (Kernel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k := keyOf(op, argTags...)
	fn, ok := r.table[k]
	if !ok {
		return nil, dberrors.New(dberrors.CategoryRuntime, "NO_SUCH_KERNEL",
			fmt.Sprintf("no kernel registered for %s%v", op, argTags))
	}
	return fn, nil
}

func argTags(nulls bool, vs ...*vector.Vector) []vector.TypeTag {
	tags := make([]vector.TypeTag, len(vs))
	for i, v := range vs {
		tags[i] = v.Tag
	}
	return tags
}

// Apply looks up and runs the kernel for op over args, writing into out.
// Null propagation: before the kernel runs, a position is marked null in
// out whenever any input is null at that position. The kernel is then
// invoked for every position; the built-in kernels skip positions that
// are already null in out.
func Apply(r *Registry, op string, out *vector.Vector, args []*vector.Vector, sel *vector.SelectionVector, count int) error {
	fn, err := r.Lookup(op, argTags(false, args...))
	if err != nil {
		return err
	}
	propagateNulls(out, args, sel, count)
	fn(out, args, sel, count)
	return nil
}

func propagateNulls(out *vector.Vector, args []*vector.Vector, sel *vector.SelectionVector, count int) {
	for i := 0; i < count; i++ {
		pos := sel.At(i)
		null := false
		for _, a := range args {
			if a.IsNull(pos) {
				null = true
				break
			}
		}
		out.SetNull(pos, null)
	}
}
