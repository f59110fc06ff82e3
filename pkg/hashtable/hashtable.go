// Package hashtable implements the engine's aggregate hash table: an
// open-addressed, linear-probed table over factorized entries
// (group keys + aggregate states + hash, packed together per entry),
// used by every GROUP BY and ungrouped aggregation in the pipeline.
package hashtable

import (
	"github.com/zaddach/kuzu/pkg/vector"
)

// AggFunc is one aggregate function's accumulator contract, generalized
// from the teacher's AggregateCalculator (InitializeGroup/UpdateAggregate/
// GetFinalValue) into a value-returning, allocation-free shape so many
// group states can live packed in one factorized entry store instead of
// one map entry per group.
type AggFunc interface {
	// Zero returns this function's identity accumulator for a brand-new
	// group.
	Zero() State
	// Update folds one input value into state.
	Update(state State, val vector.Value) State
	// Combine merges two partial accumulators from independent workers
	// or hash-table partitions.
	Combine(a, b State) State
	// Finalize converts an accumulator into its output value.
	Finalize(state State) vector.Value
}

// State is an opaque per-group accumulator. Concrete aggregate functions
// (sum, count, min, max, avg) define their own underlying representation.
type State any

// GroupKey is the tuple of values a group is keyed by.
type GroupKey []vector.Value

func hashValue(v vector.Value, h uint64) uint64 {
	const prime = 1099511628211
	switch v.Tag {
	case vector.TypeInt64:
		h ^= uint64(v.Int64)
	case vector.TypeDouble:
		h ^= uint64(v.Double)
	case vector.TypeBool:
		if v.Bool {
			h ^= 1
		}
	case vector.TypeString:
		for i := 0; i < len(v.Str); i++ {
			h ^= uint64(v.Str[i])
			h *= prime
		}
		return h
	case vector.TypeNodeID:
		h ^= uint64(v.Node.TableID)<<56 | v.Node.Offset
	case vector.TypeRelID:
		h ^= uint64(v.Rel.TableID)<<56 | v.Rel.Offset
	}
	h *= prime
	return h
}

// Hash computes a combined hash of a group key, used both for slot lookup
// and as the value stored alongside each entry.
func Hash(key GroupKey) uint64 {
	h := uint64(14695981039346656037)
	for _, v := range key {
		h = hashValue(v, h)
	}
	return h
}

func keysEqual(a, b GroupKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valuesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b vector.Value) bool {
	if a.Null != b.Null || a.Tag != b.Tag {
		return false
	}
	if a.Null {
		return true
	}
	switch a.Tag {
	case vector.TypeInt64:
		return a.Int64 == b.Int64
	case vector.TypeDouble:
		return a.Double == b.Double
	case vector.TypeBool:
		return a.Bool == b.Bool
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

// entry is one factorized (group key, aggregate states, hash) tuple, the
// `[groupKeys | aggStates | hash]` layout spec.md names, expressed as a Go
// struct rather than a raw byte layout since the kernels that touch it
// are few and the clarity is worth it.
type entry struct {
	key    GroupKey
	states []State
	hash   uint64
}

// Table is the aggregate hash table for one set of AggFuncs over one
// grouping key shape. Slots hold an index into entries (-1 for empty);
// entries grows append-only and is never compacted; Merge folds another
// table's entries into this one.
type Table struct {
	funcs   []AggFunc
	entries []entry
	slots   []int32
}

const emptySlot = -1

// New creates an empty Table for the given aggregate functions.
func New(funcs []AggFunc) *Table {
	t := &Table{funcs: funcs}
	t.resize(16)
	return t
}

func (t *Table) resize(newCap int) {
	newSlots := make([]int32, newCap)
	for i := range newSlots {
		newSlots[i] = emptySlot
	}
	for idx, e := range t.entries {
		t.insertSlot(newSlots, e.hash, int32(idx))
	}
	t.slots = newSlots
}

func (t *Table) insertSlot(slots []int32, hash uint64, entryIdx int32) {
	mask := uint64(len(slots) - 1)
	pos := hash & mask
	for slots[pos] != emptySlot {
		pos = (pos + 1) & mask
	}
	slots[pos] = entryIdx
}

func (t *Table) maybeGrow() {
	// Resize whenever the load factor would exceed 0.5 after one more
	// insert.
	if (len(t.entries)+1)*2 > len(t.slots) {
		t.resize(len(t.slots) * 2)
	}
}

// findOrCreate returns the entry index for key, creating a fresh one
// (zero-initialized per AggFunc) if key hasn't been seen before.
func (t *Table) findOrCreate(key GroupKey) int32 {
	hash := Hash(key)
	mask := uint64(len(t.slots) - 1)
	pos := hash & mask
	for {
		idx := t.slots[pos]
		if idx == emptySlot {
			break
		}
		if t.entries[idx].hash == hash && keysEqual(t.entries[idx].key, key) {
			return idx
		}
		pos = (pos + 1) & mask
	}

	t.maybeGrow()
	// maybeGrow may have rehashed everything; recompute the insertion
	// slot against the current table.
	mask = uint64(len(t.slots) - 1)
	pos = hash & mask
	for t.slots[pos] != emptySlot {
		pos = (pos + 1) & mask
	}

	states := make([]State, len(t.funcs))
	for i, f := range t.funcs {
		states[i] = f.Zero()
	}
	idx := int32(len(t.entries))
	t.entries = append(t.entries, entry{key: key, states: states, hash: hash})
	t.slots[pos] = idx
	return idx
}

// Update folds one input row's values (one per AggFunc, in order) into
// key's group.
func (t *Table) Update(key GroupKey, vals []vector.Value) {
	idx := t.findOrCreate(key)
	e := &t.entries[idx]
	for i, f := range t.funcs {
		e.states[i] = f.Update(e.states[i], vals[i])
	}
}

// NumGroups returns how many distinct groups have been seen.
func (t *Table) NumGroups() int { return len(t.entries) }

// Result is one finalized group: its key and the output value of every
// AggFunc.
type Result struct {
	Key    GroupKey
	Values []vector.Value
}

// Finalize converts every group's accumulators into output values.
func (t *Table) Finalize() []Result {
	out := make([]Result, len(t.entries))
	for i, e := range t.entries {
		vals := make([]vector.Value, len(t.funcs))
		for j, f := range t.funcs {
			vals[j] = f.Finalize(e.states[j])
		}
		out[i] = Result{Key: e.key, Values: vals}
	}
	return out
}

// Merge combines other's groups into t via each AggFunc's Combine,
// implementing the partitioned-build-then-serial-merge pattern: each
// worker aggregates into its own Table, then the results are folded
// together one Table at a time.
func (t *Table) Merge(other *Table) {
	for _, e := range other.entries {
		idx := t.findOrCreate(e.key)
		dst := &t.entries[idx]
		for i, f := range t.funcs {
			dst.states[i] = f.Combine(dst.states[i], e.states[i])
		}
	}
}
