package pipeline

import "github.com/zaddach/kuzu/pkg/vector"

// Operator transforms one chunk pulled from upstream into zero or one
// output chunk, the unit the Driver clones per worker and chains between
// a MorselSource and a Sink. Per-operator InitGlobalState/InitLocalState
// hooks from SPEC_FULL.md's component design collapse here into Clone:
// any one-time setup an operator needs lives in its constructor (shared,
// read-only), and Clone hands each worker goroutine its own mutable
// scratch state so workers never share it.
type Operator interface {
	// Execute processes one input chunk. A nil chunk with a nil error
	// means this operator produced nothing for this input (e.g. every row
	// was filtered out); callers must stop the chain for this chunk
	// rather than pass nil downstream.
	Execute(chunk *Chunk) (*Chunk, error)

	// Clone returns a worker-local copy carrying independent mutable
	// state.
	Clone() Operator
}

// cloneAll builds one independent copy of each operator in ops, for one
// worker's exclusive use.
func cloneAll(ops []Operator) []Operator {
	out := make([]Operator, len(ops))
	for i, op := range ops {
		out[i] = op.Clone()
	}
	return out
}

// FilterOperator keeps only rows where Predicate accepts the value in
// column ColumnIdx, the vectorized equivalent of the teacher's
// pkg/execution/query/filter.go row-at-a-time predicate evaluation.
type FilterOperator struct {
	ColumnIdx int
	Predicate func(vector.Value) bool
}

func (f *FilterOperator) Execute(chunk *Chunk) (*Chunk, error) {
	var keep []int
	for i := 0; i < chunk.State.Count; i++ {
		pos := chunk.State.Sel.At(i)
		if f.Predicate(chunk.Vectors[f.ColumnIdx].Get(pos)) {
			keep = append(keep, pos)
		}
	}
	if len(keep) == 0 {
		return nil, nil
	}
	return &Chunk{
		Vectors: chunk.Vectors,
		State:   vector.DataChunkState{Sel: vector.NewFilteredSelection(keep), Count: len(keep)},
	}, nil
}

func (f *FilterOperator) Clone() Operator {
	return &FilterOperator{ColumnIdx: f.ColumnIdx, Predicate: f.Predicate}
}

// ProjectOperator narrows a chunk down to the named columns, in order,
// the vectorized equivalent of pkg/execution/query/project.go.
type ProjectOperator struct {
	ColumnIdxs []int
}

func (p *ProjectOperator) Execute(chunk *Chunk) (*Chunk, error) {
	vecs := make([]*vector.Vector, len(p.ColumnIdxs))
	for i, idx := range p.ColumnIdxs {
		vecs[i] = chunk.Vectors[idx]
	}
	return &Chunk{Vectors: vecs, State: chunk.State}, nil
}

func (p *ProjectOperator) Clone() Operator {
	idxs := make([]int, len(p.ColumnIdxs))
	copy(idxs, p.ColumnIdxs)
	return &ProjectOperator{ColumnIdxs: idxs}
}
