// Package pipeline implements the engine's pull/push hybrid operator
// pipeline: morsel-driven parallel fan-out over vectorized chunks,
// generalizing the teacher's pull-based iterator chain
// (pkg/execution/query, pkg/iterator) and its goroutine-pool scan
// (pkg/execution/query/parallel_seqscan.go) from tuple-at-a-time rows to
// columnar batches.
package pipeline

import "github.com/zaddach/kuzu/pkg/vector"

// Chunk is one batch of vectors flowing between operators, together with
// the selection state naming which rows of those vectors are currently
// live.
type Chunk struct {
	Vectors []*vector.Vector
	State   vector.DataChunkState
}

// NewChunk wraps vectors in an unfiltered Chunk of count live rows.
func NewChunk(vectors []*vector.Vector, count int) *Chunk {
	return &Chunk{
		Vectors: vectors,
		State:   vector.DataChunkState{Sel: vector.NewFlatSelection(count), Count: count},
	}
}

// Row reads column colIdx at the chunk's i-th live logical row.
func (c *Chunk) Row(colIdx, i int) vector.Value {
	pos := c.State.Sel.At(i)
	return c.Vectors[colIdx].Get(pos)
}
