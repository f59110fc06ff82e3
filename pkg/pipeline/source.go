package pipeline

import (
	"sync"

	"github.com/zaddach/kuzu/pkg/diskarray"
	"github.com/zaddach/kuzu/pkg/storage/column"
	"github.com/zaddach/kuzu/pkg/vector"
)

// MorselSource hands out chunks to whichever worker goroutine calls Next
// next, the columnar-batch analogue of the teacher's page queue in
// parallel_seqscan.go. Implementations must be safe for concurrent use.
type MorselSource interface {
	// Next returns the next morsel's chunk; ok is false once the source
	// is exhausted.
	Next() (chunk *Chunk, ok bool, err error)
}

// Int64ColumnSource scans an INT64 property column morsel by morsel,
// each morsel holding up to MorselSize rows starting at the next
// unclaimed offset — the direct columnar equivalent of
// parallel_seqscan.go's shared page-number work queue, except the queue
// here is an offset counter guarded by a mutex instead of a channel,
// since morsel boundaries are computed rather than enumerated up front.
type Int64ColumnSource struct {
	col        *column.Column[int64]
	trx        diskarray.TrxType
	morselSize int

	mu   sync.Mutex
	next uint64
}

// NewInt64ColumnSource scans col with the given trx view, morselSize rows
// at a time (vector.MaxVectorSize if morselSize <= 0).
func NewInt64ColumnSource(col *column.Column[int64], trx diskarray.TrxType, morselSize int) *Int64ColumnSource {
	if morselSize <= 0 {
		morselSize = vector.MaxVectorSize
	}
	return &Int64ColumnSource{col: col, trx: trx, morselSize: morselSize}
}

func (s *Int64ColumnSource) Next() (*Chunk, bool, error) {
	total := s.col.NumRows(s.trx)

	s.mu.Lock()
	start := s.next
	if start >= total {
		s.mu.Unlock()
		return nil, false, nil
	}
	count := s.morselSize
	if remaining := total - start; uint64(count) > remaining {
		count = int(remaining)
	}
	s.next = start + uint64(count)
	s.mu.Unlock()

	vec := vector.New(vector.TypeInt64)
	err := column.ReadBySequentialCopy(s.col, start, count, s.trx, func(pos int, v int64) {
		vec.SetInt64(pos, v)
	})
	if err != nil {
		return nil, false, err
	}
	return NewChunk([]*vector.Vector{vec}, count), true, nil
}

// ChunkSliceSource hands out a fixed, precomputed list of chunks, one per
// Next() call — used to drive a pipeline over chunks that were built some
// other way (a recursive-join scanner, a test fixture) rather than read
// directly off a column.
type ChunkSliceSource struct {
	mu     sync.Mutex
	chunks []*Chunk
	idx    int
}

// NewChunkSliceSource wraps chunks for morsel-at-a-time consumption.
func NewChunkSliceSource(chunks []*Chunk) *ChunkSliceSource {
	return &ChunkSliceSource{chunks: chunks}
}

func (s *ChunkSliceSource) Next() (*Chunk, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx >= len(s.chunks) {
		return nil, false, nil
	}
	c := s.chunks[s.idx]
	s.idx++
	return c, true, nil
}
