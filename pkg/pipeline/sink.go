package pipeline

import (
	"sync"

	"github.com/zaddach/kuzu/pkg/hashtable"
	"github.com/zaddach/kuzu/pkg/vector"
)

// Sink accumulates the chunks one pipeline worker produces and merges
// with the sinks of every other worker once all have finished, the
// vectorized analogue of the teacher's query package reducing results
// from parallel workers (parallel_seqscan.go's result channel, generalized
// to a per-worker accumulator since aggregation needs more than simple
// concatenation).
type Sink interface {
	Consume(chunk *Chunk) error
	// Merge folds another worker's sink (of the same concrete type) into
	// this one.
	Merge(other Sink) error
	// Finalize converts accumulated state into output chunks.
	Finalize() ([]*Chunk, error)
}

// CollectSink simply concatenates every chunk it sees, for pipelines with
// no reduction stage (scan + filter + project straight to output).
type CollectSink struct {
	mu     sync.Mutex
	chunks []*Chunk
}

// NewCollectSink builds an empty CollectSink.
func NewCollectSink() *CollectSink { return &CollectSink{} }

func (s *CollectSink) Consume(chunk *Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunk)
	return nil
}

func (s *CollectSink) Merge(other Sink) error {
	o := other.(*CollectSink)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, o.chunks...)
	return nil
}

func (s *CollectSink) Finalize() ([]*Chunk, error) { return s.chunks, nil }

// AggregateSink feeds every consumed row into a hashtable.Table keyed by
// KeyColumns, aggregating ValueColumns with Funcs, and merges across
// workers via hashtable.Table.Merge — the partitioned-build-then-serial-
// merge pattern SPEC_FULL.md names for C9's aggregate sinks.
type AggregateSink struct {
	KeyColumns   []int
	ValueColumns []int
	Funcs        []hashtable.AggFunc

	table *hashtable.Table
}

// NewAggregateSink returns a factory suitable for Driver.NewSink: each
// worker gets its own Table built from the same key/value column layout
// and aggregate functions.
func NewAggregateSink(keyColumns, valueColumns []int, funcs []hashtable.AggFunc) func() Sink {
	return func() Sink {
		return &AggregateSink{
			KeyColumns:   keyColumns,
			ValueColumns: valueColumns,
			Funcs:        funcs,
			table:        hashtable.New(funcs),
		}
	}
}

func (s *AggregateSink) Consume(chunk *Chunk) error {
	for i := 0; i < chunk.State.Count; i++ {
		key := make(hashtable.GroupKey, len(s.KeyColumns))
		for j, col := range s.KeyColumns {
			key[j] = chunk.Row(col, i)
		}
		vals := make([]vector.Value, len(s.ValueColumns))
		for j, col := range s.ValueColumns {
			vals[j] = chunk.Row(col, i)
		}
		s.table.Update(key, vals)
	}
	return nil
}

func (s *AggregateSink) Merge(other Sink) error {
	o := other.(*AggregateSink)
	s.table.Merge(o.table)
	return nil
}

// Finalize emits one chunk per MaxVectorSize groups, each row holding the
// group's key columns followed by its finalized aggregate values.
func (s *AggregateSink) Finalize() ([]*Chunk, error) {
	results := s.table.Finalize()
	if len(results) == 0 {
		return nil, nil
	}

	numCols := len(s.KeyColumns) + len(s.Funcs)
	var chunks []*Chunk
	for start := 0; start < len(results); start += vector.MaxVectorSize {
		end := start + vector.MaxVectorSize
		if end > len(results) {
			end = len(results)
		}
		batch := results[start:end]

		vecs := make([]*vector.Vector, numCols)
		for c := 0; c < numCols; c++ {
			vecs[c] = vector.New(valueTag(batch, c, len(s.KeyColumns)))
		}
		for i, r := range batch {
			for c := 0; c < len(s.KeyColumns); c++ {
				writeValue(vecs[c], i, r.Key[c])
			}
			for c := 0; c < len(s.Funcs); c++ {
				writeValue(vecs[len(s.KeyColumns)+c], i, r.Values[c])
			}
		}
		chunks = append(chunks, NewChunk(vecs, len(batch)))
	}
	return chunks, nil
}

func valueTag(results []hashtable.Result, col, numKeys int) vector.TypeTag {
	if col < numKeys {
		return results[0].Key[col].Tag
	}
	return results[0].Values[col-numKeys].Tag
}

func writeValue(v *vector.Vector, pos int, val vector.Value) {
	if val.Null {
		v.SetNull(pos, true)
		return
	}
	switch val.Tag {
	case vector.TypeInt64:
		v.SetInt64(pos, val.Int64)
	case vector.TypeDouble:
		v.SetDouble(pos, val.Double)
	case vector.TypeBool:
		v.SetBool(pos, val.Bool)
	case vector.TypeString:
		v.SetString(pos, val.Str)
	case vector.TypeNodeID:
		v.SetNodeID(pos, val.Node)
	case vector.TypeRelID:
		v.SetRelID(pos, val.Rel)
	}
}
