// Package vector implements the engine's value-vector runtime: the
// ≤2048-entry columnar batches that every operator in pkg/pipeline reads
// and writes, a tagged-variant value representation, and the selection
// vector / overflow buffer machinery kernels operate against.
package vector

import "fmt"

// MaxVectorSize bounds how many logical entries a single Vector holds.
const MaxVectorSize = 2048

// TypeTag identifies the logical type carried by a Vector, used to
// dispatch kernels and decode tagged Values.
type TypeTag int

const (
	TypeBool TypeTag = iota
	TypeInt64
	TypeDouble
	TypeString
	TypeNodeID
	TypeRelID
	TypeList
)

func (t TypeTag) String() string {
	switch t {
	case TypeBool:
		return "BOOL"
	case TypeInt64:
		return "INT64"
	case TypeDouble:
		return "DOUBLE"
	case TypeString:
		return "STRING"
	case TypeNodeID:
		return "NODE_ID"
	case TypeRelID:
		return "REL_ID"
	case TypeList:
		return "LIST"
	default:
		return "UNKNOWN"
	}
}

// NodeID identifies a node by the table it belongs to and its offset
// within that table's columns.
type NodeID struct {
	TableID uint8
	Offset  uint64
}

// RelID identifies a relationship the same way.
type RelID struct {
	TableID uint8
	Offset  uint64
}

// Value is a tagged-variant single value read out of a Vector. Exactly
// one of the typed fields is meaningful, selected by Tag; List holds
// nested Values for TypeList.
type Value struct {
	Tag    TypeTag
	Bool   bool
	Int64  int64
	Double float64
	Str    string
	Node   NodeID
	Rel    RelID
	List   []Value
	Null   bool
}

func (v Value) String() string {
	if v.Null {
		return "NULL"
	}
	switch v.Tag {
	case TypeBool:
		return fmt.Sprintf("%v", v.Bool)
	case TypeInt64:
		return fmt.Sprintf("%d", v.Int64)
	case TypeDouble:
		return fmt.Sprintf("%g", v.Double)
	case TypeString:
		return v.Str
	case TypeNodeID:
		return fmt.Sprintf("(%d:%d)", v.Node.TableID, v.Node.Offset)
	case TypeRelID:
		return fmt.Sprintf("[%d:%d]", v.Rel.TableID, v.Rel.Offset)
	case TypeList:
		return fmt.Sprintf("%v", v.List)
	default:
		return "?"
	}
}

// SelectionVector names which logical positions of a DataChunk are live.
// A nil Indices with Flat true means "all positions 0..Count are live" —
// the common unfiltered case, kept cheap to test and iterate.
type SelectionVector struct {
	Indices []int
	Flat    bool
	Count   int
}

// NewFlatSelection builds a selection over the first n positions with no
// filtering applied.
func NewFlatSelection(n int) *SelectionVector {
	return &SelectionVector{Flat: true, Count: n}
}

// NewFilteredSelection builds a selection naming exactly the given
// positions.
func NewFilteredSelection(indices []int) *SelectionVector {
	return &SelectionVector{Indices: indices, Flat: false, Count: len(indices)}
}

// At returns the i-th live logical position.
func (s *SelectionVector) At(i int) int {
	if s.Flat {
		return i
	}
	return s.Indices[i]
}

// OverflowBuffer is an append-only arena for variable-length values
// (strings, lists) referenced from a Vector's fixed-width slots by
// (offset, length).
type OverflowBuffer struct {
	data []byte
}

// Append copies b into the arena and returns its (offset, length).
func (o *OverflowBuffer) Append(b []byte) (offset, length int) {
	offset = len(o.data)
	o.data = append(o.data, b...)
	return offset, len(b)
}

// Slice returns the bytes previously appended at (offset, length).
func (o *OverflowBuffer) Slice(offset, length int) []byte {
	return o.data[offset : offset+length]
}

// Vector is a columnar batch of up to MaxVectorSize values of one TypeTag,
// with a parallel null bitmap.
type Vector struct {
	Tag      TypeTag
	Bools    []bool
	Int64s   []int64
	Doubles  []float64
	StrOffs  []int // into Overflow, paired with StrLens
	StrLens  []int
	Nodes    []NodeID
	Rels     []RelID
	Nulls    []bool
	Overflow *OverflowBuffer
	Capacity int
}

// New allocates a Vector of the given type with room for MaxVectorSize
// entries.
func New(tag TypeTag) *Vector {
	v := &Vector{Tag: tag, Capacity: MaxVectorSize, Nulls: make([]bool, MaxVectorSize)}
	switch tag {
	case TypeBool:
		v.Bools = make([]bool, MaxVectorSize)
	case TypeInt64:
		v.Int64s = make([]int64, MaxVectorSize)
	case TypeDouble:
		v.Doubles = make([]float64, MaxVectorSize)
	case TypeString:
		v.StrOffs = make([]int, MaxVectorSize)
		v.StrLens = make([]int, MaxVectorSize)
		v.Overflow = &OverflowBuffer{}
	case TypeNodeID:
		v.Nodes = make([]NodeID, MaxVectorSize)
	case TypeRelID:
		v.Rels = make([]RelID, MaxVectorSize)
	}
	return v
}

// IsNull reports whether position pos is null.
func (v *Vector) IsNull(pos int) bool { return v.Nulls[pos] }

// SetNull marks position pos null.
func (v *Vector) SetNull(pos int, null bool) { v.Nulls[pos] = null }

// Get decodes the value at logical position pos into a tagged Value.
func (v *Vector) Get(pos int) Value {
	if v.Nulls[pos] {
		return Value{Tag: v.Tag, Null: true}
	}
	switch v.Tag {
	case TypeBool:
		return Value{Tag: v.Tag, Bool: v.Bools[pos]}
	case TypeInt64:
		return Value{Tag: v.Tag, Int64: v.Int64s[pos]}
	case TypeDouble:
		return Value{Tag: v.Tag, Double: v.Doubles[pos]}
	case TypeString:
		b := v.Overflow.Slice(v.StrOffs[pos], v.StrLens[pos])
		return Value{Tag: v.Tag, Str: string(b)}
	case TypeNodeID:
		return Value{Tag: v.Tag, Node: v.Nodes[pos]}
	case TypeRelID:
		return Value{Tag: v.Tag, Rel: v.Rels[pos]}
	default:
		return Value{Tag: v.Tag}
	}
}

// SetString writes a string value at pos into the overflow arena.
func (v *Vector) SetString(pos int, s string) {
	off, length := v.Overflow.Append([]byte(s))
	v.StrOffs[pos] = off
	v.StrLens[pos] = length
	v.Nulls[pos] = false
}

// SetInt64 writes an int64 value at pos.
func (v *Vector) SetInt64(pos int, x int64) {
	v.Int64s[pos] = x
	v.Nulls[pos] = false
}

// SetDouble writes a float64 value at pos.
func (v *Vector) SetDouble(pos int, x float64) {
	v.Doubles[pos] = x
	v.Nulls[pos] = false
}

// SetBool writes a bool value at pos.
func (v *Vector) SetBool(pos int, x bool) {
	v.Bools[pos] = x
	v.Nulls[pos] = false
}

// SetNodeID writes a NodeID value at pos.
func (v *Vector) SetNodeID(pos int, id NodeID) {
	v.Nodes[pos] = id
	v.Nulls[pos] = false
}

// SetRelID writes a RelID value at pos.
func (v *Vector) SetRelID(pos int, id RelID) {
	v.Rels[pos] = id
	v.Nulls[pos] = false
}

// DataChunkState couples a shared SelectionVector with the current count
// of valid rows across a set of Vectors produced together by one
// operator, per spec.md's pipeline contract.
type DataChunkState struct {
	Sel   *SelectionVector
	Count int
}

// NewFlatState builds a DataChunkState over the first n rows, unfiltered.
func NewFlatState(n int) *DataChunkState {
	return &DataChunkState{Sel: NewFlatSelection(n), Count: n}
}
