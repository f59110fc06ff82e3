package hashtable

import "github.com/zaddach/kuzu/pkg/vector"

// SumFunc implements SUM over INT64 or DOUBLE inputs, accumulating as a
// float64 regardless of input type (matching the teacher's
// FloatCalculator's GetResultType choice of always producing FloatType
// for SUM/AVG).
type SumFunc struct{}

func (SumFunc) Zero() State { return float64(0) }
func (SumFunc) Update(state State, val vector.Value) State {
	if val.Null {
		return state
	}
	return state.(float64) + numeric(val)
}
func (SumFunc) Combine(a, b State) State { return a.(float64) + b.(float64) }
func (SumFunc) Finalize(state State) vector.Value {
	return vector.Value{Tag: vector.TypeDouble, Double: state.(float64)}
}

func numeric(v vector.Value) float64 {
	if v.Tag == vector.TypeInt64 {
		return float64(v.Int64)
	}
	return v.Double
}

// CountFunc implements COUNT(x) / COUNT(*): COUNT(*) is modeled by always
// passing a non-null placeholder value.
type CountFunc struct{}

func (CountFunc) Zero() State { return int64(0) }
func (CountFunc) Update(state State, val vector.Value) State {
	if val.Null {
		return state
	}
	return state.(int64) + 1
}
func (CountFunc) Combine(a, b State) State { return a.(int64) + b.(int64) }
func (CountFunc) Finalize(state State) vector.Value {
	return vector.Value{Tag: vector.TypeInt64, Int64: state.(int64)}
}

// minMaxState tracks whether any non-null value has been seen yet,
// distinguishing "no rows" from "a value equal to the zero value".
type minMaxState struct {
	set bool
	val float64
}

// MinFunc implements MIN over numeric inputs.
type MinFunc struct{}

func (MinFunc) Zero() State { return minMaxState{} }
func (MinFunc) Update(state State, val vector.Value) State {
	if val.Null {
		return state
	}
	s := state.(minMaxState)
	v := numeric(val)
	if !s.set || v < s.val {
		return minMaxState{set: true, val: v}
	}
	return s
}
func (MinFunc) Combine(a, b State) State {
	sa, sb := a.(minMaxState), b.(minMaxState)
	if !sa.set {
		return sb
	}
	if !sb.set || sa.val < sb.val {
		return sa
	}
	return sb
}
func (MinFunc) Finalize(state State) vector.Value {
	s := state.(minMaxState)
	if !s.set {
		return vector.Value{Tag: vector.TypeDouble, Null: true}
	}
	return vector.Value{Tag: vector.TypeDouble, Double: s.val}
}

// MaxFunc implements MAX over numeric inputs.
type MaxFunc struct{}

func (MaxFunc) Zero() State { return minMaxState{} }
func (MaxFunc) Update(state State, val vector.Value) State {
	if val.Null {
		return state
	}
	s := state.(minMaxState)
	v := numeric(val)
	if !s.set || v > s.val {
		return minMaxState{set: true, val: v}
	}
	return s
}
func (MaxFunc) Combine(a, b State) State {
	sa, sb := a.(minMaxState), b.(minMaxState)
	if !sa.set {
		return sb
	}
	if !sb.set || sa.val > sb.val {
		return sa
	}
	return sb
}
func (MaxFunc) Finalize(state State) vector.Value {
	s := state.(minMaxState)
	if !s.set {
		return vector.Value{Tag: vector.TypeDouble, Null: true}
	}
	return vector.Value{Tag: vector.TypeDouble, Double: s.val}
}

// avgState accumulates a running sum and count so Combine can merge two
// partial averages correctly (merging two plain averages directly would
// weight partitions unevenly).
type avgState struct {
	sum   float64
	count int64
}

// AvgFunc implements AVG over numeric inputs.
type AvgFunc struct{}

func (AvgFunc) Zero() State { return avgState{} }
func (AvgFunc) Update(state State, val vector.Value) State {
	if val.Null {
		return state
	}
	s := state.(avgState)
	s.sum += numeric(val)
	s.count++
	return s
}
func (AvgFunc) Combine(a, b State) State {
	sa, sb := a.(avgState), b.(avgState)
	return avgState{sum: sa.sum + sb.sum, count: sa.count + sb.count}
}
func (AvgFunc) Finalize(state State) vector.Value {
	s := state.(avgState)
	if s.count == 0 {
		return vector.Value{Tag: vector.TypeDouble, Null: true}
	}
	return vector.Value{Tag: vector.TypeDouble, Double: s.sum / float64(s.count)}
}
