package kernels

import "github.com/zaddach/kuzu/pkg/vector"

// init registers the built-in scalar kernels: "+" over INT64 and DOUBLE
// pairs, "=" and "<" over INT64 pairs, and "=" over STRING pairs.
func init() {
	reg := Global()

	reg.Register("+", []vector.TypeTag{vector.TypeInt64, vector.TypeInt64}, func(out *vector.Vector, args []*vector.Vector, sel *vector.SelectionVector, count int) {
		a, b := args[0], args[1]
		for i := 0; i < count; i++ {
			p := sel.At(i)
			if out.IsNull(p) {
				continue
			}
			out.SetInt64(p, a.Int64s[p]+b.Int64s[p])
		}
	})
	reg.Register("+", []vector.TypeTag{vector.TypeDouble, vector.TypeDouble}, func(out *vector.Vector, args []*vector.Vector, sel *vector.SelectionVector, count int) {
		a, b := args[0], args[1]
		for i := 0; i < count; i++ {
			p := sel.At(i)
			if out.IsNull(p) {
				continue
			}
			out.SetDouble(p, a.Doubles[p]+b.Doubles[p])
		}
	})
	reg.Register("=", []vector.TypeTag{vector.TypeInt64, vector.TypeInt64}, func(out *vector.Vector, args []*vector.Vector, sel *vector.SelectionVector, count int) {
		a, b := args[0], args[1]
		for i := 0; i < count; i++ {
			p := sel.At(i)
			if out.IsNull(p) {
				continue
			}
			out.SetBool(p, a.Int64s[p] == b.Int64s[p])
		}
	})
	reg.Register("<", []vector.TypeTag{vector.TypeInt64, vector.TypeInt64}, func(out *vector.Vector, args []*vector.Vector, sel *vector.SelectionVector, count int) {
		a, b := args[0], args[1]
		for i := 0; i < count; i++ {
			p := sel.At(i)
			if out.IsNull(p) {
				continue
			}
			out.SetBool(p, a.Int64s[p] < b.Int64s[p])
		}
	})
	reg.Register("=", []vector.TypeTag{vector.TypeString, vector.TypeString}, func(out *vector.Vector, args []*vector.Vector, sel *vector.SelectionVector, count int) {
		a, b := args[0], args[1]
		for i := 0; i < count; i++ {
			p := sel.At(i)
			if out.IsNull(p) {
				continue
			}
			out.SetBool(p, a.Get(p).Str == b.Get(p).Str)
		}
	})
}
