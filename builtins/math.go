package builtins

import (
	"context"
	"math"
	"math/rand"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
)

// installMath builds the Math intrinsic object (spec.md §4.H): a plain
// object (not a constructor) exposing number functions and constants,
// grounded on the teacher's modules/math and modules/rand native-function
// shape -- (ctx, this, args) -> (Value, error) rather than a class with a
// prototype chain, since Math is never instantiated.
func (h heap) installMath() (gc.Handle, *object.Object) {
	handle, obj := h.newPlainObject(gc.Handle{}, false)

	one := func(name string, fn func(float64) float64) {
		h.defineMethod(obj, name, func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
			n, _ := argAt(args, 0).AsNumber()
			return value.Number(fn(n)), nil
		})
	}
	one("abs", math.Abs)
	one("sqrt", math.Sqrt)
	one("sin", math.Sin)
	one("cos", math.Cos)
	one("tan", math.Tan)
	one("asin", math.Asin)
	one("acos", math.Acos)
	one("atan", math.Atan)
	one("exp", math.Exp)
	one("log", math.Log)
	one("ceil", math.Ceil)
	one("floor", math.Floor)
	one("round", func(f float64) float64 { return math.Floor(f + 0.5) })

	h.defineMethod(obj, "atan2", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		y, _ := argAt(args, 0).AsNumber()
		x, _ := argAt(args, 1).AsNumber()
		return value.Number(math.Atan2(y, x)), nil
	})
	h.defineMethod(obj, "pow", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		x, _ := argAt(args, 0).AsNumber()
		y, _ := argAt(args, 1).AsNumber()
		return value.Number(math.Pow(x, y)), nil
	})
	h.defineMethod(obj, "max", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Number(math.Inf(-1)), nil
		}
		best, _ := args[0].AsNumber()
		for _, a := range args[1:] {
			n, _ := a.AsNumber()
			if math.IsNaN(n) {
				return value.Number(math.NaN()), nil
			}
			if n > best {
				best = n
			}
		}
		return value.Number(best), nil
	})
	h.defineMethod(obj, "min", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Number(math.Inf(1)), nil
		}
		best, _ := args[0].AsNumber()
		for _, a := range args[1:] {
			n, _ := a.AsNumber()
			if math.IsNaN(n) {
				return value.Number(math.NaN()), nil
			}
			if n < best {
				best = n
			}
		}
		return value.Number(best), nil
	})
	h.defineMethod(obj, "random", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return value.Number(rand.Float64()), nil
	})

	obj.DefineValue(h.interner.Intern("PI"), value.Number(math.Pi), object.DontEnum|object.ReadOnly)
	obj.DefineValue(h.interner.Intern("E"), value.Number(math.E), object.DontEnum|object.ReadOnly)
	obj.DefineValue(h.interner.Intern("LN2"), value.Number(math.Ln2), object.DontEnum|object.ReadOnly)
	obj.DefineValue(h.interner.Intern("SQRT2"), value.Number(math.Sqrt2), object.DontEnum|object.ReadOnly)

	return handle, obj
}
