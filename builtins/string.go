package builtins

import (
	"context"
	"strings"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
)

// installString builds the String intrinsic prototype (spec.md §4.H);
// methods operate on the primitive string value passed in `this`'s
// wrapper, produced by value.ToObject's VM1 silent-wrap path or VM2's
// explicit `String` wrapper construction.
func (h heap) installString() (gc.Handle, *object.Object) {
	handle, proto := h.newPlainObject(gc.Handle{}, false)

	thisString := func(this value.Value) string {
		if sh, ok := this.AsString(); ok {
			return h.interner.Lookup(sh)
		}
		if o, _, ok := thisObject(h, this); ok {
			if v, ok := o.GetLocal(h.interner.Intern("__primitive__")); ok {
				if sh, ok := v.AsString(); ok {
					return h.interner.Lookup(sh)
				}
			}
		}
		return ""
	}

	h.defineMethod(proto, "charAt", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		s := []rune(thisString(this))
		i, _ := argAt(args, 0).AsInteger()
		if int(i) < 0 || int(i) >= len(s) {
			return value.StringOf(h.interner.Intern("")), nil
		}
		return value.StringOf(h.interner.Intern(string(s[i]))), nil
	})
	h.defineMethod(proto, "charCodeAt", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		s := []rune(thisString(this))
		i, _ := argAt(args, 0).AsInteger()
		if int(i) < 0 || int(i) >= len(s) {
			return value.Number(nan()), nil
		}
		return value.Number(float64(s[i])), nil
	})
	h.defineMethod(proto, "indexOf", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		s := thisString(this)
		needle := elementString(h, argAt(args, 0))
		start := 0
		if n, ok := argAt(args, 1).AsInteger(); ok && int(n) > 0 {
			start = int(n)
		}
		if start > len(s) {
			return value.Integer(-1), nil
		}
		idx := strings.Index(s[start:], needle)
		if idx < 0 {
			return value.Integer(-1), nil
		}
		return value.Integer(int32(idx + start)), nil
	})
	h.defineMethod(proto, "lastIndexOf", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		s := thisString(this)
		needle := elementString(h, argAt(args, 0))
		return value.Integer(int32(strings.LastIndex(s, needle))), nil
	})
	h.defineMethod(proto, "substring", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		r := []rune(thisString(this))
		n := len(r)
		start := clampIndex(argAt(args, 0), n, 0)
		end := clampIndex(argAt(args, 1), n, n)
		if start > end {
			start, end = end, start
		}
		return value.StringOf(h.interner.Intern(string(r[start:end]))), nil
	})
	h.defineMethod(proto, "toUpperCase", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return value.StringOf(h.interner.Intern(strings.ToUpper(thisString(this)))), nil
	})
	h.defineMethod(proto, "toLowerCase", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return value.StringOf(h.interner.Intern(strings.ToLower(thisString(this)))), nil
	})
	h.defineMethod(proto, "split", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		s := thisString(this)
		result := h.newArrayInstance()
		resObj, _ := h.Resolve(mustHandle(result))
		sep, hasSep := argAt(args, 0).AsString()
		var parts []string
		if !hasSep {
			parts = []string{s}
		} else {
			parts = strings.Split(s, h.interner.Lookup(sep))
		}
		for i, p := range parts {
			resObj.SetArrayElement(i, value.StringOf(h.interner.Intern(p)))
		}
		resObj.SetLength(len(parts))
		return result, nil
	})
	h.defineMethod(proto, "toString", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return value.StringOf(h.interner.Intern(thisString(this))), nil
	})
	h.defineMethod(proto, "valueOf", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return value.StringOf(h.interner.Intern(thisString(this))), nil
	})

	return handle, proto
}

func nan() float64 {
	var z float64
	return z / z
}
