package builtins

import (
	"context"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
)

// ArrayPrototype holds the handle of the Array intrinsic prototype,
// installed during Bootstrap (spec.md §4.H "Array: dense+sparse;
// length is writable and truncating; concat flattens argument arrays
// exactly one level").
type ArrayPrototype struct {
	Handle gc.Handle
}

func (h heap) installArray() (gc.Handle, *object.Object) {
	handle, proto := h.newPlainObject(gc.Handle{}, false)

	h.defineMethod(proto, "push", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.Undefined, typeErr("push called on a non-object")
		}
		n := o.Length()
		for _, a := range args {
			o.SetArrayElement(n, a)
			n++
		}
		o.SetLength(n)
		return value.Integer(int32(n)), nil
	})

	h.defineMethod(proto, "pop", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.Undefined, nil
		}
		n := o.Length()
		if n == 0 {
			return value.Undefined, nil
		}
		v := o.ArrayElement(n - 1)
		o.DeleteArrayElement(n - 1)
		o.SetLength(n - 1)
		return v, nil
	})

	h.defineMethod(proto, "shift", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.Undefined, nil
		}
		n := o.Length()
		if n == 0 {
			return value.Undefined, nil
		}
		v := o.ArrayElement(0)
		for i := 1; i < n; i++ {
			o.SetArrayElement(i-1, o.ArrayElement(i))
		}
		o.SetLength(n - 1)
		return v, nil
	})

	h.defineMethod(proto, "unshift", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.Undefined, nil
		}
		n := o.Length()
		k := len(args)
		for i := n - 1; i >= 0; i-- {
			o.SetArrayElement(i+k, o.ArrayElement(i))
		}
		for i, a := range args {
			o.SetArrayElement(i, a)
		}
		o.SetLength(n + k)
		return value.Integer(int32(n + k)), nil
	})

	h.defineMethod(proto, "reverse", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return this, nil
		}
		n := o.Length()
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			a, b := o.ArrayElement(i), o.ArrayElement(j)
			o.SetArrayElement(i, b)
			o.SetArrayElement(j, a)
		}
		return this, nil
	})

	h.defineMethod(proto, "slice", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.Undefined, nil
		}
		n := o.Length()
		start := clampIndex(argAt(args, 0), n, 0)
		end := clampIndex(argAt(args, 1), n, n)
		result := h.newArrayInstance()
		resObj, _ := h.Resolve(mustHandle(result))
		idx := 0
		for i := start; i < end; i++ {
			resObj.SetArrayElement(idx, o.ArrayElement(i))
			idx++
		}
		resObj.SetLength(idx)
		return result, nil
	})

	h.defineMethod(proto, "splice", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.Undefined, nil
		}
		n := o.Length()
		start := clampIndex(argAt(args, 0), n, 0)
		delCount := n - start
		if len(args) > 1 {
			if dc, ok := argAt(args, 1).AsInteger(); ok {
				delCount = int(dc)
			}
		}
		if delCount < 0 {
			delCount = 0
		}
		if start+delCount > n {
			delCount = n - start
		}
		removed := h.newArrayInstance()
		removedObj, _ := h.Resolve(mustHandle(removed))
		for i := 0; i < delCount; i++ {
			removedObj.SetArrayElement(i, o.ArrayElement(start+i))
		}
		removedObj.SetLength(delCount)

		inserted := args
		if len(inserted) > 2 {
			inserted = inserted[2:]
		} else {
			inserted = nil
		}
		tail := make([]value.Value, 0, n-start-delCount)
		for i := start + delCount; i < n; i++ {
			tail = append(tail, o.ArrayElement(i))
		}
		idx := start
		for _, v := range inserted {
			o.SetArrayElement(idx, v)
			idx++
		}
		for _, v := range tail {
			o.SetArrayElement(idx, v)
			idx++
		}
		o.SetLength(idx)
		return removed, nil
	})

	h.defineMethod(proto, "concat", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.Undefined, nil
		}
		result := h.newArrayInstance()
		resObj, _ := h.Resolve(mustHandle(result))
		idx := 0
		for i := 0; i < o.Length(); i++ {
			resObj.SetArrayElement(idx, o.ArrayElement(i))
			idx++
		}
		// concat flattens argument arrays exactly one level (spec.md §4.H).
		for _, a := range args {
			if handle, ok := a.AsObject(); ok {
				if other, ok := h.Resolve(handle); ok && other.Kind() != object.VariantFunction {
					for i := 0; i < other.Length(); i++ {
						resObj.SetArrayElement(idx, other.ArrayElement(i))
						idx++
					}
					continue
				}
			}
			resObj.SetArrayElement(idx, a)
			idx++
		}
		resObj.SetLength(idx)
		return result, nil
	})

	h.defineMethod(proto, "join", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.StringOf(h.interner.Intern("")), nil
		}
		sep := ","
		if len(args) > 0 {
			if sh, ok := argAt(args, 0).AsString(); ok {
				sep = h.interner.Lookup(sh)
			}
		}
		var out []byte
		n := o.Length()
		for i := 0; i < n; i++ {
			if i > 0 {
				out = append(out, sep...)
			}
			v := o.ArrayElement(i)
			if !v.IsNullish() {
				out = append(out, elementString(h, v)...)
			}
		}
		return value.StringOf(h.interner.Intern(string(out))), nil
	})

	h.defineMethod(proto, "indexOf", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.Integer(-1), nil
		}
		target := argAt(args, 0)
		for i := 0; i < o.Length(); i++ {
			if o.ArrayElement(i).StrictEquals(target) {
				return value.Integer(int32(i)), nil
			}
		}
		return value.Integer(-1), nil
	})

	h.defineMethod(proto, "toString", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.StringOf(h.interner.Intern("")), nil
		}
		var out []byte
		n := o.Length()
		for i := 0; i < n; i++ {
			if i > 0 {
				out = append(out, ',')
			}
			v := o.ArrayElement(i)
			if !v.IsNullish() {
				out = append(out, elementString(h, v)...)
			}
		}
		return value.StringOf(h.interner.Intern(string(out))), nil
	})

	proto.DefineValue(h.interner.Intern("length"), value.Integer(0), object.DontEnum)
	return handle, proto
}

// newArrayInstance allocates a plain object linked to the Array prototype.
// Bootstrap assigns *h.arrayProto once installArray returns, and every
// heap value (including the ones closed over by methods installed before
// that point) shares the same pointer, so by the time any native method
// actually runs the link is always present.
func (h heap) newArrayInstance() value.Value {
	var proto gc.Handle
	if h.arrayProto != nil {
		proto = *h.arrayProto
	}
	handle, _ := h.newPlainObject(proto, proto != gc.Handle{})
	return value.Object(handle)
}

func mustHandle(v value.Value) gc.Handle {
	handle, _ := v.AsObject()
	return handle
}

func clampIndex(v value.Value, n int, dflt int) int {
	i, ok := v.AsInteger()
	if !ok {
		return dflt
	}
	idx := int(i)
	if idx < 0 {
		idx += n
		if idx < 0 {
			idx = 0
		}
	}
	if idx > n {
		idx = n
	}
	return idx
}

func elementString(h heap, v value.Value) string {
	if sh, ok := v.AsString(); ok {
		return h.interner.Lookup(sh)
	}
	return v.String()
}
