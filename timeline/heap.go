package timeline

import (
	"context"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
)

// heap adapts a *gc.Arena plus *value.Interner to object.Heap and the
// narrow timeline.Heap surface, the same small adapter builtins.heap
// provides -- timeline installs its own prototypes onto the same arena
// builtins bootstrapped, so it keeps a copy rather than importing
// builtins' unexported type.
type heap struct {
	arena    *gc.Arena
	interner *value.Interner
}

func (h heap) Resolve(handle gc.Handle) (*object.Object, bool) {
	v, ok := h.arena.Get(handle)
	if !ok {
		return nil, false
	}
	o, ok := v.(*object.Object)
	return o, ok
}

func (h heap) Intern(s string) value.StringHandle { return h.interner.Intern(s) }
func (h heap) Lookup(s value.StringHandle) string  { return h.interner.Lookup(s) }
func (h heap) LookupString(s value.StringHandle) string { return h.interner.Lookup(s) }

func (h heap) NewEmptyObject() value.Value {
	var result value.Value
	_ = h.arena.Mutate(func(mc *gc.MutationContext) error {
		result = value.Object(mc.New(object.New()))
		return nil
	})
	return result
}

func (h heap) ToPrimitive(ctx context.Context, v value.Value) (value.Value, error) {
	handle, ok := v.AsObject()
	if !ok {
		return v, nil
	}
	if _, ok := h.Resolve(handle); !ok {
		return value.Undefined, nil
	}
	sh, err := h.ToStringValue(ctx, v)
	if err != nil {
		return value.Undefined, err
	}
	return value.StringOf(sh), nil
}

func (h heap) ToStringValue(ctx context.Context, v value.Value) (value.StringHandle, error) {
	handle, ok := v.AsObject()
	if !ok {
		return h.interner.Intern(v.String()), nil
	}
	o, ok := h.Resolve(handle)
	if !ok {
		return h.interner.Intern("undefined"), nil
	}
	return h.interner.Intern(o.TypeOf()), nil
}

func (h heap) defineMethod(proto *object.Object, name string, fn object.NativeFunc) {
	var fnVal value.Value
	_ = h.arena.Mutate(func(mc *gc.MutationContext) error {
		obj := object.NewVariant(object.VariantFunction, &object.FunctionPayload{
			Name:    h.interner.Intern(name),
			HasName: true,
			Native:  fn,
		})
		handle := mc.New(obj)
		obj.BindSelf(handle)
		fnVal = value.Object(handle)
		return nil
	})
	proto.DefineValue(h.interner.Intern(name), fnVal, object.DontEnum)
}

func (h heap) newPlainObject(proto gc.Handle, hasProto bool) (gc.Handle, *object.Object) {
	var handle gc.Handle
	var obj *object.Object
	_ = h.arena.Mutate(func(mc *gc.MutationContext) error {
		obj = object.New()
		if hasProto {
			obj.SetProto(h, gc.Handle{}, proto)
		}
		handle = mc.New(obj)
		obj.BindSelf(handle)
		return nil
	})
	return handle, obj
}

func argAt(args []value.Value, i int) value.Value {
	if i < 0 || i >= len(args) {
		return value.Undefined
	}
	return args[i]
}

func argNumber(args []value.Value, i int, dflt float64) float64 {
	n, ok := argAt(args, i).AsNumber()
	if !ok {
		return dflt
	}
	return n
}

func argString(h heap, args []value.Value, i int) (string, bool) {
	sh, ok := argAt(args, i).AsString()
	if !ok {
		return "", false
	}
	return h.interner.Lookup(sh), true
}

func argBool(args []value.Value, i int, dflt bool) bool {
	b, ok := argAt(args, i).AsBool()
	if !ok {
		return dflt
	}
	return b
}

// thisClip resolves `this` to the Clip bound by its DisplayPayload,
// returning false if the wrapper is a ghost (spec.md §3 Lifecycle) or
// `this` is not display-backed at all.
func thisClip(h heap, this value.Value) (*Clip, bool) {
	handle, ok := this.AsObject()
	if !ok {
		return nil, false
	}
	o, ok := h.Resolve(handle)
	if !ok || o.Kind() != object.VariantDisplay {
		return nil, false
	}
	p, ok := o.Payload().(*object.DisplayPayload)
	if !ok {
		return nil, false
	}
	node, live := p.Resolve()
	if !live {
		return nil, false
	}
	clip, ok := node.(*Clip)
	return clip, ok
}
