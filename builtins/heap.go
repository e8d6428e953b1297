// Package builtins installs the intrinsic library (spec.md §4.H): the
// prototypes and native methods both VMs see as ordinary objects on the
// scope chain, bootstrapped once per arena in dependency order.
package builtins

import (
	"context"

	"github.com/avmcore/avm/errz"
	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
)

// heap adapts a *gc.Arena plus *value.Interner to the object.Heap and
// value.Heap interfaces, exactly as vm1.Heap and vm2.Heap do -- builtins
// runs before either VM's Heap type exists (it bootstraps the arena they
// will both wrap), so it keeps its own copy of the same small adapter
// rather than depending on either VM package.
type heap struct {
	arena    *gc.Arena
	interner *value.Interner

	// arrayProto points at the Array prototype handle once Bootstrap has
	// installed it; a pointer rather than a plain field so that every
	// heap value produced before that point (all of them -- install
	// order runs Array before Date/Math) observes the same handle once
	// Bootstrap assigns it.
	arrayProto *gc.Handle
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
func (h heap) Lookup(s value.StringHandle) string { return h.interner.Lookup(s) }

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
	o, ok := h.Resolve(handle)
	if !ok {
		return value.Undefined, nil
	}
	sh, err := h.ToStringValue(ctx, v)
	if err != nil {
		return value.Undefined, err
	}
	_ = o
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

// newNative allocates a native function object, the form every intrinsic
// method takes (spec.md §4.F "Native function objects carry a function
// pointer").
func (h heap) newNative(name string, fn object.NativeFunc) value.Value {
	var result value.Value
	_ = h.arena.Mutate(func(mc *gc.MutationContext) error {
		obj := object.NewVariant(object.VariantFunction, &object.FunctionPayload{
			Name:    h.interner.Intern(name),
			HasName: true,
			Native:  fn,
		})
		handle := mc.New(obj)
		obj.BindSelf(handle)
		result = value.Object(handle)
		return nil
	})
	return result
}

// defineMethod installs a native method on proto under name, not
// enumerable (spec.md §4.H intrinsics are never for..in visible, matching
// every built-in prototype in the original runtime).
func (h heap) defineMethod(proto *object.Object, name string, fn object.NativeFunc) {
	proto.DefineValue(h.interner.Intern(name), h.newNative(name, fn), object.DontEnum)
}

// newPlainObject allocates an empty object, optionally linked to proto.
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

// argAt returns args[i], or Undefined if i is out of range (ActionScript
// natives never arity-fail on missing trailing arguments).
func argAt(args []value.Value, i int) value.Value {
	if i < 0 || i >= len(args) {
		return value.Undefined
	}
	return args[i]
}

func typeErr(format string, a ...interface{}) error {
	return errz.New(errz.Type, errz.SourceLocation{}, nil, format, a...)
}

func argErr(format string, a ...interface{}) error {
	return errz.New(errz.Argument, errz.SourceLocation{}, nil, format, a...)
}

func thisObject(h heap, this value.Value) (*object.Object, gc.Handle, bool) {
	handle, ok := this.AsObject()
	if !ok {
		return nil, gc.Handle{}, false
	}
	o, ok := h.Resolve(handle)
	return o, handle, ok
}
