package vm2

import (
	"context"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
)

// Heap adapts a gc.Arena plus string interner to the object/value Heap
// interfaces, exactly as vm1.Heap does; VM2 does not need the VM1
// case-fold fallback, so its Get/Set calls always pass fold=nil.
type Heap struct {
	Arena    *gc.Arena
	Interner *value.Interner
}

func (h *Heap) Resolve(handle gc.Handle) (*object.Object, bool) {
	v, ok := h.Arena.Get(handle)
	if !ok {
		return nil, false
	}
	o, ok := v.(*object.Object)
	return o, ok
}

func (h *Heap) LookupString(s value.StringHandle) string { return h.Interner.Lookup(s) }

func (h *Heap) Intern(s string) value.StringHandle { return h.Interner.Intern(s) }

func (h *Heap) Lookup(s value.StringHandle) string { return h.Interner.Lookup(s) }

func (h *Heap) NewEmptyObject() value.Value {
	var result value.Value
	_ = h.Arena.Mutate(func(mc *gc.MutationContext) error {
		result = value.Object(mc.New(object.New()))
		return nil
	})
	return result
}

// NewFunctionObject allocates a function object wrapping a bytecode
// method (spec.md §4.G "newfunction": "a new function object is created,
// closing over the current scope stack").
func (h *Heap) NewFunctionObject(m *Method) (value.Value, error) {
	var result value.Value
	err := h.Arena.Mutate(func(mc *gc.MutationContext) error {
		fn := object.NewVariant(object.VariantFunction, &object.FunctionPayload{
			Name:        m.Name,
			HasName:     true,
			BytecodeRef: m,
			TraceExtra: func(visit func(gc.Handle)) {
				if m.ClosureScope != nil {
					visit(m.ClosureScope.Object())
				}
			},
		})
		handle := mc.New(fn)
		fn.BindSelf(handle)
		result = value.Object(handle)
		return nil
	})
	return result, err
}

func (h *Heap) defaultToString(o *object.Object) string {
	if o.Class() != nil {
		return "[object " + h.Interner.Lookup(o.Class().Name) + "]"
	}
	return "[object Object]"
}

func (h *Heap) ToPrimitive(ctx context.Context, v value.Value) (value.Value, error) {
	handle, ok := v.AsObject()
	if !ok {
		return v, nil
	}
	o, ok := h.Resolve(handle)
	if !ok {
		return value.Undefined, nil
	}
	valueOf := h.Interner.Intern("valueOf")
	fn, err := o.Get(ctx, h, valueOf, nil)
	if err == nil && fn.Kind() == value.KindObject {
		if fnHandle, ok := fn.AsObject(); ok {
			if target, ok := h.Resolve(fnHandle); ok && target.Kind() == object.VariantFunction {
				result, callErr := target.Call(ctx, fnHandle, v, nil)
				if callErr == nil && result.Kind() != value.KindObject {
					return result, nil
				}
			}
		}
	}
	sh, strErr := h.ToStringValue(ctx, v)
	if strErr != nil {
		return value.Undefined, strErr
	}
	return value.StringOf(sh), nil
}

func (h *Heap) ToStringValue(ctx context.Context, v value.Value) (value.StringHandle, error) {
	handle, ok := v.AsObject()
	if !ok {
		return h.Interner.Intern(v.String()), nil
	}
	o, ok := h.Resolve(handle)
	if !ok {
		return h.Interner.Intern("undefined"), nil
	}
	toString := h.Interner.Intern("toString")
	fn, err := o.Get(ctx, h, toString, nil)
	if err == nil && fn.Kind() == value.KindObject {
		if fnHandle, ok := fn.AsObject(); ok {
			if target, ok := h.Resolve(fnHandle); ok && target.Kind() == object.VariantFunction {
				result, callErr := target.Call(ctx, fnHandle, v, nil)
				if callErr == nil {
					if sh, ok := result.AsString(); ok {
						return sh, nil
					}
				}
			}
		}
	}
	return h.Interner.Intern(h.defaultToString(o)), nil
}
