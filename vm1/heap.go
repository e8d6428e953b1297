package vm1

import (
	"context"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
)

// Heap adapts a gc.Arena plus a string interner to the narrower Heap
// interfaces object and value each require, keeping those packages free
// of any VM-specific dependency (spec.md §4.A/§4.C: handles are resolved
// against "the" heap, without the heap knowing which VM is asking).
type Heap struct {
	Arena    *gc.Arena
	Interner *value.Interner
}

// Resolve implements object.Heap.
func (h *Heap) Resolve(handle gc.Handle) (*object.Object, bool) {
	v, ok := h.Arena.Get(handle)
	if !ok {
		return nil, false
	}
	o, ok := v.(*object.Object)
	return o, ok
}

// LookupString implements object.StringLookup, used to forward
// well-known display-object property names (spec.md §4.I).
func (h *Heap) LookupString(s value.StringHandle) string {
	return h.Interner.Lookup(s)
}

// Intern implements value.Heap.
func (h *Heap) Intern(s string) value.StringHandle { return h.Interner.Intern(s) }

// Lookup implements value.Heap.
func (h *Heap) Lookup(s value.StringHandle) string { return h.Interner.Lookup(s) }

// NewEmptyObject implements value.Heap: allocates a plain wrapper object
// outside any mutation context, matching how VM1 silently boxes a
// primitive receiver mid-expression (spec.md §4.B). It uses a one-shot
// Mutate call since to_object never needs to interleave with the
// caller's own mutation.
func (h *Heap) NewEmptyObject() value.Value {
	var result value.Value
	_ = h.Arena.Mutate(func(mc *gc.MutationContext) error {
		result = value.Object(mc.New(object.New()))
		return nil
	})
	return result
}

// NewFunctionObject allocates a function object wrapping a bytecode
// template (spec.md §4.F "define_function/define_function2": "a new
// function object is created, closing over the current scope chain").
func (h *Heap) NewFunctionObject(tmpl *Template) (value.Value, error) {
	var result value.Value
	err := h.Arena.Mutate(func(mc *gc.MutationContext) error {
		fn := object.NewVariant(object.VariantFunction, &object.FunctionPayload{
			Name:        tmpl.Name,
			HasName:     tmpl.HasName,
			BytecodeRef: tmpl,
			TraceExtra: func(visit func(gc.Handle)) {
				if tmpl.DefScope != nil {
					visit(tmpl.DefScope.Object())
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

// defaultToString returns the label used as the default toString result
// for an object (spec.md §4.B only requires a default; user
// overrides route through the property table's own getter/function,
// which callers reach before falling back to this).
func (h *Heap) defaultToString(o *object.Object) string {
	if o.Kind() == object.VariantDisplay {
		return "[object MovieClip]"
	}
	return "[object Object]"
}

// ToPrimitive implements value.Heap by invoking a valueOf property if one
// is declared, else falling back to ToStringValue.
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

// ToStringValue implements value.Heap by invoking a toString property if
// declared, else using the variant's default label.
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
