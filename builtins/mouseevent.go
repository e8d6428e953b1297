package builtins

import (
	"context"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
)

// installMouseEvent builds the VM2 MouseEvent intrinsic prototype
// (spec.md §4.H "MouseEvent (VM2): carries (local_x, local_y,
// related_object, modifiers, button_down, delta)"; modifier bit values
// from original_source/core/src/avm2/globals/flash/events/mouseevent.rs).
// Instances carry an object.EventPayload.
func (h heap) installMouseEvent() (gc.Handle, *object.Object) {
	handle, proto := h.newPlainObject(gc.Handle{}, false)

	payloadOf := func(this value.Value) (*object.EventPayload, bool) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return nil, false
		}
		p, ok := o.Payload().(*object.EventPayload)
		return p, ok
	}

	h.defineMethod(proto, "getType", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := payloadOf(this)
		if !ok {
			return value.Undefined, nil
		}
		return value.StringOf(p.Kind), nil
	})
	h.defineMethod(proto, "getLocalX", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := payloadOf(this)
		if !ok {
			return value.Number(0), nil
		}
		return value.Number(p.LocalX), nil
	})
	h.defineMethod(proto, "getLocalY", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := payloadOf(this)
		if !ok {
			return value.Number(0), nil
		}
		return value.Number(p.LocalY), nil
	})
	h.defineMethod(proto, "getButtonDown", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := payloadOf(this)
		if !ok {
			return value.Bool(false), nil
		}
		return value.Bool(p.ButtonDown), nil
	})
	h.defineMethod(proto, "getDelta", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := payloadOf(this)
		if !ok {
			return value.Integer(0), nil
		}
		return value.Integer(int32(p.Delta)), nil
	})

	modifier := func(name string, bit object.MouseModifiers) {
		h.defineMethod(proto, name, func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
			p, ok := payloadOf(this)
			if !ok {
				return value.Bool(false), nil
			}
			return value.Bool(p.Modifiers&bit != 0), nil
		})
	}
	modifier("getCtrlKey", object.ModCtrl)
	modifier("getAltKey", object.ModAlt)
	modifier("getShiftKey", object.ModShift)
	modifier("getCommandKey", object.ModCommand)

	return handle, proto
}

// NewMouseEvent allocates a MouseEvent instance (spec.md §4.H). modifiers
// is the OR of the ModCtrl/ModAlt/ModShift/ModCommand bit flags.
func (h heap) NewMouseEvent(protoHandle gc.Handle, kind string, localX, localY float64, modifiers object.MouseModifiers, buttonDown bool, delta int) value.Value {
	var result value.Value
	_ = h.arena.Mutate(func(mc *gc.MutationContext) error {
		obj := object.NewVariant(object.VariantEvent, &object.EventPayload{
			Kind:       h.interner.Intern(kind),
			LocalX:     localX,
			LocalY:     localY,
			Modifiers:  modifiers,
			ButtonDown: buttonDown,
			Delta:      delta,
		})
		obj.SetProto(h, gc.Handle{}, protoHandle)
		handle := mc.New(obj)
		obj.BindSelf(handle)
		result = value.Object(handle)
		return nil
	})
	return result
}
