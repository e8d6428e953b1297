package builtins

import (
	"context"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
)

// mouseEventOrder is the fixed dispatch order spec.md §3 SUPPLEMENTED
// FEATURES names for Button mouse events (original_source/core/src/
// avm1/globals/button.rs): rollOver before press, release before
// releaseOutside never applies to the same invocation. dispatchEvent
// below fires at most one of these per call -- the order lives in the
// table, not in repeated dispatch.
var mouseEventOrder = []string{"rollOver", "rollOut", "press", "release", "releaseOutside"}

func isMouseEventName(name string) bool {
	for _, n := range mouseEventOrder {
		if n == name {
			return true
		}
	}
	return false
}

// installButton builds the Button intrinsic prototype (spec.md §4.H;
// supplemented from original_source/core/src/avm1/globals/button.rs and
// display_object/button.rs): hit-state character references, an
// attached ContextMenu, and on*-handler dispatch for the mouse events
// button.rs recognizes. Instances carry an object.ButtonPayload.
func (h heap) installButton() (gc.Handle, *object.Object) {
	handle, proto := h.newPlainObject(gc.Handle{}, false)

	payloadOf := func(this value.Value) (*object.ButtonPayload, bool) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return nil, false
		}
		p, ok := o.Payload().(*object.ButtonPayload)
		return p, ok
	}

	hitState := func(name string, get func(*object.ButtonPayload) (gc.Handle, bool), set func(*object.ButtonPayload, gc.Handle, bool)) {
		h.defineMethod(proto, "get"+name, func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
			p, ok := payloadOf(this)
			if !ok {
				return value.Undefined, nil
			}
			handle, has := get(p)
			if !has {
				return value.Undefined, nil
			}
			return value.Object(handle), nil
		})
		h.defineMethod(proto, "set"+name, func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
			p, ok := payloadOf(this)
			if !ok {
				return value.Undefined, nil
			}
			charHandle, has := argAt(args, 0).AsObject()
			set(p, charHandle, has)
			return value.Undefined, nil
		})
	}
	hitState("UpState",
		func(p *object.ButtonPayload) (gc.Handle, bool) { return p.UpState, p.HasUp },
		func(p *object.ButtonPayload, h gc.Handle, has bool) { p.UpState, p.HasUp = h, has })
	hitState("OverState",
		func(p *object.ButtonPayload) (gc.Handle, bool) { return p.OverState, p.HasOver },
		func(p *object.ButtonPayload, h gc.Handle, has bool) { p.OverState, p.HasOver = h, has })
	hitState("DownState",
		func(p *object.ButtonPayload) (gc.Handle, bool) { return p.DownState, p.HasDown },
		func(p *object.ButtonPayload, h gc.Handle, has bool) { p.DownState, p.HasDown = h, has })
	hitState("HitTestState",
		func(p *object.ButtonPayload) (gc.Handle, bool) { return p.HitTestState, p.HasHitTest },
		func(p *object.ButtonPayload, h gc.Handle, has bool) { p.HitTestState, p.HasHitTest = h, has })

	h.defineMethod(proto, "getMenu", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := payloadOf(this)
		if !ok || !p.HasMenu {
			return value.Undefined, nil
		}
		return value.Object(p.ContextMenu), nil
	})
	h.defineMethod(proto, "setMenu", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := payloadOf(this)
		if !ok {
			return value.Undefined, nil
		}
		menuHandle, has := argAt(args, 0).AsObject()
		p.ContextMenu, p.HasMenu = menuHandle, has
		return value.Undefined, nil
	})

	h.defineMethod(proto, "getTrackAsMenu", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := payloadOf(this)
		if !ok {
			return value.Bool(false), nil
		}
		return value.Bool(p.TrackAsMenu), nil
	})
	h.defineMethod(proto, "setTrackAsMenu", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := payloadOf(this)
		if !ok {
			return value.Undefined, nil
		}
		b, _ := argAt(args, 0).AsBool()
		p.TrackAsMenu = b
		return value.Undefined, nil
	})

	// dispatchEvent invokes the matching onRollOver/onRollOut/onPress/
	// onRelease/onReleaseOutside handler on this, if the script defined
	// one, mirroring button.rs's fixed event-name-to-handler mapping.
	h.defineMethod(proto, "dispatchEvent", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if _, ok := payloadOf(this); !ok {
			return value.Bool(false), nil
		}
		sh, ok := argAt(args, 0).AsString()
		if !ok {
			return value.Bool(false), nil
		}
		name := h.interner.Lookup(sh)
		if !isMouseEventName(name) {
			return value.Bool(false), nil
		}
		o, handle, ok := thisObject(h, this)
		if !ok {
			return value.Bool(false), nil
		}
		handlerName := "on" + upperFirst(name)
		fnVal, err := o.Get(ctx, h, h.interner.Intern(handlerName), nil)
		if err != nil {
			return value.Bool(false), err
		}
		fnHandle, ok := fnVal.AsObject()
		if !ok {
			return value.Bool(false), nil
		}
		fnObj, ok := h.Resolve(fnHandle)
		if !ok {
			return value.Bool(false), nil
		}
		if _, err := fnObj.Call(ctx, fnHandle, value.Object(handle), nil); err != nil {
			return value.Bool(false), err
		}
		return value.Bool(true), nil
	})

	return handle, proto
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// NewButton allocates a Button instance with no hit states or menu
// attached yet (spec.md §3 "button"); scripts populate them via
// setUpState/setOverState/setDownState/setHitTestState/setMenu.
func (h heap) NewButton(protoHandle gc.Handle) value.Value {
	var result value.Value
	_ = h.arena.Mutate(func(mc *gc.MutationContext) error {
		obj := object.NewVariant(object.VariantButton, &object.ButtonPayload{})
		obj.SetProto(h, gc.Handle{}, protoHandle)
		handle := mc.New(obj)
		obj.BindSelf(handle)
		result = value.Object(handle)
		return nil
	})
	return result
}
