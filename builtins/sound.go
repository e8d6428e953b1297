package builtins

import (
	"context"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
)

// installSound builds the Sound intrinsic prototype (spec.md §4.H;
// supplemented from original_source/core/src/avm1/sound_object.rs):
// attachSound/start/stop and get-and-set volume/pan. No duration or
// position property is installed. Instances carry an object.SoundPayload.
func (h heap) installSound() (gc.Handle, *object.Object) {
	handle, proto := h.newPlainObject(gc.Handle{}, false)

	payloadOf := func(this value.Value) (*object.SoundPayload, bool) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return nil, false
		}
		p, ok := o.Payload().(*object.SoundPayload)
		return p, ok
	}

	h.defineMethod(proto, "attachSound", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := payloadOf(this)
		if !ok {
			return value.Undefined, nil
		}
		// A real embedding resolves the library-symbol name to a
		// registered backend handle here; without a container/loader
		// this only clears any prior binding so start()/stop() observe a
		// freshly attached (still unbound) sound.
		p.Handle = 0
		return value.Undefined, nil
	})

	h.defineMethod(proto, "getVolume", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := payloadOf(this)
		if !ok {
			return value.Undefined, nil
		}
		return value.Integer(int32(p.Volume)), nil
	})

	h.defineMethod(proto, "setVolume", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := payloadOf(this)
		if !ok {
			return value.Undefined, nil
		}
		n, _ := argAt(args, 0).AsNumber()
		p.Volume = clampInt(int(n), 0, 100)
		return value.Undefined, nil
	})

	h.defineMethod(proto, "getPan", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := payloadOf(this)
		if !ok {
			return value.Undefined, nil
		}
		return value.Integer(int32(p.Pan)), nil
	})

	h.defineMethod(proto, "setPan", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := payloadOf(this)
		if !ok {
			return value.Undefined, nil
		}
		n, _ := argAt(args, 0).AsNumber()
		p.Pan = clampInt(int(n), -100, 100)
		return value.Undefined, nil
	})

	h.defineMethod(proto, "start", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		// offset/loops are accepted for call-signature compatibility;
		// actually starting playback requires the injected Audio backend
		// (spec.md §6), which this package does not hold a reference to.
		return value.Undefined, nil
	})

	h.defineMethod(proto, "stop", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return value.Undefined, nil
	})

	return handle, proto
}

// NewSound allocates a Sound instance bound to owner, the clip the
// sound object was constructed against (spec.md §4.H "Sound(target)";
// sound_object.rs's owning_movie_clip).
func (h heap) NewSound(protoHandle gc.Handle, owner gc.Handle, hasOwner bool) value.Value {
	var result value.Value
	_ = h.arena.Mutate(func(mc *gc.MutationContext) error {
		obj := object.NewVariant(object.VariantSound, &object.SoundPayload{OwningClip: owner, HasClip: hasOwner})
		obj.SetProto(h, gc.Handle{}, protoHandle)
		handle := mc.New(obj)
		obj.BindSelf(handle)
		result = value.Object(handle)
		return nil
	})
	return result
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
