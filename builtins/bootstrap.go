package builtins

import (
	"context"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
)

// Library holds the handles of every intrinsic prototype installed at
// arena bootstrap, in the dependency order spec.md §4.H prescribes:
// "Object, Function, Array, String, Number, Boolean, Date, Error, Math,
// XML/XMLNode, display-tree intrinsics, event intrinsics, Sound,
// ContextMenu/ContextMenuItem, Transform/Matrix, Point/Rectangle."
//
// Sound, Button, MouseEvent, and XMLNode are installed here since none
// of them has a display-tree dependency of its own (their payloads only
// reference other heap objects by handle, never a live Clip). The
// display-tree intrinsics (MovieClip and TextField) are installed by
// package timeline (spec.md §4.I), which depends on this Library for
// ObjectProto and layers its own prototypes on top. No ContextMenu,
// Transform or Point prototype is installed by either package.
type Library struct {
	Arena    *gc.Arena
	Interner *value.Interner

	Global gc.Handle

	ObjectProto    gc.Handle
	FunctionProto  gc.Handle
	ArrayProto     gc.Handle
	StringProto    gc.Handle
	NumberProto    gc.Handle
	BooleanProto   gc.Handle
	DateProto      gc.Handle
	ErrorProto     gc.Handle
	MathObject     gc.Handle
	SoundProto     gc.Handle
	ButtonProto    gc.Handle
	MouseEventProto gc.Handle
	XMLNodeProto   gc.Handle
}

func (l *Library) heap() heap { return heap{arena: l.Arena, interner: l.Interner, arrayProto: &l.ArrayProto} }

// Bootstrap installs the intrinsic library into a fresh arena and returns
// the populated Library plus the global object's handle, which callers
// use as the arena's GC root and as the outermost scope.Chain frame
// (spec.md §4.H, §4.E).
func Bootstrap(interner *value.Interner) *Library {
	global := object.New()
	arena := gc.NewArena(global)
	globalHandle := arena.Root()
	global.BindSelf(globalHandle)

	lib := &Library{Arena: arena, Interner: interner, Global: globalHandle}
	h := lib.heap()

	lib.ObjectProto = installObjectProto(h)
	lib.FunctionProto = installFunctionProto(h)

	arrayHandle, _ := h.installArray()
	lib.ArrayProto = arrayHandle

	stringHandle, _ := h.installString()
	lib.StringProto = stringHandle

	lib.NumberProto = installWrapperProto(h, "number")
	lib.BooleanProto = installWrapperProto(h, "boolean")

	dateHandle, _ := h.installDate()
	lib.DateProto = dateHandle

	lib.ErrorProto = installErrorProto(h)

	mathHandle, _ := h.installMath()
	lib.MathObject = mathHandle

	soundHandle, _ := h.installSound()
	lib.SoundProto = soundHandle

	buttonHandle, _ := h.installButton()
	lib.ButtonProto = buttonHandle

	mouseEventHandle, _ := h.installMouseEvent()
	lib.MouseEventProto = mouseEventHandle

	xmlNodeHandle, _ := h.installXMLNode(&lib.XMLNodeProto)
	lib.XMLNodeProto = xmlNodeHandle

	lib.populateGlobal(h, global)
	return lib
}

func installObjectProto(h heap) gc.Handle {
	handle, proto := h.newPlainObject(gc.Handle{}, false)
	h.defineMethod(proto, "toString", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if o, _, ok := thisObject(h, this); ok {
			return value.StringOf(h.interner.Intern("[object " + o.TypeOf() + "]")), nil
		}
		return value.StringOf(h.interner.Intern("[object Object]")), nil
	})
	h.defineMethod(proto, "valueOf", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return this, nil
	})
	h.defineMethod(proto, "hasOwnProperty", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.Bool(false), nil
		}
		name, ok := argAt(args, 0).AsString()
		if !ok {
			return value.Bool(false), nil
		}
		return value.Bool(o.HasOwnProperty(name)), nil
	})
	h.defineMethod(proto, "isPropertyEnumerable", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.Bool(false), nil
		}
		name, ok := argAt(args, 0).AsString()
		if !ok {
			return value.Bool(false), nil
		}
		return value.Bool(o.IsEnumerable(name)), nil
	})
	h.defineMethod(proto, "watch", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.Bool(false), nil
		}
		name, ok := argAt(args, 0).AsString()
		if !ok {
			return value.Bool(false), nil
		}
		cb := argAt(args, 1)
		o.SetWatcher(name, cb, argAt(args, 2))
		return value.Bool(true), nil
	})
	h.defineMethod(proto, "unwatch", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.Bool(false), nil
		}
		name, ok := argAt(args, 0).AsString()
		if !ok {
			return value.Bool(false), nil
		}
		return value.Bool(o.RemoveWatcher(name)), nil
	})
	return handle
}

func installFunctionProto(h heap) gc.Handle {
	handle, proto := h.newPlainObject(gc.Handle{}, false)
	h.defineMethod(proto, "call", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		fnHandle, ok := this.AsObject()
		if !ok {
			return value.Undefined, typeErr("Function.prototype.call on a non-function")
		}
		fn, ok := h.Resolve(fnHandle)
		if !ok {
			return value.Undefined, typeErr("dangling function handle")
		}
		newThis := argAt(args, 0)
		rest := args
		if len(rest) > 0 {
			rest = rest[1:]
		}
		return fn.Call(ctx, fnHandle, newThis, rest)
	})
	h.defineMethod(proto, "apply", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		fnHandle, ok := this.AsObject()
		if !ok {
			return value.Undefined, typeErr("Function.prototype.apply on a non-function")
		}
		fn, ok := h.Resolve(fnHandle)
		if !ok {
			return value.Undefined, typeErr("dangling function handle")
		}
		newThis := argAt(args, 0)
		var spread []value.Value
		if arr, _, ok := thisObject(h, argAt(args, 1)); ok {
			for i := 0; i < arr.Length(); i++ {
				spread = append(spread, arr.ArrayElement(i))
			}
		}
		return fn.Call(ctx, fnHandle, newThis, spread)
	})
	return handle
}

// installWrapperProto builds the trivial Number/Boolean prototype
// (valueOf/toString only); neither is elaborated further, matching
// spec.md §4.H's "partial list of carefully specified ones" -- wrapper
// types beyond Array/Date are exercised through VM coercion, not through
// their own rich method set.
func installWrapperProto(h heap, typeName string) gc.Handle {
	handle, proto := h.newPlainObject(gc.Handle{}, false)
	h.defineMethod(proto, "valueOf", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return this, nil
	})
	h.defineMethod(proto, "toString", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return value.StringOf(h.interner.Intern(this.String())), nil
	})
	return handle
}

func installErrorProto(h heap) gc.Handle {
	handle, proto := h.newPlainObject(gc.Handle{}, false)
	proto.DefineValue(h.interner.Intern("name"), value.StringOf(h.interner.Intern("Error")), object.DontEnum)
	proto.DefineValue(h.interner.Intern("message"), value.StringOf(h.interner.Intern("")), object.DontEnum)
	h.defineMethod(proto, "toString", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, _, ok := thisObject(h, this)
		if !ok {
			return value.StringOf(h.interner.Intern("Error")), nil
		}
		name, _ := o.Get(ctx, h, h.interner.Intern("name"), nil)
		msg, _ := o.Get(ctx, h, h.interner.Intern("message"), nil)
		ns, _ := value.ToString(ctx, h, name)
		ms, _ := value.ToString(ctx, h, msg)
		if ms == "" {
			return value.StringOf(h.interner.Intern(ns)), nil
		}
		return value.StringOf(h.interner.Intern(ns + ": " + ms)), nil
	})
	return handle
}

// populateGlobal exposes every intrinsic on the global object under its
// script-visible name, plus the constructors needed to build instances
// (`new Array()`, `new Date(...)`, `new Error(...)`), closing over the
// Library's own prototypes rather than depending on the owning VM.
func (l *Library) populateGlobal(h heap, global *object.Object) {
	define := func(name string, v value.Value) {
		global.DefineValue(h.interner.Intern(name), v, object.DontEnum)
	}

	define("Math", value.Object(l.MathObject))

	arrayCtor := h.newNative("Array", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		handle, obj := h.newPlainObject(l.ArrayProto, true)
		if len(args) == 1 {
			if n, ok := args[0].AsInteger(); ok {
				obj.SetLength(int(n))
				return value.Object(handle), nil
			}
		}
		for i, a := range args {
			obj.SetArrayElement(i, a)
		}
		obj.SetLength(len(args))
		return value.Object(handle), nil
	})
	setProtoProperty(h, arrayCtor, l.ArrayProto)
	define("Array", arrayCtor)

	dateCtor := h.newNative("Date", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return h.NewDate(l.DateProto, args), nil
	})
	setProtoProperty(h, dateCtor, l.DateProto)
	define("Date", dateCtor)

	stringCtor := h.newNative("String", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		s, _ := value.ToString(ctx, h, argAt(args, 0))
		return value.StringOf(h.interner.Intern(s)), nil
	})
	setProtoProperty(h, stringCtor, l.StringProto)
	define("String", stringCtor)

	errorCtor := h.newNative("Error", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		handle, obj := h.newPlainObject(l.ErrorProto, true)
		if len(args) > 0 {
			msg, _ := value.ToString(ctx, h, args[0])
			obj.DefineValue(h.interner.Intern("message"), value.StringOf(h.interner.Intern(msg)), 0)
		}
		return value.Object(handle), nil
	})
	setProtoProperty(h, errorCtor, l.ErrorProto)
	define("Error", errorCtor)

	soundCtor := h.newNative("Sound", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		owner, hasOwner := argAt(args, 0).AsObject()
		return h.NewSound(l.SoundProto, owner, hasOwner), nil
	})
	setProtoProperty(h, soundCtor, l.SoundProto)
	define("Sound", soundCtor)

	buttonCtor := h.newNative("Button", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return h.NewButton(l.ButtonProto), nil
	})
	setProtoProperty(h, buttonCtor, l.ButtonProto)
	define("Button", buttonCtor)

	mouseEventCtor := h.newNative("MouseEvent", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		kind, _ := value.ToString(ctx, h, argAt(args, 0))
		localX, localY := argAt(args, 1), argAt(args, 2)
		lx, _ := localX.AsNumber()
		ly, _ := localY.AsNumber()
		modifiers, _ := argAt(args, 3).AsInteger()
		buttonDown, _ := argAt(args, 4).AsBool()
		delta, _ := argAt(args, 5).AsInteger()
		return h.NewMouseEvent(l.MouseEventProto, kind, lx, ly, object.MouseModifiers(modifiers), buttonDown, int(delta)), nil
	})
	setProtoProperty(h, mouseEventCtor, l.MouseEventProto)
	define("MouseEvent", mouseEventCtor)

	xmlNodeCtor := h.newNative("XMLNode", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		nodeType, _ := argAt(args, 0).AsInteger()
		name, _ := value.ToString(ctx, h, argAt(args, 1))
		return h.NewXMLNode(l.XMLNodeProto, int(nodeType), name, gc.Handle{}), nil
	})
	setProtoProperty(h, xmlNodeCtor, l.XMLNodeProto)
	define("XMLNode", xmlNodeCtor)

	xmlCtor := h.newNative("XML", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return h.NewXMLDocument(l.XMLNodeProto), nil
	})
	setProtoProperty(h, xmlCtor, l.XMLNodeProto)
	define("XML", xmlCtor)

	define("Object", h.newNative("Object", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) > 0 && args[0].Kind() == value.KindObject {
			return args[0], nil
		}
		handle, _ := h.newPlainObject(l.ObjectProto, true)
		return value.Object(handle), nil
	}))
}

func setProtoProperty(h heap, ctor value.Value, proto gc.Handle) {
	handle, ok := ctor.AsObject()
	if !ok {
		return
	}
	o, ok := h.Resolve(handle)
	if !ok {
		return
	}
	o.DefineValue(h.interner.Intern("prototype"), value.Object(proto), object.DontEnum|object.DontDelete)
}
