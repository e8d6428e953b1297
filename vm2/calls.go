package vm2

import (
	"context"

	"github.com/avmcore/avm/errz"
	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/names"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
)

func (i *Interpreter) callFunction(ctx context.Context, fnVal, this value.Value, args []value.Value) (value.Value, error) {
	handle, ok := fnVal.AsObject()
	if !ok {
		return value.Undefined, errz.New(errz.Type, errz.SourceLocation{}, nil, "value is not callable")
	}
	target, ok := i.Heap.Resolve(handle)
	if !ok {
		return value.Undefined, errz.New(errz.Type, errz.SourceLocation{}, nil, "dangling function handle")
	}
	return target.Call(ctx, handle, this, args)
}

func (i *Interpreter) dispatchCall(ctx context.Context, act *activation, argc int) (value.Value, error) {
	args := act.popN(argc)
	receiver := act.pop()
	fnVal := act.pop()
	return i.callFunction(ctx, fnVal, receiver, args)
}

func (i *Interpreter) resolveReceiverMultiname(receiver value.Value, mn names.Multiname) (*object.Object, value.StringHandle, error) {
	handle, ok := receiver.AsObject()
	if !ok {
		return nil, value.StringHandle{}, errz.New(errz.Type, errz.SourceLocation{}, nil, "cannot access property on non-object")
	}
	obj, ok := i.Heap.Resolve(handle)
	if !ok {
		return nil, value.StringHandle{}, errz.New(errz.Type, errz.SourceLocation{}, nil, "dangling object handle")
	}
	name := mn.Name
	if qn, ok := obj.ResolveMultiname(i.Heap, mn); ok {
		name = qn.Name
	}
	return obj, name, nil
}

func (i *Interpreter) getPropertyByMultiname(ctx context.Context, receiver value.Value, mn names.Multiname) (value.Value, error) {
	obj, name, err := i.resolveReceiverMultiname(receiver, mn)
	if err != nil {
		return value.Undefined, err
	}
	return obj.Get(ctx, i.Heap, name, nil)
}

func (i *Interpreter) callProperty(ctx context.Context, act *activation, mn names.Multiname, argc int) (value.Value, error) {
	args := act.popN(argc)
	receiver := act.pop()
	obj, name, err := i.resolveReceiverMultiname(receiver, mn)
	if err != nil {
		return value.Undefined, err
	}
	fnVal, err := obj.Get(ctx, i.Heap, name, nil)
	if err != nil {
		return value.Undefined, err
	}
	return i.callFunction(ctx, fnVal, receiver, args)
}

// getSuper/setSuper/callSuper* use the activation's recorded BaseProto
// (spec.md §4.G: "Use the base prototype recorded in the current
// activation; lookup bypasses the receiver's own traits").
func (i *Interpreter) getSuper(ctx context.Context, act *activation, receiver value.Value, mn names.Multiname) (value.Value, error) {
	if !act.HasBase {
		return value.Undefined, errz.New(errz.Reference, errz.SourceLocation{}, nil, "no base class for super access")
	}
	base, ok := i.Heap.Resolve(act.BaseProto)
	if !ok {
		return value.Undefined, errz.New(errz.Reference, errz.SourceLocation{}, nil, "dangling base class reference")
	}
	name := mn.Name
	if qn, ok := base.ResolveMultiname(i.Heap, mn); ok {
		name = qn.Name
	}
	return base.Get(ctx, i.Heap, name, nil)
}

func (i *Interpreter) setSuper(ctx context.Context, act *activation, receiver value.Value, mn names.Multiname, val value.Value) error {
	if !act.HasBase {
		return errz.New(errz.Reference, errz.SourceLocation{}, nil, "no base class for super access")
	}
	base, ok := i.Heap.Resolve(act.BaseProto)
	if !ok {
		return errz.New(errz.Reference, errz.SourceLocation{}, nil, "dangling base class reference")
	}
	name := mn.Name
	if qn, ok := base.ResolveMultiname(i.Heap, mn); ok {
		name = qn.Name
	}
	return base.Set(ctx, i.Heap, name, val, nil)
}

func (i *Interpreter) callSuper(ctx context.Context, act *activation, mn names.Multiname, argc int) (value.Value, error) {
	args := act.popN(argc)
	receiver := act.pop()
	fnVal, err := i.getSuper(ctx, act, receiver, mn)
	if err != nil {
		return value.Undefined, err
	}
	return i.callFunction(ctx, fnVal, receiver, args)
}

func (i *Interpreter) dispatchConstruct(ctx context.Context, act *activation, argc int) (value.Value, error) {
	args := act.popN(argc)
	ctorVal := act.pop()
	return i.construct(ctx, ctorVal, args)
}

// constructSuper implements spec.md §4.G "constructsuper": run the base
// class's constructor against an already-allocated instance, without
// allocating a new one (the receiver is the subclass instance `this`
// already on the stack by the time construct_super executes).
func (i *Interpreter) constructSuper(ctx context.Context, act *activation, receiver value.Value, args []value.Value) error {
	if !act.HasBase {
		return errz.New(errz.Reference, errz.SourceLocation{}, nil, "no base class for constructsuper")
	}
	base, ok := i.Heap.Resolve(act.BaseProto)
	if !ok {
		return errz.New(errz.Reference, errz.SourceLocation{}, nil, "dangling base class reference")
	}
	_, err := base.Call(ctx, act.BaseProto, receiver, args)
	return err
}

// callMethodSlot implements spec.md §4.G "callmethod": a vtable-slot call
// bound to a fixed disp_id rather than resolved by name, used where the
// verifier has already proven the receiver's shape.
func (i *Interpreter) callMethodSlot(ctx context.Context, act *activation, slot int, argc int) (value.Value, error) {
	args := act.popN(argc)
	receiver := act.pop()
	handle, ok := receiver.AsObject()
	if !ok {
		return value.Undefined, errz.New(errz.Type, errz.SourceLocation{}, nil, "callmethod on non-object")
	}
	obj, ok := i.Heap.Resolve(handle)
	if !ok || obj.Class() == nil {
		return value.Undefined, errz.New(errz.Type, errz.SourceLocation{}, nil, "callmethod without a class")
	}
	for _, tr := range obj.Class().InstanceTraits {
		if tr.SlotIndex == slot && tr.Kind == object.TraitMethod {
			return i.callFunction(ctx, tr.Value, receiver, args)
		}
	}
	return value.Undefined, errz.New(errz.Reference, errz.SourceLocation{}, nil, "callmethod: no method at slot %d", slot)
}

// callStatic implements spec.md §4.G "callstatic": invoke one of the
// current method's nested method bodies directly by index, bypassing
// name resolution entirely.
func (i *Interpreter) callStatic(ctx context.Context, act *activation, index int, argc int) (value.Value, error) {
	args := act.popN(argc)
	receiver := act.pop()
	if index < 0 || index >= len(act.method.NestedMethods) {
		return value.Undefined, errz.New(errz.Reference, errz.SourceLocation{}, nil, "callstatic: method index out of range")
	}
	target := act.method.NestedMethods[index]
	chain := target.ClosureScope
	if chain == nil {
		chain = act.scope
	}
	return i.CallMethod(ctx, target, receiver, args, chain)
}

func (i *Interpreter) constructProp(ctx context.Context, act *activation, mn names.Multiname, argc int) (value.Value, error) {
	args := act.popN(argc)
	receiver := act.pop()
	ctorVal, err := i.getPropertyByMultiname(ctx, receiver, mn)
	if err != nil {
		return value.Undefined, err
	}
	return i.construct(ctx, ctorVal, args)
}

// construct allocates a fresh instance wired to the constructor's
// prototype, then invokes the constructor function with that instance as
// `this` (spec.md §4.C construct / §4.G constructprop/construct).
func (i *Interpreter) construct(ctx context.Context, ctorVal value.Value, args []value.Value) (value.Value, error) {
	ctorHandle, ok := ctorVal.AsObject()
	if !ok {
		return value.Undefined, errz.New(errz.Type, errz.SourceLocation{}, nil, "value is not a constructor")
	}
	ctor, ok := i.Heap.Resolve(ctorHandle)
	if !ok {
		return value.Undefined, errz.New(errz.Type, errz.SourceLocation{}, nil, "dangling constructor handle")
	}
	protoVal, err := ctor.Get(ctx, i.Heap, i.Heap.Interner.Intern("prototype"), nil)
	if err != nil {
		return value.Undefined, err
	}
	var instHandle gc.Handle
	err = i.Heap.Arena.Mutate(func(mc *gc.MutationContext) error {
		inst := object.New()
		if protoHandle, ok := protoVal.AsObject(); ok {
			_ = inst.SetProto(i.Heap, gc.Handle{}, protoHandle)
		}
		if ctor.Class() != nil {
			inst.SetClass(ctor.Class())
		}
		instHandle = mc.New(inst)
		inst.BindSelf(instHandle)
		return nil
	})
	if err != nil {
		return value.Undefined, err
	}
	this := value.Object(instHandle)
	result, err := ctor.Construct(ctx, ctorHandle, this, args)
	if err != nil {
		return value.Undefined, err
	}
	if result.Kind() == value.KindObject {
		return result, nil
	}
	return this, nil
}

func (i *Interpreter) getSlot(v value.Value, slot int) (value.Value, error) {
	handle, ok := v.AsObject()
	if !ok {
		return value.Undefined, errz.New(errz.Type, errz.SourceLocation{}, nil, "getslot on non-object")
	}
	obj, ok := i.Heap.Resolve(handle)
	if !ok || obj.Class() == nil {
		return value.Undefined, errz.New(errz.Type, errz.SourceLocation{}, nil, "getslot without a class")
	}
	for _, tr := range obj.Class().InstanceTraits {
		if tr.SlotIndex == slot {
			return tr.Value, nil
		}
	}
	return value.Undefined, nil
}

func (i *Interpreter) setSlot(v value.Value, slot int, val value.Value) error {
	handle, ok := v.AsObject()
	if !ok {
		return errz.New(errz.Type, errz.SourceLocation{}, nil, "setslot on non-object")
	}
	obj, ok := i.Heap.Resolve(handle)
	if !ok || obj.Class() == nil {
		return errz.New(errz.Type, errz.SourceLocation{}, nil, "setslot without a class")
	}
	for idx := range obj.Class().InstanceTraits {
		if obj.Class().InstanceTraits[idx].SlotIndex == slot {
			obj.Class().InstanceTraits[idx].Value = val
			return nil
		}
	}
	return nil
}

func (i *Interpreter) newArray(elems []value.Value) (gc.Handle, error) {
	var h gc.Handle
	err := i.Heap.Arena.Mutate(func(mc *gc.MutationContext) error {
		arr := object.New()
		for idx, v := range elems {
			arr.SetArrayElement(idx, v)
		}
		h = mc.New(arr)
		arr.BindSelf(h)
		return nil
	})
	return h, err
}
