package vm2

import (
	"context"

	"github.com/avmcore/avm/errz"
	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/names"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/scope"
	"github.com/avmcore/avm/value"
)

// ClassInfo is the constant-pool entry newclass consumes (spec.md §4.G
// "Construction of classes"): a base class reference, the declared
// instance/static traits, and the two initializer methods (instance
// constructor, static/class initializer).
type ClassInfo struct {
	Name              value.StringHandle
	HasBase           bool
	Base              gc.Handle
	Sealed            bool
	InstanceTraits    []object.Trait
	StaticTraits      []object.Trait
	ConstructorMethod *Method
	StaticInitializer *Method
}

// newClass implements spec.md §4.G "newclass": allocate the class
// object, wire its instance-trait prototype, then run the static
// initializer against the new class object to populate static traits and
// class-level fields.
func (i *Interpreter) newClass(act *activation, infoIndex int) (value.Value, error) {
	if infoIndex < 0 || infoIndex >= len(act.method.ClassInfos) {
		return value.Undefined, errz.New(errz.Parse, errz.SourceLocation{}, nil, "newclass: class info index out of range")
	}
	info := act.method.ClassInfos[infoIndex]

	class := &object.Class{
		Name:           info.Name,
		Base:           info.Base,
		HasBase:        info.HasBase,
		Sealed:         info.Sealed,
		InstanceTraits: info.InstanceTraits,
		StaticTraits:   info.StaticTraits,
	}

	var classHandle, protoHandle gc.Handle
	err := i.Heap.Arena.Mutate(func(mc *gc.MutationContext) error {
		proto := object.New()
		protoHandle = mc.New(proto)
		proto.BindSelf(protoHandle)
		class.Prototype = protoHandle

		classObj := object.NewVariant(object.VariantFunction, &object.FunctionPayload{
			Name:    info.Name,
			HasName: true,
			Native: func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
				if info.ConstructorMethod == nil {
					return value.Undefined, nil
				}
				return i.CallMethod(i.Context(ctx), info.ConstructorMethod, this, args, act.scope)
			},
		})
		classObj.SetClass(class)
		classHandle = mc.New(classObj)
		classObj.BindSelf(classHandle)
		return nil
	})
	if err != nil {
		return value.Undefined, err
	}

	if info.StaticInitializer != nil {
		ctx := i.Context(context.Background())
		if _, err := i.CallMethod(ctx, info.StaticInitializer, value.Object(classHandle), nil, act.scope); err != nil {
			return value.Undefined, err
		}
	}

	return value.Object(classHandle), nil
}

// newActivationObject implements spec.md §4.G "newactivation": a bare
// object allocated to hold a method's captured locals, pushed to the
// scope stack by a following pushscope so nested closures can reach them.
func (i *Interpreter) newActivationObject() (gc.Handle, error) {
	v := i.Heap.NewEmptyObject()
	h, _ := v.AsObject()
	return h, nil
}

// newFunction implements spec.md §4.G "newfunction": clone the
// statically-declared method body so each activation of the enclosing
// method gets its own closure over the scope chain in effect when
// newfunction executes, rather than sharing one ClosureScope across
// every call.
func (i *Interpreter) newFunction(act *activation, index int) (value.Value, error) {
	if index < 0 || index >= len(act.method.NestedMethods) {
		return value.Undefined, errz.New(errz.Parse, errz.SourceLocation{}, nil, "newfunction: method index out of range")
	}
	blueprint := act.method.NestedMethods[index]
	clone := *blueprint
	clone.ClosureScope = act.scope
	return i.Heap.NewFunctionObject(&clone)
}

// resolveClassMultiname finds the class object a multiname resolves to
// in the current scope chain and returns its instance-trait descriptor,
// used by istype/astype (spec.md §4.G).
func (i *Interpreter) resolveClassMultiname(ctx context.Context, chain *scope.Chain, mn names.Multiname) (*object.Class, error) {
	frame, found := i.findProperty(chain, mn)
	if !found {
		return nil, errz.New(errz.Reference, errz.SourceLocation{}, nil, "class not found")
	}
	obj, ok := i.Heap.Resolve(frame.Object())
	if !ok {
		return nil, errz.New(errz.Reference, errz.SourceLocation{}, nil, "dangling scope object")
	}
	name := mn.Name
	if qn, ok := obj.ResolveMultiname(i.Heap, mn); ok {
		name = qn.Name
	}
	v, err := obj.Get(ctx, i.Heap, name, nil)
	if err != nil {
		return nil, err
	}
	return i.classFromValue(v), nil
}

// classFromValue returns the Class descriptor carried by a class
// (constructor) object's own Class() field, or nil if v is not one.
func (i *Interpreter) classFromValue(v value.Value) *object.Class {
	handle, ok := v.AsObject()
	if !ok {
		return nil
	}
	obj, ok := i.Heap.Resolve(handle)
	if !ok {
		return nil
	}
	return obj.Class()
}

// isInstanceOf walks v's class ancestry looking for class, matching the
// istype/astype family's prototype-chain-free, class-table check (spec.md
// §4.G).
func (i *Interpreter) isInstanceOf(v value.Value, class *object.Class) bool {
	if class == nil {
		return false
	}
	handle, ok := v.AsObject()
	if !ok {
		return false
	}
	obj, ok := i.Heap.Resolve(handle)
	if !ok {
		return false
	}
	for cur := obj.Class(); cur != nil; {
		if cur == class {
			return true
		}
		if !cur.HasBase {
			break
		}
		baseObj, ok := i.Heap.Resolve(cur.Base)
		if !ok {
			break
		}
		cur = baseObj.Class()
	}
	return false
}
