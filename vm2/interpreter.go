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

// maxRecursionDepth matches vm1's cap (spec.md §4.F/§5 "Cancellation":
// "VM execution has a bounded recursion depth; exceeding it produces a
// StackOverflow-kind error").
const maxRecursionDepth = 255

// Interpreter runs VM2 bytecode (spec.md §4.G).
type Interpreter struct {
	Heap *Heap
	MC   *gc.MutationContext

	depth int
}

func NewInterpreter(heap *Heap, mc *gc.MutationContext) *Interpreter {
	return &Interpreter{Heap: heap, MC: mc}
}

// Invoke implements object.InvokeFunc (spec.md §4.C), mirrored from
// vm1.Interpreter.Invoke. A bytecode method dispatches straight into
// CallMethod; routing back through Object.Call would just re-enter
// Invoke forever, since Call only calls Native directly and otherwise
// always asks the active InvokeFunc to run it.
func (i *Interpreter) Invoke(ctx context.Context, fn value.Value, this value.Value, args []value.Value) (value.Value, error) {
	handle, ok := fn.AsObject()
	if !ok {
		return value.Undefined, errz.New(errz.Type, errz.SourceLocation{}, nil, "value is not callable")
	}
	target, ok := i.Heap.Resolve(handle)
	if !ok {
		return value.Undefined, errz.New(errz.Type, errz.SourceLocation{}, nil, "dangling function handle")
	}
	if target.Kind() != object.VariantFunction {
		return value.Undefined, errz.New(errz.Type, errz.SourceLocation{}, nil, "%s is not callable", target.TypeOf())
	}
	payload := target.Payload().(*object.FunctionPayload)
	if payload.Native != nil {
		return payload.Native(ctx, this, args)
	}
	m, ok := payload.BytecodeRef.(*Method)
	if !ok || m == nil {
		return value.Undefined, errz.New(errz.Type, errz.SourceLocation{}, nil, "function has no VM2 body")
	}
	return i.CallMethod(ctx, m, this, args, i.methodScope(m))
}

// methodScope returns the scope chain a bytecode method's activation
// should run against: the scope it closed over if it is a closure
// (NewFunction), or the global chain for a method invoked without one
// recorded (a class's own instance/static methods; see
// Method.ClosureScope).
func (i *Interpreter) methodScope(m *Method) *scope.Chain {
	if m.ClosureScope != nil {
		return m.ClosureScope
	}
	return scope.Global(i.Heap.Arena.Root())
}

func (i *Interpreter) Context(parent context.Context) context.Context {
	return object.WithInvoke(parent, i.Invoke)
}

// CallMethod runs m as a fresh activation (spec.md §4.G "Registers":
// "Register 0 = this... Registers 1..=n hold declared arguments").
func (i *Interpreter) CallMethod(ctx context.Context, m *Method, this value.Value, args []value.Value, chain *scope.Chain) (value.Value, error) {
	if i.depth >= maxRecursionDepth {
		return value.Undefined, errz.New(errz.Range, errz.SourceLocation{}, nil, "stack overflow: recursion depth exceeded %d", maxRecursionDepth)
	}
	i.depth++
	defer func() { i.depth-- }()
	if m.Native != nil {
		return m.Native(i, this, args)
	}

	act := newActivation(m, chain, this)
	for idx, arg := range args {
		reg := idx + 1
		if reg < len(act.regs) {
			act.regs[reg] = arg
		}
	}
	if m.DeclaringClass != nil {
		if base, has := m.DeclaringClass.Base, m.DeclaringClass.HasBase; has {
			act.BaseProto, act.HasBase = base, true
		}
	}
	act.IsExecuting = true
	defer func() { act.IsExecuting = false }()

	return i.run(ctx, act)
}

func (i *Interpreter) run(ctx context.Context, act *activation) (value.Value, error) {
	m := act.method
	for act.ip < len(m.Code) {
		faultIP := act.ip
		instr := m.Code[act.ip]
		act.ip++

		result, isReturn, err := i.execInstr(ctx, act, instr)
		if err != nil {
			if i.catchException(ctx, act, faultIP, err) {
				continue
			}
			return value.Undefined, err
		}
		if isReturn {
			return result, nil
		}
	}
	return value.Undefined, nil
}

// catchException looks up m.Exceptions for a handler covering faultIP,
// unwinding the operand stack to empty (matching the handler's expected
// entry state, per the ABC verifier's own invariant) and leaving the
// thrown value as the sole stack entry the catch block's first getlocal
// picks up, mirroring ABC's newcatch/activation-object convention in
// simplified form (spec.md §4.G exceptions).
func (i *Interpreter) catchException(ctx context.Context, act *activation, faultIP int, err error) bool {
	for _, h := range act.method.Exceptions {
		if faultIP < h.From || faultIP >= h.To {
			continue
		}
		act.stack = act.stack[:0]
		var thrown value.Value
		if se, ok := err.(*errz.StructuredError); ok {
			if v, ok := se.Value.(value.Value); ok {
				thrown = v
			}
		}
		act.push(thrown)
		act.ip = h.Target
		return true
	}
	return false
}

// execInstr runs one instruction, returning (result, true, nil) on
// returnvalue/returnvoid, (_, false, err) on failure, and (_, false, nil)
// otherwise.
func (i *Interpreter) execInstr(ctx context.Context, act *activation, instr Instruction) (value.Value, bool, error) {
	m := act.method
	switch instr.Op {
	case OpReturnValue:
		return act.pop(), true, nil
	case OpReturnVoid:
		return value.Undefined, true, nil

	case OpPushByte, OpPushShort, OpPushInt:
		n, _ := instr.Const.(int32)
		act.push(value.Integer(n))
	case OpPushUInt:
		n, _ := instr.Const.(uint32)
		act.push(value.Uint32(n))
	case OpPushDouble:
		f, _ := instr.Const.(float64)
		act.push(value.Number(f))
	case OpPushString:
		s, _ := instr.Const.(string)
		act.push(value.StringOf(i.Heap.Interner.Intern(s)))
	case OpPushTrue:
		act.push(value.True)
	case OpPushFalse:
		act.push(value.False)
	case OpPushNull:
		act.push(value.Null)
	case OpPushUndefined:
		act.push(value.Undefined)
	case OpPushNaN:
		act.push(value.Number(nanValue()))
	case OpPop:
		act.pop()
	case OpDup:
		act.push(act.peek())
	case OpSwap:
		a := act.pop()
		b := act.pop()
		act.push(a)
		act.push(b)

	case OpPushScope:
		v := act.pop()
		if h, ok := v.AsObject(); ok {
			act.scope = act.scope.Push(h)
		}
	case OpPushWith:
		v := act.pop()
		if h, ok := v.AsObject(); ok {
			act.scope = act.scope.PushWith(h)
		}
	case OpPopScope:
		act.scope = act.scope.Pop()
	case OpGetScopeObject:
		cur := act.scope
		for n := 0; n < instr.Index && cur != nil; n++ {
			cur = cur.Pop()
		}
		if cur != nil {
			act.push(value.Object(cur.Object()))
		} else {
			act.push(value.Undefined)
		}
	case OpGetGlobalScope:
		root := act.scope
		for root.Pop() != nil {
			root = root.Pop()
		}
		act.push(value.Object(root.Object()))

	case OpGetLocal:
		act.push(act.getLocal(instr.Index))
	case OpSetLocal:
		act.setLocal(instr.Index, act.pop())
	case OpKill:
		act.kill(instr.Index)
	case OpGetSlot:
		v := act.pop()
		result, err := i.getSlot(v, instr.Index)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(result)
	case OpSetSlot:
		val := act.pop()
		v := act.pop()
		if err := i.setSlot(v, instr.Index, val); err != nil {
			return value.Undefined, false, err
		}
	case OpGetGlobalSlot:
		result, err := i.getSlot(value.Object(globalOf(act.scope)), instr.Index)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(result)
	case OpSetGlobalSlot:
		val := act.pop()
		if err := i.setSlot(value.Object(globalOf(act.scope)), instr.Index, val); err != nil {
			return value.Undefined, false, err
		}

	case OpFindProperty, OpFindPropStrict:
		mn := m.Multinames[instr.Index]
		frame, found := i.findProperty(act.scope, mn)
		if found {
			act.push(value.Object(frame.Object()))
		} else if instr.Op == OpFindPropStrict {
			return value.Undefined, false, errz.New(errz.Reference, errz.SourceLocation{}, nil,
				"property not found")
		} else {
			act.push(value.Object(globalOf(act.scope)))
		}
	case OpGetLex:
		mn := m.Multinames[instr.Index]
		frame, found := i.findProperty(act.scope, mn)
		if !found {
			return value.Undefined, false, errz.New(errz.Reference, errz.SourceLocation{}, nil, "property not found")
		}
		obj, ok := i.Heap.Resolve(frame.Object())
		if !ok {
			return value.Undefined, false, errz.New(errz.Reference, errz.SourceLocation{}, nil, "dangling scope object")
		}
		qn, ok := obj.ResolveMultiname(i.Heap, mn)
		if !ok {
			return value.Undefined, false, errz.New(errz.Reference, errz.SourceLocation{}, nil, "property not found")
		}
		v, err := obj.Get(ctx, i.Heap, qn.Name, nil)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(v)
	case OpGetProperty:
		mn := m.Multinames[instr.Index]
		receiver := act.pop()
		v, err := i.getPropertyByMultiname(ctx, receiver, mn)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(v)
	case OpSetProperty, OpInitProperty:
		mn := m.Multinames[instr.Index]
		val := act.pop()
		receiver := act.pop()
		handle, ok := receiver.AsObject()
		if !ok {
			return value.Undefined, false, errz.New(errz.Type, errz.SourceLocation{}, nil, "cannot set property on non-object")
		}
		obj, ok := i.Heap.Resolve(handle)
		if !ok {
			return value.Undefined, false, errz.New(errz.Type, errz.SourceLocation{}, nil, "dangling object handle")
		}
		qn, ok := obj.ResolveMultiname(i.Heap, mn)
		name := mn.Name
		if ok {
			name = qn.Name
		}
		if err := obj.Set(ctx, i.Heap, name, val, nil); err != nil {
			return value.Undefined, false, err
		}
	case OpDeleteProperty:
		mn := m.Multinames[instr.Index]
		receiver := act.pop()
		handle, ok := receiver.AsObject()
		if !ok {
			act.push(value.Bool(false))
			break
		}
		obj, ok := i.Heap.Resolve(handle)
		if !ok {
			act.push(value.Bool(false))
			break
		}
		name := mn.Name
		if qn, ok := obj.ResolveMultiname(i.Heap, mn); ok {
			name = qn.Name
		}
		act.push(value.Bool(obj.Delete(name)))

	case OpGetSuper:
		mn := m.Multinames[instr.Index]
		receiver := act.pop()
		v, err := i.getSuper(ctx, act, receiver, mn)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(v)
	case OpSetSuper:
		mn := m.Multinames[instr.Index]
		val := act.pop()
		receiver := act.pop()
		if err := i.setSuper(ctx, act, receiver, mn, val); err != nil {
			return value.Undefined, false, err
		}

	case OpCall:
		result, err := i.dispatchCall(ctx, act, instr.ArgCount)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(result)
	case OpCallMethod:
		result, err := i.callMethodSlot(ctx, act, instr.Index, instr.ArgCount)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(result)
	case OpCallStatic:
		result, err := i.callStatic(ctx, act, instr.Index, instr.ArgCount)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(result)
	case OpCallProperty, OpCallPropLex, OpCallPropVoid:
		mn := m.Multinames[instr.Index]
		result, err := i.callProperty(ctx, act, mn, instr.ArgCount)
		if err != nil {
			return value.Undefined, false, err
		}
		if instr.Op != OpCallPropVoid {
			act.push(result)
		}
	case OpCallSuper, OpCallSuperVoid:
		mn := m.Multinames[instr.Index]
		result, err := i.callSuper(ctx, act, mn, instr.ArgCount)
		if err != nil {
			return value.Undefined, false, err
		}
		if instr.Op != OpCallSuperVoid {
			act.push(result)
		}
	case OpConstruct:
		result, err := i.dispatchConstruct(ctx, act, instr.ArgCount)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(result)
	case OpConstructProp:
		mn := m.Multinames[instr.Index]
		result, err := i.constructProp(ctx, act, mn, instr.ArgCount)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(result)
	case OpConstructSuper:
		args := act.popN(instr.ArgCount)
		receiver := act.pop()
		if err := i.constructSuper(ctx, act, receiver, args); err != nil {
			return value.Undefined, false, err
		}

	case OpNewActivation:
		h, err := i.newActivationObject()
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(value.Object(h))
	case OpNewObject:
		// Pops ArgCount name/value pairs into a fresh plain object.
		pairs := act.popN(2 * instr.ArgCount)
		obj := object.New()
		for k := 0; k+1 < len(pairs); k += 2 {
			name, err := value.ToString(ctx, i.Heap, pairs[k])
			if err != nil {
				return value.Undefined, false, err
			}
			obj.DefineValue(i.Heap.Interner.Intern(name), pairs[k+1], 0)
		}
		var objHandle gc.Handle
		_ = i.Heap.Arena.Mutate(func(mc *gc.MutationContext) error { objHandle = mc.New(obj); return nil })
		obj.BindSelf(objHandle)
		act.push(value.Object(objHandle))
	case OpNewArray:
		elems := act.popN(instr.ArgCount)
		arrHandle, err := i.newArray(elems)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(value.Object(arrHandle))
	case OpNewFunction:
		result, err := i.newFunction(act, instr.Index)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(result)
	case OpNewClass:
		result, err := i.newClass(act, instr.Index)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(result)

	case OpJump:
		act.ip = instr.Addr
	case OpIfTrue, OpIfFalse:
		cond := act.pop()
		b := value.ToBool(ctx, i.Heap, cond, 9)
		if instr.Op == OpIfFalse {
			b = !b
		}
		if b {
			act.ip = instr.Addr
		}
	case OpIfStrictEq, OpIfStrictNe, OpIfEq, OpIfNe, OpIfLt, OpIfLe, OpIfGt, OpIfGe:
		rhs := act.pop()
		lhs := act.pop()
		if i.compareBranch(ctx, instr.Op, lhs, rhs) {
			act.ip = instr.Addr
		}
	case OpLabel:
		// no-op marker, kept for disassembly/jump-target validation

	case OpThrow:
		v := act.pop()
		return value.Undefined, false, errz.NewCustom(v, errz.SourceLocation{}, nil)

	case OpCoerceA:
		// identity: any-type coercion is a no-op at this representation
	case OpCoerceS:
		s, err := value.ToString(ctx, i.Heap, act.pop())
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(value.StringOf(i.Heap.Interner.Intern(s)))
	case OpConvertB:
		act.push(value.Bool(value.ToBool(ctx, i.Heap, act.pop(), 9)))
	case OpConvertI, OpConvertU:
		n, err := value.ToInteger(ctx, i.Heap, act.pop())
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(value.Integer(n))
	case OpConvertD:
		n, err := value.ToNumber(ctx, i.Heap, act.pop())
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(value.Number(n))
	case OpConvertS:
		s, err := value.ToString(ctx, i.Heap, act.pop())
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(value.StringOf(i.Heap.Interner.Intern(s)))
	case OpConvertO:
		v := act.pop()
		if v.Kind() != value.KindObject {
			return value.Undefined, false, errz.New(errz.Type, errz.SourceLocation{}, nil, "cannot convert null/undefined to Object")
		}
		act.push(v)
	case OpCoerce:
		// no declared-type info survives into this representation, so
		// coerce degrades to passthrough (spec.md §4.G simplification).
		act.push(act.pop())

	case OpIsType:
		mn := m.Multinames[instr.Index]
		v := act.pop()
		class, err := i.resolveClassMultiname(ctx, act.scope, mn)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(value.Bool(i.isInstanceOf(v, class)))
	case OpIsTypeLate:
		classVal := act.pop()
		v := act.pop()
		class := i.classFromValue(classVal)
		act.push(value.Bool(i.isInstanceOf(v, class)))
	case OpAsType:
		mn := m.Multinames[instr.Index]
		v := act.pop()
		class, err := i.resolveClassMultiname(ctx, act.scope, mn)
		if err != nil {
			return value.Undefined, false, err
		}
		if i.isInstanceOf(v, class) {
			act.push(v)
		} else {
			act.push(value.Null)
		}
	case OpAsTypeLate:
		classVal := act.pop()
		v := act.pop()
		class := i.classFromValue(classVal)
		if i.isInstanceOf(v, class) {
			act.push(v)
		} else {
			act.push(value.Null)
		}

	case OpHasNext:
		obj := act.pop()
		idx := act.pop()
		i32, _ := idx.AsInteger()
		next, hasNext := i.hasNext(obj, int(i32))
		if hasNext {
			act.push(value.Integer(int32(next)))
		} else {
			act.push(value.Integer(0))
		}
	case OpHasNext2:
		stillGoing, newObjHandle, newIndex := i.hasNext2(act, instr.Index, instr.Index2)
		act.setLocal(instr.Index, value.Object(newObjHandle))
		act.setLocal(instr.Index2, value.Integer(int32(newIndex)))
		act.push(value.Bool(stillGoing))
	case OpNextName:
		idx := act.pop()
		obj := act.pop()
		v := i.nextName(obj, idx)
		act.push(v)
	case OpNextValue:
		idx := act.pop()
		obj := act.pop()
		v, err := i.nextValue(ctx, obj, idx)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(v)

	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpModulo,
		OpBitAnd, OpBitOr, OpBitXor, OpShiftLeft, OpShiftRight:
		rhs := act.pop()
		lhs := act.pop()
		result, err := i.binaryOp(ctx, instr.Op, lhs, rhs)
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(result)
	case OpNegate:
		n, err := value.ToNumber(ctx, i.Heap, act.pop())
		if err != nil {
			return value.Undefined, false, err
		}
		act.push(value.Number(-n))
	case OpNot:
		act.push(value.Bool(!value.ToBool(ctx, i.Heap, act.pop(), 9)))

	case OpDebug, OpDebugFile, OpDebugLine:
		// no-ops in production (spec.md §4.G)

	default:
		return value.Undefined, false, errz.New(errz.Parse, errz.SourceLocation{}, nil, "unimplemented vm2 opcode %s", instr.Op.Name())
	}
	return value.Undefined, false, nil
}

func globalOf(c *scope.Chain) gc.Handle {
	for c.Pop() != nil {
		c = c.Pop()
	}
	return c.Object()
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

// findProperty implements spec.md §4.G "findproperty/findpropstrict":
// walk the scope stack innermost-to-outermost, matching a with-frame on
// has_property and an ordinary frame on its declared traits.
func (i *Interpreter) findProperty(chain *scope.Chain, mn names.Multiname) (*scope.Chain, bool) {
	for cur := chain; cur != nil; cur = cur.Pop() {
		obj, ok := i.Heap.Resolve(cur.Object())
		if !ok {
			continue
		}
		if cur.IsWith() {
			if obj.HasProperty(i.Heap, mn.Name) {
				return cur, true
			}
			continue
		}
		if _, ok := obj.ResolveMultiname(i.Heap, mn); ok {
			return cur, true
		}
		if obj.HasOwnProperty(mn.Name) {
			return cur, true
		}
	}
	return nil, false
}
