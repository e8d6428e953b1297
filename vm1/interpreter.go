package vm1

import (
	"context"

	"github.com/avmcore/avm/errz"
	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/names"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/scope"
	"github.com/avmcore/avm/value"
)

// maxRecursionDepth bounds nested Run calls (spec.md §4.F "Execution
// model": "recursion depth is bounded to prevent stack overflow...
// configurable cap ~= 255").
const maxRecursionDepth = 255

// dragState is the single process-wide drag target (spec.md §4.F
// "startDrag/stopDrag set/clear a single process-wide drag target").
type dragState struct {
	active bool
	target gc.Handle
}

// Interpreter runs VM1 bytecode (spec.md §4.F). One Interpreter is shared
// by every activation in a call chain; Run recurses for nested calls,
// tracking depth itself rather than relying on the host Go stack
// overflowing (which would crash the whole process).
type Interpreter struct {
	Heap       *Heap
	SWFVersion int
	MC         *gc.MutationContext

	depth int
	drag  dragState

	// pendingContinuation is a Continuation slot (spec.md §4.F "Stack
	// continuations"). Nothing in this package sets or reads it, so every
	// activation's result returns directly to its Go caller.
	pendingContinuation *Continuation

	// TimelineHandler executes the timeline-affecting opcodes
	// (GotoFrame/Play/Stop/GetURL/StartDrag/StopDrag); package timeline
	// installs this so vm1 never imports it directly.
	TimelineHandler func(ctx context.Context, instr Instruction)
}

// NewInterpreter creates an interpreter bound to heap for the given SWF
// version (spec.md §4.D: version gates case sensitivity and to_bool).
func NewInterpreter(heap *Heap, mc *gc.MutationContext, swfVersion int) *Interpreter {
	return &Interpreter{Heap: heap, SWFVersion: swfVersion, MC: mc}
}

// fold implements VM1's case-insensitive property fallback (spec.md
// §4.D), wired through the interner so object.Get can compare folded
// StringHandles directly instead of re-folding Go strings on every probe.
func (i *Interpreter) fold(name value.StringHandle) (value.StringHandle, bool) {
	if names.CaseSensitive(i.SWFVersion) {
		return name, false
	}
	s := i.Heap.Interner.Lookup(name)
	folded := names.Fold(s)
	if folded == s {
		return name, false
	}
	return i.Heap.Interner.Intern(folded), true
}

// Invoke implements object.InvokeFunc so object getters/setters/watchers
// can call back into this interpreter without the object package knowing
// VM1 exists (spec.md §4.C, wired via object.WithInvoke). A bytecode
// function dispatches straight into CallTemplate; routing it back through
// Object.Call would just re-enter Invoke forever, since Call only calls
// Native directly and otherwise always asks the active InvokeFunc to run it.
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
	tmpl, ok := payload.BytecodeRef.(*Template)
	if !ok || tmpl == nil {
		return value.Undefined, errz.New(errz.Type, errz.SourceLocation{}, nil, "function has no VM1 body")
	}
	return i.CallTemplate(ctx, tmpl, this, args)
}

// Context returns a context.Context carrying this interpreter as the
// active InvokeFunc, for driving the object model's Get/Set/Call.
func (i *Interpreter) Context(parent context.Context) context.Context {
	return object.WithInvoke(parent, i.Invoke)
}

// CallTemplate runs tmpl as a fresh activation (spec.md §4.F "Execution
// model": "A VM call is a recursive invocation of the interpreter on a
// fresh activation"). V2 templates preload registers per tmpl.Preload
// before the first instruction executes.
func (i *Interpreter) CallTemplate(ctx context.Context, tmpl *Template, this value.Value, args []value.Value) (value.Value, error) {
	if i.depth >= maxRecursionDepth {
		return value.Undefined, errz.New(errz.Range, errz.SourceLocation{}, nil, "stack overflow: recursion depth exceeded %d", maxRecursionDepth)
	}
	if tmpl.Native != nil {
		return tmpl.Native(i, this, args)
	}
	i.depth++
	defer func() { i.depth-- }()

	chain := tmpl.DefScope
	act := newActivation(tmpl, this, chain)
	i.bindParams(act, tmpl, args)
	i.preloadRegisters(act, tmpl, this, args)

	return i.run(ctx, act)
}

func (i *Interpreter) bindParams(act *activation, tmpl *Template, args []value.Value) {
	for idx, p := range tmpl.Params {
		var v value.Value
		if idx < len(args) {
			v = args[idx]
		} else {
			v = value.Undefined
		}
		if p.Register > 0 {
			act.setReg(p.Register, v)
		} else {
			act.variables[p.Name] = v
		}
	}
}

func (i *Interpreter) preloadRegisters(act *activation, tmpl *Template, this value.Value, args []value.Value) {
	if !tmpl.IsV2 {
		return
	}
	reg := 1
	pre := tmpl.Preload
	if pre.Has(PreloadThis) {
		act.setReg(reg, this)
		reg++
	}
	if pre.Has(PreloadArguments) {
		reg++ // arguments object construction is left to builtins; register reserved
	}
	if pre.Has(PreloadSuper) {
		reg++
	}
	if pre.Has(PreloadRoot) || pre.Has(PreloadParent) || pre.Has(PreloadGlobal) {
		reg++
	}
}

// run executes the dispatch loop for one activation (spec.md §4.F
// "Dispatch": "fetch one opcode, decode operands... continue until End or
// a return op"). A thrown value unwinds to the innermost active try
// region in this activation rather than propagating to the Go caller,
// matching ActionTry's in-frame catch/finally semantics.
func (i *Interpreter) run(ctx context.Context, act *activation) (value.Value, error) {
	for act.ip < len(act.tmpl.Code) {
		for len(act.tryStack) > 0 && act.ip >= act.tryStack[len(act.tryStack)-1].endAddr {
			act.tryStack = act.tryStack[:len(act.tryStack)-1]
		}

		instr := act.tmpl.Code[act.ip]
		act.ip++

		result, isReturn, err := i.execInstr(ctx, act, instr)
		if err != nil {
			if i.tryCatch(ctx, act, err) {
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

// tryCatch unwinds act to the innermost active exception region, if any,
// restoring its recorded stack/scope depth and binding the thrown value
// into the catch variable or register (spec.md §4.F exceptions). Returns
// false if no region is active, meaning err should propagate further.
func (i *Interpreter) tryCatch(ctx context.Context, act *activation, err error) bool {
	if len(act.tryStack) == 0 {
		return false
	}
	frame := act.tryStack[len(act.tryStack)-1]
	act.tryStack = act.tryStack[:len(act.tryStack)-1]

	if frame.stackDepth <= len(act.stack) {
		act.stack = act.stack[:frame.stackDepth]
	}
	for act.scope.Depth() > frame.scopeDepth {
		act.scope = act.scope.Pop()
	}

	if !frame.hasCatch {
		if frame.hasFinally {
			act.ip = frame.finallyAddr
			return true
		}
		return false
	}

	var thrown value.Value
	if se, ok := err.(*errz.StructuredError); ok {
		if v, ok := se.Value.(value.Value); ok {
			thrown = v
		}
	}
	if frame.hasCatchName {
		target := scope.ResolveForAssignment(i.Heap, act.scope, frame.catchName)
		if obj, ok := i.Heap.Resolve(target.Object()); ok {
			_ = obj.Set(ctx, i.Heap, frame.catchName, thrown, i.foldIfV1())
		}
	} else if frame.catchIsRegister {
		act.setReg(frame.catchReg, thrown)
	}
	act.ip = frame.catchAddr
	return true
}

// execInstr runs one instruction, returning (result, true, nil) when it
// ends the activation (End/Return), (_, false, err) on failure, and
// (_, false, nil) otherwise.
func (i *Interpreter) execInstr(ctx context.Context, act *activation, instr Instruction) (value.Value, bool, error) {
	switch instr.Op {
	case OpEnd:
			return value.Undefined, true, nil
		case OpReturn:
			return act.pop(), true, nil

		case OpPush:
			act.push(instr.Const)
		case OpPop:
			act.pop()

		case OpAdd, OpSubtract, OpMultiply, OpDivide, OpModulo,
			OpEquals, OpStrictEquals, OpLess, OpGreater,
			OpAnd, OpOr, OpBitAnd, OpBitOr, OpBitXor, OpShiftLeft, OpShiftRight,
			OpStringAdd, OpStringEquals:
			rhs := act.pop()
			lhs := act.pop()
			result, err := i.binaryOp(ctx, instr.Op, lhs, rhs)
			if err != nil {
				return value.Undefined, false, err
			}
			act.push(result)
		case OpStringLength:
			s, err := value.ToString(ctx, i.Heap, act.pop())
			if err != nil {
				return value.Undefined, false, err
			}
			act.push(value.Integer(int32(len([]rune(s)))))
		case OpNot:
			v := act.pop()
			b := value.ToBool(ctx, i.Heap, v, i.SWFVersion)
			act.push(value.Bool(!b))

		case OpGetVariable:
			name, _ := act.pop().AsString()
			v, _, found := scope.Resolve(ctx, i.Heap, act.scope, name, i.foldIfV1())
			if !found {
				v = value.Undefined
			}
			act.push(v)
		case OpSetVariable:
			v := act.pop()
			name, _ := act.pop().AsString()
			frame := scope.ResolveForAssignment(i.Heap, act.scope, name)
			if obj, ok := i.Heap.Resolve(frame.Object()); ok {
				_ = obj.Set(ctx, i.Heap, name, v, i.foldIfV1())
			}

		case OpGetMember:
			name, _ := act.pop().AsString()
			objVal := act.pop()
			result, err := i.getMember(ctx, objVal, name)
			if err != nil {
				return value.Undefined, false, err
			}
			act.push(result)
		case OpSetMember:
			v := act.pop()
			name, _ := act.pop().AsString()
			objVal := act.pop()
			if handle, ok := objVal.AsObject(); ok {
				if obj, ok := i.Heap.Resolve(handle); ok {
					_ = obj.Set(ctx, i.Heap, name, v, i.foldIfV1())
				}
			}
		case OpDeleteMember:
			name, _ := act.pop().AsString()
			objVal := act.pop()
			if handle, ok := objVal.AsObject(); ok {
				if obj, ok := i.Heap.Resolve(handle); ok {
					act.push(value.Bool(obj.Delete(name)))
				}
			}

		case OpGetProperty:
			// Legacy numeric-index property access (pre-ActionGetMember
			// SWF3 form): the index selects a well-known built-in property
			// by position rather than by name, resolved through the
			// variant's normal Get using its interned canonical name.
			idx, _ := act.pop().AsInteger()
			objVal := act.pop()
			result, err := i.getMember(ctx, objVal, i.Heap.Interner.Intern(legacyPropertyName(int(idx))))
			if err != nil {
				return value.Undefined, false, err
			}
			act.push(result)
		case OpSetProperty:
			v := act.pop()
			idx, _ := act.pop().AsInteger()
			objVal := act.pop()
			if handle, ok := objVal.AsObject(); ok {
				if obj, ok := i.Heap.Resolve(handle); ok {
					_ = obj.Set(ctx, i.Heap, i.Heap.Interner.Intern(legacyPropertyName(int(idx))), v, i.foldIfV1())
				}
			}

		case OpJump:
			act.ip = instr.Addr
		case OpIf:
			cond := act.pop()
			if value.ToBool(ctx, i.Heap, cond, i.SWFVersion) {
				act.ip = instr.Addr
			}

		case OpTypeOf:
			v := act.pop()
			act.push(value.StringOf(i.Heap.Interner.Intern(i.typeOf(v))))
		case OpInstanceOf:
			ctor := act.pop()
			target := act.pop()
			act.push(value.Bool(i.instanceOf(target, ctor)))

		case OpCallFunction:
			result, err := i.dispatchCall(ctx, act, instr.Count, false)
			if err != nil {
				return value.Undefined, false, err
			}
			act.push(result)
		case OpCallMethod:
			result, err := i.dispatchCall(ctx, act, instr.Count, true)
			if err != nil {
				return value.Undefined, false, err
			}
			act.push(result)

		case OpNewObject:
			result, err := i.newObject(ctx, act, instr.Count)
			if err != nil {
				return value.Undefined, false, err
			}
			act.push(result)
		case OpNewMethod:
			result, err := i.newMethod(ctx, act, instr.Count)
			if err != nil {
				return value.Undefined, false, err
			}
			act.push(result)

		case OpDefineFunction, OpDefineFunction2:
			if err := i.defineFunction(ctx, act, instr); err != nil {
				return value.Undefined, false, err
			}

		case OpTry:
			act.tryStack = append(act.tryStack, tryFrame{
				endAddr:         instr.EndAddr,
				hasCatch:        instr.HasCatch,
				catchAddr:       instr.CatchAddr,
				hasFinally:      instr.HasFinally,
				finallyAddr:     instr.FinallyAddr,
				stackDepth:      len(act.stack),
				scopeDepth:      act.scope.Depth(),
				catchIsRegister: instr.CatchIsRegister,
				catchReg:        instr.CatchReg,
				catchName:       instr.CatchName,
				hasCatchName:    instr.HasCatchName,
			})
		case OpThrow:
			v := act.pop()
			return value.Undefined, false, errz.NewCustom(v, errz.SourceLocation{}, nil)

		case OpEnumerate:
			i.enumerate(act, act.pop())

		case OpWith:
			withTarget := act.pop()
			if handle, ok := withTarget.AsObject(); ok {
				act.scope = act.scope.PushWith(handle)
			}

		case OpGotoFrame, OpPlay, OpStop, OpGetURL, OpStartDrag, OpStopDrag:
			// Timeline actions are executed by the driver/timeline layer,
			// which installs a handler via Interpreter.TimelineHandler;
			// absent one, these are no-ops (matches an unattached script).
			if i.TimelineHandler != nil {
				i.TimelineHandler(ctx, instr)
			}

	default:
		return value.Undefined, false, errz.New(errz.Parse, errz.SourceLocation{}, nil, "unimplemented vm1 opcode %s", instr.Op.Name())
	}
	return value.Undefined, false, nil
}

func (i *Interpreter) foldIfV1() func(value.StringHandle) (value.StringHandle, bool) {
	return i.fold
}

func (i *Interpreter) typeOf(v value.Value) string {
	switch v.Kind() {
	case value.KindUndefined:
		return "undefined"
	case value.KindNull, value.KindObject:
		if handle, ok := v.AsObject(); ok {
			if o, ok := i.Heap.Resolve(handle); ok {
				if o.Kind() == object.VariantFunction {
					return "function"
				}
			}
		}
		if v.IsNull() {
			return "object"
		}
		return "object"
	case value.KindBool:
		return "boolean"
	case value.KindInteger, value.KindNumber:
		return "number"
	case value.KindString:
		return "string"
	default:
		return "undefined"
	}
}

func (i *Interpreter) instanceOf(target value.Value, ctor value.Value) bool {
	targetHandle, ok := target.AsObject()
	if !ok {
		return false
	}
	ctorHandle, ok := ctor.AsObject()
	if !ok {
		return false
	}
	ctorObj, ok := i.Heap.Resolve(ctorHandle)
	if !ok {
		return false
	}
	protoVal, err := ctorObj.Get(context.Background(), i.Heap, i.Heap.Interner.Intern("prototype"), nil)
	if err != nil {
		return false
	}
	protoHandle, ok := protoVal.AsObject()
	if !ok {
		return false
	}
	cur, ok := i.Heap.Resolve(targetHandle)
	if !ok {
		return false
	}
	for depth := 0; depth < 256; depth++ {
		p, has := cur.Proto()
		if !has {
			return false
		}
		if p == protoHandle {
			return true
		}
		next, ok := i.Heap.Resolve(p)
		if !ok {
			return false
		}
		cur = next
	}
	return false
}

func (i *Interpreter) getMember(ctx context.Context, objVal value.Value, name value.StringHandle) (value.Value, error) {
	handle, ok := objVal.AsObject()
	if !ok {
		return value.Undefined, nil
	}
	obj, ok := i.Heap.Resolve(handle)
	if !ok {
		return value.Undefined, nil
	}
	return obj.Get(ctx, i.Heap, name, i.foldIfV1())
}

func (i *Interpreter) dispatchCall(ctx context.Context, act *activation, argc int, isMethod bool) (value.Value, error) {
	args := make([]value.Value, argc)
	for idx := argc - 1; idx >= 0; idx-- {
		args[idx] = act.pop()
	}
	var this value.Value
	var fnVal value.Value
	if isMethod {
		name, _ := act.pop().AsString()
		this = act.pop()
		v, err := i.getMember(ctx, this, name)
		if err != nil {
			return value.Undefined, err
		}
		fnVal = v
	} else {
		fnVal = act.pop()
		this = value.Undefined
	}
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

// legacyPropertyIndex is the fixed SWF4 GetProperty/SetProperty property
// order (spec.md §4.F "legacy numeric-index property access" predates
// ActionGetMember's by-name lookup).
var legacyPropertyIndex = []string{
	"_x", "_y", "_xscale", "_yscale", "_currentframe", "_totalframes",
	"_alpha", "_visible", "_width", "_height", "_rotation", "_target",
	"_framesloaded", "_name", "_droptarget", "_url", "_highquality",
	"_focusrect", "_soundbuftime", "_quality", "_xmouse", "_ymouse",
}

func legacyPropertyName(idx int) string {
	if idx < 0 || idx >= len(legacyPropertyIndex) {
		return ""
	}
	return legacyPropertyIndex[idx]
}

// newObject implements spec.md §4.F "new_object": looks up a constructor
// by name from the current scope, pops argc constructor arguments, and
// constructs a new instance of it (ActionNewObject's by-name form).
func (i *Interpreter) newObject(ctx context.Context, act *activation, argc int) (value.Value, error) {
	args := make([]value.Value, argc)
	for idx := argc - 1; idx >= 0; idx-- {
		args[idx] = act.pop()
	}
	name, _ := act.pop().AsString()
	ctorVal, _, found := scope.Resolve(ctx, i.Heap, act.scope, name, i.foldIfV1())
	if !found {
		return value.Undefined, errz.New(errz.Reference, errz.SourceLocation{}, nil, "constructor not found")
	}
	return i.constructValue(ctx, ctorVal, args)
}

// newMethod implements ActionNewMethod: resolves a constructor off a
// receiver object by member name, then constructs it the same way
// new_object does for a free-standing name.
func (i *Interpreter) newMethod(ctx context.Context, act *activation, argc int) (value.Value, error) {
	args := make([]value.Value, argc)
	for idx := argc - 1; idx >= 0; idx-- {
		args[idx] = act.pop()
	}
	name, _ := act.pop().AsString()
	receiver := act.pop()
	ctorVal, err := i.getMember(ctx, receiver, name)
	if err != nil {
		return value.Undefined, err
	}
	return i.constructValue(ctx, ctorVal, args)
}

func (i *Interpreter) constructValue(ctx context.Context, ctorVal value.Value, args []value.Value) (value.Value, error) {
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

// defineFunction implements ActionDefineFunction/ActionDefineFunction2
// (spec.md §4.F): builds a function object closing over the current
// scope chain, then either binds it to a name in that scope (a
// statement-form function declaration) or pushes it for an expression
// context to consume, matching ActionDefineFunction's own dual use.
func (i *Interpreter) defineFunction(ctx context.Context, act *activation, instr Instruction) error {
	blueprint := instr.FuncTemplate
	if blueprint == nil {
		return errz.New(errz.Parse, errz.SourceLocation{}, nil, "define_function without a template")
	}
	clone := *blueprint
	clone.DefScope = act.scope
	fnVal, err := i.Heap.NewFunctionObject(&clone)
	if err != nil {
		return err
	}
	if clone.HasName {
		target := scope.ResolveForAssignment(i.Heap, act.scope, clone.Name)
		if obj, ok := i.Heap.Resolve(target.Object()); ok {
			_ = obj.Set(ctx, i.Heap, clone.Name, fnVal, i.foldIfV1())
		}
		return nil
	}
	act.push(fnVal)
	return nil
}

// enumerate implements ActionEnumerate/ActionEnumerate2: pushes a null
// terminator followed by each enumerable own property name of obj, in
// reverse declaration order, so a for-in loop's Pop-driven iteration
// visits them front to back and finally pops the terminator
// (spec.md §4.C GetKeys).
func (i *Interpreter) enumerate(act *activation, objVal value.Value) {
	act.push(value.Null)
	handle, ok := objVal.AsObject()
	if !ok {
		return
	}
	obj, ok := i.Heap.Resolve(handle)
	if !ok {
		return
	}
	keys := obj.GetKeys()
	for idx := len(keys) - 1; idx >= 0; idx-- {
		if !obj.IsEnumerable(keys[idx]) {
			continue
		}
		act.push(value.StringOf(keys[idx]))
	}
}
