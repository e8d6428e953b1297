// Package vm2 implements the class/trait-based VM for SWF>=9 scripts
// (spec.md §4.G): ABC-like method bodies, a register file, an operand
// stack, a scope stack, and the findproperty/getsuper/newclass machinery
// that gives VM2 its name-resolution and construction semantics.
//
// As with vm1, raw ABC byte-stream decoding is out of scope (spec.md §6:
// the container format is an external producer); this package consumes
// already-decoded Instruction values whose opcode set and semantics
// follow spec.md §4.G's listed families.
package vm2

// Op is one decoded VM2 instruction, grounded on the teacher's
// op.Code/Info pattern (op/op.go).
type Op uint16

const (
	OpInvalid Op = iota

	// Stack
	OpPushByte
	OpPushShort
	OpPushInt
	OpPushUInt
	OpPushDouble
	OpPushString
	OpPushNamespace
	OpPushTrue
	OpPushFalse
	OpPushNull
	OpPushUndefined
	OpPushNaN
	OpPop
	OpDup
	OpSwap
	OpPushScope
	OpPushWith
	OpPopScope
	OpGetScopeObject
	OpGetGlobalScope

	// Locals & slots
	OpGetLocal
	OpSetLocal
	OpKill
	OpGetSlot
	OpSetSlot
	OpGetGlobalSlot
	OpSetGlobalSlot

	// Name resolution & property access
	OpFindProperty
	OpFindPropStrict
	OpGetLex
	OpGetProperty
	OpSetProperty
	OpInitProperty
	OpDeleteProperty
	OpGetSuper
	OpSetSuper

	// Invocation
	OpCall
	OpCallMethod
	OpCallProperty
	OpCallPropLex
	OpCallPropVoid
	OpCallStatic
	OpCallSuper
	OpCallSuperVoid
	OpConstruct
	OpConstructProp
	OpConstructSuper

	// Construction
	OpNewActivation
	OpNewObject
	OpNewArray
	OpNewFunction
	OpNewClass

	// Control flow
	OpJump
	OpIfTrue
	OpIfFalse
	OpIfStrictEq
	OpIfStrictNe
	OpIfEq
	OpIfNe
	OpIfLt
	OpIfLe
	OpIfGt
	OpIfGe
	OpLabel
	OpReturnValue
	OpReturnVoid
	OpThrow

	// Coercions
	OpCoerce
	OpCoerceA
	OpCoerceS
	OpConvertB
	OpConvertI
	OpConvertU
	OpConvertD
	OpConvertS
	OpConvertO
	OpAsType
	OpAsTypeLate
	OpIsType
	OpIsTypeLate

	// Iteration
	OpHasNext
	OpHasNext2
	OpNextName
	OpNextValue

	// Arithmetic & logical
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShiftLeft
	OpShiftRight
	OpNegate
	OpNot

	// Debug (no-ops in production)
	OpDebug
	OpDebugFile
	OpDebugLine
)

var opNames = map[Op]string{
	OpPushByte: "pushbyte", OpPushShort: "pushshort", OpPushInt: "pushint",
	OpPushUInt: "pushuint", OpPushDouble: "pushdouble", OpPushString: "pushstring",
	OpPushNamespace: "pushnamespace", OpPushTrue: "pushtrue", OpPushFalse: "pushfalse",
	OpPushNull: "pushnull", OpPushUndefined: "pushundefined", OpPushNaN: "pushnan",
	OpPop: "pop", OpDup: "dup", OpSwap: "swap", OpPushScope: "pushscope",
	OpPushWith: "pushwith", OpPopScope: "popscope", OpGetScopeObject: "getscopeobject",
	OpGetGlobalScope: "getglobalscope", OpGetLocal: "getlocal", OpSetLocal: "setlocal",
	OpKill: "kill", OpGetSlot: "getslot", OpSetSlot: "setslot",
	OpGetGlobalSlot: "getglobalslot", OpSetGlobalSlot: "setglobalslot",
	OpFindProperty: "findproperty", OpFindPropStrict: "findpropstrict", OpGetLex: "getlex",
	OpGetProperty: "getproperty", OpSetProperty: "setproperty", OpInitProperty: "initproperty",
	OpDeleteProperty: "deleteproperty", OpGetSuper: "getsuper", OpSetSuper: "setsuper",
	OpCall: "call", OpCallMethod: "callmethod", OpCallProperty: "callproperty",
	OpCallPropLex: "callproplex", OpCallPropVoid: "callpropvoid", OpCallStatic: "callstatic",
	OpCallSuper: "callsuper", OpCallSuperVoid: "callsupervoid", OpConstruct: "construct",
	OpConstructProp: "constructprop", OpConstructSuper: "constructsuper",
	OpNewActivation: "newactivation", OpNewObject: "newobject", OpNewArray: "newarray",
	OpNewFunction: "newfunction", OpNewClass: "newclass",
	OpJump: "jump", OpIfTrue: "iftrue", OpIfFalse: "iffalse", OpIfStrictEq: "ifstricteq",
	OpIfStrictNe: "ifstrictne", OpIfEq: "ifeq", OpIfNe: "ifne", OpIfLt: "iflt",
	OpIfLe: "ifle", OpIfGt: "ifgt", OpIfGe: "ifge", OpLabel: "label",
	OpReturnValue: "returnvalue", OpReturnVoid: "returnvoid", OpThrow: "throw",
	OpCoerce: "coerce", OpCoerceA: "coerce_a", OpCoerceS: "coerce_s",
	OpConvertB: "convert_b", OpConvertI: "convert_i", OpConvertU: "convert_u",
	OpConvertD: "convert_d", OpConvertS: "convert_s", OpConvertO: "convert_o",
	OpAsType: "astype", OpAsTypeLate: "astypelate", OpIsType: "istype", OpIsTypeLate: "istypelate",
	OpHasNext: "hasnext", OpHasNext2: "hasnext2", OpNextName: "nextname", OpNextValue: "nextvalue",
	OpAdd: "add", OpSubtract: "subtract", OpMultiply: "multiply", OpDivide: "divide",
	OpModulo: "modulo", OpBitAnd: "bitand", OpBitOr: "bitor", OpBitXor: "bitxor",
	OpShiftLeft: "lshift", OpShiftRight: "rshift", OpNegate: "negate", OpNot: "not",
	OpDebug: "debug", OpDebugFile: "debugfile", OpDebugLine: "debugline",
}

func (o Op) Name() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "unknown"
}

// Instruction is one decoded VM2 instruction.
type Instruction struct {
	Op       Op
	Const    interface{} // literal operand: int32/uint32/float64/string/bool, per opcode
	Index    int         // register / slot / multiname-table index
	Index2   int         // second index (hasnext2's index_reg)
	Addr     int         // jump target
	ArgCount int
}
