// Package vm1 implements the prototype-based VM for SWF<=9 scripts
// (spec.md §4.F): activation frames, an operand stack, bytecode dispatch,
// call/return, and stack continuations.
//
// Container-level byte decoding (the raw one-byte-opcode-plus-u16-length
// framing spec.md describes) is out of scope here: the bytecode container
// is an external producer (spec.md §6 Non-goals), so this package accepts
// already-decoded Instruction values rather than a raw byte reader. The
// opcode set and its semantics otherwise follow spec.md §4.F exactly.
package vm1

import "github.com/avmcore/avm/value"

// Op is one decoded VM1 instruction opcode, grounded on the teacher's
// op.Code pattern (op/op.go): a small integer enum with a side table of
// human-readable names for disassembly/logging.
type Op uint16

const (
	OpInvalid Op = iota

	// Stack / constants
	OpPush
	OpPop

	// Arithmetic & logical
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpEquals
	OpStrictEquals
	OpLess
	OpGreater
	OpAnd
	OpOr
	OpNot
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShiftLeft
	OpShiftRight

	// Variables & properties
	OpGetVariable
	OpSetVariable
	OpGetMember
	OpSetMember
	OpDeleteMember
	OpGetProperty // legacy numeric-index property get/set
	OpSetProperty

	// Flow control
	OpJump
	OpIf
	OpCallFunction
	OpCallMethod
	OpNewObject
	OpNewMethod
	OpReturn
	OpEnd

	// Scoping
	OpWith
	OpEnumerate
	OpTypeOf
	OpInstanceOf

	// Exceptions
	OpTry
	OpThrow

	// Function definition
	OpDefineFunction   // V1 form
	OpDefineFunction2  // V2 form, with register preloading

	// String ops
	OpStringAdd
	OpStringEquals
	OpStringLength

	// Timeline actions
	OpGotoFrame
	OpPlay
	OpStop
	OpGetURL
	OpStartDrag
	OpStopDrag
)

// OpInfo documents one opcode's name, used for disassembly and error
// messages; grounded on the teacher's op.Info/GetInfo pattern.
type OpInfo struct {
	Op   Op
	Name string
}

var opNames = map[Op]string{
	OpInvalid:        "invalid",
	OpPush:           "push",
	OpPop:            "pop",
	OpAdd:            "add",
	OpSubtract:       "subtract",
	OpMultiply:       "multiply",
	OpDivide:         "divide",
	OpModulo:         "modulo",
	OpEquals:         "equals",
	OpStrictEquals:   "strict_equals",
	OpLess:           "less",
	OpGreater:        "greater",
	OpAnd:            "and",
	OpOr:             "or",
	OpNot:            "not",
	OpBitAnd:         "bit_and",
	OpBitOr:          "bit_or",
	OpBitXor:         "bit_xor",
	OpShiftLeft:      "shift_left",
	OpShiftRight:     "shift_right",
	OpGetVariable:    "get_variable",
	OpSetVariable:    "set_variable",
	OpGetMember:      "get_member",
	OpSetMember:      "set_member",
	OpDeleteMember:   "delete_member",
	OpGetProperty:    "get_property",
	OpSetProperty:    "set_property",
	OpJump:           "jump",
	OpIf:             "if",
	OpCallFunction:   "call_function",
	OpCallMethod:     "call_method",
	OpNewObject:      "new_object",
	OpNewMethod:      "new_method",
	OpReturn:         "return",
	OpEnd:            "end",
	OpWith:           "with",
	OpEnumerate:      "enumerate",
	OpTypeOf:         "type_of",
	OpInstanceOf:     "instance_of",
	OpTry:            "try",
	OpThrow:          "throw",
	OpDefineFunction: "define_function",
	OpDefineFunction2: "define_function2",
	OpStringAdd:      "string_add",
	OpStringEquals:   "string_equals",
	OpStringLength:   "string_length",
	OpGotoFrame:      "goto_frame",
	OpPlay:           "play",
	OpStop:           "stop",
	OpGetURL:         "get_url",
	OpStartDrag:      "start_drag",
	OpStopDrag:       "stop_drag",
}

// Name returns the opcode's disassembly name.
func (o Op) Name() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "unknown"
}

// Instruction is one decoded bytecode instruction. Not every field is
// used by every opcode; Const carries push/goto/string arguments, Addr
// carries a jump target index, Count carries an arity for calls.
//
// OpTry additionally uses the exception-region fields below: the
// decoder computes CatchAddr/FinallyAddr/EndAddr from ActionTry's
// try_size/catch_size/finally_size the same way it resolves every other
// jump target, so the interpreter only needs to record and restore
// state around those addresses (spec.md §4.F exceptions).
//
// OpDefineFunction/OpDefineFunction2 use FuncTemplate to carry the
// already-built *Template for the nested function body (the decoder
// assembles this the same way it assembles the top-level Template).
type Instruction struct {
	Op    Op
	Const value.Value
	Addr  int
	Count int

	HasCatch    bool
	CatchAddr   int
	HasFinally  bool
	FinallyAddr int
	EndAddr     int

	CatchIsRegister bool
	CatchReg        int
	CatchName       value.StringHandle
	HasCatchName    bool

	FuncTemplate *Template
}
