package vm2

import (
	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/names"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/scope"
	"github.com/avmcore/avm/value"
)

// Method is a VM2 method body (spec.md §4.G "Bytecode (ABC format)"):
// methods carry their own scope-depth and stack/register budgets plus a
// constant pool of multinames referenced by name-resolution opcodes.
type Method struct {
	Name           value.StringHandle
	Native         NativeFunc
	Code           []Instruction
	Multinames     []names.Multiname
	ClassInfos     []ClassInfo
	InitScopeDepth int
	MaxScopeDepth  int
	MaxStack       int
	LocalCount     int
	// NestedMethods backs `newfunction`/`callstatic`: method bodies
	// declared inline in this one, indexed the way the ABC method_info
	// array is (spec.md §4.G).
	NestedMethods []*Method
	// Exceptions is this method's exception table (spec.md §4.G
	// exceptions): a thrown value unwinds to the first entry whose
	// [From, To) range covers the faulting instruction.
	Exceptions []ExceptionHandler
	// DeclaringClass backs getsuper/setsuper/callsuper* (spec.md §4.G:
	// "use the base prototype recorded in the current activation").
	DeclaringClass *object.Class
	// ClosureScope is the scope chain captured at newfunction time for a
	// method declared inline in another method's body (spec.md §4.G
	// "newfunction"); nil for a class's own instance/static methods,
	// which run against the global chain.
	ClosureScope *scope.Chain
	TraceExtra   func(visit func(gc.Handle))
}

// NativeFunc is a Go-implemented VM2 method body.
type NativeFunc func(i *Interpreter, this value.Value, args []value.Value) (value.Value, error)

// ExceptionHandler is one row of a method's exception table (spec.md
// §4.G): instructions in [From, To) that throw jump to Target. VarName
// records the catch variable's name when HasVarName is set;
// catchException does not bind it and leaves the thrown value on the
// operand stack instead.
type ExceptionHandler struct {
	From, To, Target int
	VarName          value.StringHandle
	HasVarName       bool
}
