package vm1

import (
	"github.com/avmcore/avm/scope"
	"github.com/avmcore/avm/value"
)

// defaultRegisters is the number of registers stored inline on an
// activation before falling back to a heap slice, grounded on the
// teacher's DefaultFrameLocals/extendedLocals split (vm/frame.go): most
// VM1 functions use few registers, so the common case avoids an
// allocation.
const defaultRegisters = 8

// activation is one VM1 call frame (spec.md §4.F "Execution model"): the
// executing template, its operand stack, its registers (register 0 is
// `this` for V2-style preloading), its scope chain, and the instruction
// pointer.
type activation struct {
	tmpl   *Template
	ip     int
	stack  []value.Value
	scope  *scope.Chain
	this   value.Value

	storage  [defaultRegisters]value.Value
	extended []value.Value
	regs     []value.Value

	// variables is the V1-style activation-local variable table, used
	// when the function is not a V2 form with register-bound params.
	variables map[value.StringHandle]value.Value

	// tryStack holds the active exception regions for this activation,
	// innermost last (spec.md §4.F exceptions).
	tryStack []tryFrame
}

// tryFrame is one active ActionTry region, recording where to unwind to
// on a thrown value and what state to restore first.
type tryFrame struct {
	endAddr     int
	hasCatch    bool
	catchAddr   int
	hasFinally  bool
	finallyAddr int
	stackDepth  int
	scopeDepth  int

	catchIsRegister bool
	catchReg        int
	catchName       value.StringHandle
	hasCatchName    bool
}

func newActivation(tmpl *Template, this value.Value, chain *scope.Chain) *activation {
	a := &activation{tmpl: tmpl, this: this, scope: chain, variables: make(map[value.StringHandle]value.Value)}
	n := tmpl.NumLocals
	if n <= defaultRegisters {
		a.regs = a.storage[:n]
	} else {
		a.extended = make([]value.Value, n)
		a.regs = a.extended
	}
	return a
}

func (a *activation) push(v value.Value) { a.stack = append(a.stack, v) }

func (a *activation) pop() value.Value {
	n := len(a.stack)
	if n == 0 {
		return value.Undefined
	}
	v := a.stack[n-1]
	a.stack = a.stack[:n-1]
	return v
}

func (a *activation) peek() value.Value {
	if len(a.stack) == 0 {
		return value.Undefined
	}
	return a.stack[len(a.stack)-1]
}

func (a *activation) reg(i int) value.Value {
	if i < 0 || i >= len(a.regs) {
		return value.Undefined
	}
	return a.regs[i]
}

func (a *activation) setReg(i int, v value.Value) {
	if i < 0 || i >= len(a.regs) {
		return
	}
	a.regs[i] = v
}
