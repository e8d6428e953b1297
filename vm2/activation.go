package vm2

import (
	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/scope"
	"github.com/avmcore/avm/value"
)

const defaultRegisters = 8

// activation is one VM2 call frame (spec.md §4.G "Registers"): register 0
// is `this` (or the global object for script initializers), the scope
// stack starts at InitScopeDepth entries already pushed by the caller,
// and DefaultDomain/IsExecuting are the supplemented activation fields
// (SPEC_FULL.md §3: "VM2 Activation extra fields").
type activation struct {
	method *Method
	ip     int
	stack  []value.Value
	scope  *scope.Chain

	storage  [defaultRegisters]value.Value
	extended []value.Value
	regs     []value.Value

	// DefaultDomain is the application domain new classes/traits defined
	// in this activation register into (supplemented feature).
	DefaultDomain gc.Handle
	// IsExecuting guards against re-entrant execution of a shared
	// activation object, e.g. a method stored and called recursively
	// through a script-visible reference to its own activation.
	IsExecuting bool
	// BaseProto is the class this activation's method was declared on,
	// used by getsuper/setsuper/callsuper* (spec.md §4.G) to bypass the
	// receiver's own (possibly overriding) traits.
	BaseProto gc.Handle
	HasBase   bool
}

func newActivation(m *Method, chain *scope.Chain, this value.Value) *activation {
	a := &activation{method: m, scope: chain}
	n := m.LocalCount
	if n <= defaultRegisters {
		a.regs = a.storage[:n]
	} else {
		a.extended = make([]value.Value, n)
		a.regs = a.extended
	}
	if len(a.regs) > 0 {
		a.regs[0] = this
	}
	return a
}

func (a *activation) push(v value.Value) { a.stack = append(a.stack, v) }

func (a *activation) peek() value.Value {
	if len(a.stack) == 0 {
		return value.Undefined
	}
	return a.stack[len(a.stack)-1]
}

func (a *activation) pop() value.Value {
	n := len(a.stack)
	if n == 0 {
		return value.Undefined
	}
	v := a.stack[n-1]
	a.stack = a.stack[:n-1]
	return v
}

func (a *activation) popN(n int) []value.Value {
	if n <= 0 {
		return nil
	}
	if n > len(a.stack) {
		n = len(a.stack)
	}
	out := make([]value.Value, n)
	copy(out, a.stack[len(a.stack)-n:])
	a.stack = a.stack[:len(a.stack)-n]
	return out
}

func (a *activation) getLocal(i int) value.Value {
	if i < 0 || i >= len(a.regs) {
		return value.Undefined
	}
	return a.regs[i]
}

func (a *activation) setLocal(i int, v value.Value) {
	if i < 0 || i >= len(a.regs) {
		return
	}
	a.regs[i] = v
}

func (a *activation) kill(i int) { a.setLocal(i, value.Undefined) }
