package vm1

import (
	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/scope"
	"github.com/avmcore/avm/value"
)

// PreloadFlag selects which well-known values a V2 function definition
// preloads into fixed registers, and whether the matching local name is
// suppressed (spec.md §4.F "Preloading").
type PreloadFlag uint16

const (
	PreloadThis PreloadFlag = 1 << iota
	PreloadArguments
	PreloadSuper
	PreloadRoot
	PreloadParent
	PreloadGlobal
	SuppressThis
	SuppressArguments
	SuppressSuper
)

func (f PreloadFlag) Has(bit PreloadFlag) bool { return f&bit != 0 }

// Param is one declared parameter of a V2 function, optionally bound
// directly into a register rather than a named local.
type Param struct {
	Name     value.StringHandle
	Register int // 0 means "not pre-bound to a register"
}

// Template is a VM1 function body (spec.md §4.F "Calls"): either native
// (Native set) or bytecode (Code set), plus the scope it closed over, its
// parameter list, and its register/stack budget.
type Template struct {
	Name       value.StringHandle
	HasName    bool
	Native     NativeFunc
	Code       []Instruction
	DefScope   *scope.Chain
	Params     []Param
	Preload    PreloadFlag
	MaxStack   int
	NumLocals  int
	IsV2       bool
	TraceExtra func(visit func(gc.Handle))
}

// NativeFunc is a Go-implemented VM1 function body.
type NativeFunc func(i *Interpreter, this value.Value, args []value.Value) (value.Value, error)
