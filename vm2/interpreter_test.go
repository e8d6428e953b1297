package vm2_test

import (
	"context"
	"testing"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/names"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/scope"
	"github.com/avmcore/avm/value"
	"github.com/avmcore/avm/vm2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) (*vm2.Interpreter, *vm2.Heap, *scope.Chain) {
	t.Helper()
	global := object.New()
	arena := gc.NewArena(global)
	interner := value.NewInterner()
	heap := &vm2.Heap{Arena: arena, Interner: interner}

	var interp *vm2.Interpreter
	err := arena.Mutate(func(mc *gc.MutationContext) error {
		interp = vm2.NewInterpreter(heap, mc)
		return nil
	})
	require.NoError(t, err)

	chain := scope.Global(arena.Root())
	return interp, heap, chain
}

func TestArithmeticAndReturn(t *testing.T) {
	interp, _, chain := newFixture(t)
	ctx := interp.Context(context.Background())

	method := &vm2.Method{
		LocalCount: 1,
		Code: []vm2.Instruction{
			{Op: vm2.OpPushInt, Const: int32(4)},
			{Op: vm2.OpPushInt, Const: int32(6)},
			{Op: vm2.OpAdd},
			{Op: vm2.OpReturnValue},
		},
	}
	result, err := interp.CallMethod(ctx, method, value.Undefined, nil, chain)
	require.NoError(t, err)
	n, _ := result.AsNumber()
	assert.Equal(t, float64(10), n)
}

func TestGetSetPropertyByMultiname(t *testing.T) {
	interp, heap, chain := newFixture(t)
	ctx := interp.Context(context.Background())

	nameHandle := heap.Interner.Intern("score")
	publicNS := names.Namespace{Kind: names.Public, URI: heap.Interner.Intern("")}
	mn := names.Multiname{Name: nameHandle, HasName: true, NSSet: names.NamespaceSet{publicNS}}

	var objHandle gc.Handle
	_ = heap.Arena.Mutate(func(mc *gc.MutationContext) error {
		objHandle = mc.New(object.New())
		return nil
	})

	method := &vm2.Method{
		LocalCount: 1,
		Multinames: []names.Multiname{mn},
		Code: []vm2.Instruction{
			{Op: vm2.OpGetLocal, Index: 0},
			{Op: vm2.OpPushInt, Const: int32(99)},
			{Op: vm2.OpSetProperty, Index: 0},
			{Op: vm2.OpGetLocal, Index: 0},
			{Op: vm2.OpGetProperty, Index: 0},
			{Op: vm2.OpReturnValue},
		},
	}
	result, err := interp.CallMethod(ctx, method, value.Object(objHandle), nil, chain)
	require.NoError(t, err)
	n, _ := result.AsNumber()
	assert.Equal(t, float64(99), n)
}

func TestFindPropertyWalksScopeStack(t *testing.T) {
	interp, heap, chain := newFixture(t)
	ctx := interp.Context(context.Background())

	name := heap.Interner.Intern("found")
	publicNS := names.Namespace{Kind: names.Public, URI: heap.Interner.Intern("")}
	mn := names.Multiname{Name: name, HasName: true, NSSet: names.NamespaceSet{publicNS}}

	var innerHandle gc.Handle
	_ = heap.Arena.Mutate(func(mc *gc.MutationContext) error {
		inner := object.New()
		inner.DefineValue(name, value.Integer(7), 0)
		innerHandle = mc.New(inner)
		return nil
	})

	innerChain := chain.Push(innerHandle)

	method := &vm2.Method{
		LocalCount: 1,
		Multinames: []names.Multiname{mn},
		Code: []vm2.Instruction{
			{Op: vm2.OpFindPropStrict, Index: 0},
			{Op: vm2.OpGetProperty, Index: 0},
			{Op: vm2.OpReturnValue},
		},
	}
	result, err := interp.CallMethod(ctx, method, value.Undefined, nil, innerChain)
	require.NoError(t, err)
	n, _ := result.AsNumber()
	assert.Equal(t, float64(7), n)
}

func TestRecursionDepthCap(t *testing.T) {
	interp, _, chain := newFixture(t)
	ctx := interp.Context(context.Background())

	var method *vm2.Method
	method = &vm2.Method{
		LocalCount: 1,
		Native: func(i *vm2.Interpreter, this value.Value, args []value.Value) (value.Value, error) {
			return i.CallMethod(ctx, method, this, args, chain)
		},
	}
	_, err := interp.CallMethod(ctx, method, value.Undefined, nil, chain)
	assert.Error(t, err)
}
