package vm1_test

import (
	"context"
	"testing"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/scope"
	"github.com/avmcore/avm/value"
	"github.com/avmcore/avm/vm1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) (*vm1.Interpreter, *vm1.Heap, *scope.Chain) {
	t.Helper()
	global := object.New()
	arena := gc.NewArena(global)
	interner := value.NewInterner()
	heap := &vm1.Heap{Arena: arena, Interner: interner}

	var interp *vm1.Interpreter
	err := arena.Mutate(func(mc *gc.MutationContext) error {
		interp = vm1.NewInterpreter(heap, mc, 6)
		return nil
	})
	require.NoError(t, err)

	chain := scope.Global(arena.Root())
	return interp, heap, chain
}

func TestAddOpcodeNumericAndString(t *testing.T) {
	interp, heap, chain := newFixture(t)

	tmpl := &vm1.Template{
		DefScope: chain,
		MaxStack: 4,
		Code: []vm1.Instruction{
			{Op: vm1.OpPush, Const: value.Integer(2)},
			{Op: vm1.OpPush, Const: value.Integer(3)},
			{Op: vm1.OpAdd},
			{Op: vm1.OpReturn},
		},
	}
	ctx := interp.Context(context.Background())
	result, err := interp.CallTemplate(ctx, tmpl, value.Undefined, nil)
	require.NoError(t, err)
	n, _ := result.AsNumber()
	assert.Equal(t, float64(5), n)

	hello := heap.Interner.Intern("hello ")
	world := heap.Interner.Intern("world")
	tmpl2 := &vm1.Template{
		DefScope: chain,
		Code: []vm1.Instruction{
			{Op: vm1.OpPush, Const: value.StringOf(hello)},
			{Op: vm1.OpPush, Const: value.StringOf(world)},
			{Op: vm1.OpAdd},
			{Op: vm1.OpReturn},
		},
	}
	result2, err := interp.CallTemplate(ctx, tmpl2, value.Undefined, nil)
	require.NoError(t, err)
	sh, ok := result2.AsString()
	require.True(t, ok)
	assert.Equal(t, "hello world", heap.Interner.Lookup(sh))
}

func TestGetSetVariableRoundTrip(t *testing.T) {
	interp, heap, chain := newFixture(t)
	ctx := interp.Context(context.Background())

	name := heap.Interner.Intern("score")
	tmpl := &vm1.Template{
		DefScope: chain,
		Code: []vm1.Instruction{
			{Op: vm1.OpPush, Const: value.StringOf(name)},
			{Op: vm1.OpPush, Const: value.Integer(10)},
			{Op: vm1.OpSetVariable},
			{Op: vm1.OpPush, Const: value.StringOf(name)},
			{Op: vm1.OpGetVariable},
			{Op: vm1.OpReturn},
		},
	}
	result, err := interp.CallTemplate(ctx, tmpl, value.Undefined, nil)
	require.NoError(t, err)
	n, _ := result.AsNumber()
	assert.Equal(t, float64(10), n)
}

func TestJumpAndIf(t *testing.T) {
	interp, _, chain := newFixture(t)
	ctx := interp.Context(context.Background())

	tmpl := &vm1.Template{
		DefScope: chain,
		Code: []vm1.Instruction{
			{Op: vm1.OpPush, Const: value.Bool(false)},
			{Op: vm1.OpIf, Addr: 4},
			{Op: vm1.OpPush, Const: value.Integer(1)},
			{Op: vm1.OpJump, Addr: 5},
			{Op: vm1.OpPush, Const: value.Integer(2)},
			{Op: vm1.OpReturn},
		},
	}
	result, err := interp.CallTemplate(ctx, tmpl, value.Undefined, nil)
	require.NoError(t, err)
	n, _ := result.AsNumber()
	assert.Equal(t, float64(1), n)
}

func TestStartDragStopDrag(t *testing.T) {
	interp, heap, _ := newFixture(t)
	var h gc.Handle
	_ = heap.Arena.Mutate(func(mc *gc.MutationContext) error {
		h = mc.New(object.New())
		return nil
	})

	interp.StartDrag(h)
	target, active := interp.DragTarget()
	assert.True(t, active)
	assert.Equal(t, h, target)

	interp.StopDrag()
	_, active = interp.DragTarget()
	assert.False(t, active)
}
