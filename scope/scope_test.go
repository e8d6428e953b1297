package scope_test

import (
	"context"
	"testing"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/scope"
	"github.com/avmcore/avm/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHeap struct {
	objs  map[gc.Handle]*object.Object
	arena *gc.Arena
}

func newTestHeap() *testHeap { return &testHeap{objs: make(map[gc.Handle]*object.Object)} }

func (h *testHeap) Put(o *object.Object) gc.Handle {
	var handle gc.Handle
	if h.arena == nil {
		h.arena = gc.NewArena(o)
		handle = h.arena.Root()
	} else {
		_ = h.arena.Mutate(func(mc *gc.MutationContext) error {
			handle = mc.New(o)
			return nil
		})
	}
	h.objs[handle] = o
	o.BindSelf(handle)
	return handle
}

func (h *testHeap) Resolve(hd gc.Handle) (*object.Object, bool) {
	o, ok := h.objs[hd]
	return o, ok
}

func TestResolveFindsInnermostDeclaration(t *testing.T) {
	in := value.NewInterner()
	name := in.Intern("x")

	heap := newTestHeap()
	global := object.New()
	global.DefineValue(name, value.Integer(1), 0)
	globalHandle := heap.Put(global)

	inner := object.New()
	inner.DefineValue(name, value.Integer(2), 0)
	innerHandle := heap.Put(inner)

	chain := scope.Global(globalHandle).Push(innerHandle)

	v, frame, found := scope.Resolve(context.Background(), heap, chain, name, nil)
	require.True(t, found)
	assert.Equal(t, int32(2), mustInt(v))
	assert.Equal(t, innerHandle, frame.Object())
}

func mustInt(v value.Value) int32 {
	i, _ := v.AsInteger()
	return i
}

func TestWithFrameSeesPrototypeChain(t *testing.T) {
	in := value.NewInterner()
	name := in.Intern("y")

	heap := newTestHeap()
	proto := object.New()
	proto.DefineValue(name, value.Integer(9), 0)
	protoHandle := heap.Put(proto)

	withTarget := object.NewWithProto(protoHandle)
	withHandle := heap.Put(withTarget)

	global := object.New()
	globalHandle := heap.Put(global)

	chain := scope.Global(globalHandle).PushWith(withHandle)

	v, _, found := scope.Resolve(context.Background(), heap, chain, name, nil)
	require.True(t, found)
	assert.Equal(t, int32(9), mustInt(v))
}

func TestResolveForAssignmentFallsBackToGlobal(t *testing.T) {
	in := value.NewInterner()
	name := in.Intern("undeclared")

	heap := newTestHeap()
	global := object.New()
	globalHandle := heap.Put(global)
	inner := object.New()
	innerHandle := heap.Put(inner)

	chain := scope.Global(globalHandle).Push(innerHandle)
	target := scope.ResolveForAssignment(heap, chain, name)
	assert.Equal(t, globalHandle, target.Object())
}

func TestPushPopStructuralSharing(t *testing.T) {
	heap := newTestHeap()
	globalHandle := heap.Put(object.New())
	base := scope.Global(globalHandle)

	a := base.Push(heap.Put(object.New()))
	b := base.Push(heap.Put(object.New()))

	assert.NotEqual(t, a.Object(), b.Object())
	assert.Equal(t, base, a.Pop())
	assert.Equal(t, base, b.Pop())
	assert.Equal(t, 2, a.Depth())
}
