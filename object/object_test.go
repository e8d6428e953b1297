package object_test

import (
	"context"
	"testing"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHeap is a minimal in-memory object.Heap backed directly by a map,
// used so property-table and prototype-chain tests don't need a full VM.
type testHeap struct {
	objs  map[gc.Handle]*object.Object
	next  int
	arena *gc.Arena
}

func newTestHeap() *testHeap {
	return &testHeap{objs: make(map[gc.Handle]*object.Object)}
}

func (h *testHeap) Put(o *object.Object) gc.Handle {
	h.next++
	// All test objects share one arena so each gets a stable, distinct
	// handle; no collection is ever run.
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

func TestGetLocalAndSetLocalData(t *testing.T) {
	in := value.NewInterner()
	name := in.Intern("x")

	o := object.New()
	o.DefineValue(name, value.Integer(5), 0)

	v, ok := o.GetLocal(name)
	require.True(t, ok)
	assert.Equal(t, int32(5), mustInt(v))
}

func mustInt(v value.Value) int32 {
	i, _ := v.AsInteger()
	return i
}

func TestPrototypeChainWalk(t *testing.T) {
	in := value.NewInterner()
	name := in.Intern("greeting")

	heap := newTestHeap()
	proto := object.New()
	proto.DefineValue(name, value.Integer(1), 0)
	protoHandle := heap.Put(proto)

	child := object.NewWithProto(protoHandle)
	heap.Put(child)

	v, err := child.Get(context.Background(), heap, name, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), mustInt(v))
}

func TestGetMissingPropertyReturnsUndefinedNotError(t *testing.T) {
	in := value.NewInterner()
	name := in.Intern("nope")

	heap := newTestHeap()
	o := object.New()
	heap.Put(o)

	v, err := o.Get(context.Background(), heap, name, nil)
	require.NoError(t, err)
	assert.True(t, v.IsUndefined())
}

func TestReadOnlySetIsSilentNoOp(t *testing.T) {
	in := value.NewInterner()
	name := in.Intern("frozen")

	heap := newTestHeap()
	o := object.New()
	o.DefineValue(name, value.Integer(1), object.ReadOnly)
	heap.Put(o)

	err := o.Set(context.Background(), heap, name, value.Integer(2), nil)
	require.NoError(t, err)

	v, _ := o.GetLocal(name)
	assert.Equal(t, int32(1), mustInt(v))
}

func TestDeleteHonorsDontDelete(t *testing.T) {
	in := value.NewInterner()
	name := in.Intern("permanent")

	o := object.New()
	o.DefineValue(name, value.Integer(9), object.DontDelete)

	assert.False(t, o.Delete(name))
	assert.True(t, o.HasOwnProperty(name))
}

func TestWatcherRewritesValueBeforeStore(t *testing.T) {
	in := value.NewInterner()
	name := in.Intern("watched")

	heap := newTestHeap()
	o := object.New()
	o.DefineValue(name, value.Integer(0), 0)
	heap.Put(o)

	doubler := object.NewVariant(object.VariantFunction, &object.FunctionPayload{
		Native: func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
			newVal, _ := args[2].AsInteger()
			return value.Integer(newVal * 2), nil
		},
	})
	cbHandle := heap.Put(doubler)

	o.SetWatcher(name, value.Object(cbHandle), value.Undefined)

	ctx := object.WithInvoke(context.Background(), func(ctx context.Context, fn value.Value, this value.Value, args []value.Value) (value.Value, error) {
		h, _ := fn.AsObject()
		target, _ := heap.Resolve(h)
		return target.Call(ctx, h, this, args)
	})

	err := o.Set(ctx, heap, name, value.Integer(5), nil)
	require.NoError(t, err)

	v, _ := o.GetLocal(name)
	assert.Equal(t, int32(10), mustInt(v))
}

func TestGetKeysStableOrderAndEnumerability(t *testing.T) {
	in := value.NewInterner()
	a := in.Intern("a")
	b := in.Intern("b")
	c := in.Intern("c")

	o := object.New()
	o.DefineValue(a, value.Integer(1), 0)
	o.DefineValue(b, value.Integer(2), object.DontEnum)
	o.DefineValue(c, value.Integer(3), 0)

	keys := o.GetKeys()
	require.Len(t, keys, 2)
	assert.Equal(t, a, keys[0])
	assert.Equal(t, c, keys[1])
}

func TestSetProtoRejectsCycle(t *testing.T) {
	heap := newTestHeap()
	o := object.New()
	self := heap.Put(o)

	err := o.SetProto(heap, self, self)
	assert.Error(t, err)
}

func TestCallDispatchesThroughNativeFunc(t *testing.T) {
	heap := newTestHeap()
	fn := object.NewVariant(object.VariantFunction, &object.FunctionPayload{
		Native: func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
			return args[0], nil
		},
	})
	self := heap.Put(fn)

	result, err := fn.Call(context.Background(), self, value.Undefined, []value.Value{value.Integer(42)})
	require.NoError(t, err)
	assert.Equal(t, int32(42), mustInt(result))
}

func TestArrayInterfaceOnPlainObject(t *testing.T) {
	o := object.New()
	assert.Equal(t, 0, o.Length())

	o.SetArrayElement(2, value.Integer(7))
	assert.Equal(t, 3, o.Length())
	assert.Equal(t, int32(7), mustInt(o.ArrayElement(2)))

	o.SetLength(1)
	assert.Equal(t, 1, o.Length())
}

func TestXMLIDMapOverlaysByIDLookups(t *testing.T) {
	in := value.NewInterner()
	idName := in.Intern("node7")

	heap := newTestHeap()
	target := object.New()
	targetHandle := heap.Put(target)

	idMap := object.NewVariant(object.VariantXMLIDMap, &object.XMLIDMapPayload{
		ByID: map[value.StringHandle]gc.Handle{idName: targetHandle},
	})
	heap.Put(idMap)

	v, err := idMap.Get(context.Background(), heap, idName, nil)
	require.NoError(t, err)
	h, ok := v.AsObject()
	require.True(t, ok)
	assert.Equal(t, targetHandle, h)
	assert.True(t, idMap.HasOwnProperty(idName))
}
