package timeline

import (
	"context"
	"testing"

	"github.com/avmcore/avm/builtins"
	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuntime(t *testing.T) (*builtins.Library, *Runtime) {
	t.Helper()
	in := value.NewInterner()
	lib := builtins.Bootstrap(in)
	rt, err := Bootstrap(lib, 10, 8)
	require.NoError(t, err)
	return lib, rt
}

func callMethod(t *testing.T, h heap, ctx context.Context, owner value.Value, name string, args []value.Value) value.Value {
	t.Helper()
	ownerHandle, ok := owner.AsObject()
	require.True(t, ok)
	ownerObj, ok := h.Resolve(ownerHandle)
	require.True(t, ok)
	fn, err := ownerObj.Get(ctx, h, h.interner.Intern(name), nil)
	require.NoError(t, err)
	fnHandle, ok := fn.AsObject()
	require.True(t, ok, "method %q not found", name)
	fnObj, ok := h.Resolve(fnHandle)
	require.True(t, ok)
	result, err := fnObj.Call(ctx, fnHandle, owner, args)
	require.NoError(t, err)
	return result
}

func TestDepthBiasOnCreateEmptyMovieClip(t *testing.T) {
	lib, rt := newRuntime(t)
	h := heap{arena: lib.Arena, interner: lib.Interner}
	ctx := context.Background()

	result := callMethod(t, h, ctx, rt.RootScriptValue, "createEmptyMovieClip",
		[]value.Value{value.StringOf(lib.Interner.Intern("a")), value.Integer(3)})

	clip, ok := thisClip(h, result)
	require.True(t, ok)
	depth, hasDepth := clip.Depth()
	require.True(t, hasDepth)
	assert.Equal(t, 3, depth)
	assert.Equal(t, 16387, clip.StoredDepth())
}

func TestWellKnownPropertyXYRoundTrip(t *testing.T) {
	lib, rt := newRuntime(t)
	h := heap{arena: lib.Arena, interner: lib.Interner}
	ctx := context.Background()

	rootObj, ok := h.Resolve(mustObjHandle(rt.RootScriptValue))
	require.True(t, ok)

	err := rootObj.Set(ctx, h, lib.Interner.Intern("_x"), value.Number(42), nil)
	require.NoError(t, err)

	v, err := rootObj.Get(ctx, h, lib.Interner.Intern("_x"), nil)
	require.NoError(t, err)
	n, ok := v.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 42.0, n)
}

func mustObjHandle(v value.Value) gc.Handle {
	handle, _ := v.AsObject()
	return handle
}

func TestAttachMovieRejectsOutOfRangeDepth(t *testing.T) {
	lib, rt := newRuntime(t)
	h := heap{arena: lib.Arena, interner: lib.Interner}
	ctx := context.Background()

	result := callMethod(t, h, ctx, rt.RootScriptValue, "attachMovie", []value.Value{
		value.StringOf(lib.Interner.Intern("libSymbol")),
		value.StringOf(lib.Interner.Intern("inst")),
		value.Integer(-1),
	})
	assert.True(t, result.IsUndefined())

	_, ok := rt.Scene.Root().children["inst"]
	assert.False(t, ok)
}

func TestLineStyleClampsWidthAndAlpha(t *testing.T) {
	lib, rt := newRuntime(t)
	h := heap{arena: lib.Arena, interner: lib.Interner}
	ctx := context.Background()

	callMethod(t, h, ctx, rt.RootScriptValue, "lineStyle", []value.Value{value.Integer(300)})
	assert.Equal(t, 255, rt.Scene.Root().Draw().line.Width)

	callMethod(t, h, ctx, rt.RootScriptValue, "lineStyle", []value.Value{value.Integer(-5)})
	assert.Equal(t, 0, rt.Scene.Root().Draw().line.Width)

	callMethod(t, h, ctx, rt.RootScriptValue, "lineStyle", []value.Value{value.Integer(1), value.Integer(0), value.Integer(150)})
	assert.Equal(t, 100.0, rt.Scene.Root().Draw().line.Alpha)

	callMethod(t, h, ctx, rt.RootScriptValue, "lineStyle", []value.Value{value.Integer(1), value.Integer(0), value.Integer(-5)})
	assert.Equal(t, 0.0, rt.Scene.Root().Draw().line.Alpha)
}

func TestBeginGradientFillRejectsMismatchedArrayLengths(t *testing.T) {
	_, rt := newRuntime(t)

	// spec.md §8: colors=[0xff0000,0x00ff00], alphas=[100], ratios=[0,255]
	// -> warning, no fill applied (array lengths must match).
	ok := rt.Scene.Root().Draw().BeginGradientFill(false,
		[]uint32{0xff0000, 0x00ff00},
		[]float64{100},
		[]int{0, 255}, 0, "pad", "RGB")
	assert.False(t, ok, "mismatched colors/alphas/ratios lengths must produce no fill")
}

func TestSwapDepthsRejectsCrossParentSwap(t *testing.T) {
	lib, rt := newRuntime(t)
	h := heap{arena: lib.Arena, interner: lib.Interner}
	ctx := context.Background()

	aVal := callMethod(t, h, ctx, rt.RootScriptValue, "createEmptyMovieClip",
		[]value.Value{value.StringOf(lib.Interner.Intern("a")), value.Integer(1)})
	bParentVal := callMethod(t, h, ctx, rt.RootScriptValue, "createEmptyMovieClip",
		[]value.Value{value.StringOf(lib.Interner.Intern("p")), value.Integer(2)})
	bVal := callMethod(t, h, ctx, bParentVal, "createEmptyMovieClip",
		[]value.Value{value.StringOf(lib.Interner.Intern("b")), value.Integer(1)})

	aClip, _ := thisClip(h, aVal)
	bClip, _ := thisClip(h, bVal)
	beforeA, beforeB := aClip.depth, bClip.depth

	callMethod(t, h, ctx, aVal, "swapDepths", []value.Value{bVal})

	assert.Equal(t, beforeA, aClip.depth, "cross-parent swap must be rejected")
	assert.Equal(t, beforeB, bClip.depth)
}

func TestRemoveMovieClipRespectsDepthWindow(t *testing.T) {
	lib, rt := newRuntime(t)
	h := heap{arena: lib.Arena, interner: lib.Interner}
	ctx := context.Background()

	childVal := callMethod(t, h, ctx, rt.RootScriptValue, "createEmptyMovieClip",
		[]value.Value{value.StringOf(lib.Interner.Intern("c")), value.Integer(1)})
	callMethod(t, h, ctx, childVal, "removeMovieClip", nil)

	_, ok := rt.Scene.Root().children["c"]
	assert.False(t, ok, "a clip at a script-created depth should be removable")
}
