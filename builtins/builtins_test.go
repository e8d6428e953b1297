package builtins

import (
	"context"
	"math"
	"testing"

	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapPopulatesGlobal(t *testing.T) {
	in := value.NewInterner()
	lib := Bootstrap(in)

	global, ok := lib.heap().Resolve(lib.Global)
	require.True(t, ok)

	for _, name := range []string{"Math", "Array", "Date", "String", "Error", "Object", "Sound", "Button", "MouseEvent", "XMLNode", "XML"} {
		_, found := global.GetLocal(in.Intern(name))
		assert.True(t, found, "expected global.%s to be defined", name)
	}
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

func TestArrayPushPop(t *testing.T) {
	in := value.NewInterner()
	lib := Bootstrap(in)
	h := lib.heap()
	ctx := context.Background()

	arrHandle, arrObj := h.newPlainObject(lib.ArrayProto, true)
	arr := value.Object(arrHandle)

	callMethod(t, h, ctx, arr, "push", []value.Value{value.Integer(1), value.Integer(2)})
	assert.Equal(t, 2, arrObj.Length())

	v := callMethod(t, h, ctx, arr, "pop", nil)
	i, ok := v.AsInteger()
	require.True(t, ok)
	assert.Equal(t, int32(2), i)
	assert.Equal(t, 1, arrObj.Length())
}

func TestArraySliceResultIsLinkedToArrayProto(t *testing.T) {
	in := value.NewInterner()
	lib := Bootstrap(in)
	h := lib.heap()
	ctx := context.Background()

	arrHandle, arrObj := h.newPlainObject(lib.ArrayProto, true)
	for i := 0; i < 3; i++ {
		arrObj.SetArrayElement(i, value.Integer(int32(i)))
	}
	arrObj.SetLength(3)

	result := callMethod(t, h, ctx, value.Object(arrHandle), "slice", []value.Value{value.Integer(1)})

	resultHandle, ok := result.AsObject()
	require.True(t, ok)
	resultObj, ok := h.Resolve(resultHandle)
	require.True(t, ok)

	// A slice() result must itself answer to push() through its
	// prototype chain, not just hold array elements directly.
	_, isOwn := resultObj.GetLocal(in.Intern("push"))
	assert.False(t, isOwn, "push should be inherited, not an own property")
	pushVal, err := resultObj.Get(ctx, h, in.Intern("push"), nil)
	require.NoError(t, err)
	_, isObj := pushVal.AsObject()
	assert.True(t, isObj, "slice() result should inherit push from ArrayProto")
}

func TestDateSetMonthShortCircuitsOnNonFiniteArg(t *testing.T) {
	in := value.NewInterner()
	lib := Bootstrap(in)
	h := lib.heap()
	ctx := context.Background()

	dateVal := h.NewDate(lib.DateProto, []value.Value{value.Integer(2024), value.Integer(5), value.Integer(15)})

	// (new Date(2024,5,15)).setMonth(undefined, 3) leaves the date
	// invalid/NaN: the first non-finite argument short-circuits the
	// remaining field applications even though a second is supplied.
	result := callMethod(t, h, ctx, dateVal, "setMonth", []value.Value{value.Undefined, value.Integer(3)})
	n, ok := result.AsNumber()
	require.True(t, ok)
	assert.True(t, math.IsNaN(n))

	v := callMethod(t, h, ctx, dateVal, "getTime", nil)
	n2, _ := v.AsNumber()
	assert.True(t, math.IsNaN(n2))
}

func TestDateConstructorAppliesTwoDigitYearRule(t *testing.T) {
	in := value.NewInterner()
	lib := Bootstrap(in)
	h := lib.heap()
	ctx := context.Background()

	dateVal := h.NewDate(lib.DateProto, []value.Value{value.Integer(24), value.Integer(0), value.Integer(1)})
	v := callMethod(t, h, ctx, dateVal, "getFullYear", nil)
	year, _ := v.AsNumber()
	assert.Equal(t, float64(1924), year)
}

func TestSoundVolumeAndPanClamp(t *testing.T) {
	in := value.NewInterner()
	lib := Bootstrap(in)
	h := lib.heap()
	ctx := context.Background()

	global, ok := h.Resolve(lib.Global)
	require.True(t, ok)
	ctorVal, found := global.GetLocal(in.Intern("Sound"))
	require.True(t, found)
	ctorHandle, ok := ctorVal.AsObject()
	require.True(t, ok)
	ctor, ok := h.Resolve(ctorHandle)
	require.True(t, ok)

	snd, err := ctor.Call(ctx, ctorHandle, value.Undefined, nil)
	require.NoError(t, err)

	callMethod(t, h, ctx, snd, "setVolume", []value.Value{value.Integer(150)})
	assert.Equal(t, value.Integer(100), callMethod(t, h, ctx, snd, "getVolume", nil))

	callMethod(t, h, ctx, snd, "setVolume", []value.Value{value.Integer(-10)})
	assert.Equal(t, value.Integer(0), callMethod(t, h, ctx, snd, "getVolume", nil))

	callMethod(t, h, ctx, snd, "setPan", []value.Value{value.Integer(-200)})
	assert.Equal(t, value.Integer(-100), callMethod(t, h, ctx, snd, "getPan", nil))

	callMethod(t, h, ctx, snd, "setPan", []value.Value{value.Integer(200)})
	assert.Equal(t, value.Integer(100), callMethod(t, h, ctx, snd, "getPan", nil))
}

func construct(t *testing.T, h heap, ctx context.Context, lib *Library, name string, args []value.Value) value.Value {
	t.Helper()
	g, ok := h.Resolve(lib.Global)
	require.True(t, ok)
	ctorVal, found := g.GetLocal(h.interner.Intern(name))
	require.True(t, found, "expected global.%s", name)
	ctorHandle, ok := ctorVal.AsObject()
	require.True(t, ok)
	ctor, ok := h.Resolve(ctorHandle)
	require.True(t, ok)
	result, err := ctor.Call(ctx, ctorHandle, value.Undefined, args)
	require.NoError(t, err)
	return result
}

func TestButtonHitStatesAndDispatch(t *testing.T) {
	in := value.NewInterner()
	lib := Bootstrap(in)
	h := lib.heap()
	ctx := context.Background()

	btn := construct(t, h, ctx, lib, "Button", nil)
	up := construct(t, h, ctx, lib, "Object", nil)

	callMethod(t, h, ctx, btn, "setUpState", []value.Value{up})
	got := callMethod(t, h, ctx, btn, "getUpState", nil)
	assert.Equal(t, up, got)

	btnHandle, ok := btn.AsObject()
	require.True(t, ok)
	btnObj, ok := h.Resolve(btnHandle)
	require.True(t, ok)
	assert.Equal(t, object.VariantButton, btnObj.Kind())

	called := false
	onPress := h.newNative("onPress", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		called = true
		return value.Undefined, nil
	})
	btnObj.DefineValue(in.Intern("onPress"), onPress, 0)

	fired := callMethod(t, h, ctx, btn, "dispatchEvent", []value.Value{value.StringOf(in.Intern("press"))})
	assert.Equal(t, value.Bool(true), fired)
	assert.True(t, called, "dispatchEvent should have invoked onPress")
}

func TestMouseEventModifiersAndFields(t *testing.T) {
	in := value.NewInterner()
	lib := Bootstrap(in)
	h := lib.heap()
	ctx := context.Background()

	mods := object.ModCtrl | object.ModShift
	evt := construct(t, h, ctx, lib, "MouseEvent", []value.Value{
		value.StringOf(in.Intern("click")), value.Number(10), value.Number(20),
		value.Integer(int32(mods)), value.Bool(true), value.Integer(3),
	})

	assert.Equal(t, value.Number(10), callMethod(t, h, ctx, evt, "getLocalX", nil))
	assert.Equal(t, value.Number(20), callMethod(t, h, ctx, evt, "getLocalY", nil))
	assert.Equal(t, value.Bool(true), callMethod(t, h, ctx, evt, "getCtrlKey", nil))
	assert.Equal(t, value.Bool(false), callMethod(t, h, ctx, evt, "getAltKey", nil))
	assert.Equal(t, value.Bool(true), callMethod(t, h, ctx, evt, "getShiftKey", nil))
	assert.Equal(t, value.Bool(true), callMethod(t, h, ctx, evt, "getButtonDown", nil))
	assert.Equal(t, value.Integer(3), callMethod(t, h, ctx, evt, "getDelta", nil))
}

func TestXMLDocumentIDMapTracksStructuralMutation(t *testing.T) {
	in := value.NewInterner()
	lib := Bootstrap(in)
	h := lib.heap()
	ctx := context.Background()

	doc := construct(t, h, ctx, lib, "XML", nil)
	child := construct(t, h, ctx, lib, "XMLNode", []value.Value{value.Integer(1), value.StringOf(in.Intern("item"))})

	childHandle, ok := child.AsObject()
	require.True(t, ok)
	childObj, ok := h.Resolve(childHandle)
	require.True(t, ok)
	childObj.DefineValue(in.Intern("id"), value.StringOf(in.Intern("alpha")), 0)

	callMethod(t, h, ctx, doc, "appendChild", []value.Value{child})

	docHandle, ok := doc.AsObject()
	require.True(t, ok)
	docObj, ok := h.Resolve(docHandle)
	require.True(t, ok)
	idMapVal, found := docObj.GetLocal(in.Intern("idMap"))
	require.True(t, found)
	idMapHandle, ok := idMapVal.AsObject()
	require.True(t, ok)
	idMapObj, ok := h.Resolve(idMapHandle)
	require.True(t, ok)

	resolved, found := idMapObj.GetLocal(in.Intern("alpha"))
	require.True(t, found, "idMap should reflect the child's id attribute after appendChild")
	assert.Equal(t, child, resolved)

	callMethod(t, h, ctx, child, "removeNode", nil)
	_, found = idMapObj.GetLocal(in.Intern("alpha"))
	assert.False(t, found, "idMap should drop the id after removeNode")
}

func TestMathConstantsAndAbs(t *testing.T) {
	in := value.NewInterner()
	lib := Bootstrap(in)
	h := lib.heap()
	ctx := context.Background()

	mathObj, ok := h.Resolve(lib.MathObject)
	require.True(t, ok)

	pi, _ := mathObj.GetLocal(in.Intern("PI"))
	f, _ := pi.AsNumber()
	assert.InDelta(t, math.Pi, f, 1e-9)

	result := callMethod(t, h, ctx, value.Object(lib.MathObject), "abs", []value.Value{value.Number(-5)})
	n, _ := result.AsNumber()
	assert.Equal(t, 5.0, n)
}

func TestStringCharAtAndIndexOf(t *testing.T) {
	in := value.NewInterner()
	lib := Bootstrap(in)
	h := lib.heap()
	ctx := context.Background()

	strHandle, strObj := h.newPlainObject(lib.StringProto, true)
	strObj.DefineValue(in.Intern("__primitive__"), value.StringOf(in.Intern("hello")), 0)

	v := callMethod(t, h, ctx, value.Object(strHandle), "charAt", []value.Value{value.Integer(1)})
	sh, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "e", in.Lookup(sh))

	idx := callMethod(t, h, ctx, value.Object(strHandle), "indexOf", []value.Value{value.StringOf(in.Intern("llo"))})
	i, _ := idx.AsInteger()
	assert.Equal(t, int32(2), i)
}
