package value_test

import (
	"context"
	"math"
	"testing"

	"github.com/avmcore/avm/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHeap struct {
	in *value.Interner
}

func newFakeHeap() *fakeHeap { return &fakeHeap{in: value.NewInterner()} }

func (h *fakeHeap) ToPrimitive(ctx context.Context, v value.Value) (value.Value, error) {
	return v, nil
}
func (h *fakeHeap) ToStringValue(ctx context.Context, v value.Value) (value.StringHandle, error) {
	return h.in.Intern("[object]"), nil
}
func (h *fakeHeap) Intern(s string) value.StringHandle    { return h.in.Intern(s) }
func (h *fakeHeap) Lookup(s value.StringHandle) string    { return h.in.Lookup(s) }
func (h *fakeHeap) NewEmptyObject() value.Value           { return value.Undefined }

func TestStrictEquals(t *testing.T) {
	nan := value.Number(math.NaN())
	assert.False(t, nan.StrictEquals(nan))

	posZero := value.Number(0)
	negZero := value.Number(math.Copysign(0, -1))
	assert.True(t, posZero.StrictEquals(negZero))
}

func TestToBoolVersionSensitive(t *testing.T) {
	h := newFakeHeap()
	s := value.StringOf(h.Intern("0"))
	assert.False(t, value.ToBool(context.Background(), h, s, 6), "ver<=6: numeric-parse semantics")
	assert.True(t, value.ToBool(context.Background(), h, s, 7), "ver>=7: nonempty-string semantics")

	empty := value.StringOf(h.Intern(""))
	assert.False(t, value.ToBool(context.Background(), h, empty, 7))
}

func TestToIntegerWraps(t *testing.T) {
	h := newFakeHeap()
	i, err := value.ToInteger(context.Background(), h, value.Number(4294967296+5))
	require.NoError(t, err)
	assert.Equal(t, int32(5), i)

	i, err = value.ToInteger(context.Background(), h, value.Number(math.NaN()))
	require.NoError(t, err)
	assert.Equal(t, int32(0), i)
}

func TestInternerReusesHandles(t *testing.T) {
	in := value.NewInterner()
	a := in.Intern("_x")
	b := in.Intern("_x")
	assert.Equal(t, a, b)
	assert.Equal(t, "_x", in.Lookup(a))
}

func TestEqualsAcrossNumberKinds(t *testing.T) {
	assert.True(t, value.Integer(3).Equals(value.Number(3)))
	assert.False(t, value.Integer(3).Equals(value.Number(3.5)))
}
