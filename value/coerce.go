package value

import (
	"context"
	"math"

	"github.com/avmcore/avm/errz"
)

// Heap is implemented by the VM heap so value.go (which knows nothing of
// objects) can ask "does this object have a callable toString/valueOf"
// without importing the object package. vm1/vm2 each supply a Heap that
// wraps their object model.
type Heap interface {
	// ToPrimitive calls valueOf then toString on the object behind h,
	// per ECMA-style coercion. Returns the resulting Value.
	ToPrimitive(ctx context.Context, h Value) (Value, error)
	// ToStringValue calls toString on the object behind h.
	ToStringValue(ctx context.Context, h Value) (StringHandle, error)
	// Intern returns the handle for a Go string, creating it if unseen.
	Intern(s string) StringHandle
	// Lookup returns the Go string for a handle.
	Lookup(h StringHandle) string
	// NewEmptyObject creates a plain object with no prototype, used by
	// VM1's silent primitive-wrapping rule in to_object.
	NewEmptyObject() Value
}

// ToBool implements spec.md §4.B to_bool, version-parametrized: for
// ver <= 6 a string coerces via numeric parse (nonzero means true); for
// ver >= 7 nonempty means true.
func ToBool(ctx context.Context, h Heap, v Value, ver int) bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindBool:
		return v.b
	case KindInteger:
		return v.i != 0
	case KindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case KindString:
		s := h.Lookup(v.str)
		if ver <= 6 {
			return ParseNumericPrefix(s) != 0
		}
		return s != ""
	case KindObject:
		return true
	default:
		return true
	}
}

// ToNumber implements spec.md §4.B to_number: standard ECMA-style,
// strings trimmed and parsed, objects coerced via valueOf then toString.
func ToNumber(ctx context.Context, h Heap, v Value) (float64, error) {
	switch v.kind {
	case KindUndefined:
		return math.NaN(), nil
	case KindNull:
		return 0, nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindInteger:
		return float64(v.i), nil
	case KindNumber:
		return v.n, nil
	case KindString:
		return ParseNumericPrefix(h.Lookup(v.str)), nil
	case KindObject:
		prim, err := h.ToPrimitive(ctx, v)
		if err != nil {
			return 0, err
		}
		if prim.kind == KindObject {
			return math.NaN(), nil
		}
		return ToNumber(ctx, h, prim)
	default:
		return math.NaN(), nil
	}
}

// ToInteger implements spec.md §4.B to_integer: truncation with wrapping
// into 32-bit signed on overflow.
func ToInteger(ctx context.Context, h Heap, v Value) (int32, error) {
	f, err := ToNumber(ctx, h, v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, nil
	}
	truncated := math.Trunc(f)
	// Wrap into 32-bit signed range the same way a narrowing C-style
	// cast would, rather than clamping.
	wrapped := math.Mod(truncated, 4294967296)
	if wrapped < 0 {
		wrapped += 4294967296
	}
	u := uint32(wrapped)
	return int32(u), nil
}

// ToString implements spec.md §4.B to_string: pretty number printing,
// objects call toString, termination is guaranteed (no cycle detection
// required, but callers must not recurse through ToPrimitive cycles --
// ToStringValue on the heap is expected to bound its own recursion).
func ToString(ctx context.Context, h Heap, v Value) (string, error) {
	switch v.kind {
	case KindUndefined:
		return "undefined", nil
	case KindNull:
		return "null", nil
	case KindBool:
		if v.b {
			return "true", nil
		}
		return "false", nil
	case KindInteger:
		return v.String(), nil
	case KindNumber:
		return formatNumber(v.n), nil
	case KindString:
		return h.Lookup(v.str), nil
	case KindObject:
		sh, err := h.ToStringValue(ctx, v)
		if err != nil {
			return "", err
		}
		return h.Lookup(sh), nil
	default:
		return "", nil
	}
}

// ToObject implements spec.md §4.B to_object. VM2 fails with a Type
// error on undefined/null; VM1 silently coerces to a fresh empty object.
func ToObject(ctx context.Context, h Heap, v Value, isVM2 bool) (Value, error) {
	if v.kind == KindObject {
		return v, nil
	}
	if v.IsNullish() {
		if isVM2 {
			return Undefined, errz.New(errz.Type, errz.SourceLocation{}, nil,
				"cannot convert %s to an object", v.kind)
		}
		return h.NewEmptyObject(), nil
	}
	// Number, String and Boolean primitives are returned unchanged; no
	// wrapper object is built here.
	return v, nil
}
