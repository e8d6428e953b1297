package vm1

import (
	"context"
	"math"

	"github.com/avmcore/avm/errz"
	"github.com/avmcore/avm/value"
)

// binaryOp implements the arithmetic/logical/comparison opcode family
// (spec.md §4.F opcode list: "arithmetic, ... string manipulation").
// String concatenation is handled by OpStringAdd/OpAdd falling back to
// to_string when either operand is a string, matching AS1/AS2's loosely
// typed `+`.
func (i *Interpreter) binaryOp(ctx context.Context, op Op, lhs, rhs value.Value) (value.Value, error) {
	switch op {
	case OpAdd:
		if lhs.Kind() == value.KindString || rhs.Kind() == value.KindString {
			ls, err := value.ToString(ctx, i.Heap, lhs)
			if err != nil {
				return value.Undefined, err
			}
			rs, err := value.ToString(ctx, i.Heap, rhs)
			if err != nil {
				return value.Undefined, err
			}
			return value.StringOf(i.Heap.Interner.Intern(ls + rs)), nil
		}
		ln, err := value.ToNumber(ctx, i.Heap, lhs)
		if err != nil {
			return value.Undefined, err
		}
		rn, err := value.ToNumber(ctx, i.Heap, rhs)
		if err != nil {
			return value.Undefined, err
		}
		return value.Number(ln + rn), nil
	case OpStringAdd:
		ls, err := value.ToString(ctx, i.Heap, lhs)
		if err != nil {
			return value.Undefined, err
		}
		rs, err := value.ToString(ctx, i.Heap, rhs)
		if err != nil {
			return value.Undefined, err
		}
		return value.StringOf(i.Heap.Interner.Intern(ls + rs)), nil
	case OpSubtract, OpMultiply, OpDivide, OpModulo:
		ln, err := value.ToNumber(ctx, i.Heap, lhs)
		if err != nil {
			return value.Undefined, err
		}
		rn, err := value.ToNumber(ctx, i.Heap, rhs)
		if err != nil {
			return value.Undefined, err
		}
		switch op {
		case OpSubtract:
			return value.Number(ln - rn), nil
		case OpMultiply:
			return value.Number(ln * rn), nil
		case OpDivide:
			return value.Number(ln / rn), nil
		case OpModulo:
			return value.Number(math.Mod(ln, rn)), nil
		}
	case OpEquals, OpStringEquals:
		return value.Bool(lhs.Equals(rhs)), nil
	case OpStrictEquals:
		return value.Bool(lhs.StrictEquals(rhs)), nil
	case OpLess, OpGreater:
		ln, err := value.ToNumber(ctx, i.Heap, lhs)
		if err != nil {
			return value.Undefined, err
		}
		rn, err := value.ToNumber(ctx, i.Heap, rhs)
		if err != nil {
			return value.Undefined, err
		}
		if math.IsNaN(ln) || math.IsNaN(rn) {
			return value.Bool(false), nil
		}
		if op == OpLess {
			return value.Bool(ln < rn), nil
		}
		return value.Bool(ln > rn), nil
	case OpAnd:
		return value.Bool(value.ToBool(ctx, i.Heap, lhs, i.SWFVersion) && value.ToBool(ctx, i.Heap, rhs, i.SWFVersion)), nil
	case OpOr:
		return value.Bool(value.ToBool(ctx, i.Heap, lhs, i.SWFVersion) || value.ToBool(ctx, i.Heap, rhs, i.SWFVersion)), nil
	case OpBitAnd, OpBitOr, OpBitXor, OpShiftLeft, OpShiftRight:
		li, err := value.ToInteger(ctx, i.Heap, lhs)
		if err != nil {
			return value.Undefined, err
		}
		ri, err := value.ToInteger(ctx, i.Heap, rhs)
		if err != nil {
			return value.Undefined, err
		}
		switch op {
		case OpBitAnd:
			return value.Integer(li & ri), nil
		case OpBitOr:
			return value.Integer(li | ri), nil
		case OpBitXor:
			return value.Integer(li ^ ri), nil
		case OpShiftLeft:
			return value.Integer(li << (uint32(ri) & 31)), nil
		case OpShiftRight:
			return value.Integer(li >> (uint32(ri) & 31)), nil
		}
	}
	return value.Undefined, errz.New(errz.Parse, errz.SourceLocation{}, nil, "unhandled binary opcode %s", op.Name())
}
