package vm2

import (
	"context"
	"math"

	"github.com/avmcore/avm/errz"
	"github.com/avmcore/avm/value"
)

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

// compareBranch implements the conditional-jump family's comparison half
// (spec.md §4.G "control flow": "eq/ne/lt/le/gt/ge forms"). ifstricteq/ne
// use StrictEquals; the rest coerce to number except eq/ne, which use the
// loose Equals the way AS3's `==` does.
func (i *Interpreter) compareBranch(ctx context.Context, op Op, lhs, rhs value.Value) bool {
	switch op {
	case OpIfStrictEq:
		return lhs.StrictEquals(rhs)
	case OpIfStrictNe:
		return !lhs.StrictEquals(rhs)
	case OpIfEq:
		return lhs.Equals(rhs)
	case OpIfNe:
		return !lhs.Equals(rhs)
	case OpIfLt, OpIfLe, OpIfGt, OpIfGe:
		ln, err1 := value.ToNumber(ctx, i.Heap, lhs)
		rn, err2 := value.ToNumber(ctx, i.Heap, rhs)
		if err1 != nil || err2 != nil || math.IsNaN(ln) || math.IsNaN(rn) {
			return false
		}
		switch op {
		case OpIfLt:
			return ln < rn
		case OpIfLe:
			return ln <= rn
		case OpIfGt:
			return ln > rn
		case OpIfGe:
			return ln >= rn
		}
	}
	return false
}
