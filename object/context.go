package object

import (
	"context"

	"github.com/avmcore/avm/value"
)

type contextKey string

// InvokeFunc lets a heap-independent property-table operation (a getter,
// setter, or watcher callback) call back into whichever VM owns the
// current activation, without the object package importing vm1 or vm2.
// Mirrors the teacher's object.CallFunc / WithCallFunc / GetCallFunc
// trio (object/context_values.go), generalized to both VMs.
type InvokeFunc func(ctx context.Context, fn value.Value, this value.Value, args []value.Value) (value.Value, error)

const invokeFuncKey = contextKey("avm:invoke")

// WithInvoke attaches the active VM's call-back function to ctx.
func WithInvoke(ctx context.Context, fn InvokeFunc) context.Context {
	return context.WithValue(ctx, invokeFuncKey, fn)
}

// GetInvoke returns the call-back function stashed by WithInvoke, if any.
func GetInvoke(ctx context.Context) (InvokeFunc, bool) {
	fn, ok := ctx.Value(invokeFuncKey).(InvokeFunc)
	return fn, ok && fn != nil
}
