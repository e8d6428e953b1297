package vm1

import (
	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/value"
)

// Continuation is the resume record for the "stack continuation" hook of
// spec.md §4.F: Resume takes a return value and error and produces a
// follow-up result. The interpreter does not invoke Resume: CallTemplate
// returns each activation's result directly to its Go caller, and
// nothing attaches a Continuation to an activation.
//
// Continuations are gc-traceable because they may capture object handles
// (e.g. the caller activation's `this`, or a promise-like callback list).
type Continuation struct {
	Resume     func(i *Interpreter, result value.Value, resultErr error) (value.Value, error)
	TraceExtra func(visit func(gc.Handle))
}

// Trace implements gc.Traceable.
func (c *Continuation) Trace(visit func(gc.Handle)) {
	if c.TraceExtra != nil {
		c.TraceExtra(visit)
	}
}
