// Package errz provides the structured error type shared by both VMs.
//
// Every error the core produces carries a Kind (one of the categories in
// spec.md §7), a human message, an optional source location, and a stack
// of activation frames captured at the point of failure. Native operations
// return these as ordinary Go errors; bytecode `throw` is represented
// separately as a Custom error carrying a script value (see Custom).
package errz

import (
	"bytes"
	"fmt"
	"strings"
)

// ErrorKind is the category of a StructuredError, per spec.md §7.
type ErrorKind int

const (
	// Argument indicates a bad coercion, arity mismatch, or out-of-range argument.
	Argument ErrorKind = iota
	// Reference indicates a property was not found in a strict-lookup context.
	Reference
	// Type indicates an operation was attempted on the wrong object kind,
	// including a null/undefined dereference where an object was expected.
	Type
	// Range indicates a stack-size, register, or recursion bound was exceeded.
	Range
	// Parse indicates malformed VM1 or VM2 bytecode.
	Parse
	// IO indicates a container read failure.
	IO
	// Custom indicates a user-thrown value from inside bytecode (see Custom).
	Custom
)

// String returns the human-readable name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case Argument:
		return "argument error"
	case Reference:
		return "reference error"
	case Type:
		return "type error"
	case Range:
		return "range error"
	case Parse:
		return "parse error"
	case IO:
		return "io error"
	case Custom:
		return "custom error"
	default:
		return "error"
	}
}

// StackFrame describes one activation in a captured stack trace.
type StackFrame struct {
	// FuncName is the name of the method or function executing, or ""
	// for a top-level script/class initializer.
	FuncName string
	// VM identifies which interpreter owned the frame ("vm1" or "vm2").
	VM string
	// IP is the bytecode offset active in that frame at capture time.
	IP int
}

// FormatStackTrace renders a stack in innermost-frame-first order, the
// same order the VMs append frames during unwinding.
func FormatStackTrace(frames []StackFrame) string {
	var buf bytes.Buffer
	for _, f := range frames {
		name := f.FuncName
		if name == "" {
			name = "<anonymous>"
		}
		fmt.Fprintf(&buf, "  at %s (%s, ip=%d)\n", name, f.VM, f.IP)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// SourceLocation pinpoints a failure within the original container; Line
// and Column are best-effort (derived from DefineFont/DoAction debug
// tags when present, zero otherwise).
type SourceLocation struct {
	Tag    string // container tag the failing bytecode came from, e.g. "DoAction"
	Line   int
	Column int
}

// IsZero reports whether the location carries no useful information.
func (l SourceLocation) IsZero() bool {
	return l.Tag == "" && l.Line == 0 && l.Column == 0
}

// StructuredError is the rich error type produced by both VMs.
type StructuredError struct {
	Message  string
	Kind     ErrorKind
	Location SourceLocation
	Stack    []StackFrame
	Cause    error

	// Value carries the thrown script value for a Custom error (VM2
	// `throw`, or a VM1 native that wants to surface a script value).
	// Nil for every other kind.
	Value interface{}
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Location.IsZero() {
		return fmt.Sprintf("%s: %s", e.Kind.String(), e.Message)
	}
	return fmt.Sprintf("%s: %s (%s:%d:%d)", e.Kind.String(), e.Message, e.Location.Tag, e.Location.Line, e.Location.Column)
}

// Unwrap returns the underlying cause, if any.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// FriendlyErrorMessage renders the error with its stack trace attached,
// for CLI/log output.
func (e *StructuredError) FriendlyErrorMessage() string {
	var msg bytes.Buffer
	msg.WriteString(e.Error())
	msg.WriteString("\n")
	if len(e.Stack) > 0 {
		msg.WriteString(FormatStackTrace(e.Stack))
	}
	return msg.String()
}

// New creates a StructuredError with a formatted message.
func New(kind ErrorKind, loc SourceLocation, stack []StackFrame, format string, args ...interface{}) *StructuredError {
	return &StructuredError{
		Message:  fmt.Sprintf(format, args...),
		Kind:     kind,
		Location: loc,
		Stack:    stack,
	}
}

// NewCustom wraps a thrown script value as a Custom error.
func NewCustom(value interface{}, loc SourceLocation, stack []StackFrame) *StructuredError {
	return &StructuredError{
		Message:  "uncaught exception",
		Kind:     Custom,
		Location: loc,
		Stack:    stack,
		Value:    value,
	}
}

// WithCause attaches an underlying Go error as the cause.
func (e *StructuredError) WithCause(cause error) *StructuredError {
	e.Cause = cause
	return e
}
