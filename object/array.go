package object

import "github.com/avmcore/avm/value"

// ArrayPayload is the dense storage an object may carry alongside its
// property table (spec.md §3: "an optional array payload (dense part)
// with a separate length"). length, array_element, set_array_element,
// delete_array_element, and set_length are defined, trivially, even on
// non-array objects (spec.md §4.C) -- they simply operate on an empty
// payload until one is installed.
type ArrayPayload struct {
	dense []value.Value
}

func newArrayPayload() *ArrayPayload { return &ArrayPayload{} }

func (a *ArrayPayload) Length() int {
	if a == nil {
		return 0
	}
	return len(a.dense)
}

func (a *ArrayPayload) Element(i int) (value.Value, bool) {
	if a == nil || i < 0 || i >= len(a.dense) {
		return value.Undefined, false
	}
	return a.dense[i], true
}

func (a *ArrayPayload) SetElement(i int, v value.Value) {
	for i >= len(a.dense) {
		a.dense = append(a.dense, value.Undefined)
	}
	a.dense[i] = v
}

func (a *ArrayPayload) DeleteElement(i int) {
	if i < 0 || i >= len(a.dense) {
		return
	}
	a.dense[i] = value.Undefined
}

// SetLength truncates or extends the dense part. Per spec.md §4.H,
// Array's length is "writable and truncating".
func (a *ArrayPayload) SetLength(n int) {
	if n < 0 {
		n = 0
	}
	if n <= len(a.dense) {
		a.dense = a.dense[:n]
		return
	}
	for len(a.dense) < n {
		a.dense = append(a.dense, value.Undefined)
	}
}

func (a *ArrayPayload) Values() []value.Value {
	if a == nil {
		return nil
	}
	return a.dense
}
