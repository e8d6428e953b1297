// Package scope implements the lexical/with scope chain shared by both
// VMs (spec.md §4.E): an immutable linked list of frames, each either an
// ordinary declaration frame or a `with` frame, searched outward from the
// innermost frame to the global object.
package scope

import (
	"context"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
)

// Chain is one immutable scope frame, linked to its parent. Pushing a new
// frame never mutates an existing Chain value, so a closure can capture a
// *Chain and keep using it safely while sibling code pushes further
// frames of its own (spec.md §4.E: "push/pop via structural sharing").
type Chain struct {
	parent *Chain
	object gc.Handle
	isWith bool
}

// Global creates the outermost frame, linked to nothing.
func Global(globalObject gc.Handle) *Chain {
	return &Chain{object: globalObject}
}

// Push links a new ordinary declaration frame in front of c.
func (c *Chain) Push(frameObject gc.Handle) *Chain {
	return &Chain{parent: c, object: frameObject}
}

// PushWith links a new `with` frame in front of c (spec.md §4.E: "with
// frames test has_property before shadowing outer declarations").
func (c *Chain) PushWith(frameObject gc.Handle) *Chain {
	return &Chain{parent: c, object: frameObject, isWith: true}
}

// Pop returns the parent frame, or nil at the global frame.
func (c *Chain) Pop() *Chain {
	if c == nil {
		return nil
	}
	return c.parent
}

// Depth returns the number of frames from c down to (and including) the
// global frame.
func (c *Chain) Depth() int {
	n := 0
	for cur := c; cur != nil; cur = cur.parent {
		n++
	}
	return n
}

// Object returns the handle backing this frame.
func (c *Chain) Object() gc.Handle { return c.object }

// IsWith reports whether this frame is a `with` frame.
func (c *Chain) IsWith() bool { return c.isWith }

// Resolve walks the chain outward from c, returning the first frame whose
// object has the named property and the value found there (spec.md
// §4.E): an ordinary frame only matches its own declared/trait
// properties (HasOwnProperty), a with frame uses the full has_property
// test (prototype chain included), matching AS's `with` semantics.
func Resolve(ctx context.Context, heap object.Heap, c *Chain, name value.StringHandle, fold func(value.StringHandle) (value.StringHandle, bool)) (value.Value, *Chain, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		obj, ok := heap.Resolve(cur.object)
		if !ok {
			continue
		}
		if cur.isWith {
			if obj.HasProperty(heap, name) {
				v, err := obj.Get(ctx, heap, name, fold)
				if err == nil {
					return v, cur, true
				}
			}
			continue
		}
		if obj.HasOwnProperty(name) {
			v, err := obj.Get(ctx, heap, name, fold)
			if err == nil {
				return v, cur, true
			}
		}
	}
	return value.Undefined, nil, false
}

// ResolveForAssignment finds the frame an assignment to name should land
// in: the innermost frame already declaring it (ordinary or with), or the
// global frame if none does (spec.md §4.E: "an undeclared assignment
// creates the property on the global object").
func ResolveForAssignment(heap object.Heap, c *Chain, name value.StringHandle) *Chain {
	var global *Chain
	for cur := c; cur != nil; cur = cur.parent {
		global = cur
		obj, ok := heap.Resolve(cur.object)
		if !ok {
			continue
		}
		if cur.isWith {
			if obj.HasProperty(heap, name) {
				return cur
			}
			continue
		}
		if obj.HasOwnProperty(name) {
			return cur
		}
	}
	return global
}
