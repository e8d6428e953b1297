package timeline

import (
	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/value"
)

// InstallTextField builds the TextField intrinsic prototype (spec.md
// §4.H "TextField: properties for text, HTML text, formatting,
// multiline, word-wrap, autoSize, selectable, border"). Every property
// it exposes is answered by Clip.WellKnownGet/WellKnownSet once a clip
// is marked isTextField -- the prototype itself carries no methods of
// its own, matching the spec's property-only description.
func InstallTextField(arena *gc.Arena, interner *value.Interner, objectProto gc.Handle) gc.Handle {
	h := heap{arena: arena, interner: interner}
	handle, _ := h.newPlainObject(objectProto, true)
	return handle
}

// newTextFieldChild allocates a text-field Clip under parent at depth,
// registers it in the scene, and binds its script object to
// textFieldProto (spec.md §4.H createTextField).
func newTextFieldChild(h heap, parent *Clip, name string, depth int, textFieldProto gc.Handle) (*Clip, value.Value, error) {
	child, val, err := newChildClip(h, parent, name, depth, textFieldProto)
	if err != nil || child == nil {
		return child, val, err
	}
	child.isTextField = true
	child.selectable = true
	return child, val, nil
}
