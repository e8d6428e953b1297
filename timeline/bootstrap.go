package timeline

import (
	"github.com/avmcore/avm/builtins"
	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/value"
)

// Runtime ties the intrinsic library to a live display tree: the
// MovieClip prototype installed here is what every clip's script object
// is linked to (spec.md §4.I).
type Runtime struct {
	Library         *builtins.Library
	MovieClipProto  gc.Handle
	TextFieldProto  gc.Handle
	Scene           *Scene
	RootScriptValue value.Value
}

// Bootstrap installs the MovieClip intrinsic on top of an already-built
// Library and creates the root scene, binding _root's script object
// (spec.md §4.H install order: "...Date, Error, Math, XML/XMLNode,
// display-tree intrinsics..."; this is the display-tree step). swfVersion
// is recorded on the scene to gate version-dependent behavior such as
// createTextField.
func Bootstrap(lib *builtins.Library, totalFrames int, swfVersion int) (*Runtime, error) {
	textFieldProto := InstallTextField(lib.Arena, lib.Interner, lib.ObjectProto)
	movieClipProto := InstallMovieClip(lib.Arena, lib.Interner, lib.ObjectProto, textFieldProto)
	scene := NewScene("main", totalFrames, lib.Interner, swfVersion)

	h := heap{arena: lib.Arena, interner: lib.Interner}
	rootVal, err := NewScriptObject(h, lib.Arena, scene.Root(), movieClipProto, true)
	if err != nil {
		return nil, err
	}

	global, ok := h.Resolve(lib.Global)
	if ok {
		global.DefineValue(lib.Interner.Intern("_root"), rootVal, 0)
		global.DefineValue(lib.Interner.Intern("_global"), value.Object(lib.Global), 0)
	}

	return &Runtime{
		Library:         lib,
		MovieClipProto:  movieClipProto,
		TextFieldProto:  textFieldProto,
		Scene:           scene,
		RootScriptValue: rootVal,
	}, nil
}
