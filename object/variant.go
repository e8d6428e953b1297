package object

import (
	"context"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/value"
)

// VariantKind discriminates the "object flavors" of spec.md §3. Hot
// operations match once on Kind and dispatch to the matching payload,
// with a shared helper for the common "forward to base script object"
// fallthrough (spec.md Design Notes).
type VariantKind uint8

const (
	VariantPlain VariantKind = iota
	VariantFunction
	VariantSound
	VariantDisplay
	VariantXMLNode
	VariantXMLIDMap
	VariantDate
	VariantEvent
	VariantButton
)

func (k VariantKind) String() string {
	switch k {
	case VariantPlain:
		return "plain"
	case VariantFunction:
		return "function"
	case VariantSound:
		return "sound"
	case VariantDisplay:
		return "display"
	case VariantXMLNode:
		return "xmlnode"
	case VariantXMLIDMap:
		return "xmlidmap"
	case VariantDate:
		return "date"
	case VariantEvent:
		return "event"
	case VariantButton:
		return "button"
	default:
		return "unknown"
	}
}

// NativeFunc is a Go-implemented function body, used for builtins and
// intrinsic methods (spec.md §4.F: "Native function objects carry a
// function pointer receiving (avm, update_ctx, this, args)" -- ctx here
// plays the role of avm+update_ctx since both VMs thread a context.Context
// through every call).
type NativeFunc func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error)

// FunctionPayload backs the "function" variant (spec.md §3). Exactly one
// of Native or BytecodeRef is set. BytecodeRef is an opaque descriptor
// owned by whichever VM compiled the function (*vm1.Template or
// *vm2.Method); the object package never inspects it, it only asks the
// owning VM (via InvokeFunc, reached through the context) to run it.
type FunctionPayload struct {
	Name        value.StringHandle
	HasName     bool
	Native      NativeFunc
	BytecodeRef interface{}
	// TraceExtra lets the owning VM register extra GC roots captured by
	// a closure (its scope chain, free-variable cells) without the
	// object package knowing their concrete type.
	TraceExtra func(visit func(gc.Handle))
}

// DisplayPayload backs the "display-object-backed" variant: a weak
// reference to a clip/button/text-field in the display tree, resolved
// against the scene on every access (spec.md Design Notes: "(scene_id,
// node_id) pairs resolved against the scene every access; if the node is
// gone, operations no-op").
type DisplayPayload struct {
	SceneID string
	NodeID  string
	// Resolve looks the node up in the live display tree; returns false
	// if it is gone, in which case the object is a "ghost" wrapper
	// (spec.md §3 Lifecycle).
	Resolve func() (DisplayNode, bool)
}

// DisplayNode is the narrow surface the object model needs from a
// display-tree node (spec.md §4.I); the concrete implementation lives in
// package timeline.
type DisplayNode interface {
	WellKnownGet(name string) (value.Value, bool)
	WellKnownSet(name string, v value.Value) bool
	ChildByName(name string) (gc.Handle, bool)
}

// SoundPayload backs the "sound" variant (spec.md §3, supplemented by
// original_source/core/src/avm1/sound_object.rs).
type SoundPayload struct {
	Handle     int // opaque audio-backend handle, 0 = unbound
	OwningClip gc.Handle
	HasClip    bool
	Volume     int // 0-100
	Pan        int // -100..100
}

// XMLNodePayload backs the "XML node" variant.
type XMLNodePayload struct {
	NodeType  int
	NodeName  value.StringHandle
	NodeValue value.Value
	Parent    gc.Handle
	HasParent bool
	Children  []gc.Handle
	Document  gc.Handle // the owning document, for ID-map overlay
}

// XMLIDMapPayload backs the "XML ID-map" variant: dynamic lookup of
// node-by-id overlays normal properties (spec.md §4.C).
type XMLIDMapPayload struct {
	Document gc.Handle
	// ByID maps an "id" attribute value to the node handle that declared
	// it; rebuilt by the timeline/XML code on structural mutation.
	ByID map[value.StringHandle]gc.Handle
}

// DatePayload backs the "date" variant: an instant with an optional
// locale timezone view (spec.md §3, §4.H).
type DatePayload struct {
	UnixMillis int64
	Valid      bool // false once a field setter observes a non-finite input
	UTC        bool
}

// EventPayload backs the VM2 "event" variant; carries kind-specific
// payload such as mouse modifier flags (spec.md §3, §4.H MouseEvent).
type EventPayload struct {
	Kind      value.StringHandle
	LocalX    float64
	LocalY    float64
	Modifiers MouseModifiers
	ButtonDown bool
	Delta     int
}

// MouseModifiers is the VM2 MouseEvent modifier bit-set, values taken
// from original_source/core/src/avm2/globals/flash/events/mouseevent.rs.
type MouseModifiers uint8

const (
	ModCtrl MouseModifiers = 1 << iota
	ModAlt
	ModShift
	ModCommand
)

// ButtonPayload backs the "button" variant (supplemented from
// original_source/core/src/avm1/globals/button.rs and
// display_object/button.rs): hit-state character references and the
// attached context menu.
type ButtonPayload struct {
	UpState      gc.Handle
	OverState    gc.Handle
	DownState    gc.Handle
	HitTestState gc.Handle
	HasUp        bool
	HasOver      bool
	HasDown      bool
	HasHitTest   bool
	ContextMenu  gc.Handle
	HasMenu      bool
	TrackAsMenu  bool
}
