// Package timeline implements the binding between the display tree and
// the shared object model (spec.md §4.I): a display-list entity (the
// "clip") exposes itself as a scriptable object, and ActionScript calls
// that mutate the display tree are resolved safely back through it.
package timeline

import (
	"sync"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
	"github.com/gofrs/uuid"
)

// DepthBias is added to every script-visible depth before it is stored
// (spec.md §8 "Depth bias": "for every depth d supplied by script, the
// stored depth is d + 16384"). The exact derivation is unknown (spec.md
// §9 Open Questions); it is reproduced verbatim as an invariant of the
// original runtime.
const DepthBias = 16384

// MaxScriptDepth and MinRemovableDepth/MaxRemovableDepth bound the
// AS-visible and removable depth ranges (spec.md §4.H, §8).
const (
	MaxScriptDepth    = 2_130_706_428
	MinRemovableDepth = 16384
	MaxRemovableDepth = 2_130_706_416 // exclusive
)

// Scene is the live display tree for one loaded movie: a registry of
// nodes by id plus the root clip, resolved against on every property
// access rather than held by direct pointer (spec.md Design Notes:
// "weak references to display objects should be modeled as (scene_id,
// node_id) pairs resolved against the scene every access; if the node is
// gone, operations no-op").
type Scene struct {
	mu       sync.Mutex
	id       string
	nodes    map[string]*Clip
	root     *Clip
	interner *value.Interner

	// SWFVersion gates behavior that differs by container version (spec.md
	// §4.H "createTextField returns the field only when SWF ≥ 8"). It is
	// set by NewScene and kept separately from vm1.Interpreter.SWFVersion.
	SWFVersion int

	// DragTarget is the single process-wide drag slot (spec.md §5
	// "Shared resources: Drag target: single optional slot on the
	// context"), addressed by node id.
	DragTarget   string
	HasDragTarget bool

	nextNodeID int
}

// NewScene creates a scene with an empty root clip at depth 0. interner
// is the run's shared string pool, used by Clip.WellKnownGet to intern
// the text-valued well-known properties (_name, _target, _url,
// _droptarget) without needing a Heap of its own. swfVersion gates
// version-dependent MovieClip behavior (spec.md §4.H createTextField).
func NewScene(id string, totalFrames int, interner *value.Interner, swfVersion int) *Scene {
	s := &Scene{id: id, nodes: make(map[string]*Clip), interner: interner, SWFVersion: swfVersion}
	root := &Clip{scene: s, id: "0", name: "_root", totalFrames: totalFrames, visible: true, xscale: 100, yscale: 100, alpha: 100}
	s.nodes[root.id] = root
	s.root = root
	return s
}

// ID returns the scene's identifier, paired with a node id to form the
// (scene_id, node_id) weak reference spec.md prescribes.
func (s *Scene) ID() string { return s.id }

// Root returns the scene's root clip.
func (s *Scene) Root() *Clip { return s.root }

// Node resolves a node id to its live Clip, or false if it has been
// removed (a "ghost" wrapper observes this as "no underlying object").
func (s *Scene) Node(id string) (*Clip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.nodes[id]
	return c, ok
}

// Clips returns every currently-registered node, for the driver's
// per-tick frame-advance pass (spec.md §5 "Advances the timeline").
// Order is unspecified; callers that need ordering (e.g. parent-before-
// child) should sort by TargetPath length.
func (s *Scene) Clips() []*Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Clip, 0, len(s.nodes))
	for _, c := range s.nodes {
		out = append(out, c)
	}
	return out
}

func (s *Scene) register(c *Clip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[c.id] = c
}

func (s *Scene) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, id)
}

// newNodeID mints a fresh node id for a script-created clip
// (createEmptyMovieClip/attachMovie/duplicateMovieClip). A v4 UUID keeps
// ghost-wrapper ids from colliding across scenes loaded and unloaded
// independently, matching the uniqueness a (scene_id, node_id) weak
// reference requires (spec.md Design Notes).
func (s *Scene) newNodeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextNodeID++
	id, err := uuid.NewV4()
	if err != nil {
		// uuid generation only fails if the system CSPRNG is broken; fall
		// back to the monotonic counter rather than panic mid-mutation.
		return "n" + itoa(s.nextNodeID)
	}
	return id.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// ResolveFunc builds the object.DisplayPayload.Resolve closure for a weak
// (sceneID, nodeID) reference (spec.md Design Notes).
func ResolveFunc(s *Scene, nodeID string) func() (object.DisplayNode, bool) {
	return func() (object.DisplayNode, bool) {
		c, ok := s.Node(nodeID)
		if !ok {
			return nil, false
		}
		return c, true
	}
}

// Heap is the narrow surface timeline needs from the shared object model
// to allocate and bind a clip's script object (spec.md §4.I); both
// vm1.Heap and vm2.Heap satisfy it already.
type Heap interface {
	object.Heap
	Intern(s string) value.StringHandle
	Lookup(h value.StringHandle) string
}

// NewScriptObject allocates a display-backed object wrapping clip,
// linked to proto (spec.md §3 "display-object-backed: a weak reference to
// a clip/button/text-field in the display tree"). arena is the same
// *gc.Arena backing h (vm1.Heap and vm2.Heap both expose it as a public
// field, but neither promotes Mutate as a method, so it is passed
// alongside h rather than required on the Heap interface).
func NewScriptObject(h Heap, arena *gc.Arena, clip *Clip, proto gc.Handle, hasProto bool) (value.Value, error) {
	var result value.Value
	err := arena.Mutate(func(mc *gc.MutationContext) error {
		obj := object.NewVariant(object.VariantDisplay, &object.DisplayPayload{
			SceneID: clip.scene.id,
			NodeID:  clip.id,
			Resolve: ResolveFunc(clip.scene, clip.id),
		})
		if hasProto {
			obj.SetProto(h, gc.Handle{}, proto)
		}
		handle := mc.New(obj)
		obj.BindSelf(handle)
		clip.scriptHandle = handle
		clip.hasScript = true
		result = value.Object(handle)
		return nil
	})
	return result, err
}
