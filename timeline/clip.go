package timeline

import (
	"sort"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/value"
)

// Clip is a timeline-capable display-tree node (spec.md GLOSSARY
// "Clip / MovieClip"): it plays frames, can host scripts, and exposes
// itself to the object model as a DisplayNode.
type Clip struct {
	scene *Clip_scene

	id   string
	name string

	depth        int // stored (post-bias) depth within parent
	hasDepth     bool
	parent       *Clip
	children     map[string]*Clip
	childOrder   []*Clip // kept sorted by depth on insert/remove

	x, y                   float64
	xscale, yscale         float64
	rotation               float64
	alpha                  float64 // 0..100
	visible                bool
	width, height          float64

	currentFrame, totalFrames, framesLoaded int
	playing                                  bool

	dropTarget string
	url        string

	// pendingLoadKind/pendingLoadURL record a loadMovie/loadVariables call
	// (spec.md §4.H) for the driver to pump via its Navigator backend --
	// timeline has no networking of its own (original_source/core/src/
	// avm1/globals/movie_clip.rs's load_movie/load_variables both defer to
	// an external "load_manager" collaborator the same way).
	pendingLoadKind string
	pendingLoadURL  string
	hasPendingLoad  bool

	scriptHandle gc.Handle
	hasScript    bool

	draw *DrawBuffer

	// unloaded is set once removeMovieClip/unloadMovie has detached this
	// clip; WellKnownGet/Set still answer (ghost wrapper semantics are
	// enforced one level up, by Scene.Node returning false once the id is
	// unregistered), but the node itself stops advancing frames.
	unloaded bool

	// isTextField marks a clip created by createTextField (spec.md §4.H
	// "TextField"; SPEC_FULL §3 EditText/TextField supplement). A text
	// field is a Clip like any other display-tree node -- it shares depth,
	// parent/child, and script-object binding -- but exposes a distinct
	// set of well-known properties instead of MovieClip's.
	isTextField bool
	text        string
	htmlText    string
	multiline   bool
	wordWrap    bool
	autoSize    string
	selectable  bool
	border      bool
	variable    string
	maxChars    int
	restrict    string
	embedFonts  bool
	condenseWhite bool
	antiAliasType string
	thickness   float64
	sharpness   float64
}

// Clip_scene is an alias of Scene, used as the type of Clip.scene.
type Clip_scene = Scene

func (c *Clip) Scene() *Scene { return (*Scene)(c.scene) }

// ID returns the clip's scene-local node id.
func (c *Clip) ID() string { return c.id }

// Name returns the clip's instance name.
func (c *Clip) Name() string { return c.name }

// Depth returns the AS-visible depth (bias removed), and whether a depth
// has ever been assigned.
func (c *Clip) Depth() (int, bool) {
	if !c.hasDepth {
		return 0, false
	}
	return c.depth - DepthBias, true
}

// StoredDepth returns the raw, post-bias depth (spec.md §8 "rendering
// order is by stored depth ascending").
func (c *Clip) StoredDepth() int { return c.depth }

// TotalFrames implements vm1.totalFrames for Goto clamping (spec.md §4.F).
func (c *Clip) TotalFrames() int { return c.totalFrames }

// CurrentFrame returns the 1-based current frame.
func (c *Clip) CurrentFrame() int { return c.currentFrame }

// SetFrame moves the playhead without replaying place-object tags; the
// caller (the driver's goto handler) is responsible for the replay
// semantics in spec.md §5 "goto re-execution".
func (c *Clip) SetFrame(n int) { c.currentFrame = n }

// Play/Stop toggle the per-clip playing flag the tick driver consults.
func (c *Clip) Play()  { c.playing = true }
func (c *Clip) Stop()  { c.playing = false }
func (c *Clip) IsPlaying() bool { return c.playing }

// RequestLoad records a loadMovie/loadVariables call for the driver to
// pump on its next tick (spec.md §4.H); kind is "movie" or "variables".
// A second call before the driver pumps the first simply replaces it,
// matching the Rust implementation's "last request wins" fetch-and-spawn
// behavior (no queueing of superseded loads).
func (c *Clip) RequestLoad(kind, url string) {
	c.pendingLoadKind = kind
	c.pendingLoadURL = url
	c.hasPendingLoad = true
}

// TakePendingLoad returns and clears the clip's pending loadMovie/
// loadVariables request, if any (spec.md §5 "Pumps pending loaders").
func (c *Clip) TakePendingLoad() (kind, url string, ok bool) {
	if !c.hasPendingLoad {
		return "", "", false
	}
	kind, url = c.pendingLoadKind, c.pendingLoadURL
	c.hasPendingLoad = false
	c.pendingLoadKind, c.pendingLoadURL = "", ""
	return kind, url, true
}

// SetURL updates the clip's _url well-known property once a loadMovie
// fetch completes (spec.md §4.C "_url").
func (c *Clip) SetURL(url string) { c.url = url }

// ChildByName implements object.DisplayNode: a clip exposes its children
// as properties indexed by name (spec.md §4.I).
func (c *Clip) ChildByName(name string) (gc.Handle, bool) {
	child, ok := c.children[name]
	if !ok || !child.hasScript {
		return gc.Handle{}, false
	}
	return child.scriptHandle, true
}

// WellKnownGet implements object.DisplayNode: forwards the fixed set of
// spec.md §4.C well-known property names to the bound display object's
// accessors.
func (c *Clip) WellKnownGet(name string) (value.Value, bool) {
	switch name {
	case "_x":
		return value.Number(c.x), true
	case "_y":
		return value.Number(c.y), true
	case "_xscale":
		return value.Number(c.xscale), true
	case "_yscale":
		return value.Number(c.yscale), true
	case "_visible":
		return value.Bool(c.visible), true
	case "_currentframe":
		return value.Integer(int32(c.currentFrame)), true
	case "_totalframes":
		return value.Integer(int32(c.totalFrames)), true
	case "_framesloaded":
		return value.Integer(int32(c.framesLoaded)), true
	case "_alpha":
		return value.Number(c.alpha), true
	case "_rotation":
		return value.Number(c.rotation), true
	case "_width":
		return value.Number(c.width), true
	case "_height":
		return value.Number(c.height), true
	case "_name":
		return value.StringOf(c.scene.interner.Intern(c.name)), true
	case "_target":
		return value.StringOf(c.scene.interner.Intern(c.TargetPath())), true
	case "_url":
		return value.StringOf(c.scene.interner.Intern(c.url)), true
	case "_droptarget":
		return value.StringOf(c.scene.interner.Intern(c.dropTarget)), true
	case "_highquality", "_quality", "_focusrect", "_soundbuftime", "_xmouse", "_ymouse":
		return value.Undefined, true
	case "_parent":
		if c.parent != nil && c.parent.hasScript {
			return value.Object(c.parent.scriptHandle), true
		}
		return value.Undefined, true
	case "_root":
		root := c.rootClip()
		if root.hasScript {
			return value.Object(root.scriptHandle), true
		}
		return value.Undefined, true
	}
	if c.isTextField {
		if v, ok := c.textFieldGet(name); ok {
			return v, true
		}
	}
	return value.Value{}, false
}

// textFieldGet answers the TextField-only property set (spec.md §4.H
// "properties for text, HTML text, formatting, multiline, word-wrap,
// autoSize, selectable, border"; SPEC_FULL §3 supplement: variable,
// maxChars, restrict, embedFonts, condenseWhite, antiAliasType,
// thickness/sharpness -- stored render-hint passthrough fields, never
// rasterized, since rendering itself is out of scope).
func (c *Clip) textFieldGet(name string) (value.Value, bool) {
	switch name {
	case "text":
		return value.StringOf(c.scene.interner.Intern(c.text)), true
	case "htmlText":
		return value.StringOf(c.scene.interner.Intern(c.htmlText)), true
	case "multiline":
		return value.Bool(c.multiline), true
	case "wordWrap":
		return value.Bool(c.wordWrap), true
	case "autoSize":
		return value.StringOf(c.scene.interner.Intern(c.autoSize)), true
	case "selectable":
		return value.Bool(c.selectable), true
	case "border":
		return value.Bool(c.border), true
	case "variable":
		return value.StringOf(c.scene.interner.Intern(c.variable)), true
	case "maxChars":
		return value.Integer(int32(c.maxChars)), true
	case "restrict":
		return value.StringOf(c.scene.interner.Intern(c.restrict)), true
	case "embedFonts":
		return value.Bool(c.embedFonts), true
	case "condenseWhite":
		return value.Bool(c.condenseWhite), true
	case "antiAliasType":
		return value.StringOf(c.scene.interner.Intern(c.antiAliasType)), true
	case "thickness":
		return value.Number(c.thickness), true
	case "sharpness":
		return value.Number(c.sharpness), true
	}
	return value.Value{}, false
}

// TargetPath renders the clip's VM1 slash-path from the root.
func (c *Clip) TargetPath() string {
	if c.parent == nil {
		return "/"
	}
	segs := []string{c.name}
	for p := c.parent; p != nil && p.parent != nil; p = p.parent {
		segs = append([]string{p.name}, segs...)
	}
	path := "/"
	for _, s := range segs {
		path += s + "/"
	}
	return path[:len(path)-1]
}

// Draw returns the clip's drawing-command buffer, allocating it on first
// use (spec.md §4.I "drawing commands... accumulate into a per-clip
// vector-shape buffer").
func (c *Clip) Draw() *DrawBuffer {
	if c.draw == nil {
		c.draw = &DrawBuffer{}
	}
	return c.draw
}

func (c *Clip) rootClip() *Clip {
	cur := c
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// WellKnownSet implements object.DisplayNode: a write to one of the
// well-known names applies the transform through the clip directly
// rather than the property table (spec.md §4.I).
func (c *Clip) WellKnownSet(name string, v value.Value) bool {
	n, isNum := v.AsNumber()
	if iv, ok := v.AsInteger(); ok {
		n, isNum = float64(iv), true
	}
	switch name {
	case "_x":
		if isNum {
			c.x = n
		}
		return true
	case "_y":
		if isNum {
			c.y = n
		}
		return true
	case "_xscale":
		if isNum {
			c.xscale = n
		}
		return true
	case "_yscale":
		if isNum {
			c.yscale = n
		}
		return true
	case "_rotation":
		if isNum {
			c.rotation = n
		}
		return true
	case "_alpha":
		if isNum {
			c.alpha = n
		}
		return true
	case "_visible":
		b, _ := v.AsBool()
		c.visible = b || isNum && n != 0
		return true
	case "_name":
		if sh, ok := v.AsString(); ok {
			newName := c.scene.interner.Lookup(sh)
			if c.parent != nil {
				delete(c.parent.children, c.name)
				c.parent.children[newName] = c
			}
			c.name = newName
		}
		return true
	}
	if c.isTextField {
		if ok := c.textFieldSet(name, v); ok {
			return true
		}
	}
	return false
}

func (c *Clip) textFieldSet(name string, v value.Value) bool {
	asString := func() (string, bool) {
		sh, ok := v.AsString()
		if !ok {
			return "", false
		}
		return c.scene.interner.Lookup(sh), true
	}
	asBool := func() bool {
		b, _ := v.AsBool()
		return b
	}
	asNumber := func() float64 {
		n, _ := v.AsNumber()
		if iv, ok := v.AsInteger(); ok {
			n = float64(iv)
		}
		return n
	}
	switch name {
	case "text":
		if s, ok := asString(); ok {
			c.text = s
		}
		return true
	case "htmlText":
		if s, ok := asString(); ok {
			c.htmlText = s
		}
		return true
	case "multiline":
		c.multiline = asBool()
		return true
	case "wordWrap":
		c.wordWrap = asBool()
		return true
	case "autoSize":
		if s, ok := asString(); ok {
			c.autoSize = s
		}
		return true
	case "selectable":
		c.selectable = asBool()
		return true
	case "border":
		c.border = asBool()
		return true
	case "variable":
		if s, ok := asString(); ok {
			c.variable = s
		}
		return true
	case "maxChars":
		c.maxChars = int(asNumber())
		return true
	case "restrict":
		if s, ok := asString(); ok {
			c.restrict = s
		}
		return true
	case "embedFonts":
		c.embedFonts = asBool()
		return true
	case "condenseWhite":
		c.condenseWhite = asBool()
		return true
	case "antiAliasType":
		if s, ok := asString(); ok {
			c.antiAliasType = s
		}
		return true
	case "thickness":
		c.thickness = asNumber()
		return true
	case "sharpness":
		c.sharpness = asNumber()
		return true
	}
	return false
}

// addChild inserts child under name at its current depth, keeping
// childOrder sorted ascending by stored depth (spec.md §8 "rendering
// order is by stored depth ascending").
func (c *Clip) addChild(name string, child *Clip) {
	if c.children == nil {
		c.children = make(map[string]*Clip)
	}
	c.children[name] = child
	child.parent = c
	c.childOrder = append(c.childOrder, child)
	sort.SliceStable(c.childOrder, func(i, j int) bool { return c.childOrder[i].depth < c.childOrder[j].depth })
}

func (c *Clip) removeChild(child *Clip) {
	for name, v := range c.children {
		if v == child {
			delete(c.children, name)
			break
		}
	}
	for i, v := range c.childOrder {
		if v == child {
			c.childOrder = append(c.childOrder[:i], c.childOrder[i+1:]...)
			break
		}
	}
}

// ChildAtDepth returns the child occupying stored depth d, if any --
// used by swapDepths/attachMovie to detect collisions.
func (c *Clip) ChildAtDepth(d int) (*Clip, bool) {
	for _, ch := range c.childOrder {
		if ch.hasDepth && ch.depth == d {
			return ch, true
		}
	}
	return nil, false
}

// NextHighestDepth implements MovieClip.getNextHighestDepth: one above
// the highest stored depth of any child that has a depth (script-created
// children included), or DepthBias if no child has one. The result is a
// stored (biased) depth.
func (c *Clip) NextHighestDepth() int {
	highest := DepthBias - 1
	for _, ch := range c.childOrder {
		if ch.hasDepth && ch.depth > highest {
			highest = ch.depth
		}
	}
	return highest + 1
}
