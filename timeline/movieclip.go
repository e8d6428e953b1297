package timeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/internal/log"
	"github.com/avmcore/avm/value"
	"github.com/avmcore/avm/vm1"
	"github.com/hashicorp/go-multierror"
)

// validateGradientArgs collects every length mismatch between the three
// gradient arrays, rather than reporting only the first, so a warning
// names every offending argument at once (spec.md §8: "colors, alphas,
// and ratios arrays must be the same length").
func validateGradientArgs(colors []uint32, alphas []float64, ratios []int) error {
	var result *multierror.Error
	if len(colors) != len(alphas) {
		result = multierror.Append(result, fmt.Errorf("colors has %d entries, alphas has %d", len(colors), len(alphas)))
	}
	if len(colors) != len(ratios) {
		result = multierror.Append(result, fmt.Errorf("colors has %d entries, ratios has %d", len(colors), len(ratios)))
	}
	return result.ErrorOrNil()
}

// InstallMovieClip builds the MovieClip intrinsic prototype (spec.md
// §4.H "MovieClip: attachMovie, duplicateMovieClip, createEmptyMovieClip,
// ..."), layered on top of objectProto the way builtins.Bootstrap layers
// every other intrinsic prototype -- timeline owns the display-tree
// methods since they need Clip, which builtins deliberately knows
// nothing about (see builtins/bootstrap.go's package doc).
func InstallMovieClip(arena *gc.Arena, interner *value.Interner, objectProto gc.Handle, textFieldProto gc.Handle) gc.Handle {
	h := heap{arena: arena, interner: interner}
	handle, proto := h.newPlainObject(objectProto, true)

	h.defineMethod(proto, "play", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if c, ok := thisClip(h, this); ok {
			c.Play()
		}
		return value.Undefined, nil
	})
	h.defineMethod(proto, "stop", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if c, ok := thisClip(h, this); ok {
			c.Stop()
		}
		return value.Undefined, nil
	})
	h.defineMethod(proto, "nextFrame", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if c, ok := thisClip(h, this); ok && c.currentFrame < c.totalFrames {
			c.currentFrame++
		}
		return value.Undefined, nil
	})
	h.defineMethod(proto, "prevFrame", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if c, ok := thisClip(h, this); ok && c.currentFrame > 1 {
			c.currentFrame--
		}
		return value.Undefined, nil
	})
	h.defineMethod(proto, "gotoAndPlay", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return gotoFrame(h, this, args, true)
	})
	h.defineMethod(proto, "gotoAndStop", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return gotoFrame(h, this, args, false)
	})

	h.defineMethod(proto, "getBytesLoaded", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if c, ok := thisClip(h, this); ok {
			return value.Number(float64(c.framesLoaded) * 1000), nil
		}
		return value.Number(0), nil
	})
	h.defineMethod(proto, "getBytesTotal", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if c, ok := thisClip(h, this); ok {
			return value.Number(float64(c.totalFrames) * 1000), nil
		}
		return value.Number(0), nil
	})

	h.defineMethod(proto, "getNextHighestDepth", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if c, ok := thisClip(h, this); ok {
			return value.Integer(int32(c.NextHighestDepth())), nil
		}
		return value.Integer(DepthBias), nil
	})

	// getDepth returns the un-biased script depth (spec.md §8 scenario 2:
	// "mc.createEmptyMovieClip("a", 3); assert a.getDepth() === 3").
	h.defineMethod(proto, "getDepth", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		c, ok := thisClip(h, this)
		if !ok {
			return value.Undefined, nil
		}
		depth, hasDepth := c.Depth()
		if !hasDepth {
			return value.Undefined, nil
		}
		return value.Integer(int32(depth)), nil
	})

	h.defineMethod(proto, "getBounds", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return boundsObject(h, this)
	})
	// getRect defers to getBounds (spec.md §9 Open Questions: "should
	// differ by excluding stroke widths; note implementations may
	// initially tie them").
	h.defineMethod(proto, "getRect", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return boundsObject(h, this)
	})

	h.defineMethod(proto, "hitTest", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		c, ok := thisClip(h, this)
		if !ok {
			return value.Bool(false), nil
		}
		if len(args) >= 2 {
			x, y := argNumber(args, 0, 0), argNumber(args, 1, 0)
			return value.Bool(c.hitTestPoint(x, y)), nil
		}
		other, ok := thisClip(h, argAt(args, 0))
		if !ok {
			return value.Bool(false), nil
		}
		return value.Bool(c.hitTestBounds(other)), nil
	})

	h.defineMethod(proto, "swapDepths", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		c, ok := thisClip(h, this)
		if !ok || c.parent == nil {
			return value.Undefined, nil
		}
		if other, ok := thisClip(h, argAt(args, 0)); ok {
			// swapDepths rejects cross-parent swaps (spec.md §4.I).
			if other.parent != c.parent {
				return value.Undefined, nil
			}
			if other.depth == c.depth {
				return value.Undefined, nil
			}
			c.depth, other.depth = other.depth, c.depth
			c.hasDepth, other.hasDepth = true, true
			c.parent.resort()
			return value.Undefined, nil
		}
		if n, ok := argAt(args, 0).AsInteger(); ok {
			target := int(n) + DepthBias
			if target == c.depth {
				return value.Undefined, nil
			}
			c.depth = target
			c.hasDepth = true
			c.parent.resort()
		}
		return value.Undefined, nil
	})

	h.defineMethod(proto, "removeMovieClip", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		c, ok := thisClip(h, this)
		if !ok || c.parent == nil {
			return value.Undefined, nil
		}
		// Only clips in the script-removable depth window go away
		// (spec.md §4.H: "only removes clips whose stored depth (post-bias)
		// is in [16384, 2_130_706_416)").
		if c.depth < MinRemovableDepth || c.depth >= MaxRemovableDepth {
			return value.Undefined, nil
		}
		c.unload()
		return value.Undefined, nil
	})

	h.defineMethod(proto, "unloadMovie", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if c, ok := thisClip(h, this); ok {
			c.unload()
		}
		return value.Undefined, nil
	})

	h.defineMethod(proto, "startDrag", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		c, ok := thisClip(h, this)
		if !ok {
			return value.Undefined, nil
		}
		c.scene.DragTarget = c.id
		c.scene.HasDragTarget = true
		return value.Undefined, nil
	})
	h.defineMethod(proto, "stopDrag", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if c, ok := thisClip(h, this); ok {
			if c.scene.DragTarget == c.id {
				c.scene.HasDragTarget = false
				c.scene.DragTarget = ""
			}
		}
		return value.Undefined, nil
	})

	h.defineMethod(proto, "localToGlobal", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return transformPoint(h, this, args, true)
	})
	h.defineMethod(proto, "globalToLocal", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		return transformPoint(h, this, args, false)
	})

	h.defineMethod(proto, "createEmptyMovieClip", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		c, ok := thisClip(h, this)
		if !ok {
			return value.Undefined, nil
		}
		name, _ := argString(h, args, 0)
		depthArg, _ := argAt(args, 1).AsInteger()
		child, val, err := newChildClip(h, c, name, int(depthArg), handle)
		if err != nil || child == nil {
			return value.Undefined, err
		}
		return val, nil
	})

	// createTextField returns the field only when SWF >= 8 (spec.md §4.H);
	// below that version it returns undefined without creating anything,
	// matching the Rust implementation gating the same intrinsic on
	// `avm1::globals::movie_clip::create_text_field`'s swf_version check.
	h.defineMethod(proto, "createTextField", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		c, ok := thisClip(h, this)
		if !ok {
			return value.Undefined, nil
		}
		if c.scene.SWFVersion < 8 {
			return value.Undefined, nil
		}
		name, _ := argString(h, args, 0)
		depthArg, _ := argAt(args, 1).AsInteger()
		x := argNumber(args, 2, 0)
		y := argNumber(args, 3, 0)
		width := argNumber(args, 4, 0)
		height := argNumber(args, 5, 0)
		child, val, err := newTextFieldChild(h, c, name, int(depthArg), textFieldProto)
		if err != nil || child == nil {
			return value.Undefined, err
		}
		child.x, child.y, child.width, child.height = x, y, width, height
		return val, nil
	})

	h.defineMethod(proto, "loadMovie", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		c, ok := thisClip(h, this)
		if !ok {
			return value.Undefined, nil
		}
		url, _ := argString(h, args, 0)
		method, _ := argString(h, args, 1)
		c.RequestLoad("movie", url)
		log.Component("timeline").Debug().Str("clip", c.TargetPath()).Str("url", url).Str("method", method).Msg("loadMovie requested")
		return value.Undefined, nil
	})

	h.defineMethod(proto, "loadVariables", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		c, ok := thisClip(h, this)
		if !ok {
			return value.Undefined, nil
		}
		url, _ := argString(h, args, 0)
		method, _ := argString(h, args, 1)
		c.RequestLoad("variables", url)
		log.Component("timeline").Debug().Str("clip", c.TargetPath()).Str("url", url).Str("method", method).Msg("loadVariables requested")
		return value.Undefined, nil
	})

	h.defineMethod(proto, "duplicateMovieClip", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		c, ok := thisClip(h, this)
		if !ok || c.parent == nil {
			return value.Undefined, nil
		}
		name, _ := argString(h, args, 0)
		depthArg, _ := argAt(args, 1).AsInteger()
		child, val, err := newChildClip(h, c.parent, name, int(depthArg), handle)
		if err != nil || child == nil {
			return value.Undefined, err
		}
		child.x, child.y = c.x, c.y
		child.xscale, child.yscale = c.xscale, c.yscale
		child.rotation, child.alpha = c.rotation, c.alpha
		child.totalFrames, child.framesLoaded = c.totalFrames, c.framesLoaded
		return val, nil
	})

	h.defineMethod(proto, "attachMovie", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		c, ok := thisClip(h, this)
		if !ok {
			return value.Undefined, nil
		}
		// attachMovie(name, inst, d) with d < 0 or d > MaxScriptDepth is a
		// no-op (spec.md §8 scenario).
		depthArg, hasDepth := argAt(args, 2).AsInteger()
		if !hasDepth || depthArg < 0 || int64(depthArg) > MaxScriptDepth {
			return value.Undefined, nil
		}
		instName, _ := argString(h, args, 1)
		child, val, err := newChildClip(h, c, instName, int(depthArg), handle)
		if err != nil || child == nil {
			return value.Undefined, err
		}
		return val, nil
	})

	// Drawing API (spec.md §4.I): each call mutates the clip's DrawBuffer.
	h.defineMethod(proto, "lineStyle", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		c, ok := thisClip(h, this)
		if !ok {
			return value.Undefined, nil
		}
		width := int(argNumber(args, 0, 0))
		color := uint32(int64(argNumber(args, 1, 0)))
		alpha := argNumber(args, 2, 100)
		hinting := argBool(args, 3, false)
		scaleMode, _ := argString(h, args, 4)
		caps, _ := argString(h, args, 5)
		joints, _ := argString(h, args, 6)
		miter := int(argNumber(args, 7, 3))
		c.Draw().LineStyle(width, color, alpha, hinting, scaleMode, caps, joints, miter)
		return value.Undefined, nil
	})
	h.defineMethod(proto, "beginFill", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if c, ok := thisClip(h, this); ok {
			color := uint32(int64(argNumber(args, 0, 0)))
			alpha := argNumber(args, 1, 100)
			c.Draw().BeginFill(color, alpha)
		}
		return value.Undefined, nil
	})
	h.defineMethod(proto, "beginGradientFill", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		c, ok := thisClip(h, this)
		if !ok {
			return value.Undefined, nil
		}
		radial := false
		if s, ok := argString(h, args, 0); ok {
			radial = s == "radial"
		}
		colors := numberArray(h, argAt(args, 1))
		alphas := numberArray(h, argAt(args, 2))
		ratios := numberArray(h, argAt(args, 3))
		uColors := make([]uint32, len(colors))
		for i, v := range colors {
			uColors[i] = uint32(int64(v))
		}
		iRatios := make([]int, len(ratios))
		for i, v := range ratios {
			iRatios[i] = int(v)
		}
		spread, _ := argString(h, args, 6)
		interp, _ := argString(h, args, 7)
		if err := validateGradientArgs(uColors, alphas, iRatios); err != nil {
			log.Component("timeline").Warn().Err(err).Str("clip", c.TargetPath()).
				Msg("beginGradientFill: no fill applied")
		}
		c.Draw().BeginGradientFill(radial, uColors, alphas, iRatios, argNumber(args, 5, 0), spread, interp)
		return value.Undefined, nil
	})
	h.defineMethod(proto, "moveTo", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if c, ok := thisClip(h, this); ok {
			c.Draw().MoveTo(argNumber(args, 0, 0), argNumber(args, 1, 0))
		}
		return value.Undefined, nil
	})
	h.defineMethod(proto, "lineTo", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if c, ok := thisClip(h, this); ok {
			c.Draw().LineTo(argNumber(args, 0, 0), argNumber(args, 1, 0))
		}
		return value.Undefined, nil
	})
	h.defineMethod(proto, "curveTo", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if c, ok := thisClip(h, this); ok {
			c.Draw().CurveTo(argNumber(args, 0, 0), argNumber(args, 1, 0), argNumber(args, 2, 0), argNumber(args, 3, 0))
		}
		return value.Undefined, nil
	})
	h.defineMethod(proto, "endFill", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if c, ok := thisClip(h, this); ok {
			c.Draw().EndFill()
		}
		return value.Undefined, nil
	})
	h.defineMethod(proto, "clear", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		if c, ok := thisClip(h, this); ok {
			c.Draw().Clear()
		}
		return value.Undefined, nil
	})

	return handle
}

func gotoFrame(h heap, this value.Value, args []value.Value, play bool) (value.Value, error) {
	c, ok := thisClip(h, this)
	if !ok {
		return value.Undefined, nil
	}
	if n, ok := argAt(args, 0).AsInteger(); ok {
		if target, ok := vm1.ClampGotoFrame(c, n); ok {
			c.SetFrame(target)
		}
	}
	if play {
		c.Play()
	} else {
		c.Stop()
	}
	return value.Undefined, nil
}

func numberArray(h heap, v value.Value) []float64 {
	handle, ok := v.AsObject()
	if !ok {
		return nil
	}
	o, ok := h.Resolve(handle)
	if !ok {
		return nil
	}
	n := o.Length()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		f, _ := o.ArrayElement(i).AsNumber()
		out[i] = f
	}
	return out
}

// boundsObject builds the {xMin,xMax,yMin,yMax} result getBounds/getRect
// return; without a real shape database (spec.md Non-goals: "parsing the
// container's binary shape/tag data"), bounds are the box from the
// clip's own (x, y) to (x+width, y+height); scale and rotation are not
// applied.
func boundsObject(h heap, this value.Value) (value.Value, error) {
	c, ok := thisClip(h, this)
	if !ok {
		return value.Undefined, nil
	}
	handle, obj := h.newPlainObject(gc.Handle{}, false)
	obj.DefineValue(h.interner.Intern("xMin"), value.Number(c.x), 0)
	obj.DefineValue(h.interner.Intern("xMax"), value.Number(c.x+c.width), 0)
	obj.DefineValue(h.interner.Intern("yMin"), value.Number(c.y), 0)
	obj.DefineValue(h.interner.Intern("yMax"), value.Number(c.y+c.height), 0)
	return value.Object(handle), nil
}

func transformPoint(h heap, this value.Value, args []value.Value, toGlobal bool) (value.Value, error) {
	c, ok := thisClip(h, this)
	if !ok {
		return value.Undefined, nil
	}
	ptHandle, ok := argAt(args, 0).AsObject()
	if !ok {
		return value.Undefined, nil
	}
	pt, ok := h.Resolve(ptHandle)
	if !ok {
		return value.Undefined, nil
	}
	xName, yName := h.interner.Intern("x"), h.interner.Intern("y")
	x, _ := pt.GetLocal(xName)
	y, _ := pt.GetLocal(yName)
	xn, _ := x.AsNumber()
	yn, _ := y.AsNumber()
	if toGlobal {
		xn, yn = c.localToGlobal(xn, yn)
	} else {
		xn, yn = c.globalToLocal(xn, yn)
	}
	pt.DefineValue(xName, value.Number(xn), 0)
	pt.DefineValue(yName, value.Number(yn), 0)
	return value.Undefined, nil
}

// newChildClip allocates a fresh Clip, registers it in the scene, binds
// a script object linked to proto, and inserts it into parent at the
// biased depth (spec.md §4.I "instantiate a new clip... insert it at the
// biased depth"). depth is the AS-visible depth supplied by script.
func newChildClip(h heap, parent *Clip, name string, depth int, proto gc.Handle) (*Clip, value.Value, error) {
	scene := parent.scene
	child := &Clip{
		scene:  scene,
		id:     scene.newNodeID(),
		name:   name,
		depth:  depth + DepthBias,
		hasDepth: true,
		visible: true,
		xscale:  100,
		yscale:  100,
		alpha:   100,
	}
	if existing, ok := parent.ChildAtDepth(child.depth); ok {
		parent.removeChild(existing)
		scene.unregister(existing.id)
	}
	scene.register(child)
	parent.addChild(name, child)

	val, err := NewScriptObject(h, h.arena, child, proto, true)
	if err != nil {
		return nil, value.Undefined, err
	}
	return child, val, nil
}

// hitTestPoint implements the (x, y[, shapeFlag]) form: x/y are in root
// coordinates and must be transformed to this clip's world bounds
// (spec.md §4.H).
func (c *Clip) hitTestPoint(x, y float64) bool {
	wx, wy := c.localToGlobal(0, 0)
	left, top := wx, wy
	right, bottom := wx+c.width*c.xscale/100, wy+c.height*c.yscale/100
	return x >= left && x <= right && y >= top && y <= bottom
}

// hitTestBounds implements the (other) bounding-box intersection form.
func (c *Clip) hitTestBounds(other *Clip) bool {
	ax0, ay0 := c.localToGlobal(0, 0)
	ax1, ay1 := ax0+c.width*c.xscale/100, ay0+c.height*c.yscale/100
	bx0, by0 := other.localToGlobal(0, 0)
	bx1, by1 := bx0+other.width*other.xscale/100, by0+other.height*other.yscale/100
	return ax0 <= bx1 && ax1 >= bx0 && ay0 <= by1 && ay1 >= by0
}

// localToGlobal/globalToLocal walk the parent chain applying each
// ancestor's translation and scale (rotation is not yet modeled, matching
// the Non-goal on full matrix/skew support -- spec.md §2).
func (c *Clip) localToGlobal(x, y float64) (float64, float64) {
	for cur := c; cur != nil; cur = cur.parent {
		x = x*cur.xscale/100 + cur.x
		y = y*cur.yscale/100 + cur.y
	}
	return x, y
}

func (c *Clip) globalToLocal(x, y float64) (float64, float64) {
	var chain []*Clip
	for cur := c; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		cur := chain[i]
		x = (x - cur.x) * 100 / nonZero(cur.xscale)
		y = (y - cur.y) * 100 / nonZero(cur.yscale)
	}
	return x, y
}

func nonZero(f float64) float64 {
	if f == 0 {
		return 1
	}
	return f
}

// unload detaches the clip from its parent and the scene registry; any
// script object still holding its (sceneID, nodeID) pair becomes a ghost
// (spec.md Design Notes, §3 Lifecycle).
func (c *Clip) unload() {
	if c.parent != nil {
		c.parent.removeChild(c)
	}
	c.scene.unregister(c.id)
	c.unloaded = true
}

// resort re-sorts a clip's children after an out-of-band depth mutation
// (swapDepths bypasses addChild's insertion sort).
func (c *Clip) resort() {
	sort.SliceStable(c.childOrder, func(i, j int) bool { return c.childOrder[i].depth < c.childOrder[j].depth })
}
