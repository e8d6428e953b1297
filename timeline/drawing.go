package timeline

// LineCap, LineJoint, GradientSpread and GradientInterpolation enumerate
// the string-valued drawing-API option arguments (spec.md §4.H lineStyle
// / beginGradientFill). Unrecognized strings fall back to the first
// (default) value, matching the original runtime's permissive enums.
type LineCap int

const (
	CapRound LineCap = iota
	CapNone
	CapSquare
)

type LineJoint int

const (
	JointRound LineJoint = iota
	JointBevel
	JointMiter
)

type ScaleMode int

const (
	ScaleNormal ScaleMode = iota
	ScaleNone
	ScaleVertical
	ScaleHorizontal
)

type GradientSpread int

const (
	SpreadPad GradientSpread = iota
	SpreadReflect
	SpreadRepeat
)

type GradientInterpolation int

const (
	InterpolationRGB GradientInterpolation = iota
	InterpolationLinearRGB
)

// LineStyle is the stroke state set by lineStyle, carried forward onto
// every subsequent path segment until changed or cleared.
type LineStyle struct {
	Width        int // clamped [0, 255]
	Color        uint32
	Alpha        float64 // clamped [0, 100]
	PixelHinting bool
	ScaleMode    ScaleMode
	Caps         LineCap
	Joints       LineJoint
	MiterLimit   int // clamped [0, 255]
	Set          bool
}

// GradientFill describes beginGradientFill's parameters (spec.md §4.H).
type GradientFill struct {
	Radial        bool
	Colors        []uint32
	Alphas        []float64
	Ratios        []int
	FocalPoint    float64
	Spread        GradientSpread
	Interpolation GradientInterpolation
}

// FillStyle is the current fill state: either a solid color/alpha from
// beginFill, or a gradient from beginGradientFill.
type FillStyle struct {
	Solid    bool
	Color    uint32
	Alpha    float64 // clamped [0, 100]
	Gradient *GradientFill
	Set      bool
}

// PathOp is a single accumulated drawing-API command (spec.md §4.I
// "accumulate into a per-clip vector-shape buffer that the renderer
// consumes").
type PathOp struct {
	Kind OpKind
	X, Y, ControlX, ControlY float64
	Line LineStyle
	Fill FillStyle
}

type OpKind int

const (
	OpMoveTo OpKind = iota
	OpLineTo
	OpCurveTo
	OpLineStyle
	OpBeginFill
	OpBeginGradientFill
	OpEndFill
	OpClear
)

// DrawBuffer accumulates one clip's drawing-API calls in issue order; the
// renderer (out of scope here, spec.md Non-goals) replays it.
type DrawBuffer struct {
	Ops []PathOp

	line LineStyle
	fill FillStyle
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func clampFloat(n, lo, hi float64) float64 {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func parseCap(s string) LineCap {
	switch s {
	case "square":
		return CapSquare
	case "none":
		return CapNone
	default:
		return CapRound
	}
}

func parseJoint(s string) LineJoint {
	switch s {
	case "bevel":
		return JointBevel
	case "miter":
		return JointMiter
	default:
		return JointRound
	}
}

func parseScaleMode(s string) ScaleMode {
	switch s {
	case "none":
		return ScaleNone
	case "vertical":
		return ScaleVertical
	case "horizontal":
		return ScaleHorizontal
	default:
		return ScaleNormal
	}
}

func parseSpread(s string) GradientSpread {
	switch s {
	case "reflect":
		return SpreadReflect
	case "repeat":
		return SpreadRepeat
	default:
		return SpreadPad
	}
}

func parseInterpolation(s string) GradientInterpolation {
	if s == "linearRGB" {
		return InterpolationLinearRGB
	}
	return InterpolationRGB
}

// LineStyle applies clip.lineStyle(width, color, alpha, pixelHinting,
// scaleMode, caps, joints, miterLimit) (spec.md §4.H clamps).
func (d *DrawBuffer) LineStyle(width int, color uint32, alpha float64, pixelHinting bool, scaleMode, caps, joints string, miterLimit int) {
	d.line = LineStyle{
		Width:        clampInt(width, 0, 255),
		Color:        color & 0xffffff,
		Alpha:        clampFloat(alpha, 0, 100),
		PixelHinting: pixelHinting,
		ScaleMode:    parseScaleMode(scaleMode),
		Caps:         parseCap(caps),
		Joints:       parseJoint(joints),
		MiterLimit:   clampInt(miterLimit, 0, 255),
		Set:          true,
	}
	d.Ops = append(d.Ops, PathOp{Kind: OpLineStyle, Line: d.line})
}

// BeginFill applies clip.beginFill(color, alpha).
func (d *DrawBuffer) BeginFill(color uint32, alpha float64) {
	d.fill = FillStyle{Solid: true, Color: color & 0xffffff, Alpha: clampFloat(alpha, 0, 100), Set: true}
	d.Ops = append(d.Ops, PathOp{Kind: OpBeginFill, Fill: d.fill})
}

// BeginGradientFill applies clip.beginGradientFill. It returns false (no
// fill applied, matching spec.md §8 scenario: "colors=[0xff0000,0x00ff00],
// alphas=[100], ratios=[0,255] -> warning, no fill applied") if the
// colors/alphas/ratios arrays are not all the same length.
func (d *DrawBuffer) BeginGradientFill(radial bool, colors []uint32, alphas []float64, ratios []int, focalPoint float64, spread, interpolation string) bool {
	if len(colors) != len(alphas) || len(colors) != len(ratios) {
		return false
	}
	clampedRatios := make([]int, len(ratios))
	for i, r := range ratios {
		clampedRatios[i] = clampInt(r, 0, 255)
	}
	clampedAlphas := make([]float64, len(alphas))
	for i, a := range alphas {
		clampedAlphas[i] = clampFloat(a, 0, 100)
	}
	g := &GradientFill{
		Radial:        radial,
		Colors:        colors,
		Alphas:        clampedAlphas,
		Ratios:        clampedRatios,
		FocalPoint:    focalPoint,
		Spread:        parseSpread(spread),
		Interpolation: parseInterpolation(interpolation),
	}
	d.fill = FillStyle{Gradient: g, Set: true}
	d.Ops = append(d.Ops, PathOp{Kind: OpBeginGradientFill, Fill: d.fill})
	return true
}

func (d *DrawBuffer) MoveTo(x, y float64) {
	d.Ops = append(d.Ops, PathOp{Kind: OpMoveTo, X: x, Y: y})
}

func (d *DrawBuffer) LineTo(x, y float64) {
	d.Ops = append(d.Ops, PathOp{Kind: OpLineTo, X: x, Y: y})
}

func (d *DrawBuffer) CurveTo(cx, cy, x, y float64) {
	d.Ops = append(d.Ops, PathOp{Kind: OpCurveTo, ControlX: cx, ControlY: cy, X: x, Y: y})
}

func (d *DrawBuffer) EndFill() {
	d.fill = FillStyle{}
	d.Ops = append(d.Ops, PathOp{Kind: OpEndFill})
}

// Clear discards the accumulated path and resets fill/line state
// (clip.clear()).
func (d *DrawBuffer) Clear() {
	d.Ops = d.Ops[:0]
	d.line = LineStyle{}
	d.fill = FillStyle{}
}
