package driver

import "context"

// Renderer is the opaque rendering backend (spec.md §6 "Backends
// consumed"). The core never rasterizes a pixel; it only tells the
// renderer what to draw.
type Renderer interface {
	RegisterShape(id int, ops []byte) error
	RegisterBitmap(id int, format string, data []byte) error
	RenderShape(id int) error
	RenderBitmap(id int) error
	DrawRect(x, y, w, h float64) error
}

// Audio is the opaque audio backend.
type Audio interface {
	RegisterSound(id int, data []byte) error
	StartSound(id int, loops int) error
	StopSound(id int) error
	RegisterStream(id int) error
	QueueStreamSamples(id int, samples []byte) error
	IsSoundPlaying(id int) bool
}

// Navigator is the opaque networking backend.
type Navigator interface {
	NavigateToURL(ctx context.Context, url, window, method string, vars map[string]string) error
	Fetch(ctx context.Context, url string) (<-chan []byte, <-chan error)
}

// Input is the opaque input backend.
type Input interface {
	IsKeyDown(code int) bool
	MousePosition() (x, y float64)
	MouseDown() bool
}

// Locale is the opaque locale/clock backend.
type Locale interface {
	Timezone() string
	Now() (unixMillis int64)
}

// Backends bundles every external collaborator the driver injects into
// the core (spec.md §6: "all injected; no global state"). A field left
// nil falls back to its Null implementation, so a Driver can be built
// incrementally (e.g. a headless test harness that only supplies Input).
type Backends struct {
	Renderer  Renderer
	Audio     Audio
	Navigator Navigator
	Input     Input
	Locale    Locale
}

// withDefaults fills any unset backend with a no-op stand-in, so driver
// code never has to nil-check before a call.
func (b Backends) withDefaults() Backends {
	if b.Renderer == nil {
		b.Renderer = NullRenderer{}
	}
	if b.Audio == nil {
		b.Audio = NullAudio{}
	}
	if b.Navigator == nil {
		b.Navigator = NullNavigator{}
	}
	if b.Input == nil {
		b.Input = NullInput{}
	}
	if b.Locale == nil {
		b.Locale = NullLocale{}
	}
	return b
}

// NullRenderer discards every draw call; rendering is out of scope
// (spec.md §1 Non-goals).
type NullRenderer struct{}

func (NullRenderer) RegisterShape(int, []byte) error        { return nil }
func (NullRenderer) RegisterBitmap(int, string, []byte) error { return nil }
func (NullRenderer) RenderShape(int) error                   { return nil }
func (NullRenderer) RenderBitmap(int) error                  { return nil }
func (NullRenderer) DrawRect(float64, float64, float64, float64) error { return nil }

// NullAudio discards every sound call; audio decoding is out of scope.
type NullAudio struct{}

func (NullAudio) RegisterSound(int, []byte) error     { return nil }
func (NullAudio) StartSound(int, int) error           { return nil }
func (NullAudio) StopSound(int) error                 { return nil }
func (NullAudio) RegisterStream(int) error            { return nil }
func (NullAudio) QueueStreamSamples(int, []byte) error { return nil }
func (NullAudio) IsSoundPlaying(int) bool             { return false }

// NullNavigator performs no networking: Fetch fails with an error and
// NavigateToURL does nothing and returns nil.
type NullNavigator struct{}

func (NullNavigator) NavigateToURL(context.Context, string, string, string, map[string]string) error {
	return nil
}
func (NullNavigator) Fetch(ctx context.Context, url string) (<-chan []byte, <-chan error) {
	errCh := make(chan error, 1)
	errCh <- errNavigatorUnavailable
	return nil, errCh
}

// NullInput reports no keys/buttons ever pressed.
type NullInput struct{}

func (NullInput) IsKeyDown(int) bool             { return false }
func (NullInput) MousePosition() (float64, float64) { return 0, 0 }
func (NullInput) MouseDown() bool                { return false }

// NullLocale reports UTC and a zero clock.
type NullLocale struct{}

func (NullLocale) Timezone() string    { return "UTC" }
func (NullLocale) Now() int64          { return 0 }

var errNavigatorUnavailable = navigatorUnavailableErr{}

type navigatorUnavailableErr struct{}

func (navigatorUnavailableErr) Error() string {
	return "driver: no Navigator backend configured"
}
