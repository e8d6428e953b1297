// Package driver implements the external tick driver (spec.md §5): the
// single-threaded frame loop that advances the timeline, drains the
// action queue into VM1/VM2, pumps pending loaders, and yields for
// render. None of the backends it talks to are implemented here --
// they are injected (spec.md §6 "all injected; no global state").
package driver

import (
	"context"
	"net/url"
	"strings"

	"github.com/avmcore/avm/internal/log"
	"github.com/avmcore/avm/timeline"
	"github.com/hashicorp/go-multierror"
)

// FrameHandler is invoked once per playing clip on every tick, and
// supplies the frame-script action that the queue then drains (spec.md
// §5 step 1 "Advances the timeline; enqueues frame scripts"). The
// driver package has no bytecode of its own to run -- a real embedding
// wires this to the compiled DoAction/frame-script table for the loaded
// movie.
type FrameHandler func(ctx context.Context, clip *timeline.Clip) *Action

// pendingLoad is an in-flight Navigator.Fetch the driver is pumping
// (spec.md §5 step 3 "Pumps pending loaders... Loader completion
// callbacks enqueue further actions").
type pendingLoad struct {
	url        string
	data       <-chan []byte
	errCh      <-chan error
	onComplete func(data []byte, err error) *Action
}

// Driver runs one scene's tick loop. It owns the action queue and the
// set of pending loaders; the scene and the VMs that drain the queue
// are supplied by the embedder (cmd/avmplay, or a test harness).
type Driver struct {
	Scene    *timeline.Scene
	Queue    *ActionQueue
	Backends Backends
	Options  Options

	FrameHandler FrameHandler

	// LoadVariablesHook receives the decoded query-string key/value pairs
	// from a completed MovieClip.loadVariables fetch (spec.md §4.H); the
	// core has no script-object reference here (Driver only holds the
	// display tree, not the heap that created it), so applying the
	// decoded pairs as AS-visible properties is left to the embedder,
	// mirroring load_variables deferring to an external load_manager in
	// original_source/core/src/avm1/globals/movie_clip.rs. A nil hook
	// drops the decoded values.
	LoadVariablesHook func(clip *timeline.Clip, values map[string]string)

	loaders []*pendingLoad
	frame   int
}

// New builds a Driver bound to scene. Unset backends fall back to their
// no-op Null implementation.
func New(scene *timeline.Scene, backends Backends, opts ...Option) *Driver {
	o := defaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	return &Driver{
		Scene:    scene,
		Queue:    &ActionQueue{},
		Backends: backends.withDefaults(),
		Options:  o,
	}
}

// StartLoad registers a Navigator.Fetch as a pending loader; onComplete
// builds the action to enqueue once the fetch settles (spec.md §5
// "Loader completion callbacks enqueue further actions"). A plain http
// URL is rewritten to https first when the driver was configured with
// WithUpgradeToHTTPS (spec.md §6 "upgrade_to_https: rewrite http URLs at
// fetch time").
func (d *Driver) StartLoad(ctx context.Context, url string, onComplete func(data []byte, err error) *Action) {
	if d.Options.UpgradeToHTTPS() && strings.HasPrefix(url, "http://") {
		url = "https://" + strings.TrimPrefix(url, "http://")
	}
	data, errCh := d.Backends.Navigator.Fetch(ctx, url)
	d.loaders = append(d.loaders, &pendingLoad{url: url, data: data, errCh: errCh, onComplete: onComplete})
}

// Tick runs one full frame: advance, drain, pump, yield (spec.md §5).
// It returns an aggregated *multierror.Error if any action in this
// frame's drain failed; per spec.md §5 "Cancellation", a bounded-
// recursion StackOverflow from one action does not stop the rest of
// the queue from draining -- only a VM's own invocation unwinds.
func (d *Driver) Tick(ctx context.Context) error {
	logger := log.Component("driver")
	d.frame++

	d.advanceTimeline(ctx)
	err := d.drainActions(ctx)
	d.pumpLoaders(ctx)
	d.pumpMovieLoads(ctx)
	d.yield(ctx)

	if err != nil {
		logger.Warn().Err(err).Int("frame", d.frame).Msg("frame completed with action errors")
	}
	return err
}

// advanceTimeline walks every registered clip and, for those currently
// playing, advances the playhead one frame (wrapping to 1 past the
// last) and enqueues its frame script via FrameHandler (spec.md §5 step
// 1). A clip with no FrameHandler result (nil, or no handler set) is
// skipped -- not every clip has a compiled frame script.
func (d *Driver) advanceTimeline(ctx context.Context) {
	for _, clip := range d.Scene.Clips() {
		if !clip.IsPlaying() {
			continue
		}
		next := clip.CurrentFrame() + 1
		if total := clip.TotalFrames(); total > 0 && next > total {
			next = 1
		}
		clip.SetFrame(next)
		if d.FrameHandler == nil {
			continue
		}
		if action := d.FrameHandler(ctx, clip); action != nil {
			d.Queue.Push(*action)
		}
	}
}

// drainActions pops every action queued so far and runs each to
// completion, aggregating failures rather than stopping at the first
// one (spec.md §5 step 2, and the go-multierror dependency this driver
// exists to exercise: "aggregating non-fatal action-queue errors across
// a frame drain").
func (d *Driver) drainActions(ctx context.Context) error {
	var result *multierror.Error
	for _, action := range d.Queue.drain() {
		if _, err := action.Run(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// pumpLoaders checks every in-flight fetch for completion without
// blocking, enqueuing the resulting action and dropping the loader from
// the pending set once it settles (spec.md §5 step 3).
func (d *Driver) pumpLoaders(ctx context.Context) {
	if len(d.loaders) == 0 {
		return
	}
	remaining := d.loaders[:0]
	for _, l := range d.loaders {
		select {
		case data := <-l.data:
			if action := l.onComplete(data, nil); action != nil {
				d.Queue.Push(*action)
			}
			continue
		case err := <-l.errCh:
			if d.Options.WarnOnUnsupportedContent() {
				log.Component("driver").Warn().Err(err).Str("url", l.url).Msg("loader failed")
			}
			if action := l.onComplete(nil, err); action != nil {
				d.Queue.Push(*action)
			}
			continue
		default:
			remaining = append(remaining, l)
		}
	}
	d.loaders = remaining
}

// pumpMovieLoads starts a Navigator.Fetch for every clip carrying a
// fresh MovieClip.loadMovie/loadVariables request (spec.md §4.H), one
// StartLoad per clip per tick. loadMovie completion updates the clip's
// _url; loadVariables completion decodes the response as a URL-encoded
// query string (the conventional LoadVars wire format) and forwards it
// to LoadVariablesHook.
func (d *Driver) pumpMovieLoads(ctx context.Context) {
	for _, clip := range d.Scene.Clips() {
		kind, loadURL, ok := clip.TakePendingLoad()
		if !ok {
			continue
		}
		clip := clip
		switch kind {
		case "movie":
			d.StartLoad(ctx, loadURL, func(data []byte, err error) *Action {
				if err == nil {
					clip.SetURL(loadURL)
				}
				return nil
			})
		case "variables":
			d.StartLoad(ctx, loadURL, func(data []byte, err error) *Action {
				if err != nil || d.LoadVariablesHook == nil {
					return nil
				}
				values, parseErr := url.ParseQuery(string(data))
				if parseErr != nil {
					return nil
				}
				decoded := make(map[string]string, len(values))
				for k, v := range values {
					if len(v) > 0 {
						decoded[k] = v[0]
					}
				}
				d.LoadVariablesHook(clip, decoded)
				return nil
			})
		}
	}
}

// yield is the render hand-off point (spec.md §5 step 4): the core
// takes no action here beyond logging, since rendering is an external
// collaborator (spec.md §1 Non-goals).
func (d *Driver) yield(ctx context.Context) {
	log.Component("driver").Debug().Int("frame", d.frame).Msg("yield for render")
}
