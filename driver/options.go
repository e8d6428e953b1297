package driver

// Letterbox selects when the renderer backend should letterbox content
// on an aspect-ratio mismatch (spec.md §6 "Configuration").
type Letterbox int

const (
	LetterboxNever Letterbox = iota
	LetterboxFullscreen
	LetterboxOn
)

// Options holds the recognized configuration surface from spec.md §6,
// populated via functional options in the style of the teacher's
// vm.Option/vm/options.go.
type Options struct {
	letterbox                Letterbox
	upgradeToHTTPS           bool
	warnOnUnsupportedContent bool
}

// Option configures a Driver at construction time.
type Option func(*Options)

func defaultOptions() Options {
	return Options{letterbox: LetterboxNever}
}

// WithLetterbox sets when to letterbox on an aspect-ratio mismatch.
func WithLetterbox(mode Letterbox) Option {
	return func(o *Options) { o.letterbox = mode }
}

// WithUpgradeToHTTPS rewrites http URLs to https at fetch time.
func WithUpgradeToHTTPS(enabled bool) Option {
	return func(o *Options) { o.upgradeToHTTPS = enabled }
}

// WithWarnOnUnsupportedContent emits user-visible warnings for tags or
// features the core recognizes but does not implement.
func WithWarnOnUnsupportedContent(enabled bool) Option {
	return func(o *Options) { o.warnOnUnsupportedContent = enabled }
}

// Letterbox reports the configured letterbox mode.
func (o Options) Letterbox() Letterbox { return o.letterbox }

// UpgradeToHTTPS reports whether http URLs should be rewritten at fetch time.
func (o Options) UpgradeToHTTPS() bool { return o.upgradeToHTTPS }

// WarnOnUnsupportedContent reports whether unsupported-content warnings
// are enabled.
func (o Options) WarnOnUnsupportedContent() bool { return o.warnOnUnsupportedContent }
