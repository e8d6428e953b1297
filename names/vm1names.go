package names

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// foldCaser implements the teacher's golang.org/x/text dependency for the
// VM1 case-insensitive fallback (spec.md §4.D / Design Notes: "Maintain a
// secondary map keyed by lower-cased names; lookup policy: exact first,
// then lowercase fallback when SWF < 7").
var foldCaser = cases.Fold()

// Fold returns the case-folded form of s used as the secondary lookup
// key. cases.Fold (rather than strings.ToLower) matches Unicode casing
// rules beyond ASCII, which the teacher's dependency exists to provide.
func Fold(s string) string {
	return foldCaser.String(s)
}

// CaseSensitive reports whether VM1 property lookups should skip the
// fallback table entirely for the given SWF version (spec.md §4.D:
// "case-sensitive iff the SWF version >= 7").
func CaseSensitive(swfVersion int) bool {
	return swfVersion >= 7
}

// LanguageTag is exported for callers that want to build their own
// cases.Caser variants (e.g. a locale-specific Date built-in); it is the
// neutral tag used by this package's default folder.
var LanguageTag = language.Und

// TokenizePath splits a VM1 variable path on both '.' and '/' (spec.md
// §4.D: "Tokenize on . and /. A leading / anchors at root. Colon
// separates the terminal property name."). It returns the path segments,
// whether the path was root-anchored, and the terminal property name: the
// text after the colon, or the whole path when it is a bare name with no
// colon, '.', '/' or leading '/'. Any other path without a colon has
// terminal "".
func TokenizePath(path string) (segments []string, rootAnchored bool, terminal string) {
	if strings.HasPrefix(path, "/") {
		rootAnchored = true
		path = path[1:]
	}
	if idx := strings.LastIndex(path, ":"); idx >= 0 {
		terminal = path[idx+1:]
		path = path[:idx]
	} else if !rootAnchored && !strings.ContainsAny(path, "./") {
		return nil, false, path
	}
	if path == "" {
		return nil, rootAnchored, terminal
	}
	raw := strings.FieldsFunc(path, func(r rune) bool { return r == '.' || r == '/' })
	return raw, rootAnchored, terminal
}
