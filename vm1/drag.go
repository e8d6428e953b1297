package vm1

import "github.com/avmcore/avm/gc"

// StartDrag sets the single process-wide drag target (spec.md §4.F:
// "startDrag/stopDrag set/clear a single process-wide drag target; the
// target is addressed by variable path" -- path resolution to a handle
// is the caller's job, this just records the result).
func (i *Interpreter) StartDrag(target gc.Handle) {
	i.drag = dragState{active: true, target: target}
}

// StopDrag clears the drag target.
func (i *Interpreter) StopDrag() {
	i.drag = dragState{}
}

// DragTarget returns the active drag target and whether one is set.
func (i *Interpreter) DragTarget() (gc.Handle, bool) {
	return i.drag.target, i.drag.active
}

// totalFrames is the narrow surface Goto needs from a clip's timeline,
// implemented by package timeline.
type totalFrames interface {
	TotalFrames() int
}

// ClampGotoFrame implements spec.md §4.F "Goto semantics": "Frame numbers
// are clamped: <= 0 -> no-op (returns ok=false), > total -> last frame;
// wrap-around is 32-bit." frame is the already-coerced 32-bit wrapped
// value (value.ToInteger performs the wrap); clip provides the current
// total frame count.
func ClampGotoFrame(clip totalFrames, frame int32) (target int, ok bool) {
	if frame <= 0 {
		return 0, false
	}
	total := clip.TotalFrames()
	if int(frame) > total {
		return total, true
	}
	return int(frame), true
}
