package driver

import (
	"context"
	"sync"

	"github.com/avmcore/avm/value"
)

// ActionKind labels an enqueued action for ordering and diagnostics
// (spec.md §5 "Timeline events fire in this order per clip: child frame
// actions, parent frame actions, enterFrame listeners, clip actions,
// then bytecode scripts").
type ActionKind int

const (
	ActionFrameScript ActionKind = iota
	ActionEnterFrame
	ActionClipEvent
	ActionBytecode
	ActionLoaderCallback
)

// Action is one unit of deferred work the queue owns until drained. Run
// is invoked with no VM preemption (spec.md §5 "Each invocation runs to
// completion").
type Action struct {
	Kind   ActionKind
	Clip   string // TargetPath, for diagnostics only
	Run    func(ctx context.Context) (value.Value, error)
}

// ActionQueue is the driver-owned FIFO both VMs append to (spec.md §5
// "Shared resources: Action queue... VMs push by appending at the
// tail"). It is safe for concurrent Push from native built-ins that run
// during a drain (e.g. a getter that itself enqueues an onLoad callback).
type ActionQueue struct {
	mu      sync.Mutex
	pending []Action
}

// Push appends action to the tail of the queue.
func (q *ActionQueue) Push(a Action) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, a)
}

// Len reports the number of actions currently queued.
func (q *ActionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// drain removes and returns every action queued so far. Actions pushed
// by a Run callback during this drain are picked up by the *next*
// drain call, not this one -- this keeps a single frame's drain from
// running forever if a script enqueues itself in a loop.
func (q *ActionQueue) drain() []Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}
