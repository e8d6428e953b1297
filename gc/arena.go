// Package gc implements the tracing garbage collector shared by both VMs
// (spec.md §4.A). Every heap object is reachable from a single root
// supplied at arena construction; handles are copy-cheap tokens valid
// only while the arena is not collecting, matching the VM's frame/stack
// slot representation the way the teacher's object.Cell is a cheap
// pointer-sized token for a captured local.
package gc

import (
	"fmt"
	"sync"

	"github.com/avmcore/avm/internal/log"
)

// Handle is a copy-cheap token referencing a heap cell. The zero Handle
// is never valid; NewArena's root occupies generation 1, index 0.
type Handle struct {
	index int
	gen   uint32
}

// IsValid reports whether the handle was ever issued by an arena.
func (h Handle) IsValid() bool { return h.gen != 0 }

// Traceable is implemented by every value stored in the arena. Trace must
// call visit for every Handle directly reachable from the receiver;
// cycles are the collector's problem, not the traceable's.
type Traceable interface {
	Trace(visit func(Handle))
}

type cell struct {
	value Traceable
	gen   uint32
	live  bool
	// marked is cleared at the start of each collection and set when the
	// cell is visited from a root; cells still unmarked after the trace
	// are reclaimed.
	marked bool
}

// Arena is a tracing collector with rooted mutation. Reads of a cell's
// value are free; writes require holding a MutationContext, which is the
// arena's single write-authority at any moment (spec.md §4.A, §5).
type Arena struct {
	mu      sync.Mutex
	cells   []cell
	free    []int
	root    Handle
	collecting bool
	log     func() (fieldName string)
}

// NewArena creates an arena whose root handle is allocated from the given
// traceable root value (typically the global object / top-level scope).
func NewArena(root Traceable) *Arena {
	a := &Arena{}
	a.root = a.alloc(root)
	return a
}

// Root returns the arena's root handle.
func (a *Arena) Root() Handle { return a.root }

func (a *Arena) alloc(v Traceable) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.cells[idx].gen++
		a.cells[idx].value = v
		a.cells[idx].live = true
		return Handle{index: idx, gen: a.cells[idx].gen}
	}
	idx := len(a.cells)
	a.cells = append(a.cells, cell{value: v, gen: 1, live: true})
	return Handle{index: idx, gen: 1}
}

// MutationContext is the sole write-authority for an arena at any given
// moment. It is obtained via Arena.Mutate and must be released before the
// next collection can proceed (spec.md §4.A: "running a VM step is
// forbidden while a collection is in progress").
type MutationContext struct {
	arena *Arena
}

// Mutate runs fn with the arena's mutation context, or fails without
// calling fn while a collection is in progress. The arena lock guards
// each cell access (New, Get, Set) rather than being held across fn, so
// fn may allocate and read handles freely; a VM driver calling Mutate in
// a loop, releasing between bounded work slices, is how spec.md §4.A's
// "bounded work slice" requirement is met.
func (a *Arena) Mutate(fn func(mc *MutationContext) error) error {
	a.mu.Lock()
	collecting := a.collecting
	a.mu.Unlock()
	if collecting {
		return fmt.Errorf("gc: mutation attempted while a collection is in progress")
	}
	return fn(&MutationContext{arena: a})
}

// New allocates a traceable value and returns its handle. Must be called
// from within a MutationContext.
func (mc *MutationContext) New(v Traceable) Handle {
	return mc.arena.alloc(v)
}

// Get dereferences a handle. Reads never require a MutationContext.
func (a *Arena) Get(h Handle) (Traceable, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if h.index < 0 || h.index >= len(a.cells) {
		return nil, false
	}
	c := &a.cells[h.index]
	if !c.live || c.gen != h.gen {
		return nil, false
	}
	return c.value, true
}

// Set overwrites the value behind a handle. Requires the mutation
// context, matching spec.md's "write access to a cell requires the
// current mutation context; reads are free."
func (mc *MutationContext) Set(h Handle, v Traceable) error {
	a := mc.arena
	a.mu.Lock()
	defer a.mu.Unlock()
	if h.index < 0 || h.index >= len(a.cells) {
		return fmt.Errorf("gc: handle out of range")
	}
	c := &a.cells[h.index]
	if !c.live || c.gen != h.gen {
		return fmt.Errorf("gc: use of a stale or freed handle")
	}
	c.value = v
	return nil
}

// Stats summarizes one collection cycle, useful for tests and logging.
type Stats struct {
	Live      int
	Collected int
}

// Collect runs one stop-the-world trace-and-sweep cycle from the root.
// It holds the arena lock for the whole cycle, so allocations and reads
// made through a concurrent Mutate wait until it finishes. It is the
// concrete form of invariant 1 in spec.md §3: every object reachable
// from the root survives; everything else is reclaimed.
func (a *Arena) Collect() Stats {
	a.mu.Lock()
	a.collecting = true
	defer func() {
		a.collecting = false
		a.mu.Unlock()
	}()

	logger := log.Component("gc")

	for i := range a.cells {
		a.cells[i].marked = false
	}

	var stack []Handle
	stack = append(stack, a.root)
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h.index < 0 || h.index >= len(a.cells) {
			continue
		}
		c := &a.cells[h.index]
		if !c.live || c.gen != h.gen || c.marked {
			continue
		}
		c.marked = true
		if c.value != nil {
			c.value.Trace(func(child Handle) { stack = append(stack, child) })
		}
	}

	stats := Stats{}
	for i := range a.cells {
		c := &a.cells[i]
		if !c.live {
			continue
		}
		if c.marked {
			stats.Live++
			continue
		}
		c.live = false
		c.value = nil
		a.free = append(a.free, i)
		stats.Collected++
	}

	logger.Debug().Int("live", stats.Live).Int("collected", stats.Collected).Msg("collection complete")
	return stats
}
