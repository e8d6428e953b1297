package object

import "github.com/avmcore/avm/gc"

// Heap resolves object handles to their concrete *Object. Both VMs
// implement this over their own gc.Arena; the object package never
// touches gc.Arena directly so that prototype-chain walks (spec.md
// §4.C get/set) stay free of any VM-specific locking concerns.
type Heap interface {
	Resolve(h gc.Handle) (*Object, bool)
}
