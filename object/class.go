package object

import (
	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/names"
	"github.com/avmcore/avm/value"
)

// TraitKind is the declared-member kind from the GLOSSARY: method, slot,
// const, getter, setter, or nested class.
type TraitKind uint8

const (
	TraitSlot TraitKind = iota
	TraitConst
	TraitMethod
	TraitGetter
	TraitSetter
	TraitClass
)

// Trait is one class-declared member (spec.md §4.G "Construction of
// classes"): a name qualified by namespace, a kind, and (for slots) a
// fixed storage index used by getslot/setslot.
type Trait struct {
	NS        names.Namespace
	Name      value.StringHandle
	Kind      TraitKind
	SlotIndex int         // meaningful for TraitSlot/TraitConst
	Value     value.Value // method/class Value, or const's fixed value
}

// Class is the VM2 construction-time descriptor produced by `newclass`
// (spec.md §4.G): a base class link, the instance trait table, and the
// static trait table populated by running the class initializer.
type Class struct {
	Name           value.StringHandle
	Base           gc.Handle
	HasBase        bool
	Sealed         bool // !Dynamic: names outside declared traits cannot be added
	InstanceTraits []Trait
	StaticTraits   []Trait
	// Prototype is the handle of the object implementing instance
	// traits for VM1-style prototype-chain compatibility (display
	// classes expose both models).
	Prototype gc.Handle
}

// TraitCandidates implements names.TraitLookup by scanning this class's
// own instance traits (spec.md §4.C resolve_multiname). It does not walk
// Base -- the caller (ResolveMultinameInClass below) handles inheritance
// so that shadowing is explicit and testable on its own.
func (c *Class) TraitCandidates(localName value.StringHandle) []names.Namespace {
	var out []names.Namespace
	for _, tr := range c.InstanceTraits {
		if tr.Name == localName {
			out = append(out, tr.NS)
		}
	}
	return out
}

func (c *Class) findTrait(traits []Trait, qn names.QName) (Trait, bool) {
	for _, tr := range traits {
		if tr.Name == qn.Name && tr.NS == qn.NS {
			return tr, true
		}
	}
	return Trait{}, false
}

// FindInstanceTrait returns the declared instance trait for a resolved
// qualified name.
func (c *Class) FindInstanceTrait(qn names.QName) (Trait, bool) {
	return c.findTrait(c.InstanceTraits, qn)
}

// FindStaticTrait returns the declared static trait for a resolved
// qualified name.
func (c *Class) FindStaticTrait(qn names.QName) (Trait, bool) {
	return c.findTrait(c.StaticTraits, qn)
}

// ResolveMultinameInClass walks the class hierarchy outward (this class,
// then Base, then Base's Base, ...) using heap to dereference Base
// handles, returning the first class whose own traits resolve mn.
func ResolveMultinameInClass(heap Heap, c *Class, mn names.Multiname) (*Class, names.QName, bool) {
	for cur := c; cur != nil; {
		if qn, ok := names.ResolveMultiname(cur, mn); ok {
			return cur, qn, true
		}
		if !cur.HasBase {
			break
		}
		baseObj, ok := heap.Resolve(cur.Base)
		if !ok || baseObj.class == nil {
			break
		}
		cur = baseObj.class
	}
	return nil, names.QName{}, false
}
