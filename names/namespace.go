// Package names implements spec.md §4.D: VM1's case-sensitive-with-
// fallback string names, and VM2's qualified names / multinames /
// namespace sets. Namespace kinds are enumerated per the GLOSSARY and
// grounded on _examples/original_source/core/src/avm2/names.rs, which
// the distilled spec.md only sketches as "public/private/...".
package names

import "github.com/avmcore/avm/value"

// NamespaceKind is one of the seven kinds a VM2 namespace may carry.
type NamespaceKind uint8

const (
	Public NamespaceKind = iota
	Private
	Protected
	Explicit
	StaticProtected
	Internal
	Any
)

func (k NamespaceKind) String() string {
	switch k {
	case Public:
		return "public"
	case Private:
		return "private"
	case Protected:
		return "protected"
	case Explicit:
		return "explicit"
	case StaticProtected:
		return "static-protected"
	case Internal:
		return "internal"
	case Any:
		return "any"
	default:
		return "unknown"
	}
}

// Namespace qualifies a VM2 name. Two namespaces are the same namespace
// iff both Kind and URI match; Any matches every namespace during
// resolution but is never itself the namespace of a declared trait.
type Namespace struct {
	Kind NamespaceKind
	URI  value.StringHandle
}

// Matches reports whether a trait declared in ns would be visible to a
// lookup qualified by the receiver (used for Any namespaces and for
// StaticProtected vs Protected compatibility during super dispatch).
func (n Namespace) Matches(declared Namespace) bool {
	if n.Kind == Any {
		return true
	}
	if n.Kind == StaticProtected && declared.Kind == Protected {
		return n.URI == declared.URI
	}
	return n.Kind == declared.Kind && n.URI == declared.URI
}

// NamespaceSet is an ordered set of namespaces open at some scope, used
// both as the lookup context for findproperty/findpropstrict and as the
// namespace-set half of a Multiname.
type NamespaceSet []Namespace

// Contains reports whether any namespace in the set matches declared.
func (s NamespaceSet) Contains(declared Namespace) bool {
	for _, ns := range s {
		if ns.Matches(declared) {
			return true
		}
	}
	return false
}

// Multiname combines a local name (absent meaning "any") with a
// namespace set (spec.md GLOSSARY).
type Multiname struct {
	Name    value.StringHandle
	HasName bool
	NSSet   NamespaceSet
}

// TraitLookup is implemented by the VM2 class/trait table. ResolveMultiname
// (spec.md §4.C / §4.D) walks declared traits, matching local name first
// then namespace, with ties broken by namespace-set order.
type TraitLookup interface {
	// TraitCandidates returns every namespace a trait with the given local
	// name is declared under (empty if there is none), without namespace
	// filtering -- used to iterate candidates.
	TraitCandidates(localName value.StringHandle) []Namespace
}

// QName is a fully-resolved qualified name: a namespace plus a local
// name, the result of a successful ResolveMultiname.
type QName struct {
	NS   Namespace
	Name value.StringHandle
}

// ResolveMultiname implements spec.md §4.D: "examine trait table for a
// name whose namespace matches any in mn.namespaces; returns a qualified
// name or not-found." Ties are broken by namespace-set order, i.e. the
// first namespace in mn.NSSet that has a matching candidate wins.
func ResolveMultiname(lookup TraitLookup, mn Multiname) (QName, bool) {
	if !mn.HasName {
		return QName{}, false
	}
	candidates := lookup.TraitCandidates(mn.Name)
	if len(candidates) == 0 {
		return QName{}, false
	}
	for _, ns := range mn.NSSet {
		for _, declared := range candidates {
			if ns.Matches(declared) {
				return QName{NS: declared, Name: mn.Name}, true
			}
		}
	}
	return QName{}, false
}
