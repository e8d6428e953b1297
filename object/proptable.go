package object

import (
	"github.com/avmcore/avm/value"
)

// entryKind discriminates a data slot from an accessor slot.
type entryKind uint8

const (
	entryData entryKind = iota
	entryAccessor
)

type propEntry struct {
	kind   entryKind
	value  value.Value // data slot
	getter value.Value // accessor slot (Function-kind Value, or Undefined for write-only... not used)
	setter value.Value // accessor slot; Undefined means no setter
	hasSet bool
	attrs  Attr
}

// PropertyTable is an insertion-ordered map from interned property name to
// a data-or-accessor entry (spec.md §3: "an ordered property table"). It
// backs every Object's own properties; GetKeys iterates entries in the
// order they were first defined, matching spec.md §4.C.
type PropertyTable struct {
	order   []value.StringHandle
	entries map[value.StringHandle]*propEntry
}

// NewPropertyTable creates an empty table.
func NewPropertyTable() *PropertyTable {
	return &PropertyTable{entries: make(map[value.StringHandle]*propEntry)}
}

func (t *PropertyTable) get(name value.StringHandle) (*propEntry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

func (t *PropertyTable) insertIfNew(name value.StringHandle) *propEntry {
	if e, ok := t.entries[name]; ok {
		return e
	}
	e := &propEntry{}
	t.entries[name] = e
	t.order = append(t.order, name)
	return e
}

// DefineValue unconditionally creates or overwrites a data property,
// per spec.md §4.C define_value: always succeeds regardless of ReadOnly.
func (t *PropertyTable) DefineValue(name value.StringHandle, v value.Value, attrs Attr) {
	e := t.insertIfNew(name)
	e.kind = entryData
	e.value = v
	e.attrs = attrs
}

// AddProperty installs an accessor entry (spec.md §4.C add_property).
func (t *PropertyTable) AddProperty(name value.StringHandle, getter value.Value, setter value.Value, hasSetter bool, attrs Attr) {
	e := t.insertIfNew(name)
	e.kind = entryAccessor
	e.getter = getter
	e.setter = setter
	e.hasSet = hasSetter
	e.attrs = attrs
}

// GetLocal reads an own data property, ignoring accessors (spec.md's
// get_local: "read own property only"). Callers that must also resolve
// accessors use Object.Get, which knows how to invoke the getter.
func (t *PropertyTable) GetLocal(name value.StringHandle) (value.Value, bool) {
	e, ok := t.get(name)
	if !ok {
		return value.Undefined, false
	}
	if e.kind == entryData {
		return e.value, true
	}
	return value.Undefined, false
}

// SetLocalData writes directly to the receiver's own table, respecting
// ReadOnly (spec.md invariant 3: "ReadOnly writes silently fail").
func (t *PropertyTable) SetLocalData(name value.StringHandle, v value.Value) {
	e, ok := t.get(name)
	if ok {
		if e.attrs.Has(ReadOnly) {
			return
		}
		if e.kind == entryData {
			e.value = v
			return
		}
		// Own entry is an accessor with no setter: per ECMA-style
		// semantics this is a silent no-op, matching ReadOnly handling.
		return
	}
	e = t.insertIfNew(name)
	e.kind = entryData
	e.value = v
}

// Delete removes a property unless DontDelete is set; returns whether it
// was removed (spec.md §4.C delete).
func (t *PropertyTable) Delete(name value.StringHandle) bool {
	e, ok := t.get(name)
	if !ok {
		return true
	}
	if e.attrs.Has(DontDelete) {
		return false
	}
	delete(t.entries, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// HasOwn reports whether name is present on the receiver's own table.
func (t *PropertyTable) HasOwn(name value.StringHandle) bool {
	_, ok := t.get(name)
	return ok
}

// IsEnumerable reports whether an own property lacks DontEnum.
func (t *PropertyTable) IsEnumerable(name value.StringHandle) bool {
	e, ok := t.get(name)
	if !ok {
		return false
	}
	return !e.attrs.Has(DontEnum)
}

// Keys returns own enumerable names in stable insertion order (spec.md
// §4.C get_keys).
func (t *PropertyTable) Keys() []value.StringHandle {
	var out []value.StringHandle
	for _, name := range t.order {
		if e := t.entries[name]; e != nil && !e.attrs.Has(DontEnum) {
			out = append(out, name)
		}
	}
	return out
}

// AllNames returns every own name regardless of enumerability, used by
// has_own_property-style checks and by variant overrides that union in
// extra names (e.g. the XML ID-map).
func (t *PropertyTable) AllNames() []value.StringHandle {
	out := make([]value.StringHandle, len(t.order))
	copy(out, t.order)
	return out
}
