// Package object implements the heap object model shared by both VMs
// (spec.md §3, §4.C): a common header (prototype/class, property table,
// interface list, array payload, watcher table) plus a variant payload
// discriminating the object's kind.
package object

import (
	"context"

	"github.com/avmcore/avm/errz"
	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/names"
	"github.com/avmcore/avm/value"
)

// Object is one heap cell (spec.md §3). It implements gc.Traceable so
// the arena can walk it during collection.
type Object struct {
	proto    gc.Handle
	hasProto bool

	// selfHandle is the handle this object was allocated at. It lets
	// accessor/watcher invocations pass the correct `this` (spec.md
	// §4.C: "invokes the setter on this = receiver"). Set via BindSelf
	// immediately after allocation.
	selfHandle gc.Handle

	class *Class // VM2 only; nil for VM1 objects and VM2 plain objects

	props    *PropertyTable
	watchers *WatcherTable // VM1 only; lazily created on first watch()
	array    *ArrayPayload // lazily created on first array-style access

	interfaces []gc.Handle // VM2 conformance list

	kind    VariantKind
	payload interface{} // one of the *Payload types in variant.go, or nil for VariantPlain
}

// New creates a plain object with no prototype.
func New() *Object {
	return &Object{props: NewPropertyTable(), kind: VariantPlain}
}

// NewWithProto creates a plain object linked to the given prototype.
func NewWithProto(proto gc.Handle) *Object {
	o := New()
	o.proto = proto
	o.hasProto = true
	return o
}

// NewVariant creates an object of the given variant kind with payload.
func NewVariant(kind VariantKind, payload interface{}) *Object {
	o := New()
	o.kind = kind
	o.payload = payload
	return o
}

func (o *Object) Kind() VariantKind    { return o.kind }
func (o *Object) Payload() interface{} { return o.payload }

// Class returns the VM2 class descriptor, if this object is a class
// instance (or is itself a Class object).
func (o *Object) Class() *Class { return o.class }

// SetClass attaches a VM2 class descriptor.
func (o *Object) SetClass(c *Class) { o.class = c }

// BindSelf records the handle this object was allocated at; both VMs
// call this right after MutationContext.New.
func (o *Object) BindSelf(h gc.Handle) { o.selfHandle = h }

// Trace implements gc.Traceable.
func (o *Object) Trace(visit func(gc.Handle)) {
	if o.hasProto {
		visit(o.proto)
	}
	if o.class != nil && o.class.HasBase {
		visit(o.class.Base)
	}
	for _, h := range o.interfaces {
		visit(h)
	}
	if o.array != nil {
		for _, v := range o.array.Values() {
			if h, ok := v.AsObject(); ok {
				visit(h)
			}
		}
	}
	visitValue := func(v value.Value) {
		if h, ok := v.AsObject(); ok {
			visit(h)
		}
	}
	for _, name := range o.props.AllNames() {
		e := o.props.entries[name]
		if e == nil {
			continue
		}
		switch e.kind {
		case entryData:
			visitValue(e.value)
		case entryAccessor:
			visitValue(e.getter)
			if e.hasSet {
				visitValue(e.setter)
			}
		}
	}
	if o.watchers != nil {
		for _, w := range o.watchers.watchers {
			visitValue(w.Callback)
			visitValue(w.UserData)
		}
	}
	switch p := o.payload.(type) {
	case *FunctionPayload:
		if p.TraceExtra != nil {
			p.TraceExtra(visit)
		}
	case *SoundPayload:
		if p.HasClip {
			visit(p.OwningClip)
		}
	case *XMLNodePayload:
		if p.HasParent {
			visit(p.Parent)
		}
		for _, c := range p.Children {
			visit(c)
		}
		visit(p.Document)
		visitValue(p.NodeValue)
	case *XMLIDMapPayload:
		visit(p.Document)
		for _, h := range p.ByID {
			visit(h)
		}
	case *ButtonPayload:
		if p.HasUp {
			visit(p.UpState)
		}
		if p.HasOver {
			visit(p.OverState)
		}
		if p.HasDown {
			visit(p.DownState)
		}
		if p.HasHitTest {
			visit(p.HitTestState)
		}
		if p.HasMenu {
			visit(p.ContextMenu)
		}
	}
}

// ---- spec.md §4.C operations ----

// typeErr builds a Type-kind error the way every operation below does on
// a malformed receiver.
func typeErr(format string, args ...interface{}) error {
	return errz.New(errz.Type, errz.SourceLocation{}, nil, format, args...)
}

// GetLocal reads an own property only (spec.md §4.C get_local).
func (o *Object) GetLocal(name value.StringHandle) (value.Value, bool) {
	if o.kind == VariantXMLIDMap {
		if p, ok := o.payload.(*XMLIDMapPayload); ok {
			if h, found := p.ByID[name]; found {
				return value.Object(h), true
			}
		}
	}
	return o.props.GetLocal(name)
}

// foldFallback returns the case-insensitive fallback name for a VM1
// lookup, or false if the fold function has nothing for it.
func (o *Object) foldFallback(fold func(value.StringHandle) (value.StringHandle, bool), name value.StringHandle) (value.StringHandle, bool) {
	if fold == nil {
		return name, false
	}
	return fold(name)
}

// StringLookup is implemented by heaps that can turn a StringHandle back
// into a Go string, used only for forwarding well-known display-object
// property names (spec.md §4.C variant override).
type StringLookup interface {
	LookupString(value.StringHandle) string
}

// Get walks the prototype chain (spec.md §4.C get): own property first,
// then each prototype, invoking an accessor's getter if found, and
// returning undefined (not an error) if nothing resolves. fold implements
// VM1's case-insensitive fallback; VM2 callers pass fold=nil since
// multiname resolution already handles their own case sensitivity via
// exact namespace match.
func (o *Object) Get(ctx context.Context, heap Heap, name value.StringHandle, fold func(value.StringHandle) (value.StringHandle, bool)) (value.Value, error) {
	cur := o
	depth := 0
	const maxChainDepth = 256 // spec.md invariant 2: lookup bounds the walk
	for cur != nil && depth < maxChainDepth {
		depth++
		if v, found, accessorErr := cur.getOwnOrAccessor(ctx, name); found || accessorErr != nil {
			return v, accessorErr
		}
		if fold != nil {
			if alt, ok := cur.foldFallback(fold, name); ok {
				if v, found, accessorErr := cur.getOwnOrAccessor(ctx, alt); found || accessorErr != nil {
					return v, accessorErr
				}
			}
		}
		if cur.kind == VariantDisplay {
			if p, ok := cur.payload.(*DisplayPayload); ok {
				if node, live := p.Resolve(); live {
					if sl, ok := heap.(StringLookup); ok {
						if v, found := node.WellKnownGet(sl.LookupString(name)); found {
							return v, nil
						}
					}
				}
			}
		}
		if !cur.hasProto {
			break
		}
		next, ok := heap.Resolve(cur.proto)
		if !ok {
			break
		}
		cur = next
	}
	return value.Undefined, nil
}

func (o *Object) getOwnOrAccessor(ctx context.Context, name value.StringHandle) (value.Value, bool, error) {
	e, ok := o.props.get(name)
	if !ok {
		if o.kind == VariantXMLIDMap {
			if p, ok := o.payload.(*XMLIDMapPayload); ok {
				if h, found := p.ByID[name]; found {
					return value.Object(h), true, nil
				}
			}
		}
		return value.Undefined, false, nil
	}
	if e.kind == entryData {
		return e.value, true, nil
	}
	invoke, hasInvoke := GetInvoke(ctx)
	if !hasInvoke {
		return value.Undefined, true, typeErr("no invocation context available for accessor getter")
	}
	result, err := invoke(ctx, e.getter, value.Object(o.selfHandle), nil)
	return result, true, err
}

// Set implements spec.md §4.C set: if an ancestor has a setter, invoke it
// with this=receiver; else write to the receiver's own table, honoring
// ReadOnly and watchers.
func (o *Object) Set(ctx context.Context, heap Heap, name value.StringHandle, v value.Value, fold func(value.StringHandle) (value.StringHandle, bool)) error {
	if o.kind == VariantDisplay {
		if p, ok := o.payload.(*DisplayPayload); ok {
			if node, live := p.Resolve(); live {
				if sl, ok := heap.(StringLookup); ok {
					if node.WellKnownSet(sl.LookupString(name), v) {
						return nil
					}
				}
			}
		}
	}

	if o.watchers != nil {
		if w, found := o.watchers.Get(name); found {
			invoke, ok := GetInvoke(ctx)
			if !ok {
				return typeErr("no invocation context available for watcher")
			}
			oldVal, _ := o.props.GetLocal(name)
			result, err := invoke(ctx, w.Callback, value.Object(o.selfHandle), []value.Value{value.StringOf(name), oldVal, v, w.UserData})
			if err != nil {
				return err
			}
			v = result
		}
	}

	// Ancestor setter search.
	cur := o
	for cur != nil {
		if e, ok := cur.props.get(name); ok && e.kind == entryAccessor {
			if !e.hasSet {
				return nil // accessor with no setter: silent no-op
			}
			invoke, ok := GetInvoke(ctx)
			if !ok {
				return typeErr("no invocation context available for accessor setter")
			}
			_, err := invoke(ctx, e.setter, value.Object(o.selfHandle), []value.Value{v})
			return err
		}
		if !cur.hasProto {
			break
		}
		next, ok := heap.Resolve(cur.proto)
		if !ok {
			break
		}
		cur = next
	}

	if o.class != nil && o.class.Sealed && !o.props.HasOwn(name) {
		// spec.md §3 invariant 5: sealed classes reject dynamic adds.
		return typeErr("cannot create property on a sealed class instance")
	}

	o.props.SetLocalData(name, v)
	return nil
}

// DefineValue implements spec.md §4.C define_value: unconditional
// create/overwrite with attributes.
func (o *Object) DefineValue(name value.StringHandle, v value.Value, attrs Attr) {
	o.props.DefineValue(name, v, attrs)
}

// AddProperty implements spec.md §4.C add_property: accessor installation.
func (o *Object) AddProperty(name value.StringHandle, getter value.Value, setter value.Value, hasSetter bool, attrs Attr) {
	o.props.AddProperty(name, getter, setter, hasSetter, attrs)
}

// SetWatcher installs a VM1 write interceptor (spec.md §4.C set_watcher).
func (o *Object) SetWatcher(name value.StringHandle, cb value.Value, userData value.Value) {
	if o.watchers == nil {
		o.watchers = NewWatcherTable()
	}
	o.watchers.Set(name, cb, userData)
}

// RemoveWatcher uninstalls a watcher (spec.md §4.C remove_watcher).
func (o *Object) RemoveWatcher(name value.StringHandle) bool {
	if o.watchers == nil {
		return false
	}
	return o.watchers.Remove(name)
}

// Delete implements spec.md §4.C delete: respects DontDelete.
func (o *Object) Delete(name value.StringHandle) bool {
	if o.kind == VariantXMLIDMap {
		return false // ID-map entries are derived, not independently deletable
	}
	return o.props.Delete(name)
}

// HasProperty walks the prototype chain testing for presence (spec.md
// §4.C has_property).
func (o *Object) HasProperty(heap Heap, name value.StringHandle) bool {
	cur := o
	depth := 0
	for cur != nil && depth < 256 {
		depth++
		if cur.HasOwnProperty(name) {
			return true
		}
		if !cur.hasProto {
			return false
		}
		next, ok := heap.Resolve(cur.proto)
		if !ok {
			return false
		}
		cur = next
	}
	return false
}

// HasOwnProperty implements spec.md §4.C has_own_property. The XML
// ID-map variant "accepts any node ID" in addition to its base keys.
func (o *Object) HasOwnProperty(name value.StringHandle) bool {
	if o.props.HasOwn(name) {
		return true
	}
	if o.kind == VariantXMLIDMap {
		if p, ok := o.payload.(*XMLIDMapPayload); ok {
			_, found := p.ByID[name]
			return found
		}
	}
	return false
}

// IsEnumerable implements spec.md §4.C is_enumerable.
func (o *Object) IsEnumerable(name value.StringHandle) bool {
	return o.props.IsEnumerable(name)
}

// GetKeys implements spec.md §4.C get_keys: enumerable own names in
// stable insertion order. The XML ID-map variant unions the document's
// node IDs with its base keys.
func (o *Object) GetKeys() []value.StringHandle {
	keys := o.props.Keys()
	if o.kind == VariantXMLIDMap {
		if p, ok := o.payload.(*XMLIDMapPayload); ok {
			for id := range p.ByID {
				keys = append(keys, id)
			}
		}
	}
	return keys
}

// TypeOf implements spec.md §4.C type_of.
func (o *Object) TypeOf() string {
	switch o.kind {
	case VariantFunction:
		return "function"
	case VariantDisplay:
		return "movieclip"
	default:
		return "object"
	}
}

// Proto returns the prototype link and whether one is set (spec.md §4.C
// proto).
func (o *Object) Proto() (gc.Handle, bool) { return o.proto, o.hasProto }

// SetProto implements spec.md §4.C set_proto, forbidding cycles (spec.md
// §3 invariant 2) by walking the candidate chain before linking.
func (o *Object) SetProto(heap Heap, self gc.Handle, proto gc.Handle) error {
	cur := proto
	depth := 0
	for depth < 256 {
		depth++
		if cur == self {
			return typeErr("cannot set prototype: would introduce a cycle")
		}
		next, ok := heap.Resolve(cur)
		if !ok || !next.hasProto {
			break
		}
		cur = next.proto
	}
	o.proto = proto
	o.hasProto = true
	return nil
}

// Interfaces implements spec.md §4.C interfaces (VM2 conformance list).
func (o *Object) Interfaces() []gc.Handle { return o.interfaces }

// SetInterfaces implements spec.md §4.C set_interfaces.
func (o *Object) SetInterfaces(ifaces []gc.Handle) { o.interfaces = ifaces }

// ---- array interface (spec.md §4.C, trivially defined on non-arrays) ----

func (o *Object) ensureArray() *ArrayPayload {
	if o.array == nil {
		o.array = newArrayPayload()
	}
	return o.array
}

func (o *Object) Length() int { return o.array.Length() }

func (o *Object) ArrayElement(i int) value.Value {
	v, _ := o.array.Element(i)
	return v
}

func (o *Object) SetArrayElement(i int, v value.Value) { o.ensureArray().SetElement(i, v) }

func (o *Object) DeleteArrayElement(i int) {
	if o.array != nil {
		o.array.DeleteElement(i)
	}
}

func (o *Object) SetLength(n int) { o.ensureArray().SetLength(n) }

// ---- call/construct (spec.md §4.C, dispatched through the owning VM) ----

// Call implements spec.md §4.C call: invokes the function's bytecode or
// native body via whichever VM owns the current activation.
func (o *Object) Call(ctx context.Context, self gc.Handle, this value.Value, args []value.Value) (value.Value, error) {
	if o.kind != VariantFunction {
		return value.Undefined, typeErr("%s is not callable", o.TypeOf())
	}
	payload := o.payload.(*FunctionPayload)
	if payload.Native != nil {
		return payload.Native(ctx, this, args)
	}
	invoke, ok := GetInvoke(ctx)
	if !ok {
		return value.Undefined, typeErr("no invocation context available to call function")
	}
	return invoke(ctx, value.Object(self), this, args)
}

// Construct implements spec.md §4.C construct: calls the function as a
// constructor. The owning VM's InvokeFunc distinguishes call vs.
// construct via the `this` convention documented on its own
// implementation (a freshly allocated instance is passed as `this`).
func (o *Object) Construct(ctx context.Context, self gc.Handle, newThis value.Value, args []value.Value) (value.Value, error) {
	return o.Call(ctx, self, newThis, args)
}

// ResolveMultiname implements spec.md §4.C resolve_multiname for VM2
// objects carrying a Class.
func (o *Object) ResolveMultiname(heap Heap, mn names.Multiname) (names.QName, bool) {
	if o.class == nil {
		return names.QName{}, false
	}
	_, qn, ok := ResolveMultinameInClass(heap, o.class, mn)
	return qn, ok
}
