package vm2

import (
	"context"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/value"
)

// hasNext implements the simple single-register hasnext (spec.md §4.G):
// returns the next 1-based enumerant index on the object, or 0 if
// exhausted.
func (i *Interpreter) hasNext(objVal value.Value, index int) (int, bool) {
	handle, ok := objVal.AsObject()
	if !ok {
		return 0, false
	}
	obj, ok := i.Heap.Resolve(handle)
	if !ok {
		return 0, false
	}
	keys := obj.GetKeys()
	if index >= len(keys) {
		return 0, false
	}
	return index + 1, true
}

// hasNext2 implements spec.md §4.G "hasnext2": given an (object_reg,
// index_reg), walk enumerants on the current object starting at
// index+1; if exhausted, drop to the prototype and start from 1;
// terminate when no prototype remains.
func (i *Interpreter) hasNext2(act *activation, objReg, indexReg int) (stillGoing bool, newObj gc.Handle, newIndex int) {
	objVal := act.getLocal(objReg)
	indexVal := act.getLocal(indexReg)
	idx32, _ := indexVal.AsInteger()
	index := int(idx32)

	cur, ok := objVal.AsObject()
	for ok {
		obj, found := i.Heap.Resolve(cur)
		if !found {
			return false, cur, 0
		}
		keys := obj.GetKeys()
		if index < len(keys) {
			return true, cur, index + 1
		}
		proto, has := obj.Proto()
		if !has {
			return false, cur, 0
		}
		cur = proto
		index = 0
		ok = true
	}
	return false, cur, 0
}

// nextName returns the enumerant name at the 1-based index (spec.md
// §4.G "nextname").
func (i *Interpreter) nextName(objVal value.Value, indexVal value.Value) value.Value {
	handle, ok := objVal.AsObject()
	if !ok {
		return value.Undefined
	}
	obj, ok := i.Heap.Resolve(handle)
	if !ok {
		return value.Undefined
	}
	idx32, _ := indexVal.AsInteger()
	idx := int(idx32) - 1
	keys := obj.GetKeys()
	if idx < 0 || idx >= len(keys) {
		return value.Undefined
	}
	return value.StringOf(keys[idx])
}

// nextValue returns the enumerant's value at the 1-based index (spec.md
// §4.G "nextvalue").
func (i *Interpreter) nextValue(ctx context.Context, objVal value.Value, indexVal value.Value) (value.Value, error) {
	handle, ok := objVal.AsObject()
	if !ok {
		return value.Undefined, nil
	}
	obj, ok := i.Heap.Resolve(handle)
	if !ok {
		return value.Undefined, nil
	}
	idx32, _ := indexVal.AsInteger()
	idx := int(idx32) - 1
	keys := obj.GetKeys()
	if idx < 0 || idx >= len(keys) {
		return value.Undefined, nil
	}
	return obj.Get(ctx, i.Heap, keys[idx], nil)
}
