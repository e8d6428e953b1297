package builtins

import (
	"context"

	"github.com/avmcore/avm/gc"
	"github.com/avmcore/avm/object"
	"github.com/avmcore/avm/value"
)

// xmlNodeTypeDocument is the DOM nodeType value for a document root
// (original_source/core/src/xml/mod.rs); element/text nodes use 1/3 as
// the ordinary DOM constants do.
const xmlNodeTypeDocument = 9

func (h heap) thisXMLNode(this value.Value) (*object.Object, gc.Handle, *object.XMLNodePayload, bool) {
	o, selfHandle, ok := thisObject(h, this)
	if !ok {
		return nil, gc.Handle{}, nil, false
	}
	p, ok := o.Payload().(*object.XMLNodePayload)
	if !ok {
		return nil, gc.Handle{}, nil, false
	}
	return o, selfHandle, p, ok
}

// installXMLNode builds the XMLNode intrinsic prototype (spec.md §4.H
// "XMLNode: tree navigation... appendChild/insertBefore/removeNode/
// cloneNode"; supplemented from original_source/core/src/avm1/object/
// xml_idmap_object.rs). Instances carry an object.XMLNodePayload; the
// owning document's ID map (object.XMLIDMapPayload) is rebuilt after
// every structural mutation.
func (h heap) installXMLNode(protoRef *gc.Handle) (gc.Handle, *object.Object) {
	handle, proto := h.newPlainObject(gc.Handle{}, false)

	h.defineMethod(proto, "appendChild", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		_, selfHandle, p, ok := h.thisXMLNode(this)
		if !ok {
			return value.Undefined, nil
		}
		childHandle, ok := argAt(args, 0).AsObject()
		if !ok {
			return value.Undefined, nil
		}
		h.detachFromParent(childHandle)
		p.Children = append(p.Children, childHandle)
		h.adoptIntoDocument(childHandle, selfHandle, p.Document)
		h.rebuildIDMap(p.Document)
		return value.Undefined, nil
	})

	h.defineMethod(proto, "insertBefore", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		_, selfHandle, p, ok := h.thisXMLNode(this)
		if !ok {
			return value.Undefined, nil
		}
		childHandle, ok := argAt(args, 0).AsObject()
		if !ok {
			return value.Undefined, nil
		}
		beforeHandle, hasBefore := argAt(args, 1).AsObject()
		h.detachFromParent(childHandle)
		idx := len(p.Children)
		if hasBefore {
			for i, c := range p.Children {
				if c == beforeHandle {
					idx = i
					break
				}
			}
		}
		p.Children = append(p.Children, gc.Handle{})
		copy(p.Children[idx+1:], p.Children[idx:])
		p.Children[idx] = childHandle
		h.adoptIntoDocument(childHandle, selfHandle, p.Document)
		h.rebuildIDMap(p.Document)
		return value.Undefined, nil
	})

	h.defineMethod(proto, "removeNode", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		_, selfHandle, p, ok := h.thisXMLNode(this)
		if !ok {
			return value.Undefined, nil
		}
		document := p.Document
		h.detachFromParent(selfHandle)
		h.rebuildIDMap(document)
		return value.Undefined, nil
	})

	h.defineMethod(proto, "cloneNode", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		_, _, p, ok := h.thisXMLNode(this)
		if !ok {
			return value.Undefined, nil
		}
		deep, _ := argAt(args, 0).AsBool()
		return h.cloneXMLNode(*protoRef, p, deep), nil
	})

	get := func(name string, extract func(*object.XMLNodePayload) value.Value) {
		h.defineMethod(proto, name, func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
			_, _, p, ok := h.thisXMLNode(this)
			if !ok {
				return value.Undefined, nil
			}
			return extract(p), nil
		})
	}
	get("getNodeType", func(p *object.XMLNodePayload) value.Value { return value.Integer(int32(p.NodeType)) })
	get("getNodeName", func(p *object.XMLNodePayload) value.Value { return value.StringOf(p.NodeName) })
	get("getNodeValue", func(p *object.XMLNodePayload) value.Value { return p.NodeValue })
	get("getParentNode", func(p *object.XMLNodePayload) value.Value {
		if !p.HasParent {
			return value.Undefined
		}
		return value.Object(p.Parent)
	})
	get("getFirstChild", func(p *object.XMLNodePayload) value.Value {
		if len(p.Children) == 0 {
			return value.Undefined
		}
		return value.Object(p.Children[0])
	})
	get("getLastChild", func(p *object.XMLNodePayload) value.Value {
		if len(p.Children) == 0 {
			return value.Undefined
		}
		return value.Object(p.Children[len(p.Children)-1])
	})

	h.defineMethod(proto, "getNextSibling", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		_, selfHandle, p, ok := h.thisXMLNode(this)
		if !ok || !p.HasParent {
			return value.Undefined, nil
		}
		return h.sibling(p.Parent, selfHandle, 1), nil
	})
	h.defineMethod(proto, "getPreviousSibling", func(ctx context.Context, this value.Value, args []value.Value) (value.Value, error) {
		_, selfHandle, p, ok := h.thisXMLNode(this)
		if !ok || !p.HasParent {
			return value.Undefined, nil
		}
		return h.sibling(p.Parent, selfHandle, -1), nil
	})

	return handle, proto
}

func (h heap) sibling(parentHandle, selfHandle gc.Handle, offset int) value.Value {
	parentObj, ok := h.Resolve(parentHandle)
	if !ok {
		return value.Undefined
	}
	pp, ok := parentObj.Payload().(*object.XMLNodePayload)
	if !ok {
		return value.Undefined
	}
	for i, c := range pp.Children {
		if c == selfHandle {
			j := i + offset
			if j < 0 || j >= len(pp.Children) {
				return value.Undefined
			}
			return value.Object(pp.Children[j])
		}
	}
	return value.Undefined
}

// adoptIntoDocument links childHandle to its new parent and stamps it (and
// every descendant) with the parent's owning document, so a later
// removeNode/appendChild on the subtree rebuilds the right document's
// idMap even if the subtree was built detached (spec.md §4.H; a detached
// node built via `new XMLNode(...)` carries no document until adopted).
func (h heap) adoptIntoDocument(nodeHandle, parentHandle, document gc.Handle) {
	nodeObj, ok := h.Resolve(nodeHandle)
	if !ok {
		return
	}
	np, ok := nodeObj.Payload().(*object.XMLNodePayload)
	if !ok {
		return
	}
	np.Parent, np.HasParent = parentHandle, true
	np.Document = document
	for _, c := range np.Children {
		h.adoptIntoDocument(c, nodeHandle, document)
	}
}

// detachFromParent removes nodeHandle from its current parent's Children
// slice, if it has one, clearing its Parent link.
func (h heap) detachFromParent(nodeHandle gc.Handle) {
	nodeObj, ok := h.Resolve(nodeHandle)
	if !ok {
		return
	}
	np, ok := nodeObj.Payload().(*object.XMLNodePayload)
	if !ok || !np.HasParent {
		return
	}
	parentObj, ok := h.Resolve(np.Parent)
	if ok {
		if pp, ok := parentObj.Payload().(*object.XMLNodePayload); ok {
			for i, c := range pp.Children {
				if c == nodeHandle {
					pp.Children = append(pp.Children[:i], pp.Children[i+1:]...)
					break
				}
			}
		}
	}
	np.Parent, np.HasParent = gc.Handle{}, false
}

// cloneXMLNode copies a node (and, if deep, its descendants) into fresh,
// unattached instances (spec.md §4.H cloneNode).
func (h heap) cloneXMLNode(proto gc.Handle, p *object.XMLNodePayload, deep bool) value.Value {
	var children []gc.Handle
	if deep {
		for _, c := range p.Children {
			childObj, ok := h.Resolve(c)
			if !ok {
				continue
			}
			cp, ok := childObj.Payload().(*object.XMLNodePayload)
			if !ok {
				continue
			}
			cloneVal := h.cloneXMLNode(proto, cp, true)
			if cloneHandle, ok := cloneVal.AsObject(); ok {
				children = append(children, cloneHandle)
			}
		}
	}
	var result value.Value
	_ = h.arena.Mutate(func(mc *gc.MutationContext) error {
		obj := object.NewVariant(object.VariantXMLNode, &object.XMLNodePayload{
			NodeType:  p.NodeType,
			NodeName:  p.NodeName,
			NodeValue: p.NodeValue,
			Document:  p.Document,
			Children:  children,
		})
		obj.SetProto(h, gc.Handle{}, proto)
		handle := mc.New(obj)
		obj.BindSelf(handle)
		for _, c := range children {
			if childObj, ok := h.Resolve(c); ok {
				if cp, ok := childObj.Payload().(*object.XMLNodePayload); ok {
					cp.Parent, cp.HasParent = handle, true
				}
			}
		}
		result = value.Object(handle)
		return nil
	})
	return result
}

// NewXMLNode allocates a detached node under document (spec.md §4.H;
// xml_idmap_object.rs). Scripts attach it with appendChild/insertBefore.
func (h heap) NewXMLNode(proto gc.Handle, nodeType int, nodeName string, document gc.Handle) value.Value {
	var result value.Value
	_ = h.arena.Mutate(func(mc *gc.MutationContext) error {
		obj := object.NewVariant(object.VariantXMLNode, &object.XMLNodePayload{
			NodeType: nodeType,
			NodeName: h.interner.Intern(nodeName),
			Document: document,
		})
		obj.SetProto(h, gc.Handle{}, proto)
		handle := mc.New(obj)
		obj.BindSelf(handle)
		result = value.Object(handle)
		return nil
	})
	return result
}

// NewXMLDocument builds a document root node plus its ID-map overlay
// (spec.md §4.H "the ID map dynamically reflects id=... attributes of
// all nodes"; supplemented from xml_idmap_object.rs's document-wide
// idMap). The overlay is exposed on the root as the "idMap" property and
// rebuilt by rebuildIDMap after every appendChild/insertBefore/removeNode.
func (h heap) NewXMLDocument(xmlNodeProto gc.Handle) value.Value {
	var rootHandle gc.Handle
	var rootVal, idMapVal value.Value
	_ = h.arena.Mutate(func(mc *gc.MutationContext) error {
		root := object.NewVariant(object.VariantXMLNode, &object.XMLNodePayload{NodeType: xmlNodeTypeDocument})
		root.SetProto(h, gc.Handle{}, xmlNodeProto)
		rootHandle = mc.New(root)
		root.BindSelf(rootHandle)
		rp := root.Payload().(*object.XMLNodePayload)
		rp.Document = rootHandle
		rootVal = value.Object(rootHandle)

		idMap := object.NewVariant(object.VariantXMLIDMap, &object.XMLIDMapPayload{
			Document: rootHandle,
			ByID:     map[value.StringHandle]gc.Handle{},
		})
		idMapHandle := mc.New(idMap)
		idMap.BindSelf(idMapHandle)
		idMapVal = value.Object(idMapHandle)
		return nil
	})
	if rootObj, ok := h.Resolve(rootHandle); ok {
		rootObj.DefineValue(h.interner.Intern("idMap"), idMapVal, object.DontEnum)
	}
	return rootVal
}

// rebuildIDMap walks the full node tree under document and repopulates
// its idMap overlay from each node's own "id" attribute property
// (spec.md §4.H; xml_idmap_object.rs rebuilds the map on every mutation
// rather than lazily, so stale ids never leak through).
func (h heap) rebuildIDMap(document gc.Handle) {
	rootObj, ok := h.Resolve(document)
	if !ok {
		return
	}
	idMapVal, found := rootObj.GetLocal(h.interner.Intern("idMap"))
	if !found {
		return
	}
	idMapHandle, ok := idMapVal.AsObject()
	if !ok {
		return
	}
	idMapObj, ok := h.Resolve(idMapHandle)
	if !ok {
		return
	}
	idMapPayload, ok := idMapObj.Payload().(*object.XMLIDMapPayload)
	if !ok {
		return
	}
	idAttr := h.interner.Intern("id")
	byID := map[value.StringHandle]gc.Handle{}
	var walk func(gc.Handle)
	walk = func(nodeHandle gc.Handle) {
		nodeObj, ok := h.Resolve(nodeHandle)
		if !ok {
			return
		}
		if idVal, found := nodeObj.GetLocal(idAttr); found {
			if sh, ok := idVal.AsString(); ok {
				byID[sh] = nodeHandle
			}
		}
		np, ok := nodeObj.Payload().(*object.XMLNodePayload)
		if !ok {
			return
		}
		for _, c := range np.Children {
			walk(c)
		}
	}
	walk(document)
	idMapPayload.ByID = byID
}
