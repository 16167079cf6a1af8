package enml

// Sanitize rewrites t in place in a single post-order pass. For every
// element, after its children are done:
//
//   - denied attributes and on* event handlers are removed
//   - a style attribute is converted into nested legacy tags and removed
//   - an element outside the allow-list is removed and its children are
//     spliced into its parent at its former position
//
// Splicing happens when the parent's frame completes: its child list is
// rebuilt once, so wide fragments cost time linear in their size. The walk
// uses an explicit stack, so nesting depth is bounded only by memory.
// Sanitize never fails.
func Sanitize(t *Tree) {
	type frame struct {
		id   NodeID
		done bool
	}

	stack := []frame{{id: Root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !f.done {
			stack = append(stack, frame{id: f.id, done: true})
			kids := t.nodes[f.id].Children
			for i := len(kids) - 1; i >= 0; i-- {
				if t.nodes[kids[i]].Kind == ElementNode {
					stack = append(stack, frame{id: kids[i]})
				}
			}
			continue
		}

		t.spliceChildren(f.id)
		if t.nodes[f.id].Kind == ElementNode {
			t.sanitizeElement(f.id)
		}
	}
}

func (t *Tree) sanitizeElement(id NodeID) {
	style, hasStyle := t.filterAttrs(id)
	if hasStyle {
		t.applyStyle(id, parseStyle(style))
	}
}

// spliceChildren replaces every disallowed element child of id with that
// child's own children. Those were flattened when the child's frame
// completed, so one pass suffices.
func (t *Tree) spliceChildren(id NodeID) {
	kids := t.nodes[id].Children
	n, found := 0, false
	for _, k := range kids {
		if t.disallowed(k) {
			n += len(t.nodes[k].Children)
			found = true
		} else {
			n++
		}
	}
	if !found {
		return
	}

	next := make([]NodeID, 0, n)
	for _, k := range kids {
		if !t.disallowed(k) {
			next = append(next, k)
			continue
		}
		for _, g := range t.nodes[k].Children {
			t.nodes[g].Parent = id
			next = append(next, g)
		}
		t.nodes[k].Children = nil
		t.nodes[k].Parent = noNode
	}
	t.nodes[id].Children = next
}

func (t *Tree) disallowed(id NodeID) bool {
	return t.nodes[id].Kind == ElementNode && categoryOf(t.nodes[id].Tag) == categoryDisallowed
}

// filterAttrs drops denied attributes and the style attribute, returning
// the style value when one was present.
func (t *Tree) filterAttrs(id NodeID) (style string, hasStyle bool) {
	attrs := t.nodes[id].Attrs
	if len(attrs) == 0 {
		return "", false
	}

	kept := attrs[:0]
	for _, a := range attrs {
		switch {
		case a.Key == "style":
			style, hasStyle = a.Val, true
		case DeniedAttr(a.Key):
		default:
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	t.nodes[id].Attrs = kept
	return style, hasStyle
}

// applyStyle moves the children of id under the chain of wrappers derived
// from decls. The outermost wrapper becomes the only child of id.
func (t *Tree) applyStyle(id NodeID, decls map[string]string) {
	wrappers := styleWrappers(decls)
	if len(wrappers) == 0 || categoryOf(t.nodes[id].Tag) == categoryVoid {
		return
	}

	kids := t.nodes[id].Children
	t.nodes[id].Children = nil

	inner := id
	for _, w := range wrappers {
		inner = t.AppendElement(inner, w.tag, w.attrs...)
	}
	for _, k := range kids {
		t.nodes[k].Parent = inner
	}
	t.nodes[inner].Children = kids
}
