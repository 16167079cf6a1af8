package enml

// Link replaces every element that references an attachment with a
// childless media element. An element matches when one of its attribute
// values equals a resource's ReferencePath; attributes are checked in
// order and the first hit wins. The replacement carries exactly type and
// hash. Descendants of a replaced element are not inspected. When two
// resources share a reference path the first one listed is used.
func Link(t *Tree, resources []Resource) {
	if len(resources) == 0 {
		return
	}

	byPath := make(map[string]int, len(resources))
	for i, r := range resources {
		if _, dup := byPath[r.ReferencePath]; !dup {
			byPath[r.ReferencePath] = i
		}
	}

	stack := []NodeID{Root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if t.nodes[id].Kind == ElementNode {
			if idx, ok := matchResource(t.nodes[id].Attrs, byPath); ok {
				t.toMedia(id, resources[idx])
				continue
			}
		}

		kids := t.nodes[id].Children
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}

// toMedia turns id into a media element in place, keeping its position
// among its siblings. Its former descendants are detached.
func (t *Tree) toMedia(id NodeID, r Resource) {
	for _, k := range t.nodes[id].Children {
		t.nodes[k].Parent = noNode
	}
	t.nodes[id] = Node{
		Kind: ElementNode,
		Tag:  MediaTag,
		Attrs: []Attr{
			{Key: "type", Val: r.MimeType},
			{Key: "hash", Val: r.Hash},
		},
		Parent: t.nodes[id].Parent,
	}
}

func matchResource(attrs []Attr, byPath map[string]int) (int, bool) {
	for _, a := range attrs {
		if idx, ok := byPath[a.Val]; ok {
			return idx, true
		}
	}
	return 0, false
}
