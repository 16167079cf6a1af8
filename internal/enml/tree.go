package enml

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// NodeID indexes a node inside its Tree's arena.
type NodeID int32

// Root is the fragment container every Tree starts with.
const Root NodeID = 0

const noNode NodeID = -1

// Kind distinguishes fragment containers, elements and text.
type Kind uint8

const (
	FragmentNode Kind = iota
	ElementNode
	TextNode
)

// Attr is a single attribute. Attributes keep their insertion order.
type Attr struct {
	Key string
	Val string
}

// Node is one entry of the arena. Parent is a lookup link only; the Tree
// owns every node.
type Node struct {
	Kind     Kind
	Tag      string
	Attrs    []Attr
	Text     string
	Parent   NodeID
	Children []NodeID
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Tree is an arena-indexed document fragment. Nodes detached by Sanitize or
// Link stay in the arena but are no longer reachable from Root.
type Tree struct {
	nodes []Node
}

// NewTree returns a tree holding only an empty fragment root.
func NewTree() *Tree {
	return &Tree{nodes: []Node{{Kind: FragmentNode, Parent: noNode}}}
}

// Node returns the node with the given id. The pointer is invalidated by
// any call that adds nodes.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// AppendElement adds an element as the last child of parent.
func (t *Tree) AppendElement(parent NodeID, tag string, attrs ...Attr) NodeID {
	id := t.add(Node{Kind: ElementNode, Tag: tag, Attrs: attrs})
	t.appendChild(parent, id)
	return id
}

// AppendText adds a text node as the last child of parent.
func (t *Tree) AppendText(parent NodeID, text string) NodeID {
	id := t.add(Node{Kind: TextNode, Text: text})
	t.appendChild(parent, id)
	return id
}

func (t *Tree) add(n Node) NodeID {
	n.Parent = noNode
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) appendChild(parent, child NodeID) {
	t.nodes[child].Parent = parent
	t.nodes[parent].Children = append(t.nodes[parent].Children, child)
}

// Walk visits every node reachable from Root in document order.
func (t *Tree) Walk(fn func(id NodeID, n *Node)) {
	stack := []NodeID{Root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(id, &t.nodes[id])
		kids := t.nodes[id].Children
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}

// Len reports the number of reachable nodes, the root included.
func (t *Tree) Len() int {
	n := 0
	t.Walk(func(NodeID, *Node) { n++ })
	return n
}

// Render serializes the fragment below Root. Attributes are written in
// insertion order; void elements and childless media elements self-close.
func (t *Tree) Render(w io.Writer) error {
	type frame struct {
		id    NodeID
		close bool
	}

	sw, ok := w.(io.StringWriter)
	if !ok {
		sw = stringWriter{w}
	}

	stack := []frame{{id: Root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[f.id]

		if f.close {
			if _, err := sw.WriteString("</" + n.Tag + ">"); err != nil {
				return err
			}
			continue
		}

		switch n.Kind {
		case TextNode:
			if _, err := sw.WriteString(html.EscapeString(n.Text)); err != nil {
				return err
			}
			continue
		case ElementNode:
			if _, err := sw.WriteString(openTag(n)); err != nil {
				return err
			}
			if selfClosing(n) {
				if _, err := sw.WriteString("/>"); err != nil {
					return err
				}
				continue
			}
			if _, err := sw.WriteString(">"); err != nil {
				return err
			}
			stack = append(stack, frame{id: f.id, close: true})
		}

		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: n.Children[i]})
		}
	}
	return nil
}

// String returns the serialized fragment.
func (t *Tree) String() string {
	var b strings.Builder
	_ = t.Render(&b)
	return b.String()
}

func openTag(n *Node) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, a := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.Val))
		b.WriteByte('"')
	}
	return b.String()
}

func selfClosing(n *Node) bool {
	switch categoryOf(n.Tag) {
	case categoryVoid:
		return true
	case categoryMedia:
		return len(n.Children) == 0
	}
	return false
}

type stringWriter struct{ w io.Writer }

func (s stringWriter) WriteString(str string) (int, error) {
	return s.w.Write([]byte(str))
}
