package hypergraph

import (
	"fmt"
	"strings"

	"github.com/liammertens/conjunctive-queries/datalog/query"
)

// Node is one vertex of a join tree: a variable set, the atoms covering it
// and the intermediate result written by each evaluation pass.
type Node struct {
	Elements []string
	Key      string
	Atoms    []*query.Atom
	Children []*Node

	// Qs holds the node's current result; nil until a pass writes it
	Qs *query.QueryResult

	parent *Node
}

// NewNode creates a detached node for a hyperedge
func NewNode(e *HyperEdge) *Node {
	return &Node{
		Elements: append([]string(nil), e.Vertices...),
		Key:      e.Key(),
		Atoms:    append([]*query.Atom(nil), e.Atoms...),
	}
}

// Parent returns the parent node, or nil for a root
func (n *Node) Parent() *Node { return n.parent }

// IsLeaf reports whether the node has no children
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// AddChild attaches child below n. A child that already hangs below another
// node is moved.
func (n *Node) AddChild(child *Node) {
	if child.parent == n {
		return
	}
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	child.parent = n
	n.Children = append(n.Children, child)
}

func (n *Node) removeChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Head returns the node's variable set as a head atom
func (n *Node) Head() query.HeadAtom {
	return query.NewHeadAtom(n.Key, n.Elements...)
}

// String renders the key and the atoms of the node
func (n *Node) String() string {
	atoms := make([]string, len(n.Atoms))
	for i, a := range n.Atoms {
		atoms[i] = a.String()
	}
	return fmt.Sprintf("%s %s", n.Key, strings.Join(atoms, ", "))
}

// JoinTree is a forest of nodes addressed by canonical variable-set key.
// A set reached first as an ear and later as a witness resolves to the same
// node.
type JoinTree struct {
	nodes map[string]*Node
	order []*Node
	roots []*Node
}

// NewJoinTree creates an empty forest
func NewJoinTree() *JoinTree {
	return &JoinTree{nodes: make(map[string]*Node)}
}

// AddNode registers n. It returns false and leaves the registry untouched
// when a node with the same key already exists.
func (t *JoinTree) AddNode(n *Node) bool {
	if _, exists := t.nodes[n.Key]; exists {
		return false
	}
	t.nodes[n.Key] = n
	t.order = append(t.order, n)
	return true
}

// nodeFor returns the node of e, creating it on first use
func (t *JoinTree) nodeFor(e *HyperEdge) *Node {
	if n, ok := t.nodes[e.Key()]; ok {
		return n
	}
	n := NewNode(e)
	t.AddNode(n)
	return n
}

// Node looks a node up by canonical key
func (t *JoinTree) Node(key string) *Node { return t.nodes[key] }

// RemoveNode unregisters a node and detaches it from its parent. Its
// children become parentless.
func (t *JoinTree) RemoveNode(key string) bool {
	n, ok := t.nodes[key]
	if !ok {
		return false
	}
	delete(t.nodes, key)
	for i, o := range t.order {
		if o == n {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	for i, r := range t.roots {
		if r == n {
			t.roots = append(t.roots[:i], t.roots[i+1:]...)
			break
		}
	}
	if n.parent != nil {
		n.parent.removeChild(n)
	}
	for _, c := range n.Children {
		c.parent = nil
	}
	n.Children = nil
	return true
}

// SetRoots collects every parentless node, in registry order
func (t *JoinTree) SetRoots() {
	t.roots = t.roots[:0]
	for _, n := range t.order {
		if n.parent == nil {
			t.roots = append(t.roots, n)
		}
	}
}

// Roots returns the root set computed by SetRoots
func (t *JoinTree) Roots() []*Node { return t.roots }

// IsRoot reports whether n is in the root set
func (t *JoinTree) IsRoot(n *Node) bool {
	for _, r := range t.roots {
		if r == n {
			return true
		}
	}
	return false
}

// Nodes returns every node in registry order
func (t *JoinTree) Nodes() []*Node { return append([]*Node(nil), t.order...) }

// Leaves returns every childless node in registry order
func (t *JoinTree) Leaves() []*Node {
	var leaves []*Node
	for _, n := range t.order {
		if n.IsLeaf() {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// Len returns the number of nodes
func (t *JoinTree) Len() int { return len(t.order) }

// String renders the forest, one indented line per node
func (t *JoinTree) String() string {
	var sb strings.Builder
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(n.String())
		sb.WriteByte('\n')
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, r := range t.roots {
		walk(r, 0)
	}
	return sb.String()
}
