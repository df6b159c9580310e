// Package scene is a headless node tree that plays the host role for pools
// and list views: it builds and destroys nodes, parents them and lays them
// out in sibling order.
package scene

import (
	"strings"

	"pooledlist/internal/shared/pool"
)

// Node is a named element with an ordered list of children
type Node struct {
	Name   string
	Active bool

	Position pool.Vec3
	Rotation pool.Quat
	Scale    pool.Vec3

	// Height is the preferred vertical extent used by layout
	Height float64

	// Selectable nodes take part in keyboard navigation
	Selectable bool
	Up         *Node
	Down       *Node

	// Data is whatever the bind callback attached
	Data any

	destroyed bool
	parent    *Node
	children  []*Node
}

// NewNode creates an active, unparented node
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Active:   true,
		Rotation: pool.IdentityRotation,
		Scale:    pool.Vec3{1, 1, 1},
	}
}

// Parent returns the parent node, nil for roots
func (n *Node) Parent() *Node {
	return n.parent
}

// Destroyed reports whether the node has been destroyed
func (n *Node) Destroyed() bool {
	return n.destroyed
}

// Children returns a copy of the child list
func (n *Node) Children() []*Node {
	children := make([]*Node, len(n.children))
	copy(children, n.children)
	return children
}

// ChildCount returns the number of children
func (n *Node) ChildCount() int {
	return len(n.children)
}

// SetParent moves n to the end of parent's children. A nil parent detaches it.
func (n *Node) SetParent(parent *Node) {
	if n.parent == parent {
		return
	}
	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.parent = parent
	if parent != nil {
		parent.children = append(parent.children, n)
	}
}

func (n *Node) removeChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// SiblingIndex returns the position of n under its parent, -1 for roots
func (n *Node) SiblingIndex() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// SetSiblingIndex moves n to index among its siblings, clamped to the valid range
func (n *Node) SetSiblingIndex(index int) {
	p := n.parent
	if p == nil {
		return
	}
	current := n.SiblingIndex()
	if index < 0 {
		index = 0
	}
	if index >= len(p.children) {
		index = len(p.children) - 1
	}
	if current == index {
		return
	}

	p.children = append(p.children[:current], p.children[current+1:]...)
	p.children = append(p.children, nil)
	copy(p.children[index+1:], p.children[index:])
	p.children[index] = n
}

// WorldPosition returns the position with every ancestor's offset applied
func (n *Node) WorldPosition() pool.Vec3 {
	pos := n.Position
	for p := n.parent; p != nil; p = p.parent {
		for i := range pos {
			pos[i] += p.Position[i]
		}
	}
	return pos
}

// Path returns the slash separated names from the root down to n
func (n *Node) Path() string {
	var parts []string
	for c := n; c != nil; c = c.parent {
		parts = append(parts, c.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Link sets the navigation neighbours of a selectable node. Nil clears a side.
func Link(n, up, down *Node) {
	if n == nil || !n.Selectable {
		return
	}
	n.Up = up
	n.Down = down
}

// String returns the node name
func (n *Node) String() string {
	return n.Name
}
