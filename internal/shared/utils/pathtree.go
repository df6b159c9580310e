package utils

import (
	"fmt"
	"io"
	"strings"
)

// TreeNode is one segment of a path tree. Items hold the values whose path
// ends at this node.
type TreeNode[V any] struct {
	Name     string
	Path     string
	Items    []V
	Children []*TreeNode[V]

	index map[string]*TreeNode[V]
}

// BuildTree groups items into a trie keyed by the segments of pathOf(item)
// split on sep. Children keep first-seen order. Empty segments are skipped,
// so "a//b" and "a/b" land on the same node.
func BuildTree[V any](items []V, pathOf func(V) string, sep string) *TreeNode[V] {
	root := &TreeNode[V]{}
	for _, item := range items {
		node := root
		for _, part := range strings.Split(pathOf(item), sep) {
			if part == "" {
				continue
			}
			node = node.child(part, sep)
		}
		node.Items = append(node.Items, item)
	}
	return root
}

func (n *TreeNode[V]) child(name, sep string) *TreeNode[V] {
	if c, ok := n.index[name]; ok {
		return c
	}
	if n.index == nil {
		n.index = make(map[string]*TreeNode[V])
	}
	path := name
	if n.Path != "" {
		path = n.Path + sep + name
	}
	c := &TreeNode[V]{Name: name, Path: path}
	n.index[name] = c
	n.Children = append(n.Children, c)
	return c
}

// Find returns the node at path, or nil
func (n *TreeNode[V]) Find(path, sep string) *TreeNode[V] {
	node := n
	for _, part := range strings.Split(path, sep) {
		if part == "" {
			continue
		}
		node = node.index[part]
		if node == nil {
			return nil
		}
	}
	return node
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the node's children.
func (n *TreeNode[V]) Walk(fn func(node *TreeNode[V], depth int) bool) {
	n.walk(fn, 0)
}

func (n *TreeNode[V]) walk(fn func(*TreeNode[V], int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Print writes an indented outline of the tree, formatting items with label
func (n *TreeNode[V]) Print(w io.Writer, label func(V) string) {
	n.Walk(func(node *TreeNode[V], depth int) bool {
		if node.Name == "" {
			return true
		}
		indent := strings.Repeat("  ", depth-1)
		fmt.Fprintf(w, "%s%s\n", indent, node.Name)
		for _, item := range node.Items {
			fmt.Fprintf(w, "%s  - %s\n", indent, label(item))
		}
		return true
	})
}
