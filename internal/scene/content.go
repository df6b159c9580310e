package scene

// Content is a vertical layout container for a list view. It keeps a
// leading and a trailing padding node at the first and last sibling slots so
// the total height matches the full logical list.
type Content struct {
	root     *Node
	viewport float64
	leading  *Node
	trailing *Node
}

// NewContent creates padding nodes under root for a viewport of the given height
func NewContent(root *Node, viewport float64) *Content {
	leading := NewNode("Start Padding")
	leading.SetParent(root)
	trailing := NewNode("End Padding")
	trailing.SetParent(root)

	return &Content{
		root:     root,
		viewport: viewport,
		leading:  leading,
		trailing: trailing,
	}
}

// Root returns the node rows are parented under
func (c *Content) Root() *Node {
	return c.root
}

func (c *Content) ViewportExtent() float64 {
	return c.viewport
}

// SetViewportExtent resizes the viewport
func (c *Content) SetViewportExtent(extent float64) {
	c.viewport = extent
}

func (c *Content) Container() any {
	return c.root
}

// SetOrder places a row at ordinal among the rows, after the leading padding
func (c *Content) SetOrder(instance *Node, ordinal int) {
	if instance.Parent() != c.root {
		instance.SetParent(c.root)
	}
	instance.SetSiblingIndex(ordinal + 1)
}

func (c *Content) SetPadding(leading, trailing float64) {
	c.leading.Height = leading
	c.leading.SetSiblingIndex(0)
	c.trailing.Height = trailing
	c.trailing.SetSiblingIndex(c.root.ChildCount() - 1)
}

// Leading returns the leading padding height
func (c *Content) Leading() float64 {
	return c.leading.Height
}

// Trailing returns the trailing padding height
func (c *Content) Trailing() float64 {
	return c.trailing.Height
}

// Rows returns the active rows between the paddings, in layout order
func (c *Content) Rows() []*Node {
	var rows []*Node
	for _, child := range c.root.children {
		if child == c.leading || child == c.trailing || !child.Active {
			continue
		}
		rows = append(rows, child)
	}
	return rows
}

// Extent is the preferred height of the content: paddings plus active rows
func (c *Content) Extent() float64 {
	total := c.leading.Height + c.trailing.Height
	for _, row := range c.Rows() {
		total += row.Height
	}
	return total
}
