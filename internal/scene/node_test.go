package scene

import (
	"errors"
	"testing"

	"pooledlist/internal/shared/pool"
)

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSetParent(t *testing.T) {
	root := NewNode("root")
	a := NewNode("a")
	b := NewNode("b")

	a.SetParent(root)
	b.SetParent(root)
	if got := names(root.Children()); !equalNames(got, []string{"a", "b"}) {
		t.Fatalf("children = %v", got)
	}

	other := NewNode("other")
	a.SetParent(other)
	if root.ChildCount() != 1 || other.ChildCount() != 1 {
		t.Errorf("root=%d other=%d, want 1 and 1", root.ChildCount(), other.ChildCount())
	}
	if a.Parent() != other {
		t.Errorf("a.Parent() = %v, want other", a.Parent())
	}

	a.SetParent(nil)
	if a.Parent() != nil || other.ChildCount() != 0 {
		t.Error("detaching should clear both sides")
	}
	if a.SiblingIndex() != -1 {
		t.Errorf("SiblingIndex() of a root = %d, want -1", a.SiblingIndex())
	}
}

func TestSetSiblingIndex(t *testing.T) {
	tests := []struct {
		name  string
		move  string
		index int
		want  []string
	}{
		{"to front", "d", 0, []string{"d", "a", "b", "c"}},
		{"to back", "a", 3, []string{"b", "c", "d", "a"}},
		{"middle forward", "b", 2, []string{"a", "c", "b", "d"}},
		{"middle backward", "c", 1, []string{"a", "c", "b", "d"}},
		{"clamped high", "a", 99, []string{"b", "c", "d", "a"}},
		{"clamped low", "c", -5, []string{"c", "a", "b", "d"}},
		{"unchanged", "b", 1, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewNode("root")
			byName := make(map[string]*Node)
			for _, name := range []string{"a", "b", "c", "d"} {
				n := NewNode(name)
				n.SetParent(root)
				byName[name] = n
			}

			byName[tt.move].SetSiblingIndex(tt.index)

			if got := names(root.Children()); !equalNames(got, tt.want) {
				t.Errorf("children = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWorldPositionAndPath(t *testing.T) {
	root := NewNode("root")
	root.Position = pool.Vec3{10, 0, 0}
	mid := NewNode("mid")
	mid.Position = pool.Vec3{0, 5, 0}
	leaf := NewNode("leaf")
	leaf.Position = pool.Vec3{1, 1, 1}

	mid.SetParent(root)
	leaf.SetParent(mid)

	if got := leaf.WorldPosition(); got != (pool.Vec3{11, 6, 1}) {
		t.Errorf("WorldPosition() = %v", got)
	}
	if got := leaf.Path(); got != "root/mid/leaf" {
		t.Errorf("Path() = %q", got)
	}
	if leaf.String() != "leaf" {
		t.Errorf("String() = %q", leaf.String())
	}
}

func TestLink(t *testing.T) {
	a, b, c := NewNode("a"), NewNode("b"), NewNode("c")
	b.Selectable = true

	Link(b, a, c)
	if b.Up != a || b.Down != c {
		t.Error("selectable node should be linked")
	}

	Link(b, nil, nil)
	if b.Up != nil || b.Down != nil {
		t.Error("nil neighbours should clear links")
	}

	Link(a, b, c)
	if a.Up != nil || a.Down != nil {
		t.Error("non-selectable node should not be linked")
	}
	Link(nil, a, b)
}

func TestLifecycleClone(t *testing.T) {
	lc := NewLifecycle(nil)
	if lc.Holding() == nil || lc.Holding().Active {
		t.Fatal("default holding node should exist and be inactive")
	}

	proto := NewNode("Row")
	proto.Height = 24
	proto.Selectable = true

	clone, err := lc.Instantiate(proto)
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}
	if clone.Name != "Row (Clone)" || clone.Height != 24 || !clone.Selectable {
		t.Errorf("clone = %+v", clone)
	}
	if lc.Built() != 1 {
		t.Errorf("Built() = %d, want 1", lc.Built())
	}

	lc.Destroy(proto)
	if _, err := lc.Instantiate(proto); !errors.Is(err, ErrDestroyedPrototype) {
		t.Errorf("Instantiate(destroyed) error = %v, want ErrDestroyedPrototype", err)
	}
}

func TestLifecycleActivate(t *testing.T) {
	lc := NewLifecycle(nil)
	parent := NewNode("parent")
	parent.Position = pool.Vec3{100, 0, 0}

	t.Run("world space", func(t *testing.T) {
		n := NewNode("n")
		lc.Activate(n, parent, pool.At(pool.Vec3{110, 2, 0}, pool.SpaceWorld))
		if n.Position != (pool.Vec3{10, 2, 0}) {
			t.Errorf("Position = %v, want local offset {10 2 0}", n.Position)
		}
		if n.WorldPosition() != (pool.Vec3{110, 2, 0}) {
			t.Errorf("WorldPosition = %v", n.WorldPosition())
		}
	})

	t.Run("self space", func(t *testing.T) {
		n := NewNode("n")
		lc.Activate(n, parent, pool.At(pool.Vec3{3, 4, 5}, pool.SpaceSelf))
		if n.Position != (pool.Vec3{3, 4, 5}) {
			t.Errorf("Position = %v", n.Position)
		}
	})

	t.Run("scale", func(t *testing.T) {
		n := NewNode("n")
		scale := pool.Vec3{2, 2, 2}
		lc.Activate(n, nil, &pool.Placement{Rotation: pool.IdentityRotation, Scale: &scale})
		if n.Scale != scale || n.Parent() != nil || !n.Active {
			t.Errorf("node = %+v", n)
		}
	})

	t.Run("deactivate", func(t *testing.T) {
		n := NewNode("n")
		lc.Activate(n, parent, nil)
		lc.Deactivate(n, nil)
		if n.Active || n.Parent() != lc.Holding() {
			t.Error("nil holding should park under the lifecycle holding node")
		}

		shelf := NewNode("shelf")
		lc.Deactivate(n, shelf)
		if n.Parent() != shelf {
			t.Error("explicit holding node should be used")
		}
	})
}

func TestContentPadding(t *testing.T) {
	c := NewContent(NewNode("Content"), 100)
	if c.ViewportExtent() != 100 {
		t.Errorf("ViewportExtent() = %v", c.ViewportExtent())
	}
	c.SetViewportExtent(120)
	if c.ViewportExtent() != 120 {
		t.Errorf("ViewportExtent() = %v after resize", c.ViewportExtent())
	}

	lc := NewLifecycle(nil)
	proto := NewNode("Row")
	proto.Height = 10

	var rows []*Node
	for i := 0; i < 3; i++ {
		n, _ := lc.Instantiate(proto)
		n.Name = string(rune('a' + i))
		lc.Activate(n, c.Container(), nil)
		rows = append(rows, n)
	}

	// Lay out in reverse so every row has to move
	c.SetOrder(rows[2], 0)
	c.SetOrder(rows[1], 1)
	c.SetOrder(rows[0], 2)
	c.SetPadding(50, 70)

	children := names(c.Root().Children())
	want := []string{"Start Padding", "c", "b", "a", "End Padding"}
	if !equalNames(children, want) {
		t.Errorf("children = %v, want %v", children, want)
	}
	if c.Leading() != 50 || c.Trailing() != 70 {
		t.Errorf("padding = %v/%v", c.Leading(), c.Trailing())
	}
	if got := c.Extent(); got != 150 {
		t.Errorf("Extent() = %v, want 150", got)
	}

	lc.Deactivate(rows[1], nil)
	if got := names(c.Rows()); !equalNames(got, []string{"c", "a"}) {
		t.Errorf("Rows() = %v", got)
	}
}
