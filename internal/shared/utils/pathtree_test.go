package utils

import (
	"bytes"
	"strings"
	"testing"
)

type asset struct {
	path string
	size int
}

func TestBuildTree(t *testing.T) {
	items := []asset{
		{"ui/list/Row", 1},
		{"ui/list/Header", 2},
		{"ui/Dialog", 3},
		{"fx//Spark", 4},
		{"ui/list/Row", 5},
	}

	root := BuildTree(items, func(a asset) string { return a.path }, "/")

	if len(root.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(root.Children))
	}
	if root.Children[0].Name != "ui" || root.Children[1].Name != "fx" {
		t.Errorf("children out of first-seen order: %s, %s", root.Children[0].Name, root.Children[1].Name)
	}

	row := root.Find("ui/list/Row", "/")
	if row == nil {
		t.Fatal("Find(ui/list/Row) = nil")
	}
	if len(row.Items) != 2 || row.Items[0].size != 1 || row.Items[1].size != 5 {
		t.Errorf("Row items = %+v", row.Items)
	}
	if row.Path != "ui/list/Row" {
		t.Errorf("Path = %q", row.Path)
	}

	if spark := root.Find("fx/Spark", "/"); spark == nil || len(spark.Items) != 1 {
		t.Error("empty segments should be skipped")
	}
	if root.Find("ui/missing", "/") != nil {
		t.Error("Find should return nil for a missing path")
	}
}

func TestTreeWalk(t *testing.T) {
	items := []string{"a/b/c", "a/d", "e"}
	root := BuildTree(items, func(s string) string { return s }, "/")

	var visited []string
	root.Walk(func(n *TreeNode[string], depth int) bool {
		if n.Name != "" {
			visited = append(visited, strings.Repeat(">", depth)+n.Name)
		}
		return n.Name != "b"
	})

	want := []string{">a", ">>b", ">>d", ">e"}
	if strings.Join(visited, ",") != strings.Join(want, ",") {
		t.Errorf("visited = %v, want %v", visited, want)
	}
}

func TestTreePrint(t *testing.T) {
	root := BuildTree([]string{"pool/Row", "pool/Header"}, func(s string) string { return s }, "/")

	var buf bytes.Buffer
	root.Print(&buf, func(s string) string { return s })

	want := "pool\n  Row\n    - pool/Row\n  Header\n    - pool/Header\n"
	if buf.String() != want {
		t.Errorf("Print() =\n%s\nwant\n%s", buf.String(), want)
	}
}
