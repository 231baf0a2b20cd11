package cli

import (
	"testing"

	"github.com/matzehuels/cardtree/pkg/canvas"
	"github.com/matzehuels/cardtree/pkg/cards"
)

func outlineDoc() *canvas.Document {
	link := func(parent, child string, visible bool) canvas.Connector {
		return canvas.Connector{
			ID:      parent + "-" + child,
			Start:   canvas.Endpoint{NodeID: parent, Magnet: canvas.MagnetBottom},
			End:     canvas.Endpoint{NodeID: child, Magnet: canvas.MagnetTop},
			Visible: visible,
		}
	}
	return &canvas.Document{
		Nodes: []canvas.Node{
			{ID: "root", Visible: true, Fields: map[string]string{cards.FieldText: "Grow revenue"}},
			{ID: "right", X: 500, Visible: true},
			{ID: "left", X: -500, Visible: true, State: canvas.NodeState{HideChildren: true, ChildrenCount: 1}},
			{ID: "leaf", X: -500, Visible: false},
		},
		Connectors: []canvas.Connector{
			link("root", "right", true),
			link("root", "left", true),
			link("left", "leaf", false),
		},
	}
}

func TestTreeRows(t *testing.T) {
	rows := treeRows(outlineDoc(), false)

	want := []struct {
		id, prefix string
		kids       int
	}{
		{"root", "", 2},
		{"left", "├── ", 1},
		{"right", "└── ", 0},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, w := range want {
		r := rows[i]
		if r.Node.ID != w.id || r.Prefix != w.prefix || r.Kids != w.kids {
			t.Errorf("row %d = %s %q %d, want %s %q %d", i, r.Node.ID, r.Prefix, r.Kids, w.id, w.prefix, w.kids)
		}
	}
}

func TestTreeRowsShowHidden(t *testing.T) {
	rows := treeRows(outlineDoc(), true)
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	if rows[2].Node.ID != "leaf" || rows[2].Prefix != "│   └── " {
		t.Errorf("hidden leaf row = %s %q", rows[2].Node.ID, rows[2].Prefix)
	}
}

func TestCardLabel(t *testing.T) {
	doc := outlineDoc()
	if got := cardLabel(&doc.Nodes[0]); got != "Grow revenue" {
		t.Errorf("cardLabel(root) = %q", got)
	}
	if got := cardLabel(&doc.Nodes[1]); got != "right" {
		t.Errorf("cardLabel(right) = %q", got)
	}
}
