package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/cardtree/pkg/canvas"
	"github.com/matzehuels/cardtree/pkg/cards"
	"github.com/matzehuels/cardtree/pkg/layout"
)

func testSession(t *testing.T) *session {
	t.Helper()
	store, err := canvas.NewMemoryFromDocument(outlineDoc())
	if err != nil {
		t.Fatal(err)
	}
	for i := range outlineDoc().Nodes {
		id := outlineDoc().Nodes[i].ID
		if _, err := store.UpdateNode(context.Background(), id, func(n *canvas.Node) {
			n.Width, n.Height = 400, 160
		}); err != nil {
			t.Fatal(err)
		}
	}
	eng := layout.New(store)
	return &session{store: store, engine: eng, editor: cards.NewEditor(eng)}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds a key and runs the resulting command to completion.
func press(t *testing.T, m browseModel, k string) browseModel {
	t.Helper()
	next, cmd := m.Update(key(k))
	m = next.(browseModel)
	if cmd != nil {
		if msg, ok := cmd().(actionMsg); ok {
			next, _ = m.Update(msg)
			m = next.(browseModel)
		}
	}
	return m
}

func TestBrowseNavigation(t *testing.T) {
	m, err := newBrowseModel(context.Background(), testSession(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(m.rows))
	}

	m = press(t, m, "down")
	m = press(t, m, "down")
	m = press(t, m, "down")
	if id, _ := m.selected(); id != "right" {
		t.Errorf("selected = %s, want right", id)
	}
	m = press(t, m, "up")
	if id, _ := m.selected(); id != "left" {
		t.Errorf("selected = %s, want left", id)
	}

	m = press(t, m, "h")
	if len(m.rows) != 4 {
		t.Errorf("rows with hidden = %d, want 4", len(m.rows))
	}
	if id, _ := m.selected(); id != "left" {
		t.Errorf("cursor moved to %s after toggling hidden", id)
	}
}

func TestBrowseActions(t *testing.T) {
	ctx := context.Background()
	s := testSession(t)
	m, err := newBrowseModel(ctx, s)
	if err != nil {
		t.Fatal(err)
	}

	m = press(t, m, "c")
	if m.err != nil {
		t.Fatalf("collapse: %v", m.err)
	}
	if len(m.rows) != 1 || !strings.Contains(m.status, "collapsed root") {
		t.Errorf("after collapse rows=%d status=%q", len(m.rows), m.status)
	}

	m = press(t, m, "E")
	if m.err != nil || len(m.rows) != 4 {
		t.Errorf("after expand all rows=%d err=%v", len(m.rows), m.err)
	}

	m = press(t, m, "n")
	if m.err != nil || len(m.rows) != 5 {
		t.Errorf("after new child rows=%d err=%v", len(m.rows), m.err)
	}
	if !strings.Contains(m.View(), "added a child to root") {
		t.Errorf("view missing status:\n%s", m.View())
	}
}

func TestBrowseQuit(t *testing.T) {
	m, err := newBrowseModel(context.Background(), testSession(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q should quit")
	}
}
