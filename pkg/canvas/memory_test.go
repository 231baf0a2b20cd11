package canvas

import (
	"context"
	"errors"
	"testing"
)

func conn(id, from, to string) Connector {
	return Connector{
		ID:      id,
		Start:   Endpoint{NodeID: from, Magnet: MagnetBottom},
		End:     Endpoint{NodeID: to, Magnet: MagnetTop},
		Visible: true,
	}
}

func TestMemoryNodeCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	n := &Node{ID: "a", Width: 400, Height: 100, Visible: true, State: NodeState{Box: &Box{Width: 400}}}
	if err := m.PutNode(ctx, n); err != nil {
		t.Fatalf("PutNode error: %v", err)
	}

	// Mutating the input after Put must not leak into the store
	n.X = 99
	n.State.Box.Width = 1

	got, err := m.Node(ctx, "a")
	if err != nil {
		t.Fatalf("Node error: %v", err)
	}
	if got.X != 0 {
		t.Errorf("X = %v, want 0", got.X)
	}
	if got.State.Box.Width != 400 {
		t.Errorf("Box.Width = %v, want 400", got.State.Box.Width)
	}

	// Mutating the returned copy must not leak either
	got.Y = 50
	again, _ := m.Node(ctx, "a")
	if again.Y != 0 {
		t.Errorf("Y = %v, want 0", again.Y)
	}
}

func TestMemoryMissingNode(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	n, err := m.Node(ctx, "missing")
	if err != nil || n != nil {
		t.Errorf("Node(missing) = %v, %v; want nil, nil", n, err)
	}

	_, err = m.UpdateNode(ctx, "missing", func(*Node) {})
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("UpdateNode error = %v, want ErrNodeNotFound", err)
	}

	if err := m.PutNode(ctx, &Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("PutNode(empty id) error = %v, want ErrInvalidNodeID", err)
	}
}

func TestMemoryUpdateNode(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.PutNode(ctx, &Node{ID: "a", Width: 10})

	got, err := m.UpdateNode(ctx, "a", func(n *Node) {
		n.X = 5
		n.ID = "ignored"
		n.State = n.State.Merge(StatePatch{Box: &Box{Width: 10}})
	})
	if err != nil {
		t.Fatalf("UpdateNode error: %v", err)
	}
	if got.ID != "a" || got.X != 5 {
		t.Errorf("UpdateNode = %+v, want id a at x 5", got)
	}
	stored, _ := m.Node(ctx, "a")
	if stored.State.Box == nil || stored.State.Box.Width != 10 {
		t.Errorf("stored box = %+v, want width 10", stored.State.Box)
	}
}

func TestMemoryAttachedConnectorOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, id := range []string{"p", "a", "b", "q"} {
		_ = m.PutNode(ctx, &Node{ID: id})
	}
	_ = m.PutConnector(ctx, conn("c1", "p", "a"))
	_ = m.PutConnector(ctx, conn("c2", "p", "b"))
	_ = m.PutConnector(ctx, conn("c3", "q", "a"))

	got, err := m.AttachedConnectors(ctx, "a")
	if err != nil {
		t.Fatalf("AttachedConnectors error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c1" || got[1].ID != "c3" {
		t.Fatalf("AttachedConnectors(a) = %v, want [c1 c3]", got)
	}

	// Toggling visibility keeps attachment order
	if err := m.UpdateConnector(ctx, "c1", func(c *Connector) { c.Visible = false }); err != nil {
		t.Fatalf("UpdateConnector error: %v", err)
	}
	got, _ = m.AttachedConnectors(ctx, "a")
	if got[0].ID != "c1" || got[0].Visible {
		t.Errorf("after update: %v, want c1 hidden first", got)
	}

	// Deleting detaches from both ends
	if err := m.DeleteConnector(ctx, "c2"); err != nil {
		t.Fatalf("DeleteConnector error: %v", err)
	}
	got, _ = m.AttachedConnectors(ctx, "p")
	if len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("AttachedConnectors(p) = %v, want [c1]", got)
	}
}

func TestMemoryDeleteNodeLeavesConnectors(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.PutNode(ctx, &Node{ID: "p"})
	_ = m.PutNode(ctx, &Node{ID: "a"})
	_ = m.PutConnector(ctx, conn("c1", "p", "a"))

	if err := m.DeleteNode(ctx, "a"); err != nil {
		t.Fatalf("DeleteNode error: %v", err)
	}
	got, _ := m.AttachedConnectors(ctx, "p")
	if len(got) != 1 {
		t.Errorf("connector should stay attached to p, got %v", got)
	}
	nodes, _ := m.Nodes(ctx)
	if len(nodes) != 1 || nodes[0].ID != "p" {
		t.Errorf("Nodes = %v, want [p]", nodes)
	}
}

func TestMemoryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory()
	if _, err := m.Node(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("Node error = %v, want context.Canceled", err)
	}
}

func TestNodeStateMerge(t *testing.T) {
	hide := true
	count := 3
	s := NodeState{HeightWOTip: 120}.Merge(StatePatch{HideChildren: &hide, ChildrenCount: &count})
	if !s.HideChildren || s.ChildrenCount != 3 || s.HeightWOTip != 120 {
		t.Errorf("Merge = %+v", s)
	}

	s = s.Merge(StatePatch{Box: &Box{Width: 1}})
	s = s.Merge(StatePatch{ClearBox: true})
	if s.Box != nil {
		t.Errorf("ClearBox left %+v", s.Box)
	}
}
