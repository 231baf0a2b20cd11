package layout

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/matzehuels/cardtree/pkg/canvas"
	errs "github.com/matzehuels/cardtree/pkg/errors"
)

func rootWithTwoChildren(t *testing.T) *fixture {
	return newFixture(t).
		node("r", 0, 400).
		node("a", 1000, 400).
		node("b", 2000, 400).
		link("r", "a").
		link("r", "b")
}

// deepTree has uneven widths so boxes bleed on both sides.
func deepTree(t *testing.T) *fixture {
	return newFixture(t).
		node("r", 0, 400).
		node("a", 10, 400).
		node("b", 20, 200).
		node("a1", 0, 100).
		node("a2", 5, 300).
		node("a3", 9, 150).
		node("b1", 30, 600).
		link("r", "a").
		link("r", "b").
		link("a", "a1").
		link("a", "a2").
		link("a", "a3").
		link("b", "b1")
}

func TestAutoLayoutTwoChildren(t *testing.T) {
	f := rootWithTwoChildren(t)
	if err := f.eng.AutoLayout(context.Background(), "r"); err != nil {
		t.Fatalf("AutoLayout error: %v", err)
	}

	if got, want := f.box("r"), (canvas.Box{Width: 880, XOffset: 240}); got != want {
		t.Errorf("r.box = %+v, want %+v", got, want)
	}
	if got, want := f.box("a"), canvas.LeafBox(400); got != want {
		t.Errorf("a.box = %+v, want %+v", got, want)
	}

	r, a, b := f.get("r"), f.get("a"), f.get("b")
	if a.X != r.X-240 {
		t.Errorf("a.X = %v, want %v", a.X, r.X-240)
	}
	if want := a.X + 400 + 80; b.X != want {
		t.Errorf("b.X = %v, want %v", b.X, want)
	}
	for _, n := range []*canvas.Node{a, b} {
		if n.Y != 240 {
			t.Errorf("%s.Y = %v, want 240", n.ID, n.Y)
		}
	}
	if r.X != 0 || r.Y != 0 {
		t.Errorf("root moved to (%v, %v)", r.X, r.Y)
	}
}

func TestAutoLayoutCustomMargin(t *testing.T) {
	f := rootWithTwoChildren(t)
	f.eng = New(f.store, WithMargin(Margin{Vertical: 40, Horizontal: 20}))
	if err := f.eng.AutoLayout(context.Background(), "r"); err != nil {
		t.Fatalf("AutoLayout error: %v", err)
	}

	if got, want := f.box("r"), (canvas.Box{Width: 820, XOffset: 210}); got != want {
		t.Errorf("r.box = %+v, want %+v", got, want)
	}
	a, b := f.get("a"), f.get("b")
	if a.X != -210 || a.Y != 200 {
		t.Errorf("a = (%v, %v), want (-210, 200)", a.X, a.Y)
	}
	if b.X != 210 {
		t.Errorf("b.X = %v, want 210", b.X)
	}
}

func TestDownIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := deepTree(t)
	if err := f.eng.AutoLayout(ctx, "r"); err != nil {
		t.Fatalf("AutoLayout error: %v", err)
	}
	first := f.positions()

	for i := 0; i < 2; i++ {
		if err := f.eng.Reposition(ctx, "r", Down); err != nil {
			t.Fatalf("Reposition error: %v", err)
		}
		if got := f.positions(); !reflect.DeepEqual(got, first) {
			t.Fatalf("pass %d moved nodes:\n got %v\nwant %v", i+2, got, first)
		}
	}
}

func TestCascadeInvariants(t *testing.T) {
	ctx := context.Background()
	f := deepTree(t)
	if err := f.eng.CascadeLayoutChange(ctx, "r"); err != nil {
		t.Fatalf("CascadeLayoutChange error: %v", err)
	}
	checkInvariants(t, f, "r")
}

// checkInvariants walks the subtree of id and asserts that every internal
// node is centered over its children and that sibling boxes are exactly one
// horizontal margin apart.
func checkInvariants(t *testing.T, f *fixture, id string) {
	t.Helper()
	c, err := f.eng.Connections(context.Background(), id)
	if err != nil {
		t.Fatalf("Connections(%s): %v", id, err)
	}
	if len(c.Children) == 0 {
		return
	}

	first, last := c.Children[0].Node, c.Children[len(c.Children)-1].Node
	center := c.Node.X + c.Node.Width/2
	mid := (first.X + last.X + last.Width) / 2
	if !approx(center, mid) {
		t.Errorf("%s: center %v, children midpoint %v", id, center, mid)
	}

	h := f.eng.Margin().Horizontal
	for i := 1; i < len(c.Children); i++ {
		prev, next := c.Children[i-1].Node, c.Children[i].Node
		gap := f.box(next.ID).Left(next.X) - f.box(prev.ID).Right(prev.X)
		if !approx(gap, h) {
			t.Errorf("%s: gap between %s and %s = %v, want %v", id, prev.ID, next.ID, gap, h)
		}
	}

	for _, child := range c.Children {
		checkInvariants(t, f, child.Node.ID)
	}
}

func TestCascadeFullRepair(t *testing.T) {
	ctx := context.Background()
	f := rootWithTwoChildren(t)
	if err := f.eng.AutoLayout(ctx, "r"); err != nil {
		t.Fatalf("AutoLayout error: %v", err)
	}

	// a grows two children, widening its box
	f.node("a1", 5000, 400).node("a2", 6000, 400).link("a", "a1").link("a", "a2")
	f.spy.reset()

	if err := f.eng.CascadeLayoutChange(ctx, "a"); err != nil {
		t.Fatalf("CascadeLayoutChange error: %v", err)
	}
	if len(f.spy.full) != 1 || !f.spy.full[0] {
		t.Errorf("cascade full = %v, want [true]", f.spy.full)
	}

	want := map[string][2]float64{
		"r":  {120, 0},
		"a":  {-240, 240},
		"b":  {480, 240},
		"a1": {-480, 480},
		"a2": {0, 480},
	}
	if got := f.positions(); !reflect.DeepEqual(got, want) {
		t.Errorf("positions:\n got %v\nwant %v", got, want)
	}
	if got, want := f.box("r"), (canvas.Box{Width: 1360, XOffset: 600}); got != want {
		t.Errorf("r.box = %+v, want %+v", got, want)
	}
	checkInvariants(t, f, "r")
}

func TestCascadeShortcutOnlyRunsDown(t *testing.T) {
	ctx := context.Background()
	f := rootWithTwoChildren(t)
	if err := f.eng.AutoLayout(ctx, "r"); err != nil {
		t.Fatalf("AutoLayout error: %v", err)
	}

	// Drag a without changing any width
	if _, err := f.store.UpdateNode(ctx, "a", func(n *canvas.Node) { n.X, n.Y = -300, 999 }); err != nil {
		t.Fatal(err)
	}
	f.spy.reset()

	if err := f.eng.CascadeLayoutChange(ctx, "r"); err != nil {
		t.Fatalf("CascadeLayoutChange error: %v", err)
	}
	if n := f.spy.count(Across); n != 0 {
		t.Errorf("across ran %d times, want 0", n)
	}
	if n := f.spy.count(Up); n != 0 {
		t.Errorf("up ran %d times, want 0", n)
	}
	if f.spy.count(Down) == 0 {
		t.Error("down should run")
	}
	if len(f.spy.full) != 1 || f.spy.full[0] {
		t.Errorf("cascade full = %v, want [false]", f.spy.full)
	}
	if a := f.get("a"); a.X != -240 || a.Y != 240 {
		t.Errorf("a = (%v, %v), want re-snapped to (-240, 240)", a.X, a.Y)
	}
}

func TestCascadeWithoutCachedBoxIsFull(t *testing.T) {
	f := rootWithTwoChildren(t)
	if err := f.eng.CascadeLayoutChange(context.Background(), "a"); err != nil {
		t.Fatalf("CascadeLayoutChange error: %v", err)
	}
	if f.spy.count(Across) == 0 || f.spy.count(Up) == 0 {
		t.Errorf("steps = %v, want across and up", f.spy.steps)
	}
}

func TestCollapseThreeChildren(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t).
		node("r", 0, 400).
		node("c1", 0, 400).
		node("c2", 1, 400).
		node("c3", 2, 400).
		link("r", "c1").
		link("r", "c2").
		link("r", "c3")
	if err := f.eng.AutoLayout(ctx, "r"); err != nil {
		t.Fatalf("AutoLayout error: %v", err)
	}

	n, err := f.eng.Collapse(ctx, "r")
	if err != nil {
		t.Fatalf("Collapse error: %v", err)
	}
	if n != 3 {
		t.Errorf("Collapse = %d, want 3", n)
	}

	r := f.get("r")
	if !r.State.HideChildren || r.State.ChildrenCount != 3 {
		t.Errorf("r.State = %+v, want hidden with 3 children", r.State)
	}
	for _, id := range []string{"c1", "c2", "c3"} {
		if f.get(id).Visible {
			t.Errorf("%s should be hidden", id)
		}
		if f.connector("r->" + id).Visible {
			t.Errorf("connector to %s should be hidden", id)
		}
	}

	box, err := f.eng.UpdateBox(ctx, "r")
	if err != nil {
		t.Fatalf("UpdateBox error: %v", err)
	}
	if want := canvas.LeafBox(400); box != want {
		t.Errorf("collapsed box = %+v, want %+v", box, want)
	}
}

func TestCollapseLeaf(t *testing.T) {
	f := newFixture(t).node("leaf", 0, 100)
	n, err := f.eng.Collapse(context.Background(), "leaf")
	if err != nil || n != 0 {
		t.Fatalf("Collapse = %d, %v; want 0, nil", n, err)
	}
	if s := f.get("leaf").State; s.HideChildren {
		t.Errorf("leaf should not be marked collapsed: %+v", s)
	}
}

func TestCollapseExpandRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := deepTree(t)

	if _, err := f.eng.Collapse(ctx, "r"); err != nil {
		t.Fatalf("Collapse error: %v", err)
	}
	if !f.get("a").State.HideChildren {
		t.Error("nested subtree a should be collapsed too")
	}

	n, err := f.eng.Expand(ctx, "r", true)
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if n != 2 {
		t.Errorf("Expand = %d, want 2", n)
	}

	nodes, _ := f.store.Nodes(ctx)
	for _, n := range nodes {
		if !n.Visible {
			t.Errorf("%s still hidden", n.ID)
		}
		if n.State.HideChildren {
			t.Errorf("%s still marked collapsed", n.ID)
		}
	}
	conns, _ := f.store.Connectors(ctx)
	for _, c := range conns {
		if !c.Visible {
			t.Errorf("connector %s still hidden", c.ID)
		}
	}
}

func TestExpandOneLevel(t *testing.T) {
	ctx := context.Background()
	f := deepTree(t)
	if _, err := f.eng.Collapse(ctx, "r"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.Expand(ctx, "r", false); err != nil {
		t.Fatalf("Expand error: %v", err)
	}

	if f.get("r").State.HideChildren {
		t.Error("r should be expanded")
	}
	if !f.get("a").Visible || !f.get("b").Visible {
		t.Error("direct children should be visible")
	}
	if f.get("a1").Visible {
		t.Error("grandchild a1 should stay hidden")
	}
	if !f.get("a").State.HideChildren {
		t.Error("a should stay collapsed")
	}
}

func TestDanglingEndpointIsSkipped(t *testing.T) {
	f := newFixture(t).node("r", 0, 400).node("a", 50, 400).link("r", "a").link("r", "ghost")

	if err := f.eng.AutoLayout(context.Background(), "r"); err != nil {
		t.Fatalf("AutoLayout error: %v", err)
	}
	if got, want := f.box("r"), canvas.LeafBox(400); got != want {
		t.Errorf("r.box = %+v, want %+v", got, want)
	}
	if a := f.get("a"); a.X != 0 || a.Y != 240 {
		t.Errorf("a = (%v, %v), want (0, 240)", a.X, a.Y)
	}
	if len(f.spy.dangling) == 0 || f.spy.dangling[0] != "ghost" {
		t.Errorf("dangling = %v, want ghost reported", f.spy.dangling)
	}
	// The connector itself is never pruned
	f.connector("r->ghost")
}

func TestAcrossOnCorruptGraph(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t).node("a", 0, 100).node("b", 0, 100)
	// Neither end is BOTTOM, so each node sees the other as its parent
	_ = f.store.PutConnector(ctx, canvas.Connector{
		ID:      "odd",
		Start:   canvas.Endpoint{NodeID: "a", Magnet: canvas.MagnetTop},
		End:     canvas.Endpoint{NodeID: "b", Magnet: canvas.MagnetTop},
		Visible: true,
	})

	err := f.eng.Reposition(ctx, "a", Across)
	if !errs.Is(err, errs.ErrCodeGraphInconsistent) {
		t.Errorf("Reposition(across) error = %v, want GRAPH_INCONSISTENT", err)
	}

	err = f.eng.CascadeLayoutChange(ctx, "a")
	if !errs.Is(err, errs.ErrCodeGraphInconsistent) {
		t.Errorf("CascadeLayoutChange error = %v, want GRAPH_INCONSISTENT", err)
	}
}

func TestCycleIsRejected(t *testing.T) {
	f := newFixture(t).node("r", 0, 100).node("a", 0, 100).link("r", "a").link("a", "r")

	_, err := f.eng.UpdateBox(context.Background(), "r")
	if !errs.Is(err, errs.ErrCodeCycle) {
		t.Errorf("UpdateBox error = %v, want CYCLE", err)
	}
	err = f.eng.Reposition(context.Background(), "r", Down)
	if !errs.Is(err, errs.ErrCodeCycle) {
		t.Errorf("Reposition(down) error = %v, want CYCLE", err)
	}
}

func TestUpLeavesTrailEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t).node("r", 0, 400).node("a", 0, 400).node("b", 0, 400).link("r", "a").link("a", "b")
	if err := f.eng.AutoLayout(ctx, "r"); err != nil {
		t.Fatal(err)
	}

	path := trail{}
	if err := f.eng.up(ctx, "b", path); err != nil {
		t.Fatalf("up error: %v", err)
	}
	if len(path) != 0 {
		t.Errorf("trail after up = %v, want empty", path)
	}
	if err := f.eng.up(ctx, "b", path); err != nil {
		t.Errorf("second up on the same trail: %v", err)
	}
}

func TestMultiParentUsesFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t).
		node("p", 0, 400).
		node("q", 2000, 400).
		node("a", 500, 400).
		link("p", "a").
		link("q", "a")

	c, err := f.eng.Connections(ctx, "a")
	if err != nil {
		t.Fatalf("Connections error: %v", err)
	}
	primary, ok := c.Primary()
	if !ok || primary.Node.ID != "p" {
		t.Errorf("Primary = %v, want p", primary.Node)
	}
	if len(f.spy.multi) == 0 || f.spy.multi[0] != "a" {
		t.Errorf("multi = %v, want a reported", f.spy.multi)
	}

	if err := f.eng.CascadeLayoutChange(ctx, "a"); err != nil {
		t.Fatalf("CascadeLayoutChange error: %v", err)
	}
	if p := f.get("p"); p.X != 500 {
		t.Errorf("p.X = %v, want 500 (centered over a)", p.X)
	}
	if q := f.get("q"); q.X != 2000 {
		t.Errorf("q.X = %v, secondary parent should not move", q.X)
	}
}

func TestHeightWOTip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t).node("r", 0, 400).node("a", 0, 400).link("r", "a")

	if err := f.eng.SetHeightWOTip(ctx, "r", 100); err != nil {
		t.Fatal(err)
	}
	if err := f.eng.AutoLayout(ctx, "r"); err != nil {
		t.Fatalf("AutoLayout error: %v", err)
	}
	if a := f.get("a"); a.Y != 180 {
		t.Errorf("a.Y = %v, want 180", a.Y)
	}
}

func TestGetBoxReadThrough(t *testing.T) {
	ctx := context.Background()
	f := rootWithTwoChildren(t)

	if f.get("r").State.Box != nil {
		t.Fatal("box should start empty")
	}
	box, err := f.eng.GetBox(ctx, "r")
	if err != nil {
		t.Fatalf("GetBox error: %v", err)
	}
	if box.Width != 880 || f.box("r") != box {
		t.Errorf("GetBox = %+v, cached %+v", box, f.get("r").State.Box)
	}

	f.spy.reset()
	if _, err := f.eng.GetBox(ctx, "r"); err != nil {
		t.Fatal(err)
	}
	if f.spy.boxUpdate != 0 {
		t.Errorf("cached GetBox recomputed %d boxes", f.spy.boxUpdate)
	}

	if err := f.eng.Invalidate(ctx, "r"); err != nil {
		t.Fatalf("Invalidate error: %v", err)
	}
	if f.get("r").State.Box != nil {
		t.Error("Invalidate should drop the box")
	}
}

func TestErrors(t *testing.T) {
	f := rootWithTwoChildren(t)

	err := f.eng.AutoLayout(context.Background(), "missing")
	if !errs.Is(err, errs.ErrCodeNodeNotFound) {
		t.Errorf("AutoLayout(missing) error = %v, want NODE_NOT_FOUND", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.eng.CascadeLayoutChange(ctx, "r"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled cascade error = %v, want context.Canceled", err)
	}

	if err := f.eng.Reposition(context.Background(), "r", Direction(9)); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("Reposition(bad direction) error = %v", err)
	}
}

func TestRootUpIsNoop(t *testing.T) {
	f := rootWithTwoChildren(t)
	before := f.positions()
	if err := f.eng.Reposition(context.Background(), "r", Up); err != nil {
		t.Fatalf("Reposition(up) error: %v", err)
	}
	if err := f.eng.Reposition(context.Background(), "r", Across); err != nil {
		t.Fatalf("Reposition(across) error: %v", err)
	}
	if got := f.positions(); !reflect.DeepEqual(got, before) {
		t.Errorf("root repositioning moved nodes: %v", got)
	}
}
