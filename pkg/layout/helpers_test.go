package layout

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/cardtree/pkg/canvas"
	"github.com/matzehuels/cardtree/pkg/observability"
)

// fixture builds canvases for tests. Node ids double as names.
type fixture struct {
	t     *testing.T
	store *canvas.Memory
	spy   *spyHooks
	eng   *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, store: canvas.NewMemory(), spy: &spyHooks{}}
	f.eng = New(f.store, WithHooks(f.spy))
	return f
}

func (f *fixture) node(id string, x, width float64) *fixture {
	f.t.Helper()
	n := &canvas.Node{ID: id, X: x, Width: width, Height: 160, Visible: true}
	if err := f.store.PutNode(context.Background(), n); err != nil {
		f.t.Fatalf("PutNode(%s): %v", id, err)
	}
	return f
}

// link connects parent to child the way the card actions do: parent BOTTOM
// to child TOP.
func (f *fixture) link(parent, child string) *fixture {
	f.t.Helper()
	c := canvas.Connector{
		ID:      parent + "->" + child,
		Start:   canvas.Endpoint{NodeID: parent, Magnet: canvas.MagnetBottom},
		End:     canvas.Endpoint{NodeID: child, Magnet: canvas.MagnetTop},
		Visible: true,
	}
	if err := f.store.PutConnector(context.Background(), c); err != nil {
		f.t.Fatalf("PutConnector: %v", err)
	}
	return f
}

func (f *fixture) get(id string) *canvas.Node {
	f.t.Helper()
	n, err := f.store.Node(context.Background(), id)
	if err != nil || n == nil {
		f.t.Fatalf("Node(%s) = %v, %v", id, n, err)
	}
	return n
}

func (f *fixture) box(id string) canvas.Box {
	f.t.Helper()
	n := f.get(id)
	if n.State.Box == nil {
		f.t.Fatalf("node %s has no cached box", id)
	}
	return *n.State.Box
}

func (f *fixture) connector(id string) canvas.Connector {
	f.t.Helper()
	conns, _ := f.store.Connectors(context.Background())
	for _, c := range conns {
		if c.ID == id {
			return c
		}
	}
	f.t.Fatalf("connector %s not found", id)
	return canvas.Connector{}
}

func (f *fixture) positions() map[string][2]float64 {
	nodes, _ := f.store.Nodes(context.Background())
	out := make(map[string][2]float64, len(nodes))
	for _, n := range nodes {
		out[n.ID] = [2]float64{n.X, n.Y}
	}
	return out
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// spyHooks records layout events.
type spyHooks struct {
	observability.NoopLayoutHooks

	mu        sync.Mutex
	steps     []string
	full      []bool
	dangling  []string
	multi     []string
	boxUpdate int
}

func (s *spyHooks) OnReposition(_ context.Context, nodeID, direction string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, direction+":"+nodeID)
}

func (s *spyHooks) OnCascadeComplete(_ context.Context, _ string, full bool, _ time.Duration, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.full = append(s.full, full)
}

func (s *spyHooks) OnDanglingEndpoint(_ context.Context, _, nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dangling = append(s.dangling, nodeID)
}

func (s *spyHooks) OnMultiParent(_ context.Context, nodeID string, _ int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.multi = append(s.multi, nodeID)
}

func (s *spyHooks) OnBoxUpdate(context.Context, string, float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxUpdate++
}

// count returns how many steps ran in direction d.
func (s *spyHooks) count(d Direction) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	prefix := d.String() + ":"
	for _, step := range s.steps {
		if strings.HasPrefix(step, prefix) {
			n++
		}
	}
	return n
}

func (s *spyHooks) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps, s.full, s.dangling, s.multi, s.boxUpdate = nil, nil, nil, nil, 0
}
