package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/cardtree/pkg/canvas"
	"github.com/matzehuels/cardtree/pkg/layout"
)

func TestSpinnerShowsDetail(t *testing.T) {
	var buf bytes.Buffer
	s := startSpinner(context.Background(), &buf, "Laying out", func() string { return "2 boxes, 5 steps" })
	time.Sleep(3 * spinnerInterval)
	s.finish()

	out := buf.String()
	if !strings.Contains(out, "Laying out") || !strings.Contains(out, "2 boxes, 5 steps") {
		t.Errorf("spinner output = %q", out)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("spinner did not clear its line: %q", out)
	}
}

func TestSpinnerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	s := startSpinner(ctx, &buf, "Cascading", nil)
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("spinner kept running after cancel")
	}
	s.finish()
}

func TestSpinnerFinishIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := startSpinner(context.Background(), &buf, "Rendering canvas", nil)
	s.finish()
	s.finish()
}

func TestLayoutProgressCountsEngineWork(t *testing.T) {
	ctx := context.Background()
	store := canvas.NewMemory()
	for i, id := range []string{"r", "a", "b"} {
		_ = store.PutNode(ctx, &canvas.Node{ID: id, X: float64(i), Width: 400, Height: 160, Visible: true})
	}
	for _, child := range []string{"a", "b"} {
		_ = store.PutConnector(ctx, canvas.Connector{
			ID:      "r-" + child,
			Start:   canvas.Endpoint{NodeID: "r", Magnet: canvas.MagnetBottom},
			End:     canvas.Endpoint{NodeID: child, Magnet: canvas.MagnetTop},
			Visible: true,
		})
	}

	counts := &layoutProgress{}
	if err := layout.New(store, layout.WithHooks(counts)).AutoLayout(ctx, "r"); err != nil {
		t.Fatal(err)
	}
	if counts.boxes.Load() < 3 {
		t.Errorf("boxes = %d, want at least one per card", counts.boxes.Load())
	}
	if counts.steps.Load() == 0 {
		t.Error("no reposition steps counted")
	}
	if got := counts.String(); !strings.Contains(got, " boxes, ") || !strings.HasSuffix(got, " steps") {
		t.Errorf("String() = %q", got)
	}
}
