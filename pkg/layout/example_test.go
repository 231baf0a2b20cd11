package layout_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/cardtree/pkg/canvas"
	"github.com/matzehuels/cardtree/pkg/layout"
)

func ExampleEngine_AutoLayout() {
	ctx := context.Background()
	store := canvas.NewMemory()

	_ = store.PutNode(ctx, &canvas.Node{ID: "root", Width: 400, Height: 160, Visible: true})
	for i, child := range []string{"left", "right"} {
		_ = store.PutNode(ctx, &canvas.Node{ID: child, X: float64(i), Width: 400, Height: 160, Visible: true})
		_ = store.PutConnector(ctx, canvas.Connector{
			ID:      "root-" + child,
			Start:   canvas.Endpoint{NodeID: "root", Magnet: canvas.MagnetBottom},
			End:     canvas.Endpoint{NodeID: child, Magnet: canvas.MagnetTop},
			Visible: true,
		})
	}

	eng := layout.New(store)
	if err := eng.AutoLayout(ctx, "root"); err != nil {
		fmt.Println(err)
		return
	}

	box, _ := eng.GetBox(ctx, "root")
	fmt.Printf("root box: width=%g xOffset=%g\n", box.Width, box.XOffset)
	for _, id := range []string{"left", "right"} {
		n, _ := store.Node(ctx, id)
		fmt.Printf("%s: x=%g y=%g\n", id, n.X, n.Y)
	}
	// Output:
	// root box: width=880 xOffset=240
	// left: x=-240 y=240
	// right: x=240 y=240
}

func ExampleEngine_CascadeLayoutChange() {
	ctx := context.Background()
	doc := &canvas.Document{
		Nodes: []canvas.Node{
			{ID: "root", Width: 400, Height: 160, Visible: true},
			{ID: "only", X: 900, Y: 900, Width: 200, Height: 160, Visible: true},
		},
		Connectors: []canvas.Connector{{
			ID:      "c",
			Start:   canvas.Endpoint{NodeID: "root", Magnet: canvas.MagnetBottom},
			End:     canvas.Endpoint{NodeID: "only", Magnet: canvas.MagnetTop},
			Visible: true,
		}},
	}
	store, _ := canvas.NewMemoryFromDocument(doc)

	eng := layout.New(store)
	if err := eng.CascadeLayoutChange(ctx, "only"); err != nil {
		fmt.Println(err)
		return
	}

	root, _ := store.Node(ctx, "root")
	fmt.Printf("root re-centered at x=%g\n", root.X)
	// Output:
	// root re-centered at x=800
}
