package layout

import (
	"context"

	"github.com/matzehuels/cardtree/pkg/canvas"
)

// UpdateBox recomputes and persists the box of id and of every descendant
// below it, children first. A collapsed node or a leaf gets a box of its own
// width; hidden descendants of a collapsed node are not visited.
func (e *Engine) UpdateBox(ctx context.Context, id string) (canvas.Box, error) {
	return e.updateBox(ctx, id, trail{})
}

func (e *Engine) updateBox(ctx context.Context, id string, path trail) (canvas.Box, error) {
	if err := path.enter(id); err != nil {
		return canvas.Box{}, err
	}
	defer path.leave(id)

	c, err := e.Connections(ctx, id)
	if err != nil {
		return canvas.Box{}, err
	}
	if c.Node.State.HideChildren || len(c.Children) == 0 {
		return e.setBox(ctx, id, canvas.LeafBox(c.Node.Width))
	}

	var box canvas.Box
	for _, child := range c.Children {
		b, err := e.updateBox(ctx, child.Node.ID, path)
		if err != nil {
			return canvas.Box{}, err
		}
		box.Width += b.Width
	}
	box.Width += float64(len(c.Children)-1) * e.margin.Horizontal

	if box.XOffset, err = e.calcXOffset(ctx, box.Width, c.Node.Width, c.Children); err != nil {
		return canvas.Box{}, err
	}
	return e.setBox(ctx, id, box)
}

// GetBox returns the cached box of id, computing and persisting it on a miss.
func (e *Engine) GetBox(ctx context.Context, id string) (canvas.Box, error) {
	box, ok, err := e.cachedBox(ctx, id)
	if err != nil || ok {
		return box, err
	}
	return e.UpdateBox(ctx, id)
}

// updateParentBox refreshes the box of id from its children's boxes, which
// are assumed current. Used while propagating upward, where re-walking the
// whole subtree would be wasted work.
func (e *Engine) updateParentBox(ctx context.Context, c *Connections) (canvas.Box, error) {
	if len(c.Children) == 0 {
		return e.setBox(ctx, c.Node.ID, canvas.LeafBox(c.Node.Width))
	}

	var box canvas.Box
	for _, child := range c.Children {
		b, err := e.GetBox(ctx, child.Node.ID)
		if err != nil {
			return canvas.Box{}, err
		}
		box.Width += b.Width
	}
	box.Width += float64(len(c.Children)-1) * e.margin.Horizontal

	var err error
	if box.XOffset, err = e.calcXOffset(ctx, box.Width, c.Node.Width, c.Children); err != nil {
		return canvas.Box{}, err
	}
	return e.setBox(ctx, c.Node.ID, box)
}

func (e *Engine) calcXOffset(ctx context.Context, width, nodeWidth float64, children []Link) (float64, error) {
	first, err := e.GetBox(ctx, children[0].Node.ID)
	if err != nil {
		return 0, err
	}
	lastLink := children[len(children)-1]
	last, err := e.GetBox(ctx, lastLink.Node.ID)
	if err != nil {
		return 0, err
	}
	return CenterOffset(width, nodeWidth, first, last, lastLink.Node.Width), nil
}

// CenterOffset returns the xOffset that centers a node of nodeWidth over a
// children block of total width. The first and last child boxes may bleed
// past their own nodes; that bleed is excluded so the node centers on the
// span between the outer children's nodes, not on the raw block.
func CenterOffset(width, nodeWidth float64, first, last canvas.Box, lastNodeWidth float64) float64 {
	spread := width - first.XOffset - (last.Width - last.XOffset - lastNodeWidth)
	return first.XOffset + (spread-nodeWidth)/2
}
