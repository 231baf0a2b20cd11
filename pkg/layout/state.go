package layout

import (
	"context"

	"github.com/matzehuels/cardtree/pkg/canvas"
)

// cachedBox returns the persisted box of id without computing one.
func (e *Engine) cachedBox(ctx context.Context, id string) (canvas.Box, bool, error) {
	n, err := e.node(ctx, id)
	if err != nil {
		return canvas.Box{}, false, err
	}
	if n.State.Box == nil {
		return canvas.Box{}, false, nil
	}
	return *n.State.Box, true, nil
}

func (e *Engine) setBox(ctx context.Context, id string, box canvas.Box) (canvas.Box, error) {
	if err := e.patch(ctx, id, canvas.StatePatch{Box: &box}); err != nil {
		return canvas.Box{}, err
	}
	e.logger.Debug("box", "node", id, "width", box.Width, "xOffset", box.XOffset)
	e.hook().OnBoxUpdate(ctx, id, box.Width, box.XOffset)
	return box, nil
}

// Invalidate drops the cached box of id. The next read recomputes it.
func (e *Engine) Invalidate(ctx context.Context, id string) error {
	return e.patch(ctx, id, canvas.StatePatch{ClearBox: true})
}

// SetHeightWOTip records the height to use for vertical placement of the
// node's children while its displayed height includes the expand tip.
// Zero clears the override.
func (e *Engine) SetHeightWOTip(ctx context.Context, id string, height float64) error {
	return e.patch(ctx, id, canvas.StatePatch{HeightWOTip: &height})
}

func (e *Engine) patch(ctx context.Context, id string, p canvas.StatePatch) error {
	_, err := e.store.UpdateNode(ctx, id, func(n *canvas.Node) {
		n.State = n.State.Merge(p)
	})
	if err != nil {
		return storeErr(err, "update state of %s", id)
	}
	return nil
}

// move writes a new position for id and returns the updated node.
func (e *Engine) move(ctx context.Context, id string, x, y float64) (*canvas.Node, error) {
	n, err := e.store.UpdateNode(ctx, id, func(n *canvas.Node) {
		n.X, n.Y = x, y
	})
	if err != nil {
		return nil, storeErr(err, "move %s", id)
	}
	return n, nil
}

func (e *Engine) setVisible(ctx context.Context, l Link, visible bool) error {
	if _, err := e.store.UpdateNode(ctx, l.Node.ID, func(n *canvas.Node) { n.Visible = visible }); err != nil {
		return storeErr(err, "set visibility of %s", l.Node.ID)
	}
	if err := e.store.UpdateConnector(ctx, l.Connector.ID, func(c *canvas.Connector) { c.Visible = visible }); err != nil {
		return storeErr(err, "set visibility of connector %s", l.Connector.ID)
	}
	return nil
}

// effectiveHeight is the height children are placed below.
func effectiveHeight(n *canvas.Node) float64 {
	if n.State.HeightWOTip > 0 {
		return n.State.HeightWOTip
	}
	return n.Height
}
