package layout

import (
	"context"

	"github.com/matzehuels/cardtree/pkg/canvas"
)

// Collapse hides the subtree below id, deepest nodes first, together with
// the connectors leading to them. It records the number of direct children
// and marks id as collapsed when it has any. The count is returned.
//
// Collapse does not move anything; follow it with a cascade.
func (e *Engine) Collapse(ctx context.Context, id string) (int, error) {
	return e.collapse(ctx, id, trail{})
}

func (e *Engine) collapse(ctx context.Context, id string, path trail) (int, error) {
	if err := path.enter(id); err != nil {
		return 0, err
	}
	defer path.leave(id)

	c, err := e.Connections(ctx, id)
	if err != nil {
		return 0, err
	}
	for _, child := range c.Children {
		if _, err := e.collapse(ctx, child.Node.ID, path); err != nil {
			return 0, err
		}
		if err := e.setVisible(ctx, child, false); err != nil {
			return 0, err
		}
	}

	count := len(c.Children)
	p := canvas.StatePatch{ChildrenCount: &count}
	if count > 0 {
		hide := true
		p.HideChildren = &hide
	}
	if err := e.patch(ctx, id, p); err != nil {
		return 0, err
	}
	e.logger.Debug("collapsed", "node", id, "children", count)
	return count, nil
}

// Expand shows the direct children of id and their connectors, and the
// whole subtree when recursive is set. It always clears the collapsed flag
// on id and returns the number of direct children.
//
// Expand does not move anything; follow it with a cascade.
func (e *Engine) Expand(ctx context.Context, id string, recursive bool) (int, error) {
	return e.expand(ctx, id, recursive, trail{})
}

func (e *Engine) expand(ctx context.Context, id string, recursive bool, path trail) (int, error) {
	if err := path.enter(id); err != nil {
		return 0, err
	}
	defer path.leave(id)

	c, err := e.Connections(ctx, id)
	if err != nil {
		return 0, err
	}
	for _, child := range c.Children {
		if err := e.setVisible(ctx, child, true); err != nil {
			return 0, err
		}
		if recursive {
			if _, err := e.expand(ctx, child.Node.ID, recursive, path); err != nil {
				return 0, err
			}
		}
	}

	hide := false
	if err := e.patch(ctx, id, canvas.StatePatch{HideChildren: &hide}); err != nil {
		return 0, err
	}
	e.logger.Debug("expanded", "node", id, "children", len(c.Children), "recursive", recursive)
	return len(c.Children), nil
}
