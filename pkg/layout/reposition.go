package layout

import (
	"context"
	"fmt"

	"github.com/matzehuels/cardtree/pkg/canvas"
	errs "github.com/matzehuels/cardtree/pkg/errors"
)

// Direction selects a repositioning pass.
type Direction int

const (
	// Down snaps the node's subtree beneath it.
	Down Direction = iota
	// Across re-levels the node's siblings around it.
	Across
	// Up re-centers ancestors over their children, up to the root.
	Up
)

func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Across:
		return "across"
	case Up:
		return "up"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection parses "down", "across" or "up".
func ParseDirection(s string) (Direction, error) {
	for _, d := range []Direction{Down, Across, Up} {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, errs.New(errs.ErrCodeInvalidInput, "unknown direction %q", s)
}

// Reposition moves nodes around id in direction d. It never recomputes the
// box of id itself; callers keep boxes fresh.
func (e *Engine) Reposition(ctx context.Context, id string, d Direction) error {
	switch d {
	case Down:
		return e.down(ctx, id, trail{})
	case Across:
		return e.across(ctx, id)
	case Up:
		return e.up(ctx, id, trail{})
	}
	return errs.New(errs.ErrCodeInvalidInput, "unknown direction %v", d)
}

// down places every child of id on the tier below it, left to right, each
// box one horizontal margin from the previous, then recurses into each
// child. Running it twice on an unchanged subtree moves nothing.
func (e *Engine) down(ctx context.Context, id string, path trail) error {
	if err := path.enter(id); err != nil {
		return err
	}
	defer path.leave(id)

	e.step(ctx, id, Down)
	c, err := e.Connections(ctx, id)
	if err != nil {
		return err
	}
	if len(c.Children) == 0 {
		return nil
	}

	anchor := c.Node
	anchorBox, err := e.GetBox(ctx, anchor.ID)
	if err != nil {
		return err
	}
	y := anchor.Y + effectiveHeight(anchor) + e.margin.Vertical

	var prevRight float64
	for i, child := range c.Children {
		box, err := e.GetBox(ctx, child.Node.ID)
		if err != nil {
			return err
		}
		x := prevRight + e.margin.Horizontal + box.XOffset
		if i == 0 {
			x = anchorBox.Left(anchor.X) + box.XOffset
		}
		if _, err := e.move(ctx, child.Node.ID, x, y); err != nil {
			return err
		}
		prevRight = box.Right(x)

		if err := e.down(ctx, child.Node.ID, path); err != nil {
			return err
		}
	}
	return nil
}

// across moves the siblings of id so their boxes sit one horizontal margin
// apart, walking outward from id in both directions. id itself stays put.
func (e *Engine) across(ctx context.Context, id string) error {
	e.step(ctx, id, Across)
	c, err := e.Connections(ctx, id)
	if err != nil {
		return err
	}
	parent, ok := c.Primary()
	if !ok {
		return nil
	}

	pc, err := e.Connections(ctx, parent.Node.ID)
	if err != nil {
		return err
	}
	siblings := pc.Children
	self := pc.ChildIndex(id)
	if self < 0 {
		return errs.New(errs.ErrCodeGraphInconsistent,
			"node %s is not among the children of its parent %s", id, parent.Node.ID)
	}

	place := func(i int, x float64) error {
		moved, err := e.move(ctx, siblings[i].Node.ID, x, siblings[i].Node.Y)
		if err != nil {
			return err
		}
		siblings[i].Node = moved
		return e.down(ctx, moved.ID, trail{})
	}

	for i := self - 1; i >= 0; i-- {
		ref, refBox, moveBox, err := e.pair(ctx, siblings[i+1], siblings[i])
		if err != nil {
			return err
		}
		x := refBox.Left(ref.X) - e.margin.Horizontal - moveBox.Width + moveBox.XOffset
		if err := place(i, x); err != nil {
			return err
		}
	}
	for i := self + 1; i < len(siblings); i++ {
		ref, refBox, moveBox, err := e.pair(ctx, siblings[i-1], siblings[i])
		if err != nil {
			return err
		}
		x := refBox.Right(ref.X) + e.margin.Horizontal + moveBox.XOffset
		if err := place(i, x); err != nil {
			return err
		}
	}
	return nil
}

// pair loads the boxes of a reference sibling and the sibling to move.
func (e *Engine) pair(ctx context.Context, ref, move Link) (*canvas.Node, canvas.Box, canvas.Box, error) {
	refBox, err := e.GetBox(ctx, ref.Node.ID)
	if err != nil {
		return nil, canvas.Box{}, canvas.Box{}, err
	}
	moveBox, err := e.GetBox(ctx, move.Node.ID)
	if err != nil {
		return nil, canvas.Box{}, canvas.Box{}, err
	}
	return ref.Node, refBox, moveBox, nil
}

// up refreshes the primary parent's box, re-centers the parent over its
// children, then continues across and up from the parent. Roots end the
// walk.
func (e *Engine) up(ctx context.Context, id string, path trail) error {
	if err := path.enter(id); err != nil {
		return err
	}
	defer path.leave(id)

	e.step(ctx, id, Up)
	c, err := e.Connections(ctx, id)
	if err != nil {
		return err
	}
	parent, ok := c.Primary()
	if !ok {
		return nil
	}

	pc, err := e.Connections(ctx, parent.Node.ID)
	if err != nil {
		return err
	}
	if len(pc.Children) == 0 {
		return errs.New(errs.ErrCodeGraphInconsistent,
			"parent %s of node %s has no children", parent.Node.ID, id)
	}
	parentBox, err := e.updateParentBox(ctx, pc)
	if err != nil {
		return err
	}

	first := pc.Children[0]
	firstBox, err := e.GetBox(ctx, first.Node.ID)
	if err != nil {
		return err
	}
	x := firstBox.Left(first.Node.X) + parentBox.XOffset
	if _, err := e.move(ctx, parent.Node.ID, x, pc.Node.Y); err != nil {
		return err
	}

	if err := e.across(ctx, parent.Node.ID); err != nil {
		return err
	}
	return e.up(ctx, parent.Node.ID, path)
}

func (e *Engine) step(ctx context.Context, id string, d Direction) {
	e.logger.Debug("reposition", "node", id, "direction", d)
	e.hook().OnReposition(ctx, id, d.String())
}
