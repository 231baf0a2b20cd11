package cards

import (
	"context"
	"slices"

	"github.com/matzehuels/cardtree/pkg/canvas"
	errs "github.com/matzehuels/cardtree/pkg/errors"
)

// Action is a card property menu entry.
type Action string

const (
	ActionNewTop     Action = "new-top"
	ActionNewBottom  Action = "new-bottom"
	ActionNewLeft    Action = "new-left"
	ActionNewRight   Action = "new-right"
	ActionAutoLayout Action = "auto-layout"
	ActionCollapse   Action = "collapse"
	ActionExpandAll  Action = "expand-all"
	ActionExpandTip  Action = "expand-tip"
)

var actions = []Action{
	ActionNewTop, ActionNewBottom, ActionNewLeft, ActionNewRight,
	ActionAutoLayout, ActionCollapse, ActionExpandAll, ActionExpandTip,
}

// Actions returns every menu action.
func Actions() []Action { return slices.Clone(actions) }

// ParseAction validates a menu action name.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !slices.Contains(actions, a) {
		return "", errs.New(errs.ErrCodeInvalidAction, "unknown action %q", s)
	}
	return a, nil
}

// Result describes what a menu action did.
type Result struct {
	Action Action `json:"action"`
	Card   string `json:"card"`
	// Created is the id of the card a new-* action added.
	Created string `json:"created,omitempty"`
	// Children is the number of direct children collapsed or expanded.
	Children int `json:"children,omitempty"`
}

// Do runs a menu action on card id.
func (e *Editor) Do(ctx context.Context, id string, a Action) (*Result, error) {
	res := &Result{Action: a, Card: id}
	e.logger.Debug("card action", "card", id, "action", a)

	switch a {
	case ActionNewTop, ActionNewBottom, ActionNewLeft, ActionNewRight:
		n, err := e.add(ctx, id, a)
		if err != nil {
			return nil, err
		}
		res.Created = n.ID
	case ActionAutoLayout:
		if err := e.engine.AutoLayout(ctx, id); err != nil {
			return nil, err
		}
	case ActionCollapse:
		n, err := e.Collapse(ctx, id)
		if err != nil {
			return nil, err
		}
		res.Children = n
	case ActionExpandAll:
		n, err := e.Expand(ctx, id, true)
		if err != nil {
			return nil, err
		}
		res.Children = n
	case ActionExpandTip:
		n, err := e.ExpandTip(ctx, id)
		if err != nil {
			return nil, err
		}
		res.Children = n
	default:
		return nil, errs.New(errs.ErrCodeInvalidAction, "unknown action %q", a)
	}
	return res, nil
}

func (e *Editor) add(ctx context.Context, id string, a Action) (*canvas.Node, error) {
	switch a {
	case ActionNewTop:
		return e.AddParent(ctx, id)
	case ActionNewBottom:
		return e.AddChild(ctx, id)
	case ActionNewLeft:
		return e.AddSibling(ctx, id, Left)
	default:
		return e.AddSibling(ctx, id, Right)
	}
}

// Collapse hides the subtree below id and repairs the layout. A card that
// had children grows by the expand tip; its body height is kept as the
// height children are placed below.
func (e *Editor) Collapse(ctx context.Context, id string) (int, error) {
	n, err := e.engine.Collapse(ctx, id)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if err := e.showTip(ctx, id); err != nil {
			return 0, err
		}
	}
	return n, e.engine.CascadeLayoutChange(ctx, id)
}

// Expand shows the children of id, or its whole subtree when recursive is
// set, and repairs the layout.
func (e *Editor) Expand(ctx context.Context, id string, recursive bool) (int, error) {
	n, err := e.expand(ctx, id, recursive)
	if err != nil {
		return 0, err
	}
	return n, e.engine.CascadeLayoutChange(ctx, id)
}

// ExpandTip expands one level from the tip shown under a collapsed card.
func (e *Editor) ExpandTip(ctx context.Context, id string) (int, error) {
	n, err := e.card(ctx, id)
	if err != nil {
		return 0, err
	}
	if !n.State.HideChildren {
		return 0, errs.New(errs.ErrCodeInvalidInput, "card %s is not collapsed", id)
	}
	return e.Expand(ctx, id, false)
}

// expand shows children without moving anything and drops the expand tips
// of every card it opens.
func (e *Editor) expand(ctx context.Context, id string, recursive bool) (int, error) {
	if err := e.hideTips(ctx, id, recursive, map[string]bool{}); err != nil {
		return 0, err
	}
	return e.engine.Expand(ctx, id, recursive)
}

func (e *Editor) hideTips(ctx context.Context, id string, recursive bool, seen map[string]bool) error {
	if seen[id] {
		return nil
	}
	seen[id] = true
	if err := e.hideTip(ctx, id); err != nil {
		return err
	}
	if !recursive {
		return nil
	}
	c, err := e.engine.Connections(ctx, id)
	if err != nil {
		return err
	}
	for _, child := range c.Children {
		if err := e.hideTips(ctx, child.Node.ID, recursive, seen); err != nil {
			return err
		}
	}
	return nil
}

// showTip adds the tip to the height of id once.
func (e *Editor) showTip(ctx context.Context, id string) error {
	return e.update(ctx, id, func(n *canvas.Node) {
		if n.State.HeightWOTip > 0 {
			return
		}
		n.State.HeightWOTip = n.Height
		n.Height += tipHeight
	})
}

// hideTip restores the body height of id if it shows a tip.
func (e *Editor) hideTip(ctx context.Context, id string) error {
	return e.update(ctx, id, func(n *canvas.Node) {
		if n.State.HeightWOTip <= 0 {
			return
		}
		n.Height = n.State.HeightWOTip
		n.State.HeightWOTip = 0
	})
}
