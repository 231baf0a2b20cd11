package cards

import (
	"context"
	"errors"
	"io"
	"maps"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/cardtree/pkg/canvas"
	errs "github.com/matzehuels/cardtree/pkg/errors"
	"github.com/matzehuels/cardtree/pkg/layout"
)

// Clone offsets. A non-zero offset is measured from the far edge of the
// source card, so clones never overlap their source.
const (
	siblingGap  = 100
	verticalGap = 50

	// tipHeight is the height of the expand affordance shown under a
	// collapsed card.
	tipHeight = 18
)

// Side selects where a sibling clone goes.
type Side int

const (
	Left Side = iota
	Right
)

// Editor performs card edits on a canvas and keeps the layout in shape.
type Editor struct {
	store  canvas.Store
	engine *layout.Engine
	logger *log.Logger
	newID  func() string
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithLogger sets the logger for card edits.
func WithLogger(l *log.Logger) EditorOption { return func(e *Editor) { e.logger = l } }

// WithIDGenerator replaces uuid.NewString for new card and connector ids.
func WithIDGenerator(fn func() string) EditorOption { return func(e *Editor) { e.newID = fn } }

// NewEditor creates an editor that lays out through engine.
func NewEditor(engine *layout.Engine, opts ...EditorOption) *Editor {
	e := &Editor{
		store:  engine.Store(),
		engine: engine,
		logger: log.New(io.Discard),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the layout engine the editor drives.
func (e *Editor) Engine() *layout.Engine { return e.engine }

func (e *Editor) card(ctx context.Context, id string) (*canvas.Node, error) {
	n, err := e.store.Node(ctx, id)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStore, err, "load card %s", id)
	}
	if n == nil {
		return nil, errs.New(errs.ErrCodeNodeNotFound, "card %s not found", id)
	}
	return n, nil
}

// Clone copies the geometry of card id into a new visible card with the
// given fields, shifted by dx and dy. Layout state is not copied, and the
// clone takes the body height of a collapsed source without its tip.
func (e *Editor) Clone(ctx context.Context, id string, fields map[string]string, dx, dy float64) (*canvas.Node, error) {
	src, err := e.card(ctx, id)
	if err != nil {
		return nil, err
	}
	height := src.Height
	if src.State.HeightWOTip > 0 {
		height = src.State.HeightWOTip
	}
	n := &canvas.Node{
		ID:      e.newID(),
		X:       shift(src.X, src.Width, dx),
		Y:       shift(src.Y, height, dy),
		Width:   src.Width,
		Height:  height,
		Visible: true,
		Fields:  maps.Clone(fields),
	}
	if err := e.store.PutNode(ctx, n); err != nil {
		return nil, errs.Wrap(errs.ErrCodeStore, err, "create card")
	}
	e.logger.Debug("cloned card", "from", id, "card", n.ID, "x", n.X, "y", n.Y)
	return n, nil
}

// shift moves pos by delta plus the size of the card in the direction of
// delta. Zero leaves pos unchanged.
func shift(pos, size, delta float64) float64 {
	switch {
	case delta > 0:
		return pos + delta + size
	case delta < 0:
		return pos + delta - size
	}
	return pos
}

// Connect links parent to child with a connector from the parent's bottom
// to the child's top.
func (e *Editor) Connect(ctx context.Context, parent, child string) (canvas.Connector, error) {
	c := canvas.Connector{
		ID:      e.newID(),
		Start:   canvas.Endpoint{NodeID: parent, Magnet: canvas.MagnetBottom},
		End:     canvas.Endpoint{NodeID: child, Magnet: canvas.MagnetTop},
		Visible: true,
	}
	if err := e.store.PutConnector(ctx, c); err != nil {
		return canvas.Connector{}, errs.Wrap(errs.ErrCodeStore, err, "connect %s to %s", parent, child)
	}
	e.logger.Debug("connected", "parent", parent, "child", child, "connector", c.ID)
	return c, nil
}

// AddChild creates a card of the child type below id, connects it and
// repairs the layout around id. A collapsed card is expanded one level
// first so the new child joins visible siblings.
func (e *Editor) AddChild(ctx context.Context, id string) (*canvas.Node, error) {
	src, err := e.card(ctx, id)
	if err != nil {
		return nil, err
	}
	if src.State.HideChildren {
		if _, err := e.expand(ctx, id, false); err != nil {
			return nil, err
		}
	}
	t := TypeOf(src.Fields)
	childType, ok := t.Child()
	if !ok {
		return nil, errs.New(errs.ErrCodeInvalidCardType, "%s cards have no child type", t)
	}

	n, err := e.Clone(ctx, id, map[string]string{
		FieldCardType: string(childType),
		FieldParent:   id,
	}, 0, verticalGap)
	if err != nil {
		return nil, err
	}
	if _, err := e.Connect(ctx, id, n.ID); err != nil {
		return nil, err
	}
	return n, e.engine.CascadeLayoutChange(ctx, id)
}

// AddParent creates a card of the parent type above id, connects it and
// records it as the parent of id.
func (e *Editor) AddParent(ctx context.Context, id string) (*canvas.Node, error) {
	src, err := e.card(ctx, id)
	if err != nil {
		return nil, err
	}
	t := TypeOf(src.Fields)
	parentType, ok := t.Parent()
	if !ok {
		return nil, errs.New(errs.ErrCodeInvalidCardType, "%s cards have no parent type", t)
	}

	n, err := e.Clone(ctx, id, map[string]string{FieldCardType: string(parentType)}, 0, -verticalGap)
	if err != nil {
		return nil, err
	}
	if _, err := e.Connect(ctx, n.ID, id); err != nil {
		return nil, err
	}
	if err := e.setField(ctx, id, FieldParent, n.ID); err != nil {
		return nil, err
	}
	return n, e.engine.CascadeLayoutChange(ctx, n.ID)
}

// AddSibling creates a card of the same type beside id. When id records a
// parent, the new card is connected to it and the parent's layout repaired.
func (e *Editor) AddSibling(ctx context.Context, id string, side Side) (*canvas.Node, error) {
	src, err := e.card(ctx, id)
	if err != nil {
		return nil, err
	}
	parent := src.Field(FieldParent)
	fields := map[string]string{FieldCardType: string(TypeOf(src.Fields))}
	if parent != "" {
		fields[FieldParent] = parent
	}

	dx := float64(siblingGap)
	if side == Left {
		dx = -dx
	}
	n, err := e.Clone(ctx, id, fields, dx, 0)
	if err != nil {
		return nil, err
	}
	if parent == "" {
		return n, nil
	}

	p, err := e.store.Node(ctx, parent)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStore, err, "load parent %s", parent)
	}
	if p == nil {
		e.logger.Warn("recorded parent is gone, sibling left unconnected", "card", id, "parent", parent)
		return n, nil
	}
	if _, err := e.Connect(ctx, parent, n.ID); err != nil {
		return nil, err
	}
	return n, e.engine.CascadeLayoutChange(ctx, parent)
}

// SetType changes the type of card id.
func (e *Editor) SetType(ctx context.Context, id, cardType string) error {
	t, err := ParseType(cardType)
	if err != nil {
		return err
	}
	return e.setField(ctx, id, FieldCardType, string(t))
}

// SetStatus changes the status of card id. "none" clears it.
func (e *Editor) SetStatus(ctx context.Context, id, status string) error {
	s, err := ParseStatus(status)
	if err != nil {
		return err
	}
	return e.setField(ctx, id, FieldStatus, string(s))
}

// SetText replaces the note text of card id.
func (e *Editor) SetText(ctx context.Context, id, text string) error {
	return e.setField(ctx, id, FieldText, text)
}

func (e *Editor) setField(ctx context.Context, id, key, value string) error {
	return e.update(ctx, id, func(n *canvas.Node) {
		if value == "" {
			delete(n.Fields, key)
			return
		}
		n.SetField(key, value)
	})
}

func (e *Editor) update(ctx context.Context, id string, fn func(*canvas.Node)) error {
	_, err := e.store.UpdateNode(ctx, id, fn)
	switch {
	case errors.Is(err, canvas.ErrNodeNotFound):
		return errs.New(errs.ErrCodeNodeNotFound, "card %s not found", id)
	case err != nil:
		return errs.Wrap(errs.ErrCodeStore, err, "update card %s", id)
	}
	return nil
}
