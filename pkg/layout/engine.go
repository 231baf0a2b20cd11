package layout

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cardtree/pkg/canvas"
	errs "github.com/matzehuels/cardtree/pkg/errors"
	"github.com/matzehuels/cardtree/pkg/observability"
)

// Margin is the constant spacing between tiers and between sibling boxes.
type Margin struct {
	Vertical   float64
	Horizontal float64
}

// DefaultMargin is the spacing used when no margin is configured.
var DefaultMargin = Margin{Vertical: 80, Horizontal: 80}

// Validate rejects negative or non-finite margins.
func (m Margin) Validate() error {
	if err := errs.ValidateMargin("vertical", m.Vertical); err != nil {
		return err
	}
	return errs.ValidateMargin("horizontal", m.Horizontal)
}

// Engine lays out the cards of one canvas. It holds no graph state of its
// own; the store is the single source of truth.
//
// An Engine assumes one cascade per canvas at a time. Callers that accept
// concurrent edits must serialize them.
type Engine struct {
	store  canvas.Store
	margin Margin
	logger *log.Logger
	hooks  observability.LayoutHooks
}

// Option configures an Engine.
type Option func(*Engine)

// WithMargin sets the vertical and horizontal spacing.
func WithMargin(m Margin) Option { return func(e *Engine) { e.margin = m } }

// WithLogger sets the logger for layout steps. Steps log at debug level,
// completed cascades at info and graph anomalies at warn.
func WithLogger(l *log.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithHooks overrides the global observability.Layout hooks for this engine.
func WithHooks(h observability.LayoutHooks) Option { return func(e *Engine) { e.hooks = h } }

// New creates an engine over store.
func New(store canvas.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		margin: DefaultMargin,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the store the engine reads and writes.
func (e *Engine) Store() canvas.Store { return e.store }

// Margin returns the configured spacing.
func (e *Engine) Margin() Margin { return e.margin }

func (e *Engine) hook() observability.LayoutHooks {
	if e.hooks != nil {
		return e.hooks
	}
	return observability.Layout()
}

// node re-reads id from the store. A missing node is an error here: every
// caller has already established that the node exists.
func (e *Engine) node(ctx context.Context, id string) (*canvas.Node, error) {
	n, err := e.store.Node(ctx, id)
	if err != nil {
		return nil, storeErr(err, "load node %s", id)
	}
	if n == nil {
		return nil, errs.New(errs.ErrCodeNodeNotFound, "node %s not found", id)
	}
	return n, nil
}

// storeErr wraps backend failures. Context errors pass through unchanged so
// callers can test them with errors.Is.
func storeErr(err error, format string, args ...any) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch {
	case errors.Is(err, canvas.ErrNodeNotFound):
		return errs.Wrap(errs.ErrCodeNodeNotFound, err, format, args...)
	case errors.Is(err, canvas.ErrConnectorNotFound):
		return errs.Wrap(errs.ErrCodeConnectorNotFound, err, format, args...)
	}
	return errs.Wrap(errs.ErrCodeStore, err, format, args...)
}

// trail is the set of nodes on the current recursion path. Revisiting one
// means the connectors form a cycle, which the engine cannot lay out.
type trail map[string]bool

func (t trail) enter(id string) error {
	if t[id] {
		return errs.New(errs.ErrCodeCycle, "connector cycle through node %s", id)
	}
	t[id] = true
	return nil
}

func (t trail) leave(id string) { delete(t, id) }
