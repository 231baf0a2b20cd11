package canvas

import (
	"context"
	"errors"
)

// Sentinel errors for store operations.
var (
	// ErrNodeNotFound is returned by update and delete operations when the
	// node does not exist. Lookups return nil, nil instead.
	ErrNodeNotFound = errors.New("node not found")

	// ErrConnectorNotFound is returned when a connector does not exist.
	ErrConnectorNotFound = errors.New("connector not found")

	// ErrInvalidNodeID is returned when a node or connector has an empty ID.
	ErrInvalidNodeID = errors.New("node ID must not be empty")
)

// Store is the interface for canvas storage backends.
//
// Implementations must hand out copies: mutating a returned *Node does not
// change the store until it is written back. All methods are safe for
// concurrent use.
type Store interface {
	// Node returns the node with the given id.
	// Returns nil, nil if the node doesn't exist.
	Node(ctx context.Context, id string) (*Node, error)

	// Nodes returns every node in insertion order.
	Nodes(ctx context.Context) ([]*Node, error)

	// AttachedConnectors returns the connectors with an endpoint on nodeID,
	// in attachment (insertion) order.
	AttachedConnectors(ctx context.Context, nodeID string) ([]Connector, error)

	// Connectors returns every connector in insertion order.
	Connectors(ctx context.Context) ([]Connector, error)

	// PutNode inserts or replaces a node.
	PutNode(ctx context.Context, n *Node) error

	// UpdateNode applies fn to the stored node and writes the result back as
	// one read-modify-write step. Returns the updated copy, or
	// ErrNodeNotFound.
	UpdateNode(ctx context.Context, id string, fn func(*Node)) (*Node, error)

	// DeleteNode removes a node. Attached connectors are left in place and
	// become dangling.
	DeleteNode(ctx context.Context, id string) error

	// PutConnector inserts or replaces a connector.
	PutConnector(ctx context.Context, c Connector) error

	// UpdateConnector applies fn to the stored connector and writes it back.
	UpdateConnector(ctx context.Context, id string, fn func(*Connector)) error

	// DeleteConnector removes a connector.
	DeleteConnector(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// Snapshot reads every node and connector of s into a [Document].
func Snapshot(ctx context.Context, s Store) (*Document, error) {
	nodes, err := s.Nodes(ctx)
	if err != nil {
		return nil, err
	}
	conns, err := s.Connectors(ctx)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		Nodes:      make([]Node, len(nodes)),
		Connectors: conns,
	}
	for i, n := range nodes {
		doc.Nodes[i] = *n
	}
	return doc, nil
}

// Load writes every node and connector of doc into s.
func Load(ctx context.Context, s Store, doc *Document) error {
	for i := range doc.Nodes {
		if err := s.PutNode(ctx, &doc.Nodes[i]); err != nil {
			return err
		}
	}
	for _, c := range doc.Connectors {
		if err := s.PutConnector(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
