package layout

import (
	"cmp"
	"context"
	"slices"

	"github.com/matzehuels/cardtree/pkg/canvas"
)

// Edge is a connector classified from one node's point of view.
type Edge struct {
	Connector canvas.Connector
	Far       string // id of the node at the other end
}

// Classify splits the connectors attached to nodeID into parent and child
// edges without touching a store. A connector whose near endpoint has the
// BOTTOM magnet leads to a child; any other magnet leads to a parent.
// Connectors not attached to nodeID are ignored. Order is preserved.
func Classify(nodeID string, conns []canvas.Connector) (parents, children []Edge) {
	for _, c := range conns {
		if !c.Attached(nodeID) {
			continue
		}
		near, far := c.Ends(nodeID)
		e := Edge{Connector: c, Far: far.NodeID}
		if near.Magnet.IsOutgoing() {
			children = append(children, e)
		} else {
			parents = append(parents, e)
		}
	}
	return parents, children
}

// Link is a resolved edge: the node at the far end and the connector to it.
type Link struct {
	Node      *canvas.Node
	Connector canvas.Connector
}

// Connections is the neighbourhood of one node. It is never cached; every
// layout step derives it again because connectors may change between calls.
type Connections struct {
	Node     *canvas.Node
	Parents  []Link // attachment order
	Children []Link // ascending by X
}

// Primary returns the primary parent, the first one resolved. It is the only
// parent the engine ever consults.
func (c *Connections) Primary() (Link, bool) {
	if len(c.Parents) == 0 {
		return Link{}, false
	}
	return c.Parents[0], true
}

// ChildIndex returns the position of id among the children, or -1.
func (c *Connections) ChildIndex(id string) int {
	return slices.IndexFunc(c.Children, func(l Link) bool { return l.Node.ID == id })
}

// Connections loads the node and resolves its parents and children.
//
// An endpoint referencing a node that no longer exists is skipped for this
// call. It is logged and reported through OnDanglingEndpoint but never pruned
// from the store.
func (e *Engine) Connections(ctx context.Context, id string) (*Connections, error) {
	n, err := e.node(ctx, id)
	if err != nil {
		return nil, err
	}
	attached, err := e.store.AttachedConnectors(ctx, id)
	if err != nil {
		return nil, storeErr(err, "load connectors of %s", id)
	}

	parents, children := Classify(id, attached)
	c := &Connections{Node: n}
	if c.Parents, err = e.resolve(ctx, parents); err != nil {
		return nil, err
	}
	if c.Children, err = e.resolve(ctx, children); err != nil {
		return nil, err
	}

	slices.SortStableFunc(c.Children, func(a, b Link) int {
		return cmp.Compare(a.Node.X, b.Node.X)
	})

	if len(c.Parents) > 1 {
		e.logger.Warn("multiple parents, using the first", "node", id, "parent", c.Parents[0].Node.ID, "parents", len(c.Parents))
		e.hook().OnMultiParent(ctx, id, len(c.Parents))
	}
	return c, nil
}

func (e *Engine) resolve(ctx context.Context, edges []Edge) ([]Link, error) {
	links := make([]Link, 0, len(edges))
	for _, edge := range edges {
		far, err := e.store.Node(ctx, edge.Far)
		if err != nil {
			return nil, storeErr(err, "resolve endpoint %s", edge.Far)
		}
		if far == nil {
			e.logger.Warn("skipping dangling endpoint", "connector", edge.Connector.ID, "node", edge.Far)
			e.hook().OnDanglingEndpoint(ctx, edge.Connector.ID, edge.Far)
			continue
		}
		links = append(links, Link{Node: far, Connector: edge.Connector})
	}
	return links, nil
}
