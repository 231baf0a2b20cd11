package canvas

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	errs "github.com/matzehuels/cardtree/pkg/errors"
)

// Dangling is a connector endpoint that references a node missing from the
// canvas.
type Dangling struct {
	ConnectorID string
	NodeID      string
}

// Report lists the structural problems found by [Validate].
type Report struct {
	// Dangling endpoints, in connector order.
	Dangling []Dangling
	// MultiParent maps a node id to the ids of all its parents (len > 1).
	MultiParent map[string][]string
	// Cycles lists node id cycles along parent→child connectors.
	Cycles [][]string
	// Invalid lists nodes with unusable geometry.
	Invalid []error
}

// OK reports whether no problems were found.
func (r *Report) OK() bool {
	return len(r.Dangling) == 0 && len(r.MultiParent) == 0 && len(r.Cycles) == 0 && len(r.Invalid) == 0
}

// Err returns the most severe problem as a coded error, or nil.
// Cycles outrank multi-parent nodes, which outrank dangling endpoints.
func (r *Report) Err() error {
	switch {
	case len(r.Invalid) > 0:
		return r.Invalid[0]
	case len(r.Cycles) > 0:
		return errs.New(errs.ErrCodeCycle, "connector cycle through %v", r.Cycles[0])
	case len(r.MultiParent) > 0:
		ids := slices.Sorted(maps.Keys(r.MultiParent))
		return errs.New(errs.ErrCodeMultiParent, "node %s has %d parents; only the first is laid out",
			ids[0], len(r.MultiParent[ids[0]]))
	case len(r.Dangling) > 0:
		d := r.Dangling[0]
		return errs.New(errs.ErrCodeDanglingEndpoint, "connector %s references missing node %s", d.ConnectorID, d.NodeID)
	}
	return nil
}

// Validate checks doc for configurations the layout engine does not support.
//
// The engine assumes a tree: every node has at most one parent and following
// child connectors never returns to a node already visited. Validate reports
// both violations, plus endpoints referencing nodes that no longer exist.
func Validate(doc *Document) *Report {
	r := &Report{MultiParent: make(map[string][]string)}

	ids := make(map[string]int64, len(doc.Nodes))
	names := make(map[int64]string, len(doc.Nodes))
	g := simple.NewDirectedGraph()
	for i, n := range doc.Nodes {
		if err := errs.ValidateGeometry(n.ID, n.X, n.Y, n.Width, n.Height); err != nil {
			r.Invalid = append(r.Invalid, err)
		}
		id := int64(i)
		ids[n.ID] = id
		names[id] = n.ID
		g.AddNode(simple.Node(id))
	}

	parents := make(map[string][]string)
	for _, c := range doc.Connectors {
		missing := false
		for _, ep := range []Endpoint{c.Start, c.End} {
			if _, ok := ids[ep.NodeID]; !ok {
				r.Dangling = append(r.Dangling, Dangling{ConnectorID: c.ID, NodeID: ep.NodeID})
				missing = true
			}
		}
		if missing {
			continue
		}

		parent, child, ok := direction(c)
		if !ok {
			continue
		}
		parents[child] = append(parents[child], parent)
		if parent == child {
			r.Cycles = append(r.Cycles, []string{parent})
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(ids[parent]), simple.Node(ids[child])))
	}

	for child, ps := range parents {
		if len(ps) > 1 {
			r.MultiParent[child] = ps
		}
	}

	if _, err := topo.Sort(g); err != nil {
		var unorderable topo.Unorderable
		if errors.As(err, &unorderable) {
			for _, component := range unorderable {
				r.Cycles = append(r.Cycles, nodeNames(component, names))
			}
		} else {
			r.Invalid = append(r.Invalid, errs.Wrap(errs.ErrCodeInternal, err, "sort connector graph"))
		}
	}

	return r
}

// direction returns the parent and child of a connector as seen by the
// layout engine. A connector where neither side is BOTTOM, or both are,
// has no tree direction.
func direction(c Connector) (parent, child string, ok bool) {
	startOut, endOut := c.Start.Magnet.IsOutgoing(), c.End.Magnet.IsOutgoing()
	switch {
	case startOut && !endOut:
		return c.Start.NodeID, c.End.NodeID, true
	case endOut && !startOut:
		return c.End.NodeID, c.Start.NodeID, true
	}
	return "", "", false
}

func nodeNames(nodes []graph.Node, names map[int64]string) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = names[n.ID()]
	}
	slices.Sort(out)
	return out
}

// String summarizes the report on one line.
func (r *Report) String() string {
	return fmt.Sprintf("%d dangling, %d multi-parent, %d cycles, %d invalid",
		len(r.Dangling), len(r.MultiParent), len(r.Cycles), len(r.Invalid))
}
