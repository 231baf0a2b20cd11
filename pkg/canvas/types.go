package canvas

import (
	"maps"
	"strings"
)

// =============================================================================
// Magnets
// =============================================================================

// Magnet is the side of a node a connector endpoint attaches to.
type Magnet string

// Connector magnets.
const (
	MagnetTop    Magnet = "TOP"
	MagnetBottom Magnet = "BOTTOM"
	MagnetLeft   Magnet = "LEFT"
	MagnetRight  Magnet = "RIGHT"
	MagnetCenter Magnet = "CENTER"
	MagnetAuto   Magnet = "AUTO"
	MagnetNone   Magnet = "NONE"
)

// ParseMagnet normalizes a magnet name. Unknown names map to [MagnetNone].
func ParseMagnet(s string) Magnet {
	switch m := Magnet(strings.ToUpper(strings.TrimSpace(s))); m {
	case MagnetTop, MagnetBottom, MagnetLeft, MagnetRight, MagnetCenter, MagnetAuto:
		return m
	default:
		return MagnetNone
	}
}

// IsOutgoing reports whether an endpoint with this magnet leads to a child.
func (m Magnet) IsOutgoing() bool { return m == MagnetBottom }

// =============================================================================
// Box
// =============================================================================

// Box is the horizontal footprint of the subtree rooted at a node.
//
// Width is the minimal span needed to lay out the node and all visible
// descendants without overlap. XOffset is the distance from the left edge of
// the box to the node's own left edge, so the box covers
// [node.X - XOffset, node.X - XOffset + Width].
type Box struct {
	Width   float64 `json:"width" bson:"width"`
	XOffset float64 `json:"xOffset" bson:"xOffset"`
}

// Left returns the left edge of the box for a node placed at x.
func (b Box) Left(x float64) float64 { return x - b.XOffset }

// Right returns the right edge of the box for a node placed at x.
func (b Box) Right(x float64) float64 { return x - b.XOffset + b.Width }

// LeafBox is the box of a leaf or collapsed node of the given width.
func LeafBox(width float64) Box { return Box{Width: width} }

// =============================================================================
// NodeState - persisted per-node state
// =============================================================================

// Keys of the persisted per-node state. They are part of the document format
// and shared with every other consumer of the canvas.
const (
	StateBox           = "box"
	StateHideChildren  = "hideChildren"
	StateHeightWOTip   = "heightWOTip"
	StateChildrenCount = "childrenCount"
)

// NodeState is the persisted key-value state the layout engine keeps per node.
//
// Box is a cache: it is recomputed, never patched. HeightWOTip, when non-zero,
// overrides the node height for vertical placement of children (the node's
// displayed height temporarily includes the expand affordance).
type NodeState struct {
	Box           *Box    `json:"box,omitempty" bson:"box,omitempty"`
	HideChildren  bool    `json:"hideChildren,omitempty" bson:"hideChildren,omitempty"`
	HeightWOTip   float64 `json:"heightWOTip,omitempty" bson:"heightWOTip,omitempty"`
	ChildrenCount int     `json:"childrenCount,omitempty" bson:"childrenCount,omitempty"`
}

// StatePatch is a partial update of [NodeState]. Nil fields are left untouched.
type StatePatch struct {
	Box           *Box
	ClearBox      bool
	HideChildren  *bool
	HeightWOTip   *float64
	ChildrenCount *int
}

// Merge applies p onto s (merge-assign) and returns the result.
func (s NodeState) Merge(p StatePatch) NodeState {
	if p.ClearBox {
		s.Box = nil
	}
	if p.Box != nil {
		b := *p.Box
		s.Box = &b
	}
	if p.HideChildren != nil {
		s.HideChildren = *p.HideChildren
	}
	if p.HeightWOTip != nil {
		s.HeightWOTip = *p.HeightWOTip
	}
	if p.ChildrenCount != nil {
		s.ChildrenCount = *p.ChildrenCount
	}
	return s
}

// clone returns a deep copy so callers never alias a stored box.
func (s NodeState) clone() NodeState {
	if s.Box != nil {
		b := *s.Box
		s.Box = &b
	}
	return s
}

// =============================================================================
// Node
// =============================================================================

// Node is a card on the canvas. X and Y are the top-left corner in canvas
// coordinates.
type Node struct {
	ID      string            `json:"id" bson:"_id"`
	X       float64           `json:"x" bson:"x"`
	Y       float64           `json:"y" bson:"y"`
	Width   float64           `json:"width" bson:"width"`
	Height  float64           `json:"height" bson:"height"`
	Visible bool              `json:"visible" bson:"visible"`
	State   NodeState         `json:"state" bson:"state"`
	Fields  map[string]string `json:"fields,omitempty" bson:"fields,omitempty"` // opaque card fields
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.State = n.State.clone()
	c.Fields = maps.Clone(n.Fields)
	return &c
}

// Field returns a card field, or "" when unset.
func (n *Node) Field(key string) string {
	if n == nil || n.Fields == nil {
		return ""
	}
	return n.Fields[key]
}

// SetField sets a card field, allocating the map when needed.
func (n *Node) SetField(key, value string) {
	if n.Fields == nil {
		n.Fields = make(map[string]string)
	}
	n.Fields[key] = value
}

// =============================================================================
// Connector
// =============================================================================

// Endpoint is one end of a connector.
type Endpoint struct {
	NodeID string `json:"endpointNodeId" bson:"endpointNodeId"`
	Magnet Magnet `json:"magnet" bson:"magnet"`
}

// Connector is a directed edge between two nodes.
type Connector struct {
	ID      string   `json:"id" bson:"_id"`
	Start   Endpoint `json:"connectorStart" bson:"connectorStart"`
	End     Endpoint `json:"connectorEnd" bson:"connectorEnd"`
	Visible bool     `json:"visible" bson:"visible"`
}

// Attached reports whether either endpoint references nodeID.
func (c Connector) Attached(nodeID string) bool {
	return c.Start.NodeID == nodeID || c.End.NodeID == nodeID
}

// Ends returns the endpoint on nodeID (near) and the opposite one (far).
// When both endpoints reference nodeID the start endpoint is near.
func (c Connector) Ends(nodeID string) (near, far Endpoint) {
	if c.Start.NodeID == nodeID {
		return c.Start, c.End
	}
	return c.End, c.Start
}
