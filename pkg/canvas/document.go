package canvas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Document - Canvas Serialization
// =============================================================================

// Document is the canonical serialization format for a canvas.
// Used for files, API responses, caching and the Redis/Mongo backends.
//
//	{
//	  "nodes": [{"id": "1:2", "x": 0, "y": 0, "width": 400, "height": 160, "visible": true, "state": {}}],
//	  "connectors": [{"id": "1:9",
//	    "connectorStart": {"endpointNodeId": "1:2", "magnet": "BOTTOM"},
//	    "connectorEnd":   {"endpointNodeId": "1:3", "magnet": "TOP"},
//	    "visible": true}]
//	}
type Document struct {
	Nodes      []Node      `json:"nodes" bson:"nodes"`
	Connectors []Connector `json:"connectors" bson:"connectors"`
}

// NodeCount returns the number of nodes in the document.
func (d *Document) NodeCount() int { return len(d.Nodes) }

// ConnectorCount returns the number of connectors in the document.
func (d *Document) ConnectorCount() int { return len(d.Connectors) }

// NodeByID returns the node with the given id, or nil.
func (d *Document) NodeByID(id string) *Node {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i]
		}
	}
	return nil
}

// Roots returns the ids of nodes without an incoming (parent) connector,
// in document order.
func (d *Document) Roots() []string {
	hasParent := make(map[string]bool, len(d.Nodes))
	for _, c := range d.Connectors {
		for _, id := range []string{c.Start.NodeID, c.End.NodeID} {
			near, _ := c.Ends(id)
			if !near.Magnet.IsOutgoing() {
				hasParent[id] = true
			}
		}
	}
	var roots []string
	for _, n := range d.Nodes {
		if !hasParent[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// =============================================================================
// Serialization API
// =============================================================================

// MarshalDocument converts a document to indented JSON bytes.
func MarshalDocument(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDocument(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalDocument decodes JSON bytes into a document.
func UnmarshalDocument(data []byte) (*Document, error) {
	return ReadDocument(bytes.NewReader(data))
}

// WriteDocument writes a document as JSON to an io.Writer.
func WriteDocument(d *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadDocument decodes a JSON document from an io.Reader.
// Magnet names are normalized and node/connector ids must be non-empty.
func ReadDocument(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	for i := range d.Nodes {
		if d.Nodes[i].ID == "" {
			return nil, fmt.Errorf("node %d: %w", i, ErrInvalidNodeID)
		}
	}
	for i := range d.Connectors {
		c := &d.Connectors[i]
		if c.ID == "" {
			return nil, fmt.Errorf("connector %d: %w", i, ErrInvalidNodeID)
		}
		c.Start.Magnet = ParseMagnet(string(c.Start.Magnet))
		c.End.Magnet = ParseMagnet(string(c.End.Magnet))
	}
	return &d, nil
}

// WriteDocumentFile writes a document to a JSON file.
func WriteDocumentFile(d *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDocument(d, f)
}

// ReadDocumentFile reads a JSON file and returns the decoded document.
func ReadDocumentFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(f)
}
