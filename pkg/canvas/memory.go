package canvas

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-memory [Store]. It is the default backend for tests and
// the base of [FileStore].
//
// The zero value is not usable - use NewMemory.
type Memory struct {
	mu        sync.RWMutex
	nodes     map[string]*Node
	nodeOrder []string
	conns     map[string]*Connector
	connOrder []string
	attached  map[string][]string // nodeID -> connector IDs, attachment order
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nodes:    make(map[string]*Node),
		conns:    make(map[string]*Connector),
		attached: make(map[string][]string),
	}
}

// NewMemoryFromDocument creates an in-memory store holding a copy of doc.
func NewMemoryFromDocument(doc *Document) (*Memory, error) {
	m := NewMemory()
	if doc == nil {
		return m, nil
	}
	if err := Load(context.Background(), m, doc); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Memory) Node(ctx context.Context, id string) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nodes[id].Clone(), nil
}

func (m *Memory) Nodes(ctx context.Context) ([]*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Node, 0, len(m.nodeOrder))
	for _, id := range m.nodeOrder {
		out = append(out, m.nodes[id].Clone())
	}
	return out, nil
}

func (m *Memory) AttachedConnectors(ctx context.Context, nodeID string) ([]Connector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.attached[nodeID]
	out := make([]Connector, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m.conns[id])
	}
	return out, nil
}

func (m *Memory) Connectors(ctx context.Context) ([]Connector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Connector, 0, len(m.connOrder))
	for _, id := range m.connOrder {
		out = append(out, *m.conns[id])
	}
	return out, nil
}

func (m *Memory) PutNode(ctx context.Context, n *Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n == nil || n.ID == "" {
		return ErrInvalidNodeID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[n.ID]; !ok {
		m.nodeOrder = append(m.nodeOrder, n.ID)
	}
	m.nodes[n.ID] = n.Clone()
	return nil
}

func (m *Memory) UpdateNode(ctx context.Context, id string, fn func(*Node)) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	next := cur.Clone()
	fn(next)
	next.ID = id
	m.nodes[id] = next
	return next.Clone(), nil
}

func (m *Memory) DeleteNode(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[id]; !ok {
		return ErrNodeNotFound
	}
	delete(m.nodes, id)
	m.nodeOrder = slices.DeleteFunc(m.nodeOrder, func(s string) bool { return s == id })
	return nil
}

func (m *Memory) PutConnector(ctx context.Context, c Connector) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ID == "" {
		return ErrInvalidNodeID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.conns[c.ID]; ok {
		m.detach(*old)
	} else {
		m.connOrder = append(m.connOrder, c.ID)
	}
	cc := c
	m.conns[c.ID] = &cc
	m.attach(c)
	return nil
}

func (m *Memory) UpdateConnector(ctx context.Context, id string, fn func(*Connector)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.conns[id]
	if !ok {
		return ErrConnectorNotFound
	}
	next := *cur
	fn(&next)
	next.ID = id
	moved := next.Start.NodeID != cur.Start.NodeID || next.End.NodeID != cur.End.NodeID
	if moved {
		m.detach(*cur)
	}
	m.conns[id] = &next
	if moved {
		m.attach(next)
	}
	return nil
}

func (m *Memory) DeleteConnector(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.conns[id]
	if !ok {
		return ErrConnectorNotFound
	}
	m.detach(*cur)
	delete(m.conns, id)
	m.connOrder = slices.DeleteFunc(m.connOrder, func(s string) bool { return s == id })
	return nil
}

// Close does nothing for the in-memory store.
func (m *Memory) Close() error { return nil }

// Document returns a snapshot of the store contents.
func (m *Memory) Document() *Document {
	doc, _ := Snapshot(context.Background(), m)
	return doc
}

// attach and detach keep the per-node connector index in attachment order.
// Callers hold m.mu.
func (m *Memory) attach(c Connector) {
	m.attached[c.Start.NodeID] = append(m.attached[c.Start.NodeID], c.ID)
	if c.End.NodeID != c.Start.NodeID {
		m.attached[c.End.NodeID] = append(m.attached[c.End.NodeID], c.ID)
	}
}

func (m *Memory) detach(c Connector) {
	for _, nodeID := range []string{c.Start.NodeID, c.End.NodeID} {
		ids := slices.DeleteFunc(m.attached[nodeID], func(s string) bool { return s == c.ID })
		if len(ids) == 0 {
			delete(m.attached, nodeID)
		} else {
			m.attached[nodeID] = ids
		}
	}
}

// Ensure Memory implements Store.
var _ Store = (*Memory)(nil)
