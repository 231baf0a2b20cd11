// Package canvas models the cards and connectors that live on a diagramming
// canvas, and the stores that hold them.
//
// The canvas is the single source of truth for geometry and topology. Layout
// code never keeps its own copy of the graph: it reads nodes and connectors
// through a [Store], mutates a local copy, and writes it back with
// [Store.PutNode] or [Store.PutConnector].
//
// # Core Types
//
//   - [Node]: a card with position, size, visibility and persisted [NodeState]
//   - [Connector]: a directed edge between two [Endpoint]s
//   - [Box]: horizontal footprint of the subtree rooted at a node
//   - [Document]: serializable snapshot of a whole canvas
//
// # Topology
//
// Parent/child relations are implicit in connector magnets. A connector whose
// endpoint on node n uses [MagnetBottom] leaves n towards a child; any other
// magnet enters n from a parent:
//
//	parent ──BOTTOM────TOP──▶ child
//
// # Stores
//
// Backends implementing [Store]:
//   - [Memory]: in-memory store, also the base of [FileStore]
//   - [FileStore]: a JSON document on disk, flushed explicitly
//   - redisstore: Redis-backed store for shared canvases
//   - mongostore: MongoDB-backed store
//
// Every store hands out copies. Callers that mutate a node must write it back.
//
// # Validation
//
// [Validate] checks a [Document] for dangling endpoints, nodes with more than
// one parent and connector cycles. None of these stop the layout engine, but
// all of them mean the tree it produces is not the one the user sees.
package canvas
