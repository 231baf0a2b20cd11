// Package layout arranges cards on a canvas into a tree whose edges are
// connectors.
//
// The engine never keeps its own copy of the graph. Every step re-reads nodes
// and connectors from a [canvas.Store], derives parents and children from
// connector magnets, and writes new positions back.
//
// # Boxes
//
// Each node caches the horizontal footprint of its subtree as a
// [canvas.Box]. A leaf or collapsed node occupies exactly its own width. An
// internal node occupies the sum of its children's boxes plus one horizontal
// margin between neighbours, and sits centered over the span of its
// children:
//
//	         +--------+
//	         |   R    |
//	         +--------+
//	+--------+        +--------+
//	|   A    |<- 80 ->|   B    |
//	+--------+        +--------+
//	|<------- R.box.Width ----->|
//
// # Repositioning
//
// [Engine.Reposition] moves nodes in one of three directions:
//
//   - [Down] snaps a node's children beneath it, left to right, then recurses.
//   - [Across] re-levels the node's siblings around it so no boxes overlap.
//   - [Up] re-centers the primary parent over its children and repeats
//     across and up from there, all the way to the root.
//
// # Cascades
//
// [Engine.CascadeLayoutChange] is the entry point after a topology edit. When
// the node's box is unchanged it only runs a down pass; otherwise it runs
// down, across and up in that order. [Engine.AutoLayout] recomputes boxes and
// runs a down pass only.
//
// All operations are synchronous: each recursive step completes before its
// caller continues, so results are deterministic for a given canvas.
package layout
