// Package graph holds the canonical in-memory state of one workflow being edited.
//
// The Store is the single source of truth for nodes, edges, flow metadata, the
// current selection and the execution console. Every mutation goes through it and
// is checked against the graph invariants:
//
//   - edges never reference a missing node (dangling edges are dropped)
//   - node ids are unique (first occurrence wins)
//   - the selection and the entry node always reference an existing node
//   - the entry node, when set, is a start or trigger node
//
// Readers always receive deep copies. Subscribers are told which part changed
// through a buffered channel and must re-read the store themselves.
//
// The Syncer sits between a visual editor and the Store, coalescing rapid
// proposals so that only the latest one is applied.
package graph
