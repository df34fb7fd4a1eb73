package domain

// Flow is a named workflow graph.
type Flow struct {
	Name  string `json:"name" yaml:"name"`
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`

	// EntryNodeID optionally pins the node where runs begin.
	// It must reference a start or trigger node.
	EntryNodeID string `json:"entryNodeId,omitempty" yaml:"entryNodeId,omitempty"`
}

// Clone returns a deep copy of the flow.
func (f Flow) Clone() Flow {
	out := f
	out.Nodes = make([]Node, len(f.Nodes))
	for i, n := range f.Nodes {
		out.Nodes[i] = n.Clone()
	}
	out.Edges = make([]Edge, len(f.Edges))
	for i, e := range f.Edges {
		out.Edges[i] = e.Clone()
	}
	return out
}

// Document returns the exportable part of the flow.
func (f Flow) Document() Document {
	return Document{Nodes: f.Nodes, Edges: f.Edges, EntryNodeID: f.EntryNodeID}
}

// Node returns the node with the given id.
func (f Flow) Node(id string) (Node, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// HasNode reports whether a node with the given id exists.
func (f Flow) HasNode(id string) bool {
	_, ok := f.Node(id)
	return ok
}

// ResolveEntryNode returns the node where a run begins.
//
// Resolution order:
//  1. EntryNodeID, if it references an existing start/trigger node
//  2. the first start or trigger node, in insertion order
//  3. the first node, in insertion order
//
// It returns ErrNoEntryNode when the flow has no nodes.
func (f Flow) ResolveEntryNode() (Node, error) {
	if len(f.Nodes) == 0 {
		return Node{}, ErrNoEntryNode
	}
	if f.EntryNodeID != "" {
		if n, ok := f.Node(f.EntryNodeID); ok && n.Type.IsEntry() {
			return n, nil
		}
	}
	for _, n := range f.Nodes {
		if n.Type.IsEntry() {
			return n, nil
		}
	}
	return f.Nodes[0], nil
}

// Outgoing returns the edges leaving the given node, in edge order.
func (f Flow) Outgoing(nodeID string) []Edge {
	var out []Edge
	for _, e := range f.Edges {
		if e.Source == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// Document is the export/import file format.
type Document struct {
	Nodes       []Node `json:"nodes" yaml:"nodes"`
	Edges       []Edge `json:"edges" yaml:"edges"`
	EntryNodeID string `json:"entryNodeId,omitempty" yaml:"entryNodeId,omitempty"`
}

// SavedFlow is the persisted form returned by the backend.
type SavedFlow struct {
	Name     string   `json:"name"`
	FlowData Document `json:"flow_data"`
}

// SaveFlowRequest is the payload sent when persisting a flow.
type SaveFlowRequest struct {
	Name        string `json:"name"`
	Nodes       []Node `json:"nodes"`
	Edges       []Edge `json:"edges"`
	EntryNodeID string `json:"entryNodeId,omitempty"`
}
