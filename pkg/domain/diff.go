package domain

import (
	"reflect"
)

// FlowDiff describes the changes between two flow snapshots.
// It is used to skip redundant synchronization work and to tell subscribers what moved.
type FlowDiff struct {
	NameChanged  bool `json:"name_changed,omitempty"`
	EntryChanged bool `json:"entry_changed,omitempty"`

	AddedNodes   []string `json:"added_nodes,omitempty"`
	RemovedNodes []string `json:"removed_nodes,omitempty"`
	ChangedNodes []string `json:"changed_nodes,omitempty"`

	AddedEdges   []string `json:"added_edges,omitempty"`
	RemovedEdges []string `json:"removed_edges,omitempty"`
	ChangedEdges []string `json:"changed_edges,omitempty"`

	// Reordered is set when the same ids appear in a different order.
	Reordered bool `json:"reordered,omitempty"`
}

// NodesChanged reports whether any node was added, removed, changed or moved.
func (d *FlowDiff) NodesChanged() bool {
	return d != nil && (len(d.AddedNodes) > 0 || len(d.RemovedNodes) > 0 || len(d.ChangedNodes) > 0 || d.Reordered)
}

// EdgesChanged reports whether any edge was added, removed or changed.
func (d *FlowDiff) EdgesChanged() bool {
	return d != nil && (len(d.AddedEdges) > 0 || len(d.RemovedEdges) > 0 || len(d.ChangedEdges) > 0 || d.Reordered)
}

// Diff calculates the difference between oldFlow and newFlow.
// If oldFlow is nil, everything in newFlow is reported as added.
// It returns nil when nothing changed.
func Diff(oldFlow, newFlow *Flow) *FlowDiff {
	if newFlow == nil {
		return nil
	}
	if oldFlow == nil {
		oldFlow = &Flow{}
	}

	diff := &FlowDiff{
		NameChanged:  oldFlow.Name != newFlow.Name,
		EntryChanged: oldFlow.EntryNodeID != newFlow.EntryNodeID,
	}

	oldNodes := make(map[string]Node, len(oldFlow.Nodes))
	for _, n := range oldFlow.Nodes {
		oldNodes[n.ID] = n
	}
	newNodes := make(map[string]struct{}, len(newFlow.Nodes))
	for _, n := range newFlow.Nodes {
		newNodes[n.ID] = struct{}{}
		prev, ok := oldNodes[n.ID]
		switch {
		case !ok:
			diff.AddedNodes = append(diff.AddedNodes, n.ID)
		case !reflect.DeepEqual(prev, n):
			diff.ChangedNodes = append(diff.ChangedNodes, n.ID)
		}
	}
	for _, n := range oldFlow.Nodes {
		if _, ok := newNodes[n.ID]; !ok {
			diff.RemovedNodes = append(diff.RemovedNodes, n.ID)
		}
	}

	oldEdges := make(map[string]Edge, len(oldFlow.Edges))
	for _, e := range oldFlow.Edges {
		oldEdges[e.ID] = e
	}
	newEdges := make(map[string]struct{}, len(newFlow.Edges))
	for _, e := range newFlow.Edges {
		newEdges[e.ID] = struct{}{}
		prev, ok := oldEdges[e.ID]
		switch {
		case !ok:
			diff.AddedEdges = append(diff.AddedEdges, e.ID)
		case !prev.Equal(e):
			diff.ChangedEdges = append(diff.ChangedEdges, e.ID)
		}
	}
	for _, e := range oldFlow.Edges {
		if _, ok := newEdges[e.ID]; !ok {
			diff.RemovedEdges = append(diff.RemovedEdges, e.ID)
		}
	}

	diff.Reordered = !sameOrder(oldFlow, newFlow)

	if !diff.NameChanged && !diff.EntryChanged && !diff.NodesChanged() && !diff.EdgesChanged() {
		return nil
	}
	return diff
}

func sameOrder(a, b *Flow) bool {
	if len(a.Nodes) != len(b.Nodes) || len(a.Edges) != len(b.Edges) {
		// Size changes are already reported as additions or removals.
		return true
	}
	for i := range a.Nodes {
		if a.Nodes[i].ID != b.Nodes[i].ID {
			return false
		}
	}
	for i := range a.Edges {
		if a.Edges[i].ID != b.Edges[i].ID {
			return false
		}
	}
	return true
}
