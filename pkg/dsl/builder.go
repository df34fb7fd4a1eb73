package dsl

import (
	"fmt"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/graph"
)

// Layout spacing of nodes without an explicit position.
const (
	columnWidth = 250
	rowHeight   = 120
)

// Builder manages the flow construction. Nodes keep their insertion order.
type Builder struct {
	name  string
	entry string
	order []string
	nodes map[string]*NodeBuilder
	errs  []error
}

// New creates a new flow builder.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the flow.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id, Data: domain.NodeData{Config: map[string]any{}}},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Entry pins the node where runs begin.
func (b *Builder) Entry(id string) *Builder {
	b.entry = id
	return b
}

// Flow assembles the flow without checking it.
func (b *Builder) Flow() domain.Flow {
	flow := domain.Flow{
		Name:        b.name,
		Nodes:       make([]domain.Node, 0, len(b.order)),
		Edges:       []domain.Edge{},
		EntryNodeID: b.entry,
	}

	depth := b.depths()
	rows := make(map[int]int)
	for _, id := range b.order {
		nb := b.nodes[id]
		node := nb.node.Clone()
		if !nb.placed {
			col := depth[id]
			node.Position = domain.Position{X: float64(col * columnWidth), Y: float64(rows[col] * rowHeight)}
			rows[col]++
		}
		flow.Nodes = append(flow.Nodes, node)

		for _, l := range nb.links {
			id := fmt.Sprintf("e-%s-%s", node.ID, l.target)
			if l.handle != "" {
				id += "-" + l.handle
			}
			flow.Edges = append(flow.Edges, domain.Edge{
				ID:           id,
				Source:       node.ID,
				Target:       l.target,
				SourceHandle: l.handle,
				Style:        domain.EdgeStyle{}.Normalize(),
			})
		}
	}
	return flow
}

// Build assembles the flow and fails on any graph.Lint error or node
// configuration that could not be encoded.
// Warnings (such as unreachable nodes) do not fail the build.
func (b *Builder) Build() (domain.Flow, error) {
	flow := b.Flow()

	errs := append([]error(nil), b.errs...)
	for _, issue := range graph.Lint(flow).Issues {
		if issue.Severity == graph.SeverityError {
			errs = append(errs, fmt.Errorf("%s", issue))
		}
	}
	if len(errs) > 0 {
		return domain.Flow{}, &domain.AggregateError{Errors: errs}
	}
	return flow, nil
}

// depths assigns each node the length of the shortest path from an entry node.
// Nodes not reached from an entry are placed in column 0.
func (b *Builder) depths() map[string]int {
	depth := make(map[string]int, len(b.order))
	var queue []string
	for _, id := range b.order {
		if b.nodes[id].node.Type.IsEntry() {
			depth[id] = 0
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, l := range b.nodes[id].links {
			if _, seen := depth[l.target]; seen {
				continue
			}
			if _, ok := b.nodes[l.target]; !ok {
				continue
			}
			depth[l.target] = depth[id] + 1
			queue = append(queue, l.target)
		}
	}
	return depth
}
