package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	base := Flow{
		Name: "demo",
		Nodes: []Node{
			{ID: "a", Type: NodeTypeStart},
			{ID: "b", Type: NodeTypeHTTP, Data: NodeData{Config: map[string]any{"url": "https://a"}}},
		},
		Edges: []Edge{{ID: "e1", Source: "a", Target: "b"}},
	}

	tests := []struct {
		name   string
		old    *Flow
		mutate func(f *Flow)
		check  func(t *testing.T, d *FlowDiff)
	}{
		{
			name:   "No Changes",
			old:    &base,
			mutate: func(f *Flow) {},
			check: func(t *testing.T, d *FlowDiff) {
				assert.Nil(t, d)
			},
		},
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			mutate: func(f *Flow) {
			},
			check: func(t *testing.T, d *FlowDiff) {
				assert.Equal(t, []string{"a", "b"}, d.AddedNodes)
				assert.Equal(t, []string{"e1"}, d.AddedEdges)
				assert.True(t, d.NameChanged)
			},
		},
		{
			name: "Config Change",
			old:  &base,
			mutate: func(f *Flow) {
				f.Nodes[1].Data.Config["url"] = "https://b"
			},
			check: func(t *testing.T, d *FlowDiff) {
				assert.Equal(t, []string{"b"}, d.ChangedNodes)
				assert.False(t, d.EdgesChanged())
			},
		},
		{
			name: "Node Removed",
			old:  &base,
			mutate: func(f *Flow) {
				f.Nodes = f.Nodes[:1]
				f.Edges = nil
			},
			check: func(t *testing.T, d *FlowDiff) {
				assert.Equal(t, []string{"b"}, d.RemovedNodes)
				assert.Equal(t, []string{"e1"}, d.RemovedEdges)
			},
		},
		{
			name: "Reordered",
			old:  &base,
			mutate: func(f *Flow) {
				f.Nodes[0], f.Nodes[1] = f.Nodes[1], f.Nodes[0]
			},
			check: func(t *testing.T, d *FlowDiff) {
				assert.True(t, d.Reordered)
				assert.True(t, d.NodesChanged())
				assert.Empty(t, d.ChangedNodes)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base.Clone()
			tt.mutate(&next)
			tt.check(t, Diff(tt.old, &next))
		})
	}
}

func TestDiff_NilNew(t *testing.T) {
	assert.Nil(t, Diff(&Flow{}, nil))
}

func TestDiff_EdgeStylesComparedByValue(t *testing.T) {
	f := &Flow{
		Nodes: []Node{{ID: "a", Type: NodeTypeStart}, {ID: "b", Type: NodeTypeHTTP}},
		Edges: []Edge{{ID: "e", Source: "a", Target: "b", Style: EdgeStyle{Opacity: Opacity(0)}.Normalize()}},
	}
	same := f.Clone()
	assert.Nil(t, Diff(f, &same))

	faded := f.Clone()
	faded.Edges[0].Style.Opacity = Opacity(0.5)
	d := Diff(f, &faded)
	if assert.NotNil(t, d) {
		assert.Equal(t, []string{"e"}, d.ChangedEdges)
	}
}
