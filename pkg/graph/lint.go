package graph

import (
	"errors"
	"fmt"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/schema"
)

// Severity of a lint issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding of Lint.
type Issue struct {
	Severity Severity `json:"severity"`
	NodeID   string   `json:"node_id,omitempty"`
	EdgeID   string   `json:"edge_id,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	switch {
	case i.NodeID != "":
		return fmt.Sprintf("%s: node %s: %s", i.Severity, i.NodeID, i.Message)
	case i.EdgeID != "":
		return fmt.Sprintf("%s: edge %s: %s", i.Severity, i.EdgeID, i.Message)
	default:
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
}

// Report is the result of linting a flow.
type Report struct {
	Issues []Issue `json:"issues"`
}

// OK reports whether the flow has no error-level issue.
func (r Report) OK() bool {
	return r.Count(SeverityError) == 0
}

// Count returns the number of issues of the given severity.
func (r Report) Count(sev Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == sev {
			n++
		}
	}
	return n
}

// Lint checks a flow without modifying it.
//
// Errors: duplicate node ids, dangling edges, a pinned entry node that is
// missing or not a start/trigger node, node configs failing their schema.
// Warnings: no nodes, no start/trigger node, conditional edges without a
// true/false handle, nodes unreachable from any entry point.
func Lint(flow domain.Flow) Report {
	r := Report{Issues: []Issue{}}
	add := func(sev Severity, nodeID, edgeID, format string, args ...any) {
		r.Issues = append(r.Issues, Issue{Severity: sev, NodeID: nodeID, EdgeID: edgeID, Message: fmt.Sprintf(format, args...)})
	}

	if len(flow.Nodes) == 0 {
		add(SeverityWarning, "", "", "flow has no nodes")
		return r
	}

	types := make(map[string]domain.NodeType, len(flow.Nodes))
	for _, n := range flow.Nodes {
		if _, dup := types[n.ID]; dup {
			add(SeverityError, n.ID, "", "duplicate node id")
			continue
		}
		types[n.ID] = n.Type

		if err := schema.ValidateNode(n); err != nil {
			fieldErrs := schema.ValidationErrors(err)
			if len(fieldErrs) == 0 {
				fieldErrs = []error{err}
			}
			for _, fe := range fieldErrs {
				var ve *domain.ValidationError
				if errors.As(fe, &ve) {
					add(SeverityError, n.ID, "", "%s", ve.Error())
				} else {
					add(SeverityError, n.ID, "", "%v", fe)
				}
			}
		}
	}

	for _, e := range flow.Edges {
		if _, ok := types[e.Source]; !ok {
			add(SeverityError, "", e.ID, "source %q does not exist", e.Source)
			continue
		}
		if _, ok := types[e.Target]; !ok {
			add(SeverityError, "", e.ID, "target %q does not exist", e.Target)
			continue
		}
		if types[e.Source] == domain.NodeTypeConditional && e.SourceHandle != "true" && e.SourceHandle != "false" {
			add(SeverityWarning, "", e.ID, "leaves conditional %s without a true/false handle and is never taken", e.Source)
		}
	}

	if flow.EntryNodeID != "" {
		t, ok := types[flow.EntryNodeID]
		switch {
		case !ok:
			add(SeverityError, flow.EntryNodeID, "", "entry node does not exist")
		case !t.IsEntry():
			add(SeverityError, flow.EntryNodeID, "", "entry node must be a start or trigger node, got %s", t)
		}
	}

	var roots []string
	for _, n := range flow.Nodes {
		if n.Type.IsEntry() {
			roots = append(roots, n.ID)
		}
	}
	if len(roots) == 0 {
		add(SeverityWarning, "", "", "no start or trigger node; runs begin at %s", flow.Nodes[0].ID)
		roots = []string{flow.Nodes[0].ID}
	}

	reached := reachable(flow, roots)
	for _, n := range flow.Nodes {
		if !reached[n.ID] {
			add(SeverityWarning, n.ID, "", "unreachable from any entry point")
		}
	}
	return r
}

func reachable(flow domain.Flow, roots []string) map[string]bool {
	seen := make(map[string]bool, len(flow.Nodes))
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		for _, e := range flow.Outgoing(id) {
			queue = append(queue, e.Target)
		}
	}
	return seen
}
