package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowstudio/pkg/domain"
)

// GraphOverlay contains run state data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
	FailedNodes  []string
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a flow.
// It applies semantic styling:
// - Start/Trigger: ((Circle))
// - Conditional: {Rhombus}
// - HTTP/Subflow: [[Subroutine]]
// - LLM: {{Hexagon}}
// - Transform: [/Parallelogram/]
// - Wait: ([Stadium])
// - Default: [Rectangle]
// Edges with a dangling endpoint are skipped. The resolved entry node is marked.
func GenerateMermaid(flow domain.Flow, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range flow.Nodes {
		safeID := sanitizeMermaidID(node.ID)
		opener, closer := shape(node.Type)

		label := node.Data.Label
		if label == "" {
			label = node.ID
		}
		label = strings.ReplaceAll(label, "\"", "'")
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> <small>%s</small>\"%s\n", safeID, opener, label, node.Type, closer)
	}

	for _, e := range flow.Edges {
		if !flow.HasNode(e.Source) || !flow.HasNode(e.Target) {
			continue
		}
		arrow := "-->"
		if e.Animated {
			arrow = "==>"
		}
		if e.SourceHandle != "" {
			safeHandle := strings.ReplaceAll(e.SourceHandle, "\"", "'")
			arrow = fmt.Sprintf("-- \"%s\" -->", safeHandle)
			if e.Animated {
				arrow = fmt.Sprintf("== \"%s\" ==>", safeHandle)
			}
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.Source), arrow, sanitizeMermaidID(e.Target))
	}

	if entry, err := flow.ResolveEntryNode(); err == nil {
		sb.WriteString("    classDef entry stroke:#6366f1,stroke-width:3px;\n")
		fmt.Fprintf(&sb, "    class %s entry;\n", sanitizeMermaidID(entry.ID))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#c62828,stroke-width:2px,color:#000;\n")

		writeClass(&sb, overlay.VisitedNodes, "visited")
		writeClass(&sb, overlay.FailedNodes, "failed")
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, ids []string, class string) {
	seen := make(map[string]bool)
	for _, id := range ids {
		safeID := sanitizeMermaidID(id)
		if safeID == "" || seen[safeID] {
			continue
		}
		seen[safeID] = true
		fmt.Fprintf(sb, "    class %s %s;\n", safeID, class)
	}
}

func shape(t domain.NodeType) (string, string) {
	switch t {
	case domain.NodeTypeStart, domain.NodeTypeTrigger:
		return "((", "))"
	case domain.NodeTypeConditional:
		return "{", "}"
	case domain.NodeTypeHTTP, domain.NodeTypeSubflow:
		return "[[", "]]"
	case domain.NodeTypeLLM:
		return "{{", "}}"
	case domain.NodeTypeTransform:
		return "[/", "/]"
	case domain.NodeTypeWait:
		return "([", "])"
	default:
		return "[", "]"
	}
}

// OverlayFromConsole derives an overlay from a run's console: nodes mentioned as
// "[id] ..." are visited, the last one is current, and error lines mark failures.
func OverlayFromConsole(lines []domain.ConsoleLine) *GraphOverlay {
	o := &GraphOverlay{}
	for _, l := range lines {
		id, ok := nodeRef(l.Text)
		if !ok {
			continue
		}
		o.VisitedNodes = append(o.VisitedNodes, id)
		o.CurrentNode = id
		if l.Kind == domain.ConsoleError {
			o.FailedNodes = append(o.FailedNodes, id)
		}
	}
	return o
}

func nodeRef(text string) (string, bool) {
	if !strings.HasPrefix(text, "[") {
		return "", false
	}
	end := strings.Index(text, "]")
	if end <= 1 {
		return "", false
	}
	return text[1:end], true
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
