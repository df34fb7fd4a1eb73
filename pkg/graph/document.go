package graph

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// NewNodeID returns a fresh node id prefixed by its type, e.g. "http-1a2b3c4d".
func NewNodeID(t domain.NodeType) string {
	return fmt.Sprintf("%s-%s", t, uuid.NewString()[:8])
}

// AddNode appends a new node of type t at pos and returns it.
func (s *Store) AddNode(t domain.NodeType, label string, pos domain.Position) (domain.Node, error) {
	if !t.Valid() {
		return domain.Node{}, &domain.ValidationError{Field: "type", Reason: "unknown node type", Value: string(t)}
	}
	n := domain.Node{
		ID:       NewNodeID(t),
		Type:     t,
		Position: pos,
		Data:     domain.NodeData{Label: label, Config: map[string]any{}},
	}
	s.SetNodes(append(s.Nodes(), n))
	return n, nil
}

// RemoveNode deletes a node together with its edges.
func (s *Store) RemoveNode(id string) {
	nodes := s.Nodes()
	kept := nodes[:0]
	for _, n := range nodes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.SetNodes(kept)
}

// UpdateNodeConfigJSON replaces a node's configuration with user-edited JSON text.
// Text that is not a JSON object is recorded as a diagnostic and the last valid
// configuration is kept. It reports whether the new configuration was applied.
func (s *Store) UpdateNodeConfigJSON(id, text string) bool {
	var cfg map[string]any
	if err := json.Unmarshal([]byte(text), &cfg); err != nil || cfg == nil {
		reason := "not a JSON object"
		if err != nil {
			reason = err.Error()
		}
		s.diagnose(fmt.Sprintf("node %s: config not applied: %s", id, reason))
		return false
	}
	if err := s.UpdateNodeConfig(id, cfg); err != nil {
		s.diagnose(err.Error())
		return false
	}
	return true
}

// LoadJSON replaces the store with a saved flow, as returned by the backend:
// {"name": ..., "flow_data": {"nodes": [...], "edges": [...]}}.
// A bare {"nodes", "edges"} document is accepted as well.
//
// Collections of the wrong shape, and elements that cannot be decoded, are
// replaced by empty values with a diagnostic rather than failing the load.
func (s *Store) LoadJSON(raw []byte) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &domain.ValidationError{Field: "flow", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	flow := domain.Flow{}
	if name, ok := envelope["name"]; ok {
		if err := json.Unmarshal(name, &flow.Name); err != nil {
			s.diagnose("flow name is not a string, ignored")
		}
	}

	body := envelope
	if data, ok := envelope["flow_data"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err != nil || inner == nil {
			s.diagnose("flow_data is not an object, loaded as empty")
			inner = map[string]json.RawMessage{}
		}
		body = inner
	}

	if entry, ok := body["entryNodeId"]; ok {
		_ = json.Unmarshal(entry, &flow.EntryNodeID)
	}

	var diags []string
	flow.Nodes, diags = decodeList[domain.Node]("nodes", body["nodes"], diags)
	flow.Edges, diags = decodeList[domain.Edge]("edges", body["edges"], diags)
	for _, d := range diags {
		s.diagnose(d)
	}

	s.Replace(flow)
	return nil
}

// decodeList decodes a JSON array element by element, skipping elements that do not fit T.
func decodeList[T any](field string, raw json.RawMessage, diags []string) ([]T, []string) {
	out := []T{}
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return out, diags
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out, append(diags, fmt.Sprintf("%s is not an array, loaded as empty", field))
	}
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			diags = append(diags, fmt.Sprintf("%s[%d] skipped: %v", field, i, err))
			continue
		}
		out = append(out, v)
	}
	return out, diags
}

// ImportJSON replaces nodes and edges with an exported document.
// Both "nodes" and "edges" must be arrays; otherwise a *domain.ValidationError
// is returned and the store is left untouched. The flow name is kept.
func (s *Store) ImportJSON(raw []byte) error {
	doc, err := parseDocument(raw)
	if err != nil {
		return err
	}
	flow := s.Snapshot()
	flow.Nodes = doc.Nodes
	flow.Edges = doc.Edges
	flow.EntryNodeID = doc.EntryNodeID
	s.Replace(flow)
	return nil
}

// ImportYAML is ImportJSON for YAML documents.
func (s *Store) ImportYAML(raw []byte) error {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return &domain.ValidationError{Field: "document", Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}
	asJSON, err := json.Marshal(generic)
	if err != nil {
		return &domain.ValidationError{Field: "document", Reason: fmt.Sprintf("unsupported YAML: %v", err)}
	}
	return s.ImportJSON(asJSON)
}

// ParseDocument validates an exported document without touching any store.
func ParseDocument(raw []byte) (domain.Document, error) {
	return parseDocument(raw)
}

func parseDocument(raw []byte) (domain.Document, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return domain.Document{}, &domain.ValidationError{Field: "document", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	var doc domain.Document
	for _, field := range []string{"nodes", "edges"} {
		value, ok := envelope[field]
		if !ok {
			return domain.Document{}, &domain.ValidationError{Field: field, Reason: "missing"}
		}
		var probe []json.RawMessage
		if err := json.Unmarshal(value, &probe); err != nil || probe == nil {
			return domain.Document{}, &domain.ValidationError{Field: field, Reason: "must be an array"}
		}
	}
	if err := json.Unmarshal(envelope["nodes"], &doc.Nodes); err != nil {
		return domain.Document{}, &domain.ValidationError{Field: "nodes", Reason: err.Error()}
	}
	if err := json.Unmarshal(envelope["edges"], &doc.Edges); err != nil {
		return domain.Document{}, &domain.ValidationError{Field: "edges", Reason: err.Error()}
	}
	if entry, ok := envelope["entryNodeId"]; ok {
		if err := json.Unmarshal(entry, &doc.EntryNodeID); err != nil {
			return domain.Document{}, &domain.ValidationError{Field: "entryNodeId", Reason: "must be a string"}
		}
	}
	return doc, nil
}

// Export returns the {nodes, edges} document as indented JSON.
func (s *Store) Export() ([]byte, error) {
	flow := s.Snapshot()
	return json.MarshalIndent(flow.Document(), "", "  ")
}

// ExportYAML returns the {nodes, edges} document as YAML.
func (s *Store) ExportYAML() ([]byte, error) {
	flow := s.Snapshot()
	return yaml.Marshal(flow.Document())
}

// SaveRequest builds the payload persisted by the backend.
func (s *Store) SaveRequest() domain.SaveFlowRequest {
	flow := s.Snapshot()
	return domain.SaveFlowRequest{Name: flow.Name, Nodes: flow.Nodes, Edges: flow.Edges, EntryNodeID: flow.EntryNodeID}
}
