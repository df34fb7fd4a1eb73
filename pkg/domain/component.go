package domain

import (
	"sort"
	"time"
)

// Component is a reusable node configuration stored in the shared library.
type Component struct {
	ComponentID string         `json:"component_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	NodeType    NodeType       `json:"node_type"`
	Config      map[string]any `json:"config"`
	Tags        []string       `json:"tags"`
	IsPublic    bool           `json:"is_public"`
	Rating      float64        `json:"rating"`
	UsageCount  int            `json:"usage_count"`
	CreatedAt   time.Time      `json:"created_at,omitzero"`
}

// NormalizeTags returns the tags as a sorted set (duplicates and empty tags removed).
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
