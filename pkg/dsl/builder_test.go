package dsl

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/flowstudio/pkg/domain"
)

func TestBuilder_ConditionalFlow(t *testing.T) {
	b := New("weather")

	b.Add("start").Start().Label("Start").Go("fetch")

	b.Add("fetch").
		HTTP("GET", "https://api.example.com/weather").
		Header("Accept", "application/json").
		Go("check")

	b.Add("check").
		Conditional("output.status == `200`").
		Then("summarize").
		Else("give_up")

	b.Add("summarize").LLM("openai", "gpt-4o-mini", "Summarize the forecast")
	b.Add("give_up").Transform("{error: 'weather unavailable'}")

	flow, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if flow.Name != "weather" {
		t.Errorf("Expected name 'weather', got %q", flow.Name)
	}
	if len(flow.Nodes) != 5 {
		t.Fatalf("Expected 5 nodes, got %d", len(flow.Nodes))
	}
	if flow.Nodes[0].ID != "start" || flow.Nodes[4].ID != "give_up" {
		t.Errorf("Expected insertion order, got %s..%s", flow.Nodes[0].ID, flow.Nodes[4].ID)
	}

	fetch, _ := flow.Node("fetch")
	if fetch.Type != domain.NodeTypeHTTP {
		t.Errorf("Expected fetch type 'http', got %q", fetch.Type)
	}
	if fetch.Data.Config["url"] != "https://api.example.com/weather" {
		t.Errorf("Unexpected url: %v", fetch.Data.Config["url"])
	}
	headers, ok := fetch.Data.Config["headers"].(map[string]any)
	if !ok || headers["Accept"] != "application/json" {
		t.Errorf("Expected Accept header, got %v", fetch.Data.Config["headers"])
	}
	if fetch.Position.X != columnWidth {
		t.Errorf("Expected fetch in column 1, got x=%v", fetch.Position.X)
	}

	var handles []string
	for _, e := range flow.Outgoing("check") {
		handles = append(handles, e.SourceHandle)
	}
	if len(handles) != 2 || handles[0] != "true" || handles[1] != "false" {
		t.Errorf("Expected true/false branches, got %v", handles)
	}
	if flow.Edges[0].ID != "e-start-fetch" {
		t.Errorf("Unexpected edge id %q", flow.Edges[0].ID)
	}

	entry, err := flow.ResolveEntryNode()
	if err != nil || entry.ID != "start" {
		t.Errorf("Expected entry 'start', got %q (%v)", entry.ID, err)
	}
}

func TestBuilder_TriggersAndPlacement(t *testing.T) {
	b := New("hooks")
	b.Add("hook").Webhook("/incoming").At(10, 20).Go("wait")
	b.Add("nightly").Schedule("0 3 * * *").Go("wait")
	b.Add("wait").Wait(1.5).Go("sub")
	b.Add("sub").Subflow("cleanup")
	b.Entry("nightly")

	flow, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if flow.EntryNodeID != "nightly" {
		t.Errorf("Expected pinned entry, got %q", flow.EntryNodeID)
	}

	hook, _ := flow.Node("hook")
	if hook.Position.X != 10 || hook.Position.Y != 20 {
		t.Errorf("Explicit position lost: %+v", hook.Position)
	}
	if hook.Data.Config["webhook_path"] != "/incoming" {
		t.Errorf("Unexpected webhook config: %v", hook.Data.Config)
	}

	wait, _ := flow.Node("wait")
	cfg, err := wait.TypedConfig()
	if err != nil {
		t.Fatalf("TypedConfig() failed: %v", err)
	}
	if wc, ok := cfg.(domain.WaitConfig); !ok || wc.Seconds != 1.5 {
		t.Errorf("Unexpected wait config: %#v", cfg)
	}
}

func TestBuilder_RejectsDanglingEdge(t *testing.T) {
	b := New("broken")
	b.Add("start").Start().Go("missing")

	_, err := b.Build()
	if err == nil {
		t.Fatal("Expected Build() to fail on a dangling edge")
	}
	var agg *domain.AggregateError
	if !errors.As(err, &agg) || len(agg.Errors) != 1 {
		t.Errorf("Expected one aggregated error, got %v", err)
	}

	// Flow still assembles for inspection
	if got := len(b.Flow().Edges); got != 1 {
		t.Errorf("Expected 1 edge in the unchecked flow, got %d", got)
	}
}

func TestNodeBuilder_BuildIsACopy(t *testing.T) {
	b := New("copy")
	nb := b.Add("call").HTTP("POST", "https://example.com")

	node := nb.Build()
	node.Data.Config["url"] = "changed"

	if nb.Build().Data.Config["url"] != "https://example.com" {
		t.Error("Build() must not expose the builder's config")
	}
	if b.Add("call") != nb {
		t.Error("Add() must return the existing builder")
	}
}

// scalarConfig cannot be encoded into a configuration map.
type scalarConfig int

func (scalarConfig) NodeType() domain.NodeType { return domain.NodeTypeWait }

func TestBuilder_SurfacesConfigEncodingErrors(t *testing.T) {
	b := New("bad-config")
	b.Add("start").Start().Go("pause")
	b.Add("pause").Config(scalarConfig(5)).Set("seconds", 5.0)

	_, err := b.Build()
	if err == nil {
		t.Fatal("Expected Build() to fail when a node config cannot be encoded")
	}
	var agg *domain.AggregateError
	if !errors.As(err, &agg) || len(agg.Errors) != 1 {
		t.Fatalf("Expected one aggregated error, got %v", err)
	}
	if got := agg.Errors[0].Error(); !strings.Contains(got, "node pause") {
		t.Errorf("Expected the error to name the node, got %q", got)
	}
	if typ := b.Add("pause").Build().Type; typ != domain.NodeTypeWait {
		t.Errorf("Expected node type %s, got %s", domain.NodeTypeWait, typ)
	}
}
