package synthesis

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func mustParse(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return m
}

func TestNormalizeDiagram_AliasesAndDanglingEdge(t *testing.T) {
	t.Parallel()

	parsed := mustParse(t, `{
		"vertices": [{"id": "n1", "name": "X"}],
		"links": [{"from": "n1", "to": "n2"}]
	}`)

	got, err := NormalizeDiagram(parsed, nil, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(got.Nodes))
	}
	n := got.Nodes[0]
	if n.ID != "n1" || n.Label != "X" || n.Type != "agent" {
		t.Fatalf("node = %+v", n)
	}
	// The edge references unknown "n2" and must be dropped, not fail the op.
	if len(got.Edges) != 0 {
		t.Fatalf("edges = %d, want 0", len(got.Edges))
	}
	if got.Layout != "dagre" {
		t.Fatalf("layout = %q", got.Layout)
	}
}

func TestNormalizeDiagram_EdgeDefaults(t *testing.T) {
	t.Parallel()

	parsed := mustParse(t, `{
		"nodes": [{"id": "a"}, {"id": "b", "label": "B", "type": "tool"}],
		"edges": [{"source": "a", "target": "b"}]
	}`)

	got, err := NormalizeDiagram(parsed, nil, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Nodes[0].Label != "Node 1" {
		t.Fatalf("default label = %q", got.Nodes[0].Label)
	}
	if got.Nodes[1].Type != "tool" {
		t.Fatalf("explicit type lost: %q", got.Nodes[1].Type)
	}
	e := got.Edges[0]
	if e.ID != "edge_1" || e.Label != "" || e.Type != PatternSequential {
		t.Fatalf("edge = %+v", e)
	}
}

func TestNormalizeDiagram_FallsBackToInputAgents(t *testing.T) {
	t.Parallel()

	agents := []Agent{
		{ID: "agent_1", Name: "Planner", Description: "breaks down work"},
	}
	got, err := NormalizeDiagram(map[string]any{}, agents, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(got.Nodes))
	}
	n := got.Nodes[0]
	if n.ID != "agent_1" || n.Label != "Planner" || n.Type != "agent" || n.Description != "breaks down work" {
		t.Fatalf("node = %+v", n)
	}
}

func TestNormalizeDiagram_NoNodes(t *testing.T) {
	t.Parallel()

	_, err := NormalizeDiagram(map[string]any{}, nil, discardLogger())
	if !errors.Is(err, ErrNoNodes) {
		t.Fatalf("err = %v, want ErrNoNodes", err)
	}
}

func TestNormalizeDiagram_EdgesAlwaysReferenceKnownNodes(t *testing.T) {
	t.Parallel()

	parsed := mustParse(t, `{
		"nodes": [{"id": "a"}, {"id": "b"}],
		"edges": [
			{"source": "a", "target": "b"},
			{"source": "a", "target": "ghost"},
			{"source": "ghost", "target": "b"},
			{"source": "b", "target": "a", "label": "ack"}
		]
	}`)

	got, err := NormalizeDiagram(parsed, nil, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	known := map[string]struct{}{}
	for _, n := range got.Nodes {
		known[n.ID] = struct{}{}
	}
	if len(got.Edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(got.Edges))
	}
	for _, e := range got.Edges {
		if _, ok := known[e.Source]; !ok {
			t.Fatalf("dangling source survived: %+v", e)
		}
		if _, ok := known[e.Target]; !ok {
			t.Fatalf("dangling target survived: %+v", e)
		}
	}
}

func TestNormalizeDiagram_Idempotent(t *testing.T) {
	t.Parallel()

	parsed := mustParse(t, `{
		"vertices": [{"id": "n1", "name": "X"}, {"id": "n2", "label": "Y", "type": "tool"}],
		"links": [{"from": "n1", "to": "n2", "label": "calls"}],
		"layout": "dagre"
	}`)

	first, err := NormalizeDiagram(parsed, nil, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := NormalizeDiagram(mustParse(t, string(b)), nil, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestNormalizeAnalysis_MissingAgents(t *testing.T) {
	t.Parallel()

	_, err := NormalizeAnalysis(mustParse(t, `{"summary": "no entities"}`), discardLogger())
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingFieldError", err)
	}
	if missing.Entity != "analysis" || missing.Field != "agents" {
		t.Fatalf("missing = %+v", missing)
	}
}

func TestNormalizeAnalysis_AgentRequiredFields(t *testing.T) {
	t.Parallel()

	_, err := NormalizeAnalysis(mustParse(t, `{"agents": [{"name": "A"}]}`), discardLogger())
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingFieldError", err)
	}
	if missing.Field != "role" {
		t.Fatalf("missing field = %q, want role", missing.Field)
	}
}

func TestNormalizeAnalysis_DefaultsAndDrops(t *testing.T) {
	t.Parallel()

	parsed := mustParse(t, `{
		"summary": "two agents",
		"agents": [
			{"name": "Planner", "role": "plans", "capabilities": ["decompose"]},
			{"name": "Executor", "role": "executes"}
		],
		"tools": [{"name": "search", "purpose": "find things"}],
		"relationships": [
			{"source": "Planner", "target": "Executor", "label": "delegates"},
			{"source": "Planner", "target": "Reviewer"}
		],
		"orchestrationPattern": {"type": "Sequential", "justification": "linear flow"},
		"constraints": ["budget"]
	}`)

	got, err := NormalizeAnalysis(parsed, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Agents) != 2 {
		t.Fatalf("agents = %d", len(got.Agents))
	}
	if got.Agents[0].ID != "agent_1" || got.Agents[1].ID != "agent_2" {
		t.Fatalf("agent ids = %q, %q", got.Agents[0].ID, got.Agents[1].ID)
	}
	if got.Agents[1].Capabilities == nil || len(got.Agents[1].Capabilities) != 0 {
		t.Fatalf("capabilities should default to empty list, got %#v", got.Agents[1].Capabilities)
	}
	if len(got.Tools) != 1 || got.Tools[0].ID != "tool_1" {
		t.Fatalf("tools = %+v", got.Tools)
	}
	// The Reviewer relationship references no known agent and is dropped.
	if len(got.Relationships) != 1 {
		t.Fatalf("relationships = %+v", got.Relationships)
	}
	if got.OrchestrationPattern.Type != PatternSequential {
		t.Fatalf("pattern = %+v", got.OrchestrationPattern)
	}
	if len(got.Constraints) != 1 || got.Constraints[0] != "budget" {
		t.Fatalf("constraints = %+v", got.Constraints)
	}
}

func TestNormalizeAnalysis_PatternAsBareString(t *testing.T) {
	t.Parallel()

	parsed := mustParse(t, `{
		"agents": [{"name": "A", "role": "does things"}],
		"orchestrationPattern": "hierarchical"
	}`)

	got, err := NormalizeAnalysis(parsed, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.OrchestrationPattern.Type != PatternHierarchical {
		t.Fatalf("pattern = %+v", got.OrchestrationPattern)
	}
}
