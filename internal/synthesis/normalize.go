package synthesis

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrNoNodes is returned when diagram normalization ends with an empty node
// list even after the input-agents fallback.
var ErrNoNodes = errors.New("diagram has no nodes after normalization")

// MissingFieldError reports a structurally valid payload that lacks a
// required field. Optional fields are defaulted instead and never produce
// this error.
type MissingFieldError struct {
	Entity string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is missing required field %q", e.Entity, e.Field)
}

const defaultLayout = "dagre"

// NormalizeDiagram maps a parsed-but-possibly-irregular diagram object onto
// the canonical DiagramData shape. Node data is accepted under nodes,
// vertices or agents; edge data under edges, links or relationships. Edges
// referencing unknown node ids are dropped, never fatal: partial diagrams
// are valid output. When the payload yields no nodes at all, one node per
// entry of inputAgents is synthesized instead.
func NormalizeDiagram(parsed map[string]any, inputAgents []Agent, log *slog.Logger) (DiagramData, error) {
	if log == nil {
		log = slog.Default()
	}

	out := DiagramData{
		Nodes:  normalizeNodes(anySlice(parsed, "nodes", "vertices", "agents")),
		Layout: stringField(parsed, defaultLayout, "layout"),
	}

	if len(out.Nodes) == 0 {
		for _, a := range inputAgents {
			out.Nodes = append(out.Nodes, Node{
				ID:          a.ID,
				Label:       a.Name,
				Type:        "agent",
				Description: a.Description,
			})
		}
	}
	if len(out.Nodes) == 0 {
		return DiagramData{}, ErrNoNodes
	}

	known := make(map[string]struct{}, len(out.Nodes))
	for _, n := range out.Nodes {
		known[n.ID] = struct{}{}
	}

	edges := anySlice(parsed, "edges", "links", "relationships")
	out.Edges = make([]Edge, 0, len(edges))
	for i, raw := range edges {
		e, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		edge := Edge{
			ID:     stringField(e, fmt.Sprintf("edge_%d", i+1), "id"),
			Source: stringField(e, "", "source", "from", "source_id"),
			Target: stringField(e, "", "target", "to", "target_id"),
			Label:  stringField(e, "", "label"),
			Type:   stringField(e, PatternSequential, "type"),
		}
		if _, ok := known[edge.Source]; !ok {
			log.Warn("dropping edge with unknown source", "edge", edge.ID, "source", edge.Source)
			continue
		}
		if _, ok := known[edge.Target]; !ok {
			log.Warn("dropping edge with unknown target", "edge", edge.ID, "target", edge.Target)
			continue
		}
		out.Edges = append(out.Edges, edge)
	}

	out.Groups = normalizeGroups(anySlice(parsed, "groups"))
	return out, nil
}

func normalizeNodes(raw []any) []Node {
	nodes := make([]Node, 0, len(raw))
	for i, item := range raw {
		n, ok := item.(map[string]any)
		if !ok {
			continue
		}
		node := Node{
			ID:          stringField(n, fmt.Sprintf("node_%d", i+1), "id"),
			Label:       stringField(n, fmt.Sprintf("Node %d", i+1), "label", "name"),
			Type:        stringField(n, "agent", "type"),
			Role:        stringField(n, "", "role"),
			Category:    stringField(n, "", "category"),
			Description: stringField(n, "", "description"),
		}
		if v, ok := n["size"].(float64); ok {
			node.Size = v
		}
		if v, ok := n["style"].(map[string]any); ok {
			node.Style = v
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func normalizeGroups(raw []any) []Group {
	if len(raw) == 0 {
		return nil
	}
	groups := make([]Group, 0, len(raw))
	for i, item := range raw {
		g, ok := item.(map[string]any)
		if !ok {
			continue
		}
		group := Group{
			ID:    stringField(g, fmt.Sprintf("group_%d", i+1), "id"),
			Label: stringField(g, "", "label", "name"),
		}
		for _, v := range anySlice(g, "nodes", "members") {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				group.Nodes = append(group.Nodes, strings.TrimSpace(s))
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// NormalizeAnalysis validates and default-fills an analysis-shaped payload
// from the first synthesis pass. The agents array is required; everything
// else is defaulted when absent. Relationships whose endpoints reference no
// known agent are dropped, matching the diagram edge policy.
func NormalizeAnalysis(parsed map[string]any, log *slog.Logger) (AnalysisResult, error) {
	if log == nil {
		log = slog.Default()
	}

	rawAgents, ok := parsed["agents"].([]any)
	if !ok {
		return AnalysisResult{}, &MissingFieldError{Entity: "analysis", Field: "agents"}
	}

	out := AnalysisResult{
		Summary:       stringField(parsed, "", "summary"),
		Agents:        make([]Agent, 0, len(rawAgents)),
		Tools:         []Tool{},
		Relationships: []Relationship{},
	}

	for i, item := range rawAgents {
		a, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := stringField(a, "", "name")
		if name == "" {
			return AnalysisResult{}, &MissingFieldError{Entity: fmt.Sprintf("agent[%d]", i), Field: "name"}
		}
		role := stringField(a, "", "role")
		if role == "" {
			return AnalysisResult{}, &MissingFieldError{Entity: fmt.Sprintf("agent[%d]", i), Field: "role"}
		}
		out.Agents = append(out.Agents, Agent{
			ID:           fmt.Sprintf("agent_%d", i+1),
			Name:         name,
			Role:         role,
			Description:  stringField(a, "", "description"),
			Capabilities: stringSlice(a, "capabilities"),
			Limitations:  stringSlice(a, "limitations"),
			Tools:        stringSlice(a, "tools"),
		})
	}

	for i, item := range anySlice(parsed, "tools") {
		t, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := stringField(t, "", "name")
		if name == "" {
			continue
		}
		out.Tools = append(out.Tools, Tool{
			ID:      fmt.Sprintf("tool_%d", i+1),
			Name:    name,
			Purpose: stringField(t, "", "purpose", "description"),
			UsedBy:  stringSlice(t, "usedBy", "used_by", "agents"),
		})
	}

	known := make(map[string]struct{}, 2*len(out.Agents))
	for _, a := range out.Agents {
		known[a.Name] = struct{}{}
		known[a.ID] = struct{}{}
	}
	for i, item := range anySlice(parsed, "relationships") {
		r, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rel := Relationship{
			ID:       fmt.Sprintf("rel_%d", i+1),
			Source:   stringField(r, "", "source", "from", "source_id"),
			Target:   stringField(r, "", "target", "to", "target_id"),
			Label:    stringField(r, "", "label", "description"),
			Type:     stringField(r, PatternSequential, "type"),
			DataFlow: stringField(r, "", "dataFlow", "data_flow"),
		}
		if _, ok := known[rel.Source]; !ok {
			log.Warn("dropping relationship with unknown source", "relationship", rel.ID, "source", rel.Source)
			continue
		}
		if _, ok := known[rel.Target]; !ok {
			log.Warn("dropping relationship with unknown target", "relationship", rel.ID, "target", rel.Target)
			continue
		}
		out.Relationships = append(out.Relationships, rel)
	}

	if p, ok := parsed["orchestrationPattern"].(map[string]any); ok {
		out.OrchestrationPattern = OrchestrationPattern{
			Type:          normalizePatternType(stringField(p, "", "type")),
			Justification: stringField(p, "", "justification", "reason"),
		}
	} else if s := stringField(parsed, "", "orchestrationPattern", "orchestration_pattern"); s != "" {
		out.OrchestrationPattern = OrchestrationPattern{Type: normalizePatternType(s)}
	}

	out.Constraints = stringSlice(parsed, "constraints")
	return out, nil
}

func normalizePatternType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case PatternParallel:
		return PatternParallel
	case PatternConditional:
		return PatternConditional
	case PatternSupervisory:
		return PatternSupervisory
	case PatternHierarchical:
		return PatternHierarchical
	case PatternCollaborative:
		return PatternCollaborative
	case PatternSequential:
		return PatternSequential
	case "":
		return ""
	default:
		// Unknown types degrade to sequential rather than failing the pass.
		return PatternSequential
	}
}

// stringField resolves the first present, non-empty string among the given
// candidate keys, in priority order.
func stringField(m map[string]any, fallback string, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return fallback
}

func anySlice(m map[string]any, keys ...string) []any {
	for _, k := range keys {
		if v, ok := m[k].([]any); ok {
			return v
		}
	}
	return nil
}

func stringSlice(m map[string]any, keys ...string) []string {
	out := []string{}
	for _, v := range anySlice(m, keys...) {
		if s, ok := v.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
