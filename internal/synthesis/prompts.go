package synthesis

import (
	"encoding/json"
	"fmt"
	"strings"
)

const analysisSystemPrompt = `You are an expert in multi-agent AI system design.
You analyze free-text descriptions of desired systems and respond with a single JSON object, no prose before or after it.`

const analysisResponseShape = `{
  "summary": "one-paragraph summary of the proposed system",
  "agents": [{"name": "...", "role": "...", "description": "...", "capabilities": ["..."], "limitations": ["..."], "tools": ["..."]}],
  "tools": [{"name": "...", "purpose": "...", "usedBy": ["agent name"]}],
  "relationships": [{"source": "agent name", "target": "agent name", "label": "...", "type": "sequential|parallel|conditional", "dataFlow": "..."}],
  "orchestrationPattern": {"type": "sequential|parallel|conditional|supervisory|hierarchical|collaborative", "justification": "..."},
  "constraints": ["..."]
}`

const diagramSystemPrompt = `You are an expert in visualizing multi-agent orchestration.
Respond with a single JSON object describing a node/edge diagram, no prose before or after it.`

const diagramResponseShape = `{
  "nodes": [{"id": "...", "label": "...", "type": "agent|tool|datastore", "description": "..."}],
  "edges": [{"source": "node id", "target": "node id", "label": "...", "type": "sequential|parallel|conditional"}],
  "layout": "dagre",
  "groups": [{"id": "...", "label": "...", "nodes": ["node id"]}]
}`

func buildInitialAnalysisPrompt(systemDescription string) string {
	var b strings.Builder
	b.WriteString("Analyze the following description of a desired multi-agent AI system.\n")
	b.WriteString("Identify the agents, the tools they need, the relationships between agents, and the orchestration pattern.\n\n")
	b.WriteString("System description:\n")
	b.WriteString(strings.TrimSpace(systemDescription))
	b.WriteString("\n\nRespond with exactly one JSON object of this shape:\n")
	b.WriteString(analysisResponseShape)
	return b.String()
}

func buildRefinementPrompt(initial AnalysisResult, selections []ToolSelection) string {
	initialJSON, _ := json.MarshalIndent(initial, "", "  ")

	var b strings.Builder
	b.WriteString("Refine the following multi-agent system analysis.\n")
	b.WriteString("The user reviewed the suggested tools and made these selections; rework agent capabilities, tool assignments and relationships to incorporate them.\n\n")
	b.WriteString("Current analysis:\n")
	b.Write(initialJSON)
	b.WriteString("\n\nUser tool selections:\n")
	for _, sel := range selections {
		fmt.Fprintf(&b, "- %s: %s\n", sel.AgentName, strings.Join(sel.Tools, ", "))
	}
	b.WriteString("\nRespond with exactly one JSON object of the same shape as the current analysis (summary, agents, tools, relationships, orchestrationPattern, constraints).\n")
	return b.String()
}

func buildDiagramPrompt(agents []Agent, relationships []Relationship, orchestrationType string) string {
	agentsJSON, _ := json.MarshalIndent(agents, "", "  ")

	var b strings.Builder
	b.WriteString("Produce a diagram of the orchestration between these agents")
	if t := strings.TrimSpace(orchestrationType); t != "" {
		fmt.Fprintf(&b, " using a %s pattern", t)
	}
	b.WriteString(".\n\nAgents:\n")
	b.Write(agentsJSON)
	if len(relationships) > 0 {
		relJSON, _ := json.MarshalIndent(relationships, "", "  ")
		b.WriteString("\n\nKnown relationships:\n")
		b.Write(relJSON)
	}
	b.WriteString("\n\nRespond with exactly one JSON object of this shape:\n")
	b.WriteString(diagramResponseShape)
	return b.String()
}
