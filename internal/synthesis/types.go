// Package synthesis turns raw model output into the canonical analysis and
// diagram structures consumed by the API layer, the design store and the
// diagram renderer. It owns the extraction, normalization and confidence
// scoring steps of the pipeline.
package synthesis

// Agent is one agent of a proposed multi-agent system. Identity within a
// single analysis is the Name; the ID is assigned at normalization time and
// stays stable for the lifetime of a design.
type Agent struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Description  string   `json:"description,omitempty"`
	Capabilities []string `json:"capabilities"`
	Limitations  []string `json:"limitations"`
	Tools        []string `json:"tools"`

	// Confidence is a heuristic 0-100 trust score, not a calibrated
	// probability. Populated by Score.
	Confidence int `json:"confidence,omitempty"`
}

// Tool is an external capability one or more agents use.
type Tool struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Purpose    string   `json:"purpose,omitempty"`
	UsedBy     []string `json:"usedBy"`
	Confidence int      `json:"confidence,omitempty"`
}

// Relationship is a directed edge between two agents. Source and Target
// reference agents of the same result by name or id; edges that do not are
// dropped during normalization.
type Relationship struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	Label      string `json:"label,omitempty"`
	Type       string `json:"type,omitempty"`
	DataFlow   string `json:"dataFlow,omitempty"`
	Confidence int    `json:"confidence,omitempty"`
}

// Orchestration pattern types accepted from model output.
const (
	PatternSequential    = "sequential"
	PatternParallel      = "parallel"
	PatternConditional   = "conditional"
	PatternSupervisory   = "supervisory"
	PatternHierarchical  = "hierarchical"
	PatternCollaborative = "collaborative"
)

// OrchestrationPattern is the coordination topology among agents.
type OrchestrationPattern struct {
	Type          string `json:"type"`
	Justification string `json:"justification,omitempty"`
}

// SystemConfidence carries the four whole-system extraction-trust metrics.
// Values are integers and nominally 0-100; a few branches deliberately do
// not clamp (see the scorer).
type SystemConfidence struct {
	Overall      int `json:"overall"`
	Completeness int `json:"completeness"`
	Consistency  int `json:"consistency"`
	Clarity      int `json:"clarity"`
}

// Metadata describes how an analysis was produced.
type Metadata struct {
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	ModelVersion     string `json:"modelVersion"`
	Timestamp        string `json:"timestamp"`
}

// AnalysisResult is the canonical output of the synthesis pipeline. It is a
// plain value: the pipeline holds no reference to it after returning.
type AnalysisResult struct {
	Summary              string               `json:"summary,omitempty"`
	Agents               []Agent              `json:"agents"`
	Tools                []Tool               `json:"tools"`
	Relationships        []Relationship       `json:"relationships"`
	OrchestrationPattern OrchestrationPattern `json:"orchestrationPattern"`
	Constraints          []string             `json:"constraints,omitempty"`
	SystemConfidence     SystemConfidence     `json:"systemConfidence"`
	Metadata             Metadata             `json:"metadata"`
}

// Node is one node of the canonical diagram structure.
type Node struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Type        string         `json:"type"`
	Role        string         `json:"role,omitempty"`
	Category    string         `json:"category,omitempty"`
	Description string         `json:"description,omitempty"`
	Size        float64        `json:"size,omitempty"`
	Style       map[string]any `json:"style,omitempty"`
}

// Edge is one directed edge of the canonical diagram structure. Source and
// Target always reference node ids of the same diagram after normalization.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
	Type   string `json:"type"`
}

// Group is an optional visual grouping of nodes.
type Group struct {
	ID    string   `json:"id"`
	Label string   `json:"label,omitempty"`
	Nodes []string `json:"nodes,omitempty"`
}

// DiagramData is the canonical structure consumed by the diagram renderer.
type DiagramData struct {
	Nodes  []Node  `json:"nodes"`
	Edges  []Edge  `json:"edges"`
	Layout string  `json:"layout"`
	Groups []Group `json:"groups,omitempty"`
}

// ToolSelection records which suggested tools the user accepted for one
// agent between the initial and refined synthesis passes.
type ToolSelection struct {
	AgentName string   `json:"agentName"`
	Tools     []string `json:"tools"`
}
