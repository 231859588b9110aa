package synthesis

import (
	"strings"
	"testing"
)

const scoringSource = "# Task pipeline\nWe need a Planner that breaks work into steps and an Executor that runs them. For example, the Planner hands each step to the Executor."

func scoringFixture() AnalysisResult {
	return AnalysisResult{
		Agents: []Agent{
			{
				ID:          "agent_1",
				Name:        "Planner",
				Role:        "planning coordinator",
				Description: "Breaks incoming work into ordered, executable steps for downstream agents.",
			},
			{
				ID:   "agent_2",
				Name: "Executor",
				Role: "execution worker",
			},
		},
		Tools: []Tool{
			{ID: "tool_1", Name: "search_api", Purpose: "Looks up supporting documents on the public web."},
		},
		Relationships: []Relationship{
			{
				ID:       "rel_1",
				Source:   "Planner",
				Target:   "Executor",
				Label:    "hands ordered steps over for execution",
				DataFlow: "steps",
			},
		},
		OrchestrationPattern: OrchestrationPattern{Type: PatternSequential},
	}
}

func TestScore_PerEntityConfidence(t *testing.T) {
	t.Parallel()

	scored := Score(scoringFixture(), scoringSource)

	// 70 base + 3.7 description detail + 4 mentions + 10 role length.
	if got := scored.Agents[0].Confidence; got != 88 {
		t.Fatalf("planner confidence = %d, want 88", got)
	}
	// 70 base + 0 description + 4 mentions + 10 role length.
	if got := scored.Agents[1].Confidence; got != 84 {
		t.Fatalf("executor confidence = %d, want 84", got)
	}
	// 70 base + 10 name specificity + 15 purpose, not mentioned in source.
	if got := scored.Tools[0].Confidence; got != 95 {
		t.Fatalf("tool confidence = %d, want 95", got)
	}
	// 70 + 15 label + 15 endpoints + 10 data flow, capped at 100.
	if got := scored.Relationships[0].Confidence; got != 100 {
		t.Fatalf("relationship confidence = %d, want 100", got)
	}
}

func TestScore_SystemMetrics(t *testing.T) {
	t.Parallel()

	scored := Score(scoringFixture(), scoringSource)
	sc := scored.SystemConfidence

	if sc.Overall != 89 {
		t.Fatalf("overall = %d, want 89", sc.Overall)
	}
	if sc.Completeness != 100 {
		t.Fatalf("completeness = %d, want 100", sc.Completeness)
	}
	// Both relationships resolve to known agents.
	if sc.Consistency != 90 {
		t.Fatalf("consistency = %d, want 90", sc.Consistency)
	}
	// 60 + 15 headings + 151/300 length + 10 example keyword.
	if sc.Clarity != 86 {
		t.Fatalf("clarity = %d, want 86", sc.Clarity)
	}
}

func TestScore_OverallNeverExceeds95(t *testing.T) {
	t.Parallel()

	result := scoringFixture()
	for i := range result.Agents {
		result.Agents[i].Description = strings.Repeat("very detailed. ", 40)
	}
	longSource := strings.Repeat("The Planner and the Executor cooperate on steps. ", 100)

	scored := Score(result, longSource)
	if scored.SystemConfidence.Overall != 95 {
		t.Fatalf("overall = %d, want the 95 cap", scored.SystemConfidence.Overall)
	}
}

func TestScore_NoAgentsPenalty(t *testing.T) {
	t.Parallel()

	scored := Score(AnalysisResult{}, "short")
	// 65 + 5/200 length - 15 penalty, nothing else present.
	if scored.SystemConfidence.Overall != 50 {
		t.Fatalf("overall = %d, want 50", scored.SystemConfidence.Overall)
	}
	if scored.SystemConfidence.Completeness != 50 {
		t.Fatalf("completeness = %d, want 50", scored.SystemConfidence.Completeness)
	}
	if scored.SystemConfidence.Consistency != 70 {
		t.Fatalf("consistency = %d, want 70", scored.SystemConfidence.Consistency)
	}
}

func TestScore_ConsistencyFraction(t *testing.T) {
	t.Parallel()

	result := scoringFixture()
	result.Relationships = append(result.Relationships, Relationship{
		ID:     "rel_2",
		Source: "Planner",
		Target: "Ghost",
	})

	scored := Score(result, scoringSource)
	// One of two relationships resolves: 70 + round(20 * 0.5).
	if scored.SystemConfidence.Consistency != 80 {
		t.Fatalf("consistency = %d, want 80", scored.SystemConfidence.Consistency)
	}
}

func TestScore_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	original := scoringFixture()
	_ = Score(original, scoringSource)

	if original.Agents[0].Confidence != 0 {
		t.Fatalf("input agent mutated: confidence = %d", original.Agents[0].Confidence)
	}
	if original.SystemConfidence != (SystemConfidence{}) {
		t.Fatalf("input system confidence mutated: %+v", original.SystemConfidence)
	}
}
