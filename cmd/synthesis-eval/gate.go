package main

import (
	"fmt"
	"strings"
)

type gateThresholds struct {
	MinAgentAccuracy   float64 `json:"min_agent_accuracy"`
	MinToolAccuracy    float64 `json:"min_tool_accuracy"`
	MinOverallAccuracy float64 `json:"min_overall_accuracy"`
}

type gateReport struct {
	Thresholds  gateThresholds `json:"thresholds"`
	Passed      bool           `json:"passed"`
	Verdict     string         `json:"verdict"`
	Reasons     []string       `json:"reasons,omitempty"`
	FailedTasks []string       `json:"failed_tasks,omitempty"`
}

func applyGate(report evalReport, thresholds gateThresholds) gateReport {
	out := gateReport{Thresholds: thresholds}

	for _, r := range report.Results {
		if strings.TrimSpace(r.Error) != "" {
			out.FailedTasks = append(out.FailedTasks, r.ID)
		}
	}
	if len(out.FailedTasks) > 0 {
		out.Reasons = append(out.Reasons, fmt.Sprintf("%d task(s) failed to run", len(out.FailedTasks)))
	}
	if report.Averages.Agents < thresholds.MinAgentAccuracy {
		out.Reasons = append(out.Reasons, fmt.Sprintf("agent accuracy %.3f below %.3f", report.Averages.Agents, thresholds.MinAgentAccuracy))
	}
	if report.Averages.Tools < thresholds.MinToolAccuracy {
		out.Reasons = append(out.Reasons, fmt.Sprintf("tool accuracy %.3f below %.3f", report.Averages.Tools, thresholds.MinToolAccuracy))
	}
	if report.Averages.Overall < thresholds.MinOverallAccuracy {
		out.Reasons = append(out.Reasons, fmt.Sprintf("overall accuracy %.3f below %.3f", report.Averages.Overall, thresholds.MinOverallAccuracy))
	}

	out.Passed = len(out.Reasons) == 0
	if out.Passed {
		out.Verdict = "pass"
	} else {
		out.Verdict = "fail"
	}
	return out
}
