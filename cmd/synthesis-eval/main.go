// Command synthesis-eval replays recorded model responses through the
// extraction/normalization/scoring pipeline and scores the result against
// hand-authored ground truth. It is the offline prompt-quality harness; it
// never calls a live model.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lumastack/agentdraft/internal/evalmatch"
	"github.com/lumastack/agentdraft/internal/synthesis"
)

type taskResult struct {
	ID      string         `json:"id"`
	Title   string         `json:"title,omitempty"`
	Error   string         `json:"error,omitempty"`
	Score   scoreBreakdown `json:"score"`
	Overall int            `json:"system_overall_confidence"`
}

type scoreBreakdown struct {
	Agents        float64 `json:"agents"`
	Tools         float64 `json:"tools"`
	Relationships float64 `json:"relationships"`
	Overall       float64 `json:"overall"`
}

type evalReport struct {
	GeneratedAt time.Time      `json:"generated_at"`
	SpecPath    string         `json:"spec_path"`
	TaskCount   int            `json:"task_count"`
	Results     []taskResult   `json:"results"`
	Averages    scoreBreakdown `json:"averages"`
	Gate        gateReport     `json:"gate"`
}

func main() {
	specPath := flag.String("spec", "", "Task spec YAML path")
	outPath := flag.String("out", "synthesis-eval-report.json", "Report output path")
	minAgents := flag.Float64("min-agent-accuracy", 0.7, "Gate: minimum average agent accuracy")
	minTools := flag.Float64("min-tool-accuracy", 0.6, "Gate: minimum average tool accuracy")
	minOverall := flag.Float64("min-overall-accuracy", 0.7, "Gate: minimum average overall accuracy")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	tasks, err := loadTaskSpecs(*specPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load task spec: %v\n", err)
		os.Exit(2)
	}

	// Tasks run strictly sequentially: one full pipeline completes before
	// the next begins.
	results := make([]taskResult, 0, len(tasks))
	for _, task := range tasks {
		results = append(results, runTask(task, log))
	}

	report := evalReport{
		GeneratedAt: time.Now().UTC(),
		SpecPath:    filepath.Clean(*specPath),
		TaskCount:   len(tasks),
		Results:     results,
		Averages:    averageScores(results),
	}
	report.Gate = applyGate(report, gateThresholds{
		MinAgentAccuracy:   *minAgents,
		MinToolAccuracy:    *minTools,
		MinOverallAccuracy: *minOverall,
	})

	if err := writeReport(*outPath, report); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("tasks=%d agents=%.3f tools=%.3f relationships=%.3f overall=%.3f gate=%s\n",
		report.TaskCount,
		report.Averages.Agents,
		report.Averages.Tools,
		report.Averages.Relationships,
		report.Averages.Overall,
		report.Gate.Verdict)

	if !report.Gate.Passed {
		os.Exit(1)
	}
}

func runTask(task evalTask, log *slog.Logger) taskResult {
	out := taskResult{ID: task.ID, Title: task.Title}

	parsed, err := synthesis.ParseObject(task.Response)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	result, err := synthesis.NormalizeAnalysis(parsed, log)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	result = synthesis.Score(result, task.Description)
	out.Overall = result.SystemConfidence.Overall

	out.Score.Agents = classAccuracy(result.Agents, task.Expected["agents"])
	out.Score.Tools = classAccuracy(result.Tools, task.Expected["tools"])
	out.Score.Relationships = classAccuracy(result.Relationships, task.Expected["relationships"])
	out.Score.Overall = (out.Score.Agents + out.Score.Tools + out.Score.Relationships) / 3
	return out
}

// classAccuracy bridges typed entities to the generic matcher via a JSON
// round-trip, so expected fixtures compare against the exact wire shape.
func classAccuracy[T any](actual []T, expected []map[string]any) float64 {
	generic := make([]map[string]any, 0, len(actual))
	for _, item := range actual {
		b, err := json.Marshal(item)
		if err != nil {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			continue
		}
		generic = append(generic, m)
	}
	return evalmatch.Accuracy(generic, expected)
}

func averageScores(results []taskResult) scoreBreakdown {
	if len(results) == 0 {
		return scoreBreakdown{}
	}
	var sum scoreBreakdown
	for _, r := range results {
		sum.Agents += r.Score.Agents
		sum.Tools += r.Score.Tools
		sum.Relationships += r.Score.Relationships
		sum.Overall += r.Score.Overall
	}
	n := float64(len(results))
	return scoreBreakdown{
		Agents:        sum.Agents / n,
		Tools:         sum.Tools / n,
		Relationships: sum.Relationships / n,
		Overall:       sum.Overall / n,
	}
}

func writeReport(path string, report evalReport) error {
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(filepath.Clean(path), b, 0o644)
}
