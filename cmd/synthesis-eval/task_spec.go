package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type taskSpecFile struct {
	Version string         `yaml:"version"`
	Tasks   []taskSpecItem `yaml:"tasks"`
}

type taskSpecItem struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`

	// Response is the recorded raw model output to evaluate. Exactly one of
	// Response / ResponseFile must be set; ResponseFile is resolved relative
	// to the spec file.
	Response     string `yaml:"response"`
	ResponseFile string `yaml:"response_file"`

	// Expected is the hand-authored ground truth, keyed by entity class
	// (agents, tools, relationships).
	Expected map[string][]map[string]any `yaml:"expected"`
}

type evalTask struct {
	ID          string
	Title       string
	Description string
	Response    string
	Expected    map[string][]map[string]any
}

func loadTaskSpecs(specPath string) ([]evalTask, error) {
	cleanPath := strings.TrimSpace(specPath)
	if cleanPath == "" {
		return nil, fmt.Errorf("missing task spec path")
	}
	cleanPath = filepath.Clean(cleanPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, err
	}
	var spec taskSpecFile
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	if len(spec.Tasks) == 0 {
		return nil, fmt.Errorf("task spec has no tasks")
	}

	baseDir := filepath.Dir(cleanPath)
	out := make([]evalTask, 0, len(spec.Tasks))
	seen := map[string]struct{}{}
	for _, item := range spec.Tasks {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return nil, fmt.Errorf("task id is empty")
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate task id %q", id)
		}
		seen[id] = struct{}{}

		if strings.TrimSpace(item.Description) == "" {
			return nil, fmt.Errorf("task %s has no description", id)
		}

		response := item.Response
		if strings.TrimSpace(item.ResponseFile) != "" {
			if strings.TrimSpace(response) != "" {
				return nil, fmt.Errorf("task %s sets both response and response_file", id)
			}
			b, err := os.ReadFile(filepath.Join(baseDir, filepath.Clean(item.ResponseFile)))
			if err != nil {
				return nil, fmt.Errorf("task %s: %w", id, err)
			}
			response = string(b)
		}
		if strings.TrimSpace(response) == "" {
			return nil, fmt.Errorf("task %s has no recorded response", id)
		}

		out = append(out, evalTask{
			ID:          id,
			Title:       strings.TrimSpace(item.Title),
			Description: item.Description,
			Response:    response,
			Expected:    item.Expected,
		})
	}
	return out, nil
}
