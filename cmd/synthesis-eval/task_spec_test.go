package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSpec(t *testing.T, dir string, content string) string {
	t.Helper()
	path := filepath.Join(dir, "tasks.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadTaskSpecs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	responsePath := filepath.Join(dir, "responses", "triage.txt")
	if err := os.MkdirAll(filepath.Dir(responsePath), 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(responsePath, []byte(`{"agents": []}`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	path := writeSpec(t, dir, `
version: "1"
tasks:
  - id: inline
    title: Inline response
    description: a planner and an executor
    response: '{"agents": [{"name": "Planner", "role": "plans"}]}'
    expected:
      agents:
        - name: Planner
  - id: from-file
    description: support triage
    response_file: responses/triage.txt
`)

	tasks, err := loadTaskSpecs(path)
	if err != nil {
		t.Fatalf("loadTaskSpecs: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("tasks = %d", len(tasks))
	}
	if tasks[0].ID != "inline" || tasks[0].Title != "Inline response" {
		t.Fatalf("task[0] = %+v", tasks[0])
	}
	if len(tasks[0].Expected["agents"]) != 1 {
		t.Fatalf("expected agents = %v", tasks[0].Expected)
	}
	if !strings.Contains(tasks[1].Response, `"agents"`) {
		t.Fatalf("response_file not resolved: %q", tasks[1].Response)
	}
}

func TestLoadTaskSpecs_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		spec string
	}{
		{"no tasks", "version: \"1\"\ntasks: []\n"},
		{"empty id", "tasks:\n  - id: \"\"\n    description: d\n    response: '{}'\n"},
		{"duplicate id", "tasks:\n  - id: a\n    description: d\n    response: '{}'\n  - id: a\n    description: d\n    response: '{}'\n"},
		{"missing description", "tasks:\n  - id: a\n    response: '{}'\n"},
		{"missing response", "tasks:\n  - id: a\n    description: d\n"},
		{"both response forms", "tasks:\n  - id: a\n    description: d\n    response: '{}'\n    response_file: x.txt\n"},
		{"missing response file", "tasks:\n  - id: a\n    description: d\n    response_file: nope.txt\n"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeSpec(t, t.TempDir(), tc.spec)
			if _, err := loadTaskSpecs(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadTaskSpecs_MissingPath(t *testing.T) {
	t.Parallel()

	if _, err := loadTaskSpecs(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := loadTaskSpecs(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
