package evalmatch

import (
	"math"
	"testing"
)

func approx(t *testing.T, got float64, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", got, want)
	}
}

func TestAccuracy_EmptySentinels(t *testing.T) {
	t.Parallel()

	approx(t, Accuracy(nil, nil), 1.0)
	approx(t, Accuracy([]map[string]any{{"name": "x"}}, nil), 0.0)
	approx(t, Accuracy(nil, []map[string]any{{"name": "x"}}), 0.0)
}

func TestAccuracy_PicksBestMatchPerExpected(t *testing.T) {
	t.Parallel()

	actual := []map[string]any{
		{"name": "Planner", "role": "plans"},
		{"name": "Executor", "role": "executes"},
	}
	expected := []map[string]any{
		{"name": "Planner"},
		{"name": "Executor"},
	}
	approx(t, Accuracy(actual, expected), 1.0)
}

func TestAccuracy_GreedyAllowsReuse(t *testing.T) {
	t.Parallel()

	// A single actual entity can be the best match for every expected one.
	actual := []map[string]any{{"name": "Planner"}}
	expected := []map[string]any{
		{"name": "Planner"},
		{"name": "Planner"},
	}
	approx(t, Accuracy(actual, expected), 1.0)
}

func TestMatchScore_MissingKeyScoresZero(t *testing.T) {
	t.Parallel()

	got := MatchScore(
		map[string]any{"name": "Planner"},
		map[string]any{"name": "Planner", "role": "plans"},
	)
	approx(t, got, 0.5)
}

func TestMatchScore_ExtraActualKeysIgnored(t *testing.T) {
	t.Parallel()

	got := MatchScore(
		map[string]any{"name": "Planner", "role": "plans", "id": "agent_1"},
		map[string]any{"name": "Planner"},
	)
	approx(t, got, 1.0)
}

func TestMatchScore_SimilarStringAboveThreshold(t *testing.T) {
	t.Parallel()

	// "plans the work carefully" vs "plans the work": 3 shared words over a
	// 4-word union, similarity 0.75, counted because it clears 0.7.
	got := MatchScore(
		map[string]any{"role": "plans the work carefully"},
		map[string]any{"role": "plans the work"},
	)
	approx(t, got, 0.75)
}

func TestMatchScore_SimilarStringBelowThreshold(t *testing.T) {
	t.Parallel()

	got := MatchScore(
		map[string]any{"role": "plans the work"},
		map[string]any{"role": "executes assigned tasks"},
	)
	approx(t, got, 0.0)
}

func TestMatchScore_StringsIgnoreCaseAndPunctuation(t *testing.T) {
	t.Parallel()

	got := MatchScore(
		map[string]any{"role": "Plans the work."},
		map[string]any{"role": "plans the work"},
	)
	approx(t, got, 1.0)
}

func TestMatchScore_ArrayOverlapByLargerCardinality(t *testing.T) {
	t.Parallel()

	got := MatchScore(
		map[string]any{"capabilities": []any{"search", "summarize", "rank"}},
		map[string]any{"capabilities": []any{"search", "summarize"}},
	)
	approx(t, got, 2.0/3.0)
}

func TestMatchScore_NestedObjectRecursion(t *testing.T) {
	t.Parallel()

	got := MatchScore(
		map[string]any{"pattern": map[string]any{"type": "sequential", "justification": "linear"}},
		map[string]any{"pattern": map[string]any{"type": "sequential"}},
	)
	approx(t, got, 1.0)
}

func TestMatchScore_TypeMismatchScoresZero(t *testing.T) {
	t.Parallel()

	got := MatchScore(
		map[string]any{"name": 42},
		map[string]any{"name": "Planner"},
	)
	approx(t, got, 0.0)
}
