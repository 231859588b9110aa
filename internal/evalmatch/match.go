// Package evalmatch computes fuzzy accuracy between an actual extraction and
// a hand-authored expected extraction. It backs the offline prompt-quality
// harness; nothing on the serving path depends on it.
package evalmatch

import (
	"reflect"
	"strings"
)

// Accuracy scores a list of actual entities against expected ground truth,
// in [0,1]. An empty expectation is satisfied only by an empty actual list.
//
// Matching is greedy and independent per expected entity: the same actual
// entity may serve as best match for several expected entities. Fixtures
// depend on this, so do not substitute assignment-optimal matching.
func Accuracy(actual []map[string]any, expected []map[string]any) float64 {
	if len(expected) == 0 {
		if len(actual) == 0 {
			return 1.0
		}
		return 0.0
	}
	if len(actual) == 0 {
		return 0.0
	}

	total := 0.0
	for _, want := range expected {
		best := 0.0
		for _, got := range actual {
			if s := MatchScore(got, want); s > best {
				best = s
			}
		}
		total += best
	}
	return total / float64(len(expected))
}

// MatchScore compares one actual entity to one expected entity over the keys
// the expectation names, in [0,1]. Keys absent from the actual entity score
// zero; extra actual keys are ignored.
func MatchScore(actual map[string]any, expected map[string]any) float64 {
	if len(expected) == 0 {
		return 0.0
	}

	sum := 0.0
	for key, want := range expected {
		got, ok := actual[key]
		if !ok {
			continue
		}
		sum += valueScore(got, want)
	}
	return sum / float64(len(expected))
}

func valueScore(got any, want any) float64 {
	if reflect.DeepEqual(got, want) {
		return 1.0
	}

	switch want := want.(type) {
	case []any:
		got, ok := got.([]any)
		if !ok {
			return 0.0
		}
		return sliceOverlap(got, want)
	case map[string]any:
		got, ok := got.(map[string]any)
		if !ok {
			return 0.0
		}
		return MatchScore(got, want)
	case string:
		got, ok := got.(string)
		if !ok {
			return 0.0
		}
		if sim := wordJaccard(got, want); sim > 0.7 {
			return sim
		}
		return 0.0
	default:
		return 0.0
	}
}

// sliceOverlap counts expected elements present in the actual slice,
// normalized by the larger cardinality so padding cannot inflate the score.
func sliceOverlap(got []any, want []any) float64 {
	if len(want) == 0 || len(got) == 0 {
		return 0.0
	}
	matched := 0
	for _, w := range want {
		for _, g := range got {
			if reflect.DeepEqual(g, w) {
				matched++
				break
			}
		}
	}
	larger := len(want)
	if len(got) > larger {
		larger = len(got)
	}
	return float64(matched) / float64(larger)
}

func wordJaccard(a string, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}
	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if w != "" {
			out[w] = struct{}{}
		}
	}
	return out
}
