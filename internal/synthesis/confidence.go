package synthesis

import (
	"math"
	"regexp"
	"strings"
)

// Scoring baselines and caps. The 95 overall cap is deliberate: the scorer
// must never claim near-certainty about an extraction.
const (
	entityBaseline = 70
	entityCap      = 100
	overallBase    = 65
	overallCap     = 95
)

var headingRe = regexp.MustCompile(`(?m)^#+\s+\w`)

// Score returns a copy of result with per-entity confidence fields and the
// four system-level metrics populated from the original free-text input.
// It is a pure function: no I/O, no mutation of the argument.
//
// Note: the overall and consistency formulas intentionally carry no lower
// clamp, so sufficiently degenerate inputs can push them below the nominal
// range. Existing saved designs depend on these exact values.
func Score(result AnalysisResult, sourceText string) AnalysisResult {
	out := cloneResult(result)

	for i := range out.Agents {
		out.Agents[i].Confidence = agentConfidence(out.Agents[i], sourceText)
	}
	for i := range out.Tools {
		out.Tools[i].Confidence = toolConfidence(out.Tools[i], sourceText)
	}
	for i := range out.Relationships {
		out.Relationships[i].Confidence = relationshipConfidence(out.Relationships[i])
	}

	out.SystemConfidence = SystemConfidence{
		Overall:      overallScore(out, sourceText),
		Completeness: completenessScore(out),
		Consistency:  consistencyScore(out),
		Clarity:      clarityScore(sourceText),
	}
	return out
}

func agentConfidence(a Agent, sourceText string) int {
	score := float64(entityBaseline)
	if a.Description != "" {
		score += math.Min(15, float64(len(a.Description))/20)
	}
	score += mentionScore(a.Name, sourceText)
	if len(a.Role) > 10 {
		score += 10
	}
	return capInt(score, entityCap)
}

// mentionScore rewards agents the user actually named in the source text:
// two points per case-insensitive occurrence, capped at ten.
func mentionScore(name string, sourceText string) float64 {
	name = strings.TrimSpace(name)
	if name == "" || sourceText == "" {
		return 0
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(name))
	if err != nil {
		return 0
	}
	occurrences := len(re.FindAllStringIndex(sourceText, -1))
	return math.Min(10, float64(2*occurrences))
}

func toolConfidence(t Tool, sourceText string) int {
	score := float64(entityBaseline)
	if len(t.Name) > 3 {
		score += 10
	}
	if t.Purpose != "" && len(t.Purpose) > 15 {
		score += 15
	}
	if t.Name != "" && strings.Contains(strings.ToLower(sourceText), strings.ToLower(t.Name)) {
		score += 15
	}
	return capInt(score, entityCap)
}

func relationshipConfidence(r Relationship) int {
	score := float64(entityBaseline)
	if len(r.Label) > 20 {
		score += 15
	}
	if r.Source != "" && r.Target != "" {
		score += 15
	}
	if r.DataFlow != "" {
		score += 10
	}
	return capInt(score, entityCap)
}

func overallScore(result AnalysisResult, sourceText string) int {
	score := float64(overallBase)
	score += math.Min(10, float64(len(sourceText))/200)

	if len(result.Agents) > 0 {
		sum := 0.0
		for _, a := range result.Agents {
			sum += float64(a.Confidence)
		}
		mean := sum / float64(len(result.Agents))
		score += math.Min(10, mean/10)
	} else {
		score -= 15
	}
	if len(result.Tools) > 0 {
		score += 5
	}
	if len(result.Relationships) > 0 {
		score += 10
	}
	return capInt(score, overallCap)
}

func completenessScore(result AnalysisResult) int {
	score := 50
	if len(result.Agents) > 0 {
		score += 15
	}
	if len(result.Tools) > 0 {
		score += 10
	}
	if len(result.Relationships) > 0 {
		score += 15
	}
	if result.OrchestrationPattern.Type != "" {
		score += 10
	}
	return score
}

// consistencyScore keys on the fraction of relationships whose endpoints
// resolve to a known agent (by name or normalized id). No relationships
// contribute nothing beyond the base.
func consistencyScore(result AnalysisResult) int {
	if len(result.Relationships) == 0 {
		return 70
	}
	known := make(map[string]struct{}, 2*len(result.Agents))
	for _, a := range result.Agents {
		known[a.Name] = struct{}{}
		known[a.ID] = struct{}{}
	}
	valid := 0
	for _, r := range result.Relationships {
		_, srcOK := known[r.Source]
		_, dstOK := known[r.Target]
		if srcOK && dstOK {
			valid++
		}
	}
	fraction := float64(valid) / float64(len(result.Relationships))
	return 70 + int(math.Round(20*fraction))
}

func clarityScore(sourceText string) int {
	score := 60.0
	if headingRe.MatchString(sourceText) {
		score += 15
	}
	score += math.Min(10, float64(len(sourceText))/300)
	lower := strings.ToLower(sourceText)
	if strings.Contains(lower, "example") || strings.Contains(lower, "for instance") {
		score += 10
	}
	return int(math.Round(score))
}

func capInt(score float64, limit float64) int {
	return int(math.Round(math.Min(score, limit)))
}

func cloneResult(r AnalysisResult) AnalysisResult {
	out := r
	out.Agents = make([]Agent, len(r.Agents))
	copy(out.Agents, r.Agents)
	for i := range out.Agents {
		out.Agents[i].Capabilities = cloneStrings(r.Agents[i].Capabilities)
		out.Agents[i].Limitations = cloneStrings(r.Agents[i].Limitations)
		out.Agents[i].Tools = cloneStrings(r.Agents[i].Tools)
	}
	out.Tools = make([]Tool, len(r.Tools))
	copy(out.Tools, r.Tools)
	for i := range out.Tools {
		out.Tools[i].UsedBy = cloneStrings(r.Tools[i].UsedBy)
	}
	out.Relationships = make([]Relationship, len(r.Relationships))
	copy(out.Relationships, r.Relationships)
	out.Constraints = cloneStrings(r.Constraints)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
