package hooks

import (
	"regexp"
	"strings"
)

// IntentResult is the outcome of detecting planning intent in a user prompt.
type IntentResult struct {
	Detected   bool
	Confidence float64
	Reason     string
}

// explicitMarkers always yield maximum confidence.
var explicitMarkers = []string{"@plan", "--plan", "plan mode"}

// verbPlanPattern matches a planning verb followed by "plan", e.g. "make a
// plan", "draft a plan", "write a plan for this".
var verbPlanPattern = regexp.MustCompile(`(?i)\b(make|draft|write|create|come up with|put together)\s+(a\s+|an\s+)?plan\b`)

// keywordBoosts add confidence when present alongside a verb+plan match.
var keywordBoosts = []string{"before implementing", "step by step", "break down", "design doc", "approach"}

const (
	explicitConfidence  = 1.0
	verbPlanConfidence  = 0.7
	keywordBoostAmount  = 0.05
	maxConfidence       = 1.0
)

// DetectPlanningIntent inspects a UserPromptSubmit prompt for planning
// intent per spec.md §4.I: explicit markers score 1.0; a planning-verb
// pattern scores 0.7 plus small boosts for corroborating keywords.
func DetectPlanningIntent(prompt string) IntentResult {
	lower := strings.ToLower(prompt)

	for _, marker := range explicitMarkers {
		if strings.Contains(lower, marker) {
			return IntentResult{Detected: true, Confidence: explicitConfidence, Reason: "explicit marker: " + marker}
		}
	}

	if verbPlanPattern.MatchString(prompt) {
		confidence := verbPlanConfidence
		var boosted []string
		for _, kw := range keywordBoosts {
			if strings.Contains(lower, kw) {
				confidence += keywordBoostAmount
				boosted = append(boosted, kw)
			}
		}
		if confidence > maxConfidence {
			confidence = maxConfidence
		}
		reason := "planning-verb pattern"
		if len(boosted) > 0 {
			reason += " + keywords: " + strings.Join(boosted, ", ")
		}
		return IntentResult{Detected: true, Confidence: confidence, Reason: reason}
	}

	return IntentResult{Detected: false}
}

// PlanningGuidelines is prepended to the model's context when planning
// intent is detected, per spec.md §4.I "prepends planning guidelines and
// exploration hints".
const PlanningGuidelines = `Planning detected. Before writing code:
- Search the index for existing implementations of related functionality (avoid duplicating work already done).
- Draft tasks with explicit test and documentation coverage.
- Flag any task touching a non-standard file location for review.`
