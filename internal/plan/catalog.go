package plan

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/Aman-CERP/amanmcp/internal/search"
)

// DefaultCatalog returns the five-rule minimum catalog from spec.md §4.H.
func DefaultCatalog() []Rule {
	return []Rule{
		&TestCoverageRule{},
		&DocumentationCoverageRule{},
		&DuplicateDetectionRule{Threshold: 0.70},
		&ArchitecturalConsistencyRule{Locations: DefaultCanonicalLocations()},
		&PerformancePatternRule{},
	}
}

// featureKeywords mark a task as "feature-like" for the coverage rules.
var featureKeywords = []string{"add", "implement", "build", "create", "support", "introduce"}

func isFeatureLike(t *Task) bool {
	if isTrivialTask(t) {
		return false
	}
	text := strings.ToLower(t.Title)
	for _, kw := range featureKeywords {
		if strings.HasPrefix(text, kw) || strings.Contains(text, " "+kw+" ") {
			return true
		}
	}
	return t.Scope == "feature" || t.Scope == ""
}

// hasLinkedTask reports whether any task in the plan that depends on
// candidate's id carries one of the given tags or scope, i.e. a dependent
// test/doc task exists.
func hasLinkedTask(plan *ImplementationPlan, candidate *Task, scopeOrTags ...string) bool {
	for _, t := range plan.Tasks {
		if t.ID == candidate.ID {
			continue
		}
		dependsOnCandidate := false
		for _, dep := range t.Dependencies {
			if dep == candidate.ID {
				dependsOnCandidate = true
				break
			}
		}
		if !dependsOnCandidate {
			continue
		}
		if matchesAny(t.Scope, scopeOrTags) {
			return true
		}
		for _, tag := range t.Tags {
			if matchesAny(tag, scopeOrTags) {
				return true
			}
		}
		if matchesAny(strings.ToLower(t.Title), scopeOrTags) {
			return true
		}
	}
	return false
}

func matchesAny(s string, candidates []string) bool {
	ls := strings.ToLower(s)
	for _, c := range candidates {
		if strings.Contains(ls, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

// TestCoverageRule flags feature-like tasks with no dependent test task.
type TestCoverageRule struct{}

func (r *TestCoverageRule) RuleID() string     { return "test-coverage" }
func (r *TestCoverageRule) Category() Category { return CategoryCoverage }
func (r *TestCoverageRule) Severity() Severity { return SeverityHigh }
func (r *TestCoverageRule) IsFast() bool       { return true }

func (r *TestCoverageRule) Validate(_ context.Context, vctx *ValidationContext) ([]*PlanValidationFinding, error) {
	var findings []*PlanValidationFinding
	for _, t := range vctx.Plan.Tasks {
		if !isFeatureLike(t) {
			continue
		}
		if hasLinkedTask(vctx.Plan, t, "test") {
			continue
		}
		findings = append(findings, &PlanValidationFinding{
			RuleID:        r.RuleID(),
			Category:      r.Category(),
			Severity:      r.Severity(),
			Summary:       fmt.Sprintf("task %q has no linked test task", t.Title),
			AffectedTasks: []string{t.ID},
			Suggestion:    "add a dependent task that exercises this change",
			Confidence:    0.9,
			CanAutoRevise: true,
		})
	}
	return findings, nil
}

func (r *TestCoverageRule) SuggestRevision(_ context.Context, finding *PlanValidationFinding, vctx *ValidationContext) (*PlanRevision, error) {
	if len(finding.AffectedTasks) == 0 {
		return nil, nil
	}
	targetID := finding.AffectedTasks[0]
	target := vctx.Plan.TaskByID(targetID)
	if target == nil {
		return nil, nil
	}
	return &PlanRevision{
		Type:         RevisionAddTask,
		Rationale:    fmt.Sprintf("test-coverage rule: %q needs a verifying test", target.Title),
		TargetTaskID: targetID,
		NewTask: &Task{
			ID:           targetID + "-test",
			Title:        "Add test coverage for: " + target.Title,
			Description:  fmt.Sprintf("Write tests verifying the behavior introduced by %q.", target.Title),
			Scope:        "test",
			Effort:       "small",
			Dependencies: []string{targetID},
			Tags:         []string{"test"},
		},
	}, nil
}

// DocumentationCoverageRule flags user-facing tasks with no dependent doc task.
type DocumentationCoverageRule struct{}

func (r *DocumentationCoverageRule) RuleID() string     { return "documentation-coverage" }
func (r *DocumentationCoverageRule) Category() Category { return CategoryCoverage }
func (r *DocumentationCoverageRule) Severity() Severity { return SeverityMedium }
func (r *DocumentationCoverageRule) IsFast() bool       { return true }

var userFacingMarkers = []string{"api", "cli", "tool", "endpoint", "command", "flag", "ui", "schema"}

func (r *DocumentationCoverageRule) Validate(_ context.Context, vctx *ValidationContext) ([]*PlanValidationFinding, error) {
	var findings []*PlanValidationFinding
	for _, t := range vctx.Plan.Tasks {
		if isTrivialTask(t) {
			continue
		}
		if !matchesAny(t.Title+" "+t.Description, userFacingMarkers) {
			continue
		}
		if hasLinkedTask(vctx.Plan, t, "doc", "docs", "documentation") {
			continue
		}
		findings = append(findings, &PlanValidationFinding{
			RuleID:        r.RuleID(),
			Category:      r.Category(),
			Severity:      r.Severity(),
			Summary:       fmt.Sprintf("task %q touches user-facing surface area with no doc task", t.Title),
			AffectedTasks: []string{t.ID},
			Suggestion:    "add a dependent documentation task",
			Confidence:    0.75,
			CanAutoRevise: true,
		})
	}
	return findings, nil
}

func (r *DocumentationCoverageRule) SuggestRevision(_ context.Context, finding *PlanValidationFinding, vctx *ValidationContext) (*PlanRevision, error) {
	if len(finding.AffectedTasks) == 0 {
		return nil, nil
	}
	targetID := finding.AffectedTasks[0]
	target := vctx.Plan.TaskByID(targetID)
	if target == nil {
		return nil, nil
	}
	return &PlanRevision{
		Type:         RevisionAddTask,
		Rationale:    fmt.Sprintf("documentation-coverage rule: %q needs doc updates", target.Title),
		TargetTaskID: targetID,
		NewTask: &Task{
			ID:           targetID + "-docs",
			Title:        "Document: " + target.Title,
			Description:  fmt.Sprintf("Update user-facing documentation for %q.", target.Title),
			Scope:        "docs",
			Effort:       "small",
			Dependencies: []string{targetID},
			Tags:         []string{"docs"},
		},
	}, nil
}

// DuplicateDetectionRule runs a semantic search over each task's
// title+description against the indexed project; a close match likely means
// the work already exists.
type DuplicateDetectionRule struct {
	Threshold float64
}

func (r *DuplicateDetectionRule) RuleID() string     { return "duplicate-detection" }
func (r *DuplicateDetectionRule) Category() Category { return CategoryConsistency }
func (r *DuplicateDetectionRule) Severity() Severity { return SeverityMedium }
func (r *DuplicateDetectionRule) IsFast() bool       { return false } // requires a memory search

func (r *DuplicateDetectionRule) Validate(ctx context.Context, vctx *ValidationContext) ([]*PlanValidationFinding, error) {
	if vctx.Engine == nil {
		return nil, nil
	}
	threshold := r.Threshold
	if threshold <= 0 {
		threshold = 0.70
	}

	var findings []*PlanValidationFinding
	for _, t := range vctx.Plan.Tasks {
		query := strings.TrimSpace(t.Title + " " + t.Description)
		if query == "" {
			continue
		}
		results, err := vctx.Engine.Search(ctx, query, search.SearchOptions{Limit: 1, VectorOnly: true})
		if err != nil {
			return nil, fmt.Errorf("duplicate-detection search for task %q: %w", t.ID, err)
		}
		if len(results) == 0 || results[0].Chunk == nil {
			continue
		}
		if results[0].Score < threshold {
			continue
		}
		findings = append(findings, &PlanValidationFinding{
			RuleID:        r.RuleID(),
			Category:      r.Category(),
			Severity:      r.Severity(),
			Summary:       fmt.Sprintf("task %q closely resembles existing entity %s (score %.2f)", t.Title, results[0].Chunk.QualifiedName, results[0].Score),
			AffectedTasks: []string{t.ID},
			Suggestion:    "reference the existing implementation instead of duplicating it",
			Confidence:    results[0].Score,
			CanAutoRevise: true,
			SuggestedRevision: &PlanRevision{
				Type:         RevisionModifyTask,
				Rationale:    "duplicate-detection rule: near-identical entity already indexed",
				TargetTaskID: t.ID,
				Modifications: map[string]any{
					"acceptance_criterion": "verified no duplication of " + results[0].Chunk.QualifiedName,
				},
			},
		})
	}
	return findings, nil
}

func (r *DuplicateDetectionRule) SuggestRevision(_ context.Context, finding *PlanValidationFinding, _ *ValidationContext) (*PlanRevision, error) {
	return finding.SuggestedRevision, nil
}

// ArchitecturalConsistencyRule checks declared task scopes/paths against a
// canonical location table.
type ArchitecturalConsistencyRule struct {
	Locations CanonicalLocations
}

func (r *ArchitecturalConsistencyRule) RuleID() string     { return "architectural-consistency" }
func (r *ArchitecturalConsistencyRule) Category() Category { return CategoryArchitecture }
func (r *ArchitecturalConsistencyRule) Severity() Severity { return SeverityLow }
func (r *ArchitecturalConsistencyRule) IsFast() bool       { return true }

func (r *ArchitecturalConsistencyRule) Validate(_ context.Context, vctx *ValidationContext) ([]*PlanValidationFinding, error) {
	locations := r.Locations
	if locations == nil {
		locations = vctx.Canonical
	}
	if locations == nil {
		return nil, nil
	}

	var findings []*PlanValidationFinding
	for _, t := range vctx.Plan.Tasks {
		role, declaredPath := declaredRole(t)
		if role == "" || declaredPath == "" {
			continue
		}
		prefixes, ok := locations[role]
		if !ok {
			continue
		}
		if matchesAnyPrefix(declaredPath, prefixes) {
			continue
		}
		findings = append(findings, &PlanValidationFinding{
			RuleID:        r.RuleID(),
			Category:      r.Category(),
			Severity:      r.Severity(),
			Summary:       fmt.Sprintf("task %q declares a %s path %q outside the canonical location(s) %v", t.Title, role, declaredPath, prefixes),
			AffectedTasks: []string{t.ID},
			Suggestion:    fmt.Sprintf("place %s under one of: %v", role, prefixes),
			Confidence:    0.5,
			CanAutoRevise: false,
		})
	}
	return findings, nil
}

func (r *ArchitecturalConsistencyRule) SuggestRevision(_ context.Context, _ *PlanValidationFinding, _ *ValidationContext) (*PlanRevision, error) {
	return nil, nil // warning-only, per spec
}

// declaredRole extracts a "role: path" style hint from a task's description,
// e.g. "tests: internal/foo/bar_test.go" or a tag like "path:internal/x".
func declaredRole(t *Task) (role, declaredPath string) {
	for _, tag := range t.Tags {
		if strings.HasPrefix(tag, "path:") {
			declaredPath = strings.TrimPrefix(tag, "path:")
			break
		}
	}
	if declaredPath == "" {
		return "", ""
	}
	base := strings.ToLower(path.Base(declaredPath))
	switch {
	case strings.Contains(base, "test"):
		return "tests", declaredPath
	case strings.Contains(declaredPath, "config"):
		return "config", declaredPath
	case strings.Contains(declaredPath, "store") || strings.Contains(declaredPath, "model"):
		return "models", declaredPath
	case strings.Contains(declaredPath, "cmd") || strings.Contains(declaredPath, "api") || strings.Contains(declaredPath, "mcp"):
		return "api", declaredPath
	case strings.Contains(declaredPath, "util"):
		return "utils", declaredPath
	default:
		return "services", declaredPath
	}
}

func matchesAnyPrefix(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.Contains(p, prefix) {
			return true
		}
	}
	return false
}

// PerformancePatternRule does lexical anti-pattern detection over task text.
type PerformancePatternRule struct{}

func (r *PerformancePatternRule) RuleID() string     { return "performance-pattern" }
func (r *PerformancePatternRule) Category() Category { return CategoryPerformance }
func (r *PerformancePatternRule) Severity() Severity { return SeverityLow }
func (r *PerformancePatternRule) IsFast() bool       { return true }

// antiPatterns maps a lexical trigger to a human-readable note.
var antiPatterns = map[string]string{
	"in a loop":      "possible N+1 query pattern",
	"for each":       "possible N+1 query pattern",
	"no cache":       "missing cache layer",
	"without cache":  "missing cache layer",
	"synchronous":    "blocking call in a potentially hot path",
	"blocking call":  "blocking call in a potentially hot path",
	"load all":       "unbounded load of a potentially large dataset",
	"entire table":   "unbounded load of a potentially large dataset",
	"full response":  "oversized payload",
	"whole payload":  "oversized payload",
}

func (r *PerformancePatternRule) Validate(_ context.Context, vctx *ValidationContext) ([]*PlanValidationFinding, error) {
	var findings []*PlanValidationFinding
	for _, t := range vctx.Plan.Tasks {
		text := strings.ToLower(t.Title + " " + t.Description)
		for trigger, note := range antiPatterns {
			if !strings.Contains(text, trigger) {
				continue
			}
			findings = append(findings, &PlanValidationFinding{
				RuleID:        r.RuleID(),
				Category:      r.Category(),
				Severity:      r.Severity(),
				Summary:       fmt.Sprintf("task %q: %s", t.Title, note),
				AffectedTasks: []string{t.ID},
				Suggestion:    "add a performance note to the acceptance criteria",
				Confidence:    0.6,
				CanAutoRevise: true,
				SuggestedRevision: &PlanRevision{
					Type:         RevisionModifyTask,
					Rationale:    "performance-pattern rule: " + note,
					TargetTaskID: t.ID,
					Modifications: map[string]any{
						"performance_note": note,
					},
				},
			})
		}
	}
	return findings, nil
}

func (r *PerformancePatternRule) SuggestRevision(_ context.Context, finding *PlanValidationFinding, _ *ValidationContext) (*PlanRevision, error) {
	return finding.SuggestedRevision, nil
}
