package plan

import (
	"context"
	"strings"

	"github.com/Aman-CERP/amanmcp/internal/search"
)

// ValidationContext carries whatever a rule needs to inspect a plan against
// the indexed project: the search engine for duplicate-detection, and the
// canonical location table for architectural-consistency.
type ValidationContext struct {
	Plan     *ImplementationPlan
	Engine   search.SearchEngine // may be nil; duplicate-detection degrades to no findings
	Canonical CanonicalLocations
}

// CanonicalLocations maps a project-role keyword to the path prefixes that
// are considered standard for it, e.g. "tests" -> ["test/", "_test.go"].
// Used by the architectural-consistency rule.
type CanonicalLocations map[string][]string

// DefaultCanonicalLocations is a reasonable default table for a Go project,
// matching the roles spec.md names: tests, components, services, api,
// models, config.
func DefaultCanonicalLocations() CanonicalLocations {
	return CanonicalLocations{
		"tests":    {"_test.go", "test/", "tests/"},
		"services": {"internal/", "pkg/"},
		"api":      {"cmd/", "internal/mcp/", "internal/daemon/"},
		"models":   {"internal/store/"},
		"config":   {"internal/config/", ".amanmcp/"},
		"utils":    {"internal/util", "pkg/util"},
	}
}

// Rule validates plans and, for findings it raises, can propose a mechanical
// fix. Implementations must be side-effect free: Validate/SuggestRevision
// never mutate ctx.Plan directly, only return data the Engine applies.
type Rule interface {
	RuleID() string
	Category() Category
	Severity() Severity
	// IsFast reports whether this rule runs in <=100ms with no memory search,
	// making it eligible for hook PreToolUse/PostToolUse fast-mode runs.
	IsFast() bool
	Validate(ctx context.Context, vctx *ValidationContext) ([]*PlanValidationFinding, error)
	SuggestRevision(ctx context.Context, finding *PlanValidationFinding, vctx *ValidationContext) (*PlanRevision, error)
}

// trivialTaskMarkers identify tasks exempt from the test/doc coverage rules
// (typo fixes, renames, doc-only changes).
var trivialTaskMarkers = []string{"typo", "rename", "doc-only", "docs-only", "formatting", "comment fix"}

func isTrivialTask(t *Task) bool {
	text := strings.ToLower(t.Title + " " + t.Description)
	for _, marker := range trivialTaskMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	for _, tag := range t.Tags {
		lt := strings.ToLower(tag)
		if lt == "trivial" || lt == "typo" || lt == "chore" {
			return true
		}
	}
	return false
}
