package hooks

import (
	"context"
	"time"

	"github.com/Aman-CERP/amanmcp/internal/plan"
)

// FastRuleRunner runs the plan guardrail engine's is_fast rule subset against
// a single proposed or just-written file edit, for PreToolUse (budget 300ms,
// can block) and PostToolUse (warn-only).
type FastRuleRunner struct {
	engine *plan.Engine
}

// NewFastRuleRunner builds a runner over the default fast-eligible catalog.
func NewFastRuleRunner() *FastRuleRunner {
	cfg := plan.DefaultEngineConfig()
	cfg.RuleTimeout = 100 * time.Millisecond
	return &FastRuleRunner{engine: plan.NewEngine(plan.DefaultCatalog(), cfg)}
}

// editAsTask wraps a single file edit as a pseudo-Task so the existing
// catalog (which validates Task text and declared paths) can run against it
// without the catalog needing to know about files.
func editAsTask(filePath, content string) *plan.Task {
	return &plan.Task{
		ID:          "edit:" + filePath,
		Title:       "Edit " + filePath,
		Description: content,
		Scope:       "edit", // not "feature": a single-file edit isn't itself a feature task
		Tags:        []string{"path:" + filePath},
	}
}

// Check runs the fast catalog against one edit and returns the findings plus
// the worst severity seen (for deciding allow/warn/block in PreToolUse).
func (f *FastRuleRunner) Check(ctx context.Context, filePath, content string) ([]*plan.PlanValidationFinding, error) {
	task := editAsTask(filePath, content)
	vctx := &plan.ValidationContext{
		Plan:      &plan.ImplementationPlan{Tasks: []*plan.Task{task}},
		Canonical: plan.DefaultCanonicalLocations(),
	}

	budget, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()

	result, err := f.engine.Validate(budget, vctx, true)
	if err != nil {
		return nil, err
	}
	return result.Findings, nil
}

// Decision maps findings to a PreToolUse exit code: any high/critical finding
// blocks, any finding at all warns, no findings allow.
func Decision(findings []*plan.PlanValidationFinding) int {
	if len(findings) == 0 {
		return ExitAllow
	}
	for _, f := range findings {
		if f.Severity == plan.SeverityHigh || f.Severity == plan.SeverityCritical {
			return ExitBlock
		}
	}
	return ExitWarn
}
