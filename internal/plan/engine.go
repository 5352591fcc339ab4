package plan

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// EngineConfig tunes catalog execution and the auto-revision pass.
type EngineConfig struct {
	// Parallel runs rules on a bounded worker pool instead of sequentially.
	Parallel bool
	// Workers bounds the pool when Parallel is true. Default 4.
	Workers int
	// RuleTimeout bounds each rule's Validate call. Default 1s.
	RuleTimeout time.Duration
	// ContinueOnError skips a rule that errors instead of aborting the whole
	// pass. Default true.
	ContinueOnError bool
	// ConfidenceThreshold is the minimum finding confidence eligible for
	// auto-revision. Default 0.7.
	ConfidenceThreshold float64
	// MaxIterations bounds the auto-revision pass's pass count. Default 3.
	MaxIterations int
	// MaxRevisionsPerPlan caps total applied revisions across all
	// iterations. Default 10.
	MaxRevisionsPerPlan int
}

// DefaultEngineConfig matches spec.md §4.H's defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Parallel:            false,
		Workers:             4,
		RuleTimeout:         time.Second,
		ContinueOnError:     true,
		ConfidenceThreshold: 0.7,
		MaxIterations:       3,
		MaxRevisionsPerPlan: 10,
	}
}

// Engine runs a rule catalog against plans and applies auto-revisions.
type Engine struct {
	rules  []Rule
	config EngineConfig
}

// NewEngine builds an Engine over the given rules (DefaultCatalog() if nil)
// with the given config (DefaultEngineConfig() if zero-valued fields are
// left unset by the caller — callers should start from DefaultEngineConfig).
func NewEngine(rules []Rule, cfg EngineConfig) *Engine {
	if rules == nil {
		rules = DefaultCatalog()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.RuleTimeout <= 0 {
		cfg.RuleTimeout = time.Second
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.7
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 3
	}
	if cfg.MaxRevisionsPerPlan <= 0 {
		cfg.MaxRevisionsPerPlan = 10
	}
	return &Engine{rules: rules, config: cfg}
}

// Validate runs every rule in the catalog (or, if fast is true, only IsFast
// rules) and aggregates findings, per-rule timings, and errors.
func (e *Engine) Validate(ctx context.Context, vctx *ValidationContext, fast bool) (*PlanGuardrailResult, error) {
	active := e.rules
	if fast {
		active = make([]Rule, 0, len(e.rules))
		for _, r := range e.rules {
			if r.IsFast() {
				active = append(active, r)
			}
		}
	}

	result := &PlanGuardrailResult{Errors: make(map[string]error)}

	type ruleOutcome struct {
		ruleID   string
		findings []*PlanValidationFinding
		duration time.Duration
		err      error
	}
	outcomes := make([]ruleOutcome, len(active))

	run := func(i int) {
		r := active[i]
		rctx, cancel := context.WithTimeout(ctx, e.config.RuleTimeout)
		defer cancel()
		start := time.Now()
		findings, err := r.Validate(rctx, vctx)
		outcomes[i] = ruleOutcome{ruleID: r.RuleID(), findings: findings, duration: time.Since(start), err: err}
	}

	if e.config.Parallel {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(e.config.Workers)
		for i := range active {
			i := i
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait() // run() never returns an error; per-rule errors are captured in outcomes
	} else {
		for i := range active {
			run(i)
		}
	}

	for _, o := range outcomes {
		result.Timings = append(result.Timings, RuleTiming{RuleID: o.ruleID, Duration: o.duration})
		if o.err != nil {
			result.Errors[o.ruleID] = o.err
			if !e.config.ContinueOnError {
				return result, fmt.Errorf("rule %s failed: %w", o.ruleID, o.err)
			}
			continue
		}
		result.Findings = append(result.Findings, o.findings...)
	}

	return result, nil
}

// sortFindingsForRevision orders findings by severity then the fixed
// revision-type tie-break, per spec.md §4.H.
func sortFindingsForRevision(findings []*PlanValidationFinding) {
	sort.SliceStable(findings, func(i, j int) bool {
		si, sj := severityRank[findings[i].Severity], severityRank[findings[j].Severity]
		if si != sj {
			return si < sj
		}
		ti := revisionTypeRank[revisionTypeOf(findings[i])]
		tj := revisionTypeRank[revisionTypeOf(findings[j])]
		return ti < tj
	})
}

func revisionTypeOf(f *PlanValidationFinding) RevisionType {
	if f.SuggestedRevision != nil {
		return f.SuggestedRevision.Type
	}
	return RevisionModifyTask
}

// ReviseResult is the outcome of AutoRevise.
type ReviseResult struct {
	Applied    []*AppliedRevision
	Rejected   []RejectedRevision
	Iterations int
}

// RejectedRevision records a revision the conflict checks refused to apply.
type RejectedRevision struct {
	Finding *PlanValidationFinding
	Reason  string
}

// AutoRevise runs the find-then-revise loop: validate, propose revisions for
// findings at/above the confidence threshold, apply the ones that pass all
// conflict checks, and repeat until nothing new is found, MaxIterations is
// hit, or MaxRevisionsPerPlan is exhausted.
func (e *Engine) AutoRevise(ctx context.Context, vctx *ValidationContext) (*ReviseResult, error) {
	result := &ReviseResult{}

	for iter := 0; iter < e.config.MaxIterations; iter++ {
		result.Iterations = iter + 1
		if len(result.Applied) >= e.config.MaxRevisionsPerPlan {
			break
		}

		validation, err := e.Validate(ctx, vctx, false)
		if err != nil {
			return result, err
		}

		var revisable []*PlanValidationFinding
		for _, f := range validation.Findings {
			if f.CanAutoRevise && f.Confidence >= e.config.ConfidenceThreshold {
				revisable = append(revisable, f)
			}
		}
		if len(revisable) == 0 {
			break
		}
		sortFindingsForRevision(revisable)

		appliedThisPass := 0
		for _, f := range revisable {
			if len(result.Applied) >= e.config.MaxRevisionsPerPlan {
				break
			}

			rule := e.ruleByID(f.RuleID)
			if rule == nil {
				continue
			}
			revision := f.SuggestedRevision
			if revision == nil {
				rctx, cancel := context.WithTimeout(ctx, e.config.RuleTimeout)
				revision, err = rule.SuggestRevision(rctx, f, vctx)
				cancel()
				if err != nil || revision == nil {
					continue
				}
			}

			if reason, ok := e.checkConflicts(vctx.Plan, revision); !ok {
				result.Rejected = append(result.Rejected, RejectedRevision{Finding: f, Reason: reason})
				continue
			}

			before := snapshotPlan(vctx.Plan)
			applyRevision(vctx.Plan, revision)
			after := snapshotPlan(vctx.Plan)

			applied := &AppliedRevision{
				RuleID:     f.RuleID,
				Revision:   revision,
				Rationale:  revision.Rationale,
				Before:     before,
				After:      after,
				Confidence: f.Confidence,
				AppliedAt:  time.Now(),
			}
			vctx.Plan.RevisionHistory = append(vctx.Plan.RevisionHistory, applied)
			result.Applied = append(result.Applied, applied)
			appliedThisPass++
		}

		reresolveDependencies(vctx.Plan)

		if appliedThisPass == 0 {
			break
		}
	}

	return result, nil
}

func (e *Engine) ruleByID(id string) Rule {
	for _, r := range e.rules {
		if r.RuleID() == id {
			return r
		}
	}
	return nil
}

// checkConflicts runs the four conflict checks from spec.md §4.H against a
// proposed revision before it is applied.
func (e *Engine) checkConflicts(p *ImplementationPlan, rev *PlanRevision) (reason string, ok bool) {
	switch rev.Type {
	case RevisionAddTask:
		if rev.NewTask == nil {
			return "add_task revision carries no task", false
		}
		if p.TaskByID(rev.NewTask.ID) != nil {
			return fmt.Sprintf("duplicate task id %q", rev.NewTask.ID), false
		}
	case RevisionModifyTask, RevisionRemoveTask:
		if p.TaskByID(rev.TargetTaskID) == nil {
			return fmt.Sprintf("target task %q does not exist", rev.TargetTaskID), false
		}
		if rev.Type == RevisionRemoveTask && hasDependents(p, rev.TargetTaskID) {
			return fmt.Sprintf("task %q has dependents and cannot be removed", rev.TargetTaskID), false
		}
	case RevisionAddDependency:
		if p.TaskByID(rev.TargetTaskID) == nil {
			return fmt.Sprintf("target task %q does not exist", rev.TargetTaskID), false
		}
		if introducesCycle(p, rev.TargetTaskID, rev.DependencyAdditions) {
			return "adding dependency introduces a cycle", false
		}
	case RevisionReorderTasks:
		// no structural conflict possible; reordering is always safe
	}
	return "", true
}

func hasDependents(p *ImplementationPlan, taskID string) bool {
	for _, t := range p.Tasks {
		for _, dep := range t.Dependencies {
			if dep == taskID {
				return true
			}
		}
	}
	return false
}

// introducesCycle reports whether adding edges taskID -> each of newDeps
// would create a cycle in the dependency graph, via DFS from each new
// dependency looking for a path back to taskID.
func introducesCycle(p *ImplementationPlan, taskID string, newDeps []string) bool {
	adj := make(map[string][]string, len(p.Tasks))
	for _, t := range p.Tasks {
		adj[t.ID] = append([]string{}, t.Dependencies...)
	}

	for _, dep := range newDeps {
		if dep == taskID {
			return true
		}
		visited := map[string]bool{}
		var dfs func(id string) bool
		dfs = func(id string) bool {
			if id == taskID {
				return true
			}
			if visited[id] {
				return false
			}
			visited[id] = true
			for _, next := range adj[id] {
				if dfs(next) {
					return true
				}
			}
			return false
		}
		if dfs(dep) {
			return true
		}
	}
	return false
}

// applyRevision mutates the plan in place according to rev. Callers must
// have already run checkConflicts.
func applyRevision(p *ImplementationPlan, rev *PlanRevision) {
	switch rev.Type {
	case RevisionAddTask:
		p.Tasks = append(p.Tasks, rev.NewTask)
	case RevisionModifyTask:
		t := p.TaskByID(rev.TargetTaskID)
		if t == nil {
			return
		}
		applyModifications(t, rev.Modifications)
	case RevisionRemoveTask:
		filtered := p.Tasks[:0]
		for _, t := range p.Tasks {
			if t.ID != rev.TargetTaskID {
				filtered = append(filtered, t)
			}
		}
		p.Tasks = filtered
	case RevisionAddDependency:
		t := p.TaskByID(rev.TargetTaskID)
		if t == nil {
			return
		}
		t.Dependencies = append(t.Dependencies, rev.DependencyAdditions...)
	case RevisionReorderTasks:
		if order, ok := rev.Modifications["order"].([]string); ok {
			reordered := make([]*Task, 0, len(p.Tasks))
			for _, id := range order {
				if t := p.TaskByID(id); t != nil {
					reordered = append(reordered, t)
				}
			}
			if len(reordered) == len(p.Tasks) {
				p.Tasks = reordered
			}
		}
	}
}

func applyModifications(t *Task, mods map[string]any) {
	if note, ok := mods["performance_note"].(string); ok {
		t.AcceptanceCriteria = append(t.AcceptanceCriteria, "performance: "+note)
	}
	if crit, ok := mods["acceptance_criterion"].(string); ok {
		t.AcceptanceCriteria = append(t.AcceptanceCriteria, crit)
	}
	if desc, ok := mods["description"].(string); ok {
		t.Description = desc
	}
}

// reresolveDependencies drops dangling dependency references (targets that
// no longer exist, e.g. after a remove_task) and recomputes each task's
// priority from its position in the slice, per spec.md §4.H "after every
// pass the engine re-resolves dependency references, drops orphans, and
// re-counts priorities".
func reresolveDependencies(p *ImplementationPlan) {
	ids := make(map[string]bool, len(p.Tasks))
	for _, t := range p.Tasks {
		ids[t.ID] = true
	}
	for i, t := range p.Tasks {
		kept := t.Dependencies[:0]
		for _, dep := range t.Dependencies {
			if ids[dep] {
				kept = append(kept, dep)
			}
		}
		t.Dependencies = kept
		t.Priority = i
	}
}

// snapshotPlan renders a short human-readable snapshot of the plan's task
// titles, used for AppliedRevision's before/after audit fields.
func snapshotPlan(p *ImplementationPlan) string {
	titles := make([]string, len(p.Tasks))
	for i, t := range p.Tasks {
		titles[i] = t.Title
	}
	return fmt.Sprintf("%v", titles)
}
