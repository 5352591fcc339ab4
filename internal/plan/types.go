// Package plan implements the Plan-Mode Guardrail Engine: a deterministic
// rule catalog that validates an implementation plan's task list against
// coverage, consistency, architecture, and performance rules, and can
// mechanically revise the plan within fixed safety limits.
package plan

import "time"

// Task is one unit of work inside an ImplementationPlan.
type Task struct {
	ID                 string
	Title               string
	Description         string
	Scope               string
	Priority            int
	Effort              string
	Impact              string
	AcceptanceCriteria  []string
	Dependencies        []string
	Tags                []string
}

// ImplementationPlan is the object rules validate and revisions mutate.
type ImplementationPlan struct {
	Tasks           []*Task
	RevisionHistory []*AppliedRevision
}

// TaskByID returns the task with the given id, or nil.
func (p *ImplementationPlan) TaskByID(id string) *Task {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Severity ranks how serious a validation finding is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders Severity from most to least serious, for sorting
// findings before the auto-revision pass.
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Category classifies what a rule checks.
type Category string

const (
	CategoryCoverage      Category = "coverage"
	CategoryConsistency   Category = "consistency"
	CategoryArchitecture  Category = "architecture"
	CategoryPerformance   Category = "performance"
)

// RevisionType enumerates how a PlanRevision changes a plan. Order here is
// also the auto-revision tie-break order (add_task first, remove_task last)
// per spec.
type RevisionType string

const (
	RevisionAddTask        RevisionType = "add_task"
	RevisionModifyTask     RevisionType = "modify_task"
	RevisionAddDependency  RevisionType = "add_dependency"
	RevisionReorderTasks   RevisionType = "reorder_tasks"
	RevisionRemoveTask     RevisionType = "remove_task"
)

// revisionTypeRank gives the fixed tie-break order used when sorting
// findings for the auto-revision pass.
var revisionTypeRank = map[RevisionType]int{
	RevisionAddTask:       0,
	RevisionModifyTask:    1,
	RevisionAddDependency: 2,
	RevisionReorderTasks:  3,
	RevisionRemoveTask:    4,
}

// PlanValidationFinding is one issue a Rule raised against a plan.
type PlanValidationFinding struct {
	RuleID            string
	Category          Category
	Severity          Severity
	Summary           string
	AffectedTasks     []string
	Suggestion        string
	Confidence        float64 // 0..1; auto-revision requires >= threshold
	CanAutoRevise     bool
	SuggestedRevision *PlanRevision // populated by Rule.SuggestRevision, may be nil
}

// PlanRevision describes one mechanical change to a plan.
type PlanRevision struct {
	Type                RevisionType
	Rationale           string
	TargetTaskID        string
	NewTask             *Task
	Modifications       map[string]any
	DependencyAdditions []string
}

// AppliedRevision is the audit-trail record for one revision the engine
// actually applied.
type AppliedRevision struct {
	RuleID     string
	Revision   *PlanRevision
	Rationale  string
	Before     string
	After      string
	Confidence float64
	AppliedAt  time.Time
}

// RuleTiming records how long one rule took to validate, for
// PlanGuardrailResult.Timings.
type RuleTiming struct {
	RuleID   string
	Duration time.Duration
}

// PlanGuardrailResult aggregates one validation pass across the whole
// catalog.
type PlanGuardrailResult struct {
	Findings []*PlanValidationFinding
	Timings  []RuleTiming
	Errors   map[string]error // rule_id -> error, only populated when continue_on_error is true
}
