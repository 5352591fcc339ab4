package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planWithFeatureTask() *ImplementationPlan {
	return &ImplementationPlan{
		Tasks: []*Task{
			{ID: "t1", Title: "Add rate limiting to the API", Description: "Implement a token bucket limiter.", Scope: "feature"},
		},
	}
}

func TestTestCoverageRule_FlagsMissingTest(t *testing.T) {
	vctx := &ValidationContext{Plan: planWithFeatureTask()}
	rule := &TestCoverageRule{}

	findings, err := rule.Validate(context.Background(), vctx)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "test-coverage", findings[0].RuleID)
	assert.Contains(t, findings[0].AffectedTasks, "t1")
}

func TestTestCoverageRule_SkipsWhenTestTaskLinked(t *testing.T) {
	plan := planWithFeatureTask()
	plan.Tasks = append(plan.Tasks, &Task{
		ID: "t2", Title: "Test rate limiting", Scope: "test", Dependencies: []string{"t1"},
	})
	vctx := &ValidationContext{Plan: plan}
	rule := &TestCoverageRule{}

	findings, err := rule.Validate(context.Background(), vctx)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestTestCoverageRule_SkipsTrivialTasks(t *testing.T) {
	plan := &ImplementationPlan{Tasks: []*Task{
		{ID: "t1", Title: "Fix typo in README", Tags: []string{"typo"}},
	}}
	vctx := &ValidationContext{Plan: plan}
	rule := &TestCoverageRule{}

	findings, err := rule.Validate(context.Background(), vctx)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestPerformancePatternRule_DetectsAntiPattern(t *testing.T) {
	plan := &ImplementationPlan{Tasks: []*Task{
		{ID: "t1", Title: "Fetch user posts", Description: "For each user, query their posts in a loop."},
	}}
	vctx := &ValidationContext{Plan: plan}
	rule := &PerformancePatternRule{}

	findings, err := rule.Validate(context.Background(), vctx)
	require.NoError(t, err)
	assert.NotEmpty(t, findings)
}

func TestEngine_Validate_Sequential(t *testing.T) {
	engine := NewEngine(DefaultCatalog(), DefaultEngineConfig())
	vctx := &ValidationContext{Plan: planWithFeatureTask()}

	result, err := engine.Validate(context.Background(), vctx, false)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Findings)
	assert.Len(t, result.Timings, len(DefaultCatalog()))
}

func TestEngine_Validate_FastModeSkipsSlowRules(t *testing.T) {
	engine := NewEngine(DefaultCatalog(), DefaultEngineConfig())
	vctx := &ValidationContext{Plan: planWithFeatureTask()}

	result, err := engine.Validate(context.Background(), vctx, true)
	require.NoError(t, err)
	for _, timing := range result.Timings {
		assert.NotEqual(t, "duplicate-detection", timing.RuleID, "duplicate-detection is not fast and must be excluded from fast mode")
	}
}

func TestEngine_Validate_Parallel(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Parallel = true
	engine := NewEngine(DefaultCatalog(), cfg)
	vctx := &ValidationContext{Plan: planWithFeatureTask()}

	result, err := engine.Validate(context.Background(), vctx, false)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Findings)
}

func TestEngine_AutoRevise_AddsTestTask(t *testing.T) {
	engine := NewEngine(DefaultCatalog(), DefaultEngineConfig())
	vctx := &ValidationContext{Plan: planWithFeatureTask()}

	result, err := engine.AutoRevise(context.Background(), vctx)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Applied)

	var foundTest bool
	for _, task := range vctx.Plan.Tasks {
		if task.Scope == "test" {
			foundTest = true
		}
	}
	assert.True(t, foundTest, "expected a test task to be added")
	assert.NotEmpty(t, vctx.Plan.RevisionHistory)
}

func TestEngine_AutoRevise_RejectsCycle(t *testing.T) {
	plan := &ImplementationPlan{Tasks: []*Task{
		{ID: "a", Title: "A", Tags: []string{"trivial"}},
		{ID: "b", Title: "B", Tags: []string{"trivial"}, Dependencies: []string{"a"}},
	}}
	engine := NewEngine(nil, DefaultEngineConfig())

	rejected, ok := engine.checkConflicts(plan, &PlanRevision{
		Type:                RevisionAddDependency,
		TargetTaskID:        "a",
		DependencyAdditions: []string{"b"},
	})
	assert.False(t, ok)
	assert.Contains(t, rejected, "cycle")
}

func TestEngine_AutoRevise_RejectsRemovalWithDependents(t *testing.T) {
	plan := &ImplementationPlan{Tasks: []*Task{
		{ID: "a", Title: "A"},
		{ID: "b", Title: "B", Dependencies: []string{"a"}},
	}}
	engine := NewEngine(nil, DefaultEngineConfig())

	reason, ok := engine.checkConflicts(plan, &PlanRevision{Type: RevisionRemoveTask, TargetTaskID: "a"})
	assert.False(t, ok)
	assert.Contains(t, reason, "dependents")
}

func TestEngine_AutoRevise_RejectsDuplicateTaskID(t *testing.T) {
	plan := &ImplementationPlan{Tasks: []*Task{{ID: "a", Title: "A"}}}
	engine := NewEngine(nil, DefaultEngineConfig())

	reason, ok := engine.checkConflicts(plan, &PlanRevision{Type: RevisionAddTask, NewTask: &Task{ID: "a"}})
	assert.False(t, ok)
	assert.Contains(t, reason, "duplicate")
}

func TestEngine_AutoRevise_RespectsMaxRevisionsPerPlan(t *testing.T) {
	var tasks []*Task
	for i := 0; i < 15; i++ {
		tasks = append(tasks, &Task{ID: taskID(i), Title: "Add feature " + taskID(i), Scope: "feature"})
	}
	plan := &ImplementationPlan{Tasks: tasks}

	cfg := DefaultEngineConfig()
	cfg.MaxRevisionsPerPlan = 3
	cfg.MaxIterations = 5
	engine := NewEngine(DefaultCatalog(), cfg)

	result, err := engine.AutoRevise(context.Background(), &ValidationContext{Plan: plan})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Applied), 3)
}

func taskID(i int) string {
	return string(rune('a' + i))
}
