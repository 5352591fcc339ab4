package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amanmcp/internal/plan"
)

func TestFastRuleRunner_Check_FlagsAntiPattern(t *testing.T) {
	runner := NewFastRuleRunner()
	findings, err := runner.Check(context.Background(), "internal/worker/sync.go", "process orders in a loop, one request at a time")
	require.NoError(t, err)
	require.NotEmpty(t, findings)
	assert.Equal(t, "performance-pattern", findings[0].RuleID)
}

func TestFastRuleRunner_Check_CleanEdit(t *testing.T) {
	runner := NewFastRuleRunner()
	findings, err := runner.Check(context.Background(), "internal/worker/sync.go", "a small, uneventful refactor, typo fix only")
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestDecision_NoFindingsAllows(t *testing.T) {
	assert.Equal(t, ExitAllow, Decision(nil))
}

func TestDecision_LowSeverityWarns(t *testing.T) {
	findings := []*plan.PlanValidationFinding{{Severity: plan.SeverityLow}}
	assert.Equal(t, ExitWarn, Decision(findings))
}

func TestDecision_HighSeverityBlocks(t *testing.T) {
	findings := []*plan.PlanValidationFinding{{Severity: plan.SeverityLow}, {Severity: plan.SeverityHigh}}
	assert.Equal(t, ExitBlock, Decision(findings))
}
