package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlanModeEnv(t *testing.T) {
	cases := map[string]bool{
		"true": true, "TRUE": true, "1": true, "yes": true, "YES": true, "on": true,
		"false": false, "0": false, "no": false, "off": false, "": false, "garbage": false,
	}
	for in, want := range cases {
		assert.Equal(t, want, parsePlanModeEnv(in), "input %q", in)
	}
}

func TestSetPlanMode_TogglesAndReturnsPrevious(t *testing.T) {
	defer SetPlanMode(false) // reset process-wide flag for other tests

	SetPlanMode(false)
	prev := SetPlanMode(true)
	assert.False(t, prev)
	assert.True(t, PlanModeActive())

	prev = SetPlanMode(false)
	assert.True(t, prev)
	assert.False(t, PlanModeActive())
}

func TestPlanModeDeniedError_HasSpecShape(t *testing.T) {
	err := planModeDeniedError("create_entities")
	assert.Equal(t, "PLAN_MODE_ACCESS_DENIED", err.Code)
	assert.Equal(t, "create_entities", err.Tool)
	assert.True(t, err.PlanModeActive)
	assert.Contains(t, err.BlockedTools, "create_entities")
	assert.Contains(t, err.BlockedTools, "delete_relations")
	assert.NotEmpty(t, err.Hint)
}
