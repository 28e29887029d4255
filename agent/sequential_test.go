package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/npcflow/core"
	"github.com/hupe1980/npcflow/internal/testutil"
)

func TestRunSequential_ExecutesInArgumentOrder(t *testing.T) {
	var order []string

	record := func(name string) core.Agent {
		return agentFunc{name: name, fn: func(tc *core.TurnContext) core.Result {
			order = append(order, name)
			return core.Succeed(name, nil, 0)
		}}
	}

	results := runSequential(testutil.NewTurnBuilder().Build(), []core.Agent{
		record("one"),
		record("two"),
		record("three"),
	})

	require.Len(t, results, 3)
	assert.Equal(t, []string{"one", "two", "three"}, order)
	assert.Equal(t, "one", results[0].Producer)
	assert.Equal(t, "three", results[2].Producer)
}

func TestRunSequential_FailureDoesNotStopRemaining(t *testing.T) {
	failing := newStubAgent("failing", failWith("failing", errors.New("boom")))
	healthy := newStubAgent("healthy", succeedWith("healthy", nil))

	results := runSequential(testutil.NewTurnBuilder().Build(), []core.Agent{failing, healthy})

	assert.False(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.Equal(t, 1, healthy.Calls())
}

func TestRunSequential_NoAgents(t *testing.T) {
	results := runSequential(testutil.NewTurnBuilder().Build(), nil)
	assert.Empty(t, results)
}
