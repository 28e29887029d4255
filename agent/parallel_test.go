package agent

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/npcflow/core"
	"github.com/hupe1980/npcflow/internal/testutil"
)

// agentFunc adapts a closure into a core.Agent for runner tests.
type agentFunc struct {
	name string
	fn   func(tc *core.TurnContext) core.Result
}

func (a agentFunc) Name() string { return a.name }

func (a agentFunc) Execute(tc *core.TurnContext) core.Result { return a.fn(tc) }

func TestRunParallel_ResultsInArgumentOrder(t *testing.T) {
	one := newStubAgent("one", succeedWith("one", "a"))
	two := newStubAgent("two", failWith("two", errors.New("boom")))
	three := newStubAgent("three", succeedWith("three", "c"))

	results := runParallel(testutil.NewTurnBuilder().Build(), []core.Agent{one, two, three})

	require.Len(t, results, 3)
	assert.Equal(t, "one", results[0].Producer)
	assert.Equal(t, "two", results[1].Producer)
	assert.Equal(t, "three", results[2].Producer)
}

func TestRunParallel_FailureDoesNotCancelSiblings(t *testing.T) {
	failing := newStubAgent("failing", failWith("failing", errors.New("boom")))
	healthy := newStubAgent("healthy", succeedWith("healthy", nil))

	results := runParallel(testutil.NewTurnBuilder().Build(), []core.Agent{failing, healthy})

	assert.False(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.Equal(t, 1, failing.Calls())
	assert.Equal(t, 1, healthy.Calls())
}

func TestRunParallel_BranchesOverlap(t *testing.T) {
	// Each branch waits for the other through a rendezvous; only truly
	// concurrent execution completes it before the deadline.
	gate := make(chan struct{})

	var missed atomic.Int32

	rendezvous := func(name string, send bool) core.Agent {
		return agentFunc{name: name, fn: func(tc *core.TurnContext) core.Result {
			if send {
				select {
				case gate <- struct{}{}:
				case <-time.After(2 * time.Second):
					missed.Add(1)
				}
			} else {
				select {
				case <-gate:
				case <-time.After(2 * time.Second):
					missed.Add(1)
				}
			}

			return core.Succeed(name, nil, 0)
		}}
	}

	results := runParallel(testutil.NewTurnBuilder().Build(), []core.Agent{
		rendezvous("sender", true),
		rendezvous("receiver", false),
	})

	require.Len(t, results, 2)
	assert.Zero(t, missed.Load(), "branches never met, execution was not concurrent")
}

func TestRunParallel_NoAgents(t *testing.T) {
	results := runParallel(testutil.NewTurnBuilder().Build(), nil)
	assert.Empty(t, results)
}
