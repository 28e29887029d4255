package agent

import "github.com/hupe1980/npcflow/core"

// runSequential executes the agents one after another and returns their
// Results in argument order. A failed Result does not stop the remaining
// agents; the branches are independent and each fault stays in its own
// Result. For the same agents the returned slice is identical to what
// runParallel produces.
func runSequential(tc *core.TurnContext, agents []core.Agent) []core.Result {
	results := make([]core.Result, len(agents))

	for i, a := range agents {
		results[i] = a.Execute(tc)
	}

	return results
}
