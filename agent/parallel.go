package agent

import (
	"sync"

	"github.com/hupe1980/npcflow/core"
)

// runParallel executes the agents concurrently and returns their Results in
// argument order. Every agent runs to completion: a failing branch never
// cancels its siblings, each fault stays in its own Result. Sharing the
// context across branches is safe because stages only read it and return
// payloads; writes happen on the coordinating goroutine during merge.
func runParallel(tc *core.TurnContext, agents []core.Agent) []core.Result {
	results := make([]core.Result, len(agents))

	var wg sync.WaitGroup
	wg.Add(len(agents))

	for i, a := range agents {
		go func(i int, a core.Agent) {
			defer wg.Done()
			results[i] = a.Execute(tc)
		}(i, a)
	}

	wg.Wait()

	return results
}
