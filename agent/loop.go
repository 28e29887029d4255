package agent

import "github.com/hupe1980/npcflow/core"

// runWithRetries executes the agent up to attempts times, returning the
// first successful Result or the last failed one. Attempts below 1 count
// as a single attempt.
func runWithRetries(tc *core.TurnContext, a core.Agent, attempts int) core.Result {
	if attempts < 1 {
		attempts = 1
	}

	var res core.Result

	for attempt := 1; attempt <= attempts; attempt++ {
		res = a.Execute(tc)
		if res.Success {
			return res
		}

		if attempt < attempts {
			tc.LogWarn("stage attempt failed, retrying",
				"stage", a.Name(),
				"attempt", attempt,
				"error", res.Error,
			)
		}
	}

	return res
}
