package agent

import (
	"fmt"
	"time"

	"github.com/hupe1980/npcflow/core"
)

// BaseAgent bundles the identity and fault plumbing shared by every pipeline
// stage. Embed it in concrete stages and funnel Execute through run so that
// timing and panic recovery are handled uniformly across the pipeline.
type BaseAgent struct {
	name string
}

// NewBaseAgent constructs a BaseAgent with the given stage name.
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{name: name}
}

// Name returns the stage name, used as the Result producer.
func (b *BaseAgent) Name() string { return b.name }

// run executes fn, timing it and converting its (payload, error) pair into a
// Result. A panic inside fn is recovered and encoded as a failed Result so
// it never crosses the stage boundary.
func (b *BaseAgent) run(tc *core.TurnContext, fn func(tc *core.TurnContext) (any, error)) (res core.Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			tc.LogError("stage panic recovered", "stage", b.name, "panic", r)
			res = core.Fail(b.name, fmt.Errorf("panic: %v", r), time.Since(start))
		}
	}()

	payload, err := fn(tc)
	if err != nil {
		return core.Fail(b.name, err, time.Since(start))
	}

	return core.Succeed(b.name, payload, time.Since(start))
}
