package agent

import (
	"fmt"
	"time"

	"github.com/hupe1980/npcflow/core"
)

// SupervisorConfig tunes the coordinator.
type SupervisorConfig struct {
	// EnableReflection gates the revision pass. Even when true, revision
	// only runs if a reflection stage is configured.
	EnableReflection bool

	// ParallelRetrieval runs the memory and affinity branches concurrently.
	// Sequential execution yields identical merged output.
	ParallelRetrieval bool

	// MaxRetries is the number of generation attempts (1 = no retry).
	MaxRetries int
}

// DefaultSupervisorConfig returns the stock coordinator configuration.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		EnableReflection:  true,
		ParallelRetrieval: true,
		MaxRetries:        1,
	}
}

// Stages bundles the pipeline's stage agents for Supervisor construction.
// Reflection may be nil, which disables the revision pass.
type Stages struct {
	Memory     core.Agent
	Affinity   core.Agent
	Dialogue   core.Agent
	Reflection core.Agent
	Persist    core.Agent
}

// Supervisor coordinates one turn through the fixed stage topology:
//
//	START → RETRIEVE (memory ∥ affinity) → MERGE → GENERATE → [REVISE] → PERSIST → DONE
//
// The retrieval branches degrade to documented defaults on failure, the
// generation stage is fatal after its bounded retries, revision is
// conditional and persistence is fire-and-continue. The coordinator only
// ever branches on Result.Success; it holds no locks because the context is
// turn-exclusive and branch results are merged on the coordinating
// goroutine.
//
// Supervisor itself implements core.Agent, so a turn can be driven by
// anything that knows how to execute an agent.
type Supervisor struct {
	BaseAgent
	memory     core.Agent
	affinity   core.Agent
	dialogue   core.Agent
	reflection core.Agent
	persist    core.Agent
	config     SupervisorConfig
}

// NewSupervisor constructs the coordinator over the given stages.
func NewSupervisor(stages Stages, optFns ...func(c *SupervisorConfig)) *Supervisor {
	cfg := DefaultSupervisorConfig()
	for _, fn := range optFns {
		fn(&cfg)
	}

	return &Supervisor{
		BaseAgent:  NewBaseAgent(core.StageSupervisor),
		memory:     stages.Memory,
		affinity:   stages.Affinity,
		dialogue:   stages.Dialogue,
		reflection: stages.Reflection,
		persist:    stages.Persist,
		config:     cfg,
	}
}

// Config returns the effective coordinator configuration.
func (s *Supervisor) Config() SupervisorConfig { return s.config }

// Execute implements core.Agent: it drives one full turn and returns either
// a successful Result whose payload is the *core.TurnResult, or a failed
// Result when generation failed.
func (s *Supervisor) Execute(tc *core.TurnContext) core.Result {
	start := time.Now()
	tc.Touch()

	tc.LogInfo("turn started",
		"turn", tc.ID,
		"npc", tc.NPCID,
		"player", tc.PlayerID,
		"parallel", s.config.ParallelRetrieval,
	)

	stageSuccess := map[string]bool{}

	// RETRIEVE
	memRes, affRes := s.retrieve(tc)
	stageSuccess[core.StageMemory] = memRes.Success
	stageSuccess[core.StageAffinity] = affRes.Success

	// MERGE
	s.merge(tc, memRes, affRes)

	// GENERATE
	diaRes := runWithRetries(tc, s.dialogue, s.config.MaxRetries)
	stageSuccess[core.StageDialogue] = diaRes.Success
	if !diaRes.Success {
		tc.LogError("generation failed, aborting turn", "turn", tc.ID, "error", diaRes.Error)
		return core.Fail(s.Name(), fmt.Errorf("对话生成失败: %s", diaRes.Error), time.Since(start))
	}
	if out, ok := diaRes.Payload.(*core.DialogueOutput); ok {
		tc.SetDialogue(out)
	}

	// REVISE
	if s.config.EnableReflection && s.reflection != nil {
		refRes := s.reflection.Execute(tc)
		stageSuccess[core.StageReflection] = refRes.Success

		if out, ok := refRes.Payload.(*core.ReviewOutput); ok && refRes.Success {
			tc.SetReview(out)
		} else {
			// The reflection stage succeeds by contract, so this only
			// triggers on a stage panic. The generated reply stands.
			tc.LogWarn("review stage failed, keeping generated reply", "turn", tc.ID, "error", refRes.Error)
		}
	}

	// PERSIST
	perRes := s.persist.Execute(tc)
	persistOut, ok := perRes.Payload.(*core.PersistOutput)
	if !ok {
		persistOut = &core.PersistOutput{}
	}
	stageSuccess[core.StagePersistence] = perRes.Success &&
		persistOut.AffinityErr == "" && persistOut.MemoryErr == ""

	// DONE
	affinityScore := core.NeutralScore
	if tc.Affinity != nil {
		affinityScore = tc.Affinity.Score
	}
	revised := tc.Review != nil && tc.Review.Revised

	turn := &core.TurnResult{
		Reply:           tc.FinalReply(),
		Affinity:        affinityScore,
		AffinityChanged: persistOut.AffinityChanged,
		Revised:         revised,
		StageSuccess:    stageSuccess,
		Elapsed:         time.Since(start),
	}

	tc.Touch()
	tc.LogInfo("turn completed",
		"turn", tc.ID,
		"npc", tc.NPCID,
		"revised", revised,
		"elapsed", turn.Elapsed,
	)

	return core.Succeed(s.Name(), turn, time.Since(start))
}

// retrieve runs the memory and affinity branches, concurrently when
// configured. Each branch's faults stay in its own Result; one branch
// failing never cancels the sibling.
func (s *Supervisor) retrieve(tc *core.TurnContext) (memRes, affRes core.Result) {
	branches := []core.Agent{s.memory, s.affinity}

	var results []core.Result
	if s.config.ParallelRetrieval {
		results = runParallel(tc, branches)
	} else {
		results = runSequential(tc, branches)
	}

	return results[0], results[1]
}

// merge writes the branch payloads into the context via the typed setters,
// substituting documented defaults for failed branches: empty memory, the
// neutral relationship baseline.
func (s *Supervisor) merge(tc *core.TurnContext, memRes, affRes core.Result) {
	if out, ok := memRes.Payload.(*core.MemoryOutput); ok && memRes.Success {
		tc.SetMemory(out)
	} else {
		if !memRes.Success {
			tc.LogWarn("memory retrieval failed, continuing with empty memory", "turn", tc.ID, "error", memRes.Error)
		}
		tc.SetMemory(&core.MemoryOutput{})
	}

	if out, ok := affRes.Payload.(*core.AffinityOutput); ok && affRes.Success {
		tc.SetAffinity(out)
	} else {
		if !affRes.Success {
			tc.LogWarn("affinity retrieval failed, continuing with neutral baseline", "turn", tc.ID, "error", affRes.Error)
		}
		tc.SetAffinity(NeutralAffinityOutput())
	}
}
