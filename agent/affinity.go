package agent

import (
	"fmt"

	"github.com/hupe1980/npcflow/core"
)

// AffinityAgent is the relationship stage of the pipeline. It reads the
// pair's current affinity score, maps it to the categorical level and
// dialogue style, and renders the relationship narrative the dialogue prompt
// embeds.
//
// Without a relationship manager every turn reads as the neutral stranger
// baseline; a manager that is present but errors fails the stage.
type AffinityAgent struct {
	BaseAgent
	relationship core.RelationshipManager
}

// NewAffinityAgent constructs the relationship stage. The manager may be nil.
func NewAffinityAgent(relationship core.RelationshipManager) *AffinityAgent {
	return &AffinityAgent{
		BaseAgent:    NewBaseAgent(core.StageAffinity),
		relationship: relationship,
	}
}

// Execute implements core.Agent.
func (a *AffinityAgent) Execute(tc *core.TurnContext) core.Result {
	return a.run(tc, func(tc *core.TurnContext) (any, error) {
		if a.relationship == nil {
			tc.LogDebug("no relationship manager configured, using neutral baseline", "npc", tc.NPCID)
			return NeutralAffinityOutput(), nil
		}

		score, err := a.relationship.Score(tc.Context, tc.NPCID, tc.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("read affinity score: %w", err)
		}

		level := a.relationship.Level(score)
		style := a.relationship.Style(score)

		return &core.AffinityOutput{
			Score:     score,
			Level:     level,
			Style:     style,
			Narrative: AffinityNarrative(score, level, style),
		}, nil
	})
}

// NeutralAffinityOutput returns the stranger-baseline payload used when no
// relationship manager is configured or the affinity branch failed.
func NeutralAffinityOutput() *core.AffinityOutput {
	return &core.AffinityOutput{
		Score:     core.NeutralScore,
		Level:     core.NeutralLevel,
		Style:     core.NeutralStyle,
		Narrative: AffinityNarrative(core.NeutralScore, core.NeutralLevel, core.NeutralStyle),
	}
}

// AffinityNarrative renders the 【当前关系】 block embedded in the dialogue
// prompt.
func AffinityNarrative(score float64, level, style string) string {
	return fmt.Sprintf("【当前关系】\n你与玩家的关系: %s (好感度: %.0f/100)\n\n【对话风格】%s", level, score, style)
}
