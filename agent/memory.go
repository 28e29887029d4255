package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/npcflow/core"
)

// DefaultMemoryTopK is how many episodic snippets the retrieval stage asks
// for when not configured otherwise.
const DefaultMemoryTopK = 3

// maxNarrativeSnippets caps how many snippets the rendered narrative shows,
// independent of the retrieval TopK.
const maxNarrativeSnippets = 3

// MemoryAgentOptions configure a MemoryAgent.
type MemoryAgentOptions struct {
	// TopK bounds how many episodic snippets are retrieved per turn.
	TopK int
}

// MemoryAgent is the retrieval stage of the pipeline. It loads the bounded
// short-term transcript of the NPC/player pair and searches the NPC's
// long-term episodic memory for snippets relevant to the utterance, rendering
// them into the narrative block the dialogue prompt embeds.
//
// An absent episodic store degrades to an empty snippet set; a store that is
// present but errors fails the stage.
type MemoryAgent struct {
	BaseAgent
	history  core.HistoryStore
	episodic core.EpisodicStore
	opts     MemoryAgentOptions
}

// NewMemoryAgent constructs the retrieval stage. The episodic store may be
// nil; the history store is expected but a nil one reads as empty.
func NewMemoryAgent(history core.HistoryStore, episodic core.EpisodicStore, optFns ...func(o *MemoryAgentOptions)) *MemoryAgent {
	opts := MemoryAgentOptions{TopK: DefaultMemoryTopK}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &MemoryAgent{
		BaseAgent: NewBaseAgent(core.StageMemory),
		history:   history,
		episodic:  episodic,
		opts:      opts,
	}
}

// Execute implements core.Agent.
func (a *MemoryAgent) Execute(tc *core.TurnContext) core.Result {
	return a.run(tc, func(tc *core.TurnContext) (any, error) {
		out := &core.MemoryOutput{}

		if a.history != nil {
			transcript, err := a.history.History(tc.Context, tc.NPCID, tc.PlayerID)
			if err != nil {
				return nil, fmt.Errorf("load transcript: %w", err)
			}
			out.Transcript = transcript
		}

		if a.episodic != nil {
			hits, err := a.episodic.Search(tc.Context, tc.NPCID, tc.Utterance, a.opts.TopK)
			if err != nil {
				return nil, fmt.Errorf("search episodic memory: %w", err)
			}
			out.Snippets = hits
			out.Narrative = MemoryNarrative(hits)
		}

		tc.LogDebug("memory retrieved",
			"npc", tc.NPCID,
			"player", tc.PlayerID,
			"transcript", len(out.Transcript),
			"snippets", len(out.Snippets),
		)

		return out, nil
	})
}

// MemoryNarrative renders episodic hits into the 【相关记忆】 block embedded
// in the dialogue prompt. Returns "" when there are no hits.
func MemoryNarrative(hits []core.EpisodicHit) string {
	if len(hits) == 0 {
		return ""
	}

	if len(hits) > maxNarrativeSnippets {
		hits = hits[:maxNarrativeSnippets]
	}

	var sb strings.Builder
	sb.WriteString("【相关记忆】")
	for _, hit := range hits {
		sb.WriteString("\n- ")
		sb.WriteString(hit.Content)
	}

	return sb.String()
}
