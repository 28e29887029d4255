package agent

import (
	"fmt"
	"time"

	"github.com/hupe1980/npcflow/core"
)

// PersistAgent is the persistence stage of the pipeline. It runs after the
// final reply is fixed and performs two independent best-effort side effects:
// the affinity update and the memory write. The stage always returns a
// successful Result; faults of the side effects surface only in the payload
// so they can be flagged without ever failing the turn.
type PersistAgent struct {
	BaseAgent
	history      core.HistoryStore
	episodic     core.EpisodicStore
	relationship core.RelationshipManager
}

// NewPersistAgent constructs the persistence stage. Every collaborator may be
// nil; an absent one simply skips its side effect.
func NewPersistAgent(history core.HistoryStore, episodic core.EpisodicStore, relationship core.RelationshipManager) *PersistAgent {
	return &PersistAgent{
		BaseAgent:    NewBaseAgent(core.StagePersistence),
		history:      history,
		episodic:     episodic,
		relationship: relationship,
	}
}

// Execute implements core.Agent.
func (a *PersistAgent) Execute(tc *core.TurnContext) core.Result {
	return a.run(tc, func(tc *core.TurnContext) (any, error) {
		out := &core.PersistOutput{}
		finalReply := tc.FinalReply()

		if err := a.updateAffinity(tc, finalReply, out); err != nil {
			out.AffinityErr = err.Error()
			tc.LogWarn("affinity update failed", "npc", tc.NPCID, "player", tc.PlayerID, "error", err)
		}

		if err := a.saveMemory(tc, finalReply); err != nil {
			out.MemoryErr = err.Error()
			tc.LogWarn("memory persistence failed", "npc", tc.NPCID, "player", tc.PlayerID, "error", err)
		}

		return out, nil
	})
}

// updateAffinity analyzes the exchange and adjusts the pair's score. A panic
// inside the manager is contained here so the sibling side effect still runs.
func (a *PersistAgent) updateAffinity(tc *core.TurnContext, finalReply string, out *core.PersistOutput) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if a.relationship == nil {
		return nil
	}

	update, err := a.relationship.AnalyzeAndUpdate(tc.Context, tc.NPCID, tc.PlayerID, tc.Utterance, finalReply)
	if err != nil {
		return err
	}

	out.AffinityChanged = update.Changed
	out.NewScore = update.NewScore

	return nil
}

// saveMemory appends the exchange to the short-term transcript and, when an
// episodic store is configured, records both sides as tagged long-term
// entries. Panics are contained like in updateAffinity.
func (a *PersistAgent) saveMemory(tc *core.TurnContext, finalReply string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if a.history != nil {
		if err := a.history.Append(tc.Context, tc.NPCID, tc.PlayerID, core.RoleHuman, tc.Utterance); err != nil {
			return fmt.Errorf("append player message: %w", err)
		}
		if err := a.history.Append(tc.Context, tc.NPCID, tc.PlayerID, core.RoleAI, finalReply); err != nil {
			return fmt.Errorf("append npc reply: %w", err)
		}
		if err := a.history.ExtendExpiry(tc.Context, tc.NPCID, tc.PlayerID); err != nil {
			return fmt.Errorf("extend transcript expiry: %w", err)
		}
	}

	if a.episodic != nil {
		timestamp := time.Now().Format(time.RFC3339)

		entries := []core.EpisodicEntry{
			{
				Content: fmt.Sprintf("玩家说: %s", tc.Utterance),
				Metadata: map[string]any{
					"speaker":   "player",
					"player_id": tc.PlayerID,
					"timestamp": timestamp,
					"type":      "player_message",
				},
			},
			{
				Content: fmt.Sprintf("%s说: %s", tc.NPCID, finalReply),
				Metadata: map[string]any{
					"speaker":   tc.NPCID,
					"player_id": tc.PlayerID,
					"timestamp": timestamp,
					"type":      "npc_response",
				},
			},
		}

		if err := a.episodic.Add(tc.Context, tc.NPCID, entries); err != nil {
			return fmt.Errorf("add episodic entries: %w", err)
		}
	}

	return nil
}
