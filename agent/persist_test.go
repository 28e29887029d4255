package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/npcflow/core"
	"github.com/hupe1980/npcflow/internal/testutil"
)

var _ core.Agent = (*PersistAgent)(nil)

func persistTurn() *core.TurnContext {
	tc := testutil.NewTurnBuilder().Utterance("谢谢你帮我!").Build()
	tc.SetDialogue(&core.DialogueOutput{Reply: "不客气,随时来问。"})
	return tc
}

func TestPersistAgent_WritesBothSideEffects(t *testing.T) {
	history := &testutil.ScriptedHistory{}
	episodic := &testutil.ScriptedEpisodic{}
	rel := &testutil.ScriptedRelationship{Update: core.AffinityUpdate{Changed: true, NewScore: 52}}

	a := NewPersistAgent(history, episodic, rel)
	res := a.Execute(persistTurn())

	require.True(t, res.Success)
	out := res.Payload.(*core.PersistOutput)
	assert.True(t, out.AffinityChanged)
	assert.Equal(t, 52.0, out.NewScore)
	assert.Empty(t, out.AffinityErr)
	assert.Empty(t, out.MemoryErr)

	appended := history.Appended()
	require.Len(t, appended, 2)
	assert.Equal(t, core.RoleHuman, appended[0].Role)
	assert.Equal(t, "谢谢你帮我!", appended[0].Content)
	assert.Equal(t, core.RoleAI, appended[1].Role)
	assert.Equal(t, "不客气,随时来问。", appended[1].Content)
	assert.Equal(t, 1, history.Extended())

	added := episodic.Added()
	require.Len(t, added, 2)
	assert.Equal(t, "玩家说: 谢谢你帮我!", added[0].Content)
	assert.Equal(t, "player_message", added[0].Metadata["type"])
	assert.Equal(t, "player", added[0].Metadata["speaker"])
	assert.Equal(t, "张三说: 不客气,随时来问。", added[1].Content)
	assert.Equal(t, "npc_response", added[1].Metadata["type"])
	assert.Equal(t, "张三", added[1].Metadata["speaker"])

	assert.Equal(t, 1, rel.Updated())
}

func TestPersistAgent_PersistsReviewedReply(t *testing.T) {
	history := &testutil.ScriptedHistory{}

	tc := persistTurn()
	tc.SetReview(&core.ReviewOutput{FinalReply: "修订后的回复", Revised: true})

	a := NewPersistAgent(history, nil, nil)
	res := a.Execute(tc)

	require.True(t, res.Success)
	appended := history.Appended()
	require.Len(t, appended, 2)
	assert.Equal(t, "修订后的回复", appended[1].Content)
}

func TestPersistAgent_AffinityErrorDoesNotFailStage(t *testing.T) {
	history := &testutil.ScriptedHistory{}
	rel := &testutil.ScriptedRelationship{UpdateErr: errors.New("update refused")}

	a := NewPersistAgent(history, nil, rel)
	res := a.Execute(persistTurn())

	require.True(t, res.Success, "persistence never fails the turn")
	out := res.Payload.(*core.PersistOutput)
	assert.Contains(t, out.AffinityErr, "update refused")
	assert.Empty(t, out.MemoryErr)
	assert.Len(t, history.Appended(), 2, "memory write still runs")
}

func TestPersistAgent_MemoryErrorDoesNotFailStage(t *testing.T) {
	history := &testutil.ScriptedHistory{AppendErr: errors.New("disk full")}
	rel := &testutil.ScriptedRelationship{Update: core.AffinityUpdate{Changed: true, NewScore: 52}}

	a := NewPersistAgent(history, nil, rel)
	res := a.Execute(persistTurn())

	require.True(t, res.Success)
	out := res.Payload.(*core.PersistOutput)
	assert.Contains(t, out.MemoryErr, "append player message")
	assert.Contains(t, out.MemoryErr, "disk full")
	assert.True(t, out.AffinityChanged, "affinity side effect still runs")
}

func TestPersistAgent_ExtendExpiryErrorSurfaces(t *testing.T) {
	history := &testutil.ScriptedHistory{ExtendErr: errors.New("ttl backend gone")}

	a := NewPersistAgent(history, nil, nil)
	res := a.Execute(persistTurn())

	require.True(t, res.Success)
	out := res.Payload.(*core.PersistOutput)
	assert.Contains(t, out.MemoryErr, "extend transcript expiry")
}

func TestPersistAgent_NilCollaboratorsSkipSideEffects(t *testing.T) {
	a := NewPersistAgent(nil, nil, nil)
	res := a.Execute(persistTurn())

	require.True(t, res.Success)
	out := res.Payload.(*core.PersistOutput)
	assert.False(t, out.AffinityChanged)
	assert.Empty(t, out.AffinityErr)
	assert.Empty(t, out.MemoryErr)
}

func TestPersistAgent_EpisodicAddErrorSurfaces(t *testing.T) {
	episodic := &testutil.ScriptedEpisodic{AddErr: errors.New("vector store offline")}

	a := NewPersistAgent(&testutil.ScriptedHistory{}, episodic, nil)
	res := a.Execute(persistTurn())

	require.True(t, res.Success)
	out := res.Payload.(*core.PersistOutput)
	assert.Contains(t, out.MemoryErr, "add episodic entries")
}
