package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/npcflow/core"
	"github.com/hupe1980/npcflow/internal/testutil"
)

var _ core.Agent = (*MemoryAgent)(nil)

func TestMemoryAgent_RetrievesTranscriptAndSnippets(t *testing.T) {
	history := &testutil.ScriptedHistory{Messages: []core.Message{
		{Role: core.RoleHuman, Content: "你好"},
		{Role: core.RoleAI, Content: "你好呀"},
	}}
	episodic := &testutil.ScriptedEpisodic{Hits: []core.EpisodicHit{
		{Content: "玩家说: 我喜欢Python", Score: 0.9},
		{Content: "张三说: 我也是", Score: 0.8},
	}}

	a := NewMemoryAgent(history, episodic)
	res := a.Execute(testutil.NewTurnBuilder().Utterance("还记得我喜欢什么吗?").Build())

	require.True(t, res.Success)
	out, ok := res.Payload.(*core.MemoryOutput)
	require.True(t, ok)

	assert.Len(t, out.Transcript, 2)
	assert.Len(t, out.Snippets, 2)
	assert.Contains(t, out.Narrative, "【相关记忆】")
	assert.Contains(t, out.Narrative, "- 玩家说: 我喜欢Python")
	assert.Contains(t, out.Narrative, "- 张三说: 我也是")
}

func TestMemoryAgent_NilEpisodicDegradesToEmptySnippets(t *testing.T) {
	history := &testutil.ScriptedHistory{Messages: []core.Message{
		{Role: core.RoleHuman, Content: "在吗"},
	}}

	a := NewMemoryAgent(history, nil)
	res := a.Execute(testutil.NewTurnBuilder().Build())

	require.True(t, res.Success)
	out := res.Payload.(*core.MemoryOutput)
	assert.Len(t, out.Transcript, 1)
	assert.Empty(t, out.Snippets)
	assert.Empty(t, out.Narrative)
}

func TestMemoryAgent_NilHistoryReadsEmpty(t *testing.T) {
	a := NewMemoryAgent(nil, nil)
	res := a.Execute(testutil.NewTurnBuilder().Build())

	require.True(t, res.Success)
	out := res.Payload.(*core.MemoryOutput)
	assert.Empty(t, out.Transcript)
}

func TestMemoryAgent_HistoryErrorFailsStage(t *testing.T) {
	history := &testutil.ScriptedHistory{HistoryErr: errors.New("db locked")}

	a := NewMemoryAgent(history, nil)
	res := a.Execute(testutil.NewTurnBuilder().Build())

	require.False(t, res.Success)
	assert.Contains(t, res.Error, "load transcript")
	assert.Contains(t, res.Error, "db locked")
}

func TestMemoryAgent_SearchErrorFailsStage(t *testing.T) {
	episodic := &testutil.ScriptedEpisodic{SearchErr: errors.New("index gone")}

	a := NewMemoryAgent(&testutil.ScriptedHistory{}, episodic)
	res := a.Execute(testutil.NewTurnBuilder().Build())

	require.False(t, res.Success)
	assert.Contains(t, res.Error, "search episodic memory")
}

func TestMemoryAgent_TopKOption(t *testing.T) {
	episodic := &testutil.ScriptedEpisodic{Hits: []core.EpisodicHit{
		{Content: "一"}, {Content: "二"}, {Content: "三"}, {Content: "四"}, {Content: "五"},
	}}

	a := NewMemoryAgent(&testutil.ScriptedHistory{}, episodic, func(o *MemoryAgentOptions) {
		o.TopK = 2
	})
	res := a.Execute(testutil.NewTurnBuilder().Build())

	require.True(t, res.Success)
	out := res.Payload.(*core.MemoryOutput)
	assert.Len(t, out.Snippets, 2)
}

func TestMemoryNarrative(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, MemoryNarrative(nil))
	})

	t.Run("caps snippets", func(t *testing.T) {
		hits := []core.EpisodicHit{
			{Content: "一"}, {Content: "二"}, {Content: "三"}, {Content: "四"},
		}
		got := MemoryNarrative(hits)
		assert.Contains(t, got, "- 三")
		assert.NotContains(t, got, "- 四")
	})
}
