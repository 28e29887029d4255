package npc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/npcflow/core"
	"github.com/hupe1980/npcflow/model"
)

type staticRoles []core.RoleProfile

func (r staticRoles) Roles() []core.RoleProfile { return r }

func testCast() staticRoles {
	return staticRoles(DefaultRoles())
}

// at pins the generator's clock to the given hour.
func at(g *AmbientGenerator, hour int) *AmbientGenerator {
	g.now = func() time.Time {
		return time.Date(2025, 6, 2, hour, 30, 0, 0, time.Local)
	}
	return g
}

func TestAmbientGenerator_ServesPresetsBeforeFirstRefresh(t *testing.T) {
	g := NewAmbientGenerator(nil, testCast())

	line, ok := g.Line("张三")
	assert.True(t, ok)
	assert.NotEmpty(t, line)
	assert.Len(t, g.Lines(), 3)
}

func TestAmbientGenerator_RefreshParsesStrictJSON(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	m.Enqueue(`{"张三": "这个bug终于修好了!", "李四": "需求文档再过一遍。", "王五": "配色定稿了。"}`)

	g := NewAmbientGenerator(m, testCast())
	lines := g.Refresh(context.Background())

	assert.Equal(t, "这个bug终于修好了!", lines["张三"])
	assert.Equal(t, "需求文档再过一遍。", lines["李四"])
	assert.Equal(t, "配色定稿了。", lines["王五"])

	line, ok := g.Line("张三")
	assert.True(t, ok)
	assert.Equal(t, "这个bug终于修好了!", line)
}

func TestAmbientGenerator_RefreshPromptLayout(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	m.Enqueue(`{"张三": "a", "李四": "b", "王五": "c"}`)

	g := at(NewAmbientGenerator(m, testCast()), 10)
	g.Refresh(context.Background())

	req, ok := m.LastRequest()
	require.True(t, ok)
	require.Len(t, req.Messages, 2)

	assert.Equal(t, ambientSystemPrompt, req.Messages[0].Text)

	prompt := req.Messages[1].Text
	assert.Contains(t, prompt, "请为办公室的3个NPC生成当前的对话或行为描述。")
	assert.Contains(t, prompt, "【场景】上午工作时间")
	assert.Contains(t, prompt, "- 张三(Python工程师): 在工位区写代码,性格技术宅,喜欢讨论算法和框架")
	assert.Contains(t, prompt, "【输出格式】(严格遵守)")
	assert.Contains(t, prompt, `{"张三": "...", "李四": "...", "王五": "..."}`)
	assert.Contains(t, prompt, "只返回JSON,不要其他内容")
}

func TestAmbientGenerator_SalvagesWrappedJSON(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	m.Enqueue("好的,以下是生成结果:\n```json\n{\"张三\": \"调试中。\", \"李四\": \"开会中。\"}\n```\n希望有帮助!")

	g := NewAmbientGenerator(m, testCast())
	lines := g.Refresh(context.Background())

	// The salvage pass accepts objects that miss part of the cast.
	assert.Equal(t, "调试中。", lines["张三"])
	assert.Equal(t, "开会中。", lines["李四"])
	_, ok := lines["王五"]
	assert.False(t, ok)
}

func TestAmbientGenerator_FallsBackToPresetsOnGarbage(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	m.Enqueue("抱歉,我不能生成这个内容。")

	g := at(NewAmbientGenerator(m, testCast()), 10)
	lines := g.Refresh(context.Background())

	assert.Equal(t, presetDialogues["morning"], lines)
}

func TestAmbientGenerator_FallsBackToPresetsOnModelError(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	m.EnqueueError(errors.New("provider down"))

	g := at(NewAmbientGenerator(m, testCast()), 15)
	lines := g.Refresh(context.Background())

	assert.Equal(t, presetDialogues["afternoon"], lines)
}

func TestAmbientGenerator_NilModelServesPresets(t *testing.T) {
	g := at(NewAmbientGenerator(nil, testCast()), 20)
	lines := g.Refresh(context.Background())

	assert.Equal(t, presetDialogues["evening"], lines)
}

func TestAmbientGenerator_EmptyCastFallsBack(t *testing.T) {
	m := model.NewMockModel("mock", "mock")

	g := at(NewAmbientGenerator(m, staticRoles{}), 13)
	lines := g.Refresh(context.Background())

	assert.Equal(t, presetDialogues["noon"], lines)
	assert.Empty(t, m.Requests(), "no model call without a cast")
}

func TestParseBatchLines(t *testing.T) {
	roles := []core.RoleProfile{{Name: "张三"}, {Name: "李四"}}

	t.Run("strict pass requires every npc", func(t *testing.T) {
		_, err := parseBatchLines(`{"张三": "只有一个"}`, roles)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `missing npc "李四"`)
	})

	t.Run("salvage rejects broken json", func(t *testing.T) {
		_, err := parseBatchLines("前缀 {\"张三\": } 后缀", roles)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "salvage ambient response")
	})

	t.Run("no braces at all", func(t *testing.T) {
		_, err := parseBatchLines("完全不是JSON", roles)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not JSON")
	})
}

func TestSceneForHour(t *testing.T) {
	assert.Contains(t, sceneForHour(7), "清晨")
	assert.Contains(t, sceneForHour(10), "上午")
	assert.Contains(t, sceneForHour(13), "午餐")
	assert.Contains(t, sceneForHour(15), "下午")
	assert.Contains(t, sceneForHour(18), "傍晚")
	assert.Contains(t, sceneForHour(23), "夜晚")
	assert.Contains(t, sceneForHour(3), "夜晚")
}

func TestPeriodForHour(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{6, "morning"},
		{11, "morning"},
		{12, "noon"},
		{13, "noon"},
		{14, "afternoon"},
		{17, "afternoon"},
		{18, "evening"},
		{23, "evening"},
		{0, "evening"},
		{5, "evening"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, periodForHour(tt.hour), "hour %d", tt.hour)
	}
}

func TestPresetLines_ReturnsCopy(t *testing.T) {
	lines := presetLines(10)
	lines["张三"] = "改掉了"

	again := presetLines(10)
	assert.NotEqual(t, "改掉了", again["张三"])
}
