package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/npcflow/core"
	"github.com/hupe1980/npcflow/internal/testutil"
)

type stubProvider struct {
	text string
	err  error
}

func (p stubProvider) Instruction(*core.TurnContext) (string, error) { return p.text, p.err }

func TestInstruction_Static(t *testing.T) {
	inst := NewInstructionFromText("static instruction")
	assert.True(t, inst.IsStatic())

	got, err := inst.Resolve(testutil.NewTurnBuilder().Build())
	require.NoError(t, err)
	assert.Equal(t, "static instruction", got)
}

func TestInstruction_FromFunc(t *testing.T) {
	inst := NewInstructionFromFunc(func(tc *core.TurnContext) (string, error) {
		return "你是" + tc.Role.Name, nil
	})
	assert.False(t, inst.IsStatic())

	got, err := inst.Resolve(testutil.NewTurnBuilder().NPC("李四").Build())
	require.NoError(t, err)
	assert.Equal(t, "你是李四", got)
}

func TestInstruction_FromProvider(t *testing.T) {
	inst := NewInstructionFromProvider(stubProvider{text: "provider text"})
	assert.False(t, inst.IsStatic())

	got, err := inst.Resolve(testutil.NewTurnBuilder().Build())
	require.NoError(t, err)
	assert.Equal(t, "provider text", got)
}

func TestInstruction_ErrorPropagation(t *testing.T) {
	wantErr := errors.New("boom")
	inst := NewInstructionFromProvider(stubProvider{err: wantErr})

	_, err := inst.Resolve(testutil.NewTurnBuilder().Build())
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestPersonaInstruction_RendersRoleProfile(t *testing.T) {
	role := core.RoleProfile{
		Name:        "王五",
		Title:       "UI设计师",
		Location:    "休息区",
		Activity:    "喝咖啡",
		Personality: "细腻敏感,注重美感",
		Expertise:   "界面设计、交互设计",
		Style:       "优雅简洁",
		Hobbies:     "看设计作品",
	}
	tc := testutil.NewTurnBuilder().NPC("王五").Role(role).Build()

	got, err := PersonaInstruction().Resolve(tc)
	require.NoError(t, err)

	assert.Contains(t, got, "你是王五,一名UI设计师。")
	assert.Contains(t, got, "你现在在休息区,正在喝咖啡。")
	assert.Contains(t, got, "性格:细腻敏感,注重美感")
	assert.Contains(t, got, "专长:界面设计、交互设计")
	assert.Contains(t, got, "说话风格:优雅简洁")
	assert.Contains(t, got, "爱好:看设计作品")
	assert.Contains(t, got, "回复简短自然(30-50字)")
	assert.NotContains(t, got, "{{", "all placeholders must be rendered")
}
