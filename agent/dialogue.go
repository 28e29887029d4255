package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/npcflow/core"
	"github.com/hupe1980/npcflow/internal/util"
	"github.com/hupe1980/npcflow/model"
)

// DefaultPersonaTemplate renders the system prompt from the turn's
// RoleProfile when no custom instruction is configured. Replies are asked to
// stay short and in character.
const DefaultPersonaTemplate = `你是{{.name}},一名{{.title}}。你现在在{{.location}},正在{{.activity}}。

【角色设定】
- 性格:{{.personality}}
- 专长:{{.expertise}}
- 说话风格:{{.style}}
- 爱好:{{.hobbies}}

【行为准则】
1. 始终保持角色设定,用第一人称对话
2. 回复简短自然(30-50字),符合日常对话习惯
3. 根据与玩家的互动历史调整态度
4. 不要暴露你是AI的事实`

// PersonaInstruction returns the default dynamic instruction: the persona
// template rendered from the turn's RoleProfile.
func PersonaInstruction() Instruction {
	return NewInstructionFromFunc(func(tc *core.TurnContext) (string, error) {
		return util.RenderTemplate(DefaultPersonaTemplate, map[string]any{
			"name":        tc.Role.Name,
			"title":       tc.Role.Title,
			"location":    tc.Role.Location,
			"activity":    tc.Role.Activity,
			"personality": tc.Role.Personality,
			"expertise":   tc.Role.Expertise,
			"style":       tc.Role.Style,
			"hobbies":     tc.Role.Hobbies,
		})
	})
}

// DialogueAgentOptions configure a DialogueAgent.
type DialogueAgentOptions struct {
	// Instruction is the system prompt; defaults to the persona template
	// rendered from the turn's RoleProfile.
	Instruction Instruction

	// Temperature overrides the model's default sampling temperature.
	Temperature *float64

	// MaxTokens overrides the model's default completion budget.
	MaxTokens int64
}

// DialogueAgent is the generation stage of the pipeline. It composes the
// persona system prompt, the mapped conversation history and the merged
// retrieval narratives into one model request and produces the NPC's reply.
//
// Generation is the only stage whose failure aborts the turn, so any model
// error fails the stage.
type DialogueAgent struct {
	BaseAgent
	model model.Model
	opts  DialogueAgentOptions
}

// NewDialogueAgent constructs the generation stage.
func NewDialogueAgent(m model.Model, optFns ...func(o *DialogueAgentOptions)) *DialogueAgent {
	opts := DialogueAgentOptions{
		Instruction: PersonaInstruction(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &DialogueAgent{
		BaseAgent: NewBaseAgent(core.StageDialogue),
		model:     m,
		opts:      opts,
	}
}

// Execute implements core.Agent.
func (a *DialogueAgent) Execute(tc *core.TurnContext) core.Result {
	return a.run(tc, func(tc *core.TurnContext) (any, error) {
		if a.model == nil {
			return nil, fmt.Errorf("no model configured")
		}

		system, err := a.opts.Instruction.Resolve(tc)
		if err != nil {
			return nil, fmt.Errorf("resolve instruction: %w", err)
		}

		composed := ComposeInput(tc)

		messages := make([]model.Message, 0, len(historyOf(tc))+2)
		messages = append(messages, model.Message{Role: "system", Text: system})
		messages = append(messages, historyMessages(historyOf(tc))...)
		messages = append(messages, model.Message{Role: "user", Text: composed})

		reply, err := model.Complete(tc.Context, a.model, model.Request{
			Messages:    messages,
			Temperature: a.opts.Temperature,
			MaxTokens:   a.opts.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("generate reply: %w", err)
		}

		tc.LogDebug("reply generated", "npc", tc.NPCID, "player", tc.PlayerID, "len", len(reply))

		return &core.DialogueOutput{
			Reply:         reply,
			ComposedInput: composed,
		}, nil
	})
}

// ComposeInput builds the user message for the generation call from the
// merged retrieval outputs, in fixed order: relationship narrative, memory
// narrative (only when non-empty), current utterance.
func ComposeInput(tc *core.TurnContext) string {
	var sb strings.Builder

	if tc.Affinity != nil && tc.Affinity.Narrative != "" {
		sb.WriteString(tc.Affinity.Narrative)
		sb.WriteString("\n\n")
	}

	if tc.Memory != nil && tc.Memory.Narrative != "" {
		sb.WriteString(tc.Memory.Narrative)
		sb.WriteString("\n\n")
	}

	sb.WriteString("【当前对话】\n玩家: ")
	sb.WriteString(tc.Utterance)

	return sb.String()
}

// historyOf returns the merged transcript, or nil when the memory branch
// produced none.
func historyOf(tc *core.TurnContext) []core.Message {
	if tc.Memory == nil {
		return nil
	}
	return tc.Memory.Transcript
}

// historyMessages maps transcript roles onto model roles, keeping stored
// order. Unknown roles are dropped.
func historyMessages(transcript []core.Message) []model.Message {
	out := make([]model.Message, 0, len(transcript))
	for _, msg := range transcript {
		switch msg.Role {
		case core.RoleHuman:
			out = append(out, model.Message{Role: "user", Text: msg.Content})
		case core.RoleAI:
			out = append(out, model.Message{Role: "assistant", Text: msg.Content})
		}
	}
	return out
}
