package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/npcflow/core"
	"github.com/hupe1980/npcflow/model"
)

// DefaultReviewSystemPrompt instructs the reviewer model: check the reply
// against the four criteria and answer either PASS or REVISED: <new reply>.
const DefaultReviewSystemPrompt = `你是一个对话质量审查专家。审查NPC的回复是否符合以下标准:

1. 角色一致性:回复是否符合NPC的角色设定
2. 内容质量:回复是否自然、有意义
3. 长度合适:回复是否简短(30-50字)
4. 情感适当:回复是否符合当前的关系等级

如果回复合格,只输出: PASS
如果回复需要修改,输出: REVISED: <修改后的回复>`

// ReflectionAgentOptions configure a ReflectionAgent.
type ReflectionAgentOptions struct {
	// Instruction is the reviewer's system prompt.
	Instruction Instruction

	// Temperature overrides the reviewer model's default sampling temperature.
	Temperature *float64

	// MaxTokens overrides the reviewer model's default completion budget.
	MaxTokens int64
}

// ReflectionAgent is the revision stage of the pipeline. A reviewer model
// judges the generated reply; its verdict either passes the reply through,
// replaces it with a revision, or, when it matches neither form, is
// delivered verbatim.
//
// Revision never blocks delivery: any internal fault (model error, panic)
// yields a successful Result that keeps the original reply and records the
// fault in the payload's Note.
type ReflectionAgent struct {
	BaseAgent
	model model.Model
	opts  ReflectionAgentOptions
}

// NewReflectionAgent constructs the revision stage around a reviewer model.
func NewReflectionAgent(m model.Model, optFns ...func(o *ReflectionAgentOptions)) *ReflectionAgent {
	opts := ReflectionAgentOptions{
		Instruction: NewInstructionFromText(DefaultReviewSystemPrompt),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &ReflectionAgent{
		BaseAgent: NewBaseAgent(core.StageReflection),
		model:     m,
		opts:      opts,
	}
}

// Execute implements core.Agent.
func (a *ReflectionAgent) Execute(tc *core.TurnContext) core.Result {
	return a.run(tc, func(tc *core.TurnContext) (out any, err error) {
		original := ""
		if tc.Dialogue != nil {
			original = tc.Dialogue.Reply
		}

		// Faults inside the review must not fail the stage: recover here so
		// even a panic falls back to the original reply.
		defer func() {
			if r := recover(); r != nil {
				tc.LogWarn("review panicked, keeping generated reply", "npc", tc.NPCID, "panic", r)
				out = &core.ReviewOutput{
					FinalReply: original,
					Note:       fmt.Sprintf("panic: %v", r),
				}
				err = nil
			}
		}()

		verdict, reviewErr := a.review(tc, original)
		if reviewErr != nil {
			tc.LogWarn("review failed, keeping generated reply", "npc", tc.NPCID, "error", reviewErr)
			return &core.ReviewOutput{
				FinalReply: original,
				Note:       reviewErr.Error(),
			}, nil
		}

		finalReply, revised := ParseVerdict(verdict, original)
		if revised {
			tc.LogDebug("reply revised by review", "npc", tc.NPCID)
		}

		return &core.ReviewOutput{
			FinalReply: finalReply,
			Revised:    revised,
			Verdict:    strings.TrimSpace(verdict),
		}, nil
	})
}

// review asks the reviewer model for its verdict on the generated reply.
func (a *ReflectionAgent) review(tc *core.TurnContext, original string) (string, error) {
	if a.model == nil {
		return "", fmt.Errorf("no reviewer model configured")
	}

	system, err := a.opts.Instruction.Resolve(tc)
	if err != nil {
		return "", fmt.Errorf("resolve instruction: %w", err)
	}

	return model.Complete(tc.Context, a.model, model.Request{
		Messages: []model.Message{
			{Role: "system", Text: system},
			{Role: "user", Text: reviewInput(tc, original)},
		},
		Temperature: a.opts.Temperature,
		MaxTokens:   a.opts.MaxTokens,
	})
}

// reviewInput renders the reviewer's user message: NPC info, the exchange
// under review and the current relationship labels.
func reviewInput(tc *core.TurnContext, original string) string {
	level, style := core.NeutralLevel, core.NeutralStyle
	if tc.Affinity != nil {
		level, style = tc.Affinity.Level, tc.Affinity.Style
	}

	return fmt.Sprintf(`【NPC信息】
姓名: %s
角色: %s
性格: %s

【对话内容】
玩家: %s
%s: %s

【当前关系】
关系等级: %s
对话风格: %s

请审查这个回复。`,
		tc.Role.Name, tc.Role.Title, tc.Role.Personality,
		tc.Utterance, tc.Role.Name, original,
		level, style,
	)
}

// ParseVerdict interprets the reviewer's raw output against the original
// reply, returning the reply to deliver and whether it differs.
//
// Exactly "PASS" keeps the original; a "REVISED:" prefix delivers the
// trimmed remainder; any other non-empty verdict is delivered verbatim, so
// reviewer chatter can leak into the reply. An empty verdict keeps the
// original.
func ParseVerdict(raw, original string) (finalReply string, revised bool) {
	verdict := strings.TrimSpace(raw)

	switch {
	case verdict == "PASS":
		return original, false
	case strings.HasPrefix(verdict, "REVISED:"):
		return strings.TrimSpace(strings.TrimPrefix(verdict, "REVISED:")), true
	case verdict != "":
		return verdict, true
	default:
		return original, false
	}
}
