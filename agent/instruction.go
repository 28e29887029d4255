package agent

import "github.com/hupe1980/npcflow/core"

// Provider builds system prompt text for a single turn. Implementations
// typically read the turn state, such as the NPC role profile or the
// relationship labels resolved during retrieval.
type Provider interface {
	Instruction(*core.TurnContext) (string, error)
}

// Func adapts an ordinary function to the Provider interface.
type Func func(*core.TurnContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(tc *core.TurnContext) (string, error) { return f(tc) }

// Instruction is the system prompt of a model-backed stage. It holds either
// fixed text or a Provider that computes the text per turn.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText returns an Instruction with fixed prompt text.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider returns an Instruction backed by a Provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc returns an Instruction backed by a function.
func NewInstructionFromFunc(f func(*core.TurnContext) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic reports whether the instruction is fixed text.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the prompt text for the turn, invoking the provider when
// the instruction is dynamic.
func (i Instruction) Resolve(tc *core.TurnContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(tc)
	}
	return i.text, nil
}
