package core

// Agent is the unit-of-work contract every pipeline stage implements.
//
// Execute receives the turn's working state, performs one stage of work and
// reports a Result. It must never panic past its own boundary and never
// returns a Go error: all internal faults, including recovered panics, are
// encoded as a failed Result whose Error carries the fault description. The
// coordinator therefore only ever branches on Result.Success.
//
// Implementations must:
//   - Treat the TurnContext's input fields as read-only
//   - Return payloads in the Result rather than mutating shared state
//   - Respect cancellation of tc.Context on blocking collaborator calls
type Agent interface {
	Name() string
	Execute(tc *TurnContext) Result
}
