package core

import "time"

// Stage names used as Result producers and TurnResult.StageSuccess keys.
const (
	StageMemory      = "memory"
	StageAffinity    = "affinity"
	StageDialogue    = "dialogue"
	StageReflection  = "reflection"
	StagePersistence = "persistence"
	StageSupervisor  = "supervisor"
)

// Result is the outcome of one unit of work. Error is non-empty exactly when
// Success is false; a failed stage's payload is at most diagnostic and is
// never read by downstream stages.
type Result struct {
	Success     bool
	Payload     any
	Error       string
	Producer    string
	Elapsed     time.Duration
	CompletedAt time.Time
}

// Succeed builds a successful Result for the given producer.
func Succeed(producer string, payload any, elapsed time.Duration) Result {
	return Result{
		Success:     true,
		Payload:     payload,
		Producer:    producer,
		Elapsed:     elapsed,
		CompletedAt: time.Now(),
	}
}

// Fail builds a failed Result. A nil error is substituted with a placeholder
// message so the Error-non-empty-iff-failed invariant always holds.
func Fail(producer string, err error, elapsed time.Duration) Result {
	msg := "unspecified failure"
	if err != nil {
		msg = err.Error()
	}
	return Result{
		Success:     false,
		Error:       msg,
		Producer:    producer,
		Elapsed:     elapsed,
		CompletedAt: time.Now(),
	}
}

// TurnResult is what a completed turn reports upward to the caller.
//
// StageSuccess holds one entry per stage that actually executed, keyed by
// stage name. "reflection" is present only when the revision pass ran;
// "persistence" reflects the inner success of both persistence side effects,
// not the stage Result (which succeeds by contract).
type TurnResult struct {
	Reply           string
	Affinity        float64
	AffinityChanged bool
	Revised         bool
	StageSuccess    map[string]bool
	Elapsed         time.Duration
}
