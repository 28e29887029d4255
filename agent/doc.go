// Package agent contains the pipeline stages and the coordinator that turn
// one player utterance into one NPC reply.
//
// The package covers three concerns:
//
//  1. Uniform stage plumbing (BaseAgent: timing + panic→Result conversion)
//  2. The concrete stages (MemoryAgent, AffinityAgent, DialogueAgent,
//     ReflectionAgent, PersistAgent)
//  3. The fixed-topology coordinator (Supervisor): parallel retrieval
//     fan-out, fatal generation with bounded retries, conditional revision,
//     best-effort persistence
//
// Execution model:
//   - A stage's Execute receives the turn's *core.TurnContext and returns a
//     core.Result; faults never escape as panics or Go errors.
//   - Stages return payloads; only the Supervisor merges them into the
//     context via the typed setters.
//   - The shared stores (history, episodic, relationship) carry their own
//     concurrency safety; the context itself is turn-exclusive.
//
// Store implementations, model adapters and service wiring live in their
// respective packages to avoid cyclic deps.
package agent
