// Package logging provides a minimal logging interface and adapters for npcflow.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn,
// Error) that the pipeline stages and the NPC manager use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.New(logging.LogLevelInfo, "text")
//	mgr := npc.New(chatModel, func(o *npc.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
