// Package memory contains concrete EpisodicStore implementations. The store
// interface and hit/entry types reside in the core package. Import
// github.com/hupe1980/npcflow/core and depend on core.EpisodicStore in your
// code; select an implementation (the in-memory store below, or the
// vector-ranked memory/sqlite store) at wiring time.
//
// Rationale: keeps domain contracts centralized while allowing pluggable
// backends (vector stores, embeddings indexes, etc.) to be added without
// introducing dependency cycles.
package memory
