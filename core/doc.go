// Package core provides the foundational domain types, interfaces and turn
// state used by npcflow. It defines the core abstractions for:
//
//   - Agents (the pipeline's units of work, each reporting a Result)
//   - TurnContext (the working state of a single player/NPC exchange)
//   - TurnRegistry (keyed live-turn tracking with idle expiry)
//   - RoleProfile (static NPC persona data)
//   - Pluggable stores for dialogue history, episodic memory and relationship
//     affinity
//
// The package intentionally keeps implementation concerns (persistence,
// concrete stages, model adapters) out of scope, exposing small interfaces to
// enable custom backends and extensions.
package core
