// Package npc is the service layer over the dialogue pipeline. Manager owns
// the cast, the stores and the turn coordinator and executes player
// exchanges under a concurrency limit; AmbientGenerator keeps a line of
// idle chatter per NPC fresh; Scheduler drives the periodic ambient
// refreshes and turn registry sweeps.
package npc
