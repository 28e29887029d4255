// Package history provides implementations of core.HistoryStore, the bounded
// short-term dialogue transcript of an NPC/player pair.
//
// Two backends ship: a volatile in-memory store (per-pair capped slices with
// TTL expiry) and a SQLite-backed store (history/sqlite) for transcripts that
// survive restarts.
package history
