// Package model defines the provider-agnostic abstractions for interacting
// with language models inside npcflow.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so higher layers (pipeline stages, NPC manager) remain decoupled
// from vendor SDKs.
package model
