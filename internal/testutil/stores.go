package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/npcflow/core"
)

// ScriptedHistory implements core.HistoryStore with canned data and
// injectable faults, recording every write for assertions.
type ScriptedHistory struct {
	Messages   []core.Message
	HistoryErr error
	AppendErr  error
	ExtendErr  error
	ClearErr   error

	mu       sync.Mutex
	appended []core.Message
	extended int
	cleared  int
}

// History returns the canned transcript or the injected fault.
func (s *ScriptedHistory) History(ctx context.Context, npcID, playerID string) ([]core.Message, error) {
	if s.HistoryErr != nil {
		return nil, s.HistoryErr
	}

	return append([]core.Message{}, s.Messages...), nil
}

// Append records the message or returns the injected fault.
func (s *ScriptedHistory) Append(ctx context.Context, npcID, playerID, role, content string) error {
	if s.AppendErr != nil {
		return s.AppendErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appended = append(s.appended, core.Message{Role: role, Content: content})

	return nil
}

// ExtendExpiry counts the call or returns the injected fault.
func (s *ScriptedHistory) ExtendExpiry(ctx context.Context, npcID, playerID string) error {
	if s.ExtendErr != nil {
		return s.ExtendErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.extended++

	return nil
}

// Clear counts the call or returns the injected fault.
func (s *ScriptedHistory) Clear(ctx context.Context, npcID, playerID string) error {
	if s.ClearErr != nil {
		return s.ClearErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++

	return nil
}

// Appended returns the messages recorded by Append in order.
func (s *ScriptedHistory) Appended() []core.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]core.Message{}, s.appended...)
}

// Extended returns how often ExtendExpiry succeeded.
func (s *ScriptedHistory) Extended() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.extended
}

// ScriptedEpisodic implements core.EpisodicStore with canned hits and
// injectable faults, recording every write for assertions.
type ScriptedEpisodic struct {
	Hits      []core.EpisodicHit
	SearchErr error
	AddErr    error
	AllErr    error
	ClearErr  error

	mu      sync.Mutex
	added   []core.EpisodicEntry
	cleared int
}

// Search returns the canned hits capped at k, or the injected fault.
func (s *ScriptedEpisodic) Search(ctx context.Context, npcID, query string, k int) ([]core.EpisodicHit, error) {
	if s.SearchErr != nil {
		return nil, s.SearchErr
	}

	hits := append([]core.EpisodicHit{}, s.Hits...)
	if k >= 0 && len(hits) > k {
		hits = hits[:k]
	}

	return hits, nil
}

// Add records the entries or returns the injected fault.
func (s *ScriptedEpisodic) Add(ctx context.Context, npcID string, entries []core.EpisodicEntry) error {
	if s.AddErr != nil {
		return s.AddErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, entries...)

	return nil
}

// All returns everything recorded by Add, or the injected fault.
func (s *ScriptedEpisodic) All(ctx context.Context, npcID string, limit int) ([]core.EpisodicEntry, error) {
	if s.AllErr != nil {
		return nil, s.AllErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append([]core.EpisodicEntry{}, s.added...)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

// Clear counts the call or returns the injected fault.
func (s *ScriptedEpisodic) Clear(ctx context.Context, npcID string) error {
	if s.ClearErr != nil {
		return s.ClearErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++

	return nil
}

// Added returns the entries recorded by Add in order.
func (s *ScriptedEpisodic) Added() []core.EpisodicEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]core.EpisodicEntry{}, s.added...)
}

// ScriptedRelationship implements core.RelationshipManager with a fixed
// score and injectable faults.
type ScriptedRelationship struct {
	ScoreValue float64
	ScoreErr   error
	Update     core.AffinityUpdate
	UpdateErr  error
	SetErr     error

	mu      sync.Mutex
	updated int
	set     []float64
}

// Score returns the fixed score or the injected fault.
func (s *ScriptedRelationship) Score(ctx context.Context, npcID, playerID string) (float64, error) {
	if s.ScoreErr != nil {
		return 0, s.ScoreErr
	}

	return s.ScoreValue, nil
}

// Level maps via the shared score bands.
func (s *ScriptedRelationship) Level(score float64) string { return core.LevelForScore(score) }

// Style maps via the shared score bands.
func (s *ScriptedRelationship) Style(score float64) string { return core.StyleForScore(score) }

// AnalyzeAndUpdate returns the canned update or the injected fault.
func (s *ScriptedRelationship) AnalyzeAndUpdate(ctx context.Context, npcID, playerID, utterance, reply string) (core.AffinityUpdate, error) {
	if s.UpdateErr != nil {
		return core.AffinityUpdate{}, s.UpdateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated++

	return s.Update, nil
}

// SetScore records the score or returns the injected fault.
func (s *ScriptedRelationship) SetScore(ctx context.Context, npcID, playerID string, score float64) error {
	if s.SetErr != nil {
		return s.SetErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = append(s.set, score)

	return nil
}

// Updated returns how often AnalyzeAndUpdate succeeded.
func (s *ScriptedRelationship) Updated() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updated
}
