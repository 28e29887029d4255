// Package relationship implements core.RelationshipManager: the evolving
// affinity between NPCs and players, with categorical level and dialogue
// style mappings shared via the core band helpers.
package relationship

import (
	"context"
	"strings"
	"sync"

	"github.com/hupe1980/npcflow/core"
)

// Lexicons driving AnalyzeAndUpdate. A positive hit raises the pair's score
// by 2, a negative hit lowers it by 3.
var (
	positiveWords = []string{"谢谢", "感谢", "喜欢", "开心", "厉害", "帮", "棒", "thanks", "thank", "like", "love", "great"}
	negativeWords = []string{"讨厌", "滚", "烦", "笨", "垃圾", "闭嘴", "hate", "stupid", "shut up"}
)

const (
	positiveDelta = 2.0
	negativeDelta = -3.0
)

// InMemoryManager is a volatile core.RelationshipManager: a mutex-guarded
// score table keyed by NPC/player pair, with lexicon-based exchange
// analysis. Unknown pairs read as the neutral baseline.
type InMemoryManager struct {
	mu     sync.RWMutex
	scores map[string]float64
}

// NewInMemoryManager creates an empty manager; every pair starts neutral.
func NewInMemoryManager() *InMemoryManager {
	return &InMemoryManager{scores: make(map[string]float64)}
}

func pairKey(npcID, playerID string) string { return npcID + ":" + playerID }

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Score implements core.RelationshipManager.
func (m *InMemoryManager) Score(_ context.Context, npcID, playerID string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if score, ok := m.scores[pairKey(npcID, playerID)]; ok {
		return score, nil
	}

	return core.NeutralScore, nil
}

// Level implements core.RelationshipManager.
func (m *InMemoryManager) Level(score float64) string { return core.LevelForScore(score) }

// Style implements core.RelationshipManager.
func (m *InMemoryManager) Style(score float64) string { return core.StyleForScore(score) }

// AnalyzeAndUpdate implements core.RelationshipManager. Each lexicon word
// found in the exchange counts once; the summed delta moves the stored
// score, clamped to [0,100].
func (m *InMemoryManager) AnalyzeAndUpdate(_ context.Context, npcID, playerID, utterance, reply string) (core.AffinityUpdate, error) {
	text := strings.ToLower(utterance + " " + reply)

	var delta float64
	for _, word := range positiveWords {
		if strings.Contains(text, word) {
			delta += positiveDelta
		}
	}
	for _, word := range negativeWords {
		if strings.Contains(text, word) {
			delta += negativeDelta
		}
	}

	key := pairKey(npcID, playerID)

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.scores[key]
	if !ok {
		current = core.NeutralScore
	}

	next := clamp(current + delta)
	m.scores[key] = next

	return core.AffinityUpdate{
		Changed:  next != current,
		NewScore: next,
		Delta:    next - current,
	}, nil
}

// SetScore implements core.RelationshipManager.
func (m *InMemoryManager) SetScore(_ context.Context, npcID, playerID string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scores[pairKey(npcID, playerID)] = clamp(score)

	return nil
}
