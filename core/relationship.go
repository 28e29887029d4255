package core

import "context"

// Neutral relationship baseline: what a brand-new, never-interacted pair
// reports, and what the pipeline falls back to when no relationship manager
// is configured or the affinity stage failed.
const (
	NeutralScore = 50.0
	NeutralLevel = "陌生"
	NeutralStyle = "礼貌友善"
)

// LevelForScore maps an affinity score to its categorical relationship level.
func LevelForScore(score float64) string {
	switch {
	case score < 20:
		return "敌视"
	case score < 40:
		return "冷淡"
	case score < 60:
		return "陌生"
	case score < 80:
		return "友好"
	default:
		return "亲密"
	}
}

// StyleForScore maps an affinity score to the dialogue style the NPC should
// adopt at that level.
func StyleForScore(score float64) string {
	switch {
	case score < 20:
		return "警惕防备"
	case score < 40:
		return "冷淡疏离"
	case score < 60:
		return "礼貌友善"
	case score < 80:
		return "热情亲切"
	default:
		return "亲密无间"
	}
}

// AffinityUpdate reports the outcome of analyzing one exchange.
type AffinityUpdate struct {
	Changed  bool
	NewScore float64
	Delta    float64
}

// RelationshipManager tracks the evolving affinity between NPCs and players.
// Scores live in [0,100]; Level and Style are pure mappings from score to
// categorical labels. Implementations must be safe for concurrent use.
type RelationshipManager interface {
	// Score returns the pair's current affinity. Unknown pairs report the
	// neutral baseline.
	Score(ctx context.Context, npcID, playerID string) (float64, error)

	// Level maps a score to its relationship level label.
	Level(score float64) string

	// Style maps a score to its dialogue style label.
	Style(score float64) string

	// AnalyzeAndUpdate inspects one exchange and adjusts the pair's score.
	AnalyzeAndUpdate(ctx context.Context, npcID, playerID, utterance, reply string) (AffinityUpdate, error)

	// SetScore overwrites the pair's score, clamped to [0,100].
	SetScore(ctx context.Context, npcID, playerID string, score float64) error
}
