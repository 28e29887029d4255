package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		score float64
		level string
	}{
		{0, "敌视"},
		{19.9, "敌视"},
		{20, "冷淡"},
		{39.9, "冷淡"},
		{40, "陌生"},
		{50, "陌生"},
		{59.9, "陌生"},
		{60, "友好"},
		{79.9, "友好"},
		{80, "亲密"},
		{100, "亲密"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelForScore(tt.score), "score %.1f", tt.score)
	}
}

func TestStyleForScore(t *testing.T) {
	tests := []struct {
		score float64
		style string
	}{
		{0, "警惕防备"},
		{20, "冷淡疏离"},
		{40, "礼貌友善"},
		{50, "礼貌友善"},
		{60, "热情亲切"},
		{80, "亲密无间"},
		{100, "亲密无间"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.style, StyleForScore(tt.score), "score %.1f", tt.score)
	}
}

func TestNeutralBaseline(t *testing.T) {
	// The neutral constants must agree with the band mappings.
	assert.Equal(t, NeutralLevel, LevelForScore(NeutralScore))
	assert.Equal(t, NeutralStyle, StyleForScore(NeutralScore))
}
