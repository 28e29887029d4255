package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTurnContext(t *testing.T) {
	role := RoleProfile{Name: "张三", Title: "Python工程师"}
	tc := NewTurnContext(context.Background(), "张三", "player-1", "你好", role, nil)

	assert.NotEmpty(t, tc.ID)
	assert.Equal(t, "张三", tc.NPCID)
	assert.Equal(t, "player-1", tc.PlayerID)
	assert.Equal(t, "你好", tc.Utterance)
	assert.Equal(t, role, tc.Role)
	assert.False(t, tc.CreatedAt.IsZero())
	assert.Equal(t, tc.CreatedAt, tc.LastActive())

	// A nil logger must be substituted, not dereferenced.
	assert.NotPanics(t, func() { tc.LogDebug("probe", "k", "v") })
}

func TestNewTurnContext_UniqueIDs(t *testing.T) {
	a := NewTurnContext(context.Background(), "n", "p", "u", RoleProfile{}, nil)
	b := NewTurnContext(context.Background(), "n", "p", "u", RoleProfile{}, nil)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestTurnContext_FinalReply(t *testing.T) {
	tc := NewTurnContext(context.Background(), "n", "p", "u", RoleProfile{}, nil)

	assert.Empty(t, tc.FinalReply(), "no stage ran yet")

	tc.SetDialogue(&DialogueOutput{Reply: "generated"})
	assert.Equal(t, "generated", tc.FinalReply())

	tc.SetReview(&ReviewOutput{FinalReply: "revised", Revised: true})
	assert.Equal(t, "revised", tc.FinalReply(), "review output wins once present")
}

func TestTurnContext_FinalReply_ReviewKeepsOriginal(t *testing.T) {
	tc := NewTurnContext(context.Background(), "n", "p", "u", RoleProfile{}, nil)
	tc.SetDialogue(&DialogueOutput{Reply: "generated"})
	tc.SetReview(&ReviewOutput{FinalReply: "generated", Revised: false})

	assert.Equal(t, "generated", tc.FinalReply())
}

func TestTurnContext_Touch(t *testing.T) {
	tc := NewTurnContext(context.Background(), "n", "p", "u", RoleProfile{}, nil)
	before := tc.LastActive()

	time.Sleep(5 * time.Millisecond)
	tc.Touch()

	assert.True(t, tc.LastActive().After(before))
}

func TestTurnContext_ContextPassthrough(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tc := NewTurnContext(ctx, "n", "p", "u", RoleProfile{}, nil)

	require.NoError(t, tc.Err())
	cancel()

	select {
	case <-tc.Done():
	case <-time.After(time.Second):
		t.Fatal("Done channel not closed after cancel")
	}

	assert.ErrorIs(t, tc.Err(), context.Canceled)
}
