package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnRegistry_CreateGetRemove(t *testing.T) {
	r := NewTurnRegistry()

	tc := r.Create(context.Background(), "张三", "player-1", "你好", RoleProfile{Name: "张三"}, nil)
	require.NotNil(t, tc)
	assert.Equal(t, 1, r.Len())

	key := TurnKey(tc.NPCID, tc.PlayerID, tc.CreatedAt)

	got, ok := r.Get(key)
	require.True(t, ok)
	assert.Same(t, tc, got)

	r.Remove(key)
	_, ok = r.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestTurnRegistry_KeysAreUniquePerExchange(t *testing.T) {
	r := NewTurnRegistry()

	a := r.Create(context.Background(), "张三", "player-1", "第一句", RoleProfile{}, nil)
	time.Sleep(time.Millisecond)
	b := r.Create(context.Background(), "张三", "player-1", "第二句", RoleProfile{}, nil)

	// Same pair, but creation time separates the turns.
	assert.NotEqual(t,
		TurnKey(a.NPCID, a.PlayerID, a.CreatedAt),
		TurnKey(b.NPCID, b.PlayerID, b.CreatedAt))
	assert.Equal(t, 2, r.Len())
}

func TestTurnRegistry_Cleanup(t *testing.T) {
	r := NewTurnRegistry()

	stale := r.Create(context.Background(), "张三", "p1", "老对话", RoleProfile{}, nil)
	fresh := r.Create(context.Background(), "李四", "p2", "新对话", RoleProfile{}, nil)

	time.Sleep(20 * time.Millisecond)
	fresh.Touch()

	removed := r.Cleanup(10 * time.Millisecond)

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, r.Len())

	_, ok := r.Get(TurnKey(stale.NPCID, stale.PlayerID, stale.CreatedAt))
	assert.False(t, ok, "stale context swept")

	_, ok = r.Get(TurnKey(fresh.NPCID, fresh.PlayerID, fresh.CreatedAt))
	assert.True(t, ok, "touched context survives")
}

func TestTurnRegistry_CleanupKeepsEverythingWithinMaxIdle(t *testing.T) {
	r := NewTurnRegistry()
	r.Create(context.Background(), "张三", "p1", "u", RoleProfile{}, nil)

	assert.Zero(t, r.Cleanup(time.Hour))
	assert.Equal(t, 1, r.Len())
}

func TestTurnRegistry_ConcurrentAccess(t *testing.T) {
	r := NewTurnRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tc := r.Create(context.Background(), "张三", "player", "u", RoleProfile{}, nil)
			r.Get(TurnKey(tc.NPCID, tc.PlayerID, tc.CreatedAt))
			r.Cleanup(time.Hour)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, r.Len(), 16)
}
