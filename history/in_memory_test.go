package history

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/npcflow/core"
)

// Interface compliance (compile-time assertion)
var _ core.HistoryStore = (*InMemoryStore)(nil)

func TestInMemoryStore_AppendAndHistory(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleHuman, "你好"))
	require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleAI, "你好呀 "))

	msgs, err := s.History(ctx, "张三", "p1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.Message{Role: core.RoleHuman, Content: "你好"}, msgs[0])
	assert.Equal(t, "你好呀", msgs[1].Content, "content is stored trimmed")
}

func TestInMemoryStore_UnknownPairReadsEmpty(t *testing.T) {
	s := NewInMemoryStore()

	msgs, err := s.History(context.Background(), "张三", "nobody")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestInMemoryStore_PairsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleHuman, "给张三的"))
	require.NoError(t, s.Append(ctx, "李四", "p1", core.RoleHuman, "给李四的"))
	require.NoError(t, s.Append(ctx, "张三", "p2", core.RoleHuman, "另一个玩家"))

	msgs, err := s.History(ctx, "张三", "p1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "给张三的", msgs[0].Content)
}

func TestInMemoryStore_CapEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(func(o *InMemoryStoreOptions) {
		o.MaxMessages = 3
	})

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleHuman, fmt.Sprintf("msg-%d", i)))
	}

	msgs, err := s.History(ctx, "张三", "p1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "msg-3", msgs[0].Content, "newest messages win")
	assert.Equal(t, "msg-5", msgs[2].Content)
}

func TestInMemoryStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(func(o *InMemoryStoreOptions) {
		o.TTL = 20 * time.Millisecond
	})

	require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleHuman, "你好"))

	time.Sleep(40 * time.Millisecond)

	msgs, err := s.History(ctx, "张三", "p1")
	require.NoError(t, err)
	assert.Empty(t, msgs, "expired transcripts read as empty")
}

func TestInMemoryStore_ExtendExpiryDefersExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(func(o *InMemoryStoreOptions) {
		o.TTL = 60 * time.Millisecond
	})

	require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleHuman, "你好"))

	time.Sleep(40 * time.Millisecond)
	require.NoError(t, s.ExtendExpiry(ctx, "张三", "p1"))
	time.Sleep(40 * time.Millisecond)

	msgs, err := s.History(ctx, "张三", "p1")
	require.NoError(t, err)
	assert.Len(t, msgs, 1, "refreshed deadline keeps the transcript alive")
}

func TestInMemoryStore_ExtendExpiryUnknownPairIsNoOp(t *testing.T) {
	s := NewInMemoryStore()

	assert.NoError(t, s.ExtendExpiry(context.Background(), "张三", "nobody"))
}

func TestInMemoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleHuman, "你好"))
	require.NoError(t, s.Clear(ctx, "张三", "p1"))

	msgs, err := s.History(ctx, "张三", "p1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestInMemoryStore_HistoryReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleHuman, "原文"))

	msgs, err := s.History(ctx, "张三", "p1")
	require.NoError(t, err)
	msgs[0].Content = "改掉了"

	again, err := s.History(ctx, "张三", "p1")
	require.NoError(t, err)
	assert.Equal(t, "原文", again[0].Content)
}

func TestInMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			player := fmt.Sprintf("p%d", i%4)
			if err := s.Append(ctx, "张三", player, core.RoleHuman, fmt.Sprintf("msg-%d", i)); err != nil {
				t.Errorf("append error: %v", err)
			}
			if _, err := s.History(ctx, "张三", player); err != nil {
				t.Errorf("history error: %v", err)
			}
			if err := s.ExtendExpiry(ctx, "张三", player); err != nil {
				t.Errorf("extend error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	msgs, err := s.History(ctx, "张三", "p0")
	require.NoError(t, err)
	assert.NotEmpty(t, msgs)
}
