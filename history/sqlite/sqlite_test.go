package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/npcflow/core"
)

// Interface compliance (compile-time assertion)
var _ core.HistoryStore = (*Store)(nil)

func openTestStore(t *testing.T, optFns ...func(o *StoreOptions)) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "history.db"), optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestStore_AppendAndHistory(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleHuman, "你好"))
	require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleAI, " 你好呀 "))

	msgs, err := s.History(ctx, "张三", "p1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.Message{Role: core.RoleHuman, Content: "你好"}, msgs[0])
	assert.Equal(t, "你好呀", msgs[1].Content, "content is stored trimmed")
}

func TestStore_UnknownPairReadsEmpty(t *testing.T) {
	s := openTestStore(t)

	msgs, err := s.History(context.Background(), "张三", "nobody")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStore_CapEvictsOldestRows(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, func(o *StoreOptions) {
		o.MaxMessages = 3
	})

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleHuman, fmt.Sprintf("msg-%d", i)))
	}

	msgs, err := s.History(ctx, "张三", "p1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "msg-3", msgs[0].Content, "oldest-first order, newest rows win")
	assert.Equal(t, "msg-5", msgs[2].Content)
}

func TestStore_ExpiredRowsArePruned(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, func(o *StoreOptions) {
		o.TTL = -time.Hour // every row is born expired
	})

	require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleHuman, "你好"))

	msgs, err := s.History(ctx, "张三", "p1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStore_ExtendExpiryRefreshesDeadline(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, func(o *StoreOptions) {
		o.TTL = -time.Hour
	})

	require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleHuman, "你好"))

	// Reopen the pair with a future deadline before the next read prunes it.
	s.opts.TTL = time.Hour
	require.NoError(t, s.ExtendExpiry(ctx, "张三", "p1"))

	msgs, err := s.History(ctx, "张三", "p1")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestStore_PairsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleHuman, "给张三的"))
	require.NoError(t, s.Append(ctx, "李四", "p1", core.RoleHuman, "给李四的"))

	msgs, err := s.History(ctx, "张三", "p1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "给张三的", msgs[0].Content)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleHuman, "你好"))
	require.NoError(t, s.Append(ctx, "张三", "p2", core.RoleHuman, "别动我"))
	require.NoError(t, s.Clear(ctx, "张三", "p1"))

	msgs, err := s.History(ctx, "张三", "p1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = s.History(ctx, "张三", "p2")
	require.NoError(t, err)
	assert.Len(t, msgs, 1, "clear only touches the requested pair")
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, "张三", "p1", core.RoleHuman, "持久化的消息"))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	msgs, err := reopened.History(ctx, "张三", "p1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "持久化的消息", msgs[0].Content)
}
