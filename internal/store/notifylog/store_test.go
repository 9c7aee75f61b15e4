package notifylog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "notifications.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreInsertAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, Record{
		ID:      "n-1",
		Kind:    "trade",
		Symbol:  "BTC",
		Body:    "**AutoTrading** opened a **long** position on **BTC**!",
		Payload: []byte(`{"id":"AutoTradingAgent-m","filters":[],"data":{"Portfolio":1}}`),
	}))
	require.NoError(t, s.Insert(ctx, Record{
		ID:       "n-2",
		Kind:     "analysis",
		Symbol:   "ETH",
		Body:     "Market analysis for ETH",
		Degraded: true,
		Cause:    "close price must be positive",
	}))

	recs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	byID := map[string]Record{recs[0].ID: recs[0], recs[1].ID: recs[1]}
	assert.Contains(t, byID, "n-1")
	assert.Contains(t, byID, "n-2")
	assert.JSONEq(t, `{"id":"AutoTradingAgent-m","filters":[],"data":{"Portfolio":1}}`, string(byID["n-1"].Payload))
	assert.False(t, byID["n-1"].CreatedAt.IsZero())
}

func TestStoreRecentDegraded(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, Record{ID: "ok", Kind: "trade", Body: "fine"}))
	require.NoError(t, s.Insert(ctx, Record{ID: "bad", Kind: "trade", Body: "Trade executed", Degraded: true, Cause: "missing symbol"}))

	recs, err := s.RecentDegraded(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "bad", recs[0].ID)
	assert.Equal(t, "missing symbol", recs[0].Cause)
}

func TestStoreCountByKind(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, kind := range []string{"trade", "trade", "portfolio"} {
		require.NoError(t, s.Insert(ctx, Record{ID: string(rune('a' + i)), Kind: kind, Body: "x"}))
	}

	counts, err := s.CountByKind(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["trade"])
	assert.Equal(t, int64(1), counts["portfolio"])
}

func TestStoreInsertRequiresID(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Insert(context.Background(), Record{Kind: "trade"}))
}

func TestNewRejectsEmptyPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
