package portfolio

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "portfolio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreInsertAndRange(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Insert(ctx, Point{
			Time:  base.Add(time.Duration(i) * time.Hour),
			Model: "gpt-4o",
			Value: 100 + float64(i),
		}))
	}
	require.NoError(t, s.Insert(ctx, Point{Time: base, Model: "other", Value: 1}))

	t.Run("filtered by model ascending", func(t *testing.T) {
		points, err := s.Range(ctx, "gpt-4o", base.Add(-time.Hour), time.Time{})
		require.NoError(t, err)
		require.Len(t, points, 3)
		assert.Equal(t, 100.0, points[0].Value)
		assert.Equal(t, 102.0, points[2].Value)
		assert.True(t, points[0].Time.Before(points[1].Time))
	})

	t.Run("bounded window", func(t *testing.T) {
		points, err := s.Range(ctx, "gpt-4o", base.Add(30*time.Minute), base.Add(90*time.Minute))
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.Equal(t, 101.0, points[0].Value)
	})

	t.Run("all models", func(t *testing.T) {
		points, err := s.Range(ctx, "", base.Add(-time.Hour), time.Time{})
		require.NoError(t, err)
		assert.Len(t, points, 4)
	})
}

func TestStoreLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Latest(ctx, "gpt-4o")
	require.NoError(t, err)
	assert.False(t, ok)

	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Insert(ctx, Point{Time: base, Model: "gpt-4o", Value: 100}))
	require.NoError(t, s.Insert(ctx, Point{Time: base.Add(time.Hour), Model: "gpt-4o", Value: 105}))

	p, ok, err := s.Latest(ctx, "gpt-4o")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 105.0, p.Value)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}
