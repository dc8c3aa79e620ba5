package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_RecordAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRun(ctx, RunRecord{
		Years:      "2018-2022",
		Polygons:   1040,
		Rows:       5200,
		Output:     "out.csv",
		Status:     RunStatusCompleted,
		DurationMs: 1234,
	}))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	assert.NotEmpty(t, runs[0].ID)
	assert.Equal(t, "2018-2022", runs[0].Years)
	assert.Equal(t, 1040, runs[0].Polygons)
	assert.Equal(t, 5200, runs[0].Rows)
	assert.Equal(t, RunStatusCompleted, runs[0].Status)
	assert.Empty(t, runs[0].Error)
	assert.WithinDuration(t, time.Now().UTC(), runs[0].CreatedAt, time.Minute)
}

func TestSQLiteStore_FailedRunKeepsError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRun(ctx, RunRecord{
		Years:  "2020-2020",
		Status: RunStatusFailed,
		Error:  "pipeline: load raster for year 2020: no such file",
	}))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "year 2020")
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := RunRecord{ID: "a", Years: "2018-2018", Status: RunStatusCompleted, CreatedAt: time.Now().UTC().Add(-time.Hour)}
	recent := RunRecord{ID: "b", Years: "2019-2019", Status: RunStatusCompleted, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.RecordRun(ctx, old))
	require.NoError(t, s.RecordRun(ctx, recent))

	runs, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "b", runs[0].ID)
}
