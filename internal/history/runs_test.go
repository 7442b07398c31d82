package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_and_Get(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	started := time.Date(2026, 10, 1, 8, 30, 0, 0, time.UTC)

	run := &Run{
		Command:    "sfc",
		Project:    "CarFactory",
		ExportDir:  "/exports/carfactory",
		OutputPath: "/out/sfc/CarFactory",
		Devices:    2,
		Entries:    40,
		Skipped:    1,
		ZipSHA256:  "abc123",
		StartedAt:  started,
		Duration:   1500 * time.Millisecond,
	}
	require.NoError(t, s.Record(ctx, run))
	require.NotEmpty(t, run.ID, "id assigned")

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Command, got.Command)
	assert.Equal(t, run.OutputPath, got.OutputPath)
	assert.Equal(t, 40, got.Entries)
	assert.Equal(t, "abc123", got.ZipSHA256)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.True(t, started.Equal(got.StartedAt), "started_at = %v", got.StartedAt)
	assert.True(t, got.Succeeded())
}

func TestRecord_failed_run(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	run := &Run{Command: "sitewise", Project: "CarFactory", Error: "parse Motor_DB_SW.xml: EOF", StartedAt: time.Now()}
	require.NoError(t, s.Record(ctx, run))

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.False(t, got.Succeeded())
}

func TestRecord_duplicate_id(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	run := &Run{ID: "fixed", Command: "sfc", Project: "p", StartedAt: time.Now()}
	require.NoError(t, s.Record(ctx, run))
	assert.Error(t, s.Record(ctx, run))
}

func TestList_newest_first(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	for i, cmd := range []string{"sfc", "sitewise", "sfc"} {
		require.NoError(t, s.Record(ctx, &Run{
			Command:   cmd,
			Project:   "CarFactory",
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].StartedAt.After(all[i].StartedAt), "runs not ordered newest first")
	}

	two, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
	assert.Equal(t, all[0].ID, two[0].ID)
}

func TestGet_unknown(t *testing.T) {
	s := tempStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
