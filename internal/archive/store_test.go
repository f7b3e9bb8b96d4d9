package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berth-dev/cutover/internal/simulation"
	"github.com/berth-dev/cutover/internal/testutil"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	start := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	snap, report := testutil.FinishedSession("s1", start)
	require.NoError(t, store.Save(ctx, snap, report))

	rec, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "dana", rec.UserID)
	assert.Equal(t, "user_data_service", rec.Module)
	assert.Equal(t, "adapter_layer", rec.Strategy)
	assert.Equal(t, 6, rec.Score)
	assert.Equal(t, 4, rec.Rounds)
	assert.True(t, rec.StartedAt.Equal(start))
	assert.Equal(t, snap.Scenario, rec.Scenario)
	assert.Equal(t, report.Strengths, rec.Report.Strengths)

	require.Len(t, rec.Transcript, 3)
	assert.Equal(t, simulation.PersonaDevOps, rec.Transcript[2].Persona)
	assert.Equal(t, simulation.RoleUser, rec.Transcript[1].Role)
	assert.Equal(t, 1, rec.Transcript[1].Round)
}

func TestSaveReplaces(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	snap, report := testutil.FinishedSession("s1", time.Now())
	require.NoError(t, store.Save(ctx, snap, report))

	snap.Transcript = snap.Transcript[:1]
	report.Score = 8
	require.NoError(t, store.Save(ctx, snap, report))

	rec, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 8, rec.Score)
	assert.Len(t, rec.Transcript, 1)
}

func TestSaveRejectsRunningSession(t *testing.T) {
	store := newStore(t)
	snap, report := testutil.FinishedSession("s1", time.Now())
	snap.Phase = simulation.PhaseFinalReview

	err := store.Save(context.Background(), snap, report)
	assert.ErrorIs(t, err, ErrNotEnded)

	snap.Phase = simulation.PhaseEnded
	err = store.Save(context.Background(), snap, nil)
	assert.ErrorIs(t, err, ErrNotEnded)
}

func TestGetMissing(t *testing.T) {
	_, err := newStore(t).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second", "third"} {
		ended := base.Add(time.Duration(i) * time.Hour)
		store.now = func() time.Time { return ended }
		snap, report := testutil.FinishedSession(id, base)
		require.NoError(t, store.Save(ctx, snap, report))
	}

	got, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].ID)
	assert.Equal(t, "second", got[1].ID)
}

func TestDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	snap, report := testutil.FinishedSession("s1", time.Now())
	require.NoError(t, store.Save(ctx, snap, report))

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	msgs, err := store.Messages(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.ErrorIs(t, store.Delete(ctx, "s1"), ErrNotFound)
}

func TestListUnlimited(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		snap, report := testutil.FinishedSession(id, time.Now())
		require.NoError(t, store.Save(ctx, snap, report))
	}

	got, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
