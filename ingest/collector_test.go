package ingest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	repotest "github.com/componentize/repodata/internal/testing"
	"github.com/componentize/repodata/queue"
)

func insertQueued(t *testing.T, conn *sql.DB, id, url string, attempts int, claimedAt *time.Time) {
	t.Helper()
	now := time.Now().UTC()
	_, err := conn.Exec(
		`INSERT INTO ingestion_queue (id, url, tag, attempts, claimed_at, eligible_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, url, "v1.0.0", attempts, claimedAt, now, now, now,
	)
	require.NoError(t, err)
}

func TestCollector_Sweep(t *testing.T) {
	conn := repotest.CreateTestDB(t)
	store := queue.NewStore(conn)
	collector := NewCollector(store, 15*time.Minute, 10, 15*time.Minute, zap.NewNop().Sugar())
	ctx := context.Background()

	stuckSince := time.Now().UTC().Add(-16 * time.Minute)
	freshSince := time.Now().UTC().Add(-1 * time.Minute)
	insertQueued(t, conn, "spent", "https://github.com/org/spent", 10, nil)
	insertQueued(t, conn, "healthy", "https://github.com/org/healthy", 3, nil)
	insertQueued(t, conn, "stuck", "https://github.com/org/stuck", 2, &stuckSince)
	insertQueued(t, conn, "running", "https://github.com/org/running", 0, &freshSince)

	collector.Sweep(ctx)

	// Over-attempted request is gone
	remaining, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 3)
	for _, ing := range remaining {
		assert.NotEqual(t, "spent", ing.ID)
	}

	// Long-held claim released, attempts untouched
	stuck, err := store.Get(ctx, "stuck")
	require.NoError(t, err)
	assert.Nil(t, stuck.ClaimedAt)
	assert.Equal(t, 2, stuck.Attempts)

	// The fresh claim survives
	running, err := store.Get(ctx, "running")
	require.NoError(t, err)
	assert.NotNil(t, running.ClaimedAt)
}

func TestCollector_Sweep_Idempotent(t *testing.T) {
	conn := repotest.CreateTestDB(t)
	store := queue.NewStore(conn)
	collector := NewCollector(store, 15*time.Minute, 10, 15*time.Minute, zap.NewNop().Sugar())
	ctx := context.Background()

	insertQueued(t, conn, "healthy", "https://github.com/org/healthy", 0, nil)

	collector.Sweep(ctx)
	collector.Sweep(ctx)

	remaining, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

// Run must sweep before its first interval elapses, so claims orphaned by
// a crashed worker are reclaimed promptly after restart.
func TestCollector_Run_SweepsAtStartup(t *testing.T) {
	conn := repotest.CreateTestDB(t)
	store := queue.NewStore(conn)
	collector := NewCollector(store, time.Hour, 10, 15*time.Minute, zap.NewNop().Sugar())

	stuckSince := time.Now().UTC().Add(-16 * time.Minute)
	insertQueued(t, conn, "orphaned", "https://github.com/org/orphaned", 2, &stuckSince)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go collector.Run(ctx)

	require.Eventually(t, func() bool {
		ing, err := store.Get(context.Background(), "orphaned")
		return err == nil && ing.ClaimedAt == nil
	}, 5*time.Second, 10*time.Millisecond, "startup sweep should release the orphaned claim")
}

func TestCollector_Run_StopsOnCancel(t *testing.T) {
	conn := repotest.CreateTestDB(t)
	store := queue.NewStore(conn)
	collector := NewCollector(store, time.Hour, 10, 15*time.Minute, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		collector.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("collector did not stop after context cancellation")
	}
}
