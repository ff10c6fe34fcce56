package checkpoint

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainCheckpoint "github.com/colbyziyuwang/tianshou/internal/domain/checkpoint"
	domainReplay "github.com/colbyziyuwang/tianshou/internal/domain/replay"
	domainStats "github.com/colbyziyuwang/tianshou/internal/domain/stats"
	infraReplay "github.com/colbyziyuwang/tianshou/internal/infrastructure/replay"
	infraStats "github.com/colbyziyuwang/tianshou/internal/infrastructure/stats"
)

type trainingState struct {
	Step   int       `json:"step"`
	Losses []float64 `json:"losses"`
}

func newTestStore(t *testing.T, keepPerKind int) *Store {
	t.Helper()
	store, err := NewStore(domainCheckpoint.Config{
		DatabasePath: filepath.Join(t.TempDir(), "checkpoints.db"),
		KeepPerKind:  keepPerKind,
	}, nil, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore_RejectsInvalidConfig(t *testing.T) {
	_, err := NewStore(domainCheckpoint.Config{DatabasePath: ""}, nil, zerolog.Nop())
	assert.ErrorIs(t, err, domainCheckpoint.ErrInvalidPath)

	_, err = NewStore(domainCheckpoint.Config{DatabasePath: "x.db", KeepPerKind: -1}, nil, zerolog.Nop())
	assert.ErrorIs(t, err, domainCheckpoint.ErrInvalidRetention)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	state := trainingState{Step: 42, Losses: []float64{0.5, 0.25}}
	id, err := store.Save(ctx, domainCheckpoint.KindRunningStats, state)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err, "checkpoint ids are UUIDs")

	record, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domainCheckpoint.KindRunningStats, record.Kind)
	assert.WithinDuration(t, time.Now().UTC(), record.CreatedAt, 5*time.Second)

	var loaded trainingState
	require.NoError(t, store.LoadState(ctx, id, &loaded))
	assert.Equal(t, state, loaded)
}

func TestStore_LoadMissing(t *testing.T) {
	store := newTestStore(t, 0)

	_, err := store.Load(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domainCheckpoint.ErrNotFound)
}

func TestStore_SaveRejectsEmptyKind(t *testing.T) {
	store := newTestStore(t, 0)

	_, err := store.Save(context.Background(), "", trainingState{})
	assert.ErrorIs(t, err, domainCheckpoint.ErrInvalidKind)
}

func TestStore_LatestPicksNewest(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	for step := 1; step <= 3; step++ {
		_, err := store.Save(ctx, domainCheckpoint.KindLaggedShadows, trainingState{Step: step})
		require.NoError(t, err)
	}

	var latest trainingState
	require.NoError(t, store.LatestState(ctx, domainCheckpoint.KindLaggedShadows, &latest))
	assert.Equal(t, 3, latest.Step)

	_, err := store.Latest(ctx, domainCheckpoint.KindReplayBuffer)
	assert.ErrorIs(t, err, domainCheckpoint.ErrNotFound)
}

func TestStore_ListAndCount(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	firstID, err := store.Save(ctx, domainCheckpoint.KindRunningStats, trainingState{Step: 1})
	require.NoError(t, err)
	secondID, err := store.Save(ctx, domainCheckpoint.KindRunningStats, trainingState{Step: 2})
	require.NoError(t, err)
	_, err = store.Save(ctx, domainCheckpoint.Kind("evaluation"), trainingState{Step: 3})
	require.NoError(t, err)

	records, err := store.List(ctx, domainCheckpoint.KindRunningStats)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, secondID, records[0].ID, "newest first")
	assert.Equal(t, firstID, records[1].ID)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	count, err := store.Count(ctx, domainCheckpoint.KindRunningStats)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	count, err = store.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	id, err := store.Save(ctx, domainCheckpoint.KindRunningStats, trainingState{Step: 1})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, domainCheckpoint.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, id), domainCheckpoint.ErrNotFound)
}

func TestStore_RetentionPrunesOldest(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	var ids []string
	for step := 1; step <= 3; step++ {
		id, err := store.Save(ctx, domainCheckpoint.KindReplayBuffer, trainingState{Step: step})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	count, err := store.Count(ctx, domainCheckpoint.KindReplayBuffer)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = store.Load(ctx, ids[0])
	assert.ErrorIs(t, err, domainCheckpoint.ErrNotFound, "oldest checkpoint pruned")
	_, err = store.Load(ctx, ids[2])
	assert.NoError(t, err)
}

func TestStore_ClosedStoreErrors(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()
	require.NoError(t, store.Close())

	_, err := store.Save(ctx, domainCheckpoint.KindRunningStats, trainingState{})
	assert.ErrorIs(t, err, domainCheckpoint.ErrStoreClosed)
	_, err = store.Load(ctx, "x")
	assert.ErrorIs(t, err, domainCheckpoint.ErrStoreClosed)
	assert.NoError(t, store.Close(), "closing twice is fine")
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	ctx := context.Background()

	store, err := NewStore(domainCheckpoint.Config{DatabasePath: path}, nil, zerolog.Nop())
	require.NoError(t, err)
	id, err := store.Save(ctx, domainCheckpoint.KindRunningStats, trainingState{Step: 7})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(domainCheckpoint.Config{DatabasePath: path}, nil, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	var state trainingState
	require.NoError(t, reopened.LoadState(ctx, id, &state))
	assert.Equal(t, 7, state.Step)
}

func TestStore_ReplayBufferCheckpointRoundTrip(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	buffer, err := infraReplay.NewBuffer(domainReplay.Config{
		Capacity: 4, EnvNum: 2, StackNum: 1, Seed: 3,
	}, zerolog.Nop())
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		_, err := buffer.Add(domainReplay.Transition{
			Obs:        []float32{float32(i), 0.5},
			Act:        []float32{1},
			Rew:        float64(i),
			ObsNext:    []float32{float32(i) + 1, 0.5},
			Terminated: i == 2,
		}, i%2)
		require.NoError(t, err)
	}

	id, err := store.Save(ctx, domainCheckpoint.KindReplayBuffer, buffer.Snapshot())
	require.NoError(t, err)

	var snapshot domainReplay.Snapshot
	require.NoError(t, store.LoadState(ctx, id, &snapshot))

	restored, err := infraReplay.NewBuffer(domainReplay.Config{
		Capacity: 4, EnvNum: 2, StackNum: 1, Seed: 3,
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, restored.Restore(&snapshot))

	assert.Equal(t, buffer.Len(), restored.Len())
	assert.Equal(t, buffer.UnfinishedIndex(), restored.UnfinishedIndex())
	original, err := buffer.Get(buffer.StoredIndices())
	require.NoError(t, err)
	roundTripped, err := restored.Get(restored.StoredIndices())
	require.NoError(t, err)
	assert.Equal(t, original, roundTripped)
}

func TestStore_RunningStatsCheckpointRoundTrip(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	stats := infraStats.NewRunningStats()
	stats.Update([]float64{1, 2, 3})

	id, err := store.Save(ctx, domainCheckpoint.KindRunningStats, stats.Snapshot())
	require.NoError(t, err)

	var snapshot domainStats.Snapshot
	require.NoError(t, store.LoadState(ctx, id, &snapshot))

	restored := infraStats.NewRunningStats()
	require.NoError(t, restored.Restore(snapshot))
	assert.Equal(t, stats.Mean(), restored.Mean())
	assert.Equal(t, stats.Var(), restored.Var())
	assert.Equal(t, stats.Count(), restored.Count())
}
