package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// driftStore 直接给出计数行的 ReconcileStore
type driftStore struct {
	rows  []model.LikeCount
	fixed map[uint64]int64
	seen  []uint64
}

func (d *driftStore) LikeCounts(_ context.Context, afterID uint64, batchSize int) ([]model.LikeCount, error) {
	d.seen = append(d.seen, afterID)
	out := make([]model.LikeCount, 0, batchSize)
	for _, r := range d.rows {
		if r.ID > afterID && len(out) < batchSize {
			out = append(out, r)
		}
	}
	return out, nil
}

func (d *driftStore) FixLikeCount(_ context.Context, postID uint64, actual int64) error {
	d.fixed[postID] = actual
	return nil
}

func TestReconcilerFixesDriftInBatches(t *testing.T) {
	store := &driftStore{
		rows: []model.LikeCount{
			{ID: 1, LikesCount: 3, Actual: 3},
			{ID: 2, LikesCount: 5, Actual: 4},
			{ID: 3, LikesCount: 0, Actual: 1},
		},
		fixed: map[uint64]int64{},
	}
	r := service.NewCounterReconciler(store, nil, 2, time.Minute)

	n, err := r.ReconcileOnce(ctx())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = r.ReconcileOnce(ctx())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// 不满一批后游标回到开头
	_, err = r.ReconcileOnce(ctx())
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 2, 0}, store.seen)
	assert.Equal(t, map[uint64]int64{2: 4, 3: 1}, store.fixed)
}

func TestReconcilerAgainstMemoryStore(t *testing.T) {
	e := newEnv(t, true)
	alice := e.user(t, "alice", "100")
	bob := e.user(t, "bob", "100")
	v := e.textPost(t, alice, nil, "counted")
	_, err := e.posts.ToggleLike(ctx(), v.ID, bob)
	require.NoError(t, err)
	require.NoError(t, e.store.FixLikeCount(ctx(), v.ID, 9))

	r := service.NewCounterReconciler(e.store, nil, 100, time.Minute)
	n, err := r.ReconcileOnce(ctx())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	row, err := e.store.PostRow(ctx(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), row.LikesCount)
}
