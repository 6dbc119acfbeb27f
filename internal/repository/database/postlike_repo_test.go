package database

import (
	"context"
	"testing"

	"github.com/Rashedman4/special-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLikeRemovesExistingLike(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &PostLikeRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id","likes_count" FROM "posts" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "likes_count"}).AddRow(4, 3))
	mock.ExpectExec(`DELETE FROM "post_likes" WHERE post_id = \$1 AND user_id = \$2`).
		WithArgs(uint64(4), uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "posts" SET "likes_count"=GREATEST\(0, likes_count \+ \$1\) WHERE id = \$2`).
		WithArgs(int64(-1), uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	state, err := repo.ToggleLike(context.Background(), 4, 8)
	require.NoError(t, err)
	assert.False(t, state.LikedByMe)
	assert.Equal(t, int64(2), state.LikesCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLikeMissingPost(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &PostLikeRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id","likes_count" FROM "posts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "likes_count"}))
	mock.ExpectRollback()

	_, err := repo.ToggleLike(context.Background(), 4, 8)
	assert.ErrorIs(t, err, repository.ErrPostNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikedPostIDsSkipsAnonymousViewer(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &PostLikeRepository{DB: db}

	out, err := repo.LikedPostIDs(context.Background(), 0, []uint64{1, 2})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}
