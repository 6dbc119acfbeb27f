package database

import (
	"context"
	"testing"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCommunityInsertsOwnerInSameTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &CommunityRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "communities"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectExec(`INSERT INTO "community_members" .* ON CONFLICT \("community_id","user_id"\) DO NOTHING`).
		WithArgs(uint64(3), uint64(9), model.MemberRoleOwner, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "outbox"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	c := &model.Community{Name: "whales", CreatorID: 9, Status: model.CommunityActive}
	require.NoError(t, repo.CreateCommunity(context.Background(), c))
	assert.Equal(t, uint64(3), c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCommunityDuplicateName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &CommunityRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "communities"`).
		WillReturnError(uniqueViolation())
	mock.ExpectRollback()

	err := repo.CreateCommunity(context.Background(), &model.Community{Name: "whales", CreatorID: 9, Status: model.CommunityActive})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinCommunityExistingMemberWritesNoEvent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &CommunityMemberRepository{DB: db}

	// 冲突时 0 行，后面不能再有 outbox 插入
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "community_members" .* ON CONFLICT \("community_id","user_id"\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	joined, err := repo.JoinCommunity(context.Background(), &model.CommunityMember{
		CommunityID: 3, UserID: 4, Role: model.MemberRoleMember,
	})
	require.NoError(t, err)
	assert.False(t, joined)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinCommunityNewMember(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &CommunityMemberRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "community_members"`).
		WithArgs(uint64(3), uint64(4), model.MemberRoleMember, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "outbox"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	joined, err := repo.JoinCommunity(context.Background(), &model.CommunityMember{
		CommunityID: 3, UserID: 4, Role: model.MemberRoleMember,
	})
	require.NoError(t, err)
	assert.True(t, joined)
	assert.NoError(t, mock.ExpectationsWereMet())
}
