package service

import (
	"context"
	"time"

	"github.com/Rashedman4/special-backend/internal/model"

	"github.com/shopspring/decimal"
)

// 下面的接口由 repository/database 与 repository/memory 分别实现

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User, p *model.Profile, bonus decimal.Decimal) error
	FindUser(ctx context.Context, id uint64) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	HasProfile(ctx context.Context, userID uint64) (bool, error)
	UserDetail(ctx context.Context, id uint64) (*model.UserDetail, error)
	UserDetailByUsername(ctx context.Context, username string) (*model.UserDetail, error)
	ListUsers(ctx context.Context, excludeID uint64) ([]model.AuthorSnapshot, error)
	UpdateProfile(ctx context.Context, userID uint64, upd model.ProfileUpdate) error
	DeleteUser(ctx context.Context, id uint64) error
}

type WalletStore interface {
	FindWallet(ctx context.Context, userID uint64) (*model.Wallet, error)
	Transfer(ctx context.Context, p model.TransferParams) (*model.Transaction, error)
	FindTransaction(ctx context.Context, id uint64) (*model.Transaction, error)
	ListTransactions(ctx context.Context, userID uint64) ([]model.TransactionView, error)
}

type CommunityStore interface {
	CreateCommunity(ctx context.Context, c *model.Community) error
	FindCommunity(ctx context.Context, id uint64) (*model.Community, error)
	CommunityView(ctx context.Context, id, viewerID uint64) (*model.CommunityView, error)
	ListCommunities(ctx context.Context, viewerID uint64) ([]model.CommunityView, error)
	UpdateCommunityStatus(ctx context.Context, id uint64, status string) (*model.Community, error)
}

type MemberStore interface {
	JoinCommunity(ctx context.Context, m *model.CommunityMember) (bool, error)
	FindMember(ctx context.Context, communityID, userID uint64) (*model.CommunityMember, error)
	LeaveCommunity(ctx context.Context, communityID, userID uint64) error
	IsMember(ctx context.Context, communityID, userID uint64) (bool, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, np model.NewPost) (uint64, error)
	FindPost(ctx context.Context, id uint64) (*model.Post, error)
	PostRow(ctx context.Context, id uint64) (*model.PostRow, error)
	ListPostRows(ctx context.Context, f model.PostFilter) ([]model.PostRow, error)
	DeletePost(ctx context.Context, id uint64) error
}

type LikeStore interface {
	ToggleLike(ctx context.Context, postID, userID uint64) (model.LikeState, error)
	LikedPostIDs(ctx context.Context, viewerID uint64, postIDs []uint64) (map[uint64]bool, error)
}

type PollStore interface {
	FindPoll(ctx context.Context, pollID uint64) (*model.Poll, error)
	HasOption(ctx context.Context, pollID, optionID uint64) (bool, error)
	HasVoted(ctx context.Context, pollID, userID uint64) (bool, error)
	CastVote(ctx context.Context, v *model.PollVote) error
	TallyPolls(ctx context.Context, pollIDs []uint64) (map[uint64][]model.OptionTally, error)
	UserVotes(ctx context.Context, viewerID uint64, pollIDs []uint64) (map[uint64]uint64, error)
}

type EventStore interface {
	EventExists(ctx context.Context, eventID uint64) (bool, error)
	ToggleAttendance(ctx context.Context, eventID, userID uint64) (model.AttendState, error)
	AttendeeCounts(ctx context.Context, eventIDs []uint64) (map[uint64]int64, error)
	AttendingEventIDs(ctx context.Context, viewerID uint64, eventIDs []uint64) (map[uint64]bool, error)
}

type OutboxStore interface {
	PendingOutbox(ctx context.Context, batchSize, maxRetry int) ([]model.OutboxEvent, error)
	MarkOutboxSent(ctx context.Context, id uint64) error
	MarkOutboxFailed(ctx context.Context, id uint64) error
}

type ReconcileStore interface {
	LikeCounts(ctx context.Context, afterID uint64, batchSize int) ([]model.LikeCount, error)
	FixLikeCount(ctx context.Context, postID uint64, actual int64) error
}

// IdempotencyStore 转账幂等键，可为 nil
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (uint64, bool, error)
	Reserve(ctx context.Context, key string) (bool, error)
	Remember(ctx context.Context, key string, txID uint64) error
	Release(ctx context.Context, key string) error
}

// Locker 后台任务的分布式锁，可为 nil
type Locker interface {
	Acquire(ctx context.Context, name, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, token string) error
}
