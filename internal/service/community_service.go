package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/pkg"
	"github.com/Rashedman4/special-backend/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	MsgJoined    = "Joined community"
	MsgLeft      = "Left community"
	MsgNotMember = "Not a member"
)

type CommunityService struct {
	communities CommunityStore
	members     MemberStore
	wallets     WalletStore
	users       UserStore
}

func NewCommunityService(communities CommunityStore, members MemberStore, wallets WalletStore, users UserStore) *CommunityService {
	return &CommunityService{
		communities: communities,
		members:     members,
		wallets:     wallets,
		users:       users,
	}
}

type CreateCommunityInput struct {
	CreatorID          uint64
	Name               string
	Description        string
	MinCreditsRequired int64
}

// CreateCommunity 创建者自动成为 owner
func (s *CommunityService) CreateCommunity(ctx context.Context, in CreateCommunityInput) (*model.CommunityView, error) {
	name := strings.TrimSpace(in.Name)
	if in.CreatorID == 0 || name == "" {
		return nil, pkg.InvalidArgument("creator_id and name are required")
	}
	if tooLong(name, model.MaxCommunityNameLen) {
		return nil, pkg.InvalidArgument("Community name is too long")
	}
	if in.MinCreditsRequired < 0 {
		return nil, pkg.InvalidArgument("min_credits_required must be >= 0")
	}
	if _, err := s.users.FindUser(ctx, in.CreatorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, pkg.NotFound("User not found")
		}
		return nil, pkg.Internal(err)
	}

	c := &model.Community{
		Name:               name,
		CreatorID:          in.CreatorID,
		MinCreditsRequired: in.MinCreditsRequired,
		Status:             model.CommunityActive,
	}
	if d := strings.TrimSpace(in.Description); d != "" {
		c.Description = &d
	}
	if err := s.communities.CreateCommunity(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, pkg.Conflict("Community name already exists")
		}
		return nil, pkg.Internal(err)
	}
	return &model.CommunityView{Community: *c, MembersCount: 1, IsMember: true}, nil
}

func (s *CommunityService) Community(ctx context.Context, id, viewerID uint64) (*model.CommunityView, error) {
	v, err := s.communities.CommunityView(ctx, id, viewerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, pkg.NotFound("Community not found")
	}
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return v, nil
}

func (s *CommunityService) ListCommunities(ctx context.Context, viewerID uint64) ([]model.CommunityView, error) {
	list, err := s.communities.ListCommunities(ctx, viewerID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return list, nil
}

// JoinCommunity 只在加入时检查状态和余额，之后不再复查
func (s *CommunityService) JoinCommunity(ctx context.Context, communityID, userID uint64) (string, error) {
	if communityID == 0 || userID == 0 {
		return "", pkg.InvalidArgument("community id and user_id are required")
	}
	c, err := s.RequireCommunity(ctx, communityID)
	if err != nil {
		return "", err
	}
	if c.Status != model.CommunityActive {
		return "", errInactiveCommunity()
	}

	w, err := s.wallets.FindWallet(ctx, userID)
	if errors.Is(err, repository.ErrWalletNotFound) {
		return "", pkg.NotFound("Wallet not found")
	}
	if err != nil {
		return "", pkg.Internal(err)
	}
	if c.MinCreditsRequired > 0 && w.Balance.LessThan(decimal.NewFromInt(c.MinCreditsRequired)) {
		return "", pkg.FailedPrecondition(fmt.Sprintf(
			"Insufficient credits. Need at least %d, current balance %s.", c.MinCreditsRequired, w.Balance.String()))
	}

	if _, err = s.members.JoinCommunity(ctx, &model.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
		Role:        model.MemberRoleMember,
	}); err != nil {
		return "", pkg.Internal(err)
	}
	return MsgJoined, nil
}

// LeaveCommunity 非成员直接成功；owner 不能退出
func (s *CommunityService) LeaveCommunity(ctx context.Context, communityID, userID uint64) (string, error) {
	if communityID == 0 || userID == 0 {
		return "", pkg.InvalidArgument("community id and user_id are required")
	}
	m, err := s.members.FindMember(ctx, communityID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return MsgNotMember, nil
	}
	if err != nil {
		return "", pkg.Internal(err)
	}
	if m.Role == model.MemberRoleOwner {
		return "", pkg.FailedPrecondition("Owner cannot leave the community")
	}
	if err = s.members.LeaveCommunity(ctx, communityID, userID); err != nil {
		return "", pkg.Internal(err)
	}
	return MsgLeft, nil
}

// SetStatus 管理员操作，不会驱逐已有成员
func (s *CommunityService) SetStatus(ctx context.Context, communityID uint64, status string) (*model.Community, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !model.ValidCommunityStatus(status) {
		return nil, pkg.InvalidArgument("Invalid status. Use: active | locked | disabled")
	}
	c, err := s.communities.UpdateCommunityStatus(ctx, communityID, status)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, pkg.NotFound("Community not found")
	}
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return c, nil
}

// RequireCommunity 社区必须存在
func (s *CommunityService) RequireCommunity(ctx context.Context, communityID uint64) (*model.Community, error) {
	c, err := s.communities.FindCommunity(ctx, communityID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, pkg.NotFound("Community not found")
	}
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return c, nil
}

// RequireMember 社区内发帖/删帖的成员校验
func (s *CommunityService) RequireMember(ctx context.Context, communityID, userID uint64) error {
	ok, err := s.members.IsMember(ctx, communityID, userID)
	if err != nil {
		return pkg.Internal(err)
	}
	if !ok {
		return pkg.Forbidden("Join the community first")
	}
	return nil
}

func errInactiveCommunity() error {
	return pkg.FailedPrecondition("Community is not active").WithStatus(http.StatusForbidden)
}
