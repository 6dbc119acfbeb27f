package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/pkg"
	"github.com/Rashedman4/special-backend/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 8
	// bcrypt 只接受 72 字节以内的密码
	maxPasswordLen = 72
)

type UserService struct {
	users       UserStore
	tokens      *pkg.TokenIssuer
	signupBonus decimal.Decimal
}

func NewUserService(users UserStore, tokens *pkg.TokenIssuer, signupBonus int64) *UserService {
	return &UserService{
		users:       users,
		tokens:      tokens,
		signupBonus: decimal.NewFromInt(signupBonus),
	}
}

type SignupInput struct {
	Email       string
	Username    string
	DisplayName string
	Password    string
}

// LoginResult 登录返回用户信息和 token 对
type LoginResult struct {
	User   *model.UserDetail
	Tokens *pkg.Pair
}

// Signup 用户、资料、钱包一起创建，钱包带注册奖励
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*model.UserDetail, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	displayName := strings.TrimSpace(in.DisplayName)
	if email == "" || username == "" || displayName == "" || in.Password == "" {
		return nil, pkg.InvalidArgument("Missing required fields")
	}
	if !strings.Contains(email, "@") {
		return nil, pkg.InvalidArgument("Invalid email")
	}
	if len(in.Password) < minPasswordLen {
		return nil, pkg.InvalidArgument("Password must be at least 8 characters")
	}
	if len(in.Password) > maxPasswordLen {
		return nil, pkg.InvalidArgument("Password must be at most 72 bytes")
	}
	if tooLong(email, model.MaxEmailLen) || tooLong(username, model.MaxUsernameLen) ||
		tooLong(displayName, model.MaxDisplayNameLen) {
		return nil, pkg.InvalidArgument("Email, username or display_name is too long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, pkg.Internal(err)
	}

	u := &model.User{
		Email:    email,
		Username: username,
		Password: string(hash),
		Role:     model.RoleUser,
	}
	p := &model.Profile{DisplayName: displayName}
	if err = s.users.CreateUser(ctx, u, p, s.signupBonus); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, pkg.Conflict("Email or username already exists")
		}
		return nil, pkg.Internal(err)
	}
	return s.detail(ctx, u.ID)
}

// Login bcrypt 比对，失败统一返回 Invalid credentials
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkg.InvalidArgument("Missing required fields")
	}
	u, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, pkg.Unauthenticated("Invalid credentials")
	}
	if err != nil {
		return nil, pkg.Internal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, pkg.Unauthenticated("Invalid credentials")
	}

	pair, err := s.tokens.GeneratePair(u.ID, u.Role)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	detail, err := s.detail(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: detail, Tokens: pair}, nil
}

// TokenRefresh 刷新 token 对
func (s *UserService) TokenRefresh(refreshToken string) (*pkg.Pair, error) {
	if refreshToken == "" {
		return nil, pkg.InvalidArgument("refresh_token is required")
	}
	pair, err := s.tokens.Refresh(refreshToken)
	if err != nil {
		return nil, pkg.Unauthenticated("Invalid or expired refresh token")
	}
	return pair, nil
}

func (s *UserService) ListUsers(ctx context.Context, excludeID uint64) ([]model.AuthorSnapshot, error) {
	list, err := s.users.ListUsers(ctx, excludeID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return list, nil
}

func (s *UserService) UserByUsername(ctx context.Context, username string) (*model.UserDetail, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, pkg.InvalidArgument("username is required")
	}
	d, err := s.users.UserDetailByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, pkg.NotFound("User not found")
	}
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return d, nil
}

// UpdateProfile 只能改自己的资料
func (s *UserService) UpdateProfile(ctx context.Context, targetID, requesterID uint64, upd model.ProfileUpdate) (*model.UserDetail, error) {
	if requesterID == 0 {
		return nil, pkg.InvalidArgument("Missing x-user-id header")
	}
	if targetID != requesterID {
		return nil, pkg.Forbidden("Not allowed")
	}
	upd.DisplayName = strings.TrimSpace(upd.DisplayName)
	if upd.DisplayName == "" {
		return nil, pkg.InvalidArgument("display_name is required")
	}
	if tooLong(upd.DisplayName, model.MaxDisplayNameLen) {
		return nil, pkg.InvalidArgument("display_name is too long")
	}
	if upd.AvatarURL != nil && tooLong(*upd.AvatarURL, model.MaxAvatarURLLen) {
		return nil, pkg.InvalidArgument("avatar_url is too long")
	}
	if err := s.users.UpdateProfile(ctx, targetID, upd); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, pkg.NotFound("User not found")
		}
		return nil, pkg.Internal(err)
	}
	return s.detail(ctx, targetID)
}

// DeleteUser 管理员删除用户，不能删管理员
func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	u, err := s.users.FindUser(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return pkg.NotFound("User not found")
	}
	if err != nil {
		return pkg.Internal(err)
	}
	if u.Role == model.RoleAdmin {
		return pkg.InvalidArgument("Cannot delete admin accounts")
	}
	if err = s.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return pkg.NotFound("User not found")
		}
		return pkg.Internal(err)
	}
	return nil
}

func (s *UserService) detail(ctx context.Context, id uint64) (*model.UserDetail, error) {
	d, err := s.users.UserDetail(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, pkg.NotFound("User not found")
	}
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return d, nil
}
