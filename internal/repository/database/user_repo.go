package database

import (
	"context"
	"errors"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

// CreateUser 用户、资料、钱包同一事务创建
func (r *UserRepository) CreateUser(ctx context.Context, u *model.User, p *model.Profile, bonus decimal.Decimal) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		p.UserID = u.ID
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return tx.Create(&model.Wallet{UserID: u.ID, Balance: bonus}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *UserRepository) FindUser(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	if err := r.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// HasProfile 发帖前的资料完整性检查
func (r *UserRepository) HasProfile(ctx context.Context, userID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Table("users u").
		Joins("JOIN profiles p ON p.user_id = u.id").
		Where("u.id = ?", userID).
		Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) UserDetail(ctx context.Context, id uint64) (*model.UserDetail, error) {
	return r.detail(ctx, "u.id = ?", id)
}

func (r *UserRepository) UserDetailByUsername(ctx context.Context, username string) (*model.UserDetail, error) {
	return r.detail(ctx, "u.username = ?", username)
}

func (r *UserRepository) detail(ctx context.Context, cond string, arg any) (*model.UserDetail, error) {
	var rows []model.UserDetail
	err := r.DB.WithContext(ctx).
		Table("users u").
		Select(`u.id, u.email, u.username, u.role, u.created_at,
			p.display_name, p.avatar_url, p.bio, w.balance AS wallet_balance,
			(SELECT COUNT(*) FROM posts ps WHERE ps.author_id = u.id) AS posts_count`).
		Joins("JOIN profiles p ON p.user_id = u.id").
		Joins("LEFT JOIN wallets w ON w.user_id = u.id").
		Where(cond, arg).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return &rows[0], nil
}

// ListUsers 用户快照列表，excludeID 为 0 时不排除
func (r *UserRepository) ListUsers(ctx context.Context, excludeID uint64) ([]model.AuthorSnapshot, error) {
	q := r.DB.WithContext(ctx).
		Table("users u").
		Select("u.id, u.username, p.display_name, p.avatar_url").
		Joins("JOIN profiles p ON p.user_id = u.id")
	if excludeID > 0 {
		q = q.Where("u.id <> ?", excludeID)
	}
	var out []model.AuthorSnapshot
	err := q.Order("u.username ASC").Scan(&out).Error
	return out, err
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID uint64, upd model.ProfileUpdate) error {
	values := map[string]any{"display_name": upd.DisplayName}
	if upd.AvatarURL != nil {
		values["avatar_url"] = *upd.AvatarURL
	}
	if upd.Bio != nil {
		values["bio"] = *upd.Bio
	}
	res := r.DB.WithContext(ctx).Model(&model.Profile{}).Where("user_id = ?", userID).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// mysql 未开 clientFoundRows 时，值没变化也会返回 0 行，需要再确认资料是否存在
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.Profile{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteUser 删除用户及其所有关联数据。流水表没有级联，需先手动删除
func (r *UserRepository) DeleteUser(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var postIDs []uint64
		if err := tx.Model(&model.Post{}).Where("author_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if err := deletePosts(tx, postIDs); err != nil {
			return err
		}
		// 该用户点过赞的帖子计数同步减一
		if err := tx.Model(&model.Post{}).
			Where("id IN (?)", tx.Model(&model.PostLike{}).Select("post_id").Where("user_id = ?", id)).
			UpdateColumn("likes_count", gorm.Expr("GREATEST(0, likes_count - 1)")).Error; err != nil {
			return err
		}

		steps := []struct {
			model any
			cond  string
			args  []any
		}{
			{&model.Transaction{}, "from_user_id = ? OR to_user_id = ?", []any{id, id}},
			{&model.PostLike{}, "user_id = ?", []any{id}},
			{&model.PollVote{}, "user_id = ?", []any{id}},
			{&model.EventAttendee{}, "user_id = ?", []any{id}},
			{&model.CommunityMember{}, "user_id = ?", []any{id}},
			{&model.Wallet{}, "user_id = ?", []any{id}},
			{&model.Profile{}, "user_id = ?", []any{id}},
		}
		for _, s := range steps {
			if err := tx.Where(s.cond, s.args...).Delete(s.model).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&model.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return err
}
