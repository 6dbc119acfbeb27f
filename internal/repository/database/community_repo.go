package database

import (
	"context"
	"errors"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/repository"

	"gorm.io/gorm"
)

type CommunityRepository struct {
	DB *gorm.DB
}

// CreateCommunity 建社区并让创建者以 owner 身份加入，同一事务
func (r *CommunityRepository) CreateCommunity(ctx context.Context, c *model.Community) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}

		if _, err := insertMember(tx, &model.CommunityMember{
			CommunityID: c.ID,
			UserID:      c.CreatorID,
			Role:        model.MemberRoleOwner,
		}); err != nil {
			return err
		}

		return insertOutbox(tx, model.EventCommunityCreated, c.ID, map[string]any{
			"creator_id": c.CreatorID,
			"name":       c.Name,
		})
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *CommunityRepository) FindCommunity(ctx context.Context, id uint64) (*model.Community, error) {
	var c model.Community
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *CommunityRepository) viewQuery(ctx context.Context, viewerID uint64) *gorm.DB {
	return r.DB.WithContext(ctx).
		Table("communities c").
		Select(`c.*,
			(SELECT COUNT(*) FROM community_members m WHERE m.community_id = c.id) AS members_count,
			EXISTS (SELECT 1 FROM community_members m2 WHERE m2.community_id = c.id AND m2.user_id = ?) AS is_member`, viewerID)
}

// CommunityView 单个社区，带成员数和当前用户是否已加入
func (r *CommunityRepository) CommunityView(ctx context.Context, id, viewerID uint64) (*model.CommunityView, error) {
	var rows []model.CommunityView
	if err := r.viewQuery(ctx, viewerID).Where("c.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return &rows[0], nil
}

// ListCommunities 只返回 active 社区，新建的在前
func (r *CommunityRepository) ListCommunities(ctx context.Context, viewerID uint64) ([]model.CommunityView, error) {
	var rows []model.CommunityView
	err := r.viewQuery(ctx, viewerID).
		Where("c.status = ?", model.CommunityActive).
		Order("c.created_at DESC").Order("c.id DESC").
		Scan(&rows).Error
	return rows, err
}

// UpdateCommunityStatus 只改状态，不影响已有成员
func (r *CommunityRepository) UpdateCommunityStatus(ctx context.Context, id uint64, status string) (*model.Community, error) {
	var c model.Community
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&c).Update("status", status).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventCommunityStatusChanged, id, map[string]any{"status": status})
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}
