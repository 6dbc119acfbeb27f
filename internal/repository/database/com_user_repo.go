package database

import (
	"context"

	"github.com/Rashedman4/special-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommunityMemberRepository struct {
	DB *gorm.DB
}

// JoinCommunity 幂等加入：已是成员时什么也不做。只有真正插入时才写事件
func (r *CommunityMemberRepository) JoinCommunity(ctx context.Context, m *model.CommunityMember) (bool, error) {
	var joined bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := insertMember(tx, m)
		if err != nil || !inserted {
			return err
		}
		joined = true
		return insertOutbox(tx, model.EventCommunityJoined, m.CommunityID, map[string]any{"user_id": m.UserID})
	})
	return joined, err
}

// insertMember 冲突时 DoNothing，返回是否真正插入
func insertMember(tx *gorm.DB, m *model.CommunityMember) (bool, error) {
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(m)
	return res.RowsAffected > 0, res.Error
}

func (r *CommunityMemberRepository) FindMember(ctx context.Context, communityID, userID uint64) (*model.CommunityMember, error) {
	var m model.CommunityMember
	err := r.DB.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *CommunityMemberRepository) LeaveCommunity(ctx context.Context, communityID, userID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			Delete(&model.CommunityMember{})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		return insertOutbox(tx, model.EventCommunityLeft, communityID, map[string]any{"user_id": userID})
	})
}

func (r *CommunityMemberRepository) IsMember(ctx context.Context, communityID, userID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}
