package database

import (
	"context"

	"github.com/Rashedman4/special-backend/internal/model"

	"gorm.io/gorm"
)

type CounterReconcilerRepo struct {
	DB *gorm.DB
}

// LikeCounts 游标之后的一批帖子，带计数和真实点赞数
func (r *CounterReconcilerRepo) LikeCounts(ctx context.Context, afterID uint64, batchSize int) ([]model.LikeCount, error) {
	var list []model.LikeCount
	err := r.DB.WithContext(ctx).
		Table("posts p").
		Select("p.id, p.likes_count, (SELECT COUNT(*) FROM post_likes pl WHERE pl.post_id = p.id) AS actual").
		Where("p.id > ?", afterID).
		Order("p.id ASC").
		Limit(batchSize).
		Scan(&list).Error
	return list, err
}

// FixLikeCount 用真实值覆盖计数
func (r *CounterReconcilerRepo) FixLikeCount(ctx context.Context, postID uint64, actual int64) error {
	return r.DB.WithContext(ctx).Model(&model.Post{}).Where("id = ?", postID).
		UpdateColumn("likes_count", actual).Error
}
