package database

import (
	"context"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostLikeRepository struct {
	DB *gorm.DB
}

// ToggleLike 有赞则取消，无赞则点赞；计数在同一事务里维护，最低为 0
func (r *PostLikeRepository) ToggleLike(ctx context.Context, postID, userID uint64) (model.LikeState, error) {
	var state model.LikeState
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post model.Post
		// 锁住帖子行，同一帖子的计数更新串行
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "likes_count").
			Where("id = ?", postID).
			Take(&post).Error; err != nil {
			if notFound(err) == repository.ErrNotFound {
				return repository.ErrPostNotFound
			}
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&model.PostLike{})
		if res.Error != nil {
			return res.Error
		}

		delta := int64(-1)
		if res.RowsAffected == 0 {
			if err := tx.Create(&model.PostLike{PostID: postID, UserID: userID}).Error; err != nil {
				return err
			}
			delta = 1
			state.LikedByMe = true
		}

		if err := tx.Model(&model.Post{}).
			Where("id = ?", postID).
			UpdateColumn("likes_count", gorm.Expr("GREATEST(0, likes_count + ?)", delta)).Error; err != nil {
			return err
		}

		state.LikesCount = post.LikesCount + delta
		if state.LikesCount < 0 {
			state.LikesCount = 0
		}
		return nil
	})
	return state, err
}

// LikedPostIDs 批量查询 viewer 点过赞的帖子
func (r *PostLikeRepository) LikedPostIDs(ctx context.Context, viewerID uint64, postIDs []uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool)
	if viewerID == 0 || len(postIDs) == 0 {
		return out, nil
	}
	var ids []uint64
	if err := r.DB.WithContext(ctx).Model(&model.PostLike{}).
		Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
		Pluck("post_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
