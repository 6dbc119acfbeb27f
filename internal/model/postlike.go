package model

import "time"

// PostLike 点赞关系，(post_id, user_id) 唯一
type PostLike struct {
	PostID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint64 `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}

func (PostLike) TableName() string {
	return "post_likes"
}

// LikeCount 对账用：帖子计数与真实点赞数
type LikeCount struct {
	ID         uint64
	LikesCount int64
	Actual     int64
}
