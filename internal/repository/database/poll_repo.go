package database

import (
	"context"
	"errors"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/repository"

	"gorm.io/gorm"
)

type PollRepository struct {
	DB *gorm.DB
}

func (r *PollRepository) FindPoll(ctx context.Context, pollID uint64) (*model.Poll, error) {
	var p model.Poll
	if err := r.DB.WithContext(ctx).Where("post_id = ?", pollID).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// HasOption 选项必须属于该投票
func (r *PollRepository) HasOption(ctx context.Context, pollID, optionID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.PollOption{}).
		Where("id = ? AND poll_id = ?", optionID, pollID).
		Count(&n).Error
	return n > 0, err
}

func (r *PollRepository) HasVoted(ctx context.Context, pollID, userID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.PollVote{}).
		Where("poll_id = ? AND user_id = ?", pollID, userID).
		Count(&n).Error
	return n > 0, err
}

// CastVote 插入投票，主键冲突说明已经投过
func (r *PollRepository) CastVote(ctx context.Context, v *model.PollVote) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(v).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventPollVoted, v.PollID, map[string]any{
			"user_id":   v.UserID,
			"option_id": v.OptionID,
		})
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicate
	}
	return err
}

// TallyPolls 按投票批量统计每个选项票数，选项按 id 排序
func (r *PollRepository) TallyPolls(ctx context.Context, pollIDs []uint64) (map[uint64][]model.OptionTally, error) {
	out := make(map[uint64][]model.OptionTally)
	if len(pollIDs) == 0 {
		return out, nil
	}
	var rows []model.OptionTally
	err := r.DB.WithContext(ctx).
		Table("poll_options po").
		Select("po.id, po.poll_id, po.text, COUNT(pv.user_id) AS votes").
		Joins("LEFT JOIN poll_votes pv ON pv.option_id = po.id").
		Where("po.poll_id IN ?", pollIDs).
		Group("po.id, po.poll_id, po.text").
		Order("po.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PollID] = append(out[row.PollID], row)
	}
	return out, nil
}

// UserVotes viewer 在各投票中选的选项
func (r *PollRepository) UserVotes(ctx context.Context, viewerID uint64, pollIDs []uint64) (map[uint64]uint64, error) {
	out := make(map[uint64]uint64)
	if viewerID == 0 || len(pollIDs) == 0 {
		return out, nil
	}
	var votes []model.PollVote
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND poll_id IN ?", viewerID, pollIDs).
		Find(&votes).Error; err != nil {
		return nil, err
	}
	for _, v := range votes {
		out[v.PollID] = v.OptionID
	}
	return out, nil
}
