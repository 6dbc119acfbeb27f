package database

import (
	"context"

	"github.com/Rashedman4/special-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository struct {
	DB *gorm.DB
}

func (r *EventRepository) EventExists(ctx context.Context, eventID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Event{}).Where("post_id = ?", eventID).Count(&n).Error
	return n > 0, err
}

// ToggleAttendance 与点赞相同的切换语义，返回新状态和报名人数
func (r *EventRepository) ToggleAttendance(ctx context.Context, eventID, userID uint64) (model.AttendState, error) {
	var state model.AttendState
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&model.EventAttendee{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&model.EventAttendee{EventID: eventID, UserID: userID}).Error; err != nil {
				return err
			}
			state.IsAttending = true
		}
		return tx.Model(&model.EventAttendee{}).Where("event_id = ?", eventID).Count(&state.AttendeesCount).Error
	})
	return state, err
}

func (r *EventRepository) AttendeeCounts(ctx context.Context, eventIDs []uint64) (map[uint64]int64, error) {
	out := make(map[uint64]int64)
	if len(eventIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		EventID uint64
		Total   int64
	}
	if err := r.DB.WithContext(ctx).Model(&model.EventAttendee{}).
		Select("event_id, COUNT(*) AS total").
		Where("event_id IN ?", eventIDs).
		Group("event_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.EventID] = row.Total
	}
	return out, nil
}

func (r *EventRepository) AttendingEventIDs(ctx context.Context, viewerID uint64, eventIDs []uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool)
	if viewerID == 0 || len(eventIDs) == 0 {
		return out, nil
	}
	var ids []uint64
	if err := r.DB.WithContext(ctx).Model(&model.EventAttendee{}).
		Where("user_id = ? AND event_id IN ?", viewerID, eventIDs).
		Pluck("event_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
