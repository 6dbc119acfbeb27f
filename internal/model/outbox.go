package model

import "time"

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

const (
	EventTransferCompleted      = "transfer.completed"
	EventCommunityCreated       = "community.created"
	EventCommunityJoined        = "community.joined"
	EventCommunityLeft          = "community.left"
	EventCommunityStatusChanged = "community.status_changed"
	EventPostCreated            = "post.created"
	EventPostDeleted            = "post.deleted"
	EventPollVoted              = "poll.voted"
)

// OutboxEvent 领域事件表，与业务写入同一事务
type OutboxEvent struct {
	ID          uint64 `gorm:"primaryKey"`
	EventID     string `gorm:"size:36;not null;uniqueIndex"`
	EventType   string `gorm:"size:32;not null"`
	AggregateID uint64 `gorm:"not null"`
	Payload     string `gorm:"type:text;not null"`
	Status      int8   `gorm:"not null;default:0;index"` // 0=pending,1=sent,2=failed
	Retry       int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (OutboxEvent) TableName() string { return "outbox" }
