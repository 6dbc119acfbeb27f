package model

import "time"

type PostType string

const (
	PostTypePlain PostType = "post"
	PostTypePoll  PostType = "poll"
	PostTypeEvent PostType = "event"
)

const (
	MaxPollOptionLen    = 255
	MaxEventTitleLen    = 200
	MaxEventLocationLen = 255
)

// ParsePostType 空值默认为普通帖子
func ParsePostType(s string) (PostType, bool) {
	switch PostType(s) {
	case "", PostTypePlain:
		return PostTypePlain, true
	case PostTypePoll:
		return PostTypePoll, true
	case PostTypeEvent:
		return PostTypeEvent, true
	}
	return "", false
}

type Post struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	AuthorID      uint64    `gorm:"not null;index:idx_author_time,priority:1" json:"author_id"`
	CommunityID   *uint64   `gorm:"index:idx_community_time,priority:1" json:"community_id"`
	Type          PostType  `gorm:"size:16;not null" json:"type"`
	Content       *string   `gorm:"type:text" json:"content"`
	LikesCount    int64     `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount int64     `gorm:"not null;default:0" json:"comments_count"`
	CreatedAt     time.Time `gorm:"index:idx_author_time,priority:2;index:idx_community_time,priority:2;index" json:"created_at"`
	UpdatedAt     time.Time `json:"-"`
}

// Poll 投票扩展表，主键即帖子 ID
type Poll struct {
	PostID   uint64    `gorm:"primaryKey;autoIncrement:false"`
	Question string    `gorm:"type:text;not null"`
	EndsAt   time.Time `gorm:"not null"`
}

type PollOption struct {
	ID     uint64 `gorm:"primaryKey"`
	PollID uint64 `gorm:"not null;index"`
	Text   string `gorm:"size:255;not null"`
}

// PollVote 每个用户每个投票只能有一行
type PollVote struct {
	PollID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	OptionID  uint64 `gorm:"not null;index"`
	CreatedAt time.Time
}

// Event 活动扩展表，主键即帖子 ID
type Event struct {
	PostID      uint64    `gorm:"primaryKey;autoIncrement:false"`
	Title       string    `gorm:"size:200;not null"`
	Description *string   `gorm:"type:text"`
	Location    string    `gorm:"size:255;not null"`
	StartDate   time.Time `gorm:"not null"`
	EndDate     time.Time `gorm:"not null"`
}

type EventAttendee struct {
	EventID   uint64 `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint64 `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}

// PostBody 帖子内容的类型变体：PlainBody | PollBody | EventBody。
// 类型决定扩展表，创建后不可变。
type PostBody interface {
	Type() PostType
}

type PlainBody struct {
	Content string
}

type PollBody struct {
	Question string
	Options  []string
	EndsAt   time.Time
}

type EventBody struct {
	Title       string
	Description *string
	Location    string
	StartDate   time.Time
	EndDate     time.Time
}

func (PlainBody) Type() PostType { return PostTypePlain }
func (PollBody) Type() PostType  { return PostTypePoll }
func (EventBody) Type() PostType { return PostTypeEvent }

// NewPost 创建帖子的入参
type NewPost struct {
	AuthorID    uint64
	CommunityID *uint64
	Body        PostBody
}

// PostFilter 列表过滤条件。CommunityID 为 nil 表示只看公共帖子
type PostFilter struct {
	AuthorID    *uint64
	CommunityID *uint64
	Limit       int
}

// PostRow 帖子列表查询的扁平行，连带作者快照和扩展字段
type PostRow struct {
	ID                uint64
	AuthorID          uint64
	CommunityID       *uint64
	Type              PostType
	Content           *string
	LikesCount        int64
	CommentsCount     int64
	CreatedAt         time.Time
	AuthorUsername    string
	AuthorDisplayName string
	AuthorAvatarURL   *string
	Question          *string
	EndsAt            *time.Time
	Title             *string
	Description       *string
	Location          *string
	StartDate         *time.Time
	EndDate           *time.Time
}

// OptionTally 选项及其票数
type OptionTally struct {
	ID     uint64 `json:"id"`
	PollID uint64 `json:"-"`
	Text   string `json:"text"`
	Votes  int64  `json:"votes"`
}
