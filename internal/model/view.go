package model

import "time"

// PostView 对外的帖子结构。公共字段 + 按类型附加的 poll / event 块
type PostView struct {
	ID            uint64         `json:"id"`
	Type          PostType       `json:"type"`
	Content       *string        `json:"content"`
	CreatedAt     time.Time      `json:"created_at"`
	LikesCount    int64          `json:"likes_count"`
	CommentsCount int64          `json:"comments_count"`
	CommunityID   *uint64        `json:"community_id"`
	AuthorID      uint64         `json:"author_id"`
	Author        AuthorSnapshot `json:"profiles"`
	LikedByMe     bool           `json:"liked_by_me"`
	*PollBlock
	*EventBlock
}

type PollBlock struct {
	Question   string        `json:"question"`
	EndsAt     time.Time     `json:"ends_at"`
	Options    []OptionTally `json:"options"`
	TotalVotes int64         `json:"total_votes"`
	UserVote   *uint64       `json:"user_vote"`
}

type EventBlock struct {
	Title          string    `json:"title"`
	Description    *string   `json:"description"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Location       string    `json:"location"`
	AttendeesCount int64     `json:"attendees_count"`
	IsAttending    bool      `json:"is_attending"`
}

// VoteResult 投票后的最新统计
type VoteResult struct {
	UserVote   uint64        `json:"user_vote"`
	Options    []OptionTally `json:"options"`
	TotalVotes int64         `json:"total_votes"`
}

type LikeState struct {
	LikedByMe  bool  `json:"liked_by_me"`
	LikesCount int64 `json:"likes_count"`
}

type AttendState struct {
	AttendeesCount int64 `json:"attendees_count"`
	IsAttending    bool  `json:"is_attending"`
}
