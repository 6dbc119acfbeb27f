package model

import "time"

const (
	CommunityActive   = "active"
	CommunityLocked   = "locked"
	CommunityDisabled = "disabled"
)

// MaxCommunityNameLen 对应 name 列长度
const MaxCommunityNameLen = 64

const (
	MemberRoleOwner  = "owner"
	MemberRoleMember = "member"
)

// ValidCommunityStatus 判断社区状态是否合法
func ValidCommunityStatus(s string) bool {
	switch s {
	case CommunityActive, CommunityLocked, CommunityDisabled:
		return true
	}
	return false
}

type Community struct {
	ID                 uint64    `gorm:"primaryKey" json:"id"`
	Name               string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description        *string   `gorm:"type:text" json:"description"`
	CreatorID          uint64    `gorm:"not null;index" json:"creator_id"`
	MinCreditsRequired int64     `gorm:"not null;default:0" json:"min_credits_required"`
	Status             string    `gorm:"size:16;not null;index" json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"-"`
}

// CommunityMember 复合主键 (community_id, user_id)，一对只有一行
type CommunityMember struct {
	CommunityID uint64    `gorm:"primaryKey;autoIncrement:false" json:"community_id"`
	UserID      uint64    `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	Role        string    `gorm:"size:16;not null" json:"role"`
	CreatedAt   time.Time `json:"joined_at"`
}

// CommunityView 社区列表/详情视图
type CommunityView struct {
	Community
	MembersCount int64 `json:"members_count"`
	IsMember     bool  `json:"is_member"`
}
