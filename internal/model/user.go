package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// 字段长度上限，与下面的列定义保持一致
const (
	MaxEmailLen       = 128
	MaxUsernameLen    = 32
	MaxDisplayNameLen = 64
	MaxAvatarURLLen   = 512
)

type User struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:128;not null" json:"email"`
	Username  string    `gorm:"uniqueIndex;size:32;not null" json:"username"`
	Password  string    `gorm:"size:255;not null" json:"-"` // bcrypt hash
	Role      string    `gorm:"size:16;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// Profile 与 User 一对一，注册时一起创建
type Profile struct {
	UserID      uint64    `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	DisplayName string    `gorm:"size:64;not null" json:"display_name"`
	AvatarURL   *string   `gorm:"size:512" json:"avatar_url"`
	Bio         *string   `gorm:"type:text" json:"bio"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// ProfileUpdate 资料修改，nil 字段保持不变
type ProfileUpdate struct {
	DisplayName string
	AvatarURL   *string
	Bio         *string
}

// AuthorSnapshot 帖子、流水等视图里嵌入的用户快照
type AuthorSnapshot struct {
	ID          uint64  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

// UserDetail 用户详情（带钱包余额和发帖数）
type UserDetail struct {
	ID            uint64           `json:"id"`
	Email         string           `json:"email"`
	Username      string           `json:"username"`
	Role          string           `json:"role"`
	CreatedAt     time.Time        `json:"created_at"`
	DisplayName   string           `json:"display_name"`
	AvatarURL     *string          `json:"avatar_url"`
	Bio           *string          `json:"bio"`
	WalletBalance *decimal.Decimal `json:"wallet_balance"`
	PostsCount    int64            `json:"posts_count"`
}
