package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Wallet struct {
	ID        uint64          `gorm:"primaryKey" json:"id"`
	UserID    uint64          `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Transaction 转账流水，只追加不修改
type Transaction struct {
	ID          uint64          `gorm:"primaryKey" json:"id"`
	FromUserID  uint64          `gorm:"not null;index" json:"from_user_id"`
	ToUserID    uint64          `gorm:"not null;index" json:"to_user_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Description *string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
}

type TransferParams struct {
	FromUserID  uint64
	ToUserID    uint64
	Amount      decimal.Decimal
	Description *string
}

// TransactionView 流水列表项，附带双方用户快照
type TransactionView struct {
	Transaction
	FromUser AuthorSnapshot `json:"from_user"`
	ToUser   AuthorSnapshot `json:"to_user"`
}
