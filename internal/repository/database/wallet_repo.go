package database

import (
	"context"
	"errors"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WalletRepository struct {
	DB *gorm.DB
}

func (r *WalletRepository) FindWallet(ctx context.Context, userID uint64) (*model.Wallet, error) {
	var w model.Wallet
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Transfer 在一个事务里完成扣款、入账和记流水。
// 两个钱包按 user_id 升序加行锁，反向并发转账不会互相死锁。
func (r *WalletRepository) Transfer(ctx context.Context, p model.TransferParams) (*model.Transaction, error) {
	var txn *model.Transaction
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		first, second := p.FromUserID, p.ToUserID
		if first > second {
			first, second = second, first
		}

		locked := make(map[uint64]model.Wallet, 2)
		for _, uid := range []uint64{first, second} {
			var rows []model.Wallet
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ?", uid).
				Find(&rows).Error; err != nil {
				return err
			}
			if len(rows) == 0 {
				return repository.ErrWalletNotFound
			}
			locked[uid] = rows[0]
		}

		if locked[p.FromUserID].Balance.LessThan(p.Amount) {
			return repository.ErrInsufficientBalance
		}

		if err := tx.Model(&model.Wallet{}).
			Where("user_id = ?", p.FromUserID).
			UpdateColumn("balance", gorm.Expr("balance - ?", p.Amount)).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Wallet{}).
			Where("user_id = ?", p.ToUserID).
			UpdateColumn("balance", gorm.Expr("balance + ?", p.Amount)).Error; err != nil {
			return err
		}

		txn = &model.Transaction{
			FromUserID:  p.FromUserID,
			ToUserID:    p.ToUserID,
			Amount:      p.Amount,
			Description: p.Description,
		}
		if err := tx.Create(txn).Error; err != nil {
			return err
		}

		return insertOutbox(tx, model.EventTransferCompleted, txn.ID, map[string]any{
			"from_user_id": p.FromUserID,
			"to_user_id":   p.ToUserID,
			"amount":       p.Amount.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *WalletRepository) FindTransaction(ctx context.Context, id uint64) (*model.Transaction, error) {
	var t model.Transaction
	err := r.DB.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type transactionRow struct {
	model.Transaction
	FromUsername    string
	FromDisplayName string
	FromAvatarURL   *string
	ToUsername      string
	ToDisplayName   string
	ToAvatarURL     *string
}

// ListTransactions 用户收支流水，新的在前
func (r *WalletRepository) ListTransactions(ctx context.Context, userID uint64) ([]model.TransactionView, error) {
	var rows []transactionRow
	err := r.DB.WithContext(ctx).
		Table("transactions t").
		Select(`t.*,
			fu.username AS from_username, fp.display_name AS from_display_name, fp.avatar_url AS from_avatar_url,
			tu.username AS to_username, tp.display_name AS to_display_name, tp.avatar_url AS to_avatar_url`).
		Joins("JOIN users fu ON fu.id = t.from_user_id").
		Joins("JOIN profiles fp ON fp.user_id = t.from_user_id").
		Joins("JOIN users tu ON tu.id = t.to_user_id").
		Joins("JOIN profiles tp ON tp.user_id = t.to_user_id").
		Where("t.from_user_id = ? OR t.to_user_id = ?", userID, userID).
		Order("t.created_at DESC").Order("t.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]model.TransactionView, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.TransactionView{
			Transaction: row.Transaction,
			FromUser: model.AuthorSnapshot{
				ID: row.FromUserID, Username: row.FromUsername,
				DisplayName: row.FromDisplayName, AvatarURL: row.FromAvatarURL,
			},
			ToUser: model.AuthorSnapshot{
				ID: row.ToUserID, Username: row.ToUsername,
				DisplayName: row.ToDisplayName, AvatarURL: row.ToAvatarURL,
			},
		})
	}
	return out, nil
}
