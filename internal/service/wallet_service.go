package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/pkg"
	"github.com/Rashedman4/special-backend/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type WalletService struct {
	wallets WalletStore
	idem    IdempotencyStore
}

func NewWalletService(wallets WalletStore, idem IdempotencyStore) *WalletService {
	return &WalletService{wallets: wallets, idem: idem}
}

type TransferInput struct {
	FromUserID     uint64
	ToUserID       uint64
	Amount         decimal.Decimal
	Description    string
	IdempotencyKey string
}

func (s *WalletService) Wallet(ctx context.Context, userID uint64) (*model.Wallet, error) {
	if userID == 0 {
		return nil, pkg.InvalidArgument("Invalid user id")
	}
	w, err := s.wallets.FindWallet(ctx, userID)
	if errors.Is(err, repository.ErrWalletNotFound) {
		return nil, pkg.NotFound("Wallet not found")
	}
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return w, nil
}

func (s *WalletService) Transactions(ctx context.Context, userID uint64) ([]model.TransactionView, error) {
	if userID == 0 {
		return nil, pkg.InvalidArgument("Invalid user id")
	}
	list, err := s.wallets.ListTransactions(ctx, userID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	return list, nil
}

// Transfer 校验后交给存储层原子执行。replayed=true 表示命中幂等键，返回的是之前那笔流水
func (s *WalletService) Transfer(ctx context.Context, in TransferInput) (txn *model.Transaction, replayed bool, err error) {
	if in.FromUserID == 0 || in.ToUserID == 0 || !in.Amount.IsPositive() {
		return nil, false, pkg.InvalidArgument("Invalid transfer data")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return nil, false, pkg.InvalidArgument("Amount supports at most 2 decimal places")
	}
	if in.FromUserID == in.ToUserID {
		return nil, false, pkg.InvalidArgument("Cannot transfer to the same user")
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" && s.idem != nil {
		if prev, found, rerr := s.replay(ctx, key); rerr != nil || found {
			return prev, found, rerr
		}
		ok, rerr := s.idem.Reserve(ctx, key)
		if rerr != nil {
			return nil, false, pkg.Internal(rerr)
		}
		if !ok {
			return nil, false, pkg.Conflict("A transfer with this idempotency key is in progress")
		}
		defer func() {
			if err != nil {
				_ = s.idem.Release(ctx, key)
				return
			}
			if rerr := s.idem.Remember(ctx, key, txn.ID); rerr != nil {
				logrus.WithError(rerr).WithField("key", key).Warn("remember idempotency key failed")
			}
		}()
	}

	var desc *string
	if d := strings.TrimSpace(in.Description); d != "" {
		desc = &d
	}
	txn, err = s.wallets.Transfer(ctx, model.TransferParams{
		FromUserID:  in.FromUserID,
		ToUserID:    in.ToUserID,
		Amount:      in.Amount,
		Description: desc,
	})
	switch {
	case err == nil:
		pkg.ObserveTransfer("ok")
		return txn, false, nil
	case errors.Is(err, repository.ErrWalletNotFound):
		pkg.ObserveTransfer("not_found")
		return nil, false, pkg.NotFound("Wallet not found")
	case errors.Is(err, repository.ErrInsufficientBalance):
		pkg.ObserveTransfer("insufficient")
		return nil, false, pkg.FailedPrecondition("Insufficient balance")
	default:
		pkg.ObserveTransfer("error")
		return nil, false, pkg.Internal(err)
	}
}

func (s *WalletService) replay(ctx context.Context, key string) (*model.Transaction, bool, error) {
	txID, found, err := s.idem.Lookup(ctx, key)
	if err != nil {
		return nil, false, pkg.Internal(err)
	}
	if !found {
		return nil, false, nil
	}
	txn, err := s.wallets.FindTransaction(ctx, txID)
	if err != nil {
		return nil, false, pkg.Internal(err)
	}
	return txn, true, nil
}
