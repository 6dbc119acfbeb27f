package memory

import (
	"context"
	"sort"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/repository"
)

func (s *Store) FindWallet(_ context.Context, userID uint64) (*model.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[userID]
	if !ok {
		return nil, repository.ErrWalletNotFound
	}
	return &w, nil
}

func (s *Store) Transfer(_ context.Context, p model.TransferParams) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.wallets[p.FromUserID]
	if !ok {
		return nil, repository.ErrWalletNotFound
	}
	to, ok := s.wallets[p.ToUserID]
	if !ok {
		return nil, repository.ErrWalletNotFound
	}
	if from.Balance.LessThan(p.Amount) {
		return nil, repository.ErrInsufficientBalance
	}

	now := s.now()
	from.Balance = from.Balance.Sub(p.Amount)
	from.UpdatedAt = now
	to.Balance = to.Balance.Add(p.Amount)
	to.UpdatedAt = now
	s.wallets[p.FromUserID] = from
	s.wallets[p.ToUserID] = to

	txn := model.Transaction{
		ID:          s.nextID("transactions"),
		FromUserID:  p.FromUserID,
		ToUserID:    p.ToUserID,
		Amount:      p.Amount,
		Description: p.Description,
		CreatedAt:   now,
	}
	s.transactions = append(s.transactions, txn)
	s.appendOutbox(model.EventTransferCompleted, txn.ID, map[string]any{
		"from_user_id": p.FromUserID,
		"to_user_id":   p.ToUserID,
		"amount":       p.Amount.StringFixed(2),
	})
	return &txn, nil
}

func (s *Store) FindTransaction(_ context.Context, id uint64) (*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.transactions {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, userID uint64) ([]model.TransactionView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.TransactionView, 0)
	for _, t := range s.transactions {
		if t.FromUserID != userID && t.ToUserID != userID {
			continue
		}
		out = append(out, model.TransactionView{
			Transaction: t,
			FromUser:    s.snapshot(t.FromUserID),
			ToUser:      s.snapshot(t.ToUserID),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
