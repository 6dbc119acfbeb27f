package memory

import (
	"context"
	"sort"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/repository"

	"github.com/shopspring/decimal"
)

func (s *Store) CreateUser(_ context.Context, u *model.User, p *model.Profile, bonus decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	now := s.now()
	u.ID = s.nextID("users")
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = *u

	p.UserID = u.ID
	p.CreatedAt, p.UpdatedAt = now, now
	s.profiles[u.ID] = *p

	s.wallets[u.ID] = model.Wallet{
		ID:        s.nextID("wallets"),
		UserID:    u.ID,
		Balance:   bonus,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (s *Store) FindUser(_ context.Context, id uint64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) HasProfile(_ context.Context, userID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, hasUser := s.users[userID]
	_, hasProfile := s.profiles[userID]
	return hasUser && hasProfile, nil
}

func (s *Store) UserDetail(_ context.Context, id uint64) (*model.UserDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detail(id)
}

func (s *Store) UserDetailByUsername(_ context.Context, username string) (*model.UserDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, u := range s.users {
		if u.Username == username {
			return s.detail(id)
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) detail(id uint64) (*model.UserDetail, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	d := &model.UserDetail{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Bio:         p.Bio,
	}
	if w, ok := s.wallets[id]; ok {
		bal := w.Balance
		d.WalletBalance = &bal
	}
	for _, post := range s.posts {
		if post.AuthorID == id {
			d.PostsCount++
		}
	}
	return d, nil
}

func (s *Store) ListUsers(_ context.Context, excludeID uint64) ([]model.AuthorSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AuthorSnapshot, 0, len(s.users))
	for id := range s.users {
		if id == excludeID {
			continue
		}
		if _, ok := s.profiles[id]; !ok {
			continue
		}
		out = append(out, s.snapshot(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) UpdateProfile(_ context.Context, userID uint64, upd model.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.DisplayName = upd.DisplayName
	if upd.AvatarURL != nil {
		v := *upd.AvatarURL
		p.AvatarURL = &v
	}
	if upd.Bio != nil {
		v := *upd.Bio
		p.Bio = &v
	}
	p.UpdatedAt = s.now()
	s.profiles[userID] = p
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}

	for pid, post := range s.posts {
		if post.AuthorID == id {
			s.deletePost(pid)
		}
	}
	for k := range s.likes {
		if k.b == id {
			delete(s.likes, k)
			if post, ok := s.posts[k.a]; ok && post.LikesCount > 0 {
				post.LikesCount--
				s.posts[k.a] = post
			}
		}
	}
	for k := range s.votes {
		if k.b == id {
			delete(s.votes, k)
		}
	}
	for k := range s.attendees {
		if k.b == id {
			delete(s.attendees, k)
		}
	}
	for k := range s.members {
		if k.b == id {
			delete(s.members, k)
		}
	}
	kept := s.transactions[:0]
	for _, t := range s.transactions {
		if t.FromUserID != id && t.ToUserID != id {
			kept = append(kept, t)
		}
	}
	s.transactions = kept

	delete(s.wallets, id)
	delete(s.profiles, id)
	delete(s.users, id)
	return nil
}
