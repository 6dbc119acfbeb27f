package memory

import (
	"context"
	"sort"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/repository"
)

func (s *Store) CreateCommunity(_ context.Context, c *model.Community) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.communities {
		if existing.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	now := s.now()
	c.ID = s.nextID("communities")
	c.CreatedAt, c.UpdatedAt = now, now
	s.communities[c.ID] = *c
	s.members[pair{c.ID, c.CreatorID}] = model.CommunityMember{
		CommunityID: c.ID,
		UserID:      c.CreatorID,
		Role:        model.MemberRoleOwner,
		CreatedAt:   now,
	}
	s.appendOutbox(model.EventCommunityCreated, c.ID, map[string]any{"creator_id": c.CreatorID, "name": c.Name})
	return nil
}

func (s *Store) FindCommunity(_ context.Context, id uint64) (*model.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.communities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *Store) view(c model.Community, viewerID uint64) model.CommunityView {
	v := model.CommunityView{Community: c}
	for k := range s.members {
		if k.a == c.ID {
			v.MembersCount++
		}
	}
	_, v.IsMember = s.members[pair{c.ID, viewerID}]
	return v
}

func (s *Store) CommunityView(_ context.Context, id, viewerID uint64) (*model.CommunityView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.communities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	v := s.view(c, viewerID)
	return &v, nil
}

func (s *Store) ListCommunities(_ context.Context, viewerID uint64) ([]model.CommunityView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CommunityView, 0, len(s.communities))
	for _, c := range s.communities {
		if c.Status == model.CommunityActive {
			out = append(out, s.view(c, viewerID))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateCommunityStatus(_ context.Context, id uint64, status string) (*model.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.communities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = s.now()
	s.communities[id] = c
	s.appendOutbox(model.EventCommunityStatusChanged, id, map[string]any{"status": status})
	return &c, nil
}

func (s *Store) JoinCommunity(_ context.Context, m *model.CommunityMember) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pair{m.CommunityID, m.UserID}
	if _, ok := s.members[k]; ok {
		return false, nil
	}
	m.CreatedAt = s.now()
	s.members[k] = *m
	s.appendOutbox(model.EventCommunityJoined, m.CommunityID, map[string]any{"user_id": m.UserID})
	return true, nil
}

func (s *Store) FindMember(_ context.Context, communityID, userID uint64) (*model.CommunityMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[pair{communityID, userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *Store) LeaveCommunity(_ context.Context, communityID, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pair{communityID, userID}
	if _, ok := s.members[k]; !ok {
		return nil
	}
	delete(s.members, k)
	s.appendOutbox(model.EventCommunityLeft, communityID, map[string]any{"user_id": userID})
	return nil
}

func (s *Store) IsMember(_ context.Context, communityID, userID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[pair{communityID, userID}]
	return ok, nil
}
