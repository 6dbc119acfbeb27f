package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/repository"
)

func (s *Store) CreatePost(_ context.Context, np model.NewPost) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	post := model.Post{
		ID:          s.nextID("posts"),
		AuthorID:    np.AuthorID,
		CommunityID: np.CommunityID,
		Type:        np.Body.Type(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch b := np.Body.(type) {
	case model.PlainBody:
		content := b.Content
		post.Content = &content
	case model.PollBody:
		s.polls[post.ID] = model.Poll{PostID: post.ID, Question: b.Question, EndsAt: b.EndsAt}
		for _, text := range b.Options {
			id := s.nextID("poll_options")
			s.options[id] = model.PollOption{ID: id, PollID: post.ID, Text: text}
		}
	case model.EventBody:
		s.events[post.ID] = model.Event{
			PostID:      post.ID,
			Title:       b.Title,
			Description: b.Description,
			Location:    b.Location,
			StartDate:   b.StartDate,
			EndDate:     b.EndDate,
		}
	default:
		return 0, fmt.Errorf("unknown post body %T", np.Body)
	}

	s.posts[post.ID] = post
	s.appendOutbox(model.EventPostCreated, post.ID, map[string]any{
		"author_id":    np.AuthorID,
		"community_id": np.CommunityID,
		"type":         post.Type,
	})
	return post.ID, nil
}

func (s *Store) FindPost(_ context.Context, id uint64) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, repository.ErrPostNotFound
	}
	return &p, nil
}

func (s *Store) row(p model.Post) model.PostRow {
	snap := s.snapshot(p.AuthorID)
	r := model.PostRow{
		ID:                p.ID,
		AuthorID:          p.AuthorID,
		CommunityID:       p.CommunityID,
		Type:              p.Type,
		Content:           p.Content,
		LikesCount:        p.LikesCount,
		CommentsCount:     p.CommentsCount,
		CreatedAt:         p.CreatedAt,
		AuthorUsername:    snap.Username,
		AuthorDisplayName: snap.DisplayName,
		AuthorAvatarURL:   snap.AvatarURL,
	}
	if poll, ok := s.polls[p.ID]; ok {
		q, ends := poll.Question, poll.EndsAt
		r.Question, r.EndsAt = &q, &ends
	}
	if e, ok := s.events[p.ID]; ok {
		title, loc, start, end := e.Title, e.Location, e.StartDate, e.EndDate
		r.Title, r.Location, r.StartDate, r.EndDate = &title, &loc, &start, &end
		r.Description = e.Description
	}
	return r
}

func (s *Store) PostRow(_ context.Context, id uint64) (*model.PostRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, repository.ErrPostNotFound
	}
	r := s.row(p)
	return &r, nil
}

func (s *Store) ListPostRows(_ context.Context, f model.PostFilter) ([]model.PostRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]model.Post, 0)
	for _, p := range s.posts {
		if f.AuthorID != nil && p.AuthorID != *f.AuthorID {
			continue
		}
		if f.CommunityID == nil {
			if p.CommunityID != nil {
				continue
			}
		} else if p.CommunityID == nil || *p.CommunityID != *f.CommunityID {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}

	out := make([]model.PostRow, 0, len(matched))
	for _, p := range matched {
		out = append(out, s.row(p))
	}
	return out, nil
}

func (s *Store) DeletePost(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return repository.ErrPostNotFound
	}
	s.deletePost(id)
	s.appendOutbox(model.EventPostDeleted, id, map[string]any{"author_id": p.AuthorID})
	return nil
}

// deletePost 删除帖子及其所有子数据，调用方持写锁
func (s *Store) deletePost(id uint64) {
	for k := range s.votes {
		if k.a == id {
			delete(s.votes, k)
		}
	}
	for oid, o := range s.options {
		if o.PollID == id {
			delete(s.options, oid)
		}
	}
	delete(s.polls, id)
	for k := range s.attendees {
		if k.a == id {
			delete(s.attendees, k)
		}
	}
	delete(s.events, id)
	for k := range s.likes {
		if k.a == id {
			delete(s.likes, k)
		}
	}
	delete(s.posts, id)
}
