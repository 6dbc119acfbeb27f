package memory

import (
	"context"
	"sort"

	"github.com/Rashedman4/special-backend/internal/model"
)

func (s *Store) PendingOutbox(_ context.Context, batchSize, maxRetry int) ([]model.OutboxEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.OutboxEvent, 0)
	for _, ob := range s.outbox {
		if ob.Status == model.OutboxPending || (ob.Status == model.OutboxFailed && ob.Retry < maxRetry) {
			out = append(out, ob)
			if len(out) == batchSize {
				break
			}
		}
	}
	return out, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, id uint64) error {
	return s.updateOutbox(id, func(ob *model.OutboxEvent) { ob.Status = model.OutboxSent })
}

func (s *Store) MarkOutboxFailed(_ context.Context, id uint64) error {
	return s.updateOutbox(id, func(ob *model.OutboxEvent) {
		ob.Status = model.OutboxFailed
		ob.Retry++
	})
}

func (s *Store) updateOutbox(id uint64, fn func(*model.OutboxEvent)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].ID == id {
			fn(&s.outbox[i])
			s.outbox[i].UpdatedAt = s.now()
			return nil
		}
	}
	return nil
}

// Outbox 当前全部事件的副本
func (s *Store) Outbox() []model.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.OutboxEvent(nil), s.outbox...)
}

func (s *Store) LikeCounts(_ context.Context, afterID uint64, batchSize int) ([]model.LikeCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actual := make(map[uint64]int64)
	for k := range s.likes {
		actual[k.a]++
	}
	out := make([]model.LikeCount, 0)
	for id, p := range s.posts {
		if id > afterID {
			out = append(out, model.LikeCount{ID: id, LikesCount: p.LikesCount, Actual: actual[id]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > batchSize {
		out = out[:batchSize]
	}
	return out, nil
}

func (s *Store) FixLikeCount(_ context.Context, postID uint64, actual int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[postID]; ok {
		p.LikesCount = actual
		s.posts[postID] = p
	}
	return nil
}
