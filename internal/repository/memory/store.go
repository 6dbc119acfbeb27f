// Package memory 是所有存储接口的进程内实现，用于本地运行和测试。
// 一把读写锁保护全部数据，每个写方法整体持锁，天然满足原子性。
package memory

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Rashedman4/special-backend/internal/model"

	"github.com/google/uuid"
)

type pair struct {
	a, b uint64
}

type Store struct {
	mu  sync.RWMutex
	seq map[string]uint64
	now func() time.Time

	users        map[uint64]model.User
	profiles     map[uint64]model.Profile
	wallets      map[uint64]model.Wallet // key: user_id
	transactions []model.Transaction
	communities  map[uint64]model.Community
	members      map[pair]model.CommunityMember // (community_id, user_id)
	posts        map[uint64]model.Post
	polls        map[uint64]model.Poll
	options      map[uint64]model.PollOption
	votes        map[pair]model.PollVote // (poll_id, user_id)
	events       map[uint64]model.Event
	attendees    map[pair]time.Time // (event_id, user_id)
	likes        map[pair]time.Time // (post_id, user_id)
	outbox       []model.OutboxEvent
}

func New() *Store {
	return &Store{
		seq:         make(map[string]uint64),
		now:         time.Now,
		users:       make(map[uint64]model.User),
		profiles:    make(map[uint64]model.Profile),
		wallets:     make(map[uint64]model.Wallet),
		communities: make(map[uint64]model.Community),
		members:     make(map[pair]model.CommunityMember),
		posts:       make(map[uint64]model.Post),
		polls:       make(map[uint64]model.Poll),
		options:     make(map[uint64]model.PollOption),
		votes:       make(map[pair]model.PollVote),
		events:      make(map[uint64]model.Event),
		attendees:   make(map[pair]time.Time),
		likes:       make(map[pair]time.Time),
	}
}

// SetClock 测试用，替换写入时间
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) nextID(table string) uint64 {
	s.seq[table]++
	return s.seq[table]
}

func (s *Store) appendOutbox(eventType string, aggregateID uint64, data map[string]any) {
	body := map[string]any{"event_time": s.now().UTC().Format(time.RFC3339Nano)}
	for k, v := range data {
		body[k] = v
	}
	payload, _ := json.Marshal(body)
	now := s.now()
	s.outbox = append(s.outbox, model.OutboxEvent{
		ID:          s.nextID("outbox"),
		EventID:     uuid.NewString(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     string(payload),
		Status:      model.OutboxPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *Store) snapshot(userID uint64) model.AuthorSnapshot {
	snap := model.AuthorSnapshot{ID: userID}
	if u, ok := s.users[userID]; ok {
		snap.Username = u.Username
	}
	if p, ok := s.profiles[userID]; ok {
		snap.DisplayName = p.DisplayName
		snap.AvatarURL = p.AvatarURL
	}
	return snap
}
