package main

import (
	"github.com/Rashedman4/special-backend/internal/repository/database"
	"github.com/Rashedman4/special-backend/internal/repository/memory"
	"github.com/Rashedman4/special-backend/internal/service"

	"gorm.io/gorm"
)

// stores 各服务使用的存储实现
type stores struct {
	users       service.UserStore
	wallets     service.WalletStore
	communities service.CommunityStore
	members     service.MemberStore
	posts       service.PostStore
	likes       service.LikeStore
	polls       service.PollStore
	events      service.EventStore
	outbox      service.OutboxStore
	reconcile   service.ReconcileStore
}

func dbStores(db *gorm.DB) stores {
	return stores{
		users:       &database.UserRepository{DB: db},
		wallets:     &database.WalletRepository{DB: db},
		communities: &database.CommunityRepository{DB: db},
		members:     &database.CommunityMemberRepository{DB: db},
		posts:       &database.PostRepository{DB: db},
		likes:       &database.PostLikeRepository{DB: db},
		polls:       &database.PollRepository{DB: db},
		events:      &database.EventRepository{DB: db},
		outbox:      &database.OutboxRepository{DB: db},
		reconcile:   &database.CounterReconcilerRepo{DB: db},
	}
}

func memoryStores(m *memory.Store) stores {
	return stores{
		users:       m,
		wallets:     m,
		communities: m,
		members:     m,
		posts:       m,
		likes:       m,
		polls:       m,
		events:      m,
		outbox:      m,
		reconcile:   m,
	}
}
