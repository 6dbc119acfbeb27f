package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Rashedman4/special-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Open 按驱动打开数据库并设置连接池
func Open(opt Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opt.Driver {
	case "postgres":
		dialector = postgres.Open(opt.DSN)
	case "mysql":
		dialector = mysql.Open(opt.DSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", opt.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opt.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(opt.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opt.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opt.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(opt.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", opt.Driver, err)
	}
	return db, nil
}

// Migrate 自动建表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Wallet{},
		&model.Transaction{},
		&model.Community{},
		&model.CommunityMember{},
		&model.Post{},
		&model.Poll{},
		&model.PollOption{},
		&model.PollVote{},
		&model.Event{},
		&model.EventAttendee{},
		&model.PostLike{},
		&model.OutboxEvent{},
	)
}

// Close 关闭底层连接
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// insertOutbox 在当前事务中写入一条领域事件
func insertOutbox(tx *gorm.DB, eventType string, aggregateID uint64, data map[string]any) error {
	body := map[string]any{"event_time": time.Now().UTC().Format(time.RFC3339Nano)}
	for k, v := range data {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tx.Create(&model.OutboxEvent{
		EventID:     uuid.NewString(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     string(payload),
		Status:      model.OutboxPending,
	}).Error
}
