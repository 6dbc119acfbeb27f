package service

import (
	"context"
	"time"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/pkg"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const outboxMaxRetry = 5

// Sender 投递一条 outbox 事件
type Sender func(ctx context.Context, ob *model.OutboxEvent) error

// OutboxRelayer 从 outbox 表读取事件异步投递到 kafka
type OutboxRelayer struct {
	repo      OutboxStore
	lock      Locker
	batchSize int
	interval  time.Duration
	sender    Sender
}

func NewOutboxRelayer(repo OutboxStore, sender Sender, lock Locker, batchSize int, interval time.Duration) *OutboxRelayer {
	if batchSize <= 0 {
		batchSize = 200
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelayer{
		repo:      repo,
		lock:      lock,
		batchSize: batchSize,
		interval:  interval,
		sender:    sender,
	}
}

// Run outbox启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			withJobLock(ctx, r.lock, "outbox", r.interval, func() { r.DrainOnce(ctx) })
		}
	}
}

// DrainOnce 投递一批，返回成功条数
func (r *OutboxRelayer) DrainOnce(ctx context.Context) int {
	rows, err := r.repo.PendingOutbox(ctx, r.batchSize, outboxMaxRetry)
	if err != nil {
		logrus.WithError(err).Error("outbox query failed")
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"event_id": ob.EventID,
				"type":     ob.EventType,
				"retry":    ob.Retry,
			}).Warn("outbox send failed")
			pkg.ObserveOutbox("failed")
			if uerr := r.repo.MarkOutboxFailed(ctx, ob.ID); uerr != nil {
				logrus.WithError(uerr).Error("outbox mark failed")
			}
			continue
		}
		pkg.ObserveOutbox("sent")
		if uerr := r.repo.MarkOutboxSent(ctx, ob.ID); uerr != nil {
			logrus.WithError(uerr).Error("outbox mark sent")
			continue
		}
		sent++
	}
	return sent
}

// KafkaSender 以聚合 ID 为 key 写入 kafka
func KafkaSender(w *pkg.EventWriter) Sender {
	return func(ctx context.Context, ob *model.OutboxEvent) error {
		return w.Publish(ctx, ob.AggregateID, ob.EventID, ob.EventType, []byte(ob.Payload))
	}
}

// LogSender 没有配置 kafka 时只打日志
func LogSender(_ context.Context, ob *model.OutboxEvent) error {
	logrus.WithFields(logrus.Fields{
		"event_id":     ob.EventID,
		"type":         ob.EventType,
		"aggregate_id": ob.AggregateID,
	}).Info(ob.Payload)
	return nil
}

// withJobLock 多副本部署时每个周期只有一个实例执行；lock 为 nil 时直接执行
func withJobLock(ctx context.Context, lock Locker, name string, ttl time.Duration, fn func()) {
	if lock == nil {
		fn()
		return
	}
	token := uuid.NewString()
	ok, err := lock.Acquire(ctx, name, token, ttl)
	if err != nil {
		logrus.WithError(err).WithField("job", name).Warn("acquire job lock failed")
		return
	}
	if !ok {
		return
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx), name, token); err != nil {
			logrus.WithError(err).WithField("job", name).Warn("release job lock failed")
		}
	}()
	fn()
}
