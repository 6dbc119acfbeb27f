package service

import (
	"context"
	"time"

	"github.com/Rashedman4/special-backend/internal/pkg"

	"github.com/sirupsen/logrus"
)

// CounterReconciler 点赞计数对账，按 id 游标分批，走到末尾后从头开始
type CounterReconciler struct {
	repo      ReconcileStore
	lock      Locker
	batchSize int
	interval  time.Duration
	cursor    uint64
}

func NewCounterReconciler(repo ReconcileStore, lock Locker, batchSize int, interval time.Duration) *CounterReconciler {
	if batchSize <= 0 {
		batchSize = 500
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CounterReconciler{
		repo:      repo,
		lock:      lock,
		batchSize: batchSize,
		interval:  interval,
	}
}

// Run 对账定时任务启动器
func (r *CounterReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			withJobLock(ctx, r.lock, "reconcile", r.interval, func() {
				if _, err := r.ReconcileOnce(ctx); err != nil {
					logrus.WithError(err).Error("reconcile like counts failed")
				}
			})
		}
	}
}

// ReconcileOnce 对账一批，返回修正条数
func (r *CounterReconciler) ReconcileOnce(ctx context.Context) (int, error) {
	rows, err := r.repo.LikeCounts(ctx, r.cursor, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		r.cursor = 0
		return 0, nil
	}

	fixed := 0
	for _, row := range rows {
		if row.LikesCount == row.Actual {
			continue
		}
		if err = r.repo.FixLikeCount(ctx, row.ID, row.Actual); err != nil {
			logrus.WithError(err).WithField("post_id", row.ID).Warn("fix like count failed")
			continue
		}
		logrus.WithFields(logrus.Fields{
			"post_id": row.ID,
			"cached":  row.LikesCount,
			"actual":  row.Actual,
		}).Info("like count drift fixed")
		fixed++
	}
	pkg.ObserveDriftFixed(fixed)

	if len(rows) < r.batchSize {
		r.cursor = 0
	} else {
		r.cursor = rows[len(rows)-1].ID
	}
	return fixed, nil
}
