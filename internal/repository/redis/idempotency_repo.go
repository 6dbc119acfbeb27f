package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	IdemKeyPrefix  = "idem:transfer:"
	IdemPending    = "pending"
	IdemPendingTTL = 30 * time.Second
	IdemDoneTTL    = 24 * time.Hour
)

// IdempotencyRepository 转账幂等键：pending 表示处理中，数字表示已完成的流水 ID
type IdempotencyRepository struct {
	RDB *redis.Client
}

func NewIdempotencyRepository(rdb *redis.Client) *IdempotencyRepository {
	return &IdempotencyRepository{RDB: rdb}
}

// Lookup 返回键已绑定的流水 ID
func (r *IdempotencyRepository) Lookup(ctx context.Context, key string) (uint64, bool, error) {
	val, err := r.RDB.Get(ctx, IdemKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if val == IdemPending {
		return 0, false, nil
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Reserve 占用键，已被占用返回 false
func (r *IdempotencyRepository) Reserve(ctx context.Context, key string) (bool, error) {
	return r.RDB.SetNX(ctx, IdemKeyPrefix+key, IdemPending, IdemPendingTTL).Result()
}

func (r *IdempotencyRepository) Remember(ctx context.Context, key string, txID uint64) error {
	return r.RDB.Set(ctx, IdemKeyPrefix+key, strconv.FormatUint(txID, 10), IdemDoneTTL).Err()
}

func (r *IdempotencyRepository) Release(ctx context.Context, key string) error {
	return r.RDB.Del(ctx, IdemKeyPrefix+key).Err()
}
