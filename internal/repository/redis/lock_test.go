package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistLockAcquireAndRelease(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	lock := NewDistLock(rdb)
	ctx := context.Background()
	key := LockKeyPrefix + "outbox"

	mock.ExpectSetNX(key, "tok-a", 10*time.Second).SetVal(true)
	mock.ExpectSetNX(key, "tok-b", 10*time.Second).SetVal(false)
	// 释放走脚本，只删除 token 相同的锁
	mock.ExpectEvalSha(releaseScript.Hash(), []string{key}, "tok-a").SetVal(int64(1))

	ok, err := lock.Acquire(ctx, "outbox", "tok-a", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, "outbox", "tok-b", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx, "outbox", "tok-a"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDistLockReleaseLoadsScriptWhenMissing(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	lock := NewDistLock(rdb)
	key := LockKeyPrefix + "reconcile"

	mock.ExpectEvalSha(releaseScript.Hash(), []string{key}, "tok").
		SetErr(errNoScript{})
	mock.ExpectEval(releaseScriptSrc, []string{key}, "tok").SetVal(int64(0))

	require.NoError(t, lock.Release(context.Background(), "reconcile", "tok"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

type errNoScript struct{}

func (errNoScript) Error() string { return "NOSCRIPT No matching script. Please use EVAL." }

func (errNoScript) RedisError() {}
