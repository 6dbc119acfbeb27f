package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRelayerDeliversAndRetries(t *testing.T) {
	e := newEnv(t, true)
	owner := e.user(t, "owner", "100")
	e.community(t, owner, "first", 0)
	e.community(t, owner, "second", 0)

	var delivered []string
	failFirst := true
	sender := func(_ context.Context, ob *model.OutboxEvent) error {
		if failFirst {
			failFirst = false
			return errors.New("broker down")
		}
		delivered = append(delivered, ob.EventID)
		return nil
	}
	relayer := service.NewOutboxRelayer(e.store, sender, nil, 10, time.Second)

	assert.Equal(t, 1, relayer.DrainOnce(ctx()))
	events := e.store.Outbox()
	require.Len(t, events, 2)
	assert.Equal(t, model.OutboxFailed, events[0].Status)
	assert.Equal(t, 1, events[0].Retry)
	assert.Equal(t, model.OutboxSent, events[1].Status)

	// 失败的事件下一轮重试
	assert.Equal(t, 1, relayer.DrainOnce(ctx()))
	assert.Equal(t, model.OutboxSent, e.store.Outbox()[0].Status)
	assert.Len(t, delivered, 2)

	assert.Equal(t, 0, relayer.DrainOnce(ctx()))
}

func TestOutboxRelayerGivesUpAfterMaxRetry(t *testing.T) {
	e := newEnv(t, true)
	owner := e.user(t, "owner", "100")
	e.community(t, owner, "c", 0)

	calls := 0
	sender := func(context.Context, *model.OutboxEvent) error {
		calls++
		return errors.New("always fails")
	}
	relayer := service.NewOutboxRelayer(e.store, sender, nil, 10, time.Second)
	for i := 0; i < 10; i++ {
		relayer.DrainOnce(ctx())
	}
	assert.Equal(t, 5, calls)
	assert.Equal(t, 5, e.store.Outbox()[0].Retry)
}

// fakeLock 记录加锁情况的 Locker
type fakeLock struct {
	held     map[string]string
	acquired int
}

func (l *fakeLock) Acquire(_ context.Context, name, token string, _ time.Duration) (bool, error) {
	if _, ok := l.held[name]; ok {
		return false, nil
	}
	l.held[name] = token
	l.acquired++
	return true, nil
}

func (l *fakeLock) Release(_ context.Context, name, token string) error {
	if l.held[name] == token {
		delete(l.held, name)
	}
	return nil
}

func TestOutboxRelayerRunHonoursLock(t *testing.T) {
	e := newEnv(t, true)
	owner := e.user(t, "owner", "100")
	e.community(t, owner, "c", 0)

	lock := &fakeLock{held: map[string]string{"outbox": "someone-else"}}
	sent := make(chan struct{}, 1)
	sender := func(context.Context, *model.OutboxEvent) error {
		sent <- struct{}{}
		return nil
	}
	relayer := service.NewOutboxRelayer(e.store, sender, lock, 10, 10*time.Millisecond)

	runCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	relayer.Run(runCtx)

	// 锁被其他实例持有，本实例不投递
	assert.Len(t, sent, 0)
	assert.Equal(t, model.OutboxPending, e.store.Outbox()[0].Status)
}
