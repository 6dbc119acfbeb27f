package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/pkg"
	"github.com/Rashedman4/special-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferMovesFundsAndRecordsTransaction(t *testing.T) {
	e := newEnv(t, true)
	alice := e.user(t, "alice", "100")
	bob := e.user(t, "bob", "30")

	txn, replayed, err := e.wallets.Transfer(ctx(), service.TransferInput{
		FromUserID:  alice,
		ToUserID:    bob,
		Amount:      dec("25.50"),
		Description: "  lunch  ",
	})
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, alice, txn.FromUserID)
	assert.Equal(t, bob, txn.ToUserID)
	assert.True(t, txn.Amount.Equal(dec("25.5")))
	require.NotNil(t, txn.Description)
	assert.Equal(t, "lunch", *txn.Description)

	assert.True(t, e.balance(t, alice).Equal(dec("74.50")))
	assert.True(t, e.balance(t, bob).Equal(dec("55.50")))

	list, err := e.wallets.Transactions(ctx(), bob)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].FromUser.Username)
	assert.Equal(t, "bob", list[0].ToUser.Username)
}

func TestTransferConservesTotalUnderConcurrency(t *testing.T) {
	e := newEnv(t, true)
	a := e.user(t, "a", "100")
	b := e.user(t, "b", "100")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, _ = e.wallets.Transfer(context.Background(), service.TransferInput{FromUserID: a, ToUserID: b, Amount: dec("7")})
		}()
		go func() {
			defer wg.Done()
			_, _, _ = e.wallets.Transfer(context.Background(), service.TransferInput{FromUserID: b, ToUserID: a, Amount: dec("3")})
		}()
	}
	wg.Wait()

	balA, balB := e.balance(t, a), e.balance(t, b)
	assert.True(t, balA.Add(balB).Equal(dec("200")))
	assert.False(t, balA.IsNegative())
	assert.False(t, balB.IsNegative())
}

func TestTransferRejections(t *testing.T) {
	e := newEnv(t, true)
	alice := e.user(t, "alice", "10")
	bob := e.user(t, "bob", "0")

	cases := []struct {
		name string
		in   service.TransferInput
		kind pkg.Kind
		msg  string
	}{
		{"zero amount", service.TransferInput{FromUserID: alice, ToUserID: bob, Amount: dec("0")}, pkg.KindInvalidArgument, "Invalid transfer data"},
		{"negative amount", service.TransferInput{FromUserID: alice, ToUserID: bob, Amount: dec("-1")}, pkg.KindInvalidArgument, "Invalid transfer data"},
		{"missing sender", service.TransferInput{ToUserID: bob, Amount: dec("1")}, pkg.KindInvalidArgument, "Invalid transfer data"},
		{"too many decimals", service.TransferInput{FromUserID: alice, ToUserID: bob, Amount: dec("1.001")}, pkg.KindInvalidArgument, "Amount supports at most 2 decimal places"},
		{"same user", service.TransferInput{FromUserID: alice, ToUserID: alice, Amount: dec("1")}, pkg.KindInvalidArgument, "Cannot transfer to the same user"},
		{"unknown receiver", service.TransferInput{FromUserID: alice, ToUserID: 999, Amount: dec("1")}, pkg.KindNotFound, "Wallet not found"},
		{"insufficient", service.TransferInput{FromUserID: alice, ToUserID: bob, Amount: dec("10.01")}, pkg.KindFailedPrecondition, "Insufficient balance"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := e.wallets.Transfer(ctx(), tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.kind, kindOf(err))
			assert.Equal(t, tc.msg, messageOf(err))
		})
	}

	// 失败的转账不改变余额，也不产生流水
	assert.True(t, e.balance(t, alice).Equal(dec("10")))
	assert.True(t, e.balance(t, bob).Equal(dec("0")))
	list, err := e.wallets.Transactions(ctx(), alice)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTransferWritesOutboxEvent(t *testing.T) {
	e := newEnv(t, true)
	alice := e.user(t, "alice", "100")
	bob := e.user(t, "bob", "0")

	txn, _, err := e.wallets.Transfer(ctx(), service.TransferInput{FromUserID: alice, ToUserID: bob, Amount: dec("1")})
	require.NoError(t, err)

	events := e.store.Outbox()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventTransferCompleted, events[0].EventType)
	assert.Equal(t, txn.ID, events[0].AggregateID)
	assert.Contains(t, events[0].Payload, `"amount":"1.00"`)
}

func TestWalletNotFound(t *testing.T) {
	e := newEnv(t, true)
	_, err := e.wallets.Wallet(ctx(), 404)
	assert.Equal(t, pkg.KindNotFound, kindOf(err))
	assert.Equal(t, "Wallet not found", messageOf(err))
}

// fakeIdem 内存版幂等键存储
type fakeIdem struct {
	mu       sync.Mutex
	pending  map[string]bool
	bound    map[string]uint64
	released []string
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{pending: map[string]bool{}, bound: map[string]uint64{}}
}

func (f *fakeIdem) Lookup(_ context.Context, key string) (uint64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.bound[key]
	return id, ok, nil
}

func (f *fakeIdem) Reserve(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending[key] {
		return false, nil
	}
	if _, ok := f.bound[key]; ok {
		return false, nil
	}
	f.pending[key] = true
	return true, nil
}

func (f *fakeIdem) Remember(_ context.Context, key string, txID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, key)
	f.bound[key] = txID
	return nil
}

func (f *fakeIdem) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, key)
	f.released = append(f.released, key)
	return nil
}

func TestTransferIdempotencyKeyReplays(t *testing.T) {
	e := newEnv(t, true)
	idem := newFakeIdem()
	wallets := service.NewWalletService(e.store, idem)
	alice := e.user(t, "alice", "100")
	bob := e.user(t, "bob", "0")

	in := service.TransferInput{FromUserID: alice, ToUserID: bob, Amount: dec("10"), IdempotencyKey: "k-1"}
	first, replayed, err := wallets.Transfer(ctx(), in)
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := wallets.Transfer(ctx(), in)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)

	assert.True(t, e.balance(t, alice).Equal(dec("90")))
	assert.True(t, e.balance(t, bob).Equal(dec("10")))
}

func TestTransferIdempotencyKeyReleasedOnFailure(t *testing.T) {
	e := newEnv(t, true)
	idem := newFakeIdem()
	wallets := service.NewWalletService(e.store, idem)
	alice := e.user(t, "alice", "5")
	bob := e.user(t, "bob", "0")

	in := service.TransferInput{FromUserID: alice, ToUserID: bob, Amount: dec("10"), IdempotencyKey: "k-2"}
	_, _, err := wallets.Transfer(ctx(), in)
	assert.Equal(t, pkg.KindFailedPrecondition, kindOf(err))
	assert.Equal(t, []string{"k-2"}, idem.released)

	// 键已释放，同一个键可以用新金额重试
	in.Amount = dec("5")
	txn, replayed, err := wallets.Transfer(ctx(), in)
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotZero(t, txn.ID)
}

func TestTransferIdempotencyKeyInProgress(t *testing.T) {
	e := newEnv(t, true)
	idem := newFakeIdem()
	idem.pending["busy"] = true
	wallets := service.NewWalletService(e.store, idem)
	alice := e.user(t, "alice", "5")
	bob := e.user(t, "bob", "0")

	_, _, err := wallets.Transfer(ctx(), service.TransferInput{FromUserID: alice, ToUserID: bob, Amount: dec("1"), IdempotencyKey: "busy"})
	assert.Equal(t, pkg.KindConflict, kindOf(err))
	assert.True(t, e.balance(t, alice).Equal(dec("5")))
}
