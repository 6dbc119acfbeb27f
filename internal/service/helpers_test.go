package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/pkg"
	"github.com/Rashedman4/special-backend/internal/repository/memory"
	"github.com/Rashedman4/special-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// clock 测试里可以拨动的时钟
type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *clock                   { return &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)} }
func ctx() context.Context               { return context.Background() }
func dec(s string) decimal.Decimal       { return decimal.RequireFromString(s) }
func ptr[T any](v T) *T                  { return &v }
func kindOf(err error) pkg.Kind          { return pkg.KindOf(err) }
func messageOf(err error) string         { return pkg.AsAppError(err).Message }
func statusOf(err error) int             { return pkg.AsAppError(err).HTTPStatus() }

type env struct {
	store       *memory.Store
	clock       *clock
	wallets     *service.WalletService
	communities *service.CommunityService
	posts       *service.PostService
}

func newEnv(t *testing.T, gate bool) *env {
	t.Helper()
	st := memory.New()
	clk := newClock()
	st.SetClock(clk.Now)

	communities := service.NewCommunityService(st, st, st, st)
	return &env{
		store:       st,
		clock:       clk,
		wallets:     service.NewWalletService(st, nil),
		communities: communities,
		posts: service.NewPostService(service.PostDeps{
			Posts:    st,
			Likes:    st,
			Polls:    st,
			Events:   st,
			Profiles: st,
			Gate:     communities,
		}, service.PostOptions{
			EnforceMembershipGate: gate,
			DefaultLimit:          50,
			MaxLimit:              200,
			Now:                   clk.Now,
		}),
	}
}

// newEnvUser 不依赖 env 直接建用户
func newEnvUser(t *testing.T, st *memory.Store, name string) uint64 {
	t.Helper()
	u := &model.User{Email: name + "@example.com", Username: name, Password: "x", Role: model.RoleUser}
	require.NoError(t, st.CreateUser(ctx(), u, &model.Profile{DisplayName: name}, dec("100")))
	return u.ID
}

// user 直接写存储建用户，绕过 bcrypt 加快测试
func (e *env) user(t *testing.T, name string, balance string) uint64 {
	t.Helper()
	u := &model.User{Email: name + "@example.com", Username: name, Password: "x", Role: model.RoleUser}
	p := &model.Profile{DisplayName: fmt.Sprintf("%s display", name)}
	require.NoError(t, e.store.CreateUser(ctx(), u, p, dec(balance)))
	// 保证先后创建的数据时间不同
	e.clock.Advance(time.Second)
	return u.ID
}

func (e *env) community(t *testing.T, creator uint64, name string, minCredits int64) uint64 {
	t.Helper()
	v, err := e.communities.CreateCommunity(ctx(), service.CreateCommunityInput{
		CreatorID:          creator,
		Name:               name,
		MinCreditsRequired: minCredits,
	})
	require.NoError(t, err)
	e.clock.Advance(time.Second)
	return v.ID
}

func (e *env) textPost(t *testing.T, author uint64, community *uint64, content string) *model.PostView {
	t.Helper()
	v, err := e.posts.CreatePost(ctx(), service.CreatePostInput{
		AuthorID:    author,
		CommunityID: community,
		Content:     content,
	})
	require.NoError(t, err)
	e.clock.Advance(time.Second)
	return v
}

func (e *env) balance(t *testing.T, userID uint64) decimal.Decimal {
	t.Helper()
	w, err := e.wallets.Wallet(ctx(), userID)
	require.NoError(t, err)
	return w.Balance
}
