package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Rashedman4/special-backend/internal/pkg"
	"github.com/Rashedman4/special-backend/internal/repository/memory"
	"github.com/Rashedman4/special-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminToken = "test-admin"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := memory.New()
	tokens := pkg.NewTokenIssuer(pkg.TokenConfig{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	communities := service.NewCommunityService(st, st, st, st)
	posts := service.NewPostService(service.PostDeps{
		Posts: st, Likes: st, Polls: st, Events: st, Profiles: st, Gate: communities,
	}, service.PostOptions{EnforceMembershipGate: true})

	return InitRouter(Deps{
		Users:       service.NewUserService(st, tokens, 100),
		Wallets:     service.NewWalletService(st, nil),
		Communities: communities,
		Posts:       posts,
		Tokens:      tokens,
		AdminToken:  adminToken,
	})
}

type call struct {
	method  string
	path    string
	body    any
	headers map[string]string
}

func do(t *testing.T, r *gin.Engine, c call) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" && bytes.HasPrefix(bytes.TrimSpace(w.Body.Bytes()), []byte("{")) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

// doList 用于返回数组的接口
func doList(t *testing.T, r *gin.Engine, path string) (int, []map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out []map[string]any
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func signup(t *testing.T, r *gin.Engine, name string) uint64 {
	t.Helper()
	code, body := do(t, r, call{method: http.MethodPost, path: "/api/auth/signup", body: map[string]any{
		"email":        name + "@example.com",
		"username":     name,
		"display_name": name,
		"password":     "password123",
	}})
	require.Equal(t, http.StatusCreated, code, body)
	user := body["user"].(map[string]any)
	assert.Equal(t, "100", user["wallet_balance"])
	return uint64(user["id"].(float64))
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	code, body := do(t, r, call{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, _ = do(t, r, call{method: http.MethodGet, path: "/metrics"})
	assert.Equal(t, http.StatusOK, code)
}

func TestWalletAndCommunityFlow(t *testing.T) {
	r := newTestRouter(t)
	alice := signup(t, r, "alice")
	bob := signup(t, r, "bob")

	code, body := do(t, r, call{method: http.MethodPost, path: "/api/communities", body: map[string]any{
		"creator_id":           alice,
		"name":                 "whales",
		"min_credits_required": 150,
	}})
	require.Equal(t, http.StatusCreated, code, body)
	cid := uint64(body["id"].(float64))
	assert.Equal(t, true, body["is_member"])

	joinPath := fmt.Sprintf("/api/communities/%d/join", cid)
	code, body = do(t, r, call{method: http.MethodPost, path: joinPath, body: map[string]any{"user_id": bob}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Insufficient credits. Need at least 150, current balance 100.", body["message"])

	// id 用字符串也可以
	code, body = do(t, r, call{method: http.MethodPost, path: "/api/wallet/transfer", body: map[string]any{
		"from_user_id": fmt.Sprint(alice),
		"to_user_id":   bob,
		"amount":       "60",
		"description":  "welcome",
	}})
	require.Equal(t, http.StatusCreated, code, body)
	assert.NotNil(t, body["transaction"])

	code, body = do(t, r, call{method: http.MethodPost, path: joinPath, body: map[string]any{"user_id": bob}})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, service.MsgJoined, body["message"])

	code, list := doList(t, r, fmt.Sprintf("/api/communities?user_id=%d", bob))
	require.Equal(t, http.StatusOK, code)
	require.Len(t, list, 1)
	assert.Equal(t, "whales", list[0]["name"])
	assert.Equal(t, float64(2), list[0]["members_count"])
	assert.Equal(t, true, list[0]["is_member"])

	code, body = do(t, r, call{method: http.MethodGet, path: fmt.Sprintf("/api/communities/%d", cid)})
	require.Equal(t, http.StatusOK, code)
	community := body["community"].(map[string]any)
	assert.Equal(t, float64(cid), community["id"])
	assert.Equal(t, false, community["is_member"])

	code, body = do(t, r, call{method: http.MethodGet, path: "/api/communities/999"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Community not found", body["message"])

	code, body = do(t, r, call{method: http.MethodGet, path: fmt.Sprintf("/api/wallet/%d", alice)})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "40", body["wallet"].(map[string]any)["balance"])

	code, body = do(t, r, call{method: http.MethodGet, path: fmt.Sprintf("/api/wallet/%d/transactions", bob)})
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["transactions"], 1)

	code, body = do(t, r, call{method: http.MethodPost, path: "/api/wallet/transfer", body: map[string]any{
		"from_user_id": alice, "to_user_id": bob, "amount": 1000,
	}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Insufficient balance", body["message"])

	code, _ = do(t, r, call{method: http.MethodGet, path: "/api/wallet/999"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestTokenIdentityMustMatchBody(t *testing.T) {
	r := newTestRouter(t)
	alice := signup(t, r, "alice")
	bob := signup(t, r, "bob")

	code, body := do(t, r, call{method: http.MethodPost, path: "/api/auth/login", body: map[string]any{
		"email": "alice@example.com", "password": "password123",
	}})
	require.Equal(t, http.StatusOK, code, body)
	bearer := map[string]string{"Authorization": "Bearer " + body["access_token"].(string)}

	code, body = do(t, r, call{method: http.MethodPost, path: "/api/wallet/transfer", headers: bearer, body: map[string]any{
		"from_user_id": bob, "to_user_id": alice, "amount": 1,
	}})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Not allowed", body["message"])

	// 不传 from_user_id 时取 token 中的用户
	code, _ = do(t, r, call{method: http.MethodPost, path: "/api/wallet/transfer", headers: bearer, body: map[string]any{
		"to_user_id": bob, "amount": 1,
	}})
	assert.Equal(t, http.StatusCreated, code)

	code, _ = do(t, r, call{method: http.MethodGet, path: "/api/posts", headers: map[string]string{"Authorization": "Bearer nope"}})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = do(t, r, call{method: http.MethodPost, path: "/api/auth/login", body: map[string]any{
		"email": "alice@example.com", "password": "wrong-password",
	}})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid credentials", body["message"])
}

func TestPollFlow(t *testing.T) {
	r := newTestRouter(t)
	alice := signup(t, r, "alice")
	bob := signup(t, r, "bob")

	code, body := do(t, r, call{method: http.MethodPost, path: "/api/posts", body: map[string]any{
		"author_id":      alice,
		"type":           "poll",
		"question":       "Best editor?",
		"poll_options":   []string{"vim", "emacs"},
		"duration_hours": 1,
	}})
	require.Equal(t, http.StatusCreated, code, body)
	post := body["post"].(map[string]any)
	postID := uint64(post["id"].(float64))
	assert.Equal(t, "poll", post["type"])
	assert.Equal(t, "Best editor?", post["question"])
	assert.NotContains(t, post, "title")
	options := post["options"].([]any)
	require.Len(t, options, 2)
	optionID := uint64(options[0].(map[string]any)["id"].(float64))

	votePath := fmt.Sprintf("/api/posts/%d/vote", postID)
	code, body = do(t, r, call{method: http.MethodPost, path: votePath, body: map[string]any{"user_id": bob, "option_id": optionID}})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(1), body["total_votes"])

	code, body = do(t, r, call{method: http.MethodPost, path: votePath, body: map[string]any{"user_id": bob, "option_id": optionID}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Already voted", body["message"])

	code, body = do(t, r, call{method: http.MethodPost, path: fmt.Sprintf("/api/posts/%d/like", postID), body: map[string]any{"user_id": bob}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["liked_by_me"])
	assert.Equal(t, float64(1), body["likes_count"])

	code, body = do(t, r, call{method: http.MethodGet, path: fmt.Sprintf("/api/posts?user_id=%d", bob)})
	require.Equal(t, http.StatusOK, code)
	posts := body["posts"].([]any)
	require.Len(t, posts, 1)
	listed := posts[0].(map[string]any)
	assert.Equal(t, true, listed["liked_by_me"])
	assert.Equal(t, float64(optionID), listed["user_vote"])
	assert.Equal(t, "alice", listed["profiles"].(map[string]any)["username"])

	deletePath := fmt.Sprintf("/api/posts/%d", postID)
	code, _ = do(t, r, call{method: http.MethodDelete, path: deletePath, headers: map[string]string{"x-user-id": fmt.Sprint(bob)}})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = do(t, r, call{method: http.MethodDelete, path: deletePath})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = do(t, r, call{method: http.MethodDelete, path: deletePath, headers: map[string]string{"x-user-id": fmt.Sprint(alice)}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(postID), body["deleted"].(map[string]any)["id"])
}

func TestEventAttendance(t *testing.T) {
	r := newTestRouter(t)
	alice := signup(t, r, "alice")

	code, body := do(t, r, call{method: http.MethodPost, path: "/api/posts", body: map[string]any{
		"author_id":  alice,
		"type":       "event",
		"title":      "Launch",
		"location":   "HQ",
		"start_date": "2026-06-01T10:00:00Z",
	}})
	require.Equal(t, http.StatusCreated, code, body)
	post := body["post"].(map[string]any)
	assert.Equal(t, "2026-06-01T12:00:00Z", post["end_date"])
	assert.NotContains(t, post, "question")

	code, body = do(t, r, call{method: http.MethodPost, path: fmt.Sprintf("/api/posts/%d/attend", uint64(post["id"].(float64))), body: map[string]any{"user_id": alice}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["is_attending"])
	assert.Equal(t, float64(1), body["attendees_count"])
}

func TestAdminRoutes(t *testing.T) {
	r := newTestRouter(t)
	alice := signup(t, r, "alice")
	bob := signup(t, r, "bob")

	code, body := do(t, r, call{method: http.MethodPost, path: "/api/communities", body: map[string]any{"creator_id": alice, "name": "c"}})
	require.Equal(t, http.StatusCreated, code)
	statusPath := fmt.Sprintf("/api/admin/communities/%d/status", uint64(body["id"].(float64)))

	code, _ = do(t, r, call{method: http.MethodPatch, path: statusPath, body: map[string]any{"status": "locked"}})
	assert.Equal(t, http.StatusForbidden, code)

	admin := map[string]string{"X-Admin-Token": adminToken}
	code, body = do(t, r, call{method: http.MethodPatch, path: statusPath, headers: admin, body: map[string]any{"status": "locked"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "locked", body["community"].(map[string]any)["status"])

	code, list := doList(t, r, "/api/communities")
	require.Equal(t, http.StatusOK, code)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	code, _ = do(t, r, call{method: http.MethodDelete, path: fmt.Sprintf("/api/admin/users/%d", bob), headers: admin})
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, r, call{method: http.MethodDelete, path: fmt.Sprintf("/api/admin/users/%d", bob), headers: admin})
	assert.Equal(t, http.StatusNotFound, code)
}
