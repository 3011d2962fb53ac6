package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/leavedesk/leavedesk/internal/shared"
	_ "github.com/leavedesk/leavedesk/testing"
)

func newSessionManager(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	manager := newSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	sess.Set("theme", "dark")
	sess.SetUser(shared.AdminUserID)

	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, req, sess))

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, manager.CookieName(), cookies[0].Name)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(&http.Cookie{Name: manager.CookieName(), Value: sess.ID})
	loaded, err := manager.Load(ctx, next)
	require.NoError(t, err)
	require.Equal(t, "dark", loaded.Get("theme"))
	require.Equal(t, shared.AdminUserID, loaded.User())
}

func TestSessionDestroy(t *testing.T) {
	ctx := context.Background()
	manager := newSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser(shared.AdminUserID)

	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, req, sess))

	manager.Destroy(sess)
	res = httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, req, sess))

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(&http.Cookie{Name: manager.CookieName(), Value: sess.ID})
	loaded, err := manager.Load(ctx, next)
	require.NoError(t, err)
	require.Empty(t, loaded.User())
}

func TestActorFromSession(t *testing.T) {
	require.Equal(t, shared.Actor{}, shared.ActorFromSession(nil))

	ctx := context.Background()
	manager := newSessionManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	require.NoError(t, err)

	require.False(t, shared.ActorFromSession(sess).Admin)

	sess.SetUser(shared.AdminUserID)
	actor := shared.ActorFromSession(sess)
	require.True(t, actor.Admin)
	require.Equal(t, shared.AdminUserID, actor.Name)
}
