package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/leavedesk/leavedesk/internal/auth"
	"github.com/leavedesk/leavedesk/internal/shared"
	_ "github.com/leavedesk/leavedesk/testing"
)

func newAuthHandler(t *testing.T, password string) (http.Handler, *shared.SessionManager) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	handler := auth.NewHandler(nil, auth.NewService(string(hashed)), sessionManager)

	router := chi.NewRouter()
	router.Route("/auth", handler.MountRoutes)
	return router, sessionManager
}

func doLogin(t *testing.T, router http.Handler, manager *shared.SessionManager, body string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	sess, err := manager.Load(context.Background(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res, sess
}

func TestLoginSuccess(t *testing.T) {
	router, manager := newAuthHandler(t, "correct horse")

	res, sess := doLogin(t, router, manager, `{"password":"correct horse"}`)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, shared.AdminUserID, sess.User())
	require.True(t, shared.ActorFromSession(sess).Admin)
}

func TestLoginWrongPassword(t *testing.T) {
	router, manager := newAuthHandler(t, "correct horse")

	res, sess := doLogin(t, router, manager, `{"password":"battery staple"}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Empty(t, sess.User())
}

func TestLoginMissingPassword(t *testing.T) {
	router, manager := newAuthHandler(t, "correct horse")

	res, _ := doLogin(t, router, manager, `{}`)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestLogoutDestroysSession(t *testing.T) {
	router, manager := newAuthHandler(t, "correct horse")

	_, sess := doLogin(t, router, manager, `{"password":"correct horse"}`)
	require.Equal(t, shared.AdminUserID, sess.User())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)

	commitRes := httptest.NewRecorder()
	require.NoError(t, manager.Commit(context.Background(), commitRes, req, sess))
	cookies := commitRes.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)
}
