package leave_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/leavedesk/leavedesk/internal/leave"
	"github.com/leavedesk/leavedesk/internal/shared"
	_ "github.com/leavedesk/leavedesk/testing"
)

type fixture struct {
	router  http.Handler
	manager *shared.SessionManager
	repo    *stubLeaveRepo
}

// stubLeaveRepo reuses the exported service behavior through a seeded
// in-process ledger, mirroring the repository contract.
type stubLeaveRepo struct {
	entitlements map[string]float64
	balances     map[string]leave.Balance
	requests     map[int64]leave.Request
	nextID       int64
}

func newStubLeaveRepo() *stubLeaveRepo {
	return &stubLeaveRepo{
		entitlements: make(map[string]float64),
		balances:     make(map[string]leave.Balance),
		requests:     make(map[int64]leave.Request),
	}
}

func key(employee string, year int) string {
	return employee + "/" + strconv.Itoa(year)
}

func (r *stubLeaveRepo) WithTx(ctx context.Context, fn func(context.Context, leave.TxRepository) error) error {
	return fn(ctx, r)
}

func (r *stubLeaveRepo) GetRequest(ctx context.Context, id int64) (leave.Request, error) {
	req, ok := r.requests[id]
	if !ok {
		return leave.Request{}, leave.ErrRequestNotFound
	}
	return req, nil
}

func (r *stubLeaveRepo) ListRequests(ctx context.Context, filter leave.RequestFilter) ([]leave.Request, error) {
	var out []leave.Request
	for _, req := range r.requests {
		if filter.Employee != "" && req.EmployeeName != filter.Employee {
			continue
		}
		if filter.Year != 0 && req.Year != filter.Year {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *stubLeaveRepo) ListApprovedOverlapping(ctx context.Context, from, to time.Time) ([]leave.Request, error) {
	var out []leave.Request
	for _, req := range r.requests {
		if req.Status != leave.StatusApproved {
			continue
		}
		if req.EndDate.Before(from) || req.StartDate.After(to) {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *stubLeaveRepo) GetBalance(ctx context.Context, employee string, year int) (leave.Balance, error) {
	bal, ok := r.balances[key(employee, year)]
	if !ok {
		return leave.Balance{}, leave.ErrBalanceNotFound
	}
	return bal, nil
}

func (r *stubLeaveRepo) ListBalances(ctx context.Context, year int) ([]leave.Balance, error) {
	var out []leave.Balance
	for _, bal := range r.balances {
		if bal.Year == year {
			out = append(out, bal)
		}
	}
	return out, nil
}

func (r *stubLeaveRepo) EnsureBalance(ctx context.Context, employee string, year int) error {
	ent, known := r.entitlements[employee]
	if !known {
		return nil
	}
	k := key(employee, year)
	if _, ok := r.balances[k]; ok {
		return nil
	}
	r.balances[k] = leave.Balance{
		EmployeeName:     employee,
		Year:             year,
		TotalEntitlement: ent,
		Remaining:        ent,
	}
	return nil
}

func (r *stubLeaveRepo) GetBalanceForUpdate(ctx context.Context, employee string, year int) (leave.Balance, error) {
	return r.GetBalance(ctx, employee, year)
}

func (r *stubLeaveRepo) ApplyUsage(ctx context.Context, employee string, year int, used, remaining float64) error {
	k := key(employee, year)
	bal := r.balances[k]
	bal.Used = used
	bal.Remaining = remaining
	r.balances[k] = bal
	return nil
}

func (r *stubLeaveRepo) SetEntitlement(ctx context.Context, employee string, year int, total float64) error {
	k := key(employee, year)
	bal := r.balances[k]
	bal.TotalEntitlement = total
	bal.Remaining = total
	r.balances[k] = bal
	return nil
}

func (r *stubLeaveRepo) SetRemaining(ctx context.Context, employee string, year int, remaining float64) error {
	k := key(employee, year)
	bal := r.balances[k]
	bal.Remaining = remaining
	r.balances[k] = bal
	return nil
}

func (r *stubLeaveRepo) InsertRequest(ctx context.Context, req leave.Request) (int64, error) {
	r.nextID++
	req.ID = r.nextID
	r.requests[req.ID] = req
	return req.ID, nil
}

func (r *stubLeaveRepo) UpdateRequestStatus(ctx context.Context, id int64, status leave.RequestStatus) error {
	req, ok := r.requests[id]
	if !ok {
		return leave.ErrRequestNotFound
	}
	req.Status = status
	r.requests[id] = req
	return nil
}

func (r *stubLeaveRepo) UpdateRequestStatusIf(ctx context.Context, id int64, from, to leave.RequestStatus) (bool, error) {
	req, ok := r.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	r.requests[id] = req
	return true, nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)

	repo := newStubLeaveRepo()
	repo.entitlements["Alice"] = 10
	service := leave.NewService(repo, nil, nil, "admin@example.com")
	handler := leave.NewHandler(nil, service)

	router := chi.NewRouter()
	router.Route("/leave", handler.MountRoutes)
	return &fixture{router: router, manager: manager, repo: repo}
}

func (f *fixture) do(t *testing.T, method, path, body string, asAdmin bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	sess, err := f.manager.Load(context.Background(), req)
	require.NoError(t, err)
	if asAdmin {
		sess.SetUser(shared.AdminUserID)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req)
	return res
}

func TestSubmitEndpoint(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/leave/requests",
		`{"employee":"Alice","leave_type":"Annual","start_date":"2026-05-04","end_date":"2026-05-06"}`, false)
	require.Equal(t, http.StatusCreated, res.Code)

	var payload struct {
		Request    leave.Request `json:"request"`
		LowBalance bool          `json:"low_balance"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	require.Equal(t, leave.StatusPending, payload.Request.Status)
	require.Equal(t, 3.0, payload.Request.Days)
	require.False(t, payload.LowBalance)
}

func TestSubmitEndpointValidation(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/leave/requests", `{"employee":"Alice"}`, false)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, http.MethodPost, "/leave/requests",
		`{"employee":"Alice","leave_type":"Annual","start_date":"04/05/2026","end_date":"2026-05-06"}`, false)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, http.MethodPost, "/leave/requests",
		`{"employee":"Ghost","leave_type":"Annual","start_date":"2026-05-04","end_date":"2026-05-06"}`, false)
	require.Equal(t, http.StatusNotFound, res.Code)
}

func TestApproveEndpointRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/leave/requests",
		`{"employee":"Alice","leave_type":"Annual","start_date":"2026-05-04","end_date":"2026-05-06"}`, false)
	require.Equal(t, http.StatusCreated, res.Code)

	res = f.do(t, http.MethodPost, "/leave/requests/1/approve", "", false)
	require.Equal(t, http.StatusUnauthorized, res.Code)

	res = f.do(t, http.MethodPost, "/leave/requests/1/approve", "", true)
	require.Equal(t, http.StatusOK, res.Code)

	// Second approval conflicts.
	res = f.do(t, http.MethodPost, "/leave/requests/1/approve", "", true)
	require.Equal(t, http.StatusConflict, res.Code)
}

func TestBalanceEndpoint(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodGet, "/leave/balance/Alice?year=2026", "", false)
	require.Equal(t, http.StatusOK, res.Code)

	var bal leave.Balance
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &bal))
	require.Equal(t, 10.0, bal.Remaining)

	res = f.do(t, http.MethodGet, "/leave/balance/Ghost?year=2026", "", false)
	require.Equal(t, http.StatusNotFound, res.Code)

	res = f.do(t, http.MethodGet, "/leave/balance/Alice?year=banana", "", false)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, http.MethodGet, "/leave/summary/Alice?year=banana", "", false)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestOverrideEndpoints(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPut, "/leave/balance/Alice/2026/entitlement", `{"value":20}`, true)
	require.Equal(t, http.StatusOK, res.Code)

	res = f.do(t, http.MethodGet, "/leave/balance/Alice?year=2026", "", false)
	var bal leave.Balance
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &bal))
	require.Equal(t, 20.0, bal.TotalEntitlement)
	require.Equal(t, 20.0, bal.Remaining)

	res = f.do(t, http.MethodPut, "/leave/balance/Alice/2026/remaining", `{"value":4.5}`, true)
	require.Equal(t, http.StatusOK, res.Code)

	res = f.do(t, http.MethodPut, "/leave/balance/Alice/2026/remaining", `{"value":-1}`, true)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = f.do(t, http.MethodPut, "/leave/balance/Alice/2026/remaining", `{"value":5}`, false)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/leave/requests",
		`{"employee":"Alice","leave_type":"Annual","start_date":"2026-05-04","end_date":"2026-05-06"}`, false)
	require.Equal(t, http.StatusCreated, res.Code)

	res = f.do(t, http.MethodGet, "/leave/summary/Alice?year=2026", "", false)
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		Balance  leave.Balance   `json:"balance"`
		Requests []leave.Request `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	require.Equal(t, 10.0, payload.Balance.Remaining)
	require.Len(t, payload.Requests, 1)
}
