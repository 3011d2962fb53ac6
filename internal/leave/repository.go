package leave

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leavedesk/leavedesk/internal/platform/db"
)

// ErrBalanceNotFound indicates a missing ledger row.
var ErrBalanceNotFound = errors.New("leave balance not found")

// Repository persists leave data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("leave repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const requestColumns = `id, employee_name, leave_type, start_date, end_date, days, year, status, reason, applied_on`

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	var status string
	err := row.Scan(&req.ID, &req.EmployeeName, &req.LeaveType, &req.StartDate, &req.EndDate, &req.Days, &req.Year, &status, &req.Reason, &req.AppliedOn)
	if err != nil {
		return Request{}, err
	}
	req.Status = RequestStatus(status)
	return req, nil
}

func (r *Repository) GetRequest(ctx context.Context, id int64) (Request, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM leave_requests WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrRequestNotFound
		}
		return Request{}, err
	}
	return req, nil
}

func (r *Repository) ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error) {
	query := `SELECT ` + requestColumns + ` FROM leave_requests WHERE 1=1`
	args := []any{}
	if filter.Employee != "" {
		args = append(args, filter.Employee)
		query += ` AND employee_name=$` + strconv.Itoa(len(args))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		query += ` AND year=$` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY applied_on DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (r *Repository) ListApprovedOverlapping(ctx context.Context, from, to time.Time) ([]Request, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+requestColumns+` FROM leave_requests
WHERE status=$1 AND start_date <= $3 AND end_date >= $2
ORDER BY start_date ASC, id ASC`, string(StatusApproved), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func collectRequests(rows pgx.Rows) ([]Request, error) {
	requests := []Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *Repository) GetBalance(ctx context.Context, employee string, year int) (Balance, error) {
	var bal Balance
	err := r.pool.QueryRow(ctx, `SELECT employee_name, year, total_entitlement, used, remaining
FROM leave_balances WHERE employee_name=$1 AND year=$2`, employee, year).
		Scan(&bal.EmployeeName, &bal.Year, &bal.TotalEntitlement, &bal.Used, &bal.Remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{}, ErrBalanceNotFound
		}
		return Balance{}, err
	}
	return bal, nil
}

func (r *Repository) ListBalances(ctx context.Context, year int) ([]Balance, error) {
	rows, err := r.pool.Query(ctx, `SELECT employee_name, year, total_entitlement, used, remaining
FROM leave_balances WHERE year=$1 ORDER BY employee_name ASC`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	balances := []Balance{}
	for rows.Next() {
		var bal Balance
		if err := rows.Scan(&bal.EmployeeName, &bal.Year, &bal.TotalEntitlement, &bal.Used, &bal.Remaining); err != nil {
			return nil, err
		}
		balances = append(balances, bal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return balances, nil
}

// EnsureBalance inserts the ledger row if absent, seeding entitlement
// and remaining from the employee's default entitlement. Inserting
// nothing for an unknown employee is fine here; the following locked
// read reports the missing row.
func (r *txRepository) EnsureBalance(ctx context.Context, employee string, year int) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO leave_balances (employee_name, year, total_entitlement, used, remaining)
SELECT e.name, $2, COALESCE(e.entitlement, 0), 0, COALESCE(e.entitlement, 0)
FROM employees e WHERE e.name = $1
ON CONFLICT (employee_name, year) DO NOTHING`, employee, year)
	return err
}

func (r *txRepository) GetBalanceForUpdate(ctx context.Context, employee string, year int) (Balance, error) {
	var bal Balance
	err := r.tx.QueryRow(ctx, `SELECT employee_name, year, total_entitlement, used, remaining
FROM leave_balances WHERE employee_name=$1 AND year=$2 FOR UPDATE`, employee, year).
		Scan(&bal.EmployeeName, &bal.Year, &bal.TotalEntitlement, &bal.Used, &bal.Remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{}, ErrBalanceNotFound
		}
		return Balance{}, err
	}
	return bal, nil
}

func (r *txRepository) ApplyUsage(ctx context.Context, employee string, year int, used, remaining float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE leave_balances SET used=$3, remaining=$4, updated_at=NOW()
WHERE employee_name=$1 AND year=$2`, employee, year, used, remaining)
	return err
}

func (r *txRepository) SetEntitlement(ctx context.Context, employee string, year int, total float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE leave_balances SET total_entitlement=$3, remaining=$3, updated_at=NOW()
WHERE employee_name=$1 AND year=$2`, employee, year, total)
	return err
}

func (r *txRepository) SetRemaining(ctx context.Context, employee string, year int, remaining float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE leave_balances SET remaining=$3, updated_at=NOW()
WHERE employee_name=$1 AND year=$2`, employee, year, remaining)
	return err
}

func (r *txRepository) InsertRequest(ctx context.Context, req Request) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO leave_requests (employee_name, leave_type, start_date, end_date, days, year, status, reason, applied_on)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		req.EmployeeName, req.LeaveType, req.StartDate, req.EndDate, req.Days, req.Year, string(req.Status), req.Reason, req.AppliedOn).Scan(&id)
	return id, err
}

func (r *txRepository) UpdateRequestStatus(ctx context.Context, id int64, status RequestStatus) error {
	tag, err := r.tx.Exec(ctx, `UPDATE leave_requests SET status=$2 WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *txRepository) UpdateRequestStatusIf(ctx context.Context, id int64, from, to RequestStatus) (bool, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE leave_requests SET status=$3 WHERE id=$1 AND status=$2`, id, string(from), string(to))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
