package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leavedesk/leavedesk/internal/platform/db"
)

const uniqueViolation = "23505"

// Repository defines directory persistence.
type Repository interface {
	List(ctx context.Context) ([]Employee, error)
	Get(ctx context.Context, name string) (Employee, error)
	Create(ctx context.Context, emp Employee) (Employee, error)
	// CreateIfAbsent inserts unless the name is taken. Reports whether a
	// row was inserted. Used by startup seeding.
	CreateIfAbsent(ctx context.Context, emp Employee) (bool, error)
	// Rename updates the employee name and cascades it to all dependent
	// request and ledger rows in one transaction.
	Rename(ctx context.Context, oldName, newName string) error
	// Delete removes the employee together with all dependent request
	// and ledger rows in one transaction.
	Delete(ctx context.Context, name string) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const employeeColumns = `id, name, role, join_date, entitlement, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(&emp.ID, &emp.Name, &emp.Role, &emp.JoinDate, &emp.Entitlement, &emp.CreatedAt, &emp.UpdatedAt)
	return emp, err
}

func (r *pgRepository) List(ctx context.Context) ([]Employee, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	employees := []Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

func (r *pgRepository) Get(ctx context.Context, name string) (Employee, error) {
	emp, err := scanEmployee(r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE name=$1`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrEmployeeNotFound
		}
		return Employee{}, err
	}
	return emp, nil
}

func (r *pgRepository) Create(ctx context.Context, emp Employee) (Employee, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO employees (name, role, join_date, entitlement, created_at, updated_at)
VALUES ($1,$2,$3,$4,NOW(),NOW()) RETURNING `+employeeColumns,
		emp.Name, emp.Role, emp.JoinDate, emp.Entitlement).
		Scan(&emp.ID, &emp.Name, &emp.Role, &emp.JoinDate, &emp.Entitlement, &emp.CreatedAt, &emp.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Employee{}, ErrDuplicateEmployee
		}
		return Employee{}, err
	}
	return emp, nil
}

func (r *pgRepository) CreateIfAbsent(ctx context.Context, emp Employee) (bool, error) {
	tag, err := r.pool.Exec(ctx, `INSERT INTO employees (name, role, join_date, entitlement, created_at, updated_at)
VALUES ($1,$2,$3,$4,NOW(),NOW())
ON CONFLICT (name) DO NOTHING`, emp.Name, emp.Role, emp.JoinDate, emp.Entitlement)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgRepository) Rename(ctx context.Context, oldName, newName string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE employees SET name=$2, updated_at=NOW() WHERE name=$1`, oldName, newName)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return ErrRenameConflict
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrEmployeeNotFound
		}
		if _, err := tx.Exec(ctx, `UPDATE leave_requests SET employee_name=$2 WHERE employee_name=$1`, oldName, newName); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE leave_balances SET employee_name=$2 WHERE employee_name=$1`, oldName, newName)
		return err
	})
}

func (r *pgRepository) Delete(ctx context.Context, name string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM leave_requests WHERE employee_name=$1`, name); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM leave_balances WHERE employee_name=$1`, name); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM employees WHERE name=$1`, name)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrEmployeeNotFound
		}
		return nil
	})
}
