package employee

import (
	"context"
	"database/sql"
	"errors"

	employeeerrors "go-elms/internal/employee/errors"

	"github.com/google/uuid"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindByID(ctx context.Context, id string) (*Employee, error)
	// CommitUsage atomically adds days to used_leaves. The guard clause makes the
	// sufficiency check and the increment a single statement, so two concurrent
	// approvals for the same employee serialize on the row and the loser fails
	// with ErrBalanceExceeded instead of overdrawing the allotment.
	CommitUsage(ctx context.Context, id string, days int) error
}

type repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *repository) conn() execer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	query := `
SELECT id, full_name, email, role, total_leaves, used_leaves, created_at, updated_at
FROM employees
WHERE id = $1
`

	var e Employee
	var rawID string
	err := r.conn().QueryRowContext(ctx, query, id).Scan(
		&rawID,
		&e.FullName,
		&e.Email,
		&e.Role,
		&e.TotalLeaves,
		&e.UsedLeaves,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, employeeerrors.ErrEmployeeNotFound
		}
		return nil, err
	}

	e.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

func (r *repository) CommitUsage(ctx context.Context, id string, days int) error {
	query := `
UPDATE employees
SET used_leaves = used_leaves + $1, updated_at = now()
WHERE id = $2 AND used_leaves + $1 <= total_leaves
`

	res, err := r.conn().ExecContext(ctx, query, days, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// Zero rows: either the employee is unknown or the guard rejected the
	// increment. Distinguish so callers can report the right condition.
	var exists bool
	err = r.conn().QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return employeeerrors.ErrEmployeeNotFound
	}

	return employeeerrors.ErrBalanceExceeded
}
