package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	leaveerrors "go-elms/internal/leave/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// OwnedLeaveRow and PendingLeaveRow are the read projections the query views
// return, joined with display names from the reference tables.
type OwnedLeaveRow struct {
	ID              string
	LeaveTypeName   string
	StartDate       time.Time
	EndDate         time.Time
	NoOfDays        int
	Status          string
	Remarks         string
	AppliedOn       time.Time
	ResolvedOn      *time.Time
	ResolverName    *string
	ResolverRemarks *string
}

type PendingLeaveRow struct {
	ID            string
	EmployeeID    string
	EmployeeName  string
	LeaveTypeName string
	StartDate     time.Time
	EndDate       time.Time
	NoOfDays      int
	Remarks       string
	AppliedOn     time.Time
}

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	// MarkResolved transitions the request out of PENDING in a single guarded
	// statement. It reports false when the request was no longer pending, which
	// is how a raced second resolver loses.
	MarkResolved(ctx context.Context, id, status, resolvedBy string, remarks *string, resolvedOn time.Time) (bool, error)
	// CancelOwn is the same guarded transition restricted to the requester.
	CancelOwn(ctx context.Context, id, employeeID string, resolvedOn time.Time) (bool, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]OwnedLeaveRow, error)
	ListPending(ctx context.Context) ([]PendingLeaveRow, error)
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

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *repository) conn() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	query := `
INSERT INTO leave_requests
	(id, employee_id, leave_type_id, start_date, end_date, no_of_days, remarks, status, applied_on)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

	_, err := r.conn().ExecContext(ctx, query,
		l.ID, l.EmployeeID, l.LeaveTypeID,
		l.StartDate, l.EndDate, l.NoOfDays,
		l.Remarks, l.Status, l.AppliedOn,
	)

	// 23503: the leave_type_id foreign key lost a race with the existence check.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return leaveerrors.ErrLeaveTypeNotFound
	}

	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	query := `
SELECT id::text, employee_id::text, leave_type_id::text,
	start_date, end_date, no_of_days, remarks, status, applied_on,
	resolved_by::text, resolved_on, resolver_remarks
FROM leave_requests
WHERE id = $1
`

	var (
		l          LeaveRequest
		rawID      string
		rawEmp     string
		rawType    string
		resolvedBy sql.NullString
	)
	err := r.conn().QueryRowContext(ctx, query, id).Scan(
		&rawID, &rawEmp, &rawType,
		&l.StartDate, &l.EndDate, &l.NoOfDays,
		&l.Remarks, &l.Status, &l.AppliedOn,
		&resolvedBy, &l.ResolvedOn, &l.ResolverRemarks,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}

	if l.ID, err = uuid.Parse(rawID); err != nil {
		return nil, err
	}
	if l.EmployeeID, err = uuid.Parse(rawEmp); err != nil {
		return nil, err
	}
	if l.LeaveTypeID, err = uuid.Parse(rawType); err != nil {
		return nil, err
	}
	if resolvedBy.Valid {
		v, err := uuid.Parse(resolvedBy.String)
		if err != nil {
			return nil, err
		}
		l.ResolvedBy = &v
	}

	return &l, nil
}

func (r *repository) MarkResolved(ctx context.Context, id, status, resolvedBy string, remarks *string, resolvedOn time.Time) (bool, error) {
	query := `
UPDATE leave_requests
SET status = $1, resolved_by = $2, resolved_on = $3, resolver_remarks = $4
WHERE id = $5 AND status = 'PENDING'
`

	res, err := r.conn().ExecContext(ctx, query, status, resolvedBy, resolvedOn, remarks, id)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *repository) CancelOwn(ctx context.Context, id, employeeID string, resolvedOn time.Time) (bool, error) {
	query := `
UPDATE leave_requests
SET status = 'CANCELLED', resolved_by = employee_id, resolved_on = $1
WHERE id = $2 AND employee_id = $3 AND status = 'PENDING'
`

	res, err := r.conn().ExecContext(ctx, query, resolvedOn, id, employeeID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID string) ([]OwnedLeaveRow, error) {
	query := `
SELECT lr.id::text, lt.name, lr.start_date, lr.end_date, lr.no_of_days,
	lr.status, lr.remarks, lr.applied_on, lr.resolved_on,
	res.full_name, lr.resolver_remarks
FROM leave_requests lr
JOIN leave_types lt ON lt.id = lr.leave_type_id
LEFT JOIN employees res ON res.id = lr.resolved_by
WHERE lr.employee_id = $1
ORDER BY lr.applied_on DESC
`

	rows, err := r.conn().QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []OwnedLeaveRow
	for rows.Next() {
		var row OwnedLeaveRow
		if err := rows.Scan(
			&row.ID, &row.LeaveTypeName, &row.StartDate, &row.EndDate, &row.NoOfDays,
			&row.Status, &row.Remarks, &row.AppliedOn, &row.ResolvedOn,
			&row.ResolverName, &row.ResolverRemarks,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

func (r *repository) ListPending(ctx context.Context) ([]PendingLeaveRow, error) {
	query := `
SELECT lr.id::text, lr.employee_id::text, emp.full_name, lt.name,
	lr.start_date, lr.end_date, lr.no_of_days, lr.remarks, lr.applied_on
FROM leave_requests lr
JOIN employees emp ON emp.id = lr.employee_id
JOIN leave_types lt ON lt.id = lr.leave_type_id
WHERE lr.status = 'PENDING'
ORDER BY lr.applied_on ASC
`

	rows, err := r.conn().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PendingLeaveRow
	for rows.Next() {
		var row PendingLeaveRow
		if err := rows.Scan(
			&row.ID, &row.EmployeeID, &row.EmployeeName, &row.LeaveTypeName,
			&row.StartDate, &row.EndDate, &row.NoOfDays, &row.Remarks, &row.AppliedOn,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	return result, rows.Err()
}
