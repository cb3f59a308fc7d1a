package leave

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go-elms/internal/authz"
	"go-elms/internal/employee"
	employeeerrors "go-elms/internal/employee/errors"
	leaveerrors "go-elms/internal/leave/errors"
	"go-elms/internal/leavetype"
	"go-elms/internal/messaging/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeLeaveRepo struct {
	createFn         func(ctx context.Context, l *LeaveRequest) error
	findByIDFn       func(ctx context.Context, id string) (*LeaveRequest, error)
	markResolvedFn   func(ctx context.Context, id, status, resolvedBy string, remarks *string, resolvedOn time.Time) (bool, error)
	cancelOwnFn      func(ctx context.Context, id, employeeID string, resolvedOn time.Time) (bool, error)
	listByEmployeeFn func(ctx context.Context, employeeID string) ([]OwnedLeaveRow, error)
	listPendingFn    func(ctx context.Context) ([]PendingLeaveRow, error)
}

func (f *fakeLeaveRepo) WithTx(*sql.Tx) Repository { return f }
func (f *fakeLeaveRepo) Create(ctx context.Context, l *LeaveRequest) error {
	return f.createFn(ctx, l)
}
func (f *fakeLeaveRepo) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	return f.findByIDFn(ctx, id)
}
func (f *fakeLeaveRepo) MarkResolved(ctx context.Context, id, status, resolvedBy string, remarks *string, resolvedOn time.Time) (bool, error) {
	return f.markResolvedFn(ctx, id, status, resolvedBy, remarks, resolvedOn)
}
func (f *fakeLeaveRepo) CancelOwn(ctx context.Context, id, employeeID string, resolvedOn time.Time) (bool, error) {
	return f.cancelOwnFn(ctx, id, employeeID, resolvedOn)
}
func (f *fakeLeaveRepo) ListByEmployee(ctx context.Context, employeeID string) ([]OwnedLeaveRow, error) {
	return f.listByEmployeeFn(ctx, employeeID)
}
func (f *fakeLeaveRepo) ListPending(ctx context.Context) ([]PendingLeaveRow, error) {
	return f.listPendingFn(ctx)
}

type fakeEmployeeRepo struct {
	findByIDFn    func(ctx context.Context, id string) (*employee.Employee, error)
	commitUsageFn func(ctx context.Context, id string, days int) error
}

func (f *fakeEmployeeRepo) WithTx(*sql.Tx) employee.Repository { return f }
func (f *fakeEmployeeRepo) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	return f.findByIDFn(ctx, id)
}
func (f *fakeEmployeeRepo) CommitUsage(ctx context.Context, id string, days int) error {
	return f.commitUsageFn(ctx, id, days)
}

type fakeTypeRepo struct {
	existsByIDFn func(ctx context.Context, id string) (bool, error)
}

func (f *fakeTypeRepo) FindAll(context.Context) ([]leavetype.LeaveType, error) { return nil, nil }
func (f *fakeTypeRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	return f.existsByIDFn(ctx, id)
}
func (f *fakeTypeRepo) Seed(context.Context, []string) error { return nil }

type fakeOutboxRepo struct {
	created []kafka.OutboxEvent
}

func (f *fakeOutboxRepo) WithTx(*sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutboxRepo) Create(_ context.Context, event kafka.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}
func (f *fakeOutboxRepo) ListPending(context.Context, int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutboxRepo) MarkSent(context.Context, string) error           { return nil }
func (f *fakeOutboxRepo) MarkFailed(context.Context, string, string) error { return nil }

type leaveServiceDeps struct {
	db     *sql.DB
	mock   sqlmock.Sqlmock
	repo   *fakeLeaveRepo
	emps   *fakeEmployeeRepo
	types  *fakeTypeRepo
	outbox *fakeOutboxRepo
}

func setupLeaveServiceTest(t *testing.T) (Service, *leaveServiceDeps) {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gate, err := authz.NewGate()
	assert.NoError(t, err)

	deps := &leaveServiceDeps{
		db:     db,
		mock:   mock,
		repo:   &fakeLeaveRepo{},
		emps:   &fakeEmployeeRepo{},
		types:  &fakeTypeRepo{},
		outbox: &fakeOutboxRepo{},
	}

	svc := NewServiceWithOutbox(db, deps.repo, deps.emps, deps.types, gate, deps.outbox, nil)
	return svc, deps
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func pendingRequest(employeeID uuid.UUID, days int) *LeaveRequest {
	return &LeaveRequest{
		ID:          uuid.New(),
		EmployeeID:  employeeID,
		LeaveTypeID: uuid.New(),
		StartDate:   date(2025, 6, 2),
		EndDate:     date(2025, 6, 2+days-1),
		NoOfDays:    days,
		Status:      StatusPending,
		AppliedOn:   time.Now().UTC(),
	}
}

func employeeWithBalance(id uuid.UUID, total, used int) *employee.Employee {
	return &employee.Employee{
		ID:          id,
		FullName:    "Dina Pratiwi",
		Email:       "dina@example.com",
		Role:        authz.RoleEmployee,
		TotalLeaves: total,
		UsedLeaves:  used,
	}
}

func TestApply_Success(t *testing.T) {
	svc, deps := setupLeaveServiceTest(t)

	empID := uuid.New()
	actor := authz.Actor{EmployeeID: empID.String(), Role: authz.RoleEmployee}

	deps.types.existsByIDFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	deps.emps.findByIDFn = func(_ context.Context, _ string) (*employee.Employee, error) {
		return employeeWithBalance(empID, 20, 5), nil
	}

	var created *LeaveRequest
	deps.repo.createFn = func(_ context.Context, l *LeaveRequest) error {
		created = l
		return nil
	}

	expectTx(t, deps.mock, true)

	resp, err := svc.Apply(context.Background(), actor, ApplyLeaveRequest{
		LeaveTypeID: uuid.NewString(),
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-04",
		Remarks:     "family trip",
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusPending, resp.Status)
	assert.Equal(t, 3, resp.NoOfDays)
	assert.Equal(t, empID.String(), resp.EmployeeID)

	assert.NotNil(t, created)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, 3, created.NoOfDays)

	assert.NoError(t, deps.mock.ExpectationsWereMet())
}

func TestApply_InsufficientBalance(t *testing.T) {
	svc, deps := setupLeaveServiceTest(t)

	empID := uuid.New()
	actor := authz.Actor{EmployeeID: empID.String(), Role: authz.RoleEmployee}

	deps.types.existsByIDFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	deps.emps.findByIDFn = func(_ context.Context, _ string) (*employee.Employee, error) {
		return employeeWithBalance(empID, 20, 18), nil
	}

	expectTx(t, deps.mock, false)

	_, err := svc.Apply(context.Background(), actor, ApplyLeaveRequest{
		LeaveTypeID: uuid.NewString(),
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-04",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "2 day(s) remaining")
	assert.NoError(t, deps.mock.ExpectationsWereMet())
}

func TestApply_ValidationFailures(t *testing.T) {
	svc, deps := setupLeaveServiceTest(t)

	empID := uuid.New()
	actor := authz.Actor{EmployeeID: empID.String(), Role: authz.RoleEmployee}
	deps.types.existsByIDFn = func(_ context.Context, _ string) (bool, error) { return true, nil }

	tests := []struct {
		name    string
		req     ApplyLeaveRequest
		wantErr error
	}{
		{
			"malformed start date",
			ApplyLeaveRequest{LeaveTypeID: uuid.NewString(), StartDate: "02-06-2025", EndDate: "2025-06-04"},
			leaveerrors.ErrInvalidDateFormat,
		},
		{
			"malformed end date",
			ApplyLeaveRequest{LeaveTypeID: uuid.NewString(), StartDate: "2025-06-02", EndDate: "tomorrow"},
			leaveerrors.ErrInvalidDateFormat,
		},
		{
			"end before start",
			ApplyLeaveRequest{LeaveTypeID: uuid.NewString(), StartDate: "2025-06-04", EndDate: "2025-06-02"},
			leaveerrors.ErrInvalidDateRange,
		},
		{
			"malformed type id",
			ApplyLeaveRequest{LeaveTypeID: "not-a-uuid", StartDate: "2025-06-02", EndDate: "2025-06-04"},
			leaveerrors.ErrLeaveTypeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Apply(context.Background(), actor, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestApply_UnknownLeaveType(t *testing.T) {
	svc, deps := setupLeaveServiceTest(t)

	actor := authz.Actor{EmployeeID: uuid.NewString(), Role: authz.RoleEmployee}
	deps.types.existsByIDFn = func(_ context.Context, _ string) (bool, error) { return false, nil }

	_, err := svc.Apply(context.Background(), actor, ApplyLeaveRequest{
		LeaveTypeID: uuid.NewString(),
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-04",
	})

	assert.ErrorIs(t, err, leaveerrors.ErrLeaveTypeNotFound)
}

func TestApply_ResolverRoleForbidden(t *testing.T) {
	svc, _ := setupLeaveServiceTest(t)

	actor := authz.Actor{EmployeeID: uuid.NewString(), Role: authz.RoleManager}

	_, err := svc.Apply(context.Background(), actor, ApplyLeaveRequest{
		LeaveTypeID: uuid.NewString(),
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-04",
	})

	assert.ErrorIs(t, err, leaveerrors.ErrAccessDenied)
}

func TestResolve_ApproveSuccess(t *testing.T) {
	svc, deps := setupLeaveServiceTest(t)

	empID := uuid.New()
	l := pendingRequest(empID, 3)
	resolver := authz.Actor{EmployeeID: uuid.NewString(), Role: authz.RoleManager}

	deps.repo.findByIDFn = func(_ context.Context, _ string) (*LeaveRequest, error) { return l, nil }
	deps.repo.markResolvedFn = func(_ context.Context, _, status, resolvedBy string, _ *string, _ time.Time) (bool, error) {
		assert.Equal(t, StatusApproved, status)
		assert.Equal(t, resolver.EmployeeID, resolvedBy)
		return true, nil
	}

	var committedDays int
	deps.emps.commitUsageFn = func(_ context.Context, id string, days int) error {
		assert.Equal(t, empID.String(), id)
		committedDays = days
		return nil
	}

	expectTx(t, deps.mock, true)

	resp, err := svc.Resolve(context.Background(), resolver, l.ID.String(), ResolveLeaveRequest{
		Decision: DecisionApprove,
		Remarks:  "enjoy",
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusApproved, resp.Status)
	assert.Equal(t, 3, committedDays)
	assert.NotNil(t, resp.ResolvedOn)

	assert.Len(t, deps.outbox.created, 1)
	assert.Equal(t, "leave_approved", deps.outbox.created[0].EventType)
	assert.Equal(t, l.ID.String(), deps.outbox.created[0].AggregateID)

	assert.NoError(t, deps.mock.ExpectationsWereMet())
}

func TestResolve_RejectSkipsLedger(t *testing.T) {
	svc, deps := setupLeaveServiceTest(t)

	l := pendingRequest(uuid.New(), 2)
	resolver := authz.Actor{EmployeeID: uuid.NewString(), Role: authz.RoleHR}

	deps.repo.findByIDFn = func(_ context.Context, _ string) (*LeaveRequest, error) { return l, nil }
	deps.repo.markResolvedFn = func(_ context.Context, _, status, _ string, _ *string, _ time.Time) (bool, error) {
		assert.Equal(t, StatusRejected, status)
		return true, nil
	}

	ledgerTouched := false
	deps.emps.commitUsageFn = func(context.Context, string, int) error {
		ledgerTouched = true
		return nil
	}

	expectTx(t, deps.mock, true)

	resp, err := svc.Resolve(context.Background(), resolver, l.ID.String(), ResolveLeaveRequest{
		Decision: DecisionReject,
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusRejected, resp.Status)
	assert.False(t, ledgerTouched)

	assert.Len(t, deps.outbox.created, 1)
	assert.Equal(t, "leave_rejected", deps.outbox.created[0].EventType)

	assert.NoError(t, deps.mock.ExpectationsWereMet())
}

func TestResolve_AlreadyResolved(t *testing.T) {
	svc, deps := setupLeaveServiceTest(t)

	l := pendingRequest(uuid.New(), 2)
	l.Status = StatusApproved
	resolver := authz.Actor{EmployeeID: uuid.NewString(), Role: authz.RoleManager}

	deps.repo.findByIDFn = func(_ context.Context, _ string) (*LeaveRequest, error) { return l, nil }

	expectTx(t, deps.mock, false)

	_, err := svc.Resolve(context.Background(), resolver, l.ID.String(), ResolveLeaveRequest{Decision: DecisionApprove})
	assert.ErrorIs(t, err, leaveerrors.ErrAlreadyResolved)
	assert.Empty(t, deps.outbox.created)
	assert.NoError(t, deps.mock.ExpectationsWereMet())
}

func TestResolve_LosesRaceToOtherResolver(t *testing.T) {
	svc, deps := setupLeaveServiceTest(t)

	l := pendingRequest(uuid.New(), 2)
	resolver := authz.Actor{EmployeeID: uuid.NewString(), Role: authz.RoleManager}

	deps.repo.findByIDFn = func(_ context.Context, _ string) (*LeaveRequest, error) { return l, nil }
	deps.repo.markResolvedFn = func(context.Context, string, string, string, *string, time.Time) (bool, error) {
		// Another resolver won between the read and the guarded update.
		return false, nil
	}

	expectTx(t, deps.mock, false)

	_, err := svc.Resolve(context.Background(), resolver, l.ID.String(), ResolveLeaveRequest{Decision: DecisionReject})
	assert.ErrorIs(t, err, leaveerrors.ErrAlreadyResolved)
	assert.NoError(t, deps.mock.ExpectationsWereMet())
}

func TestResolve_ApproveBalanceExhausted(t *testing.T) {
	svc, deps := setupLeaveServiceTest(t)

	empID := uuid.New()
	l := pendingRequest(empID, 5)
	resolver := authz.Actor{EmployeeID: uuid.NewString(), Role: authz.RoleManager}

	deps.repo.findByIDFn = func(_ context.Context, _ string) (*LeaveRequest, error) { return l, nil }
	deps.repo.markResolvedFn = func(context.Context, string, string, string, *string, time.Time) (bool, error) {
		return true, nil
	}
	deps.emps.commitUsageFn = func(context.Context, string, int) error {
		return employeeerrors.ErrBalanceExceeded
	}
	deps.emps.findByIDFn = func(_ context.Context, _ string) (*employee.Employee, error) {
		return employeeWithBalance(empID, 20, 19), nil
	}

	expectTx(t, deps.mock, false)

	_, err := svc.Resolve(context.Background(), resolver, l.ID.String(), ResolveLeaveRequest{Decision: DecisionApprove})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "1 day(s) remaining")
	assert.Empty(t, deps.outbox.created)
	assert.NoError(t, deps.mock.ExpectationsWereMet())
}

func TestResolve_NotFound(t *testing.T) {
	svc, deps := setupLeaveServiceTest(t)

	resolver := authz.Actor{EmployeeID: uuid.NewString(), Role: authz.RoleManager}
	deps.repo.findByIDFn = func(_ context.Context, _ string) (*LeaveRequest, error) {
		return nil, sql.ErrNoRows
	}

	expectTx(t, deps.mock, false)

	_, err := svc.Resolve(context.Background(), resolver, uuid.NewString(), ResolveLeaveRequest{Decision: DecisionApprove})
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	assert.NoError(t, deps.mock.ExpectationsWereMet())
}

func TestResolve_RequesterRoleForbidden(t *testing.T) {
	svc, _ := setupLeaveServiceTest(t)

	actor := authz.Actor{EmployeeID: uuid.NewString(), Role: authz.RoleEmployee}

	_, err := svc.Resolve(context.Background(), actor, uuid.NewString(), ResolveLeaveRequest{Decision: DecisionApprove})
	assert.ErrorIs(t, err, leaveerrors.ErrAccessDenied)
}

func TestResolve_InvalidLeaveID(t *testing.T) {
	svc, _ := setupLeaveServiceTest(t)

	resolver := authz.Actor{EmployeeID: uuid.NewString(), Role: authz.RoleManager}

	_, err := svc.Resolve(context.Background(), resolver, "not-a-uuid", ResolveLeaveRequest{Decision: DecisionApprove})
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveID)
}

func TestCancel_Success(t *testing.T) {
	svc, deps := setupLeaveServiceTest(t)

	empID := uuid.New()
	l := pendingRequest(empID, 2)
	actor := authz.Actor{EmployeeID: empID.String(), Role: authz.RoleEmployee}

	deps.repo.findByIDFn = func(_ context.Context, _ string) (*LeaveRequest, error) { return l, nil }
	deps.repo.cancelOwnFn = func(_ context.Context, id, employeeID string, _ time.Time) (bool, error) {
		assert.Equal(t, l.ID.String(), id)
		assert.Equal(t, empID.String(), employeeID)
		return true, nil
	}

	expectTx(t, deps.mock, true)

	resp, err := svc.Cancel(context.Background(), actor, l.ID.String())
	assert.NoError(t, err)
	assert.Equal(t, StatusCancelled, resp.Status)
	assert.NoError(t, deps.mock.ExpectationsWereMet())
}

func TestCancel_NotOwner(t *testing.T) {
	svc, deps := setupLeaveServiceTest(t)

	l := pendingRequest(uuid.New(), 2)
	actor := authz.Actor{EmployeeID: uuid.NewString(), Role: authz.RoleEmployee}

	deps.repo.findByIDFn = func(_ context.Context, _ string) (*LeaveRequest, error) { return l, nil }

	expectTx(t, deps.mock, false)

	_, err := svc.Cancel(context.Background(), actor, l.ID.String())
	assert.ErrorIs(t, err, leaveerrors.ErrNotRequestOwner)
	assert.NoError(t, deps.mock.ExpectationsWereMet())
}

func TestCancel_AlreadyResolved(t *testing.T) {
	svc, deps := setupLeaveServiceTest(t)

	empID := uuid.New()
	l := pendingRequest(empID, 2)
	l.Status = StatusRejected
	actor := authz.Actor{EmployeeID: empID.String(), Role: authz.RoleEmployee}

	deps.repo.findByIDFn = func(_ context.Context, _ string) (*LeaveRequest, error) { return l, nil }

	expectTx(t, deps.mock, false)

	_, err := svc.Cancel(context.Background(), actor, l.ID.String())
	assert.ErrorIs(t, err, leaveerrors.ErrAlreadyResolved)
	assert.NoError(t, deps.mock.ExpectationsWereMet())
}

func TestListOwn_MapsRows(t *testing.T) {
	svc, deps := setupLeaveServiceTest(t)

	empID := uuid.NewString()
	actor := authz.Actor{EmployeeID: empID, Role: authz.RoleEmployee}

	resolvedOn := time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)
	resolverName := "Maya Sari"
	deps.repo.listByEmployeeFn = func(_ context.Context, id string) ([]OwnedLeaveRow, error) {
		assert.Equal(t, empID, id)
		return []OwnedLeaveRow{
			{
				ID:            uuid.NewString(),
				LeaveTypeName: "Sick",
				StartDate:     date(2025, 6, 2),
				EndDate:       date(2025, 6, 3),
				NoOfDays:      2,
				Status:        StatusApproved,
				AppliedOn:     time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
				ResolvedOn:    &resolvedOn,
				ResolverName:  &resolverName,
			},
		}, nil
	}

	resp, err := svc.ListOwn(context.Background(), actor)
	assert.NoError(t, err)
	assert.Len(t, resp, 1)
	assert.Equal(t, "Sick", resp[0].LeaveTypeName)
	assert.Equal(t, "2025-06-02", resp[0].StartDate)
	assert.Equal(t, &resolverName, resp[0].ResolverName)
	assert.NotNil(t, resp[0].ResolvedOn)
}

func TestListPending_RequesterForbidden(t *testing.T) {
	svc, _ := setupLeaveServiceTest(t)

	actor := authz.Actor{EmployeeID: uuid.NewString(), Role: authz.RoleDeveloper}

	_, err := svc.ListPending(context.Background(), actor)
	assert.ErrorIs(t, err, leaveerrors.ErrAccessDenied)
}

func TestListPending_MapsRows(t *testing.T) {
	svc, deps := setupLeaveServiceTest(t)

	actor := authz.Actor{EmployeeID: uuid.NewString(), Role: authz.RoleManager}

	deps.repo.listPendingFn = func(context.Context) ([]PendingLeaveRow, error) {
		return []PendingLeaveRow{
			{
				ID:            uuid.NewString(),
				EmployeeID:    uuid.NewString(),
				EmployeeName:  "Dina Pratiwi",
				LeaveTypeName: "Casual",
				StartDate:     date(2025, 7, 1),
				EndDate:       date(2025, 7, 3),
				NoOfDays:      3,
				AppliedOn:     time.Date(2025, 6, 20, 8, 0, 0, 0, time.UTC),
			},
		}, nil
	}

	resp, err := svc.ListPending(context.Background(), actor)
	assert.NoError(t, err)
	assert.Len(t, resp, 1)
	assert.Equal(t, "Dina Pratiwi", resp[0].EmployeeName)
	assert.Equal(t, 3, resp[0].NoOfDays)
}
