package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-elms/internal/authz"
	"go-elms/internal/employee"
	employeeerrors "go-elms/internal/employee/errors"
	"go-elms/internal/events"
	leaveerrors "go-elms/internal/leave/errors"
	"go-elms/internal/leavetype"
	"go-elms/internal/messaging/kafka"
	"go-elms/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Apply(ctx context.Context, actor authz.Actor, req ApplyLeaveRequest) (LeaveResponse, error)
	Resolve(ctx context.Context, actor authz.Actor, id string, req ResolveLeaveRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, actor authz.Actor, id string) (LeaveResponse, error)
	ListOwn(ctx context.Context, actor authz.Actor) ([]OwnedLeaveResponse, error)
	ListPending(ctx context.Context, actor authz.Actor) ([]PendingLeaveResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	employees employee.Repository
	types     leavetype.Repository
	gate      authz.Gate
	outbox    kafka.OutboxRepository
	rdb       *redis.Client
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	employees employee.Repository,
	types leavetype.Repository,
	gate authz.Gate,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithOutbox(db, repo, employees, types, gate, nil, nil, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	employees employee.Repository,
	types leavetype.Repository,
	gate authz.Gate,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		employees: employees,
		types:     types,
		gate:      gate,
		outbox:    outboxRepo,
		rdb:       rdb,
		logger:    l,
	}
}

func (s *service) authorize(actor authz.Actor, action string) error {
	allowed, err := s.gate.Can(actor.Role, authz.ResourceLeave, action)
	if err != nil {
		return err
	}
	if !allowed {
		return leaveerrors.ErrAccessDenied
	}
	return nil
}

// Apply validates the request, runs the advisory balance check, and persists a
// PENDING record. The ledger is untouched here: only approval commits usage, so
// the balance is checked again at that point.
func (s *service) Apply(ctx context.Context, actor authz.Actor, req ApplyLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("apply leave requested",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("employee_id", actor.EmployeeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	if err := s.authorize(actor, authz.ActionApply); err != nil {
		return LeaveResponse{}, err
	}

	employeeUUID, err := uuid.Parse(actor.EmployeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	typeUUID, err := uuid.Parse(req.LeaveTypeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrLeaveTypeNotFound
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}

	days, err := DayCount(startDate, endDate)
	if err != nil {
		s.logger.Warn("apply leave invalid range",
			zap.String("start_date", req.StartDate),
			zap.String("end_date", req.EndDate),
		)
		return LeaveResponse{}, err
	}

	exists, err := s.types.ExistsByID(ctx, req.LeaveTypeID)
	if err != nil {
		return LeaveResponse{}, err
	}
	if !exists {
		return LeaveResponse{}, leaveerrors.ErrLeaveTypeNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("apply leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	emp, err := s.employees.WithTx(tx).FindByID(ctx, actor.EmployeeID)
	if err != nil {
		return LeaveResponse{}, err
	}
	if days > emp.Remaining() {
		s.logger.Warn("apply leave insufficient balance",
			zap.String("employee_id", actor.EmployeeID),
			zap.Int("requested_days", days),
			zap.Int("remaining", emp.Remaining()),
		)
		return LeaveResponse{}, leaveerrors.InsufficientBalance(emp.Remaining())
	}

	l := &LeaveRequest{
		ID:          uuid.New(),
		EmployeeID:  employeeUUID,
		LeaveTypeID: typeUUID,
		StartDate:   startDate,
		EndDate:     endDate,
		NoOfDays:    days,
		Remarks:     req.Remarks,
		Status:      StatusPending,
		AppliedOn:   time.Now().UTC(),
	}

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("apply leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("apply leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("apply leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", actor.EmployeeID),
		zap.Int("no_of_days", days),
	)

	return mapToResponse(*l), nil
}

// Resolve settles a pending request. The PENDING-guarded status update and the
// ledger increment run in one transaction: a raced duplicate resolution fails
// with ErrAlreadyResolved, and a ledger overdraw rolls the status back so the
// request stays PENDING for the resolver to see the real remaining balance.
func (s *service) Resolve(ctx context.Context, actor authz.Actor, id string, req ResolveLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("resolve leave requested",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("leave_id", id),
		zap.String("actor_id", actor.EmployeeID),
		zap.String("decision", req.Decision),
	)

	if err := s.authorize(actor, authz.ActionResolve); err != nil {
		return LeaveResponse{}, err
	}

	if _, err := uuid.Parse(actor.EmployeeID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	targetStatus := StatusRejected
	eventType := events.LeaveRejectedEventType
	if req.Decision == DecisionApprove {
		targetStatus = StatusApproved
		eventType = events.LeaveApprovedEventType
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("resolve leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if IsTerminal(l.Status) {
		s.logger.Warn("resolve leave already resolved",
			zap.String("leave_id", id),
			zap.String("status", l.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrAlreadyResolved
	}

	now := time.Now().UTC()
	var remarks *string
	if req.Remarks != "" {
		remarks = &req.Remarks
	}

	transitioned, err := qtx.MarkResolved(ctx, id, targetStatus, actor.EmployeeID, remarks, now)
	if err != nil {
		s.logger.Error("resolve leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	if !transitioned {
		// Lost the race to another resolver between the read and the update.
		return LeaveResponse{}, leaveerrors.ErrAlreadyResolved
	}

	if targetStatus == StatusApproved {
		// Recompute from the stored dates; a client-supplied day count is never
		// trusted for the ledger.
		days, err := DayCount(l.StartDate, l.EndDate)
		if err != nil {
			return LeaveResponse{}, err
		}

		empQtx := s.employees.WithTx(tx)
		if err := empQtx.CommitUsage(ctx, l.EmployeeID.String(), days); err != nil {
			if errors.Is(err, employeeerrors.ErrBalanceExceeded) {
				remaining := 0
				if emp, ferr := empQtx.FindByID(ctx, l.EmployeeID.String()); ferr == nil {
					remaining = emp.Remaining()
				}
				s.logger.Warn("resolve leave balance exhausted",
					zap.String("leave_id", id),
					zap.String("employee_id", l.EmployeeID.String()),
					zap.Int("requested_days", days),
					zap.Int("remaining", remaining),
				)
				return LeaveResponse{}, leaveerrors.InsufficientBalance(remaining)
			}
			return LeaveResponse{}, err
		}
		l.NoOfDays = days
	}

	if s.outbox != nil {
		if err := s.queueDecisionEvent(ctx, tx, l, targetStatus, eventType, actor.EmployeeID, now); err != nil {
			s.logger.Error("resolve leave outbox persist failed", zap.String("leave_id", id), zap.Error(err))
			return LeaveResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("resolve leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	if targetStatus == StatusApproved && s.rdb != nil {
		cacheKey := employee.BalanceCacheKey(l.EmployeeID.String())
		if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
			s.logger.Warn("invalidate balance cache failed",
				zap.String("key", cacheKey),
				zap.Error(err),
			)
		}
	}

	resolverUUID := uuid.MustParse(actor.EmployeeID)
	l.Status = targetStatus
	l.ResolvedBy = &resolverUUID
	l.ResolvedOn = &now
	l.ResolverRemarks = remarks

	s.logger.Info("resolve leave success",
		zap.String("leave_id", id),
		zap.String("status", targetStatus),
		zap.String("resolved_by", actor.EmployeeID),
	)

	return mapToResponse(*l), nil
}

func (s *service) queueDecisionEvent(
	ctx context.Context,
	tx *sql.Tx,
	l *LeaveRequest,
	status, eventType, decidedBy string,
	decidedAt time.Time,
) error {
	event := events.LeaveDecidedEvent{
		EventType:  eventType,
		RequestID:  contextutil.GetRequestID(ctx),
		LeaveID:    l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		Status:     status,
		NoOfDays:   l.NoOfDays,
		DecidedBy:  decidedBy,
		OccurredAt: decidedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     event.RequestID,
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveDecidedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

// Cancel lets the requester withdraw their own request while it is still
// pending. Pending requests never touched the ledger, so no balance changes.
func (s *service) Cancel(ctx context.Context, actor authz.Actor, id string) (LeaveResponse, error) {
	s.logger.Debug("cancel leave requested",
		zap.String("leave_id", id),
		zap.String("employee_id", actor.EmployeeID),
	)

	if err := s.authorize(actor, authz.ActionCancel); err != nil {
		return LeaveResponse{}, err
	}

	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if l.EmployeeID.String() != actor.EmployeeID {
		return LeaveResponse{}, leaveerrors.ErrNotRequestOwner
	}
	if IsTerminal(l.Status) {
		return LeaveResponse{}, leaveerrors.ErrAlreadyResolved
	}

	now := time.Now().UTC()
	cancelled, err := qtx.CancelOwn(ctx, id, actor.EmployeeID, now)
	if err != nil {
		s.logger.Error("cancel leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	if !cancelled {
		return LeaveResponse{}, leaveerrors.ErrAlreadyResolved
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	l.Status = StatusCancelled
	l.ResolvedBy = &l.EmployeeID
	l.ResolvedOn = &now

	s.logger.Info("cancel leave success",
		zap.String("leave_id", id),
		zap.String("employee_id", actor.EmployeeID),
	)

	return mapToResponse(*l), nil
}

func (s *service) ListOwn(ctx context.Context, actor authz.Actor) ([]OwnedLeaveResponse, error) {
	if err := s.authorize(actor, authz.ActionReadOwn); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByEmployee(ctx, actor.EmployeeID)
	if err != nil {
		s.logger.Error("list own leaves failed",
			zap.String("employee_id", actor.EmployeeID),
			zap.Error(err),
		)
		return nil, err
	}

	resp := make([]OwnedLeaveResponse, len(rows))
	for i, row := range rows {
		item := OwnedLeaveResponse{
			ID:              row.ID,
			LeaveTypeName:   row.LeaveTypeName,
			StartDate:       row.StartDate.Format(dateLayout),
			EndDate:         row.EndDate.Format(dateLayout),
			NoOfDays:        row.NoOfDays,
			Status:          row.Status,
			Remarks:         row.Remarks,
			AppliedOn:       row.AppliedOn.Format(time.RFC3339),
			ResolverName:    row.ResolverName,
			ResolverRemarks: row.ResolverRemarks,
		}
		if row.ResolvedOn != nil {
			v := row.ResolvedOn.Format(time.RFC3339)
			item.ResolvedOn = &v
		}
		resp[i] = item
	}

	return resp, nil
}

func (s *service) ListPending(ctx context.Context, actor authz.Actor) ([]PendingLeaveResponse, error) {
	if err := s.authorize(actor, authz.ActionReadPending); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListPending(ctx)
	if err != nil {
		s.logger.Error("list pending leaves failed", zap.Error(err))
		return nil, err
	}

	resp := make([]PendingLeaveResponse, len(rows))
	for i, row := range rows {
		resp[i] = PendingLeaveResponse{
			ID:            row.ID,
			EmployeeID:    row.EmployeeID,
			EmployeeName:  row.EmployeeName,
			LeaveTypeName: row.LeaveTypeName,
			StartDate:     row.StartDate.Format(dateLayout),
			EndDate:       row.EndDate.Format(dateLayout),
			NoOfDays:      row.NoOfDays,
			Remarks:       row.Remarks,
			AppliedOn:     row.AppliedOn.Format(time.RFC3339),
		}
	}

	return resp, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}
