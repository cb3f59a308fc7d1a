package employee

import (
	"context"
	"encoding/json"
	"time"

	"go-elms/internal/authz"
	employeeerrors "go-elms/internal/employee/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	balanceCacheKeyPrefix = "employees:balance:"
	balanceCacheTTL       = 5 * time.Minute
)

// BalanceCacheKey is exported so the leave lifecycle can invalidate the cached
// balance after committing an approval.
func BalanceCacheKey(employeeID string) string {
	return balanceCacheKeyPrefix + employeeID
}

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	Balance(ctx context.Context, actor authz.Actor, employeeID string) (BalanceResponse, error)
}

type service struct {
	repo   Repository
	gate   authz.Gate
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, gate authz.Gate, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		repo:   repo,
		gate:   gate,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

// Balance returns the employee's leave allotment and remaining days. Requester
// roles may only read their own balance; resolver roles may read anyone's.
func (s *service) Balance(ctx context.Context, actor authz.Actor, employeeID string) (BalanceResponse, error) {
	if employeeID == "" {
		employeeID = actor.EmployeeID
	}

	allowed, err := s.gate.Can(actor.Role, authz.ResourceLeave, authz.ActionReadOwn)
	if err != nil {
		return BalanceResponse{}, err
	}
	if !allowed {
		return BalanceResponse{}, employeeerrors.ErrBalanceForbidden
	}

	if employeeID != actor.EmployeeID {
		canReadAny, err := s.gate.Can(actor.Role, authz.ResourceLeave, authz.ActionReadAny)
		if err != nil {
			return BalanceResponse{}, err
		}
		if !canReadAny {
			return BalanceResponse{}, employeeerrors.ErrBalanceForbidden
		}
	}

	if _, err := uuid.Parse(employeeID); err != nil {
		return BalanceResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	cacheKey := BalanceCacheKey(employeeID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp BalanceResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	// Collapse concurrent misses for the same employee into one DB read.
	v, err, _ := s.sf.Do(cacheKey, func() (any, error) {
		emp, err := s.repo.FindByID(ctx, employeeID)
		if err != nil {
			return BalanceResponse{}, err
		}

		resp := mapToBalanceResponse(*emp)

		if s.rdb != nil {
			if payload, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, cacheKey, payload, balanceCacheTTL).Err(); err != nil {
					s.logger.Warn("cache balance failed",
						zap.String("employee_id", employeeID),
						zap.Error(err),
					)
				}
			}
		}

		return resp, nil
	})
	if err != nil {
		return BalanceResponse{}, err
	}

	return v.(BalanceResponse), nil
}
