package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"go-elms/internal/authz"
	employeeerrors "go-elms/internal/employee/errors"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeRepo struct {
	findByIDFn func(ctx context.Context, id string) (*Employee, error)
}

func (f *fakeRepo) WithTx(*sql.Tx) Repository { return f }
func (f *fakeRepo) FindByID(ctx context.Context, id string) (*Employee, error) {
	return f.findByIDFn(ctx, id)
}
func (f *fakeRepo) CommitUsage(context.Context, string, int) error { return nil }

func testEmployee(id uuid.UUID) *Employee {
	return &Employee{
		ID:          id,
		FullName:    "Dina Pratiwi",
		Email:       "dina@example.com",
		Role:        authz.RoleEmployee,
		TotalLeaves: 20,
		UsedLeaves:  4,
	}
}

func setupBalanceTest(t *testing.T) (*fakeRepo, Service, redismock.ClientMock) {
	t.Helper()

	gate, err := authz.NewGate()
	assert.NoError(t, err)

	rdb, rmock := redismock.NewClientMock()
	repo := &fakeRepo{}

	return repo, NewService(repo, gate, rdb), rmock
}

func TestBalance_OwnBalanceCacheMiss(t *testing.T) {
	repo, svc, rmock := setupBalanceTest(t)

	id := uuid.New()
	repo.findByIDFn = func(_ context.Context, got string) (*Employee, error) {
		assert.Equal(t, id.String(), got)
		return testEmployee(id), nil
	}

	key := BalanceCacheKey(id.String())
	expected, _ := json.Marshal(mapToBalanceResponse(*testEmployee(id)))

	rmock.ExpectGet(key).RedisNil()
	rmock.ExpectSet(key, expected, 5*time.Minute).SetVal("OK")

	resp, err := svc.Balance(context.Background(), authz.Actor{EmployeeID: id.String(), Role: authz.RoleEmployee}, "")
	assert.NoError(t, err)
	assert.Equal(t, 16, resp.RemainingLeaves)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestBalance_CacheHitSkipsRepo(t *testing.T) {
	repo, svc, rmock := setupBalanceTest(t)

	id := uuid.New()
	repo.findByIDFn = func(context.Context, string) (*Employee, error) {
		t.Fatal("repo must not be hit on a cache hit")
		return nil, nil
	}

	cached, _ := json.Marshal(mapToBalanceResponse(*testEmployee(id)))
	rmock.ExpectGet(BalanceCacheKey(id.String())).SetVal(string(cached))

	resp, err := svc.Balance(context.Background(), authz.Actor{EmployeeID: id.String(), Role: authz.RoleEmployee}, "")
	assert.NoError(t, err)
	assert.Equal(t, id.String(), resp.EmployeeID)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestBalance_RequesterCannotReadOthers(t *testing.T) {
	_, svc, _ := setupBalanceTest(t)

	actor := authz.Actor{EmployeeID: uuid.NewString(), Role: authz.RoleDeveloper}

	_, err := svc.Balance(context.Background(), actor, uuid.NewString())
	assert.ErrorIs(t, err, employeeerrors.ErrBalanceForbidden)
}

func TestBalance_ResolverReadsAnyEmployee(t *testing.T) {
	repo, svc, rmock := setupBalanceTest(t)

	target := uuid.New()
	repo.findByIDFn = func(_ context.Context, got string) (*Employee, error) {
		assert.Equal(t, target.String(), got)
		return testEmployee(target), nil
	}

	key := BalanceCacheKey(target.String())
	expected, _ := json.Marshal(mapToBalanceResponse(*testEmployee(target)))
	rmock.ExpectGet(key).RedisNil()
	rmock.ExpectSet(key, expected, 5*time.Minute).SetVal("OK")

	actor := authz.Actor{EmployeeID: uuid.NewString(), Role: authz.RoleHR}
	resp, err := svc.Balance(context.Background(), actor, target.String())

	assert.NoError(t, err)
	assert.Equal(t, target.String(), resp.EmployeeID)
}

func TestBalance_UnknownRoleFailsClosed(t *testing.T) {
	_, svc, _ := setupBalanceTest(t)

	actor := authz.Actor{EmployeeID: uuid.NewString(), Role: "INTERN"}

	_, err := svc.Balance(context.Background(), actor, "")
	assert.ErrorIs(t, err, employeeerrors.ErrBalanceForbidden)
}

func TestBalance_InvalidEmployeeID(t *testing.T) {
	_, svc, _ := setupBalanceTest(t)

	actor := authz.Actor{EmployeeID: "not-a-uuid", Role: authz.RoleEmployee}

	_, err := svc.Balance(context.Background(), actor, "")
	assert.ErrorIs(t, err, employeeerrors.ErrInvalidEmployeeID)
}
