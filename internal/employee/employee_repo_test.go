package employee

import (
	"context"
	"database/sql"
	"testing"
	"time"

	employeeerrors "go-elms/internal/employee/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func setupEmployeeRepoTest(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(db), mock
}

func TestCommitUsage_GuardAccepts(t *testing.T) {
	repo, mock := setupEmployeeRepoTest(t)

	id := uuid.NewString()
	mock.ExpectExec(`UPDATE employees`).
		WithArgs(3, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.CommitUsage(context.Background(), id, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitUsage_GuardRejectsOverdraw(t *testing.T) {
	repo, mock := setupEmployeeRepoTest(t)

	id := uuid.NewString()
	mock.ExpectExec(`UPDATE employees`).
		WithArgs(10, id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.CommitUsage(context.Background(), id, 10)
	assert.ErrorIs(t, err, employeeerrors.ErrBalanceExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitUsage_UnknownEmployee(t *testing.T) {
	repo, mock := setupEmployeeRepoTest(t)

	id := uuid.NewString()
	mock.ExpectExec(`UPDATE employees`).
		WithArgs(1, id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.CommitUsage(context.Background(), id, 1)
	assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeFindByID_Success(t *testing.T) {
	repo, mock := setupEmployeeRepoTest(t)

	id := uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "full_name", "email", "role", "total_leaves", "used_leaves", "created_at", "updated_at",
	}).AddRow(id.String(), "Dina Pratiwi", "dina@example.com", "EMPLOYEE", 20, 4, now, now)

	mock.ExpectQuery(`SELECT id, full_name`).
		WithArgs(id.String()).
		WillReturnRows(rows)

	e, err := repo.FindByID(context.Background(), id.String())
	assert.NoError(t, err)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, 16, e.Remaining())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeFindByID_NotFound(t *testing.T) {
	repo, mock := setupEmployeeRepoTest(t)

	id := uuid.NewString()
	mock.ExpectQuery(`SELECT id, full_name`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
