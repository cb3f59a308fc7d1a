package leaveerrors

import (
	"fmt"
	"net/http"

	"go-elms/internal/shared/apperror"
)

var (
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave request id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrLeaveTypeNotFound = apperror.New(
		apperror.CodeInvalidInput,
		"unknown leave type",
		http.StatusBadRequest,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	// ErrAlreadyResolved rejects the second of two resolution attempts instead
	// of silently accepting it; a raced duplicate must surface to its caller.
	ErrAlreadyResolved = apperror.New(
		apperror.CodeInvalidState,
		"leave request already resolved",
		http.StatusConflict,
	)
	ErrAccessDenied = apperror.New(
		apperror.CodeForbidden,
		"role is not permitted to perform this operation",
		http.StatusForbidden,
	)
	ErrNotRequestOwner = apperror.New(
		apperror.CodeForbidden,
		"only the requesting employee may cancel this leave request",
		http.StatusForbidden,
	)
)

// InsufficientBalance is raised both at submission (advisory check) and at
// approval (ledger commit), carrying the remaining days so the caller can show
// how much balance is actually left.
func InsufficientBalance(remaining int) *apperror.AppError {
	return apperror.New(
		apperror.CodeInsufficientBalance,
		fmt.Sprintf("insufficient leave balance: %d day(s) remaining", remaining),
		http.StatusUnprocessableEntity,
	)
}
