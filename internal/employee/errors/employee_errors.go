package employeeerrors

import (
	"net/http"

	"go-elms/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	// ErrBalanceExceeded is the ledger-level commit failure: the requested days
	// no longer fit the allotment at commit time. Callers of the lifecycle see
	// it as an insufficient-balance error.
	ErrBalanceExceeded = apperror.New(
		apperror.CodeInsufficientBalance,
		"leave balance exceeded",
		http.StatusUnprocessableEntity,
	)
	ErrBalanceForbidden = apperror.New(
		apperror.CodeForbidden,
		"you may only view your own leave balance",
		http.StatusForbidden,
	)
)
