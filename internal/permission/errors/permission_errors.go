package permissionerrors

import (
	"net/http"

	"go-leaveflow/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidPermissionTypeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid permission type id",
		http.StatusBadRequest,
	)
	ErrInvalidTimeFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid timestamp, expected RFC3339",
		http.StatusBadRequest,
	)
	ErrInvalidTimeRange = apperror.New(
		apperror.CodeInvalidInput,
		"end_at must be after start_at on the same calendar day",
		http.StatusBadRequest,
	)
	ErrNoHours = apperror.New(
		apperror.CodeInvalidInput,
		"the requested span amounts to zero hours",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrPermissionTypeUnavailable = apperror.New(
		apperror.CodeInvalidInput,
		"permission type is unknown or inactive",
		http.StatusBadRequest,
	)
	ErrPermissionOverlap = apperror.New(
		apperror.CodeConflict,
		"an open or approved permission already covers part of this period",
		http.StatusConflict,
	)
	ErrPermissionNotFound = apperror.New(
		apperror.CodeNotFound,
		"permission request not found",
		http.StatusNotFound,
	)
	ErrNotPending = apperror.New(
		apperror.CodeInvalidState,
		"request could not be processed: it is no longer pending",
		http.StatusBadRequest,
	)
	ErrMonthlyCapExceeded = apperror.New(
		apperror.CodeInvalidState,
		"approving this permission would exceed the monthly hour cap",
		http.StatusBadRequest,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"rejection_reason is required",
		http.StatusBadRequest,
	)
)
