package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-leaveflow/internal/balance"
	"go-leaveflow/internal/employee"
	"go-leaveflow/internal/events"
	leaveerrors "go-leaveflow/internal/leave/errors"
	"go-leaveflow/internal/messaging/kafka"
	"go-leaveflow/internal/policy"
	"go-leaveflow/internal/shared/clock"
	"go-leaveflow/internal/shared/contextutil"
	"go-leaveflow/internal/shared/counter"
	"go-leaveflow/internal/workflow"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, actorID string, req SubmitLeaveRequest) (LeaveResponse, error)
	Approve(ctx context.Context, id, approverID string) (LeaveResponse, error)
	Reject(ctx context.Context, id, approverID, rejectionReason string) (LeaveResponse, error)
	GetByID(ctx context.Context, id string) (LeaveResponse, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]LeaveResponse, error)
	ListPending(ctx context.Context) ([]LeaveResponse, error)
}

// Deps groups the collaborators the orchestrator consults. Policies and
// employees are read-only; balances are only mutated inside Approve.
type Deps struct {
	Repo      Repository
	Balances  balance.Repository
	Policies  policy.Repository
	Employees employee.Repository
	Counter   counter.Repository
	Outbox    kafka.OutboxRepository
	Redis     *redis.Client
	Clock     clock.Clock
	RestDays  []time.Weekday
}

type service struct {
	db     *sql.DB
	deps   Deps
	logger *zap.Logger
}

func NewService(db *sql.DB, deps Deps, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{db: db, deps: deps, logger: l}
}

// Submit runs the full policy evaluation and persists the request with its
// initial status. The only write is the request row (plus a decision event
// when policy auto-rejects); balances are never touched here.
func (s *service) Submit(ctx context.Context, actorID string, req SubmitLeaveRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("submit leave requested",
		zap.String("request_id", rid),
		zap.String("actor_id", actorID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	employeeUUID, leaveTypeUUID, createdByUUID, startDate, endDate, err := validateSubmitRequest(actorID, req)
	if err != nil {
		s.logger.Warn("submit leave validation failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	exists, err := s.deps.Employees.Exists(ctx, req.EmployeeID)
	if err != nil {
		s.logger.Error("submit leave employee check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !exists {
		return LeaveResponse{}, leaveerrors.ErrEmployeeNotFound
	}

	days := workflow.WorkingDays(startDate, endDate, s.deps.RestDays)
	if days == 0 {
		return LeaveResponse{}, leaveerrors.ErrNoWorkingDays
	}

	overlap, err := s.deps.Repo.HasOverlapping(ctx, req.EmployeeID, startDate, endDate)
	if err != nil {
		s.logger.Error("submit leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if overlap {
		s.logger.Warn("submit leave overlap detected",
			zap.String("employee_id", req.EmployeeID),
			zap.String("start_date", req.StartDate),
			zap.String("end_date", req.EndDate),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}

	rule, err := s.deps.Policies.FindLeaveTypeRule(ctx, req.LeaveTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveTypeUnavailable
		}
		s.logger.Error("submit leave rule lookup failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !rule.Active {
		return LeaveResponse{}, leaveerrors.ErrLeaveTypeUnavailable
	}
	if rule.RequiresMedicalNote && req.MedicalNote == "" {
		return LeaveResponse{}, leaveerrors.ErrMedicalNoteRequired
	}
	if rule.MaxDaysPerYear > 0 && days > rule.MaxDaysPerYear {
		return LeaveResponse{}, leaveerrors.ErrExceedsMaxDays
	}

	status, err := s.evaluateBalancePolicy(ctx, req.EmployeeID, req.LeaveTypeID, rule, days)
	if err != nil {
		return LeaveResponse{}, err
	}

	nextVal, err := s.deps.Counter.GetNextValue(ctx, "leave_request")
	if err != nil {
		s.logger.Error("submit leave generate number failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	now := s.deps.Clock.Now()
	l := &LeaveRequest{
		ID:            uuid.New(),
		RequestNumber: fmt.Sprintf("LR-%06d", nextVal),
		EmployeeID:    employeeUUID,
		LeaveTypeID:   leaveTypeUUID,
		StartDate:     startDate,
		EndDate:       endDate,
		NumberOfDays:  days,
		Reason:        req.Reason,
		MedicalNote:   req.MedicalNote,
		Status:        status,
		CreatedBy:     createdByUUID,
		SubmittedAt:   now,
	}
	if workflow.IsAutoRejected(status) {
		l.DecidedAt = &now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.deps.Repo.WithTx(tx)
	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("submit leave persist failed", zap.Error(err))
		return LeaveResponse{}, mapRepositoryError(err)
	}

	if workflow.IsAutoRejected(status) {
		if err := s.enqueueDecisionEvent(ctx, tx, rid, l); err != nil {
			return LeaveResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit leave commit failed", zap.Error(err))
		return LeaveResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("submit leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", l.ID.String()),
		zap.String("request_number", l.RequestNumber),
		zap.String("status", status),
		zap.Int("days", days),
	)

	resp := mapToResponse(*l)
	resp.LeaveTypeName = rule.Name
	return resp, nil
}

// evaluateBalancePolicy decides the initial status. Non-deducting leave
// types skip the ledger entirely.
func (s *service) evaluateBalancePolicy(ctx context.Context, employeeID, leaveTypeID string, rule *policy.LeaveTypeRule, days int) (string, error) {
	if !rule.Deductible {
		return workflow.StatusPending, nil
	}

	year := s.deps.Clock.Now().Year()
	bal, err := s.deps.Balances.Find(ctx, employeeID, leaveTypeID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return workflow.StatusAutoRejectedNoBalance, nil
		}
		s.logger.Error("submit leave balance read failed", zap.Error(err))
		return "", err
	}
	if bal.Available() < days {
		return workflow.StatusAutoRejectedInsufficientBalance, nil
	}
	return workflow.StatusPending, nil
}

// Approve performs the status transition, the guarded balance debit, the
// history log append and the decision event as one database transaction;
// a failure in any step rolls back all of them.
func (s *service) Approve(ctx context.Context, id, approverID string) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("approve leave requested",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.String("approver_id", approverID),
	)

	if _, err := uuid.Parse(approverID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}

	l, err := s.deps.Repo.FindByID(ctx, id)
	if err != nil {
		return LeaveResponse{}, mapRepositoryError(err)
	}
	if l.Status != workflow.StatusPending {
		s.logger.Warn("approve leave not pending",
			zap.String("leave_id", id),
			zap.String("status", l.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrNotPending
	}

	rule, err := s.deps.Policies.FindLeaveTypeRule(ctx, l.LeaveTypeID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveTypeUnavailable
		}
		s.logger.Error("approve leave rule lookup failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("approve leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.deps.Repo.WithTx(tx)
	now := s.deps.Clock.Now()

	// CAS transition: a concurrent approver loses here, not after the debit.
	ok, err := qtx.TransitionStatus(ctx, id, workflow.StatusPending, workflow.StatusApproved, approverID, nil, now)
	if err != nil {
		s.logger.Error("approve leave transition failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !ok {
		return LeaveResponse{}, leaveerrors.ErrNotPending
	}

	year := now.Year()
	if rule.Deductible {
		if err := s.deps.Balances.WithTx(tx).SubtractUsedDays(ctx, l.EmployeeID.String(), l.LeaveTypeID.String(), year, l.NumberOfDays); err != nil {
			s.logger.Warn("approve leave balance debit refused",
				zap.String("leave_id", id),
				zap.Int("days", l.NumberOfDays),
				zap.Error(err),
			)
			return LeaveResponse{}, err
		}
	}

	if err := qtx.CreateLog(ctx, &LeaveLog{
		ID:          uuid.New(),
		RequestID:   l.ID,
		EmployeeID:  l.EmployeeID,
		LeaveTypeID: l.LeaveTypeID,
		Quantity:    l.NumberOfDays,
		StartDate:   l.StartDate,
		EndDate:     l.EndDate,
	}); err != nil {
		s.logger.Error("approve leave log persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	approverUUID := uuid.MustParse(approverID)
	l.Status = workflow.StatusApproved
	l.ApproverID = &approverUUID
	l.DecidedAt = &now

	if err := s.enqueueDecisionEvent(ctx, tx, rid, l); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.invalidateBalanceSummary(ctx, l.EmployeeID.String(), year)

	s.logger.Info("approve leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.String("approver_id", approverID),
		zap.Int("days", l.NumberOfDays),
	)
	return mapToResponse(*l), nil
}

// Reject transitions PENDING -> REJECTED. No balance or log effects; a
// repeated call is a benign failure.
func (s *service) Reject(ctx context.Context, id, approverID, rejectionReason string) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("reject leave requested",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
		zap.String("approver_id", approverID),
	)

	if _, err := uuid.Parse(approverID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	if rejectionReason == "" {
		return LeaveResponse{}, leaveerrors.ErrRejectionReasonRequired
	}

	l, err := s.deps.Repo.FindByID(ctx, id)
	if err != nil {
		return LeaveResponse{}, mapRepositoryError(err)
	}
	if l.Status != workflow.StatusPending {
		return LeaveResponse{}, leaveerrors.ErrNotPending
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("reject leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.deps.Repo.WithTx(tx)
	now := s.deps.Clock.Now()

	ok, err := qtx.TransitionStatus(ctx, id, workflow.StatusPending, workflow.StatusRejected, approverID, &rejectionReason, now)
	if err != nil {
		s.logger.Error("reject leave transition failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !ok {
		return LeaveResponse{}, leaveerrors.ErrNotPending
	}

	approverUUID := uuid.MustParse(approverID)
	l.Status = workflow.StatusRejected
	l.ApproverID = &approverUUID
	l.RejectionReason = &rejectionReason
	l.DecidedAt = &now

	if err := s.enqueueDecisionEvent(ctx, tx, rid, l); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reject leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("reject leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", id),
	)
	return mapToResponse(*l), nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveResponse, error) {
	l, err := s.deps.Repo.FindByID(ctx, id)
	if err != nil {
		return LeaveResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*l), nil
}

func (s *service) ListByEmployee(ctx context.Context, employeeID string) ([]LeaveResponse, error) {
	requests, err := s.deps.Repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

func (s *service) ListPending(ctx context.Context) ([]LeaveResponse, error) {
	requests, err := s.deps.Repo.ListByStatus(ctx, workflow.StatusPending)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

// enqueueDecisionEvent writes the notification into the outbox on the same
// tx as the decision itself. Nil outbox disables notifications (no-op hook).
func (s *service) enqueueDecisionEvent(ctx context.Context, tx *sql.Tx, rid string, l *LeaveRequest) error {
	if s.deps.Outbox == nil {
		return nil
	}

	event := events.LeaveDecisionEvent{
		EventType:   "leave_decision",
		RequestID:   l.ID.String(),
		EmployeeID:  l.EmployeeID.String(),
		LeaveTypeID: l.LeaveTypeID.String(),
		Outcome:     l.Status,
		Days:        l.NumberOfDays,
		OccurredAt:  s.deps.Clock.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal decision event failed", zap.Error(err))
		return err
	}

	if err := s.deps.Outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     event.EventType,
		Topic:         events.LeaveDecisionTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("decision event outbox persist failed",
			zap.String("leave_id", l.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *service) invalidateBalanceSummary(ctx context.Context, employeeID string, year int) {
	if s.deps.Redis == nil {
		return
	}
	cacheKey := balance.SummaryCacheKey(employeeID, year)
	if err := s.deps.Redis.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate balance summary cache",
			zap.Error(err),
			zap.String("key", cacheKey),
		)
	}
}

func validateSubmitRequest(actorID string, req SubmitLeaveRequest) (uuid.UUID, uuid.UUID, uuid.UUID, time.Time, time.Time, error) {
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidEmployeeID
	}
	leaveTypeUUID, err := uuid.Parse(req.LeaveTypeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidLeaveTypeID
	}
	createdByUUID, err := uuid.Parse(actorID)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidActorID
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	if startDate.After(endDate) {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateRange
	}
	return employeeUUID, leaveTypeUUID, createdByUUID, startDate, endDate, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:            l.ID.String(),
		RequestNumber: l.RequestNumber,
		EmployeeID:    l.EmployeeID.String(),
		LeaveTypeID:   l.LeaveTypeID.String(),
		StartDate:     l.StartDate.Format("2006-01-02"),
		EndDate:       l.EndDate.Format("2006-01-02"),
		NumberOfDays:  l.NumberOfDays,
		Reason:        l.Reason,
		Status:        l.Status,
		CreatedBy:     l.CreatedBy.String(),
		SubmittedAt:   l.SubmittedAt.Format(time.RFC3339),
	}
	if l.Employee != nil {
		resp.EmployeeName = l.Employee.FullName
	}
	if l.LeaveType != nil {
		resp.LeaveTypeName = l.LeaveType.Name
	}
	if l.ApproverID != nil {
		v := l.ApproverID.String()
		resp.ApproverID = &v
	}
	if l.DecidedAt != nil {
		v := l.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &v
	}
	resp.RejectionReason = l.RejectionReason
	return resp
}

func mapToListResponse(requests []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(requests))
	for i, l := range requests {
		resp[i] = mapToResponse(l)
	}
	return resp
}
