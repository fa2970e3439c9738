package permission

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-leaveflow/internal/employee"
	"go-leaveflow/internal/events"
	"go-leaveflow/internal/messaging/kafka"
	permissionerrors "go-leaveflow/internal/permission/errors"
	"go-leaveflow/internal/policy"
	"go-leaveflow/internal/shared/clock"
	"go-leaveflow/internal/shared/contextutil"
	"go-leaveflow/internal/shared/counter"
	"go-leaveflow/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=permission_service.go -destination=mock/permission_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, actorID string, req SubmitPermissionRequest) (PermissionResponse, error)
	Approve(ctx context.Context, id, approverID string) (PermissionResponse, error)
	Reject(ctx context.Context, id, approverID, rejectionReason string) (PermissionResponse, error)
	GetByID(ctx context.Context, id string) (PermissionResponse, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]PermissionResponse, error)
	ListPending(ctx context.Context) ([]PermissionResponse, error)
}

type Deps struct {
	Repo      Repository
	Policies  policy.Repository
	Employees employee.Repository
	Counter   counter.Repository
	Outbox    kafka.OutboxRepository
	Clock     clock.Clock
}

type service struct {
	db     *sql.DB
	deps   Deps
	logger *zap.Logger
}

func NewService(db *sql.DB, deps Deps, logger ...*zap.Logger) Service {
	l := zap.L().Named("permission.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("permission.service")
	}
	return &service{db: db, deps: deps, logger: l}
}

// Submit mirrors the leave submission but the quota is derived, not
// stored: the month's approved hours are summed on demand and compared
// against the type's cap.
func (s *service) Submit(ctx context.Context, actorID string, req SubmitPermissionRequest) (PermissionResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("submit permission requested",
		zap.String("request_id", rid),
		zap.String("actor_id", actorID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("start_at", req.StartAt),
		zap.String("end_at", req.EndAt),
	)

	employeeUUID, typeUUID, createdByUUID, startAt, endAt, err := validateSubmitRequest(actorID, req)
	if err != nil {
		s.logger.Warn("submit permission validation failed", zap.Error(err))
		return PermissionResponse{}, err
	}

	hours := hoursBetween(startAt, endAt)
	if !hours.IsPositive() {
		s.logger.Warn("submit permission span rounds to zero hours",
			zap.String("start_at", req.StartAt),
			zap.String("end_at", req.EndAt),
		)
		return PermissionResponse{}, permissionerrors.ErrNoHours
	}

	exists, err := s.deps.Employees.Exists(ctx, req.EmployeeID)
	if err != nil {
		s.logger.Error("submit permission employee check failed", zap.Error(err))
		return PermissionResponse{}, err
	}
	if !exists {
		return PermissionResponse{}, permissionerrors.ErrEmployeeNotFound
	}

	overlap, err := s.deps.Repo.HasOverlapping(ctx, req.EmployeeID, startAt, endAt)
	if err != nil {
		s.logger.Error("submit permission overlap check failed", zap.Error(err))
		return PermissionResponse{}, err
	}
	if overlap {
		return PermissionResponse{}, permissionerrors.ErrPermissionOverlap
	}

	rule, err := s.deps.Policies.FindPermissionTypeRule(ctx, req.PermissionTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PermissionResponse{}, permissionerrors.ErrPermissionTypeUnavailable
		}
		s.logger.Error("submit permission rule lookup failed", zap.Error(err))
		return PermissionResponse{}, err
	}
	if !rule.Active {
		return PermissionResponse{}, permissionerrors.ErrPermissionTypeUnavailable
	}

	status := workflow.StatusPending
	if rule.Deductible {
		monthStart, monthEnd := monthWindow(startAt)
		used, err := s.deps.Repo.SumApprovedHours(ctx, req.EmployeeID, req.PermissionTypeID, monthStart, monthEnd)
		if err != nil {
			s.logger.Error("submit permission aggregate failed", zap.Error(err))
			return PermissionResponse{}, err
		}
		if used.Add(hours).GreaterThan(rule.MonthlyHourCap) {
			status = workflow.StatusAutoRejectedMonthlyCap
		}
	}

	nextVal, err := s.deps.Counter.GetNextValue(ctx, "permission_request")
	if err != nil {
		s.logger.Error("submit permission generate number failed", zap.Error(err))
		return PermissionResponse{}, err
	}

	now := s.deps.Clock.Now()
	p := &PermissionRequest{
		ID:               uuid.New(),
		RequestNumber:    fmt.Sprintf("PR-%06d", nextVal),
		EmployeeID:       employeeUUID,
		PermissionTypeID: typeUUID,
		StartAt:          startAt,
		EndAt:            endAt,
		Hours:            hours,
		Reason:           req.Reason,
		Status:           status,
		CreatedBy:        createdByUUID,
		SubmittedAt:      now,
	}
	if workflow.IsAutoRejected(status) {
		p.DecidedAt = &now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit permission begin tx failed", zap.Error(err))
		return PermissionResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.deps.Repo.WithTx(tx)
	if err := qtx.Create(ctx, p); err != nil {
		s.logger.Error("submit permission persist failed", zap.Error(err))
		return PermissionResponse{}, err
	}

	if workflow.IsAutoRejected(status) {
		if err := s.enqueueDecisionEvent(ctx, tx, rid, p); err != nil {
			return PermissionResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit permission commit failed", zap.Error(err))
		return PermissionResponse{}, err
	}

	s.logger.Info("submit permission success",
		zap.String("request_id", rid),
		zap.String("permission_id", p.ID.String()),
		zap.String("request_number", p.RequestNumber),
		zap.String("status", status),
		zap.String("hours", hours.String()),
	)

	resp := mapToResponse(*p)
	resp.PermissionTypeName = rule.Name
	return resp, nil
}

// Approve has no ledger debit: the aggregate is consistent by derivation.
// The cap is still re-checked inside the transaction because two
// concurrent approvals could jointly exceed it.
func (s *service) Approve(ctx context.Context, id, approverID string) (PermissionResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("approve permission requested",
		zap.String("request_id", rid),
		zap.String("permission_id", id),
		zap.String("approver_id", approverID),
	)

	if _, err := uuid.Parse(approverID); err != nil {
		return PermissionResponse{}, permissionerrors.ErrInvalidActorID
	}

	p, err := s.deps.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PermissionResponse{}, permissionerrors.ErrPermissionNotFound
		}
		return PermissionResponse{}, err
	}
	if p.Status != workflow.StatusPending {
		return PermissionResponse{}, permissionerrors.ErrNotPending
	}

	rule, err := s.deps.Policies.FindPermissionTypeRule(ctx, p.PermissionTypeID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PermissionResponse{}, permissionerrors.ErrPermissionTypeUnavailable
		}
		s.logger.Error("approve permission rule lookup failed", zap.Error(err))
		return PermissionResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("approve permission begin tx failed", zap.Error(err))
		return PermissionResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.deps.Repo.WithTx(tx)
	now := s.deps.Clock.Now()

	ok, err := qtx.TransitionStatus(ctx, id, workflow.StatusPending, workflow.StatusApproved, approverID, nil, now)
	if err != nil {
		s.logger.Error("approve permission transition failed", zap.Error(err))
		return PermissionResponse{}, err
	}
	if !ok {
		return PermissionResponse{}, permissionerrors.ErrNotPending
	}

	if rule.Deductible {
		monthStart, monthEnd := monthWindow(p.StartAt)
		used, err := qtx.SumApprovedHours(ctx, p.EmployeeID.String(), p.PermissionTypeID.String(), monthStart, monthEnd)
		if err != nil {
			s.logger.Error("approve permission aggregate failed", zap.Error(err))
			return PermissionResponse{}, err
		}
		// The sum already includes this request's transition above.
		if used.GreaterThan(rule.MonthlyHourCap) {
			s.logger.Warn("approve permission refused by monthly cap",
				zap.String("permission_id", id),
				zap.String("used_hours", used.String()),
				zap.String("cap", rule.MonthlyHourCap.String()),
			)
			return PermissionResponse{}, permissionerrors.ErrMonthlyCapExceeded
		}
	}

	approverUUID := uuid.MustParse(approverID)
	p.Status = workflow.StatusApproved
	p.ApproverID = &approverUUID
	p.DecidedAt = &now

	if err := s.enqueueDecisionEvent(ctx, tx, rid, p); err != nil {
		return PermissionResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve permission commit failed", zap.Error(err))
		return PermissionResponse{}, err
	}

	s.logger.Info("approve permission success",
		zap.String("request_id", rid),
		zap.String("permission_id", id),
		zap.String("approver_id", approverID),
	)
	return mapToResponse(*p), nil
}

func (s *service) Reject(ctx context.Context, id, approverID, rejectionReason string) (PermissionResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	if _, err := uuid.Parse(approverID); err != nil {
		return PermissionResponse{}, permissionerrors.ErrInvalidActorID
	}
	if rejectionReason == "" {
		return PermissionResponse{}, permissionerrors.ErrRejectionReasonRequired
	}

	p, err := s.deps.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PermissionResponse{}, permissionerrors.ErrPermissionNotFound
		}
		return PermissionResponse{}, err
	}
	if p.Status != workflow.StatusPending {
		return PermissionResponse{}, permissionerrors.ErrNotPending
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("reject permission begin tx failed", zap.Error(err))
		return PermissionResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.deps.Repo.WithTx(tx)
	now := s.deps.Clock.Now()

	ok, err := qtx.TransitionStatus(ctx, id, workflow.StatusPending, workflow.StatusRejected, approverID, &rejectionReason, now)
	if err != nil {
		s.logger.Error("reject permission transition failed", zap.Error(err))
		return PermissionResponse{}, err
	}
	if !ok {
		return PermissionResponse{}, permissionerrors.ErrNotPending
	}

	approverUUID := uuid.MustParse(approverID)
	p.Status = workflow.StatusRejected
	p.ApproverID = &approverUUID
	p.RejectionReason = &rejectionReason
	p.DecidedAt = &now

	if err := s.enqueueDecisionEvent(ctx, tx, rid, p); err != nil {
		return PermissionResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reject permission commit failed", zap.Error(err))
		return PermissionResponse{}, err
	}

	s.logger.Info("reject permission success",
		zap.String("request_id", rid),
		zap.String("permission_id", id),
	)
	return mapToResponse(*p), nil
}

func (s *service) GetByID(ctx context.Context, id string) (PermissionResponse, error) {
	p, err := s.deps.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PermissionResponse{}, permissionerrors.ErrPermissionNotFound
		}
		return PermissionResponse{}, err
	}
	return mapToResponse(*p), nil
}

func (s *service) ListByEmployee(ctx context.Context, employeeID string) ([]PermissionResponse, error) {
	requests, err := s.deps.Repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

func (s *service) ListPending(ctx context.Context) ([]PermissionResponse, error) {
	requests, err := s.deps.Repo.ListByStatus(ctx, workflow.StatusPending)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

func (s *service) enqueueDecisionEvent(ctx context.Context, tx *sql.Tx, rid string, p *PermissionRequest) error {
	if s.deps.Outbox == nil {
		return nil
	}

	event := events.PermissionDecisionEvent{
		EventType:        "permission_decision",
		RequestID:        p.ID.String(),
		EmployeeID:       p.EmployeeID.String(),
		PermissionTypeID: p.PermissionTypeID.String(),
		Outcome:          p.Status,
		Hours:            p.Hours.StringFixed(2),
		OccurredAt:       s.deps.Clock.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal decision event failed", zap.Error(err))
		return err
	}

	if err := s.deps.Outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "permission_request",
		AggregateID:   p.ID.String(),
		EventType:     event.EventType,
		Topic:         events.PermissionDecisionTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("decision event outbox persist failed",
			zap.String("permission_id", p.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// hoursBetween converts the span to fractional hours at two decimal
// places, e.g. 90 minutes -> 1.50.
func hoursBetween(startAt, endAt time.Time) decimal.Decimal {
	minutes := endAt.Sub(startAt).Minutes()
	return decimal.NewFromFloat(minutes).Div(decimal.NewFromInt(60)).Round(2)
}

// monthWindow returns [first of month, first of next month) for t.
func monthWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func validateSubmitRequest(actorID string, req SubmitPermissionRequest) (uuid.UUID, uuid.UUID, uuid.UUID, time.Time, time.Time, error) {
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, permissionerrors.ErrInvalidEmployeeID
	}
	typeUUID, err := uuid.Parse(req.PermissionTypeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, permissionerrors.ErrInvalidPermissionTypeID
	}
	createdByUUID, err := uuid.Parse(actorID)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, permissionerrors.ErrInvalidActorID
	}
	startAt, err := parseTime(req.StartAt)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	endAt, err := parseTime(req.EndAt)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	if !endAt.After(startAt) || !sameDay(startAt, endAt) {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, permissionerrors.ErrInvalidTimeRange
	}
	return employeeUUID, typeUUID, createdByUUID, startAt, endAt, nil
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, permissionerrors.ErrInvalidTimeFormat
	}
	return t.UTC(), nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func mapToResponse(p PermissionRequest) PermissionResponse {
	resp := PermissionResponse{
		ID:               p.ID.String(),
		RequestNumber:    p.RequestNumber,
		EmployeeID:       p.EmployeeID.String(),
		PermissionTypeID: p.PermissionTypeID.String(),
		StartAt:          p.StartAt.Format(time.RFC3339),
		EndAt:            p.EndAt.Format(time.RFC3339),
		Hours:            p.Hours.StringFixed(2),
		Reason:           p.Reason,
		Status:           p.Status,
		CreatedBy:        p.CreatedBy.String(),
		SubmittedAt:      p.SubmittedAt.Format(time.RFC3339),
	}
	if p.Employee != nil {
		resp.EmployeeName = p.Employee.FullName
	}
	if p.PermissionType != nil {
		resp.PermissionTypeName = p.PermissionType.Name
	}
	if p.ApproverID != nil {
		v := p.ApproverID.String()
		resp.ApproverID = &v
	}
	if p.DecidedAt != nil {
		v := p.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &v
	}
	resp.RejectionReason = p.RejectionReason
	return resp
}

func mapToListResponse(requests []PermissionRequest) []PermissionResponse {
	resp := make([]PermissionResponse, len(requests))
	for i, p := range requests {
		resp[i] = mapToResponse(p)
	}
	return resp
}
