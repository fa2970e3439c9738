package balance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	balanceerrors "go-leaveflow/internal/balance/errors"
	"go-leaveflow/internal/shared/clock"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const summaryKeyPrefix = "balances:summary:"

// SummaryCacheKey is the Redis key for an employee's cached balance summary.
// Exported so the approval workflow can invalidate it after a debit.
func SummaryCacheKey(employeeID string, year int) string {
	return fmt.Sprintf("%s%s:%d", summaryKeyPrefix, employeeID, year)
}

//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Service interface {
	Allocate(ctx context.Context, req AllocateBalanceRequest) (BalanceResponse, error)
	Get(ctx context.Context, employeeID, leaveTypeID string, year int) (BalanceResponse, error)
	GetSummary(ctx context.Context, employeeID string, year int) ([]BalanceResponse, error)
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	clk    clock.Clock
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, clk clock.Clock, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{repo: repo, rdb: rdb, clk: clk, sf: &singleflight.Group{}, logger: l}
}

func (s *service) Allocate(ctx context.Context, req AllocateBalanceRequest) (BalanceResponse, error) {
	s.logger.Debug("allocate balance requested",
		zap.String("employee_id", req.EmployeeID),
		zap.String("leave_type_id", req.LeaveTypeID),
		zap.Int("year", req.Year),
		zap.Int("allocated_days", req.AllocatedDays),
	)

	if _, err := uuid.Parse(req.EmployeeID); err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidEmployeeID
	}
	if _, err := uuid.Parse(req.LeaveTypeID); err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidLeaveTypeID
	}
	if req.AllocatedDays < 0 {
		return BalanceResponse{}, balanceerrors.ErrInvalidAllocation
	}

	if err := s.repo.Allocate(ctx, req.EmployeeID, req.LeaveTypeID, req.Year, req.AllocatedDays); err != nil {
		s.logger.Error("allocate balance persist failed", zap.Error(err))
		return BalanceResponse{}, err
	}

	s.invalidateSummary(ctx, req.EmployeeID, req.Year)

	b, err := s.repo.Find(ctx, req.EmployeeID, req.LeaveTypeID, req.Year)
	if err != nil {
		return BalanceResponse{}, err
	}

	s.logger.Info("allocate balance success",
		zap.String("employee_id", req.EmployeeID),
		zap.String("leave_type_id", req.LeaveTypeID),
		zap.Int("year", req.Year),
	)
	return mapToResponse(*b), nil
}

func (s *service) Get(ctx context.Context, employeeID, leaveTypeID string, year int) (BalanceResponse, error) {
	b, err := s.repo.Find(ctx, employeeID, leaveTypeID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BalanceResponse{}, balanceerrors.ErrBalanceNotFound
		}
		return BalanceResponse{}, err
	}
	return mapToResponse(*b), nil
}

func (s *service) GetSummary(ctx context.Context, employeeID string, year int) ([]BalanceResponse, error) {
	if year == 0 {
		year = s.clk.Now().Year()
	}
	cacheKey := SummaryCacheKey(employeeID, year)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp []BalanceResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	// Singleflight collapses dashboard bursts onto one DB read per key.
	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		balances, err := s.repo.ListByEmployeeYear(ctx, employeeID, year)
		if err != nil {
			return nil, err
		}

		resp := make([]BalanceResponse, len(balances))
		for i, b := range balances {
			resp[i] = mapToResponse(b)
		}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, 15*time.Minute)
			}
		}

		return resp, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]BalanceResponse), nil
}

func (s *service) invalidateSummary(ctx context.Context, employeeID string, year int) {
	if s.rdb == nil {
		return
	}
	cacheKey := SummaryCacheKey(employeeID, year)
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate balance summary cache",
			zap.Error(err),
			zap.String("key", cacheKey),
		)
	}
}

func mapToResponse(b LeaveBalance) BalanceResponse {
	return BalanceResponse{
		EmployeeID:    b.EmployeeID.String(),
		LeaveTypeID:   b.LeaveTypeID.String(),
		Year:          b.Year,
		AllocatedDays: b.AllocatedDays,
		UsedDays:      b.UsedDays,
		AvailableDays: b.Available(),
	}
}
