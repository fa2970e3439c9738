package leave_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go-leaveflow/internal/balance"
	balanceerrors "go-leaveflow/internal/balance/errors"
	"go-leaveflow/internal/employee"
	"go-leaveflow/internal/leave"
	leaveerrors "go-leaveflow/internal/leave/errors"
	"go-leaveflow/internal/messaging/kafka"
	"go-leaveflow/internal/policy"
	"go-leaveflow/internal/shared/clock"
	"go-leaveflow/internal/workflow"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeLeaveRepository struct {
	withTxFn           func(tx *sql.Tx) leave.Repository
	createFn           func(ctx context.Context, l *leave.LeaveRequest) error
	findByIDFn         func(ctx context.Context, id string) (*leave.LeaveRequest, error)
	listByEmployeeFn   func(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error)
	listByStatusFn     func(ctx context.Context, status string) ([]leave.LeaveRequest, error)
	hasOverlappingFn   func(ctx context.Context, employeeID string, startDate, endDate time.Time) (bool, error)
	transitionStatusFn func(ctx context.Context, id, from, to string, approverID string, rejectionReason *string, decidedAt time.Time) (bool, error)
	createLogFn        func(ctx context.Context, l *leave.LeaveLog) error
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeLeaveRepository) Create(ctx context.Context, l *leave.LeaveRequest) error {
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) FindByID(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveRepository) ListByEmployee(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	if f.listByEmployeeFn != nil {
		return f.listByEmployeeFn(ctx, employeeID)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) ListByStatus(ctx context.Context, status string) ([]leave.LeaveRequest, error) {
	if f.listByStatusFn != nil {
		return f.listByStatusFn(ctx, status)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) HasOverlapping(ctx context.Context, employeeID string, startDate, endDate time.Time) (bool, error) {
	if f.hasOverlappingFn != nil {
		return f.hasOverlappingFn(ctx, employeeID, startDate, endDate)
	}
	return false, nil
}

func (f *fakeLeaveRepository) TransitionStatus(ctx context.Context, id, from, to string, approverID string, rejectionReason *string, decidedAt time.Time) (bool, error) {
	if f.transitionStatusFn != nil {
		return f.transitionStatusFn(ctx, id, from, to, approverID, rejectionReason, decidedAt)
	}
	return true, nil
}

func (f *fakeLeaveRepository) CreateLog(ctx context.Context, l *leave.LeaveLog) error {
	if f.createLogFn != nil {
		return f.createLogFn(ctx, l)
	}
	return nil
}

type fakeBalanceRepository struct {
	withTxFn           func(tx *sql.Tx) balance.Repository
	findFn             func(ctx context.Context, employeeID, leaveTypeID string, year int) (*balance.LeaveBalance, error)
	listFn             func(ctx context.Context, employeeID string, year int) ([]balance.LeaveBalance, error)
	allocateFn         func(ctx context.Context, employeeID, leaveTypeID string, year, allocatedDays int) error
	subtractUsedDaysFn func(ctx context.Context, employeeID, leaveTypeID string, year, days int) error
}

func (f *fakeBalanceRepository) WithTx(tx *sql.Tx) balance.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeBalanceRepository) Find(ctx context.Context, employeeID, leaveTypeID string, year int) (*balance.LeaveBalance, error) {
	if f.findFn != nil {
		return f.findFn(ctx, employeeID, leaveTypeID, year)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBalanceRepository) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]balance.LeaveBalance, error) {
	if f.listFn != nil {
		return f.listFn(ctx, employeeID, year)
	}
	return nil, nil
}

func (f *fakeBalanceRepository) Allocate(ctx context.Context, employeeID, leaveTypeID string, year, allocatedDays int) error {
	if f.allocateFn != nil {
		return f.allocateFn(ctx, employeeID, leaveTypeID, year, allocatedDays)
	}
	return nil
}

func (f *fakeBalanceRepository) SubtractUsedDays(ctx context.Context, employeeID, leaveTypeID string, year, days int) error {
	if f.subtractUsedDaysFn != nil {
		return f.subtractUsedDaysFn(ctx, employeeID, leaveTypeID, year, days)
	}
	return nil
}

type fakePolicyRepository struct {
	findLeaveTypeRuleFn      func(ctx context.Context, id string) (*policy.LeaveTypeRule, error)
	findPermissionTypeRuleFn func(ctx context.Context, id string) (*policy.PermissionTypeRule, error)
}

func (f *fakePolicyRepository) FindLeaveTypeRule(ctx context.Context, id string) (*policy.LeaveTypeRule, error) {
	if f.findLeaveTypeRuleFn != nil {
		return f.findLeaveTypeRuleFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePolicyRepository) FindPermissionTypeRule(ctx context.Context, id string) (*policy.PermissionTypeRule, error) {
	if f.findPermissionTypeRuleFn != nil {
		return f.findPermissionTypeRuleFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePolicyRepository) ListLeaveTypeRules(ctx context.Context) ([]policy.LeaveTypeRule, error) {
	return nil, nil
}

func (f *fakePolicyRepository) ListPermissionTypeRules(ctx context.Context) ([]policy.PermissionTypeRule, error) {
	return nil, nil
}

type fakeEmployeeRepository struct {
	existsFn func(ctx context.Context, id string) (bool, error)
}

func (f *fakeEmployeeRepository) Exists(ctx context.Context, id string) (bool, error) {
	if f.existsFn != nil {
		return f.existsFn(ctx, id)
	}
	return true, nil
}

func (f *fakeEmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	return nil, gorm.ErrRecordNotFound
}

type fakeCounterRepository struct {
	next int64
}

func (f *fakeCounterRepository) GetNextValue(ctx context.Context, counterType string) (int64, error) {
	f.next++
	return f.next, nil
}

type fakeOutboxRepository struct {
	events []kafka.OutboxEvent
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error { return nil }

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

var (
	testEmployeeID  = uuid.NewString()
	testLeaveTypeID = uuid.NewString()
	testApproverID  = uuid.NewString()
	testNow         = time.Date(2025, time.March, 5, 9, 0, 0, 0, time.UTC)
	weekendRest     = []time.Weekday{time.Saturday, time.Sunday}
)

func deductibleRule() *policy.LeaveTypeRule {
	return &policy.LeaveTypeRule{
		ID:         uuid.MustParse(testLeaveTypeID),
		Name:       "Annual Leave",
		Paid:       true,
		Deductible: true,
		Active:     true,
	}
}

func newTestService(t *testing.T, deps leave.Deps) (leave.Service, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	if deps.Clock == nil {
		deps.Clock = clock.Fixed{T: testNow}
	}
	if deps.RestDays == nil {
		deps.RestDays = weekendRest
	}

	return leave.NewService(db, deps), mock
}

func submitRequest() leave.SubmitLeaveRequest {
	// Mon 2025-03-10 .. Wed 2025-03-12 = 3 working days
	return leave.SubmitLeaveRequest{
		EmployeeID:  testEmployeeID,
		LeaveTypeID: testLeaveTypeID,
		StartDate:   "2025-03-10",
		EndDate:     "2025-03-12",
		Reason:      "family event",
	}
}

func TestSubmit(t *testing.T) {
	t.Run("sufficient balance yields pending request", func(t *testing.T) {
		var created *leave.LeaveRequest
		repo := &fakeLeaveRepository{
			createFn: func(ctx context.Context, l *leave.LeaveRequest) error {
				created = l
				return nil
			},
		}
		balances := &fakeBalanceRepository{
			findFn: func(ctx context.Context, employeeID, leaveTypeID string, year int) (*balance.LeaveBalance, error) {
				assert.Equal(t, 2025, year)
				return &balance.LeaveBalance{AllocatedDays: 12, UsedDays: 4}, nil
			},
		}
		policies := &fakePolicyRepository{
			findLeaveTypeRuleFn: func(ctx context.Context, id string) (*policy.LeaveTypeRule, error) {
				return deductibleRule(), nil
			},
		}

		svc, mock := newTestService(t, leave.Deps{
			Repo:      repo,
			Balances:  balances,
			Policies:  policies,
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{next: 41},
		})
		mock.ExpectBegin()
		mock.ExpectCommit()

		resp, err := svc.Submit(context.Background(), testEmployeeID, submitRequest())

		assert.NoError(t, err)
		assert.Equal(t, workflow.StatusPending, resp.Status)
		assert.Equal(t, 3, resp.NumberOfDays)
		assert.Equal(t, "LR-000042", resp.RequestNumber)
		assert.Equal(t, "Annual Leave", resp.LeaveTypeName)
		assert.Nil(t, resp.DecidedAt)
		assert.NotNil(t, created)
		assert.Equal(t, testNow, created.SubmittedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing balance row auto rejects", func(t *testing.T) {
		outbox := &fakeOutboxRepository{}
		policies := &fakePolicyRepository{
			findLeaveTypeRuleFn: func(ctx context.Context, id string) (*policy.LeaveTypeRule, error) {
				return deductibleRule(), nil
			},
		}

		svc, mock := newTestService(t, leave.Deps{
			Repo:      &fakeLeaveRepository{},
			Balances:  &fakeBalanceRepository{}, // Find defaults to not found
			Policies:  policies,
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
			Outbox:    outbox,
		})
		mock.ExpectBegin()
		mock.ExpectCommit()

		resp, err := svc.Submit(context.Background(), testEmployeeID, submitRequest())

		assert.NoError(t, err)
		assert.Equal(t, workflow.StatusAutoRejectedNoBalance, resp.Status)
		assert.NotNil(t, resp.DecidedAt)
		assert.Len(t, outbox.events, 1)
		assert.Equal(t, "leave_decision", outbox.events[0].EventType)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient balance auto rejects", func(t *testing.T) {
		balances := &fakeBalanceRepository{
			findFn: func(ctx context.Context, employeeID, leaveTypeID string, year int) (*balance.LeaveBalance, error) {
				return &balance.LeaveBalance{AllocatedDays: 12, UsedDays: 10}, nil
			},
		}
		policies := &fakePolicyRepository{
			findLeaveTypeRuleFn: func(ctx context.Context, id string) (*policy.LeaveTypeRule, error) {
				return deductibleRule(), nil
			},
		}

		svc, mock := newTestService(t, leave.Deps{
			Repo:      &fakeLeaveRepository{},
			Balances:  balances,
			Policies:  policies,
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
		})
		mock.ExpectBegin()
		mock.ExpectCommit()

		resp, err := svc.Submit(context.Background(), testEmployeeID, submitRequest())

		assert.NoError(t, err)
		assert.Equal(t, workflow.StatusAutoRejectedInsufficientBalance, resp.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-deductible type never reads the ledger", func(t *testing.T) {
		balances := &fakeBalanceRepository{
			findFn: func(ctx context.Context, employeeID, leaveTypeID string, year int) (*balance.LeaveBalance, error) {
				t.Fatal("balance read for non-deductible type")
				return nil, nil
			},
		}
		policies := &fakePolicyRepository{
			findLeaveTypeRuleFn: func(ctx context.Context, id string) (*policy.LeaveTypeRule, error) {
				rule := deductibleRule()
				rule.Deductible = false
				return rule, nil
			},
		}

		svc, mock := newTestService(t, leave.Deps{
			Repo:      &fakeLeaveRepository{},
			Balances:  balances,
			Policies:  policies,
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
		})
		mock.ExpectBegin()
		mock.ExpectCommit()

		resp, err := svc.Submit(context.Background(), testEmployeeID, submitRequest())

		assert.NoError(t, err)
		assert.Equal(t, workflow.StatusPending, resp.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("overlapping open request conflicts", func(t *testing.T) {
		repo := &fakeLeaveRepository{
			hasOverlappingFn: func(ctx context.Context, employeeID string, startDate, endDate time.Time) (bool, error) {
				return true, nil
			},
			createFn: func(ctx context.Context, l *leave.LeaveRequest) error {
				t.Fatal("create after overlap detection")
				return nil
			},
		}

		svc, _ := newTestService(t, leave.Deps{
			Repo:      repo,
			Balances:  &fakeBalanceRepository{},
			Policies:  &fakePolicyRepository{},
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
		})

		_, err := svc.Submit(context.Background(), testEmployeeID, submitRequest())
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
	})

	t.Run("rest-day-only range has no working days", func(t *testing.T) {
		svc, _ := newTestService(t, leave.Deps{
			Repo:      &fakeLeaveRepository{},
			Balances:  &fakeBalanceRepository{},
			Policies:  &fakePolicyRepository{},
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
		})

		req := submitRequest()
		req.StartDate = "2025-03-08" // Saturday
		req.EndDate = "2025-03-09"   // Sunday

		_, err := svc.Submit(context.Background(), testEmployeeID, req)
		assert.ErrorIs(t, err, leaveerrors.ErrNoWorkingDays)
	})

	t.Run("unknown employee", func(t *testing.T) {
		svc, _ := newTestService(t, leave.Deps{
			Repo:     &fakeLeaveRepository{},
			Balances: &fakeBalanceRepository{},
			Policies: &fakePolicyRepository{},
			Employees: &fakeEmployeeRepository{
				existsFn: func(ctx context.Context, id string) (bool, error) { return false, nil },
			},
			Counter: &fakeCounterRepository{},
		})

		_, err := svc.Submit(context.Background(), testEmployeeID, submitRequest())
		assert.ErrorIs(t, err, leaveerrors.ErrEmployeeNotFound)
	})

	t.Run("medical note enforced by rule", func(t *testing.T) {
		policies := &fakePolicyRepository{
			findLeaveTypeRuleFn: func(ctx context.Context, id string) (*policy.LeaveTypeRule, error) {
				rule := deductibleRule()
				rule.RequiresMedicalNote = true
				return rule, nil
			},
		}

		svc, _ := newTestService(t, leave.Deps{
			Repo:      &fakeLeaveRepository{},
			Balances:  &fakeBalanceRepository{},
			Policies:  policies,
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
		})

		_, err := svc.Submit(context.Background(), testEmployeeID, submitRequest())
		assert.ErrorIs(t, err, leaveerrors.ErrMedicalNoteRequired)
	})

	t.Run("inactive rule unavailable", func(t *testing.T) {
		policies := &fakePolicyRepository{
			findLeaveTypeRuleFn: func(ctx context.Context, id string) (*policy.LeaveTypeRule, error) {
				rule := deductibleRule()
				rule.Active = false
				return rule, nil
			},
		}

		svc, _ := newTestService(t, leave.Deps{
			Repo:      &fakeLeaveRepository{},
			Balances:  &fakeBalanceRepository{},
			Policies:  policies,
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
		})

		_, err := svc.Submit(context.Background(), testEmployeeID, submitRequest())
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveTypeUnavailable)
	})

	t.Run("range above yearly maximum", func(t *testing.T) {
		policies := &fakePolicyRepository{
			findLeaveTypeRuleFn: func(ctx context.Context, id string) (*policy.LeaveTypeRule, error) {
				rule := deductibleRule()
				rule.MaxDaysPerYear = 2
				return rule, nil
			},
		}

		svc, _ := newTestService(t, leave.Deps{
			Repo:      &fakeLeaveRepository{},
			Balances:  &fakeBalanceRepository{},
			Policies:  policies,
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
		})

		_, err := svc.Submit(context.Background(), testEmployeeID, submitRequest())
		assert.ErrorIs(t, err, leaveerrors.ErrExceedsMaxDays)
	})
}

func pendingLeave() *leave.LeaveRequest {
	return &leave.LeaveRequest{
		ID:           uuid.New(),
		EmployeeID:   uuid.MustParse(testEmployeeID),
		LeaveTypeID:  uuid.MustParse(testLeaveTypeID),
		StartDate:    time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC),
		NumberOfDays: 3,
		Status:       workflow.StatusPending,
	}
}

func TestApprove(t *testing.T) {
	t.Run("debits exactly once and appends one log", func(t *testing.T) {
		l := pendingLeave()
		subtractCalls := 0
		logCalls := 0

		repo := &fakeLeaveRepository{
			findByIDFn: func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
				return l, nil
			},
			createLogFn: func(ctx context.Context, log *leave.LeaveLog) error {
				logCalls++
				assert.Equal(t, l.ID, log.RequestID)
				assert.Equal(t, 3, log.Quantity)
				return nil
			},
		}
		balances := &fakeBalanceRepository{
			subtractUsedDaysFn: func(ctx context.Context, employeeID, leaveTypeID string, year, days int) error {
				subtractCalls++
				assert.Equal(t, testEmployeeID, employeeID)
				assert.Equal(t, 2025, year)
				assert.Equal(t, 3, days)
				return nil
			},
		}
		policies := &fakePolicyRepository{
			findLeaveTypeRuleFn: func(ctx context.Context, id string) (*policy.LeaveTypeRule, error) {
				return deductibleRule(), nil
			},
		}
		outbox := &fakeOutboxRepository{}

		svc, mock := newTestService(t, leave.Deps{
			Repo:      repo,
			Balances:  balances,
			Policies:  policies,
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
			Outbox:    outbox,
		})
		mock.ExpectBegin()
		mock.ExpectCommit()

		resp, err := svc.Approve(context.Background(), l.ID.String(), testApproverID)

		assert.NoError(t, err)
		assert.Equal(t, workflow.StatusApproved, resp.Status)
		assert.Equal(t, 1, subtractCalls)
		assert.Equal(t, 1, logCalls)
		assert.Len(t, outbox.events, 1)
		assert.Equal(t, workflow.StatusApproved, l.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already decided is a benign failure", func(t *testing.T) {
		l := pendingLeave()
		l.Status = workflow.StatusApproved

		svc, mock := newTestService(t, leave.Deps{
			Repo: &fakeLeaveRepository{
				findByIDFn: func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
					return l, nil
				},
			},
			Balances: &fakeBalanceRepository{
				subtractUsedDaysFn: func(ctx context.Context, employeeID, leaveTypeID string, year, days int) error {
					t.Fatal("debit on non-pending request")
					return nil
				},
			},
			Policies:  &fakePolicyRepository{},
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
		})

		_, err := svc.Approve(context.Background(), l.ID.String(), testApproverID)

		assert.ErrorIs(t, err, leaveerrors.ErrNotPending)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("losing the status race rolls back", func(t *testing.T) {
		l := pendingLeave()
		repo := &fakeLeaveRepository{
			findByIDFn: func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
				return l, nil
			},
			transitionStatusFn: func(ctx context.Context, id, from, to string, approverID string, rejectionReason *string, decidedAt time.Time) (bool, error) {
				return false, nil
			},
		}
		policies := &fakePolicyRepository{
			findLeaveTypeRuleFn: func(ctx context.Context, id string) (*policy.LeaveTypeRule, error) {
				return deductibleRule(), nil
			},
		}

		svc, mock := newTestService(t, leave.Deps{
			Repo: repo,
			Balances: &fakeBalanceRepository{
				subtractUsedDaysFn: func(ctx context.Context, employeeID, leaveTypeID string, year, days int) error {
					t.Fatal("debit after lost transition")
					return nil
				},
			},
			Policies:  policies,
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
		})
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.Approve(context.Background(), l.ID.String(), testApproverID)

		assert.ErrorIs(t, err, leaveerrors.ErrNotPending)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refused debit aborts the transaction", func(t *testing.T) {
		l := pendingLeave()
		repo := &fakeLeaveRepository{
			findByIDFn: func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
				return l, nil
			},
			createLogFn: func(ctx context.Context, log *leave.LeaveLog) error {
				t.Fatal("log written after refused debit")
				return nil
			},
		}
		balances := &fakeBalanceRepository{
			subtractUsedDaysFn: func(ctx context.Context, employeeID, leaveTypeID string, year, days int) error {
				return balanceerrors.ErrInsufficientBalance
			},
		}
		policies := &fakePolicyRepository{
			findLeaveTypeRuleFn: func(ctx context.Context, id string) (*policy.LeaveTypeRule, error) {
				return deductibleRule(), nil
			},
		}

		svc, mock := newTestService(t, leave.Deps{
			Repo:      repo,
			Balances:  balances,
			Policies:  policies,
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
		})
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.Approve(context.Background(), l.ID.String(), testApproverID)

		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing request", func(t *testing.T) {
		svc, _ := newTestService(t, leave.Deps{
			Repo:      &fakeLeaveRepository{},
			Balances:  &fakeBalanceRepository{},
			Policies:  &fakePolicyRepository{},
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
		})

		_, err := svc.Approve(context.Background(), uuid.NewString(), testApproverID)
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	})

	t.Run("vanished type rule is a client error", func(t *testing.T) {
		l := pendingLeave()

		svc, _ := newTestService(t, leave.Deps{
			Repo: &fakeLeaveRepository{
				findByIDFn: func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
					return l, nil
				},
			},
			Balances:  &fakeBalanceRepository{},
			Policies:  &fakePolicyRepository{}, // rule lookup defaults to not found
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
		})

		_, err := svc.Approve(context.Background(), l.ID.String(), testApproverID)
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveTypeUnavailable)
	})
}

func TestReject(t *testing.T) {
	t.Run("stores reason without touching the ledger", func(t *testing.T) {
		l := pendingLeave()
		var storedReason *string

		repo := &fakeLeaveRepository{
			findByIDFn: func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
				return l, nil
			},
			transitionStatusFn: func(ctx context.Context, id, from, to string, approverID string, rejectionReason *string, decidedAt time.Time) (bool, error) {
				assert.Equal(t, workflow.StatusRejected, to)
				storedReason = rejectionReason
				return true, nil
			},
			createLogFn: func(ctx context.Context, log *leave.LeaveLog) error {
				t.Fatal("log written on rejection")
				return nil
			},
		}
		balances := &fakeBalanceRepository{
			subtractUsedDaysFn: func(ctx context.Context, employeeID, leaveTypeID string, year, days int) error {
				t.Fatal("debit on rejection")
				return nil
			},
		}
		outbox := &fakeOutboxRepository{}

		svc, mock := newTestService(t, leave.Deps{
			Repo:      repo,
			Balances:  balances,
			Policies:  &fakePolicyRepository{},
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
			Outbox:    outbox,
		})
		mock.ExpectBegin()
		mock.ExpectCommit()

		resp, err := svc.Reject(context.Background(), l.ID.String(), testApproverID, "coverage gap")

		assert.NoError(t, err)
		assert.Equal(t, workflow.StatusRejected, resp.Status)
		assert.NotNil(t, storedReason)
		assert.Equal(t, "coverage gap", *storedReason)
		assert.Len(t, outbox.events, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reason required", func(t *testing.T) {
		svc, _ := newTestService(t, leave.Deps{
			Repo:      &fakeLeaveRepository{},
			Balances:  &fakeBalanceRepository{},
			Policies:  &fakePolicyRepository{},
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
		})

		_, err := svc.Reject(context.Background(), uuid.NewString(), testApproverID, "")
		assert.ErrorIs(t, err, leaveerrors.ErrRejectionReasonRequired)
	})

	t.Run("already decided", func(t *testing.T) {
		l := pendingLeave()
		l.Status = workflow.StatusRejected

		svc, _ := newTestService(t, leave.Deps{
			Repo: &fakeLeaveRepository{
				findByIDFn: func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
					return l, nil
				},
			},
			Balances:  &fakeBalanceRepository{},
			Policies:  &fakePolicyRepository{},
			Employees: &fakeEmployeeRepository{},
			Counter:   &fakeCounterRepository{},
		})

		_, err := svc.Reject(context.Background(), l.ID.String(), testApproverID, "late")
		assert.ErrorIs(t, err, leaveerrors.ErrNotPending)
	})
}
