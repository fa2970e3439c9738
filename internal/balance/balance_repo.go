package balance

import (
	"context"
	"database/sql"

	balanceerrors "go-leaveflow/internal/balance/errors"

	"gorm.io/gorm"
)

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Find(ctx context.Context, employeeID, leaveTypeID string, year int) (*LeaveBalance, error)
	ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error)
	Allocate(ctx context.Context, employeeID, leaveTypeID string, year, allocatedDays int) error
	SubtractUsedDays(ctx context.Context, employeeID, leaveTypeID string, year, days int) error
}

type repository struct {
	gdb *gorm.DB
	db  *sql.DB
	tx  *sql.Tx
}

func NewRepository(gdb *gorm.DB, db *sql.DB) Repository {
	return &repository{gdb: gdb, db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{gdb: r.gdb, db: r.db, tx: tx}
}

func (r *repository) Find(ctx context.Context, employeeID, leaveTypeID string, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.gdb.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("leave_type_id = ?", leaveTypeID).
		Where("year = ?", year).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	err := r.gdb.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("year = ?", year).
		Order("leave_type_id ASC").
		Find(&balances).Error
	return balances, err
}

// Allocate upserts a year's allocation. used_days is preserved; the upsert
// refuses an allocation below what is already used.
func (r *repository) Allocate(ctx context.Context, employeeID, leaveTypeID string, year, allocatedDays int) error {
	query := `
INSERT INTO leave_balances (id, employee_id, leave_type_id, year, allocated_days, used_days, created_at, updated_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, 0, now(), now())
ON CONFLICT (employee_id, leave_type_id, year) DO UPDATE
SET allocated_days = EXCLUDED.allocated_days,
    updated_at = now()
WHERE leave_balances.used_days <= EXCLUDED.allocated_days
`

	res, err := r.execer().ExecContext(ctx, query, employeeID, leaveTypeID, year, allocatedDays)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return balanceerrors.ErrInvalidAllocation
	}
	return nil
}

// SubtractUsedDays is the guarded debit: a single conditional UPDATE so the
// sufficiency re-check and the increment cannot interleave with a concurrent
// approval. On a zero-row result it distinguishes a missing allocation from
// an insufficient one.
func (r *repository) SubtractUsedDays(ctx context.Context, employeeID, leaveTypeID string, year, days int) error {
	query := `
UPDATE leave_balances
SET used_days = used_days + $4,
    updated_at = now()
WHERE employee_id = $1
  AND leave_type_id = $2
  AND year = $3
  AND allocated_days - used_days >= $4
`

	res, err := r.execer().ExecContext(ctx, query, employeeID, leaveTypeID, year, days)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	err = r.execer().QueryRowContext(ctx, `
SELECT EXISTS (
	SELECT 1 FROM leave_balances
	WHERE employee_id = $1 AND leave_type_id = $2 AND year = $3
)
`, employeeID, leaveTypeID, year).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return balanceerrors.ErrBalanceNotFound
	}
	return balanceerrors.ErrInsufficientBalance
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
