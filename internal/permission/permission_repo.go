package permission

import (
	"context"
	"database/sql"
	"time"

	"go-leaveflow/internal/workflow"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

//go:generate mockgen -source=permission_repo.go -destination=mock/permission_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, p *PermissionRequest) error
	FindByID(ctx context.Context, id string) (*PermissionRequest, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]PermissionRequest, error)
	ListByStatus(ctx context.Context, status string) ([]PermissionRequest, error)
	HasOverlapping(ctx context.Context, employeeID string, startAt, endAt time.Time) (bool, error)
	TransitionStatus(ctx context.Context, id, from, to string, approverID string, rejectionReason *string, decidedAt time.Time) (bool, error)
	SumApprovedHours(ctx context.Context, employeeID, permissionTypeID string, monthStart, monthEnd time.Time) (decimal.Decimal, error)
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

func (r *repository) Create(ctx context.Context, p *PermissionRequest) error {
	query := `
INSERT INTO permission_requests (
	id, request_number, employee_id, permission_type_id,
	start_at, end_at, hours, reason,
	status, created_by, submitted_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
`

	_, err := r.execer().ExecContext(ctx, query,
		p.ID, p.RequestNumber, p.EmployeeID, p.PermissionTypeID,
		p.StartAt, p.EndAt, p.Hours, p.Reason,
		p.Status, p.CreatedBy, p.SubmittedAt,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*PermissionRequest, error) {
	var p PermissionRequest
	err := r.gdb.WithContext(ctx).
		Preload("Employee").
		Preload("PermissionType").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID string) ([]PermissionRequest, error) {
	var requests []PermissionRequest
	err := r.gdb.WithContext(ctx).
		Preload("PermissionType").
		Where("employee_id = ?", employeeID).
		Order("start_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) ListByStatus(ctx context.Context, status string) ([]PermissionRequest, error) {
	var requests []PermissionRequest
	err := r.gdb.WithContext(ctx).
		Preload("Employee").
		Preload("PermissionType").
		Where("status = ?", status).
		Order("submitted_at ASC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) HasOverlapping(ctx context.Context, employeeID string, startAt, endAt time.Time) (bool, error) {
	var count int64
	err := r.gdb.WithContext(ctx).
		Model(&PermissionRequest{}).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", []string{workflow.StatusPending, workflow.StatusApproved}).
		Where("start_at <= ? AND end_at >= ?", endAt, startAt).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) TransitionStatus(ctx context.Context, id, from, to string, approverID string, rejectionReason *string, decidedAt time.Time) (bool, error) {
	query := `
UPDATE permission_requests
SET status = $3,
    approver_id = $4,
    rejection_reason = $5,
    decided_at = $6,
    updated_at = now()
WHERE id = $1 AND status = $2
`

	res, err := r.execer().ExecContext(ctx, query, id, from, to, approverID, rejectionReason, decidedAt)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SumApprovedHours derives the month's consumption from approved rows.
// It runs through the execer so the approval re-check observes the
// transition made earlier in the same transaction.
func (r *repository) SumApprovedHours(ctx context.Context, employeeID, permissionTypeID string, monthStart, monthEnd time.Time) (decimal.Decimal, error) {
	query := `
SELECT COALESCE(SUM(hours), 0)::text
FROM permission_requests
WHERE employee_id = $1
  AND permission_type_id = $2
  AND status = $3
  AND start_at >= $4
  AND start_at < $5
`

	var raw string
	err := r.execer().QueryRowContext(ctx, query,
		employeeID, permissionTypeID, workflow.StatusApproved, monthStart, monthEnd,
	).Scan(&raw)
	if err != nil {
		return decimal.Zero, err
	}

	return decimal.NewFromString(raw)
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
