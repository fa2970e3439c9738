package leave

import (
	"context"
	"database/sql"
	"time"

	"go-leaveflow/internal/workflow"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	ListByStatus(ctx context.Context, status string) ([]LeaveRequest, error)
	HasOverlapping(ctx context.Context, employeeID string, startDate, endDate time.Time) (bool, error)
	TransitionStatus(ctx context.Context, id, from, to string, approverID string, rejectionReason *string, decidedAt time.Time) (bool, error)
	CreateLog(ctx context.Context, l *LeaveLog) error
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

// Create inserts through the tx-aware execer so the request row and its
// outbox event commit or roll back together.
func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	query := `
INSERT INTO leave_requests (
	id, request_number, employee_id, leave_type_id,
	start_date, end_date, number_of_days, reason, medical_note,
	status, created_by, submitted_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
`

	_, err := r.execer().ExecContext(ctx, query,
		l.ID, l.RequestNumber, l.EmployeeID, l.LeaveTypeID,
		l.StartDate, l.EndDate, l.NumberOfDays, l.Reason, l.MedicalNote,
		l.Status, l.CreatedBy, l.SubmittedAt,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.gdb.WithContext(ctx).
		Preload("Employee").
		Preload("LeaveType").
		First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	err := r.gdb.WithContext(ctx).
		Preload("LeaveType").
		Where("employee_id = ?", employeeID).
		Order("start_date DESC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) ListByStatus(ctx context.Context, status string) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	err := r.gdb.WithContext(ctx).
		Preload("Employee").
		Preload("LeaveType").
		Where("status = ?", status).
		Order("submitted_at ASC").
		Find(&requests).Error
	return requests, err
}

// HasOverlapping applies the inclusive interval-overlap test against
// requests still able to consume the period (pending or approved).
func (r *repository) HasOverlapping(ctx context.Context, employeeID string, startDate, endDate time.Time) (bool, error) {
	var count int64
	err := r.gdb.WithContext(ctx).
		Model(&LeaveRequest{}).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", []string{workflow.StatusPending, workflow.StatusApproved}).
		Where("start_date <= ? AND end_date >= ?", endDate, startDate).
		Count(&count).Error
	return count > 0, err
}

// TransitionStatus is a compare-and-swap: the UPDATE only lands when the
// row still holds the expected status, so two concurrent approvals cannot
// both succeed. Returns false when the guard missed.
func (r *repository) TransitionStatus(ctx context.Context, id, from, to string, approverID string, rejectionReason *string, decidedAt time.Time) (bool, error) {
	query := `
UPDATE leave_requests
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

func (r *repository) CreateLog(ctx context.Context, l *LeaveLog) error {
	query := `
INSERT INTO leave_logs (
	id, request_id, employee_id, leave_type_id, quantity, start_date, end_date, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
`

	_, err := r.execer().ExecContext(ctx, query,
		l.ID, l.RequestID, l.EmployeeID, l.LeaveTypeID, l.Quantity, l.StartDate, l.EndDate,
	)
	return err
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
