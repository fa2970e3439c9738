package permission

import (
	"time"

	"go-leaveflow/internal/employee"
	"go-leaveflow/internal/policy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PermissionRequest is the intra-day sibling of a leave request: two
// timestamps on the same calendar day and a fractional hour count. There
// is no stored ledger; the monthly usage is derived from approved rows.
type PermissionRequest struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequestNumber    string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_permission_request_number"`
	EmployeeID       uuid.UUID `gorm:"type:uuid;not null;index:idx_permission_requests_employee"`
	PermissionTypeID uuid.UUID `gorm:"type:uuid;not null"`

	StartAt time.Time       `gorm:"not null"`
	EndAt   time.Time       `gorm:"not null"`
	Hours   decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	Reason  string          `gorm:"type:text"`

	Status          string     `gorm:"type:varchar(40);not null;index:idx_permission_requests_status"`
	CreatedBy       uuid.UUID  `gorm:"type:uuid;not null"`
	ApproverID      *uuid.UUID `gorm:"type:uuid"`
	RejectionReason *string    `gorm:"type:text"`

	SubmittedAt time.Time `gorm:"not null"`
	DecidedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Employee       *employee.Employee         `gorm:"foreignKey:EmployeeID"`
	PermissionType *policy.PermissionTypeRule `gorm:"foreignKey:PermissionTypeID"`
}

func (PermissionRequest) TableName() string { return "permission_requests" }
