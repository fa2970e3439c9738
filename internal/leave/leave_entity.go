package leave

import (
	"time"

	"go-leaveflow/internal/employee"
	"go-leaveflow/internal/policy"

	"github.com/google/uuid"
)

// LeaveRequest is the durable lifecycle record. Status moves exactly once
// out of PENDING; auto-rejected submissions are born terminal.
type LeaveRequest struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequestNumber string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_leave_request_number"`
	EmployeeID    uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee_dates"`
	LeaveTypeID   uuid.UUID `gorm:"type:uuid;not null"`

	StartDate    time.Time `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	EndDate      time.Time `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	NumberOfDays int       `gorm:"type:int;not null"`
	Reason       string    `gorm:"type:text"`
	MedicalNote  string    `gorm:"type:text"`

	Status          string     `gorm:"type:varchar(40);not null;index:idx_leave_requests_status"`
	CreatedBy       uuid.UUID  `gorm:"type:uuid;not null"`
	ApproverID      *uuid.UUID `gorm:"type:uuid"`
	RejectionReason *string    `gorm:"type:text"`

	SubmittedAt time.Time `gorm:"not null"`
	DecidedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Employee  *employee.Employee    `gorm:"foreignKey:EmployeeID"`
	LeaveType *policy.LeaveTypeRule `gorm:"foreignKey:LeaveTypeID"`
}

func (LeaveRequest) TableName() string { return "leave_requests" }

// LeaveLog is the append-only history row written once per approved
// request. Never updated, never deleted.
type LeaveLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequestID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_logs_request"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_logs_employee"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null"`
	Quantity    int       `gorm:"type:int;not null"`
	StartDate   time.Time `gorm:"type:date;not null"`
	EndDate     time.Time `gorm:"type:date;not null"`
	CreatedAt   time.Time
}

func (LeaveLog) TableName() string { return "leave_logs" }
