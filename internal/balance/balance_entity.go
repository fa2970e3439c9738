package balance

import (
	"time"

	"github.com/google/uuid"
)

// LeaveBalance is the allocated-vs-used day counter per employee, leave
// type, and year. used_days never exceeds allocated_days; every mutation
// is a guarded conditional update.
type LeaveBalance struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_balance_owner_type_year"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_balance_owner_type_year"`
	Year        int       `gorm:"type:int;not null;uniqueIndex:uq_balance_owner_type_year"`

	AllocatedDays int `gorm:"type:int;not null"`
	UsedDays      int `gorm:"type:int;not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveBalance) TableName() string { return "leave_balances" }

// Available is the remaining quota: allocated minus used.
func (b LeaveBalance) Available() int {
	return b.AllocatedDays - b.UsedDays
}
