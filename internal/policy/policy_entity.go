package policy

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaveTypeRule is the read-only policy record for a leave type.
type LeaveTypeRule struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name                string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_leave_type_name"`
	Paid                bool      `gorm:"not null;default:true"`
	Deductible          bool      `gorm:"not null;default:true"`
	RequiresMedicalNote bool      `gorm:"not null;default:false"`
	MaxDaysPerYear      int       `gorm:"type:int;not null;default:0"`
	Active              bool      `gorm:"not null;default:true"`
}

func (LeaveTypeRule) TableName() string { return "leave_type_rules" }

// PermissionTypeRule is the read-only policy record for an intra-day
// permission type. The cap is hours per calendar month.
type PermissionTypeRule struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string          `gorm:"type:varchar(100);not null;uniqueIndex:uq_permission_type_name"`
	MonthlyHourCap decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	Deductible     bool            `gorm:"not null;default:true"`
	Active         bool            `gorm:"not null;default:true"`
}

func (PermissionTypeRule) TableName() string { return "permission_type_rules" }
