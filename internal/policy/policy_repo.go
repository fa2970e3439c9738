package policy

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=policy_repo.go -destination=mock/policy_repo_mock.go -package=mock
type Repository interface {
	FindLeaveTypeRule(ctx context.Context, id string) (*LeaveTypeRule, error)
	FindPermissionTypeRule(ctx context.Context, id string) (*PermissionTypeRule, error)
	ListLeaveTypeRules(ctx context.Context) ([]LeaveTypeRule, error)
	ListPermissionTypeRules(ctx context.Context) ([]PermissionTypeRule, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindLeaveTypeRule(ctx context.Context, id string) (*LeaveTypeRule, error) {
	var rule LeaveTypeRule
	err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repository) FindPermissionTypeRule(ctx context.Context, id string) (*PermissionTypeRule, error) {
	var rule PermissionTypeRule
	err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repository) ListLeaveTypeRules(ctx context.Context) ([]LeaveTypeRule, error) {
	var rules []LeaveTypeRule
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&rules).Error
	return rules, err
}

func (r *repository) ListPermissionTypeRules(ctx context.Context) ([]PermissionTypeRule, error) {
	var rules []PermissionTypeRule
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&rules).Error
	return rules, err
}
