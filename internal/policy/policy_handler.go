package policy

import (
	"net/http"

	"go-leaveflow/internal/shared/apperror"
	"go-leaveflow/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LeaveTypeResponse struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Paid                bool   `json:"paid"`
	Deductible          bool   `json:"deductible"`
	RequiresMedicalNote bool   `json:"requires_medical_note"`
	MaxDaysPerYear      int    `json:"max_days_per_year"`
}

type PermissionTypeResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	MonthlyHourCap string `json:"monthly_hour_cap"`
	Deductible     bool   `json:"deductible"`
}

type Handler struct {
	repo   Repository
	logger *zap.Logger
}

func NewHandler(repo Repository, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("policy.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("policy.handler")
	}
	return &Handler{repo: repo, logger: l}
}

func (h *Handler) ListLeaveTypes(c *gin.Context) {
	rules, err := h.repo.ListLeaveTypeRules(c.Request.Context())
	if err != nil {
		h.logger.Error("list leave types failed", zap.Error(err))
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	resp := make([]LeaveTypeResponse, len(rules))
	for i, r := range rules {
		resp[i] = LeaveTypeResponse{
			ID:                  r.ID.String(),
			Name:                r.Name,
			Paid:                r.Paid,
			Deductible:          r.Deductible,
			RequiresMedicalNote: r.RequiresMedicalNote,
			MaxDaysPerYear:      r.MaxDaysPerYear,
		}
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ListPermissionTypes(c *gin.Context) {
	rules, err := h.repo.ListPermissionTypeRules(c.Request.Context())
	if err != nil {
		h.logger.Error("list permission types failed", zap.Error(err))
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	resp := make([]PermissionTypeResponse, len(rules))
	for i, r := range rules {
		resp[i] = PermissionTypeResponse{
			ID:             r.ID.String(),
			Name:           r.Name,
			MonthlyHourCap: r.MonthlyHourCap.StringFixed(2),
			Deductible:     r.Deductible,
		}
	}

	response.Success(c, http.StatusOK, resp, nil)
}
