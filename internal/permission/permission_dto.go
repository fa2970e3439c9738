package permission

type SubmitPermissionRequest struct {
	EmployeeID       string `json:"employee_id" binding:"required,uuid"`
	PermissionTypeID string `json:"permission_type_id" binding:"required,uuid"`
	StartAt          string `json:"start_at" binding:"required"`
	EndAt            string `json:"end_at" binding:"required"`
	Reason           string `json:"reason"`
}

type RejectPermissionRequest struct {
	RejectionReason string `json:"rejection_reason" binding:"required"`
}

type PermissionResponse struct {
	ID                 string  `json:"id"`
	RequestNumber      string  `json:"request_number"`
	EmployeeID         string  `json:"employee_id"`
	EmployeeName       string  `json:"employee_name,omitempty"`
	PermissionTypeID   string  `json:"permission_type_id"`
	PermissionTypeName string  `json:"permission_type_name,omitempty"`
	StartAt            string  `json:"start_at"`
	EndAt              string  `json:"end_at"`
	Hours              string  `json:"hours"`
	Reason             string  `json:"reason"`
	Status             string  `json:"status"`
	CreatedBy          string  `json:"created_by"`
	ApproverID         *string `json:"approver_id,omitempty"`
	RejectionReason    *string `json:"rejection_reason,omitempty"`
	SubmittedAt        string  `json:"submitted_at"`
	DecidedAt          *string `json:"decided_at,omitempty"`
}
