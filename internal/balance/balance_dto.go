package balance

type AllocateBalanceRequest struct {
	EmployeeID    string `json:"employee_id" binding:"required,uuid"`
	LeaveTypeID   string `json:"leave_type_id" binding:"required,uuid"`
	Year          int    `json:"year" binding:"required,min=2000,max=2200"`
	AllocatedDays int    `json:"allocated_days" binding:"min=0"`
}

type BalanceResponse struct {
	EmployeeID    string `json:"employee_id"`
	LeaveTypeID   string `json:"leave_type_id"`
	Year          int    `json:"year"`
	AllocatedDays int    `json:"allocated_days"`
	UsedDays      int    `json:"used_days"`
	AvailableDays int    `json:"available_days"`
}
