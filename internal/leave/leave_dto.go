package leave

import "time"

const (
	DecisionApprove = "APPROVE"
	DecisionReject  = "REJECT"
)

type ApplyLeaveRequest struct {
	LeaveTypeID string `json:"leave_type_id" binding:"required,uuid"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	Remarks     string `json:"remarks"`
}

type ResolveLeaveRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	Remarks  string `json:"remarks"`
}

type LeaveResponse struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	LeaveTypeID     string  `json:"leave_type_id"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	NoOfDays        int     `json:"no_of_days"`
	Remarks         string  `json:"remarks,omitempty"`
	Status          string  `json:"status"`
	AppliedOn       string  `json:"applied_on"`
	ResolvedBy      *string `json:"resolved_by,omitempty"`
	ResolvedOn      *string `json:"resolved_on,omitempty"`
	ResolverRemarks *string `json:"resolver_remarks,omitempty"`
}

// OwnedLeaveResponse is the employee-facing projection joined with display
// names, newest application first.
type OwnedLeaveResponse struct {
	ID              string  `json:"id"`
	LeaveTypeName   string  `json:"leave_type_name"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	NoOfDays        int     `json:"no_of_days"`
	Status          string  `json:"status"`
	Remarks         string  `json:"remarks,omitempty"`
	AppliedOn       string  `json:"applied_on"`
	ResolvedOn      *string `json:"resolved_on,omitempty"`
	ResolverName    *string `json:"resolver_name,omitempty"`
	ResolverRemarks *string `json:"resolver_remarks,omitempty"`
}

// PendingLeaveResponse is the reviewer queue projection, oldest application
// first so triage happens in FIFO order.
type PendingLeaveResponse struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employee_id"`
	EmployeeName  string `json:"employee_name"`
	LeaveTypeName string `json:"leave_type_name"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	NoOfDays      int    `json:"no_of_days"`
	Remarks       string `json:"remarks,omitempty"`
	AppliedOn     string `json:"applied_on"`
}

const dateLayout = "2006-01-02"

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:          l.ID.String(),
		EmployeeID:  l.EmployeeID.String(),
		LeaveTypeID: l.LeaveTypeID.String(),
		StartDate:   l.StartDate.Format(dateLayout),
		EndDate:     l.EndDate.Format(dateLayout),
		NoOfDays:    l.NoOfDays,
		Remarks:     l.Remarks,
		Status:      l.Status,
		AppliedOn:   l.AppliedOn.Format(time.RFC3339),
	}
	if l.ResolvedBy != nil {
		v := l.ResolvedBy.String()
		resp.ResolvedBy = &v
	}
	if l.ResolvedOn != nil {
		v := l.ResolvedOn.Format(time.RFC3339)
		resp.ResolvedOn = &v
	}
	resp.ResolverRemarks = l.ResolverRemarks
	return resp
}
