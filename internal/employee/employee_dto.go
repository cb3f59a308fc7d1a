package employee

type BalanceResponse struct {
	EmployeeID      string `json:"employee_id"`
	FullName        string `json:"full_name"`
	TotalLeaves     int    `json:"total_leaves"`
	UsedLeaves      int    `json:"used_leaves"`
	RemainingLeaves int    `json:"remaining_leaves"`
}

func mapToBalanceResponse(e Employee) BalanceResponse {
	return BalanceResponse{
		EmployeeID:      e.ID.String(),
		FullName:        e.FullName,
		TotalLeaves:     e.TotalLeaves,
		UsedLeaves:      e.UsedLeaves,
		RemainingLeaves: e.Remaining(),
	}
}
