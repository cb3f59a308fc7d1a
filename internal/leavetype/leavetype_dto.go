package leavetype

type LeaveTypeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func mapToListResponse(types []LeaveType) []LeaveTypeResponse {
	resp := make([]LeaveTypeResponse, len(types))
	for i, lt := range types {
		resp[i] = LeaveTypeResponse{
			ID:   lt.ID.String(),
			Name: lt.Name,
		}
	}
	return resp
}
