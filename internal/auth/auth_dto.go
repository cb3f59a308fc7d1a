package auth

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type MeResponse struct {
	ID         string  `json:"id"`
	EmployeeID *string `json:"employee_id,omitempty"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
}

func mapToMeResponse(u User) MeResponse {
	resp := MeResponse{
		ID:    u.ID.String(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
	if u.EmployeeID != nil {
		v := u.EmployeeID.String()
		resp.EmployeeID = &v
	}
	return resp
}
