package leave

import (
	"net/http"

	"go-elms/internal/authz"
	"go-elms/internal/employee"
	"go-elms/internal/shared/apperror"
	"go-elms/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service  Service
	balances employee.Service
}

func NewHandler(service Service, balances employee.Service) *Handler {
	return &Handler{service: service, balances: balances}
}

func actorFrom(c *gin.Context) authz.Actor {
	return authz.Actor{
		EmployeeID: c.GetString("employee_id"),
		Role:       c.GetString("role"),
	}
}

func (h *Handler) Apply(c *gin.Context) {
	var req ApplyLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	resp, err := h.service.Apply(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

// resolveBody carries the optional reviewer note; the decision itself comes
// from the route, not the payload.
type resolveBody struct {
	Remarks string `json:"remarks"`
}

func (h *Handler) resolve(c *gin.Context, decision string) {
	var body resolveBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
			response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
			return
		}
	}

	resp, err := h.service.Resolve(c.Request.Context(), actorFrom(c), c.Param("id"), ResolveLeaveRequest{
		Decision: decision,
		Remarks:  body.Remarks,
	})
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	h.resolve(c, DecisionApprove)
}

func (h *Handler) Reject(c *gin.Context) {
	h.resolve(c, DecisionReject)
}

func (h *Handler) Cancel(c *gin.Context) {
	resp, err := h.service.Cancel(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ListOwn(c *gin.Context) {
	resp, err := h.service.ListOwn(c.Request.Context(), actorFrom(c))
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ListPending(c *gin.Context) {
	resp, err := h.service.ListPending(c.Request.Context(), actorFrom(c))
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

// Balance serves the requester's own balance by default; resolver roles may
// pass ?employee_id= to read someone else's.
func (h *Handler) Balance(c *gin.Context) {
	resp, err := h.balances.Balance(c.Request.Context(), actorFrom(c), c.Query("employee_id"))
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
