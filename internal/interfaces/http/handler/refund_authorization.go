package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/hms/backend/internal/application/billing"
	"github.com/shopspring/decimal"
)

// RefundAuthorizationHandler handles refund pre-approval API endpoints
type RefundAuthorizationHandler struct {
	BaseHandler
	authorizationService *billingapp.RefundAuthorizationService
}

// NewRefundAuthorizationHandler creates a new RefundAuthorizationHandler
func NewRefundAuthorizationHandler(authorizationService *billingapp.RefundAuthorizationService) *RefundAuthorizationHandler {
	return &RefundAuthorizationHandler{
		authorizationService: authorizationService,
	}
}

// RequestRefundAuthorizationRequest represents a request for refund pre-approval
type RequestRefundAuthorizationRequest struct {
	FicheNavetteItemID string  `json:"fiche_navette_item_id" binding:"required,uuid"`
	RequestedAmount    float64 `json:"requested_amount" binding:"required,gt=0"`
	Reason             string  `json:"reason" binding:"max=500"`
}

// ApproveRefundAuthorizationRequest represents a supervisor approval
type ApproveRefundAuthorizationRequest struct {
	AuthorizedAmount float64 `json:"authorized_amount" binding:"required,gt=0"`
}

// RejectRefundAuthorizationRequest represents a supervisor rejection
type RejectRefundAuthorizationRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// Request creates a pending refund authorization for a fiche item
func (h *RefundAuthorizationHandler) Request(c *gin.Context) {
	var req RequestRefundAuthorizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	itemID, err := uuid.Parse(req.FicheNavetteItemID)
	if err != nil {
		h.BadRequest(c, "Invalid fiche navette item ID format")
		return
	}

	auth, err := h.authorizationService.Request(c.Request.Context(), billingapp.RequestRefundAuthorizationRequest{
		ItemID:          itemID,
		RequestedAmount: decimal.NewFromFloat(req.RequestedAmount),
		Reason:          req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, auth)
}

// Approve authorizes a pending refund for the given amount
func (h *RefundAuthorizationHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid authorization ID format")
		return
	}

	var req ApproveRefundAuthorizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	auth, err := h.authorizationService.Approve(c.Request.Context(), id, decimal.NewFromFloat(req.AuthorizedAmount))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, auth)
}

// Reject refuses a refund authorization
func (h *RefundAuthorizationHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid authorization ID format")
		return
	}

	var req RejectRefundAuthorizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	auth, err := h.authorizationService.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, auth)
}

// Get returns a refund authorization by its ID
func (h *RefundAuthorizationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid authorization ID format")
		return
	}

	auth, err := h.authorizationService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, auth)
}

// RegisterRoutes registers all refund authorization routes
func (h *RefundAuthorizationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	authorizations := rg.Group("/refund-authorizations")
	{
		authorizations.POST("", h.Request)
		authorizations.GET("/:id", h.Get)
		authorizations.POST("/:id/approve", h.Approve)
		authorizations.POST("/:id/reject", h.Reject)
	}
}
