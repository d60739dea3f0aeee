package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/hms/backend/internal/application/billing"
)

// TargetHandler handles target resolution API endpoints
type TargetHandler struct {
	BaseHandler
	resolutionService *billingapp.TargetResolutionService
}

// NewTargetHandler creates a new TargetHandler
func NewTargetHandler(resolutionService *billingapp.TargetResolutionService) *TargetHandler {
	return &TargetHandler{
		resolutionService: resolutionService,
	}
}

// ResolveTargetRequest represents a dry-run target resolution request
type ResolveTargetRequest struct {
	Target TargetSelectorRequest `json:"target" binding:"required"`
}

// Resolve maps a selector payload to the single billable target it denotes
// without recording anything
func (h *TargetHandler) Resolve(c *gin.Context) {
	var req ResolveTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	selector, err := req.Target.toSelector()
	if err != nil {
		h.BadRequest(c, "Invalid target ID format")
		return
	}

	resolved, err := h.resolutionService.Resolve(c.Request.Context(), selector)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resolved)
}

// RegisterRoutes registers all target resolution routes
func (h *TargetHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/targets/resolve", h.Resolve)
}
