package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/hms/backend/internal/application/billing"
	"github.com/hms/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// OverpaymentHandler handles overpayment disposition API endpoints
type OverpaymentHandler struct {
	BaseHandler
	overpaymentService *billingapp.OverpaymentService
}

// NewOverpaymentHandler creates a new OverpaymentHandler
func NewOverpaymentHandler(overpaymentService *billingapp.OverpaymentService) *OverpaymentHandler {
	return &OverpaymentHandler{
		overpaymentService: overpaymentService,
	}
}

// OverpaymentRequest represents a payment known to exceed the amount due
type OverpaymentRequest struct {
	Target         TargetSelectorRequest `json:"target" binding:"required"`
	RequiredAmount float64               `json:"required_amount" binding:"required,gt=0"`
	PaidAmount     float64               `json:"paid_amount" binding:"required,gt=0"`
	PaymentMethod  string                `json:"payment_method" binding:"required,oneof=CASH CARD CHECK TRANSFER INSURANCE"`
	CashierID      string                `json:"cashier_id" binding:"required,uuid"`
	Action         string                `json:"action" binding:"required,oneof=DONATE BALANCE"`
	Notes          string                `json:"notes" binding:"max=500"`
	BankAccountID  *string               `json:"bank_account_id" binding:"omitempty,uuid"`
}

// Handle records the payment and disposes of the excess per the requested action
func (h *OverpaymentHandler) Handle(c *gin.Context) {
	var req OverpaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	selector, err := req.Target.toSelector()
	if err != nil {
		h.BadRequest(c, "Invalid target ID format")
		return
	}

	cashierID, err := uuid.Parse(req.CashierID)
	if err != nil {
		h.BadRequest(c, "Invalid cashier ID format")
		return
	}

	serviceReq := billingapp.OverpaymentRequest{
		Target:         selector,
		RequiredAmount: decimal.NewFromFloat(req.RequiredAmount),
		PaidAmount:     decimal.NewFromFloat(req.PaidAmount),
		Method:         billing.PaymentMethod(req.PaymentMethod),
		CashierID:      cashierID,
		Action:         billingapp.OverpaymentAction(req.Action),
		Notes:          req.Notes,
	}
	if serviceReq.BankAccountID, err = parseOptionalUUID(req.BankAccountID); err != nil {
		h.BadRequest(c, "Invalid bank account ID format")
		return
	}

	result, err := h.overpaymentService.Handle(c.Request.Context(), serviceReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// RegisterRoutes registers all overpayment routes
func (h *OverpaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/transactions/overpayment", h.Handle)
}
