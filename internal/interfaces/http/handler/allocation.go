package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/hms/backend/internal/application/billing"
	"github.com/hms/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// AllocationHandler handles bulk payment allocation API endpoints
type AllocationHandler struct {
	BaseHandler
	allocationService *billingapp.AllocationService
}

// NewAllocationHandler creates a new AllocationHandler
func NewAllocationHandler(allocationService *billingapp.AllocationService) *AllocationHandler {
	return &AllocationHandler{
		allocationService: allocationService,
	}
}

// AllocationItemRequest is one line of a bulk allocation request
type AllocationItemRequest struct {
	Target TargetSelectorRequest `json:"target" binding:"required"`
	Amount float64               `json:"amount" binding:"required,gt=0"`
}

// AllocateRequest represents one cash receipt to spread across several targets
type AllocateRequest struct {
	Items         []AllocationItemRequest `json:"items" binding:"required,min=1,dive"`
	TotalAmount   float64                 `json:"total_amount" binding:"required,gt=0"`
	PatientID     string                  `json:"patient_id" binding:"required,uuid"`
	CashierID     string                  `json:"cashier_id" binding:"required,uuid"`
	PaymentMethod string                  `json:"payment_method" binding:"required,oneof=CASH CARD CHECK TRANSFER INSURANCE"`
	Notes         string                  `json:"notes" binding:"max=500"`
	BankAccountID *string                 `json:"bank_account_id" binding:"omitempty,uuid"`
	RequestKey    string                  `json:"request_key" binding:"max=100"`
}

// Allocate spreads one receipt across the requested targets atomically
func (h *AllocationHandler) Allocate(c *gin.Context) {
	var req AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		h.BadRequest(c, "Invalid patient ID format")
		return
	}

	cashierID, err := uuid.Parse(req.CashierID)
	if err != nil {
		h.BadRequest(c, "Invalid cashier ID format")
		return
	}

	items := make([]billingapp.AllocationItem, 0, len(req.Items))
	for _, item := range req.Items {
		selector, err := item.Target.toSelector()
		if err != nil {
			h.BadRequest(c, "Invalid target ID format")
			return
		}
		items = append(items, billingapp.AllocationItem{
			Target: selector,
			Amount: decimal.NewFromFloat(item.Amount),
		})
	}

	serviceReq := billingapp.AllocateRequest{
		Items:       items,
		TotalAmount: decimal.NewFromFloat(req.TotalAmount),
		PatientID:   patientID,
		CashierID:   cashierID,
		Method:      billing.PaymentMethod(req.PaymentMethod),
		Notes:       req.Notes,
		RequestKey:  req.RequestKey,
	}
	if serviceReq.BankAccountID, err = parseOptionalUUID(req.BankAccountID); err != nil {
		h.BadRequest(c, "Invalid bank account ID format")
		return
	}

	result, err := h.allocationService.Allocate(c.Request.Context(), serviceReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// RegisterRoutes registers all allocation routes
func (h *AllocationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/transactions/allocate", h.Allocate)
}
