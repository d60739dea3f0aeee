package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/hms/backend/internal/application/billing"
	"github.com/hms/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// TransactionHandler handles payment and refund API endpoints
type TransactionHandler struct {
	BaseHandler
	paymentService *billingapp.PaymentService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(paymentService *billingapp.PaymentService) *TransactionHandler {
	return &TransactionHandler{
		paymentService: paymentService,
	}
}

// TargetSelectorRequest identifies the billable target of a transaction.
// The id fields are overloaded: patient_id may carry a prestation id from
// legacy clients, which is matched against items and dependencies. A real
// patient id on its own is rejected as ambiguous.
type TargetSelectorRequest struct {
	FicheNavetteItemID *string `json:"fiche_navette_item_id" binding:"omitempty,uuid"`
	ItemDependencyID   *string `json:"item_dependency_id" binding:"omitempty,uuid"`
	PatientID          *string `json:"patient_id" binding:"omitempty,uuid"`
}

func (r TargetSelectorRequest) toSelector() (billingapp.TargetSelector, error) {
	var selector billingapp.TargetSelector
	if r.FicheNavetteItemID != nil {
		id, err := uuid.Parse(*r.FicheNavetteItemID)
		if err != nil {
			return selector, err
		}
		selector.FicheNavetteItemID = &id
	}
	if r.ItemDependencyID != nil {
		id, err := uuid.Parse(*r.ItemDependencyID)
		if err != nil {
			return selector, err
		}
		selector.ItemDependencyID = &id
	}
	if r.PatientID != nil {
		id, err := uuid.Parse(*r.PatientID)
		if err != nil {
			return selector, err
		}
		selector.PatientID = &id
	}
	return selector, nil
}

// ProcessTransactionRequest represents a request to record one payment or refund
type ProcessTransactionRequest struct {
	Target                TargetSelectorRequest `json:"target" binding:"required"`
	Amount                float64               `json:"amount" binding:"required,gt=0"`
	TransactionType       string                `json:"transaction_type" binding:"required,oneof=PAYMENT REFUND"`
	PaymentMethod         string                `json:"payment_method" binding:"required,oneof=CASH CARD CHECK TRANSFER INSURANCE REFUND"`
	CashierID             string                `json:"cashier_id" binding:"required,uuid"`
	Notes                 string                `json:"notes" binding:"max=500"`
	OriginalTransactionID *string               `json:"original_transaction_id" binding:"omitempty,uuid"`
	RefundAuthorizationID *string               `json:"refund_authorization_id" binding:"omitempty,uuid"`
	BankAccountID         *string               `json:"bank_account_id" binding:"omitempty,uuid"`
	RequestKey            string                `json:"request_key" binding:"max=100"`
}

// Process records a payment or refund against a resolved target
func (h *TransactionHandler) Process(c *gin.Context) {
	var req ProcessTransactionRequest
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

	serviceReq := billingapp.ProcessTransactionRequest{
		Target:     selector,
		Amount:     decimal.NewFromFloat(req.Amount),
		Type:       billing.TransactionType(req.TransactionType),
		Method:     billing.PaymentMethod(req.PaymentMethod),
		CashierID:  cashierID,
		Notes:      req.Notes,
		RequestKey: req.RequestKey,
	}
	if serviceReq.OriginalTransactionID, err = parseOptionalUUID(req.OriginalTransactionID); err != nil {
		h.BadRequest(c, "Invalid original transaction ID format")
		return
	}
	if serviceReq.RefundAuthorizationID, err = parseOptionalUUID(req.RefundAuthorizationID); err != nil {
		h.BadRequest(c, "Invalid refund authorization ID format")
		return
	}
	if serviceReq.BankAccountID, err = parseOptionalUUID(req.BankAccountID); err != nil {
		h.BadRequest(c, "Invalid bank account ID format")
		return
	}

	result, err := h.paymentService.Process(c.Request.Context(), serviceReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Reverse rolls back a ledger entry by its ID
func (h *TransactionHandler) Reverse(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	result, err := h.paymentService.ReverseTransaction(c.Request.Context(), entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListByTarget returns the ledger entries recorded against one target
func (h *TransactionHandler) ListByTarget(c *gin.Context) {
	kind := billing.TargetKind(c.Query("target_kind"))
	if !kind.IsValid() {
		h.BadRequest(c, "target_kind must be FICHE_ITEM or DEPENDENCY")
		return
	}

	targetID, err := uuid.Parse(c.Query("target_id"))
	if err != nil {
		h.BadRequest(c, "Invalid target ID format")
		return
	}

	entries, err := h.paymentService.ListTargetTransactions(c.Request.Context(), billing.TargetRef{Kind: kind, ID: targetID})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

// ListByPatient returns all ledger entries recorded for one patient
func (h *TransactionHandler) ListByPatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid patient ID format")
		return
	}

	entries, err := h.paymentService.ListPatientTransactions(c.Request.Context(), patientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

// ListOutstanding returns the patient's items that still owe money
func (h *TransactionHandler) ListOutstanding(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid patient ID format")
		return
	}

	items, err := h.paymentService.ListOutstandingItems(c.Request.Context(), patientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, items)
}

// RegisterRoutes registers all transaction routes
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	transactions := rg.Group("/transactions")
	{
		transactions.POST("", h.Process)
		transactions.GET("", h.ListByTarget)
		transactions.DELETE("/:id", h.Reverse)
	}
	rg.GET("/patients/:id/transactions", h.ListByPatient)
	rg.GET("/patients/:id/outstanding", h.ListOutstanding)
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
