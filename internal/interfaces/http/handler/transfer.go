package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	caisseapp "github.com/hms/backend/internal/application/caisse"
	"github.com/shopspring/decimal"
)

// TransferHandler handles caisse transfer API endpoints
type TransferHandler struct {
	BaseHandler
	transferService *caisseapp.TransferService
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(transferService *caisseapp.TransferService) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
	}
}

// CreateTransferRequest represents a request to hand cash from one cashier to another
type CreateTransferRequest struct {
	CaisseID      string  `json:"caisse_id" binding:"required,uuid"`
	SessionID     string  `json:"session_id" binding:"required,uuid"`
	FromCashierID string  `json:"from_cashier_id" binding:"required,uuid"`
	ToCashierID   string  `json:"to_cashier_id" binding:"required,uuid"`
	AmountSent    float64 `json:"amount_sent" binding:"required,gt=0"`
	Notes         string  `json:"notes" binding:"max=500"`
}

// AcceptTransferRequest represents the receiving cashier's confirmation
type AcceptTransferRequest struct {
	AmountReceived *float64 `json:"amount_received" binding:"omitempty,gt=0"`
}

// Create opens a pending transfer and supersedes any prior open one for the
// same caisse and session
func (h *TransferHandler) Create(c *gin.Context) {
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	caisseID, err := uuid.Parse(req.CaisseID)
	if err != nil {
		h.BadRequest(c, "Invalid caisse ID format")
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		h.BadRequest(c, "Invalid session ID format")
		return
	}
	fromCashierID, err := uuid.Parse(req.FromCashierID)
	if err != nil {
		h.BadRequest(c, "Invalid sender cashier ID format")
		return
	}
	toCashierID, err := uuid.Parse(req.ToCashierID)
	if err != nil {
		h.BadRequest(c, "Invalid receiver cashier ID format")
		return
	}

	transfer, err := h.transferService.Create(c.Request.Context(), caisseapp.CreateTransferRequest{
		CaisseID:      caisseID,
		SessionID:     sessionID,
		FromCashierID: fromCashierID,
		ToCashierID:   toCashierID,
		AmountSent:    decimal.NewFromFloat(req.AmountSent),
		Notes:         req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, transfer)
}

// Accept confirms receipt of a pending transfer by its token
func (h *TransferHandler) Accept(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		h.BadRequest(c, "Transfer token is required")
		return
	}

	// The body is optional; an empty accept keeps the sent amount.
	var req AcceptTransferRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	var amountReceived *decimal.Decimal
	if req.AmountReceived != nil {
		amount := decimal.NewFromFloat(*req.AmountReceived)
		amountReceived = &amount
	}

	transfer, err := h.transferService.Accept(c.Request.Context(), token, amountReceived)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, transfer)
}

// Reject declines a pending transfer by its token
func (h *TransferHandler) Reject(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		h.BadRequest(c, "Transfer token is required")
		return
	}

	transfer, err := h.transferService.Reject(c.Request.Context(), token)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, transfer)
}

// Get returns one transfer by its ID
func (h *TransferHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID format")
		return
	}

	transfer, err := h.transferService.GetTransfer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, transfer)
}

// ListByCashier returns the transfers a cashier sent or received
func (h *TransferHandler) ListByCashier(c *gin.Context) {
	cashierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cashier ID format")
		return
	}

	transfers, err := h.transferService.ListByCashier(c.Request.Context(), cashierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, transfers)
}

// RegisterRoutes registers all transfer routes
func (h *TransferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	transfers := rg.Group("/transfers")
	{
		transfers.POST("", h.Create)
		transfers.GET("/:id", h.Get)
		transfers.POST("/accept/:token", h.Accept)
		transfers.POST("/reject/:token", h.Reject)
	}
	rg.GET("/cashiers/:id/transfers", h.ListByCashier)
}
