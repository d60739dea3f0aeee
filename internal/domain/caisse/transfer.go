package caisse

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransferStatus represents the state of a cash drawer hand-off
type TransferStatus string

const (
	TransferStatusPending  TransferStatus = "PENDING"
	TransferStatusAccepted TransferStatus = "ACCEPTED"
	TransferStatusRejected TransferStatus = "REJECTED"
	TransferStatusExpired  TransferStatus = "EXPIRED"
	// TransferStatusDone marks a transfer superseded by a newer one for the
	// same drawer/session pair
	TransferStatusDone TransferStatus = "DONE"
)

// IsValid checks if the status is a valid TransferStatus
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusPending, TransferStatusAccepted, TransferStatusRejected,
		TransferStatusExpired, TransferStatusDone:
		return true
	}
	return false
}

// String returns the string representation of TransferStatus
func (s TransferStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the transfer can no longer change state
func (s TransferStatus) IsTerminal() bool {
	return s != TransferStatusPending
}

// Transfer represents the hand-off of a physical cash drawer between two
// operators. At most one non-done transfer exists per (caisse, session) pair:
// creating a new one supersedes any prior open transfer.
type Transfer struct {
	shared.BaseAggregateRoot
	CaisseID       uuid.UUID        `json:"caisse_id"`
	SessionID      uuid.UUID        `json:"session_id"`
	FromCashierID  uuid.UUID        `json:"from_cashier_id"`
	ToCashierID    uuid.UUID        `json:"to_cashier_id"`
	AmountSent     decimal.Decimal  `json:"amount_sent"`
	AmountReceived *decimal.Decimal `json:"amount_received,omitempty"`
	Status         TransferStatus   `json:"status"`
	Token          string           `json:"token"`
	TokenExpiresAt time.Time        `json:"token_expires_at"`
	Notes          string           `json:"notes,omitempty"`
	SupersededBy   *uuid.UUID       `json:"superseded_by,omitempty"`
	AcceptedAt     *time.Time       `json:"accepted_at,omitempty"`
	RejectedAt     *time.Time       `json:"rejected_at,omitempty"`
}

// NewTransfer creates a pending transfer with a fresh single-use token
func NewTransfer(
	caisseID, sessionID uuid.UUID,
	fromCashierID, toCashierID uuid.UUID,
	amountSent decimal.Decimal,
	tokenTTL time.Duration,
	notes string,
) (*Transfer, error) {
	if caisseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CAISSE", "Caisse ID cannot be empty")
	}
	if sessionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SESSION", "Session ID cannot be empty")
	}
	if fromCashierID == uuid.Nil || toCashierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CASHIER", "Both cashiers must be identified")
	}
	if fromCashierID == toCashierID {
		return nil, shared.NewDomainError("INVALID_CASHIER", "Cannot transfer a drawer to the same cashier")
	}
	if amountSent.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Sent amount cannot be negative")
	}
	if tokenTTL <= 0 {
		return nil, shared.NewDomainError("INVALID_TTL", "Token TTL must be positive")
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate transfer token: %w", err)
	}

	return &Transfer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CaisseID:          caisseID,
		SessionID:         sessionID,
		FromCashierID:     fromCashierID,
		ToCashierID:       toCashierID,
		AmountSent:        amountSent,
		Status:            TransferStatusPending,
		Token:             token,
		TokenExpiresAt:    time.Now().Add(tokenTTL),
		Notes:             notes,
	}, nil
}

func generateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// IsTokenExpired returns true if the single-use token has passed its expiry
func (t *Transfer) IsTokenExpired() bool {
	return time.Now().After(t.TokenExpiresAt)
}

// Accept records the counted amount and completes the hand-off. The received
// amount defaults to the sent amount when the receiver does not recount;
// recording it is an audit measure to catch drawer-count mismatches.
func (t *Transfer) Accept(token string, amountReceived *decimal.Decimal) error {
	if t.Status != TransferStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot accept transfer in %s status", t.Status))
	}
	if token != t.Token {
		return shared.NewDomainError("INVALID_TOKEN", "Transfer token does not match")
	}
	if t.IsTokenExpired() {
		return shared.NewDomainError("TOKEN_EXPIRED", "Transfer token has expired")
	}

	received := t.AmountSent
	if amountReceived != nil {
		if amountReceived.IsNegative() {
			return shared.NewDomainError("INVALID_AMOUNT", "Received amount cannot be negative")
		}
		received = *amountReceived
	}

	now := time.Now()
	t.Status = TransferStatusAccepted
	t.AmountReceived = &received
	t.AcceptedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()

	return nil
}

// Reject refuses the hand-off
func (t *Transfer) Reject(token string) error {
	if t.Status != TransferStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject transfer in %s status", t.Status))
	}
	if token != t.Token {
		return shared.NewDomainError("INVALID_TOKEN", "Transfer token does not match")
	}

	now := time.Now()
	t.Status = TransferStatusRejected
	t.RejectedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()

	return nil
}

// Expire moves a pending transfer whose token has lapsed to EXPIRED
func (t *Transfer) Expire() error {
	if t.Status != TransferStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot expire transfer in %s status", t.Status))
	}
	if !t.IsTokenExpired() {
		return shared.NewDomainError("INVALID_STATE", "Transfer token has not expired yet")
	}

	t.Status = TransferStatusExpired
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// MarkDone closes the transfer because a newer transfer was created for the
// same (caisse, session) pair
func (t *Transfer) MarkDone(supersededBy uuid.UUID) {
	t.Status = TransferStatusDone
	t.SupersededBy = &supersededBy
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}

// MismatchAmount returns the difference between sent and received amounts,
// or zero when the transfer has not been accepted
func (t *Transfer) MismatchAmount() decimal.Decimal {
	if t.AmountReceived == nil {
		return decimal.Zero
	}
	return t.AmountSent.Sub(*t.AmountReceived)
}
