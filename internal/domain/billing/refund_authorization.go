package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RefundAuthorizationStatus represents the state of a refund pre-approval
type RefundAuthorizationStatus string

const (
	RefundAuthorizationStatusPending  RefundAuthorizationStatus = "PENDING"
	RefundAuthorizationStatusApproved RefundAuthorizationStatus = "APPROVED"
	RefundAuthorizationStatusUsed     RefundAuthorizationStatus = "USED"
	RefundAuthorizationStatusRejected RefundAuthorizationStatus = "REJECTED"
)

// IsValid checks if the status is a valid RefundAuthorizationStatus
func (s RefundAuthorizationStatus) IsValid() bool {
	switch s {
	case RefundAuthorizationStatusPending, RefundAuthorizationStatusApproved,
		RefundAuthorizationStatusUsed, RefundAuthorizationStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of RefundAuthorizationStatus
func (s RefundAuthorizationStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the authorization can no longer change state
func (s RefundAuthorizationStatus) IsTerminal() bool {
	return s == RefundAuthorizationStatusUsed || s == RefundAuthorizationStatusRejected
}

// RefundAuthorization is a pre-approval gate for refunds above the
// self-service threshold. At most one refund entry consumes an authorization,
// after which it transitions to USED.
type RefundAuthorization struct {
	shared.BaseAggregateRoot
	ItemID           uuid.UUID                 `json:"item_id"`
	RequestedAmount  decimal.Decimal           `json:"requested_amount"`
	AuthorizedAmount decimal.Decimal           `json:"authorized_amount"`
	Status           RefundAuthorizationStatus `json:"status"`
	Reason           string                    `json:"reason"`
	ApprovedAt       *time.Time                `json:"approved_at,omitempty"`
	UsedAt           *time.Time                `json:"used_at,omitempty"`
}

// NewRefundAuthorization creates a pending refund authorization for a fiche item
func NewRefundAuthorization(itemID uuid.UUID, requestedAmount decimal.Decimal, reason string) (*RefundAuthorization, error) {
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Fiche item ID cannot be empty")
	}
	if requestedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Requested amount must be positive")
	}

	return &RefundAuthorization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ItemID:            itemID,
		RequestedAmount:   requestedAmount,
		AuthorizedAmount:  decimal.Zero,
		Status:            RefundAuthorizationStatusPending,
		Reason:            reason,
	}, nil
}

// Approve authorizes the refund for the given amount, which may be lower
// than the requested amount but never higher
func (a *RefundAuthorization) Approve(amount decimal.Decimal) error {
	if a.Status != RefundAuthorizationStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve authorization in %s status", a.Status))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Authorized amount must be positive")
	}
	if amount.GreaterThan(a.RequestedAmount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Authorized amount cannot exceed requested amount")
	}

	now := time.Now()
	a.Status = RefundAuthorizationStatusApproved
	a.AuthorizedAmount = amount
	a.ApprovedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()

	return nil
}

// Reject refuses the authorization
func (a *RefundAuthorization) Reject(reason string) error {
	if a.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject authorization in %s status", a.Status))
	}

	a.Status = RefundAuthorizationStatusRejected
	a.Reason = reason
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// Consume marks an approved authorization as used by a refund entry.
// Fails with AUTHORIZATION_USED when already consumed and
// REFUND_NOT_AUTHORIZED when never approved.
func (a *RefundAuthorization) Consume(refundAmount decimal.Decimal) error {
	switch a.Status {
	case RefundAuthorizationStatusUsed:
		return ErrAuthorizationUsed
	case RefundAuthorizationStatusApproved:
		// ok
	default:
		return ErrRefundNotAuthorized
	}
	if refundAmount.Abs().GreaterThan(a.AuthorizedAmount) {
		return shared.NewDomainError("EXCEEDS_AUTHORIZATION",
			fmt.Sprintf("Refund %s exceeds authorized amount %s", refundAmount.Abs(), a.AuthorizedAmount))
	}

	now := time.Now()
	a.Status = RefundAuthorizationStatusUsed
	a.UsedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()

	return nil
}

// IsApproved returns true if the authorization is approved and unconsumed
func (a *RefundAuthorization) IsApproved() bool {
	return a.Status == RefundAuthorizationStatusApproved
}
