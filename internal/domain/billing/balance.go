package billing

import (
	"github.com/hms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the payment state of a billable target
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING" // remaining amount > 0
	PaymentStatusPaid    PaymentStatus = "PAID"    // remaining amount <= 0
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusPending || s == PaymentStatusPaid
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// Balance holds the cached payment state of a billable target.
// FinalPrice is the authoritative charge; PaidAmount and RemainingAmount are
// derived from ledger entries and must be recomputed whenever an entry
// affecting the target is created or deleted.
type Balance struct {
	FinalPrice      decimal.Decimal `json:"final_price"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
}

// NewBalance creates an unpaid balance for the given charge
func NewBalance(finalPrice decimal.Decimal) (Balance, error) {
	if finalPrice.IsNegative() {
		return Balance{}, shared.NewDomainError("INVALID_PRICE", "Final price cannot be negative")
	}
	b := Balance{
		FinalPrice: finalPrice,
		PaidAmount: decimal.Zero,
	}
	b.reconcile()
	return b, nil
}

// ApplyPayment adds a positive payment amount to the cached paid total.
// The paid amount is clamped to [0, FinalPrice].
func (b *Balance) ApplyPayment(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	b.PaidAmount = b.PaidAmount.Add(amount)
	b.reconcile()
	return nil
}

// ApplyRefund subtracts a refund from the cached paid total. Callers have
// historically passed refund amounts with either sign; the absolute value is
// always used.
func (b *Balance) ApplyRefund(amount decimal.Decimal) error {
	magnitude := amount.Abs()
	if magnitude.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Refund amount must be non-zero")
	}
	b.PaidAmount = decimal.Max(decimal.Zero, b.PaidAmount.Sub(magnitude))
	b.reconcile()
	return nil
}

// Recompute replaces the cached paid total with the net effect summed from
// ledger entries. This is the default, drift-free strategy: it must run
// inside the same lock scope as the entry mutation it follows.
func (b *Balance) Recompute(netPaid decimal.Decimal) {
	b.PaidAmount = netPaid
	b.reconcile()
}

// reconcile clamps the paid amount and derives remaining and status.
// Invariant: RemainingAmount == max(0, FinalPrice - PaidAmount) and
// PaymentStatus == PAID iff RemainingAmount <= 0.
func (b *Balance) reconcile() {
	if b.PaidAmount.IsNegative() {
		b.PaidAmount = decimal.Zero
	}
	if b.PaidAmount.GreaterThan(b.FinalPrice) {
		b.PaidAmount = b.FinalPrice
	}
	b.RemainingAmount = decimal.Max(decimal.Zero, b.FinalPrice.Sub(b.PaidAmount))
	if b.RemainingAmount.LessThanOrEqual(decimal.Zero) {
		b.PaymentStatus = PaymentStatusPaid
	} else {
		b.PaymentStatus = PaymentStatusPending
	}
}

// IsUnpaid returns true if nothing has been paid and something is owed
func (b Balance) IsUnpaid() bool {
	return b.PaidAmount.IsZero() && b.RemainingAmount.GreaterThan(decimal.Zero)
}

// IsPartiallyPaid returns true if something but not everything has been paid
func (b Balance) IsPartiallyPaid() bool {
	return b.PaidAmount.GreaterThan(decimal.Zero) && b.RemainingAmount.GreaterThan(decimal.Zero)
}

// IsFullyPaid returns true if nothing remains to pay
func (b Balance) IsFullyPaid() bool {
	return b.RemainingAmount.LessThanOrEqual(decimal.Zero)
}
