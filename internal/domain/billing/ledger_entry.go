package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of monetary event a ledger entry records
type TransactionType string

const (
	TransactionTypePayment    TransactionType = "PAYMENT"
	TransactionTypeRefund     TransactionType = "REFUND"
	TransactionTypeDonation   TransactionType = "DONATION"
	TransactionTypeCredit     TransactionType = "CREDIT"
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypePayment, TransactionTypeRefund, TransactionTypeDonation,
		TransactionTypeCredit, TransactionTypeAdjustment:
		return true
	}
	return false
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsStandalone returns true for entry types recorded at patient level with no
// billable target reference
func (t TransactionType) IsStandalone() bool {
	return t == TransactionTypeDonation || t == TransactionTypeCredit
}

// PaymentMethod represents how the money moved
type PaymentMethod string

const (
	PaymentMethodCash      PaymentMethod = "CASH"
	PaymentMethodCard      PaymentMethod = "CARD"
	PaymentMethodCheck     PaymentMethod = "CHECK"
	PaymentMethodTransfer  PaymentMethod = "TRANSFER"
	PaymentMethodInsurance PaymentMethod = "INSURANCE"
	PaymentMethodRefund    PaymentMethod = "REFUND"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodCheck,
		PaymentMethodTransfer, PaymentMethodInsurance, PaymentMethodRefund:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// LedgerEntry records one monetary event. Entries are append-style: immutable
// once created, deleted only to compensate a failed processing attempt or to
// reverse a transaction.
//
// Amount is always a positive magnitude; the transaction type decides the
// sign of the effect on the target balance. This invariant is enforced here,
// at the constructor boundary, so the rest of the pipeline never needs an
// abs() call.
type LedgerEntry struct {
	shared.BaseAggregateRoot
	Target                *TargetRef      `json:"target,omitempty"` // nil for donation/credit entries
	PatientID             uuid.UUID       `json:"patient_id"`
	CashierID             uuid.UUID       `json:"cashier_id"`
	Amount                decimal.Decimal `json:"amount"`
	Type                  TransactionType `json:"transaction_type"`
	Method                PaymentMethod   `json:"payment_method"`
	OriginalTransactionID *uuid.UUID      `json:"original_transaction_id,omitempty"`
	RefundAuthorizationID *uuid.UUID      `json:"refund_authorization_id,omitempty"`
	BankAccountID         *uuid.UUID      `json:"bank_account_id,omitempty"`
	Notes                 string          `json:"notes,omitempty"`
}

func newLedgerEntry(
	target *TargetRef,
	patientID, cashierID uuid.UUID,
	amount decimal.Decimal,
	txType TransactionType,
	method PaymentMethod,
	notes string,
) (*LedgerEntry, error) {
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Transaction type is not valid")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}
	magnitude := amount.Abs()
	if magnitude.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be non-zero")
	}
	if txType.IsStandalone() {
		if target != nil {
			return nil, shared.NewDomainError("INVALID_TARGET",
				"Donation and credit entries are patient-level and cannot reference a billable target")
		}
	} else {
		if target == nil || target.IsZero() || !target.Kind.IsValid() {
			return nil, shared.NewDomainError("INVALID_TARGET", "Entry requires exactly one billable target reference")
		}
	}

	entry := &LedgerEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Target:            target,
		PatientID:         patientID,
		CashierID:         cashierID,
		Amount:            magnitude,
		Type:              txType,
		Method:            method,
		Notes:             notes,
	}

	entry.AddDomainEvent(NewLedgerEntryRecordedEvent(entry))

	return entry, nil
}

// NewPaymentEntry creates a payment entry against a billable target
func NewPaymentEntry(target TargetRef, patientID, cashierID uuid.UUID, amount decimal.Decimal, method PaymentMethod, notes string) (*LedgerEntry, error) {
	return newLedgerEntry(&target, patientID, cashierID, amount, TransactionTypePayment, method, notes)
}

// NewRefundEntry creates a refund entry against a billable target.
// The amount is normalized to its absolute value regardless of caller sign.
func NewRefundEntry(target TargetRef, patientID, cashierID uuid.UUID, amount decimal.Decimal, method PaymentMethod, notes string) (*LedgerEntry, error) {
	return newLedgerEntry(&target, patientID, cashierID, amount, TransactionTypeRefund, method, notes)
}

// NewAdjustmentEntry creates a corrective entry against a billable target
func NewAdjustmentEntry(target TargetRef, patientID, cashierID uuid.UUID, amount decimal.Decimal, method PaymentMethod, notes string) (*LedgerEntry, error) {
	return newLedgerEntry(&target, patientID, cashierID, amount, TransactionTypeAdjustment, method, notes)
}

// NewDonationEntry creates a standalone donation entry with no target reference
func NewDonationEntry(patientID, cashierID uuid.UUID, amount decimal.Decimal, method PaymentMethod, notes string) (*LedgerEntry, error) {
	return newLedgerEntry(nil, patientID, cashierID, amount, TransactionTypeDonation, method, notes)
}

// NewCreditEntry creates a standalone patient credit entry with no target reference
func NewCreditEntry(patientID, cashierID uuid.UUID, amount decimal.Decimal, method PaymentMethod, notes string) (*LedgerEntry, error) {
	return newLedgerEntry(nil, patientID, cashierID, amount, TransactionTypeCredit, method, notes)
}

// WithOriginalTransaction links a refund entry to the payment it reverses
func (e *LedgerEntry) WithOriginalTransaction(originalID uuid.UUID) *LedgerEntry {
	e.OriginalTransactionID = &originalID
	return e
}

// WithRefundAuthorization links a refund entry to its pre-approval
func (e *LedgerEntry) WithRefundAuthorization(authorizationID uuid.UUID) *LedgerEntry {
	e.RefundAuthorizationID = &authorizationID
	return e
}

// WithBankAccount records the bank account a non-cash movement went through
func (e *LedgerEntry) WithBankAccount(bankAccountID uuid.UUID) *LedgerEntry {
	e.BankAccountID = &bankAccountID
	return e
}

// NetEffect returns the signed contribution of this entry to the target's
// paid total: +amount for payments, -amount for refunds, zero otherwise.
func (e *LedgerEntry) NetEffect() decimal.Decimal {
	switch e.Type {
	case TransactionTypePayment:
		return e.Amount
	case TransactionTypeRefund:
		return e.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// IsRefund returns true if the entry records a refund
func (e *LedgerEntry) IsRefund() bool {
	return e.Type == TransactionTypeRefund
}

// SumNetEffect sums the signed contributions of a target's ledger entries.
// The result is the net paid total used by balance recomputation.
func SumNetEffect(entries []LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for i := range entries {
		total = total.Add(entries[i].NetEffect())
	}
	return total
}

// RecordedAt returns when the entry was recorded
func (e *LedgerEntry) RecordedAt() time.Time {
	return e.CreatedAt
}
