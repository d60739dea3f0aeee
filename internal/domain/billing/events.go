package billing

import (
	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the billing context
const (
	EventTypeLedgerEntryRecorded = "billing.ledger_entry.recorded"
	EventTypeLedgerEntryReversed = "billing.ledger_entry.reversed"
	EventTypeTargetPaid          = "billing.target.paid"
)

// LedgerEntryRecordedEvent is emitted when a monetary event enters the ledger
type LedgerEntryRecordedEvent struct {
	shared.BaseDomainEvent
	Target    *TargetRef      `json:"target,omitempty"`
	PatientID uuid.UUID       `json:"patient_id"`
	Amount    decimal.Decimal `json:"amount"`
	TxType    TransactionType `json:"transaction_type"`
	Method    PaymentMethod   `json:"payment_method"`
}

// NewLedgerEntryRecordedEvent creates a new LedgerEntryRecordedEvent
func NewLedgerEntryRecordedEvent(entry *LedgerEntry) *LedgerEntryRecordedEvent {
	return &LedgerEntryRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLedgerEntryRecorded, "LedgerEntry", entry.ID),
		Target:          entry.Target,
		PatientID:       entry.PatientID,
		Amount:          entry.Amount,
		TxType:          entry.Type,
		Method:          entry.Method,
	}
}

// LedgerEntryReversedEvent is emitted when an entry is deleted and its
// balance effect undone
type LedgerEntryReversedEvent struct {
	shared.BaseDomainEvent
	Target *TargetRef      `json:"target,omitempty"`
	Amount decimal.Decimal `json:"amount"`
	TxType TransactionType `json:"transaction_type"`
}

// NewLedgerEntryReversedEvent creates a new LedgerEntryReversedEvent
func NewLedgerEntryReversedEvent(entry *LedgerEntry) *LedgerEntryReversedEvent {
	return &LedgerEntryReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLedgerEntryReversed, "LedgerEntry", entry.ID),
		Target:          entry.Target,
		Amount:          entry.Amount,
		TxType:          entry.Type,
	}
}

// TargetPaidEvent is emitted when a billable target becomes fully paid
type TargetPaidEvent struct {
	shared.BaseDomainEvent
	Target     TargetRef       `json:"target"`
	PatientID  uuid.UUID       `json:"patient_id"`
	FinalPrice decimal.Decimal `json:"final_price"`
}

// NewTargetPaidEvent creates a new TargetPaidEvent
func NewTargetPaidEvent(target TargetRef, patientID uuid.UUID, finalPrice decimal.Decimal) *TargetPaidEvent {
	return &TargetPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTargetPaid, "BillableTarget", target.ID),
		Target:          target,
		PatientID:       patientID,
		FinalPrice:      finalPrice,
	}
}
