package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OverpaymentAction decides what happens to the amount paid beyond what a
// target requires
type OverpaymentAction string

const (
	// OverpaymentActionDonate waives the excess as a donation
	OverpaymentActionDonate OverpaymentAction = "DONATE"
	// OverpaymentActionBalance credits the excess to the patient's standing balance
	OverpaymentActionBalance OverpaymentAction = "BALANCE"
)

// IsValid checks if the action is a valid OverpaymentAction
func (a OverpaymentAction) IsValid() bool {
	return a == OverpaymentActionDonate || a == OverpaymentActionBalance
}

// OverpaymentService handles payments that exceed the required amount. The
// full cash received is always recorded against the target (the balance
// clamp caps the paid total at the final price) and the excess is routed to
// a standalone donation or patient credit entry in the same transaction.
type OverpaymentService struct {
	uow billing.UnitOfWork
}

// NewOverpaymentService creates a new OverpaymentService
func NewOverpaymentService(uow billing.UnitOfWork) *OverpaymentService {
	return &OverpaymentService{uow: uow}
}

// OverpaymentRequest represents a payment known to exceed the required amount
type OverpaymentRequest struct {
	Target         TargetSelector
	RequiredAmount decimal.Decimal
	PaidAmount     decimal.Decimal
	Method         billing.PaymentMethod
	CashierID      uuid.UUID
	Action         OverpaymentAction
	Notes          string
	BankAccountID  *uuid.UUID
}

// OverpaymentResult represents the outcome of an overpayment disposition
type OverpaymentResult struct {
	PaymentEntry     *billing.LedgerEntry `json:"payment_entry"`
	DispositionEntry *billing.LedgerEntry `json:"disposition_entry"`
	ExcessAmount     decimal.Decimal      `json:"excess_amount"`
	Target           *ResolvedTarget      `json:"target"`
}

// Handle records the full paid amount against the target and disposes of the
// excess according to the requested action, atomically
func (s *OverpaymentService) Handle(ctx context.Context, req OverpaymentRequest) (*OverpaymentResult, error) {
	if req.PaidAmount.LessThanOrEqual(req.RequiredAmount) {
		return nil, billing.ErrNoOverpayment
	}
	if !req.Action.IsValid() {
		return nil, billing.ErrInvalidAction
	}
	if req.RequiredAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Required amount cannot be negative")
	}

	excess := req.PaidAmount.Sub(req.RequiredAmount)

	var result *OverpaymentResult
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		target, err := resolveTarget(ctx, repos, req.Target)
		if err != nil {
			return err
		}

		opts := entryOptions{bankAccountID: req.BankAccountID}
		paymentEntry, locked, err := applyEntry(ctx, repos, target,
			req.PaidAmount, billing.TransactionTypePayment, req.Method, req.CashierID, req.Notes, opts)
		if err != nil {
			return err
		}
		target.Balance = locked.balance()

		var disposition *billing.LedgerEntry
		switch req.Action {
		case OverpaymentActionDonate:
			disposition, err = s.donate(ctx, repos, target.PatientID, req.CashierID, excess, req.Method, req.Notes)
		case OverpaymentActionBalance:
			disposition, err = s.credit(ctx, repos, target.PatientID, req.CashierID, excess, req.Method, req.Notes)
		}
		if err != nil {
			return err
		}

		result = &OverpaymentResult{
			PaymentEntry:     paymentEntry,
			DispositionEntry: disposition,
			ExcessAmount:     excess,
			Target:           target,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *OverpaymentService) donate(
	ctx context.Context,
	repos billing.Repositories,
	patientID, cashierID uuid.UUID,
	amount decimal.Decimal,
	method billing.PaymentMethod,
	notes string,
) (*billing.LedgerEntry, error) {
	entry, err := billing.NewDonationEntry(patientID, cashierID, amount, method, notes)
	if err != nil {
		return nil, err
	}
	if err := repos.Ledger().Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create donation entry: %w", err)
	}
	return entry, nil
}

// credit increments the patient's standing balance and records a credit entry
// for the audit trail
func (s *OverpaymentService) credit(
	ctx context.Context,
	repos billing.Repositories,
	patientID, cashierID uuid.UUID,
	amount decimal.Decimal,
	method billing.PaymentMethod,
	notes string,
) (*billing.LedgerEntry, error) {
	p, err := repos.Patients().FindByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}
	if p == nil {
		return nil, shared.NewDomainError("PATIENT_NOT_FOUND", "Patient not found")
	}
	if err := p.AddCredit(amount); err != nil {
		return nil, err
	}
	if err := repos.Patients().Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save patient balance: %w", err)
	}

	entry, err := billing.NewCreditEntry(patientID, cashierID, amount, method, notes)
	if err != nil {
		return nil, err
	}
	if err := repos.Ledger().Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create credit entry: %w", err)
	}
	return entry, nil
}
