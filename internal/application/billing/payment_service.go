package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// idempotencyTTL bounds how long a processed request key blocks duplicates
const idempotencyTTL = 24 * time.Hour

// PaymentService applies single payment and refund transactions. Every
// operation runs inside one database transaction: the ledger entry and the
// target's recomputed balance become visible together or not at all.
type PaymentService struct {
	uow         billing.UnitOfWork
	idempotency shared.IdempotencyStore
}

// NewPaymentService creates a new PaymentService. The idempotency store may
// be nil, in which case request keys are not checked.
func NewPaymentService(uow billing.UnitOfWork, idempotency shared.IdempotencyStore) *PaymentService {
	return &PaymentService{
		uow:         uow,
		idempotency: idempotency,
	}
}

// ProcessTransactionRequest represents a request to apply one payment or refund
type ProcessTransactionRequest struct {
	Target    TargetSelector
	Amount    decimal.Decimal
	Type      billing.TransactionType
	Method    billing.PaymentMethod
	CashierID uuid.UUID
	Notes     string
	// For refunds, exactly one of the two links below may be set
	OriginalTransactionID *uuid.UUID
	RefundAuthorizationID *uuid.UUID
	BankAccountID         *uuid.UUID
	// RequestKey deduplicates retried submissions when set
	RequestKey string
}

// ProcessTransactionResult represents the outcome of a processed transaction
type ProcessTransactionResult struct {
	Entry   *billing.LedgerEntry `json:"entry"`
	Target  *ResolvedTarget      `json:"target"`
	Balance billing.Balance      `json:"balance"`
}

// Process resolves the target, records the ledger entry, and recomputes the
// target's balance atomically. On any failure nothing is committed.
func (s *PaymentService) Process(ctx context.Context, req ProcessTransactionRequest) (*ProcessTransactionResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	claimed, err := claimRequestKey(ctx, s.idempotency, req.RequestKey)
	if err != nil {
		return nil, err
	}

	var result *ProcessTransactionResult
	err = s.uow.Execute(ctx, func(repos billing.Repositories) error {
		target, err := resolveTarget(ctx, repos, req.Target)
		if err != nil {
			return err
		}

		opts := entryOptions{bankAccountID: req.BankAccountID}
		if req.Type == billing.TransactionTypeRefund {
			if err := s.prepareRefund(ctx, repos, target, req, &opts); err != nil {
				return err
			}
		}

		entry, locked, err := applyEntry(ctx, repos, target,
			req.Amount, req.Type, req.Method, req.CashierID, req.Notes, opts)
		if err != nil {
			return err
		}

		target.Balance = locked.balance()
		result = &ProcessTransactionResult{
			Entry:   entry,
			Target:  target,
			Balance: locked.balance(),
		}
		return nil
	})
	if err != nil {
		if claimed {
			releaseRequestKey(ctx, s.idempotency, req.RequestKey)
		}
		return nil, err
	}
	return result, nil
}

func (s *PaymentService) validate(req ProcessTransactionRequest) error {
	if req.Amount.Abs().IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be non-zero")
	}
	switch req.Type {
	case billing.TransactionTypePayment, billing.TransactionTypeRefund, billing.TransactionTypeAdjustment:
	default:
		return shared.NewDomainError("INVALID_TRANSACTION_TYPE",
			fmt.Sprintf("Transaction type %s cannot be processed against a target", req.Type))
	}
	if !req.Method.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is not valid")
	}
	if req.OriginalTransactionID != nil && req.RefundAuthorizationID != nil {
		return shared.NewDomainError("INVALID_REFUND_LINK",
			"A refund references either its original transaction or an authorization, not both")
	}
	return nil
}

// claimRequestKey marks a request key before the transaction starts, so
// concurrent retries of the same receipt are rejected while the first attempt
// is still in flight. Returns true when this call claimed the key.
func claimRequestKey(ctx context.Context, store shared.IdempotencyStore, key string) (bool, error) {
	if key == "" || store == nil {
		return false, nil
	}
	fresh, err := store.MarkProcessed(ctx, key, idempotencyTTL)
	if err != nil {
		return false, fmt.Errorf("failed to check request key: %w", err)
	}
	if !fresh {
		return false, shared.ErrDuplicateRequest
	}
	return true, nil
}

// releaseRequestKey frees a claimed key after the transaction rolled back, so
// the retry of a failed request is not mistaken for a duplicate. Best effort:
// if the release itself fails, retries stay blocked until the key's TTL runs
// out.
func releaseRequestKey(ctx context.Context, store shared.IdempotencyStore, key string) {
	_ = store.Release(ctx, key)
}

// prepareRefund enforces the refund entry points: a refund is tied either to
// the original payment it reverses or to a consumed pre-approval.
func (s *PaymentService) prepareRefund(
	ctx context.Context,
	repos billing.Repositories,
	target *ResolvedTarget,
	req ProcessTransactionRequest,
	opts *entryOptions,
) error {
	switch {
	case req.OriginalTransactionID != nil:
		if err := s.checkOriginalTransaction(ctx, repos, target, *req.OriginalTransactionID, req.Amount); err != nil {
			return err
		}
		opts.originalTransactionID = req.OriginalTransactionID
	case req.RefundAuthorizationID != nil:
		if err := s.consumeAuthorization(ctx, repos, *req.RefundAuthorizationID, req.Amount); err != nil {
			return err
		}
		opts.refundAuthorizationID = req.RefundAuthorizationID
	default:
		return billing.ErrRefundNotAuthorized
	}
	return nil
}

func (s *PaymentService) checkOriginalTransaction(
	ctx context.Context,
	repos billing.Repositories,
	target *ResolvedTarget,
	originalID uuid.UUID,
	amount decimal.Decimal,
) error {
	original, err := repos.Ledger().FindByID(ctx, originalID)
	if err != nil {
		return fmt.Errorf("failed to load original transaction: %w", err)
	}
	if original == nil {
		return shared.NewDomainError("ORIGINAL_NOT_FOUND", "Original transaction not found")
	}
	if original.Type != billing.TransactionTypePayment {
		return shared.NewDomainError("INVALID_REFUND_LINK", "Only payment transactions can be refunded")
	}
	if original.Target == nil || !original.Target.Equals(target.Ref) {
		return shared.NewDomainError("INVALID_REFUND_LINK",
			"Original transaction does not belong to the resolved target")
	}

	refunds, err := repos.Ledger().FindRefundsOfTransaction(ctx, originalID)
	if err != nil {
		return fmt.Errorf("failed to load prior refunds: %w", err)
	}
	refunded := decimal.Zero
	for i := range refunds {
		refunded = refunded.Add(refunds[i].Amount)
	}
	if refunded.GreaterThanOrEqual(original.Amount) {
		return billing.ErrAlreadyRefunded
	}
	if refunded.Add(amount.Abs()).GreaterThan(original.Amount) {
		return shared.NewDomainError("EXCEEDS_REFUNDABLE",
			fmt.Sprintf("Refund %s exceeds refundable remainder %s",
				amount.Abs(), original.Amount.Sub(refunded)))
	}
	return nil
}

func (s *PaymentService) consumeAuthorization(
	ctx context.Context,
	repos billing.Repositories,
	authorizationID uuid.UUID,
	amount decimal.Decimal,
) error {
	auth, err := repos.RefundAuthorizations().FindByIDForUpdate(ctx, authorizationID)
	if err != nil {
		return fmt.Errorf("failed to load refund authorization: %w", err)
	}
	if auth == nil {
		return billing.ErrRefundNotAuthorized
	}
	if err := auth.Consume(amount); err != nil {
		return err
	}
	if err := repos.RefundAuthorizations().Save(ctx, auth); err != nil {
		return fmt.Errorf("failed to save refund authorization: %w", err)
	}
	return nil
}

// ReverseTransaction deletes a ledger entry and restores the target's balance
// by resumming its remaining entries, all in one transaction
func (s *PaymentService) ReverseTransaction(ctx context.Context, entryID uuid.UUID) (*ProcessTransactionResult, error) {
	var result *ProcessTransactionResult
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		entry, err := repos.Ledger().FindByID(ctx, entryID)
		if err != nil {
			return fmt.Errorf("failed to load entry: %w", err)
		}
		if entry == nil {
			return shared.NewDomainError("ENTRY_NOT_FOUND", "Ledger entry not found")
		}

		if entry.Target == nil {
			// Standalone donation/credit entries have no balance to restore.
			if err := repos.Ledger().Delete(ctx, entryID); err != nil {
				return fmt.Errorf("failed to delete entry: %w", err)
			}
			entry.AddDomainEvent(billing.NewLedgerEntryReversedEvent(entry))
			result = &ProcessTransactionResult{Entry: entry}
			return nil
		}

		locked, err := lockTarget(ctx, repos, *entry.Target)
		if err != nil {
			return err
		}
		if err := repos.Ledger().Delete(ctx, entryID); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		if err := recomputeAndSave(ctx, repos, locked); err != nil {
			return err
		}
		entry.AddDomainEvent(billing.NewLedgerEntryReversedEvent(entry))

		result = &ProcessTransactionResult{
			Entry:   entry,
			Balance: locked.balance(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListTargetTransactions returns the ledger entries recorded against a target
func (s *PaymentService) ListTargetTransactions(ctx context.Context, ref billing.TargetRef) ([]billing.LedgerEntry, error) {
	var entries []billing.LedgerEntry
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		var err error
		entries, err = repos.Ledger().FindByTarget(ctx, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListOutstandingItems returns the patient's fiche items that still owe
// money, oldest first
func (s *PaymentService) ListOutstandingItems(ctx context.Context, patientID uuid.UUID) ([]billing.FicheNavetteItem, error) {
	var items []billing.FicheNavetteItem
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		var err error
		items, err = repos.FicheItems().FindOutstandingByPatient(ctx, patientID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListPatientTransactions returns all ledger entries attributed to a patient
func (s *PaymentService) ListPatientTransactions(ctx context.Context, patientID uuid.UUID) ([]billing.LedgerEntry, error) {
	var entries []billing.LedgerEntry
	err := s.uow.Execute(ctx, func(repos billing.Repositories) error {
		var err error
		entries, err = repos.Ledger().FindByPatient(ctx, patientID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
