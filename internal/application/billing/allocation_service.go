package billing

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AllocationService spreads one cash receipt across many outstanding billable
// targets, most-unpaid debt first. The whole allocation is all-or-nothing:
// any single failure rolls back every payment in the batch.
type AllocationService struct {
	uow         billing.UnitOfWork
	idempotency shared.IdempotencyStore
}

// NewAllocationService creates a new AllocationService. The idempotency
// store may be nil, in which case request keys are not checked.
func NewAllocationService(uow billing.UnitOfWork, idempotency shared.IdempotencyStore) *AllocationService {
	return &AllocationService{
		uow:         uow,
		idempotency: idempotency,
	}
}

// AllocationItem is one line of a bulk allocation request
type AllocationItem struct {
	Target TargetSelector
	Amount decimal.Decimal
}

// AllocateRequest represents one cash receipt to spread across targets
type AllocateRequest struct {
	Items         []AllocationItem
	TotalAmount   decimal.Decimal
	PatientID     uuid.UUID
	CashierID     uuid.UUID
	Method        billing.PaymentMethod
	Notes         string
	BankAccountID *uuid.UUID
	// RequestKey deduplicates retried submissions when set
	RequestKey string
}

// AllocateResult reports how the receipt was spread
type AllocateResult struct {
	Transactions    []billing.LedgerEntry `json:"transactions"`
	Donation        *billing.LedgerEntry  `json:"donation,omitempty"`
	TotalProcessed  int                   `json:"total_processed"`
	AmountProcessed decimal.Decimal       `json:"amount_processed"`
	PaymentsAmount  decimal.Decimal       `json:"payments_amount"`
	RemainingAmount decimal.Decimal       `json:"remaining_amount"`
}

// allocationCandidate pairs a resolved target with its requested amount
type allocationCandidate struct {
	target    *ResolvedTarget
	requested decimal.Decimal
}

// Allocate resolves every item, orders them by payment priority (unpaid
// first, then partially paid, fully paid last, ties keeping input order) and
// pays them in that order until the receipt is exhausted. Anything beyond the
// total outstanding is donated; bulk excess is never credited to the patient.
func (s *AllocationService) Allocate(ctx context.Context, req AllocateRequest) (*AllocateResult, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("EMPTY_ALLOCATION", "Allocation requires at least one item")
	}
	if req.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount must be positive")
	}
	claimed, err := claimRequestKey(ctx, s.idempotency, req.RequestKey)
	if err != nil {
		return nil, err
	}

	var result *AllocateResult
	err = s.uow.Execute(ctx, func(repos billing.Repositories) error {
		candidates, err := s.resolveAll(ctx, repos, req.Items)
		if err != nil {
			return err
		}

		totalOutstanding := decimal.Zero
		for _, c := range candidates {
			totalOutstanding = totalOutstanding.Add(c.requested)
		}

		sortCandidates(candidates)

		remaining := decimal.Min(req.TotalAmount, totalOutstanding)
		paymentsAmount := decimal.Zero
		var transactions []billing.LedgerEntry

		for _, c := range candidates {
			if remaining.LessThanOrEqual(decimal.Zero) {
				break
			}
			amount := decimal.Min(c.requested, remaining)
			if amount.LessThanOrEqual(decimal.Zero) {
				continue
			}

			opts := entryOptions{bankAccountID: req.BankAccountID}
			entry, _, err := applyEntry(ctx, repos, c.target,
				amount, billing.TransactionTypePayment, req.Method, req.CashierID, req.Notes, opts)
			if err != nil {
				return allocationFailure(c.target.Ref, err)
			}

			transactions = append(transactions, *entry)
			paymentsAmount = paymentsAmount.Add(amount)
			remaining = remaining.Sub(amount)
		}

		result = &AllocateResult{
			Transactions:    transactions,
			TotalProcessed:  len(transactions),
			PaymentsAmount:  paymentsAmount,
			AmountProcessed: paymentsAmount,
		}

		excess := req.TotalAmount.Sub(totalOutstanding)
		if excess.GreaterThan(decimal.Zero) {
			donation, err := billing.NewDonationEntry(req.PatientID, req.CashierID, excess, req.Method, req.Notes)
			if err != nil {
				return err
			}
			if err := repos.Ledger().Create(ctx, donation); err != nil {
				return fmt.Errorf("failed to create donation entry: %w", err)
			}
			result.Donation = donation
			result.AmountProcessed = result.AmountProcessed.Add(excess)
		}

		result.RemainingAmount = req.TotalAmount.Sub(result.AmountProcessed)
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

// resolveAll resolves every item before any money moves, so a bad selector
// fails the batch without touching state
func (s *AllocationService) resolveAll(
	ctx context.Context,
	repos billing.Repositories,
	items []AllocationItem,
) ([]allocationCandidate, error) {
	candidates := make([]allocationCandidate, 0, len(items))
	for _, item := range items {
		if item.Amount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Item amount cannot be negative")
		}
		target, err := resolveTarget(ctx, repos, item.Target)
		if err != nil {
			return nil, allocationFailure(billing.TargetRef{}, err)
		}
		candidates = append(candidates, allocationCandidate{
			target:    target,
			requested: item.Amount,
		})
	}
	return candidates, nil
}

// sortCandidates orders candidates by payment priority tier while keeping
// the relative input order within a tier
func sortCandidates(candidates []allocationCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return billing.ComparePaymentPriority(candidates[i].target.Balance, candidates[j].target.Balance) < 0
	})
}

func allocationFailure(ref billing.TargetRef, cause error) error {
	if ref.IsZero() {
		return shared.NewDomainError("PARTIAL_ALLOCATION_FAILURE",
			fmt.Sprintf("Allocation aborted: %s", cause.Error()))
	}
	return shared.NewDomainError("PARTIAL_ALLOCATION_FAILURE",
		fmt.Sprintf("Allocation aborted at %s: %s", ref, cause.Error()))
}
