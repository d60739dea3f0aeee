package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// lockedTarget wraps a billable target loaded under an exclusive row lock.
// Exactly one of item or dep is set, matching the target reference kind.
type lockedTarget struct {
	item *billing.FicheNavetteItem
	dep  *billing.ItemDependency
}

// lockTarget reloads the target with an exclusive lock so that concurrent
// payments against the same target serialize on the row instead of racing on
// the cached balance columns.
func lockTarget(ctx context.Context, repos billing.Repositories, ref billing.TargetRef) (*lockedTarget, error) {
	switch ref.Kind {
	case billing.TargetKindFicheItem:
		item, err := repos.FicheItems().FindByIDForUpdate(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock fiche item: %w", err)
		}
		if item == nil {
			return nil, billing.ErrTargetNotFound
		}
		return &lockedTarget{item: item}, nil
	case billing.TargetKindDependency:
		dep, err := repos.Dependencies().FindByIDForUpdate(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock dependency: %w", err)
		}
		if dep == nil {
			return nil, billing.ErrTargetNotFound
		}
		return &lockedTarget{dep: dep}, nil
	default:
		return nil, billing.ErrTargetNotFound
	}
}

func (t *lockedTarget) ref() billing.TargetRef {
	if t.item != nil {
		return t.item.Ref()
	}
	return t.dep.Ref()
}

func (t *lockedTarget) balance() billing.Balance {
	if t.item != nil {
		return t.item.Balance
	}
	return t.dep.Balance
}

func (t *lockedTarget) recomputeBalance(netPaid decimal.Decimal) {
	if t.item != nil {
		t.item.RecomputeBalance(netPaid)
		return
	}
	t.dep.RecomputeBalance(netPaid)
}

func (t *lockedTarget) save(ctx context.Context, repos billing.Repositories) error {
	if t.item != nil {
		return repos.FicheItems().Save(ctx, t.item)
	}
	return repos.Dependencies().Save(ctx, t.dep)
}

// entryOptions carries the optional links attached to a ledger entry
type entryOptions struct {
	originalTransactionID *uuid.UUID
	refundAuthorizationID *uuid.UUID
	bankAccountID         *uuid.UUID
}

func (o entryOptions) apply(entry *billing.LedgerEntry) {
	if o.originalTransactionID != nil {
		entry.WithOriginalTransaction(*o.originalTransactionID)
	}
	if o.refundAuthorizationID != nil {
		entry.WithRefundAuthorization(*o.refundAuthorizationID)
	}
	if o.bankAccountID != nil {
		entry.WithBankAccount(*o.bankAccountID)
	}
}

// applyEntry creates a payment or refund entry for an already resolved
// target and brings the target's cached balance back in sync by fully
// recomputing it from the ledger. Runs under the caller's transaction; the
// lock on the target row is held until that transaction ends.
func applyEntry(
	ctx context.Context,
	repos billing.Repositories,
	target *ResolvedTarget,
	amount decimal.Decimal,
	txType billing.TransactionType,
	method billing.PaymentMethod,
	cashierID uuid.UUID,
	notes string,
	opts entryOptions,
) (*billing.LedgerEntry, *lockedTarget, error) {
	locked, err := lockTarget(ctx, repos, target.Ref)
	if err != nil {
		return nil, nil, err
	}

	var entry *billing.LedgerEntry
	switch txType {
	case billing.TransactionTypePayment:
		entry, err = billing.NewPaymentEntry(target.Ref, target.PatientID, cashierID, amount, method, notes)
	case billing.TransactionTypeRefund:
		entry, err = billing.NewRefundEntry(target.Ref, target.PatientID, cashierID, amount, method, notes)
	case billing.TransactionTypeAdjustment:
		entry, err = billing.NewAdjustmentEntry(target.Ref, target.PatientID, cashierID, amount, method, notes)
	default:
		err = billing.ErrInvalidAction
	}
	if err != nil {
		return nil, nil, err
	}
	opts.apply(entry)

	if err := repos.Ledger().Create(ctx, entry); err != nil {
		return nil, nil, fmt.Errorf("failed to create ledger entry: %w", err)
	}

	if err := recomputeAndSave(ctx, repos, locked); err != nil {
		return nil, nil, err
	}

	return entry, locked, nil
}

// recomputeAndSave resums the target's net paid total from all its ledger
// entries and persists the refreshed balance. Full recomputation inside the
// lock scope keeps the cache drift-free no matter what sequence of entries
// preceded it.
func recomputeAndSave(ctx context.Context, repos billing.Repositories, locked *lockedTarget) error {
	netPaid, err := repos.Ledger().SumNetByTarget(ctx, locked.ref())
	if err != nil {
		return fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	locked.recomputeBalance(netPaid)
	if err := locked.save(ctx, repos); err != nil {
		return fmt.Errorf("failed to save target balance: %w", err)
	}
	return nil
}
