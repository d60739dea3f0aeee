package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/patient"
	"github.com/shopspring/decimal"
)

// FicheItemRepository manages fiche navette item persistence
type FicheItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*FicheNavetteItem, error)
	// FindByIDForUpdate takes an exclusive row lock on the item so that
	// concurrent balance updates are serialized by the database
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*FicheNavetteItem, error)
	// FindByPrestationOrPackage resolves a legacy prestation id against the
	// item's prestation or package reference
	FindByPrestationOrPackage(ctx context.Context, prestationID uuid.UUID) (*FicheNavetteItem, error)
	FindOutstandingByPatient(ctx context.Context, patientID uuid.UUID) ([]FicheNavetteItem, error)
	Save(ctx context.Context, item *FicheNavetteItem) error
}

// DependencyRepository manages item dependency persistence
type DependencyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ItemDependency, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ItemDependency, error)
	// FindByParentAndPrestation looks up a dependency by its discriminator
	// pair (parent fiche item, dependent prestation)
	FindByParentAndPrestation(ctx context.Context, parentItemID, prestationID uuid.UUID) (*ItemDependency, error)
	// FindByDependentPrestation resolves a legacy prestation id against the
	// dependency's dependent prestation reference
	FindByDependentPrestation(ctx context.Context, prestationID uuid.UUID) (*ItemDependency, error)
	Save(ctx context.Context, dep *ItemDependency) error
}

// LedgerEntryRepository manages financial transaction persistence
type LedgerEntryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LedgerEntry, error)
	FindByTarget(ctx context.Context, ref TargetRef) ([]LedgerEntry, error)
	FindByPatient(ctx context.Context, patientID uuid.UUID) ([]LedgerEntry, error)
	// FindRefundsOfTransaction returns refund entries linked to an original payment
	FindRefundsOfTransaction(ctx context.Context, originalID uuid.UUID) ([]LedgerEntry, error)
	// SumNetByTarget returns the net paid total (payments minus refunds) for a target
	SumNetByTarget(ctx context.Context, ref TargetRef) (decimal.Decimal, error)
	Create(ctx context.Context, entry *LedgerEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RefundAuthorizationRepository manages refund pre-approval persistence
type RefundAuthorizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*RefundAuthorization, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*RefundAuthorization, error)
	Create(ctx context.Context, auth *RefundAuthorization) error
	Save(ctx context.Context, auth *RefundAuthorization) error
}

// Repositories bundles the repositories participating in one billing
// transaction. All repositories returned from one bundle are bound to the
// same database transaction.
type Repositories interface {
	FicheItems() FicheItemRepository
	Dependencies() DependencyRepository
	Ledger() LedgerEntryRepository
	RefundAuthorizations() RefundAuthorizationRepository
	Patients() patient.Repository
}

// UnitOfWork runs a function atomically over transaction-bound repositories.
// If fn returns an error the whole transaction rolls back; no partially
// applied payment is ever visible to readers.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}
