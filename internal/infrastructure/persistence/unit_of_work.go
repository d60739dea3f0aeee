package persistence

import (
	"context"

	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/caisse"
	"github.com/hms/backend/internal/domain/patient"
	"gorm.io/gorm"
)

// gormRepositories bundles transaction-bound billing repositories
type gormRepositories struct {
	ficheItems           *GormFicheItemRepository
	dependencies         *GormDependencyRepository
	ledger               *GormLedgerEntryRepository
	refundAuthorizations *GormRefundAuthorizationRepository
	patients             *GormPatientRepository
}

func newGormRepositories(tx *gorm.DB) *gormRepositories {
	return &gormRepositories{
		ficheItems:           NewGormFicheItemRepository(tx),
		dependencies:         NewGormDependencyRepository(tx),
		ledger:               NewGormLedgerEntryRepository(tx),
		refundAuthorizations: NewGormRefundAuthorizationRepository(tx),
		patients:             NewGormPatientRepository(tx),
	}
}

func (r *gormRepositories) FicheItems() billing.FicheItemRepository { return r.ficheItems }

func (r *gormRepositories) Dependencies() billing.DependencyRepository { return r.dependencies }

func (r *gormRepositories) Ledger() billing.LedgerEntryRepository { return r.ledger }

func (r *gormRepositories) RefundAuthorizations() billing.RefundAuthorizationRepository {
	return r.refundAuthorizations
}

func (r *gormRepositories) Patients() patient.Repository { return r.patients }

// GormBillingUnitOfWork implements billing.UnitOfWork over a database
// transaction. If fn returns an error the transaction rolls back and no
// partially applied payment becomes visible.
type GormBillingUnitOfWork struct {
	db *gorm.DB
}

// NewGormBillingUnitOfWork creates a new GormBillingUnitOfWork
func NewGormBillingUnitOfWork(db *gorm.DB) *GormBillingUnitOfWork {
	return &GormBillingUnitOfWork{db: db}
}

// Execute runs fn atomically over transaction-bound repositories
func (u *GormBillingUnitOfWork) Execute(ctx context.Context, fn func(repos billing.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGormRepositories(tx))
	})
}

// GormCaisseUnitOfWork implements caisse.UnitOfWork over a database transaction
type GormCaisseUnitOfWork struct {
	db *gorm.DB
}

// NewGormCaisseUnitOfWork creates a new GormCaisseUnitOfWork
func NewGormCaisseUnitOfWork(db *gorm.DB) *GormCaisseUnitOfWork {
	return &GormCaisseUnitOfWork{db: db}
}

// Execute runs fn atomically over a transaction-bound transfer repository
func (u *GormCaisseUnitOfWork) Execute(ctx context.Context, fn func(transfers caisse.TransferRepository) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormTransferRepository(tx))
	})
}
