package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/caisse"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTransferRepository implements caisse.TransferRepository using GORM
type GormTransferRepository struct {
	db *gorm.DB
}

// NewGormTransferRepository creates a new GormTransferRepository
func NewGormTransferRepository(db *gorm.DB) *GormTransferRepository {
	return &GormTransferRepository{db: db}
}

// FindByID finds a transfer by its ID
func (r *GormTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*caisse.Transfer, error) {
	var model models.TransferModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByToken finds a transfer by its hand-off token
func (r *GormTransferRepository) FindByToken(ctx context.Context, token string) (*caisse.Transfer, error) {
	var model models.TransferModel
	if err := forUpdate(r.db.WithContext(ctx)).First(&model, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpenForPair returns pending transfers for a (caisse, session) pair
func (r *GormTransferRepository) FindOpenForPair(ctx context.Context, caisseID, sessionID uuid.UUID) ([]caisse.Transfer, error) {
	var transferModels []models.TransferModel
	if err := forUpdate(r.db.WithContext(ctx)).
		Where("caisse_id = ? AND session_id = ? AND status = ?", caisseID, sessionID, caisse.TransferStatusPending.String()).
		Order("created_at ASC").
		Find(&transferModels).Error; err != nil {
		return nil, err
	}
	return toDomainTransfers(transferModels), nil
}

// FindExpiredPending returns pending transfers whose token lapsed before the cutoff
func (r *GormTransferRepository) FindExpiredPending(ctx context.Context, cutoff time.Time) ([]caisse.Transfer, error) {
	var transferModels []models.TransferModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND token_expires_at < ?", caisse.TransferStatusPending.String(), cutoff).
		Order("token_expires_at ASC").
		Find(&transferModels).Error; err != nil {
		return nil, err
	}
	return toDomainTransfers(transferModels), nil
}

// FindByCashier returns transfers a cashier sent or received
func (r *GormTransferRepository) FindByCashier(ctx context.Context, cashierID uuid.UUID) ([]caisse.Transfer, error) {
	var transferModels []models.TransferModel
	if err := r.db.WithContext(ctx).
		Where("from_cashier_id = ? OR to_cashier_id = ?", cashierID, cashierID).
		Order("created_at DESC").
		Find(&transferModels).Error; err != nil {
		return nil, err
	}
	return toDomainTransfers(transferModels), nil
}

// Create inserts a new transfer
func (r *GormTransferRepository) Create(ctx context.Context, t *caisse.Transfer) error {
	model := models.TransferModelFromDomain(t)
	return r.db.WithContext(ctx).Create(model).Error
}

// Save persists a transfer with optimistic locking (version check)
func (r *GormTransferRepository) Save(ctx context.Context, t *caisse.Transfer) error {
	model := models.TransferModelFromDomain(t)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", t.ID, t.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func toDomainTransfers(transferModels []models.TransferModel) []caisse.Transfer {
	transfers := make([]caisse.Transfer, len(transferModels))
	for i := range transferModels {
		transfers[i] = *transferModels[i].ToDomain()
	}
	return transfers
}
