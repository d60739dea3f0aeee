package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRefundAuthorizationRepository implements billing.RefundAuthorizationRepository using GORM
type GormRefundAuthorizationRepository struct {
	db *gorm.DB
}

// NewGormRefundAuthorizationRepository creates a new GormRefundAuthorizationRepository
func NewGormRefundAuthorizationRepository(db *gorm.DB) *GormRefundAuthorizationRepository {
	return &GormRefundAuthorizationRepository{db: db}
}

// FindByID finds a refund authorization by its ID
func (r *GormRefundAuthorizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.RefundAuthorization, error) {
	var model models.RefundAuthorizationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a refund authorization by ID holding an exclusive
// row lock, so that two refunds cannot consume the same authorization
func (r *GormRefundAuthorizationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.RefundAuthorization, error) {
	var model models.RefundAuthorizationModel
	if err := forUpdate(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists an authorization with optimistic locking (version check)
func (r *GormRefundAuthorizationRepository) Save(ctx context.Context, auth *billing.RefundAuthorization) error {
	model := models.RefundAuthorizationModelFromDomain(auth)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", auth.ID, auth.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Create inserts a new refund authorization
func (r *GormRefundAuthorizationRepository) Create(ctx context.Context, auth *billing.RefundAuthorization) error {
	model := models.RefundAuthorizationModelFromDomain(auth)
	return r.db.WithContext(ctx).Create(model).Error
}
