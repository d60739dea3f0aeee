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

// GormDependencyRepository implements billing.DependencyRepository using GORM
type GormDependencyRepository struct {
	db *gorm.DB
}

// NewGormDependencyRepository creates a new GormDependencyRepository
func NewGormDependencyRepository(db *gorm.DB) *GormDependencyRepository {
	return &GormDependencyRepository{db: db}
}

// FindByID finds a dependency by its ID
func (r *GormDependencyRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.ItemDependency, error) {
	var model models.ItemDependencyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a dependency by ID holding an exclusive row lock
func (r *GormDependencyRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.ItemDependency, error) {
	var model models.ItemDependencyModel
	if err := forUpdate(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByParentAndPrestation looks up a dependency by its discriminator pair
func (r *GormDependencyRepository) FindByParentAndPrestation(ctx context.Context, parentItemID, prestationID uuid.UUID) (*billing.ItemDependency, error) {
	var model models.ItemDependencyModel
	if err := r.db.WithContext(ctx).
		Where("parent_item_id = ? AND dependent_prestation_id = ?", parentItemID, prestationID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDependentPrestation resolves a legacy prestation id against the
// dependency's dependent prestation reference
func (r *GormDependencyRepository) FindByDependentPrestation(ctx context.Context, prestationID uuid.UUID) (*billing.ItemDependency, error) {
	var model models.ItemDependencyModel
	if err := r.db.WithContext(ctx).
		Where("dependent_prestation_id = ?", prestationID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists a dependency with optimistic locking (version check)
func (r *GormDependencyRepository) Save(ctx context.Context, dep *billing.ItemDependency) error {
	model := models.ItemDependencyModelFromDomain(dep)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", dep.ID, dep.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Create inserts a new dependency
func (r *GormDependencyRepository) Create(ctx context.Context, dep *billing.ItemDependency) error {
	model := models.ItemDependencyModelFromDomain(dep)
	return r.db.WithContext(ctx).Create(model).Error
}
