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

// GormFicheItemRepository implements billing.FicheItemRepository using GORM
type GormFicheItemRepository struct {
	db *gorm.DB
}

// NewGormFicheItemRepository creates a new GormFicheItemRepository
func NewGormFicheItemRepository(db *gorm.DB) *GormFicheItemRepository {
	return &GormFicheItemRepository{db: db}
}

// FindByID finds a fiche navette item by its ID
func (r *GormFicheItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.FicheNavetteItem, error) {
	var model models.FicheNavetteItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a fiche navette item by ID holding an exclusive row lock
func (r *GormFicheItemRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.FicheNavetteItem, error) {
	var model models.FicheNavetteItemModel
	if err := forUpdate(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPrestationOrPackage resolves a legacy prestation id against the
// item's prestation or package reference
func (r *GormFicheItemRepository) FindByPrestationOrPackage(ctx context.Context, prestationID uuid.UUID) (*billing.FicheNavetteItem, error) {
	var model models.FicheNavetteItemModel
	if err := r.db.WithContext(ctx).
		Where("prestation_id = ? OR package_id = ?", prestationID, prestationID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOutstandingByPatient finds items of a patient that still owe money
func (r *GormFicheItemRepository) FindOutstandingByPatient(ctx context.Context, patientID uuid.UUID) ([]billing.FicheNavetteItem, error) {
	var itemModels []models.FicheNavetteItemModel
	if err := r.db.WithContext(ctx).
		Where("patient_id = ? AND payment_status = ?", patientID, billing.PaymentStatusPending.String()).
		Order("created_at ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}

	items := make([]billing.FicheNavetteItem, len(itemModels))
	for i, model := range itemModels {
		items[i] = *model.ToDomain()
	}
	return items, nil
}

// Save persists an item with optimistic locking (version check)
func (r *GormFicheItemRepository) Save(ctx context.Context, item *billing.FicheNavetteItem) error {
	model := models.FicheNavetteItemModelFromDomain(item)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", item.ID, item.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Create inserts a new fiche navette item
func (r *GormFicheItemRepository) Create(ctx context.Context, item *billing.FicheNavetteItem) error {
	model := models.FicheNavetteItemModelFromDomain(item)
	return r.db.WithContext(ctx).Create(model).Error
}
