package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ItemDependency represents a sub-line attached to a fiche navette item
// (e.g., an add-on prestation). It is billed and paid independently of its
// parent item; payments against it store only the dependency id.
type ItemDependency struct {
	shared.BaseAggregateRoot
	ParentItemID          uuid.UUID `json:"parent_item_id"`
	PatientID             uuid.UUID `json:"patient_id"`
	DependentPrestationID uuid.UUID `json:"dependent_prestation_id"`
	Label                 string    `json:"label"`
	Balance
}

// NewItemDependency creates a dependency line under a fiche navette item.
// The patient is the one owning the parent item's fiche navette.
func NewItemDependency(
	parentItemID uuid.UUID,
	patientID uuid.UUID,
	dependentPrestationID uuid.UUID,
	label string,
	finalPrice decimal.Decimal,
) (*ItemDependency, error) {
	if parentItemID == uuid.Nil {
		return nil, ErrOrphanedDependency
	}
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}
	if dependentPrestationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRESTATION", "Dependent prestation ID cannot be empty")
	}
	balance, err := NewBalance(finalPrice)
	if err != nil {
		return nil, err
	}

	return &ItemDependency{
		BaseAggregateRoot:     shared.NewBaseAggregateRoot(),
		ParentItemID:          parentItemID,
		PatientID:             patientID,
		DependentPrestationID: dependentPrestationID,
		Label:                 label,
		Balance:               balance,
	}, nil
}

// Ref returns the target reference for this dependency
func (d *ItemDependency) Ref() TargetRef {
	return DependencyRef(d.ID)
}

// RecomputeBalance resets the cached balance from the net paid total summed
// over the dependency's ledger entries
func (d *ItemDependency) RecomputeBalance(netPaid decimal.Decimal) {
	wasPaid := d.IsFullyPaid()
	d.Balance.Recompute(netPaid)
	d.afterBalanceChange(wasPaid)
}

func (d *ItemDependency) afterBalanceChange(wasPaid bool) {
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	if !wasPaid && d.IsFullyPaid() {
		d.AddDomainEvent(NewTargetPaidEvent(d.Ref(), d.PatientID, d.FinalPrice))
	}
}
