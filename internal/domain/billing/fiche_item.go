package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FicheNavetteItem represents one priced line (a prestation or package)
// within a fiche navette, the parent billing document of a patient visit.
type FicheNavetteItem struct {
	shared.BaseAggregateRoot
	FicheNavetteID uuid.UUID  `json:"fiche_navette_id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	PrestationID   *uuid.UUID `json:"prestation_id"`
	PackageID      *uuid.UUID `json:"package_id"`
	Label          string     `json:"label"`
	Balance
}

// NewFicheNavetteItem creates a new billable line within a fiche navette
func NewFicheNavetteItem(
	ficheNavetteID uuid.UUID,
	patientID uuid.UUID,
	prestationID *uuid.UUID,
	label string,
	finalPrice decimal.Decimal,
) (*FicheNavetteItem, error) {
	if ficheNavetteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FICHE", "Fiche navette ID cannot be empty")
	}
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}
	balance, err := NewBalance(finalPrice)
	if err != nil {
		return nil, err
	}

	return &FicheNavetteItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FicheNavetteID:    ficheNavetteID,
		PatientID:         patientID,
		PrestationID:      prestationID,
		Label:             label,
		Balance:           balance,
	}, nil
}

// Ref returns the target reference for this item
func (i *FicheNavetteItem) Ref() TargetRef {
	return FicheItemRef(i.ID)
}

// RecomputeBalance resets the cached balance from the net paid total summed
// over the item's ledger entries
func (i *FicheNavetteItem) RecomputeBalance(netPaid decimal.Decimal) {
	wasPaid := i.IsFullyPaid()
	i.Balance.Recompute(netPaid)
	i.afterBalanceChange(wasPaid)
}

func (i *FicheNavetteItem) afterBalanceChange(wasPaid bool) {
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	if !wasPaid && i.IsFullyPaid() {
		i.AddDomainEvent(NewTargetPaidEvent(i.Ref(), i.PatientID, i.FinalPrice))
	}
}
