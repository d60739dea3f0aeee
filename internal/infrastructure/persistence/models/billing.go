package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// FicheNavetteItemModel is the GORM model for billable lines of a fiche navette
type FicheNavetteItemModel struct {
	AggregateModel
	FicheNavetteID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	PatientID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	PrestationID    *uuid.UUID      `gorm:"type:uuid;index"`
	PackageID       *uuid.UUID      `gorm:"type:uuid;index"`
	Label           string          `gorm:"size:255"`
	FinalPrice      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaymentStatus   string          `gorm:"size:20;not null;index"`
}

// TableName specifies the table name
func (FicheNavetteItemModel) TableName() string {
	return "fiche_navette_items"
}

// ToDomain converts the model to a domain FicheNavetteItem
func (m *FicheNavetteItemModel) ToDomain() *billing.FicheNavetteItem {
	item := &billing.FicheNavetteItem{
		FicheNavetteID: m.FicheNavetteID,
		PatientID:      m.PatientID,
		PrestationID:   m.PrestationID,
		PackageID:      m.PackageID,
		Label:          m.Label,
		Balance: billing.Balance{
			FinalPrice:      m.FinalPrice,
			PaidAmount:      m.PaidAmount,
			RemainingAmount: m.RemainingAmount,
			PaymentStatus:   billing.PaymentStatus(m.PaymentStatus),
		},
	}
	m.PopulateAggregateRoot(&item.BaseAggregateRoot)
	return item
}

// FicheNavetteItemModelFromDomain converts a domain FicheNavetteItem to the model
func FicheNavetteItemModelFromDomain(item *billing.FicheNavetteItem) *FicheNavetteItemModel {
	model := &FicheNavetteItemModel{
		FicheNavetteID:  item.FicheNavetteID,
		PatientID:       item.PatientID,
		PrestationID:    item.PrestationID,
		PackageID:       item.PackageID,
		Label:           item.Label,
		FinalPrice:      item.FinalPrice,
		PaidAmount:      item.PaidAmount,
		RemainingAmount: item.RemainingAmount,
		PaymentStatus:   item.PaymentStatus.String(),
	}
	model.FromDomainAggregateRoot(item.BaseAggregateRoot)
	return model
}

// ItemDependencyModel is the GORM model for dependency sub-lines
type ItemDependencyModel struct {
	AggregateModel
	ParentItemID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_dependency_parent_prestation"`
	PatientID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	DependentPrestationID uuid.UUID       `gorm:"type:uuid;not null;index:idx_dependency_parent_prestation"`
	Label                 string          `gorm:"size:255"`
	FinalPrice            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaidAmount            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	RemainingAmount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaymentStatus         string          `gorm:"size:20;not null"`
}

// TableName specifies the table name
func (ItemDependencyModel) TableName() string {
	return "item_dependencies"
}

// ToDomain converts the model to a domain ItemDependency
func (m *ItemDependencyModel) ToDomain() *billing.ItemDependency {
	dep := &billing.ItemDependency{
		ParentItemID:          m.ParentItemID,
		PatientID:             m.PatientID,
		DependentPrestationID: m.DependentPrestationID,
		Label:                 m.Label,
		Balance: billing.Balance{
			FinalPrice:      m.FinalPrice,
			PaidAmount:      m.PaidAmount,
			RemainingAmount: m.RemainingAmount,
			PaymentStatus:   billing.PaymentStatus(m.PaymentStatus),
		},
	}
	m.PopulateAggregateRoot(&dep.BaseAggregateRoot)
	return dep
}

// ItemDependencyModelFromDomain converts a domain ItemDependency to the model
func ItemDependencyModelFromDomain(dep *billing.ItemDependency) *ItemDependencyModel {
	model := &ItemDependencyModel{
		ParentItemID:          dep.ParentItemID,
		PatientID:             dep.PatientID,
		DependentPrestationID: dep.DependentPrestationID,
		Label:                 dep.Label,
		FinalPrice:            dep.FinalPrice,
		PaidAmount:            dep.PaidAmount,
		RemainingAmount:       dep.RemainingAmount,
		PaymentStatus:         dep.PaymentStatus.String(),
	}
	model.FromDomainAggregateRoot(dep.BaseAggregateRoot)
	return model
}

// LedgerEntryModel is the GORM model for financial transactions.
// Target columns are nullable: donation and credit entries carry none.
type LedgerEntryModel struct {
	AggregateModel
	TargetKind            *string         `gorm:"size:20;index:idx_ledger_target"`
	TargetID              *uuid.UUID      `gorm:"type:uuid;index:idx_ledger_target"`
	PatientID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	CashierID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount                decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TransactionType       string          `gorm:"size:20;not null"`
	PaymentMethod         string          `gorm:"size:20;not null"`
	OriginalTransactionID *uuid.UUID      `gorm:"type:uuid;index"`
	RefundAuthorizationID *uuid.UUID      `gorm:"type:uuid"`
	BankAccountID         *uuid.UUID      `gorm:"type:uuid"`
	Notes                 string          `gorm:"type:text"`
}

// TableName specifies the table name
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the model to a domain LedgerEntry
func (m *LedgerEntryModel) ToDomain() *billing.LedgerEntry {
	entry := &billing.LedgerEntry{
		PatientID:             m.PatientID,
		CashierID:             m.CashierID,
		Amount:                m.Amount,
		Type:                  billing.TransactionType(m.TransactionType),
		Method:                billing.PaymentMethod(m.PaymentMethod),
		OriginalTransactionID: m.OriginalTransactionID,
		RefundAuthorizationID: m.RefundAuthorizationID,
		BankAccountID:         m.BankAccountID,
		Notes:                 m.Notes,
	}
	if m.TargetKind != nil && m.TargetID != nil {
		entry.Target = &billing.TargetRef{
			Kind: billing.TargetKind(*m.TargetKind),
			ID:   *m.TargetID,
		}
	}
	m.PopulateAggregateRoot(&entry.BaseAggregateRoot)
	return entry
}

// LedgerEntryModelFromDomain converts a domain LedgerEntry to the model
func LedgerEntryModelFromDomain(entry *billing.LedgerEntry) *LedgerEntryModel {
	model := &LedgerEntryModel{
		PatientID:             entry.PatientID,
		CashierID:             entry.CashierID,
		Amount:                entry.Amount,
		TransactionType:       entry.Type.String(),
		PaymentMethod:         entry.Method.String(),
		OriginalTransactionID: entry.OriginalTransactionID,
		RefundAuthorizationID: entry.RefundAuthorizationID,
		BankAccountID:         entry.BankAccountID,
		Notes:                 entry.Notes,
	}
	if entry.Target != nil {
		kind := entry.Target.Kind.String()
		id := entry.Target.ID
		model.TargetKind = &kind
		model.TargetID = &id
	}
	model.FromDomainAggregateRoot(entry.BaseAggregateRoot)
	return model
}

// RefundAuthorizationModel is the GORM model for refund pre-approvals
type RefundAuthorizationModel struct {
	AggregateModel
	ItemID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	RequestedAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	AuthorizedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status           string          `gorm:"size:20;not null;index"`
	Reason           string          `gorm:"type:text"`
	ApprovedAt       *time.Time
	UsedAt           *time.Time
}

// TableName specifies the table name
func (RefundAuthorizationModel) TableName() string {
	return "refund_authorizations"
}

// ToDomain converts the model to a domain RefundAuthorization
func (m *RefundAuthorizationModel) ToDomain() *billing.RefundAuthorization {
	auth := &billing.RefundAuthorization{
		ItemID:           m.ItemID,
		RequestedAmount:  m.RequestedAmount,
		AuthorizedAmount: m.AuthorizedAmount,
		Status:           billing.RefundAuthorizationStatus(m.Status),
		Reason:           m.Reason,
		ApprovedAt:       m.ApprovedAt,
		UsedAt:           m.UsedAt,
	}
	m.PopulateAggregateRoot(&auth.BaseAggregateRoot)
	return auth
}

// RefundAuthorizationModelFromDomain converts a domain RefundAuthorization to the model
func RefundAuthorizationModelFromDomain(auth *billing.RefundAuthorization) *RefundAuthorizationModel {
	model := &RefundAuthorizationModel{
		ItemID:           auth.ItemID,
		RequestedAmount:  auth.RequestedAmount,
		AuthorizedAmount: auth.AuthorizedAmount,
		Status:           auth.Status.String(),
		Reason:           auth.Reason,
		ApprovedAt:       auth.ApprovedAt,
		UsedAt:           auth.UsedAt,
	}
	model.FromDomainAggregateRoot(auth.BaseAggregateRoot)
	return model
}
