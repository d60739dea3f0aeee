package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/caisse"
	"github.com/shopspring/decimal"
)

// TransferModel is the GORM model for cash drawer transfers
type TransferModel struct {
	AggregateModel
	CaisseID       uuid.UUID        `gorm:"type:uuid;not null;index:idx_transfer_pair"`
	SessionID      uuid.UUID        `gorm:"type:uuid;not null;index:idx_transfer_pair"`
	FromCashierID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	ToCashierID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	AmountSent     decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	AmountReceived *decimal.Decimal `gorm:"type:decimal(18,2)"`
	Status         string           `gorm:"size:20;not null;index"`
	Token          string           `gorm:"size:64;not null;uniqueIndex"`
	TokenExpiresAt time.Time        `gorm:"not null;index"`
	Notes          string           `gorm:"type:text"`
	SupersededBy   *uuid.UUID       `gorm:"type:uuid"`
	AcceptedAt     *time.Time
	RejectedAt     *time.Time
}

// TableName specifies the table name
func (TransferModel) TableName() string {
	return "caisse_transfers"
}

// ToDomain converts the model to a domain Transfer
func (m *TransferModel) ToDomain() *caisse.Transfer {
	t := &caisse.Transfer{
		CaisseID:       m.CaisseID,
		SessionID:      m.SessionID,
		FromCashierID:  m.FromCashierID,
		ToCashierID:    m.ToCashierID,
		AmountSent:     m.AmountSent,
		AmountReceived: m.AmountReceived,
		Status:         caisse.TransferStatus(m.Status),
		Token:          m.Token,
		TokenExpiresAt: m.TokenExpiresAt,
		Notes:          m.Notes,
		SupersededBy:   m.SupersededBy,
		AcceptedAt:     m.AcceptedAt,
		RejectedAt:     m.RejectedAt,
	}
	m.PopulateAggregateRoot(&t.BaseAggregateRoot)
	return t
}

// TransferModelFromDomain converts a domain Transfer to the model
func TransferModelFromDomain(t *caisse.Transfer) *TransferModel {
	model := &TransferModel{
		CaisseID:       t.CaisseID,
		SessionID:      t.SessionID,
		FromCashierID:  t.FromCashierID,
		ToCashierID:    t.ToCashierID,
		AmountSent:     t.AmountSent,
		AmountReceived: t.AmountReceived,
		Status:         t.Status.String(),
		Token:          t.Token,
		TokenExpiresAt: t.TokenExpiresAt,
		Notes:          t.Notes,
		SupersededBy:   t.SupersededBy,
		AcceptedAt:     t.AcceptedAt,
		RejectedAt:     t.RejectedAt,
	}
	model.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return model
}
