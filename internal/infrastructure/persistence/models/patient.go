package models

import (
	"github.com/hms/backend/internal/domain/patient"
	"github.com/shopspring/decimal"
)

// PatientModel is the GORM model for patients
type PatientModel struct {
	AggregateModel
	FirstName string          `gorm:"size:100"`
	LastName  string          `gorm:"size:100"`
	Balance   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName specifies the table name
func (PatientModel) TableName() string {
	return "patients"
}

// ToDomain converts the model to a domain Patient
func (m *PatientModel) ToDomain() *patient.Patient {
	p := &patient.Patient{
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Balance:   m.Balance,
	}
	m.PopulateAggregateRoot(&p.BaseAggregateRoot)
	return p
}

// PatientModelFromDomain converts a domain Patient to the model
func PatientModelFromDomain(p *patient.Patient) *PatientModel {
	model := &PatientModel{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Balance:   p.Balance,
	}
	model.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return model
}
