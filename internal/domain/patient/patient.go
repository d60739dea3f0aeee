package patient

import (
	"fmt"
	"time"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Patient represents a patient with a standing credit balance. The balance is
// increased when an overpayment is converted to credit and decreased when the
// credit is applied to a later visit.
type Patient struct {
	shared.BaseAggregateRoot
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Balance   decimal.Decimal `json:"balance"`
}

// NewPatient creates a new patient with a zero credit balance
func NewPatient(firstName, lastName string) (*Patient, error) {
	if firstName == "" && lastName == "" {
		return nil, shared.NewDomainError("INVALID_PATIENT_NAME", "Patient name cannot be empty")
	}
	return &Patient{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FirstName:         firstName,
		LastName:          lastName,
		Balance:           decimal.Zero,
	}, nil
}

// AddCredit increases the patient's standing balance by a positive amount
func (p *Patient) AddCredit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	p.Balance = p.Balance.Add(amount)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// DeductCredit decreases the patient's standing balance by a positive amount
func (p *Patient) DeductCredit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Deduction amount must be positive")
	}
	if p.Balance.LessThan(amount) {
		return shared.NewDomainError("INSUFFICIENT_BALANCE",
			fmt.Sprintf("Insufficient credit: available %s, required %s", p.Balance, amount))
	}
	p.Balance = p.Balance.Sub(amount)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// FullName returns the patient's display name
func (p *Patient) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}
