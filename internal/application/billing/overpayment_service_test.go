package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func overpaymentRequest(f *resolutionFixture, required, paid int64, action OverpaymentAction) OverpaymentRequest {
	return OverpaymentRequest{
		Target:         TargetSelector{FicheNavetteItemID: &f.item.ID},
		RequiredAmount: decimal.NewFromInt(required),
		PaidAmount:     decimal.NewFromInt(paid),
		Method:         billing.PaymentMethodCash,
		CashierID:      uuid.New(),
		Action:         action,
	}
}

func TestOverpaymentService_Donate(t *testing.T) {
	ctx := context.Background()
	f := newResolutionFixture(t)
	service := NewOverpaymentService(memUnitOfWork{f.store})

	// Item's final price is 3000; pay 3000 against a required 2950.
	result, err := service.Handle(ctx, overpaymentRequest(f, 2950, 3000, OverpaymentActionDonate))
	require.NoError(t, err)

	assert.True(t, result.ExcessAmount.Equal(decimal.NewFromInt(50)))
	assert.True(t, result.PaymentEntry.Amount.Equal(decimal.NewFromInt(3000)),
		"the ledger records the full cash received")

	require.NotNil(t, result.DispositionEntry)
	assert.Equal(t, billing.TransactionTypeDonation, result.DispositionEntry.Type)
	assert.Nil(t, result.DispositionEntry.Target, "donation entries carry no target reference")
	assert.True(t, result.DispositionEntry.Amount.Equal(decimal.NewFromInt(50)))

	stored := f.store.items[f.item.ID]
	assert.True(t, stored.PaidAmount.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, billing.PaymentStatusPaid, stored.PaymentStatus)
}

func TestOverpaymentService_PaymentCappedAtFinalPrice(t *testing.T) {
	ctx := context.Background()
	f := newResolutionFixture(t)
	service := NewOverpaymentService(memUnitOfWork{f.store})

	// Pay 3500 against the 3000 charge; the clamp caps the cached paid
	// amount at the final price while the ledger keeps the full 3500.
	result, err := service.Handle(ctx, overpaymentRequest(f, 3000, 3500, OverpaymentActionDonate))
	require.NoError(t, err)

	stored := f.store.items[f.item.ID]
	assert.True(t, stored.PaidAmount.Equal(decimal.NewFromInt(3000)))
	assert.True(t, stored.RemainingAmount.IsZero())
	assert.True(t, result.PaymentEntry.Amount.Equal(decimal.NewFromInt(3500)))
	assert.True(t, result.DispositionEntry.Amount.Equal(decimal.NewFromInt(500)))
}

func TestOverpaymentService_CreditToPatientBalance(t *testing.T) {
	ctx := context.Background()
	f := newResolutionFixture(t)
	service := NewOverpaymentService(memUnitOfWork{f.store})

	result, err := service.Handle(ctx, overpaymentRequest(f, 2800, 3000, OverpaymentActionBalance))
	require.NoError(t, err)

	assert.Equal(t, billing.TransactionTypeCredit, result.DispositionEntry.Type)
	assert.Nil(t, result.DispositionEntry.Target)

	stored := f.store.patients[f.patient.ID]
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(200)),
		"excess lands on the patient's standing balance")
}

func TestOverpaymentService_Failures(t *testing.T) {
	ctx := context.Background()
	f := newResolutionFixture(t)
	service := NewOverpaymentService(memUnitOfWork{f.store})

	t.Run("no overpayment", func(t *testing.T) {
		_, err := service.Handle(ctx, overpaymentRequest(f, 3000, 3000, OverpaymentActionDonate))
		assert.ErrorIs(t, err, billing.ErrNoOverpayment)

		_, err = service.Handle(ctx, overpaymentRequest(f, 3000, 2000, OverpaymentActionDonate))
		assert.ErrorIs(t, err, billing.ErrNoOverpayment)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := service.Handle(ctx, overpaymentRequest(f, 2000, 3000, OverpaymentAction("KEEP")))
		assert.ErrorIs(t, err, billing.ErrInvalidAction)
	})

	t.Run("nothing committed on failure", func(t *testing.T) {
		assert.Empty(t, f.store.entries)
		assert.True(t, f.store.items[f.item.ID].PaidAmount.IsZero())
	})
}
