package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/patient"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allocationFixture struct {
	store   *memStore
	service *AllocationService
	patient *patient.Patient
	// unpaid, partial and paid are three items with final price 100 each;
	// partial has 50 already paid, paid is settled in full
	unpaid  *billing.FicheNavetteItem
	partial *billing.FicheNavetteItem
	paid    *billing.FicheNavetteItem
}

func newAllocationFixture(t *testing.T) *allocationFixture {
	store := newMemStore()

	p, err := patient.NewPatient("Karim", "Haddad")
	require.NoError(t, err)
	store.putPatient(p)

	ficheID := uuid.New()
	makeItem := func(label string, prepaid int64) *billing.FicheNavetteItem {
		item, err := billing.NewFicheNavetteItem(ficheID, p.ID, nil, label, decimal.NewFromInt(100))
		require.NoError(t, err)
		if prepaid > 0 {
			item.RecomputeBalance(decimal.NewFromInt(prepaid))
		}
		store.putItem(item)
		return item
	}

	return &allocationFixture{
		store:   store,
		service: NewAllocationService(memUnitOfWork{store}, nil),
		patient: p,
		unpaid:  makeItem("Radio", 0),
		partial: makeItem("Analyse", 50),
		paid:    makeItem("Consultation", 100),
	}
}

func (f *allocationFixture) request(total int64, items ...*billing.FicheNavetteItem) AllocateRequest {
	req := AllocateRequest{
		TotalAmount: decimal.NewFromInt(total),
		PatientID:   f.patient.ID,
		CashierID:   uuid.New(),
		Method:      billing.PaymentMethodCash,
	}
	for _, item := range items {
		id := item.ID
		stored := f.store.items[id]
		req.Items = append(req.Items, AllocationItem{
			Target: TargetSelector{FicheNavetteItemID: &id},
			Amount: stored.RemainingAmount,
		})
	}
	return req
}

func TestAllocationService_PriorityOrder(t *testing.T) {
	ctx := context.Background()
	f := newAllocationFixture(t)

	// Input order deliberately puts the unpaid item last; allocation must
	// still settle it first.
	req := f.request(120, f.paid, f.partial, f.unpaid)

	result, err := f.service.Allocate(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalProcessed)
	assert.True(t, result.PaymentsAmount.Equal(decimal.NewFromInt(120)))
	assert.True(t, result.RemainingAmount.IsZero())
	assert.Nil(t, result.Donation)

	unpaid := f.store.items[f.unpaid.ID]
	assert.True(t, unpaid.PaidAmount.Equal(decimal.NewFromInt(100)), "unpaid item settled in full first")

	partial := f.store.items[f.partial.ID]
	assert.True(t, partial.PaidAmount.Equal(decimal.NewFromInt(70)), "partial item gets the remaining 20")

	paid := f.store.items[f.paid.ID]
	assert.True(t, paid.PaidAmount.Equal(decimal.NewFromInt(100)), "settled item untouched")
}

func TestAllocationService_GlobalExcessIsDonated(t *testing.T) {
	ctx := context.Background()
	f := newAllocationFixture(t)

	// Outstanding totals 100 (unpaid) + 50 (partial) = 150; submit 180.
	result, err := f.service.Allocate(ctx, f.request(180, f.unpaid, f.partial))
	require.NoError(t, err)

	assert.True(t, result.PaymentsAmount.Equal(decimal.NewFromInt(150)))
	require.NotNil(t, result.Donation)
	assert.True(t, result.Donation.Amount.Equal(decimal.NewFromInt(30)))
	assert.Nil(t, result.Donation.Target)
	assert.True(t, result.AmountProcessed.Equal(decimal.NewFromInt(180)))
	assert.True(t, result.RemainingAmount.IsZero())
}

func TestAllocationService_ShortReceiptStopsEarly(t *testing.T) {
	ctx := context.Background()
	f := newAllocationFixture(t)

	result, err := f.service.Allocate(ctx, f.request(60, f.unpaid, f.partial))
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalProcessed)
	assert.True(t, f.store.items[f.unpaid.ID].PaidAmount.Equal(decimal.NewFromInt(60)))
	assert.True(t, f.store.items[f.partial.ID].PaidAmount.Equal(decimal.NewFromInt(50)), "second item untouched")
	assert.Nil(t, result.Donation)
}

func TestAllocationService_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newAllocationFixture(t)

	req := f.request(120, f.unpaid, f.partial)
	stray := uuid.New()
	req.Items = append(req.Items, AllocationItem{
		Target: TargetSelector{FicheNavetteItemID: &stray},
		Amount: decimal.NewFromInt(10),
	})

	_, err := f.service.Allocate(ctx, req)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "PARTIAL_ALLOCATION_FAILURE", domainErr.Code)

	assert.True(t, f.store.items[f.unpaid.ID].PaidAmount.IsZero(), "no payment from the failed batch survives")
	assert.Empty(t, f.store.entries)
}

func TestAllocationService_Validation(t *testing.T) {
	ctx := context.Background()
	f := newAllocationFixture(t)

	_, err := f.service.Allocate(ctx, AllocateRequest{
		TotalAmount: decimal.NewFromInt(100),
		PatientID:   f.patient.ID,
		CashierID:   uuid.New(),
		Method:      billing.PaymentMethodCash,
	})
	assert.Error(t, err, "empty item list")

	req := f.request(0, f.unpaid)
	_, err = f.service.Allocate(ctx, req)
	assert.Error(t, err, "non-positive total")
}

func TestAllocationService_RequestKey(t *testing.T) {
	ctx := context.Background()

	t.Run("retry of a committed batch is rejected", func(t *testing.T) {
		f := newAllocationFixture(t)
		idempotency := cache.NewMemoryIdempotencyStore()
		defer idempotency.Close()
		service := NewAllocationService(memUnitOfWork{f.store}, idempotency)

		req := f.request(100, f.unpaid)
		req.RequestKey = "bulk-receipt-91"

		_, err := service.Allocate(ctx, req)
		require.NoError(t, err)

		_, err = service.Allocate(ctx, req)
		assert.ErrorIs(t, err, shared.ErrDuplicateRequest)
	})

	t.Run("aborted batch frees the key for retry", func(t *testing.T) {
		f := newAllocationFixture(t)
		idempotency := cache.NewMemoryIdempotencyStore()
		defer idempotency.Close()
		service := NewAllocationService(memUnitOfWork{f.store}, idempotency)

		req := f.request(100, f.unpaid)
		req.RequestKey = "bulk-receipt-92"
		stray := uuid.New()
		req.Items = append(req.Items, AllocationItem{
			Target: TargetSelector{FicheNavetteItemID: &stray},
			Amount: decimal.NewFromInt(10),
		})

		_, err := service.Allocate(ctx, req)
		require.Error(t, err)
		require.NotErrorIs(t, err, shared.ErrDuplicateRequest)
		assert.Empty(t, f.store.entries)

		// The rolled-back batch left nothing behind; the corrected retry
		// with the same receipt must be accepted.
		retry := f.request(100, f.unpaid)
		retry.RequestKey = "bulk-receipt-92"
		result, err := service.Allocate(ctx, retry)
		require.NoError(t, err)
		assert.Equal(t, 1, result.TotalProcessed)
	})
}
