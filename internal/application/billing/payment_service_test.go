package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hms/backend/internal/domain/billing"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaymentService(store *memStore) *PaymentService {
	return NewPaymentService(memUnitOfWork{store}, nil)
}

func paymentRequest(f *resolutionFixture, amount int64) ProcessTransactionRequest {
	return ProcessTransactionRequest{
		Target:    TargetSelector{FicheNavetteItemID: &f.item.ID},
		Amount:    decimal.NewFromInt(amount),
		Type:      billing.TransactionTypePayment,
		Method:    billing.PaymentMethodCash,
		CashierID: uuid.New(),
	}
}

func TestPaymentService_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("payment updates ledger and balance together", func(t *testing.T) {
		f := newResolutionFixture(t)
		service := newPaymentService(f.store)

		result, err := service.Process(ctx, paymentRequest(f, 1000))
		require.NoError(t, err)

		assert.True(t, result.Balance.PaidAmount.Equal(decimal.NewFromInt(1000)))
		assert.True(t, result.Balance.RemainingAmount.Equal(decimal.NewFromInt(2000)))
		assert.Equal(t, billing.PaymentStatusPending, result.Balance.PaymentStatus)

		stored := f.store.items[f.item.ID]
		assert.True(t, stored.PaidAmount.Equal(decimal.NewFromInt(1000)))
		assert.Len(t, f.store.entries, 1)
	})

	t.Run("ledger conservation across a sequence of operations", func(t *testing.T) {
		f := newResolutionFixture(t)
		service := newPaymentService(f.store)

		first, err := service.Process(ctx, paymentRequest(f, 1200))
		require.NoError(t, err)
		_, err = service.Process(ctx, paymentRequest(f, 800))
		require.NoError(t, err)

		refund := paymentRequest(f, 300)
		refund.Type = billing.TransactionTypeRefund
		refund.Method = billing.PaymentMethodRefund
		refund.OriginalTransactionID = &first.Entry.ID
		_, err = service.Process(ctx, refund)
		require.NoError(t, err)

		entries, err := service.ListTargetTransactions(ctx, billing.FicheItemRef(f.item.ID))
		require.NoError(t, err)

		stored := f.store.items[f.item.ID]
		assert.True(t, billing.SumNetEffect(entries).Equal(stored.PaidAmount),
			"net ledger effect must equal the cached paid amount")
		assert.True(t, stored.PaidAmount.Equal(decimal.NewFromInt(1700)))
	})

	t.Run("payment against a dependency touches only the dependency", func(t *testing.T) {
		f := newResolutionFixture(t)
		service := newPaymentService(f.store)

		result, err := service.Process(ctx, ProcessTransactionRequest{
			Target:    TargetSelector{ItemDependencyID: &f.dep.ID},
			Amount:    decimal.NewFromInt(500),
			Type:      billing.TransactionTypePayment,
			Method:    billing.PaymentMethodCash,
			CashierID: uuid.New(),
		})
		require.NoError(t, err)

		assert.Equal(t, billing.PaymentStatusPaid, result.Balance.PaymentStatus)
		assert.True(t, f.store.items[f.item.ID].PaidAmount.IsZero())
		assert.Equal(t, f.patient.ID, result.Entry.PatientID)
	})

	t.Run("validation failures reject before any state change", func(t *testing.T) {
		f := newResolutionFixture(t)
		service := newPaymentService(f.store)

		req := paymentRequest(f, 0)
		_, err := service.Process(ctx, req)
		assert.Error(t, err)

		req = paymentRequest(f, 100)
		req.Type = billing.TransactionTypeDonation
		_, err = service.Process(ctx, req)
		assert.Error(t, err)

		assert.Empty(t, f.store.entries)
	})
}

func TestPaymentService_Atomicity(t *testing.T) {
	ctx := context.Background()
	f := newResolutionFixture(t)
	service := newPaymentService(f.store)

	before := f.store.items[f.item.ID]
	f.store.failLedgerCreate = errors.New("disk full")

	_, err := service.Process(ctx, paymentRequest(f, 1000))
	require.Error(t, err)

	after := f.store.items[f.item.ID]
	assert.True(t, after.PaidAmount.Equal(before.PaidAmount), "balance unchanged after failed attempt")
	assert.Empty(t, f.store.entries, "no ledger entry survives a failed attempt")
}

func TestPaymentService_Refunds(t *testing.T) {
	ctx := context.Background()

	refundOf := func(f *resolutionFixture, originalID uuid.UUID, amount int64) ProcessTransactionRequest {
		req := paymentRequest(f, amount)
		req.Type = billing.TransactionTypeRefund
		req.Method = billing.PaymentMethodRefund
		req.OriginalTransactionID = &originalID
		return req
	}

	t.Run("successive refunds walk the paid amount down", func(t *testing.T) {
		f := newResolutionFixture(t)
		service := newPaymentService(f.store)

		payment, err := service.Process(ctx, paymentRequest(f, 100))
		require.NoError(t, err)

		result, err := service.Process(ctx, refundOf(f, payment.Entry.ID, 30))
		require.NoError(t, err)
		assert.True(t, result.Balance.PaidAmount.Equal(decimal.NewFromInt(70)))

		result, err = service.Process(ctx, refundOf(f, payment.Entry.ID, 30))
		require.NoError(t, err)
		assert.True(t, result.Balance.PaidAmount.Equal(decimal.NewFromInt(40)))
	})

	t.Run("negative refund amounts are normalized", func(t *testing.T) {
		f := newResolutionFixture(t)
		service := newPaymentService(f.store)

		payment, err := service.Process(ctx, paymentRequest(f, 100))
		require.NoError(t, err)

		result, err := service.Process(ctx, refundOf(f, payment.Entry.ID, -30))
		require.NoError(t, err)
		assert.True(t, result.Entry.Amount.Equal(decimal.NewFromInt(30)))
		assert.True(t, result.Balance.PaidAmount.Equal(decimal.NewFromInt(70)))
	})

	t.Run("fully refunded transaction cannot be refunded again", func(t *testing.T) {
		f := newResolutionFixture(t)
		service := newPaymentService(f.store)

		payment, err := service.Process(ctx, paymentRequest(f, 100))
		require.NoError(t, err)

		_, err = service.Process(ctx, refundOf(f, payment.Entry.ID, 100))
		require.NoError(t, err)

		_, err = service.Process(ctx, refundOf(f, payment.Entry.ID, 10))
		assert.ErrorIs(t, err, billing.ErrAlreadyRefunded)
	})

	t.Run("refund cannot exceed the refundable remainder", func(t *testing.T) {
		f := newResolutionFixture(t)
		service := newPaymentService(f.store)

		payment, err := service.Process(ctx, paymentRequest(f, 100))
		require.NoError(t, err)
		_, err = service.Process(ctx, refundOf(f, payment.Entry.ID, 80))
		require.NoError(t, err)

		_, err = service.Process(ctx, refundOf(f, payment.Entry.ID, 30))
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EXCEEDS_REFUNDABLE", domainErr.Code)
	})

	t.Run("refund without link or authorization is rejected", func(t *testing.T) {
		f := newResolutionFixture(t)
		service := newPaymentService(f.store)

		_, err := service.Process(ctx, paymentRequest(f, 100))
		require.NoError(t, err)

		req := paymentRequest(f, 30)
		req.Type = billing.TransactionTypeRefund
		_, err = service.Process(ctx, req)
		assert.ErrorIs(t, err, billing.ErrRefundNotAuthorized)
	})

	t.Run("refund through an approved authorization consumes it", func(t *testing.T) {
		f := newResolutionFixture(t)
		service := newPaymentService(f.store)

		_, err := service.Process(ctx, paymentRequest(f, 1000))
		require.NoError(t, err)

		auth, err := billing.NewRefundAuthorization(f.item.ID, decimal.NewFromInt(400), "billing mistake")
		require.NoError(t, err)
		require.NoError(t, auth.Approve(decimal.NewFromInt(400)))
		f.store.putAuth(auth)

		req := paymentRequest(f, 400)
		req.Type = billing.TransactionTypeRefund
		req.Method = billing.PaymentMethodRefund
		req.RefundAuthorizationID = &auth.ID
		result, err := service.Process(ctx, req)
		require.NoError(t, err)

		assert.True(t, result.Balance.PaidAmount.Equal(decimal.NewFromInt(600)))
		stored := f.store.auths[auth.ID]
		assert.Equal(t, billing.RefundAuthorizationStatusUsed, stored.Status)

		// A second attempt through the same authorization must fail and roll back.
		_, err = service.Process(ctx, req)
		assert.ErrorIs(t, err, billing.ErrAuthorizationUsed)
		assert.True(t, f.store.items[f.item.ID].PaidAmount.Equal(decimal.NewFromInt(600)))
	})

	t.Run("both refund links at once is rejected", func(t *testing.T) {
		f := newResolutionFixture(t)
		service := newPaymentService(f.store)

		id := uuid.New()
		req := paymentRequest(f, 30)
		req.Type = billing.TransactionTypeRefund
		req.OriginalTransactionID = &id
		req.RefundAuthorizationID = &id
		_, err := service.Process(ctx, req)
		assert.Error(t, err)
	})
}

func TestPaymentService_ReverseTransaction(t *testing.T) {
	ctx := context.Background()
	f := newResolutionFixture(t)
	service := newPaymentService(f.store)

	first, err := service.Process(ctx, paymentRequest(f, 1000))
	require.NoError(t, err)
	_, err = service.Process(ctx, paymentRequest(f, 500))
	require.NoError(t, err)

	result, err := service.ReverseTransaction(ctx, first.Entry.ID)
	require.NoError(t, err)

	assert.True(t, result.Balance.PaidAmount.Equal(decimal.NewFromInt(500)),
		"balance resummed from the remaining entries")
	assert.Len(t, f.store.entries, 1)

	var sawReversed bool
	for _, e := range result.Entry.GetDomainEvents() {
		if e.EventType() == billing.EventTypeLedgerEntryReversed {
			sawReversed = true
		}
	}
	assert.True(t, sawReversed, "reversal records a ledger entry reversed event")

	_, err = service.ReverseTransaction(ctx, uuid.New())
	assert.Error(t, err)
}

func TestPaymentService_RequestKey(t *testing.T) {
	ctx := context.Background()

	t.Run("retry of a committed request is rejected", func(t *testing.T) {
		f := newResolutionFixture(t)
		store := cache.NewMemoryIdempotencyStore()
		defer store.Close()
		service := NewPaymentService(memUnitOfWork{f.store}, store)

		req := paymentRequest(f, 100)
		req.RequestKey = "receipt-7431"

		_, err := service.Process(ctx, req)
		require.NoError(t, err)

		_, err = service.Process(ctx, req)
		assert.ErrorIs(t, err, shared.ErrDuplicateRequest)
		assert.Len(t, f.store.entries, 1)
	})

	t.Run("failed transaction frees the key for retry", func(t *testing.T) {
		f := newResolutionFixture(t)
		store := cache.NewMemoryIdempotencyStore()
		defer store.Close()
		service := NewPaymentService(memUnitOfWork{f.store}, store)

		req := paymentRequest(f, 100)
		req.RequestKey = "receipt-7432"

		f.store.failLedgerCreate = errors.New("connection reset")
		_, err := service.Process(ctx, req)
		require.Error(t, err)
		require.NotErrorIs(t, err, shared.ErrDuplicateRequest)
		assert.Empty(t, f.store.entries)

		// Nothing was committed, so the same receipt must go through now.
		result, err := service.Process(ctx, req)
		require.NoError(t, err)
		assert.True(t, result.Balance.PaidAmount.Equal(decimal.NewFromInt(100)))
		assert.Len(t, f.store.entries, 1)
	})
}
