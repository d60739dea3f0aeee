package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestAuthorization(t *testing.T) *RefundAuthorization {
	auth, err := NewRefundAuthorization(uuid.New(), decimal.NewFromInt(100), "duplicate charge")
	require.NoError(t, err)
	return auth
}

func TestNewRefundAuthorization(t *testing.T) {
	auth := createTestAuthorization(t)
	assert.Equal(t, RefundAuthorizationStatusPending, auth.Status)
	assert.True(t, auth.AuthorizedAmount.IsZero())

	_, err := NewRefundAuthorization(uuid.Nil, decimal.NewFromInt(100), "")
	assert.Error(t, err)

	_, err = NewRefundAuthorization(uuid.New(), decimal.Zero, "")
	assert.Error(t, err)
}

func TestRefundAuthorization_Approve(t *testing.T) {
	t.Run("approves up to requested amount", func(t *testing.T) {
		auth := createTestAuthorization(t)
		require.NoError(t, auth.Approve(decimal.NewFromInt(80)))

		assert.Equal(t, RefundAuthorizationStatusApproved, auth.Status)
		assert.True(t, auth.AuthorizedAmount.Equal(decimal.NewFromInt(80)))
		assert.NotNil(t, auth.ApprovedAt)
	})

	t.Run("rejects amount above requested", func(t *testing.T) {
		auth := createTestAuthorization(t)
		assert.Error(t, auth.Approve(decimal.NewFromInt(150)))
	})

	t.Run("cannot approve twice", func(t *testing.T) {
		auth := createTestAuthorization(t)
		require.NoError(t, auth.Approve(decimal.NewFromInt(80)))
		assert.Error(t, auth.Approve(decimal.NewFromInt(50)))
	})
}

func TestRefundAuthorization_Consume(t *testing.T) {
	t.Run("approved authorization is consumed once", func(t *testing.T) {
		auth := createTestAuthorization(t)
		require.NoError(t, auth.Approve(decimal.NewFromInt(80)))

		require.NoError(t, auth.Consume(decimal.NewFromInt(80)))
		assert.Equal(t, RefundAuthorizationStatusUsed, auth.Status)
		assert.NotNil(t, auth.UsedAt)

		err := auth.Consume(decimal.NewFromInt(80))
		assert.ErrorIs(t, err, ErrAuthorizationUsed)
	})

	t.Run("pending authorization cannot be consumed", func(t *testing.T) {
		auth := createTestAuthorization(t)
		err := auth.Consume(decimal.NewFromInt(50))
		assert.ErrorIs(t, err, ErrRefundNotAuthorized)
	})

	t.Run("rejected authorization cannot be consumed", func(t *testing.T) {
		auth := createTestAuthorization(t)
		require.NoError(t, auth.Reject("not justified"))

		err := auth.Consume(decimal.NewFromInt(50))
		assert.ErrorIs(t, err, ErrRefundNotAuthorized)
	})

	t.Run("refund above authorized amount fails", func(t *testing.T) {
		auth := createTestAuthorization(t)
		require.NoError(t, auth.Approve(decimal.NewFromInt(50)))

		assert.Error(t, auth.Consume(decimal.NewFromInt(80)))
		// the failed attempt must not consume the authorization
		assert.True(t, auth.IsApproved())
	})
}

func TestRefundAuthorization_Reject(t *testing.T) {
	auth := createTestAuthorization(t)
	require.NoError(t, auth.Reject("below threshold"))
	assert.Equal(t, RefundAuthorizationStatusRejected, auth.Status)

	// terminal states cannot be re-rejected
	assert.Error(t, auth.Reject("again"))
}
