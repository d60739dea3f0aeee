package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefundAuthorizationHandler_Request(t *testing.T) {
	env := setupBillingEnv(t)

	t.Run("creates a pending authorization", func(t *testing.T) {
		item := env.seedItem(t, uuid.New(), 5000)

		w := env.postJSON(t, "/api/v1/refund-authorizations", gin.H{
			"fiche_navette_item_id": item.ID.String(),
			"requested_amount":      800.0,
			"reason":                "Cancelled consultation",
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "PENDING", data["status"])
		assert.Equal(t, "800", data["requested_amount"])
	})

	t.Run("unknown item yields 404", func(t *testing.T) {
		w := env.postJSON(t, "/api/v1/refund-authorizations", gin.H{
			"fiche_navette_item_id": uuid.New().String(),
			"requested_amount":      800.0,
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "TARGET_NOT_FOUND", resp.Error.Code)
	})

	t.Run("rejects a malformed payload", func(t *testing.T) {
		w := env.postJSON(t, "/api/v1/refund-authorizations", gin.H{
			"fiche_navette_item_id": "not-a-uuid",
			"requested_amount":      800.0,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRefundAuthorizationHandler_Lifecycle(t *testing.T) {
	env := setupBillingEnv(t)
	cashierID := uuid.New()
	item := env.seedItem(t, uuid.New(), 5000)

	w := env.postJSON(t, "/api/v1/transactions", gin.H{
		"target":           gin.H{"fiche_navette_item_id": item.ID.String()},
		"amount":           2000.0,
		"transaction_type": "PAYMENT",
		"payment_method":   "CASH",
		"cashier_id":       cashierID.String(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.postJSON(t, "/api/v1/refund-authorizations", gin.H{
		"fiche_navette_item_id": item.ID.String(),
		"requested_amount":      1000.0,
		"reason":                "Overcharged",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	authID := decodeResponse(t, w).Data.(map[string]interface{})["ID"].(string)

	w = env.postJSON(t, "/api/v1/refund-authorizations/"+authID+"/approve", gin.H{
		"authorized_amount": 1000.0,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "APPROVED", decodeResponse(t, w).Data.(map[string]interface{})["status"])

	w = env.postJSON(t, "/api/v1/transactions", gin.H{
		"target":                  gin.H{"fiche_navette_item_id": item.ID.String()},
		"amount":                  1000.0,
		"transaction_type":        "REFUND",
		"payment_method":          "REFUND",
		"cashier_id":              cashierID.String(),
		"refund_authorization_id": authID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.get(t, "/api/v1/refund-authorizations/"+authID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "USED", decodeResponse(t, w).Data.(map[string]interface{})["status"])
}

func TestRefundAuthorizationHandler_Reject(t *testing.T) {
	env := setupBillingEnv(t)
	item := env.seedItem(t, uuid.New(), 5000)

	w := env.postJSON(t, "/api/v1/refund-authorizations", gin.H{
		"fiche_navette_item_id": item.ID.String(),
		"requested_amount":      300.0,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	authID := decodeResponse(t, w).Data.(map[string]interface{})["ID"].(string)

	w = env.postJSON(t, "/api/v1/refund-authorizations/"+authID+"/reject", gin.H{
		"reason": "No supporting receipt",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "REJECTED", decodeResponse(t, w).Data.(map[string]interface{})["status"])

	w = env.postJSON(t, "/api/v1/refund-authorizations/"+authID+"/approve", gin.H{
		"authorized_amount": 300.0,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRefundAuthorizationHandler_Get(t *testing.T) {
	env := setupBillingEnv(t)

	w := env.get(t, "/api/v1/refund-authorizations/"+uuid.New().String())
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AUTHORIZATION_NOT_FOUND", resp.Error.Code)
}
