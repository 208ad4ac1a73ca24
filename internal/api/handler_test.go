package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop-backend/internal/auth"
	"shop-backend/internal/models"
	"shop-backend/internal/service"
	"shop-backend/internal/store"
	"shop-backend/internal/stripe"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test"

type memReconStore struct {
	orders map[string]*models.Order
	paid   []string
}

func (m *memReconStore) GetOrder(_ context.Context, id string) (*models.Order, error) {
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return nil, store.ErrNotFound
}

func (m *memReconStore) MarkOrderPaid(_ context.Context, orderID, _, _, _ string) error {
	m.paid = append(m.paid, orderID)
	return nil
}

func (m *memReconStore) MarkOrderPaymentFailed(_ context.Context, orderID, _ string) error {
	return nil
}

func newTestRouter(t *testing.T, reconStore *memReconStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewTokens("test-secret", 30*time.Minute)
	require.NoError(t, err)

	handler := NewHandler(
		nil, nil, nil, nil, nil, nil,
		service.NewReconciler(reconStore, nil, nil),
		tokens,
		webhookSecret,
	)

	router := gin.New()
	handler.SetupRoutes(router)
	return router
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, &memReconStore{})

	for _, path := range []string{"/health", "/ready"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestWebhookValidSignature(t *testing.T) {
	reconStore := &memReconStore{orders: map[string]*models.Order{
		"ord-1": {ID: "ord-1", TotalAmount: 2420},
	}}
	router := newTestRouter(t, reconStore)

	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_123", "amount_total": 2420, "metadata": {"order_id": "ord-1"}}}
	}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripe.SignPayload(payload, webhookSecret, time.Now()))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"ord-1"}, reconStore.paid)
}

func TestWebhookBadSignature(t *testing.T) {
	reconStore := &memReconStore{orders: map[string]*models.Order{}}
	router := newTestRouter(t, reconStore)

	payload := []byte(`{"id": "evt_1", "type": "checkout.session.completed", "data": {"object": {}}}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", stripe.SignPayload(payload, "whsec_wrong", time.Now()))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, reconStore.paid)
}

func TestWebhookMissingSignature(t *testing.T) {
	router := newTestRouter(t, &memReconStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader([]byte("{}")))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	router := newTestRouter(t, &memReconStore{})

	// No token.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminMiddlewareRejectsCustomer(t *testing.T) {
	router := newTestRouter(t, &memReconStore{})

	tokens, err := auth.NewTokens("test-secret", 30*time.Minute)
	require.NoError(t, err)
	token, err := tokens.Issue("ana@example.com", models.RoleCustomer)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
