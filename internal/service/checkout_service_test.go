package service

import (
	"context"
	"errors"
	"testing"

	"shop-backend/internal/models"
	"shop-backend/internal/store"
	"shop-backend/internal/stripe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCheckoutStore struct {
	orders    map[string]*models.Order
	sessionID string
}

func (f *fakeCheckoutStore) GetOrder(_ context.Context, id string) (*models.Order, error) {
	if o, ok := f.orders[id]; ok {
		return o, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeCheckoutStore) SetOrderSessionID(_ context.Context, orderID, sessionID string) error {
	f.sessionID = sessionID
	return nil
}

type fakeProvider struct {
	params    *stripe.CheckoutSessionParams
	createErr error
	session   *stripe.CheckoutSession
	intent    *stripe.PaymentIntent
	charge    *stripe.Charge
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.params = params
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.session, nil
}

func (f *fakeProvider) GetCheckoutSession(_ context.Context, _ string) (*stripe.CheckoutSession, error) {
	return f.session, nil
}

func (f *fakeProvider) GetPaymentIntent(_ context.Context, _ string) (*stripe.PaymentIntent, error) {
	return f.intent, nil
}

func (f *fakeProvider) GetCharge(_ context.Context, _ string) (*stripe.Charge, error) {
	return f.charge, nil
}

func testOrder() *models.Order {
	return &models.Order{
		ID:            "ord-1",
		OrderNumber:   "ORD-20260314-ABCDEF01",
		CustomerEmail: "a@b.com",
		CustomerName:  "Ana",
		Subtotal:      2000,
		TaxAmount:     420,
		TotalAmount:   2420,
		Currency:      "RON",
		PaymentStatus: models.PaymentStatusPending,
	}
}

func TestCreateSession(t *testing.T) {
	st := &fakeCheckoutStore{orders: map[string]*models.Order{"ord-1": testOrder()}}
	provider := &fakeProvider{session: &stripe.CheckoutSession{ID: "cs_123", URL: "https://pay.example/cs_123"}}
	svc := NewCheckoutService(st, provider, Pricing{TaxRatePercent: 21}, "https://shop.example/ok", "https://shop.example/cancel")

	result, err := svc.CreateSession(context.Background(), "ord-1")
	require.NoError(t, err)

	assert.Equal(t, "https://pay.example/cs_123", result.URL)
	assert.Equal(t, "cs_123", result.SessionID)
	assert.Equal(t, int64(2000), result.TaxBreakdown.Subtotal)
	assert.Equal(t, int64(420), result.TaxBreakdown.TaxAmount)
	assert.Equal(t, int64(2420), result.TaxBreakdown.Total)
	assert.InDelta(t, 0.21, result.TaxBreakdown.TaxRate, 1e-9)

	// The correlation id rides in the session metadata; the webhook depends
	// on it to find the order again.
	require.NotNil(t, provider.params)
	assert.Equal(t, "ord-1", provider.params.Metadata["order_id"])
	assert.Equal(t, "2420", provider.params.Metadata["total_amount"])
	assert.Equal(t, int64(2420), provider.params.AmountTotal)
	assert.Equal(t, "a@b.com", provider.params.CustomerEmail)

	// The session id is persisted for the success-page lookup.
	assert.Equal(t, "cs_123", st.sessionID)
}

func TestCreateSessionOrderMissing(t *testing.T) {
	st := &fakeCheckoutStore{orders: map[string]*models.Order{}}
	svc := NewCheckoutService(st, &fakeProvider{}, Pricing{TaxRatePercent: 21}, "", "")

	_, err := svc.CreateSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateSessionProviderDown(t *testing.T) {
	st := &fakeCheckoutStore{orders: map[string]*models.Order{"ord-1": testOrder()}}
	provider := &fakeProvider{createErr: errors.New("503 service unavailable")}
	svc := NewCheckoutService(st, provider, Pricing{TaxRatePercent: 21}, "", "")

	_, err := svc.CreateSession(context.Background(), "ord-1")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestGetSessionDetailsPaid(t *testing.T) {
	provider := &fakeProvider{
		session: &stripe.CheckoutSession{
			ID:            "cs_123",
			PaymentStatus: "paid",
			PaymentIntent: "pi_9",
			AmountTotal:   2420,
			Currency:      "ron",
		},
		intent: &stripe.PaymentIntent{ID: "pi_9", LatestCharge: "ch_1"},
		charge: &stripe.Charge{ID: "ch_1", ReceiptURL: "https://pay.example/receipt/ch_1"},
	}
	svc := NewCheckoutService(&fakeCheckoutStore{}, provider, Pricing{TaxRatePercent: 21}, "", "")

	details, err := svc.GetSessionDetails(context.Background(), "cs_123")
	require.NoError(t, err)

	assert.Equal(t, "paid", details.Status)
	assert.Equal(t, int64(2420), details.Amount)
	assert.Equal(t, "https://pay.example/receipt/ch_1", details.ReceiptURL)
}

func TestGetSessionDetailsUnpaid(t *testing.T) {
	provider := &fakeProvider{
		session: &stripe.CheckoutSession{ID: "cs_123", PaymentStatus: "unpaid"},
	}
	svc := NewCheckoutService(&fakeCheckoutStore{}, provider, Pricing{TaxRatePercent: 21}, "", "")

	details, err := svc.GetSessionDetails(context.Background(), "cs_123")
	require.NoError(t, err)

	assert.Equal(t, "unpaid", details.Status)
	assert.Empty(t, details.ReceiptURL)
}
