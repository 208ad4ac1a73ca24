package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"shop-backend/internal/models"
	"shop-backend/internal/store"
	"shop-backend/internal/stripe"
	"shop-backend/internal/util"

	"go.uber.org/zap"
)

// CheckoutProvider is the payment-provider surface the bridge needs.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
	GetPaymentIntent(ctx context.Context, intentID string) (*stripe.PaymentIntent, error)
	GetCharge(ctx context.Context, chargeID string) (*stripe.Charge, error)
}

// CheckoutStore is the persistence surface the bridge needs.
type CheckoutStore interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	SetOrderSessionID(ctx context.Context, orderID, sessionID string) error
}

// CheckoutService translates a committed order into a provider checkout
// session. The order is always durable before the provider is contacted, so a
// webhook can never race order creation.
type CheckoutService struct {
	store      CheckoutStore
	provider   CheckoutProvider
	pricing    Pricing
	successURL string
	cancelURL  string
	logger     *zap.Logger
}

// NewCheckoutService creates a new checkout bridge
func NewCheckoutService(st CheckoutStore, provider CheckoutProvider, pricing Pricing, successURL, cancelURL string) *CheckoutService {
	return &CheckoutService{
		store:      st,
		provider:   provider,
		pricing:    pricing,
		successURL: successURL,
		cancelURL:  cancelURL,
		logger:     util.GetLogger(),
	}
}

// TaxBreakdown is returned for client display alongside the redirect URL.
type TaxBreakdown struct {
	Subtotal  int64   `json:"subtotal"`
	TaxRate   float64 `json:"tax_rate"`
	TaxAmount int64   `json:"tax_amount"`
	Total     int64   `json:"total"`
}

// CheckoutSessionResult is the bridge's response.
type CheckoutSessionResult struct {
	URL          string       `json:"url"`
	SessionID    string       `json:"session_id"`
	TaxBreakdown TaxBreakdown `json:"tax_breakdown"`
}

// SessionDetails reports the provider-side state of a checkout session.
type SessionDetails struct {
	SessionID  string `json:"session_id"`
	Status     string `json:"status"`
	ReceiptURL string `json:"receipt_url,omitempty"`
	Amount     int64  `json:"amount,omitempty"`
	Currency   string `json:"currency,omitempty"`
}

// CreateSession requests a hosted checkout session for a committed order,
// embedding the order's correlation identifier in the session metadata.
func (s *CheckoutService) CreateSession(ctx context.Context, orderID string) (*CheckoutSessionResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CreateSession")
	defer span.End()

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		AmountTotal:   order.TotalAmount,
		Currency:      order.Currency,
		ProductName:   "Order Total",
		Description:   fmt.Sprintf("%d%% tax included", s.pricing.TaxRatePercent),
		CustomerEmail: order.CustomerEmail,
		SuccessURL:    s.successURL,
		CancelURL:     s.cancelURL,
		Metadata: map[string]string{
			"order_id":       order.ID,
			"order_number":   order.OrderNumber,
			"customer_name":  order.CustomerName,
			"customer_email": order.CustomerEmail,
			"subtotal":       strconv.FormatInt(order.Subtotal, 10),
			"tax_amount":     strconv.FormatInt(order.TaxAmount, 10),
			"total_amount":   strconv.FormatInt(order.TotalAmount, 10),
		},
	}

	session, err := s.provider.CreateCheckoutSession(ctx, params)
	if err != nil {
		util.CheckoutSessionErrors.Inc()
		s.logger.Error("Failed to create checkout session",
			zap.String("order_id", order.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	util.CheckoutSessionsTotal.Inc()

	if err := s.store.SetOrderSessionID(ctx, order.ID, session.ID); err != nil {
		s.logger.Error("Failed to persist session id on order",
			zap.String("order_id", order.ID),
			zap.String("session_id", session.ID),
			zap.Error(err))
	}

	return &CheckoutSessionResult{
		URL:       session.URL,
		SessionID: session.ID,
		TaxBreakdown: TaxBreakdown{
			Subtotal:  order.Subtotal,
			TaxRate:   float64(s.pricing.TaxRatePercent) / 100,
			TaxAmount: order.TaxAmount,
			Total:     order.TotalAmount,
		},
	}, nil
}

// GetSessionDetails retrieves provider-side session state, following the
// payment intent to its latest charge for the receipt URL when paid.
func (s *CheckoutService) GetSessionDetails(ctx context.Context, sessionID string) (*SessionDetails, error) {
	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	details := &SessionDetails{
		SessionID: sessionID,
		Status:    session.PaymentStatus,
	}

	if session.PaymentStatus != "paid" || session.PaymentIntent == "" {
		return details, nil
	}

	details.Amount = session.AmountTotal
	details.Currency = session.Currency

	intent, err := s.provider.GetPaymentIntent(ctx, session.PaymentIntent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if intent.LatestCharge == "" {
		return details, nil
	}

	charge, err := s.provider.GetCharge(ctx, intent.LatestCharge)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	details.ReceiptURL = charge.ReceiptURL

	return details, nil
}
