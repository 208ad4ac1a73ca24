package service

import (
	"context"
	"errors"
	"time"

	"shop-backend/internal/models"
	"shop-backend/internal/store"
	"shop-backend/internal/stripe"
	"shop-backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcilerStore is the persistence surface the reconciler needs.
type ReconcilerStore interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	MarkOrderPaid(ctx context.Context, orderID, sessionID, paymentIntentID, receiptURL string) error
	MarkOrderPaymentFailed(ctx context.Context, orderID, sessionID string) error
}

// ReceiptFetcher follows a payment intent to its latest charge.
type ReceiptFetcher interface {
	GetPaymentIntent(ctx context.Context, intentID string) (*stripe.PaymentIntent, error)
	GetCharge(ctx context.Context, chargeID string) (*stripe.Charge, error)
}

// ReconcilerEventPublisher publishes reconciliation outcomes.
type ReconcilerEventPublisher interface {
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishOrderPaymentFailed(ctx context.Context, event *models.OrderPaymentFailedEvent) error
}

// Reconciler consumes asynchronous provider events and mutates order payment
// and fulfillment status. Mutations are last-write-wins, so replaying an event
// leaves the order in the same terminal state.
type Reconciler struct {
	store     ReconcilerStore
	provider  ReceiptFetcher
	publisher ReconcilerEventPublisher
	logger    *zap.Logger

	// lookupAttempts bounds the retry-on-miss loop for events that arrive
	// before the order row is visible.
	lookupAttempts int
	lookupBackoff  time.Duration
}

// NewReconciler creates a webhook reconciler
func NewReconciler(st ReconcilerStore, provider ReceiptFetcher, publisher ReconcilerEventPublisher) *Reconciler {
	return &Reconciler{
		store:          st,
		provider:       provider,
		publisher:      publisher,
		logger:         util.GetLogger(),
		lookupAttempts: 3,
		lookupBackoff:  200 * time.Millisecond,
	}
}

// HandleEvent applies one verified provider event. Unknown event types are
// acknowledged and ignored.
func (r *Reconciler) HandleEvent(ctx context.Context, event *stripe.Event) error {
	ctx, span := util.StartSpan(ctx, "Reconciler.HandleEvent")
	defer span.End()

	start := time.Now()
	defer func() {
		util.WebhookHandleLatency.Observe(time.Since(start).Seconds())
	}()

	switch event.Type {
	case stripe.EventCheckoutSessionCompleted:
		return r.handleSessionCompleted(ctx, event)
	case stripe.EventPaymentIntentFailed:
		return r.handlePaymentFailed(ctx, event)
	default:
		util.WebhookEventsTotal.WithLabelValues(event.Type, "ignored").Inc()
		return nil
	}
}

func (r *Reconciler) handleSessionCompleted(ctx context.Context, event *stripe.Event) error {
	obj, err := event.Object()
	if err != nil {
		util.WebhookEventsTotal.WithLabelValues(event.Type, "malformed").Inc()
		return err
	}

	order, ok := r.lookupOrder(ctx, event.Type, obj)
	if !ok {
		return nil
	}

	if obj.AmountTotal != 0 && obj.AmountTotal != order.TotalAmount {
		// Mismatched amounts are logged, not enforced.
		r.logger.Warn("Webhook amount differs from order total",
			zap.String("order_id", order.ID),
			zap.Int64("event_amount", obj.AmountTotal),
			zap.Int64("order_total", order.TotalAmount))
	}

	receiptURL := r.fetchReceiptURL(ctx, obj.PaymentIntent)

	if err := r.store.MarkOrderPaid(ctx, order.ID, obj.ID, obj.PaymentIntent, receiptURL); err != nil {
		util.WebhookEventsTotal.WithLabelValues(event.Type, "error").Inc()
		return err
	}

	util.WebhookEventsTotal.WithLabelValues(event.Type, "applied").Inc()
	util.OrdersPaidTotal.Inc()
	r.logger.Info("Order reconciled as paid",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("session_id", obj.ID))

	if r.publisher != nil {
		paidEvent := &models.OrderPaidEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderPaid,
				Timestamp: time.Now(),
			},
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			CustomerEmail: order.CustomerEmail,
			TotalAmount:   order.TotalAmount,
			ReceiptURL:    receiptURL,
		}
		if err := r.publisher.PublishOrderPaid(ctx, paidEvent); err != nil {
			r.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
		}
	}

	return nil
}

func (r *Reconciler) handlePaymentFailed(ctx context.Context, event *stripe.Event) error {
	obj, err := event.Object()
	if err != nil {
		util.WebhookEventsTotal.WithLabelValues(event.Type, "malformed").Inc()
		return err
	}

	order, ok := r.lookupOrder(ctx, event.Type, obj)
	if !ok {
		return nil
	}

	if err := r.store.MarkOrderPaymentFailed(ctx, order.ID, obj.ID); err != nil {
		util.WebhookEventsTotal.WithLabelValues(event.Type, "error").Inc()
		return err
	}

	util.WebhookEventsTotal.WithLabelValues(event.Type, "applied").Inc()
	r.logger.Info("Order reconciled as payment failed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber))

	if r.publisher != nil {
		failedEvent := &models.OrderPaymentFailedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderPaymentFailed,
				Timestamp: time.Now(),
			},
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			CustomerEmail: order.CustomerEmail,
			Reason:        "payment_failed",
		}
		if err := r.publisher.PublishOrderPaymentFailed(ctx, failedEvent); err != nil {
			r.logger.Error("Failed to publish OrderPaymentFailed event", zap.Error(err))
		}
	}

	return nil
}

// lookupOrder resolves the correlation identifier from event metadata to an
// order, retrying briefly in case the event outran the creating transaction.
// Events that still cannot be matched are logged and dropped.
func (r *Reconciler) lookupOrder(ctx context.Context, eventType string, obj *stripe.EventObject) (*models.Order, bool) {
	orderID := obj.Metadata["order_id"]
	if orderID == "" {
		util.WebhookEventsTotal.WithLabelValues(eventType, "dropped").Inc()
		r.logger.Warn("Webhook event without order correlation id",
			zap.String("event_type", eventType),
			zap.String("session_id", obj.ID))
		return nil, false
	}

	for attempt := 1; ; attempt++ {
		order, err := r.store.GetOrder(ctx, orderID)
		if err == nil {
			return order, true
		}
		if !errors.Is(err, store.ErrNotFound) {
			util.WebhookEventsTotal.WithLabelValues(eventType, "error").Inc()
			r.logger.Error("Order lookup failed",
				zap.String("order_id", orderID), zap.Error(err))
			return nil, false
		}
		if attempt >= r.lookupAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(time.Duration(attempt) * r.lookupBackoff):
		}
	}

	util.WebhookEventsTotal.WithLabelValues(eventType, "dropped").Inc()
	r.logger.Warn("Webhook event for unknown order dropped",
		zap.String("event_type", eventType),
		zap.String("order_id", orderID))
	return nil, false
}

// fetchReceiptURL follows the payment intent to its latest charge. A failed
// round trip costs only the receipt URL, never the reconciliation.
func (r *Reconciler) fetchReceiptURL(ctx context.Context, intentID string) string {
	if intentID == "" || r.provider == nil {
		return ""
	}

	intent, err := r.provider.GetPaymentIntent(ctx, intentID)
	if err != nil {
		r.logger.Warn("Failed to fetch payment intent for receipt",
			zap.String("intent_id", intentID), zap.Error(err))
		return ""
	}
	if intent.LatestCharge == "" {
		return ""
	}

	charge, err := r.provider.GetCharge(ctx, intent.LatestCharge)
	if err != nil {
		r.logger.Warn("Failed to fetch charge for receipt",
			zap.String("charge_id", intent.LatestCharge), zap.Error(err))
		return ""
	}

	return charge.ReceiptURL
}
