package worker

import (
	"context"
	"fmt"

	"shop-backend/internal/broker"
	"shop-backend/internal/mail"
	"shop-backend/internal/models"
	"shop-backend/internal/util"

	"go.uber.org/zap"
)

// NotifyWorker consumes order lifecycle events and sends customer emails.
type NotifyWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	mailer       mail.Sender
	logger       *zap.Logger
}

// NewNotifyWorker creates a new notify worker
func NewNotifyWorker(consumer *broker.Consumer, mailer mail.Sender) *NotifyWorker {
	w := &NotifyWorker{
		consumer: consumer,
		mailer:   mailer,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCreated(w.handleOrderCreated)
	eventHandler.OnOrderPaid(w.handleOrderPaid)
	eventHandler.OnOrderPaymentFailed(w.handleOrderPaymentFailed)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *NotifyWorker) Start(ctx context.Context) error {
	w.logger.Info("starting notify worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotifyWorker) Stop() error {
	w.logger.Info("stopping notify worker")
	return w.consumer.Close()
}

func (w *NotifyWorker) handleOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nWe received your order %s.\n\n%s\nTotal: %s\n\n"+
			"You will get a confirmation once payment completes.\n",
		event.CustomerName, event.OrderNumber, formatItems(event.Items),
		formatAmount(event.TotalAmount, event.Currency))

	return w.send(event.CustomerEmail, "Order received: "+event.OrderNumber, body, event.EventID)
}

func (w *NotifyWorker) handleOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	body := fmt.Sprintf(
		"Your payment for order %s was received.\n\nTotal: %s\n",
		event.OrderNumber, formatAmount(event.TotalAmount, ""))
	if event.ReceiptURL != "" {
		body += "\nReceipt: " + event.ReceiptURL + "\n"
	}

	return w.send(event.CustomerEmail, "Payment confirmed: "+event.OrderNumber, body, event.EventID)
}

func (w *NotifyWorker) handleOrderPaymentFailed(ctx context.Context, event *models.OrderPaymentFailedEvent) error {
	body := fmt.Sprintf(
		"The payment for order %s did not complete and the order was cancelled.\n"+
			"You can place a new order at any time.\n",
		event.OrderNumber)

	return w.send(event.CustomerEmail, "Payment failed: "+event.OrderNumber, body, event.EventID)
}

// send delivers a notification. Delivery failures are logged but do not fail
// the message; resending a stale email on redelivery is worse than dropping
// one.
func (w *NotifyWorker) send(to, subject, body, eventID string) error {
	if to == "" {
		return nil
	}
	if err := w.mailer.Send(to, subject, body); err != nil {
		w.logger.Error("failed to send notification",
			zap.String("event_id", eventID),
			zap.String("subject", subject),
			zap.Error(err))
		return nil
	}
	w.logger.Info("notification sent",
		zap.String("event_id", eventID),
		zap.String("subject", subject))
	return nil
}

func formatItems(items []models.OrderItemData) string {
	out := ""
	for _, it := range items {
		out += fmt.Sprintf("  %dx %s\n", it.Quantity, it.ProductName)
	}
	return out
}

func formatAmount(cents int64, currency string) string {
	s := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	if currency != "" {
		s += " " + currency
	}
	return s
}
