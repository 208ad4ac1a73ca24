package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop-backend/internal/models"
	"shop-backend/internal/store"
	"shop-backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is the persistence surface order creation needs.
type OrderStore interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductVariant(ctx context.Context, id int64) (*models.ProductVariant, error)
	FindVariantByValue(ctx context.Context, productID int64, valueEN string) (*models.ProductVariant, error)
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	GetOrders(ctx context.Context, offset, limit int) ([]models.Order, error)
	GetOrdersByEmail(ctx context.Context, email string, offset, limit int) ([]models.Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	CountOrderItems(ctx context.Context, orderID string) (int, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

// OrderEventPublisher publishes order lifecycle events.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
}

// OrderService handles order business logic
type OrderService struct {
	store     OrderStore
	publisher OrderEventPublisher
	pricing   Pricing
	currency  string
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(st OrderStore, publisher OrderEventPublisher, pricing Pricing, currency string) *OrderService {
	return &OrderService{
		store:     st,
		publisher: publisher,
		pricing:   pricing,
		currency:  currency,
		logger:    util.GetLogger(),
		now:       time.Now,
	}
}

// CartItemRequest is one cart line as submitted by the client. The unit price
// is a display hint only; the authoritative price comes from the catalog.
type CartItemRequest struct {
	ProductID    int64  `json:"product_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,min=1"`
	VariantID    int64  `json:"variant_id,omitempty"`
	VariantValue string `json:"variant_value,omitempty"`
	UnitPrice    int64  `json:"unit_price,omitempty"`
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	CustomerEmail   string            `json:"customer_email" binding:"required,email"`
	CustomerName    string            `json:"customer_name" binding:"required"`
	CustomerPhone   string            `json:"customer_phone,omitempty"`
	Items           []CartItemRequest `json:"items" binding:"required,min=1"`
	Currency        string            `json:"currency,omitempty"`
	ShippingAddress models.JSONMap    `json:"shipping_address,omitempty"`
	BillingAddress  models.JSONMap    `json:"billing_address,omitempty"`
	CompanyName     string            `json:"company_name,omitempty"`
	TaxID           string            `json:"tax_id,omitempty"`
	TradeRegisterNo string            `json:"trade_register_no,omitempty"`
	BankName        string            `json:"bank_name,omitempty"`
	IBAN            string            `json:"iban,omitempty"`
}

// UpdateOrderRequest is an admin edit of order status and addresses.
type UpdateOrderRequest struct {
	OrderStatus     string         `json:"order_status,omitempty"`
	PaymentStatus   string         `json:"payment_status,omitempty"`
	ShippingAddress models.JSONMap `json:"shipping_address,omitempty"`
	BillingAddress  models.JSONMap `json:"billing_address,omitempty"`
}

// OrderListEntry is the admin listing row with its line count.
type OrderListEntry struct {
	models.Order
	ItemCount int `json:"order_items_count"`
}

// GenerateOrderNumber derives a human-readable order number from the creation
// date plus a short random token. Uniqueness is enforced by the database index.
func GenerateOrderNumber(at time.Time) string {
	token := strings.ToUpper(uuid.New().String()[:8])
	return fmt.Sprintf("ORD-%s-%s", at.Format("20060102"), token)
}

// CreateOrder resolves the cart against the catalog and persists the order
// with all its lines as one unit.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, []models.OrderItem, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	now := s.now()
	order := &models.Order{
		ID:              uuid.New().String(),
		OrderNumber:     GenerateOrderNumber(now),
		CustomerEmail:   req.CustomerEmail,
		CustomerName:    req.CustomerName,
		CustomerPhone:   nullString(req.CustomerPhone),
		Currency:        req.Currency,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   "stripe",
		OrderStatus:     models.OrderStatusPending,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		CompanyName:     nullString(req.CompanyName),
		TaxID:           nullString(req.TaxID),
		TradeRegisterNo: nullString(req.TradeRegisterNo),
		BankName:        nullString(req.BankName),
		IBAN:            nullString(req.IBAN),
	}
	if order.Currency == "" {
		order.Currency = s.currency
	}
	if order.BillingAddress == nil {
		order.BillingAddress = req.ShippingAddress
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	var subtotal int64

	for _, line := range req.Items {
		product, err := s.store.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				util.OrdersFailedTotal.WithLabelValues("unknown_product").Inc()
				return nil, nil, fmt.Errorf("%w: product %d not found", ErrValidation, line.ProductID)
			}
			return nil, nil, fmt.Errorf("failed to resolve product %d: %w", line.ProductID, err)
		}

		variant, err := s.resolveVariant(ctx, product, line)
		if err != nil {
			return nil, nil, err
		}

		// Authoritative pricing from the stored record. The client's figure is
		// accepted only as a display hint; a mismatch is worth a log line.
		unitPrice := product.EffectivePrice()
		if variant != nil {
			unitPrice = variant.Price
		}
		if line.UnitPrice != 0 && line.UnitPrice != unitPrice {
			s.logger.Warn("Client unit price differs from catalog price",
				zap.Int64("product_id", product.ID),
				zap.Int64("client_price", line.UnitPrice),
				zap.Int64("catalog_price", unitPrice))
		}

		item := models.OrderItem{
			ID:          uuid.New().String(),
			OrderID:     order.ID,
			ProductID:   product.ID,
			ProductName: product.NameEN,
			ProductSlug: product.Slug,
			UnitPrice:   unitPrice,
			Quantity:    line.Quantity,
			TotalPrice:  unitPrice * int64(line.Quantity),
		}
		if len(product.Images) > 0 {
			item.ProductImage = nullString(product.Images[0])
		}
		if variant != nil {
			item.VariantID = sql.NullInt64{Int64: variant.ID, Valid: true}
			item.VariantName = product.VariantTypeEN
			item.VariantValueEN = nullString(variant.ValueEN)
			item.VariantValueRO = nullString(variant.ValueRO)
		}

		subtotal += item.TotalPrice
		items = append(items, item)
	}

	order.Subtotal = subtotal
	order.TaxAmount = s.pricing.Tax(subtotal)
	order.TotalAmount = order.Subtotal + order.TaxAmount

	if err := s.store.CreateOrder(ctx, order, items); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total_amount", order.TotalAmount))

	if s.publisher != nil {
		eventItems := make([]models.OrderItemData, 0, len(items))
		for _, item := range items {
			eventItems = append(eventItems, models.OrderItemData{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
			})
		}
		event := &models.OrderCreatedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderCreated,
				Timestamp: now,
			},
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			CustomerEmail: order.CustomerEmail,
			CustomerName:  order.CustomerName,
			TotalAmount:   order.TotalAmount,
			Currency:      order.Currency,
			Items:         eventItems,
		}
		if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
		}
	}

	return order, items, nil
}

// resolveVariant finds the selected variant. Resolution by stable identifier
// is preferred; the label-text lookup remains for legacy clients and picks the
// first match when labels collide.
func (s *OrderService) resolveVariant(ctx context.Context, product *models.Product, line CartItemRequest) (*models.ProductVariant, error) {
	switch {
	case line.VariantID > 0:
		variant, err := s.store.GetProductVariant(ctx, line.VariantID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: variant %d not found", ErrValidation, line.VariantID)
			}
			return nil, fmt.Errorf("failed to resolve variant %d: %w", line.VariantID, err)
		}
		if variant.ProductID != product.ID {
			return nil, fmt.Errorf("%w: variant %d does not belong to product %d", ErrValidation, line.VariantID, product.ID)
		}
		return variant, nil

	case line.VariantValue != "":
		variant, err := s.store.FindVariantByValue(ctx, product.ID, line.VariantValue)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: no variant %q for product %d", ErrValidation, line.VariantValue, product.ID)
			}
			return nil, fmt.Errorf("failed to resolve variant by value: %w", err)
		}
		return variant, nil
	}

	return nil, nil
}

// GetOrder retrieves an order with its lines
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// GetOrderBySessionID retrieves an order by its provider checkout session.
func (s *OrderService) GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	order, err := s.store.GetOrderBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

// GetOrderByNumber retrieves an order by its human-readable number.
func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	items, err := s.store.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}

// ListOrdersByEmail returns the orders placed under the given customer email,
// newest first.
func (s *OrderService) ListOrdersByEmail(ctx context.Context, email string, offset, limit int) ([]OrderListEntry, error) {
	orders, err := s.store.GetOrdersByEmail(ctx, email, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.withItemCounts(ctx, orders)
}

// ListOrders returns the admin order listing with per-order line counts.
func (s *OrderService) ListOrders(ctx context.Context, offset, limit int) ([]OrderListEntry, error) {
	orders, err := s.store.GetOrders(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.withItemCounts(ctx, orders)
}

func (s *OrderService) withItemCounts(ctx context.Context, orders []models.Order) ([]OrderListEntry, error) {
	entries := make([]OrderListEntry, 0, len(orders))
	for _, order := range orders {
		count, err := s.store.CountOrderItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, OrderListEntry{Order: order, ItemCount: count})
	}
	return entries, nil
}

// UpdateOrder applies an admin edit.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID string, req *UpdateOrderRequest) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.OrderStatus != "" {
		order.OrderStatus = req.OrderStatus
	}
	if req.PaymentStatus != "" {
		order.PaymentStatus = req.PaymentStatus
	}
	if req.ShippingAddress != nil {
		order.ShippingAddress = req.ShippingAddress
	}
	if req.BillingAddress != nil {
		order.BillingAddress = req.BillingAddress
	}

	if err := s.store.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// DashboardStats aggregates the admin dashboard figures.
func (s *OrderService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	return s.store.GetDashboardStats(ctx)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
