package store

import (
	"context"
	"fmt"

	"shop-backend/internal/models"
)

// CreateOrder persists an order and all of its lines in one transaction.
// Either everything commits or nothing does.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (
			id, order_number, customer_email, customer_name, customer_phone,
			subtotal, tax_amount, total_amount, currency,
			payment_status, payment_method, order_status,
			shipping_address, billing_address,
			company_name, tax_id, trade_register_no, bank_name, iban)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING created_at`

	err = tx.GetContext(ctx, &order.CreatedAt, orderQuery,
		order.ID, order.OrderNumber, order.CustomerEmail, order.CustomerName, order.CustomerPhone,
		order.Subtotal, order.TaxAmount, order.TotalAmount, order.Currency,
		order.PaymentStatus, order.PaymentMethod, order.OrderStatus,
		order.ShippingAddress, order.BillingAddress,
		order.CompanyName, order.TaxID, order.TradeRegisterNo, order.BankName, order.IBAN)
	if err != nil {
		return translateErr(err)
	}

	itemQuery := `
		INSERT INTO order_items (
			id, order_id, product_id, product_name, product_slug,
			variant_id, variant_name, variant_value_en, variant_value_ro,
			unit_price, quantity, total_price, product_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	for i := range items {
		item := &items[i]
		if _, err := tx.ExecContext(ctx, itemQuery,
			item.ID, item.OrderID, item.ProductID, item.ProductName, item.ProductSlug,
			item.VariantID, item.VariantName, item.VariantValueEN, item.VariantValueRO,
			item.UnitPrice, item.Quantity, item.TotalPrice, item.ProductImage); err != nil {
			return fmt.Errorf("failed to insert order item for product %d: %w", item.ProductID, err)
		}
	}

	return tx.Commit()
}

// GetOrder retrieves an order by ID
func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err != nil {
		return nil, translateErr(err)
	}
	return &order, nil
}

// GetOrderByNumber retrieves an order by its human-readable number
func (s *Store) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE order_number = $1", number)
	if err != nil {
		return nil, translateErr(err)
	}
	return &order, nil
}

// GetOrderBySessionID retrieves an order by its provider session ID
func (s *Store) GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE stripe_session_id = $1", sessionID)
	if err != nil {
		return nil, translateErr(err)
	}
	return &order, nil
}

// GetOrders lists orders newest first
func (s *Store) GetOrders(ctx context.Context, offset, limit int) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders ORDER BY created_at DESC OFFSET $1 LIMIT $2", offset, limit)
	return orders, err
}

// GetOrdersByEmail lists a customer's orders newest first
func (s *Store) GetOrdersByEmail(ctx context.Context, email string, offset, limit int) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE customer_email = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3",
		email, offset, limit)
	return orders, err
}

// GetOrderItems retrieves all lines for an order
func (s *Store) GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID)
	return items, err
}

// CountOrderItems returns the number of lines per order for listings.
func (s *Store) CountOrderItems(ctx context.Context, orderID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM order_items WHERE order_id = $1", orderID)
	return n, err
}

// MarkOrderPaid records a successful payment. Last write wins, so replaying the
// same provider event leaves the row unchanged.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID, sessionID, paymentIntentID, receiptURL string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET
			payment_status = $1, order_status = $2,
			stripe_session_id = $3, stripe_payment_intent_id = $4,
			receipt_url = NULLIF($5, ''), updated_at = NOW()
		WHERE id = $6`,
		models.PaymentStatusPaid, models.OrderStatusProcessing,
		sessionID, paymentIntentID, receiptURL, orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkOrderPaymentFailed records a failed payment.
func (s *Store) MarkOrderPaymentFailed(ctx context.Context, orderID, sessionID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET
			payment_status = $1, order_status = $2,
			stripe_session_id = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $4`,
		models.PaymentStatusFailed, models.OrderStatusCancelled, sessionID, orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOrderSessionID links the provider checkout session to the order.
func (s *Store) SetOrderSessionID(ctx context.Context, orderID, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET stripe_session_id = $1, updated_at = NOW() WHERE id = $2",
		sessionID, orderID)
	return err
}

// UpdateOrder applies an admin edit to status and address fields.
func (s *Store) UpdateOrder(ctx context.Context, order *models.Order) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET
			order_status = $1, payment_status = $2,
			shipping_address = $3, billing_address = $4, updated_at = NOW()
		WHERE id = $5`,
		order.OrderStatus, order.PaymentStatus,
		order.ShippingAddress, order.BillingAddress, order.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
