package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringSlice stores a JSON array of strings in a single column.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

func (s *StringSlice) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return fmt.Errorf("cannot scan %T into StringSlice", src)
}

// JSONMap stores free-form structured data (addresses) in a JSON column.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	return string(b), err
}

func (m *JSONMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("cannot scan %T into JSONMap", src)
}

// Category groups products; bilingual fields follow the storefront languages.
type Category struct {
	ID            int64          `db:"id" json:"id"`
	NameEN        string         `db:"name_en" json:"name_en"`
	NameRO        string         `db:"name_ro" json:"name_ro"`
	Slug          string         `db:"slug" json:"slug"`
	DescriptionEN sql.NullString `db:"description_en" json:"description_en,omitempty"`
	DescriptionRO sql.NullString `db:"description_ro" json:"description_ro,omitempty"`
	ImageURL      sql.NullString `db:"image_url" json:"image_url,omitempty"`
	SortOrder     int            `db:"sort_order" json:"sort_order"`
	IsActive      bool           `db:"is_active" json:"is_active"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     sql.NullTime   `db:"updated_at" json:"updated_at,omitempty"`
}

// Product is a catalog entry. Prices are integer cents.
type Product struct {
	ID            int64          `db:"id" json:"id"`
	NameEN        string         `db:"name_en" json:"name_en"`
	NameRO        string         `db:"name_ro" json:"name_ro"`
	Slug          string         `db:"slug" json:"slug"`
	DescriptionEN sql.NullString `db:"description_en" json:"description_en,omitempty"`
	DescriptionRO sql.NullString `db:"description_ro" json:"description_ro,omitempty"`
	ShortDescEN   sql.NullString `db:"short_description_en" json:"short_description_en,omitempty"`
	ShortDescRO   sql.NullString `db:"short_description_ro" json:"short_description_ro,omitempty"`
	Price         int64          `db:"price" json:"price"`
	SalePrice     sql.NullInt64  `db:"sale_price" json:"sale_price,omitempty"`
	CategoryID    sql.NullInt64  `db:"category_id" json:"category_id,omitempty"`
	Brand         sql.NullString `db:"brand" json:"brand,omitempty"`
	SKU           sql.NullString `db:"sku" json:"sku,omitempty"`
	StockQuantity int            `db:"stock_quantity" json:"stock_quantity"`
	IsActive      bool           `db:"is_active" json:"is_active"`
	Images        StringSlice    `db:"images" json:"images"`
	HasVariants   bool           `db:"has_variants" json:"has_variants"`
	VariantTypeEN sql.NullString `db:"variant_type_en" json:"variant_type_en,omitempty"`
	VariantTypeRO sql.NullString `db:"variant_type_ro" json:"variant_type_ro,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     sql.NullTime   `db:"updated_at" json:"updated_at,omitempty"`
}

// EffectivePrice returns the price customers pay right now.
func (p *Product) EffectivePrice() int64 {
	if p.SalePrice.Valid && p.SalePrice.Int64 > 0 {
		return p.SalePrice.Int64
	}
	return p.Price
}

// ProductVariant is one value on a product's single variant dimension.
// Its price is absolute, not an offset from the product price.
type ProductVariant struct {
	ID            int64          `db:"id" json:"id"`
	ProductID     int64          `db:"product_id" json:"product_id"`
	ValueEN       string         `db:"value_en" json:"value_en"`
	ValueRO       string         `db:"value_ro" json:"value_ro"`
	Price         int64          `db:"price" json:"price"`
	StockQuantity int            `db:"stock_quantity" json:"stock_quantity"`
	SKU           sql.NullString `db:"sku" json:"sku,omitempty"`
	IsActive      bool           `db:"is_active" json:"is_active"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     sql.NullTime   `db:"updated_at" json:"updated_at,omitempty"`
}

// User roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is an account holder; company fields are optional billing data.
type User struct {
	ID                int64          `db:"id" json:"id"`
	Email             string         `db:"email" json:"email"`
	Username          string         `db:"username" json:"username"`
	FullName          string         `db:"full_name" json:"full_name"`
	HashedPassword    string         `db:"hashed_password" json:"-"`
	Phone             sql.NullString `db:"phone" json:"phone,omitempty"`
	Role              string         `db:"role" json:"role"`
	IsActive          bool           `db:"is_active" json:"is_active"`
	ResetToken        sql.NullString `db:"reset_token" json:"-"`
	ResetTokenExpires sql.NullTime   `db:"reset_token_expires" json:"-"`
	EntityType        sql.NullString `db:"entity_type" json:"entity_type,omitempty"`
	TaxID             sql.NullString `db:"tax_id" json:"tax_id,omitempty"`
	CompanyName       sql.NullString `db:"company_name" json:"company_name,omitempty"`
	TradeRegisterNo   sql.NullString `db:"trade_register_no" json:"trade_register_no,omitempty"`
	BankName          sql.NullString `db:"bank_name" json:"bank_name,omitempty"`
	IBAN              sql.NullString `db:"iban" json:"iban,omitempty"`
	County            sql.NullString `db:"county" json:"county,omitempty"`
	City              sql.NullString `db:"city" json:"city,omitempty"`
	Address           sql.NullString `db:"address" json:"address,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         sql.NullTime   `db:"updated_at" json:"updated_at,omitempty"`
}

// Payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// Fulfillment statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Order is one checkout attempt. Amounts are integer cents; the creation
// path guarantees TotalAmount == Subtotal + TaxAmount.
type Order struct {
	ID                    string         `db:"id" json:"id"`
	OrderNumber           string         `db:"order_number" json:"order_number"`
	CustomerEmail         string         `db:"customer_email" json:"customer_email"`
	CustomerName          string         `db:"customer_name" json:"customer_name"`
	CustomerPhone         sql.NullString `db:"customer_phone" json:"customer_phone,omitempty"`
	Subtotal              int64          `db:"subtotal" json:"subtotal"`
	TaxAmount             int64          `db:"tax_amount" json:"tax_amount"`
	TotalAmount           int64          `db:"total_amount" json:"total_amount"`
	Currency              string         `db:"currency" json:"currency"`
	PaymentStatus         string         `db:"payment_status" json:"payment_status"`
	PaymentMethod         string         `db:"payment_method" json:"payment_method"`
	StripeSessionID       sql.NullString `db:"stripe_session_id" json:"stripe_session_id,omitempty"`
	StripePaymentIntentID sql.NullString `db:"stripe_payment_intent_id" json:"stripe_payment_intent_id,omitempty"`
	ReceiptURL            sql.NullString `db:"receipt_url" json:"receipt_url,omitempty"`
	OrderStatus           string         `db:"order_status" json:"order_status"`
	ShippingAddress       JSONMap        `db:"shipping_address" json:"shipping_address,omitempty"`
	BillingAddress        JSONMap        `db:"billing_address" json:"billing_address,omitempty"`
	CompanyName           sql.NullString `db:"company_name" json:"company_name,omitempty"`
	TaxID                 sql.NullString `db:"tax_id" json:"tax_id,omitempty"`
	TradeRegisterNo       sql.NullString `db:"trade_register_no" json:"trade_register_no,omitempty"`
	BankName              sql.NullString `db:"bank_name" json:"bank_name,omitempty"`
	IBAN                  sql.NullString `db:"iban" json:"iban,omitempty"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt             sql.NullTime   `db:"updated_at" json:"updated_at,omitempty"`
}

// OrderItem is a denormalized line snapshot; catalog edits after purchase
// never alter it.
type OrderItem struct {
	ID             string         `db:"id" json:"id"`
	OrderID        string         `db:"order_id" json:"order_id"`
	ProductID      int64          `db:"product_id" json:"product_id"`
	ProductName    string         `db:"product_name" json:"product_name"`
	ProductSlug    string         `db:"product_slug" json:"product_slug"`
	VariantID      sql.NullInt64  `db:"variant_id" json:"variant_id,omitempty"`
	VariantName    sql.NullString `db:"variant_name" json:"variant_name,omitempty"`
	VariantValueEN sql.NullString `db:"variant_value_en" json:"variant_value_en,omitempty"`
	VariantValueRO sql.NullString `db:"variant_value_ro" json:"variant_value_ro,omitempty"`
	UnitPrice      int64          `db:"unit_price" json:"unit_price"`
	Quantity       int            `db:"quantity" json:"quantity"`
	TotalPrice     int64          `db:"total_price" json:"total_price"`
	ProductImage   sql.NullString `db:"product_image" json:"product_image,omitempty"`
}

// Favorite links a user to a product they bookmarked.
type Favorite struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Message statuses
const (
	MessageStatusUnread  = "unread"
	MessageStatusRead    = "read"
	MessageStatusReplied = "replied"
)

// Message is a contact-form submission.
type Message struct {
	ID        int64          `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Email     string         `db:"email" json:"email"`
	Subject   sql.NullString `db:"subject" json:"subject,omitempty"`
	Message   string         `db:"message" json:"message"`
	Status    string         `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt sql.NullTime   `db:"updated_at" json:"updated_at,omitempty"`
}

// DashboardStats is the admin aggregate view, computed at query time.
type DashboardStats struct {
	TotalRevenue   int64 `json:"total_revenue"`
	TotalProducts  int64 `json:"total_products"`
	TotalOrders    int64 `json:"total_orders"`
	TotalCustomers int64 `json:"total_customers"`
	PendingOrders  int64 `json:"pending_orders"`
}
