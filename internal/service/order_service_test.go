package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"shop-backend/internal/models"
	"shop-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderStore struct {
	products map[int64]*models.Product
	variants map[int64]*models.ProductVariant

	createdOrder *models.Order
	createdItems []models.OrderItem
	createErr    error

	orders map[string]*models.Order
	items  map[string][]models.OrderItem
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		products: map[int64]*models.Product{},
		variants: map[int64]*models.ProductVariant{},
		orders:   map[string]*models.Order{},
		items:    map[string][]models.OrderItem{},
	}
}

func (f *fakeOrderStore) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeOrderStore) GetProductVariant(_ context.Context, id int64) (*models.ProductVariant, error) {
	if v, ok := f.variants[id]; ok {
		return v, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeOrderStore) FindVariantByValue(_ context.Context, productID int64, valueEN string) (*models.ProductVariant, error) {
	var best *models.ProductVariant
	for _, v := range f.variants {
		if v.ProductID == productID && v.ValueEN == valueEN {
			if best == nil || v.ID < best.ID {
				best = v
			}
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	return best, nil
}

func (f *fakeOrderStore) CreateOrder(_ context.Context, order *models.Order, items []models.OrderItem) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.createdOrder = order
	f.createdItems = items
	f.orders[order.ID] = order
	f.items[order.ID] = items
	return nil
}

func (f *fakeOrderStore) GetOrder(_ context.Context, id string) (*models.Order, error) {
	if o, ok := f.orders[id]; ok {
		return o, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeOrderStore) GetOrderByNumber(_ context.Context, number string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeOrderStore) GetOrderBySessionID(_ context.Context, sessionID string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.StripeSessionID.Valid && o.StripeSessionID.String == sessionID {
			return o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeOrderStore) GetOrders(_ context.Context, offset, limit int) ([]models.Order, error) {
	out := []models.Order{}
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderStore) GetOrdersByEmail(_ context.Context, email string, offset, limit int) ([]models.Order, error) {
	out := []models.Order{}
	for _, o := range f.orders {
		if o.CustomerEmail == email {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) GetOrderItems(_ context.Context, orderID string) ([]models.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeOrderStore) CountOrderItems(_ context.Context, orderID string) (int, error) {
	return len(f.items[orderID]), nil
}

func (f *fakeOrderStore) UpdateOrder(_ context.Context, order *models.Order) error {
	if _, ok := f.orders[order.ID]; !ok {
		return store.ErrNotFound
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderStore) GetDashboardStats(_ context.Context) (*models.DashboardStats, error) {
	return &models.DashboardStats{}, nil
}

func newTestOrderService(st OrderStore) *OrderService {
	return NewOrderService(st, nil, Pricing{TaxRatePercent: 21}, "RON")
}

func TestGenerateOrderNumber(t *testing.T) {
	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	number := GenerateOrderNumber(at)

	assert.Regexp(t, regexp.MustCompile(`^ORD-20260314-[0-9A-F]{8}$`), number)
	assert.NotEqual(t, number, GenerateOrderNumber(at))
}

func TestCreateOrderPricesFromCatalog(t *testing.T) {
	st := newFakeOrderStore()
	st.products[1] = &models.Product{ID: 1, NameEN: "Lamp", Slug: "lamp", Price: 1000, IsActive: true}
	svc := newTestOrderService(st)

	order, items, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		CustomerEmail: "a@b.com",
		CustomerName:  "Ana",
		Items: []CartItemRequest{
			// The client claims a lower price; the stored price wins.
			{ProductID: 1, Quantity: 2, UnitPrice: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, int64(1000), items[0].UnitPrice)
	assert.Equal(t, int64(2000), items[0].TotalPrice)
	assert.Equal(t, int64(2000), order.Subtotal)
	assert.Equal(t, int64(420), order.TaxAmount)
	assert.Equal(t, int64(2420), order.TotalAmount)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, models.OrderStatusPending, order.OrderStatus)
	assert.Equal(t, "RON", order.Currency)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, order.ID, items[0].OrderID)

	require.NotNil(t, st.createdOrder)
	assert.Equal(t, order.ID, st.createdOrder.ID)
}

func TestCreateOrderUsesSalePrice(t *testing.T) {
	st := newFakeOrderStore()
	st.products[1] = &models.Product{ID: 1, NameEN: "Lamp", Slug: "lamp", Price: 1000}
	st.products[1].SalePrice.Int64 = 800
	st.products[1].SalePrice.Valid = true
	svc := newTestOrderService(st)

	_, items, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		CustomerEmail: "a@b.com",
		CustomerName:  "Ana",
		Items:         []CartItemRequest{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(800), items[0].UnitPrice)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	svc := newTestOrderService(newFakeOrderStore())

	_, _, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		CustomerEmail: "a@b.com",
		CustomerName:  "Ana",
		Items:         []CartItemRequest{{ProductID: 42, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrderVariantByID(t *testing.T) {
	st := newFakeOrderStore()
	st.products[1] = &models.Product{ID: 1, NameEN: "Shirt", Slug: "shirt", Price: 1000, HasVariants: true}
	st.variants[7] = &models.ProductVariant{ID: 7, ProductID: 1, ValueEN: "L", ValueRO: "L", Price: 1200, IsActive: true}
	svc := newTestOrderService(st)

	order, items, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		CustomerEmail: "a@b.com",
		CustomerName:  "Ana",
		Items:         []CartItemRequest{{ProductID: 1, Quantity: 1, VariantID: 7}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1200), items[0].UnitPrice)
	assert.Equal(t, int64(7), items[0].VariantID.Int64)
	assert.Equal(t, "L", items[0].VariantValueEN.String)
	assert.Equal(t, int64(1200), order.Subtotal)
}

func TestCreateOrderVariantWrongProduct(t *testing.T) {
	st := newFakeOrderStore()
	st.products[1] = &models.Product{ID: 1, NameEN: "Shirt", Slug: "shirt", Price: 1000}
	st.variants[7] = &models.ProductVariant{ID: 7, ProductID: 99, ValueEN: "L", Price: 1200}
	svc := newTestOrderService(st)

	_, _, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		CustomerEmail: "a@b.com",
		CustomerName:  "Ana",
		Items:         []CartItemRequest{{ProductID: 1, Quantity: 1, VariantID: 7}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrderVariantByValueFallback(t *testing.T) {
	st := newFakeOrderStore()
	st.products[1] = &models.Product{ID: 1, NameEN: "Shirt", Slug: "shirt", Price: 1000}
	st.variants[3] = &models.ProductVariant{ID: 3, ProductID: 1, ValueEN: "M", Price: 1100}
	st.variants[9] = &models.ProductVariant{ID: 9, ProductID: 1, ValueEN: "M", Price: 9900}
	svc := newTestOrderService(st)

	_, items, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		CustomerEmail: "a@b.com",
		CustomerName:  "Ana",
		Items:         []CartItemRequest{{ProductID: 1, Quantity: 1, VariantValue: "M"}},
	})
	require.NoError(t, err)

	// Label lookup takes the lowest id when labels collide.
	assert.Equal(t, int64(3), items[0].VariantID.Int64)
	assert.Equal(t, int64(1100), items[0].UnitPrice)
}

func TestCreateOrderStoreFailure(t *testing.T) {
	st := newFakeOrderStore()
	st.products[1] = &models.Product{ID: 1, NameEN: "Lamp", Slug: "lamp", Price: 1000}
	st.createErr = errors.New("connection reset")
	svc := newTestOrderService(st)

	_, _, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		CustomerEmail: "a@b.com",
		CustomerName:  "Ana",
		Items:         []CartItemRequest{{ProductID: 1, Quantity: 1}},
	})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestUpdateOrderPartialEdit(t *testing.T) {
	st := newFakeOrderStore()
	st.orders["ord-1"] = &models.Order{
		ID:            "ord-1",
		PaymentStatus: models.PaymentStatusPending,
		OrderStatus:   models.OrderStatusPending,
	}
	svc := newTestOrderService(st)

	order, err := svc.UpdateOrder(context.Background(), "ord-1", &UpdateOrderRequest{
		OrderStatus: models.OrderStatusShipped,
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusShipped, order.OrderStatus)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
}

func TestGetOrderNotFound(t *testing.T) {
	svc := newTestOrderService(newFakeOrderStore())

	_, _, err := svc.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
