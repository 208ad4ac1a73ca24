package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shop-backend/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique constraint is violated.
var ErrConflict = errors.New("already exists")

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection, used by tests.
func NewStoreWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// translateErr maps driver errors to the store's sentinel errors.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrConflict
	}
	return err
}

// GetDashboardStats aggregates the admin dashboard figures at query time.
// Full-table aggregates, no caching.
func (s *Store) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}

	err := s.db.GetContext(ctx, &stats.TotalRevenue,
		"SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE payment_status = $1",
		models.PaymentStatusPaid)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	if err := s.db.GetContext(ctx, &stats.TotalProducts, "SELECT COUNT(*) FROM products"); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	if err := s.db.GetContext(ctx, &stats.TotalOrders, "SELECT COUNT(*) FROM orders"); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	err = s.db.GetContext(ctx, &stats.TotalCustomers,
		"SELECT COUNT(*) FROM users WHERE role = $1", models.RoleCustomer)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	err = s.db.GetContext(ctx, &stats.PendingOrders,
		"SELECT COUNT(*) FROM orders WHERE order_status = $1", models.OrderStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending orders: %w", err)
	}

	return stats, nil
}
