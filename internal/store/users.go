package store

import (
	"context"
	"time"

	"shop-backend/internal/models"
)

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		return nil, translateErr(err)
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE email = $1", email)
	if err != nil {
		return nil, translateErr(err)
	}
	return &u, nil
}

// GetUserByUsername retrieves a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE username = $1", username)
	if err != nil {
		return nil, translateErr(err)
	}
	return &u, nil
}

// GetUserByResetToken retrieves a user holding the given password-reset token
func (s *Store) GetUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE reset_token = $1", token)
	if err != nil {
		return nil, translateErr(err)
	}
	return &u, nil
}

// GetUsers lists users
func (s *Store) GetUsers(ctx context.Context, activeOnly bool, offset, limit int) ([]models.User, error) {
	query := "SELECT * FROM users"
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY id OFFSET $1 LIMIT $2"

	users := []models.User{}
	err := s.db.SelectContext(ctx, &users, query, offset, limit)
	return users, err
}

// CreateUser inserts a user
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (email, username, full_name, hashed_password, phone, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := s.db.GetContext(ctx, u, query,
		u.Email, u.Username, u.FullName, u.HashedPassword, u.Phone, u.Role, u.IsActive)
	return translateErr(err)
}

// UpdateUser overwrites mutable profile fields
func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	query := `
		UPDATE users SET
			email = $1, username = $2, full_name = $3, phone = $4, role = $5,
			is_active = $6, updated_at = NOW()
		WHERE id = $7`

	res, err := s.db.ExecContext(ctx, query,
		u.Email, u.Username, u.FullName, u.Phone, u.Role, u.IsActive, u.ID)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserAddress updates billing/address fields only
func (s *Store) UpdateUserAddress(ctx context.Context, u *models.User) error {
	query := `
		UPDATE users SET
			entity_type = $1, tax_id = $2, company_name = $3, trade_register_no = $4,
			bank_name = $5, iban = $6, county = $7, city = $8, address = $9, updated_at = NOW()
		WHERE id = $10`

	res, err := s.db.ExecContext(ctx, query,
		u.EntityType, u.TaxID, u.CompanyName, u.TradeRegisterNo,
		u.BankName, u.IBAN, u.County, u.City, u.Address, u.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserPassword replaces the stored hash and clears any reset token
func (s *Store) UpdateUserPassword(ctx context.Context, userID int64, hashedPassword string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			hashed_password = $1, reset_token = NULL, reset_token_expires = NULL, updated_at = NOW()
		WHERE id = $2`, hashedPassword, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResetToken stores a password-reset token with its expiry
func (s *Store) SetResetToken(ctx context.Context, userID int64, token string, expires time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET reset_token = $1, reset_token_expires = $2, updated_at = NOW() WHERE id = $3",
		token, expires, userID)
	return err
}

// ClearResetToken drops an expired or used reset token
func (s *Store) ClearResetToken(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET reset_token = NULL, reset_token_expires = NULL, updated_at = NOW() WHERE id = $1",
		userID)
	return err
}

// DeleteUser removes a user
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUserFavorites lists a user's favorites
func (s *Store) GetUserFavorites(ctx context.Context, userID int64, offset, limit int) ([]models.Favorite, error) {
	favorites := []models.Favorite{}
	err := s.db.SelectContext(ctx, &favorites,
		"SELECT * FROM favorites WHERE user_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3",
		userID, offset, limit)
	return favorites, err
}

// AddFavorite inserts a favorite; adding an existing pair returns the stored row.
func (s *Store) AddFavorite(ctx context.Context, f *models.Favorite) error {
	var existing models.Favorite
	err := s.db.GetContext(ctx, &existing,
		"SELECT * FROM favorites WHERE user_id = $1 AND product_id = $2", f.UserID, f.ProductID)
	if err == nil {
		*f = existing
		return nil
	}
	if translateErr(err) != ErrNotFound {
		return err
	}

	query := `
		INSERT INTO favorites (user_id, product_id)
		VALUES ($1, $2)
		RETURNING id, created_at`
	return translateErr(s.db.GetContext(ctx, f, query, f.UserID, f.ProductID))
}

// RemoveFavorite deletes a favorite pair
func (s *Store) RemoveFavorite(ctx context.Context, userID, productID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE user_id = $1 AND product_id = $2", userID, productID)
	return err
}

// IsFavorite reports whether the pair exists
func (s *Store) IsFavorite(ctx context.Context, userID, productID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2)",
		userID, productID)
	return exists, err
}

// GetMessage retrieves a message by ID
func (s *Store) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	var m models.Message
	err := s.db.GetContext(ctx, &m, "SELECT * FROM messages WHERE id = $1", id)
	if err != nil {
		return nil, translateErr(err)
	}
	return &m, nil
}

// GetMessages lists messages with optional status filtering
func (s *Store) GetMessages(ctx context.Context, status string, offset, limit int) ([]models.Message, error) {
	messages := []models.Message{}
	if status != "" {
		err := s.db.SelectContext(ctx, &messages,
			"SELECT * FROM messages WHERE status = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3",
			status, offset, limit)
		return messages, err
	}
	err := s.db.SelectContext(ctx, &messages,
		"SELECT * FROM messages ORDER BY created_at DESC OFFSET $1 LIMIT $2", offset, limit)
	return messages, err
}

// CreateMessage inserts a contact message
func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (name, email, subject, message, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return translateErr(s.db.GetContext(ctx, m, query,
		m.Name, m.Email, m.Subject, m.Message, m.Status))
}

// UpdateMessageStatus moves a message through unread/read/replied
func (s *Store) UpdateMessageStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE messages SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
