package service

import (
	"context"

	"shop-backend/internal/models"
	"shop-backend/internal/util"

	"go.uber.org/zap"
)

// FavoriteStore is the persistence surface the favorites feature needs.
type FavoriteStore interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetUserFavorites(ctx context.Context, userID int64, offset, limit int) ([]models.Favorite, error)
	AddFavorite(ctx context.Context, f *models.Favorite) error
	RemoveFavorite(ctx context.Context, userID, productID int64) error
	IsFavorite(ctx context.Context, userID, productID int64) (bool, error)
}

// FavoriteService manages per-user product favorites.
type FavoriteService struct {
	store FavoriteStore
}

// NewFavoriteService creates a new favorite service
func NewFavoriteService(st FavoriteStore) *FavoriteService {
	return &FavoriteService{store: st}
}

// List returns the user's favorites, newest first.
func (s *FavoriteService) List(ctx context.Context, userID int64, offset, limit int) ([]models.Favorite, error) {
	return s.store.GetUserFavorites(ctx, userID, offset, limit)
}

// Add marks a product as a favorite. Adding twice is a no-op returning the
// stored row.
func (s *FavoriteService) Add(ctx context.Context, userID, productID int64) (*models.Favorite, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, mapStoreErr(err)
	}

	f := &models.Favorite{UserID: userID, ProductID: productID}
	if err := s.store.AddFavorite(ctx, f); err != nil {
		return nil, mapStoreErr(err)
	}
	return f, nil
}

// Remove unmarks a product. Removing an absent pair succeeds.
func (s *FavoriteService) Remove(ctx context.Context, userID, productID int64) error {
	return s.store.RemoveFavorite(ctx, userID, productID)
}

// Check reports whether the product is favorited by the user.
func (s *FavoriteService) Check(ctx context.Context, userID, productID int64) (bool, error) {
	return s.store.IsFavorite(ctx, userID, productID)
}

// MessageStore is the persistence surface the contact-form feature needs.
type MessageStore interface {
	GetMessage(ctx context.Context, id int64) (*models.Message, error)
	GetMessages(ctx context.Context, status string, offset, limit int) ([]models.Message, error)
	CreateMessage(ctx context.Context, m *models.Message) error
	UpdateMessageStatus(ctx context.Context, id int64, status string) error
}

// MessageService manages contact-form submissions.
type MessageService struct {
	store  MessageStore
	logger *zap.Logger
}

// NewMessageService creates a new message service
func NewMessageService(st MessageStore) *MessageService {
	return &MessageService{store: st, logger: util.GetLogger()}
}

// MessageRequest is a public contact-form submission.
type MessageRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message" binding:"required"`
}

// Submit stores a new message in the unread state.
func (s *MessageService) Submit(ctx context.Context, req *MessageRequest) (*models.Message, error) {
	m := &models.Message{
		Name:    req.Name,
		Email:   req.Email,
		Subject: nullString(req.Subject),
		Message: req.Message,
		Status:  models.MessageStatusUnread,
	}
	if err := s.store.CreateMessage(ctx, m); err != nil {
		return nil, mapStoreErr(err)
	}

	s.logger.Info("contact message received",
		zap.Int64("message_id", m.ID),
		zap.String("email", m.Email))
	return m, nil
}

// Get fetches one message.
func (s *MessageService) Get(ctx context.Context, id int64) (*models.Message, error) {
	m, err := s.store.GetMessage(ctx, id)
	return m, mapStoreErr(err)
}

// List returns messages, optionally filtered by status.
func (s *MessageService) List(ctx context.Context, status string, offset, limit int) ([]models.Message, error) {
	if status != "" && !validMessageStatus(status) {
		return nil, ErrValidation
	}
	return s.store.GetMessages(ctx, status, offset, limit)
}

// SetStatus moves a message through the unread/read/replied states.
func (s *MessageService) SetStatus(ctx context.Context, id int64, status string) error {
	if !validMessageStatus(status) {
		return ErrValidation
	}
	return mapStoreErr(s.store.UpdateMessageStatus(ctx, id, status))
}

func validMessageStatus(status string) bool {
	switch status {
	case models.MessageStatusUnread, models.MessageStatusRead, models.MessageStatusReplied:
		return true
	}
	return false
}
