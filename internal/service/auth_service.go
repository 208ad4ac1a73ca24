package service

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"shop-backend/internal/auth"
	"shop-backend/internal/mail"
	"shop-backend/internal/models"
	"shop-backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const resetTokenTTL = time.Hour

// AuthStore is the persistence surface account management needs.
type AuthStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*models.User, error)
	GetUsers(ctx context.Context, activeOnly bool, offset, limit int) ([]models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	UpdateUserAddress(ctx context.Context, u *models.User) error
	UpdateUserPassword(ctx context.Context, userID int64, hashedPassword string) error
	SetResetToken(ctx context.Context, userID int64, token string, expires time.Time) error
	ClearResetToken(ctx context.Context, userID int64) error
}

// LoginGate throttles admin sign-in attempts per source address.
type LoginGate interface {
	Allow(ctx context.Context, addr string) (bool, error)
	RecordFailure(ctx context.Context, addr string) error
	RecordSuccess(ctx context.Context, addr string) error
}

// AuthService handles registration, sign-in, and account management.
type AuthService struct {
	store       AuthStore
	tokens      *auth.Tokens
	limiter     LoginGate
	mailer      mail.Sender
	allowlist   []string
	resetPrefix string
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService creates a new auth service. allowlist restricts admin
// sign-in by source IP; empty means no restriction. resetPrefix is the
// public URL prefix reset tokens are appended to.
func NewAuthService(st AuthStore, tokens *auth.Tokens, limiter LoginGate, mailer mail.Sender, allowlist []string, resetPrefix string) *AuthService {
	return &AuthService{
		store:       st,
		tokens:      tokens,
		limiter:     limiter,
		mailer:      mailer,
		allowlist:   allowlist,
		resetPrefix: resetPrefix,
		logger:      util.GetLogger(),
		now:         time.Now,
	}
}

// SignUpRequest registers a new account.
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone,omitempty"`
}

// SignInRequest authenticates an existing account.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AddressRequest updates billing and delivery details.
type AddressRequest struct {
	EntityType      string `json:"entity_type,omitempty"`
	TaxID           string `json:"tax_id,omitempty"`
	CompanyName     string `json:"company_name,omitempty"`
	TradeRegisterNo string `json:"trade_register_no,omitempty"`
	BankName        string `json:"bank_name,omitempty"`
	IBAN            string `json:"iban,omitempty"`
	County          string `json:"county,omitempty"`
	City            string `json:"city,omitempty"`
	Address         string `json:"address,omitempty"`
}

// TokenResult is a successful sign-in or sign-up.
type TokenResult struct {
	Token     string       `json:"access_token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int64        `json:"expires_in"`
	User      *models.User `json:"user"`
}

func (s *AuthService) tokenResult(u *models.User) (*TokenResult, error) {
	token, err := s.tokens.Issue(u.Email, u.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &TokenResult{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		User:      u,
	}, nil
}

// SignUp registers a customer account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, req *SignUpRequest) (*TokenResult, error) {
	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &models.User{
		Email:          strings.ToLower(req.Email),
		Username:       req.Username,
		FullName:       req.FullName,
		HashedPassword: hashed,
		Phone:          nullString(req.Phone),
		Role:           models.RoleCustomer,
		IsActive:       true,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, mapStoreErr(err)
	}

	s.logger.Info("user registered",
		zap.Int64("user_id", u.ID),
		zap.String("email", u.Email))

	return s.tokenResult(u)
}

// SignIn authenticates a customer. Unknown accounts, wrong passwords, and
// deactivated accounts all fail the same way.
func (s *AuthService) SignIn(ctx context.Context, req *SignInRequest) (*TokenResult, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if mapStoreErr(err) == ErrNotFound {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !u.IsActive || !auth.CheckPassword(req.Password, u.HashedPassword) {
		return nil, ErrUnauthorized
	}
	return s.tokenResult(u)
}

// Refresh issues a fresh token for an already authenticated account. The
// account is re-checked so a deactivated user cannot extend a session.
func (s *AuthService) Refresh(ctx context.Context, email string) (*TokenResult, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if mapStoreErr(err) == ErrNotFound {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUnauthorized
	}
	return s.tokenResult(u)
}

// AdminSignIn authenticates an admin from the given source address. The
// address must pass the IP allowlist and the failed-attempt window; every
// rejection looks identical to the caller.
func (s *AuthService) AdminSignIn(ctx context.Context, req *SignInRequest, remoteAddr string) (*TokenResult, error) {
	addr := hostOnly(remoteAddr)

	if !s.addrAllowed(addr) {
		s.logger.Warn("admin sign-in from disallowed address", zap.String("addr", addr))
		return nil, ErrUnauthorized
	}

	allowed, err := s.limiter.Allow(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("login limiter unavailable: %w", err)
	}
	if !allowed {
		util.LoginLockoutsTotal.Inc()
		s.logger.Warn("admin sign-in locked out", zap.String("addr", addr))
		return nil, ErrRateLimited
	}

	u, err := s.store.GetUserByEmail(ctx, strings.ToLower(req.Email))
	if err != nil && mapStoreErr(err) != ErrNotFound {
		return nil, err
	}

	ok := err == nil &&
		u.IsActive &&
		u.Role == models.RoleAdmin &&
		auth.CheckPassword(req.Password, u.HashedPassword)

	if !ok {
		util.LoginFailuresTotal.Inc()
		if rerr := s.limiter.RecordFailure(ctx, addr); rerr != nil {
			s.logger.Error("failed to record login failure", zap.Error(rerr))
		}
		return nil, ErrUnauthorized
	}

	if rerr := s.limiter.RecordSuccess(ctx, addr); rerr != nil {
		s.logger.Error("failed to clear login window", zap.Error(rerr))
	}
	return s.tokenResult(u)
}

// addrAllowed checks the admin IP allowlist. An empty list allows everyone.
func (s *AuthService) addrAllowed(addr string) bool {
	if len(s.allowlist) == 0 {
		return true
	}
	ip := net.ParseIP(addr)
	for _, entry := range s.allowlist {
		if entry == addr {
			return true
		}
		if _, cidr, err := net.ParseCIDR(entry); err == nil && ip != nil && cidr.Contains(ip) {
			return true
		}
	}
	return false
}

func hostOnly(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

// ForgotPassword issues a reset token and mails it to the account. It never
// reveals whether the account exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.store.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if mapStoreErr(err) == ErrNotFound {
			return nil
		}
		return err
	}

	token := uuid.New().String()
	expires := s.now().Add(resetTokenTTL)
	if err := s.store.SetResetToken(ctx, u.ID, token, expires); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	body := fmt.Sprintf(
		"Hello %s,\n\nA password reset was requested for your account.\n"+
			"Use the link below within one hour:\n\n%s%s\n\n"+
			"If you did not request this, ignore this message.\n",
		u.FullName, s.resetPrefix, token)

	if err := s.mailer.Send(u.Email, "Password reset", body); err != nil {
		s.logger.Error("failed to send reset mail",
			zap.Int64("user_id", u.ID),
			zap.Error(err))
	}
	return nil
}

// ResetPassword sets a new password for the account holding the token.
// Expired tokens are cleared and rejected.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || len(newPassword) < 8 {
		return ErrValidation
	}

	u, err := s.store.GetUserByResetToken(ctx, token)
	if err != nil {
		if mapStoreErr(err) == ErrNotFound {
			return ErrValidation
		}
		return err
	}

	if !u.ResetTokenExpires.Valid || s.now().After(u.ResetTokenExpires.Time) {
		if cerr := s.store.ClearResetToken(ctx, u.ID); cerr != nil {
			s.logger.Error("failed to clear expired reset token", zap.Error(cerr))
		}
		return ErrValidation
	}

	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return mapStoreErr(s.store.UpdateUserPassword(ctx, u.ID, hashed))
}

// Profile returns the account behind the given email.
func (s *AuthService) Profile(ctx context.Context, email string) (*models.User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	return u, mapStoreErr(err)
}

// UpdateAddress updates the account's billing and delivery details.
func (s *AuthService) UpdateAddress(ctx context.Context, email string, req *AddressRequest) (*models.User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	u.EntityType = nullString(req.EntityType)
	u.TaxID = nullString(req.TaxID)
	u.CompanyName = nullString(req.CompanyName)
	u.TradeRegisterNo = nullString(req.TradeRegisterNo)
	u.BankName = nullString(req.BankName)
	u.IBAN = nullString(req.IBAN)
	u.County = nullString(req.County)
	u.City = nullString(req.City)
	u.Address = nullString(req.Address)

	if err := s.store.UpdateUserAddress(ctx, u); err != nil {
		return nil, mapStoreErr(err)
	}
	return u, nil
}

// ListUsers lists accounts for the admin dashboard.
func (s *AuthService) ListUsers(ctx context.Context, activeOnly bool, offset, limit int) ([]models.User, error) {
	return s.store.GetUsers(ctx, activeOnly, offset, limit)
}

// AdminUserCreateRequest creates an account from the admin panel.
type AdminUserCreateRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty" binding:"omitempty,oneof=customer admin"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// AdminUserUpdateRequest partially edits an account. Empty fields are left
// unchanged.
type AdminUserUpdateRequest struct {
	Email    string  `json:"email,omitempty" binding:"omitempty,email"`
	Username string  `json:"username,omitempty" binding:"omitempty,min=3"`
	FullName string  `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Role     string  `json:"role,omitempty" binding:"omitempty,oneof=customer admin"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// GetUser fetches one account by ID.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	return u, mapStoreErr(err)
}

// CreateUser registers an account with an explicit role. Unlike SignUp it is
// an admin operation and never signs the new account in.
func (s *AuthService) CreateUser(ctx context.Context, req *AdminUserCreateRequest) (*models.User, error) {
	if _, err := s.store.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, ErrConflict
	} else if mapStoreErr(err) != ErrNotFound {
		return nil, err
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}
	u := &models.User{
		Email:          strings.ToLower(req.Email),
		Username:       req.Username,
		FullName:       req.FullName,
		HashedPassword: hashed,
		Phone:          nullString(req.Phone),
		Role:           role,
		IsActive:       activeOrDefault(req.IsActive),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, mapStoreErr(err)
	}

	s.logger.Info("user created by admin",
		zap.Int64("user_id", u.ID),
		zap.String("email", u.Email),
		zap.String("role", u.Role))
	return u, nil
}

// UpdateUser edits an account's profile fields.
func (s *AuthService) UpdateUser(ctx context.Context, id int64, req *AdminUserUpdateRequest) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if req.Email != "" {
		u.Email = strings.ToLower(req.Email)
	}
	if req.Username != "" {
		u.Username = req.Username
	}
	if req.FullName != "" {
		u.FullName = req.FullName
	}
	if req.Phone != nil {
		u.Phone = nullString(*req.Phone)
	}
	if req.Role != "" {
		u.Role = req.Role
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, mapStoreErr(err)
	}
	return u, nil
}

// DeleteUser removes an account.
func (s *AuthService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return mapStoreErr(err)
	}
	s.logger.Info("user deleted", zap.Int64("user_id", id))
	return nil
}
