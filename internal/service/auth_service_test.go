package service

import (
	"context"
	"testing"
	"time"

	"shop-backend/internal/auth"
	"shop-backend/internal/models"
	"shop-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthStore struct {
	byEmail map[string]*models.User
	byToken map[string]*models.User

	created        *models.User
	tokenSet       string
	tokenCleared   bool
	passwordNewFor int64
}

func newFakeAuthStore() *fakeAuthStore {
	return &fakeAuthStore{
		byEmail: map[string]*models.User{},
		byToken: map[string]*models.User{},
	}
}

func (f *fakeAuthStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeAuthStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeAuthStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeAuthStore) GetUserByResetToken(_ context.Context, token string) (*models.User, error) {
	if u, ok := f.byToken[token]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeAuthStore) GetUsers(_ context.Context, activeOnly bool, offset, limit int) ([]models.User, error) {
	return nil, nil
}

func (f *fakeAuthStore) CreateUser(_ context.Context, u *models.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return store.ErrConflict
	}
	u.ID = int64(len(f.byEmail) + 1)
	f.byEmail[u.Email] = u
	f.created = u
	return nil
}

func (f *fakeAuthStore) UpdateUser(_ context.Context, u *models.User) error {
	for email, existing := range f.byEmail {
		if existing.ID == u.ID {
			delete(f.byEmail, email)
			f.byEmail[u.Email] = u
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeAuthStore) DeleteUser(_ context.Context, id int64) error {
	for email, u := range f.byEmail {
		if u.ID == id {
			delete(f.byEmail, email)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeAuthStore) UpdateUserAddress(_ context.Context, u *models.User) error {
	return nil
}

func (f *fakeAuthStore) UpdateUserPassword(_ context.Context, userID int64, hashedPassword string) error {
	f.passwordNewFor = userID
	return nil
}

func (f *fakeAuthStore) SetResetToken(_ context.Context, userID int64, token string, expires time.Time) error {
	f.tokenSet = token
	return nil
}

func (f *fakeAuthStore) ClearResetToken(_ context.Context, userID int64) error {
	f.tokenCleared = true
	return nil
}

type fakeLimiter struct {
	allowed   bool
	failures  int
	successes int
}

func (f *fakeLimiter) Allow(_ context.Context, _ string) (bool, error) { return f.allowed, nil }
func (f *fakeLimiter) RecordFailure(_ context.Context, _ string) error { f.failures++; return nil }
func (f *fakeLimiter) RecordSuccess(_ context.Context, _ string) error { f.successes++; return nil }

type fakeMailSender struct {
	to      []string
	bodies  []string
	lastSub string
}

func (f *fakeMailSender) Send(to, subject, body string) error {
	f.to = append(f.to, to)
	f.bodies = append(f.bodies, body)
	f.lastSub = subject
	return nil
}

func newTestAuthService(t *testing.T, st AuthStore, limiter LoginGate, mailer *fakeMailSender, allowlist []string) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret", 30*time.Minute)
	require.NoError(t, err)
	if mailer == nil {
		mailer = &fakeMailSender{}
	}
	return NewAuthService(st, tokens, limiter, mailer, allowlist, "https://shop.example/reset?token=")
}

func seedUser(st *fakeAuthStore, email, password, role string, active bool) *models.User {
	hashed, _ := auth.HashPassword(password)
	u := &models.User{
		ID:             int64(len(st.byEmail) + 1),
		Email:          email,
		Username:       email,
		FullName:       "Test User",
		HashedPassword: hashed,
		Role:           role,
		IsActive:       active,
	}
	st.byEmail[email] = u
	return u
}

func TestSignUpAndSignIn(t *testing.T) {
	st := newFakeAuthStore()
	svc := newTestAuthService(t, st, &fakeLimiter{allowed: true}, nil, nil)

	result, err := svc.SignUp(context.Background(), &SignUpRequest{
		Email:    "Ana@Example.com",
		Username: "ana",
		FullName: "Ana Pop",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "bearer", result.TokenType)
	assert.Equal(t, models.RoleCustomer, result.User.Role)
	// Emails are stored lowercased.
	assert.Equal(t, "ana@example.com", st.created.Email)

	signin, err := svc.SignIn(context.Background(), &SignInRequest{
		Email:    "ana@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, signin.Token)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	st := newFakeAuthStore()
	seedUser(st, "ana@example.com", "pw", models.RoleCustomer, true)
	svc := newTestAuthService(t, st, &fakeLimiter{allowed: true}, nil, nil)

	_, err := svc.SignUp(context.Background(), &SignUpRequest{
		Email:    "ana@example.com",
		Username: "ana2",
		FullName: "Ana Pop",
		Password: "hunter2hunter2",
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSignInFailuresLookAlike(t *testing.T) {
	st := newFakeAuthStore()
	seedUser(st, "ana@example.com", "correct-password", models.RoleCustomer, true)
	seedUser(st, "off@example.com", "correct-password", models.RoleCustomer, false)
	svc := newTestAuthService(t, st, &fakeLimiter{allowed: true}, nil, nil)

	cases := []SignInRequest{
		{Email: "nobody@example.com", Password: "whatever"},
		{Email: "ana@example.com", Password: "wrong"},
		{Email: "off@example.com", Password: "correct-password"},
	}
	for _, req := range cases {
		_, err := svc.SignIn(context.Background(), &req)
		assert.ErrorIs(t, err, ErrUnauthorized, "email %s", req.Email)
	}
}

func TestRefresh(t *testing.T) {
	st := newFakeAuthStore()
	seedUser(st, "ana@example.com", "pw", models.RoleCustomer, true)
	seedUser(st, "off@example.com", "pw", models.RoleCustomer, false)
	svc := newTestAuthService(t, st, &fakeLimiter{allowed: true}, nil, nil)

	result, err := svc.Refresh(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "ana@example.com", result.User.Email)

	_, err = svc.Refresh(context.Background(), "off@example.com")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Refresh(context.Background(), "gone@example.com")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAdminSignIn(t *testing.T) {
	st := newFakeAuthStore()
	seedUser(st, "admin@example.com", "admin-password", models.RoleAdmin, true)
	limiter := &fakeLimiter{allowed: true}
	svc := newTestAuthService(t, st, limiter, nil, nil)

	result, err := svc.AdminSignIn(context.Background(), &SignInRequest{
		Email:    "admin@example.com",
		Password: "admin-password",
	}, "10.0.0.5:51234")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, 1, limiter.successes)
	assert.Zero(t, limiter.failures)
}

func TestAdminSignInRejectsCustomerRole(t *testing.T) {
	st := newFakeAuthStore()
	seedUser(st, "ana@example.com", "correct-password", models.RoleCustomer, true)
	limiter := &fakeLimiter{allowed: true}
	svc := newTestAuthService(t, st, limiter, nil, nil)

	_, err := svc.AdminSignIn(context.Background(), &SignInRequest{
		Email:    "ana@example.com",
		Password: "correct-password",
	}, "10.0.0.5:51234")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, limiter.failures)
}

func TestAdminSignInLockedOut(t *testing.T) {
	st := newFakeAuthStore()
	seedUser(st, "admin@example.com", "admin-password", models.RoleAdmin, true)
	svc := newTestAuthService(t, st, &fakeLimiter{allowed: false}, nil, nil)

	// Even correct credentials fail while the window is saturated.
	_, err := svc.AdminSignIn(context.Background(), &SignInRequest{
		Email:    "admin@example.com",
		Password: "admin-password",
	}, "10.0.0.5:51234")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestAdminSignInAllowlist(t *testing.T) {
	st := newFakeAuthStore()
	seedUser(st, "admin@example.com", "admin-password", models.RoleAdmin, true)
	limiter := &fakeLimiter{allowed: true}
	svc := newTestAuthService(t, st, limiter, nil, []string{"10.0.0.0/24", "192.168.1.7"})

	_, err := svc.AdminSignIn(context.Background(), &SignInRequest{
		Email:    "admin@example.com",
		Password: "admin-password",
	}, "10.0.0.5:51234")
	assert.NoError(t, err)

	_, err = svc.AdminSignIn(context.Background(), &SignInRequest{
		Email:    "admin@example.com",
		Password: "admin-password",
	}, "172.16.0.1:51234")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestForgotPasswordUnknownAccount(t *testing.T) {
	st := newFakeAuthStore()
	mailer := &fakeMailSender{}
	svc := newTestAuthService(t, st, &fakeLimiter{allowed: true}, mailer, nil)

	// Unknown accounts succeed silently: the response never reveals whether
	// the address is registered.
	err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Empty(t, mailer.to)
	assert.Empty(t, st.tokenSet)
}

func TestForgotPasswordSendsToken(t *testing.T) {
	st := newFakeAuthStore()
	seedUser(st, "ana@example.com", "pw", models.RoleCustomer, true)
	mailer := &fakeMailSender{}
	svc := newTestAuthService(t, st, &fakeLimiter{allowed: true}, mailer, nil)

	require.NoError(t, svc.ForgotPassword(context.Background(), "ana@example.com"))

	require.Len(t, mailer.to, 1)
	assert.Equal(t, "ana@example.com", mailer.to[0])
	assert.NotEmpty(t, st.tokenSet)
	assert.Contains(t, mailer.bodies[0], st.tokenSet)
}

func TestResetPassword(t *testing.T) {
	st := newFakeAuthStore()
	u := seedUser(st, "ana@example.com", "old-password", models.RoleCustomer, true)
	u.ResetToken.String = "tok-1"
	u.ResetToken.Valid = true
	u.ResetTokenExpires.Time = time.Now().Add(time.Hour)
	u.ResetTokenExpires.Valid = true
	st.byToken["tok-1"] = u
	svc := newTestAuthService(t, st, &fakeLimiter{allowed: true}, nil, nil)

	err := svc.ResetPassword(context.Background(), "tok-1", "new-password-123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, st.passwordNewFor)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	st := newFakeAuthStore()
	u := seedUser(st, "ana@example.com", "old-password", models.RoleCustomer, true)
	u.ResetToken.String = "tok-1"
	u.ResetToken.Valid = true
	u.ResetTokenExpires.Time = time.Now().Add(-time.Minute)
	u.ResetTokenExpires.Valid = true
	st.byToken["tok-1"] = u
	svc := newTestAuthService(t, st, &fakeLimiter{allowed: true}, nil, nil)

	err := svc.ResetPassword(context.Background(), "tok-1", "new-password-123")
	assert.ErrorIs(t, err, ErrValidation)
	assert.True(t, st.tokenCleared)
	assert.Zero(t, st.passwordNewFor)
}

func TestResetPasswordUnknownToken(t *testing.T) {
	svc := newTestAuthService(t, newFakeAuthStore(), &fakeLimiter{allowed: true}, nil, nil)

	err := svc.ResetPassword(context.Background(), "bogus", "new-password-123")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdminCreateUser(t *testing.T) {
	st := newFakeAuthStore()
	svc := newTestAuthService(t, st, &fakeLimiter{allowed: true}, nil, nil)

	inactive := false
	u, err := svc.CreateUser(context.Background(), &AdminUserCreateRequest{
		Email:    "Staff@Example.com",
		Username: "staff",
		FullName: "Staff User",
		Password: "hunter2hunter2",
		Role:     models.RoleAdmin,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "staff@example.com", u.Email)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.False(t, u.IsActive)
}

func TestAdminCreateUserDefaultsToCustomer(t *testing.T) {
	st := newFakeAuthStore()
	svc := newTestAuthService(t, st, &fakeLimiter{allowed: true}, nil, nil)

	u, err := svc.CreateUser(context.Background(), &AdminUserCreateRequest{
		Email:    "plain@example.com",
		Username: "plain",
		FullName: "Plain User",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, u.Role)
	assert.True(t, u.IsActive)
}

func TestAdminCreateUserDuplicateUsername(t *testing.T) {
	st := newFakeAuthStore()
	seedUser(st, "ana@example.com", "pw", models.RoleCustomer, true)
	svc := newTestAuthService(t, st, &fakeLimiter{allowed: true}, nil, nil)

	_, err := svc.CreateUser(context.Background(), &AdminUserCreateRequest{
		Email:    "other@example.com",
		Username: "ana@example.com",
		FullName: "Someone Else",
		Password: "hunter2hunter2",
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAdminUpdateUserPartial(t *testing.T) {
	st := newFakeAuthStore()
	u := seedUser(st, "ana@example.com", "pw", models.RoleCustomer, true)
	svc := newTestAuthService(t, st, &fakeLimiter{allowed: true}, nil, nil)

	updated, err := svc.UpdateUser(context.Background(), u.ID, &AdminUserUpdateRequest{
		Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.Equal(t, "ana@example.com", updated.Email)
	assert.True(t, updated.IsActive)

	deactivated := false
	updated, err = svc.UpdateUser(context.Background(), u.ID, &AdminUserUpdateRequest{
		IsActive: &deactivated,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, models.RoleAdmin, updated.Role)
}

func TestAdminUpdateUserNotFound(t *testing.T) {
	svc := newTestAuthService(t, newFakeAuthStore(), &fakeLimiter{allowed: true}, nil, nil)

	_, err := svc.UpdateUser(context.Background(), 99, &AdminUserUpdateRequest{Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminDeleteUser(t *testing.T) {
	st := newFakeAuthStore()
	u := seedUser(st, "ana@example.com", "pw", models.RoleCustomer, true)
	svc := newTestAuthService(t, st, &fakeLimiter{allowed: true}, nil, nil)

	require.NoError(t, svc.DeleteUser(context.Background(), u.ID))
	_, err := svc.GetUser(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.DeleteUser(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
