package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/carelane/carelane/internal/config"
	"github.com/carelane/carelane/internal/domain"
	"github.com/carelane/carelane/internal/repository/memory"
	"github.com/carelane/carelane/pkg/auth"
)

func newAuthAndUsers(t *testing.T) (*AuthService, *memory.UserStore) {
	t.Helper()

	users := memory.NewUserStore()
	jwtManager := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-at-least-32-characters-long",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "carelane-test",
	})
	return NewAuthService(users, jwtManager, zap.NewNop()), users
}

func seedUser(t *testing.T, users *memory.UserStore, email, password string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Rita",
		LastName:     "Mendes",
		Role:         domain.RoleNurse,
		IsActive:     true,
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, users := newAuthAndUsers(t)
	seedUser(t, users, "rita@example.org", "correct horse battery")

	pair, err := svc.Login(context.Background(), "rita@example.org", "correct horse battery", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, users := newAuthAndUsers(t)
	seedUser(t, users, "rita@example.org", "correct horse battery")

	_, err := svc.Login(context.Background(), "rita@example.org", "wrong", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@example.org", "whatever", "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	svc, users := newAuthAndUsers(t)
	seedUser(t, users, "rita@example.org", "correct horse battery")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, "rita@example.org", "wrong", "10.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Even the right password is refused while the lock holds.
	_, err := svc.Login(ctx, "rita@example.org", "correct horse battery", "10.0.0.1")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, users := newAuthAndUsers(t)
	u := seedUser(t, users, "rita@example.org", "correct horse battery")

	u.IsActive = false
	require.NoError(t, users.Create(context.Background(), u))

	_, err := svc.Login(context.Background(), "rita@example.org", "correct horse battery", "10.0.0.1")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc, users := newAuthAndUsers(t)
	seedUser(t, users, "rita@example.org", "correct horse battery")
	ctx := context.Background()

	pair, err := svc.Login(ctx, "rita@example.org", "correct horse battery", "10.0.0.1")
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// An access token is not a refresh token.
	_, err = svc.RefreshToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	svc, users := newAuthAndUsers(t)
	u := seedUser(t, users, "rita@example.org", "correct horse battery")
	ctx := context.Background()

	err := svc.ChangePassword(ctx, u.ID, "wrong", "a-much-longer-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, u.ID, "correct horse battery", "short")
	assert.Error(t, err)

	err = svc.ChangePassword(ctx, u.ID, "correct horse battery", "a-much-longer-password")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "rita@example.org", "a-much-longer-password", "10.0.0.1")
	require.NoError(t, err)
}
