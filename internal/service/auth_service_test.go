package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/gate-violation-api/internal/models"
	appErrors "github.com/noah-isme/gate-violation-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	findByEmailErr   error
	lastLoginUpdated bool
	requestedEmail   string
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.requestedEmail = email
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByEmail == nil || m.userByEmail.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func hashedUser(t *testing.T, active bool) *models.User {
	t.Helper()
	password, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: "123", Email: "staff@school.test", PasswordHash: string(password), Active: active, Role: models.RoleAdmin}
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: hashedUser(t, true)}
	svc := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "gate"})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: " Staff@School.test ", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.True(t, repo.lastLoginUpdated)
	assert.Equal(t, "staff@school.test", repo.requestedEmail)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "123", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "gate", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: hashedUser(t, false)}
	svc := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{AccessTokenSecret: "secret"})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@school.test", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: hashedUser(t, true)}
	svc := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{AccessTokenSecret: "secret"})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "staff@school.test", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.lastLoginUpdated)
}

func TestAuthServiceLoginUnknownUser(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{findByEmailErr: sql.ErrNoRows}, nil, zap.NewNop(), AuthConfig{AccessTokenSecret: "secret"})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@school.test", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginValidation(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, nil, zap.NewNop(), AuthConfig{AccessTokenSecret: "secret"})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 422, appErr.Status)
	assert.Contains(t, appErr.Fields, "email")
	assert.Contains(t, appErr.Fields, "password")
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: hashedUser(t, true)}
	issuer := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{AccessTokenSecret: "one"})
	verifier := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{AccessTokenSecret: "two"})

	res, err := issuer.Login(context.Background(), models.LoginRequest{Email: "staff@school.test", Password: "password"})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceCurrentUser(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: hashedUser(t, true)}
	svc := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "secret"})

	info, err := svc.CurrentUser(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "staff@school.test", info.Email)

	_, err = svc.CurrentUser(context.Background(), "999")
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)

	repo.userByEmail.Active = false
	_, err = svc.CurrentUser(context.Background(), "123")
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
}
