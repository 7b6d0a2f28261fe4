package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tahfizku/tahfiz-api/internal/models"
	appErrors "github.com/tahfizku/tahfiz-api/pkg/errors"
)

type mockUserRepo struct {
	user *models.User
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.user == nil || m.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func testAuthService(user *models.User) *AuthService {
	return NewAuthService(&mockUserRepo{user: user}, AuthConfig{Secret: "secret", Expiration: time.Hour}, nil, nil)
}

func activeTeacher(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "u1",
		Email:        "ustadz@example.com",
		PasswordHash: string(hash),
		FullName:     "Ustadz Ahmad",
		Role:         models.RoleTeacher,
		IsActive:     true,
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc := testAuthService(activeTeacher(t))

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ustadz@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, models.RoleTeacher, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := testAuthService(activeTeacher(t))

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ustadz@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc := testAuthService(activeTeacher(t))

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	user := activeTeacher(t)
	user.IsActive = false
	svc := testAuthService(user)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ustadz@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := testAuthService(activeTeacher(t))

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
