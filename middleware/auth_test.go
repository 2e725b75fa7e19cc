package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cmcs/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	user := &models.User{
		ID:       3,
		Username: "jsmith",
		Role:     models.RoleCoordinator,
	}

	token, err := GenerateToken(user, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, "jsmith", claims.Username)
	assert.Equal(t, models.RoleCoordinator, claims.Role)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateToken(&models.User{ID: 1, Username: "a"}, time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token + "x")
	assert.Error(t, err)

	SetJWTSecret("other-secret")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateToken(&models.User{ID: 1, Username: "a"}, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func requestWithUser(user *models.User) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if user == nil {
		return r
	}
	ctx := context.WithValue(r.Context(), UserContextKey, user)
	return r.WithContext(ctx)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.RoleManager, models.RoleAdministrator)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"manager passes", &models.User{Role: models.RoleManager}, http.StatusOK},
		{"administrator passes", &models.User{Role: models.RoleAdministrator}, http.StatusOK},
		{"lecturer is forbidden", &models.User{Role: models.RoleLecturer}, http.StatusForbidden},
		{"coordinator is forbidden", &models.User{Role: models.RoleCoordinator}, http.StatusForbidden},
		{"missing user is unauthorized", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestWithUser(tt.user))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequirePasswordChange(t *testing.T) {
	handler := RequirePasswordChange(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	t.Run("provisioned user is blocked", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithUser(&models.User{MustChangePassword: true}))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("change-password stays reachable", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/change-password", nil)
		ctx := context.WithValue(r.Context(), UserContextKey, &models.User{MustChangePassword: true})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r.WithContext(ctx))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("settled user passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithUser(&models.User{MustChangePassword: false}))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
