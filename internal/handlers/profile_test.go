package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"room-service/internal/identity"
	"room-service/internal/mocks"
	"room-service/internal/roles"
)

func setupProfileRouter(h *ProfileHandler, role roles.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(withIdentity(testUser(), role))
	router.GET("/profile", h.GetProfile)
	router.DELETE("/profile/passkeys/:passkey_id", h.DeletePasskey)
	return router
}

func TestGetProfile(t *testing.T) {
	provider := new(mocks.IdentityProviderMock)
	handler := NewProfileHandler(provider)

	provider.On("ListPasskeys", mock.Anything, "test-token").Return([]identity.Passkey{
		{ID: "pk1", Name: "Phone", CreatedAt: time.Now().Add(-time.Hour)},
	}, nil).Once()

	router := setupProfileRouter(handler, roles.RoleEditor)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		User     identity.User      `json:"user"`
		Role     roles.Role         `json:"role"`
		Passkeys []identity.Passkey `json:"passkeys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user-1", body.User.ID)
	assert.Equal(t, roles.RoleEditor, body.Role)
	require.Len(t, body.Passkeys, 1)
	assert.Equal(t, "pk1", body.Passkeys[0].ID)
	provider.AssertExpectations(t)
}

func TestGetProfileProviderUnauthorized(t *testing.T) {
	provider := new(mocks.IdentityProviderMock)
	handler := NewProfileHandler(provider)

	provider.On("ListPasskeys", mock.Anything, "test-token").
		Return(nil, identity.ErrUnauthorized).Once()

	router := setupProfileRouter(handler, roles.RoleUser)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeletePasskey(t *testing.T) {
	provider := new(mocks.IdentityProviderMock)
	handler := NewProfileHandler(provider)

	provider.On("DeletePasskey", mock.Anything, "test-token", "pk1").Return(nil).Once()

	router := setupProfileRouter(handler, roles.RoleUser)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/profile/passkeys/pk1", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	provider.AssertExpectations(t)
}

func TestDeletePasskeyProviderErrorPassesThrough(t *testing.T) {
	provider := new(mocks.IdentityProviderMock)
	handler := NewProfileHandler(provider)

	provider.On("DeletePasskey", mock.Anything, "test-token", "pk1").Return(&identity.APIError{
		Status: http.StatusUnprocessableEntity,
		Errors: []identity.ErrorDetail{{Code: "passkey_locked", Message: "passkey cannot be removed"}},
	}).Once()

	router := setupProfileRouter(handler, roles.RoleUser)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/profile/passkeys/pk1", nil))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Errors []identity.ErrorDetail `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "passkey_locked", body.Errors[0].Code)
}

func TestDeletePasskeyProviderUnavailable(t *testing.T) {
	provider := new(mocks.IdentityProviderMock)
	handler := NewProfileHandler(provider)

	provider.On("DeletePasskey", mock.Anything, "test-token", "pk1").
		Return(assert.AnError).Once()

	router := setupProfileRouter(handler, roles.RoleUser)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/profile/passkeys/pk1", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
