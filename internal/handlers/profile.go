package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"room-service/internal/identity"
	"room-service/internal/middleware"
)

// ProfileHandler exposes the authenticated user's identity attributes and
// passkeys. Passkey management is proxied to the identity provider.
type ProfileHandler struct {
	provider identity.Provider
}

// NewProfileHandler builds a ProfileHandler.
func NewProfileHandler(provider identity.Provider) *ProfileHandler {
	return &ProfileHandler{provider: provider}
}

// GetProfile returns the identity, effective role, and registered passkeys.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	passkeys, err := h.provider.ListPasskeys(c.Request.Context(), c.GetString("token"))
	if err != nil {
		respondProviderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"role":     middleware.RoleFromContext(c),
		"passkeys": passkeys,
	})
}

// DeletePasskey removes a passkey through the identity provider.
func (h *ProfileHandler) DeletePasskey(c *gin.Context) {
	passkeyID := c.Param("passkey_id")
	if passkeyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid passkey id"})
		return
	}

	if err := h.provider.DeletePasskey(c.Request.Context(), c.GetString("token"), passkeyID); err != nil {
		respondProviderError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// respondProviderError renders identity-provider failures: structured error
// lists pass through, everything else maps to a bad gateway.
func respondProviderError(c *gin.Context, err error) {
	if errors.Is(err, identity.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var apiErr *identity.APIError
	if errors.As(err, &apiErr) && len(apiErr.Errors) > 0 {
		c.JSON(apiErr.Status, gin.H{"errors": apiErr.Errors})
		return
	}

	c.JSON(http.StatusBadGateway, gin.H{"error": "identity provider unavailable"})
}
