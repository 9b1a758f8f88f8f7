package middleware

import (
	"errors"
	"net/http"

	"clinic_backend/internal/models"
	"clinic_backend/internal/services"
	"clinic_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key holding the resolved *models.Identity.
const IdentityKey = "identity"

// AuthMiddleware resolves the bearer credential into the caller identity.
func AuthMiddleware(resolver services.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authorization header required", ""))
			return
		}
		token, ok := utils.BearerToken(authHeader)
		if !ok {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid authorization header format. Use Bearer <token>", ""))
			return
		}

		identity, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrValidation):
				utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired token", err.Error()))
			case errors.Is(err, services.ErrAccountNotFound):
				utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "No account is registered for this identity", ""))
			case errors.Is(err, services.ErrClinicianNotFound):
				utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Clinician profile not found for this account", ""))
			default:
				utils.LogError(err, "AuthMiddleware: identity resolution failed")
				utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to resolve caller identity", ""))
			}
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// RequireClinician rejects callers whose account has no clinician profile.
// It must run after AuthMiddleware.
func RequireClinician() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", ""))
			return
		}
		if !identity.IsClinician() {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Only clinicians can access this resource", ""))
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (*models.Identity, bool) {
	raw, exists := c.Get(IdentityKey)
	if !exists {
		return nil, false
	}
	identity, ok := raw.(*models.Identity)
	return identity, ok && identity != nil
}
