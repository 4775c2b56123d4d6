// Package middleware holds the gin middleware specific to traffic-gate routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/apierror"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/auth"
)

const claimsKey = "claims"

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// RequireScope rejects requests without a valid bearer token (401) or whose
// token lacks scope (403).
func RequireScope(verifier TokenVerifier, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apierror.Abort(c, http.StatusUnauthorized, apierror.CodeUnauthorized, "Missing authorization header", nil)
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			apierror.Abort(c, http.StatusUnauthorized, apierror.CodeUnauthorized, "Invalid authorization header format", nil)
			return
		}

		claims, err := verifier.ValidateToken(token)
		if err != nil {
			apierror.Abort(c, http.StatusUnauthorized, apierror.CodeUnauthorized, "Invalid token", nil)
			return
		}

		if !claims.HasScope(scope) {
			apierror.Abort(c, http.StatusForbidden, apierror.CodeForbidden, "Missing required scope: "+scope, nil)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// GetClaims returns the claims stored by RequireScope.
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
