package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ledger-service/internal/httputil"
	"ledger-service/internal/policy"
	"ledger-service/pkg/jwtutil"
	"ledger-service/pkg/logger"
	"ledger-service/prometheus"
)

const identityKey = "identity"

// JWTAuthMiddleware creates a middleware that validates bearer tokens
// and stores the resolved identity in the request context. Every
// resolution failure gets the same generic rejection.
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header")
				prometheus.RecordAuthError("missing_header")
				return httputil.Unauthorized(c)
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format")
				prometheus.RecordAuthError("invalid_header")
				return httputil.Unauthorized(c)
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return httputil.Unauthorized(c)
			}

			c.Set("claims", claims)
			c.Set(identityKey, policy.Identity{
				UserID:         claims.UserID,
				OrganizationID: claims.OrganizationID,
				Role:           claims.Role,
			})
			log.Debug("Token validated",
				zap.Uint("user_id", claims.UserID),
				zap.Uint("organization_id", claims.OrganizationID),
				zap.String("role", string(claims.Role)))

			return next(c)
		}
	}
}

// IdentityFromContext retrieves the identity stored by the auth
// middleware.
func IdentityFromContext(c echo.Context) (policy.Identity, bool) {
	id, ok := c.Get(identityKey).(policy.Identity)
	return id, ok
}

// ClaimsFromContext retrieves the raw token claims.
func ClaimsFromContext(c echo.Context) (*jwtutil.Claims, bool) {
	claims, ok := c.Get("claims").(*jwtutil.Claims)
	return claims, ok
}
