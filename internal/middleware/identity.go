package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindset-app/mindset-backend/internal/service"
)

// Identity resolves the principal set by JWTAuth to a user id and role.
// Handlers read them with CurrentIdentity.  Unknown principals and lookup
// failures are answered with 401.
func Identity(resolver *service.IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, _ := c.Get(PrincipalKey).(string)
			id, err := resolver.Resolve(c.Request().Context(), principal)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			c.Set(IdentityKey, id)
			c.Set(UserIDKey, id.UserID)
			c.Set(RoleKey, string(id.Role))
			return next(c)
		}
	}
}

// CurrentIdentity returns the identity stored by Identity.
func CurrentIdentity(c echo.Context) (service.Identity, bool) {
	id, ok := c.Get(IdentityKey).(service.Identity)
	return id, ok
}
