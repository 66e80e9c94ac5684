package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mindset-app/mindset-backend/internal/handler"
)

// RegisterAuth registers the account endpoints.  Register, login, refresh
// and logout work without an access token; the rest need authn.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authn []echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	g.GET("/me", a.Me, authn...)
	g.POST("/logout-all", a.LogoutAll, authn...)
}
