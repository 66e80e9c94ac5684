package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mindset-app/mindset-backend/internal/handler"
	"github.com/mindset-app/mindset-backend/internal/middleware"
	"github.com/mindset-app/mindset-backend/internal/model"
)

// RegisterEvents registers event reads (public, cached) and event writes
// (admin only).  Middleware is attached per route rather than per group
// because public and admin routes share the /events prefix.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, cache *middleware.ResponseCache, authn []echo.MiddlewareFunc) {
	e.GET("/events", h.List, cache.Middleware())
	e.GET("/events/:id", h.Get, cache.Middleware())

	admin := append(append([]echo.MiddlewareFunc{}, authn...), middleware.RequireRole(string(model.RoleAdmin)))
	e.POST("/events", h.Create, admin...)
	e.PATCH("/events/:id", h.Update, admin...)
	e.DELETE("/events/:id", h.Delete, admin...)
}

// RegisterRSVPs registers the caller's RSVP endpoints.  Writes are rate
// limited per user.
func RegisterRSVPs(e *echo.Echo, h *handler.RSVPHandler, limit echo.MiddlewareFunc, authn []echo.MiddlewareFunc) {
	limited := append(append([]echo.MiddlewareFunc{}, authn...), limit)
	e.POST("/events/:id/rsvp", h.Create, limited...)
	e.DELETE("/events/:id/rsvp", h.Delete, limited...)
	e.GET("/events/:id/rsvp", h.Get, authn...)
	e.GET("/me/rsvps", h.Mine, authn...)
}
