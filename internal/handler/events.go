package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/mindset-app/mindset-backend/internal/middleware"
	"github.com/mindset-app/mindset-backend/internal/model"
	"github.com/mindset-app/mindset-backend/internal/pagination"
	"github.com/mindset-app/mindset-backend/internal/service"
)

const requestTimeout = 5 * time.Second

// CachePurger drops cached public responses after a write.
type CachePurger interface {
	Purge(ctx context.Context) error
}

type EventHandler struct {
	Events *service.EventService
	Cache  CachePurger
}

func NewEventHandler(events *service.EventService, cache CachePurger) *EventHandler {
	if events == nil {
		panic("nil event service passed to NewEventHandler")
	}
	return &EventHandler{Events: events, Cache: cache}
}

// EventJSON is the wire form of an event.
type EventJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	StartsAt  string `json:"startsAt"`
	Host      string `json:"host"`
	Status    string `json:"status"`
	Capacity  *int   `json:"capacity"`
	CreatedBy int64  `json:"createdBy"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func eventJSON(e model.Event) EventJSON {
	return EventJSON{
		ID:        e.ID,
		Title:     e.Title,
		Type:      e.Type,
		StartsAt:  pagination.FormatTime(e.StartsAt),
		Host:      e.Host,
		Status:    string(e.Status),
		Capacity:  e.Capacity,
		CreatedBy: e.CreatedBy,
		CreatedAt: pagination.FormatTime(e.CreatedAt),
		UpdatedAt: pagination.FormatTime(e.UpdatedAt),
	}
}

type listResponse[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"nextCursor"`
}

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// decodeJSON reads a JSON object body into dst.
func decodeJSON(c echo.Context, dst any) error {
	if err := json.NewDecoder(c.Request().Body).Decode(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json body")
	}
	return nil
}

func (h *EventHandler) purge() {
	if h.Cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.Cache.Purge(ctx); err != nil {
		log.Warn().Err(err).Msg("purge event cache")
	}
}

// List handles GET /events.
func (h *EventHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	limit := pagination.ParseLimit(c.QueryParam("limit"), pagination.DefaultEventLimit)
	page, err := h.Events.ListEvents(ctx, c.QueryParam("status"), limit, c.QueryParam("cursor"))
	if err != nil {
		return respondError(c, err)
	}
	items := make([]EventJSON, 0, len(page.Items))
	for _, e := range page.Items {
		items = append(items, eventJSON(e))
	}
	return c.JSON(http.StatusOK, listResponse[EventJSON]{Items: items, NextCursor: page.NextCursor})
}

// Get handles GET /events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	ev, err := h.Events.Get(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, eventJSON(*ev))
}

// Create handles POST /events.
func (h *EventHandler) Create(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	var in service.CreateEventInput
	if err := decodeJSON(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	ev, err := h.Events.Create(ctx, in, actor)
	if err != nil {
		return respondError(c, err)
	}
	h.purge()
	return c.JSON(http.StatusCreated, eventJSON(*ev))
}

// Update handles PATCH /events/:id.
func (h *EventHandler) Update(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	var patch service.EventPatch
	if err := decodeJSON(c, &patch); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	ev, err := h.Events.Update(ctx, c.Param("id"), patch, actor)
	if err != nil {
		return respondError(c, err)
	}
	h.purge()
	return c.JSON(http.StatusOK, eventJSON(*ev))
}

// Delete handles DELETE /events/:id.
func (h *EventHandler) Delete(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Events.Delete(ctx, c.Param("id"), actor); err != nil {
		return respondError(c, err)
	}
	h.purge()
	return c.NoContent(http.StatusNoContent)
}
