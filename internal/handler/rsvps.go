package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mindset-app/mindset-backend/internal/middleware"
	"github.com/mindset-app/mindset-backend/internal/pagination"
	"github.com/mindset-app/mindset-backend/internal/service"
)

type RSVPHandler struct {
	RSVPs *service.RSVPService
}

func NewRSVPHandler(rsvps *service.RSVPService) *RSVPHandler {
	if rsvps == nil {
		panic("nil rsvp service passed to NewRSVPHandler")
	}
	return &RSVPHandler{RSVPs: rsvps}
}

type rsvpReq struct {
	Status string `json:"status" validate:"required"`
}

type rsvpJSON struct {
	EventID   string `json:"eventId"`
	UserID    int64  `json:"userId"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type myRSVPJSON struct {
	Event  EventJSON `json:"event"`
	Status string    `json:"status"`
}

// Create handles POST /events/:id/rsvp.
func (h *RSVPHandler) Create(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	var req rsvpReq
	if err := bindAndValidate(c, &req, "status is required"); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	rv, err := h.RSVPs.Create(ctx, c.Param("id"), actor.UserID, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, rsvpJSON{EventID: rv.EventID, UserID: rv.UserID, Status: string(rv.Status)})
}

// Delete handles DELETE /events/:id/rsvp.
func (h *RSVPHandler) Delete(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.RSVPs.Cancel(ctx, c.Param("id"), actor.UserID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Get handles GET /events/:id/rsvp.
func (h *RSVPHandler) Get(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	ctx, cancel := requestContext(c)
	defer cancel()
	rv, err := h.RSVPs.Get(ctx, c.Param("id"), actor.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rsvpJSON{
		EventID:   rv.EventID,
		UserID:    rv.UserID,
		Status:    string(rv.Status),
		CreatedAt: pagination.FormatTime(rv.CreatedAt),
	})
}

// Mine handles GET /me/rsvps.
func (h *RSVPHandler) Mine(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	ctx, cancel := requestContext(c)
	defer cancel()
	limit := pagination.ParseLimit(c.QueryParam("limit"), pagination.DefaultRSVPLimit)
	page, err := h.RSVPs.ListMine(ctx, actor.UserID, limit, c.QueryParam("cursor"))
	if err != nil {
		return respondError(c, err)
	}
	items := make([]myRSVPJSON, 0, len(page.Items))
	for _, it := range page.Items {
		items = append(items, myRSVPJSON{Event: eventJSON(it.Event), Status: string(it.RSVP.Status)})
	}
	return c.JSON(http.StatusOK, listResponse[myRSVPJSON]{Items: items, NextCursor: page.NextCursor})
}
