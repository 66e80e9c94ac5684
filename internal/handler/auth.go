package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mindset-app/mindset-backend/internal/middleware"
	"github.com/mindset-app/mindset-backend/internal/service"
)

// AuthHandler serves the account endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	if auth == nil {
		panic("nil auth service passed to NewAuthHandler")
	}
	return &AuthHandler{Auth: auth}
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func userJSON(p service.Profile) userPart {
	return userPart{ID: p.User.ID, Name: p.User.Name, Email: p.User.Email, Role: string(p.Role)}
}

func sessionJSON(s *service.Session) authResp {
	return authResp{
		User:    userJSON(s.Profile),
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp},
	}
}

// Register: create the account and return a token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var in service.RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	sess, err := h.Auth.Register(ctx, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, sessionJSON(sess))
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var in service.LoginInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	sess, err := h.Auth.Login(ctx, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

// Refresh: rotate the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bindAndValidate(c, &req, "refresh_token required"); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	sess, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

// Logout: revoke the given refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := bindAndValidate(c, &req, "refresh_token required"); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Auth.Logout(ctx, req.RefreshToken); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll: revoke every session of the caller (protected).
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Auth.LogoutAll(ctx, actor.UserID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me: profile of the caller, with members as the default role.
func (h *AuthHandler) Me(c echo.Context) error {
	actor, _ := middleware.CurrentIdentity(c)
	ctx, cancel := requestContext(c)
	defer cancel()
	p, err := h.Auth.Me(ctx, actor.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, userJSON(p))
}
