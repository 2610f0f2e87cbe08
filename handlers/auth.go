package handlers

import (
	"errors"
	"net/http"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/database"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/middleware"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/utils"
	"github.com/labstack/echo/v4"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (h *Handler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		Expires:  h.now().Add(h.tokens.TTL()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) issueSession(c echo.Context, status int, user *models.User) error {
	token, err := h.tokens.GenerateJWT(user)
	if err != nil {
		return err
	}
	h.setSessionCookie(c, token)
	return c.JSON(status, authResponse{User: user, Token: token})
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return err
	}
	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hashed,
		Role:     models.RoleUser,
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.store.InsertUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "Email already registered")
		}
		return err
	}

	h.log.Infow("user registered", "user", user.ID.Hex())
	return h.issueSession(c, http.StatusCreated, user)
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	user, err := h.store.FindUserByEmail(ctx, req.Email)
	if errors.Is(err, database.ErrNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		return err
	}
	if user.Password == "" || !utils.CheckPassword(user.Password, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	return h.issueSession(c, http.StatusOK, user)
}

func (h *Handler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *Handler) CurrentUser(c echo.Context) error {
	return c.JSON(http.StatusOK, currentUser(c))
}
