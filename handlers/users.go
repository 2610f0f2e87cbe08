package handlers

import (
	"net/http"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/utils"
	"github.com/labstack/echo/v4"
)

type profileRequest struct {
	Name     string `json:"name"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

type adminUserRequest struct {
	Name  string      `json:"name" validate:"required"`
	Email string      `json:"email" validate:"required,email"`
	Role  models.Role `json:"role" validate:"required,oneof=user admin"`
}

// UpdateProfile lets a user change their own name or password.
func (h *Handler) UpdateProfile(c echo.Context) error {
	var req profileRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	user := *currentUser(c)
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Password != "" {
		hashed, err := utils.HashPassword(req.Password)
		if err != nil {
			return err
		}
		user.Password = hashed
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.store.ReplaceUser(ctx, &user); err != nil {
		return storeErr(err, "User")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) ListUsers(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	users, err := h.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	user, err := h.store.FindUser(ctx, id)
	if err != nil {
		return storeErr(err, "User")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	var req adminUserRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	user, err := h.store.FindUser(ctx, id)
	if err != nil {
		return storeErr(err, "User")
	}
	user.Name = req.Name
	user.Email = req.Email
	user.Role = req.Role
	if err := h.store.ReplaceUser(ctx, user); err != nil {
		return storeErr(err, "User")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.store.DeleteUser(ctx, id); err != nil {
		return storeErr(err, "User")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "User deleted"})
}
