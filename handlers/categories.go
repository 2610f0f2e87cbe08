package handlers

import (
	"errors"
	"net/http"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/database"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"github.com/labstack/echo/v4"
)

func categoryErr(err error) error {
	if errors.Is(err, database.ErrDuplicate) {
		return echo.NewHTTPError(http.StatusConflict, "A category with this name already exists")
	}
	return storeErr(err, "Category")
}

func (h *Handler) ListCategories(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	categories, err := h.store.ListCategories(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *Handler) GetCategory(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	category, err := h.store.FindCategoryBySlug(ctx, c.Param("slug"))
	if err != nil {
		return categoryErr(err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *Handler) CreateCategory(c echo.Context) error {
	var category models.Category
	if err := bindValid(c, &category); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.store.InsertCategory(ctx, &category); err != nil {
		return categoryErr(err)
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *Handler) UpdateCategory(c echo.Context) error {
	id, err := parseID(c, "id", "category")
	if err != nil {
		return err
	}
	var category models.Category
	if err := bindValid(c, &category); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	existing, err := h.store.FindCategory(ctx, id)
	if err != nil {
		return categoryErr(err)
	}
	category.ID = existing.ID
	category.CreatedAt = existing.CreatedAt
	if err := h.store.ReplaceCategory(ctx, &category); err != nil {
		return categoryErr(err)
	}
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory leaves products that reference the category untouched.
func (h *Handler) DeleteCategory(c echo.Context) error {
	id, err := parseID(c, "id", "category")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.store.DeleteCategory(ctx, id); err != nil {
		return categoryErr(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Category deleted"})
}
