package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/database"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"github.com/labstack/echo/v4"
)

const maxPageSize = 100

type productPage struct {
	Items []models.Product `json:"items"`
	Page  int64            `json:"page"`
	Limit int64            `json:"limit"`
}

type rateRequest struct {
	Star    int    `json:"star" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func queryFloat(c echo.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return &v, nil
}

func queryInt(c echo.Context, name string, fallback int64) (int64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return v, nil
}

// productQuery turns the catalog query string into a ProductQuery. The
// second result is the 1-based page, meaningful only when Limit > 0.
func productQuery(c echo.Context) (database.ProductQuery, int64, error) {
	q := database.ProductQuery{
		Search:      strings.TrimSpace(c.QueryParam("search")),
		Category:    c.QueryParam("category"),
		SubCategory: c.QueryParam("subCategory"),
		SortBy:      database.SortByCreatedAt,
		Descending:  true,
	}

	var err error
	if q.MinPrice, err = queryFloat(c, "minPrice"); err != nil {
		return q, 0, err
	}
	if q.MaxPrice, err = queryFloat(c, "maxPrice"); err != nil {
		return q, 0, err
	}
	if q.MinRating, err = queryFloat(c, "minRating"); err != nil {
		return q, 0, err
	}

	if sortBy := c.QueryParam("sortBy"); sortBy != "" {
		q.SortBy = database.SortKey(sortBy)
		if !q.SortBy.Valid() {
			return q, 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid sortBy")
		}
	}
	switch c.QueryParam("order") {
	case "", "desc":
	case "asc":
		q.Descending = false
	default:
		return q, 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid order")
	}

	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return q, 0, err
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return q, 0, err
	}
	if page < 1 {
		page = 1
	}
	if limit > 0 {
		q.Limit = limit
		q.Skip = (page - 1) * limit
	}
	return q, page, nil
}

func (h *Handler) ListProducts(c echo.Context) error {
	q, page, err := productQuery(c)
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	products, err := h.store.SearchProducts(ctx, q)
	if err != nil {
		return err
	}

	if q.Limit > 0 {
		return c.JSON(http.StatusOK, productPage{Items: products, Page: page, Limit: q.Limit})
	}
	return c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c echo.Context) error {
	id, err := parseID(c, "id", "product")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	product, err := h.store.FindProduct(ctx, id)
	if err != nil {
		return storeErr(err, "Product")
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct accepts JSON or a multipart/urlencoded form. Images are
// URL values; nothing is uploaded.
func (h *Handler) CreateProduct(c echo.Context) error {
	var product models.Product
	if err := bindValid(c, &product); err != nil {
		return err
	}
	product.Ratings = []models.Rating{}
	if product.Images == nil {
		product.Images = []string{}
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.store.InsertProduct(ctx, &product); err != nil {
		return storeErr(err, "Product")
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct replaces the product; ratings and creation time are kept.
func (h *Handler) UpdateProduct(c echo.Context) error {
	id, err := parseID(c, "id", "product")
	if err != nil {
		return err
	}
	var product models.Product
	if err := bindValid(c, &product); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	existing, err := h.store.FindProduct(ctx, id)
	if err != nil {
		return storeErr(err, "Product")
	}
	product.ID = existing.ID
	product.Ratings = existing.Ratings
	product.CreatedAt = existing.CreatedAt
	if product.Images == nil {
		product.Images = []string{}
	}
	if err := h.store.ReplaceProduct(ctx, &product); err != nil {
		return storeErr(err, "Product")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *Handler) DeleteProduct(c echo.Context) error {
	id, err := parseID(c, "id", "product")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.store.DeleteProduct(ctx, id); err != nil {
		return storeErr(err, "Product")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Product deleted"})
}

// RateProduct upserts the caller's rating on the product.
func (h *Handler) RateProduct(c echo.Context) error {
	id, err := parseID(c, "id", "product")
	if err != nil {
		return err
	}
	var req rateRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	product, err := h.store.UpsertRating(ctx, id, models.Rating{
		Star:     req.Star,
		Comment:  req.Comment,
		PostedBy: currentUser(c).ID,
		PostedAt: h.now(),
	})
	if err != nil {
		return storeErr(err, "Product")
	}
	return c.JSON(http.StatusOK, product)
}
