package handlers

import (
	"errors"
	"net/http"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/database"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type wishlistRequest struct {
	ProductID string `json:"productId" form:"productId" validate:"required"`
}

func (h *Handler) loadWishlist(c echo.Context) (*models.Wishlist, error) {
	user := currentUser(c)
	ctx, cancel := h.ctx(c)
	defer cancel()

	w, err := h.store.FindWishlist(ctx, user.ID)
	if errors.Is(err, database.ErrNotFound) {
		return &models.Wishlist{UserID: user.ID, ProductIDs: []primitive.ObjectID{}}, nil
	}
	return w, err
}

// respondWishlist returns the wishlisted products that still exist.
func (h *Handler) respondWishlist(c echo.Context, w *models.Wishlist) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	products := []models.Product{}
	if len(w.ProductIDs) > 0 {
		found, err := h.store.FindProductsByIDs(ctx, w.ProductIDs)
		if err != nil {
			return err
		}
		products = found
	}
	return c.JSON(http.StatusOK, products)
}

func (h *Handler) GetWishlist(c echo.Context) error {
	w, err := h.loadWishlist(c)
	if err != nil {
		return err
	}
	return h.respondWishlist(c, w)
}

func (h *Handler) AddToWishlist(c echo.Context) error {
	var req wishlistRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	productID, err := parseHexID(req.ProductID, "product")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if _, err := h.store.FindProduct(ctx, productID); err != nil {
		return storeErr(err, "Product")
	}

	w, err := h.loadWishlist(c)
	if err != nil {
		return err
	}
	if w.Add(productID) {
		if err := h.store.SaveWishlist(ctx, w); err != nil {
			return storeErr(err, "Wishlist")
		}
	}
	return h.respondWishlist(c, w)
}

func (h *Handler) RemoveFromWishlist(c echo.Context) error {
	productID, err := parseID(c, "productId", "product")
	if err != nil {
		return err
	}

	w, err := h.loadWishlist(c)
	if err != nil {
		return err
	}
	if !w.Remove(productID) {
		return echo.NewHTTPError(http.StatusNotFound, "Product not in wishlist")
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.store.SaveWishlist(ctx, w); err != nil {
		return storeErr(err, "Wishlist")
	}
	return h.respondWishlist(c, w)
}
