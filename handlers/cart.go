package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/database"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/utils"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxCartRetries bounds how often a cart write is retried after losing a
// version race.
const maxCartRetries = 3

type cartItemRequest struct {
	ProductID string `json:"productId" form:"productId" query:"productId" validate:"required"`
	Quantity  int    `json:"quantity" form:"quantity"`
}

type cartLine struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

type cartView struct {
	ID      primitive.ObjectID `json:"id"`
	Items   []cartLine         `json:"items"`
	Total   float64            `json:"total"`
	Version int64              `json:"version"`
}

// mutateCart runs a read-modify-write on the user's cart, retrying when a
// concurrent writer bumped the version first.
func (h *Handler) mutateCart(ctx context.Context, userID primitive.ObjectID, fn func(*models.Cart) error) (*models.Cart, error) {
	for attempt := 0; attempt <= maxCartRetries; attempt++ {
		cart, err := h.store.FindCart(ctx, userID)
		if errors.Is(err, database.ErrNotFound) {
			cart = models.NewCart(userID)
		} else if err != nil {
			return nil, err
		}

		if err := fn(cart); err != nil {
			return nil, err
		}

		err = h.store.SaveCart(ctx, cart)
		if errors.Is(err, database.ErrConflict) {
			h.log.Debugw("cart version conflict", "user", userID.Hex(), "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}
		return cart, nil
	}
	return nil, fmt.Errorf("cart update gave up after %d retries: %w", maxCartRetries, database.ErrConflict)
}

// cartView joins the cart lines with current product data. Lines whose
// product was deleted are left out.
func (h *Handler) cartView(ctx context.Context, cart *models.Cart) (*cartView, error) {
	view := &cartView{ID: cart.ID, Items: []cartLine{}, Version: cart.Version}
	if len(cart.Items) == 0 {
		return view, nil
	}

	ids := make([]primitive.ObjectID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := h.store.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]utils.LineTotal, 0, len(cart.Items))
	for _, item := range cart.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		view.Items = append(view.Items, cartLine{Product: p, Quantity: item.Quantity})
		lines = append(lines, utils.LineTotal{UnitPrice: p.EffectivePrice(), Quantity: item.Quantity})
	}
	view.Total = utils.SumLines(lines)
	return view, nil
}

func (h *Handler) respondCart(ctx context.Context, c echo.Context, cart *models.Cart) error {
	view, err := h.cartView(ctx, cart)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func cartErr(err error) error {
	if errors.Is(err, models.ErrItemNotInCart) {
		return echo.NewHTTPError(http.StatusNotFound, "Item not found in cart")
	}
	return storeErr(err, "Cart")
}

func (h *Handler) GetCart(c echo.Context) error {
	user := currentUser(c)
	ctx, cancel := h.ctx(c)
	defer cancel()

	cart, err := h.store.FindCart(ctx, user.ID)
	if errors.Is(err, database.ErrNotFound) {
		cart = models.NewCart(user.ID)
	} else if err != nil {
		return err
	}
	return h.respondCart(ctx, c, cart)
}

func (h *Handler) AddToCart(c echo.Context) error {
	var req cartItemRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	productID, err := parseHexID(req.ProductID, "product")
	if err != nil {
		return err
	}
	if req.Quantity < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Quantity must be positive")
	}

	user := currentUser(c)
	ctx, cancel := h.ctx(c)
	defer cancel()
	if _, err := h.store.FindProduct(ctx, productID); err != nil {
		return storeErr(err, "Product")
	}

	cart, err := h.mutateCart(ctx, user.ID, func(cart *models.Cart) error {
		cart.Add(productID, req.Quantity)
		return nil
	})
	if err != nil {
		return cartErr(err)
	}
	return h.respondCart(ctx, c, cart)
}

// UpdateCartItem sets a line's quantity; zero or less drops the line.
func (h *Handler) UpdateCartItem(c echo.Context) error {
	var req cartItemRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	productID, err := parseHexID(req.ProductID, "product")
	if err != nil {
		return err
	}

	user := currentUser(c)
	ctx, cancel := h.ctx(c)
	defer cancel()
	cart, err := h.mutateCart(ctx, user.ID, func(cart *models.Cart) error {
		return cart.SetQuantity(productID, req.Quantity)
	})
	if err != nil {
		return cartErr(err)
	}
	return h.respondCart(ctx, c, cart)
}

func (h *Handler) RemoveFromCart(c echo.Context) error {
	var req cartItemRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	productID, err := parseHexID(req.ProductID, "product")
	if err != nil {
		return err
	}

	user := currentUser(c)
	ctx, cancel := h.ctx(c)
	defer cancel()
	cart, err := h.mutateCart(ctx, user.ID, func(cart *models.Cart) error {
		return cart.Remove(productID)
	})
	if err != nil {
		return cartErr(err)
	}
	return h.respondCart(ctx, c, cart)
}

// ClearCart empties the item list; the cart document itself stays.
func (h *Handler) ClearCart(c echo.Context) error {
	user := currentUser(c)
	ctx, cancel := h.ctx(c)
	defer cancel()

	cart, err := h.mutateCart(ctx, user.ID, func(cart *models.Cart) error {
		cart.Clear()
		return nil
	})
	if err != nil {
		return cartErr(err)
	}
	return h.respondCart(ctx, c, cart)
}
