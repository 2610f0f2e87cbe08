package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/database"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/utils"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type orderLineRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items   []orderLineRequest `json:"items" validate:"required,min=1,dive"`
	Address string             `json:"address" validate:"required"`
	Phone   string             `json:"phone" validate:"required"`
	// Total is accepted for compatibility and only compared against the
	// computed total.
	Total *float64 `json:"total"`
}

type checkoutRequest struct {
	Address string   `json:"address" validate:"required"`
	Phone   string   `json:"phone" validate:"required"`
	Total   *float64 `json:"total"`
}

type statusRequest struct {
	Status *int `json:"status" validate:"required"`
}

type shippingInfo struct {
	address string
	phone   string
	total   *float64
}

// placeOrder prices the lines from the catalog, reserves stock and stores the
// order. Stock already taken is given back if a later step fails.
func (h *Handler) placeOrder(ctx context.Context, user *models.User, lines []models.CartItem, ship shippingInfo) (*models.Order, error) {
	ids := make([]primitive.ObjectID, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Quantity must be at least 1")
		}
		ids = append(ids, l.ProductID)
	}

	products, err := h.store.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]models.OrderItem, 0, len(lines))
	totals := make([]utils.LineTotal, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Product "+l.ProductID.Hex()+" not found")
		}
		price := p.EffectivePrice()
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Title:     p.Title,
			UnitPrice: price,
			Quantity:  l.Quantity,
		})
		totals = append(totals, utils.LineTotal{UnitPrice: price, Quantity: l.Quantity})
	}
	total := utils.SumLines(totals)
	if ship.total != nil && !utils.SameAmount(*ship.total, total) {
		h.log.Warnw("client order total ignored", "user", user.ID.Hex(), "client", *ship.total, "computed", total)
	}

	reserved := make([]models.OrderItem, 0, len(items))
	release := func() {
		for _, it := range reserved {
			if err := h.store.AdjustStock(context.WithoutCancel(ctx), it.ProductID, it.Quantity); err != nil {
				h.log.Errorw("stock release failed", "product", it.ProductID.Hex(), "quantity", it.Quantity, "error", err)
			}
		}
	}
	for _, it := range items {
		if err := h.store.AdjustStock(ctx, it.ProductID, -it.Quantity); err != nil {
			release()
			if errors.Is(err, database.ErrInsufficientStock) {
				return nil, echo.NewHTTPError(http.StatusConflict, "Insufficient stock for "+it.Title)
			}
			return nil, storeErr(err, "Product")
		}
		reserved = append(reserved, it)
	}

	now := h.now()
	order := &models.Order{
		Reference: utils.NewOrderReference(now),
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Items:     items,
		Total:     total,
		Address:   ship.address,
		Phone:     ship.phone,
		Status:    models.OrderStatusPending,
	}
	if err := h.store.InsertOrder(ctx, order); err != nil {
		release()
		return nil, err
	}

	if h.metrics != nil {
		h.metrics.OrdersCreated.Inc()
	}
	if h.feed != nil {
		h.feed.Broadcast(order)
	}
	h.log.Infow("order placed", "order", order.Reference, "user", user.ID.Hex(), "total", order.Total)
	return order, nil
}

// CreateOrder places an order for an explicit list of lines.
func (h *Handler) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	lines := make([]models.CartItem, 0, len(req.Items))
	for _, it := range req.Items {
		id, err := parseHexID(it.ProductID, "product")
		if err != nil {
			return err
		}
		lines = append(lines, models.CartItem{ProductID: id, Quantity: it.Quantity})
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	order, err := h.placeOrder(ctx, currentUser(c), lines, shippingInfo{
		address: req.Address,
		phone:   req.Phone,
		total:   req.Total,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, order)
}

// Checkout orders everything in the caller's cart and empties it. The cart is
// claimed first with a versioned clear, so of two concurrent checkouts of the
// same cart only one places an order.
func (h *Handler) Checkout(c echo.Context) error {
	var req checkoutRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	user := currentUser(c)
	ctx, cancel := h.ctx(c)
	defer cancel()

	cart, err := h.store.FindCart(ctx, user.ID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}
	if cart == nil || len(cart.Items) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Cart is empty")
	}

	lines := append([]models.CartItem(nil), cart.Items...)
	cart.Clear()
	if err := h.store.SaveCart(ctx, cart); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return echo.NewHTTPError(http.StatusConflict, "Cart changed during checkout, please retry")
		}
		return err
	}

	order, err := h.placeOrder(ctx, user, lines, shippingInfo{
		address: req.Address,
		phone:   req.Phone,
		total:   req.Total,
	})
	if err != nil {
		h.restoreCart(ctx, user.ID, lines)
		return err
	}
	return c.JSON(http.StatusCreated, order)
}

// restoreCart puts the lines of a failed checkout back, merged with anything
// added since the cart was claimed.
func (h *Handler) restoreCart(ctx context.Context, userID primitive.ObjectID, lines []models.CartItem) {
	_, err := h.mutateCart(context.WithoutCancel(ctx), userID, func(cart *models.Cart) error {
		for _, l := range lines {
			cart.Add(l.ProductID, l.Quantity)
		}
		return nil
	})
	if err != nil {
		h.log.Errorw("cart not restored after failed checkout", "user", userID.Hex(), "error", err)
	}
}

func (h *Handler) ListMyOrders(c echo.Context) error {
	user := currentUser(c)
	ctx, cancel := h.ctx(c)
	defer cancel()

	orders, err := h.store.ListOrders(ctx, database.OrderFilter{UserID: &user.ID})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrder returns the order if it belongs to the caller. Admins can read any
// order; for everyone else a foreign order looks like a missing one.
func (h *Handler) GetOrder(c echo.Context) error {
	id, err := parseID(c, "id", "order")
	if err != nil {
		return err
	}

	user := currentUser(c)
	ctx, cancel := h.ctx(c)
	defer cancel()
	order, err := h.store.FindOrder(ctx, id)
	if err != nil {
		return storeErr(err, "Order")
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		return echo.NewHTTPError(http.StatusNotFound, "Order not found")
	}
	return c.JSON(http.StatusOK, order)
}

func (h *Handler) ListAllOrders(c echo.Context) error {
	var filter database.OrderFilter
	if raw := c.QueryParam("status"); raw != "" {
		n, err := strconv.Atoi(raw)
		status := models.OrderStatus(n)
		if err != nil || !status.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid status")
		}
		filter.Status = &status
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	orders, err := h.store.ListOrders(ctx, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *Handler) setStatus(c echo.Context, next func(models.OrderStatus) models.OrderStatus) error {
	id, err := parseID(c, "id", "order")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	order, err := h.store.FindOrder(ctx, id)
	if err != nil {
		return storeErr(err, "Order")
	}
	status := next(order.Status)
	if status == order.Status {
		return c.JSON(http.StatusOK, order)
	}

	updated, err := h.store.SetOrderStatus(ctx, id, order.Version, status)
	if err != nil {
		return storeErr(err, "Order")
	}
	h.log.Infow("order status changed", "order", updated.Reference, "from", order.Status.String(), "to", status.String())
	return c.JSON(http.StatusOK, updated)
}

// UpdateOrderStatus sets any status in range, whatever the current one is.
func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	var req statusRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	status := models.OrderStatus(*req.Status)
	if !status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid status")
	}
	return h.setStatus(c, func(models.OrderStatus) models.OrderStatus { return status })
}

func (h *Handler) AdvanceOrder(c echo.Context) error {
	return h.setStatus(c, models.OrderStatus.Next)
}

func (h *Handler) RewindOrder(c echo.Context) error {
	return h.setStatus(c, models.OrderStatus.Prev)
}

func (h *Handler) CancelOrder(c echo.Context) error {
	return h.setStatus(c, func(models.OrderStatus) models.OrderStatus { return models.OrderStatusCancelled })
}

func (h *Handler) DeleteOrder(c echo.Context) error {
	id, err := parseID(c, "id", "order")
	if err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.store.DeleteOrder(ctx, id); err != nil {
		return storeErr(err, "Order")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Order deleted"})
}
