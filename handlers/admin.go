package handlers

import (
	"net/http"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/jobs"
	"github.com/labstack/echo/v4"
)

const defaultAuditLimit = 100

func (h *Handler) ListAuditLogs(c echo.Context) error {
	limit, err := queryInt(c, "limit", defaultAuditLimit)
	if err != nil {
		return err
	}
	if limit == 0 {
		limit = defaultAuditLimit
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	entries, err := h.store.ListAuditLogs(ctx, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

// OrdersFeed upgrades to a websocket that receives every new order.
func (h *Handler) OrdersFeed(c echo.Context) error {
	if err := h.feed.ServeWS(c.Response(), c.Request()); err != nil {
		// The upgrader has already written the HTTP error.
		h.log.Debugw("websocket upgrade failed", "error", err)
	}
	return nil
}

type healthResponse struct {
	Status     string            `json:"status"`
	Store      string            `json:"store"`
	EmailSweep *jobs.SweepHealth `json:"emailSweep,omitempty"`
}

func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	resp := healthResponse{Status: "ok", Store: "ok"}
	if h.sweep != nil {
		sweep := h.sweep.Health()
		resp.EmailSweep = &sweep
	}
	if err := h.store.Ping(ctx); err != nil {
		h.log.Warnw("health check: store unreachable", "error", err)
		resp.Status, resp.Store = "degraded", "unreachable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
