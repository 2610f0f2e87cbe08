package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/database"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/logger"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"github.com/labstack/echo/v4"
)

// statusOf is the status the client will see once the error handler runs.
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Audit appends an audit entry for every write made by an authenticated
// user. A failed audit insert is logged and does not affect the response.
func Audit(store database.AuditStore, log logger.Logger, timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			req := c.Request()
			user := CurrentUser(c)
			if user == nil || !isWrite(req.Method) {
				return err
			}

			entry := &models.AuditLog{
				ActorID:    user.ID,
				ActorEmail: user.Email,
				Method:     req.Method,
				Path:       req.URL.Path,
				Status:     statusOf(c, err),
				IP:         c.RealIP(),
				Timestamp:  time.Now(),
			}
			ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), timeout)
			defer cancel()
			if auditErr := store.InsertAuditLog(ctx, entry); auditErr != nil {
				log.Errorw("audit write failed", "path", entry.Path, "actor", entry.ActorEmail, "error", auditErr)
			}
			return err
		}
	}
}
