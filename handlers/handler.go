package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/database"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/jobs"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/logger"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/metrics"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/middleware"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/utils"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Broadcaster pushes a value to live admin clients.
type Broadcaster interface {
	Broadcast(v interface{})
}

// Feed is a Broadcaster that can also accept websocket clients.
type Feed interface {
	Broadcaster
	ServeWS(w http.ResponseWriter, r *http.Request) error
}

type SweepReporter interface {
	Health() jobs.SweepHealth
}

type Deps struct {
	Store        database.Store
	Tokens       *utils.TokenManager
	Feed         Feed
	Metrics      *metrics.Metrics
	Log          logger.Logger
	Sweep        SweepReporter
	CookieSecure bool
	DBTimeout    time.Duration
}

// Handler serves every REST operation. Handlers are safe for concurrent use;
// all shared state lives in the store and the feed.
type Handler struct {
	store        database.Store
	tokens       *utils.TokenManager
	feed         Feed
	metrics      *metrics.Metrics
	log          logger.Logger
	sweep        SweepReporter
	cookieSecure bool
	timeout      time.Duration
	now          func() time.Time
}

func New(d Deps) *Handler {
	timeout := d.DBTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Handler{
		store:        d.Store,
		tokens:       d.Tokens,
		feed:         d.Feed,
		metrics:      d.Metrics,
		log:          d.Log,
		sweep:        d.Sweep,
		cookieSecure: d.CookieSecure,
		timeout:      timeout,
		now:          time.Now,
	}
}

func (h *Handler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.timeout)
}

func parseID(c echo.Context, param, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+what+" ID")
	}
	return id, nil
}

func parseHexID(value, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+what+" ID")
	}
	return id, nil
}

// bindValid binds the request body into v and runs the registered validator.
func bindValid(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return c.Validate(v)
}

// storeErr maps sentinel store errors onto HTTP errors. Anything else is
// returned unchanged and ends up as a 500.
func storeErr(err error, what string) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, what+" not found")
	case errors.Is(err, database.ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, what+" already exists")
	case errors.Is(err, database.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "Concurrent update, please retry")
	case errors.Is(err, database.ErrInsufficientStock):
		return echo.NewHTTPError(http.StatusConflict, "Insufficient stock")
	default:
		return err
	}
}

func currentUser(c echo.Context) *models.User {
	return middleware.CurrentUser(c)
}

// NewErrorHandler renders every error as {"message": ...}. Server errors are
// logged and answered with a generic message.
func NewErrorHandler(log logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if code < http.StatusInternalServerError {
				if s, ok := he.Message.(string); ok {
					message = s
				} else {
					message = fmt.Sprint(he.Message)
				}
			}
		}
		if code >= http.StatusInternalServerError {
			log.Errorw("request error", "method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, map[string]string{"message": message})
		}
		if writeErr != nil {
			log.Errorw("write error response", "error", writeErr)
		}
	}
}
