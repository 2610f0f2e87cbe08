package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/database"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/logger"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/utils"
	"github.com/labstack/echo/v4"
)

const (
	CookieName = "token"
	userKey    = "user"
)

// Auth resolves the session token into a user record.
type Auth struct {
	users  database.UserStore
	tokens *utils.TokenManager
	log    logger.Logger
}

func NewAuth(users database.UserStore, tokens *utils.TokenManager, log logger.Logger) *Auth {
	return &Auth{users: users, tokens: tokens, log: log}
}

// tokenFrom reads the session cookie, falling back to a bearer header.
func tokenFrom(c echo.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	tokenParts := strings.SplitN(authHeader, " ", 2)
	if len(tokenParts) == 2 && strings.EqualFold(tokenParts[0], "Bearer") {
		return strings.TrimSpace(tokenParts[1])
	}
	return ""
}

func (a *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := tokenFrom(c)
		if tokenString == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
		}

		claims, err := a.tokens.ValidateJWT(tokenString)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}
		userID, err := claims.Subject()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}

		user, err := a.users.FindUser(c.Request().Context(), userID)
		if errors.Is(err, database.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "User no longer exists")
		}
		if err != nil {
			return err
		}

		c.Set(userKey, user)
		return next(c)
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
		}
		if !user.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
		}
		return next(c)
	}
}

// CurrentUser returns the user attached by RequireAuth, or nil.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userKey).(*models.User)
	return user
}

// SetCurrentUser attaches user to the request context.
func SetCurrentUser(c echo.Context, user *models.User) {
	c.Set(userKey, user)
}
