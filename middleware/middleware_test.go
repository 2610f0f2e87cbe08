package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/database"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/logger"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/utils"
	"github.com/labstack/echo/v4"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func codeOf(rec *httptest.ResponseRecorder, err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return rec.Code
}

func TestRequireAuth(t *testing.T) {
	store := database.NewMemoryStore()
	tokens := utils.NewTokenManager("secret", time.Hour)
	auth := NewAuth(store, tokens, logger.Nop())

	user := &models.User{Name: "Ann", Email: "ann@example.com"}
	store.InsertUser(context.Background(), user)
	token, _ := tokens.GenerateJWT(user)

	tests := []struct {
		name  string
		setup func(*http.Request)
		want  int
	}{
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: token}) }, http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc") }, http.StatusUnauthorized},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) }, http.StatusUnauthorized},
	}

	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := auth.RequireAuth(okHandler)(c)
			if got := codeOf(rec, err); got != tt.want {
				t.Fatalf("code = %d, want %d (err %v)", got, tt.want, err)
			}
			if tt.want == http.StatusOK && CurrentUser(c).ID != user.ID {
				t.Fatal("user not attached")
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()
	for _, tc := range []struct {
		role models.Role
		want int
	}{
		{models.RoleUser, http.StatusForbidden},
		{models.RoleAdmin, http.StatusOK},
	} {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
		SetCurrentUser(c, &models.User{Role: tc.role})
		if got := codeOf(rec, RequireAdmin(okHandler)(c)); got != tc.want {
			t.Fatalf("%s: code = %d", tc.role, got)
		}
	}
}

type failingAudit struct{ calls int }

func (f *failingAudit) InsertAuditLog(context.Context, *models.AuditLog) error {
	f.calls++
	return errors.New("disk full")
}

func (f *failingAudit) ListAuditLogs(context.Context, int64) ([]models.AuditLog, error) {
	return nil, nil
}

func TestAuditFailureDoesNotFailRequest(t *testing.T) {
	store := &failingAudit{}
	mw := Audit(store, logger.Nop(), time.Second)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/products/create", nil), rec)
	SetCurrentUser(c, &models.User{Email: "admin@example.com", Role: models.RoleAdmin})
	if err := mw(okHandler)(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || store.calls != 1 {
		t.Fatalf("code = %d, audit calls = %d", rec.Code, store.calls)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/products/", nil), rec)
	SetCurrentUser(c, &models.User{Role: models.RoleAdmin})
	mw(okHandler)(c)
	if store.calls != 1 {
		t.Fatal("reads must not be audited")
	}
}
