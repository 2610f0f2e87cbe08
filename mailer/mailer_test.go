package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/config"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/logger"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
)

func TestHTTPMailerSend(t *testing.T) {
	var got httpMailRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewHTTPMailer(srv.URL, "key-123", "shop@example.com")
	err := m.Send(context.Background(), Message{To: "ann@example.com", Subject: "hi", HTML: "<p>x</p>"})
	if err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer key-123" {
		t.Fatalf("auth header = %q", auth)
	}
	if got.From != "shop@example.com" || got.To != "ann@example.com" || got.Subject != "hi" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestHTTPMailerReportsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewHTTPMailer(srv.URL, "", "shop@example.com").Send(context.Background(), Message{To: "a@b.co"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v", err)
	}
}

func TestTemplates(t *testing.T) {
	o := &models.Order{
		Reference: "ORD-1",
		Name:      "Ann <admin>",
		Email:     "ann@example.com",
		Items:     []models.OrderItem{{Title: "Mug", UnitPrice: 4.5, Quantity: 2}},
		Total:     9,
	}
	msg, err := OrderReceived(o)
	if err != nil {
		t.Fatal(err)
	}
	if msg.To != o.Email || !strings.Contains(msg.Subject, "ORD-1") {
		t.Fatalf("msg = %+v", msg)
	}
	if !strings.Contains(msg.HTML, "2 x 4.50") || !strings.Contains(msg.HTML, "Total: 9.00") {
		t.Fatalf("body = %s", msg.HTML)
	}
	if strings.Contains(msg.HTML, "<admin>") {
		t.Fatal("name was not escaped")
	}

	if _, err := OrderDelivered(o); err != nil {
		t.Fatal(err)
	}
	if msg, err := Promotion(&models.User{Name: "Ann", Email: "ann@example.com"}); err != nil || msg.To != "ann@example.com" {
		t.Fatalf("promo = %+v, %v", msg, err)
	}
}

func TestNewPicksDriver(t *testing.T) {
	m, err := New(config.MailConfig{Driver: config.MailLog}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.(*LogMailer); !ok {
		t.Fatalf("got %T", m)
	}
	if _, err := New(config.MailConfig{Driver: "pigeon"}, logger.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
