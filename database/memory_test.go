package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemorySearchMinRating(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	cheap := &models.Product{Title: "Cheap", Price: 10}
	pricey := &models.Product{Title: "Pricey", Price: 20}
	for _, p := range []*models.Product{cheap, pricey} {
		if err := s.InsertProduct(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	for _, star := range []int{5, 3} {
		if _, err := s.UpsertRating(ctx, cheap.ID, models.Rating{Star: star, PostedBy: primitive.NewObjectID()}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.SearchProducts(ctx, ProductQuery{MinRating: floatPtr(4)})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != cheap.ID {
		t.Fatalf("got %+v", got)
	}
	if got[0].AverageRating != 4 {
		t.Fatalf("average = %v", got[0].AverageRating)
	}
}

func TestMemoryCategoryDeleteKeepsProducts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	cat := &models.Category{Name: "Lamps"}
	if err := s.InsertCategory(ctx, cat); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertCategory(ctx, &models.Category{Name: "lamps"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate slug err = %v", err)
	}
	p := &models.Product{Title: "Desk lamp", Category: cat.Name}
	if err := s.InsertProduct(ctx, p); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.FindProduct(ctx, p.ID); err != nil {
		t.Fatalf("product gone after category delete: %v", err)
	}
	if err := s.DeleteCategory(ctx, cat.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestMemoryCartVersioning(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	user := primitive.NewObjectID()

	cart := models.NewCart(user)
	cart.Add(primitive.NewObjectID(), 1)
	if err := s.SaveCart(ctx, cart); err != nil {
		t.Fatal(err)
	}
	if cart.Version != 1 {
		t.Fatalf("version = %d", cart.Version)
	}

	a, _ := s.FindCart(ctx, user)
	b, _ := s.FindCart(ctx, user)
	a.Add(primitive.NewObjectID(), 1)
	if err := s.SaveCart(ctx, a); err != nil {
		t.Fatal(err)
	}
	b.Clear()
	if err := s.SaveCart(ctx, b); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale save err = %v", err)
	}

	got, _ := s.FindCart(ctx, user)
	if len(got.Items) != 2 || got.Version != 2 {
		t.Fatalf("cart = %+v", got)
	}

	if err := s.SaveCart(ctx, models.NewCart(user)); !errors.Is(err, ErrConflict) {
		t.Fatalf("second insert err = %v", err)
	}
}

func TestMemoryOrderEmailMarkIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	o := &models.Order{UserID: primitive.NewObjectID(), Email: "a@b.co"}
	if err := s.InsertOrder(ctx, o); err != nil {
		t.Fatal(err)
	}

	due, err := s.OrdersAwaitingEmail(ctx, OrderEmailPending, 10)
	if err != nil || len(due) != 1 {
		t.Fatalf("awaiting = %v, %v", due, err)
	}
	if due, _ := s.OrdersAwaitingEmail(ctx, OrderEmailDelivered, 10); len(due) != 0 {
		t.Fatalf("pending order awaiting delivered email: %v", due)
	}

	now := time.Now()
	ok, err := s.MarkOrderEmailSent(ctx, o.ID, OrderEmailPending, now)
	if err != nil || !ok {
		t.Fatalf("first mark = %v, %v", ok, err)
	}
	if ok, _ := s.MarkOrderEmailSent(ctx, o.ID, OrderEmailPending, now); ok {
		t.Fatal("second mark should lose")
	}
	if due, _ := s.OrdersAwaitingEmail(ctx, OrderEmailPending, 10); len(due) != 0 {
		t.Fatalf("still awaiting: %v", due)
	}

	// Rewinding out of Delivered and back does not resend.
	delivered, err := s.SetOrderStatus(ctx, o.ID, o.Version, models.OrderStatusDelivered)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.MarkOrderEmailSent(ctx, o.ID, OrderEmailDelivered, now); !ok {
		t.Fatal("delivered mark failed")
	}
	shipped, err := s.SetOrderStatus(ctx, o.ID, delivered.Version, models.OrderStatusShipped)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetOrderStatus(ctx, o.ID, shipped.Version, models.OrderStatusDelivered); err != nil {
		t.Fatal(err)
	}
	if due, _ := s.OrdersAwaitingEmail(ctx, OrderEmailDelivered, 10); len(due) != 0 {
		t.Fatalf("delivered email re-queued: %v", due)
	}
}

func TestMemoryAdjustStock(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	p := &models.Product{Title: "Mug", Stock: 2}
	if err := s.InsertProduct(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := s.AdjustStock(ctx, p.ID, -3); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v", err)
	}
	if err := s.AdjustStock(ctx, p.ID, -2); err != nil {
		t.Fatal(err)
	}
	got, _ := s.FindProduct(ctx, p.ID)
	if got.Stock != 0 {
		t.Fatalf("stock = %d", got.Stock)
	}
	if err := s.AdjustStock(ctx, primitive.NewObjectID(), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown product err = %v", err)
	}
}

func TestMemoryUserEmailUniqueAndPromo(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	u := &models.User{Name: "Ann", Email: " Ann@Example.com"}
	if err := s.InsertUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if u.Email != "ann@example.com" || u.Role != models.RoleUser {
		t.Fatalf("user = %+v", u)
	}
	if err := s.InsertUser(ctx, &models.User{Email: "ANN@example.com"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate err = %v", err)
	}

	cutoff := time.Now()
	due, _ := s.UsersDueForPromo(ctx, cutoff, 10)
	if len(due) != 1 {
		t.Fatalf("due = %d", len(due))
	}
	if ok, _ := s.MarkPromoSent(ctx, u.ID, cutoff, cutoff); !ok {
		t.Fatal("mark failed")
	}
	if ok, _ := s.MarkPromoSent(ctx, u.ID, cutoff, cutoff); ok {
		t.Fatal("second mark should lose")
	}
	if due, _ := s.UsersDueForPromo(ctx, cutoff, 10); len(due) != 0 {
		t.Fatalf("still due: %d", len(due))
	}
}

func TestMemorySetOrderStatusChecksVersion(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	o := &models.Order{UserID: primitive.NewObjectID()}
	if err := s.InsertOrder(ctx, o); err != nil {
		t.Fatal(err)
	}
	updated, err := s.SetOrderStatus(ctx, o.ID, o.Version, models.OrderStatusAccepted)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Version != o.Version+1 {
		t.Fatalf("version = %d", updated.Version)
	}
	if _, err := s.SetOrderStatus(ctx, o.ID, o.Version, models.OrderStatusAccepted); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale write err = %v, want ErrConflict", err)
	}
	if _, err := s.SetOrderStatus(ctx, primitive.NewObjectID(), 1, models.OrderStatusAccepted); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing order err = %v", err)
	}
}

func TestMemoryUpsertRatingKeepsConcurrentRaters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := &models.Product{Title: "Chair", Price: 40}
	if err := s.InsertProduct(ctx, p); err != nil {
		t.Fatal(err)
	}

	raters := make([]primitive.ObjectID, 8)
	var wg sync.WaitGroup
	for i := range raters {
		raters[i] = primitive.NewObjectID()
		wg.Add(1)
		go func(user primitive.ObjectID) {
			defer wg.Done()
			if _, err := s.UpsertRating(ctx, p.ID, models.Rating{Star: 4, PostedBy: user}); err != nil {
				t.Error(err)
			}
		}(raters[i])
	}
	wg.Wait()

	got, err := s.UpsertRating(ctx, p.ID, models.Rating{Star: 2, PostedBy: raters[0]})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Ratings) != len(raters) {
		t.Fatalf("ratings = %d, want %d", len(got.Ratings), len(raters))
	}
	if want := float64(4*7+2) / 8; got.AverageRating != want {
		t.Fatalf("average = %v, want %v", got.AverageRating, want)
	}
	if _, err := s.UpsertRating(ctx, primitive.NewObjectID(), models.Rating{Star: 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing product err = %v", err)
	}
}
