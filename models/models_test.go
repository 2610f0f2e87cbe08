package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCartAddMergesSameProduct(t *testing.T) {
	cart := NewCart(primitive.NewObjectID())
	pid := primitive.NewObjectID()

	cart.Add(pid, 1)
	cart.Add(pid, 1)

	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", cart.Items[0].Quantity)
	}
}

func TestCartSetQuantity(t *testing.T) {
	pid := primitive.NewObjectID()
	other := primitive.NewObjectID()

	tests := []struct {
		name      string
		target    primitive.ObjectID
		quantity  int
		wantErr   error
		wantLines int
		wantQty   int
	}{
		{name: "set", target: pid, quantity: 5, wantLines: 1, wantQty: 5},
		{name: "zero removes", target: pid, quantity: 0, wantLines: 0},
		{name: "negative removes", target: pid, quantity: -3, wantLines: 0},
		{name: "unknown line", target: other, quantity: 2, wantErr: ErrItemNotInCart, wantLines: 1, wantQty: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := NewCart(primitive.NewObjectID())
			cart.Add(pid, 1)

			err := cart.SetQuantity(tt.target, tt.quantity)
			if err != tt.wantErr {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(cart.Items) != tt.wantLines {
				t.Fatalf("lines = %d, want %d", len(cart.Items), tt.wantLines)
			}
			if tt.wantLines == 1 && cart.Items[0].Quantity != tt.wantQty {
				t.Fatalf("quantity = %d, want %d", cart.Items[0].Quantity, tt.wantQty)
			}
			if cart.Items == nil {
				t.Fatal("items must stay a non-nil list")
			}
		})
	}
}

func TestCartClearKeepsEmptyList(t *testing.T) {
	cart := NewCart(primitive.NewObjectID())
	cart.Add(primitive.NewObjectID(), 3)
	cart.Clear()
	if cart.Items == nil || len(cart.Items) != 0 {
		t.Fatalf("expected empty non-nil items, got %#v", cart.Items)
	}
}

func TestProductRateUpsertsByUser(t *testing.T) {
	var p Product
	user := primitive.NewObjectID()
	now := time.Now()

	if replaced := p.Rate(user, 3, "ok", now); replaced {
		t.Fatal("first rating reported as replacement")
	}
	if replaced := p.Rate(user, 5, "great", now.Add(time.Minute)); !replaced {
		t.Fatal("second rating should replace the first")
	}
	if len(p.Ratings) != 1 {
		t.Fatalf("expected 1 rating, got %d", len(p.Ratings))
	}
	if p.Ratings[0].Star != 5 || p.Ratings[0].Comment != "great" {
		t.Fatalf("rating not updated in place: %+v", p.Ratings[0])
	}

	p.Rate(primitive.NewObjectID(), 1, "", now)
	if got := AverageStars(p.Ratings); got != 3 {
		t.Fatalf("average = %v, want 3", got)
	}
}

func TestEffectivePrice(t *testing.T) {
	if got := (Product{Price: 20}).EffectivePrice(); got != 20 {
		t.Fatalf("got %v", got)
	}
	if got := (Product{Price: 20, DiscountedPrice: 15}).EffectivePrice(); got != 15 {
		t.Fatalf("got %v", got)
	}
}

func TestOrderStatusSteps(t *testing.T) {
	tests := []struct {
		from       OrderStatus
		next, prev OrderStatus
	}{
		{OrderStatusPending, OrderStatusAccepted, OrderStatusPending},
		{OrderStatusAccepted, OrderStatusShipped, OrderStatusPending},
		{OrderStatusShipped, OrderStatusDelivered, OrderStatusAccepted},
		{OrderStatusDelivered, OrderStatusDelivered, OrderStatusShipped},
		{OrderStatusCancelled, OrderStatusCancelled, OrderStatusDelivered},
	}
	for _, tt := range tests {
		if got := tt.from.Next(); got != tt.next {
			t.Errorf("%s.Next() = %s, want %s", tt.from, got, tt.next)
		}
		if got := tt.from.Prev(); got != tt.prev {
			t.Errorf("%s.Prev() = %s, want %s", tt.from, got, tt.prev)
		}
	}
	if OrderStatus(5).Valid() || OrderStatus(-1).Valid() {
		t.Fatal("out of range status reported valid")
	}
}

func TestWishlistUnique(t *testing.T) {
	var w Wishlist
	pid := primitive.NewObjectID()
	if !w.Add(pid) || w.Add(pid) {
		t.Fatal("second add of same product must be a no-op")
	}
	if len(w.ProductIDs) != 1 {
		t.Fatalf("got %d ids", len(w.ProductIDs))
	}
	if !w.Remove(pid) || w.Remove(pid) {
		t.Fatal("remove should report change only once")
	}
}

func TestCategoryDeriveSlugs(t *testing.T) {
	c := Category{Name: "Home Garden", Subcategories: []Subcategory{{Name: "Outdoor Lights"}}}
	c.DeriveSlugs()
	if c.Slug != "home-garden" {
		t.Fatalf("slug = %q", c.Slug)
	}
	if c.Subcategories[0].Slug != "outdoor-lights" {
		t.Fatalf("sub slug = %q", c.Subcategories[0].Slug)
	}
}
