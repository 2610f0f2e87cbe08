package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps every collection in process memory. It honours the same
// contracts as MongoStore, including cart versioning and conditional email flags.
type MemoryStore struct {
	mu         sync.RWMutex
	products   map[primitive.ObjectID]models.Product
	categories map[primitive.ObjectID]models.Category
	users      map[primitive.ObjectID]models.User
	carts      map[primitive.ObjectID]models.Cart // keyed by user id
	orders     map[primitive.ObjectID]models.Order
	wishlists  map[primitive.ObjectID]models.Wishlist // keyed by user id
	audit      []models.AuditLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:   map[primitive.ObjectID]models.Product{},
		categories: map[primitive.ObjectID]models.Category{},
		users:      map[primitive.ObjectID]models.User{},
		carts:      map[primitive.ObjectID]models.Cart{},
		orders:     map[primitive.ObjectID]models.Order{},
		wishlists:  map[primitive.ObjectID]models.Wishlist{},
	}
}

func (m *MemoryStore) Ping(context.Context) error  { return nil }
func (m *MemoryStore) Close(context.Context) error { return nil }

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, ErrNotFound)
}

func copyProduct(p models.Product) models.Product {
	p.Images = append([]string(nil), p.Images...)
	p.Ratings = append([]models.Rating{}, p.Ratings...)
	return p
}

func copyCategory(c models.Category) models.Category {
	c.Subcategories = append([]models.Subcategory{}, c.Subcategories...)
	return c
}

func copyCart(c models.Cart) models.Cart {
	c.Items = append([]models.CartItem{}, c.Items...)
	return c
}

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem{}, o.Items...)
	return o
}

// Products

func (m *MemoryStore) InsertProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	p.ID = primitive.NewObjectID()
	p.AverageRating = 0
	if p.Ratings == nil {
		p.Ratings = []models.Rating{}
	}
	p.CreatedAt, p.UpdatedAt = now, now
	m.products[p.ID] = copyProduct(*p)
	return nil
}

func (m *MemoryStore) FindProduct(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, notFound("find product")
	}
	p = copyProduct(p)
	p.AverageRating = models.AverageStars(p.Ratings)
	return &p, nil
}

func (m *MemoryStore) FindProductsByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			p = copyProduct(p)
			p.AverageRating = models.AverageStars(p.Ratings)
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) SearchProducts(_ context.Context, q ProductQuery) ([]models.Product, error) {
	m.mu.RLock()
	all := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		all = append(all, copyProduct(p))
	}
	m.mu.RUnlock()

	return q.apply(all), nil
}

func (m *MemoryStore) ReplaceProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[p.ID]; !ok {
		return notFound("replace product")
	}
	p.UpdatedAt = time.Now()
	p.AverageRating = 0
	m.products[p.ID] = copyProduct(*p)
	p.AverageRating = models.AverageStars(p.Ratings)
	return nil
}

func (m *MemoryStore) UpsertRating(_ context.Context, id primitive.ObjectID, r models.Rating) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, notFound("upsert rating")
	}
	p = copyProduct(p)
	p.Rate(r.PostedBy, r.Star, r.Comment, r.PostedAt)
	p.UpdatedAt = time.Now()
	m.products[id] = p
	p = copyProduct(p)
	p.AverageRating = models.AverageStars(p.Ratings)
	return &p, nil
}

func (m *MemoryStore) AdjustStock(_ context.Context, id primitive.ObjectID, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return notFound("adjust stock")
	}
	if p.Stock+delta < 0 {
		return fmt.Errorf("adjust stock: %w", ErrInsufficientStock)
	}
	p.Stock += delta
	p.UpdatedAt = time.Now()
	m.products[id] = p
	return nil
}

func (m *MemoryStore) DeleteProduct(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return notFound("delete product")
	}
	delete(m.products, id)
	return nil
}

// Categories

func (m *MemoryStore) slugTaken(slug string, except primitive.ObjectID) bool {
	for id, c := range m.categories {
		if id != except && c.Slug == slug {
			return true
		}
	}
	return false
}

func (m *MemoryStore) InsertCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.DeriveSlugs()
	if m.slugTaken(c.Slug, primitive.NilObjectID) {
		return fmt.Errorf("insert category: %w", ErrDuplicate)
	}
	now := time.Now()
	c.ID = primitive.NewObjectID()
	c.CreatedAt, c.UpdatedAt = now, now
	m.categories[c.ID] = copyCategory(*c)
	return nil
}

func (m *MemoryStore) FindCategory(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[id]
	if !ok {
		return nil, notFound("find category")
	}
	c = copyCategory(c)
	return &c, nil
}

func (m *MemoryStore) FindCategoryBySlug(_ context.Context, slug string) (*models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.categories {
		if c.Slug == slug {
			c = copyCategory(c)
			return &c, nil
		}
	}
	return nil, notFound("find category")
}

func (m *MemoryStore) ListCategories(context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, copyCategory(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) ReplaceCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.categories[c.ID]; !ok {
		return notFound("replace category")
	}
	c.DeriveSlugs()
	if m.slugTaken(c.Slug, c.ID) {
		return fmt.Errorf("replace category: %w", ErrDuplicate)
	}
	c.UpdatedAt = time.Now()
	m.categories[c.ID] = copyCategory(*c)
	return nil
}

func (m *MemoryStore) DeleteCategory(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.categories[id]; !ok {
		return notFound("delete category")
	}
	delete(m.categories, id)
	return nil
}

// Users

func (m *MemoryStore) emailTaken(email string, except primitive.ObjectID) bool {
	for id, u := range m.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (m *MemoryStore) InsertUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u.Email = normalizeEmail(u.Email)
	if m.emailTaken(u.Email, primitive.NilObjectID) {
		return fmt.Errorf("insert user: %w", ErrDuplicate)
	}
	now := time.Now()
	u.ID = primitive.NewObjectID()
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) FindUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, notFound("find user")
	}
	return &u, nil
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = normalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, notFound("find user")
}

func (m *MemoryStore) ListUsers(context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ReplaceUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; !ok {
		return notFound("replace user")
	}
	u.Email = normalizeEmail(u.Email)
	if m.emailTaken(u.Email, u.ID) {
		return fmt.Errorf("replace user: %w", ErrDuplicate)
	}
	u.UpdatedAt = time.Now()
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return notFound("delete user")
	}
	delete(m.users, id)
	return nil
}

func isPromoDue(u models.User, sentBefore time.Time) bool {
	return u.PromoEmailSentAt == nil || u.PromoEmailSentAt.Before(sentBefore)
}

func (m *MemoryStore) UsersDueForPromo(_ context.Context, sentBefore time.Time, limit int64) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.User{}
	for _, u := range m.users {
		if isPromoDue(u, sentBefore) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) MarkPromoSent(_ context.Context, id primitive.ObjectID, sentBefore, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok || !isPromoDue(u, sentBefore) {
		return false, nil
	}
	u.PromoEmailSentAt = &at
	m.users[id] = u
	return true, nil
}

// Carts

func (m *MemoryStore) FindCart(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.carts[userID]
	if !ok {
		return nil, notFound("find cart")
	}
	c = copyCart(c)
	return &c, nil
}

func (m *MemoryStore) SaveCart(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	stored, exists := m.carts[cart.UserID]
	switch {
	case cart.ID.IsZero() && exists:
		return fmt.Errorf("insert cart: %w", ErrConflict)
	case cart.ID.IsZero():
		cart.ID = primitive.NewObjectID()
		cart.Version = 0
	case !exists || stored.ID != cart.ID || stored.Version != cart.Version:
		return fmt.Errorf("save cart: %w", ErrConflict)
	}
	cart.Version++
	cart.UpdatedAt = time.Now()
	m.carts[cart.UserID] = copyCart(*cart)
	return nil
}

// Orders

func (m *MemoryStore) InsertOrder(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	o.ID = primitive.NewObjectID()
	o.Version = 1
	o.CreatedAt, o.UpdatedAt = now, now
	m.orders[o.ID] = copyOrder(*o)
	return nil
}

func (m *MemoryStore) FindOrder(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, notFound("find order")
	}
	o = copyOrder(o)
	return &o, nil
}

func (m *MemoryStore) ListOrders(_ context.Context, f OrderFilter) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Order{}
	for _, o := range m.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return strings.Compare(out[i].ID.Hex(), out[j].ID.Hex()) > 0
	})
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) SetOrderStatus(_ context.Context, id primitive.ObjectID, version int64, status models.OrderStatus) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, notFound("set order status")
	}
	if o.Version != version {
		return nil, fmt.Errorf("set order status: %w", ErrConflict)
	}
	o.Status = status
	o.Version++
	o.UpdatedAt = time.Now()
	m.orders[id] = o
	o = copyOrder(o)
	return &o, nil
}

func (m *MemoryStore) DeleteOrder(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[id]; !ok {
		return notFound("delete order")
	}
	delete(m.orders, id)
	return nil
}

func awaiting(o models.Order, kind OrderEmail) (bool, error) {
	switch kind {
	case OrderEmailPending:
		return !o.PendingEmailSent, nil
	case OrderEmailDelivered:
		return o.Status == models.OrderStatusDelivered && !o.DeliveredEmailSent, nil
	default:
		return false, fmt.Errorf("unknown order email %q", kind)
	}
}

func (m *MemoryStore) OrdersAwaitingEmail(_ context.Context, kind OrderEmail, limit int64) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Order{}
	for _, o := range m.orders {
		due, err := awaiting(o, kind)
		if err != nil {
			return nil, err
		}
		if due {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) MarkOrderEmailSent(_ context.Context, id primitive.ObjectID, kind OrderEmail, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return false, nil
	}
	due, err := awaiting(o, kind)
	if err != nil || !due {
		return false, err
	}
	switch kind {
	case OrderEmailPending:
		o.PendingEmailSent, o.PendingEmailSentAt = true, &at
	case OrderEmailDelivered:
		o.DeliveredEmailSent, o.DeliveredEmailSentAt = true, &at
	}
	m.orders[id] = o
	return true, nil
}

// Wishlists and audit

func (m *MemoryStore) FindWishlist(_ context.Context, userID primitive.ObjectID) (*models.Wishlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.wishlists[userID]
	if !ok {
		return nil, notFound("find wishlist")
	}
	w.ProductIDs = append([]primitive.ObjectID{}, w.ProductIDs...)
	return &w, nil
}

func (m *MemoryStore) SaveWishlist(_ context.Context, w *models.Wishlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stored, ok := m.wishlists[w.UserID]; ok {
		w.ID = stored.ID
	} else {
		w.ID = primitive.NewObjectID()
	}
	if w.ProductIDs == nil {
		w.ProductIDs = []primitive.ObjectID{}
	}
	w.UpdatedAt = time.Now()
	saved := *w
	saved.ProductIDs = append([]primitive.ObjectID{}, w.ProductIDs...)
	m.wishlists[w.UserID] = saved
	return nil
}

func (m *MemoryStore) InsertAuditLog(_ context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.ID = primitive.NewObjectID()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	m.audit = append(m.audit, *entry)
	return nil
}

func (m *MemoryStore) ListAuditLogs(_ context.Context, limit int64) ([]models.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.AuditLog, 0, len(m.audit))
	for i := len(m.audit) - 1; i >= 0; i-- {
		out = append(out, m.audit[i])
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*MongoStore)(nil)
)
