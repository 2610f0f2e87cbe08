package database

import (
	"context"
	"errors"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("duplicate key")
	ErrConflict          = errors.New("concurrent modification")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// OrderEmail names one lifecycle email tracked by an idempotency flag on the order.
type OrderEmail string

const (
	OrderEmailPending   OrderEmail = "pending"
	OrderEmailDelivered OrderEmail = "delivered"
)

type OrderFilter struct {
	UserID *primitive.ObjectID
	Status *models.OrderStatus
	Limit  int64
}

type ProductStore interface {
	InsertProduct(ctx context.Context, p *models.Product) error
	FindProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// FindProductsByIDs silently skips ids that no longer exist.
	FindProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	SearchProducts(ctx context.Context, q ProductQuery) ([]models.Product, error)
	ReplaceProduct(ctx context.Context, p *models.Product) error
	// UpsertRating atomically replaces the rating posted by r.PostedBy or
	// appends it, and returns the product as stored afterwards.
	UpsertRating(ctx context.Context, id primitive.ObjectID, r models.Rating) (*models.Product, error)
	// AdjustStock adds delta to stock, refusing to go below zero.
	AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
}

type CategoryStore interface {
	InsertCategory(ctx context.Context, c *models.Category) error
	FindCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ReplaceCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id primitive.ObjectID) error
}

type UserStore interface {
	InsertUser(ctx context.Context, u *models.User) error
	FindUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ReplaceUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	UsersDueForPromo(ctx context.Context, sentBefore time.Time, limit int64) ([]models.User, error)
	// MarkPromoSent stamps the user only if it is still due; false means
	// someone else got there first.
	MarkPromoSent(ctx context.Context, id primitive.ObjectID, sentBefore, at time.Time) (bool, error)
}

type CartStore interface {
	FindCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	// SaveCart writes the cart if its Version still matches the stored one
	// and bumps Version. A stale cart yields ErrConflict.
	SaveCart(ctx context.Context, cart *models.Cart) error
}

type OrderStore interface {
	InsertOrder(ctx context.Context, o *models.Order) error
	FindOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error)
	// SetOrderStatus writes status if the order is still at version and bumps
	// the version. A stale version yields ErrConflict.
	SetOrderStatus(ctx context.Context, id primitive.ObjectID, version int64, status models.OrderStatus) (*models.Order, error)
	DeleteOrder(ctx context.Context, id primitive.ObjectID) error
	OrdersAwaitingEmail(ctx context.Context, kind OrderEmail, limit int64) ([]models.Order, error)
	MarkOrderEmailSent(ctx context.Context, id primitive.ObjectID, kind OrderEmail, at time.Time) (bool, error)
}

type WishlistStore interface {
	FindWishlist(ctx context.Context, userID primitive.ObjectID) (*models.Wishlist, error)
	SaveWishlist(ctx context.Context, w *models.Wishlist) error
}

type AuditStore interface {
	InsertAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int64) ([]models.AuditLog, error)
}

// Store is everything the API needs from persistence. MongoStore is the
// production driver; MemoryStore backs local runs and tests.
type Store interface {
	ProductStore
	CategoryStore
	UserStore
	CartStore
	OrderStore
	WishlistStore
	AuditStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
