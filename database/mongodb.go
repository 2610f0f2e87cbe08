package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsCollection   = "products"
	categoriesCollection = "categories"
	usersCollection      = "users"
	cartsCollection      = "carts"
	ordersCollection     = "orders"
	wishlistsCollection  = "wishlists"
	auditCollection      = "auditlogs"
)

type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// ConnectDB dials MongoDB, pings it and makes sure the indexes exist.
func ConnectDB(ctx context.Context, uri, name string, timeout time.Duration) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := NewMongoStore(client.Database(name), timeout)
	if err := s.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func NewMongoStore(db *mongo.Database, timeout time.Duration) *MongoStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MongoStore{client: db.Client(), db: db, timeout: timeout}
}

func (s *MongoStore) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *MongoStore) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.timeout)
}

func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		usersCollection:      {{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		cartsCollection:      {{Keys: bson.D{{Key: "userId", Value: 1}}, Options: unique}},
		wishlistsCollection:  {{Keys: bson.D{{Key: "userId", Value: 1}}, Options: unique}},
		categoriesCollection: {{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique}},
		ordersCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "pendingEmailSent", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "deliveredEmailSent", Value: 1}}},
		},
		auditCollection: {{Keys: bson.D{{Key: "timestamp", Value: -1}}}},
	}
	for name, models := range indexes {
		if _, err := s.col(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

// mongoErr maps driver errors onto the package sentinels.
func mongoErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
