package database

import (
	"context"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *MongoStore) InsertCategory(ctx context.Context, c *models.Category) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	now := time.Now()
	c.ID = primitive.NewObjectID()
	c.DeriveSlugs()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := s.col(categoriesCollection).InsertOne(ctx, c)
	return mongoErr("insert category", err)
}

func (s *MongoStore) FindCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	return s.findCategory(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.findCategory(ctx, bson.M{"slug": slug})
}

func (s *MongoStore) findCategory(ctx context.Context, filter bson.M) (*models.Category, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var c models.Category
	if err := s.col(categoriesCollection).FindOne(ctx, filter).Decode(&c); err != nil {
		return nil, mongoErr("find category", err)
	}
	return &c, nil
}

func (s *MongoStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	categories, err := findAll[models.Category](ctx, s.col(categoriesCollection), bson.M{}, opts)
	return categories, mongoErr("list categories", err)
}

func (s *MongoStore) ReplaceCategory(ctx context.Context, c *models.Category) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	c.DeriveSlugs()
	c.UpdatedAt = time.Now()
	res, err := s.col(categoriesCollection).ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return mongoErr("replace category", err)
	}
	if res.MatchedCount == 0 {
		return mongoErr("replace category", ErrNotFound)
	}
	return nil
}

// DeleteCategory does not touch products that reference the category name.
func (s *MongoStore) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.col(categoriesCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongoErr("delete category", err)
	}
	if res.DeletedCount == 0 {
		return mongoErr("delete category", ErrNotFound)
	}
	return nil
}
