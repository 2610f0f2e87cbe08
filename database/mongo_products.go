package database

import (
	"context"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *MongoStore) InsertProduct(ctx context.Context, p *models.Product) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	now := time.Now()
	p.ID = primitive.NewObjectID()
	p.AverageRating = 0
	if p.Ratings == nil {
		p.Ratings = []models.Rating{}
	}
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := s.col(productsCollection).InsertOne(ctx, p)
	return mongoErr("insert product", err)
}

func (s *MongoStore) FindProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var p models.Product
	err := s.col(productsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		return nil, mongoErr("find product", err)
	}
	p.AverageRating = models.AverageStars(p.Ratings)
	return &p, nil
}

func (s *MongoStore) FindProductsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	products, err := findAll[models.Product](ctx, s.col(productsCollection), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, mongoErr("find products", err)
	}
	for i := range products {
		products[i].AverageRating = models.AverageStars(products[i].Ratings)
	}
	return products, nil
}

func (s *MongoStore) SearchProducts(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	cursor, err := s.col(productsCollection).Aggregate(ctx, q.Pipeline())
	if err != nil {
		return nil, mongoErr("search products", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, mongoErr("decode products", err)
	}
	return products, nil
}

func (s *MongoStore) ReplaceProduct(ctx context.Context, p *models.Product) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	p.UpdatedAt = time.Now()
	p.AverageRating = 0
	res, err := s.col(productsCollection).ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return mongoErr("replace product", err)
	}
	if res.MatchedCount == 0 {
		return mongoErr("replace product", ErrNotFound)
	}
	p.AverageRating = models.AverageStars(p.Ratings)
	return nil
}

// UpsertRating updates the user's rating in place, or pushes a new one only
// while no rating by that user exists. Either step may lose to a concurrent
// first rating by the same user, so the pair is tried twice.
func (s *MongoStore) UpsertRating(ctx context.Context, id primitive.ObjectID, r models.Rating) (*models.Product, error) {
	opCtx, cancel := s.ctx(ctx)
	defer cancel()

	col := s.col(productsCollection)
	arrayFilters := options.ArrayFilters{
		Filters: []interface{}{bson.M{"elem.postedBy": r.PostedBy}},
	}
	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now()
		res, err := col.UpdateOne(opCtx,
			bson.M{"_id": id, "ratings.postedBy": r.PostedBy},
			bson.M{"$set": bson.M{
				"ratings.$[elem].star":     r.Star,
				"ratings.$[elem].comment":  r.Comment,
				"ratings.$[elem].postedAt": r.PostedAt,
				"updatedAt":                now,
			}},
			options.Update().SetArrayFilters(arrayFilters),
		)
		if err != nil {
			return nil, mongoErr("upsert rating", err)
		}
		if res.MatchedCount > 0 {
			return s.FindProduct(ctx, id)
		}

		res, err = col.UpdateOne(opCtx,
			bson.M{"_id": id, "ratings.postedBy": bson.M{"$ne": r.PostedBy}},
			bson.M{
				"$push": bson.M{"ratings": r},
				"$set":  bson.M{"updatedAt": now},
			},
		)
		if err != nil {
			return nil, mongoErr("upsert rating", err)
		}
		if res.MatchedCount > 0 {
			return s.FindProduct(ctx, id)
		}
	}
	if _, err := s.FindProduct(ctx, id); err != nil {
		return nil, err
	}
	return nil, mongoErr("upsert rating", ErrConflict)
}

func (s *MongoStore) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	res, err := s.col(productsCollection).UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return mongoErr("adjust stock", err)
	}
	if res.MatchedCount == 0 {
		// Tell a missing product apart from an exhausted one.
		n, err := s.col(productsCollection).CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return mongoErr("adjust stock", err)
		}
		if n == 0 {
			return mongoErr("adjust stock", ErrNotFound)
		}
		return mongoErr("adjust stock", ErrInsufficientStock)
	}
	return nil
}

func (s *MongoStore) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.col(productsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongoErr("delete product", err)
	}
	if res.DeletedCount == 0 {
		return mongoErr("delete product", ErrNotFound)
	}
	return nil
}
