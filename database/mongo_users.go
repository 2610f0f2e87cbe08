package database

import (
	"context"
	"strings"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *MongoStore) InsertUser(ctx context.Context, u *models.User) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	now := time.Now()
	u.ID = primitive.NewObjectID()
	u.Email = normalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := s.col(usersCollection).InsertOne(ctx, u)
	return mongoErr("insert user", err)
}

func (s *MongoStore) FindUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": normalizeEmail(email)})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var u models.User
	if err := s.col(usersCollection).FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, mongoErr("find user", err)
	}
	return &u, nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	users, err := findAll[models.User](ctx, s.col(usersCollection), bson.M{}, opts)
	return users, mongoErr("list users", err)
}

func (s *MongoStore) ReplaceUser(ctx context.Context, u *models.User) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	u.Email = normalizeEmail(u.Email)
	u.UpdatedAt = time.Now()
	res, err := s.col(usersCollection).ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return mongoErr("replace user", err)
	}
	if res.MatchedCount == 0 {
		return mongoErr("replace user", ErrNotFound)
	}
	return nil
}

func (s *MongoStore) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	res, err := s.col(usersCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mongoErr("delete user", err)
	}
	if res.DeletedCount == 0 {
		return mongoErr("delete user", ErrNotFound)
	}
	return nil
}

func promoDue(sentBefore time.Time) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"promoEmailSentAt": bson.M{"$exists": false}},
		bson.M{"promoEmailSentAt": nil},
		bson.M{"promoEmailSentAt": bson.M{"$lt": sentBefore}},
	}}
}

func (s *MongoStore) UsersDueForPromo(ctx context.Context, sentBefore time.Time, limit int64) ([]models.User, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "_id", Value: 1}})
	users, err := findAll[models.User](ctx, s.col(usersCollection), promoDue(sentBefore), opts)
	return users, mongoErr("users due for promo", err)
}

func (s *MongoStore) MarkPromoSent(ctx context.Context, id primitive.ObjectID, sentBefore, at time.Time) (bool, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	filter := promoDue(sentBefore)
	filter["_id"] = id
	res, err := s.col(usersCollection).UpdateOne(ctx, filter, bson.M{"$set": bson.M{"promoEmailSentAt": at}})
	if err != nil {
		return false, mongoErr("mark promo sent", err)
	}
	return res.ModifiedCount == 1, nil
}
