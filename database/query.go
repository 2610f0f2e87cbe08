package database

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type SortKey string

const (
	SortByPrice     SortKey = "price"
	SortByRating    SortKey = "rating"
	SortByCreatedAt SortKey = "createdAt"
)

func (k SortKey) Valid() bool {
	return k == SortByPrice || k == SortByRating || k == SortByCreatedAt
}

func (k SortKey) field() string {
	switch k {
	case SortByPrice:
		return "price"
	case SortByRating:
		return "averageRating"
	default:
		return "createdAt"
	}
}

// ProductQuery is the storefront catalog filter. Nil pointers mean "no bound".
type ProductQuery struct {
	Search      string
	Category    string
	SubCategory string
	MinPrice    *float64
	MaxPrice    *float64
	MinRating   *float64
	SortBy      SortKey
	Descending  bool
	Skip        int64
	Limit       int64
}

var searchFields = []string{"title", "description", "category", "subCategory"}

// Pipeline renders the query as a MongoDB aggregation.
func (q ProductQuery) Pipeline() mongo.Pipeline {
	match := bson.M{}
	if q.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		or := bson.A{}
		for _, f := range searchFields {
			or = append(or, bson.M{f: re})
		}
		match["$or"] = or
	}
	if q.Category != "" {
		match["category"] = q.Category
	}
	if q.SubCategory != "" {
		match["subCategory"] = q.SubCategory
	}
	price := bson.M{}
	if q.MinPrice != nil {
		price["$gte"] = *q.MinPrice
	}
	if q.MaxPrice != nil {
		price["$lte"] = *q.MaxPrice
	}
	if len(price) > 0 {
		match["price"] = price
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$addFields", Value: bson.M{
			"averageRating": bson.M{"$ifNull": bson.A{bson.M{"$avg": "$ratings.star"}, 0}},
		}}},
	}
	if q.MinRating != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{
			"averageRating": bson.M{"$gte": *q.MinRating},
		}}})
	}

	dir := 1
	if q.Descending {
		dir = -1
	}
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{
		{Key: q.SortBy.field(), Value: dir},
		{Key: "_id", Value: dir},
	}}})
	if q.Skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: q.Skip}})
	}
	if q.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: q.Limit}})
	}
	return pipeline
}

// matches evaluates the filter stages in memory. p.AverageRating must be set.
func (q ProductQuery) matches(p models.Product) bool {
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		hit := false
		for _, v := range []string{p.Title, p.Description, p.Category, p.SubCategory} {
			if strings.Contains(strings.ToLower(v), needle) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.SubCategory != "" && p.SubCategory != q.SubCategory {
		return false
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	if q.MinRating != nil && p.AverageRating < *q.MinRating {
		return false
	}
	return true
}

func (q ProductQuery) apply(products []models.Product) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		p.AverageRating = models.AverageStars(p.Ratings)
		if q.matches(p) {
			out = append(out, p)
		}
	}

	key := func(p models.Product) float64 {
		switch q.SortBy {
		case SortByPrice:
			return p.Price
		case SortByRating:
			return p.AverageRating
		default:
			return float64(p.CreatedAt.UnixNano())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := key(out[i]), key(out[j])
		if a == b {
			a, b = float64(strings.Compare(out[i].ID.Hex(), out[j].ID.Hex())), 0
		}
		if q.Descending {
			return a > b
		}
		return a < b
	})

	if q.Skip > 0 {
		if q.Skip >= int64(len(out)) {
			return []models.Product{}
		}
		out = out[q.Skip:]
	}
	if q.Limit > 0 && q.Limit < int64(len(out)) {
		out = out[:q.Limit]
	}
	return out
}
