package database

import (
	"testing"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func floatPtr(v float64) *float64 { return &v }

func stageNames(t *testing.T, q ProductQuery) []string {
	t.Helper()
	var names []string
	for _, stage := range q.Pipeline() {
		if len(stage) != 1 {
			t.Fatalf("stage has %d keys", len(stage))
		}
		names = append(names, stage[0].Key)
	}
	return names
}

func TestPipelineStages(t *testing.T) {
	got := stageNames(t, ProductQuery{SortBy: SortByPrice})
	want := []string{"$match", "$addFields", "$sort"}
	if len(got) != len(want) {
		t.Fatalf("stages = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stages = %v, want %v", got, want)
		}
	}

	got = stageNames(t, ProductQuery{MinRating: floatPtr(3), Skip: 10, Limit: 5})
	want = []string{"$match", "$addFields", "$match", "$sort", "$skip", "$limit"}
	if len(got) != len(want) {
		t.Fatalf("stages = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stages = %v, want %v", got, want)
		}
	}
}

func TestPipelineEscapesSearch(t *testing.T) {
	p := ProductQuery{Search: "a+b"}.Pipeline()
	match := p[0][0].Value.(bson.M)
	or := match["$or"].(bson.A)
	if len(or) != len(searchFields) {
		t.Fatalf("$or has %d clauses", len(or))
	}
	re := or[0].(bson.M)["title"].(primitive.Regex)
	if re.Pattern != `a\+b` || re.Options != "i" {
		t.Fatalf("regex = %+v", re)
	}
}

func TestPipelineSortsByAverageRating(t *testing.T) {
	p := ProductQuery{SortBy: SortByRating, Descending: true}.Pipeline()
	sortStage := p[len(p)-1][0].Value.(bson.D)
	if sortStage[0].Key != "averageRating" || sortStage[0].Value != -1 {
		t.Fatalf("sort = %v", sortStage)
	}
	if sortStage[1].Key != "_id" {
		t.Fatalf("missing _id tie-break: %v", sortStage)
	}
}

func TestApplyFiltersAndSorts(t *testing.T) {
	now := time.Now()
	rated := func(title string, price float64, stars ...int) models.Product {
		p := models.Product{ID: primitive.NewObjectID(), Title: title, Price: price, Category: "Shoes", CreatedAt: now}
		for _, s := range stars {
			p.Ratings = append(p.Ratings, models.Rating{Star: s, PostedBy: primitive.NewObjectID()})
		}
		return p
	}
	products := []models.Product{
		rated("Runner", 10, 5, 4),
		rated("Walker", 20, 2),
		rated("Boot", 30),
	}

	got := ProductQuery{MinRating: floatPtr(4)}.apply(products)
	if len(got) != 1 || got[0].Title != "Runner" || got[0].AverageRating != 4.5 {
		t.Fatalf("min rating filter = %+v", got)
	}

	got = ProductQuery{SortBy: SortByPrice, Descending: true}.apply(products)
	if got[0].Title != "Boot" || got[2].Title != "Runner" {
		t.Fatalf("price desc order = %s,%s,%s", got[0].Title, got[1].Title, got[2].Title)
	}

	got = ProductQuery{Search: "WALK"}.apply(products)
	if len(got) != 1 || got[0].Title != "Walker" {
		t.Fatalf("search = %+v", got)
	}

	got = ProductQuery{MinPrice: floatPtr(15), MaxPrice: floatPtr(30), SortBy: SortByPrice, Skip: 1, Limit: 5}.apply(products)
	if len(got) != 1 || got[0].Title != "Boot" {
		t.Fatalf("paged price range = %+v", got)
	}

	if got := (ProductQuery{Skip: 10}).apply(products); len(got) != 0 {
		t.Fatalf("skip past end returned %d", len(got))
	}
}
