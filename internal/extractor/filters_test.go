package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trendpin/trendpin/internal/models"
)

func TestParseRating(t *testing.T) {
	rating, ok := ParseRating("4.5 out of 5 stars")
	assert.True(t, ok)
	assert.Equal(t, 4.5, rating)

	rating, ok = ParseRating("3 out of 5 stars")
	assert.True(t, ok)
	assert.Equal(t, 3.0, rating)

	_, ok = ParseRating("no rating here")
	assert.False(t, ok)
}

func TestParseReviewCount(t *testing.T) {
	count, ok := ParseReviewCount("12,345 ratings")
	assert.True(t, ok)
	assert.Equal(t, 12345, count)

	count, ok = ParseReviewCount("87 ratings")
	assert.True(t, ok)
	assert.Equal(t, 87, count)

	_, ok = ParseReviewCount("")
	assert.False(t, ok)
}

func TestParsePrice(t *testing.T) {
	price, ok := ParsePrice("$1,299.99")
	assert.True(t, ok)
	assert.Equal(t, 1299.99, price)

	price, ok = ParsePrice("$5")
	assert.True(t, ok)
	assert.Equal(t, 5.0, price)

	_, ok = ParsePrice("See price in cart")
	assert.False(t, ok)
}

func TestPassesFilters(t *testing.T) {
	cfg := models.AutomationConfig{
		MinRating:  4.0,
		MinReviews: 100,
		PriceMin:   10,
		PriceMax:   200,
	}

	good := &models.Product{
		Rating:      "4.6 out of 5 stars",
		ReviewCount: "2,340 ratings",
		Price:       "$59.99",
	}
	assert.True(t, PassesFilters(good, cfg))

	lowRating := &models.Product{Rating: "3.1 out of 5 stars", ReviewCount: "500 ratings", Price: "$59.99"}
	assert.False(t, PassesFilters(lowRating, cfg))

	fewReviews := &models.Product{Rating: "4.8 out of 5 stars", ReviewCount: "12 ratings", Price: "$59.99"}
	assert.False(t, PassesFilters(fewReviews, cfg))

	tooCheap := &models.Product{Rating: "4.8 out of 5 stars", ReviewCount: "500 ratings", Price: "$4.99"}
	assert.False(t, PassesFilters(tooCheap, cfg))

	tooExpensive := &models.Product{Rating: "4.8 out of 5 stars", ReviewCount: "500 ratings", Price: "$999.00"}
	assert.False(t, PassesFilters(tooExpensive, cfg))
}

func TestPassesFilters_UnparseableFieldsPass(t *testing.T) {
	cfg := models.AutomationConfig{MinRating: 4.0, MinReviews: 100, PriceMin: 10, PriceMax: 200}

	sparse := &models.Product{Title: "No metadata at all"}
	assert.True(t, PassesFilters(sparse, cfg), "missing fields never disqualify")
}
