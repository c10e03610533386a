package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/trendpin/trendpin/internal/models"
)

var (
	leadingFloatRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)`)
	digitsRe       = regexp.MustCompile(`[\d,]+`)
	priceRe        = regexp.MustCompile(`(\d+(?:,\d{3})*(?:\.\d+)?)`)
)

// PassesFilters applies the run's quality thresholds to a product. Fields
// that cannot be parsed do not disqualify the product; filtering is
// best-effort on whatever the catalog exposed.
func PassesFilters(p *models.Product, cfg models.AutomationConfig) bool {
	if cfg.MinRating > 0 {
		if rating, ok := ParseRating(p.Rating); ok && rating < cfg.MinRating {
			return false
		}
	}
	if cfg.MinReviews > 0 {
		if reviews, ok := ParseReviewCount(p.ReviewCount); ok && reviews < cfg.MinReviews {
			return false
		}
	}
	if cfg.PriceMin > 0 || cfg.PriceMax > 0 {
		if price, ok := ParsePrice(p.Price); ok {
			if cfg.PriceMin > 0 && price < cfg.PriceMin {
				return false
			}
			if cfg.PriceMax > 0 && price > cfg.PriceMax {
				return false
			}
		}
	}
	return true
}

// ParseRating extracts the numeric rating from text like "4.5 out of 5 stars"
func ParseRating(text string) (float64, bool) {
	match := leadingFloatRe.FindString(strings.TrimSpace(text))
	if match == "" {
		return 0, false
	}
	rating, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return rating, true
}

// ParseReviewCount extracts the count from text like "1,234 ratings"
func ParseReviewCount(text string) (int, bool) {
	match := digitsRe.FindString(text)
	if match == "" {
		return 0, false
	}
	count, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0, false
	}
	return count, true
}

// ParsePrice extracts the amount from text like "$1,299.99"
func ParsePrice(text string) (float64, bool) {
	match := priceRe.FindString(text)
	if match == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return price, true
}
