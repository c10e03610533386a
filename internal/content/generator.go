// Package content renders catalog products into publish-ready posts with
// affiliate-tagged links and category hashtags.
package content

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/trendpin/trendpin/internal/models"
)

const (
	maxTitleLength       = 100
	prefixableTitleLimit = 80
	maxDescriptionLength = 150
	maxFeatureLength     = 50
	maxFeatures          = 2
	maxHashtags          = 8

	fallbackTitle  = "Amazing Product"
	disclosureLine = "📢 This pin contains affiliate links. I may earn a commission at no extra cost to you."
)

// engagingPrefixes are prepended to short titles to lift click-through
var engagingPrefixes = []string{
	"🔥 TRENDING: ",
	"⭐ TOP RATED: ",
	"💯 MUST-HAVE: ",
	"🎯 BEST SELLER: ",
	"✨ AMAZING: ",
}

// categoryHashtags is the fixed hashtag vocabulary per category
var categoryHashtags = map[string][]string{
	"electronics": {"tech", "gadgets", "electronics", "innovation", "deals", "amazon", "shopping"},
	"home":        {"home", "homedecor", "interior", "lifestyle", "design", "homeimprovement"},
	"fashion":     {"fashion", "style", "outfit", "shopping", "trendy", "accessories"},
	"health":      {"health", "wellness", "selfcare", "fitness", "lifestyle", "beauty"},
	"books":       {"books", "reading", "bookworm", "education", "learning", "kindle"},
	"sports":      {"sports", "fitness", "outdoor", "active", "exercise", "workout"},
}

// fallbackHashtags apply when the category has no vocabulary
var fallbackHashtags = []string{"shopping", "deals"}

// Hashtags returns the capped hashtag list for a category
func Hashtags(category string) []string {
	tags, ok := categoryHashtags[category]
	if !ok {
		tags = fallbackHashtags
	}
	if len(tags) > maxHashtags {
		tags = tags[:maxHashtags]
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

// Generator renders posts for one automation run. The rng picks title
// prefixes; a seeded source makes output deterministic in tests.
type Generator struct {
	affiliateTag  string
	catalogDomain string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a generator bound to an affiliate tag
func NewGenerator(affiliateTag, catalogDomain string, rng *rand.Rand) *Generator {
	return &Generator{
		affiliateTag:  affiliateTag,
		catalogDomain: catalogDomain,
		rng:           rng,
	}
}

// BuildPost renders a product into publishable content
func (g *Generator) BuildPost(p *models.Product, category string) models.PostContent {
	hashtags := Hashtags(category)
	return models.PostContent{
		Title:         g.buildTitle(p.Title),
		Description:   buildDescription(p, hashtags),
		Hashtags:      hashtags,
		ImageURL:      bestImage(p),
		AffiliateLink: BuildAffiliateLink(p.DetailURL, g.affiliateTag, g.catalogDomain),
	}
}

// buildTitle caps long titles at 100 runes with an ellipsis and dresses
// short ones with an engaging prefix.
func (g *Generator) buildTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return fallbackTitle
	}

	runes := []rune(title)
	if len(runes) > maxTitleLength {
		return string(runes[:maxTitleLength-3]) + "..."
	}

	if len(runes) < prefixableTitleLimit {
		g.mu.Lock()
		prefix := engagingPrefixes[g.rng.Intn(len(engagingPrefixes))]
		g.mu.Unlock()
		return prefix + title
	}
	return title
}

// buildDescription assembles the post body from the product fields that are
// present, followed by hashtags and the affiliate disclosure.
func buildDescription(p *models.Product, hashtags []string) string {
	var parts []string

	if desc := truncateRunes(strings.TrimSpace(p.Description), maxDescriptionLength); desc != "" {
		parts = append(parts, desc)
	}
	if p.Price != "" {
		parts = append(parts, fmt.Sprintf("💰 Price: %s", p.Price))
	}
	if p.Rating != "" {
		parts = append(parts, fmt.Sprintf("⭐ Rating: %s", p.Rating))
	}

	if len(p.Features) > 0 {
		parts = append(parts, "✨ Features:")
		limit := len(p.Features)
		if limit > maxFeatures {
			limit = maxFeatures
		}
		for _, feature := range p.Features[:limit] {
			parts = append(parts, fmt.Sprintf("• %s", truncateRunes(feature, maxFeatureLength)))
		}
	}

	if len(hashtags) > 0 {
		tagged := make([]string, len(hashtags))
		for i, tag := range hashtags {
			tagged[i] = "#" + tag
		}
		parts = append(parts, "\n"+strings.Join(tagged, " "))
	}

	parts = append(parts, "\n"+disclosureLine)

	return strings.Join(parts, "\n")
}

// bestImage prefers the detail page image set over the listing thumbnail
func bestImage(p *models.Product) string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return p.ImageURL
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
