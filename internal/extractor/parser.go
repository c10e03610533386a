package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/trendpin/trendpin/internal/models"
)

// Search listing selectors. The catalog shifts its markup periodically, so
// each field tries a list of selectors in order.
var (
	searchResultSelector = `div[data-component-type="s-search-result"]`

	titleSelectors = []string{"h2.a-size-mini span", "span.a-size-medium", "h2 span"}
	linkSelectors  = []string{"h2.a-size-mini a", "a.a-link-normal.s-no-outline", "a.a-link-normal"}
	priceSelectors = []string{".a-price .a-offscreen", ".a-price-whole", ".a-price-current .a-offscreen"}

	detailTitleSelectors = []string{"#productTitle", ".product-title", "h1.a-size-large"}
	detailPriceSelectors = []string{
		".a-price .a-offscreen",
		"#priceblock_dealprice",
		"#priceblock_ourprice",
		".a-price-whole",
	}
)

// Bullet points shorter than this are navigation noise, not features
const minFeatureLength = 15

// boilerplatePrefix marks catalog disclaimer bullets to skip
const boilerplatePrefix = "Make sure"

// Parser extracts products from catalog HTML using CSS selectors
type Parser struct {
	baseURL *url.URL
	logger  arbor.ILogger
}

// NewParser creates a parser that resolves relative links against baseURL
func NewParser(baseURL string, logger arbor.ILogger) (*Parser, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog base URL %q: %w", baseURL, err)
	}
	return &Parser{baseURL: parsed, logger: logger}, nil
}

// ParseSearchResults extracts product listings from a search results page.
// Items missing a title, link, or source id are skipped.
func (p *Parser) ParseSearchResults(html string) ([]models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	var products []models.Product
	doc.Find(searchResultSelector).Each(func(i int, sel *goquery.Selection) {
		if product := p.extractSearchItem(sel, i); product != nil {
			products = append(products, *product)
		}
	})

	p.logger.Debug().Int("count", len(products)).Msg("Parsed search results")

	return products, nil
}

func (p *Parser) extractSearchItem(sel *goquery.Selection, index int) *models.Product {
	sourceID := strings.TrimSpace(sel.AttrOr("data-asin", ""))
	if sourceID == "" {
		return nil
	}

	title := firstText(sel, titleSelectors)
	if title == "" {
		return nil
	}

	href := firstAttr(sel, linkSelectors, "href")
	if href == "" {
		return nil
	}

	product := &models.Product{
		SourceID:   sourceID,
		Title:      title,
		DetailURL:  p.resolveURL(href),
		Price:      firstText(sel, priceSelectors),
		ImageURL:   strings.TrimSpace(sel.Find("img.s-image").AttrOr("src", "")),
		SearchRank: index + 1,
	}

	if rating := strings.TrimSpace(sel.Find("span.a-icon-alt").First().Text()); strings.Contains(rating, "out of 5") {
		product.Rating = rating
	}

	return product
}

// ParseProductDetail extracts detail page fields. Fields that cannot be
// found are left empty; the result is sparse rather than an error.
func (p *Parser) ParseProductDetail(html string) (*models.ProductDetail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse detail page: %w", err)
	}

	detail := &models.ProductDetail{
		Title:        firstText(doc.Selection, detailTitleSelectors),
		ReviewCount:  strings.TrimSpace(doc.Find("#acrCustomerReviewText").First().Text()),
		Availability: strings.TrimSpace(doc.Find("#availability span").First().Text()),
	}

	for _, selector := range detailPriceSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if strings.Contains(text, "$") {
			detail.Price = text
			break
		}
	}

	doc.Find(".a-icon-alt").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if strings.Contains(text, "out of 5") {
			detail.Rating = text
			return false
		}
		return true
	})

	features := p.extractFeatures(doc)
	if len(features) > 5 {
		features = features[:5]
	}
	detail.Features = features

	detail.Description = p.extractDescription(doc, features)
	detail.Images = p.extractImages(doc)
	detail.Category = p.extractBreadcrumbs(doc)

	return detail, nil
}

func (p *Parser) extractFeatures(doc *goquery.Document) []string {
	var features []string
	doc.Find("#feature-bullets li").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) > minFeatureLength && !strings.HasPrefix(text, boilerplatePrefix) {
			features = append(features, text)
		}
	})
	return features
}

func (p *Parser) extractDescription(doc *goquery.Document, features []string) string {
	if len(features) > 0 {
		limit := len(features)
		if limit > 3 {
			limit = 3
		}
		return strings.Join(features[:limit], " ")
	}

	text := strings.TrimSpace(doc.Find("#productDescription p").First().Text())
	if runes := []rune(text); len(runes) > 200 {
		return string(runes[:200])
	}
	return text
}

func (p *Parser) extractImages(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var images []string

	add := func(src string) {
		src = strings.TrimSpace(src)
		if src == "" || seen[src] || len(images) >= 3 {
			return
		}
		seen[src] = true
		images = append(images, src)
	}

	add(doc.Find("#landingImage").AttrOr("src", ""))
	doc.Find(".a-dynamic-image").Each(func(_ int, sel *goquery.Selection) {
		add(sel.AttrOr("src", ""))
	})

	return images
}

func (p *Parser) extractBreadcrumbs(doc *goquery.Document) string {
	var crumbs []string
	doc.Find("#wayfinding-breadcrumbs_feature_div a").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			crumbs = append(crumbs, text)
		}
	})
	return strings.Join(crumbs, " > ")
}

func (p *Parser) resolveURL(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return p.baseURL.ResolveReference(ref).String()
}

func firstText(sel *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(sel.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func firstAttr(sel *goquery.Selection, selectors []string, attr string) string {
	for _, selector := range selectors {
		if val := strings.TrimSpace(sel.Find(selector).First().AttrOr(attr, "")); val != "" {
			return val
		}
	}
	return ""
}
