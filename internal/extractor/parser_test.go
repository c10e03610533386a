package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendpin/trendpin/internal/common"
)

const searchPageHTML = `
<html><body>
<div class="s-main-slot">
  <div data-component-type="s-search-result" data-asin="B0TEST0001">
    <img class="s-image" src="https://img.example.com/1.jpg"/>
    <h2 class="a-size-mini"><a href="/dp/B0TEST0001/ref=sr_1_1"><span>Wireless Earbuds Pro</span></a></h2>
    <span class="a-icon-alt">4.5 out of 5 stars</span>
    <span class="a-price"><span class="a-offscreen">$49.99</span></span>
  </div>
  <div data-component-type="s-search-result" data-asin="B0TEST0002">
    <h2 class="a-size-mini"><a href="/dp/B0TEST0002"><span>Smart Watch Band</span></a></h2>
  </div>
  <div data-component-type="s-search-result" data-asin="">
    <h2 class="a-size-mini"><a href="/dp/B0TEST0003"><span>Missing ASIN Item</span></a></h2>
  </div>
  <div data-component-type="s-search-result" data-asin="B0TEST0004">
    <h2 class="a-size-mini"><a href="/dp/B0TEST0004"></a></h2>
  </div>
</div>
</body></html>`

const detailPageHTML = `
<html><body>
<div id="wayfinding-breadcrumbs_feature_div">
  <a href="/e">Electronics</a>
  <a href="/h">Headphones</a>
</div>
<span id="productTitle"> Wireless Earbuds Pro with Charging Case </span>
<span class="a-price"><span class="a-offscreen">$49.99</span></span>
<span class="a-icon-alt">4.5 out of 5 stars</span>
<span id="acrCustomerReviewText">12,345 ratings</span>
<div id="availability"><span> In Stock </span></div>
<div id="feature-bullets">
  <ul>
    <li>Make sure this fits by entering your model number.</li>
    <li>Active noise cancellation blocks ambient sound</li>
    <li>30 hour battery life with the charging case</li>
    <li>short</li>
    <li>IPX7 waterproof rating for workouts and rain</li>
  </ul>
</div>
<img id="landingImage" src="https://img.example.com/main.jpg"/>
<img class="a-dynamic-image" src="https://img.example.com/main.jpg"/>
<img class="a-dynamic-image" src="https://img.example.com/alt1.jpg"/>
<img class="a-dynamic-image" src="https://img.example.com/alt2.jpg"/>
<img class="a-dynamic-image" src="https://img.example.com/alt3.jpg"/>
</body></html>`

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	parser, err := NewParser("https://www.amazon.com", common.GetLogger())
	require.NoError(t, err)
	return parser
}

func TestParser_ParseSearchResults(t *testing.T) {
	parser := newTestParser(t)

	products, err := parser.ParseSearchResults(searchPageHTML)
	require.NoError(t, err)
	require.Len(t, products, 2, "items missing asin or title are skipped")

	first := products[0]
	assert.Equal(t, "B0TEST0001", first.SourceID)
	assert.Equal(t, "Wireless Earbuds Pro", first.Title)
	assert.Equal(t, "https://www.amazon.com/dp/B0TEST0001/ref=sr_1_1", first.DetailURL)
	assert.Equal(t, "$49.99", first.Price)
	assert.Equal(t, "4.5 out of 5 stars", first.Rating)
	assert.Equal(t, "https://img.example.com/1.jpg", first.ImageURL)
	assert.Equal(t, 1, first.SearchRank)

	second := products[1]
	assert.Equal(t, "B0TEST0002", second.SourceID)
	assert.Empty(t, second.Price)
	assert.Equal(t, 2, second.SearchRank)
}

func TestParser_ParseSearchResults_Empty(t *testing.T) {
	parser := newTestParser(t)

	products, err := parser.ParseSearchResults("<html><body><p>No results</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestParser_ParseProductDetail(t *testing.T) {
	parser := newTestParser(t)

	detail, err := parser.ParseProductDetail(detailPageHTML)
	require.NoError(t, err)

	assert.Equal(t, "Wireless Earbuds Pro with Charging Case", detail.Title)
	assert.Equal(t, "$49.99", detail.Price)
	assert.Equal(t, "4.5 out of 5 stars", detail.Rating)
	assert.Equal(t, "12,345 ratings", detail.ReviewCount)
	assert.Equal(t, "In Stock", detail.Availability)
	assert.Equal(t, "Electronics > Headphones", detail.Category)

	require.Len(t, detail.Features, 3, "boilerplate and short bullets are filtered")
	assert.Equal(t, "Active noise cancellation blocks ambient sound", detail.Features[0])

	assert.Equal(t,
		"Active noise cancellation blocks ambient sound 30 hour battery life with the charging case IPX7 waterproof rating for workouts and rain",
		detail.Description)

	require.Len(t, detail.Images, 3, "images are deduplicated and capped at three")
	assert.Equal(t, "https://img.example.com/main.jpg", detail.Images[0])
	assert.Equal(t, "https://img.example.com/alt1.jpg", detail.Images[1])
}

func TestParser_ParseProductDetail_Sparse(t *testing.T) {
	parser := newTestParser(t)

	detail, err := parser.ParseProductDetail("<html><body><p>bot check</p></body></html>")
	require.NoError(t, err)

	assert.Empty(t, detail.Title)
	assert.Empty(t, detail.Price)
	assert.Empty(t, detail.Features)
	assert.Empty(t, detail.Images)
}

func TestCatalog_Categories(t *testing.T) {
	cats := Categories()
	assert.Equal(t, []string{"electronics", "home", "fashion", "health", "books", "sports"}, cats)

	for _, cat := range cats {
		assert.True(t, IsValidCategory(cat))
		assert.Len(t, SearchTerms(cat), 3)
	}

	assert.False(t, IsValidCategory("gardening"))
	assert.Equal(t, []string{"best sellers"}, SearchTerms("gardening"))
}
