package extractor

// searchTerms maps each supported category to the queries used to surface
// trending products. Three queries per category keeps result sets broad
// without hammering the catalog.
var searchTerms = map[string][]string{
	"electronics": {"best sellers electronics", "trending gadgets 2024", "top rated electronics"},
	"home":        {"home essentials best sellers", "trending home decor", "kitchen gadgets popular"},
	"fashion":     {"trending fashion accessories", "best selling clothing", "popular shoes"},
	"health":      {"health wellness best sellers", "fitness equipment trending", "supplements popular"},
	"books":       {"best selling books 2024", "trending novels", "popular non-fiction"},
	"sports":      {"sports equipment best sellers", "outdoor gear trending", "fitness accessories popular"},
}

// categories in their fixed presentation order
var categories = []string{"electronics", "home", "fashion", "health", "books", "sports"}

// Categories returns the supported category names
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// IsValidCategory reports whether the category is supported
func IsValidCategory(category string) bool {
	_, ok := searchTerms[category]
	return ok
}

// SearchTerms returns the catalog queries for a category
func SearchTerms(category string) []string {
	if terms, ok := searchTerms[category]; ok {
		return terms
	}
	return []string{"best sellers"}
}
