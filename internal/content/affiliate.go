package content

import (
	"fmt"
	"strings"
)

// itemIDMarkers are the URL path shapes that carry a catalog item id
var itemIDMarkers = []string{"/dp/", "/gp/product/"}

// BuildAffiliateLink rewrites a catalog product URL into the canonical
// affiliate-tagged form. URLs whose shape is not recognized are returned
// unchanged rather than guessed at.
func BuildAffiliateLink(rawURL, tag, domain string) string {
	itemID := extractItemID(rawURL)
	if itemID == "" {
		return rawURL
	}
	return fmt.Sprintf("https://%s/dp/%s?tag=%s", domain, itemID, tag)
}

// extractItemID pulls the item id out of a /dp/ or /gp/product/ path. The id
// runs until the next path separator or query string.
func extractItemID(rawURL string) string {
	for _, marker := range itemIDMarkers {
		idx := strings.Index(rawURL, marker)
		if idx < 0 {
			continue
		}
		id := rawURL[idx+len(marker):]
		if end := strings.IndexAny(id, "/?"); end >= 0 {
			id = id[:end]
		}
		return id
	}
	return ""
}
