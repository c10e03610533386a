package models

// Product is a single catalog item discovered by the extractor.
// Search listing fields are populated first; detail fields are merged in
// best-effort from the product page.
type Product struct {
	SourceID   string `json:"source_id"`
	Title      string `json:"title"`
	DetailURL  string `json:"detail_url"`
	Price      string `json:"price,omitempty"`
	Rating     string `json:"rating,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	SearchRank int    `json:"search_rank,omitempty"`

	Description  string   `json:"description,omitempty"`
	Features     []string `json:"features,omitempty"`
	Images       []string `json:"images,omitempty"`
	ReviewCount  string   `json:"review_count,omitempty"`
	Availability string   `json:"availability,omitempty"`
	Category     string   `json:"category,omitempty"`
}

// ProductDetail holds fields scraped from a product detail page.
type ProductDetail struct {
	Title        string
	Price        string
	Description  string
	Features     []string
	Images       []string
	Rating       string
	ReviewCount  string
	Availability string
	Category     string
}

// Merge fills the product with detail fields, preferring detail values where
// present and keeping the search listing values otherwise.
func (p *Product) Merge(d *ProductDetail) {
	if d == nil {
		return
	}
	if d.Title != "" {
		p.Title = d.Title
	}
	if d.Price != "" {
		p.Price = d.Price
	}
	if d.Rating != "" {
		p.Rating = d.Rating
	}
	if d.Description != "" {
		p.Description = d.Description
	}
	if len(d.Features) > 0 {
		p.Features = d.Features
	}
	if len(d.Images) > 0 {
		p.Images = d.Images
		if p.ImageURL == "" {
			p.ImageURL = d.Images[0]
		}
	}
	if d.ReviewCount != "" {
		p.ReviewCount = d.ReviewCount
	}
	if d.Availability != "" {
		p.Availability = d.Availability
	}
	if d.Category != "" {
		p.Category = d.Category
	}
}

// PostContent is a fully rendered post ready for publishing.
type PostContent struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Hashtags      []string `json:"hashtags"`
	ImageURL      string   `json:"image_url"`
	AffiliateLink string   `json:"affiliate_link"`
}

// Board is a publish destination on the platform.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Pin is a published post reference returned by the platform.
type Pin struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
