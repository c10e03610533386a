package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCredentials() Credentials {
	return Credentials{
		PlatformToken:     "token-1234567890",
		AffiliateTag:      "mytag-20",
		SessionPassphrase: "a strong passphrase",
	}
}

func validConfig() AutomationConfig {
	cfg := AutomationConfig{}
	cfg.ApplyDefaults()
	return cfg
}

func TestCredentials_Validate(t *testing.T) {
	valid := validCredentials()
	assert.NoError(t, valid.Validate())

	short := validCredentials()
	short.PlatformToken = "tiny"
	err := short.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "platformtoken", verr.Field)

	noTag := validCredentials()
	noTag.AffiliateTag = "ab"
	assert.Error(t, noTag.Validate())

	noPass := validCredentials()
	noPass.SessionPassphrase = ""
	assert.Error(t, noPass.Validate())
}

func TestAutomationConfig_ApplyDefaults(t *testing.T) {
	cfg := AutomationConfig{}
	cfg.ApplyDefaults()

	assert.Equal(t, []string{"electronics", "home", "fashion", "health"}, cfg.Categories)
	assert.Equal(t, 5, cfg.MaxItemsPerCategory)
	assert.Equal(t, 300, cfg.PostIntervalSeconds)
	assert.Equal(t, 50, cfg.DailyLimit)
	assert.Equal(t, 4.0, cfg.MinRating)
	assert.Equal(t, 10, cfg.MinReviews)
	assert.Equal(t, 5.0, cfg.PriceMin)
	assert.Equal(t, 500.0, cfg.PriceMax)

	assert.NoError(t, cfg.Validate())
}

func TestAutomationConfig_ApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := AutomationConfig{
		Categories:          []string{"books"},
		MaxItemsPerCategory: 3,
	}
	cfg.ApplyDefaults()

	assert.Equal(t, []string{"books"}, cfg.Categories)
	assert.Equal(t, 3, cfg.MaxItemsPerCategory)
}

func TestAutomationConfig_Validate(t *testing.T) {
	badCategory := validConfig()
	badCategory.Categories = []string{"gardening"}
	assert.Error(t, badCategory.Validate(), "categories outside the allow-list are rejected")

	tooMany := validConfig()
	tooMany.MaxItemsPerCategory = 21
	assert.Error(t, tooMany.Validate())

	tooFew := validConfig()
	tooFew.MaxItemsPerCategory = 0
	assert.Error(t, tooFew.Validate())

	badRating := validConfig()
	badRating.MinRating = 5.5
	assert.Error(t, badRating.Validate())

	invertedPrices := validConfig()
	invertedPrices.PriceMin = 100
	invertedPrices.PriceMax = 50
	err := invertedPrices.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price_max")
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.False(t, JobStatusQueued.IsTerminal())
	assert.False(t, JobStatusRunning.IsTerminal())
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.True(t, JobStatusCancelled.IsTerminal())
}

func TestJob_CloneIsDeep(t *testing.T) {
	job := NewJob("sess-1", "sealed", AutomationConfig{Categories: []string{"books"}})
	job.MarkStarted()
	job.Results = NewJobResults()
	job.Results.CategoryResults["books"] = &CategoryResult{
		PinsCreated: 1,
		CreatedPins: []CreatedPin{{ProductTitle: "a", PinID: "p1"}},
	}

	clone := job.Clone()
	clone.Results.CategoryResults["books"].PinsCreated = 99
	clone.Config.Categories[0] = "home"

	assert.Equal(t, 1, job.Results.CategoryResults["books"].PinsCreated)
	assert.Equal(t, "books", job.Config.Categories[0])
}

func TestProduct_Merge(t *testing.T) {
	product := Product{
		SourceID:  "B0X",
		Title:     "Listing Title",
		DetailURL: "https://www.amazon.com/dp/B0X",
		Price:     "$10.00",
		ImageURL:  "thumb.jpg",
	}

	product.Merge(&ProductDetail{
		Title:    "Detail Title",
		Features: []string{"feature one that is long enough"},
		Images:   []string{"full.jpg"},
	})

	assert.Equal(t, "Detail Title", product.Title)
	assert.Equal(t, "$10.00", product.Price, "missing detail fields keep listing values")
	assert.Equal(t, []string{"full.jpg"}, product.Images)
	assert.Equal(t, "thumb.jpg", product.ImageURL, "existing thumbnail is kept")

	product.Merge(nil)
	assert.Equal(t, "Detail Title", product.Title)
}
