package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Credentials are the platform secrets supplied on session start. They are
// encrypted immediately after validation and never stored in plaintext.
type Credentials struct {
	PlatformToken     string `json:"platform_token" validate:"required,min=10"`
	AffiliateTag      string `json:"affiliate_tag" validate:"required,min=3"`
	SessionPassphrase string `json:"session_passphrase" validate:"required,min=8"`
}

// EncryptedCredentials is the subset of credentials persisted inside a job,
// serialized to JSON before encryption.
type EncryptedCredentials struct {
	PlatformToken string `json:"platform_token"`
	AffiliateTag  string `json:"affiliate_tag"`
}

// AutomationConfig controls one automation run
type AutomationConfig struct {
	Categories          []string `json:"categories" validate:"omitempty,dive,oneof=electronics home fashion health books sports"`
	MaxItemsPerCategory int      `json:"max_items_per_category" validate:"min=1,max=20"`
	PostIntervalSeconds int      `json:"post_interval_seconds" validate:"min=0"`
	DailyLimit          int      `json:"daily_limit" validate:"min=0"`
	MinRating           float64  `json:"min_rating" validate:"min=0,max=5"`
	MinReviews          int      `json:"min_reviews" validate:"min=0"`
	PriceMin            float64  `json:"price_min" validate:"min=0"`
	PriceMax            float64  `json:"price_max" validate:"min=0"`
	BoardID             string   `json:"board_id,omitempty"`
}

// AutomationRequest is the body of a start-automation call
type AutomationRequest struct {
	Credentials Credentials      `json:"credentials"`
	Config      AutomationConfig `json:"config"`
}

// ApplyDefaults fills zero-valued config fields with sensible defaults
func (c *AutomationConfig) ApplyDefaults() {
	if len(c.Categories) == 0 {
		c.Categories = []string{"electronics", "home", "fashion", "health"}
	}
	if c.MaxItemsPerCategory == 0 {
		c.MaxItemsPerCategory = 5
	}
	if c.PostIntervalSeconds == 0 {
		c.PostIntervalSeconds = 300
	}
	if c.DailyLimit == 0 {
		c.DailyLimit = 50
	}
	if c.MinRating == 0 {
		c.MinRating = 4.0
	}
	if c.MinReviews == 0 {
		c.MinReviews = 10
	}
	if c.PriceMin == 0 {
		c.PriceMin = 5.0
	}
	if c.PriceMax == 0 {
		c.PriceMax = 500.0
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidationError describes a rejected request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Validate checks the credentials against the field constraints
func (c *Credentials) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		return firstValidationError(err)
	}
	return nil
}

// Validate checks the config bounds and cross-field constraints
func (c *AutomationConfig) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		return firstValidationError(err)
	}
	if c.PriceMax > 0 && c.PriceMin > c.PriceMax {
		return &ValidationError{Field: "price_max", Message: "must be greater than or equal to price_min"}
	}
	return nil
}

// Validate checks the whole request
func (r *AutomationRequest) Validate() error {
	if err := r.Credentials.Validate(); err != nil {
		return err
	}
	return r.Config.Validate()
}

func firstValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: fmt.Sprintf("failed %q constraint", fe.Tag()),
		}
	}
	return &ValidationError{Field: "request", Message: err.Error()}
}
