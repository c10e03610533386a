package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/trendpin/trendpin/internal/content"
	"github.com/trendpin/trendpin/internal/extractor"
	"github.com/trendpin/trendpin/internal/interfaces"
	"github.com/trendpin/trendpin/internal/models"
	"github.com/trendpin/trendpin/internal/vault"
)

// run drives one automation job from credential decryption through the
// per-category pipeline to a terminal state.
func (s *Service) run(ctx context.Context, jobID string, logger arbor.ILogger) {
	job, ok := s.store.Get(jobID)
	if !ok {
		return
	}

	session, err := s.sessions.Lookup(job.SessionID)
	if err != nil {
		s.store.MarkFailed(jobID, "session no longer valid")
		logger.Warn().Msg("Job failed: session closed before run started")
		return
	}

	plaintext, err := vault.Decrypt(job.EncryptedCredentials, session.Key)
	if err != nil {
		s.store.MarkFailed(jobID, "credential decryption failed")
		logger.Warn().Err(err).Msg("Job failed: credentials could not be decrypted")
		return
	}

	var creds models.EncryptedCredentials
	if err := json.Unmarshal([]byte(plaintext), &creds); err != nil {
		s.store.MarkFailed(jobID, "credential payload malformed")
		logger.Warn().Err(err).Msg("Job failed: decrypted payload is not valid JSON")
		return
	}

	pub := s.newPublisher(creds.PlatformToken)
	gen := content.NewGenerator(creds.AffiliateTag, s.catalogDomain, rand.New(rand.NewSource(time.Now().UnixNano())))

	results := models.NewJobResults()
	total := len(job.Config.Categories)

	logger.Info().
		Int("categories", total).
		Int("max_items", job.Config.MaxItemsPerCategory).
		Msg("Job started")

	for i, category := range job.Config.Categories {
		if s.jobStopped(ctx, jobID) {
			logger.Info().Str("category", category).Msg("Job stopped before category")
			break
		}

		if limitReached(job.Config, results) {
			results.DailyLimitReached = true
			s.store.SetResults(jobID, results)
			logger.Info().
				Int("daily_limit", job.Config.DailyLimit).
				Str("category", category).
				Msg("Daily pin limit reached, skipping remaining categories")
			break
		}

		s.store.UpdateProgress(jobID, category, i, total)

		catResult := s.runCategory(ctx, jobID, pub, gen, category, job.Config, results, logger)
		results.CategoryResults[category] = catResult

		if catResult.Error != "" {
			results.TotalErrors++
		} else {
			results.TotalProductsFound += catResult.ProductsFound
			results.TotalPinsCreated += catResult.PinsCreated
			results.TotalErrors += catResult.Errors
		}

		s.store.UpdateProgress(jobID, category, i+1, total)
		s.store.SetResults(jobID, results)
	}

	if s.store.MarkCompleted(jobID, results) {
		logger.Info().
			Int("pins_created", results.TotalPinsCreated).
			Int("products_found", results.TotalProductsFound).
			Int("errors", results.TotalErrors).
			Msg("Job completed")
	}
}

// runCategory executes the fetch-generate-publish pipeline for one category.
// A panic or error here, including a missing board, is contained to the
// category result.
func (s *Service) runCategory(
	ctx context.Context,
	jobID string,
	pub interfaces.Publisher,
	gen *content.Generator,
	category string,
	config models.AutomationConfig,
	aggregate *models.JobResults,
	logger arbor.ILogger,
) (result *models.CategoryResult) {
	result = &models.CategoryResult{CreatedPins: []models.CreatedPin{}}

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Sprintf("category panicked: %v", r)
			logger.Error().
				Str("category", category).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Category run panicked")
		}
		finalizeSuccessRate(result)
	}()

	boardID, err := s.resolveBoard(ctx, pub, config.BoardID)
	if err != nil {
		result.Error = fmt.Sprintf("no boards available: %v", err)
		logger.Warn().Str("category", category).Err(err).Msg("Board resolution failed")
		return result
	}

	products, err := s.source.FetchTrending(ctx, category, config.MaxItemsPerCategory)
	if err != nil {
		result.Error = fmt.Sprintf("product fetch failed: %v", err)
		logger.Warn().Str("category", category).Err(err).Msg("Category fetch failed")
		return result
	}
	result.ProductsFound = len(products)

	interval := time.Duration(config.PostIntervalSeconds) * time.Second

	for i := range products {
		if s.jobStopped(ctx, jobID) {
			logger.Info().Str("category", category).Msg("Job stopped mid-category")
			break
		}

		if config.DailyLimit > 0 && aggregate.TotalPinsCreated+result.PinsCreated >= config.DailyLimit {
			aggregate.DailyLimitReached = true
			logger.Info().
				Str("category", category).
				Int("daily_limit", config.DailyLimit).
				Msg("Daily pin limit reached, stopping category")
			break
		}

		product := products[i]

		detail, err := s.source.FetchDetail(ctx, product.DetailURL)
		if err != nil {
			logger.Warn().
				Str("source_id", product.SourceID).
				Err(err).
				Msg("Detail fetch failed, using listing fields")
		} else {
			product.Merge(detail)
		}

		if !extractor.PassesFilters(&product, config) {
			logger.Debug().Str("source_id", product.SourceID).Msg("Product filtered out")
			continue
		}

		post := gen.BuildPost(&product, category)

		pin, err := pub.Publish(ctx, boardID, post)
		if err != nil {
			result.Errors++
			logger.Warn().
				Str("source_id", product.SourceID).
				Err(err).
				Msg("Pin publish failed")
		} else {
			result.PinsCreated++
			result.CreatedPins = append(result.CreatedPins, models.CreatedPin{
				ProductTitle: product.Title,
				PinID:        pin.ID,
				PinURL:       pin.URL,
			})
		}

		// The pace between publish attempts holds after failures too
		if i < len(products)-1 && interval > 0 {
			if err := sleepCtx(ctx, interval); err != nil {
				break
			}
		}
	}

	return result
}

// resolveBoard uses the configured board or falls back to the first
// available one.
func (s *Service) resolveBoard(ctx context.Context, pub interfaces.Publisher, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	boards, err := pub.ListBoards(ctx)
	if err != nil {
		return "", err
	}
	if len(boards) == 0 {
		return "", fmt.Errorf("account has no boards")
	}
	return boards[0].ID, nil
}

// limitReached reports whether the run already created its daily pin quota
func limitReached(config models.AutomationConfig, results *models.JobResults) bool {
	if results.DailyLimitReached {
		return true
	}
	return config.DailyLimit > 0 && results.TotalPinsCreated >= config.DailyLimit
}

// jobStopped reports whether the run should halt, either from an explicit
// cancel or a pool shutdown.
func (s *Service) jobStopped(ctx context.Context, jobID string) bool {
	if ctx.Err() != nil {
		return true
	}
	return s.store.IsCancelled(jobID)
}

// finalizeSuccessRate computes the percentage of publish attempts that
// succeeded for a category.
func finalizeSuccessRate(result *models.CategoryResult) {
	attempts := result.PinsCreated + result.Errors
	if attempts > 0 {
		result.SuccessRate = float64(result.PinsCreated) / float64(attempts) * 100
	}
}

// sleepCtx waits for the duration unless the context is cancelled first
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
