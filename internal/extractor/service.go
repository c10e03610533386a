// Package extractor discovers trending catalog products via paced search
// queries and best-effort detail page scraping.
package extractor

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/trendpin/trendpin/internal/common"
	"github.com/trendpin/trendpin/internal/httpclient"
	"github.com/trendpin/trendpin/internal/interfaces"
	"github.com/trendpin/trendpin/internal/models"
)

// Service fetches and parses catalog pages with per-host pacing
type Service struct {
	client      *http.Client
	baseURL     string
	parser      interfaces.PageParser
	limiter     *rate.Limiter
	randomDelay time.Duration
	maxBodySize int
	rotateUA    bool

	rngMu sync.Mutex
	rng   *rand.Rand

	logger arbor.ILogger
}

// NewService creates an extractor service. The rng drives user agent
// rotation and delay jitter; tests inject a seeded source.
func NewService(cfg *common.ExtractorConfig, parser interfaces.PageParser, rng *rand.Rand, logger arbor.ILogger) *Service {
	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay.Std())
	}

	return &Service{
		client:      httpclient.NewDefaultHTTPClient(cfg.RequestTimeout.Std()),
		baseURL:     cfg.BaseURL,
		parser:      parser,
		limiter:     rate.NewLimiter(limit, 1),
		randomDelay: cfg.RandomDelay.Std(),
		maxBodySize: cfg.MaxBodySize,
		rotateUA:    cfg.UserAgentRotation,
		rng:         rng,
		logger:      logger,
	}
}

// FetchTrending searches the category's query terms and returns up to
// maxCount products, deduplicated by source id with first occurrence kept.
// A failed query is logged and skipped; remaining queries still run.
func (s *Service) FetchTrending(ctx context.Context, category string, maxCount int) ([]models.Product, error) {
	terms := SearchTerms(category)
	perTerm := maxCount / len(terms)

	var all []models.Product
	for i, term := range terms {
		if len(all) >= maxCount {
			break
		}

		results, err := s.search(ctx, term, perTerm)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn().
				Str("category", category).
				Str("term", term).
				Err(err).
				Msg("Search query failed, continuing with remaining terms")
			continue
		}
		all = append(all, results...)

		if i < len(terms)-1 {
			if err := s.pause(ctx); err != nil {
				return nil, err
			}
		}
	}

	unique := dedupeBySourceID(all)
	if len(unique) > maxCount {
		unique = unique[:maxCount]
	}

	s.logger.Info().
		Str("category", category).
		Int("found", len(unique)).
		Msg("Trending products fetched")

	return unique, nil
}

// FetchDetail scrapes a single product detail page
func (s *Service) FetchDetail(ctx context.Context, pageURL string) (*models.ProductDetail, error) {
	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return s.parser.ParseProductDetail(body)
}

func (s *Service) search(ctx context.Context, term string, maxResults int) ([]models.Product, error) {
	if maxResults <= 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("k", term)
	query.Set("ref", "sr_pg_1")
	searchURL := fmt.Sprintf("%s/s?%s", s.baseURL, query.Encode())

	body, err := s.fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	products, err := s.parser.ParseSearchResults(body)
	if err != nil {
		return nil, err
	}
	if len(products) > maxResults {
		products = products[:maxResults]
	}
	return products, nil
}

func (s *Service) fetch(ctx context.Context, pageURL string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent())
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, pageURL)
	}

	reader := io.Reader(resp.Body)
	if s.maxBodySize > 0 {
		reader = io.LimitReader(resp.Body, int64(s.maxBodySize))
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}

func (s *Service) userAgent() string {
	if !s.rotateUA {
		return httpclient.DefaultUserAgent
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return httpclient.RandomUserAgent(s.rng)
}

// pause waits a jittered delay between search queries, aborting on ctx
func (s *Service) pause(ctx context.Context) error {
	if s.randomDelay <= 0 {
		return nil
	}

	s.rngMu.Lock()
	jitter := time.Duration(s.rng.Int63n(int64(s.randomDelay)))
	s.rngMu.Unlock()

	timer := time.NewTimer(jitter)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// dedupeBySourceID keeps the first occurrence of each source id
func dedupeBySourceID(products []models.Product) []models.Product {
	seen := make(map[string]bool, len(products))
	unique := make([]models.Product, 0, len(products))
	for _, p := range products {
		if seen[p.SourceID] {
			continue
		}
		seen[p.SourceID] = true
		unique = append(unique, p)
	}
	return unique
}
