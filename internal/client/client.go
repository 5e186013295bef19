// Package client fetches molecular data and generic assay metadata from a
// cBioPortal REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/inodb/cbio-export/internal/portal"
)

// DefaultBaseURL is the public cBioPortal instance.
const DefaultBaseURL = "https://www.cbioportal.org"

const (
	molecularDataPath    = "/api/molecular-data/fetch?projection=DETAILED"
	genericAssayMetaPath = "/api/generic_assay_meta/fetch"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit is the maximum number of requests per second; zero or less
	// disables pacing.
	RateLimit float64
	// MetaCacheSize bounds the generic assay meta cache.
	MetaCacheSize int
}

// Client is a cBioPortal REST client. Requests are paced and pass through
// a circuit breaker; failed requests are not retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	metaCache  *lru.Cache[string, portal.GenericAssayMeta]
	logger     *zap.Logger
}

// New creates a client. Zero config fields use defaults.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MetaCacheSize <= 0 {
		cfg.MetaCacheSize = 4096
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	metaCache, err := lru.New[string, portal.GenericAssayMeta](cfg.MetaCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create meta cache: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		metaCache:  metaCache,
		logger:     zap.NewNop(),
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cbioportal",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c, nil
}

// SetLogger sets the logger.
func (c *Client) SetLogger(logger *zap.Logger) {
	c.logger = logger
}

// FetchMolecularData fetches the molecular data of the given genes for the
// given (profile, sample) pairs in a single request.
func (c *Client) FetchMolecularData(ctx context.Context, filter portal.MolecularDataFilter) ([]portal.AlterationRecord, error) {
	var records []portal.AlterationRecord
	if err := c.post(ctx, molecularDataPath, filter, &records); err != nil {
		return nil, fmt.Errorf("fetch molecular data: %w", err)
	}
	c.logger.Debug("fetched molecular data",
		zap.Int("identifiers", len(filter.SampleMolecularIdentifiers)),
		zap.Int("genes", len(filter.EntrezGeneIDs)),
		zap.Int("records", len(records)))
	return records, nil
}

type genericAssayMetaFilter struct {
	GenericAssayStableIDs []string `json:"genericAssayStableIds"`
}

// FetchGenericAssayMeta returns the meta of the given stable ids, keyed by
// stable id. Cached entries are not requested again; ids unknown to the
// server are absent from the result.
func (c *Client) FetchGenericAssayMeta(ctx context.Context, stableIDs []string) (map[string]portal.GenericAssayMeta, error) {
	out := make(map[string]portal.GenericAssayMeta, len(stableIDs))
	var missing []string
	queued := make(map[string]bool)
	for _, id := range stableIDs {
		if m, ok := c.metaCache.Get(id); ok {
			out[id] = m
			continue
		}
		if !queued[id] {
			queued[id] = true
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	var metas []portal.GenericAssayMeta
	if err := c.post(ctx, genericAssayMetaPath, genericAssayMetaFilter{GenericAssayStableIDs: missing}, &metas); err != nil {
		return nil, fmt.Errorf("fetch generic assay meta: %w", err)
	}
	for _, m := range metas {
		c.metaCache.Add(m.StableID, m)
		out[m.StableID] = m
	}
	return out, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return nil, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn("request rejected by circuit breaker", zap.String("path", path))
	}
	return err
}
