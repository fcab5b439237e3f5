package caption

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"caption-shopify-layer/internal/domain"
	"caption-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultHTTPTimeout = 15 * time.Second
	defaultRPS         = 5
	maxResponseBytes   = 64 << 10
)

// Config holds the caption worker connection settings
type Config struct {
	BaseURL string
	RPS     float64
}

// Client calls the external caption worker over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// Option customizes the client
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient creates a caption worker client. Calls are throttled to cfg.RPS
// with a burst of twice that.
func NewClient(cfg Config, logger zerolog.Logger, opts ...Option) ports.CaptionWorker {
	rps := cfg.RPS
	if rps <= 0 {
		rps = defaultRPS
	}
	burst := int(rps * 2)
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type captionResponse struct {
	AltText string `json:"alt_text"`
}

// Caption posts the image to {baseURL}/caption and returns the trimmed alt text.
// Errors are limited to configuration and transport; a non-2xx status or a body
// that is not the expected JSON is logged and yields an empty caption.
func (c *Client) Caption(ctx context.Context, req ports.CaptionRequest) (string, error) {
	if c.baseURL == "" {
		return "", domain.ErrCaptionWorkerNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for caption worker slot: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal caption request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/caption", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build caption request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call caption worker: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read caption response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("body", strings.TrimSpace(string(data))).
			Str("imageUrl", req.ImageURL).
			Msg("Caption worker returned error status")
		return "", nil
	}

	var parsed captionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		c.logger.Warn().
			Err(err).
			Str("imageUrl", req.ImageURL).
			Msg("Caption worker returned malformed body")
		return "", nil
	}

	return strings.TrimSpace(parsed.AltText), nil
}
