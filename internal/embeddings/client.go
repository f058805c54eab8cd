// Package embeddings provides text embedding via an external HTTP provider.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "nomic-embed-text"

var (
	// ErrEmptyInput indicates empty or whitespace-only input text.
	ErrEmptyInput = errors.New("empty input text")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates embedding generation failure after retries.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrDimensionMismatch indicates the provider returned a vector whose
	// length disagrees with the configured vector size. This is a
	// configuration error, never retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Config holds configuration for the embedding client.
type Config struct {
	// BaseURL is the base URL of the embedding provider.
	BaseURL string

	// Model is the embedding model name.
	// Default: "nomic-embed-text"
	Model string

	// VectorSize is the expected embedding dimensionality. Vectors of any
	// other length returned by the provider fail fast.
	VectorSize int

	// Timeout bounds each provider request.
	// Default: 30s
	Timeout time.Duration

	// MaxRetries is the attempt ceiling for transient failures.
	// Default: 3
	MaxRetries int

	// RetryBackoff is the initial backoff duration, doubled per retry with
	// jitter applied.
	// Default: 500ms
	RetryBackoff time.Duration

	// MaxTextLength caps input length in runes. Longer texts are truncated
	// from the tail so leading context survives.
	// Default: 8192
	MaxTextLength int

	// BatchConcurrency bounds the fan-out of EmbedBatch against the provider.
	// Default: 4
	BatchConcurrency int
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size required", ErrInvalidConfig)
	}
	return nil
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	if c.MaxTextLength == 0 {
		c.MaxTextLength = 8192
	}
	if c.BatchConcurrency == 0 {
		c.BatchConcurrency = 4
	}
}

// Client converts text to fixed-size vectors via the external provider.
// It owns retry, backoff and timeout policy and holds no per-request state.
type Client struct {
	config  Config
	client  *http.Client
	logger  *zap.Logger
	metrics *Metrics
}

// Result is one positional outcome of EmbedBatch.
type Result struct {
	// Vector is the embedding on success.
	Vector []float32

	// Err is the failure for this item, nil on success.
	Err error
}

// NewClient creates an embedding client with the given configuration.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		logger:  logger,
		metrics: NewMetrics(logger),
	}, nil
}

// Dimension returns the configured embedding dimensionality.
func (c *Client) Dimension() int {
	return c.config.VectorSize
}

// embedRequest is the request body for the provider's embed endpoint.
type embedRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// embedResponse is the provider's response body.
type embedResponse struct {
	Vector []float32 `json:"vector"`
}

// Embed generates an embedding for a single text.
//
// The text must be non-empty after trimming. Texts longer than the configured
// maximum are truncated from the tail before submission. Transient provider
// failures (timeouts, 5xx, connection resets) are retried with exponential
// backoff and jitter up to the attempt ceiling.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	var genErr error
	defer func() {
		c.metrics.RecordGeneration(ctx, c.config.Model, "embed", time.Since(start), 1, genErr)
	}()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		genErr = fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
		return nil, genErr
	}
	trimmed = truncateTail(trimmed, c.config.MaxTextLength)

	vector, err := c.embedWithRetry(ctx, trimmed)
	if err != nil {
		genErr = err
		return nil, genErr
	}
	return vector, nil
}

// EmbedBatch generates embeddings for every text independently.
//
// The result is positionally aligned with the input: a failure on one item
// never aborts the others. Fan-out against the provider is bounded by the
// configured concurrency limit.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) []Result {
	start := time.Now()
	defer func() {
		c.metrics.RecordGeneration(ctx, c.config.Model, "embed_batch", time.Since(start), len(texts), nil)
	}()

	results := make([]Result, len(texts))
	sem := make(chan struct{}, c.config.BatchConcurrency)
	var wg sync.WaitGroup

	for i, text := range texts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = Result{Err: fmt.Errorf("%w: %v", ErrEmbeddingFailed, ctx.Err())}
				return
			}

			vector, err := c.Embed(ctx, text)
			results[i] = Result{Vector: vector, Err: err}
		}(i, text)
	}
	wg.Wait()

	return results
}

// embedWithRetry performs the provider round trip with retry policy applied.
func (c *Client) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	backoff := c.config.RetryBackoff

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying embedding request",
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, ctx.Err())
			case <-time.After(jitter(backoff)):
				backoff *= 2
			}
		}

		vector, transient, err := c.embedOnce(ctx, text)
		if err == nil {
			return vector, nil
		}
		if !transient {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: after %d retries: %v", ErrEmbeddingFailed, c.config.MaxRetries, lastErr)
}

// embedOnce issues a single provider request. The second return value
// reports whether the failure is transient and worth retrying.
func (c *Client) embedOnce(ctx context.Context, text string) ([]float32, bool, error) {
	body, err := json.Marshal(embedRequest{Model: c.config.Model, Text: text})
	if err != nil {
		return nil, false, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// Timeouts and connection resets are transient unless the caller's
		// context is already done.
		if ctx.Err() != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrEmbeddingFailed, ctx.Err())
		}
		return nil, true, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		transient := resp.StatusCode >= 500
		return nil, transient, fmt.Errorf("%w: status %d: %s", ErrEmbeddingFailed, resp.StatusCode, string(respBody))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, false, fmt.Errorf("%w: decoding response: %v", ErrEmbeddingFailed, err)
	}
	if len(decoded.Vector) == 0 {
		return nil, false, fmt.Errorf("%w: empty vector in response", ErrEmbeddingFailed)
	}
	if len(decoded.Vector) != c.config.VectorSize {
		return nil, false, fmt.Errorf("%w: expected %d dimensions, provider returned %d",
			ErrDimensionMismatch, c.config.VectorSize, len(decoded.Vector))
	}

	return decoded.Vector, false, nil
}

// truncateTail cuts text to at most max runes, dropping the tail.
func truncateTail(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

// jitter applies +/-25% randomization to a backoff duration.
func jitter(d time.Duration) time.Duration {
	if d < 4 {
		return d
	}
	delta := time.Duration(rand.Int63n(int64(d) / 2))
	return d - d/4 + delta
}
