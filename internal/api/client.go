package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/rs/zerolog"

	"github.com/diogo/eerieecho/internal/models"
)

// HTTPDoer is the part of tls_client.HttpClient the client needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GeminiClientInterface defines the completion operations used by the rest
// of the application
type GeminiClientInterface interface {
	Generate(ctx context.Context, transcript []models.TranscriptEntry, apiKey string) (string, error)
	GetModel() models.Model
	SetModel(model models.Model)
	Close()
}

// GeminiClient talks to the generateContent endpoint of the Gemini REST API
type GeminiClient struct {
	httpClient HTTPDoer
	endpoint   string
	model      models.Model
	timeout    time.Duration
	genConfig  models.GenerationConfig
	logger     zerolog.Logger
	mu         sync.RWMutex
	closed     bool
}

var _ GeminiClientInterface = (*GeminiClient)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*GeminiClient)

// WithModel sets the model used for completions
func WithModel(model models.Model) ClientOption {
	return func(c *GeminiClient) {
		c.model = model
	}
}

// WithEndpoint overrides the API base URL
func WithEndpoint(base string) ClientOption {
	return func(c *GeminiClient) {
		c.endpoint = base
	}
}

// WithTimeout bounds each request. Zero keeps the default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *GeminiClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient injects the transport (used in tests)
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *GeminiClient) {
		c.httpClient = doer
	}
}

// WithGenerationConfig replaces the sampling parameters
func WithGenerationConfig(cfg models.GenerationConfig) ClientOption {
	return func(c *GeminiClient) {
		c.genConfig = cfg
	}
}

// WithLogger sets the logger for request diagnostics
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *GeminiClient) {
		c.logger = logger
	}
}

// NewClient creates a new GeminiClient
func NewClient(opts ...ClientOption) (*GeminiClient, error) {
	client := &GeminiClient{
		endpoint:  models.EndpointBase,
		model:     models.DefaultModel,
		timeout:   models.DefaultTimeout,
		genConfig: models.DefaultGenerationConfig(),
		logger:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(client.timeout / time.Second)),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// GetModel returns the model used for completions
func (c *GeminiClient) GetModel() models.Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SetModel changes the model used for completions
func (c *GeminiClient) SetModel(model models.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
}

// Timeout returns the per-request timeout
func (c *GeminiClient) Timeout() time.Duration {
	return c.timeout
}

// IsClosed returns whether the client is closed
func (c *GeminiClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Close releases idle connections
func (c *GeminiClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	if closer, ok := c.httpClient.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
}
